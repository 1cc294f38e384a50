package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"feedfinder/pkg/models"
	"feedfinder/pkg/payment"
)

// publicGet fetches an endpoint that needs no session.
func (c *Client) publicGet(ctx context.Context, path string, out interface{}, fallback string) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	if !ok(resp) {
		return apiError(resp, fallback)
	}
	return decode(resp, out)
}

func listItems(list models.PostList, fallback string) ([]models.PostRow, error) {
	if !list.Success {
		msg := list.Message
		if msg == "" {
			msg = fallback
		}
		return nil, &APIError{Status: http.StatusOK, Message: msg}
	}
	if list.Items == nil {
		return []models.PostRow{}, nil
	}
	return list.Items, nil
}

func (c *Client) PublicPosts(ctx context.Context) ([]models.PostRow, error) {
	const fallback = "Failed to load posts"
	var list models.PostList
	if err := c.publicGet(ctx, "/api/posts/public", &list, fallback); err != nil {
		return nil, err
	}
	return listItems(list, fallback)
}

func (c *Client) SearchPosts(ctx context.Context, q string, limit int) ([]models.PostRow, error) {
	const fallback = "Failed to search posts"
	params := url.Values{}
	params.Set("q", q)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var list models.PostList
	if err := c.publicGet(ctx, "/api/posts/search?"+params.Encode(), &list, fallback); err != nil {
		return nil, err
	}
	return listItems(list, fallback)
}

// FollowingPosts returns the caller's following feed. It needs a session.
func (c *Client) FollowingPosts(ctx context.Context, limit int) ([]models.PostRow, error) {
	const fallback = "Failed to load posts"
	path := "/api/posts/following"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var list models.PostList
	if err := c.call(ctx, http.MethodGet, path, nil, &list, fallback); err != nil {
		return nil, err
	}
	return listItems(list, fallback)
}

type postResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Post    *models.PostRow `json:"post"`
}

func (c *Client) CreatePost(ctx context.Context, req models.CreatePostRequest) (*models.PostRow, error) {
	var out postResponse
	if err := c.call(ctx, http.MethodPost, "/api/posts", req, &out, "Failed to create post"); err != nil {
		return nil, err
	}
	return out.Post, nil
}

// UploadMedia sends a file as the multipart "file" field and returns the
// stored media URL.
func (c *Client) UploadMedia(ctx context.Context, filename string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", filename, err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("upload %s: %w", filename, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("upload %s: %w", filename, err)
	}

	header := http.Header{"Content-Type": []string{w.FormDataContentType()}}
	resp, err := c.AuthenticatedFetch(ctx, http.MethodPost, "/api/upload", buf.Bytes(), header)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", filename, err)
	}
	if !ok(resp) {
		return "", apiError(resp, "Upload failed")
	}

	var out models.UploadResponse
	if err := decode(resp, &out); err != nil {
		return "", err
	}
	if out.MediaURL == "" {
		return "", &APIError{Status: resp.StatusCode, Message: "Upload failed"}
	}
	return out.MediaURL, nil
}

func (c *Client) Rate(ctx context.Context, req models.RateRequest) error {
	if err := payment.ValidateRating(req.RatingValue); err != nil {
		return err
	}
	return c.call(ctx, http.MethodPost, "/api/rate", req, nil, "Failed to submit rating")
}

// FetchRating returns the raw aggregate, average on the 10-point scale.
func (c *Client) FetchRating(ctx context.Context, email string) (models.RatingSummary, error) {
	var out models.RatingSummary
	err := c.call(ctx, http.MethodGet, "/api/rating/"+url.PathEscape(email), nil, &out, "Failed to load rating")
	return out, err
}

func (c *Client) FetchFriends(ctx context.Context, userID string) ([]models.Friend, error) {
	friends := []models.Friend{}
	if err := c.call(ctx, http.MethodGet, "/api/friends/"+url.PathEscape(userID), nil, &friends, "Failed to load friends"); err != nil {
		return nil, err
	}
	return friends, nil
}

func (c *Client) Follow(ctx context.Context, userID string) error {
	return c.call(ctx, http.MethodPost, "/api/friends/"+url.PathEscape(userID), nil, nil, "Failed to follow user")
}

func (c *Client) AdminPosts(ctx context.Context, limit int) ([]models.PostRow, error) {
	if limit <= 0 {
		limit = 100
	}
	var out models.AdminPostList
	if err := c.call(ctx, http.MethodGet, "/api/admin/posts?limit="+strconv.Itoa(limit), nil, &out, "Failed to load posts"); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, &APIError{Status: http.StatusOK, Message: out.Message}
	}
	if out.Posts == nil {
		return []models.PostRow{}, nil
	}
	return out.Posts, nil
}

func (c *Client) DeleteAdminPost(ctx context.Context, postID string) error {
	return c.call(ctx, http.MethodDelete, "/api/admin/posts/"+url.PathEscape(postID), nil, nil, "Failed to delete post")
}

type upgradeResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	User    *models.User `json:"user"`
}

// UpgradePremium checks the card locally, then asks the server to flip the
// account to premium. Nothing is charged.
func (c *Client) UpgradePremium(ctx context.Context, card payment.Card) (*models.User, error) {
	if err := card.Validate(c.now()); err != nil {
		return nil, err
	}

	req := models.PremiumUpgradeRequest{
		CardNumber: card.Number,
		CardName:   card.Name,
		Expiry:     card.Expiry,
		CVV:        card.CVV,
	}
	var out upgradeResponse
	if err := c.call(ctx, http.MethodPost, "/api/premium/upgrade", req, &out, "Upgrade failed"); err != nil {
		return nil, err
	}
	return out.User, nil
}
