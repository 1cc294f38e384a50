package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"feedfinder/pkg/models"
	"feedfinder/pkg/payment"
)

const (
	updateFailed = "Failed to update profile"
	updateError  = "An error occurred while updating profile"
)

// FetchProfile returns nil for an empty id, a missing profile or any
// failure.
func (c *Client) FetchProfile(ctx context.Context, userID string) *models.Profile {
	if userID == "" {
		c.log.Error("FetchProfile: userID is required")
		return nil
	}

	resp, err := c.AuthenticatedFetch(ctx, http.MethodGet, "/api/profile/"+url.PathEscape(userID), nil, nil)
	if err != nil {
		c.log.Error("FetchProfile %s: %v", userID, err)
		return nil
	}

	switch {
	case ok(resp):
		var profile models.Profile
		if err := decode(resp, &profile); err != nil {
			c.log.Error("FetchProfile %s: %v", userID, err)
			return nil
		}
		return &profile
	case resp.StatusCode == http.StatusNotFound:
		drain(resp)
		c.log.Info("FetchProfile %s: not found", userID)
		return nil
	default:
		err := apiError(resp, "")
		c.log.Error("FetchProfile %s: status %d %s", userID, err.Status, err.Message)
		return nil
	}
}

func (c *Client) FetchCurrentUserProfile(ctx context.Context) *models.Profile {
	user := c.VerifySession(ctx)
	if user == nil || user.ID == "" {
		return nil
	}
	return c.FetchProfile(ctx, user.ID)
}

// FetchUserPosts lists a user's posts. The server works out from the session
// whether the viewer may see exclusive ones. The body may be a bare array
// or a {success, items} envelope.
func (c *Client) FetchUserPosts(ctx context.Context, userID string) []models.PostRow {
	rows := []models.PostRow{}

	resp, err := c.AuthenticatedFetch(ctx, http.MethodGet, "/api/posts/user/"+url.PathEscape(userID), nil, nil)
	if err != nil {
		c.log.Error("FetchUserPosts %s: %v", userID, err)
		return rows
	}
	if !ok(resp) {
		drain(resp)
		return rows
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.Error("FetchUserPosts %s: %v", userID, err)
		return rows
	}
	parsed, err := decodeRows(data)
	if err != nil {
		c.log.Error("FetchUserPosts %s: %v", userID, err)
		return rows
	}
	return parsed
}

func decodeRows(data []byte) ([]models.PostRow, error) {
	rows := []models.PostRow{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return nil, err
		}
		return rows, nil
	}

	var list models.PostList
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return nil, err
	}
	if list.Items != nil {
		rows = list.Items
	}
	return rows, nil
}

// FetchProfileStats prefers the stats endpoint. Without it the stats are
// pieced together from the posts, rating and friends endpoints, and any
// part that fails stays 0.
func (c *Client) FetchProfileStats(ctx context.Context, userID, email string) models.Stats {
	resp, err := c.AuthenticatedFetch(ctx, http.MethodGet, "/api/profile/"+url.PathEscape(userID)+"/stats", nil, nil)
	if err != nil {
		c.log.Error("Error fetching stats from endpoint: %v", err)
	} else if ok(resp) {
		var data models.StatsResponse
		if err := decode(resp, &data); err != nil {
			c.log.Error("Error fetching stats from endpoint: %v", err)
		} else if data.Stats != nil {
			return *data.Stats
		}
	} else {
		drain(resp)
	}

	var stats models.Stats
	stats.TotalPosts = len(c.FetchUserPosts(ctx, userID))

	if email != "" {
		var rating models.RatingSummary
		if err := c.call(ctx, http.MethodGet, "/api/rating/"+url.PathEscape(email), nil, &rating, ""); err != nil {
			c.log.Error("Error fetching ratings: %v", err)
		} else if rating.Average != 0 {
			stats.AverageRating = payment.FromTenPoint(rating.Average)
			stats.TotalRatings = rating.Count
		}
	}

	var friends []json.RawMessage
	if err := c.call(ctx, http.MethodGet, "/api/friends/"+url.PathEscape(userID), nil, &friends, ""); err != nil {
		c.log.Error("Error fetching friends: %v", err)
	} else {
		stats.Following = len(friends)
	}

	return stats
}

type UpdateResult struct {
	Success bool
	Profile *models.Profile
	Error   string
}

func (c *Client) UpdateProfile(ctx context.Context, update models.ProfileUpdate) UpdateResult {
	var out struct {
		Profile *models.Profile `json:"profile"`
	}
	err := c.call(ctx, http.MethodPut, "/api/profile/update", update, &out, updateFailed)
	if err == nil {
		return UpdateResult{Success: true, Profile: out.Profile}
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return UpdateResult{Error: apiErr.Message}
	}
	c.log.Error("Error updating profile: %v", err)
	return UpdateResult{Error: updateError}
}
