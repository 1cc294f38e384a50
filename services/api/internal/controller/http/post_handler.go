package http

import (
	"net/http"
	"strconv"

	"feedfinder/pkg/logger"
	"feedfinder/pkg/middleware"
	"feedfinder/pkg/models"
	"feedfinder/services/api/internal/usecase"

	"github.com/gin-gonic/gin"
)

// MaxUploadSize bounds a single media upload.
const MaxUploadSize = 50 << 20

type PostHandler struct {
	postUseCase usecase.PostUseCase
	logger      *logger.Logger
}

func NewPostHandler(postUseCase usecase.PostUseCase, logger *logger.Logger) *PostHandler {
	return &PostHandler{
		postUseCase: postUseCase,
		logger:      logger,
	}
}

// CreatePostResponse is the body of POST /posts.
type CreatePostResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Post    models.PostRow `json:"post"`
}

func queryLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil {
		return 0
	}
	return limit
}

// PublicPosts godoc
// @Summary      Public feed
// @Description  Newest public posts
// @Tags         posts
// @Produce      json
// @Success      200  {object}  models.PostList
// @Failure      500  {object}  ErrorResponse
// @Router       /posts/public [get]
func (h *PostHandler) PublicPosts(c *gin.Context) {
	posts, err := h.postUseCase.PublicPosts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.PostList{Success: true, Items: toPostRows(posts)})
}

// SearchPosts godoc
// @Summary      Search posts
// @Description  Case-insensitive match on caption or author. Exclusive media is blank unless the viewer is premium, an admin or the author
// @Tags         posts
// @Produce      json
// @Param        q      query  string  true   "Search text"
// @Param        limit  query  int     false  "Max results (default 20, max 100)"
// @Success      200  {object}  models.PostList
// @Failure      400  {object}  ErrorResponse
// @Router       /posts/search [get]
func (h *PostHandler) SearchPosts(c *gin.Context) {
	posts, err := h.postUseCase.Search(c.Request.Context(), c.Query("q"), c.GetString(middleware.ContextUserID), queryLimit(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.PostList{Success: true, Items: toPostRows(posts)})
}

// UserPosts godoc
// @Summary      Posts of a user
// @Description  Exclusive posts are included for the owner, premium viewers and admins
// @Tags         posts
// @Produce      json
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  models.PostList
// @Router       /posts/user/{id} [get]
func (h *PostHandler) UserPosts(c *gin.Context) {
	ownerID, found := idParam(c)
	if !found {
		return
	}
	posts, err := h.postUseCase.UserPosts(c.Request.Context(), ownerID, c.GetString(middleware.ContextUserID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.PostList{Success: true, Items: toPostRows(posts)})
}

// CreatePost godoc
// @Summary      Create a post
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        X-CSRF-Token header string true "CSRF token"
// @Param        request body models.CreatePostRequest true "Post"
// @Success      201  {object}  CreatePostResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /posts [post]
func (h *PostHandler) CreatePost(c *gin.Context) {
	var req models.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	post, err := h.postUseCase.CreatePost(c.Request.Context(), c.GetString(middleware.ContextUserID), usecase.CreatePostInput{
		MediaURL:    req.MediaURL,
		MediaType:   string(req.MediaType),
		ContentText: req.ContentText,
		Privacy:     string(req.Privacy),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, CreatePostResponse{Success: true, Message: "Post created", Post: toPostRow(post)})
}

// Upload godoc
// @Summary      Upload media
// @Description  Accepts png, jpg, gif, mp4, mov and webm files whose bytes match their extension
// @Tags         posts
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        X-CSRF-Token header string true "CSRF token"
// @Param        file formData file true "Media file"
// @Success      200  {object}  models.UploadResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      503  {object}  ErrorResponse
// @Router       /upload [post]
func (h *PostHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, "A file is required")
		return
	}
	if file.Size > MaxUploadSize {
		fail(c, http.StatusBadRequest, "File too large")
		return
	}

	src, err := file.Open()
	if err != nil {
		fail(c, http.StatusInternalServerError, "Failed to process file")
		return
	}
	defer src.Close()

	url, err := h.postUseCase.Upload(c.Request.Context(), c.GetString(middleware.ContextUserID),
		file.Filename, file.Header.Get("Content-Type"), src)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.UploadResponse{Success: true, MediaURL: url})
}

// AdminPosts godoc
// @Summary      All posts for moderation
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query  int  false  "Max results (default and max 100)"
// @Success      200  {object}  models.AdminPostList
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /admin/posts [get]
func (h *PostHandler) AdminPosts(c *gin.Context) {
	posts, err := h.postUseCase.AdminPosts(c.Request.Context(), queryLimit(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.AdminPostList{Success: true, Posts: toPostRows(posts)})
}

// DeleteAdminPost godoc
// @Summary      Remove a post
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        X-CSRF-Token header string true "CSRF token"
// @Param        id   path      string  true  "Post ID"
// @Success      200  {object}  MessageResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /admin/posts/{id} [delete]
func (h *PostHandler) DeleteAdminPost(c *gin.Context) {
	postID, found := idParam(c)
	if !found {
		return
	}
	if err := h.postUseCase.DeletePost(c.Request.Context(), c.GetString(middleware.ContextUserID), postID); err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, "Post deleted")
}
