package http

import (
	"net/http"

	"feedfinder/pkg/logger"
	"feedfinder/pkg/middleware"
	"feedfinder/pkg/models"
	"feedfinder/services/api/internal/usecase"

	"github.com/gin-gonic/gin"
)

type FeedHandler struct {
	feedUseCase usecase.FeedUseCase
	logger      *logger.Logger
}

func NewFeedHandler(feedUseCase usecase.FeedUseCase, logger *logger.Logger) *FeedHandler {
	return &FeedHandler{
		feedUseCase: feedUseCase,
		logger:      logger,
	}
}

// FollowingPosts godoc
// @Summary      Following feed
// @Description  Newest posts from the accounts the caller follows
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query  int  false  "Max results (default 50)"
// @Success      200  {object}  models.PostList
// @Failure      401  {object}  ErrorResponse
// @Router       /posts/following [get]
func (h *FeedHandler) FollowingPosts(c *gin.Context) {
	posts, err := h.feedUseCase.FollowingFeed(c.Request.Context(), c.GetString(middleware.ContextUserID), queryLimit(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.PostList{Success: true, Items: toPostRows(posts)})
}
