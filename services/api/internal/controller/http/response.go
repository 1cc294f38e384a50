package http

import (
	"errors"
	"net/http"

	"feedfinder/pkg/models"
	"feedfinder/services/api/internal/entity"
	"feedfinder/services/api/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// MessageResponse is the body of requests that only report success.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Success: false, Message: message})
}

func ok(c *gin.Context, status int, message string) {
	c.JSON(status, MessageResponse{Success: true, Message: message})
}

// idParam returns the :id path parameter. Ids are UUIDs, so anything else
// cannot name a row and is answered with 404.
func idParam(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusNotFound, "Not found")
		return "", false
	}
	return id, true
}

// respondError maps usecase errors to status codes. Validation messages
// are shown as is; anything unknown is a 500 without detail.
func respondError(c *gin.Context, err error) {
	var validation usecase.ValidationError
	switch {
	case errors.As(err, &validation):
		fail(c, http.StatusBadRequest, validation.Error())
	case errors.Is(err, usecase.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, "Invalid username or password")
	case errors.Is(err, usecase.ErrSessionExpired):
		fail(c, http.StatusUnauthorized, "Invalid or expired session")
	case errors.Is(err, usecase.ErrForbidden):
		fail(c, http.StatusForbidden, "You are not allowed to do that")
	case errors.Is(err, usecase.ErrNotFound):
		fail(c, http.StatusNotFound, "Not found")
	case errors.Is(err, usecase.ErrStorageUnavailable):
		fail(c, http.StatusServiceUnavailable, "Uploads are unavailable")
	default:
		fail(c, http.StatusInternalServerError, "Internal server error")
	}
}

func toUser(u *entity.User) *models.User {
	if u == nil {
		return nil
	}
	return &models.User{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		Role:           string(u.Role),
		IsPremium:      u.IsPremium,
		Bio:            u.Bio,
		ProfilePicture: u.ProfilePicture,
		IsPrivate:      u.IsPrivate,
	}
}

func toProfile(u *entity.User) *models.Profile {
	return &models.Profile{
		UserID:         u.ID,
		UserName:       u.Username,
		UserEmail:      u.Email,
		Bio:            u.Bio,
		ProfilePicture: u.ProfilePicture,
		IsPremium:      u.IsPremium,
		IsPrivate:      u.IsPrivate,
		CreatedAt:      u.CreatedAt,
	}
}

func toPostRow(p *entity.Post) models.PostRow {
	return models.PostRow{
		PostID:      p.ID,
		UserID:      p.UserID,
		UserName:    p.UserName,
		UserEmail:   p.UserEmail,
		MediaURL:    p.MediaURL,
		MediaType:   models.MediaType(p.MediaType),
		ContentText: p.ContentText,
		CreatedAt:   p.CreatedAt,
		Privacy:     models.Privacy(p.Privacy),
		LikeCount:   p.LikeCount,
	}
}

func toPostRows(posts []*entity.Post) []models.PostRow {
	rows := make([]models.PostRow, len(posts))
	for i, p := range posts {
		rows[i] = toPostRow(p)
	}
	return rows
}
