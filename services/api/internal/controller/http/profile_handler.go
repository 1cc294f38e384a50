package http

import (
	"net/http"

	"feedfinder/pkg/logger"
	"feedfinder/pkg/middleware"
	"feedfinder/pkg/models"
	"feedfinder/pkg/payment"
	"feedfinder/services/api/internal/usecase"

	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	profileUseCase usecase.ProfileUseCase
	logger         *logger.Logger
}

func NewProfileHandler(profileUseCase usecase.ProfileUseCase, logger *logger.Logger) *ProfileHandler {
	return &ProfileHandler{
		profileUseCase: profileUseCase,
		logger:         logger,
	}
}

type ProfileResponse struct {
	Success bool            `json:"success"`
	Profile *models.Profile `json:"profile"`
}

type UpgradeResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	User    *models.User `json:"user"`
}

// GetProfile godoc
// @Summary      Get a profile
// @Tags         profile
// @Produce      json
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  models.Profile
// @Failure      404  {object}  ErrorResponse
// @Router       /profile/{id} [get]
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	id, found := idParam(c)
	if !found {
		return
	}
	user, err := h.profileUseCase.GetProfile(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProfile(user))
}

// GetStats godoc
// @Summary      Profile statistics
// @Tags         profile
// @Produce      json
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  models.StatsResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /profile/{id}/stats [get]
func (h *ProfileHandler) GetStats(c *gin.Context) {
	id, found := idParam(c)
	if !found {
		return
	}
	stats, err := h.profileUseCase.Stats(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.StatsResponse{Success: true, Stats: &models.Stats{
		TotalPosts:    stats.TotalPosts,
		TotalLikes:    stats.TotalLikes,
		TotalRatings:  stats.TotalRatings,
		AverageRating: stats.AverageRating,
		Followers:     stats.Followers,
		Following:     stats.Following,
	}})
}

// UpdateOwnProfile godoc
// @Summary      Update your profile
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        X-CSRF-Token header string true "CSRF token"
// @Param        request body models.ProfileUpdate true "Changed fields"
// @Success      200  {object}  ProfileResponse
// @Failure      400  {object}  ErrorResponse
// @Router       /profile/update [put]
func (h *ProfileHandler) UpdateOwnProfile(c *gin.Context) {
	h.update(c, c.GetString(middleware.ContextUserID))
}

// UpdateProfile godoc
// @Summary      Update a profile
// @Description  Users may update their own profile; admins may update any
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        X-CSRF-Token header string true "CSRF token"
// @Param        id   path      string  true  "User ID"
// @Param        request body models.ProfileUpdate true "Changed fields"
// @Success      200  {object}  ProfileResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /profile/{id} [put]
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	if id, found := idParam(c); found {
		h.update(c, id)
	}
}

func (h *ProfileHandler) update(c *gin.Context, targetID string) {
	var req models.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.profileUseCase.UpdateProfile(c.Request.Context(), c.GetString(middleware.ContextUserID), targetID, usecase.ProfileInput{
		Bio:            req.Bio,
		ProfilePicture: req.ProfilePicture,
		IsPrivate:      req.IsPrivate,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ProfileResponse{Success: true, Profile: toProfile(user)})
}

// GetRating godoc
// @Summary      Rating of a user
// @Description  Average on a 10-point scale
// @Tags         rating
// @Produce      json
// @Param        email  path      string  true  "User email"
// @Success      200    {object}  models.RatingSummary
// @Router       /rating/{email} [get]
func (h *ProfileHandler) GetRating(c *gin.Context) {
	rating, err := h.profileUseCase.Rating(c.Request.Context(), c.Param("email"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.RatingSummary{Average: rating.Average, Count: rating.Count})
}

// Rate godoc
// @Summary      Rate a user
// @Description  One rating per rater and target; rating again replaces it. The rater is the session user.
// @Tags         rating
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        X-CSRF-Token header string true "CSRF token"
// @Param        request body models.RateRequest true "Rating"
// @Success      200  {object}  MessageResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /rate [post]
func (h *ProfileHandler) Rate(c *gin.Context) {
	var req models.RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.profileUseCase.Rate(c.Request.Context(), c.GetString(middleware.ContextUserID), req.TargetEmail, req.RatingValue); err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, "Rating submitted")
}

// GetFriends godoc
// @Summary      Users someone follows
// @Tags         friends
// @Produce      json
// @Param        id   path      string  true  "User ID"
// @Success      200  {array}   models.Friend
// @Router       /friends/{id} [get]
func (h *ProfileHandler) GetFriends(c *gin.Context) {
	id, found := idParam(c)
	if !found {
		return
	}
	users, err := h.profileUseCase.Friends(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	friends := make([]models.Friend, len(users))
	for i, u := range users {
		friends[i] = models.Friend{UserID: u.ID, UserName: u.Username}
	}
	c.JSON(http.StatusOK, friends)
}

// Follow godoc
// @Summary      Follow a user
// @Tags         friends
// @Produce      json
// @Security     BearerAuth
// @Param        X-CSRF-Token header string true "CSRF token"
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  MessageResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /friends/{id} [post]
func (h *ProfileHandler) Follow(c *gin.Context) {
	friendID, found := idParam(c)
	if !found {
		return
	}
	if err := h.profileUseCase.Follow(c.Request.Context(), c.GetString(middleware.ContextUserID), friendID); err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, "Following")
}

// UpgradePremium godoc
// @Summary      Upgrade to premium
// @Description  Simulated checkout. The card is validated and never charged or stored.
// @Tags         premium
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        X-CSRF-Token header string true "CSRF token"
// @Param        request body models.PremiumUpgradeRequest true "Card"
// @Success      200  {object}  UpgradeResponse
// @Failure      400  {object}  ErrorResponse
// @Router       /premium/upgrade [post]
func (h *ProfileHandler) UpgradePremium(c *gin.Context) {
	var req models.PremiumUpgradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.profileUseCase.UpgradePremium(c.Request.Context(), c.GetString(middleware.ContextUserID), payment.Card{
		Number: req.CardNumber,
		Name:   req.CardName,
		Expiry: req.Expiry,
		CVV:    req.CVV,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, UpgradeResponse{Success: true, Message: "Welcome to Premium!", User: toUser(user)})
}
