package http

import (
	"fmt"
	"net/http"

	"feedfinder/pkg/jwt"
	"feedfinder/pkg/logger"
	"feedfinder/pkg/middleware"
	"feedfinder/pkg/models"
	"feedfinder/services/api/internal/usecase"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authUseCase  usecase.AuthUseCase
	cookieSecure bool
	logger       *logger.Logger
}

func NewAuthHandler(authUseCase usecase.AuthUseCase, cookieSecure bool, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authUseCase:  authUseCase,
		cookieSecure: cookieSecure,
		logger:       logger,
	}
}

func fingerprint(c *gin.Context) string {
	return jwt.Fingerprint(c.ClientIP(), c.Request.UserAgent())
}

func (h *AuthHandler) setCookie(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", "", h.cookieSecure, true)
}

// Login godoc
// @Summary      Log in
// @Description  Checks the credentials, opens a session and sets the access and refresh cookies
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        X-CSRF-Token header string true "CSRF token"
// @Param        request body models.LoginRequest true "Credentials"
// @Success      200  {object}  models.AuthResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, usecase.ErrCredentialsRequired.Error())
		return
	}

	result, err := h.authUseCase.Login(c.Request.Context(), req.Username, req.Password, fingerprint(c))
	if err != nil {
		respondError(c, err)
		return
	}

	h.setCookie(c, middleware.AccessCookie, result.AccessToken, int(jwt.AccessTTL.Seconds()))
	h.setCookie(c, middleware.RefreshCookie, result.RefreshToken, int(jwt.RefreshTTL.Seconds()))

	success := true
	c.JSON(http.StatusOK, models.AuthResponse{
		Success: &success,
		Message: fmt.Sprintf("Welcome, %s!", result.User.Username),
		User:    toUser(result.User),
	})
}

// Register godoc
// @Summary      Create an account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        X-CSRF-Token header string true "CSRF token"
// @Param        request body models.RegisterRequest true "Registration data"
// @Success      201  {object}  MessageResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, usecase.ErrMissingFields.Error())
		return
	}

	_, err := h.authUseCase.Register(c.Request.Context(), usecase.RegisterInput{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Bio:             req.Bio,
		Private:         req.Private,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	ok(c, http.StatusCreated, "Account created successfully!")
}

// Logout godoc
// @Summary      Log out
// @Description  Ends the session and clears the auth cookies
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Param        X-CSRF-Token header string true "CSRF token"
// @Success      200  {object}  MessageResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authUseCase.Logout(c.Request.Context(), c.GetString(middleware.ContextSessionID)); err != nil {
		h.logger.Warn("Logout: %v", err)
	}

	h.setCookie(c, middleware.AccessCookie, "", -1)
	h.setCookie(c, middleware.RefreshCookie, "", -1)
	ok(c, http.StatusOK, "Logged out")
}

// Refresh godoc
// @Summary      Renew the access token
// @Description  Uses the refresh cookie to issue a new access cookie for a live session
// @Tags         auth
// @Produce      json
// @Success      200  {object}  MessageResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	refresh, err := c.Cookie(middleware.RefreshCookie)
	if err != nil || refresh == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Authentication required", Error: "NO_TOKEN"})
		return
	}

	access, err := h.authUseCase.Refresh(c.Request.Context(), refresh, fingerprint(c))
	if err != nil {
		respondError(c, err)
		return
	}

	h.setCookie(c, middleware.AccessCookie, access, int(jwt.AccessTTL.Seconds()))
	ok(c, http.StatusOK, "Token refreshed")
}

// VerifySession godoc
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.SessionResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /verify-session [get]
func (h *AuthHandler) VerifySession(c *gin.Context) {
	user, err := h.authUseCase.CurrentUser(c.Request.Context(), c.GetString(middleware.ContextUserID))
	if err != nil {
		fail(c, http.StatusUnauthorized, "Invalid or expired session")
		return
	}

	c.JSON(http.StatusOK, models.SessionResponse{Success: true, User: toUser(user)})
}
