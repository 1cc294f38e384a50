package middleware

import (
	"context"
	"net/http"
	"strings"

	"feedfinder/pkg/jwt"

	"github.com/gin-gonic/gin"
)

const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"

	ContextUserID    = "user_id"
	ContextRole      = "user_role"
	ContextSessionID = "session_id"
)

// Sessions answers the questions a token cannot: whether its session is
// still open and what role the user has now.
type Sessions interface {
	IsSessionActive(ctx context.Context, sessionID, userID string) bool
	CurrentRole(ctx context.Context, userID string) (string, error)
}

// TokenFromRequest prefers a Bearer header over the access cookie.
func TokenFromRequest(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(h[len("Bearer "):])
	}
	if cookie, err := c.Cookie(AccessCookie); err == nil {
		return cookie
	}
	return ""
}

type authError struct {
	message string
	code    string
}

func authenticate(c *gin.Context, jwtService *jwt.Service, sessions Sessions) (*jwt.Claims, *authError) {
	token := TokenFromRequest(c)
	if token == "" {
		return nil, &authError{"Authentication required", "NO_TOKEN"}
	}

	claims, err := jwtService.ValidateAccess(token, jwt.Fingerprint(c.ClientIP(), c.Request.UserAgent()))
	if err != nil {
		return nil, &authError{"Invalid or expired session", "INVALID_TOKEN"}
	}

	if sessions != nil {
		ctx := c.Request.Context()
		if claims.SessionID == "" || !sessions.IsSessionActive(ctx, claims.SessionID, claims.UserID) {
			return nil, &authError{"Invalid or expired session", "SESSION_INVALID"}
		}
		role, err := sessions.CurrentRole(ctx, claims.UserID)
		if err != nil {
			return nil, &authError{"Invalid or expired session", "USER_NOT_FOUND"}
		}
		claims.Role = role
	}
	return claims, nil
}

func setIdentity(c *gin.Context, claims *jwt.Claims) {
	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextRole, claims.Role)
	c.Set(ContextSessionID, claims.SessionID)
}

// AuthMiddleware rejects requests without a valid access token. With a
// non-nil sessions the session must be active and the role is read fresh.
func AuthMiddleware(jwtService *jwt.Service, sessions Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, authErr := authenticate(c, jwtService, sessions)
		if authErr != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": authErr.message,
				"error":   authErr.code,
			})
			return
		}
		setIdentity(c, claims)
		c.Next()
	}
}

// OptionalAuth sets the identity when a valid token is present and lets
// every request through.
func OptionalAuth(jwtService *jwt.Service, sessions Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, authErr := authenticate(c, jwtService, sessions); authErr == nil {
			setIdentity(c, claims)
		}
		c.Next()
	}
}

// RequireAdmin must follow AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ContextUserID) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Authentication required",
				"error":   "NO_AUTH",
			})
			return
		}
		if !strings.EqualFold(strings.TrimSpace(c.GetString(ContextRole)), "admin") {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "Admin access required",
				"error":   "INSUFFICIENT_PERMISSIONS",
			})
			return
		}
		c.Next()
	}
}
