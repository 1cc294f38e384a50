package jwt

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

const (
	AccessTTL  = time.Hour
	RefreshTTL = 7 * 24 * time.Hour
	// SessionTTL bounds a login; refresh fails once the session row expires.
	SessionTTL = 24 * time.Hour
)

var (
	ErrInvalidToken        = errors.New("invalid token")
	ErrWrongTokenType      = errors.New("invalid token type")
	ErrFingerprintMismatch = errors.New("session security check failed")
)

type Claims struct {
	UserID      string    `json:"user_id"`
	Role        string    `json:"role"`
	SessionID   string    `json:"session_id,omitempty"`
	Type        TokenType `json:"type"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	jwt.RegisteredClaims
}

type Service struct {
	secretKey []byte
	now       func() time.Time
}

func NewService(secretKey string) *Service {
	return &Service{
		secretKey: []byte(secretKey),
		now:       time.Now,
	}
}

// Fingerprint binds a session to the client that opened it.
func Fingerprint(ip, userAgent string) string {
	sum := sha256.Sum256([]byte(ip + ":" + userAgent))
	return hex.EncodeToString(sum[:])[:16]
}

// GenerateToken issues an access token that is not tied to a session.
func (s *Service) GenerateToken(userID, role string) (string, error) {
	return s.sign(Claims{UserID: userID, Role: role, Type: AccessToken}, AccessTTL)
}

// IssuePair issues the access and refresh tokens of a session.
func (s *Service) IssuePair(userID, role, sessionID, fingerprint string) (access, refresh string, err error) {
	access, err = s.IssueAccess(userID, role, sessionID, fingerprint)
	if err != nil {
		return "", "", err
	}
	refresh, err = s.sign(Claims{UserID: userID, SessionID: sessionID, Type: RefreshToken}, RefreshTTL)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (s *Service) IssueAccess(userID, role, sessionID, fingerprint string) (string, error) {
	return s.sign(Claims{
		UserID:      userID,
		Role:        role,
		SessionID:   sessionID,
		Type:        AccessToken,
		Fingerprint: fingerprint,
	}, AccessTTL)
}

func (s *Service) sign(claims Claims, ttl time.Duration) (string, error) {
	now := s.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.New().String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken checks the signature and expiry of any token.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateAccess accepts only access tokens. A token carrying a fingerprint
// must be presented by the same client.
func (s *Service) ValidateAccess(tokenString, fingerprint string) (*Claims, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != AccessToken {
		return nil, ErrWrongTokenType
	}
	if claims.Fingerprint != "" && claims.Fingerprint != fingerprint {
		return nil, ErrFingerprintMismatch
	}
	return claims, nil
}

func (s *Service) ValidateRefresh(tokenString string) (*Claims, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != RefreshToken || claims.SessionID == "" {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}
