package middleware

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"net/http"
	"sync"
	"time"

	"feedfinder/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	CSRFCookie = "csrf_session"
	CSRFHeader = "X-CSRF-Token"
	CSRFTTL    = 24 * time.Hour
)

var ErrCSRFNotFound = errors.New("csrf token not found")

// CSRFStore keeps one token per browser session.
type CSRFStore interface {
	Save(ctx context.Context, sessionKey, token string, ttl time.Duration) error
	Get(ctx context.Context, sessionKey string) (string, error)
}

type RedisCSRFStore struct {
	rdb redis.Cmdable
}

func NewRedisCSRFStore(rdb redis.Cmdable) *RedisCSRFStore {
	return &RedisCSRFStore{rdb: rdb}
}

func (s *RedisCSRFStore) Save(ctx context.Context, sessionKey, token string, ttl time.Duration) error {
	return s.rdb.Set(ctx, "csrf:"+sessionKey, token, ttl).Err()
}

func (s *RedisCSRFStore) Get(ctx context.Context, sessionKey string) (string, error) {
	token, err := s.rdb.Get(ctx, "csrf:"+sessionKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCSRFNotFound
	}
	return token, err
}

// MemoryCSRFStore is used when redis is unavailable.
type MemoryCSRFStore struct {
	mu     sync.Mutex
	tokens map[string]memoryToken
	now    func() time.Time
}

type memoryToken struct {
	token   string
	expires time.Time
}

func NewMemoryCSRFStore() *MemoryCSRFStore {
	return &MemoryCSRFStore{tokens: map[string]memoryToken{}, now: time.Now}
}

func (s *MemoryCSRFStore) Save(_ context.Context, sessionKey, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[sessionKey] = memoryToken{token: token, expires: s.now().Add(ttl)}
	return nil
}

func (s *MemoryCSRFStore) Get(_ context.Context, sessionKey string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[sessionKey]
	if !ok {
		return "", ErrCSRFNotFound
	}
	if s.now().After(t.expires) {
		delete(s.tokens, sessionKey)
		return "", ErrCSRFNotFound
	}
	return t.token, nil
}

func NewCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

type CSRF struct {
	store  CSRFStore
	secure bool
	log    *logger.Logger
}

func NewCSRF(store CSRFStore, secureCookie bool, log *logger.Logger) *CSRF {
	return &CSRF{store: store, secure: secureCookie, log: log}
}

// IssueToken serves GET /api/csrf-token. The token is bound to the
// csrf_session cookie, which is created on first use.
func (m *CSRF) IssueToken(c *gin.Context) {
	sessionKey, err := c.Cookie(CSRFCookie)
	if err != nil || sessionKey == "" {
		sessionKey = uuid.New().String()
	}

	token, err := NewCSRFToken()
	if err != nil {
		m.log.Error("Failed to generate CSRF token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to generate CSRF token"})
		return
	}
	if err := m.store.Save(c.Request.Context(), sessionKey, token, CSRFTTL); err != nil {
		m.log.Error("Failed to store CSRF token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to generate CSRF token"})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CSRFCookie, sessionKey, int(CSRFTTL.Seconds()), "/", "", m.secure, true)
	c.JSON(http.StatusOK, gin.H{"csrf_token": token})
}

// Protect checks the X-CSRF-Token header (or csrf_token form field) on
// state-changing requests.
func (m *CSRF) Protect() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		token := c.GetHeader(CSRFHeader)
		if token == "" {
			token = c.PostForm("csrf_token")
		}

		if !m.valid(c, token) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "Invalid or missing CSRF token",
				"error":   "CSRF_TOKEN_INVALID",
			})
			return
		}
		c.Next()
	}
}

func (m *CSRF) valid(c *gin.Context, token string) bool {
	if token == "" {
		return false
	}
	sessionKey, err := c.Cookie(CSRFCookie)
	if err != nil || sessionKey == "" {
		return false
	}
	stored, err := m.store.Get(c.Request.Context(), sessionKey)
	if err != nil {
		if !errors.Is(err, ErrCSRFNotFound) {
			m.log.Warn("CSRF store lookup failed: %v", err)
		}
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(token)) == 1
}
