package http

import (
	"context"
	"io"

	"feedfinder/pkg/payment"
	"feedfinder/pkg/queue"
	"feedfinder/services/api/internal/entity"
	"feedfinder/services/api/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
)

type MockAuthUseCase struct {
	mock.Mock
}

func (m *MockAuthUseCase) Register(ctx context.Context, in usecase.RegisterInput) (*entity.User, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockAuthUseCase) Login(ctx context.Context, username, password, fingerprint string) (*usecase.LoginResult, error) {
	args := m.Called(ctx, username, password, fingerprint)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.LoginResult), args.Error(1)
}

func (m *MockAuthUseCase) Logout(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *MockAuthUseCase) Refresh(ctx context.Context, refreshToken, fingerprint string) (string, error) {
	args := m.Called(ctx, refreshToken, fingerprint)
	return args.String(0), args.Error(1)
}

func (m *MockAuthUseCase) CurrentUser(ctx context.Context, userID string) (*entity.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockAuthUseCase) IsSessionActive(ctx context.Context, sessionID, userID string) bool {
	args := m.Called(ctx, sessionID, userID)
	return args.Bool(0)
}

func (m *MockAuthUseCase) CurrentRole(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *MockAuthUseCase) CleanupSessions(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

var _ usecase.AuthUseCase = (*MockAuthUseCase)(nil)

type MockPostUseCase struct {
	mock.Mock
}

func (m *MockPostUseCase) posts(args mock.Arguments) ([]*entity.Post, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Post), args.Error(1)
}

func (m *MockPostUseCase) PublicPosts(ctx context.Context) ([]*entity.Post, error) {
	return m.posts(m.Called(ctx))
}

func (m *MockPostUseCase) Search(ctx context.Context, query, viewerID string, limit int) ([]*entity.Post, error) {
	return m.posts(m.Called(ctx, query, viewerID, limit))
}

func (m *MockPostUseCase) UserPosts(ctx context.Context, ownerID, viewerID string) ([]*entity.Post, error) {
	return m.posts(m.Called(ctx, ownerID, viewerID))
}

func (m *MockPostUseCase) CreatePost(ctx context.Context, userID string, in usecase.CreatePostInput) (*entity.Post, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Post), args.Error(1)
}

func (m *MockPostUseCase) Upload(ctx context.Context, userID, filename, contentType string, file io.ReadSeeker) (string, error) {
	args := m.Called(ctx, userID, filename, contentType, file)
	return args.String(0), args.Error(1)
}

func (m *MockPostUseCase) AdminPosts(ctx context.Context, limit int) ([]*entity.Post, error) {
	return m.posts(m.Called(ctx, limit))
}

func (m *MockPostUseCase) DeletePost(ctx context.Context, actorID, postID string) error {
	args := m.Called(ctx, actorID, postID)
	return args.Error(0)
}

var _ usecase.PostUseCase = (*MockPostUseCase)(nil)

type MockProfileUseCase struct {
	mock.Mock
}

func (m *MockProfileUseCase) user(args mock.Arguments) (*entity.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockProfileUseCase) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	return m.user(m.Called(ctx, userID))
}

func (m *MockProfileUseCase) UpdateProfile(ctx context.Context, actorID, targetID string, in usecase.ProfileInput) (*entity.User, error) {
	return m.user(m.Called(ctx, actorID, targetID, in))
}

func (m *MockProfileUseCase) Stats(ctx context.Context, userID string) (*usecase.Stats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.Stats), args.Error(1)
}

func (m *MockProfileUseCase) Friends(ctx context.Context, userID string) ([]*entity.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.User), args.Error(1)
}

func (m *MockProfileUseCase) Follow(ctx context.Context, userID, friendID string) error {
	args := m.Called(ctx, userID, friendID)
	return args.Error(0)
}

func (m *MockProfileUseCase) Rate(ctx context.Context, raterID, targetEmail string, value int) error {
	args := m.Called(ctx, raterID, targetEmail, value)
	return args.Error(0)
}

func (m *MockProfileUseCase) Rating(ctx context.Context, targetEmail string) (*usecase.RatingAverage, error) {
	args := m.Called(ctx, targetEmail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.RatingAverage), args.Error(1)
}

func (m *MockProfileUseCase) UpgradePremium(ctx context.Context, userID string, card payment.Card) (*entity.User, error) {
	return m.user(m.Called(ctx, userID, card))
}

var _ usecase.ProfileUseCase = (*MockProfileUseCase)(nil)

type MockFeedUseCase struct {
	mock.Mock
}

func (m *MockFeedUseCase) HandleEvent(ctx context.Context, event queue.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockFeedUseCase) FollowingFeed(ctx context.Context, viewerID string, limit int) ([]*entity.Post, error) {
	args := m.Called(ctx, viewerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Post), args.Error(1)
}

var _ usecase.FeedUseCase = (*MockFeedUseCase)(nil)

// Path ids are UUIDs.
const (
	aliceID = "3f2b9c1e-8d4a-4e6b-9a51-0c7d2e8f1a01"
	bobID   = "3f2b9c1e-8d4a-4e6b-9a51-0c7d2e8f1a02"
	ghostID = "3f2b9c1e-8d4a-4e6b-9a51-0c7d2e8f1aff"
	postID  = "9b7e4d2c-1a3f-4c5e-8d6b-2f0a1e9c7b01"
)

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// asUser runs handler as if the auth middleware had accepted userID.
func asUser(userID string, handler gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("session_id", "session-1")
		handler(c)
	}
}
