package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"feedfinder/pkg/logger"
	"feedfinder/pkg/payment"
	"feedfinder/pkg/queue"
	"feedfinder/services/api/internal/entity"
	"feedfinder/services/api/internal/repo/persistent"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type profileMocks struct {
	users     *MockUserRepository
	posts     *MockPostRepository
	follows   *MockFollowRepository
	ratings   *MockRatingRepository
	publisher *MockPublisher
}

func newProfileUseCase() (*profileUseCase, profileMocks) {
	m := profileMocks{
		users:     new(MockUserRepository),
		posts:     new(MockPostRepository),
		follows:   new(MockFollowRepository),
		ratings:   new(MockRatingRepository),
		publisher: new(MockPublisher),
	}
	uc := NewProfileUseCase(m.users, m.posts, m.follows, m.ratings, m.publisher, logger.Discard()).(*profileUseCase)
	uc.now = func() time.Time { return testNow }
	return uc, m
}

func strPtr(s string) *string { return &s }

func TestStats(t *testing.T) {
	uc, m := newProfileUseCase()

	m.users.On("GetByID", mock.Anything, "user-1").Return(&entity.User{ID: "user-1", Email: "a@x.io"}, nil)
	m.posts.On("CountByUser", mock.Anything, "user-1").Return(4, 17, nil)
	m.follows.On("Counts", mock.Anything, "user-1").Return(3, 2, nil)
	m.ratings.On("Summary", mock.Anything, "a@x.io").Return(entity.RatingSummary{Sum: 13, Count: 3}, nil)

	stats, err := uc.Stats(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, &Stats{
		TotalPosts:    4,
		TotalLikes:    17,
		TotalRatings:  3,
		AverageRating: 4.3,
		Followers:     3,
		Following:     2,
	}, stats)
}

func TestStats_BranchFailure(t *testing.T) {
	uc, m := newProfileUseCase()

	m.users.On("GetByID", mock.Anything, "user-1").Return(&entity.User{ID: "user-1", Email: "a@x.io"}, nil)
	m.posts.On("CountByUser", mock.Anything, "user-1").Return(0, 0, errors.New("db down"))
	m.follows.On("Counts", mock.Anything, "user-1").Return(0, 0, nil)
	m.ratings.On("Summary", mock.Anything, "a@x.io").Return(entity.RatingSummary{}, nil)

	_, err := uc.Stats(context.Background(), "user-1")
	assert.Error(t, err)
}

func TestStats_UnknownUser(t *testing.T) {
	uc, m := newProfileUseCase()
	m.users.On("GetByID", mock.Anything, "nobody").Return(nil, persistent.ErrNotFound)

	_, err := uc.Stats(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRating_TenPointScale(t *testing.T) {
	uc, m := newProfileUseCase()

	m.ratings.On("Summary", mock.Anything, "a@x.io").Return(entity.RatingSummary{Sum: 9, Count: 2}, nil)
	m.ratings.On("Summary", mock.Anything, "new@x.io").Return(entity.RatingSummary{}, nil)

	got, err := uc.Rating(context.Background(), "a@x.io")
	require.NoError(t, err)
	assert.Equal(t, 9.0, got.Average)
	assert.Equal(t, 2, got.Count)
	assert.Equal(t, 4.5, payment.FromTenPoint(got.Average))

	got, err = uc.Rating(context.Background(), "new@x.io")
	require.NoError(t, err)
	assert.Equal(t, &RatingAverage{}, got)
}

func TestRate(t *testing.T) {
	uc, m := newProfileUseCase()

	m.users.On("GetByID", mock.Anything, "rater").Return(&entity.User{ID: "rater", Email: "me@x.io"}, nil)
	m.users.On("GetByEmail", mock.Anything, "bob@x.io").Return(&entity.User{ID: "bob", Email: "bob@x.io"}, nil)
	m.users.On("GetByEmail", mock.Anything, "ghost@x.io").Return(nil, persistent.ErrNotFound)
	m.ratings.On("Upsert", mock.Anything, mock.MatchedBy(func(r *entity.Rating) bool {
		return r.RaterID == "rater" && r.TargetEmail == "bob@x.io" && r.Value == 4
	})).Return(nil)
	m.publisher.On("Publish", mock.Anything, mock.MatchedBy(func(e queue.Event) bool {
		return e.Type == queue.RatingSubmitted && e.Attributes["rating"] == "4"
	})).Return(nil)

	ctx := context.Background()
	assert.ErrorIs(t, uc.Rate(ctx, "rater", "bob@x.io", 0), ErrRatingRange)
	assert.ErrorIs(t, uc.Rate(ctx, "rater", "bob@x.io", 6), ErrRatingRange)
	assert.ErrorIs(t, uc.Rate(ctx, "rater", "ME@x.io", 3), ErrSelfRating)
	assert.ErrorIs(t, uc.Rate(ctx, "rater", "ghost@x.io", 3), ErrNotFound)
	assert.NoError(t, uc.Rate(ctx, "rater", " Bob@X.io ", 4))

	m.ratings.AssertNumberOfCalls(t, "Upsert", 1)
	m.publisher.AssertExpectations(t)
}

func TestUpdateProfile(t *testing.T) {
	uc, m := newProfileUseCase()

	m.users.On("GetByID", mock.Anything, "alice").Return(&entity.User{ID: "alice", Role: entity.RoleUser}, nil)
	m.users.On("GetByID", mock.Anything, "root").Return(&entity.User{ID: "root", Role: entity.RoleAdmin}, nil)
	m.users.On("GetByID", mock.Anything, "bob").Return(&entity.User{ID: "bob", Bio: "old"}, nil)
	m.users.On("Update", mock.Anything, mock.AnythingOfType("*entity.User")).Return(nil)

	ctx := context.Background()

	_, err := uc.UpdateProfile(ctx, "alice", "bob", ProfileInput{Bio: strPtr("hacked")})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = uc.UpdateProfile(ctx, "bob", "bob", ProfileInput{ProfilePicture: strPtr("javascript:alert(1)")})
	assert.ErrorIs(t, err, ErrProfilePicture)

	private := true
	user, err := uc.UpdateProfile(ctx, "root", "bob", ProfileInput{Bio: strPtr("  new bio "), IsPrivate: &private})
	require.NoError(t, err)
	assert.Equal(t, "new bio", user.Bio)
	assert.True(t, user.IsPrivate)

	user, err = uc.UpdateProfile(ctx, "bob", "bob", ProfileInput{ProfilePicture: strPtr("https://cdn.test/me.png")})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/me.png", user.ProfilePicture)
}

func TestFollow(t *testing.T) {
	uc, m := newProfileUseCase()

	m.users.On("GetByID", mock.Anything, "bob").Return(&entity.User{ID: "bob"}, nil)
	m.users.On("GetByID", mock.Anything, "ghost").Return(nil, persistent.ErrNotFound)
	m.follows.On("Follow", mock.Anything, "alice", "bob").Return(nil)

	ctx := context.Background()
	assert.ErrorIs(t, uc.Follow(ctx, "alice", "alice"), ErrSelfFollow)
	assert.ErrorIs(t, uc.Follow(ctx, "alice", "ghost"), ErrNotFound)
	assert.NoError(t, uc.Follow(ctx, "alice", "bob"))
}

func TestUpgradePremium(t *testing.T) {
	uc, m := newProfileUseCase()

	m.users.On("GetByID", mock.Anything, "alice").Return(&entity.User{ID: "alice"}, nil)
	m.users.On("SetPremium", mock.Anything, "alice", true).Return(nil)

	ctx := context.Background()
	good := payment.Card{Number: "4242 4242 4242 4242", Name: "Alice A", Expiry: "12/30", CVV: "123"}

	bad := good
	bad.Number = "4242 4242 4242 4241"
	_, err := uc.UpgradePremium(ctx, "alice", bad)
	assert.EqualError(t, err, payment.ErrCardNumber.Error())
	var validation ValidationError
	assert.True(t, errors.As(err, &validation))

	expired := good
	expired.Expiry = "01/24"
	_, err = uc.UpgradePremium(ctx, "alice", expired)
	assert.EqualError(t, err, payment.ErrExpiry.Error())

	user, err := uc.UpgradePremium(ctx, "alice", good)
	require.NoError(t, err)
	assert.True(t, user.IsPremium)
	m.users.AssertCalled(t, "SetPremium", mock.Anything, "alice", true)
}

func TestUpgradePremium_AlreadyPremium(t *testing.T) {
	uc, m := newProfileUseCase()
	m.users.On("GetByID", mock.Anything, "alice").Return(&entity.User{ID: "alice", IsPremium: true}, nil)

	good := payment.Card{Number: "4242424242424242", Name: "Alice A", Expiry: "12/30", CVV: "123"}
	_, err := uc.UpgradePremium(context.Background(), "alice", good)

	assert.ErrorIs(t, err, ErrAlreadyPremium)
	m.users.AssertNotCalled(t, "SetPremium", mock.Anything, mock.Anything, mock.Anything)
}
