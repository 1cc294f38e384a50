package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"feedfinder/pkg/logger"
	"feedfinder/pkg/media"
	"feedfinder/pkg/payment"
	"feedfinder/pkg/queue"
	"feedfinder/services/api/internal/entity"
	"feedfinder/services/api/internal/repo/persistent"

	"golang.org/x/sync/errgroup"
)

const maxBioLen = 500

type ProfileInput struct {
	Bio            *string
	ProfilePicture *string
	IsPrivate      *bool
}

// Stats is the profile header. AverageRating is in stars, one decimal.
type Stats struct {
	TotalPosts    int
	TotalLikes    int
	TotalRatings  int
	AverageRating float64
	Followers     int
	Following     int
}

// RatingAverage is the 10-point aggregate served by the rating endpoint.
type RatingAverage struct {
	Average float64
	Count   int
}

type ProfileUseCase interface {
	GetProfile(ctx context.Context, userID string) (*entity.User, error)
	UpdateProfile(ctx context.Context, actorID, targetID string, in ProfileInput) (*entity.User, error)
	Stats(ctx context.Context, userID string) (*Stats, error)
	Friends(ctx context.Context, userID string) ([]*entity.User, error)
	Follow(ctx context.Context, userID, friendID string) error
	Rate(ctx context.Context, raterID, targetEmail string, value int) error
	Rating(ctx context.Context, targetEmail string) (*RatingAverage, error)
	UpgradePremium(ctx context.Context, userID string, card payment.Card) (*entity.User, error)
}

type profileUseCase struct {
	userRepo   persistent.UserRepository
	postRepo   persistent.PostRepository
	followRepo persistent.FollowRepository
	ratingRepo persistent.RatingRepository
	publisher  queue.Publisher
	logger     *logger.Logger
	now        func() time.Time
}

func NewProfileUseCase(
	userRepo persistent.UserRepository,
	postRepo persistent.PostRepository,
	followRepo persistent.FollowRepository,
	ratingRepo persistent.RatingRepository,
	publisher queue.Publisher,
	logger *logger.Logger,
) ProfileUseCase {
	return &profileUseCase{
		userRepo:   userRepo,
		postRepo:   postRepo,
		followRepo: followRepo,
		ratingRepo: ratingRepo,
		publisher:  publisher,
		logger:     logger,
		now:        time.Now,
	}
}

func (uc *profileUseCase) user(ctx context.Context, userID string) (*entity.User, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if errors.Is(err, persistent.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	user.Password = ""
	return user, nil
}

func (uc *profileUseCase) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	return uc.user(ctx, userID)
}

// UpdateProfile lets users edit their own profile and admins edit anyone's.
func (uc *profileUseCase) UpdateProfile(ctx context.Context, actorID, targetID string, in ProfileInput) (*entity.User, error) {
	if actorID != targetID {
		actor, err := uc.user(ctx, actorID)
		if err != nil {
			return nil, err
		}
		if actor.Role != entity.RoleAdmin {
			return nil, ErrForbidden
		}
	}

	user, err := uc.userRepo.GetByID(ctx, targetID)
	if errors.Is(err, persistent.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if in.Bio != nil {
		bio := strings.TrimSpace(*in.Bio)
		if len(bio) > maxBioLen {
			return nil, ErrBioTooLong
		}
		user.Bio = bio
	}
	if in.ProfilePicture != nil {
		pic := strings.TrimSpace(*in.ProfilePicture)
		if pic != "" && !media.IsSafeImageURL(pic) {
			return nil, ErrProfilePicture
		}
		user.ProfilePicture = pic
	}
	if in.IsPrivate != nil {
		user.IsPrivate = *in.IsPrivate
	}

	if err := uc.userRepo.Update(ctx, user); err != nil {
		uc.logger.Error("Failed to update profile %s: %v", targetID, err)
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	user.Password = ""
	return user, nil
}

// Stats gathers the post, follow and rating counts concurrently.
func (uc *profileUseCase) Stats(ctx context.Context, userID string) (*Stats, error) {
	user, err := uc.user(ctx, userID)
	if err != nil {
		return nil, err
	}

	var (
		stats  Stats
		rating entity.RatingSummary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats.TotalPosts, stats.TotalLikes, err = uc.postRepo.CountByUser(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		stats.Followers, stats.Following, err = uc.followRepo.Counts(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		rating, err = uc.ratingRepo.Summary(gctx, user.Email)
		return err
	})
	if err := g.Wait(); err != nil {
		uc.logger.Error("Failed to load stats of %s: %v", userID, err)
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}

	stats.TotalRatings = rating.Count
	stats.AverageRating = averageStars(rating)
	return &stats, nil
}

func averageStars(r entity.RatingSummary) float64 {
	if r.Count == 0 {
		return 0
	}
	return roundTenth(float64(r.Sum) / float64(r.Count))
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

func (uc *profileUseCase) Friends(ctx context.Context, userID string) ([]*entity.User, error) {
	friends, err := uc.followRepo.ListFollowing(ctx, userID)
	if err != nil {
		uc.logger.Error("Failed to list friends of %s: %v", userID, err)
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	return friends, nil
}

func (uc *profileUseCase) Follow(ctx context.Context, userID, friendID string) error {
	if userID == friendID {
		return ErrSelfFollow
	}
	if _, err := uc.user(ctx, friendID); err != nil {
		return err
	}
	if err := uc.followRepo.Follow(ctx, userID, friendID); err != nil {
		uc.logger.Error("Failed to follow %s: %v", friendID, err)
		return fmt.Errorf("failed to follow: %w", err)
	}
	return nil
}

// Rate records one rating per rater and target; rating again replaces it.
func (uc *profileUseCase) Rate(ctx context.Context, raterID, targetEmail string, value int) error {
	if err := payment.ValidateRating(value); err != nil {
		return ErrRatingRange
	}
	targetEmail = strings.ToLower(strings.TrimSpace(targetEmail))
	if targetEmail == "" {
		return ErrMissingFields
	}

	rater, err := uc.user(ctx, raterID)
	if err != nil {
		return err
	}
	if strings.EqualFold(rater.Email, targetEmail) {
		return ErrSelfRating
	}
	if _, err := uc.userRepo.GetByEmail(ctx, targetEmail); err != nil {
		if errors.Is(err, persistent.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to load user: %w", err)
	}

	now := uc.now().UTC()
	rating := &entity.Rating{
		RaterID:     raterID,
		TargetEmail: targetEmail,
		Value:       value,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.ratingRepo.Upsert(ctx, rating); err != nil {
		uc.logger.Error("Failed to save rating: %v", err)
		return fmt.Errorf("failed to save rating: %w", err)
	}

	if uc.publisher != nil {
		event := queue.Event{
			Type:       queue.RatingSubmitted,
			ActorID:    raterID,
			SubjectID:  targetEmail,
			Attributes: map[string]string{"rating": fmt.Sprint(value)},
		}
		if err := uc.publisher.Publish(ctx, event); err != nil {
			uc.logger.Warn("Failed to publish %s: %v", event.Type, err)
		}
	}
	return nil
}

func (uc *profileUseCase) Rating(ctx context.Context, targetEmail string) (*RatingAverage, error) {
	summary, err := uc.ratingRepo.Summary(ctx, strings.TrimSpace(targetEmail))
	if err != nil {
		return nil, fmt.Errorf("failed to load rating: %w", err)
	}
	if summary.Count == 0 {
		return &RatingAverage{}, nil
	}
	avg := float64(summary.Sum) / float64(summary.Count)
	return &RatingAverage{Average: roundTenth(payment.ToTenPoint(avg)), Count: summary.Count}, nil
}

// UpgradePremium checks the card and flips the account to premium. No
// payment is taken.
func (uc *profileUseCase) UpgradePremium(ctx context.Context, userID string, card payment.Card) (*entity.User, error) {
	if err := card.Validate(uc.now()); err != nil {
		return nil, ValidationError(err.Error())
	}

	user, err := uc.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.IsPremium {
		return nil, ErrAlreadyPremium
	}

	if err := uc.userRepo.SetPremium(ctx, userID, true); err != nil {
		uc.logger.Error("Failed to upgrade %s: %v", userID, err)
		return nil, fmt.Errorf("failed to upgrade account: %w", err)
	}

	uc.logger.Info("User %s upgraded to premium with card ending %s", userID, card.Last4())
	user.IsPremium = true
	return user, nil
}
