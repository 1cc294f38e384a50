package usecase

import (
	"context"
	"fmt"
	"time"

	"feedfinder/pkg/logger"
	"feedfinder/pkg/queue"
	"feedfinder/services/api/internal/entity"
	"feedfinder/services/api/internal/repo/persistent"

	"github.com/redis/go-redis/v9"
)

const (
	followingFeedLen = 1000
	followingFeedTTL = 7 * 24 * time.Hour

	DefaultFollowingLimit = 50
)

func followingFeedKey(userID string) string {
	return fmt.Sprintf("feed:following:%s", userID)
}

// FeedUseCase keeps per-follower feeds in redis. HandleEvent runs in the
// events worker; FollowingFeed serves the API.
type FeedUseCase interface {
	HandleEvent(ctx context.Context, event queue.Event) error
	FollowingFeed(ctx context.Context, viewerID string, limit int) ([]*entity.Post, error)
}

type feedUseCase struct {
	postRepo    persistent.PostRepository
	userRepo    persistent.UserRepository
	followRepo  persistent.FollowRepository
	redisClient redis.Cmdable
	logger      *logger.Logger
}

// NewFeedUseCase accepts a nil redisClient; events are then ignored and
// following feeds are empty.
func NewFeedUseCase(
	postRepo persistent.PostRepository,
	userRepo persistent.UserRepository,
	followRepo persistent.FollowRepository,
	redisClient redis.Cmdable,
	logger *logger.Logger,
) FeedUseCase {
	return &feedUseCase{
		postRepo:    postRepo,
		userRepo:    userRepo,
		followRepo:  followRepo,
		redisClient: redisClient,
		logger:      logger,
	}
}

func (uc *feedUseCase) HandleEvent(ctx context.Context, event queue.Event) error {
	if uc.redisClient == nil {
		return nil
	}

	switch event.Type {
	case queue.PostCreated:
		return uc.fanout(ctx, event.ActorID, event.SubjectID)
	case queue.PostDeleted:
		return uc.retract(ctx, event.Attributes["author_id"], event.SubjectID)
	default:
		return nil
	}
}

func (uc *feedUseCase) fanout(ctx context.Context, authorID, postID string) error {
	followers, err := uc.followRepo.ListFollowerIDs(ctx, authorID)
	if err != nil {
		return fmt.Errorf("failed to list followers of %s: %w", authorID, err)
	}

	for _, id := range followers {
		key := followingFeedKey(id)
		if err := uc.redisClient.LPush(ctx, key, postID).Err(); err != nil {
			return fmt.Errorf("failed to fan out post %s: %w", postID, err)
		}
		if err := uc.redisClient.LTrim(ctx, key, 0, followingFeedLen-1).Err(); err != nil {
			uc.logger.Warn("Failed to trim %s: %v", key, err)
		}
		if err := uc.redisClient.Expire(ctx, key, followingFeedTTL).Err(); err != nil {
			uc.logger.Warn("Failed to set expiry on %s: %v", key, err)
		}
	}

	uc.logger.Info("Fanned out post %s to %d followers", postID, len(followers))
	return nil
}

// retract removes a deleted post from the feeds of its author's followers.
// Events without an author_id attribute are skipped.
func (uc *feedUseCase) retract(ctx context.Context, authorID, postID string) error {
	if authorID == "" {
		return nil
	}

	followers, err := uc.followRepo.ListFollowerIDs(ctx, authorID)
	if err != nil {
		return fmt.Errorf("failed to list followers of %s: %w", authorID, err)
	}

	for _, id := range followers {
		if err := uc.redisClient.LRem(ctx, followingFeedKey(id), 0, postID).Err(); err != nil {
			return fmt.Errorf("failed to retract post %s: %w", postID, err)
		}
	}
	return nil
}

func (uc *feedUseCase) FollowingFeed(ctx context.Context, viewerID string, limit int) ([]*entity.Post, error) {
	limit = ClampLimit(limit, DefaultFollowingLimit, followingFeedLen)
	if uc.redisClient == nil {
		return []*entity.Post{}, nil
	}

	ids, err := uc.redisClient.LRange(ctx, followingFeedKey(viewerID), 0, int64(limit-1)).Result()
	if err != nil {
		uc.logger.Error("Failed to read following feed of %s: %v", viewerID, err)
		return nil, fmt.Errorf("failed to read feed: %w", err)
	}

	posts, err := uc.postRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load posts: %w", err)
	}

	viewer, err := uc.userRepo.GetByID(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load viewer: %w", err)
	}
	if viewer.IsPremium || viewer.Role == entity.RoleAdmin {
		return posts, nil
	}

	visible := make([]*entity.Post, 0, len(posts))
	for _, p := range posts {
		if !p.Exclusive() {
			visible = append(visible, p)
		}
	}
	return visible, nil
}
