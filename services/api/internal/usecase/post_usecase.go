package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"feedfinder/pkg/cache"
	"feedfinder/pkg/logger"
	"feedfinder/pkg/media"
	"feedfinder/pkg/queue"
	"feedfinder/pkg/s3"
	"feedfinder/services/api/internal/entity"
	"feedfinder/services/api/internal/repo/persistent"

	"github.com/redis/go-redis/v9"
)

const (
	publicFeedKey   = "feed:public"
	publicFeedTTL   = time.Minute
	publicFeedLimit = 100

	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
	DefaultAdminLimit  = 100
	maxCaptionLen      = 2000
)

// Storage keeps uploaded media. *s3.Client implements it.
type Storage interface {
	Upload(ctx context.Context, key string, body io.ReadSeeker, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	KeyForURL(url string) string
}

type CreatePostInput struct {
	MediaURL    string
	MediaType   string
	ContentText string
	Privacy     string
}

type PostUseCase interface {
	PublicPosts(ctx context.Context) ([]*entity.Post, error)
	Search(ctx context.Context, query, viewerID string, limit int) ([]*entity.Post, error)
	UserPosts(ctx context.Context, ownerID, viewerID string) ([]*entity.Post, error)
	CreatePost(ctx context.Context, userID string, in CreatePostInput) (*entity.Post, error)
	Upload(ctx context.Context, userID, filename, contentType string, file io.ReadSeeker) (string, error)
	AdminPosts(ctx context.Context, limit int) ([]*entity.Post, error)
	DeletePost(ctx context.Context, actorID, postID string) error
}

type postUseCase struct {
	postRepo    persistent.PostRepository
	userRepo    persistent.UserRepository
	storage     Storage
	redisClient redis.Cmdable
	publisher   queue.Publisher
	logger      *logger.Logger
}

// NewPostUseCase accepts nil storage, redisClient and publisher; the
// matching features are then disabled.
func NewPostUseCase(
	postRepo persistent.PostRepository,
	userRepo persistent.UserRepository,
	storage Storage,
	redisClient redis.Cmdable,
	publisher queue.Publisher,
	logger *logger.Logger,
) PostUseCase {
	return &postUseCase{
		postRepo:    postRepo,
		userRepo:    userRepo,
		storage:     storage,
		redisClient: redisClient,
		publisher:   publisher,
		logger:      logger,
	}
}

func (uc *postUseCase) PublicPosts(ctx context.Context) ([]*entity.Post, error) {
	if uc.redisClient != nil {
		var cached []*entity.Post
		err := cache.GetJSON(ctx, uc.redisClient, publicFeedKey, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			uc.logger.Warn("Public feed cache read failed: %v", err)
		}
	}

	posts, err := uc.postRepo.ListPublic(ctx, publicFeedLimit)
	if err != nil {
		uc.logger.Error("Failed to list public posts: %v", err)
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	if uc.redisClient != nil {
		if err := cache.SetJSON(ctx, uc.redisClient, publicFeedKey, posts, publicFeedTTL); err != nil {
			uc.logger.Warn("Public feed cache write failed: %v", err)
		}
	}
	return posts, nil
}

func (uc *postUseCase) invalidateFeed(ctx context.Context) {
	if uc.redisClient == nil {
		return
	}
	if err := uc.redisClient.Del(ctx, publicFeedKey).Err(); err != nil {
		uc.logger.Warn("Public feed cache invalidation failed: %v", err)
	}
}

// ClampLimit maps a non-positive limit to def and caps it at ceiling.
func ClampLimit(limit, def, ceiling int) int {
	if limit <= 0 {
		return def
	}
	if limit > ceiling {
		return ceiling
	}
	return limit
}

// Search blanks the media of exclusive posts the viewer may not see.
func (uc *postUseCase) Search(ctx context.Context, query, viewerID string, limit int) ([]*entity.Post, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	posts, err := uc.postRepo.Search(ctx, query, ClampLimit(limit, DefaultSearchLimit, MaxSearchLimit))
	if err != nil {
		uc.logger.Error("Search %q failed: %v", query, err)
		return nil, fmt.Errorf("failed to search posts: %w", err)
	}

	unlocked := uc.unlocksExclusive(ctx, viewerID)
	for i, post := range posts {
		if post.Exclusive() && !unlocked && post.UserID != viewerID {
			redacted := *post
			redacted.MediaURL = ""
			posts[i] = &redacted
		}
	}
	return posts, nil
}

// UserPosts hides exclusive posts unless the viewer owns them, is premium
// or is an admin. An empty viewerID is an anonymous viewer.
func (uc *postUseCase) UserPosts(ctx context.Context, ownerID, viewerID string) ([]*entity.Post, error) {
	includeExclusive := viewerID != "" && (viewerID == ownerID || uc.unlocksExclusive(ctx, viewerID))

	posts, err := uc.postRepo.ListByUser(ctx, ownerID, includeExclusive)
	if err != nil {
		uc.logger.Error("Failed to list posts of %s: %v", ownerID, err)
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

// unlocksExclusive reports whether viewerID is a premium user or an admin.
func (uc *postUseCase) unlocksExclusive(ctx context.Context, viewerID string) bool {
	if viewerID == "" {
		return false
	}
	viewer, err := uc.userRepo.GetByID(ctx, viewerID)
	if err != nil {
		return false
	}
	return viewer.IsPremium || viewer.Role == entity.RoleAdmin
}

func (uc *postUseCase) CreatePost(ctx context.Context, userID string, in CreatePostInput) (*entity.Post, error) {
	post, err := buildPost(userID, in)
	if err != nil {
		return nil, err
	}

	if err := uc.postRepo.Create(ctx, post); err != nil {
		uc.logger.Error("Failed to create post: %v", err)
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	uc.invalidateFeed(ctx)

	uc.publish(ctx, queue.Event{
		Type:       queue.PostCreated,
		ActorID:    userID,
		SubjectID:  post.ID,
		Attributes: map[string]string{"privacy": string(post.Privacy), "media_type": string(post.MediaType)},
	})
	return post, nil
}

func buildPost(userID string, in CreatePostInput) (*entity.Post, error) {
	mediaURL := strings.TrimSpace(in.MediaURL)
	text := strings.TrimSpace(in.ContentText)

	if mediaURL == "" && text == "" {
		return nil, ErrEmptyPost
	}
	if len(text) > maxCaptionLen {
		return nil, ErrCaptionTooLong
	}

	privacy := entity.Privacy(strings.ToLower(in.Privacy))
	switch privacy {
	case "":
		privacy = entity.PrivacyPublic
	case entity.PrivacyPublic, entity.PrivacyExclusive:
	default:
		return nil, ErrPrivacy
	}

	mediaType := entity.MediaType(strings.ToLower(in.MediaType))
	if mediaType == "" {
		if mediaURL == "" {
			mediaType = entity.MediaText
		} else {
			mediaType = entity.MediaType(media.InferMediaType(mediaURL))
		}
	}

	switch mediaType {
	case entity.MediaImage:
		if !media.IsSafeImageURL(mediaURL) {
			return nil, ErrMediaURL
		}
	case entity.MediaVideo:
		if !media.IsSafeVideoURL(mediaURL) {
			return nil, ErrMediaURL
		}
	case entity.MediaText:
		if text == "" {
			return nil, ErrEmptyPost
		}
		mediaURL = ""
	default:
		return nil, ErrMediaType
	}

	return &entity.Post{
		UserID:      userID,
		MediaURL:    mediaURL,
		MediaType:   mediaType,
		ContentText: text,
		Privacy:     privacy,
	}, nil
}

// Upload validates the file against its name, declared type and leading
// bytes, then stores it. It returns the public URL.
func (uc *postUseCase) Upload(ctx context.Context, userID, filename, contentType string, file io.ReadSeeker) (string, error) {
	if uc.storage == nil {
		return "", ErrStorageUnavailable
	}

	head := make([]byte, media.SniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}

	upload, err := media.ValidateUpload(filename, contentType, head[:n])
	if err != nil {
		uc.logger.Warn("Rejected upload %q from %s: %v", filename, userID, err)
		return "", ValidationError("Invalid file: " + err.Error())
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind upload: %w", err)
	}

	url, err := uc.storage.Upload(ctx, s3.ObjectKey(userID, upload.Filename), file, upload.ContentType)
	if err != nil {
		uc.logger.Error("Failed to store upload: %v", err)
		return "", fmt.Errorf("failed to store upload: %w", err)
	}
	return url, nil
}

func (uc *postUseCase) AdminPosts(ctx context.Context, limit int) ([]*entity.Post, error) {
	posts, err := uc.postRepo.ListAll(ctx, ClampLimit(limit, DefaultAdminLimit, DefaultAdminLimit))
	if err != nil {
		uc.logger.Error("Failed to list posts for moderation: %v", err)
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

func (uc *postUseCase) DeletePost(ctx context.Context, actorID, postID string) error {
	post, err := uc.postRepo.GetByID(ctx, postID)
	if errors.Is(err, persistent.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load post: %w", err)
	}

	if err := uc.postRepo.Delete(ctx, postID); err != nil {
		if errors.Is(err, persistent.ErrNotFound) {
			return ErrNotFound
		}
		uc.logger.Error("Failed to delete post %s: %v", postID, err)
		return fmt.Errorf("failed to delete post: %w", err)
	}
	uc.invalidateFeed(ctx)

	if uc.storage != nil && post.MediaURL != "" {
		if key := uc.storage.KeyForURL(post.MediaURL); key != "" {
			if err := uc.storage.Delete(ctx, key); err != nil {
				uc.logger.Warn("Failed to delete media of post %s: %v", postID, err)
			}
		}
	}

	uc.logger.Info("Post %s deleted by %s", postID, actorID)
	uc.publish(ctx, queue.Event{
		Type:       queue.PostDeleted,
		ActorID:    actorID,
		SubjectID:  postID,
		Attributes: map[string]string{"author_id": post.UserID},
	})
	return nil
}

func (uc *postUseCase) publish(ctx context.Context, event queue.Event) {
	if uc.publisher == nil {
		return
	}
	if err := uc.publisher.Publish(ctx, event); err != nil {
		uc.logger.Warn("Failed to publish %s: %v", event.Type, err)
	}
}
