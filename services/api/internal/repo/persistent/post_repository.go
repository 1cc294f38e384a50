package persistent

import (
	"context"
	"strings"

	"feedfinder/services/api/internal/entity"
	"feedfinder/services/api/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostRepository interface {
	Create(ctx context.Context, post *entity.Post) error
	GetByID(ctx context.Context, id string) (*entity.Post, error)
	GetByIDs(ctx context.Context, ids []string) ([]*entity.Post, error)
	ListPublic(ctx context.Context, limit int) ([]*entity.Post, error)
	Search(ctx context.Context, query string, limit int) ([]*entity.Post, error)
	ListByUser(ctx context.Context, userID string, includeExclusive bool) ([]*entity.Post, error)
	ListAll(ctx context.Context, limit int) ([]*entity.Post, error)
	Delete(ctx context.Context, id string) error
	CountByUser(ctx context.Context, userID string) (posts, likes int, err error)
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) withAuthor(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Joins("User").Order("posts.created_at DESC")
}

func (r *postRepository) Create(ctx context.Context, post *entity.Post) error {
	postModel := ToPostModel(post)
	if err := r.db.WithContext(ctx).Create(postModel).Error; err != nil {
		return err
	}
	created, err := r.GetByID(ctx, postModel.ID)
	if err != nil {
		return err
	}
	*post = *created
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*entity.Post, error) {
	var postModel model.PostModel
	if err := r.db.WithContext(ctx).Joins("User").Where("posts.id = ?", id).First(&postModel).Error; err != nil {
		return nil, notFound(err)
	}
	return ToPostEntity(&postModel), nil
}

// GetByIDs returns the posts that still exist, newest first. Missing ids
// are skipped.
func (r *postRepository) GetByIDs(ctx context.Context, ids []string) ([]*entity.Post, error) {
	if len(ids) == 0 {
		return []*entity.Post{}, nil
	}
	var posts []model.PostModel
	if err := r.withAuthor(ctx).Where("posts.id IN ?", ids).Find(&posts).Error; err != nil {
		return nil, err
	}
	return ToPostEntities(posts), nil
}

func (r *postRepository) ListPublic(ctx context.Context, limit int) ([]*entity.Post, error) {
	var posts []model.PostModel
	err := r.withAuthor(ctx).Where("posts.privacy = ?", string(entity.PrivacyPublic)).
		Limit(limit).Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return ToPostEntities(posts), nil
}

// Search matches the caption or the author's username, case-insensitively.
// Exclusive posts are included; the client gates their media.
func (r *postRepository) Search(ctx context.Context, query string, limit int) ([]*entity.Post, error) {
	pattern := "%" + escapeLike(query) + "%"

	var posts []model.PostModel
	err := r.withAuthor(ctx).
		Where(`posts.content_text ILIKE ? OR "User".username ILIKE ?`, pattern, pattern).
		Limit(limit).Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return ToPostEntities(posts), nil
}

func (r *postRepository) ListByUser(ctx context.Context, userID string, includeExclusive bool) ([]*entity.Post, error) {
	q := r.withAuthor(ctx).Where("posts.user_id = ?", userID)
	if !includeExclusive {
		q = q.Where("posts.privacy = ?", string(entity.PrivacyPublic))
	}

	var posts []model.PostModel
	if err := q.Find(&posts).Error; err != nil {
		return nil, err
	}
	return ToPostEntities(posts), nil
}

func (r *postRepository) ListAll(ctx context.Context, limit int) ([]*entity.Post, error) {
	var posts []model.PostModel
	if err := r.withAuthor(ctx).Limit(limit).Find(&posts).Error; err != nil {
		return nil, err
	}
	return ToPostEntities(posts), nil
}

func (r *postRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.PostModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postRepository) CountByUser(ctx context.Context, userID string) (posts, likes int, err error) {
	var row struct {
		Posts int
		Likes int
	}
	err = r.db.WithContext(ctx).Model(&model.PostModel{}).
		Select("COUNT(*) AS posts, COALESCE(SUM(like_count), 0) AS likes").
		Where("user_id = ?", userID).
		Scan(&row).Error
	return row.Posts, row.Likes, err
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

type RatingRepository interface {
	Upsert(ctx context.Context, rating *entity.Rating) error
	Summary(ctx context.Context, targetEmail string) (entity.RatingSummary, error)
}

type ratingRepository struct {
	db *gorm.DB
}

func NewRatingRepository(db *gorm.DB) RatingRepository {
	return &ratingRepository{db: db}
}

// Upsert keeps one rating per rater and target; a repeat replaces the value.
func (r *ratingRepository) Upsert(ctx context.Context, rating *entity.Rating) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "rater_id"}, {Name: "target_email"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(ToRatingModel(rating)).Error
}

func (r *ratingRepository) Summary(ctx context.Context, targetEmail string) (entity.RatingSummary, error) {
	var row struct {
		Sum   int
		Count int
	}
	err := r.db.WithContext(ctx).Model(&model.RatingModel{}).
		Select("COALESCE(SUM(value), 0) AS sum, COUNT(*) AS count").
		Where("LOWER(target_email) = LOWER(?)", targetEmail).
		Scan(&row).Error
	return entity.RatingSummary{Sum: row.Sum, Count: row.Count}, err
}
