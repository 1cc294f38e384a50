package persistent

import (
	"context"
	"time"

	"feedfinder/services/api/internal/entity"
	"feedfinder/services/api/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	Update(ctx context.Context, user *entity.User) error
	SetPremium(ctx context.Context, id string, premium bool) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	userModel := ToUserModel(user)
	if err := r.db.WithContext(ctx).Create(userModel).Error; err != nil {
		return err
	}
	*user = *ToUserEntity(userModel)
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.first(ctx, "LOWER(email) = LOWER(?)", email)
}

func (r *userRepository) first(ctx context.Context, query string, arg interface{}) (*entity.User, error) {
	var userModel model.UserModel
	if err := r.db.WithContext(ctx).Where(query, arg).First(&userModel).Error; err != nil {
		return nil, notFound(err)
	}
	return ToUserEntity(&userModel), nil
}

func (r *userRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.UserModel{}).
		Where("username = ? OR LOWER(email) = LOWER(?)", username, email).
		Count(&count).Error
	return count > 0, err
}

func (r *userRepository) Update(ctx context.Context, user *entity.User) error {
	return r.db.WithContext(ctx).Save(ToUserModel(user)).Error
}

func (r *userRepository) SetPremium(ctx context.Context, id string, premium bool) error {
	res := r.db.WithContext(ctx).Model(&model.UserModel{}).Where("id = ?", id).
		Updates(map[string]interface{}{"is_premium": premium, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type SessionRepository interface {
	Create(ctx context.Context, session *entity.Session) error
	GetByID(ctx context.Context, id string) (*entity.Session, error)
	Touch(ctx context.Context, id string, at time.Time) error
	Deactivate(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *entity.Session) error {
	sessionModel := ToSessionModel(session)
	if err := r.db.WithContext(ctx).Create(sessionModel).Error; err != nil {
		return err
	}
	*session = *ToSessionEntity(sessionModel)
	return nil
}

func (r *sessionRepository) GetByID(ctx context.Context, id string) (*entity.Session, error) {
	var sessionModel model.SessionModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&sessionModel).Error; err != nil {
		return nil, notFound(err)
	}
	return ToSessionEntity(&sessionModel), nil
}

func (r *sessionRepository) Touch(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.SessionModel{}).Where("id = ?", id).
		Update("last_seen_at", at).Error
}

func (r *sessionRepository) Deactivate(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&model.SessionModel{}).Where("id = ?", id).
		Update("is_active", false).Error
}

// DeleteExpired removes sessions that have expired or were logged out.
func (r *sessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at < ? OR is_active = ?", now, false).
		Delete(&model.SessionModel{})
	return res.RowsAffected, res.Error
}

type FollowRepository interface {
	Follow(ctx context.Context, userID, friendID string) error
	ListFollowing(ctx context.Context, userID string) ([]*entity.User, error)
	ListFollowerIDs(ctx context.Context, userID string) ([]string, error)
	Counts(ctx context.Context, userID string) (followers, following int, err error)
}

type followRepository struct {
	db *gorm.DB
}

func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

// Follow is idempotent.
func (r *followRepository) Follow(ctx context.Context, userID, friendID string) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.FollowModel{UserID: userID, FriendID: friendID}).Error
}

func (r *followRepository) ListFollowing(ctx context.Context, userID string) ([]*entity.User, error) {
	var follows []model.FollowModel
	if err := r.db.WithContext(ctx).Preload("Friend").Where("user_id = ?", userID).
		Order("created_at DESC").Find(&follows).Error; err != nil {
		return nil, err
	}

	users := make([]*entity.User, 0, len(follows))
	for i := range follows {
		users = append(users, ToUserEntity(&follows[i].Friend))
	}
	return users, nil
}

func (r *followRepository) ListFollowerIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.FollowModel{}).Where("friend_id = ?", userID).Pluck("user_id", &ids).Error
	return ids, err
}

func (r *followRepository) Counts(ctx context.Context, userID string) (followers, following int, err error) {
	var n int64
	if err = r.db.WithContext(ctx).Model(&model.FollowModel{}).Where("friend_id = ?", userID).Count(&n).Error; err != nil {
		return 0, 0, err
	}
	followers = int(n)
	if err = r.db.WithContext(ctx).Model(&model.FollowModel{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		return 0, 0, err
	}
	return followers, int(n), nil
}
