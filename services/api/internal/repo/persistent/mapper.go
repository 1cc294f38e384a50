package persistent

import (
	"feedfinder/services/api/internal/entity"
	"feedfinder/services/api/internal/model"
)

func ToUserEntity(m *model.UserModel) *entity.User {
	if m == nil {
		return nil
	}

	return &entity.User{
		ID:             m.ID,
		Username:       m.Username,
		Email:          m.Email,
		Password:       m.PasswordHash,
		Role:           entity.UserRole(m.Role),
		IsPremium:      m.IsPremium,
		Bio:            m.Bio,
		ProfilePicture: m.ProfilePicture,
		IsPrivate:      m.IsPrivate,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func ToUserModel(e *entity.User) *model.UserModel {
	if e == nil {
		return nil
	}

	return &model.UserModel{
		ID:             e.ID,
		Username:       e.Username,
		Email:          e.Email,
		PasswordHash:   e.Password,
		Role:           string(e.Role),
		IsPremium:      e.IsPremium,
		Bio:            e.Bio,
		ProfilePicture: e.ProfilePicture,
		IsPrivate:      e.IsPrivate,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

func ToSessionEntity(m *model.SessionModel) *entity.Session {
	if m == nil {
		return nil
	}

	return &entity.Session{
		ID:          m.ID,
		UserID:      m.UserID,
		Fingerprint: m.Fingerprint,
		IsActive:    m.IsActive,
		ExpiresAt:   m.ExpiresAt,
		LastSeenAt:  m.LastSeenAt,
		CreatedAt:   m.CreatedAt,
	}
}

func ToSessionModel(e *entity.Session) *model.SessionModel {
	if e == nil {
		return nil
	}

	return &model.SessionModel{
		ID:          e.ID,
		UserID:      e.UserID,
		Fingerprint: e.Fingerprint,
		IsActive:    e.IsActive,
		ExpiresAt:   e.ExpiresAt,
		LastSeenAt:  e.LastSeenAt,
		CreatedAt:   e.CreatedAt,
	}
}

// ToPostEntity takes the author's name and email from the preloaded User.
func ToPostEntity(m *model.PostModel) *entity.Post {
	if m == nil {
		return nil
	}

	return &entity.Post{
		ID:          m.ID,
		UserID:      m.UserID,
		UserName:    m.User.Username,
		UserEmail:   m.User.Email,
		MediaURL:    m.MediaURL,
		MediaType:   entity.MediaType(m.MediaType),
		ContentText: m.ContentText,
		Privacy:     entity.Privacy(m.Privacy),
		LikeCount:   m.LikeCount,
		CreatedAt:   m.CreatedAt,
	}
}

func ToPostModel(e *entity.Post) *model.PostModel {
	if e == nil {
		return nil
	}

	return &model.PostModel{
		ID:          e.ID,
		UserID:      e.UserID,
		MediaURL:    e.MediaURL,
		MediaType:   string(e.MediaType),
		ContentText: e.ContentText,
		Privacy:     string(e.Privacy),
		LikeCount:   e.LikeCount,
		CreatedAt:   e.CreatedAt,
	}
}

func ToPostEntities(ms []model.PostModel) []*entity.Post {
	posts := make([]*entity.Post, len(ms))
	for i := range ms {
		posts[i] = ToPostEntity(&ms[i])
	}
	return posts
}

func ToRatingModel(e *entity.Rating) *model.RatingModel {
	if e == nil {
		return nil
	}

	return &model.RatingModel{
		ID:          e.ID,
		RaterID:     e.RaterID,
		TargetEmail: e.TargetEmail,
		Value:       e.Value,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}
