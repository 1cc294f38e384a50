package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserModel struct {
	ID             string `gorm:"type:uuid;primary_key"`
	Username       string `gorm:"type:varchar(50);uniqueIndex;not null"`
	Email          string `gorm:"type:varchar(100);uniqueIndex;not null"`
	PasswordHash   string `gorm:"not null"`
	Role           string `gorm:"type:varchar(20);default:'user'"`
	IsPremium      bool   `gorm:"default:false"`
	Bio            string `gorm:"type:text"`
	ProfilePicture string `gorm:"type:varchar(500)"`
	IsPrivate      bool   `gorm:"default:false"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (UserModel) TableName() string {
	return "users"
}

func (u *UserModel) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

type SessionModel struct {
	ID          string `gorm:"type:uuid;primary_key"`
	UserID      string `gorm:"type:uuid;index;not null"`
	Fingerprint string `gorm:"type:varchar(16)"`
	IsActive    bool   `gorm:"default:true;index"`
	ExpiresAt   time.Time
	LastSeenAt  time.Time
	CreatedAt   time.Time
}

func (SessionModel) TableName() string {
	return "sessions"
}

func (s *SessionModel) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

type FollowModel struct {
	ID        string    `gorm:"type:uuid;primary_key"`
	UserID    string    `gorm:"type:uuid;uniqueIndex:idx_follow_pair;not null"`
	FriendID  string    `gorm:"type:uuid;uniqueIndex:idx_follow_pair;index;not null"`
	Friend    UserModel `gorm:"foreignKey:FriendID"`
	CreatedAt time.Time
}

func (FollowModel) TableName() string {
	return "follows"
}

func (f *FollowModel) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	return nil
}
