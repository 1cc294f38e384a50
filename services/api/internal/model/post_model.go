package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostModel struct {
	ID          string    `gorm:"type:uuid;primary_key"`
	UserID      string    `gorm:"type:uuid;index;not null"`
	User        UserModel `gorm:"foreignKey:UserID"`
	MediaURL    string    `gorm:"type:varchar(500)"`
	MediaType   string    `gorm:"type:varchar(10);default:'image'"`
	ContentText string    `gorm:"type:text"`
	Privacy     string    `gorm:"type:varchar(20);default:'public';index"`
	LikeCount   int       `gorm:"default:0"`
	CreatedAt   time.Time `gorm:"index"`
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (PostModel) TableName() string {
	return "posts"
}

func (p *PostModel) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

type RatingModel struct {
	ID          string `gorm:"type:uuid;primary_key"`
	RaterID     string `gorm:"type:uuid;uniqueIndex:idx_rating_pair;not null"`
	TargetEmail string `gorm:"type:varchar(100);uniqueIndex:idx_rating_pair;index;not null"`
	Value       int    `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (RatingModel) TableName() string {
	return "ratings"
}

func (r *RatingModel) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}
