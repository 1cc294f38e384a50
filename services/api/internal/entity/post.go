package entity

import "time"

type Privacy string

const (
	PrivacyPublic    Privacy = "public"
	PrivacyExclusive Privacy = "exclusive"
)

type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
	MediaText  MediaType = "text"
)

type Post struct {
	ID          string
	UserID      string
	UserName    string
	UserEmail   string
	MediaURL    string
	MediaType   MediaType
	ContentText string
	Privacy     Privacy
	LikeCount   int
	CreatedAt   time.Time
}

func (p *Post) Exclusive() bool {
	return p.Privacy == PrivacyExclusive
}

type Rating struct {
	ID          string
	RaterID     string
	TargetEmail string
	Value       int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type RatingSummary struct {
	Sum   int
	Count int
}

type ProfileStats struct {
	TotalPosts   int
	TotalLikes   int
	TotalRatings int
	RatingSum    int
	Followers    int
	Following    int
}
