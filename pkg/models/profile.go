package models

import "time"

type Profile struct {
	UserID         string    `json:"user_id"`
	UserName       string    `json:"user_name"`
	UserEmail      string    `json:"user_email"`
	Bio            string    `json:"bio"`
	ProfilePicture string    `json:"profile_picture"`
	IsPremium      bool      `json:"is_premium"`
	IsPrivate      bool      `json:"is_private"`
	CreatedAt      time.Time `json:"created_at"`
}

// ProfileUpdate carries only the fields being changed.
type ProfileUpdate struct {
	Bio            *string `json:"bio,omitempty"`
	ProfilePicture *string `json:"profile_picture,omitempty"`
	IsPrivate      *bool   `json:"is_private,omitempty"`
}

// Stats is what the profile header shows. The zero value is the fallback
// for every field.
type Stats struct {
	TotalPosts    int     `json:"totalPosts"`
	TotalLikes    int     `json:"totalLikes"`
	TotalComments int     `json:"totalComments"`
	TotalRatings  int     `json:"totalRatings"`
	AverageRating float64 `json:"averageRating"`
	Followers     int     `json:"followers"`
	Following     int     `json:"following"`
}

type StatsResponse struct {
	Success bool   `json:"success"`
	Stats   *Stats `json:"stats"`
}

// RateRequest is the body of POST /api/rate. RatingValue is 1..5.
type RateRequest struct {
	UserID      string `json:"user_id"`
	TargetEmail string `json:"target_email"`
	RatingValue int    `json:"rating_value"`
}

// RatingSummary reports the average on a 10-point scale.
type RatingSummary struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

type Friend struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
}

type PremiumUpgradeRequest struct {
	CardNumber string `json:"card_number"`
	CardName   string `json:"card_name"`
	Expiry     string `json:"expiry"`
	CVV        string `json:"cvv"`
}
