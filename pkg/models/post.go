package models

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

// PostRow is a post as the API returns it.
type PostRow struct {
	PostID      string    `json:"post_id"`
	UserID      string    `json:"user_id"`
	UserName    string    `json:"user_name"`
	UserEmail   string    `json:"user_email"`
	MediaURL    string    `json:"media_url"`
	MediaType   MediaType `json:"media_type"`
	ContentText string    `json:"content_text"`
	CreatedAt   time.Time `json:"created_at"`
	Privacy     Privacy   `json:"privacy"`
	LikeCount   int       `json:"like_count"`
}

type PostList struct {
	Success bool      `json:"success"`
	Message string    `json:"message,omitempty"`
	Items   []PostRow `json:"items"`
}

type AdminPostList struct {
	Success bool      `json:"success"`
	Message string    `json:"message,omitempty"`
	Posts   []PostRow `json:"posts"`
}

type CreatePostRequest struct {
	MediaURL    string    `json:"media_url"`
	MediaType   MediaType `json:"media_type"`
	ContentText string    `json:"content_text"`
	Privacy     Privacy   `json:"privacy"`
}

type UploadResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	MediaURL string `json:"media_url"`
}
