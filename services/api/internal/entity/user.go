package entity

import "time"

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Password       string    `json:"-"`
	Role           UserRole  `json:"role"`
	IsPremium      bool      `json:"is_premium"`
	Bio            string    `json:"bio"`
	ProfilePicture string    `json:"profile_picture"`
	IsPrivate      bool      `json:"is_private"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Session struct {
	ID          string
	UserID      string
	Fingerprint string
	IsActive    bool
	ExpiresAt   time.Time
	LastSeenAt  time.Time
	CreatedAt   time.Time
}

func (s *Session) Live(now time.Time) bool {
	return s != nil && s.IsActive && now.Before(s.ExpiresAt)
}

// Follow means UserID follows FriendID.
type Follow struct {
	ID        string
	UserID    string
	FriendID  string
	CreatedAt time.Time
}
