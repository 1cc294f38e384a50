package models

import "strings"

const RoleAdmin = "admin"

// User is the identity returned by login and session verification.
// Older backends report the role as user_role, so both are accepted.
type User struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	Role           string `json:"role,omitempty"`
	UserRole       string `json:"user_role,omitempty"`
	IsPremium      bool   `json:"is_premium"`
	Bio            string `json:"bio"`
	ProfilePicture string `json:"profile_picture"`
	IsPrivate      bool   `json:"is_private"`
}

func (u *User) EffectiveRole() string {
	if u == nil {
		return ""
	}
	if u.Role != "" {
		return u.Role
	}
	return u.UserRole
}

func (u *User) IsAdmin() bool {
	return strings.EqualFold(strings.TrimSpace(u.EffectiveRole()), RoleAdmin)
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Bio             string `json:"bio"`
	Private         bool   `json:"private"`
}

// AuthResponse is the body of /api/login and /api/register.
type AuthResponse struct {
	Success *bool  `json:"success,omitempty"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
	User    *User  `json:"user,omitempty"`
}

type SessionResponse struct {
	Success bool  `json:"success"`
	User    *User `json:"user"`
}

type CSRFResponse struct {
	CSRFToken string `json:"csrf_token"`
}
