package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"feedfinder/pkg/jwt"
	"feedfinder/pkg/logger"
	"feedfinder/services/api/internal/entity"
	"feedfinder/services/api/internal/repo/persistent"

	"golang.org/x/crypto/bcrypt"
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)
	emailPattern    = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)
)

// usernamePattern also bounds the username length.
const (
	maxEmailLen    = 100
	maxPasswordLen = 100
)

type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
	Bio             string
	Private         bool
}

type LoginResult struct {
	User         *entity.User
	AccessToken  string
	RefreshToken string
}

type AuthUseCase interface {
	Register(ctx context.Context, in RegisterInput) (*entity.User, error)
	Login(ctx context.Context, username, password, fingerprint string) (*LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
	Refresh(ctx context.Context, refreshToken, fingerprint string) (string, error)
	CurrentUser(ctx context.Context, userID string) (*entity.User, error)

	// Session checks used by the auth middleware.
	IsSessionActive(ctx context.Context, sessionID, userID string) bool
	CurrentRole(ctx context.Context, userID string) (string, error)

	CleanupSessions(ctx context.Context) (int64, error)
}

type authUseCase struct {
	userRepo    persistent.UserRepository
	sessionRepo persistent.SessionRepository
	jwtService  *jwt.Service
	logger      *logger.Logger
	now         func() time.Time
}

func NewAuthUseCase(
	userRepo persistent.UserRepository,
	sessionRepo persistent.SessionRepository,
	jwtService *jwt.Service,
	logger *logger.Logger,
) AuthUseCase {
	return &authUseCase{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		jwtService:  jwtService,
		logger:      logger,
		now:         time.Now,
	}
}

func (uc *authUseCase) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	if in.Username == "" || in.Email == "" || in.Password == "" || in.ConfirmPassword == "" {
		return nil, ErrMissingFields
	}
	if in.Password != in.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	if !usernamePattern.MatchString(in.Username) {
		return nil, ErrUsernameFormat
	}
	if !emailPattern.MatchString(in.Email) {
		return nil, ErrEmailFormat
	}
	if len(in.Email) > maxEmailLen || len(in.Password) > maxPasswordLen {
		return nil, ErrInputTooLong
	}

	exists, err := uc.userRepo.ExistsByUsernameOrEmail(ctx, in.Username, in.Email)
	if err != nil {
		uc.logger.Error("Failed to check existing user: %v", err)
		return nil, fmt.Errorf("failed to process registration: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		uc.logger.Error("Failed to hash password: %v", err)
		return nil, fmt.Errorf("failed to process registration: %w", err)
	}

	user := &entity.User{
		Username:  in.Username,
		Email:     in.Email,
		Password:  string(hashedPassword),
		Role:      entity.RoleUser,
		Bio:       in.Bio,
		IsPrivate: in.Private,
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		uc.logger.Error("Failed to create user: %v", err)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	user.Password = ""
	return user, nil
}

func (uc *authUseCase) Login(ctx context.Context, username, password, fingerprint string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrCredentialsRequired
	}

	user, err := uc.userRepo.GetByUsername(ctx, username)
	if errors.Is(err, persistent.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		uc.logger.Error("Failed to load user %s: %v", username, err)
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := uc.now().UTC()
	session := &entity.Session{
		UserID:      user.ID,
		Fingerprint: fingerprint,
		IsActive:    true,
		ExpiresAt:   now.Add(jwt.SessionTTL),
		LastSeenAt:  now,
	}
	if err := uc.sessionRepo.Create(ctx, session); err != nil {
		uc.logger.Error("Failed to create session: %v", err)
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	access, refresh, err := uc.jwtService.IssuePair(user.ID, roleOf(user), session.ID, fingerprint)
	if err != nil {
		uc.logger.Error("Failed to generate token: %v", err)
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	uc.logger.Info("User %s logged in, session %s", user.ID, session.ID)
	user.Password = ""
	return &LoginResult{User: user, AccessToken: access, RefreshToken: refresh}, nil
}

func (uc *authUseCase) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := uc.sessionRepo.Deactivate(ctx, sessionID); err != nil {
		uc.logger.Error("Failed to end session %s: %v", sessionID, err)
		return fmt.Errorf("failed to end session: %w", err)
	}
	return nil
}

// Refresh issues a new access token for the session named by refreshToken.
// The session must be live, belong to the token's user, and have been
// opened by the same client.
func (uc *authUseCase) Refresh(ctx context.Context, refreshToken, fingerprint string) (string, error) {
	claims, err := uc.jwtService.ValidateRefresh(refreshToken)
	if err != nil {
		return "", ErrSessionExpired
	}

	session, err := uc.sessionRepo.GetByID(ctx, claims.SessionID)
	if err != nil {
		return "", ErrSessionExpired
	}
	now := uc.now().UTC()
	if !session.Live(now) || session.UserID != claims.UserID {
		return "", ErrSessionExpired
	}
	if session.Fingerprint != "" && session.Fingerprint != fingerprint {
		uc.logger.Warn("Refresh for session %s from a different client", session.ID)
		return "", ErrSessionExpired
	}

	user, err := uc.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return "", ErrSessionExpired
	}

	if err := uc.sessionRepo.Touch(ctx, session.ID, now); err != nil {
		uc.logger.Warn("Failed to touch session %s: %v", session.ID, err)
	}

	access, err := uc.jwtService.IssueAccess(user.ID, roleOf(user), session.ID, fingerprint)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return access, nil
}

func (uc *authUseCase) CurrentUser(ctx context.Context, userID string) (*entity.User, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if errors.Is(err, persistent.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	user.Password = ""
	return user, nil
}

func (uc *authUseCase) IsSessionActive(ctx context.Context, sessionID, userID string) bool {
	session, err := uc.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return false
	}
	return session.Live(uc.now()) && session.UserID == userID
}

func (uc *authUseCase) CurrentRole(ctx context.Context, userID string) (string, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return roleOf(user), nil
}

// CleanupSessions deletes expired and logged-out sessions.
func (uc *authUseCase) CleanupSessions(ctx context.Context) (int64, error) {
	removed, err := uc.sessionRepo.DeleteExpired(ctx, uc.now().UTC())
	if err != nil {
		uc.logger.Error("Failed to clean up sessions: %v", err)
		return 0, fmt.Errorf("failed to clean up sessions: %w", err)
	}
	if removed > 0 {
		uc.logger.Info("Removed %d expired sessions", removed)
	}
	return removed, nil
}

func roleOf(user *entity.User) string {
	if user.Role == "" {
		return string(entity.RoleUser)
	}
	return string(user.Role)
}
