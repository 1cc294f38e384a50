// Package shell is the application state machine: whether a session has
// been checked, who is logged in, and which tab is showing.
package shell

import (
	"context"
	"errors"
	"strings"
	"sync"

	"feedfinder/pkg/client"
	"feedfinder/pkg/feed"
	"feedfinder/pkg/logger"
	"feedfinder/pkg/models"
)

type State string

const (
	StateCheckingAuth State = "checking-auth"
	StateLoggedOut    State = "logged-out"
	StateLoggedIn     State = "logged-in"
)

type Tab string

const (
	TabLogin    Tab = "login"
	TabRegister Tab = "register"

	TabHome     Tab = "home"
	TabUpload   Tab = "upload"
	TabSettings Tab = "settings"
	TabPremium  Tab = "premium"
	TabAdmin    Tab = "admin"
	TabSearch   Tab = "search"
	TabProfile  Tab = "profile"
)

var (
	ErrNotLoggedIn = errors.New("please log in first")
	ErrAdminOnly   = errors.New("admin access required")
	ErrUnknownTab  = errors.New("unknown tab")
	ErrEmptyQuery  = errors.New("search query is empty")
)

var loggedInTabs = map[Tab]bool{
	TabHome: true, TabUpload: true, TabSettings: true, TabPremium: true,
	TabAdmin: true, TabSearch: true, TabProfile: true,
}

// Session is the part of the API client the shell drives.
type Session interface {
	VerifySession(ctx context.Context) *models.User
	Login(ctx context.Context, username, password string) client.AuthResult
	Register(ctx context.Context, req models.RegisterRequest) client.AuthResult
	Logout(ctx context.Context) bool
}

// Snapshot is a copy of the shell state.
type Snapshot struct {
	State     State
	Tab       Tab
	User      *models.User
	Premium   bool
	Query     string
	ProfileID string
}

func (s Snapshot) Viewer() feed.Viewer {
	return feed.Viewer{LoggedIn: s.State == StateLoggedIn, Premium: s.Premium}
}

func (s Snapshot) IsAdmin() bool {
	return s.User.IsAdmin()
}

type Shell struct {
	session Session
	log     *logger.Logger

	mu        sync.Mutex
	state     State
	tab       Tab
	user      *models.User
	premium   bool
	query     string
	profileID string
}

func New(session Session, log *logger.Logger) *Shell {
	if log == nil {
		log = logger.Discard()
	}
	return &Shell{session: session, log: log, state: StateCheckingAuth}
}

func (s *Shell) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	var user *models.User
	if s.user != nil {
		u := *s.user
		user = &u
	}
	return Snapshot{
		State:     s.state,
		Tab:       s.tab,
		User:      user,
		Premium:   s.premium,
		Query:     s.query,
		ProfileID: s.profileID,
	}
}

// Start checks for an existing session.
func (s *Shell) Start(ctx context.Context) Snapshot {
	s.mu.Lock()
	s.state = StateCheckingAuth
	s.tab = ""
	s.mu.Unlock()

	user := s.session.VerifySession(ctx)

	s.mu.Lock()
	if user != nil {
		s.enterLocked(user)
	} else {
		s.leaveLocked()
	}
	s.mu.Unlock()
	return s.Snapshot()
}

func (s *Shell) enterLocked(user *models.User) {
	s.state = StateLoggedIn
	s.tab = TabHome
	s.user = user
	s.premium = user.IsPremium
	s.log.Info("Logged in as %s (role %q)", user.Username, user.EffectiveRole())
}

func (s *Shell) leaveLocked() {
	s.state = StateLoggedOut
	s.tab = TabLogin
	s.user = nil
	s.premium = false
	s.query = ""
	s.profileID = ""
}

// Login authenticates and, on success, moves to the home tab. The session
// is verified again when the response carries no user.
func (s *Shell) Login(ctx context.Context, username, password string) client.AuthResult {
	res := s.session.Login(ctx, username, password)
	if !res.Success {
		return res
	}

	user := res.Data.User
	if user == nil || user.EffectiveRole() == "" {
		if verified := s.session.VerifySession(ctx); verified != nil {
			user = verified
		}
	}
	if user == nil {
		user = &models.User{Username: username}
	}

	s.mu.Lock()
	s.enterLocked(user)
	s.mu.Unlock()
	return res
}

// Register creates the account and returns to the login form.
func (s *Shell) Register(ctx context.Context, req models.RegisterRequest) client.AuthResult {
	res := s.session.Register(ctx, req)
	if res.Success {
		s.mu.Lock()
		s.state = StateLoggedOut
		s.tab = TabLogin
		s.mu.Unlock()
	}
	return res
}

// Logout always ends up logged out locally, whatever the server said.
func (s *Shell) Logout(ctx context.Context) bool {
	ok := s.session.Logout(ctx)
	if !ok {
		s.log.Warn("Logout request failed, clearing local session anyway")
	}

	s.mu.Lock()
	s.leaveLocked()
	s.mu.Unlock()
	return ok
}

// Navigate switches tabs. Logged-out users may only move between the login
// and register forms.
func (s *Shell) Navigate(tab Tab) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case tab == TabLogin || tab == TabRegister:
		if s.state == StateLoggedIn {
			return nil
		}
		s.tab = tab
		return nil
	case !loggedInTabs[tab]:
		return ErrUnknownTab
	case s.state != StateLoggedIn:
		return ErrNotLoggedIn
	case tab == TabAdmin && !s.user.IsAdmin():
		return ErrAdminOnly
	}

	s.tab = tab
	if tab != TabSearch {
		s.query = ""
	}
	return nil
}

// OpenAccountMenu re-reads the session so a role change is noticed. When
// the session is gone the shell logs out. When admin rights were revoked
// the admin tab is closed.
func (s *Shell) OpenAccountMenu(ctx context.Context) Snapshot {
	user := s.session.VerifySession(ctx)

	s.mu.Lock()
	if s.state == StateLoggedIn {
		if user == nil {
			s.log.Warn("Session expired")
			s.leaveLocked()
		} else {
			s.user = user
			s.premium = user.IsPremium
			if s.tab == TabAdmin && !user.IsAdmin() {
				s.tab = TabHome
			}
		}
	}
	s.mu.Unlock()
	return s.Snapshot()
}

func (s *Shell) Search(q string) error {
	q = strings.TrimSpace(q)
	if q == "" {
		return ErrEmptyQuery
	}
	if err := s.Navigate(TabSearch); err != nil {
		return err
	}

	s.mu.Lock()
	s.query = q
	s.mu.Unlock()
	return nil
}

// OpenProfile shows a user's profile. An empty id means your own.
func (s *Shell) OpenProfile(userID string) error {
	if err := s.Navigate(TabProfile); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if userID == "" && s.user != nil {
		userID = s.user.ID
	}
	s.profileID = userID
	return nil
}

// MarkPremium records a completed upgrade and returns home.
func (s *Shell) MarkPremium() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateLoggedIn {
		return
	}
	s.premium = true
	if s.user != nil {
		s.user.IsPremium = true
	}
	s.tab = TabHome
}
