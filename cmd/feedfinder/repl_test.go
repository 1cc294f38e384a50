package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"feedfinder/pkg/client"
	"feedfinder/pkg/logger"
	"feedfinder/pkg/models"
	"feedfinder/pkg/shell"

	"github.com/stretchr/testify/assert"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// fakeAPI serves just enough of the API for a logged-out and a logged-in
// session.
func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	var loggedIn atomic.Bool
	alice := &models.User{ID: "user-1", Username: "alice", Email: "alice@example.com", Role: "user"}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/csrf-token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.CSRFResponse{CSRFToken: "token"})
	})
	mux.HandleFunc("POST /api/refresh", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Authentication required"})
	})
	mux.HandleFunc("GET /api/verify-session", func(w http.ResponseWriter, r *http.Request) {
		if !loggedIn.Load() {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Authentication required"})
			return
		}
		writeJSON(w, http.StatusOK, models.SessionResponse{Success: true, User: alice})
	})
	mux.HandleFunc("POST /api/login", func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "secret" {
			writeJSON(w, http.StatusUnauthorized, models.AuthResponse{Message: "Invalid username or password"})
			return
		}
		loggedIn.Store(true)
		success := true
		writeJSON(w, http.StatusOK, models.AuthResponse{Success: &success, Message: "Welcome, alice!", User: alice})
	})
	mux.HandleFunc("GET /api/posts/public", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.PostList{Success: true, Items: []models.PostRow{
			{PostID: "post-1", UserName: "bob", UserEmail: "bob@example.com", MediaURL: "https://cdn.test/a.png",
				MediaType: models.MediaImage, ContentText: "sunset", Privacy: models.PrivacyPublic, CreatedAt: time.Now()},
			{PostID: "post-2", UserName: "bob", UserEmail: "bob@example.com", MediaURL: "https://cdn.test/b.png",
				MediaType: models.MediaImage, ContentText: "secret", Privacy: models.PrivacyExclusive, CreatedAt: time.Now()},
		}})
	})
	mux.HandleFunc("GET /api/posts/following", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.PostList{Success: true, Items: []models.PostRow{
			{PostID: "post-3", UserName: "carol", UserEmail: "carol@example.com", MediaURL: "https://cdn.test/c.png",
				MediaType: models.MediaImage, ContentText: "hike", Privacy: models.PrivacyPublic, CreatedAt: time.Now()},
		}})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func runREPL(t *testing.T, input string) string {
	t.Helper()
	srv := fakeAPI(t)
	api := client.New(srv.URL, logger.Discard())

	var out bytes.Buffer
	r := newREPL(api, shell.New(api, logger.Discard()), bufio.NewScanner(strings.NewReader(input)), &out)
	r.run(context.Background())
	return out.String()
}

func TestREPL_LoggedOut(t *testing.T) {
	out := runREPL(t, "help\nfrob\ntab admin\nrate bob@example.com 5\nfeed\nfeed following\nquit\n")

	assert.Contains(t, out, "Not logged in.")
	assert.Contains(t, out, "login <username>")
	assert.Contains(t, out, `unknown command "frob"`)
	assert.Contains(t, out, "please log in first")
	assert.Contains(t, out, "Please login to rate profiles")
	assert.Contains(t, out, "image: https://cdn.test/a.png")
	assert.Contains(t, out, "locked: Log in with a premium account to view exclusive content")
	assert.NotContains(t, out, "https://cdn.test/b.png")
	assert.Contains(t, out, "log in to see posts from people you follow")
	assert.NotContains(t, out, "https://cdn.test/c.png")
}

func TestREPL_LoginAndTabs(t *testing.T) {
	out := runREPL(t, "login alice\nsecret\nwhoami\ntab admin\ntab settings\nfeed\nfeed following\n")

	assert.Contains(t, out, "Welcome, alice!")
	assert.Contains(t, out, "alice <alice@example.com>  id=user-1  role=user")
	assert.Contains(t, out, "admin access required")
	assert.Contains(t, out, "Now on settings.")
	assert.Contains(t, out, "locked: Upgrade to Premium to unlock exclusive content")
	assert.Contains(t, out, "image: https://cdn.test/c.png")
}

func TestREPL_LoginRejected(t *testing.T) {
	out := runREPL(t, "login alice\nwrong\nwhoami\nquit\n")

	assert.Contains(t, out, "Invalid username or password")
	assert.Contains(t, out, "please log in first")
}

func TestREPL_UsageErrors(t *testing.T) {
	out := runREPL(t, "login\nsearch\nrate a\ntab\nfeed all\nquit\n")

	assert.Contains(t, out, "usage: login <username>")
	assert.Contains(t, out, "search query is empty")
	assert.Contains(t, out, "usage: rate <email> <1-5>")
	assert.Contains(t, out, "usage: tab <name>")
	assert.Contains(t, out, "usage: feed [following]")
}
