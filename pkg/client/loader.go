package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"feedfinder/pkg/feed"
	"feedfinder/pkg/models"

	"golang.org/x/sync/errgroup"
)

var ErrProfileNotFound = errors.New("profile not found")

type ProfilePage struct {
	Profile *models.Profile
	Stats   models.Stats
	Posts   []feed.Post

	// Set when that branch hit its deadline and fell back to zero values.
	StatsTimedOut bool
	PostsTimedOut bool
}

// LoadProfilePage fetches a profile, then its stats and posts in parallel.
// Each branch has its own deadline and falls back to empty results when it
// expires. The whole load is bounded by the overall deadline.
func (c *Client) LoadProfilePage(ctx context.Context, userID string) (*ProfilePage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.profileTimeout)
	defer cancel()

	profile := c.FetchProfile(ctx, userID)
	if profile == nil {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("load profile %s: %w", userID, err)
		}
		return nil, ErrProfileNotFound
	}

	page := &ProfilePage{Profile: profile}
	var rows []models.PostRow

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		page.Stats, page.StatsTimedOut = withDeadline(gctx, c.branchTimeout, models.Stats{}, func(ctx context.Context) models.Stats {
			return c.FetchProfileStats(ctx, profile.UserID, profile.UserEmail)
		})
		return nil
	})
	g.Go(func() error {
		rows, page.PostsTimedOut = withDeadline(gctx, c.branchTimeout, []models.PostRow{}, func(ctx context.Context) []models.PostRow {
			return c.FetchUserPosts(ctx, profile.UserID)
		})
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load profile %s: %w", userID, err)
	}

	now := c.now()
	page.Posts = make([]feed.Post, 0, len(rows))
	for _, row := range rows {
		page.Posts = append(page.Posts, feed.FromProfileRow(row, profile, page.Stats.AverageRating, now))
	}
	return page, nil
}

// withDeadline races fn against d. When the deadline wins, fallback is
// returned and fn's result is dropped.
func withDeadline[T any](ctx context.Context, d time.Duration, fallback T, fn func(context.Context) T) (T, bool) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	done := make(chan T, 1)
	go func() {
		done <- fn(ctx)
	}()

	select {
	case v := <-done:
		if ctx.Err() != nil {
			return fallback, true
		}
		return v, false
	case <-ctx.Done():
		return fallback, true
	}
}
