// Package feed turns API post rows into display posts and decides how each
// post may be rendered for a given viewer.
package feed

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"feedfinder/pkg/media"
	"feedfinder/pkg/models"
)

const avatarBase = "https://api.dicebear.com/7.x/avataaars/svg?seed="

var profileVideo = regexp.MustCompile(`(?i)\.(mp4|webm|mov)$`)

type Author struct {
	UserID    string
	Name      string
	Username  string
	Avatar    string
	Email     string
	Rating    float64
	IsPremium bool
}

// Post is a row normalized for display.
type Post struct {
	ID          string
	Author      Author
	Type        models.MediaType
	Content     string
	Caption     string
	Timestamp   string
	Likes       int
	IsExclusive bool
}

// AvatarURL is the generated avatar for users without a picture.
func AvatarURL(seed string) string {
	return avatarBase + url.QueryEscape(seed)
}

// InferMediaType classifies a media URL by extension.
func InferMediaType(mediaURL string) models.MediaType {
	return media.InferMediaType(mediaURL)
}

// FromRow maps a feed or search row.
func FromRow(row models.PostRow, now time.Time) Post {
	name := row.UserName
	if name == "" {
		name = "User"
	}

	username := "@user"
	switch {
	case row.UserEmail != "":
		username = "@" + strings.SplitN(row.UserEmail, "@", 2)[0]
	case row.UserName != "":
		username = "@" + row.UserName
	}

	typ := row.MediaType
	if typ == "" {
		typ = models.MediaImage
		if row.MediaURL != "" {
			typ = InferMediaType(row.MediaURL)
		}
	}

	return Post{
		ID: row.PostID,
		Author: Author{
			UserID:   row.UserID,
			Name:     name,
			Username: username,
			Avatar:   AvatarURL(name),
			Email:    row.UserEmail,
		},
		Type:        typ,
		Content:     row.MediaURL,
		Caption:     row.ContentText,
		Timestamp:   FormatTimestamp(row.CreatedAt, now),
		IsExclusive: row.Privacy == models.PrivacyExclusive,
	}
}

// FromProfileRow maps a row on a profile page. The author is the profile
// owner, and the rating is already on the 5-star scale.
func FromProfileRow(row models.PostRow, profile *models.Profile, rating float64, now time.Time) Post {
	typ := models.MediaText
	if row.MediaURL != "" {
		typ = models.MediaImage
		if profileVideo.MatchString(row.MediaURL) {
			typ = models.MediaVideo
		}
	}

	author := Author{UserID: row.UserID, Rating: rating}
	if profile != nil {
		author.UserID = profile.UserID
		author.Name = profile.UserName
		author.Username = "@" + profile.UserName
		author.Email = profile.UserEmail
		author.IsPremium = profile.IsPremium
		author.Avatar = profile.ProfilePicture
		if author.Avatar == "" {
			author.Avatar = AvatarURL(profile.UserName)
		}
	}

	return Post{
		ID:          row.PostID,
		Author:      author,
		Type:        typ,
		Content:     row.MediaURL,
		Caption:     row.ContentText,
		Timestamp:   FormatTimestamp(row.CreatedAt, now),
		Likes:       row.LikeCount,
		IsExclusive: row.Privacy == models.PrivacyExclusive,
	}
}

// FromRows maps rows with FromRow.
func FromRows(rows []models.PostRow, now time.Time) []Post {
	posts := make([]Post, 0, len(rows))
	for _, row := range rows {
		posts = append(posts, FromRow(row, now))
	}
	return posts
}
