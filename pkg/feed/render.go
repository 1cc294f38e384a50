package feed

import (
	"feedfinder/pkg/media"
	"feedfinder/pkg/models"
)

type BodyKind string

const (
	BodyImage            BodyKind = "image"
	BodyVideo            BodyKind = "video"
	BodyText             BodyKind = "text"
	BodyLocked           BodyKind = "locked"
	BodyImageUnavailable BodyKind = "image-unavailable"
	BodyVideoUnavailable BodyKind = "video-unavailable"
)

type Action string

const (
	ActionNone    Action = ""
	ActionLogin   Action = "login"
	ActionUpgrade Action = "upgrade"
	ActionRate    Action = "rate"
)

const (
	LoginToRate     = "Please login to rate profiles"
	LoginToUnlock   = "Log in with a premium account to view exclusive content"
	UpgradeToUnlock = "Upgrade to Premium to unlock exclusive content"
)

// Viewer is who is looking at the feed.
type Viewer struct {
	LoggedIn bool
	Premium  bool
}

// Card is a post ready to draw. MediaURL is only set when it passed the
// URL allowlist.
type Card struct {
	Post       Post
	Body       BodyKind
	MediaURL   string
	Upsell     string
	UpsellTo   Action
	RateAction Action
	RatePrompt string
}

// CanView reports whether viewer may see the post body.
func CanView(post Post, viewer Viewer) bool {
	if !post.IsExclusive {
		return true
	}
	return viewer.LoggedIn && viewer.Premium
}

func Render(post Post, viewer Viewer) Card {
	card := Card{Post: post, RateAction: ActionRate}
	if !viewer.LoggedIn {
		card.RateAction = ActionLogin
		card.RatePrompt = LoginToRate
	}

	if !CanView(post, viewer) {
		card.Body = BodyLocked
		if viewer.LoggedIn {
			card.Upsell = UpgradeToUnlock
			card.UpsellTo = ActionUpgrade
		} else {
			card.Upsell = LoginToUnlock
			card.UpsellTo = ActionLogin
		}
		return card
	}

	switch post.Type {
	case models.MediaVideo:
		if media.IsSafeVideoURL(post.Content) {
			card.Body = BodyVideo
			card.MediaURL = post.Content
		} else {
			card.Body = BodyVideoUnavailable
		}
	case models.MediaText:
		card.Body = BodyText
	default:
		if media.IsSafeImageURL(post.Content) {
			card.Body = BodyImage
			card.MediaURL = post.Content
		} else {
			card.Body = BodyImageUnavailable
		}
	}
	return card
}

func RenderAll(posts []Post, viewer Viewer) []Card {
	cards := make([]Card, 0, len(posts))
	for _, p := range posts {
		cards = append(cards, Render(p, viewer))
	}
	return cards
}
