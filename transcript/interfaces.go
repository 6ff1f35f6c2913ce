package transcript

import (
	"context"
	"time"
)

// Directory supplies articles and synthesizes new ones.
type Directory interface {
	// ListArticles returns the article list, newest first.
	ListArticles(ctx context.Context) ([]Summary, error)

	// GetArticle fetches one article's detail. It fails with ErrNotFound
	// or ErrNetwork.
	GetArticle(ctx context.Context, id string) (*Article, error)

	// SubmitText triggers server-side synthesis and returns the new article.
	SubmitText(ctx context.Context, text string, languages []LanguageTag) (*Article, error)

	// AudioURL returns the playable locator for an audio filename.
	AudioURL(filename string) string
}

// AudioElement is the audio player the controller drives.
type AudioElement interface {
	Seeker

	// Load replaces the current source. Playback starts paused at zero.
	Load(ctx context.Context, url string) error

	// Pause temporarily stops playback.
	Pause() error

	// Position returns the current playback position.
	Position() time.Duration

	// IsPlaying returns true if audio is currently playing.
	IsPlaying() bool
}
