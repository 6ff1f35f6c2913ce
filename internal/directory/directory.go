// Package directory provides the article directory clients the transcript
// controller reads from: a backend HTTP API, a GitHub repository holding
// the generated articles, and a local backend directory on disk.
package directory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/leonezhu/readalong/internal/cache"
	"github.com/leonezhu/readalong/transcript"
)

// Source kinds accepted by Open.
const (
	SourceHTTP   = "http"
	SourceGitHub = "github"
	SourceLocal  = "local"
)

// Config selects and configures a directory client.
type Config struct {
	Source       string        // http, github or local
	BaseURL      string        // http: backend root, e.g. http://localhost:5000
	AudioBaseURL string        // http: overrides {BaseURL}/api/audio
	Repo         string        // github: owner/name
	Branch       string        // github
	Token        string        // github: optional API token
	APIURL       string        // github: defaults to https://api.github.com
	RawURL       string        // github: defaults to https://raw.githubusercontent.com
	Path         string        // local: backend directory
	Timeout      time.Duration // per request
	RateLimit    time.Duration // minimum spacing between requests, 0 for none
}

// Open returns the client for cfg.Source. When c is non-nil, article
// payloads are cached through it.
func Open(cfg Config, c cache.Cache) (transcript.Directory, error) {
	var (
		dir transcript.Directory
		err error
	)
	switch strings.ToLower(cfg.Source) {
	case SourceHTTP, "":
		dir, err = NewHTTPClient(cfg)
	case SourceGitHub:
		dir, err = NewGitHubClient(cfg)
	case SourceLocal:
		dir, err = NewLocalDirectory(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown article source %q", cfg.Source)
	}
	if err != nil {
		return nil, err
	}
	if c != nil {
		dir = NewCached(dir, c)
	}
	return dir, nil
}

// Watcher is implemented by directories that can report changes.
type Watcher interface {
	Watch(ctx context.Context) (<-chan struct{}, error)
}

// AsWatcher returns dir's Watcher, looking through a Cached decorator.
func AsWatcher(dir transcript.Directory) (Watcher, bool) {
	if c, ok := dir.(*Cached); ok {
		dir = c.next
	}
	w, ok := dir.(Watcher)
	return w, ok
}
