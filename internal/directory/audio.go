package directory

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/leonezhu/readalong/internal/cache"
)

// AudioFetcher downloads audio bytes for an audio URL.
type AudioFetcher struct {
	fetch *fetcher
	cache cache.Cache
}

// NewAudioFetcher returns a fetcher that stores downloads in c when c is
// non-nil.
func NewAudioFetcher(cfg Config, c cache.Cache) *AudioFetcher {
	f := newFetcher(cfg.Timeout, 0)
	if cfg.Token != "" && strings.EqualFold(cfg.Source, SourceGitHub) {
		f.header.Set("Authorization", "Bearer "+cfg.Token)
	}
	return &AudioFetcher{fetch: f, cache: c}
}

// FetchAudio reads http(s) URLs over the network and file URLs from disk.
// Network downloads are cached by URL.
func (a *AudioFetcher) FetchAudio(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid audio url %q: %w", rawURL, err)
	}

	switch u.Scheme {
	case "file":
		return os.ReadFile(u.Path)
	case "http", "https":
	default:
		return nil, fmt.Errorf("unsupported audio url scheme %q", u.Scheme)
	}

	key := cache.Key("audio", rawURL)
	if a.cache != nil {
		if data, ok := a.cache.Get(key); ok {
			log.Debug("audio cache hit", "url", rawURL)
			return data, nil
		}
	}

	data, err := a.fetch.do(ctx, http.MethodGet, rawURL, nil, maxAudioBytes)
	if err != nil {
		return nil, err
	}
	if a.cache != nil {
		if err := a.cache.Put(key, data); err != nil {
			log.Debug("audio cache put failed", "url", rawURL, "error", err)
		}
	}
	return data, nil
}
