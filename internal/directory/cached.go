package directory

import (
	"context"
	"encoding/json"

	"github.com/charmbracelet/log"

	"github.com/leonezhu/readalong/internal/cache"
	"github.com/leonezhu/readalong/transcript"
)

// Cached wraps a directory so article payloads are served from a cache.
// The list is always fetched fresh since new articles appear over time.
type Cached struct {
	next  transcript.Directory
	cache cache.Cache
}

// NewCached returns next with article caching.
func NewCached(next transcript.Directory, c cache.Cache) *Cached {
	return &Cached{next: next, cache: c}
}

func (c *Cached) ListArticles(ctx context.Context) ([]transcript.Summary, error) {
	return c.next.ListArticles(ctx)
}

// GetArticle returns the cached payload for id or fetches and stores it.
func (c *Cached) GetArticle(ctx context.Context, id string) (*transcript.Article, error) {
	// the audio base distinguishes sources sharing one cache
	key := cache.Key("article", c.next.AudioURL(""), id)
	if data, ok := c.cache.Get(key); ok {
		var a transcript.Article
		if err := json.Unmarshal(data, &a); err == nil {
			log.Debug("article cache hit", "id", id)
			return &a, nil
		}
		_ = c.cache.Delete(key)
	}

	a, err := c.next.GetArticle(ctx, id)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(a); err == nil {
		if err := c.cache.Put(key, data); err != nil {
			log.Debug("article cache put failed", "id", id, "error", err)
		}
	}
	return a, nil
}

// SubmitText passes through; the new article is cached on first select.
func (c *Cached) SubmitText(ctx context.Context, text string, languages []transcript.LanguageTag) (*transcript.Article, error) {
	return c.next.SubmitText(ctx, text, languages)
}

func (c *Cached) AudioURL(filename string) string {
	return c.next.AudioURL(filename)
}

// Unwrap returns the decorated directory.
func (c *Cached) Unwrap() transcript.Directory { return c.next }

var _ transcript.Directory = (*Cached)(nil)
