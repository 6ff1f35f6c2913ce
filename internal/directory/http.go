package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/leonezhu/readalong/transcript"
)

// HTTPClient talks to a readalong backend over its JSON API.
type HTTPClient struct {
	base      string
	audioBase string
	fetch     *fetcher
}

// NewHTTPClient validates cfg.BaseURL and returns a client for it.
func NewHTTPClient(cfg Config) (*HTTPClient, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if _, err := url.ParseRequestURI(base); err != nil || base == "" {
		return nil, fmt.Errorf("invalid backend url %q", cfg.BaseURL)
	}
	audio := strings.TrimRight(cfg.AudioBaseURL, "/")
	if audio == "" {
		audio = base + "/api/audio"
	}
	return &HTTPClient{
		base:      base,
		audioBase: audio,
		fetch:     newFetcher(cfg.Timeout, cfg.RateLimit),
	}, nil
}

// ListArticles fetches GET /api/articles.
func (c *HTTPClient) ListArticles(ctx context.Context) ([]transcript.Summary, error) {
	return fetchJSON[[]transcript.Summary](ctx, c.fetch, c.base+"/api/articles")
}

// GetArticle fetches GET /api/articles/{id}.
func (c *HTTPClient) GetArticle(ctx context.Context, id string) (*transcript.Article, error) {
	a, err := fetchJSON[transcript.Article](ctx, c.fetch, c.base+"/api/articles/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	if a.ID == "" {
		a.ID = id
	}
	return &a, nil
}

type ttsRequest struct {
	Text      string                   `json:"text"`
	Languages []transcript.LanguageTag `json:"languages,omitempty"`
}

// ttsResponse covers both backends that return the new article and the
// older shape that only reports the written audio file.
type ttsResponse struct {
	Success  bool                `json:"success"`
	Error    string              `json:"error"`
	Filename string              `json:"filename"`
	Article  *transcript.Article `json:"article"`
}

// SubmitText posts text to POST /api/tts.
func (c *HTTPClient) SubmitText(ctx context.Context, text string, languages []transcript.LanguageTag) (*transcript.Article, error) {
	data, err := c.fetch.do(ctx, http.MethodPost, c.base+"/api/tts", ttsRequest{Text: text, Languages: languages}, maxJSONBytes)
	if err != nil {
		return nil, err
	}
	resp, err := decodeTTSResponse(data)
	if err != nil {
		return nil, err
	}
	if resp.Article != nil {
		return resp.Article, nil
	}
	return articleFromFilename(text, resp.Filename, languages), nil
}

func decodeTTSResponse(data []byte) (ttsResponse, error) {
	var resp ttsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return resp, fmt.Errorf("%w: decode tts response: %v", transcript.ErrInvalidArticle, err)
	}
	if resp.Article == nil && resp.Filename == "" {
		msg := resp.Error
		if msg == "" {
			msg = "backend returned no article"
		}
		return resp, fmt.Errorf("%w: %s", transcript.ErrNetwork, msg)
	}
	return resp, nil
}

// articleFromFilename builds a single-version article for a backend that
// only reports the generated audio file.
func articleFromFilename(text, filename string, languages []transcript.LanguageTag) *transcript.Article {
	lang := transcript.LanguageTag("en")
	if len(languages) > 0 {
		lang = languages[0]
	}
	id := strings.TrimSuffix(filename, ".wav")
	return &transcript.Article{
		ID:    id,
		Title: titleFromText(text),
		Versions: transcript.NewVersions(transcript.LanguageVersion{
			LanguageTag:   lang,
			AudioFilename: filename,
		}),
	}
}

const maxTitleRunes = 50

func titleFromText(text string) string {
	line := strings.TrimSpace(strings.SplitN(strings.TrimSpace(text), "\n", 2)[0])
	if utf8.RuneCountInString(line) <= maxTitleRunes {
		return line
	}
	return string([]rune(line)[:maxTitleRunes]) + "…"
}

// AudioURL returns {audioBase}/{filename}. The filename is an opaque
// locator and is appended as-is.
func (c *HTTPClient) AudioURL(filename string) string {
	return c.audioBase + "/" + filename
}

var _ transcript.Directory = (*HTTPClient)(nil)

