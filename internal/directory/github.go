package directory

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/leonezhu/readalong/transcript"
)

const (
	defaultGitHubAPI = "https://api.github.com"
	defaultGitHubRaw = "https://raw.githubusercontent.com"
	defaultBranch    = "main"

	articlesDir = "backend/articles"
	audioDir    = "backend/audio_files"

	// concurrent article downloads while listing
	listConcurrency = 4
)

// GitHubClient reads articles committed to a GitHub repository by the
// backend: JSON files under backend/articles and WAV files under
// backend/audio_files.
type GitHubClient struct {
	repo   string
	branch string
	api    string
	raw    string
	fetch  *fetcher
}

// NewGitHubClient returns a client for cfg.Repo (owner/name).
func NewGitHubClient(cfg Config) (*GitHubClient, error) {
	if strings.Count(cfg.Repo, "/") != 1 || strings.HasPrefix(cfg.Repo, "/") || strings.HasSuffix(cfg.Repo, "/") {
		return nil, fmt.Errorf("invalid repository %q, want owner/name", cfg.Repo)
	}
	c := &GitHubClient{
		repo:   cfg.Repo,
		branch: cfg.Branch,
		api:    strings.TrimRight(cfg.APIURL, "/"),
		raw:    strings.TrimRight(cfg.RawURL, "/"),
		fetch:  newFetcher(cfg.Timeout, cfg.RateLimit),
	}
	if c.branch == "" {
		c.branch = defaultBranch
	}
	if c.api == "" {
		c.api = defaultGitHubAPI
	}
	if c.raw == "" {
		c.raw = defaultGitHubRaw
	}
	c.fetch.header.Set("Accept", "application/vnd.github+json")
	if cfg.Token != "" {
		c.fetch.header.Set("Authorization", "Bearer "+cfg.Token)
	}
	return c, nil
}

type contentEntry struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ListArticles lists backend/articles through the contents API, then
// downloads each file for its title. Rows are sorted by id, newest first.
func (c *GitHubClient) ListArticles(ctx context.Context) ([]transcript.Summary, error) {
	listURL := fmt.Sprintf("%s/repos/%s/contents/%s?ref=%s", c.api, c.repo, articlesDir, url.QueryEscape(c.branch))
	entries, err := fetchJSON[[]contentEntry](ctx, c.fetch, listURL)
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, e := range entries {
		if e.Type == "file" && strings.HasSuffix(e.Name, ".json") {
			ids = append(ids, strings.TrimSuffix(e.Name, ".json"))
		}
	}

	summaries := make([]transcript.Summary, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(listConcurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			a, err := c.GetArticle(gctx, id)
			if err != nil {
				return err
			}
			summaries[i] = a.Summary()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sortNewestFirst(summaries)
	log.Debug("listed github articles", "repo", c.repo, "count", len(summaries))
	return summaries, nil
}

// GetArticle downloads backend/articles/{id}.json from the raw host.
func (c *GitHubClient) GetArticle(ctx context.Context, id string) (*transcript.Article, error) {
	if !validID(id) {
		return nil, fmt.Errorf("%w: %q", transcript.ErrNotFound, id)
	}
	a, err := fetchJSON[transcript.Article](ctx, c.fetch, c.rawURL(path.Join(articlesDir, id+".json")))
	if err != nil {
		return nil, err
	}
	if a.ID == "" {
		a.ID = id
	}
	return &a, nil
}

// SubmitText is not supported; the repository is written by the backend.
func (c *GitHubClient) SubmitText(context.Context, string, []transcript.LanguageTag) (*transcript.Article, error) {
	return nil, fmt.Errorf("%w: github source is read-only", transcript.ErrNotSupported)
}

// AudioURL returns the raw URL of backend/audio_files/{filename}.
func (c *GitHubClient) AudioURL(filename string) string {
	return c.rawURL(audioDir + "/" + filename)
}

func (c *GitHubClient) rawURL(p string) string {
	return fmt.Sprintf("%s/%s/%s/%s", c.raw, c.repo, c.branch, p)
}

// sortNewestFirst orders rows by id descending. Backend ids are
// timestamps, so this is newest first.
func sortNewestFirst(s []transcript.Summary) {
	sort.SliceStable(s, func(i, j int) bool { return s[i].ID > s[j].ID })
}

// validID rejects ids that could escape the articles directory.
func validID(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`)
}

var _ transcript.Directory = (*GitHubClient)(nil)
