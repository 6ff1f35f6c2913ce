package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/muesli/gitcha"

	"github.com/leonezhu/readalong/transcript"
)

var articleExtensions = []string{"*.json"}

// LocalDirectory reads a backend directory on disk laid out as
// articles/{id}.json and audio_files/{filename}.
type LocalDirectory struct {
	root string
}

// NewLocalDirectory opens root, which must contain an articles directory.
func NewLocalDirectory(root string) (*LocalDirectory, error) {
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(filepath.Join(abs, "articles"))
	if err != nil {
		return nil, fmt.Errorf("backend directory %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("backend directory %s: articles is not a directory", abs)
	}
	return &LocalDirectory{root: abs}, nil
}

// Root returns the absolute backend directory.
func (d *LocalDirectory) Root() string { return d.root }

func (d *LocalDirectory) articlesDir() string { return filepath.Join(d.root, "articles") }

// ListArticles reads every article file. Unreadable files are logged and
// skipped so one bad file does not hide the rest.
func (d *LocalDirectory) ListArticles(ctx context.Context) ([]transcript.Summary, error) {
	ch, err := gitcha.FindAllFilesExcept(d.articlesDir(), articleExtensions, nil)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", d.articlesDir(), err)
	}

	var summaries []transcript.Summary
	for res := range ch {
		if err := ctx.Err(); err != nil {
			// drain so gitcha's walker can finish
			for range ch {
			}
			return nil, err
		}
		a, err := readArticle(res.Path)
		if err != nil {
			log.Warn("skipping article", "path", res.Path, "error", err)
			continue
		}
		if a.ID == "" {
			a.ID = strings.TrimSuffix(filepath.Base(res.Path), ".json")
		}
		summaries = append(summaries, a.Summary())
	}

	sortNewestFirst(summaries)
	return summaries, nil
}

// GetArticle reads articles/{id}.json.
func (d *LocalDirectory) GetArticle(_ context.Context, id string) (*transcript.Article, error) {
	if !validID(id) {
		return nil, fmt.Errorf("%w: %q", transcript.ErrNotFound, id)
	}
	a, err := readArticle(filepath.Join(d.articlesDir(), id+".json"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %q", transcript.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	if a.ID == "" {
		a.ID = id
	}
	return a, nil
}

// SubmitText is not supported; synthesis happens in the backend.
func (d *LocalDirectory) SubmitText(context.Context, string, []transcript.LanguageTag) (*transcript.Article, error) {
	return nil, fmt.Errorf("%w: local source is read-only", transcript.ErrNotSupported)
}

// AudioURL returns a file:// URL for audio_files/{filename}.
func (d *LocalDirectory) AudioURL(filename string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(filepath.Join(d.root, "audio_files", filepath.Base(filename)))}
	return u.String()
}

// AudioPath resolves filename inside audio_files, refusing anything that
// would leave it.
func (d *LocalDirectory) AudioPath(filename string) (string, error) {
	if !validID(filename) {
		return "", fmt.Errorf("%w: %q", transcript.ErrNotFound, filename)
	}
	p := filepath.Join(d.root, "audio_files", filename)
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %q", transcript.ErrNotFound, filename)
		}
		return "", err
	}
	return p, nil
}

// Watch reports changes to the articles directory. The channel has a
// buffer of one and coalesces bursts; it closes when ctx is done.
func (d *LocalDirectory) Watch(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(d.articlesDir()); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", d.articlesDir(), err)
	}
	log.Info("fsnotify watching dir", "dir", d.articlesDir())

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer watcher.Close() //nolint:errcheck
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !strings.HasSuffix(event.Name, ".json") {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
					!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
					continue
				}
				log.Debug("fsnotify event", "file", event.Name, "event", event.Op)
				select {
				case out <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Debug("fsnotify error", "dir", d.articlesDir(), "error", err)
			}
		}
	}()
	return out, nil
}

func readArticle(p string) (*transcript.Article, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	var a transcript.Article
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", transcript.ErrInvalidArticle, filepath.Base(p), err)
	}
	return &a, nil
}

var (
	_ transcript.Directory = (*LocalDirectory)(nil)
	_ Watcher              = (*LocalDirectory)(nil)
)
