package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leonezhu/readalong/internal/cache"
	"github.com/leonezhu/readalong/transcript"
)

const bilingualArticle = `{
  "id": "20250102_093000",
  "title": "Morning",
  "created_at": "2025-01-02 09:30:00",
  "sentences": [
    {"text": "早上好。", "language": "zh", "start_time": 0.0, "end_time": 1.2},
    {"text": "Good morning.", "language": "en", "start_time": 1.2, "end_time": 2.4}
  ],
  "language_versions": {
    "zh": {"audio_filename": "m_zh.wav", "sentences": [{"text": "早上好。", "start_time": 0, "end_time": 1.2}]},
    "en": {"audio_filename": "m_en.wav", "sentences": [{"text": "Good morning.", "start_time": 0, "end_time": 1.2}]}
  }
}`

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/articles", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(requestIDHeader) == "" {
			t.Error("missing request id header")
		}
		fmt.Fprint(w, `[{"id":"20250102_093000","title":"Morning","languages":["zh","en"]}]`)
	})
	mux.HandleFunc("/api/articles/20250102_093000", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, bilingualArticle)
	})
	mux.HandleFunc("/api/tts", func(w http.ResponseWriter, r *http.Request) {
		var req ttsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		fmt.Fprintf(w, `{"success": true, "filename": "20250103_100000.wav"}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPClient(t *testing.T) {
	srv := newBackend(t)
	c, err := NewHTTPClient(Config{BaseURL: srv.URL + "/"})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	list, err := c.ListArticles(ctx)
	if err != nil {
		t.Fatalf("ListArticles: %v", err)
	}
	if len(list) != 1 || list[0].Title != "Morning" || len(list[0].Languages) != 2 {
		t.Errorf("ListArticles = %+v", list)
	}

	a, err := c.GetArticle(ctx, "20250102_093000")
	if err != nil {
		t.Fatalf("GetArticle: %v", err)
	}
	if got := a.AvailableLanguages(); len(got) != 2 || got[0] != "zh" || got[1] != "en" {
		t.Errorf("languages = %v, want [zh en]", got)
	}

	_, err = c.GetArticle(ctx, "missing")
	if !errors.Is(err, transcript.ErrNotFound) {
		t.Errorf("GetArticle(missing) = %v, want ErrNotFound", err)
	}

	for _, name := range []string{"m_en.wav", "sub/a b.wav"} {
		if got, want := c.AudioURL(name), srv.URL+"/api/audio/"+name; got != want {
			t.Errorf("AudioURL(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestHTTPClientSubmitLegacyResponse(t *testing.T) {
	srv := newBackend(t)
	c, _ := NewHTTPClient(Config{BaseURL: srv.URL})

	a, err := c.SubmitText(context.Background(), "Hello there.\nSecond line.", []transcript.LanguageTag{"en"})
	if err != nil {
		t.Fatalf("SubmitText: %v", err)
	}
	if a.ID != "20250103_100000" || a.Title != "Hello there." {
		t.Errorf("article = %+v", a)
	}
	v, err := a.Versions.Lookup("en")
	if err != nil || v.AudioFilename != "20250103_100000.wav" {
		t.Errorf("version = %+v, %v", v, err)
	}
}

func TestHTTPClientNetworkErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, _ := NewHTTPClient(Config{BaseURL: srv.URL})
	if _, err := c.ListArticles(context.Background()); !errors.Is(err, transcript.ErrNetwork) {
		t.Errorf("ListArticles = %v, want ErrNetwork", err)
	}

	srv.Close()
	if _, err := c.ListArticles(context.Background()); !errors.Is(err, transcript.ErrNetwork) {
		t.Errorf("ListArticles on closed server = %v, want ErrNetwork", err)
	}
}

func TestNewHTTPClientRejectsBadURL(t *testing.T) {
	if _, err := NewHTTPClient(Config{BaseURL: ""}); err == nil {
		t.Error("expected error for empty base url")
	}
}

func TestTitleFromText(t *testing.T) {
	long := strings.Repeat("字", 60)
	tests := []struct {
		in, want string
	}{
		{"  Short title  \nbody", "Short title"},
		{long, strings.Repeat("字", 50) + "…"},
	}
	for _, tt := range tests {
		if got := titleFromText(tt.in); got != tt.want {
			t.Errorf("titleFromText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGitHubClient(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/leonezhu/articles/contents/backend/articles", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("ref"); got != "main" {
			t.Errorf("ref = %q", got)
		}
		fmt.Fprint(w, `[
			{"name": "20240101_000000.json", "type": "file"},
			{"name": "README.md", "type": "file"},
			{"name": "20250102_093000.json", "type": "file"},
			{"name": "drafts", "type": "dir"}
		]`)
	})
	mux.HandleFunc("/leonezhu/articles/main/backend/articles/20250102_093000.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, bilingualArticle)
	})
	mux.HandleFunc("/leonezhu/articles/main/backend/articles/20240101_000000.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"title": "Old", "audio_filename": "old.wav", "content": "Old text",
			"sentences": [{"text": "Old text", "start_time": 0, "end_time": 1}]}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := NewGitHubClient(Config{Repo: "leonezhu/articles", APIURL: srv.URL, RawURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}

	list, err := c.ListArticles(context.Background())
	if err != nil {
		t.Fatalf("ListArticles: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d articles, want 2", len(list))
	}
	if list[0].ID != "20250102_093000" || list[1].ID != "20240101_000000" {
		t.Errorf("order = %s, %s; want newest first", list[0].ID, list[1].ID)
	}
	if len(list[1].Languages) != 1 || list[1].Languages[0] != "en" {
		t.Errorf("legacy languages = %v, want [en]", list[1].Languages)
	}

	want := srv.URL + "/leonezhu/articles/main/backend/audio_files/a.wav"
	if got := c.AudioURL("a.wav"); got != want {
		t.Errorf("AudioURL = %q, want %q", got, want)
	}
	if got := c.AudioURL("sub/a.wav"); got != srv.URL+"/leonezhu/articles/main/backend/audio_files/sub/a.wav" {
		t.Errorf("AudioURL(sub/a.wav) = %q", got)
	}

	if _, err := c.SubmitText(context.Background(), "x", nil); !errors.Is(err, transcript.ErrNotSupported) {
		t.Errorf("SubmitText = %v, want ErrNotSupported", err)
	}
	if _, err := c.GetArticle(context.Background(), "../secrets"); !errors.Is(err, transcript.ErrNotFound) {
		t.Errorf("GetArticle(../secrets) = %v, want ErrNotFound", err)
	}
}

func TestNewGitHubClientValidatesRepo(t *testing.T) {
	for _, repo := range []string{"", "owner", "/owner", "a/b/c"} {
		if _, err := NewGitHubClient(Config{Repo: repo}); err == nil {
			t.Errorf("NewGitHubClient(%q) succeeded", repo)
		}
	}
}

func writeBackend(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, d := range []string{"articles", "audio_files"} {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	files := map[string]string{
		"articles/20250102_093000.json": bilingualArticle,
		"articles/20240101_000000.json": `{"id": "20240101_000000", "title": "Old", "language_versions": {"en": {"audio_filename": "old.wav", "sentences": []}}}`,
		"articles/broken.json":          `{not json`,
		"audio_files/m_en.wav":          "RIFF",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(root, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestLocalDirectory(t *testing.T) {
	root := writeBackend(t)
	d, err := NewLocalDirectory(root)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	list, err := d.ListArticles(ctx)
	if err != nil {
		t.Fatalf("ListArticles: %v", err)
	}
	if len(list) != 2 || list[0].ID != "20250102_093000" {
		t.Errorf("ListArticles = %+v", list)
	}

	a, err := d.GetArticle(ctx, "20250102_093000")
	if err != nil {
		t.Fatalf("GetArticle: %v", err)
	}
	if a.Title != "Morning" {
		t.Errorf("Title = %q", a.Title)
	}
	if _, err := d.GetArticle(ctx, "nope"); !errors.Is(err, transcript.ErrNotFound) {
		t.Errorf("GetArticle(nope) = %v, want ErrNotFound", err)
	}
	if _, err := d.GetArticle(ctx, "broken"); !errors.Is(err, transcript.ErrInvalidArticle) {
		t.Errorf("GetArticle(broken) = %v, want ErrInvalidArticle", err)
	}

	if !strings.HasPrefix(d.AudioURL("m_en.wav"), "file://") {
		t.Errorf("AudioURL = %q", d.AudioURL("m_en.wav"))
	}
	if _, err := d.AudioPath("m_en.wav"); err != nil {
		t.Errorf("AudioPath: %v", err)
	}
	if _, err := d.AudioPath("../articles/broken.json"); !errors.Is(err, transcript.ErrNotFound) {
		t.Errorf("AudioPath traversal = %v, want ErrNotFound", err)
	}
}

func TestNewLocalDirectoryRequiresArticles(t *testing.T) {
	if _, err := NewLocalDirectory(t.TempDir()); err == nil {
		t.Error("expected error for directory without articles/")
	}
}

func TestLocalDirectoryWatch(t *testing.T) {
	root := writeBackend(t)
	d, _ := NewLocalDirectory(root)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := d.Watch(ctx)
	if err != nil {
		t.Fatal(err)
	}
	p := filepath.Join(root, "articles", "20250104_000000.json")
	if err := os.WriteFile(p, []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("no change event")
	}

	cancel()
	for range ch {
	}
}

type countingDirectory struct {
	transcript.Directory
	gets atomic.Int32
}

func (c *countingDirectory) GetArticle(ctx context.Context, id string) (*transcript.Article, error) {
	c.gets.Add(1)
	return c.Directory.GetArticle(ctx, id)
}

func TestCachedServesRepeatGets(t *testing.T) {
	local, err := NewLocalDirectory(writeBackend(t))
	if err != nil {
		t.Fatal(err)
	}
	counting := &countingDirectory{Directory: local}
	c := NewCached(counting, cache.NewMemoryCache(1<<20))

	for i := 0; i < 3; i++ {
		a, err := c.GetArticle(context.Background(), "20250102_093000")
		if err != nil {
			t.Fatal(err)
		}
		if got := a.AvailableLanguages(); len(got) != 2 || got[0] != "zh" {
			t.Errorf("cached languages = %v", got)
		}
	}
	if n := counting.gets.Load(); n != 1 {
		t.Errorf("underlying GetArticle called %d times, want 1", n)
	}
}

func TestOpen(t *testing.T) {
	root := writeBackend(t)
	dir, err := Open(Config{Source: "local", Path: root}, cache.NewMemoryCache(1024))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := dir.(*Cached); !ok {
		t.Errorf("Open with cache returned %T", dir)
	}
	if _, ok := AsWatcher(dir); !ok {
		t.Error("local directory should be watchable through the cache")
	}

	if _, err := Open(Config{Source: "ftp"}, nil); err == nil {
		t.Error("expected error for unknown source")
	}
}

func TestAudioFetcher(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, "RIFFDATA")
	}))
	defer srv.Close()

	f := NewAudioFetcher(Config{}, cache.NewMemoryCache(1024))
	for i := 0; i < 2; i++ {
		data, err := f.FetchAudio(context.Background(), srv.URL+"/a.wav")
		if err != nil || string(data) != "RIFFDATA" {
			t.Fatalf("FetchAudio = %q, %v", data, err)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("server hit %d times, want 1", hits.Load())
	}

	root := writeBackend(t)
	d, _ := NewLocalDirectory(root)
	data, err := f.FetchAudio(context.Background(), d.AudioURL("m_en.wav"))
	if err != nil || string(data) != "RIFF" {
		t.Errorf("FetchAudio(file) = %q, %v", data, err)
	}

	if _, err := f.FetchAudio(context.Background(), "ftp://x/a.wav"); err == nil {
		t.Error("expected error for ftp scheme")
	}
}
