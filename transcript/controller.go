// Package transcript implements the audio-synchronized multilingual
// transcript engine: language-version resolution, playback position
// tracking and the controller that owns selection state.
package transcript

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// Snapshot is the read-only view handed to the rendering layer. A snapshot
// is never modified after it is published; every controller operation
// builds a new one.
type Snapshot struct {
	State              StateType
	Articles           []Summary
	Selected           *Article
	DisplayMode        DisplayMode
	AudioLanguage      LanguageTag
	AvailableLanguages []LanguageTag
	VisibleSentences   []Sentence
	AudioURL           string
	CurrentTime        float64 // seconds
	HighlightedIndex   int     // NoSentence when playback is between sentences
	Loading            bool
	Submitting         bool
	Error              string
}

// Highlighted returns the highlighted sentence, if any.
func (s Snapshot) Highlighted() (Sentence, bool) {
	if s.HighlightedIndex < 0 || s.HighlightedIndex >= len(s.VisibleSentences) {
		return Sentence{}, false
	}
	return s.VisibleSentences[s.HighlightedIndex], true
}

// idleSnapshot keeps only the article list and error slot.
func idleSnapshot(prev Snapshot) Snapshot {
	return Snapshot{
		State:            StateIdle,
		Articles:         prev.Articles,
		DisplayMode:      DisplayBoth,
		HighlightedIndex: NoSentence,
		Submitting:       prev.Submitting,
		Error:            prev.Error,
	}
}

// Controller owns the selection state and drives highlight and seek.
// Operations are safe to call from multiple goroutines; a slow fetch never
// holds the lock, so playback updates stay responsive.
type Controller struct {
	dir   Directory
	audio AudioElement

	mu          sync.RWMutex
	snap        Snapshot
	machine     *StateMachine
	generation  uint64 // bumped by every selection change
	listLoading int
	// generation whose audio source is still loading; 0 when none
	audioPending uint64

	// serializes audio source swaps so the newest selection loads last
	audioMu sync.Mutex

	listenersMu sync.RWMutex
	listeners   map[int]func(Snapshot)
	nextID      int
}

// NewController creates a controller in StateIdle. audio may be nil, in
// which case seeking reports ErrNoAudio.
func NewController(dir Directory, audio AudioElement) *Controller {
	return &Controller{
		dir:     dir,
		audio:   audio,
		machine: NewStateMachine(),
		snap: Snapshot{
			State:            StateIdle,
			DisplayMode:      DisplayBoth,
			HighlightedIndex: NoSentence,
		},
		listeners: make(map[int]func(Snapshot)),
	}
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// Audio returns the attached audio element.
func (c *Controller) Audio() AudioElement {
	return c.audio
}

// Subscribe registers fn to receive every published snapshot. The returned
// function removes the subscription.
func (c *Controller) Subscribe(fn func(Snapshot)) func() {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	return func() {
		c.listenersMu.Lock()
		defer c.listenersMu.Unlock()
		delete(c.listeners, id)
	}
}

// publishLocked installs next; the caller holds mu and must call notify
// with the returned snapshot after unlocking.
func (c *Controller) publishLocked(next Snapshot) Snapshot {
	next.State = c.machine.Current()
	next.Loading = c.listLoading > 0 || next.State == StateLoading
	c.snap = next
	return next
}

func (c *Controller) notify(s Snapshot) {
	c.listenersMu.RLock()
	fns := make([]func(Snapshot), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.listenersMu.RUnlock()
	for _, fn := range fns {
		fn(s)
	}
}

// update applies fn to a copy of the snapshot and publishes the result.
func (c *Controller) update(fn func(*Snapshot)) Snapshot {
	c.mu.Lock()
	next := c.snap
	fn(&next)
	s := c.publishLocked(next)
	c.mu.Unlock()
	c.notify(s)
	return s
}

// LoadArticles fetches the article list and replaces it wholesale.
func (c *Controller) LoadArticles(ctx context.Context) error {
	c.mu.Lock()
	c.listLoading++
	next := c.snap
	next.Error = ""
	s := c.publishLocked(next)
	c.mu.Unlock()
	c.notify(s)

	articles, err := c.dir.ListArticles(ctx)

	c.mu.Lock()
	c.listLoading--
	next = c.snap
	if err != nil {
		next.Error = UserMessage(err)
	} else {
		next.Articles = articles
	}
	s = c.publishLocked(next)
	c.mu.Unlock()
	c.notify(s)

	if err != nil {
		log.Warn("loading article list failed", "error", err)
		return NewError(err, "controller", "load_articles")
	}
	log.Debug("article list loaded", "count", len(articles))
	return nil
}

// SelectArticle fetches the article with id and makes it the selection.
// If another selection (or ReturnToList) happens before the fetch
// completes, the result is dropped and ErrSuperseded returned. On failure
// the controller is left Idle with no selection and the error recorded.
func (c *Controller) SelectArticle(ctx context.Context, id string) error {
	c.mu.Lock()
	wasReady := c.machine.Current() == StateReady
	if !c.machine.Transition(StateLoading) {
		c.mu.Unlock()
		return NewError(ErrInvalidState, "controller", "select_article")
	}
	c.generation++
	gen := c.generation
	c.audioPending = 0
	next := idleSnapshot(c.snap)
	next.Error = ""
	s := c.publishLocked(next)
	c.mu.Unlock()
	c.notify(s)

	if wasReady && c.audio != nil {
		_ = c.audio.Pause()
	}

	log.Debug("selecting article", "id", id, "generation", gen)
	article, err := c.dir.GetArticle(ctx, id)
	var (
		available []LanguageTag
		audioLang LanguageTag
		visible   []Sentence
	)
	if err == nil {
		err = article.Validate()
	}
	if err == nil {
		available = article.AvailableLanguages()
		audioLang = available[0]
		visible, err = Resolve(article, DisplayBoth, audioLang)
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		log.Debug("dropping superseded article", "id", id, "generation", gen)
		return ErrSuperseded
	}
	if err != nil {
		c.machine.Transition(StateIdle)
		next := idleSnapshot(c.snap)
		next.Error = UserMessage(err)
		s := c.publishLocked(next)
		c.mu.Unlock()
		c.notify(s)
		log.Warn("selecting article failed", "id", id, "error", err)
		return NewError(err, "controller", "select_article")
	}

	version, _ := article.Versions.Lookup(audioLang)
	url := c.dir.AudioURL(version.AudioFilename)

	highlighted, _ := Locate(visible, 0)
	c.machine.Transition(StateReady)
	c.markAudioPendingLocked(gen)
	s = c.publishLocked(Snapshot{
		Articles:           c.snap.Articles,
		Selected:           article,
		DisplayMode:        DisplayBoth,
		AudioLanguage:      audioLang,
		AvailableLanguages: available,
		VisibleSentences:   visible,
		AudioURL:           url,
		CurrentTime:        0,
		HighlightedIndex:   highlighted,
		Submitting:         c.snap.Submitting,
	})
	c.mu.Unlock()
	c.notify(s)

	log.Info("article selected", "id", id, "languages", available, "audio", audioLang)
	return c.loadAudio(ctx, gen, url)
}

// loadAudio swaps the audio source unless gen has been superseded. A load
// failure is recorded in the error slot but leaves the selection intact.
func (c *Controller) loadAudio(ctx context.Context, gen uint64, url string) error {
	if c.audio == nil {
		return nil
	}
	c.audioMu.Lock()
	defer c.audioMu.Unlock()

	if !c.current(gen) {
		return ErrSuperseded
	}
	err := c.audio.Load(ctx, url)

	c.mu.Lock()
	if c.audioPending == gen {
		c.audioPending = 0
	}
	c.mu.Unlock()

	if err != nil {
		c.mu.Lock()
		if gen == c.generation {
			next := c.snap
			next.Error = "Could not load audio: " + err.Error()
			s := c.publishLocked(next)
			c.mu.Unlock()
			c.notify(s)
		} else {
			c.mu.Unlock()
		}
		log.Warn("loading audio failed", "url", url, "error", err)
		return NewError(err, "player", "load")
	}
	return nil
}

func (c *Controller) markAudioPendingLocked(gen uint64) {
	if c.audio != nil {
		c.audioPending = gen
	}
}

func (c *Controller) current(gen uint64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return gen == c.generation
}

// SetDisplayLanguage changes which language(s) are rendered. The audio
// language and playback position are left untouched. A language the
// article does not contain falls back silently to DisplayBoth.
func (c *Controller) SetDisplayLanguage(mode DisplayMode) error {
	c.mu.Lock()
	if c.machine.Current() != StateReady {
		c.mu.Unlock()
		return NewError(ErrInvalidState, "controller", "set_display_language")
	}
	article := c.snap.Selected
	if tag, ok := mode.Language(); ok && !article.HasLanguage(tag) {
		log.Debug("display language not in article, showing both", "language", tag)
		mode = DisplayBoth
	}

	visible, audioLang, err := ResolveWithFallback(article, mode, c.snap.AudioLanguage)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	next := c.snap
	next.DisplayMode = mode
	next.AudioLanguage = audioLang
	next.VisibleSentences = visible
	next.HighlightedIndex, _ = Locate(visible, next.CurrentTime)
	s := c.publishLocked(next)
	c.mu.Unlock()
	c.notify(s)
	return nil
}

// SetAudioLanguage swaps the audio track to lang and re-resolves the
// visible sentences under the current display mode. A language that is not
// available is a no-op returning ErrMissingLanguageVersion; the current
// track stays selected and no error is shown.
func (c *Controller) SetAudioLanguage(ctx context.Context, lang LanguageTag) error {
	c.mu.Lock()
	if c.machine.Current() != StateReady {
		c.mu.Unlock()
		return NewError(ErrInvalidState, "controller", "set_audio_language")
	}
	article := c.snap.Selected
	version, err := article.Versions.Lookup(lang)
	if err != nil {
		c.mu.Unlock()
		log.Debug("audio language unavailable, keeping current", "language", lang)
		return NewError(err, "controller", "set_audio_language").WithSeverity(SeverityInfo)
	}
	visible, err := Resolve(article, c.snap.DisplayMode, lang)
	if err != nil {
		c.mu.Unlock()
		return err
	}

	c.generation++
	gen := c.generation
	url := c.dir.AudioURL(version.AudioFilename)
	next := c.snap
	next.AudioLanguage = lang
	next.VisibleSentences = visible
	next.AudioURL = url
	next.CurrentTime = 0
	next.HighlightedIndex, _ = Locate(visible, 0)
	c.markAudioPendingLocked(gen)
	s := c.publishLocked(next)
	c.mu.Unlock()
	c.notify(s)

	return c.loadAudio(ctx, gen, url)
}

// OnPlaybackTimeUpdate records the playback position t (seconds) and
// recomputes the highlighted sentence. It never seeks. Updates are dropped
// unless an article is open and its audio source has finished loading.
func (c *Controller) OnPlaybackTimeUpdate(t float64) {
	c.mu.Lock()
	if c.machine.Current() != StateReady || c.audioPending != 0 || c.snap.CurrentTime == t {
		c.mu.Unlock()
		return
	}
	next := c.snap
	next.CurrentTime = t
	next.HighlightedIndex, _ = Locate(next.VisibleSentences, t)
	s := c.publishLocked(next)
	c.mu.Unlock()
	c.notify(s)
}

// OnSentenceClick seeks the audio to the start of s. Line breaks are
// ignored and return ErrLineBreakSeek.
func (c *Controller) OnSentenceClick(s Sentence) error {
	if c.Snapshot().State != StateReady {
		return NewError(ErrInvalidState, "controller", "sentence_click")
	}
	if s.IsLineBreak() {
		return ErrLineBreakSeek
	}
	if err := SeekTo(c.audio, s); err != nil {
		if !errors.Is(err, ErrNoAudio) {
			c.update(func(next *Snapshot) { next.Error = UserMessage(err) })
		}
		return err
	}
	c.OnPlaybackTimeUpdate(s.StartTime)
	return nil
}

// SentenceAt returns the visible sentence at index i.
func (c *Controller) SentenceAt(i int) (Sentence, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i < 0 || i >= len(c.snap.VisibleSentences) {
		return Sentence{}, fmt.Errorf("sentence index %d out of range", i)
	}
	return c.snap.VisibleSentences[i], nil
}

// ReturnToList clears the selection and drops any in-flight selection.
func (c *Controller) ReturnToList() {
	c.mu.Lock()
	c.generation++
	c.audioPending = 0
	if c.machine.Current() != StateIdle {
		c.machine.Transition(StateIdle)
	}
	next := idleSnapshot(c.snap)
	next.Error = ""
	s := c.publishLocked(next)
	c.mu.Unlock()
	c.notify(s)

	if c.audio != nil {
		_ = c.audio.Pause()
	}
}

// SubmitNewText asks the directory to synthesize text in the given
// languages. The new article is prepended to the list; it is not selected.
func (c *Controller) SubmitNewText(ctx context.Context, text string, languages []LanguageTag) (*Article, error) {
	if strings.TrimSpace(text) == "" {
		c.update(func(next *Snapshot) { next.Error = UserMessage(ErrEmptyInput) })
		return nil, NewError(ErrEmptyInput, "controller", "submit_text").WithSeverity(SeverityWarning)
	}

	c.update(func(next *Snapshot) {
		next.Submitting = true
		next.Error = ""
	})

	article, err := c.dir.SubmitText(ctx, text, languages)

	c.update(func(next *Snapshot) {
		next.Submitting = false
		if err != nil {
			next.Error = UserMessage(err)
			return
		}
		articles := make([]Summary, 0, len(next.Articles)+1)
		articles = append(articles, article.Summary())
		for _, a := range next.Articles {
			if a.ID != article.ID {
				articles = append(articles, a)
			}
		}
		next.Articles = articles
	})
	if err != nil {
		log.Warn("submitting text failed", "error", err)
		return nil, NewError(err, "controller", "submit_text")
	}
	log.Info("text submitted", "id", article.ID, "languages", article.AvailableLanguages())
	return article, nil
}

// ClearError empties the error slot.
func (c *Controller) ClearError() {
	c.update(func(next *Snapshot) { next.Error = "" })
}
