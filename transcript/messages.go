package transcript

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Messages for Bubble Tea communication between the controller and the UI.

// ArticlesLoadedMsg indicates the article list fetch finished.
type ArticlesLoadedMsg struct {
	Err error
}

// ArticleSelectedMsg indicates a selection finished, failed or was
// superseded.
type ArticleSelectedMsg struct {
	ID  string
	Err error
}

// AudioLanguageChangedMsg indicates an audio track swap finished.
type AudioLanguageChangedMsg struct {
	Language LanguageTag
	Err      error
}

// TextSubmittedMsg indicates a synthesis request finished.
type TextSubmittedMsg struct {
	Article *Article
	Err     error
}

// SeekedMsg indicates a click-to-seek finished.
type SeekedMsg struct {
	Index int
	Err   error
}

// PositionMsg carries a playback position update from the sync loop.
type PositionMsg struct {
	Snapshot Snapshot
}

// Commands for async controller operations. Each runs on Bubble Tea's
// command goroutine so that network calls never block the event loop.

// LoadArticlesCmd fetches the article list.
func LoadArticlesCmd(c *Controller, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout(timeout)
		defer cancel()
		return ArticlesLoadedMsg{Err: c.LoadArticles(ctx)}
	}
}

// SelectArticleCmd selects the article with id.
func SelectArticleCmd(c *Controller, id string, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout(timeout)
		defer cancel()
		return ArticleSelectedMsg{ID: id, Err: c.SelectArticle(ctx, id)}
	}
}

// SetAudioLanguageCmd switches the audio track.
func SetAudioLanguageCmd(c *Controller, lang LanguageTag, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout(timeout)
		defer cancel()
		return AudioLanguageChangedMsg{Language: lang, Err: c.SetAudioLanguage(ctx, lang)}
	}
}

// SubmitTextCmd submits text for synthesis.
func SubmitTextCmd(c *Controller, text string, languages []LanguageTag, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout(timeout)
		defer cancel()
		article, err := c.SubmitNewText(ctx, text, languages)
		return TextSubmittedMsg{Article: article, Err: err}
	}
}

// SeekCmd seeks to the visible sentence at index.
func SeekCmd(c *Controller, index int) tea.Cmd {
	return func() tea.Msg {
		s, err := c.SentenceAt(index)
		if err == nil {
			err = c.OnSentenceClick(s)
		}
		return SeekedMsg{Index: index, Err: err}
	}
}

func withTimeout(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), timeout)
}
