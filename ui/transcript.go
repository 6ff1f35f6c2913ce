package ui

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/leonezhu/readalong/transcript"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/termenv"
)

const (
	transcriptHeaderHeight = 3
	statusBarHeight        = 1
	transcriptMargin       = 2
	maxTranscriptWidth     = 100
	scrollMargin           = 2
)

type transcriptStatusMessageTimeoutMsg struct{}

type transcriptStatusMessage struct {
	message string
	isError bool
}

// layoutKey identifies the inputs the wrapped layout depends on.
type layoutKey struct {
	id    string
	mode  transcript.DisplayMode
	lang  transcript.LanguageTag
	count int
	width int
}

type transcriptModel struct {
	common   *commonModel
	viewport viewport.Model
	spinner  spinner.Model

	snap      transcript.Snapshot
	layout    *layout
	layoutKey layoutKey

	cursor        int // sentence under the keyboard cursor, NoSentence if none
	lastHighlight int
	showHelp      bool

	statusMessage      transcriptStatusMessage
	statusMessageTimer *time.Timer
}

func newTranscriptModel(common *commonModel) transcriptModel {
	vp := viewport.New(0, 0)
	vp.YPosition = transcriptHeaderHeight

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(fuchsia)

	return transcriptModel{
		common:        common,
		viewport:      vp,
		spinner:       sp,
		cursor:        transcript.NoSentence,
		lastHighlight: transcript.NoSentence,
	}
}

func (m *transcriptModel) reset() {
	m.cursor = transcript.NoSentence
	m.lastHighlight = transcript.NoSentence
	m.layout = nil
	m.layoutKey = layoutKey{}
	m.showHelp = false
	m.viewport.GotoTop()
}

func (m *transcriptModel) setSize(w, h int) {
	m.viewport.Width = w
	m.viewport.Height = h - transcriptHeaderHeight - statusBarHeight
	if m.showHelp {
		m.viewport.Height -= lipgloss.Height(m.helpView())
	}
	m.viewport.Height = max(m.viewport.Height, 1)
	m.render()
}

func (m transcriptModel) textWidth() int {
	w := m.common.width - transcriptMargin*2
	if m.common.cfg.Width > 0 && int(m.common.cfg.Width) < w { //nolint:gosec
		w = int(m.common.cfg.Width) //nolint:gosec
	}
	return min(max(w, 10), maxTranscriptWidth)
}

func (m *transcriptModel) setSnapshot(s transcript.Snapshot) {
	m.snap = s
	if m.cursor >= len(s.VisibleSentences) {
		m.cursor = transcript.NoSentence
	}
	m.render()

	if s.HighlightedIndex != m.lastHighlight {
		m.lastHighlight = s.HighlightedIndex
		if s.HighlightedIndex != transcript.NoSentence {
			m.scrollTo(s.HighlightedIndex)
		}
	}
}

// render rebuilds the layout if its inputs changed and restyles the
// content for the current highlight and cursor.
func (m *transcriptModel) render() {
	if m.snap.Selected == nil {
		m.viewport.SetContent("")
		return
	}
	key := layoutKey{
		id:    m.snap.Selected.ID,
		mode:  m.snap.DisplayMode,
		lang:  m.snap.AudioLanguage,
		count: len(m.snap.VisibleSentences),
		width: m.textWidth(),
	}
	if m.layout == nil || key != m.layoutKey {
		m.layout = layoutSentences(m.snap.VisibleSentences, key.width)
		m.layoutKey = key
	}

	pad := strings.Repeat(" ", transcriptMargin)
	content := m.layout.render(m.styleSentence)
	lines := strings.Split(content, "\n")
	for i := range lines {
		lines[i] = pad + lines[i]
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))
}

func (m transcriptModel) styleSentence(index int, text string) string {
	var style lipgloss.Style
	switch {
	case index == m.snap.HighlightedIndex:
		style = highlightStyle
	case m.isOtherLanguage(index):
		style = otherLangStyle
	default:
		style = lipgloss.NewStyle()
	}
	if index == m.cursor {
		style = style.Inherit(cursorStyle)
	}
	return style.Render(text)
}

// isOtherLanguage reports whether the sentence is in a language other than
// the audio track, which only happens in the bilingual view.
func (m transcriptModel) isOtherLanguage(index int) bool {
	if _, single := m.snap.DisplayMode.Language(); single {
		return false
	}
	s := m.snap.VisibleSentences[index]
	return s.Language != "" && s.Language != m.snap.AudioLanguage
}

// scrollTo makes sure the sentence's first line is on screen.
func (m *transcriptModel) scrollTo(index int) {
	if m.layout == nil {
		return
	}
	line, ok := m.layout.lineOf(index)
	if !ok {
		return
	}
	top := m.viewport.YOffset
	bottom := top + m.viewport.Height - 1
	switch {
	case line < top+scrollMargin:
		m.viewport.SetYOffset(line - scrollMargin)
	case line > bottom-scrollMargin:
		m.viewport.SetYOffset(line - m.viewport.Height + 1 + scrollMargin)
	}
}

// moveCursor steps the cursor by delta, skipping line breaks.
func (m *transcriptModel) moveCursor(delta int) {
	sentences := m.snap.VisibleSentences
	if len(sentences) == 0 {
		return
	}
	i := m.cursor
	if i == transcript.NoSentence {
		i = m.snap.HighlightedIndex
		if i == transcript.NoSentence {
			i = m.firstVisibleSentence()
		}
		if i != transcript.NoSentence && !sentences[i].IsLineBreak() {
			m.cursor = i
			m.scrollTo(i)
			return
		}
	}
	if next, ok := stepSentence(sentences, i, delta); ok {
		m.cursor = next
		m.scrollTo(next)
	}
}

// stepSentence returns the next non-line-break sentence from i in the
// direction of delta.
func stepSentence(sentences []transcript.Sentence, i, delta int) (int, bool) {
	if delta == 0 {
		return i, false
	}
	for j := i + delta; j >= 0 && j < len(sentences); j += delta {
		if !sentences[j].IsLineBreak() {
			return j, true
		}
	}
	return i, false
}

func (m transcriptModel) firstVisibleSentence() int {
	if m.layout == nil {
		return transcript.NoSentence
	}
	for row := m.viewport.YOffset; row < len(m.layout.lines); row++ {
		for _, seg := range m.layout.lines[row] {
			if seg.index != plainSegment {
				return seg.index
			}
		}
	}
	return transcript.NoSentence
}

func (m *transcriptModel) showStatusMessage(msg transcriptStatusMessage) tea.Cmd {
	m.statusMessage = msg
	if m.statusMessageTimer != nil {
		m.statusMessageTimer.Stop()
	}
	m.statusMessageTimer = time.NewTimer(statusMessageTimeout)
	timer := m.statusMessageTimer
	return func() tea.Msg {
		<-timer.C
		return transcriptStatusMessageTimeoutMsg{}
	}
}

func (m *transcriptModel) toggleHelp() {
	m.showHelp = !m.showHelp
	m.setSize(m.common.width, m.common.height)
	if m.viewport.PastBottom() {
		m.viewport.GotoBottom()
	}
}

func (m *transcriptModel) seek(index int) tea.Cmd {
	if index < 0 || index >= len(m.snap.VisibleSentences) {
		return nil
	}
	m.cursor = index
	m.render()
	return transcript.SeekCmd(m.common.ctrl, index)
}

// update returns back when the user leaves the transcript and quit when
// they quit the program.
func (m transcriptModel) update(msg tea.Msg) (transcriptModel, bool, bool, tea.Cmd) {
	var cmds []tea.Cmd
	ctrl := m.common.ctrl

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.snap.State != transcript.StateReady {
			switch msg.String() {
			case "q":
				return m, false, true, nil
			case "esc", "h", "backspace":
				return m, true, false, nil
			}
			return m, false, false, nil
		}

		switch msg.String() {
		case "q":
			return m, false, true, nil
		case "esc", "h", "backspace":
			if m.showHelp {
				m.toggleHelp()
				return m, false, false, nil
			}
			return m, true, false, nil
		case " ", "p":
			if m.common.player != nil {
				if err := m.common.player.Toggle(); err != nil {
					cmds = append(cmds, m.showStatusMessage(transcriptStatusMessage{message: err.Error(), isError: true}))
				}
			}
		case "enter":
			index := m.cursor
			if index == transcript.NoSentence {
				index = m.firstVisibleSentence()
			}
			cmds = append(cmds, m.seek(index))
		case "left", "[":
			cmds = append(cmds, m.seekRelative(-1))
		case "right", "]":
			cmds = append(cmds, m.seekRelative(1))
		case "j", "down":
			m.moveCursor(1)
			m.render()
		case "k", "up":
			m.moveCursor(-1)
			m.render()
		case "d":
			next := transcript.NextDisplayMode(m.snap.DisplayMode, m.snap.AvailableLanguages)
			if err := ctrl.SetDisplayLanguage(next); err != nil {
				log.Debug("changing display language failed", "error", err)
			}
			cmds = append(cmds, m.showStatusMessage(transcriptStatusMessage{message: "Showing " + next.Label()}))
		case "a":
			if len(m.snap.AvailableLanguages) > 1 {
				next := transcript.NextLanguage(m.snap.AudioLanguage, m.snap.AvailableLanguages)
				cmds = append(cmds,
					transcript.SetAudioLanguageCmd(ctrl, next, m.common.cfg.RequestTimeout),
					m.showStatusMessage(transcriptStatusMessage{message: "Audio: " + next.DisplayName()}),
				)
			}
		case "c":
			text := m.plainText()
			termenv.Copy(text)
			if err := clipboard.WriteAll(text); err != nil {
				log.Debug("clipboard unavailable", "error", err)
			}
			cmds = append(cmds, m.showStatusMessage(transcriptStatusMessage{message: "Copied contents"}))
		case "?":
			m.toggleHelp()
		default:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			row := msg.Y - transcriptHeaderHeight + m.viewport.YOffset
			col := msg.X - transcriptMargin
			if m.layout != nil && msg.Y >= transcriptHeaderHeight {
				if index, ok := m.layout.sentenceAt(row, col); ok {
					cmds = append(cmds, m.seek(index))
				}
			}
			break
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)

	case transcript.SeekedMsg:
		if msg.Err != nil && !errors.Is(msg.Err, transcript.ErrLineBreakSeek) && !errors.Is(msg.Err, transcript.ErrNoAudio) {
			cmds = append(cmds, m.showStatusMessage(transcriptStatusMessage{message: transcript.UserMessage(msg.Err), isError: true}))
		}

	case transcript.AudioLanguageChangedMsg:
		var terr *transcript.TranscriptError
		if msg.Err != nil && !(errors.As(msg.Err, &terr) && terr.Severity == transcript.SeverityInfo) {
			cmds = append(cmds, m.showStatusMessage(transcriptStatusMessage{message: transcript.UserMessage(msg.Err), isError: true}))
		}

	case transcriptStatusMessageTimeoutMsg:
		m.statusMessage = transcriptStatusMessage{}
	}

	return m, false, false, tea.Batch(cmds...)
}

// seekRelative seeks to the sentence before or after the highlighted one.
func (m *transcriptModel) seekRelative(delta int) tea.Cmd {
	sentences := m.snap.VisibleSentences
	from := m.snap.HighlightedIndex
	if from == transcript.NoSentence {
		// between sentences: find the neighbour by time
		from = precedingSentence(sentences, m.snap.CurrentTime)
		if delta < 0 && from != transcript.NoSentence {
			return m.seek(from)
		}
	}
	next, ok := stepSentence(sentences, from, delta)
	if !ok {
		return nil
	}
	return m.seek(next)
}

// precedingSentence returns the last sentence that ends before t.
func precedingSentence(sentences []transcript.Sentence, t float64) int {
	found := transcript.NoSentence
	for i, s := range sentences {
		if s.IsLineBreak() {
			continue
		}
		if s.EndTime <= t {
			found = i
		}
	}
	return found
}

func (m transcriptModel) plainText() string {
	if m.layout == nil {
		return ""
	}
	return m.layout.plain()
}

func (m transcriptModel) View() string {
	if m.snap.State != transcript.StateReady || m.snap.Selected == nil {
		if m.snap.Error != "" && !m.snap.Loading {
			return errorView(m.snap.Error)
		}
		return fmt.Sprintf("\n  %s %s", m.spinner.View(), subtleStyle.Render("Loading article…"))
	}

	var b strings.Builder
	b.WriteString(m.headerView() + "\n")
	b.WriteString(m.viewport.View() + "\n")
	b.WriteString(m.statusBarView())
	if m.showHelp {
		b.WriteString("\n" + m.helpView())
	}
	return b.String()
}

func (m transcriptModel) headerView() string {
	a := m.snap.Selected
	width := max(m.common.width-transcriptMargin*2, 10)
	title := truncate.StringWithTail(a.Title, uint(width), ellipsis) //nolint:gosec
	if strings.TrimSpace(a.Title) == "" {
		title = a.ID
	}
	badges := languageBadges(m.snap.AvailableLanguages, m.snap.AudioLanguage)
	return fmt.Sprintf("\n  %s  %s", titleStyle.Render(title), badges)
}

func (m transcriptModel) statusBarView() string {
	const minPercent float64 = 0.0
	const maxPercent float64 = 1.0
	percent := math.Max(minPercent, math.Min(maxPercent, m.viewport.ScrollPercent()))

	icon := "⏸"
	if m.common.player != nil && m.common.player.IsPlaying() {
		icon = "▶"
	}
	playback := statusBarNoteStyle.Render(fmt.Sprintf(" %s %s ", icon, m.timeView()))

	mode := statusBarPosStyle.Render(fmt.Sprintf(" %s · %s ",
		m.snap.DisplayMode.Label(), m.snap.AudioLanguage.DisplayName()))

	scrollPercent := statusBarPosStyle.Render(fmt.Sprintf(" %3.f%% ", percent*100.0))

	helpNote := statusBarHelpStyle.Render(" ? Help ")
	if m.showHelp {
		helpNote = statusBarHelpStyle.Render(" ? Close Help ")
	}

	var note string
	noteStyle := statusBarNoteStyle
	switch {
	case m.statusMessage.message != "":
		note = m.statusMessage.message
		noteStyle = statusBarMessageStyle
		if m.statusMessage.isError {
			noteStyle = statusBarErrorStyle
		}
	case m.snap.Error != "":
		note = m.snap.Error
		noteStyle = statusBarErrorStyle
	default:
		if s, ok := m.snap.Highlighted(); ok {
			note = fmt.Sprintf("%d/%d", m.snap.HighlightedIndex+1, len(m.snap.VisibleSentences))
			if m.common.cfg.ShowTimestamps {
				note += fmt.Sprintf("  %.2fs-%.2fs", s.StartTime, s.EndTime)
			}
		}
	}

	used := ansi.PrintableRuneWidth(playback) + ansi.PrintableRuneWidth(mode) +
		ansi.PrintableRuneWidth(scrollPercent) + ansi.PrintableRuneWidth(helpNote)
	noteWidth := max(0, m.common.width-used)
	note = truncate.StringWithTail(" "+note+" ", uint(noteWidth), ellipsis) //nolint:gosec
	padding := max(0, noteWidth-ansi.PrintableRuneWidth(note))
	note = noteStyle.Render(note + strings.Repeat(" ", padding))

	return playback + note + mode + scrollPercent + helpNote
}

// timeView renders "01:02 / 03:04", or just the position when the track
// length is unknown.
func (m transcriptModel) timeView() string {
	pos := formatTime(transcript.Seconds(m.snap.CurrentTime))
	if m.common.player == nil {
		return pos
	}
	if d := m.common.player.Duration(); d > 0 {
		return pos + " / " + formatTime(d)
	}
	return pos
}

func formatTime(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	mnt := d / time.Minute
	d -= mnt * time.Minute
	s := d / time.Second
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, mnt, s)
	}
	return fmt.Sprintf("%02d:%02d", mnt, s)
}

func (m transcriptModel) helpView() (s string) {
	col1 := []string{
		"space  play/pause",
		"enter  play from cursor",
		"←/→    previous/next sentence",
		"j/k    move cursor",
		"click  play from sentence",
	}
	col2 := []string{
		"d      cycle display language",
		"a      cycle audio language",
		"c      copy transcript",
		"esc    back to articles",
		"q      quit",
	}

	s += "\n"
	for i := 0; i < len(col1); i++ {
		s += "  " + col1[i] + strings.Repeat(" ", max(0, 34-ansi.PrintableRuneWidth(col1[i]))) + col2[i] + "\n"
	}

	// Fill the rest of the line so the background spans the full width.
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		if w := ansi.PrintableRuneWidth(line); w < m.common.width {
			lines[i] = line + strings.Repeat(" ", m.common.width-w)
		}
	}
	return helpViewStyle.Render(strings.Join(lines, "\n"))
}
