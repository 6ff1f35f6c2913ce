package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/leonezhu/readalong/transcript"
	"github.com/muesli/reflow/truncate"
	"github.com/sahilm/fuzzy"
)

const (
	listItemHeight = 3
	listChrome     = 6 // logo, filter and footer lines
	ellipsis       = "…"

	statusMessageTimeout = time.Second * 3 // how long to show status messages
)

type listActionKind int

const (
	actionNone listActionKind = iota
	actionOpen
	actionNew
	actionReload
	actionQuit
)

type listAction struct {
	kind listActionKind
	id   string
}

type listStatusMessageTimeoutMsg struct{}

type listModel struct {
	common *commonModel

	snap     transcript.Snapshot
	articles []transcript.Summary // after filtering
	cursor   int
	offset   int

	filterInput textinput.Model
	filtering   bool

	spinner spinner.Model

	statusMessage      string
	statusMessageTimer *time.Timer
}

func newListModel(common *commonModel) listModel {
	sp := spinner.New()
	sp.Spinner = spinner.Line
	sp.Style = lipgloss.NewStyle().Foreground(fuchsia)

	ti := textinput.New()
	ti.Prompt = "Find: "
	ti.PromptStyle = selectedStyle
	ti.Cursor.Style = selectedStyle
	ti.CharLimit = 256

	return listModel{
		common:      common,
		spinner:     sp,
		filterInput: ti,
	}
}

func (m *listModel) setSize(w, h int) {
	m.filterInput.Width = w - 10
	m.clampOffset()
}

func (m *listModel) setSnapshot(s transcript.Snapshot) {
	m.snap = s
	m.applyFilter()
}

func (m listModel) perPage() int {
	n := (m.common.height - listChrome) / listItemHeight
	if n < 1 {
		n = 1
	}
	return n
}

// applyFilter recomputes the visible rows from the snapshot and the
// current filter term.
func (m *listModel) applyFilter() {
	m.articles = filterArticles(m.snap.Articles, m.filterInput.Value())
	if m.cursor >= len(m.articles) {
		m.cursor = len(m.articles) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.clampOffset()
}

func (m *listModel) clampOffset() {
	per := m.perPage()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+per {
		m.offset = m.cursor - per + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m *listModel) selectFirst() {
	m.cursor = 0
	m.offset = 0
}

func (m listModel) selected() (transcript.Summary, bool) {
	if m.cursor < 0 || m.cursor >= len(m.articles) {
		return transcript.Summary{}, false
	}
	return m.articles[m.cursor], true
}

// summarySource adapts summaries to fuzzy.Source.
type summarySource []transcript.Summary

func (s summarySource) String(i int) string {
	a := s[i]
	langs := make([]string, len(a.Languages))
	for j, l := range a.Languages {
		langs[j] = string(l)
	}
	return a.DisplayTitle() + " " + a.ID + " " + strings.Join(langs, " ")
}

func (s summarySource) Len() int { return len(s) }

// filterArticles returns the articles matching term, best match first. An
// empty term returns all articles in their original order.
func filterArticles(articles []transcript.Summary, term string) []transcript.Summary {
	term = strings.TrimSpace(term)
	if term == "" {
		return articles
	}
	matches := fuzzy.FindFrom(term, summarySource(articles))
	out := make([]transcript.Summary, 0, len(matches))
	for _, match := range matches {
		out = append(out, articles[match.Index])
	}
	return out
}

func (m *listModel) showStatusMessage(msg string) tea.Cmd {
	m.statusMessage = msg
	if m.statusMessageTimer != nil {
		m.statusMessageTimer.Stop()
	}
	m.statusMessageTimer = time.NewTimer(statusMessageTimeout)
	timer := m.statusMessageTimer
	return func() tea.Msg {
		<-timer.C
		return listStatusMessageTimeoutMsg{}
	}
}

func (m listModel) update(msg tea.Msg) (listModel, listAction, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case listStatusMessageTimeoutMsg:
		m.statusMessage = ""

	case tea.KeyMsg:
		if m.filtering {
			switch msg.String() {
			case "esc":
				m.filtering = false
				m.filterInput.Reset()
				m.filterInput.Blur()
				m.applyFilter()
				return m, listAction{}, nil
			case "enter":
				m.filtering = false
				m.filterInput.Blur()
				return m, listAction{}, nil
			case "up", "down", "ctrl+k", "ctrl+j":
			default:
				m.filterInput, cmd = m.filterInput.Update(msg)
				m.cursor = 0
				m.applyFilter()
				return m, listAction{}, cmd
			}
		}

		switch msg.String() {
		case "q":
			return m, listAction{kind: actionQuit}, nil
		case "esc":
			if m.filterInput.Value() != "" {
				m.filterInput.Reset()
				m.applyFilter()
			}
		case "k", "ctrl+k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
			m.clampOffset()
		case "j", "ctrl+j", "down":
			if m.cursor < len(m.articles)-1 {
				m.cursor++
			}
			m.clampOffset()
		case "g", "home":
			m.cursor = 0
			m.clampOffset()
		case "G", "end":
			m.cursor = max(len(m.articles)-1, 0)
			m.clampOffset()
		case "/":
			m.filtering = true
			return m, listAction{}, m.filterInput.Focus()
		case "n":
			return m, listAction{kind: actionNew}, nil
		case "r":
			return m, listAction{kind: actionReload}, m.showStatusMessage("Reloading…")
		case "enter", "l":
			if a, ok := m.selected(); ok {
				return m, listAction{kind: actionOpen, id: a.ID}, nil
			}
		}
	}
	return m, listAction{}, nil
}

func (m listModel) View() string {
	var b strings.Builder

	fmt.Fprintf(&b, "\n  %s", logoView())
	if m.snap.Loading {
		fmt.Fprintf(&b, "  %s %s", m.spinner.View(), subtleStyle.Render("Loading articles…"))
	}
	b.WriteString("\n\n")

	if m.filtering || m.filterInput.Value() != "" {
		fmt.Fprintf(&b, "  %s\n\n", m.filterInput.View())
	}

	switch {
	case len(m.snap.Articles) == 0 && !m.snap.Loading:
		b.WriteString("  " + subtleStyle.Render("No articles yet. Press n to create one.") + "\n")
	case len(m.articles) == 0 && len(m.snap.Articles) > 0:
		b.WriteString("  " + subtleStyle.Render("Nothing matched.") + "\n")
	default:
		end := min(m.offset+m.perPage(), len(m.articles))
		for i := m.offset; i < end; i++ {
			b.WriteString(m.itemView(m.articles[i], i == m.cursor))
		}
	}

	b.WriteString("\n" + m.footerView())
	return b.String()
}

func (m listModel) itemView(a transcript.Summary, selected bool) string {
	width := max(m.common.width-6, 10)
	title := truncate.StringWithTail(a.DisplayTitle(), uint(width), ellipsis) //nolint:gosec

	var meta []string
	if a.CreatedAt.IsZero() {
		meta = append(meta, "unknown date")
	} else {
		meta = append(meta, humanize.Time(a.CreatedAt))
	}
	meta = append(meta, languageBadges(a.Languages, ""))
	desc := truncate.StringWithTail(strings.Join(meta, " "), uint(width), ellipsis) //nolint:gosec

	gutter := "  "
	if selected {
		gutter = selectedStyle.Render("│ ")
		title = selectedStyle.Render(title)
	} else {
		title = titleStyle.Render(title)
	}
	return fmt.Sprintf("%s%s\n%s%s\n\n", gutter, title, gutter, dimStyle.Render(desc))
}

// languageBadges renders the tags as upper-case badges, marking active.
func languageBadges(tags []transcript.LanguageTag, active transcript.LanguageTag) string {
	badges := make([]string, 0, len(tags))
	for _, t := range tags {
		label := strings.ToUpper(string(t))
		if t == active {
			badges = append(badges, activeBadgeStyle.Render(label))
			continue
		}
		badges = append(badges, badgeStyle.Render(label))
	}
	return strings.Join(badges, " ")
}

func (m listModel) footerView() string {
	var line string
	switch {
	case m.snap.Error != "":
		line = errorStyle.Render(m.snap.Error)
	case m.statusMessage != "":
		line = statusBarMessageStyle.Render(" " + m.statusMessage + " ")
	case m.snap.Submitting:
		line = m.spinner.View() + " " + subtleStyle.Render("Generating audio…")
	default:
		line = subtleStyle.Render("enter open • / find • n new • r reload • q quit")
	}
	if len(m.articles) > m.perPage() {
		line += subtleStyle.Render(fmt.Sprintf("  %d/%d", m.cursor+1, len(m.articles)))
	}
	return "  " + line
}
