package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/leonezhu/readalong/transcript"
)

type submitFocus int

const (
	focusText submitFocus = iota
	focusLanguages
)

type submitModel struct {
	common *commonModel

	text      textarea.Model
	languages textinput.Model
	spinner   spinner.Model
	focused   submitFocus

	snap     transcript.Snapshot
	inputErr string
}

func newSubmitModel(common *commonModel) submitModel {
	ta := textarea.New()
	ta.Placeholder = "Paste or type the text to convert…"
	ta.ShowLineNumbers = false
	ta.CharLimit = 0

	ti := textinput.New()
	ti.Prompt = "Languages: "
	ti.Placeholder = "en,zh"
	ti.SetValue(joinLanguages(common.cfg.SubmitLanguages))

	sp := spinner.New()
	sp.Spinner = spinner.Line
	sp.Style = lipgloss.NewStyle().Foreground(fuchsia)

	return submitModel{
		common:    common,
		text:      ta,
		languages: ti,
		spinner:   sp,
	}
}

func joinLanguages(tags []string) string {
	return strings.Join(tags, ",")
}

// parseLanguages splits a comma or space separated list of tags. Duplicates
// are dropped and order is kept.
func parseLanguages(s string) ([]transcript.LanguageTag, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == ';'
	})
	seen := make(map[transcript.LanguageTag]bool, len(fields))
	tags := make([]transcript.LanguageTag, 0, len(fields))
	for _, f := range fields {
		tag, err := transcript.ParseLanguageTag(f)
		if err != nil {
			return nil, fmt.Errorf("unknown language %q", f)
		}
		if seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags, nil
}

func (m *submitModel) setSize(w, h int) {
	m.text.SetWidth(max(w-4, 10))
	m.text.SetHeight(max(h-10, 3))
	m.languages.Width = max(w-16, 10)
}

func (m *submitModel) setSnapshot(s transcript.Snapshot) {
	m.snap = s
}

func (m *submitModel) focus() tea.Cmd {
	m.focused = focusText
	m.languages.Blur()
	return m.text.Focus()
}

func (m *submitModel) reset() {
	m.text.Reset()
	m.inputErr = ""
	m.focused = focusText
}

func (m *submitModel) toggleFocus() tea.Cmd {
	if m.focused == focusText {
		m.focused = focusLanguages
		m.text.Blur()
		return m.languages.Focus()
	}
	m.focused = focusText
	m.languages.Blur()
	return m.text.Focus()
}

// update reports cancel when the user leaves the form.
func (m submitModel) update(msg tea.Msg) (submitModel, bool, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "esc":
			m.text.Blur()
			m.languages.Blur()
			return m, true, nil
		case "tab", "shift+tab":
			return m, false, m.toggleFocus()
		case "ctrl+s":
			if m.snap.Submitting {
				return m, false, nil
			}
			langs, err := parseLanguages(m.languages.Value())
			if err != nil {
				m.inputErr = err.Error()
				return m, false, nil
			}
			m.inputErr = ""
			return m, false, transcript.SubmitTextCmd(m.common.ctrl, m.text.Value(), langs, m.common.cfg.RequestTimeout)
		}
	}

	if m.focused == focusText {
		m.text, cmd = m.text.Update(msg)
	} else {
		m.languages, cmd = m.languages.Update(msg)
	}
	return m, false, cmd
}

func (m submitModel) View() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n  %s  %s\n\n", logoView(), subtleStyle.Render("New article"))
	b.WriteString(indent(m.text.View(), 2))
	b.WriteString("\n  " + m.languages.View() + "\n\n")

	switch {
	case m.snap.Submitting:
		fmt.Fprintf(&b, "  %s %s", m.spinner.View(), subtleStyle.Render("Generating audio…"))
	case m.inputErr != "":
		b.WriteString("  " + errorStyle.Render(m.inputErr))
	case m.snap.Error != "":
		b.WriteString("  " + errorStyle.Render(m.snap.Error))
	default:
		b.WriteString("  " + subtleStyle.Render("ctrl+s submit • tab switch field • esc cancel"))
	}
	return b.String()
}
