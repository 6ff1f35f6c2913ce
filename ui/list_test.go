package ui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/leonezhu/readalong/transcript"
)

var testArticles = []transcript.Summary{
	{ID: "20240302_120000", Title: "Morning news", CreatedAt: time.Now().Add(-time.Hour), Languages: []transcript.LanguageTag{"en", "zh"}},
	{ID: "20240301_090000", Title: "Cooking with rice", Languages: []transcript.LanguageTag{"en"}},
	{ID: "20240228_180000", Title: "天气预报", Languages: []transcript.LanguageTag{"zh"}},
}

func TestFilterArticles(t *testing.T) {
	tests := []struct {
		term string
		want []string
	}{
		{"", []string{"20240302_120000", "20240301_090000", "20240228_180000"}},
		{"  ", []string{"20240302_120000", "20240301_090000", "20240228_180000"}},
		{"rice", []string{"20240301_090000"}},
		{"天气", []string{"20240228_180000"}},
		{"zzzz", nil},
	}

	for _, tc := range tests {
		t.Run(tc.term, func(t *testing.T) {
			got := filterArticles(testArticles, tc.term)
			if len(got) != len(tc.want) {
				t.Fatalf("got %d articles, want %d", len(got), len(tc.want))
			}
			for i, id := range tc.want {
				if got[i].ID != id {
					t.Errorf("article %d = %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}
}

func newTestList() listModel {
	m := newListModel(&commonModel{width: 80, height: 40})
	m.setSnapshot(transcript.Snapshot{Articles: testArticles})
	return m
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestListNavigation(t *testing.T) {
	m := newTestList()

	var action listAction
	for _, k := range []string{"j", "j", "j", "k"} {
		m, action, _ = m.update(key(k))
		if action.kind != actionNone {
			t.Fatalf("unexpected action %v", action.kind)
		}
	}
	if m.cursor != 1 {
		t.Fatalf("cursor = %d, want 1", m.cursor)
	}

	_, action, _ = m.update(key("enter"))
	if action.kind != actionOpen || action.id != "20240301_090000" {
		t.Errorf("action = %+v, want open 20240301_090000", action)
	}
}

func TestListActions(t *testing.T) {
	tests := []struct {
		key  string
		want listActionKind
	}{
		{"q", actionQuit},
		{"n", actionNew},
		{"r", actionReload},
		{"x", actionNone},
	}
	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			_, action, _ := newTestList().update(key(tc.key))
			if action.kind != tc.want {
				t.Errorf("action = %v, want %v", action.kind, tc.want)
			}
		})
	}
}

func TestListFiltering(t *testing.T) {
	m := newTestList()
	m, _, _ = m.update(key("/"))
	if !m.filtering {
		t.Fatal("expected filtering mode")
	}

	// r would reload outside of filtering
	for _, k := range []string{"r", "i", "c", "e"} {
		m, _, _ = m.update(key(k))
	}
	if len(m.articles) != 1 || m.articles[0].ID != "20240301_090000" {
		t.Fatalf("filtered = %+v", m.articles)
	}

	m, _, _ = m.update(key("enter"))
	if m.filtering {
		t.Fatal("enter should leave filtering mode")
	}
	_, action, _ := m.update(key("enter"))
	if action.kind != actionOpen || action.id != "20240301_090000" {
		t.Errorf("action = %+v", action)
	}

	m, _, _ = m.update(key("esc"))
	if len(m.articles) != len(testArticles) {
		t.Errorf("esc should clear the filter, got %d articles", len(m.articles))
	}
}

func TestListCursorClampedOnShrink(t *testing.T) {
	m := newTestList()
	m.cursor = 2
	m.setSnapshot(transcript.Snapshot{Articles: testArticles[:1]})
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.cursor)
	}
}
