package utils

import (
	"path/filepath"
	"testing"

	"github.com/mitchellh/go-homedir"
)

func TestStripMarkdown(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain",
			in:   "Hello world.",
			want: "Hello world.",
		},
		{
			name: "heading and emphasis",
			in:   "# Title\n\nSome *bold* text\nnext line.\n",
			want: "Title\n\nSome bold text next line.",
		},
		{
			name: "list",
			in:   "Intro.\n\n- a\n- b\n\nOutro.\n",
			want: "Intro.\n\na\nb\n\nOutro.",
		},
		{
			name: "code blocks are dropped",
			in:   "Before.\n\n```go\nfmt.Println()\n```\n\nAfter.\n",
			want: "Before.\n\nAfter.",
		},
		{
			name: "links keep their text",
			in:   "Read [the docs](https://example.com) now.",
			want: "Read the docs now.",
		},
		{
			name: "inline code keeps its text",
			in:   "Run `make` first.",
			want: "Run make first.",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := StripMarkdown([]byte(tc.in)); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := homedir.Dir()
	if err != nil {
		t.Skip("no home directory")
	}
	t.Setenv("READALONG_TEST_DIR", "articles")

	tests := []struct {
		in   string
		want string
	}{
		{"~/x", filepath.Join(home, "x")},
		{"/tmp/$READALONG_TEST_DIR", "/tmp/articles"},
		{"relative", "relative"},
	}
	for _, tc := range tests {
		if got := ExpandPath(tc.in); got != tc.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
