package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/leonezhu/readalong/transcript"
	"github.com/leonezhu/readalong/ui"
	"github.com/leonezhu/readalong/utils"
	"github.com/spf13/cobra"
)

var (
	showDisplay    string
	showAudio      string
	showTimestamps bool
	showRaw        bool
)

var showCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Print an article's transcript",
	Long: paragraph(fmt.Sprintf("\n%s an article's transcript as rendered markdown. Use --display to pick a language and --timestamps to see when each sentence is spoken.",
		keyword("Print"))),
	Example: paragraph("readalong show 20240301_120000\nreadalong show 20240301_120000 --display zh --timestamps"),
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := transcript.ParseDisplayMode(showDisplay)
		if err != nil {
			return err //nolint:wrapcheck
		}

		dir, _, caches, err := openDirectory()
		if err != nil {
			return err
		}
		defer caches.Close() //nolint:errcheck

		ctrl := transcript.NewController(dir, nil)
		ctx, cancel := requestContext(cmd.Context())
		defer cancel()

		if err := ctrl.SelectArticle(ctx, args[0]); err != nil {
			return fmt.Errorf("unable to open article: %s", transcript.UserMessage(err))
		}
		if showAudio != "" {
			lang, err := transcript.ParseLanguageTag(showAudio)
			if err != nil {
				return err //nolint:wrapcheck
			}
			if err := ctrl.SetAudioLanguage(ctx, lang); err != nil {
				return fmt.Errorf("unable to switch language: %s", transcript.UserMessage(err))
			}
		}
		if err := ctrl.SetDisplayLanguage(mode); err != nil {
			return fmt.Errorf("unable to switch display language: %w", err)
		}

		md := transcriptMarkdown(ctrl.Snapshot(), showTimestamps)
		if showRaw {
			_, err := fmt.Fprint(cmd.OutOrStdout(), md)
			return err //nolint:wrapcheck
		}

		r, err := glamour.NewTermRenderer(
			glamour.WithColorProfile(lipgloss.ColorProfile()),
			utils.GlamourStyle(style),
			glamour.WithWordWrap(int(width)), //nolint:gosec
			glamour.WithPreservedNewLines(),
		)
		if err != nil {
			return fmt.Errorf("unable to create renderer: %w", err)
		}
		out, err := r.Render(md)
		if err != nil {
			return fmt.Errorf("unable to render markdown: %w", err)
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), out)
		return err //nolint:wrapcheck
	},
}

func init() {
	showCmd.Flags().StringVarP(&showDisplay, "display", "d", "both", "language to show: both or a language tag")
	showCmd.Flags().StringVarP(&showAudio, "audio", "a", "", "language version to follow (default: the article's first)")
	showCmd.Flags().BoolVarP(&showTimestamps, "timestamps", "t", false, "prefix each sentence with its start time")
	showCmd.Flags().BoolVar(&showRaw, "raw", false, "print markdown without rendering")
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "#", `\#`, "[", `\[`, "]", `\]`, "<", `\<`,
)

// transcriptMarkdown renders the snapshot's visible sentences as a markdown
// document. Paragraphs follow the transcript's line breaks.
func transcriptMarkdown(snap transcript.Snapshot, timestamps bool) string {
	var b strings.Builder
	a := snap.Selected
	if a == nil {
		return ""
	}

	title := a.Title
	if strings.TrimSpace(title) == "" {
		title = a.ID
	}
	fmt.Fprintf(&b, "# %s\n\n", markdownEscaper.Replace(title))

	var meta []string
	if !a.CreatedAt.IsZero() {
		meta = append(meta, a.CreatedAt.Format("2006-01-02 15:04"))
	}
	names := make([]string, len(snap.AvailableLanguages))
	for i, l := range snap.AvailableLanguages {
		names[i] = l.DisplayName()
	}
	meta = append(meta, strings.Join(names, ", "))
	meta = append(meta, "showing "+snap.DisplayMode.Label())
	fmt.Fprintf(&b, "*%s*\n\n", strings.Join(meta, " · "))

	if timestamps {
		for _, s := range snap.VisibleSentences {
			if s.IsLineBreak() {
				b.WriteString("\n")
				continue
			}
			fmt.Fprintf(&b, "- `%s` %s\n", formatClock(s.StartTime), markdownEscaper.Replace(s.Text))
		}
		return b.String()
	}

	text := ui.TranscriptText(snap.VisibleSentences)
	for _, para := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(para) == "" {
			continue
		}
		b.WriteString(markdownEscaper.Replace(para) + "\n\n")
	}
	return b.String()
}

func formatClock(seconds float64) string {
	d := transcript.Seconds(seconds)
	m := int(d.Minutes())
	s := d.Seconds() - float64(m*60)
	return fmt.Sprintf("%02d:%04.1f", m, s)
}
