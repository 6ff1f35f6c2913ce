package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/leonezhu/readalong/transcript"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List articles",
	Long:    paragraph(fmt.Sprintf("\n%s the articles available from the configured source, newest first.", keyword("List"))),
	Example: paragraph("readalong list\nreadalong list --source github --repo owner/name\nreadalong list --json"),
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		dir, _, caches, err := openDirectory()
		if err != nil {
			return err
		}
		defer caches.Close() //nolint:errcheck

		ctx, cancel := requestContext(cmd.Context())
		defer cancel()
		articles, err := dir.ListArticles(ctx)
		if err != nil {
			return fmt.Errorf("unable to list articles: %s", transcript.UserMessage(err))
		}

		if listJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(articles) //nolint:wrapcheck
		}
		return writeArticleTable(cmd.OutOrStdout(), articles, int(width)) //nolint:gosec
	},
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print the list as JSON")
}

// requestContext applies the configured request timeout.
func requestContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	if timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}

// writeArticleTable prints one article per line: id, age, languages and
// the title cut to fit width.
func writeArticleTable(w io.Writer, articles []transcript.Summary, width int) error {
	if len(articles) == 0 {
		_, err := fmt.Fprintln(w, subtle("No articles."))
		return err //nolint:wrapcheck
	}

	idWidth := 0
	for _, a := range articles {
		idWidth = max(idWidth, runewidth.StringWidth(a.ID))
	}
	const ageWidth, langWidth = 16, 8

	for _, a := range articles {
		age := "-"
		if !a.CreatedAt.IsZero() {
			age = humanize.Time(a.CreatedAt)
		}
		langs := make([]string, len(a.Languages))
		for i, l := range a.Languages {
			langs[i] = string(l)
		}

		titleWidth := max(width-idWidth-ageWidth-langWidth-3, 10)
		line := strings.Join([]string{
			keyword(runewidth.FillRight(a.ID, idWidth)),
			runewidth.FillRight(runewidth.Truncate(age, ageWidth, ""), ageWidth),
			runewidth.FillRight(runewidth.Truncate(strings.Join(langs, ","), langWidth, ""), langWidth),
			runewidth.Truncate(a.DisplayTitle(), titleWidth, "…"),
		}, " ")
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err //nolint:wrapcheck
		}
	}
	return nil
}
