package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/leonezhu/readalong/transcript"
	"github.com/leonezhu/readalong/utils"
	"github.com/spf13/cobra"
)

var (
	submitFile      string
	submitMarkdown  bool
	submitLanguages []string
)

var submitCmd = &cobra.Command{
	Use:   "submit [TEXT|-]",
	Short: "Generate a new article from text",
	Long: paragraph(fmt.Sprintf("\n%s text to the backend for speech synthesis. Text is read from the argument, a file, or stdin. Markdown input can be reduced to its readable text with --markdown.",
		keyword("Send"))),
	Example: paragraph("readalong submit \"Hello there.\"\nreadalong submit --file notes.md --markdown --language en --language zh\ncat story.txt | readalong submit -"),
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readSubmitText(args)
		if err != nil {
			return err
		}
		if submitMarkdown {
			text = utils.StripMarkdown([]byte(text))
		}

		raw := submitLanguages
		if len(raw) == 0 {
			raw = languages
		}
		langs := make([]transcript.LanguageTag, 0, len(raw))
		for _, l := range raw {
			tag, err := transcript.ParseLanguageTag(l)
			if err != nil {
				return err //nolint:wrapcheck
			}
			langs = append(langs, tag)
		}

		dir, _, caches, err := openDirectory()
		if err != nil {
			return err
		}
		defer caches.Close() //nolint:errcheck

		ctrl := transcript.NewController(dir, nil)
		ctx, cancel := requestContext(cmd.Context())
		defer cancel()

		article, err := ctrl.SubmitNewText(ctx, text, langs)
		if err != nil {
			return errors.New(transcript.UserMessage(err))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s\n", keyword(article.ID), subtle(article.Summary().DisplayTitle()))
		return nil
	},
}

func init() {
	submitCmd.Flags().StringVarP(&submitFile, "file", "f", "", "read text from a file")
	submitCmd.Flags().BoolVar(&submitMarkdown, "markdown", false, "treat the input as markdown and submit only its text")
	submitCmd.Flags().StringSliceVarP(&submitLanguages, "language", "l", nil, "language to generate, may be repeated (default from config)")
}

func readSubmitText(args []string) (string, error) {
	switch {
	case submitFile != "":
		b, err := os.ReadFile(utils.ExpandPath(submitFile))
		if err != nil {
			return "", fmt.Errorf("unable to read file: %w", err)
		}
		return string(b), nil
	case len(args) == 1 && args[0] != "-":
		return args[0], nil
	}

	if len(args) == 0 {
		pipe, err := stdinIsPipe()
		if err != nil {
			return "", err
		}
		if !pipe {
			return "", errors.New("no text given: pass it as an argument, with --file, or on stdin")
		}
	}
	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("unable to read from stdin: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

func stdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to open file: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}
