package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/leonezhu/readalong/internal/directory"
	"github.com/leonezhu/readalong/internal/server"
	"github.com/leonezhu/readalong/utils"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve [DIR]",
	Short: "Serve a backend directory over HTTP",
	Long: paragraph(fmt.Sprintf("\n%s the articles and audio in a backend directory with the same API the http source reads, so other machines can follow along. Synthesis is not available.",
		keyword("Serve"))),
	Example: paragraph("readalong serve ./backend\nreadalong serve --addr :8080"),
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := directoryConfig().Path
		if len(args) == 1 {
			root = utils.ExpandPath(args[0])
		}
		dir, err := directory.NewLocalDirectory(root)
		if err != nil {
			return fmt.Errorf("unable to open backend directory: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// the server logs requests; send them to stderr unless a log
		// file was configured
		if os.Getenv("READALONG_LOG") == "" {
			log.SetOutput(os.Stderr)
			log.SetLevel(log.InfoLevel)
		}

		if err := server.New(dir).ListenAndServe(ctx, serveAddr); err != nil {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":5000", "address to listen on")
}
