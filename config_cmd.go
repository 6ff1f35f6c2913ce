package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const defaultConfig = `# article source: http, github or local
source: "http"
# backend URL (http source)
url: "http://localhost:5000"
# audio URL prefix, defaults to {url}/api/audio (http source)
# audio_url: ""
# backend directory containing articles/ and audio_files/ (local source)
path: "."

# GitHub repository holding backend/articles and backend/audio_files
github:
  repo: ""
  branch: "main"
  # token: ""

# style name or JSON path (default "auto")
style: "auto"
# mouse support
mouse: false
# word-wrap at width, 0 to detect
width: 0
# play nothing and follow the transcript on a clock
no_audio: false

# languages requested for new articles
languages: ["en", "zh"]

# request timeout for the article source
timeout: "30s"
# minimum spacing between requests, 0 for none
rate_limit: "0s"
# how often the playback position is sampled
poll_interval: "100ms"

# article and audio cache
cache:
  # dir: "~/.cache/readalong/cache"
  memory_mb: 32
  disk_mb: 512
  ttl: "168h"
`

var printConfig bool

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the readalong config file",
	Long:    paragraph(fmt.Sprintf("\n%s the readalong config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("readalong config\nreadalong config --config path/to/config.yml\nreadalong config --print"),
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if printConfig {
			return writeSettings(cmd.OutOrStdout())
		}

		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("Readalong", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func init() {
	configCmd.Flags().BoolVar(&printConfig, "print", false, "print the effective configuration as YAML")
}

// writeSettings dumps the merged configuration: defaults, file, env and
// flags. The GitHub token is masked.
func writeSettings(w io.Writer) error {
	settings := viper.AllSettings()
	if gh, ok := settings["github"].(map[string]any); ok {
		if tok, ok := gh["token"].(string); ok && tok != "" {
			gh["token"] = "********"
		}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(settings); err != nil {
		return fmt.Errorf("unable to encode config: %w", err)
	}
	return enc.Close() //nolint:wrapcheck
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
