// Package main provides the entry point for the readalong CLI application.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/log"
	"github.com/leonezhu/readalong/internal/audio"
	"github.com/leonezhu/readalong/internal/cache"
	"github.com/leonezhu/readalong/internal/directory"
	"github.com/leonezhu/readalong/transcript"
	"github.com/leonezhu/readalong/ui"
	"github.com/leonezhu/readalong/utils"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	style      string
	width      uint
	mouse      bool
	noAudio    bool
	timeout    time.Duration
	languages  []string

	rootCmd = &cobra.Command{
		Use:   "readalong",
		Short: "Read along with text-to-speech articles in your terminal",
		Long: paragraph(
			fmt.Sprintf("\nBrowse generated articles and %s while the audio plays.", keyword("follow the transcript")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: func(*cobra.Command, []string) error {
			return runTUI()
		},
	}
)

// validateStyle checks if the style is a default style, if not, checks that
// the custom style exists.
func validateStyle(style string) error {
	if style != "auto" && styles.DefaultStyles[style] == nil {
		style = utils.ExpandPath(style)
		if _, err := os.Stat(style); errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("specified style does not exist: %s", style)
		} else if err != nil {
			return fmt.Errorf("unable to stat file: %w", err)
		}
	}
	return nil
}

func validateOptions(cmd *cobra.Command) error {
	// grab config values from Viper
	width = viper.GetUint("width")
	mouse = viper.GetBool("mouse")
	noAudio = viper.GetBool("no_audio")
	timeout = viper.GetDuration("timeout")
	languages = viper.GetStringSlice("languages")

	switch src := viper.GetString("source"); src {
	case directory.SourceHTTP, directory.SourceGitHub, directory.SourceLocal:
	default:
		return fmt.Errorf("unknown source %q: use %s, %s or %s",
			src, directory.SourceHTTP, directory.SourceGitHub, directory.SourceLocal)
	}

	for _, l := range languages {
		if _, err := transcript.ParseLanguageTag(l); err != nil {
			return fmt.Errorf("invalid language in config: %w", err)
		}
	}

	if timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", timeout)
	}

	// validate the glamour style
	style = viper.GetString("style")
	if err := validateStyle(style); err != nil {
		return err
	}

	isTerminal := term.IsTerminal(int(os.Stdout.Fd()))
	// We want to use a special no-TTY style, when stdout is not a terminal
	// and there was no specific style passed by arg
	if !isTerminal && !cmd.Flags().Changed("style") {
		style = "notty"
	}

	// Detect terminal width
	if !cmd.Flags().Changed("width") { //nolint:nestif
		if isTerminal && width == 0 {
			w, _, err := term.GetSize(int(os.Stdout.Fd()))
			if err == nil {
				width = uint(w) //nolint:gosec
			}

			if width > 120 {
				width = 120
			}
		}
		if width == 0 {
			width = 80
		}
	}
	return nil
}

// cacheConfig reads the cache tiers from the config. The disk tier lives
// in the user cache directory unless cache.dir says otherwise.
func cacheConfig() cache.Config {
	cfg := cache.DefaultConfig()
	cfg.MemoryCapacity = viper.GetInt64("cache.memory_mb") * 1024 * 1024
	cfg.DiskCapacity = viper.GetInt64("cache.disk_mb") * 1024 * 1024
	cfg.TTL = viper.GetDuration("cache.ttl")
	cfg.DiskPath = utils.ExpandPath(viper.GetString("cache.dir"))
	if cfg.DiskPath == "" {
		dir, err := gap.NewScope(gap.User, "readalong").CacheDir()
		if err != nil {
			log.Warn("no cache directory, disk cache disabled", "error", err)
			cfg.DiskCapacity = 0
		} else {
			cfg.DiskPath = filepath.Join(dir, "cache")
		}
	}
	return cfg
}

func directoryConfig() directory.Config {
	return directory.Config{
		Source:       viper.GetString("source"),
		BaseURL:      viper.GetString("url"),
		AudioBaseURL: viper.GetString("audio_url"),
		Repo:         viper.GetString("github.repo"),
		Branch:       viper.GetString("github.branch"),
		Token:        viper.GetString("github.token"),
		Path:         utils.ExpandPath(viper.GetString("path")),
		Timeout:      timeout,
		RateLimit:    viper.GetDuration("rate_limit"),
	}
}

// openDirectory builds the configured article directory with its cache.
// The caller closes the returned cache.
func openDirectory() (transcript.Directory, *directory.AudioFetcher, *cache.Manager, error) {
	caches, err := cache.NewManager(cacheConfig())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("unable to open cache: %w", err)
	}
	cfg := directoryConfig()
	dir, err := directory.Open(cfg, caches)
	if err != nil {
		_ = caches.Close()
		return nil, nil, nil, fmt.Errorf("unable to open article source: %w", err)
	}
	return dir, directory.NewAudioFetcher(cfg, caches), caches, nil
}

// newPlayer returns the audio device player, or a silent clock when audio
// is disabled or no device is available.
func newPlayer(fetcher *directory.AudioFetcher) audio.Element {
	if noAudio {
		return audio.NewClockPlayer(fetcher.FetchAudio)
	}
	player, err := audio.NewPlayer(audio.DefaultPlayerConfig(), fetcher.FetchAudio)
	if err != nil {
		log.Warn("audio device unavailable, playing silently", "error", err)
		return audio.NewClockPlayer(fetcher.FetchAudio)
	}
	return player
}

func runTUI() error {
	// Read environment to get debugging stuff
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}

	cfg.Width = width
	cfg.EnableMouse = mouse
	cfg.RequestTimeout = timeout
	cfg.SubmitLanguages = languages
	if poll := viper.GetDuration("poll_interval"); poll > 0 {
		cfg.PollInterval = poll
	}

	dir, fetcher, caches, err := openDirectory()
	if err != nil {
		return err
	}
	defer caches.Close() //nolint:errcheck

	player := newPlayer(fetcher)
	defer player.Close() //nolint:errcheck

	ctrl := transcript.NewController(dir, player)
	var watcher directory.Watcher
	if w, ok := directory.AsWatcher(dir); ok {
		watcher = w
	}

	// Run Bubble Tea program
	if err := ui.Run(cfg, ctrl, player, watcher); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}

	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	flags.String("source", directory.SourceHTTP, "article source: http, github or local")
	flags.StringP("url", "u", "http://localhost:5000", "backend URL (http source)")
	flags.String("repo", "", "GitHub repository owner/name (github source)")
	flags.String("branch", "main", "GitHub branch (github source)")
	flags.String("path", ".", "backend directory containing articles/ and audio_files/ (local source)")
	flags.StringVarP(&style, "style", "s", styles.AutoStyle, "style name or JSON path")
	flags.UintVarP(&width, "width", "w", 0, "word-wrap at width (set to 0 to detect)")
	flags.DurationVar(&timeout, "timeout", 30*time.Second, "timeout for each request to the article source")
	rootCmd.Flags().BoolVarP(&mouse, "mouse", "m", false, "enable mouse support")
	rootCmd.Flags().BoolVar(&noAudio, "no-audio", false, "follow the transcript without an audio device")

	// Config bindings
	_ = viper.BindPFlag("source", flags.Lookup("source"))
	_ = viper.BindPFlag("url", flags.Lookup("url"))
	_ = viper.BindPFlag("github.repo", flags.Lookup("repo"))
	_ = viper.BindPFlag("github.branch", flags.Lookup("branch"))
	_ = viper.BindPFlag("path", flags.Lookup("path"))
	_ = viper.BindPFlag("style", flags.Lookup("style"))
	_ = viper.BindPFlag("width", flags.Lookup("width"))
	_ = viper.BindPFlag("timeout", flags.Lookup("timeout"))
	_ = viper.BindPFlag("mouse", rootCmd.Flags().Lookup("mouse"))
	_ = viper.BindPFlag("no_audio", rootCmd.Flags().Lookup("no-audio"))

	viper.SetDefault("style", styles.AutoStyle)
	viper.SetDefault("width", 0)
	viper.SetDefault("languages", []string{"en", "zh"})
	viper.SetDefault("poll_interval", 100*time.Millisecond)
	viper.SetDefault("rate_limit", 0)
	viper.SetDefault("cache.memory_mb", 32)
	viper.SetDefault("cache.disk_mb", 512)
	viper.SetDefault("cache.ttl", 7*24*time.Hour)
	viper.SetDefault("cache.dir", "")

	rootCmd.AddCommand(configCmd, manCmd, listCmd, showCmd, submitCmd, serveCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "readalong")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "readalong")}, dirs...)
	}

	if c := os.Getenv("READALONG_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("readalong")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("readalong")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "readalong.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
