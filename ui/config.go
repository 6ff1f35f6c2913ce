package ui

import "time"

// Config contains TUI-specific configuration.
type Config struct {
	EnableMouse bool
	Width       uint

	// Languages offered by default in the submit form.
	SubmitLanguages []string

	// How long a single directory request may take.
	RequestTimeout time.Duration

	// How often the playback position is sampled.
	PollInterval time.Duration `env:"READALONG_POLL_INTERVAL" envDefault:"100ms"`

	// For debugging sentence timings
	ShowTimestamps bool `env:"READALONG_SHOW_TIMESTAMPS"`
}
