package ui

import "time"

// Config contains TUI-specific configuration.
type Config struct {
	// URL is prefilled in the URL field and loaded on start when set.
	URL string

	// Initial control values. Voice is an index, a voice ID or a voice name.
	Voice string
	Rate  string
	Pitch string

	EnableMouse bool

	HTTPTimeout time.Duration
	UserAgent   string

	// For debugging the UI
	AltScreen bool `env:"WORDBOARD_ALT_SCREEN" envDefault:"true"`
}
