package engines

import (
	"os"
	"path/filepath"
	"time"

	"github.com/dgnsrekt/wordboard/internal/audio"
	"github.com/dgnsrekt/wordboard/internal/cache"
	"github.com/dgnsrekt/wordboard/internal/subprocess"
)

// Config carries everything an engine factory may need.
type Config struct {
	// Runner executes engine programs. Nil means a Runner without timeout.
	Runner *subprocess.Runner

	// Sink plays synthesized audio for engines that do not play it
	// themselves. Factories of such engines fail when it is nil.
	Sink audio.Sink

	// Cache, when set, keeps synthesized clips for replay.
	Cache *cache.LRU[audio.Clip]

	Espeak EspeakConfig
	Say    SayConfig
	Piper  PiperConfig
	GTTS   GTTSConfig
	Edge   EdgeConfig
}

// EspeakConfig configures the espeak-ng engine.
type EspeakConfig struct {
	// Binary defaults to espeak-ng, falling back to espeak.
	Binary string
}

// SayConfig configures the macOS say engine.
type SayConfig struct {
	Binary string
}

// PiperConfig configures the Piper engine.
type PiperConfig struct {
	Binary string

	// Model is the voice used when none is selected. Defaults to the first
	// voice found in VoiceDirs.
	Model string

	// VoiceDirs are searched for *.onnx voices.
	VoiceDirs []string
}

// GTTSConfig configures the gTTS engine.
type GTTSConfig struct {
	Binary string

	// RequestsPerMinute limits requests to avoid being blocked.
	RequestsPerMinute int

	// SlowBelow selects gTTS slow mode for rates under this value.
	SlowBelow float64
}

// EdgeConfig configures the Edge TTS engine. Every field is required; they
// are read from the environment.
type EdgeConfig struct {
	BaseURL            string        `env:"BASE_URL"`
	Origin             string        `env:"ORIGIN"`
	UserAgent          string        `env:"USER_AGENT"`
	TrustedClientToken string        `env:"TRUSTED_CLIENT_TOKEN"`
	SecMSGecVersion    string        `env:"SEC_MS_GEC_VERSION"`
	Timeout            time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

// DefaultVoiceDirs returns the directories searched for Piper voices.
func DefaultVoiceDirs() []string {
	var dirs []string
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs,
			filepath.Join(home, ".local", "share", "piper-voices"),
			filepath.Join(home, ".config", "piper", "voices"),
		)
	}
	return append(dirs,
		"/usr/share/piper-voices",
		"/usr/local/share/piper-voices",
		"/opt/piper/voices",
	)
}

// DefaultConfig returns a Config with the defaults every engine expects.
func DefaultConfig() Config {
	return Config{
		Espeak: EspeakConfig{},
		Say:    SayConfig{Binary: "say"},
		Piper: PiperConfig{
			Binary:    "piper",
			VoiceDirs: DefaultVoiceDirs(),
		},
		GTTS: GTTSConfig{
			Binary:            "gtts-cli",
			RequestsPerMinute: 50,
			SlowBelow:         0.8,
		},
		Edge: EdgeConfig{Timeout: 30 * time.Second},
	}
}

func (c Config) runner() *subprocess.Runner {
	if c.Runner == nil {
		return subprocess.New(0)
	}
	return c.Runner
}
