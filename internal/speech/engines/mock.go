package engines

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/wordboard/internal/speech"
)

// mockEngine makes no sound. It waits roughly as long as speaking the text
// would take, so it can stand in for a real engine in tests and demos.
type mockEngine struct{}

func newMock(Config) (speech.Engine, error) {
	return mockEngine{}, nil
}

func (mockEngine) Name() string { return Mock }

func (mockEngine) Voices(context.Context) ([]speech.Voice, error) {
	return []speech.Voice{
		{ID: "mock-voice-1", Name: "Mock Voice", Language: "en-US", Default: true},
		{ID: "mock-voice-2", Name: "Mock Voice 2", Language: "en-GB"},
	}, nil
}

func (mockEngine) Speak(ctx context.Context, u speech.Utterance) error {
	if u.Text == "" {
		return speech.ErrEmptyText
	}
	d := estimateDuration(u.Text, u.Rate)
	log.Debug("mock speaking", "text", u.Text, "duration", d)

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (mockEngine) Close() error { return nil }

// estimateDuration assumes about 15 characters per second at normal rate.
func estimateDuration(text string, rate float64) time.Duration {
	if rate <= 0 {
		rate = 1
	}
	chars := utf8.RuneCountInString(text)
	return time.Duration(float64(chars) / 15 / rate * float64(time.Second))
}
