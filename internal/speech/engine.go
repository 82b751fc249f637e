package speech

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNoEngine is returned when no usable speech engine was found.
	ErrNoEngine = errors.New("no speech engine found")

	// ErrUnknownEngine is returned for engine names nobody registered.
	ErrUnknownEngine = errors.New("unknown speech engine")

	// ErrEmptyText is returned when asked to speak nothing.
	ErrEmptyText = errors.New("text cannot be empty")
)

// Engine is a host text-to-speech facility.
type Engine interface {
	// Name identifies the engine, e.g. "espeak".
	Name() string

	// Voices lists the voices the engine currently offers. An empty list is
	// valid.
	Voices(ctx context.Context) ([]Voice, error)

	// Speak renders the utterance audibly and blocks until it has finished
	// or ctx is cancelled, in which case playback stops as soon as possible
	// and ctx.Err() is returned.
	Speak(ctx context.Context, u Utterance) error

	// Close releases engine resources.
	Close() error
}

// VoiceWatcher is implemented by engines whose voice list can change while
// the program runs. WatchVoices blocks until ctx is done, calling notify
// every time the list may have changed.
type VoiceWatcher interface {
	WatchVoices(ctx context.Context, notify func()) error
}

// Utterance is a single request to speak. A nil Voice means the engine's
// default voice.
type Utterance struct {
	Text  string
	Voice *Voice
	Rate  float64
	Pitch float64
}

// EngineError wraps a failure from a specific engine operation.
type EngineError struct {
	Engine string
	Op     string
	Err    error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Engine, e.Op, e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// WrapError returns err wrapped in an EngineError, or nil when err is nil.
// Context errors are returned untouched so callers can compare them
// directly.
func WrapError(engine, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &EngineError{Engine: engine, Op: op, Err: err}
}
