package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
)

// Sink plays clips. Play blocks until the clip has finished or ctx is
// cancelled.
type Sink interface {
	Play(ctx context.Context, clip Clip) error
	Close() error
}

// ErrClosed is returned by Play after Close.
var ErrClosed = errors.New("player is closed")

// pollInterval is how often Play checks whether oto has drained the clip.
const pollInterval = 10 * time.Millisecond

// PlayerConfig contains configuration for the audio player.
type PlayerConfig struct {
	SampleRate int // 44100 or 48000 Hz only
	Channels   int // 1 = mono, 2 = stereo
	BufferSize time.Duration
}

// DefaultPlayerConfig returns the default player configuration.
func DefaultPlayerConfig() PlayerConfig {
	return PlayerConfig{
		SampleRate: 44100,
		Channels:   1,
		BufferSize: 100 * time.Millisecond,
	}
}

// Validate checks the configuration.
func (c PlayerConfig) Validate() error {
	// OTO only supports specific sample rates reliably
	if c.SampleRate != 44100 && c.SampleRate != 48000 {
		return fmt.Errorf("sample rate must be 44100 or 48000 Hz, got %d", c.SampleRate)
	}
	if c.Channels != 1 && c.Channels != 2 {
		return fmt.Errorf("channels must be 1 (mono) or 2 (stereo), got %d", c.Channels)
	}
	if c.BufferSize < 0 {
		return errors.New("buffer size must not be negative")
	}
	return nil
}

// Player is a Sink backed by the system audio device. oto allows one
// context per process, so a program should create a single Player.
type Player struct {
	context    *oto.Context
	sampleRate int
	channels   int

	// One clip at a time.
	mu     sync.Mutex
	closed bool
}

// NewPlayer opens the audio device.
func NewPlayer(config PlayerConfig) (*Player, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	op := &oto.NewContextOptions{
		SampleRate:   config.SampleRate,
		ChannelCount: config.Channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   config.BufferSize,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-ready

	log.Debug("audio device ready", "sample_rate", config.SampleRate, "channels", config.Channels)
	return &Player{
		context:    ctx,
		sampleRate: config.SampleRate,
		channels:   config.Channels,
	}, nil
}

// Play converts the clip to the device format and plays it.
func (p *Player) Play(ctx context.Context, clip Clip) error {
	out, err := Convert(clip, p.sampleRate, p.channels, 1)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}

	// The reader keeps out.PCM alive until the player is closed.
	player := p.context.NewPlayer(bytes.NewReader(out.PCM))
	defer player.Close() //nolint:errcheck
	player.Play()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			player.Pause()
			return ctx.Err()
		case <-ticker.C:
			if !player.IsPlaying() {
				return nil
			}
		}
	}
}

// Close stops accepting clips. oto.Context has no Close in v3; the device is
// released when the process exits.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}
