package audio

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// MockPlayer is a Sink that produces no sound. It waits for the clip's
// duration scaled by DelayFactor, so cancellation can be tested.
type MockPlayer struct {
	// DelayFactor scales simulated playback time; 0 plays instantly.
	DelayFactor float64

	// OnPlay, when set, is called before each clip starts.
	OnPlay func(Clip)

	mu     sync.Mutex
	clips  []Clip
	closed bool

	playCount   atomic.Int64
	cancelCount atomic.Int64
}

// NewMockPlayer returns a MockPlayer that plays instantly.
func NewMockPlayer() *MockPlayer {
	return &MockPlayer{}
}

// Play records the clip and simulates its playback.
func (mp *MockPlayer) Play(ctx context.Context, clip Clip) error {
	if err := clip.Validate(); err != nil {
		return err
	}

	mp.mu.Lock()
	if mp.closed {
		mp.mu.Unlock()
		return ErrClosed
	}
	mp.clips = append(mp.clips, clip)
	mp.mu.Unlock()

	mp.playCount.Add(1)
	if mp.OnPlay != nil {
		mp.OnPlay(clip)
	}

	d := time.Duration(float64(clip.Duration()) * mp.DelayFactor)
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		mp.cancelCount.Add(1)
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Close implements Sink.
func (mp *MockPlayer) Close() error {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.closed = true
	return nil
}

// Clips returns every clip played so far.
func (mp *MockPlayer) Clips() []Clip {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	out := make([]Clip, len(mp.clips))
	copy(out, mp.clips)
	return out
}

// PlayCount returns the number of Play calls that started.
func (mp *MockPlayer) PlayCount() int64 {
	return mp.playCount.Load()
}

// CancelCount returns the number of clips cut short by cancellation.
func (mp *MockPlayer) CancelCount() int64 {
	return mp.cancelCount.Load()
}
