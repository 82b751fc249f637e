package engines

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/wordboard/internal/audio"
	"github.com/dgnsrekt/wordboard/internal/cache"
	"github.com/dgnsrekt/wordboard/internal/speech"
)

// errNoSink is returned by factories of synthesizing engines when there is
// no audio output to play through.
var errNoSink = errors.New("no audio output available")

// Synthesizer is an engine that produces audio rather than playing it.
type Synthesizer interface {
	Name() string
	Voices(ctx context.Context) ([]speech.Voice, error)
	Synthesize(ctx context.Context, u speech.Utterance) (audio.Clip, error)
	Close() error
}

// playback turns a Synthesizer into a speech.Engine by playing its clips
// through a Sink, consulting the clip cache first.
type playback struct {
	Synthesizer
	sink  audio.Sink
	cache *cache.LRU[audio.Clip]
}

func newPlayback(s Synthesizer, cfg Config) (*playback, error) {
	if cfg.Sink == nil {
		return nil, speech.WrapError(s.Name(), "open", errNoSink)
	}
	return &playback{Synthesizer: s, sink: cfg.Sink, cache: cfg.Cache}, nil
}

// Speak implements speech.Engine.
func (p *playback) Speak(ctx context.Context, u speech.Utterance) error {
	if u.Text == "" {
		return speech.ErrEmptyText
	}

	clip, err := p.clip(ctx, u)
	if err != nil {
		return speech.WrapError(p.Name(), "synthesize", err)
	}
	err = p.sink.Play(ctx, clip)
	if err != nil && p.cache != nil && !errors.Is(err, context.Canceled) {
		// Synthesize again next time rather than replaying a clip the
		// device refused.
		p.cache.Delete(cacheKey(p.Name(), u))
	}
	return speech.WrapError(p.Name(), "play", err)
}

func (p *playback) clip(ctx context.Context, u speech.Utterance) (audio.Clip, error) {
	if p.cache == nil {
		return p.Synthesize(ctx, u)
	}

	key := cacheKey(p.Name(), u)
	if clip, ok := p.cache.Get(key); ok {
		log.Debug("cache hit", "engine", p.Name(), "text", u.Text)
		return clip, nil
	}

	start := time.Now()
	clip, err := p.Synthesize(ctx, u)
	if err != nil {
		return audio.Clip{}, err
	}
	log.Debug("synthesized", "engine", p.Name(), "text", u.Text, "bytes", clip.Size(), "elapsed", time.Since(start))

	if err := p.cache.Put(key, clip); err != nil {
		log.Warn("unable to cache clip", "engine", p.Name(), "error", err)
	}
	return clip, nil
}

// WatchVoices forwards to the synthesizer when it can watch its voices.
// Cached clips are dropped on every change, since a voice may have been
// replaced under the same ID.
func (p *playback) WatchVoices(ctx context.Context, notify func()) error {
	w, ok := p.Synthesizer.(speech.VoiceWatcher)
	if !ok {
		return errors.ErrUnsupported
	}
	return w.WatchVoices(ctx, func() {
		if p.cache != nil {
			p.cache.Clear()
		}
		notify()
	})
}

func cacheKey(engine string, u speech.Utterance) string {
	voice := ""
	if u.Voice != nil {
		voice = u.Voice.ID
	}
	return cache.Key(engine, voice,
		speech.FormatFactor(u.Rate), speech.FormatFactor(u.Pitch), u.Text)
}

// pitchShift applies the utterance pitch to a synthesized clip. Resampling
// also speeds the clip up by the same ratio. piper compensates exactly
// through its length scale; gtts can only switch to slow speech, so its
// compensation is coarse.
func pitchShift(clip audio.Clip, pitch float64) (audio.Clip, error) {
	if pitch <= 0 || pitch == 1 {
		return clip, nil
	}
	return audio.Convert(clip, clip.SampleRate, clip.Channels, pitch)
}
