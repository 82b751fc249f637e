package speech

import (
	"context"
	"strconv"
	"sync"

	"github.com/charmbracelet/log"
)

// Selection is the raw state of the voice, rate and pitch controls.
type Selection struct {
	Voice string
	Rate  string
	Pitch string
}

// Registry holds the snapshot of voices the engine offers. The snapshot is
// only ever replaced wholesale; a voice's position in it is its identity.
type Registry struct {
	engine Engine

	mu     sync.RWMutex
	voices []Voice
}

// NewRegistry returns an empty Registry for engine. engine may be nil, in
// which case the snapshot stays empty.
func NewRegistry(engine Engine) *Registry {
	return &Registry{engine: engine}
}

// Refresh asks the engine for its voices and replaces the snapshot with the
// result.
func (r *Registry) Refresh(ctx context.Context) []Voice {
	r.Set(r.Fetch(ctx))
	return r.Voices()
}

// Fetch asks the engine for its voices without touching the snapshot. An
// engine failure is logged and yields an empty list.
func (r *Registry) Fetch(ctx context.Context) []Voice {
	if r.engine == nil {
		return []Voice{}
	}
	voices, err := r.engine.Voices(ctx)
	if err != nil {
		log.Error("unable to list voices", "engine", r.engine.Name(), "error", err)
		return []Voice{}
	}
	if voices == nil {
		voices = []Voice{}
	}
	return voices
}

// Set replaces the snapshot with voices.
func (r *Registry) Set(voices []Voice) {
	snapshot := make([]Voice, len(voices))
	copy(snapshot, voices)

	r.mu.Lock()
	r.voices = snapshot
	r.mu.Unlock()

	log.Debug("voices replaced", "count", len(snapshot))
}

// Voices returns a copy of the current snapshot.
func (r *Registry) Voices() []Voice {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Voice, len(r.voices))
	copy(out, r.voices)
	return out
}

// Len returns the number of voices in the snapshot.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.voices)
}

// Resolve returns the voice a selector value points at, or nil for the
// engine default when the value is not an index into the snapshot.
func (r *Registry) Resolve(selection string) *Voice {
	idx, ok := ParseIndex(selection)
	if !ok {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if idx < 0 || idx >= len(r.voices) {
		return nil
	}
	v := r.voices[idx]
	return &v
}

// IndexOf returns the selector value for the voice with id, or "" when the
// snapshot no longer has it.
func (r *Registry) IndexOf(id string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i, v := range r.voices {
		if v.ID == id {
			return strconv.Itoa(i)
		}
	}
	return ""
}

// Utterance builds the utterance for text from the current control values.
func (r *Registry) Utterance(text string, sel Selection) Utterance {
	return Utterance{
		Text:  text,
		Voice: r.Resolve(sel.Voice),
		Rate:  ClampRate(ParseFactor(sel.Rate)),
		Pitch: ClampPitch(ParseFactor(sel.Pitch)),
	}
}
