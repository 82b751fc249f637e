package engines

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/wordboard/internal/speech"
)

// Factory creates an instance of T from the engine configuration.
type Factory[T any] func(cfg Config) (T, error)

// Registry holds named factories for creating instances of T.
type Registry[T any] struct {
	mu        sync.RWMutex
	factories map[string]Factory[T]
}

// NewRegistry creates an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{
		factories: make(map[string]Factory[T]),
	}
}

// Register adds a named factory to the registry.
func (r *Registry[T]) Register(name string, factory Factory[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Create instantiates T using the named factory.
func (r *Registry[T]) Create(name string, cfg Config) (T, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %q", speech.ErrUnknownEngine, name)
	}
	return factory(cfg)
}

// Has returns true if the named factory exists.
func (r *Registry[T]) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// List returns all registered factory names, sorted.
func (r *Registry[T]) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Engine names.
const (
	Auto   = "auto"
	Espeak = "espeak"
	Say    = "say"
	SAPI   = "sapi"
	Piper  = "piper"
	GTTS   = "gtts"
	Edge   = "edge"
	Mock   = "mock"
)

// Default is the registry of every engine this package provides.
var Default = NewRegistry[speech.Engine]()

func init() {
	Default.Register(Espeak, newEspeak)
	Default.Register(Say, newSay)
	Default.Register(SAPI, newSAPI)
	Default.Register(Piper, newPiper)
	Default.Register(GTTS, newGTTS)
	Default.Register(Edge, newEdge)
	Default.Register(Mock, newMock)
}

// DetectionOrder returns the engines tried, in order, when none is
// configured. Platform speech comes first, then local synthesizers, then
// online services.
func DetectionOrder(goos string) []string {
	var order []string
	switch goos {
	case "windows":
		order = append(order, SAPI)
	case "darwin":
		order = append(order, Say)
	}
	return append(order, Espeak, Piper, GTTS, Edge)
}

// Open creates the named engine. An empty name or "auto" detects the first
// engine that can be created on this machine.
func Open(r *Registry[speech.Engine], name string, cfg Config) (speech.Engine, error) {
	if name != "" && name != Auto {
		eng, err := r.Create(name, cfg)
		if err != nil {
			return nil, err
		}
		log.Info("speech engine selected", "engine", name, "reason", "configured")
		return eng, nil
	}

	var errs []error
	for _, n := range DetectionOrder(runtime.GOOS) {
		if !r.Has(n) {
			continue
		}
		eng, err := r.Create(n, cfg)
		if err != nil {
			log.Debug("speech engine unavailable", "engine", n, "error", err)
			errs = append(errs, err)
			continue
		}
		log.Info("speech engine selected", "engine", n, "reason", "detected")
		return eng, nil
	}
	if len(errs) == 0 {
		return nil, speech.ErrNoEngine
	}
	return nil, fmt.Errorf("%w: %w", speech.ErrNoEngine, errors.Join(errs...))
}
