// Package status holds the single user-visible load status line.
package status

import (
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/wordboard/internal/words"
	"github.com/dustin/go-humanize"
)

// Kind is the state the status line is in.
type Kind int

// Status kinds.
const (
	Idle Kind = iota
	Loading
	Loaded
	Empty
	Failed
	Unsupported
)

func (k Kind) String() string {
	switch k {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Empty:
		return "empty"
	case Failed:
		return "error"
	case Unsupported:
		return "unsupported"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

const unreachableHint = " (network unreachable?)"

// Status is one state of the status line.
type Status struct {
	Kind    Kind
	Count   int
	Message string
}

func (s Status) String() string {
	return s.Message
}

// IsError reports whether the status should be styled as an error.
func (s Status) IsError() bool {
	return s.Kind == Failed || s.Kind == Unsupported
}

// NewIdle is the status shown before anything has been loaded.
func NewIdle() Status {
	return Status{Kind: Idle, Message: "Enter a URL to a words file and press enter."}
}

// NewLoading is shown while a fetch is in flight.
func NewLoading() Status {
	return Status{Kind: Loading, Message: "Loading..."}
}

// NewLoaded reports a successful load of n words.
func NewLoaded(n int) Status {
	return Status{
		Kind:    Loaded,
		Count:   n,
		Message: fmt.Sprintf("Loaded %s words.", humanize.Comma(int64(n))),
	}
}

// NewEmpty reports a file with no usable lines.
func NewEmpty() Status {
	return Status{Kind: Empty, Message: "No words found in the file."}
}

// NewUnsupported reports that no speech engine is usable.
func NewUnsupported(reason string) Status {
	msg := "Speech synthesis not available"
	if reason != "" {
		msg += ": " + reason
	}
	return Status{Kind: Unsupported, Message: msg}
}

// FromError maps a load error onto the status line. A nil error maps to an
// empty Loaded status.
func FromError(err error) Status {
	if err == nil {
		return NewLoaded(0)
	}

	var le *words.LoadError
	if !errors.As(err, &le) {
		return Status{Kind: Failed, Message: "Error loading file: " + err.Error()}
	}

	switch le.Kind {
	case words.InputError:
		return Status{Kind: Failed, Message: "Please enter a URL to the words file."}
	case words.EmptyResultError:
		return NewEmpty()
	case words.TransportError:
		msg := "Error loading file: " + le.Error()
		if le.Unreachable() {
			msg += unreachableHint
		}
		return Status{Kind: Failed, Message: msg}
	default:
		return Status{Kind: Failed, Message: "Error loading file: " + le.Error()}
	}
}

// Reporter holds the current status. Every Set overwrites the previous one;
// there is no history.
type Reporter struct {
	mu      sync.RWMutex
	current Status
}

// NewReporter returns a Reporter showing the idle prompt.
func NewReporter() *Reporter {
	return &Reporter{current: NewIdle()}
}

// Set replaces the current status.
func (r *Reporter) Set(s Status) {
	r.mu.Lock()
	r.current = s
	r.mu.Unlock()

	if s.IsError() {
		log.Warn("status", "kind", s.Kind, "message", s.Message)
	} else {
		log.Debug("status", "kind", s.Kind, "message", s.Message)
	}
}

// Current returns the status last set.
func (r *Reporter) Current() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}
