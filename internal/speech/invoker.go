package speech

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Invoker submits utterances to the engine so that at most one is ever in
// flight. A new request cancels the one before it.
type Invoker struct {
	engine   Engine
	registry *Registry

	// OnDone, when set, is called on its own goroutine once an utterance
	// has ended.
	OnDone func(Done)

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	seq     uint64
	stopped bool
}

// Done reports how an utterance ended. Err is nil on normal completion and
// context.Canceled when a newer request or Cancel stopped it.
type Done struct {
	Seq       uint64
	Utterance Utterance
	Err       error
}

// NewInvoker returns an Invoker for engine. A nil engine makes every Speak a
// no-op.
func NewInvoker(engine Engine, registry *Registry) *Invoker {
	if registry == nil {
		registry = NewRegistry(engine)
	}
	return &Invoker{engine: engine, registry: registry}
}

// Available reports whether there is an engine to speak with.
func (i *Invoker) Available() bool {
	return i.engine != nil
}

// Speak cancels whatever is being spoken and starts speaking text with the
// voice, rate and pitch described by sel. It returns without waiting for
// either utterance; the new one reaches the engine only once the old one
// has wound down.
func (i *Invoker) Speak(text string, sel Selection) {
	if i.engine == nil {
		return
	}
	u := i.registry.Utterance(text, sel)

	i.mu.Lock()
	defer i.mu.Unlock()
	if i.stopped {
		return
	}
	prev := i.done
	if i.cancel != nil {
		i.cancel()
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	i.cancel = cancel
	i.done = done
	i.seq++

	go i.run(ctx, i.seq, u, prev, done)
}

// Seq returns the sequence number of the most recent utterance.
func (i *Invoker) Seq() uint64 {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.seq
}

func (i *Invoker) run(ctx context.Context, seq uint64, u Utterance, prev <-chan struct{}, done chan struct{}) {
	if prev != nil {
		<-prev
	}

	err := ctx.Err()
	if err != nil {
		log.Debug("utterance superseded before it started", "text", u.Text)
		err = context.Canceled
	} else {
		err = i.speak(ctx, u)
	}

	close(done)
	if i.OnDone != nil {
		go i.OnDone(Done{Seq: seq, Utterance: u, Err: err})
	}
}

func (i *Invoker) speak(ctx context.Context, u Utterance) error {
	voice := ""
	if u.Voice != nil {
		voice = u.Voice.ID
	}
	log.Debug("speaking", "engine", i.engine.Name(), "text", u.Text, "voice", voice, "rate", u.Rate, "pitch", u.Pitch)

	start := time.Now()
	err := i.engine.Speak(ctx, u)
	switch {
	case err == nil:
		log.Debug("utterance finished", "text", u.Text, "elapsed", time.Since(start))
	case errors.Is(err, context.Canceled):
		log.Debug("utterance cancelled", "text", u.Text)
		err = context.Canceled
	default:
		log.Error("speech failed", "engine", i.engine.Name(), "text", u.Text, "error", err)
	}
	return err
}

// Cancel stops the current utterance, if any. It does not wait for the
// engine to wind down.
func (i *Invoker) Cancel() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.cancel != nil {
		i.cancel()
	}
}

// Close cancels the current utterance, waits for it to wind down and
// refuses further requests.
func (i *Invoker) Close() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.stopped = true
	if i.cancel == nil {
		return
	}
	i.cancel()
	<-i.done
	i.cancel = nil
	i.done = nil
}
