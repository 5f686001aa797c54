// Package session drives one diagnosis run: it reads the feed from a
// transport source, reconstructs turns and the differential snapshot, and
// exposes consistent views of that state to observers.
package session

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/joss/ddx/internal/config"
	"github.com/joss/ddx/internal/feed"
	"github.com/joss/ddx/internal/logging"
	"github.com/joss/ddx/internal/transcript"
	"github.com/joss/ddx/internal/transport"
)

// StoppedText is the status turn appended when a run is canceled.
const StoppedText = "⏹️ Process stopped by user"

// State is the stream driver state.
type State int

const (
	Idle State = iota
	Streaming
	Completed
	Canceled
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Streaming:
		return "streaming"
	case Completed:
		return "completed"
	case Canceled:
		return "canceled"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText renders the state name in JSON output.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether s ends a run.
func (s State) Terminal() bool {
	return s == Completed || s == Canceled || s == Failed
}

// View is a consistent copy of session state. Observers never see a view
// taken in the middle of a chunk.
type View struct {
	SessionID    string
	State        State
	Turns        []transcript.Turn
	Differential *transcript.Differential
	Err          error
}

// Observer is notified after every processed chunk that changed the state and
// on every state transition. Calls come from one goroutine at a time.
type Observer interface {
	SessionUpdated(View)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(View)

// SessionUpdated calls f(v).
func (f ObserverFunc) SessionUpdated(v View) { f(v) }

// Option configures a Session.
type Option func(*Session)

// WithChunkSize sets the read buffer size.
func WithChunkSize(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

// WithObserver registers the observer.
func WithObserver(o Observer) Option {
	return func(s *Session) { s.observer = o }
}

// WithLogger replaces the session logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Session) { s.log = l }
}

// Session owns one turn list, one differential snapshot and at most one
// in-flight read.
type Session struct {
	source    transport.Source
	chunkSize int
	observer  Observer
	log       *logging.Logger

	mu        sync.Mutex
	id        string
	state     State
	err       error
	acc       *transcript.Accumulator
	diff      *transcript.Tracker
	cancel    context.CancelCauseFunc
	done      chan struct{}
	stopAsked bool

	// startMu serializes Start so two callers cannot interleave cancel-and-wait.
	startMu sync.Mutex
}

// New creates an idle session reading from source.
func New(source transport.Source, opts ...Option) *Session {
	s := &Session{
		source:    source,
		chunkSize: config.Env().ChunkSize,
		log:       logging.New("session"),
		acc:       transcript.NewAccumulator(),
		diff:      transcript.NewTracker(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Validate checks the required inputs of a run.
func Validate(req transport.Request) error {
	if strings.TrimSpace(req.InitialInfo) == "" {
		return &ValidationError{Field: "initial info"}
	}
	if strings.TrimSpace(req.FullCase) == "" {
		return &ValidationError{Field: "full case"}
	}
	return nil
}

// Start validates req, resets all session state and begins streaming in the
// background. A run still in flight is canceled and waited for first. On a
// validation error nothing is reset and no request is sent.
func (s *Session) Start(ctx context.Context, req transport.Request) error {
	if err := Validate(req); err != nil {
		return err
	}

	s.startMu.Lock()
	defer s.startMu.Unlock()

	s.Cancel()
	s.mu.Lock()
	prev := s.done
	s.mu.Unlock()
	if prev != nil {
		<-prev
	}

	id := ulid.Make().String()
	runCtx, cancel := context.WithCancelCause(logging.WithSessionID(ctx, id))
	done := make(chan struct{})

	s.mu.Lock()
	s.id = id
	s.state = Streaming
	s.err = nil
	s.acc.Reset()
	s.diff.Reset()
	s.cancel = cancel
	s.done = done
	s.stopAsked = false
	src := s.source
	log := s.log.WithSession(s.id)
	view := s.viewLocked()
	s.mu.Unlock()

	log.Info("session_start", map[string]interface{}{"ground_truth": req.GroundTruth != ""})
	s.notify(view)

	go s.run(runCtx, src, req, log, done)
	return nil
}

// Cancel stops the in-flight read. It reports false when nothing is streaming.
func (s *Session) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Streaming || s.cancel == nil {
		return false
	}
	s.stopAsked = true
	s.cancel(ErrCanceled)
	return true
}

// Wait blocks until the current run is terminal, or ctx is done, and returns
// the latest view together with its error.
func (s *Session) Wait(ctx context.Context) (View, error) {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return s.View(), ctx.Err()
		}
	}
	v := s.View()
	return v, v.Err
}

// Run starts a run and waits for it. Cancelling ctx cancels the run.
func (s *Session) Run(ctx context.Context, req transport.Request) (View, error) {
	if err := s.Start(ctx, req); err != nil {
		return s.View(), err
	}
	return s.Wait(context.Background())
}

// View returns a consistent copy of the current state.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// State returns the current driver state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) viewLocked() View {
	return View{
		SessionID:    s.id,
		State:        s.state,
		Turns:        s.acc.Turns(),
		Differential: s.diff.Latest(),
		Err:          s.err,
	}
}

func (s *Session) notify(v View) {
	if s.observer != nil {
		s.observer.SessionUpdated(v)
	}
}

func (s *Session) run(ctx context.Context, src transport.Source, req transport.Request, log *logging.Logger, done chan struct{}) {
	defer close(done)
	start := time.Now()

	recovery := logging.NewRecoveryHandler("session")
	recovery.Logger = log
	err := recovery.WrapError(func() error {
		return s.stream(ctx, src, req, log)
	})

	s.mu.Lock()
	switch {
	case err == nil:
		s.state = Completed
	case s.stopAsked || ctx.Err() != nil:
		s.acc.AppendStatus(StoppedText)
		s.state = Canceled
		err = context.Cause(ctx)
	default:
		s.err = err
		s.state = Failed
	}
	s.cancel(nil)
	view := s.viewLocked()
	s.mu.Unlock()

	extra := map[string]interface{}{"state": view.State.String(), "turns": len(view.Turns)}
	if view.State == Canceled && err != nil {
		extra["cause"] = err.Error()
	}
	if view.State == Failed {
		log.Error("session_end", extra, err)
	} else {
		log.TimedEvent("session_end", start, extra)
	}
	s.notify(view)
}

// stream reads until end of stream, a read error, or cancellation. A chunk
// returned together with an error is folded before the error is handled.
func (s *Session) stream(ctx context.Context, src transport.Source, req transport.Request, log *logging.Logger) error {
	body, err := src.Open(ctx, req)
	if err != nil {
		return &TransportError{Op: "open stream", Err: err}
	}
	defer body.Close()
	log.Debug("stream_open", nil)

	r := feed.NewReassembler()
	defer func() {
		if dropped := r.Close(); dropped > 0 {
			log.Debug("fragment_dropped", map[string]interface{}{"bytes": dropped})
		}
	}()

	buf := make([]byte, s.chunkSize)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			s.process(r, buf[:n], log)
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return &TransportError{Op: "read stream", Err: err}
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// process folds one chunk under the session lock.
func (s *Session) process(r *feed.Reassembler, chunk []byte, log *logging.Logger) {
	lines := r.Feed(chunk)

	s.mu.Lock()
	changed := false
	for _, line := range lines {
		c := feed.Classify(line)
		if c.Kind == feed.KindDifferential {
			changed = s.diff.Apply(c) || changed
			continue
		}
		changed = s.acc.Apply(c) || changed
	}
	extra := map[string]interface{}{
		"bytes":   len(chunk),
		"lines":   len(lines),
		"pending": r.Pending(),
		"turns":   s.acc.Len(),
	}
	if agent, ok := s.acc.CurrentAgent(); ok {
		extra["agent"] = agent
	}
	var view View
	if changed {
		view = s.viewLocked()
	}
	s.mu.Unlock()

	log.Debug("chunk", extra)
	if changed {
		s.notify(view)
	}
}
