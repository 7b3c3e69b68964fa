package engine

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
)

// SessionState tracks where a streaming query is in its lifecycle.
type SessionState int32

const (
	StatePending SessionState = iota
	StateStreaming
	StateDone
	StateError
)

func (s SessionState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateStreaming:
		return "streaming"
	case StateDone:
		return "done"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is one element of a stream session: either a content token, or the
// terminal event carrying the source snapshot and, on failure, the error.
type Event struct {
	Token   string
	Sources []string
	Err     error
	Done    bool
}

// Session relays tokens from the single generation goroutine to a single
// consumer. Tokens arrive in production order; the channel always ends with
// a terminal event and is then closed, so a consumer ranging over Events can
// never hang waiting for a stalled stream.
type Session struct {
	ID    string
	Query string

	events  chan Event
	state   atomic.Int32
	sources []string // written once during preparation, read by the producer only
}

// sessionBuffer decouples the producer from momentary consumer stalls
// without letting an abandoned stream pin unbounded memory.
const sessionBuffer = 32

func newSession(query string) *Session {
	return &Session{
		ID:     uuid.NewString(),
		Query:  query,
		events: make(chan Event, sessionBuffer),
	}
}

// Events is the consumer side of the relay. The channel is closed after the
// terminal event.
func (s *Session) Events() <-chan Event { return s.events }

func (s *Session) State() SessionState {
	return SessionState(s.state.Load())
}

func (s *Session) setState(st SessionState) { s.state.Store(int32(st)) }

// push forwards an event unless the consumer has gone away. A cancelled
// context means the consumer stopped pulling; the producer stops forwarding
// rather than blocking forever.
func (s *Session) push(ctx context.Context, ev Event) bool {
	select {
	case s.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// finish emits the terminal completion event with the source snapshot.
func (s *Session) finish(ctx context.Context) {
	s.setState(StateDone)
	s.push(ctx, Event{Done: true, Sources: s.sources})
}

// fail emits the terminal error event. The stream still completes: an error
// must never leave the consumer blocked.
func (s *Session) fail(ctx context.Context, err error) {
	s.setState(StateError)
	s.push(ctx, Event{Done: true, Err: err, Sources: s.sources})
}
