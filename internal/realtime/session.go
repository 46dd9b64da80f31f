package realtime

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Conn is the part of a websocket connection the hub needs. WriteJSON is
// only ever called from the session's writer goroutine.
type Conn interface {
	ReadJSON(v any) error
	WriteJSON(v any) error
	Close() error
}

type SessionState int32

const (
	SessionConnecting SessionState = iota
	SessionConnected
	SessionDisconnected
)

func (state SessionState) String() string {
	switch state {
	case SessionConnecting:
		return "connecting"
	case SessionConnected:
		return "connected"
	case SessionDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

type Session struct {
	ID     string
	UserID uint

	conn  Conn
	state atomic.Int32

	mu     sync.Mutex
	send   chan Envelope
	closed bool
	done   chan struct{}
}

func newSession(conn Conn, userID uint, buffer int) *Session {
	if buffer <= 0 {
		buffer = 1
	}
	return &Session{
		ID:     uuid.NewString(),
		UserID: userID,
		conn:   conn,
		send:   make(chan Envelope, buffer),
		done:   make(chan struct{}),
	}
}

func (session *Session) State() SessionState {
	return SessionState(session.state.Load())
}

func (session *Session) setState(state SessionState) {
	session.state.Store(int32(state))
}

type enqueueResult int

const (
	enqueued enqueueResult = iota
	enqueueClosed
	enqueueFull
)

func (session *Session) enqueue(envelope Envelope) enqueueResult {
	session.mu.Lock()
	defer session.mu.Unlock()
	if session.closed {
		return enqueueClosed
	}
	select {
	case session.send <- envelope:
		return enqueued
	default:
		return enqueueFull
	}
}

// close stops the writer after it drains what is already queued.
func (session *Session) close() {
	session.mu.Lock()
	defer session.mu.Unlock()
	if session.closed {
		return
	}
	session.closed = true
	close(session.send)
}

func (session *Session) writeLoop(logger *zap.Logger) {
	defer close(session.done)

	failed := false
	for envelope := range session.send {
		if failed {
			continue
		}
		if err := session.conn.WriteJSON(envelope); err != nil {
			failed = true
			logger.Debug("realtime write failed",
				zap.String("session_id", session.ID),
				zap.Uint("user_id", session.UserID),
				zap.Error(err),
			)
			_ = session.conn.Close()
		}
	}
}
