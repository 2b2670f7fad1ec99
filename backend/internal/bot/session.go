package bot

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is the lifecycle state of one gateway session.
type State int32

const (
	// StateConnecting is the initial state, before the gateway reports ready
	StateConnecting State = iota
	// StateReady means the gateway connection is live
	StateReady
	// StateDisconnected is the fatal terminal state: the gateway dropped
	// the connection and the session was torn down, not retried
	StateDisconnected
	// StateExited is the clean terminal state
	StateExited
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateDisconnected:
		return "disconnected"
	case StateExited:
		return "exited"
	default:
		return "unknown"
	}
}

// Conn is the part of the gateway client a session owns: an openable,
// closable connection. *discordgo.Session satisfies it.
type Conn interface {
	Open() error
	Close() error
}

// Session is one authenticated, live gateway connection. It transitions
// Connecting -> Ready -> (Disconnected | Exited); Done is closed once a
// terminal state is reached. In-flight message handlers are not cancelled
// by teardown.
type Session struct {
	ID     string
	logger *zap.Logger

	mu    sync.Mutex
	conn  Conn
	state State
	done  chan struct{}
}

func newSession(log *zap.Logger) *Session {
	return &Session{
		ID:     uuid.NewString(),
		logger: log,
		state:  StateConnecting,
		done:   make(chan struct{}),
	}
}

// State returns the session's current lifecycle state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done returns a channel closed when the session reaches a terminal state
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Destroy closes the gateway connection and marks the session exited.
// Idempotent; safe to call from any goroutine.
func (s *Session) Destroy() error {
	return s.terminate(StateExited)
}

// markReady records the gateway's ready event
func (s *Session) markReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateConnecting {
		return
	}
	s.state = StateReady
	s.logger.Info("Session ready", zap.String("session_id", s.ID))
}

// markDisconnected handles a gateway-reported disconnect: fatal for the
// session, recovery is a new init request's problem.
func (s *Session) markDisconnected() {
	s.logger.Warn("Gateway disconnected, tearing session down",
		zap.String("session_id", s.ID),
	)
	_ = s.terminate(StateDisconnected)
}

func (s *Session) terminate(terminal State) error {
	s.mu.Lock()
	if s.state == StateDisconnected || s.state == StateExited {
		s.mu.Unlock()
		return nil
	}
	s.state = terminal
	conn := s.conn
	s.mu.Unlock()

	var err error
	if conn != nil {
		err = conn.Close()
	}
	close(s.done)

	s.logger.Info("Session terminated",
		zap.String("session_id", s.ID),
		zap.String("state", terminal.String()),
	)
	return err
}
