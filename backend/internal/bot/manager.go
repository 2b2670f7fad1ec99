package bot

import (
	"context"
	"sync"

	"go.uber.org/zap"

	apperrors "linkrelay/backend/pkg/errors"
	"linkrelay/backend/pkg/logger"
)

// Credentials carries what one session needs to start: the gateway token
// and the store identity owning created conversations.
type Credentials struct {
	BotToken   string
	UserLinkID int64
}

// Dialer builds an unopened gateway connection for a session, wiring its
// event callbacks to the session before the manager opens it. The context
// is Start's and outlives it: it becomes the handler context for events
// the connection delivers. Tests substitute fakes here.
type Dialer func(ctx context.Context, creds Credentials, s *Session) (Conn, error)

// Manager owns at most one live gateway session. Start serializes session
// replacement under one lock: the previous session is destroyed and its
// termination awaited before the next login is attempted, so rapid
// repeated init requests can never leave two sessions ready at once.
type Manager struct {
	dial   Dialer
	logger *zap.Logger

	mu     sync.Mutex
	active *Session
}

// NewManager creates a session manager around a dialer
func NewManager(dial Dialer) *Manager {
	return &Manager{
		dial:   dial,
		logger: logger.Get(),
	}
}

// Start replaces any active session with a new one
func (m *Manager) Start(ctx context.Context, creds Credentials) (*Session, error) {
	if creds.BotToken == "" {
		return nil, apperrors.NewConfigMissingRequired("botToken")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if prev := m.active; prev != nil {
		m.logger.Info("Replacing active session", zap.String("session_id", prev.ID))
		if err := prev.Destroy(); err != nil {
			m.logger.Warn("Previous session close reported error",
				zap.String("session_id", prev.ID),
				zap.Error(err),
			)
		}
		<-prev.Done()
		m.active = nil
	}

	s := newSession(m.logger)
	conn, err := m.dial(ctx, creds, s)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	if err := conn.Open(); err != nil {
		_ = s.Destroy()
		return nil, apperrors.NewGatewayLoginFailed(err)
	}

	m.active = s
	m.logger.Info("Session started", zap.String("session_id", s.ID))
	return s, nil
}

// Active returns the current session, or nil when none is live
func (m *Manager) Active() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Shutdown destroys the active session, if any, and waits for it
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return
	}
	_ = m.active.Destroy()
	<-m.active.Done()
	m.active = nil
}
