package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/opsdesk/dashboard/internal/api/metrics"
	"github.com/opsdesk/dashboard/internal/core/domain"
)

const defaultResolveTimeout = 10 * time.Second

// ErrMachineClosed is returned by WaitSettled once the machine is torn down.
var ErrMachineClosed = errors.New("auth state machine closed")

// SessionSource is the session store as seen by an auth machine.
type SessionSource interface {
	GetCurrentSession(ctx context.Context, sessionID string) *domain.Session
	Subscribe(sessionID string, onChange func(*domain.Session)) (unsubscribe func())
}

// RoleResolver resolves the access fields of a user.
type RoleResolver interface {
	Resolve(ctx context.Context, userID string) (domain.ProfileAccess, error)
}

// AuthMachineOption customizes an AuthMachine.
type AuthMachineOption func(*AuthMachine)

// WithResolveTimeout bounds each session lookup and profile resolution.
func WithResolveTimeout(d time.Duration) AuthMachineOption {
	return func(m *AuthMachine) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithStateObserver registers fn to receive every state the machine commits,
// in commit order. fn runs with the machine locked and must not call back
// into it.
func WithStateObserver(fn func(domain.AuthState)) AuthMachineOption {
	return func(m *AuthMachine) {
		m.observer = fn
	}
}

// AuthMachine owns the AuthState of one browser session. It is the only
// writer; readers get copies.
//
// Every observed identity (the seed lookup or an auth event) starts a new
// generation. A write is committed only while its generation is still the
// newest one, so a slow resolution for an older event can never overwrite the
// result of a newer one.
type AuthMachine struct {
	sessionID string
	sessions  SessionSource
	resolver  RoleResolver
	timeout   time.Duration
	observer  func(domain.AuthState)
	log       zerolog.Logger

	mu          sync.Mutex
	state       domain.AuthState
	generation  uint64
	closed      bool
	changed     chan struct{}
	unsubscribe func()

	startOnce sync.Once
	closeOnce sync.Once
}

// NewAuthMachine returns a machine in the loading state. Call Start to seed it.
func NewAuthMachine(sessionID string, sessions SessionSource, resolver RoleResolver, log zerolog.Logger, opts ...AuthMachineOption) *AuthMachine {
	m := &AuthMachine{
		sessionID: sessionID,
		sessions:  sessions,
		resolver:  resolver,
		timeout:   defaultResolveTimeout,
		log:       log.With().Str("session", shortID(sessionID)).Logger(),
		state:     domain.AuthState{IsLoading: true},
		changed:   make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Start subscribes to auth events and seeds the state from the current
// session. The seed takes the first generation, so any event observed after
// Start supersedes it.
func (m *AuthMachine) Start() {
	m.startOnce.Do(func() {
		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			return
		}
		m.generation++
		seed := m.generation
		m.mu.Unlock()

		unsubscribe := m.sessions.Subscribe(m.sessionID, m.onSessionChange)

		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			unsubscribe()
			return
		}
		m.unsubscribe = unsubscribe
		m.mu.Unlock()

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
			defer cancel()
			m.apply(ctx, seed, m.sessions.GetCurrentSession(ctx, m.sessionID))
		}()
	})
}

// Close releases the subscription. It is idempotent. Resolutions still in
// flight run to completion but their results are discarded.
func (m *AuthMachine) Close() {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		m.closed = true
		unsubscribe := m.unsubscribe
		m.unsubscribe = nil
		close(m.changed)
		m.mu.Unlock()

		if unsubscribe != nil {
			unsubscribe()
		}
	})
}

// Snapshot returns a copy of the current state.
func (m *AuthMachine) Snapshot() domain.AuthState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

// Changes returns a channel closed at the next committed write (or on Close).
func (m *AuthMachine) Changes() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.changed
}

// WaitSettled blocks until the state is no longer loading, the machine is
// closed, or ctx is done. The last snapshot is returned in every case.
func (m *AuthMachine) WaitSettled(ctx context.Context) (domain.AuthState, error) {
	for {
		m.mu.Lock()
		state := m.state.Clone()
		closed := m.closed
		changed := m.changed
		m.mu.Unlock()

		if !state.IsLoading {
			return state, nil
		}
		if closed {
			return state, ErrMachineClosed
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return m.Snapshot(), ctx.Err()
		}
	}
}

// onSessionChange runs on the event bus. It only opens a generation and hands
// the I/O to a goroutine, so delivery of the next event is never held up.
func (m *AuthMachine) onSessionChange(sess *domain.Session) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.generation++
	gen := m.generation
	m.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		m.apply(ctx, gen, sess)
	}()
}

func (m *AuthMachine) apply(ctx context.Context, gen uint64, sess *domain.Session) {
	if sess == nil {
		if m.commit(gen, func(s *domain.AuthState) { *s = domain.AuthState{} }) {
			metrics.AuthResolutionsTotal.WithLabelValues("signed_out").Inc()
		}
		return
	}

	user := sess.User
	started := m.commit(gen, func(s *domain.AuthState) {
		if s.User == nil || s.User.ID != user.ID {
			s.Role = nil
			s.IsApproved = nil
		}
		s.User = &user
		s.IsLoading = true
	})
	if !started {
		return
	}

	access, err := m.resolver.Resolve(domain.WithAccessToken(ctx, sess.AccessToken), user.ID)

	committed := m.commit(gen, func(s *domain.AuthState) {
		s.IsLoading = false
		if err != nil {
			s.Role = nil
			s.IsApproved = nil
			return
		}
		role, approved := access.Role, access.IsApproved
		s.Role = &role
		s.IsApproved = &approved
	})
	if !committed {
		return
	}

	if err != nil {
		metrics.AuthResolutionsTotal.WithLabelValues("failed").Inc()
		m.log.Warn().Err(err).Str("user_id", user.ID).Msg("role undetermined")
		return
	}
	metrics.AuthResolutionsTotal.WithLabelValues("settled").Inc()
	m.log.Debug().Str("user_id", user.ID).Str("role", access.Role).Bool("approved", access.IsApproved).Msg("auth state settled")
}

// signOut settles the state as signed out, superseding any resolution in
// flight.
func (m *AuthMachine) signOut() {
	m.mu.Lock()
	m.generation++
	gen := m.generation
	m.mu.Unlock()
	m.commit(gen, func(s *domain.AuthState) { *s = domain.AuthState{} })
}

// commit applies mutate if gen is still the newest generation and the
// machine is open. Readers observe the whole mutation or none of it.
func (m *AuthMachine) commit(gen uint64, mutate func(*domain.AuthState)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || gen != m.generation {
		metrics.AuthResolutionsTotal.WithLabelValues("discarded").Inc()
		return false
	}

	mutate(&m.state)
	if m.observer != nil {
		m.observer(m.state.Clone())
	}
	close(m.changed)
	m.changed = make(chan struct{})
	return true
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
