package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/opsdesk/dashboard/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubSessionSource struct {
	mu           sync.Mutex
	current      *domain.Session
	listeners    []func(*domain.Session)
	unsubscribed int
}

func (s *stubSessionSource) GetCurrentSession(_ context.Context, _ string) *domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *stubSessionSource) Subscribe(_ string, fn func(*domain.Session)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
	idx := len(s.listeners) - 1
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.unsubscribed++
		s.listeners[idx] = nil
	}
}

func (s *stubSessionSource) emit(sess *domain.Session) {
	s.mu.Lock()
	listeners := append([]func(*domain.Session){}, s.listeners...)
	s.mu.Unlock()
	for _, fn := range listeners {
		if fn != nil {
			fn(sess)
		}
	}
}

func (s *stubSessionSource) unsubscribeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unsubscribed
}

type resolveResult struct {
	access domain.ProfileAccess
	err    error
}

type stubResolver struct {
	mu       sync.Mutex
	results  map[string]resolveResult
	gates    map[string]chan struct{}
	returned map[string]chan struct{}
	tokens   map[string]string
}

func newStubResolver() *stubResolver {
	return &stubResolver{
		results:  make(map[string]resolveResult),
		gates:    make(map[string]chan struct{}),
		returned: make(map[string]chan struct{}),
		tokens:   make(map[string]string),
	}
}

func (r *stubResolver) set(userID, role string, approved bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[userID] = resolveResult{access: domain.ProfileAccess{Role: role, IsApproved: approved}}
}

func (r *stubResolver) fail(userID string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[userID] = resolveResult{err: err}
}

// hold makes the next resolutions of userID block until the returned func is called.
func (r *stubResolver) hold(userID string) (release func(), returned <-chan struct{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	gate := make(chan struct{})
	done := make(chan struct{})
	r.gates[userID] = gate
	r.returned[userID] = done
	return func() { close(gate) }, done
}

func (r *stubResolver) Resolve(ctx context.Context, userID string) (domain.ProfileAccess, error) {
	r.mu.Lock()
	gate := r.gates[userID]
	done := r.returned[userID]
	delete(r.gates, userID)
	delete(r.returned, userID)
	if tok, ok := domain.AccessTokenFrom(ctx); ok {
		r.tokens[userID] = tok
	}
	r.mu.Unlock()

	if gate != nil {
		<-gate
	}

	r.mu.Lock()
	res, ok := r.results[userID]
	r.mu.Unlock()
	if done != nil {
		defer close(done)
	}
	if !ok {
		return domain.ProfileAccess{}, domain.ErrProfileNotFound
	}
	return res.access, res.err
}

func sessionFor(id, email string) *domain.Session {
	return &domain.Session{
		User:        domain.UserIdentity{ID: id, Email: email},
		AccessToken: "token-" + id,
	}
}

func newTestMachine(src *stubSessionSource, res *stubResolver, opts ...AuthMachineOption) *AuthMachine {
	return NewAuthMachine("session-1234567890", src, res, zerolog.Nop(), opts...)
}

func waitSettled(t *testing.T, m *AuthMachine) domain.AuthState {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s, err := m.WaitSettled(ctx)
	if err != nil {
		t.Fatalf("WaitSettled: %v", err)
	}
	return s
}

func waitUntil(t *testing.T, m *AuthMachine, cond func(domain.AuthState) bool) domain.AuthState {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		changed := m.Changes()
		s := m.Snapshot()
		if cond(s) {
			return s
		}
		select {
		case <-changed:
		case <-deadline:
			t.Fatalf("condition not reached, last state: %+v", s)
		}
	}
}

func roleOf(s domain.AuthState) string {
	if s.Role == nil {
		return "<nil>"
	}
	return *s.Role
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestAuthMachine_StartsLoading(t *testing.T) {
	m := newTestMachine(&stubSessionSource{}, newStubResolver())
	if s := m.Snapshot(); !s.IsLoading || s.User != nil {
		t.Fatalf("expected loading state before start, got %+v", s)
	}
}

func TestAuthMachine_SeedsFromCurrentSession(t *testing.T) {
	src := &stubSessionSource{current: sessionFor("u-a", "a@example.com")}
	res := newStubResolver()
	res.set("u-a", domain.RoleAdmin, true)

	m := newTestMachine(src, res)
	m.Start()
	defer m.Close()

	s := waitSettled(t, m)
	if s.User == nil || s.User.ID != "u-a" {
		t.Fatalf("expected user u-a, got %+v", s.User)
	}
	if roleOf(s) != domain.RoleAdmin || s.IsApproved == nil || !*s.IsApproved {
		t.Fatalf("unexpected access fields: role=%s approved=%v", roleOf(s), s.IsApproved)
	}
	if res.tokens["u-a"] != "token-u-a" {
		t.Fatalf("resolver did not receive the caller token, got %q", res.tokens["u-a"])
	}
}

func TestAuthMachine_NoSessionSettlesUnauthenticated(t *testing.T) {
	m := newTestMachine(&stubSessionSource{}, newStubResolver())
	m.Start()
	defer m.Close()

	s := waitSettled(t, m)
	if s.User != nil || s.Role != nil || s.IsApproved != nil {
		t.Fatalf("expected empty state, got %+v", s)
	}
	if d := domain.Decide(s); d.Kind != domain.AccessUnauthenticated {
		t.Fatalf("expected unauthenticated, got %s", d.Kind)
	}
}

func TestAuthMachine_LastEventWins(t *testing.T) {
	src := &stubSessionSource{}
	res := newStubResolver()
	res.set("u-a", domain.RoleAdmin, true)
	res.set("u-b", domain.RoleUser, false)

	m := newTestMachine(src, res)
	m.Start()
	defer m.Close()
	waitSettled(t, m)

	releaseA, returnedA := res.hold("u-a")
	releaseB, _ := res.hold("u-b")

	src.emit(sessionFor("u-a", "a@example.com"))
	waitUntil(t, m, func(s domain.AuthState) bool { return s.UserID() == "u-a" && s.IsLoading })
	src.emit(sessionFor("u-b", "b@example.com"))
	waitUntil(t, m, func(s domain.AuthState) bool { return s.UserID() == "u-b" && s.IsLoading })

	// B's resolution completes first, A's afterwards.
	releaseB()
	s := waitSettled(t, m)
	if s.UserID() != "u-b" || roleOf(s) != domain.RoleUser {
		t.Fatalf("expected B's profile, got user=%s role=%s", s.UserID(), roleOf(s))
	}

	releaseA()
	<-returnedA
	time.Sleep(20 * time.Millisecond)

	s = m.Snapshot()
	if s.UserID() != "u-b" || roleOf(s) != domain.RoleUser || s.IsApproved == nil || *s.IsApproved {
		t.Fatalf("stale resolution for A overwrote B: %+v role=%s", s.User, roleOf(s))
	}
	if d := domain.Decide(s); d.Kind != domain.AccessPendingApproval {
		t.Fatalf("expected pending approval for B, got %s", d.Kind)
	}
}

func TestAuthMachine_SignOutClearsRoleInSameWrite(t *testing.T) {
	src := &stubSessionSource{current: sessionFor("u-a", "a@example.com")}
	res := newStubResolver()
	res.set("u-a", domain.RoleAdmin, true)

	var mu sync.Mutex
	var observed []domain.AuthState
	m := newTestMachine(src, res, WithStateObserver(func(s domain.AuthState) {
		mu.Lock()
		observed = append(observed, s)
		mu.Unlock()
	}))
	m.Start()
	defer m.Close()
	waitSettled(t, m)

	src.emit(nil)
	s := waitUntil(t, m, func(s domain.AuthState) bool { return s.User == nil })

	if s.Role != nil || s.IsApproved != nil || s.IsLoading {
		t.Fatalf("expected fully cleared state, got %+v", s)
	}

	mu.Lock()
	defer mu.Unlock()
	for i, st := range observed {
		if st.User == nil && (st.Role != nil || st.IsApproved != nil) {
			t.Fatalf("state %d exposed a role without a user: %+v", i, st)
		}
	}
}

func TestAuthMachine_IdentityChangeNeverShowsPreviousRole(t *testing.T) {
	src := &stubSessionSource{current: sessionFor("u-a", "a@example.com")}
	res := newStubResolver()
	res.set("u-a", domain.RoleAdmin, true)
	res.set("u-b", domain.RoleUser, true)

	var mu sync.Mutex
	var observed []domain.AuthState
	m := newTestMachine(src, res, WithStateObserver(func(s domain.AuthState) {
		mu.Lock()
		observed = append(observed, s)
		mu.Unlock()
	}))
	m.Start()
	defer m.Close()
	waitSettled(t, m)

	src.emit(sessionFor("u-b", "b@example.com"))
	waitUntil(t, m, func(s domain.AuthState) bool { return s.UserID() == "u-b" && !s.IsLoading })

	mu.Lock()
	defer mu.Unlock()
	for _, st := range observed {
		if st.UserID() == "u-b" && roleOf(st) == domain.RoleAdmin {
			t.Fatalf("user B observed with A's admin role: %+v", st)
		}
	}
}

func TestAuthMachine_TokenRefreshKeepsRoleWhileLoading(t *testing.T) {
	src := &stubSessionSource{current: sessionFor("u-a", "a@example.com")}
	res := newStubResolver()
	res.set("u-a", domain.RoleUser, false)

	m := newTestMachine(src, res)
	m.Start()
	defer m.Close()
	waitSettled(t, m)

	// The admin approves the user; the next refresh picks it up.
	res.set("u-a", domain.RoleUser, true)
	release, _ := res.hold("u-a")
	src.emit(sessionFor("u-a", "a@example.com"))

	s := waitUntil(t, m, func(s domain.AuthState) bool { return s.IsLoading })
	if roleOf(s) != domain.RoleUser {
		t.Fatalf("expected role kept during refresh of the same user, got %s", roleOf(s))
	}

	release()
	s = waitSettled(t, m)
	if d := domain.Decide(s); d.Kind != domain.AccessAuthorized || d.Role != domain.RoleUser {
		t.Fatalf("expected authorized user after refresh, got %+v", d)
	}
}

func TestAuthMachine_ResolverFailureLeavesRoleUndetermined(t *testing.T) {
	src := &stubSessionSource{current: sessionFor("u-a", "a@example.com")}
	res := newStubResolver()
	res.fail("u-a", errors.New("connection refused"))

	m := newTestMachine(src, res)
	m.Start()
	defer m.Close()

	s := waitSettled(t, m)
	if s.User == nil || s.Role != nil || s.IsApproved != nil || s.IsLoading {
		t.Fatalf("expected user with nil role fields, got %+v", s)
	}
	if d := domain.Decide(s); d.Kind != domain.AccessUndetermined {
		t.Fatalf("expected undetermined, got %s", d.Kind)
	}
}

func TestAuthMachine_SupersededFailureDoesNotLeak(t *testing.T) {
	src := &stubSessionSource{}
	res := newStubResolver()
	res.fail("u-a", errors.New("policy denied"))
	res.set("u-b", domain.RoleAdmin, true)

	m := newTestMachine(src, res)
	m.Start()
	defer m.Close()
	waitSettled(t, m)

	releaseA, returnedA := res.hold("u-a")
	src.emit(sessionFor("u-a", "a@example.com"))
	waitUntil(t, m, func(s domain.AuthState) bool { return s.UserID() == "u-a" })
	src.emit(sessionFor("u-b", "b@example.com"))

	s := waitUntil(t, m, func(s domain.AuthState) bool { return s.UserID() == "u-b" && !s.IsLoading })
	if roleOf(s) != domain.RoleAdmin {
		t.Fatalf("expected B settled as admin, got %s", roleOf(s))
	}

	releaseA()
	<-returnedA
	time.Sleep(20 * time.Millisecond)

	s = m.Snapshot()
	if s.UserID() != "u-b" || roleOf(s) != domain.RoleAdmin {
		t.Fatalf("A's failure contaminated B's state: user=%s role=%s", s.UserID(), roleOf(s))
	}
}

func TestAuthMachine_SupersededSuccessDoesNotMaskFailure(t *testing.T) {
	src := &stubSessionSource{}
	res := newStubResolver()
	res.set("u-a", domain.RoleAdmin, true)
	res.fail("u-b", errors.New("row missing"))

	m := newTestMachine(src, res)
	m.Start()
	defer m.Close()
	waitSettled(t, m)

	releaseA, returnedA := res.hold("u-a")
	src.emit(sessionFor("u-a", "a@example.com"))
	waitUntil(t, m, func(s domain.AuthState) bool { return s.UserID() == "u-a" })
	src.emit(sessionFor("u-b", "b@example.com"))
	waitUntil(t, m, func(s domain.AuthState) bool { return s.UserID() == "u-b" && !s.IsLoading })

	releaseA()
	<-returnedA
	time.Sleep(20 * time.Millisecond)

	if d := domain.Decide(m.Snapshot()); d.Kind != domain.AccessUndetermined {
		t.Fatalf("expected B to remain undetermined, got %+v", d)
	}
}

func TestAuthMachine_CloseIsIdempotent(t *testing.T) {
	src := &stubSessionSource{}
	m := newTestMachine(src, newStubResolver())
	m.Start()
	waitSettled(t, m)

	m.Close()
	m.Close()

	if n := src.unsubscribeCount(); n != 1 {
		t.Fatalf("expected exactly one unsubscribe, got %d", n)
	}
}

func TestAuthMachine_CloseDiscardsInFlightResolution(t *testing.T) {
	src := &stubSessionSource{}
	res := newStubResolver()
	res.set("u-a", domain.RoleAdmin, true)

	m := newTestMachine(src, res)
	m.Start()
	waitSettled(t, m)

	release, returned := res.hold("u-a")
	src.emit(sessionFor("u-a", "a@example.com"))
	waitUntil(t, m, func(s domain.AuthState) bool { return s.IsLoading })

	m.Close()
	release()
	<-returned
	time.Sleep(20 * time.Millisecond)

	s := m.Snapshot()
	if s.Role != nil || !s.IsLoading {
		t.Fatalf("state mutated after close: %+v", s)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := m.WaitSettled(ctx); !errors.Is(err, ErrMachineClosed) {
		t.Fatalf("expected ErrMachineClosed, got %v", err)
	}
}

func TestAuthMachine_CloseBeforeStart(t *testing.T) {
	src := &stubSessionSource{}
	m := newTestMachine(src, newStubResolver())
	m.Close()
	m.Start()

	if n := src.unsubscribeCount(); n != 0 {
		t.Fatalf("closed machine must not subscribe, got %d unsubscribes", n)
	}
	src.mu.Lock()
	defer src.mu.Unlock()
	if len(src.listeners) != 0 {
		t.Fatalf("closed machine registered a listener")
	}
}
