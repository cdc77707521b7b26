package domain

import "time"

// AuthEventKind names the auth service events a browser session can observe.
type AuthEventKind string

const (
	AuthEventInitialSession AuthEventKind = "initial_session"
	AuthEventSignedIn       AuthEventKind = "signed_in"
	AuthEventSignedOut      AuthEventKind = "signed_out"
	AuthEventTokenRefreshed AuthEventKind = "token_refreshed"
)

// AuthEvent is raised whenever the session behind a browser session changes.
// Session is nil for sign-out.
type AuthEvent struct {
	SessionID  string
	Kind       AuthEventKind
	Session    *Session
	OccurredAt time.Time
}
