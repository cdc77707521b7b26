package domain

import "errors"

var (
	ErrProfileNotFound    = errors.New("profile not found")
	ErrProfileUnavailable = errors.New("profile unavailable")
	ErrNotCandidate       = errors.New("profile is not an approval candidate")
	ErrInvalidTransition  = errors.New("invalid approval transition")
	ErrInvalidRole        = errors.New("invalid role")
	ErrForbidden          = errors.New("access forbidden")
	ErrSessionNotFound    = errors.New("session not found")
	ErrAuthUnavailable    = errors.New("connection failed, check your network")
	ErrTaskNotFound       = errors.New("task not found")
	ErrInvalidTaskStatus  = errors.New("invalid task status")
	ErrInvalidPriority    = errors.New("invalid task priority")
	ErrInvalidTask        = errors.New("invalid task")
)

// AuthError is a rejection reported by the auth service (bad credentials,
// duplicate sign-up, expired refresh token). Message is shown to the user as is.
type AuthError struct {
	Status  int
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}
