package domain

import "time"

// UserIdentity is the authenticated principal issued by the auth service.
type UserIdentity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is the auth service session held for one browser session.
// Only User is read by the core; the tokens travel to the stores.
type Session struct {
	User         UserIdentity `json:"user"`
	AccessToken  string       `json:"-"`
	RefreshToken string       `json:"-"`
	ExpiresAt    time.Time    `json:"expires_at"`
}

// Identity returns the session's user, or nil for a nil session.
func (s *Session) Identity() *UserIdentity {
	if s == nil {
		return nil
	}
	u := s.User
	return &u
}

// StoredSession is what the dashboard persists per browser session.
// ExpiresAt bounds the browser session; TokenExpiresAt is the access token's
// own expiry and is zero when the auth service did not report one.
type StoredSession struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Email          string    `json:"email"`
	AccessToken    string    `json:"access_token"`
	RefreshToken   string    `json:"refresh_token"`
	TokenExpiresAt time.Time `json:"token_expires_at"`
	ExpiresAt      time.Time `json:"expires_at"`
	CreatedAt      time.Time `json:"created_at"`
}

// TokenExpiresWithin reports whether the access token expires before
// now+margin. An unknown expiry never counts as expiring.
func (s *StoredSession) TokenExpiresWithin(now time.Time, margin time.Duration) bool {
	if s.TokenExpiresAt.IsZero() {
		return false
	}
	return !now.Add(margin).Before(s.TokenExpiresAt)
}

// Claims are the verified claims of an access token.
type Claims struct {
	Subject string
	Email   string
	Role    string
}
