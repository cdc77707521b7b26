package domain

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// ValidRole reports whether role is one the dashboard knows how to gate.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleUser
}

// Profile is a row of the profiles table.
type Profile struct {
	ID         string    `json:"id"`
	FullName   string    `json:"full_name"`
	Role       string    `json:"role"`
	IsApproved bool      `json:"is_approved"`
	CreatedAt  time.Time `json:"created_at"`
}

// IsPending reports whether the profile still waits for an admin decision.
func (p Profile) IsPending() bool {
	return !p.IsApproved
}

// ProfileAccess is the subset of a profile the auth state machine reads.
type ProfileAccess struct {
	Role       string
	IsApproved bool
}

// Candidates is the approval list shown to admins, newest registrant first.
type Candidates struct {
	All      []Profile `json:"all"`
	Pending  []Profile `json:"pending"`
	Resolved []Profile `json:"resolved"`
}

// NewCandidates drops admins from profiles (keeping order) and partitions the
// rest by approval state.
func NewCandidates(profiles []Profile) Candidates {
	c := Candidates{
		All:      make([]Profile, 0, len(profiles)),
		Pending:  []Profile{},
		Resolved: []Profile{},
	}
	for _, p := range profiles {
		if p.Role == RoleAdmin {
			continue
		}
		c.All = append(c.All, p)
		if p.IsApproved {
			c.Resolved = append(c.Resolved, p)
		} else {
			c.Pending = append(c.Pending, p)
		}
	}
	return c
}
