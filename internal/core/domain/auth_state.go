package domain

// AuthState is the reconciled view of who is signed in and what they may do.
// Role and IsApproved are nil when there is no user or when the profile could
// not be resolved.
type AuthState struct {
	User       *UserIdentity `json:"user"`
	Role       *string       `json:"role"`
	IsApproved *bool         `json:"is_approved"`
	IsLoading  bool          `json:"is_loading"`
}

// Clone returns a deep copy so readers never share pointers with the writer.
func (s AuthState) Clone() AuthState {
	out := AuthState{IsLoading: s.IsLoading}
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	if s.Role != nil {
		r := *s.Role
		out.Role = &r
	}
	if s.IsApproved != nil {
		a := *s.IsApproved
		out.IsApproved = &a
	}
	return out
}

// UserID returns the signed-in user's id or "".
func (s AuthState) UserID() string {
	if s.User == nil {
		return ""
	}
	return s.User.ID
}
