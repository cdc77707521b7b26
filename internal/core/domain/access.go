package domain

// AccessKind enumerates the outcomes of the access gate.
type AccessKind string

const (
	AccessLoading         AccessKind = "loading"
	AccessUnauthenticated AccessKind = "unauthenticated"
	AccessPendingApproval AccessKind = "pending_approval"
	AccessAuthorized      AccessKind = "authorized"
	AccessUndetermined    AccessKind = "undetermined"
)

// AccessDecision is the gate's verdict. Role is set only for AccessAuthorized.
type AccessDecision struct {
	Kind AccessKind `json:"kind"`
	Role string     `json:"role,omitempty"`
}

// Authorized reports whether the decision grants access as one of roles
// (any role when none are given).
func (d AccessDecision) Authorized(roles ...string) bool {
	if d.Kind != AccessAuthorized {
		return false
	}
	if len(roles) == 0 {
		return true
	}
	for _, r := range roles {
		if r == d.Role {
			return true
		}
	}
	return false
}

// Decide maps an auth state to an access decision. It has no side effects.
// While the state is loading the result is AccessLoading, which is not a
// decision and must not be rendered as one.
//
// Admins are authorized regardless of their approval flag. A signed-in user
// whose role could not be read, or whose role is not one the dashboard knows,
// is Undetermined: neither allowed nor denied.
func Decide(s AuthState) AccessDecision {
	if s.IsLoading {
		return AccessDecision{Kind: AccessLoading}
	}
	if s.User == nil {
		return AccessDecision{Kind: AccessUnauthenticated}
	}
	if s.Role == nil {
		return AccessDecision{Kind: AccessUndetermined}
	}

	switch *s.Role {
	case RoleAdmin:
		return AccessDecision{Kind: AccessAuthorized, Role: RoleAdmin}
	case RoleUser:
		if s.IsApproved == nil {
			return AccessDecision{Kind: AccessUndetermined}
		}
		if *s.IsApproved {
			return AccessDecision{Kind: AccessAuthorized, Role: RoleUser}
		}
		return AccessDecision{Kind: AccessPendingApproval}
	default:
		return AccessDecision{Kind: AccessUndetermined}
	}
}
