package domain

import "time"

// ApprovalState is the persisted approval flag viewed as a workflow state.
// Rejection is not a state of its own: a rejected candidate stays pending.
type ApprovalState string

const (
	ApprovalPending  ApprovalState = "pending"
	ApprovalApproved ApprovalState = "approved"
)

// ApprovalOutcome labels what a decision did, for audit and UI messages.
type ApprovalOutcome string

const (
	OutcomeApproved    ApprovalOutcome = "approved"
	OutcomeRejected    ApprovalOutcome = "rejected"
	OutcomeRoleChanged ApprovalOutcome = "role_changed"
)

// validApprovalTransitions defines which approval states a decision may lead to.
var validApprovalTransitions = map[ApprovalState][]ApprovalState{
	ApprovalPending:  {ApprovalPending, ApprovalApproved},
	ApprovalApproved: {ApprovalApproved},
}

// StateOf returns the approval state of a profile.
func StateOf(p Profile) ApprovalState {
	if p.IsApproved {
		return ApprovalApproved
	}
	return ApprovalPending
}

// CanTransitionTo reports whether a decision may move s to next.
func (s ApprovalState) CanTransitionTo(next ApprovalState) bool {
	for _, allowed := range validApprovalTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// OutcomeOf classifies a decision taken on a profile currently in from.
func OutcomeOf(from ApprovalState, approve bool) ApprovalOutcome {
	switch {
	case from == ApprovalApproved:
		return OutcomeRoleChanged
	case approve:
		return OutcomeApproved
	default:
		return OutcomeRejected
	}
}

// ApprovalEvent is the audit record of one admin decision.
type ApprovalEvent struct {
	TargetID     string          `json:"target_id"`
	ActorID      string          `json:"actor_id"`
	Outcome      ApprovalOutcome `json:"outcome"`
	FromRole     string          `json:"from_role"`
	ToRole       string          `json:"to_role"`
	FromApproved bool            `json:"from_approved"`
	ToApproved   bool            `json:"to_approved"`
	OccurredAt   time.Time       `json:"occurred_at"`
}

// DecisionResult is returned after an admin decision has been written.
// Candidates is re-read from the store; Stale is set when that read failed.
type DecisionResult struct {
	Profile    Profile         `json:"profile"`
	Outcome    ApprovalOutcome `json:"outcome"`
	Candidates Candidates      `json:"candidates"`
	Stale      bool            `json:"stale"`
}
