package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/opsdesk/dashboard/internal/api/metrics"
	"github.com/opsdesk/dashboard/internal/core/domain"
	"github.com/opsdesk/dashboard/internal/core/ports"
)

// ApprovalService implements the admin approval workflow. Every decision is
// written to the store and the candidate list is re-read afterwards; nothing
// is patched locally.
type ApprovalService struct {
	profiles ports.ProfileRepository
	audit    ports.ApprovalAuditRepository
	logger   zerolog.Logger
}

func NewApprovalService(profiles ports.ProfileRepository, audit ports.ApprovalAuditRepository, logger zerolog.Logger) *ApprovalService {
	return &ApprovalService{profiles: profiles, audit: audit, logger: logger}
}

// ListCandidates returns every non-admin profile, newest first. On a store
// failure the list is empty and the error is returned alongside it.
func (s *ApprovalService) ListCandidates(ctx context.Context) (domain.Candidates, error) {
	profiles, err := s.profiles.ListAll(ctx)
	if err != nil {
		metrics.StoreFallbacksTotal.WithLabelValues("profiles").Inc()
		s.logger.Error().Err(err).Msg("failed to list profiles")
		return domain.NewCandidates(nil), err
	}
	return domain.NewCandidates(profiles), nil
}

// Decide applies an admin decision to targetID. approve=false is a soft
// reject: the candidate keeps is_approved=false and stays pending.
func (s *ApprovalService) Decide(ctx context.Context, actorID, targetID string, approve bool, newRole string) (*domain.DecisionResult, error) {
	if !domain.ValidRole(newRole) {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidRole, newRole)
	}

	target, err := s.profiles.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target.Role == domain.RoleAdmin {
		return nil, domain.ErrNotCandidate
	}

	from := domain.StateOf(*target)
	to := domain.ApprovalPending
	if approve {
		to = domain.ApprovalApproved
	}
	// an approval is never revoked; approved users only get role changes
	if !from.CanTransitionTo(to) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, to)
	}

	updated, err := s.profiles.UpdateApproval(ctx, targetID, newRole, to == domain.ApprovalApproved)
	if err != nil {
		s.logger.Error().Err(err).Str("target_id", targetID).Msg("failed to update approval")
		return nil, err
	}

	outcome := domain.OutcomeOf(from, approve)
	metrics.ApprovalDecisionsTotal.WithLabelValues(string(outcome)).Inc()
	s.logger.Info().
		Str("actor_id", actorID).
		Str("target_id", targetID).
		Str("outcome", string(outcome)).
		Str("role", updated.Role).
		Msg("approval decision applied")

	s.recordAudit(ctx, &domain.ApprovalEvent{
		TargetID:     targetID,
		ActorID:      actorID,
		Outcome:      outcome,
		FromRole:     target.Role,
		ToRole:       updated.Role,
		FromApproved: target.IsApproved,
		ToApproved:   updated.IsApproved,
		OccurredAt:   time.Now().UTC(),
	})

	candidates, listErr := s.ListCandidates(ctx)
	return &domain.DecisionResult{
		Profile:    *updated,
		Outcome:    outcome,
		Candidates: candidates,
		Stale:      listErr != nil,
	}, nil
}

// PendingCount returns how many candidates still wait for a decision.
func (s *ApprovalService) PendingCount(ctx context.Context) (int, error) {
	return s.profiles.CountPending(ctx)
}

func (s *ApprovalService) recordAudit(ctx context.Context, event *domain.ApprovalEvent) {
	if s.audit == nil {
		return
	}
	if err := s.audit.InsertApprovalEvent(ctx, event); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.logger.Warn().Err(err).Str("target_id", event.TargetID).Msg("failed to record approval audit event")
	}
}
