package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/opsdesk/dashboard/internal/api/metrics"
	"github.com/opsdesk/dashboard/internal/core/domain"
	"github.com/opsdesk/dashboard/internal/core/ports"
)

// ProfileResolver reads the role and approval flag of a user. Every call is a
// fresh round trip: no retry, no caching.
type ProfileResolver struct {
	profiles ports.ProfileRepository
	log      zerolog.Logger
}

// NewProfileResolver returns a ProfileResolver.
func NewProfileResolver(profiles ports.ProfileRepository, log zerolog.Logger) *ProfileResolver {
	return &ProfileResolver{profiles: profiles, log: log}
}

// Resolve returns the user's access fields. Failures (missing row, policy
// denial, transport) wrap domain.ErrProfileUnavailable and the cause.
func (r *ProfileResolver) Resolve(ctx context.Context, userID string) (domain.ProfileAccess, error) {
	start := time.Now()

	access, err := r.profiles.GetAccess(ctx, userID)
	if err != nil {
		metrics.ProfileResolveDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		r.log.Error().Err(err).Str("user_id", userID).Msg("profile role lookup failed")
		return domain.ProfileAccess{}, fmt.Errorf("resolve profile %s: %w: %w", userID, domain.ErrProfileUnavailable, err)
	}

	metrics.ProfileResolveDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())
	return *access, nil
}
