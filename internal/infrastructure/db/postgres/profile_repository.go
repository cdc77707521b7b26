package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/opsdesk/dashboard/internal/core/domain"
)

const profileColumns = `id, full_name, role, is_approved, created_at`

// ProfileRepository reads and writes the profiles table.
type ProfileRepository struct {
	exec *Executor
}

func NewProfileRepository(exec *Executor) *ProfileRepository {
	return &ProfileRepository{exec: exec}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*domain.Profile, error) {
	var (
		p        domain.Profile
		fullName sql.NullString
		role     sql.NullString
		approved sql.NullBool
	)
	if err := row.Scan(&p.ID, &fullName, &role, &approved, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.FullName = fullName.String
	p.Role = role.String
	p.IsApproved = approved.Bool
	return &p, nil
}

// GetAccess reads only the fields the auth state needs.
func (r *ProfileRepository) GetAccess(ctx context.Context, userID string) (*domain.ProfileAccess, error) {
	var access *domain.ProfileAccess
	err := r.exec.asCaller(ctx, true, func(tx *sql.Tx) error {
		var (
			role     sql.NullString
			approved sql.NullBool
		)
		err := tx.QueryRowContext(ctx, `SELECT role, is_approved FROM profiles WHERE id = $1`, userID).Scan(&role, &approved)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrProfileNotFound
		}
		if err != nil {
			return fmt.Errorf("select profile access: %w", err)
		}
		access = &domain.ProfileAccess{Role: role.String, IsApproved: approved.Bool}
		return nil
	})
	return access, err
}

func (r *ProfileRepository) GetByID(ctx context.Context, userID string) (*domain.Profile, error) {
	var profile *domain.Profile
	err := r.exec.asCaller(ctx, true, func(tx *sql.Tx) error {
		p, err := scanProfile(tx.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, userID))
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrProfileNotFound
		}
		if err != nil {
			return fmt.Errorf("select profile: %w", err)
		}
		profile = p
		return nil
	})
	return profile, err
}

// ListAll returns every profile visible to the caller, newest first.
func (r *ProfileRepository) ListAll(ctx context.Context) ([]domain.Profile, error) {
	profiles := []domain.Profile{}
	err := r.exec.asCaller(ctx, true, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT `+profileColumns+` FROM profiles ORDER BY created_at DESC`)
		if err != nil {
			return fmt.Errorf("list profiles: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			p, err := scanProfile(rows)
			if err != nil {
				return fmt.Errorf("scan profile: %w", err)
			}
			profiles = append(profiles, *p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

// UpdateApproval sets role and is_approved on one profile and returns the row
// as written. A row hidden by policy reads as not found.
func (r *ProfileRepository) UpdateApproval(ctx context.Context, userID, role string, approved bool) (*domain.Profile, error) {
	var profile *domain.Profile
	err := r.exec.asCaller(ctx, false, func(tx *sql.Tx) error {
		p, err := scanProfile(tx.QueryRowContext(ctx,
			`UPDATE profiles SET role = $2, is_approved = $3 WHERE id = $1 RETURNING `+profileColumns,
			userID, role, approved,
		))
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrProfileNotFound
		}
		if err != nil {
			return fmt.Errorf("update profile approval: %w", err)
		}
		profile = p
		return nil
	})
	return profile, err
}

// CountPending counts non-admin profiles not yet approved.
func (r *ProfileRepository) CountPending(ctx context.Context) (int, error) {
	var n int
	err := r.exec.asCaller(ctx, true, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`SELECT count(*) FROM profiles WHERE coalesce(is_approved, false) = false AND coalesce(role, '') <> 'admin'`,
		).Scan(&n)
		if err != nil {
			return fmt.Errorf("count pending profiles: %w", err)
		}
		return nil
	})
	return n, err
}
