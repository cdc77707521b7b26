package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/opsdesk/dashboard/internal/core/domain"
)

const (
	roleAuthenticated = "authenticated"
	roleService       = "service_role"

	insufficientPrivilege = "42501"
)

var (
	// ErrNoCaller is returned when ctx carries no access token.
	ErrNoCaller = errors.New("no caller in context")
	// ErrPolicyDenied marks statements refused by a row-level policy or grant.
	ErrPolicyDenied = errors.New("denied by database policy")
)

// TokenVerifier turns an access token into the claims the policies read.
type TokenVerifier interface {
	Verify(token string) (domain.Claims, error)
}

// Executor runs statements as the caller carried in ctx, so the backend's
// row-level-security policies apply exactly as they would for the hosted
// REST layer.
type Executor struct {
	db       *sql.DB
	verifier TokenVerifier
	log      zerolog.Logger
}

func NewExecutor(db *sql.DB, verifier TokenVerifier, log zerolog.Logger) *Executor {
	return &Executor{db: db, verifier: verifier, log: log}
}

// Ping checks the pool.
func (e *Executor) Ping(ctx context.Context) error {
	return e.db.PingContext(ctx)
}

type jwtClaims struct {
	Sub   string `json:"sub"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
}

// asCaller runs fn inside a transaction scoped to the caller's claims and
// database role. The settings are transaction-local and vanish on commit.
func (e *Executor) asCaller(ctx context.Context, readOnly bool, fn func(tx *sql.Tx) error) error {
	token, ok := domain.AccessTokenFrom(ctx)
	if !ok {
		return ErrNoCaller
	}
	claims, err := e.verifier.Verify(token)
	if err != nil {
		return err
	}

	rawClaims, err := json.Marshal(jwtClaims{Sub: claims.Subject, Email: claims.Email, Role: claims.Role})
	if err != nil {
		return fmt.Errorf("encode claims: %w", err)
	}
	dbRole := roleAuthenticated
	if claims.Role == roleService {
		dbRole = roleService
	}

	tx, err := e.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: readOnly})
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `SELECT set_config('request.jwt.claims', $1, true)`, string(rawClaims)); err != nil {
		return e.classify(err, claims)
	}
	if _, err := tx.ExecContext(ctx, "SET LOCAL ROLE "+pq.QuoteIdentifier(dbRole)); err != nil {
		return e.classify(err, claims)
	}

	if err := fn(tx); err != nil {
		return e.classify(err, claims)
	}
	if err := tx.Commit(); err != nil {
		return e.classify(err, claims)
	}
	return nil
}

// classify tags policy denials so they can be told apart in logs. Callers
// still handle them like any other store failure.
func (e *Executor) classify(err error, claims domain.Claims) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == insufficientPrivilege {
		e.log.Warn().
			Str("pg_code", string(pqErr.Code)).
			Str("sub", claims.Subject).
			Str("table", pqErr.Table).
			Msg("statement denied by database policy")
		return fmt.Errorf("%w: %s", ErrPolicyDenied, pqErr.Message)
	}
	return err
}
