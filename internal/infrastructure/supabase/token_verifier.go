package supabase

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/opsdesk/dashboard/internal/core/domain"
)

// ErrInvalidToken is returned for tokens that fail verification.
var ErrInvalidToken = errors.New("invalid access token")

type accessClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenVerifier checks access tokens issued by the auth service against the
// project's JWT secret.
type TokenVerifier struct {
	secret []byte
}

func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret)}
}

// Verify validates signature and expiry and returns the claims that the
// database policies read.
func (v *TokenVerifier) Verify(token string) (domain.Claims, error) {
	claims := &accessClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tkn.Valid {
		return domain.Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Role == "" {
		return domain.Claims{}, fmt.Errorf("%w: missing role claim", ErrInvalidToken)
	}
	return domain.Claims{Subject: claims.Subject, Email: claims.Email, Role: claims.Role}, nil
}
