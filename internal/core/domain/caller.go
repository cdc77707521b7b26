package domain

import "context"

// unexported, collision-proof context key
type accessTokenKeyType struct{}

var accessTokenKey = accessTokenKeyType{}

// WithAccessToken attaches the caller's access token to ctx. Stores run their
// statements as this caller so the backend's row-level policies apply.
func WithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, accessTokenKey, token)
}

// AccessTokenFrom extracts the caller's access token from ctx.
func AccessTokenFrom(ctx context.Context) (string, bool) {
	tok, ok := ctx.Value(accessTokenKey).(string)
	return tok, ok && tok != ""
}
