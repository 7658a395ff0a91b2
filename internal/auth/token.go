package auth

import (
	"context"
)

// loginResponse is the JSON body returned by the token exchange endpoint.
type loginResponse struct {
	Token string `json:"token"`
}

// TokenManager owns the "current token" contract consumed by the request
// pipeline: GetToken serves a cached token or refreshes it, InvalidateAll
// drops both the credential and token cache entries so the next GetToken
// performs a full refresh.
type TokenManager interface {
	GetToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) error
	InvalidateAll(ctx context.Context) error
}
