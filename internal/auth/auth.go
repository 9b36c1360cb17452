// Package auth provides request authentication for the item API.
package auth

import (
	"context"
	"errors"
	"net/http"
)

// AuthMethod identifies how a request was authenticated.
type AuthMethod string

// Supported authentication methods.
const (
	AuthMethodNone   AuthMethod = "none"
	AuthMethodBasic  AuthMethod = "basic"
	AuthMethodAPIKey AuthMethod = "apikey"
)

// AuthInfo holds the authenticated identity extracted from a request.
type AuthInfo struct {
	Method  AuthMethod
	Subject string
}

// Authenticator validates the credentials on a request. Implementations hold
// their credential material at construction and are safe for concurrent use.
type Authenticator interface {
	Authenticate(r *http.Request) (*AuthInfo, error)
	Method() AuthMethod
}

// Sentinel errors for authentication failures.
var (
	ErrUnauthenticated    = errors.New("unauthenticated: no credentials provided")
	ErrInvalidAPIKey      = errors.New("invalid API key")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// contextKey is the type for context keys in this package.
type contextKey string

const authInfoKey contextKey = "auth_info"

// FromContext retrieves the AuthInfo stored by the auth middleware, if any.
func FromContext(ctx context.Context) (*AuthInfo, bool) {
	info, ok := ctx.Value(authInfoKey).(*AuthInfo)
	return info, ok
}

// WithAuthInfo stores AuthInfo in the context.
func WithAuthInfo(ctx context.Context, info *AuthInfo) context.Context {
	return context.WithValue(ctx, authInfoKey, info)
}
