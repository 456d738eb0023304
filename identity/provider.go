// Package identity talks to the identity provider that owns staff
// credentials: it signs staff in and out and verifies the access tokens the
// dashboard receives on every request.
package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidCredentials is returned when the email/password pair is rejected
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidToken is returned when the token is malformed or its signature does not verify
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned when the token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrUnavailable is returned when the provider cannot confirm anything right
	// now: it is unreachable, timed out, or answered with a server error.
	ErrUnavailable = errors.New("identity provider unavailable")
)

// Provider names accepted by IDENTITY_PROVIDER.
const (
	ProviderSupabase = "supabase"
	ProviderLocal    = "local"
	ProviderNone     = "none"
)

// Token is the result of a successful sign-in.
type Token struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	Subject     uuid.UUID `json:"subject"`
}

// Claims are the verified contents of an access token.
type Claims struct {
	Subject   uuid.UUID
	Email     string
	Role      string // provider-level role, e.g. "authenticated"
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Verifier checks access tokens.
type Verifier interface {
	Verify(ctx context.Context, accessToken string) (*Claims, error)
}

// Provider signs staff in and out and verifies their tokens.
type Provider interface {
	Verifier

	// SignIn exchanges credentials for an access token
	SignIn(ctx context.Context, email, password string) (*Token, error)

	// SignOut revokes the session behind accessToken where the provider supports it
	SignOut(ctx context.Context, accessToken string) error

	// Name returns the provider name
	Name() string
}

// DisabledProvider is used when no identity provider is configured. Every
// token is rejected and sign-in reports the provider as unavailable.
type DisabledProvider struct{}

// Name returns the provider name
func (DisabledProvider) Name() string { return ProviderNone }

// SignIn always fails with ErrUnavailable
func (DisabledProvider) SignIn(context.Context, string, string) (*Token, error) {
	return nil, ErrUnavailable
}

// SignOut is a no-op
func (DisabledProvider) SignOut(context.Context, string) error { return nil }

// Verify always fails with ErrInvalidToken
func (DisabledProvider) Verify(context.Context, string) (*Claims, error) {
	return nil, ErrInvalidToken
}
