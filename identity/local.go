package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/upb/kitchen-dashboard/models"
	"github.com/upb/kitchen-dashboard/repositories"
	"golang.org/x/crypto/bcrypt"
)

// LocalIssuer is the iss claim of tokens minted by LocalProvider.
const LocalIssuer = "kitchen-dashboard"

// CredentialStore looks staff up by email for password checks.
type CredentialStore interface {
	GetByEmail(ctx context.Context, email string) (*models.StaffMember, error)
}

// LocalConfig holds configuration for LocalProvider
type LocalConfig struct {
	Secret   []byte
	TokenTTL time.Duration
}

// LocalProvider checks bcrypt password hashes stored on staff_members and
// issues its own HS256 tokens. It stands in for the hosted provider in
// development and on-premise installs.
type LocalProvider struct {
	store    CredentialStore
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
	verifier *TokenVerifier
}

// NewLocalProvider creates a new local provider
func NewLocalProvider(store CredentialStore, cfg LocalConfig) *LocalProvider {
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = 12 * time.Hour
	}
	return &LocalProvider{
		store:  store,
		secret: cfg.Secret,
		ttl:    cfg.TokenTTL,
		now:    time.Now,
		verifier: NewTokenVerifier(VerifierConfig{
			Issuer:     LocalIssuer,
			Audience:   SupabaseAudience,
			HMACSecret: cfg.Secret,
		}),
	}
}

// Name returns the provider name
func (p *LocalProvider) Name() string {
	return ProviderLocal
}

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// compareDummy spends the same bcrypt work on unknown emails as on known ones.
func compareDummy(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("kitchen-dashboard"), bcrypt.DefaultCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

// SignIn checks the password against the stored hash and issues a token
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Token, error) {
	staff, err := p.store.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			compareDummy(password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: credential lookup: %v", ErrUnavailable, err)
	}

	if staff.PasswordHash == "" {
		compareDummy(password)
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(staff.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return p.issue(staff)
}

func (p *LocalProvider) issue(staff *models.StaffMember) (*Token, error) {
	now := p.now()
	expiresAt := now.Add(p.ttl)

	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   staff.ID.String(),
			Issuer:    LocalIssuer,
			Audience:  jwt.ClaimStrings{SupabaseAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email: staff.Email,
		Role:  SupabaseAudience,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &Token{
		AccessToken: signed,
		ExpiresAt:   expiresAt,
		Subject:     staff.ID,
	}, nil
}

// SignOut is a no-op: local tokens are stateless. The session store keeps
// the signed-out token revoked until it expires.
func (p *LocalProvider) SignOut(context.Context, string) error {
	return nil
}

// Verify validates a token minted by this provider
func (p *LocalProvider) Verify(ctx context.Context, accessToken string) (*Claims, error) {
	return p.verifier.Verify(ctx, accessToken)
}

// HashPassword returns the bcrypt hash stored in staff_members.password_hash
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
