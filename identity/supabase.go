package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SupabaseAudience is the aud claim GoTrue puts on signed-in user tokens.
const SupabaseAudience = "authenticated"

// SupabaseConfig holds the hosted project settings
type SupabaseConfig struct {
	URL          string // project URL, e.g. https://abcd.supabase.co
	AnonKey      string
	JWTSecret    string // legacy HS256 secret; optional when the project publishes a JWKS
	JWKSCacheTTL time.Duration
	JWKSRefresh  time.Duration // minimum gap between refetches on an unknown kid
	HTTPTimeout  time.Duration
	HTTPClient   *http.Client
}

// passwordGrantResponse represents the GoTrue token endpoint response
type passwordGrantResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

// SupabaseProvider signs staff in through Supabase Auth (GoTrue)
type SupabaseProvider struct {
	authURL    string
	anonKey    string
	httpClient *http.Client
	verifier   *TokenVerifier
}

// NewSupabaseProvider creates a provider for the given project
func NewSupabaseProvider(cfg SupabaseConfig) *SupabaseProvider {
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = 10 * time.Second
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.HTTPTimeout}
	}

	authURL := strings.TrimSuffix(cfg.URL, "/") + "/auth/v1"

	var secret []byte
	if cfg.JWTSecret != "" {
		secret = []byte(cfg.JWTSecret)
	}

	return &SupabaseProvider{
		authURL:    authURL,
		anonKey:    cfg.AnonKey,
		httpClient: client,
		verifier: NewTokenVerifier(VerifierConfig{
			Issuer:          authURL,
			Audience:        SupabaseAudience,
			JWKSURL:         authURL + "/.well-known/jwks.json",
			HMACSecret:      secret,
			CacheTTL:        cfg.JWKSCacheTTL,
			RefreshInterval: cfg.JWKSRefresh,
			HTTPTimeout:     cfg.HTTPTimeout,
			HTTPClient:      client,
		}),
	}
}

// Name returns the provider name
func (p *SupabaseProvider) Name() string {
	return ProviderSupabase
}

// GetCacheStats reports the JWKS cache state
func (p *SupabaseProvider) GetCacheStats() map[string]interface{} {
	return p.verifier.GetCacheStats()
}

// SignIn exchanges an email and password for an access token
func (p *SupabaseProvider) SignIn(ctx context.Context, email, password string) (*Token, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, fmt.Errorf("encode sign-in request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.authURL+"/token?grant_type=password", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create sign-in request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", p.anonKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: sign-in request failed: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read sign-in response: %v", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusBadRequest,
		resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusUnprocessableEntity:
		return nil, ErrInvalidCredentials
	default:
		return nil, fmt.Errorf("%w: sign-in failed with status %d", ErrUnavailable, resp.StatusCode)
	}

	var grant passwordGrantResponse
	if err := json.Unmarshal(respBody, &grant); err != nil {
		return nil, fmt.Errorf("%w: parse sign-in response: %v", ErrUnavailable, err)
	}
	if grant.AccessToken == "" {
		return nil, fmt.Errorf("%w: no access_token in response", ErrUnavailable)
	}

	sub, err := uuid.Parse(grant.User.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user id in sign-in response", ErrInvalidToken)
	}

	expiresAt := time.Unix(grant.ExpiresAt, 0)
	if grant.ExpiresAt == 0 {
		expiresAt = time.Now().Add(time.Duration(grant.ExpiresIn) * time.Second)
	}

	return &Token{
		AccessToken: grant.AccessToken,
		ExpiresAt:   expiresAt,
		Subject:     sub,
	}, nil
}

// SignOut revokes the refresh tokens of the session behind accessToken
func (p *SupabaseProvider) SignOut(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.authURL+"/logout", nil)
	if err != nil {
		return fmt.Errorf("create sign-out request: %w", err)
	}
	req.Header.Set("apikey", p.anonKey)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: sign-out request failed: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	// An already invalid token has nothing left to revoke.
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: sign-out failed with status %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}

// Verify validates an access token issued by the project
func (p *SupabaseProvider) Verify(ctx context.Context, accessToken string) (*Claims, error) {
	return p.verifier.Verify(ctx, accessToken)
}
