package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/kitchen-dashboard/models"
	"github.com/upb/kitchen-dashboard/repositories"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fakeCredentialStore struct {
	members map[string]*models.StaffMember
	err     error
	lookups []string
}

func (s *fakeCredentialStore) GetByEmail(_ context.Context, email string) (*models.StaffMember, error) {
	s.lookups = append(s.lookups, email)
	if s.err != nil {
		return nil, s.err
	}
	m, ok := s.members[email]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return m, nil
}

func newLocalFixture(t *testing.T) (*LocalProvider, *fakeCredentialStore, *models.StaffMember) {
	t.Helper()
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)

	member := &models.StaffMember{
		ID:           uuid.New(),
		Email:        "cook@example.com",
		Role:         "kitchen_staff",
		PasswordHash: hash,
	}
	store := &fakeCredentialStore{members: map[string]*models.StaffMember{member.Email: member}}
	p := NewLocalProvider(store, LocalConfig{Secret: []byte(testSecret), TokenTTL: time.Hour})
	return p, store, member
}

func TestLocalProvider_SignInAndVerify(t *testing.T) {
	p, store, member := newLocalFixture(t)

	token, err := p.SignIn(context.Background(), "  Cook@Example.com ", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, member.ID, token.Subject)
	assert.NotEmpty(t, token.AccessToken)
	assert.WithinDuration(t, time.Now().Add(time.Hour), token.ExpiresAt, 5*time.Second)
	assert.Equal(t, []string{"cook@example.com"}, store.lookups)

	claims, err := p.Verify(context.Background(), token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, member.ID, claims.Subject)
	assert.Equal(t, member.Email, claims.Email)
	assert.Equal(t, SupabaseAudience, claims.Role)
	assert.Equal(t, ProviderLocal, p.Name())
}

func TestLocalProvider_SignInFailures(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		storeErr error
		noHash   bool
		expected error
	}{
		{name: "wrong password", email: "cook@example.com", password: "nope", expected: ErrInvalidCredentials},
		{name: "unknown email", email: "ghost@example.com", password: "s3cret", expected: ErrInvalidCredentials},
		{name: "member without password", email: "cook@example.com", password: "s3cret", noHash: true, expected: ErrInvalidCredentials},
		{name: "store failure", email: "cook@example.com", password: "s3cret", storeErr: errors.New("connection refused"), expected: ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, store, member := newLocalFixture(t)
			store.err = tt.storeErr
			if tt.noHash {
				member.PasswordHash = ""
			}

			token, err := p.SignIn(context.Background(), tt.email, tt.password)
			assert.Nil(t, token)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestLocalProvider_VerifyRejects(t *testing.T) {
	p, _, member := newLocalFixture(t)

	t.Run("expired token", func(t *testing.T) {
		p.now = func() time.Time { return time.Now().Add(-3 * time.Hour) }
		defer func() { p.now = time.Now }()

		token, err := p.issue(member)
		require.NoError(t, err)

		_, err = p.Verify(context.Background(), token.AccessToken)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		other := NewLocalProvider(&fakeCredentialStore{}, LocalConfig{Secret: []byte("another-secret-another-secret-!!")})
		token, err := other.issue(member)
		require.NoError(t, err)

		_, err = p.Verify(context.Background(), token.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := p.Verify(context.Background(), "not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestLocalProvider_SignOutIsNoop(t *testing.T) {
	p, _, _ := newLocalFixture(t)
	assert.NoError(t, p.SignOut(context.Background(), "anything"))
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("pa55word")
	require.NoError(t, err)
	assert.NotEqual(t, "pa55word", hash)

	again, err := HashPassword("pa55word")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "bcrypt salts every hash")

	_, err = HashPassword("")
	assert.Error(t, err)
}

func TestDisabledProvider(t *testing.T) {
	var p Provider = DisabledProvider{}

	assert.Equal(t, ProviderNone, p.Name())

	_, err := p.SignIn(context.Background(), "cook@example.com", "s3cret")
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = p.Verify(context.Background(), "token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	assert.NoError(t, p.SignOut(context.Background(), "token"))
}
