package session

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/upb/kitchen-dashboard/identity"
	"github.com/upb/kitchen-dashboard/internal/access"
	"github.com/upb/kitchen-dashboard/models"
	"github.com/upb/kitchen-dashboard/repositories"
	"go.uber.org/zap"
)

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(ctx context.Context, token string) (*identity.Claims, error) {
	args := m.Called(ctx, token)
	if c := args.Get(0); c != nil {
		return c.(*identity.Claims), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockStaffRepository struct {
	mock.Mock
}

func (m *MockStaffRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.StaffMember, error) {
	args := m.Called(ctx, id)
	if s := args.Get(0); s != nil {
		return s.(*models.StaffMember), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStaffRepository) GetByEmail(ctx context.Context, email string) (*models.StaffMember, error) {
	args := m.Called(ctx, email)
	if s := args.Get(0); s != nil {
		return s.(*models.StaffMember), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStaffRepository) List(ctx context.Context) ([]*models.StaffMember, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.StaffMember), args.Error(1)
}

func (m *MockStaffRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func newTestResolver() (*Resolver, *MockVerifier, *MockStaffRepository) {
	verifier := new(MockVerifier)
	staff := new(MockStaffRepository)
	r := NewResolver(verifier, staff, NewStore(10, time.Minute), time.Second, zap.NewNop())
	return r, verifier, staff
}

func TestResolve_EmptyToken(t *testing.T) {
	r, verifier, _ := newTestResolver()

	state := r.Resolve(context.Background(), "")

	assert.Equal(t, StatusSignedOut, state.Status())
	verifier.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
}

func TestResolve_TokenErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Status
	}{
		{"invalid token", identity.ErrInvalidToken, StatusSignedOut},
		{"expired token", identity.ErrTokenExpired, StatusSignedOut},
		{"provider unreachable", fmt.Errorf("jwks: %w", identity.ErrUnavailable), StatusUnresolved},
		{"deadline", context.DeadlineExceeded, StatusUnresolved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, verifier, staff := newTestResolver()
			verifier.On("Verify", mock.Anything, "tok").Return(nil, tt.err)

			state := r.Resolve(context.Background(), "tok")

			assert.Equal(t, tt.want, state.Status())
			staff.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
		})
	}
}

func TestResolve_StaffLookup(t *testing.T) {
	subject := uuid.New()
	claims := &identity.Claims{Subject: subject}

	tests := []struct {
		name   string
		staff  *models.StaffMember
		err    error
		want   Status
		cached bool
	}{
		{"found", &models.StaffMember{ID: subject, Role: "kitchen_staff", Email: "k@example.com"}, nil, StatusSignedIn, true},
		{"no staff row", nil, fmt.Errorf("staff member: %w", repositories.ErrNotFound), StatusSignedOut, false},
		{"unknown role", &models.StaffMember{ID: subject, Role: "chef"}, nil, StatusSignedOut, false},
		{"database down", nil, errors.New("connection refused"), StatusUnresolved, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, verifier, staff := newTestResolver()
			verifier.On("Verify", mock.Anything, "tok").Return(claims, nil)
			staff.On("GetByID", mock.Anything, subject).Return(tt.staff, tt.err)

			state := r.Resolve(context.Background(), "tok")

			assert.Equal(t, tt.want, state.Status())
			assert.Equal(t, tt.cached, r.Store().Get(subject) != nil)
			if tt.want == StatusSignedIn {
				assert.Equal(t, access.RoleKitchenStaff, state.Principal().Role)
			}
		})
	}
}

func TestResolve_UsesStore(t *testing.T) {
	r, verifier, staff := newTestResolver()
	p := testPrincipal(access.RoleAdmin)
	r.Store().Put(p)
	verifier.On("Verify", mock.Anything, "tok").Return(&identity.Claims{Subject: p.ID}, nil)

	state := r.Resolve(context.Background(), "tok")

	assert.Equal(t, StatusSignedIn, state.Status())
	assert.Equal(t, p.ID, state.Principal().ID)
	staff.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestResolve_TimeoutLeavesUnresolved(t *testing.T) {
	verifier := new(MockVerifier)
	staff := new(MockStaffRepository)
	r := NewResolver(verifier, staff, NewStore(10, time.Minute), 10*time.Millisecond, zap.NewNop())

	verifier.On("Verify", mock.Anything, "tok").
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil, identity.ErrInvalidToken)

	state := r.Resolve(context.Background(), "tok")

	assert.Equal(t, StatusUnresolved, state.Status())
}

func TestResolve_RevokedToken(t *testing.T) {
	r, verifier, staff := newTestResolver()
	p := testPrincipal(access.RoleKitchenStaff)
	r.Store().Put(p)
	verifier.On("Verify", mock.Anything, "tok").
		Return(&identity.Claims{Subject: p.ID, ExpiresAt: time.Now().Add(time.Hour)}, nil)

	assert.Equal(t, StatusSignedIn, r.Resolve(context.Background(), "tok").Status())

	r.Revoke(context.Background(), "tok")

	assert.Equal(t, StatusSignedOut, r.Resolve(context.Background(), "tok").Status())
	verifier.AssertNumberOfCalls(t, "Verify", 2)
	staff.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestRevoke(t *testing.T) {
	tests := []struct {
		name    string
		claims  *identity.Claims
		err     error
		revoked bool
	}{
		{"valid token", &identity.Claims{Subject: uuid.New(), ExpiresAt: time.Now().Add(time.Hour)}, nil, true},
		{"valid token without expiry", &identity.Claims{Subject: uuid.New()}, nil, true},
		{"provider unreachable", nil, fmt.Errorf("jwks: %w", identity.ErrUnavailable), true},
		{"invalid token", nil, identity.ErrInvalidToken, false},
		{"expired token", nil, identity.ErrTokenExpired, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, verifier, _ := newTestResolver()
			verifier.On("Verify", mock.Anything, "tok").Return(tt.claims, tt.err)

			r.Revoke(context.Background(), "tok")

			assert.Equal(t, tt.revoked, r.Store().IsRevoked("tok"))
		})
	}
}

func TestRevoke_EmptyToken(t *testing.T) {
	r, verifier, _ := newTestResolver()

	r.Revoke(context.Background(), "")

	verifier.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
	assert.Equal(t, 0, r.Store().Stats().Revoked)
}
