package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/upb/kitchen-dashboard/identity"
	"github.com/upb/kitchen-dashboard/internal/access"
	"github.com/upb/kitchen-dashboard/repositories"
	"go.uber.org/zap"
)

// DefaultResolveTimeout bounds one resolution when none is configured.
const DefaultResolveTimeout = 3 * time.Second

// DefaultRevocationWindow is how long a signed-out token stays revoked when
// its expiry cannot be read.
const DefaultRevocationWindow = 24 * time.Hour

// Resolver turns a request's access token into a session State.
type Resolver struct {
	verifier identity.Verifier
	staff    repositories.StaffRepository
	store    *Store
	timeout  time.Duration
	logger   *zap.Logger
}

// NewResolver creates a resolver. A zero timeout uses DefaultResolveTimeout.
func NewResolver(verifier identity.Verifier, staff repositories.StaffRepository, store *Store, timeout time.Duration, logger *zap.Logger) *Resolver {
	if timeout <= 0 {
		timeout = DefaultResolveTimeout
	}
	return &Resolver{
		verifier: verifier,
		staff:    staff,
		store:    store,
		timeout:  timeout,
		logger:   logger,
	}
}

// Store returns the principal store.
func (r *Resolver) Store() *Store {
	return r.store
}

// Resolve verifies token and loads its principal. It never fails: anything
// that cannot be confirmed right now leaves the state Unresolved, and
// anything confirmed absent resolves to SignedOut.
func (r *Resolver) Resolve(ctx context.Context, token string) State {
	state := New()
	if token == "" || r.store.IsRevoked(token) {
		return SignedOut()
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	claims, err := r.verifier.Verify(ctx, token)
	if err != nil {
		if transient(ctx, err) {
			r.logger.Warn("session resolution pending: token could not be verified", zap.Error(err))
			return state
		}
		r.logger.Debug("session token rejected", zap.Error(err))
		return SignedOut()
	}

	principal, err := r.Principal(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) || errors.Is(err, access.ErrUnknownRole) {
			r.logger.Info("verified subject has no usable staff record",
				zap.String("subject", claims.Subject.String()),
				zap.Error(err))
			return SignedOut()
		}
		r.logger.Warn("session resolution pending: staff lookup failed",
			zap.String("subject", claims.Subject.String()),
			zap.Error(err))
		return state
	}

	resolved, _ := state.Resolve(principal)
	return resolved
}

// Principal returns the principal for subject from the store, falling back
// to the staff table. Loaded principals are cached.
func (r *Resolver) Principal(ctx context.Context, subject uuid.UUID) (*access.Principal, error) {
	if p := r.store.Get(subject); p != nil {
		return p, nil
	}

	staff, err := r.staff.GetByID(ctx, subject)
	if err != nil {
		return nil, err
	}

	principal, err := staff.Principal()
	if err != nil {
		return nil, fmt.Errorf("staff member %s: %w", subject, err)
	}

	r.store.Put(principal)
	return principal, nil
}

// Forget drops the cached principal for subject so the next request
// reloads it from the staff table
func (r *Resolver) Forget(subject uuid.UUID) {
	r.store.Forget(subject)
}

// Revoke ends the session carried by token: later requests presenting it
// resolve to SignedOut until it expires. A token that no longer verifies is
// already unusable and is not recorded.
func (r *Resolver) Revoke(ctx context.Context, token string) {
	if token == "" {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	expiresAt := r.store.now().Add(DefaultRevocationWindow)
	claims, err := r.verifier.Verify(ctx, token)
	switch {
	case err == nil:
		if !claims.ExpiresAt.IsZero() {
			expiresAt = claims.ExpiresAt
		}
	case !transient(ctx, err):
		return
	default:
		r.logger.Warn("revoking token with unknown expiry", zap.Error(err))
	}

	r.store.Revoke(token, expiresAt)
}

// transient reports whether a verification failure may succeed on retry
func transient(ctx context.Context, err error) bool {
	return errors.Is(err, identity.ErrUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		ctx.Err() != nil
}
