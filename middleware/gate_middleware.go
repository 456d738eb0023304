package middleware

import (
	"net/http"
	"strconv"

	"github.com/upb/kitchen-dashboard/internal/access"
	"github.com/upb/kitchen-dashboard/utils"
	"go.uber.org/zap"
)

// PendingRetryAfter is the Retry-After hint, in seconds, sent while a
// session is still resolving
const PendingRetryAfter = 1

// GateMiddleware enforces the route table on page routes
type GateMiddleware struct {
	gate   *access.Gate
	logger *zap.Logger
}

// NewGateMiddleware creates a new GateMiddleware
func NewGateMiddleware(gate *access.Gate, logger *zap.Logger) *GateMiddleware {
	return &GateMiddleware{
		gate:   gate,
		logger: logger,
	}
}

// Protect checks the request path against the gate. It must run after
// SessionMiddleware.Resolve. Only Allow reaches next.
func (m *GateMiddleware) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		state := GetSessionFromContext(ctx)
		requested := r.URL.RequestURI()

		decision := m.gate.Check(state.Resolution(), state.Principal(), requested)

		if decision.Outcome != access.Allow {
			fields := []zap.Field{
				zap.String("request_id", GetRequestIDFromContext(ctx)),
				zap.String("path", r.URL.Path),
				zap.String("decision", string(decision.Outcome)),
			}
			if p := state.Principal(); p != nil {
				fields = append(fields, zap.String("subject", p.ID.String()), zap.String("role", string(p.Role)))
			}
			m.logger.Debug("gate denied request", fields...)
		}

		switch decision.Outcome {
		case access.Allow:
			next.ServeHTTP(w, r)
		case access.Pending:
			WritePending(w, decision)
		default:
			utils.WriteRedirect(w, r, decision.RedirectURL())
		}
	})
}

// WritePending answers a request whose session has not resolved yet.
// Nothing protected is rendered; the client retries shortly.
func WritePending(w http.ResponseWriter, decision access.Decision) {
	w.Header().Set("Retry-After", strconv.Itoa(PendingRetryAfter))
	_ = utils.WriteJSON(w, http.StatusServiceUnavailable, decision)
}
