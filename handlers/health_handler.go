package handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/upb/kitchen-dashboard/services/activity"
	"github.com/upb/kitchen-dashboard/utils"
	"go.uber.org/zap"
)

const readinessTimeout = 5 * time.Second

// Readiness states reported by /readyz
const (
	ReadyStatus    = "ready"
	DegradedStatus = "degraded"
	NotReadyStatus = "not_ready"
)

// Check is one readiness probe. A failing critical check takes the
// instance out of rotation; any other failure only marks it degraded.
type Check struct {
	Name     string
	Critical bool
	Probe    func(ctx context.Context) error
}

// DatabaseCheck pings the pool with a trivial query
func DatabaseCheck(db *sql.DB) Check {
	return Check{
		Name:     "database",
		Critical: true,
		Probe: func(ctx context.Context) error {
			var one int
			return db.QueryRowContext(ctx, "SELECT 1").Scan(&one)
		},
	}
}

// ActivityCheck reports whether the activity workers are draining the queue.
// Pages keep working without them, so it is not critical.
func ActivityCheck(recorder *activity.Recorder) Check {
	return Check{
		Name: "activity",
		Probe: func(context.Context) error {
			if !recorder.GetStats().Running {
				return errors.New("activity recorder is not running")
			}
			return nil
		},
	}
}

// LivenessResponse is served by /healthz
type LivenessResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ReadinessResponse is served by /readyz
type ReadinessResponse struct {
	Status    string            `json:"status"`
	CheckedAt string            `json:"checked_at"`
	Checks    map[string]string `json:"checks"`
}

// HealthHandler serves the liveness and readiness probes
type HealthHandler struct {
	checks []Check
	logger *zap.Logger
}

// NewHealthHandler creates a HealthHandler running the given readiness checks
func NewHealthHandler(logger *zap.Logger, checks ...Check) *HealthHandler {
	return &HealthHandler{checks: checks, logger: logger}
}

// HandleHealth answers 200 while the process can serve at all
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, LivenessResponse{
		Status:    "alive",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleReadiness runs every check under one deadline
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	resp := ReadinessResponse{
		Status: ReadyStatus,
		Checks: make(map[string]string, len(h.checks)),
	}

	for _, c := range h.checks {
		if err := c.Probe(ctx); err != nil {
			h.logger.Warn("readiness check failed",
				zap.String("check", c.Name),
				zap.Bool("critical", c.Critical),
				zap.Error(err))
			resp.Checks[c.Name] = "unhealthy"
			switch {
			case c.Critical:
				resp.Status = NotReadyStatus
			case resp.Status == ReadyStatus:
				resp.Status = DegradedStatus
			}
			continue
		}
		resp.Checks[c.Name] = "healthy"
	}
	resp.CheckedAt = time.Now().UTC().Format(time.RFC3339)

	status := http.StatusOK
	if resp.Status == NotReadyStatus {
		status = http.StatusServiceUnavailable
	}
	if err := utils.WriteJSON(w, status, utils.SuccessResponse{Data: resp}); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}
