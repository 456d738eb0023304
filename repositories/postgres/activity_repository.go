package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/upb/kitchen-dashboard/models"
	"github.com/upb/kitchen-dashboard/repositories"
	"go.uber.org/zap"
)

// ActivityRepository implements the repositories.ActivityRepository interface
type ActivityRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *DB, logger *zap.Logger) repositories.ActivityRepository {
	return &ActivityRepository{
		db:     db,
		logger: logger,
	}
}

// Insert appends an activity entry
func (r *ActivityRepository) Insert(ctx context.Context, entry *models.ActivityEntry) error {
	query := `
		INSERT INTO activity_log (id, actor_id, action, resource_type, resource_id, details, request_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	var details interface{}
	if len(entry.Details) > 0 {
		details = []byte(entry.Details)
	}
	var requestID sql.NullString
	if entry.RequestID != "" {
		requestID = sql.NullString{String: entry.RequestID, Valid: true}
	}

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		entry.ID,
		entry.ActorID,
		entry.Action,
		entry.ResourceType,
		entry.ResourceID,
		details,
		requestID,
		entry.CreatedAt,
	)
	if err != nil {
		r.logger.Error("failed to insert activity entry",
			zap.String("action", string(entry.Action)),
			zap.Error(err),
		)
		return fmt.Errorf("failed to insert activity entry: %w", mapError(err))
	}

	r.logger.Debug("activity entry inserted",
		zap.String("id", entry.ID.String()),
		zap.String("action", string(entry.Action)),
	)

	return nil
}

// ListRecent returns the newest entries first
func (r *ActivityRepository) ListRecent(ctx context.Context, limit int) ([]*models.ActivityEntry, error) {
	query := `
		SELECT id, actor_id, action, resource_type, resource_id, details, request_id, created_at
		FROM activity_log
		ORDER BY created_at DESC
		LIMIT $1
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity log: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.ActivityEntry, 0, limit)
	for rows.Next() {
		entry := &models.ActivityEntry{}
		var details []byte
		var requestID sql.NullString
		if err := rows.Scan(
			&entry.ID,
			&entry.ActorID,
			&entry.Action,
			&entry.ResourceType,
			&entry.ResourceID,
			&details,
			&requestID,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}
		if len(details) > 0 {
			entry.Details = details
		}
		entry.RequestID = requestID.String
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity rows: %w", err)
	}

	return entries, nil
}
