package activity

import (
	"context"

	"github.com/upb/kitchen-dashboard/models"
	"github.com/upb/kitchen-dashboard/repositories"
	"go.uber.org/zap"
)

// DefaultFeedSize is how many entries the settings page shows
const DefaultFeedSize = 20

// Feed reads the activity log back for display
type Feed struct {
	repo   repositories.ActivityRepository
	logger *zap.Logger
}

// NewFeed creates a feed over the activity log
func NewFeed(repo repositories.ActivityRepository, logger *zap.Logger) *Feed {
	return &Feed{repo: repo, logger: logger}
}

// Recent returns up to limit entries, newest first. Errors yield an empty list.
func (f *Feed) Recent(ctx context.Context, limit int) []*models.ActivityEntry {
	if limit <= 0 {
		limit = DefaultFeedSize
	}
	entries, err := f.repo.ListRecent(ctx, limit)
	if err != nil {
		f.logger.Error("failed to load activity feed", zap.Error(err))
		return []*models.ActivityEntry{}
	}
	return entries
}
