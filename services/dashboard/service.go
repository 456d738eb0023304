// Package dashboard computes the summary tiles of the dashboard page.
package dashboard

import (
	"context"
	"time"

	"github.com/upb/kitchen-dashboard/models"
	"github.com/upb/kitchen-dashboard/repositories"
	"go.uber.org/zap"
)

// Stats are the dashboard tiles
type Stats struct {
	TotalInventory int     `json:"total_inventory"`
	LowStockItems  int     `json:"low_stock_items"`
	PendingOrders  int     `json:"pending_orders"`
	TodayOrders    int     `json:"today_orders"`
	TodayRevenue   float64 `json:"today_revenue"`
	TotalStaff     int     `json:"total_staff"`
}

// ComputeStats derives the tiles in one pass over each input. Today's
// orders and revenue count delivered orders placed on now's calendar day in loc.
func ComputeStats(items []*models.InventoryItem, orders []*models.Order, staffCount int, now time.Time, loc *time.Location) Stats {
	stats := Stats{
		TotalInventory: len(items),
		TotalStaff:     staffCount,
	}

	for _, item := range items {
		if item.IsLowStock() {
			stats.LowStockItems++
		}
	}

	for _, order := range orders {
		if order.Status.IsActive() {
			stats.PendingOrders++
		}
		if order.Status == models.OrderStatusDelivered && order.CreatedOn(now, loc) {
			stats.TodayOrders++
			stats.TodayRevenue += order.TotalAmount
		}
	}

	return stats
}

// Service loads the data behind the dashboard
type Service struct {
	inventory repositories.InventoryRepository
	orders    repositories.OrderRepository
	staff     repositories.StaffRepository
	loc       *time.Location
	now       func() time.Time
	logger    *zap.Logger
}

// NewService creates a dashboard service. A nil loc means UTC.
func NewService(repos *repositories.Repositories, loc *time.Location, logger *zap.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		inventory: repos.Inventory,
		orders:    repos.Orders,
		staff:     repos.Staff,
		loc:       loc,
		now:       time.Now,
		logger:    logger,
	}
}

// Stats returns the dashboard tiles. A failing source is logged and counted
// as empty so the page still renders.
func (s *Service) Stats(ctx context.Context) Stats {
	items, err := s.inventory.List(ctx)
	if err != nil {
		s.logger.Error("dashboard: failed to load inventory", zap.Error(err))
		items = nil
	}

	orders, err := s.orders.List(ctx, repositories.OrderFilter{})
	if err != nil {
		s.logger.Error("dashboard: failed to load orders", zap.Error(err))
		orders = nil
	}

	staffCount, err := s.staff.Count(ctx)
	if err != nil {
		s.logger.Error("dashboard: failed to count staff", zap.Error(err))
		staffCount = 0
	}

	return ComputeStats(items, orders, staffCount, s.now(), s.loc)
}
