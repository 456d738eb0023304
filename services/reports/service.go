package reports

import (
	"context"
	"time"

	"github.com/upb/kitchen-dashboard/models"
	"github.com/upb/kitchen-dashboard/repositories"
	"go.uber.org/zap"
)

const (
	DefaultDays = 7
	MaxDays     = 90
)

// DailyRevenue is one day of the revenue series
type DailyRevenue struct {
	Date    string  `json:"date"` // YYYY-MM-DD in the business timezone
	Orders  int     `json:"orders"`
	Revenue float64 `json:"revenue"`
}

// Report is the reports page model
type Report struct {
	Days           int                     `json:"days"`
	Revenue        []DailyRevenue          `json:"revenue"`
	TotalRevenue   float64                 `json:"total_revenue"`
	TotalOrders    int                     `json:"total_orders"`
	InventoryValue float64                 `json:"inventory_value"`
	LowStock       []*models.InventoryItem `json:"low_stock"`
}

// Service builds reports
type Service struct {
	orders    repositories.OrderRepository
	inventory repositories.InventoryRepository
	loc       *time.Location
	now       func() time.Time
	logger    *zap.Logger
}

// NewService creates a reports service. A nil loc means UTC.
func NewService(orders repositories.OrderRepository, inventory repositories.InventoryRepository, loc *time.Location, logger *zap.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		orders:    orders,
		inventory: inventory,
		loc:       loc,
		now:       time.Now,
		logger:    logger,
	}
}

// ClampDays bounds the report window to [1, MaxDays]; zero or less means DefaultDays
func ClampDays(days int) int {
	switch {
	case days <= 0:
		return DefaultDays
	case days > MaxDays:
		return MaxDays
	default:
		return days
	}
}

// windowStart is midnight, in loc, of the first day of a days-long window ending on now
func windowStart(now time.Time, days int, loc *time.Location) time.Time {
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d-(days-1), 0, 0, 0, 0, loc)
}

// RevenueSeries buckets delivered orders by calendar day in loc. Every day
// of the window is present, oldest first.
func RevenueSeries(orders []*models.Order, days int, now time.Time, loc *time.Location) []DailyRevenue {
	start := windowStart(now, days, loc)
	series := make([]DailyRevenue, days)
	index := make(map[string]int, days)
	for i := range series {
		date := time.Date(start.Year(), start.Month(), start.Day()+i, 0, 0, 0, 0, loc).Format("2006-01-02")
		series[i].Date = date
		index[date] = i
	}

	for _, order := range orders {
		if order.Status != models.OrderStatusDelivered {
			continue
		}
		i, ok := index[order.CreatedAt.In(loc).Format("2006-01-02")]
		if !ok {
			continue
		}
		series[i].Orders++
		series[i].Revenue += order.TotalAmount
	}
	return series
}

// Build returns the report for a days-long window ending today. Each source
// degrades to empty on error.
func (s *Service) Build(ctx context.Context, days int) Report {
	days = ClampDays(days)
	now := s.now()
	since := windowStart(now, days, s.loc)

	orders, err := s.orders.List(ctx, repositories.OrderFilter{
		Statuses: []models.OrderStatus{models.OrderStatusDelivered},
		Since:    &since,
	})
	if err != nil {
		s.logger.Error("reports: failed to load orders", zap.Error(err))
		orders = nil
	}

	items, err := s.inventory.List(ctx)
	if err != nil {
		s.logger.Error("reports: failed to load inventory", zap.Error(err))
		items = nil
	}

	report := Report{
		Days:     days,
		Revenue:  RevenueSeries(orders, days, now, s.loc),
		LowStock: []*models.InventoryItem{},
	}
	for _, day := range report.Revenue {
		report.TotalRevenue += day.Revenue
		report.TotalOrders += day.Orders
	}
	for _, item := range items {
		report.InventoryValue += item.StockValue()
		if item.IsLowStock() {
			report.LowStock = append(report.LowStock, item)
		}
	}
	return report
}
