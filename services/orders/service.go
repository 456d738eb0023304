// Package orders serves the kitchen, order and delivery boards and moves
// orders through their lifecycle.
package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/upb/kitchen-dashboard/models"
	"github.com/upb/kitchen-dashboard/repositories"
	"github.com/upb/kitchen-dashboard/services"
	"go.uber.org/zap"
)

// DefaultRecentDeliveries is the length of the recent deliveries list.
const DefaultRecentDeliveries = 5

// Recorder receives order activity
type Recorder interface {
	OrderStatusChanged(actorID, orderID uuid.UUID, from, to models.OrderStatus, requestID string) error
}

// KitchenBoard is the kitchen page model
type KitchenBoard struct {
	Orders []*models.Order             `json:"orders"`
	Counts map[models.OrderStatus]int `json:"counts"`
}

// DeliveryBoard is the delivery page model
type DeliveryBoard struct {
	Orders           []*models.Order `json:"orders"`
	ReadyCount       int             `json:"ready_count"`
	DeliveredCount   int             `json:"delivered_count"`
	RecentDeliveries []*models.Order `json:"recent_deliveries"`
}

// Service reads and transitions orders
type Service struct {
	orders           repositories.OrderRepository
	txMgr            repositories.TransactionManager
	recorder         Recorder
	recentDeliveries int
	logger           *zap.Logger
	now              func() time.Time
}

// NewService creates an order service
func NewService(orders repositories.OrderRepository, txMgr repositories.TransactionManager, recorder Recorder, recentDeliveries int, logger *zap.Logger) *Service {
	if recentDeliveries <= 0 {
		recentDeliveries = DefaultRecentDeliveries
	}
	return &Service{
		orders:           orders,
		txMgr:            txMgr,
		recorder:         recorder,
		recentDeliveries: recentDeliveries,
		logger:           logger,
		now:              time.Now,
	}
}

// Kitchen returns active orders oldest first, with their items
func (s *Service) Kitchen(ctx context.Context) KitchenBoard {
	board := KitchenBoard{
		Orders: []*models.Order{},
		Counts: make(map[models.OrderStatus]int, len(models.ActiveOrderStatuses)),
	}
	for _, status := range models.ActiveOrderStatuses {
		board.Counts[status] = 0
	}

	orders, err := s.orders.List(ctx, repositories.OrderFilter{Statuses: models.ActiveOrderStatuses})
	if err != nil {
		s.logger.Error("failed to load kitchen orders", zap.Error(err))
		return board
	}

	s.attachItems(ctx, orders)
	for _, order := range orders {
		board.Counts[order.Status]++
	}
	board.Orders = orders
	return board
}

// Delivery returns ready and delivered orders newest first
func (s *Service) Delivery(ctx context.Context) DeliveryBoard {
	board := DeliveryBoard{
		Orders:           []*models.Order{},
		RecentDeliveries: []*models.Order{},
	}

	orders, err := s.orders.List(ctx, repositories.OrderFilter{
		Statuses:    models.DeliveryOrderStatuses,
		NewestFirst: true,
	})
	if err != nil {
		s.logger.Error("failed to load delivery orders", zap.Error(err))
		return board
	}

	board.Orders = orders
	for _, order := range orders {
		switch order.Status {
		case models.OrderStatusReady:
			board.ReadyCount++
		case models.OrderStatusDelivered:
			board.DeliveredCount++
			if len(board.RecentDeliveries) < s.recentDeliveries {
				board.RecentDeliveries = append(board.RecentDeliveries, order)
			}
		}
	}
	return board
}

// List returns orders newest first, optionally narrowed to statuses
func (s *Service) List(ctx context.Context, statuses []models.OrderStatus) []*models.Order {
	orders, err := s.orders.List(ctx, repositories.OrderFilter{
		Statuses:    statuses,
		NewestFirst: true,
	})
	if err != nil {
		s.logger.Error("failed to load orders", zap.Error(err))
		return []*models.Order{}
	}
	return orders
}

// attachItems loads items for orders; a failure leaves them without items
func (s *Service) attachItems(ctx context.Context, orders []*models.Order) {
	if len(orders) == 0 {
		return
	}

	ids := make([]uuid.UUID, len(orders))
	for i, order := range orders {
		ids[i] = order.ID
	}

	items, err := s.orders.ListItems(ctx, ids)
	if err != nil {
		s.logger.Error("failed to load order items", zap.Error(err))
		return
	}

	for _, order := range orders {
		order.Items = items[order.ID]
	}
}

// Transition moves an order to status to. The row is locked for the
// duration of the check and update, so two staff members advancing the
// same order cannot both succeed from the same starting state.
func (s *Service) Transition(ctx context.Context, actor services.Actor, id uuid.UUID, to models.OrderStatus) (*models.Order, error) {
	var from models.OrderStatus

	order, err := services.WithTransactionResult(ctx, s.txMgr, func(ctx context.Context) (*models.Order, error) {
		order, err := s.orders.GetForUpdate(ctx, id)
		if err != nil {
			return nil, services.FromRepository(err, services.ErrOrderNotFound, nil)
		}

		if !order.Status.CanTransitionTo(to) {
			return nil, services.NewDomainError(services.ErrorTypeConflict, services.ErrInvalidTransition.Message, nil).
				WithDetail("from", string(order.Status)).
				WithDetail("to", string(to))
		}

		from = order.Status
		updatedAt := s.now()
		if err := s.orders.UpdateStatus(ctx, id, to, updatedAt); err != nil {
			return nil, services.FromRepository(err, services.ErrOrderNotFound, nil)
		}

		order.Status = to
		order.UpdatedAt = updatedAt
		return order, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order status changed",
		zap.String("order_id", id.String()),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("actor", actor.ID.String()),
		zap.String("request_id", actor.RequestID))

	if s.recorder != nil {
		if err := s.recorder.OrderStatusChanged(actor.ID, id, from, to, actor.RequestID); err != nil {
			s.logger.Warn("order activity not recorded", zap.Error(err))
		}
	}

	return order, nil
}
