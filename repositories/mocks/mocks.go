// Package mocks provides testify mocks of the repository interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/upb/kitchen-dashboard/models"
	"github.com/upb/kitchen-dashboard/repositories"
)

// StaffRepository is a mock of repositories.StaffRepository
type StaffRepository struct {
	mock.Mock
}

func (m *StaffRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.StaffMember, error) {
	args := m.Called(ctx, id)
	if s := args.Get(0); s != nil {
		return s.(*models.StaffMember), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StaffRepository) GetByEmail(ctx context.Context, email string) (*models.StaffMember, error) {
	args := m.Called(ctx, email)
	if s := args.Get(0); s != nil {
		return s.(*models.StaffMember), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StaffRepository) List(ctx context.Context) ([]*models.StaffMember, error) {
	args := m.Called(ctx)
	if s := args.Get(0); s != nil {
		return s.([]*models.StaffMember), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StaffRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// InventoryRepository is a mock of repositories.InventoryRepository
type InventoryRepository struct {
	mock.Mock
}

func (m *InventoryRepository) List(ctx context.Context) ([]*models.InventoryItem, error) {
	args := m.Called(ctx)
	if items := args.Get(0); items != nil {
		return items.([]*models.InventoryItem), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *InventoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	args := m.Called(ctx, id)
	if item := args.Get(0); item != nil {
		return item.(*models.InventoryItem), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *InventoryRepository) Create(ctx context.Context, item *models.InventoryItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *InventoryRepository) Update(ctx context.Context, item *models.InventoryItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *InventoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// OrderRepository is a mock of repositories.OrderRepository
type OrderRepository struct {
	mock.Mock
}

func (m *OrderRepository) List(ctx context.Context, filter repositories.OrderFilter) ([]*models.Order, error) {
	args := m.Called(ctx, filter)
	if orders := args.Get(0); orders != nil {
		return orders.([]*models.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *OrderRepository) ListItems(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]models.OrderItem, error) {
	args := m.Called(ctx, orderIDs)
	if items := args.Get(0); items != nil {
		return items.(map[uuid.UUID][]models.OrderItem), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, id)
	if order := args.Get(0); order != nil {
		return order.(*models.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *OrderRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, id)
	if order := args.Get(0); order != nil {
		return order.(*models.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *OrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus, updatedAt time.Time) error {
	return m.Called(ctx, id, status, updatedAt).Error(0)
}

// ActivityRepository is a mock of repositories.ActivityRepository
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Insert(ctx context.Context, entry *models.ActivityEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *ActivityRepository) ListRecent(ctx context.Context, limit int) ([]*models.ActivityEntry, error) {
	args := m.Called(ctx, limit)
	if entries := args.Get(0); entries != nil {
		return entries.([]*models.ActivityEntry), args.Error(1)
	}
	return nil, args.Error(1)
}

// TransactionManager runs fn directly and counts commits and rollbacks
type TransactionManager struct {
	Commits   int
	Rollbacks int
}

func (m *TransactionManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	return nil, nil
}

func (m *TransactionManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	if err := fn(ctx, nil); err != nil {
		m.Rollbacks++
		return err
	}
	m.Commits++
	return nil
}

// NewRepositories bundles fresh mocks
func NewRepositories() (*repositories.Repositories, *StaffRepository, *InventoryRepository, *OrderRepository, *ActivityRepository) {
	staff := new(StaffRepository)
	inventory := new(InventoryRepository)
	orders := new(OrderRepository)
	activity := new(ActivityRepository)
	return &repositories.Repositories{
		Staff:     staff,
		Inventory: inventory,
		Orders:    orders,
		Activity:  activity,
	}, staff, inventory, orders, activity
}
