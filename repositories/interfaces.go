package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/upb/kitchen-dashboard/models"
)

var (
	// ErrNotFound is returned when a lookup matches no row
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when an insert or update violates a unique constraint
	ErrDuplicate = errors.New("duplicate record")

	// ErrLocked is returned when a row lock could not be taken within the lock timeout
	ErrLocked = errors.New("record locked")
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction.
	// Repositories called with the ctx passed to fn run inside the transaction.
	// Commits if fn succeeds, rolls back on error or panic.
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context
	Context() context.Context
}

// StaffRepository reads staff_members
type StaffRepository interface {
	// GetByID retrieves a staff member by identity provider user id
	GetByID(ctx context.Context, id uuid.UUID) (*models.StaffMember, error)

	// GetByEmail retrieves a staff member by email, including the password hash
	GetByEmail(ctx context.Context, email string) (*models.StaffMember, error)

	// List returns all staff ordered by full name
	List(ctx context.Context) ([]*models.StaffMember, error)

	// Count returns the number of staff members
	Count(ctx context.Context) (int, error)
}

// InventoryRepository handles inventory_items
type InventoryRepository interface {
	// List returns all items ordered by name
	List(ctx context.Context) ([]*models.InventoryItem, error)

	// GetByID retrieves an item by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error)

	// Create inserts a new item
	Create(ctx context.Context, item *models.InventoryItem) error

	// Update overwrites an existing item
	Update(ctx context.Context, item *models.InventoryItem) error

	// Delete removes an item
	Delete(ctx context.Context, id uuid.UUID) error
}

// OrderFilter narrows an order listing
type OrderFilter struct {
	Statuses    []models.OrderStatus // empty means every status
	Since       *time.Time           // created_at >= Since
	NewestFirst bool
	Limit       int // 0 means no limit
}

// OrderRepository handles orders and their items
type OrderRepository interface {
	// List returns orders with customer summary and item count
	List(ctx context.Context, filter OrderFilter) ([]*models.Order, error)

	// ListItems returns the items of the given orders keyed by order ID
	ListItems(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]models.OrderItem, error)

	// GetByID retrieves an order without items
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)

	// GetForUpdate retrieves an order and locks its row until the surrounding transaction ends
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error)

	// UpdateStatus sets the status and updated_at of an order
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus, updatedAt time.Time) error
}

// ActivityRepository handles the activity log
type ActivityRepository interface {
	// Insert appends an activity entry
	Insert(ctx context.Context, entry *models.ActivityEntry) error

	// ListRecent returns the newest entries first
	ListRecent(ctx context.Context, limit int) ([]*models.ActivityEntry, error)
}

// Repositories holds all repository instances
type Repositories struct {
	Staff     StaffRepository
	Inventory InventoryRepository
	Orders    OrderRepository
	Activity  ActivityRepository
}
