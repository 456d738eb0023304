package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/upb/kitchen-dashboard/models"
	"github.com/upb/kitchen-dashboard/repositories"
	"go.uber.org/zap"
)

// InventoryRepository implements the repositories.InventoryRepository interface
type InventoryRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewInventoryRepository creates a new inventory repository
func NewInventoryRepository(db *DB, logger *zap.Logger) repositories.InventoryRepository {
	return &InventoryRepository{
		db:     db,
		logger: logger,
	}
}

const inventoryColumns = `id, name, category, quantity, unit, min_threshold, max_threshold,
	supplier_id, expiry_date, cost_per_unit, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInventoryItem(row rowScanner) (*models.InventoryItem, error) {
	item := &models.InventoryItem{}
	err := row.Scan(
		&item.ID,
		&item.Name,
		&item.Category,
		&item.Quantity,
		&item.Unit,
		&item.MinThreshold,
		&item.MaxThreshold,
		&item.SupplierID,
		&item.ExpiryDate,
		&item.CostPerUnit,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	return item, err
}

// List returns all items ordered by name
func (r *InventoryRepository) List(ctx context.Context) ([]*models.InventoryItem, error) {
	query := `SELECT ` + inventoryColumns + ` FROM inventory_items ORDER BY name`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory: %w", err)
	}
	defer rows.Close()

	items := make([]*models.InventoryItem, 0)
	for rows.Next() {
		item, err := scanInventoryItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inventory item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating inventory rows: %w", err)
	}

	return items, nil
}

// GetByID retrieves an item by ID
func (r *InventoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	query := `SELECT ` + inventoryColumns + ` FROM inventory_items WHERE id = $1`

	executor := GetExecutor(ctx, r.db)
	item, err := scanInventoryItem(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if err = mapError(err); err == repositories.ErrNotFound {
			return nil, fmt.Errorf("inventory item %s: %w", id, err)
		}
		return nil, fmt.Errorf("failed to get inventory item: %w", err)
	}

	return item, nil
}

// Create inserts a new item
func (r *InventoryRepository) Create(ctx context.Context, item *models.InventoryItem) error {
	query := `
		INSERT INTO inventory_items (` + inventoryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		item.ID,
		item.Name,
		item.Category,
		item.Quantity,
		item.Unit,
		item.MinThreshold,
		item.MaxThreshold,
		item.SupplierID,
		item.ExpiryDate,
		item.CostPerUnit,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create inventory item: %w", mapError(err))
	}

	r.logger.Debug("inventory item created",
		zap.String("id", item.ID.String()),
		zap.String("name", item.Name),
	)

	return nil
}

// Update overwrites an existing item
func (r *InventoryRepository) Update(ctx context.Context, item *models.InventoryItem) error {
	query := `
		UPDATE inventory_items
		SET name = $2, category = $3, quantity = $4, unit = $5, min_threshold = $6,
			max_threshold = $7, supplier_id = $8, expiry_date = $9, cost_per_unit = $10,
			updated_at = $11
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		item.ID,
		item.Name,
		item.Category,
		item.Quantity,
		item.Unit,
		item.MinThreshold,
		item.MaxThreshold,
		item.SupplierID,
		item.ExpiryDate,
		item.CostPerUnit,
		item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update inventory item: %w", mapError(err))
	}

	return requireAffected(result, "inventory item", item.ID)
}

// Delete removes an item
func (r *InventoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, `DELETE FROM inventory_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete inventory item: %w", err)
	}

	if err := requireAffected(result, "inventory item", id); err != nil {
		return err
	}

	r.logger.Debug("inventory item deleted", zap.String("id", id.String()))
	return nil
}
