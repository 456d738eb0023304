package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/upb/kitchen-dashboard/models"
	"github.com/upb/kitchen-dashboard/repositories"
	"go.uber.org/zap"
)

// OrderRepository implements the repositories.OrderRepository interface
type OrderRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *DB, logger *zap.Logger) repositories.OrderRepository {
	return &OrderRepository{
		db:     db,
		logger: logger,
	}
}

const orderSelect = `
	SELECT o.id, o.customer_id, o.status, o.total_amount, o.assigned_staff_id,
		o.delivery_address, o.notes, o.created_at, o.updated_at,
		c.name, c.phone, c.address,
		(SELECT COUNT(*) FROM order_items oi WHERE oi.order_id = o.id) AS item_count
	FROM orders o
	LEFT JOIN customers c ON c.id = o.customer_id`

func scanOrder(row rowScanner) (*models.Order, error) {
	order := &models.Order{}
	var name, phone, address sql.NullString
	err := row.Scan(
		&order.ID,
		&order.CustomerID,
		&order.Status,
		&order.TotalAmount,
		&order.AssignedStaffID,
		&order.DeliveryAddress,
		&order.Notes,
		&order.CreatedAt,
		&order.UpdatedAt,
		&name,
		&phone,
		&address,
		&order.ItemCount,
	)
	if err != nil {
		return nil, err
	}
	if name.Valid {
		order.Customer = &models.CustomerSummary{Name: name.String, Phone: phone.String}
		if address.Valid {
			order.Customer.Address = &address.String
		}
	}
	return order, nil
}

// List returns orders with customer summary and item count
func (r *OrderRepository) List(ctx context.Context, filter repositories.OrderFilter) ([]*models.Order, error) {
	var conditions []string
	var args []interface{}

	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		args = append(args, pq.Array(statuses))
		conditions = append(conditions, fmt.Sprintf("o.status = ANY($%d)", len(args)))
	}
	if filter.Since != nil {
		args = append(args, *filter.Since)
		conditions = append(conditions, fmt.Sprintf("o.created_at >= $%d", len(args)))
	}

	query := orderSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	if filter.NewestFirst {
		query += " ORDER BY o.created_at DESC"
	} else {
		query += " ORDER BY o.created_at ASC"
	}
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]*models.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order rows: %w", err)
	}

	return orders, nil
}

// ListItems returns the items of the given orders keyed by order ID
func (r *OrderRepository) ListItems(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]models.OrderItem, error) {
	items := make(map[uuid.UUID][]models.OrderItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return items, nil
	}

	ids := make([]string, len(orderIDs))
	for i, id := range orderIDs {
		ids[i] = id.String()
	}

	query := `
		SELECT oi.id, oi.order_id, oi.recipe_id, oi.quantity, oi.unit_price,
			COALESCE(r.name, ''), COALESCE(r.prep_time, 0)
		FROM order_items oi
		LEFT JOIN recipes r ON r.id = oi.recipe_id
		WHERE oi.order_id = ANY($1::uuid[])
		ORDER BY oi.order_id, r.name
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		var recipeID uuid.NullUUID
		if err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&recipeID,
			&item.Quantity,
			&item.UnitPrice,
			&item.RecipeName,
			&item.PrepTime,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		item.RecipeID = recipeID.UUID
		items[item.OrderID] = append(items[item.OrderID], item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order item rows: %w", err)
	}

	return items, nil
}

// GetByID retrieves an order without items
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return r.get(ctx, orderSelect+" WHERE o.id = $1", id)
}

// GetForUpdate locks the order row until the surrounding transaction ends.
// Called outside a transaction the lock is released immediately.
func (r *OrderRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return r.get(ctx, orderSelect+" WHERE o.id = $1 FOR UPDATE OF o", id)
}

func (r *OrderRepository) get(ctx context.Context, query string, id uuid.UUID) (*models.Order, error) {
	executor := GetExecutor(ctx, r.db)
	order, err := scanOrder(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if err = mapError(err); err == repositories.ErrNotFound {
			return nil, fmt.Errorf("order %s: %w", id, err)
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

// UpdateStatus sets the status and updated_at of an order
func (r *OrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus, updatedAt time.Time) error {
	query := `UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, id, status, updatedAt)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	if err := requireAffected(result, "order", id); err != nil {
		return err
	}

	r.logger.Debug("order status updated",
		zap.String("id", id.String()),
		zap.String("status", string(status)),
	)

	return nil
}
