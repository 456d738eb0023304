package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OrderStatus is a stage of the order lifecycle.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCooking   OrderStatus = "cooking"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// orderTransitions lists the legal next states of each status.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {OrderStatusCooking, OrderStatusCancelled},
	OrderStatusCooking: {OrderStatusReady, OrderStatusCancelled},
	OrderStatusReady:   {OrderStatusDelivered},
}

// ActiveOrderStatuses are the statuses still in the kitchen.
var ActiveOrderStatuses = []OrderStatus{OrderStatusPending, OrderStatusCooking, OrderStatusReady}

// DeliveryOrderStatuses are the statuses shown on the delivery board.
var DeliveryOrderStatuses = []OrderStatus{OrderStatusReady, OrderStatusDelivered}

// ParseOrderStatus validates a status string.
func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	switch status {
	case OrderStatusPending, OrderStatusCooking, OrderStatusReady, OrderStatusDelivered, OrderStatusCancelled:
		return status, nil
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

// IsActive reports whether the order is pending, cooking or ready.
func (s OrderStatus) IsActive() bool {
	return s == OrderStatusPending || s == OrderStatusCooking || s == OrderStatusReady
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Order is a customer order with its joined customer and items.
type Order struct {
	ID              uuid.UUID        `json:"id" db:"id"`
	CustomerID      *uuid.UUID       `json:"customer_id,omitempty" db:"customer_id"`
	Status          OrderStatus      `json:"status" db:"status"`
	TotalAmount     float64          `json:"total_amount" db:"total_amount"`
	AssignedStaffID *uuid.UUID       `json:"assigned_staff_id,omitempty" db:"assigned_staff_id"`
	DeliveryAddress *string          `json:"delivery_address,omitempty" db:"delivery_address"`
	Notes           *string          `json:"notes,omitempty" db:"notes"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at" db:"updated_at"`
	Customer        *CustomerSummary `json:"customer,omitempty"`
	ItemCount       int              `json:"item_count"`
	Items           []OrderItem      `json:"items,omitempty"`
}

// TableName returns the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// CreatedOn reports whether the order was placed on the calendar day of day in loc.
func (o *Order) CreatedOn(day time.Time, loc *time.Location) bool {
	y1, m1, d1 := o.CreatedAt.In(loc).Date()
	y2, m2, d2 := day.In(loc).Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// CustomerSummary is the customer data shown next to an order.
type CustomerSummary struct {
	Name    string  `json:"name"`
	Phone   string  `json:"phone"`
	Address *string `json:"address,omitempty"`
}

// OrderItem is one recipe line of an order.
type OrderItem struct {
	ID         uuid.UUID `json:"id" db:"id"`
	OrderID    uuid.UUID `json:"order_id" db:"order_id"`
	RecipeID   uuid.UUID `json:"recipe_id" db:"recipe_id"`
	Quantity   int       `json:"quantity" db:"quantity"`
	UnitPrice  float64   `json:"unit_price" db:"unit_price"`
	RecipeName string    `json:"recipe_name"`
	PrepTime   int       `json:"prep_time"` // minutes
}
