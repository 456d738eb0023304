package models

import (
	"time"

	"github.com/google/uuid"
)

// InventoryItem is a stocked ingredient or supply.
type InventoryItem struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	Category     string     `json:"category" db:"category"`
	Quantity     float64    `json:"quantity" db:"quantity"`
	Unit         string     `json:"unit" db:"unit"`
	MinThreshold float64    `json:"min_threshold" db:"min_threshold"`
	MaxThreshold float64    `json:"max_threshold" db:"max_threshold"`
	SupplierID   *uuid.UUID `json:"supplier_id,omitempty" db:"supplier_id"`
	ExpiryDate   *time.Time `json:"expiry_date,omitempty" db:"expiry_date"`
	CostPerUnit  float64    `json:"cost_per_unit" db:"cost_per_unit"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the InventoryItem model
func (InventoryItem) TableName() string {
	return "inventory_items"
}

// NewInventoryItem creates a new InventoryItem instance
func NewInventoryItem(name, category, unit string) *InventoryItem {
	now := time.Now()
	return &InventoryItem{
		ID:        uuid.New(),
		Name:      name,
		Category:  category,
		Unit:      unit,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsLowStock reports whether the quantity has reached the reorder threshold.
func (i *InventoryItem) IsLowStock() bool {
	return i.Quantity <= i.MinThreshold
}

// StockValue returns quantity times unit cost.
func (i *InventoryItem) StockValue() float64 {
	return i.Quantity * i.CostPerUnit
}
