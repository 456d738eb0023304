package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/upb/kitchen-dashboard/models"
	"github.com/upb/kitchen-dashboard/repositories"
	"github.com/upb/kitchen-dashboard/services"
	"github.com/upb/kitchen-dashboard/utils"
	"go.uber.org/zap"
)

// Recorder receives inventory activity
type Recorder interface {
	InventoryChanged(action models.ActivityAction, actorID, itemID uuid.UUID, name, requestID string) error
}

// ItemInput is the editable part of an inventory item
type ItemInput struct {
	Name         string     `json:"name" validate:"required,max=255"`
	Category     string     `json:"category" validate:"required,max=100"`
	Quantity     float64    `json:"quantity" validate:"gte=0"`
	Unit         string     `json:"unit" validate:"required,max=50"`
	MinThreshold float64    `json:"min_threshold" validate:"gte=0"`
	MaxThreshold float64    `json:"max_threshold" validate:"omitempty,gte=0,gtefield=MinThreshold"`
	SupplierID   *uuid.UUID `json:"supplier_id,omitempty"`
	ExpiryDate   *time.Time `json:"expiry_date,omitempty"`
	CostPerUnit  float64    `json:"cost_per_unit" validate:"gte=0"`
}

// ItemView is an item as shown on the inventory page
type ItemView struct {
	*models.InventoryItem
	LowStock bool `json:"low_stock"`
}

// Page is the inventory page model
type Page struct {
	Items         []ItemView `json:"items"`
	Total         int        `json:"total"`
	LowStockCount int        `json:"low_stock_count"`
	Query         string     `json:"query,omitempty"`
}

// Service manages inventory items
type Service struct {
	repo     repositories.InventoryRepository
	recorder Recorder
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates an inventory service
func NewService(repo repositories.InventoryRepository, recorder Recorder, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// Page lists items ordered by name, narrowed by query. A repository error
// is logged and yields an empty page.
func (s *Service) Page(ctx context.Context, query string) Page {
	items, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to load inventory", zap.Error(err))
		items = nil
	}

	filtered := Filter(items, query)
	page := Page{
		Items: make([]ItemView, 0, len(filtered)),
		Total: len(items),
		Query: strings.TrimSpace(query),
	}
	for _, item := range filtered {
		low := item.IsLowStock()
		if low {
			page.LowStockCount++
		}
		page.Items = append(page.Items, ItemView{InventoryItem: item, LowStock: low})
	}
	return page
}

// Filter keeps items whose name or category contains query, ignoring case
func Filter(items []*models.InventoryItem, query string) []*models.InventoryItem {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return items
	}

	out := make([]*models.InventoryItem, 0, len(items))
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Name), q) ||
			strings.Contains(strings.ToLower(item.Category), q) {
			out = append(out, item)
		}
	}
	return out
}

func validate(in ItemInput) error {
	if err := utils.ValidateStruct(in); err != nil {
		domainErr := services.NewDomainError(services.ErrorTypeValidation, "invalid inventory item", err)
		for field, msg := range utils.GetValidationFields(err) {
			domainErr.WithDetail(field, msg)
		}
		return domainErr
	}
	return nil
}

func (in ItemInput) apply(item *models.InventoryItem) {
	item.Name = strings.TrimSpace(in.Name)
	item.Category = strings.TrimSpace(in.Category)
	item.Quantity = in.Quantity
	item.Unit = strings.TrimSpace(in.Unit)
	item.MinThreshold = in.MinThreshold
	item.MaxThreshold = in.MaxThreshold
	item.SupplierID = in.SupplierID
	item.ExpiryDate = in.ExpiryDate
	item.CostPerUnit = in.CostPerUnit
}

// Create adds a new item
func (s *Service) Create(ctx context.Context, actor services.Actor, in ItemInput) (*models.InventoryItem, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	item := models.NewInventoryItem(in.Name, in.Category, in.Unit)
	in.apply(item)
	item.CreatedAt = s.now()
	item.UpdatedAt = item.CreatedAt

	if err := s.repo.Create(ctx, item); err != nil {
		return nil, services.FromRepository(err, nil, services.ErrDuplicateItem)
	}

	s.record(models.ActivityInventoryCreated, actor, item)
	return item, nil
}

// Update overwrites an existing item
func (s *Service) Update(ctx context.Context, actor services.Actor, id uuid.UUID, in ItemInput) (*models.InventoryItem, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, services.FromRepository(err, services.ErrInventoryItemNotFound, nil)
	}

	in.apply(item)
	item.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, item); err != nil {
		return nil, services.FromRepository(err, services.ErrInventoryItemNotFound, services.ErrDuplicateItem)
	}

	s.record(models.ActivityInventoryUpdated, actor, item)
	return item, nil
}

// Delete removes an item
func (s *Service) Delete(ctx context.Context, actor services.Actor, id uuid.UUID) error {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return services.FromRepository(err, services.ErrInventoryItemNotFound, nil)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return services.FromRepository(err, services.ErrInventoryItemNotFound, nil)
	}

	s.record(models.ActivityInventoryDeleted, actor, item)
	return nil
}

func (s *Service) record(action models.ActivityAction, actor services.Actor, item *models.InventoryItem) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.InventoryChanged(action, actor.ID, item.ID, item.Name, actor.RequestID); err != nil {
		s.logger.Warn("inventory activity not recorded", zap.Error(err))
	}
}
