package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/kitchen-dashboard/internal/access"
)

// Staff tests
func TestNewStaffMember(t *testing.T) {
	s := NewStaffMember("chef@restaurant.test", "chef", "Head Chef", access.RoleKitchenStaff)

	assert.NotEqual(t, uuid.Nil, s.ID)
	assert.Equal(t, "kitchen_staff", s.Role)
	assert.False(t, s.CreatedAt.IsZero())
	assert.Equal(t, "staff_members", s.TableName())
}

func TestStaffMember_Principal(t *testing.T) {
	t.Run("known role", func(t *testing.T) {
		s := NewStaffMember("rider@restaurant.test", "rider", "Rider One", access.RoleDeliveryStaff)

		p, err := s.Principal()
		require.NoError(t, err)
		assert.Equal(t, s.ID, p.ID)
		assert.Equal(t, access.RoleDeliveryStaff, p.Role)
		assert.Equal(t, "Rider One", p.FullName)
	})

	t.Run("unknown role", func(t *testing.T) {
		s := &StaffMember{ID: uuid.New(), Role: "owner"}

		p, err := s.Principal()
		assert.Nil(t, p)
		assert.True(t, errors.Is(err, access.ErrUnknownRole))
	})
}

func TestStaffMember_PasswordHashNotSerialized(t *testing.T) {
	s := NewStaffMember("a@restaurant.test", "a", "A", access.RoleAdmin)
	s.PasswordHash = "$2a$10$secret"

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")
	assert.NotContains(t, string(data), "password")
}

// Inventory tests
func TestInventoryItem_IsLowStock(t *testing.T) {
	tests := []struct {
		name     string
		quantity float64
		min      float64
		want     bool
	}{
		{"above threshold", 10, 5, false},
		{"at threshold", 5, 5, true},
		{"below threshold", 2, 5, true},
		{"empty with zero threshold", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := NewInventoryItem("Tomatoes", "Vegetables", "kg")
			item.Quantity = tt.quantity
			item.MinThreshold = tt.min
			assert.Equal(t, tt.want, item.IsLowStock())
		})
	}
}

func TestInventoryItem_StockValue(t *testing.T) {
	item := NewInventoryItem("Rice", "Grains", "kg")
	item.Quantity = 12.5
	item.CostPerUnit = 2
	assert.InDelta(t, 25.0, item.StockValue(), 0.0001)
	assert.Equal(t, "inventory_items", item.TableName())
}

// Order tests
func TestParseOrderStatus(t *testing.T) {
	for _, s := range []string{"pending", "cooking", "ready", "delivered", "cancelled"} {
		status, err := ParseOrderStatus(s)
		require.NoError(t, err)
		assert.Equal(t, OrderStatus(s), status)
	}

	_, err := ParseOrderStatus("burnt")
	assert.Error(t, err)
}

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	legal := map[OrderStatus][]OrderStatus{
		OrderStatusPending: {OrderStatusCooking, OrderStatusCancelled},
		OrderStatusCooking: {OrderStatusReady, OrderStatusCancelled},
		OrderStatusReady:   {OrderStatusDelivered},
	}
	all := []OrderStatus{OrderStatusPending, OrderStatusCooking, OrderStatusReady, OrderStatusDelivered, OrderStatusCancelled}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, ok := range legal[from] {
				if ok == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestOrderStatus_IsActive(t *testing.T) {
	assert.True(t, OrderStatusPending.IsActive())
	assert.True(t, OrderStatusCooking.IsActive())
	assert.True(t, OrderStatusReady.IsActive())
	assert.False(t, OrderStatusDelivered.IsActive())
	assert.False(t, OrderStatusCancelled.IsActive())
}

func TestOrder_CreatedOn(t *testing.T) {
	kolkata := time.FixedZone("IST", 5*3600+1800)
	order := &Order{CreatedAt: time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)}

	assert.True(t, order.CreatedOn(time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC), time.UTC))
	assert.False(t, order.CreatedOn(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC), time.UTC))
	// 20:00 UTC is already 1:30 the next morning in IST.
	assert.True(t, order.CreatedOn(time.Date(2026, 3, 2, 8, 0, 0, 0, kolkata), kolkata))
}

// Activity tests
func TestNewActivityEntry(t *testing.T) {
	entry := NewActivityEntry(ActivitySignIn, "session")

	assert.NotEqual(t, uuid.Nil, entry.ID)
	assert.Equal(t, ActivitySignIn, entry.Action)
	assert.Equal(t, "session", entry.ResourceType)
	assert.False(t, entry.CreatedAt.IsZero())
	assert.Equal(t, "activity_log", entry.TableName())
}

func TestActivityEntry_BuilderMethods(t *testing.T) {
	actor := uuid.New()
	order := uuid.New()

	entry := NewActivityEntry(ActivityOrderStatusChanged, "order").
		WithActor(actor).
		WithResource(order).
		WithDetails(map[string]string{"from": "pending", "to": "cooking"}).
		WithRequestID("req-1")

	require.NotNil(t, entry.ActorID)
	assert.Equal(t, actor, *entry.ActorID)
	require.NotNil(t, entry.ResourceID)
	assert.Equal(t, order, *entry.ResourceID)
	assert.JSONEq(t, `{"from":"pending","to":"cooking"}`, string(entry.Details))
	assert.Equal(t, "req-1", entry.RequestID)
}
