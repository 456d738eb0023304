package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ActivityAction represents the kind of recorded activity
type ActivityAction string

const (
	ActivitySignIn             ActivityAction = "sign_in"
	ActivitySignOut            ActivityAction = "sign_out"
	ActivityOrderStatusChanged ActivityAction = "order_status_changed"
	ActivityInventoryCreated   ActivityAction = "inventory_created"
	ActivityInventoryUpdated   ActivityAction = "inventory_updated"
	ActivityInventoryDeleted   ActivityAction = "inventory_deleted"
)

// ActivityEntry is an append-only record of who did what.
type ActivityEntry struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	ActorID      *uuid.UUID      `json:"actor_id,omitempty" db:"actor_id"`
	Action       ActivityAction  `json:"action" db:"action"`
	ResourceType string          `json:"resource_type" db:"resource_type"` // order, inventory_item, session
	ResourceID   *uuid.UUID      `json:"resource_id,omitempty" db:"resource_id"`
	Details      json.RawMessage `json:"details,omitempty" db:"details"`
	RequestID    string          `json:"request_id,omitempty" db:"request_id"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the ActivityEntry model
func (ActivityEntry) TableName() string {
	return "activity_log"
}

// NewActivityEntry creates a new ActivityEntry instance
func NewActivityEntry(action ActivityAction, resourceType string) *ActivityEntry {
	return &ActivityEntry{
		ID:           uuid.New(),
		Action:       action,
		ResourceType: resourceType,
		CreatedAt:    time.Now(),
	}
}

// WithActor sets the acting staff member
func (a *ActivityEntry) WithActor(actorID uuid.UUID) *ActivityEntry {
	a.ActorID = &actorID
	return a
}

// WithResource sets the resource ID
func (a *ActivityEntry) WithResource(resourceID uuid.UUID) *ActivityEntry {
	a.ResourceID = &resourceID
	return a
}

// WithDetails sets the details
func (a *ActivityEntry) WithDetails(details interface{}) *ActivityEntry {
	if data, err := json.Marshal(details); err == nil {
		a.Details = data
	}
	return a
}

// WithRequestID sets the originating request ID
func (a *ActivityEntry) WithRequestID(requestID string) *ActivityEntry {
	a.RequestID = requestID
	return a
}
