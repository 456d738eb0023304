package services

import "github.com/google/uuid"

// Actor identifies who performs a mutation, for the activity log
type Actor struct {
	ID        uuid.UUID
	RequestID string
}
