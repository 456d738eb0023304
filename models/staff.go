package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/upb/kitchen-dashboard/internal/access"
)

// StaffMember is a row of staff_members. Its ID is the identity provider's
// user id, so a verified token subject maps straight to a staff record.
type StaffMember struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Username     string    `json:"username" db:"username"`
	FullName     string    `json:"full_name" db:"full_name"`
	Role         string    `json:"role" db:"role"`
	Phone        *string   `json:"phone,omitempty" db:"phone"`
	PasswordHash string    `json:"-" db:"password_hash"` // local provider only
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the StaffMember model
func (StaffMember) TableName() string {
	return "staff_members"
}

// NewStaffMember creates a new StaffMember instance
func NewStaffMember(email, username, fullName string, role access.Role) *StaffMember {
	return &StaffMember{
		ID:        uuid.New(),
		Email:     email,
		Username:  username,
		FullName:  fullName,
		Role:      string(role),
		CreatedAt: time.Now(),
	}
}

// Principal converts the record into the gate's identity. Records carrying a
// role outside the closed set are rejected.
func (s *StaffMember) Principal() (*access.Principal, error) {
	role, err := access.ParseRole(s.Role)
	if err != nil {
		return nil, err
	}
	return &access.Principal{
		ID:       s.ID,
		Role:     role,
		Email:    s.Email,
		FullName: s.FullName,
	}, nil
}
