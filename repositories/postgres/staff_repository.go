package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/upb/kitchen-dashboard/models"
	"github.com/upb/kitchen-dashboard/repositories"
	"go.uber.org/zap"
)

// StaffRepository implements the repositories.StaffRepository interface
type StaffRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewStaffRepository creates a new staff repository
func NewStaffRepository(db *DB, logger *zap.Logger) repositories.StaffRepository {
	return &StaffRepository{
		db:     db,
		logger: logger,
	}
}

const staffColumns = `id, email, username, full_name, role, phone, created_at`

// GetByID retrieves a staff member by ID. The password hash is not read.
func (r *StaffRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.StaffMember, error) {
	query := `SELECT ` + staffColumns + ` FROM staff_members WHERE id = $1`

	executor := GetExecutor(ctx, r.db)
	staff := &models.StaffMember{}

	err := executor.QueryRowContext(ctx, query, id).Scan(
		&staff.ID,
		&staff.Email,
		&staff.Username,
		&staff.FullName,
		&staff.Role,
		&staff.Phone,
		&staff.CreatedAt,
	)
	if err != nil {
		if err = mapError(err); err == repositories.ErrNotFound {
			return nil, fmt.Errorf("staff member %s: %w", id, err)
		}
		return nil, fmt.Errorf("failed to get staff member: %w", err)
	}

	return staff, nil
}

// GetByEmail retrieves a staff member and password hash by email (case-insensitive)
func (r *StaffRepository) GetByEmail(ctx context.Context, email string) (*models.StaffMember, error) {
	query := `SELECT ` + staffColumns + `, password_hash FROM staff_members WHERE lower(email) = lower($1)`

	executor := GetExecutor(ctx, r.db)
	staff := &models.StaffMember{}

	err := executor.QueryRowContext(ctx, query, email).Scan(
		&staff.ID,
		&staff.Email,
		&staff.Username,
		&staff.FullName,
		&staff.Role,
		&staff.Phone,
		&staff.CreatedAt,
		&staff.PasswordHash,
	)
	if err != nil {
		if err = mapError(err); err == repositories.ErrNotFound {
			return nil, fmt.Errorf("staff member for email: %w", err)
		}
		return nil, fmt.Errorf("failed to get staff member: %w", err)
	}

	return staff, nil
}

// List returns all staff ordered by full name
func (r *StaffRepository) List(ctx context.Context) ([]*models.StaffMember, error) {
	query := `SELECT ` + staffColumns + ` FROM staff_members ORDER BY full_name`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query staff: %w", err)
	}
	defer rows.Close()

	staff := make([]*models.StaffMember, 0)
	for rows.Next() {
		s := &models.StaffMember{}
		if err := rows.Scan(
			&s.ID,
			&s.Email,
			&s.Username,
			&s.FullName,
			&s.Role,
			&s.Phone,
			&s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan staff member: %w", err)
		}
		staff = append(staff, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating staff rows: %w", err)
	}

	return staff, nil
}

// Count returns the number of staff members
func (r *StaffRepository) Count(ctx context.Context) (int, error) {
	var count int
	executor := GetExecutor(ctx, r.db)
	if err := executor.QueryRowContext(ctx, `SELECT COUNT(*) FROM staff_members`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count staff: %w", err)
	}
	return count, nil
}
