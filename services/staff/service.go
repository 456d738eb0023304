package staff

import (
	"context"
	"strings"

	"github.com/upb/kitchen-dashboard/internal/access"
	"github.com/upb/kitchen-dashboard/models"
	"github.com/upb/kitchen-dashboard/repositories"
	"go.uber.org/zap"
)

// Service lists staff for the staff page
type Service struct {
	repo   repositories.StaffRepository
	logger *zap.Logger
}

// NewService creates a staff service
func NewService(repo repositories.StaffRepository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// List returns staff ordered by full name, narrowed by query. Errors are
// logged and yield an empty list.
func (s *Service) List(ctx context.Context, query string) []*models.StaffMember {
	staff, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to load staff", zap.Error(err))
		return []*models.StaffMember{}
	}
	return Filter(staff, query)
}

// Filter keeps members whose full name, email or role contains query, ignoring case
func Filter(staff []*models.StaffMember, query string) []*models.StaffMember {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return staff
	}

	out := make([]*models.StaffMember, 0, len(staff))
	for _, m := range staff {
		if strings.Contains(strings.ToLower(m.FullName), q) ||
			strings.Contains(strings.ToLower(m.Email), q) ||
			strings.Contains(strings.ToLower(m.Role), q) {
			out = append(out, m)
		}
	}
	return out
}

// CountByRole counts members per role. Every known role is present, so the
// page can render an empty badge; rows with an unknown role are not counted.
func CountByRole(staff []*models.StaffMember) map[access.Role]int {
	counts := make(map[access.Role]int)
	for _, r := range access.Roles() {
		counts[r] = 0
	}
	for _, m := range staff {
		if _, ok := counts[access.Role(m.Role)]; ok {
			counts[access.Role(m.Role)]++
		}
	}
	return counts
}
