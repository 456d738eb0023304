package staff

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/upb/kitchen-dashboard/internal/access"
	"github.com/upb/kitchen-dashboard/models"
	"github.com/upb/kitchen-dashboard/repositories/mocks"
	"go.uber.org/zap"
)

var roster = []*models.StaffMember{
	{FullName: "Ana Ruiz", Email: "ana@kitchen.co", Role: "admin"},
	{FullName: "Bruno Díaz", Email: "bruno@kitchen.co", Role: "kitchen_staff"},
	{FullName: "Carla Gómez", Email: "carla@deliveries.co", Role: "delivery_staff"},
}

func TestFilter(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"Ana Ruiz", "Bruno Díaz", "Carla Gómez"}},
		{"  ", []string{"Ana Ruiz", "Bruno Díaz", "Carla Gómez"}},
		{"ana", []string{"Ana Ruiz"}},
		{"DELIVERIES", []string{"Carla Gómez"}},
		{"staff", []string{"Bruno Díaz", "Carla Gómez"}},
		{"nobody", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			names := []string{}
			for _, m := range Filter(roster, tt.query) {
				names = append(names, m.FullName)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestService_List(t *testing.T) {
	t.Run("filters", func(t *testing.T) {
		repo := new(mocks.StaffRepository)
		repo.On("List", mock.Anything).Return(roster, nil)

		got := NewService(repo, zap.NewNop()).List(context.Background(), "kitchen_staff")
		assert.Len(t, got, 1)
	})

	t.Run("errors degrade to empty", func(t *testing.T) {
		repo := new(mocks.StaffRepository)
		repo.On("List", mock.Anything).Return(nil, errors.New("db down"))

		got := NewService(repo, zap.NewNop()).List(context.Background(), "")
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestCountByRole(t *testing.T) {
	members := append([]*models.StaffMember{
		{FullName: "Dario Paz", Role: "kitchen_staff"},
		{FullName: "Eva Sol", Role: "chef"},
	}, roster...)

	assert.Equal(t, map[access.Role]int{
		access.RoleAdmin:            1,
		access.RoleKitchenStaff:     2,
		access.RoleInventoryManager: 0,
		access.RoleDeliveryStaff:    1,
	}, CountByRole(members))

	assert.Len(t, CountByRole(nil), len(access.Roles()))
}
