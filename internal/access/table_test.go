package access

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	for _, r := range Roles() {
		got, err := ParseRole(string(r))
		require.NoError(t, err)
		assert.Equal(t, r, got)
	}

	_, err := ParseRole("super_admin")
	assert.True(t, errors.Is(err, ErrUnknownRole))

	_, err = ParseRole("")
	assert.True(t, errors.Is(err, ErrUnknownRole))
}

func TestDefaultTable(t *testing.T) {
	table, err := DefaultTable()
	require.NoError(t, err)

	staff, ok := table.Page("staff")
	require.True(t, ok)
	assert.Equal(t, RoleSet{RoleAdmin}, staff.Roles)

	login, ok := table.Lookup("/login")
	require.True(t, ok)
	assert.True(t, login.Public)

	dashboard, ok := table.Lookup("/dashboard/")
	require.True(t, ok)
	assert.Empty(t, dashboard.Roles)

	_, ok = table.Lookup("/")
	assert.False(t, ok)
}

func TestTable_PagesIsACopy(t *testing.T) {
	table := MustDefaultTable()

	pages := table.Pages()
	for i := range pages {
		if pages[i].ID == "staff" {
			pages[i].Roles[0] = RoleKitchenStaff
			pages[i].Roles = append(pages[i].Roles, RoleDeliveryStaff)
		}
	}

	staff, _ := table.Page("staff")
	assert.Equal(t, RoleSet{RoleAdmin}, staff.Roles)
}

func TestParseTable_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "not yaml",
			yaml: "pages: [",
		},
		{
			name: "empty",
			yaml: "pages: []",
		},
		{
			name: "unknown role",
			yaml: `
pages:
  - {id: login, path: /login, public: true}
  - {id: dashboard, path: /dashboard}
  - {id: vault, path: /vault, roles: [owner]}`,
		},
		{
			name: "duplicate path",
			yaml: `
pages:
  - {id: login, path: /login, public: true}
  - {id: dashboard, path: /dashboard}
  - {id: home, path: /dashboard}`,
		},
		{
			name: "missing login",
			yaml: `
pages:
  - {id: dashboard, path: /dashboard}`,
		},
		{
			name: "restricted landing page",
			yaml: `
pages:
  - {id: login, path: /login, public: true}
  - {id: dashboard, path: /dashboard, roles: [admin]}`,
		},
		{
			name: "relative path",
			yaml: `
pages:
  - {id: login, path: /login, public: true}
  - {id: dashboard, path: /dashboard}
  - {id: kitchen, path: kitchen}`,
		},
		{
			name: "public page with roles",
			yaml: `
pages:
  - {id: login, path: /login, public: true, roles: [admin]}
  - {id: dashboard, path: /dashboard}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := ParseTable([]byte(tt.yaml))
			assert.Error(t, err)
			assert.Nil(t, table)
		})
	}
}
