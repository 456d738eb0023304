package access

import (
	_ "embed"
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed routes.yaml
var defaultRoutes []byte

// Page is one entry of the route table.
type Page struct {
	ID     string  `yaml:"id" json:"id"`
	Path   string  `yaml:"path" json:"path"`
	Title  string  `yaml:"title" json:"title"`
	Roles  RoleSet `yaml:"roles,omitempty" json:"roles,omitempty"`
	Public bool    `yaml:"public,omitempty" json:"public,omitempty"`
}

type tableFile struct {
	Pages []Page `yaml:"pages"`
}

// Table is the immutable page table read by both the guard and the
// navigation projection. It is safe for concurrent use.
type Table struct {
	pages []Page
}

// DefaultTable returns the table compiled into the binary.
func DefaultTable() (*Table, error) {
	return ParseTable(defaultRoutes)
}

// MustDefaultTable is DefaultTable for package-level wiring and tests.
func MustDefaultTable() *Table {
	t, err := DefaultTable()
	if err != nil {
		panic(err)
	}
	return t
}

// ParseTable decodes and validates a YAML route table.
func ParseTable(data []byte) (*Table, error) {
	var file tableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse route table: %w", err)
	}
	if err := validatePages(file.Pages); err != nil {
		return nil, fmt.Errorf("invalid route table: %w", err)
	}

	pages := make([]Page, len(file.Pages))
	for i, p := range file.Pages {
		pages[i] = clonePage(p)
	}
	return &Table{pages: pages}, nil
}

func validatePages(pages []Page) error {
	if len(pages) == 0 {
		return fmt.Errorf("no pages declared")
	}

	ids := make(map[string]bool, len(pages))
	paths := make(map[string]bool, len(pages))
	for _, p := range pages {
		if p.ID == "" {
			return fmt.Errorf("page %q has no id", p.Path)
		}
		if ids[p.ID] {
			return fmt.Errorf("duplicate page id %q", p.ID)
		}
		ids[p.ID] = true

		if !strings.HasPrefix(p.Path, "/") || path.Clean(p.Path) != p.Path || p.Path == "/" {
			return fmt.Errorf("page %q has invalid path %q", p.ID, p.Path)
		}
		if paths[p.Path] {
			return fmt.Errorf("duplicate page path %q", p.Path)
		}
		paths[p.Path] = true

		for _, r := range p.Roles {
			if !r.Valid() {
				return fmt.Errorf("page %q: %w: %q", p.ID, ErrUnknownRole, r)
			}
		}
		if p.Public && len(p.Roles) > 0 {
			return fmt.Errorf("public page %q cannot declare roles", p.ID)
		}
	}

	login, ok := findPage(pages, LoginPath)
	if !ok || !login.Public {
		return fmt.Errorf("login page %s must be declared public", LoginPath)
	}
	landing, ok := findPage(pages, DefaultPath)
	if !ok {
		return fmt.Errorf("default page %s is not declared", DefaultPath)
	}
	if landing.Public || len(landing.Roles) > 0 {
		return fmt.Errorf("default page %s must be open to every signed-in principal", DefaultPath)
	}
	return nil
}

func findPage(pages []Page, p string) (Page, bool) {
	for _, page := range pages {
		if page.Path == p {
			return page, true
		}
	}
	return Page{}, false
}

func clonePage(p Page) Page {
	if p.Roles != nil {
		roles := make(RoleSet, len(p.Roles))
		copy(roles, p.Roles)
		p.Roles = roles
	}
	return p
}

// Pages returns a copy of the table in declaration order.
func (t *Table) Pages() []Page {
	out := make([]Page, len(t.pages))
	for i, p := range t.pages {
		out[i] = clonePage(p)
	}
	return out
}

// Page returns the page with the given id.
func (t *Table) Page(id string) (Page, bool) {
	for _, p := range t.pages {
		if p.ID == id {
			return clonePage(p), true
		}
	}
	return Page{}, false
}

// Lookup returns the page governing a request path. Sub-paths inherit the
// rule of their page, so /kitchen/orders/42 resolves to /kitchen.
func (t *Table) Lookup(requestPath string) (Page, bool) {
	if i := strings.IndexAny(requestPath, "?#"); i >= 0 {
		requestPath = requestPath[:i]
	}
	if requestPath == "" {
		return Page{}, false
	}
	requestPath = path.Clean("/" + strings.TrimPrefix(requestPath, "/"))

	best := -1
	for i, p := range t.pages {
		if requestPath != p.Path && !strings.HasPrefix(requestPath, p.Path+"/") {
			continue
		}
		if best < 0 || len(p.Path) > len(t.pages[best].Path) {
			best = i
		}
	}
	if best < 0 {
		return Page{}, false
	}
	return clonePage(t.pages[best]), true
}
