package access

import "net/url"

const (
	// LoginPath is where signed-out principals are sent.
	LoginPath = "/login"
	// DefaultPath is the canonical landing page.
	DefaultPath = "/dashboard"
	// ReturnToParam carries the originally requested location to the login page.
	ReturnToParam = "from"
)

// Resolution is whether the identity provider has confirmed the session.
type Resolution int

const (
	Unresolved Resolution = iota
	Resolved
)

func (r Resolution) String() string {
	if r == Resolved {
		return "resolved"
	}
	return "unresolved"
}

// Outcome is the gate's verdict for one request.
type Outcome string

const (
	Pending           Outcome = "pending"
	Allow             Outcome = "allow"
	RedirectToLogin   Outcome = "redirect_to_login"
	RedirectToDefault Outcome = "redirect_to_default"
)

// Decision is the result of Authorize.
type Decision struct {
	Outcome  Outcome `json:"decision"`
	Location string  `json:"location,omitempty"`
	ReturnTo string  `json:"return_to,omitempty"`
}

// RedirectURL is the Location header for redirect outcomes.
func (d Decision) RedirectURL() string {
	if d.Outcome == RedirectToLogin && d.ReturnTo != "" {
		return d.Location + "?" + url.Values{ReturnToParam: {d.ReturnTo}}.Encode()
	}
	return d.Location
}

// IsRedirect reports whether the caller must navigate elsewhere.
func (d Decision) IsRedirect() bool {
	return d.Outcome == RedirectToLogin || d.Outcome == RedirectToDefault
}

// Authorize decides whether principal may view a page whose permitted roles
// are required. While resolution is pending it neither allows nor redirects.
func Authorize(res Resolution, principal *Principal, required RoleSet, requested string) Decision {
	if res != Resolved {
		return Decision{Outcome: Pending}
	}
	if principal == nil {
		return Decision{Outcome: RedirectToLogin, Location: LoginPath, ReturnTo: requested}
	}
	if len(required) == 0 || principal.IsAdmin() || required.Contains(principal.Role) {
		return Decision{Outcome: Allow}
	}
	return Decision{Outcome: RedirectToDefault, Location: DefaultPath}
}

// NavEntry is one visible navigation item.
type NavEntry struct {
	ID    string `json:"id"`
	Path  string `json:"path"`
	Title string `json:"title"`
}

// Gate applies a route table to requests.
type Gate struct {
	table *Table
}

// NewGate creates a gate over table.
func NewGate(table *Table) *Gate {
	return &Gate{table: table}
}

// Table returns the table the gate reads.
func (g *Gate) Table() *Table {
	return g.table
}

// Check authorizes a request for the given location (path plus optional
// query). Public pages are always allowed; paths outside the table carry no
// role restriction.
func (g *Gate) Check(res Resolution, principal *Principal, requested string) Decision {
	page, ok := g.table.Lookup(requested)
	if ok && page.Public {
		return Decision{Outcome: Allow}
	}
	var required RoleSet
	if ok {
		required = page.Roles
	}
	return Authorize(res, principal, required, requested)
}

// Navigation lists the pages principal may open, in table order. It is
// derived from Check so the menu cannot drift from the guard.
func (g *Gate) Navigation(principal *Principal) []NavEntry {
	if principal == nil {
		return []NavEntry{}
	}
	entries := make([]NavEntry, 0, len(g.table.pages))
	for _, p := range g.table.pages {
		if p.Public {
			continue
		}
		if g.Check(Resolved, principal, p.Path).Outcome != Allow {
			continue
		}
		entries = append(entries, NavEntry{ID: p.ID, Path: p.Path, Title: p.Title})
	}
	return entries
}
