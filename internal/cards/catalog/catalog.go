// Package catalog loads discoverable programs merged with a viewer's cards.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ms-fidelity/internal/models"
)

var ErrCatalogUnavailable = errors.New("catalog unavailable")

type CatalogDBLayer interface {
	ListDiscoverablePrograms(ctx context.Context) ([]models.Program, error)
	ListEnrollmentsByCustomer(ctx context.Context, customerID string) ([]models.Enrollment, error)
}

// Entry is one catalog card. Enrollment is nil when the viewer does not own
// the program.
type Entry struct {
	Program    models.Program
	Enrollment *models.Enrollment
}

func (e Entry) Owned() bool {
	return e.Enrollment != nil
}

type Loader struct {
	DB CatalogDBLayer
}

func NewLoader(db CatalogDBLayer) *Loader {
	return &Loader{DB: db}
}

// Load returns one entry per discoverable program. Any fetch failure aborts
// the whole load; callers never see a partial catalog.
func (l *Loader) Load(ctx context.Context, viewerID string) ([]Entry, error) {
	programs, err := l.DB.ListDiscoverablePrograms(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list programs: %v", ErrCatalogUnavailable, err)
	}

	owned := map[string]*models.Enrollment{}
	if viewerID != "" {
		cards, err := l.DB.ListEnrollmentsByCustomer(ctx, viewerID)
		if err != nil {
			return nil, fmt.Errorf("%w: list enrollments: %v", ErrCatalogUnavailable, err)
		}
		for i := range cards {
			owned[cards[i].LoyaltyCardID] = &cards[i]
		}
	}

	entries := make([]Entry, 0, len(programs))
	for _, p := range programs {
		// the query already filters; this guards other implementations
		if !p.Discoverable() {
			continue
		}
		entries = append(entries, Entry{Program: p, Enrollment: owned[p.ID]})
	}
	return entries, nil
}

// Find returns the entry for programID from an already loaded catalog.
func Find(entries []Entry, programID string) (Entry, bool) {
	for _, e := range entries {
		if e.Program.ID == programID {
			return e, true
		}
	}
	return Entry{}, false
}

// Filter narrows a loaded catalog the way the page search controls do.
type Filter struct {
	Query    string
	Location string
	MineOnly bool
}

// AllLocations matches every location.
const AllLocations = "all"

// Apply returns the entries matching f. Query matches the lowercased name or
// location as a substring; Location must match exactly.
func (f Filter) Apply(entries []Entry) []Entry {
	query := strings.ToLower(strings.TrimSpace(f.Query))
	location := strings.ToLower(strings.TrimSpace(f.Location))

	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if f.MineOnly && !e.Owned() {
			continue
		}
		name := strings.ToLower(e.Program.DisplayName)
		loc := strings.ToLower(e.Program.LocationName)
		if query != "" && !strings.Contains(name, query) && !strings.Contains(loc, query) {
			continue
		}
		if location != "" && location != AllLocations && loc != location {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Locations lists the distinct non-empty location names, in catalog order.
func Locations(entries []Entry) []string {
	seen := map[string]bool{}
	var out []string
	for _, e := range entries {
		loc := strings.TrimSpace(e.Program.LocationName)
		if loc == "" || seen[strings.ToLower(loc)] {
			continue
		}
		seen[strings.ToLower(loc)] = true
		out = append(out, loc)
	}
	return out
}
