// Package naming assigns collision-free display names to merged entities.
package naming

import (
	"fmt"

	"github.com/verte-zerg/gpxmerge/internal/window"
)

// Category separates name spaces; a track and a waypoint may share a name.
type Category string

const (
	Track    Category = "track"
	Waypoint Category = "waypoint"
	Route    Category = "route"
)

// Unnamed is the base name of entities that carry no <name>.
const Unnamed = "unnamed"

// Registry tracks the names handed out during one merge run. It is owned by
// the single goroutine that replays sources in order and is not safe for
// concurrent use.
type Registry struct {
	counts map[Category]map[string]int      // base name → claims so far
	taken  map[Category]map[string]struct{} // final names handed out
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		counts: make(map[Category]map[string]int),
		taken:  make(map[Category]map[string]struct{}),
	}
}

// BaseName computes the pre-deduplication name. With a date filter the
// original name is replaced by "{sourceID}_{Jan02}".
func BaseName(originalName, sourceID string, date *window.Date) string {
	if date != nil {
		return fmt.Sprintf("%s_%s", sourceID, date.MonthDay())
	}
	if originalName == "" {
		return Unnamed
	}
	return originalName
}

// Assign returns the final name of the next entity of category c. The first
// claim of a base name keeps it; later claims get "_1", "_2", ... skipping
// any candidate already handed out in the category.
func (r *Registry) Assign(c Category, originalName, sourceID string, date *window.Date) string {
	base := BaseName(originalName, sourceID, date)
	counts, taken := r.category(c)

	n := counts[base]
	if n == 0 {
		if _, used := taken[base]; !used {
			counts[base] = 1
			taken[base] = struct{}{}
			return base
		}
		n = 1
	}
	for {
		candidate := fmt.Sprintf("%s_%d", base, n)
		n++
		if _, used := taken[candidate]; used {
			continue
		}
		counts[base] = n
		taken[candidate] = struct{}{}
		return candidate
	}
}

// Count returns the number of names handed out in category c.
func (r *Registry) Count(c Category) int {
	return len(r.taken[c])
}

func (r *Registry) category(c Category) (map[string]int, map[string]struct{}) {
	counts, ok := r.counts[c]
	if !ok {
		counts = make(map[string]int)
		r.counts[c] = counts
	}
	taken, ok := r.taken[c]
	if !ok {
		taken = make(map[string]struct{})
		r.taken[c] = taken
	}
	return counts, taken
}
