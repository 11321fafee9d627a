// Package listview derives the filtered, paginated slice an admin table
// shows from the full cached collection plus local UI state. Derivation is
// pure and recomputed on every request.
package listview

import "strings"

// PageSize is fixed across all admin tables.
const PageSize = 8

// StatusAll disables status filtering.
const StatusAll = "all"

// State is the per-table UI state: status filter, search text and the
// requested page. Changing the filter or the search resets the page to 1.
type State struct {
	Status string
	Search string
	Page   int
}

func NewState() State {
	return State{Status: StatusAll, Page: 1}
}

// SetStatus updates the status filter and, when the value actually changed,
// jumps back to the first page.
func (s *State) SetStatus(v string) {
	if v == "" {
		v = StatusAll
	}
	if s.Status != v {
		s.Status = v
		s.Page = 1
	}
}

// SetSearch updates the search text and, when the value actually changed,
// jumps back to the first page.
func (s *State) SetSearch(v string) {
	if s.Search != v {
		s.Search = v
		s.Page = 1
	}
}

// SetPage stores the requested page. Out-of-range values are tolerated here
// and clamped at derivation time.
func (s *State) SetPage(p int) {
	if p < 1 {
		p = 1
	}
	s.Page = p
}

// Page is one derived slice of the filtered collection.
type Page[T any] struct {
	Items         []T
	EffectivePage int
	TotalPages    int
	TotalItems    int
}

// Derive filters items by status and case-insensitive substring match on the
// name, then slices out the requested page. The page number is clamped into
// [1, totalPages] rather than erroring; totalPages is at least 1 even for an
// empty result.
func Derive[T any](items []T, st State, name func(T) string, status func(T) string) Page[T] {
	filtered := items
	if st.Status != "" && st.Status != StatusAll {
		filtered = filterFunc(filtered, func(it T) bool { return status(it) == st.Status })
	}
	if q := strings.TrimSpace(st.Search); q != "" {
		needle := strings.ToLower(q)
		filtered = filterFunc(filtered, func(it T) bool {
			return strings.Contains(strings.ToLower(name(it)), needle)
		})
	}

	totalPages := (len(filtered) + PageSize - 1) / PageSize
	if totalPages < 1 {
		totalPages = 1
	}
	page := st.Page
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * PageSize
	end := start + PageSize
	if start > len(filtered) {
		start = len(filtered)
	}
	if end > len(filtered) {
		end = len(filtered)
	}

	return Page[T]{
		Items:         filtered[start:end],
		EffectivePage: page,
		TotalPages:    totalPages,
		TotalItems:    len(filtered),
	}
}

func filterFunc[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}
