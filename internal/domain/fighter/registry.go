package fighter

import (
	"sort"
	"strings"

	"github.com/okian/octagon/internal/domain/errs"
)

// Registry provides O(1) lookup of fighters by name. It is read-only after
// NewRegistry returns and may be shared between goroutines.
type Registry struct {
	byName map[string]Fighter
	names  []string // sorted
}

// NewRegistry indexes fighters by name. When a name repeats, the last
// occurrence wins.
func NewRegistry(fighters []Fighter) *Registry {
	r := &Registry{byName: make(map[string]Fighter, len(fighters))}
	for _, f := range fighters {
		r.byName[f.Name] = f
	}
	r.names = make([]string, 0, len(r.byName))
	for name := range r.byName {
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)
	return r
}

// Lookup returns the fighter registered under name.
func (r *Registry) Lookup(name string) (Fighter, error) {
	f, ok := r.byName[name]
	if !ok {
		return Fighter{}, errs.WrapKind("fighter.lookup", errs.ErrNotFound, ErrUnknownFighter(name))
	}
	return f, nil
}

// Search returns up to limit names containing query, case-insensitively,
// in lexical order. A non-positive limit means no limit.
func (r *Registry) Search(query string, limit int) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]string, 0)
	for _, name := range r.names {
		if limit > 0 && len(out) >= limit {
			break
		}
		if strings.Contains(strings.ToLower(name), q) {
			out = append(out, name)
		}
	}
	return out
}

// Len returns the number of distinct fighters.
func (r *Registry) Len() int { return len(r.byName) }
