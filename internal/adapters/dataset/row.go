package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// NormalizeHeader maps a dataset column name onto its lookup key:
// "Str. Acc." becomes "str_acc" and "p1_SIG_STR_PCT" becomes "p1_sig_str_pct".
func NormalizeHeader(h string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.TrimSpace(h) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		pending = true
	}
	return b.String()
}

var dateLayouts = []string{
	time.DateOnly,
	time.DateTime,
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// parseDate accepts the layouts seen in scraped fight data.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: date %q", ErrBadValue, s)
}

// header indexes normalized column names.
type header map[string]int

func newHeader(cols []string) header {
	h := make(header, len(cols))
	for i, c := range cols {
		h[NormalizeHeader(c)] = i
	}
	return h
}

func (h header) require(table string, names ...string) error {
	for _, n := range names {
		if _, ok := h[n]; !ok {
			return fmt.Errorf("%w: %s.%s", ErrMissingColumn, table, n)
		}
	}
	return nil
}

// row is one decoded record addressed by normalized column name.
type row struct {
	h      header
	values []string
	line   int
}

func (r row) str(name string) string {
	i, ok := r.h[name]
	if !ok || i >= len(r.values) {
		return ""
	}
	return strings.TrimSpace(r.values[i])
}

// num parses a numeric cell. Blank and non-numeric cells are missing (NaN).
func (r row) num(name string) float64 {
	s := r.str(name)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func (r row) date(name string) (time.Time, error) {
	t, err := parseDate(r.str(name))
	if err != nil {
		return time.Time{}, fmt.Errorf("line %d: %s: %w", r.line, name, err)
	}
	return t, nil
}
