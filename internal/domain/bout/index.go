package bout

import (
	"iter"
	"sort"
	"time"
)

// Index is a read-only view over the match log with per-party and
// per-official postings sorted by date. Safe for concurrent readers.
type Index struct {
	records    []Record
	byParty    map[string][]int
	byOfficial map[string][]time.Time
}

// NewIndex copies and indexes records.
func NewIndex(records []Record) *Index {
	idx := &Index{
		records:    make([]Record, len(records)),
		byParty:    make(map[string][]int),
		byOfficial: make(map[string][]time.Time),
	}
	copy(idx.records, records)
	sort.SliceStable(idx.records, func(i, j int) bool {
		return idx.records[i].Date.Before(idx.records[j].Date)
	})

	for i := range idx.records {
		r := &idx.records[i]
		idx.byParty[r.SideA] = append(idx.byParty[r.SideA], i)
		if r.SideB != r.SideA {
			idx.byParty[r.SideB] = append(idx.byParty[r.SideB], i)
		}
		if r.Official != "" {
			idx.byOfficial[r.Official] = append(idx.byOfficial[r.Official], r.Date)
		}
	}
	return idx
}

// Len returns the number of indexed bouts.
func (idx *Index) Len() int { return len(idx.records) }

// RecordsInvolving returns the bouts name fought strictly before the cutoff.
func (idx *Index) RecordsInvolving(name string, before time.Time) History {
	postings := idx.byParty[name]
	n := sort.Search(len(postings), func(i int) bool {
		return !idx.records[postings[i]].Date.Before(before)
	})
	return History{records: idx.records, postings: postings[:n]}
}

// OfficiatedBefore counts the bouts official worked strictly before the cutoff.
func (idx *Index) OfficiatedBefore(official string, before time.Time) int {
	dates := idx.byOfficial[official]
	return sort.Search(len(dates), func(i int) bool {
		return !dates[i].Before(before)
	})
}

// OfficialCount pairs an official with the number of bouts they worked.
type OfficialCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// TopOfficials returns the most frequent officials across the whole log,
// ordered by count descending then name. A non-positive limit returns all.
func (idx *Index) TopOfficials(limit int) []OfficialCount {
	out := make([]OfficialCount, 0, len(idx.byOfficial))
	for name, dates := range idx.byOfficial {
		out = append(out, OfficialCount{Name: name, Count: len(dates)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Officials returns the number of distinct officials.
func (idx *Index) Officials() int { return len(idx.byOfficial) }

// History is a lazily evaluated, date-ordered view of one party's past
// bouts. Iteration yields pointers into the index; callers must not mutate.
type History struct {
	records  []Record
	postings []int
}

// Len returns the number of bouts in the view.
func (h History) Len() int { return len(h.postings) }

// All yields bouts oldest first.
func (h History) All() iter.Seq[*Record] {
	return func(yield func(*Record) bool) {
		for _, i := range h.postings {
			if !yield(&h.records[i]) {
				return
			}
		}
	}
}

// Descending yields bouts newest first.
func (h History) Descending() iter.Seq[*Record] {
	return func(yield func(*Record) bool) {
		for k := len(h.postings) - 1; k >= 0; k-- {
			if !yield(&h.records[h.postings[k]]) {
				return
			}
		}
	}
}

// Latest returns the most recent bout, if any.
func (h History) Latest() (*Record, bool) {
	if len(h.postings) == 0 {
		return nil, false
	}
	return &h.records[h.postings[len(h.postings)-1]], true
}
