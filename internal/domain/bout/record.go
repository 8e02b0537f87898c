// Package bout models the historical match log and its point-in-time views.
package bout

import "time"

// Outcome records which side of a bout won.
type Outcome int8

// Outcome values. The dataset encodes a side-A win as 1 and a side-B win
// as 0; anything else (draws, no contests) is NoWinner.
const (
	NoWinner Outcome = -1
	SideBWon Outcome = 0
	SideAWon Outcome = 1
)

// Record is one historical bout. Records are immutable once indexed.
type Record struct {
	SideA    string
	SideB    string
	Date     time.Time
	Outcome  Outcome
	Method   Method
	Official string

	A Performance
	B Performance
}

// Involves reports whether name fought on either side.
func (r *Record) Involves(name string) bool {
	return r.SideA == name || r.SideB == name
}

// Won reports whether name was on the winning side.
func (r *Record) Won(name string) bool {
	return (r.SideA == name && r.Outcome == SideAWon) ||
		(r.SideB == name && r.Outcome == SideBWon)
}

// Lost reports whether name was on the losing side.
func (r *Record) Lost(name string) bool {
	return (r.SideA == name && r.Outcome == SideBWon) ||
		(r.SideB == name && r.Outcome == SideAWon)
}

// PerformanceOf returns the statistics recorded for name's side, or nil
// when name did not fight in this bout.
func (r *Record) PerformanceOf(name string) *Performance {
	switch name {
	case r.SideA:
		return &r.A
	case r.SideB:
		return &r.B
	}
	return nil
}
