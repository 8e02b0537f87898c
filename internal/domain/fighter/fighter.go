// Package fighter holds the static per-party reference data and its registry.
package fighter

import (
	"time"
)

// Stance is the closed set of fighting stances.
type Stance int

// Stance values in one-hot encoding order.
const (
	StanceUnknown Stance = iota - 1
	StanceOpen
	StanceOrthodox
	StanceSideways
	StanceSouthpaw
	StanceSwitch
)

// Stances lists every known stance in encoding order.
var Stances = [...]Stance{StanceOpen, StanceOrthodox, StanceSideways, StanceSouthpaw, StanceSwitch}

var stanceNames = [...]string{"Open Stance", "Orthodox", "Sideways", "Southpaw", "Switch"}

func (s Stance) String() string {
	if s < StanceOpen || s > StanceSwitch {
		return ""
	}
	return stanceNames[s]
}

// ParseStance maps dataset text onto a Stance. Unrecognized text yields
// StanceUnknown, which encodes as all zeros.
func ParseStance(text string) Stance {
	for i, name := range stanceNames {
		if name == text {
			return Stance(i)
		}
	}
	return StanceUnknown
}

// Fighter is the immutable reference record for one party.
type Fighter struct {
	Name   string
	Height float64
	Weight float64
	Reach  float64

	// Career averages.
	SLpM   float64 // significant strikes landed per minute
	StrAcc float64
	SApM   float64 // significant strikes absorbed per minute
	StrDef float64
	TDAvg  float64
	TDAcc  float64
	TDDef  float64
	SubAvg float64

	DOB    time.Time
	Stance Stance
}
