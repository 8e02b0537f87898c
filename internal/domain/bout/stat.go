package bout

import (
	"math"
	"strings"
)

// Stat identifies one per-side performance statistic recorded for a bout.
type Stat int

// Per-side performance statistics, in the order their weighted-average
// features are emitted.
const (
	KD Stat = iota
	SigStrPct
	TDPct
	SubAtt
	Rev
	Ctrl
	R1KD
	R1SigStrPct
	R1TDPct
	R1SubAtt
	R1Rev
	R1Ctrl
	SigStrPctDetailed
	R1SigStrPctDetailed
	SigStrLanded
	SigStrAttempted
	TotalStrLanded
	TotalStrAttempted
	TDLanded
	TDAttempted
	R1SigStrLanded
	R1SigStrAttempted
	R1TotalStrLanded
	R1TotalStrAttempted
	R1TDLanded
	R1TDAttempted
	HeadLanded
	HeadAttempted
	BodyLanded
	BodyAttempted
	LegLanded
	LegAttempted
	DistanceLanded
	DistanceAttempted
	ClinchLanded
	ClinchAttempted
	GroundLanded
	GroundAttempted
	R1HeadLanded
	R1HeadAttempted
	R1BodyLanded
	R1BodyAttempted
	R1LegLanded
	R1LegAttempted
	R1DistanceLanded
	R1DistanceAttempted
	R1ClinchLanded
	R1ClinchAttempted
	R1GroundLanded
	R1GroundAttempted

	NumStats int = iota
)

var statNames = [NumStats]string{
	"KD", "SIG_STR_PCT", "TD_PCT", "SUB_ATT", "REV", "CTRL",
	"R1_KD", "R1_SIG_STR_PCT", "R1_TD_PCT", "R1_SUB_ATT", "R1_REV", "R1_CTRL",
	"SIG_STR_PCT_DETAILED", "R1_SIG_STR_PCT_DETAILED",
	"SIG_STR_LANDED", "SIG_STR_ATTEMPTED", "TOTAL_STR_LANDED", "TOTAL_STR_ATTEMPTED",
	"TD_LANDED", "TD_ATTEMPTED",
	"R1_SIG_STR_LANDED", "R1_SIG_STR_ATTEMPTED", "R1_TOTAL_STR_LANDED", "R1_TOTAL_STR_ATTEMPTED",
	"R1_TD_LANDED", "R1_TD_ATTEMPTED",
	"HEAD_LANDED", "HEAD_ATTEMPTED", "BODY_LANDED", "BODY_ATTEMPTED",
	"LEG_LANDED", "LEG_ATTEMPTED",
	"DISTANCE_LANDED", "DISTANCE_ATTEMPTED", "CLINCH_LANDED", "CLINCH_ATTEMPTED",
	"GROUND_LANDED", "GROUND_ATTEMPTED",
	"R1_HEAD_LANDED", "R1_HEAD_ATTEMPTED", "R1_BODY_LANDED", "R1_BODY_ATTEMPTED",
	"R1_LEG_LANDED", "R1_LEG_ATTEMPTED",
	"R1_DISTANCE_LANDED", "R1_DISTANCE_ATTEMPTED", "R1_CLINCH_LANDED", "R1_CLINCH_ATTEMPTED",
	"R1_GROUND_LANDED", "R1_GROUND_ATTEMPTED",
}

// String returns the dataset column suffix, e.g. "SIG_STR_LANDED".
func (s Stat) String() string {
	if s < 0 || int(s) >= NumStats {
		return ""
	}
	return statNames[s]
}

// Lower returns the lower-case name used in feature names.
func (s Stat) Lower() string { return strings.ToLower(s.String()) }

// Stats returns every Stat in order.
func Stats() []Stat {
	out := make([]Stat, NumStats)
	for i := range out {
		out[i] = Stat(i)
	}
	return out
}

// ParseStat resolves a case-insensitive column suffix.
func ParseStat(name string) (Stat, bool) {
	upper := strings.ToUpper(name)
	for i, n := range statNames {
		if n == upper {
			return Stat(i), true
		}
	}
	return 0, false
}

// Performance holds one side's statistics for a bout. NaN marks a value
// that was missing or non-numeric in the source data.
type Performance [NumStats]float64

// EmptyPerformance returns a Performance with every value missing.
func EmptyPerformance() Performance {
	var p Performance
	for i := range p {
		p[i] = math.NaN()
	}
	return p
}

// Has reports whether s was recorded.
func (p *Performance) Has(s Stat) bool { return !math.IsNaN(p[s]) }
