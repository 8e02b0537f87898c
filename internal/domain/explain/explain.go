// Package explain turns raw per-feature attribution scores into a short,
// categorized and ranked list of factors.
package explain

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/okian/octagon/internal/domain/errs"
	"github.com/okian/octagon/internal/domain/features"
)

const (
	// Threshold is the strict lower bound on |score| for an emitted factor.
	Threshold = 0.025
	// MaxFactors caps the aggregated output.
	MaxFactors = 16
	// ResidualName names the aggregate of small context features.
	ResidualName = "Other Factors"
)

// Attributor is the external explainer producing one score per feature of
// the winner vector, in the same order.
type Attributor interface {
	Attribute(ctx context.Context, x []float64) ([]float64, error)
}

// Category groups factors for display.
type Category string

// Categories in display order.
const (
	FighterDifferences Category = "Fighter Differences"
	IndividualSkills   Category = "Individual Skills"
	PhysicalAttributes Category = "Physical Attributes"
	ExperienceRecords  Category = "Experience & Records"
	FightingStyle      Category = "Fighting Style"
	ContextOther       Category = "Context & Other"
)

// Categories lists every category in display order.
var Categories = [...]Category{
	FighterDifferences, IndividualSkills, PhysicalAttributes,
	ExperienceRecords, FightingStyle, ContextOther,
}

var categoryLimit = map[Category]int{
	FighterDifferences: 6,
	IndividualSkills:   5,
	PhysicalAttributes: 3,
	ExperienceRecords:  3,
	FightingStyle:      2,
	ContextOther:       1,
}

// Kind tells whether a factor merges both sides or is a single feature.
type Kind string

const (
	Combined   Kind = "combined"
	Individual Kind = "individual"
)

// Factor is one explanation line.
type Factor struct {
	Name     string
	Value    float64
	Category Category
	Kind     Kind

	// Raw feature values, nil when unknown or missing.
	SideA *float64
	SideB *float64
}

// excluded differences are already represented by their paired stats.
var excluded = map[string]bool{
	features.AgeDiff:       true,
	features.DaysSinceDiff: true,
}

// Aggregate pairs, filters, categorizes, ranks and caps scores. names and
// values describe the vector the winner classifier scored; scores holds one
// attribution per feature.
func Aggregate(names []string, values, scores []float64) ([]Factor, error) {
	if len(names) != len(scores) || len(values) != len(scores) {
		return nil, errs.WrapKind("explain.aggregate", errs.ErrInvalidInput,
			fmt.Errorf("%w: %d names, %d values, %d scores", errLengthMismatch, len(names), len(values), len(scores)))
	}
	for i, sc := range scores {
		if math.IsNaN(sc) || math.IsInf(sc, 0) {
			return nil, errs.WrapKind("explain.aggregate", errs.ErrUpstream,
				fmt.Errorf("%w: %s = %v", errNonFinite, names[i], sc))
		}
	}

	index := make(map[string]int, len(names))
	for i, n := range names {
		index[n] = i
	}
	consumed := make([]bool, len(names))
	var factors []Factor

	for _, t := range pairingTables {
		for _, p := range t.pairs {
			i, okA := index[features.SideA+"_"+p.key]
			j, okB := index[features.SideB+"_"+p.key]
			if !okA || !okB {
				continue
			}
			consumed[i], consumed[j] = true, true
			score := scores[i] + scores[j]
			if math.Abs(score) <= Threshold {
				continue
			}
			factors = append(factors, Factor{
				Name:     p.label,
				Value:    score,
				Category: t.category,
				Kind:     Combined,
				SideA:    present(values[i]),
				SideB:    present(values[j]),
			})
		}
	}

	residual := 0.0
	for i, name := range names {
		if consumed[i] || excluded[name] {
			continue
		}
		c := categorize(name)
		if math.Abs(scores[i]) <= Threshold {
			if c == ContextOther {
				residual += scores[i]
			}
			continue
		}
		f := Factor{Name: name, Value: scores[i], Category: c, Kind: Individual}
		switch {
		case strings.HasPrefix(name, features.SideA+"_"):
			f.SideA = present(values[i])
		case strings.HasPrefix(name, features.SideB+"_"):
			f.SideB = present(values[i])
		}
		factors = append(factors, f)
	}
	if math.Abs(residual) > Threshold {
		factors = append(factors, Factor{Name: ResidualName, Value: residual, Category: ContextOther, Kind: Combined})
	}

	return rank(factors), nil
}

// categorize assigns an unpaired feature by its name.
func categorize(name string) Category {
	switch {
	case strings.HasSuffix(name, features.DiffSuffix):
		return FighterDifferences
	case strings.Contains(name, features.StanceInfix):
		return FightingStyle
	}
	return ContextOther
}

// rank orders each category by descending |score|, applies the category
// limits, then shrinks proportionally to MaxFactors.
func rank(factors []Factor) []Factor {
	groups := make(map[Category][]Factor, len(Categories))
	for _, f := range factors {
		groups[f.Category] = append(groups[f.Category], f)
	}

	total := 0
	for _, c := range Categories {
		g := groups[c]
		sort.SliceStable(g, func(i, j int) bool { return math.Abs(g[i].Value) > math.Abs(g[j].Value) })
		if len(g) > categoryLimit[c] {
			g = g[:categoryLimit[c]]
		}
		groups[c] = g
		total += len(g)
	}

	out := make([]Factor, 0, min(total, MaxFactors))
	for _, c := range Categories {
		g := groups[c]
		if total > MaxFactors && len(g) > 0 {
			g = g[:max(1, len(g)*MaxFactors/total)]
		}
		out = append(out, g...)
	}
	if len(out) > MaxFactors {
		out = out[:MaxFactors]
	}
	return out
}

func present(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
