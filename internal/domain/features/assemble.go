package features

import (
	"math"
	"strings"
	"time"

	"github.com/okian/octagon/internal/domain/bout"
	"github.com/okian/octagon/internal/domain/errs"
	"github.com/okian/octagon/internal/domain/fighter"
)

// Side prefixes used in feature names.
const (
	SideA = "p1"
	SideB = "p2"
)

// Feature names referenced outside the assembler.
const (
	AgeDiff       = "age_diff"
	DaysSinceDiff = "days_since_last_fight_diff"
	OfficialFreq  = "referee_freq"
	EMASuffix     = "_ema"
	DiffSuffix    = "_diff"
	StanceInfix   = "_stance_"
)

// Snapshot is the immutable reference data every request reads. It is built
// once at startup and shared by all goroutines.
type Snapshot struct {
	Fighters *fighter.Registry
	Bouts    *bout.Index
}

// Request identifies the matchup to derive features for.
type Request struct {
	SideA         string
	SideB         string
	Cutoff        time.Time
	Official      string
	IncludeMethod bool
}

// Validate rejects requests that cannot be assembled.
func (r Request) Validate() error {
	const op = "features.validate"
	switch {
	case strings.TrimSpace(r.SideA) == "" || strings.TrimSpace(r.SideB) == "":
		return errs.WrapKind(op, errs.ErrInvalidInput, errMissingFighter)
	case r.SideA == r.SideB:
		return errs.WrapKind(op, errs.ErrInvalidInput, errSameFighter)
	case r.Cutoff.IsZero():
		return errs.WrapKind(op, errs.ErrInvalidInput, errMissingDate)
	}
	return nil
}

// basicStat describes one career attribute carried per side.
type basicStat struct {
	key       string
	diff      string
	ageAdjust bool
	get       func(*fighter.Fighter) float64
}

var basicStats = []basicStat{
	{key: "height", diff: "height_diff", get: func(f *fighter.Fighter) float64 { return f.Height }},
	{key: "weight", diff: "weight_diff", get: func(f *fighter.Fighter) float64 { return f.Weight }},
	{key: "reach", diff: "reach_diff", get: func(f *fighter.Fighter) float64 { return f.Reach }},
	{key: "slpm", diff: "slpm_diff", ageAdjust: true, get: func(f *fighter.Fighter) float64 { return f.SLpM }},
	{key: "str_acc", diff: "stracc_diff", ageAdjust: true, get: func(f *fighter.Fighter) float64 { return f.StrAcc }},
	{key: "sapm", diff: "sapm_diff", ageAdjust: true, get: func(f *fighter.Fighter) float64 { return f.SApM }},
	{key: "str_def", diff: "strdef_diff", ageAdjust: true, get: func(f *fighter.Fighter) float64 { return f.StrDef }},
	{key: "td_avg", diff: "tdavg_diff", ageAdjust: true, get: func(f *fighter.Fighter) float64 { return f.TDAvg }},
	{key: "td_acc", diff: "tdacc_diff", ageAdjust: true, get: func(f *fighter.Fighter) float64 { return f.TDAcc }},
	{key: "td_def", diff: "tddef_diff", ageAdjust: true, get: func(f *fighter.Fighter) float64 { return f.TDDef }},
	{key: "sub_avg", diff: "subavg_diff", ageAdjust: true, get: func(f *fighter.Fighter) float64 { return f.SubAvg }},
}

// side carries everything derived for one party as of the cutoff.
type side struct {
	f          fighter.Fighter
	age        float64
	days       float64
	wins       int
	losses     int
	total      int
	streak     int
	ema        [bout.NumStats]float64
	methodWins map[bout.Method]int
}

func deriveSide(snap Snapshot, name string, cutoff time.Time, includeMethod bool) (side, error) {
	f, err := snap.Fighters.Lookup(name)
	if err != nil {
		return side{}, err
	}
	h := snap.Bouts.RecordsInvolving(name, cutoff)
	s := side{
		f:      f,
		age:    Age(f.DOB, cutoff),
		days:   DaysSinceLast(h, cutoff),
		streak: WinStreak(name, h),
		ema:    WeightedRecent(name, h),
	}
	s.wins, s.losses, s.total = Record(name, h)
	if includeMethod {
		s.methodWins = MethodWins(name, h)
	}
	return s, nil
}

// Assemble derives the full feature vector for req from snap.
func Assemble(snap Snapshot, req Request) (*Vector, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	a, err := deriveSide(snap, req.SideA, req.Cutoff, req.IncludeMethod)
	if err != nil {
		return nil, err
	}
	b, err := deriveSide(snap, req.SideB, req.Cutoff, req.IncludeMethod)
	if err != nil {
		return nil, err
	}
	freq := 0
	if req.Official != "" {
		freq = snap.Bouts.OfficiatedBefore(req.Official, req.Cutoff)
	}
	return build(&a, &b, float64(freq), req.IncludeMethod), nil
}

// Catalog lists every feature name Assemble can produce, in order.
func Catalog(includeMethod bool) []string {
	var a, b side
	if includeMethod {
		a.methodWins = map[bout.Method]int{}
		b.methodWins = map[bout.Method]int{}
	}
	return build(&a, &b, 0, includeMethod).names
}

func build(a, b *side, officialFreq float64, includeMethod bool) *Vector {
	v := newVector(256)

	for _, s := range []struct {
		prefix string
		sd     *side
	}{{SideA, a}, {SideB, b}} {
		for _, st := range basicStats {
			v.add(s.prefix+"_"+st.key, st.get(&s.sd.f))
		}
	}

	v.add(SideA+"_age_at_event", a.age)
	v.add(SideB+"_age_at_event", b.age)
	for _, st := range basicStats[:3] {
		v.add(st.diff, st.get(&a.f)-st.get(&b.f))
	}
	v.add(AgeDiff, a.age-b.age)
	for _, st := range basicStats[3:] {
		v.add(st.diff, st.get(&a.f)-st.get(&b.f))
	}

	v.add(SideA+"_days_since_last_fight", a.days)
	v.add(SideB+"_days_since_last_fight", b.days)
	v.add(DaysSinceDiff, a.days-b.days)

	v.add(SideA+"_wins", float64(a.wins))
	v.add(SideA+"_losses", float64(a.losses))
	v.add(SideA+"_total", float64(a.total))
	v.add(SideB+"_wins", float64(b.wins))
	v.add(SideB+"_losses", float64(b.losses))
	v.add(SideB+"_total", float64(b.total))
	v.add("win_diff", float64(a.wins-b.wins))
	v.add("loss_diff", float64(a.losses-b.losses))
	v.add("total_diff", float64(a.total-b.total))
	v.add(SideA+"_win_streak", float64(a.streak))
	v.add(SideB+"_win_streak", float64(b.streak))
	v.add("win_streak_diff", float64(a.streak-b.streak))

	for _, st := range basicStats {
		if !st.ageAdjust {
			continue
		}
		v.add(SideA+"_age_adjusted_"+st.key, AgeAdjusted(st.get(&a.f), a.age))
		v.add(SideB+"_age_adjusted_"+st.key, AgeAdjusted(st.get(&b.f), b.age))
	}

	v.add(OfficialFreq, officialFreq)

	for _, st := range bout.Stats() {
		v.add(EMAName(SideA, st), a.ema[st])
		v.add(EMAName(SideB, st), b.ema[st])
	}

	if includeMethod {
		for _, s := range []struct {
			prefix string
			sd     *side
		}{{SideA, a}, {SideB, b}} {
			for _, m := range bout.Methods {
				v.add(MethodWinsName(s.prefix, m), float64(s.sd.methodWins[m]))
			}
		}
	}

	oneHotA, oneHotB := StanceOneHot(a.f.Stance), StanceOneHot(b.f.Stance)
	for i, st := range fighter.Stances {
		v.add(SideA+StanceInfix+st.String(), oneHotA[i])
		v.add(SideB+StanceInfix+st.String(), oneHotB[i])
	}

	return v
}

// EMAName returns the weighted-average feature name for a side and stat.
func EMAName(prefix string, s bout.Stat) string {
	return prefix + "_" + s.Lower() + EMASuffix
}

// MethodWinsName returns the method-win count feature name, e.g. "p1_ko/tko_wins".
func MethodWinsName(prefix string, m bout.Method) string {
	return prefix + "_" + strings.ToLower(m.String()) + "_wins"
}

// IsMissing reports whether a feature value is absent.
func IsMissing(v float64) bool { return math.IsNaN(v) }
