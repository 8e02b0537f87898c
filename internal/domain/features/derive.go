// Package features derives point-in-time feature vectors for a matchup.
//
// Every function here reads a bout.History that was already cut off at the
// contest date, so no derived value can see the contest itself or anything
// after it.
package features

import (
	"math"
	"time"

	"github.com/okian/octagon/internal/domain/bout"
	"github.com/okian/octagon/internal/domain/fighter"
)

const (
	hoursPerDay = 24
	daysPerYear = 365.25

	// recentWindow is the number of most recent bouts feeding the weighted averages.
	recentWindow = 3
)

// recencyWeights is keyed by how many values are available, newest first.
var recencyWeights = [recentWindow][]float64{
	{1},
	{0.6, 0.4},
	{0.5, 0.3, 0.2},
}

// Record counts wins and losses in h. Bouts without a winner count toward
// neither, so total is wins plus losses.
func Record(name string, h bout.History) (wins, losses, total int) {
	for r := range h.All() {
		switch {
		case r.Won(name):
			wins++
		case r.Lost(name):
			losses++
		}
	}
	return wins, losses, wins + losses
}

// WinStreak counts consecutive wins, newest first, up to the first non-win.
func WinStreak(name string, h bout.History) int {
	streak := 0
	for r := range h.Descending() {
		if !r.Won(name) {
			break
		}
		streak++
	}
	return streak
}

// DaysSinceLast returns whole days between the latest bout in h and cutoff,
// or NaN when h is empty.
func DaysSinceLast(h bout.History, cutoff time.Time) float64 {
	latest, ok := h.Latest()
	if !ok {
		return math.NaN()
	}
	return float64(wholeDays(latest.Date, cutoff))
}

// WeightedRecent computes the recency-weighted average of every statistic
// over name's most recent bouts. Missing values are skipped per statistic;
// a statistic with no values at all is NaN.
func WeightedRecent(name string, h bout.History) [bout.NumStats]float64 {
	recent := make([]*bout.Performance, 0, recentWindow)
	for r := range h.Descending() {
		if len(recent) == recentWindow {
			break
		}
		if p := r.PerformanceOf(name); p != nil {
			recent = append(recent, p)
		}
	}

	var out [bout.NumStats]float64
	values := make([]float64, 0, recentWindow)
	for s := range out {
		values = values[:0]
		for _, p := range recent {
			if p.Has(bout.Stat(s)) {
				values = append(values, p[s])
			}
		}
		out[s] = weighted(values)
	}
	return out
}

// weighted combines newest-first values with the schedule for their count.
func weighted(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	n := min(len(values), recentWindow)
	w := recencyWeights[n-1]
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += w[i] * values[i]
	}
	return sum
}

// MethodWins counts name's wins by ending category. The result always has
// an entry for each predicted category.
func MethodWins(name string, h bout.History) map[bout.Method]int {
	out := make(map[bout.Method]int, len(bout.Methods))
	for _, m := range bout.Methods {
		out[m] = 0
	}
	for r := range h.All() {
		if !r.Won(name) {
			continue
		}
		if _, tracked := out[r.Method]; tracked {
			out[r.Method]++
		}
	}
	return out
}

// Age returns age in years at cutoff. It is NaN when dob is unknown or not
// before the cutoff.
func Age(dob, cutoff time.Time) float64 {
	if dob.IsZero() || !dob.Before(cutoff) {
		return math.NaN()
	}
	return float64(wholeDays(dob, cutoff)) / daysPerYear
}

// AgeAdjusted scales a career statistic by age.
func AgeAdjusted(stat, age float64) float64 {
	return stat / age
}

// StanceOneHot encodes s over fighter.Stances.
func StanceOneHot(s fighter.Stance) [len(fighter.Stances)]float64 {
	var out [len(fighter.Stances)]float64
	for i, c := range fighter.Stances {
		if c == s {
			out[i] = 1
		}
	}
	return out
}

func wholeDays(from, to time.Time) int {
	return int(to.Sub(from).Hours() / hoursPerDay)
}
