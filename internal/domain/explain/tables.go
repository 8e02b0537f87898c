package explain

import (
	"github.com/okian/octagon/internal/domain/bout"
	"github.com/okian/octagon/internal/domain/features"
)

// pair maps a per-side feature suffix to a display label.
type pair struct {
	key   string
	label string
}

type pairingTable struct {
	category Category
	pairs    []pair
}

var pairingTables = []pairingTable{
	{IndividualSkills, []pair{
		{"slpm", "Strikes Landed per Minute"},
		{"str_acc", "Striking Accuracy"},
		{"sapm", "Strikes Absorbed per Minute"},
		{"str_def", "Striking Defense"},
		{"td_avg", "Takedown Average"},
		{"td_acc", "Takedown Accuracy"},
		{"td_def", "Takedown Defense"},
		{"sub_avg", "Submission Average"},
		{"age_adjusted_slpm", "Age-Adjusted Strikes Landed"},
		{"age_adjusted_str_acc", "Age-Adjusted Striking Accuracy"},
		{"age_adjusted_sapm", "Age-Adjusted Strikes Absorbed"},
		{"age_adjusted_str_def", "Age-Adjusted Striking Defense"},
		{"age_adjusted_td_avg", "Age-Adjusted Takedown Average"},
		{"age_adjusted_td_acc", "Age-Adjusted Takedown Accuracy"},
		{"age_adjusted_td_def", "Age-Adjusted Takedown Defense"},
		{"age_adjusted_sub_avg", "Age-Adjusted Submission Average"},
	}},
	{PhysicalAttributes, []pair{
		{"height", "Height"},
		{"weight", "Weight"},
		{"reach", "Reach"},
		{"age_at_event", "Age"},
	}},
	{ExperienceRecords, experiencePairs()},
}

func experiencePairs() []pair {
	pairs := []pair{
		{"wins", "Wins"},
		{"losses", "Losses"},
		{"total", "Total Fights"},
		{"win_streak", "Win Streak"},
		{"days_since_last_fight", "Days Since Last Fight"},
	}
	for _, m := range bout.Methods {
		name := features.MethodWinsName("", m)[1:]
		pairs = append(pairs, pair{name, m.String() + " Wins"})
	}
	return pairs
}
