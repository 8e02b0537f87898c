package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/okian/octagon/internal/adapters/model"
	"github.com/okian/octagon/internal/domain/types"
)

const missing = "-"

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printPrediction(w io.Writer, p types.PredictionResponse) {
	fmt.Fprintf(w, "\n%s  |  %s  |  Referee: %s\n\n", p.FightType, p.EventDate, orMissing(p.Referee))

	table := newTable(w)
	if len(p.Fighter1Methods) > 0 {
		table.Header("FIGHTER", "WIN", "METHODS")
		table.Append(p.Fighter1Name, p.Fighter1WinPercentage, strings.Join(p.Fighter1Methods, ", "))
		table.Append(p.Fighter2Name, p.Fighter2WinPercentage, strings.Join(p.Fighter2Methods, ", "))
	} else {
		table.Header("FIGHTER", "WIN")
		table.Append(p.Fighter1Name, p.Fighter1WinPercentage)
		table.Append(p.Fighter2Name, p.Fighter2WinPercentage)
	}
	table.Render()

	fmt.Fprintf(w, "\nPredicted winner: %s\n", p.PredictedWinner)
}

func printExplanation(w io.Writer, e types.ExplainResponse) {
	fmt.Fprintf(w, "\n%s vs %s  |  %s\n\n", e.Fighter1, e.Fighter2, e.EventDate)

	table := newTable(w)
	table.Header("FACTOR", "SHAP", "CATEGORY", "TYPE", "FIGHTER_1", "FIGHTER_2")
	for _, f := range e.Factors {
		table.Append(
			f.Name,
			fmt.Sprintf("%+.4f", f.ShapValue),
			f.Category,
			f.Type,
			number(f.Fighter1Value),
			number(f.Fighter2Value),
		)
	}
	table.Render()
}

func printFighter(w io.Writer, f types.FighterResponse) {
	table := newTable(w)
	table.Header("FIELD", "VALUE")
	rows := []struct {
		name  string
		value string
	}{
		{"name", f.Name},
		{"dob", orMissing(f.DOB)},
		{"stance", orMissing(f.Stance)},
		{"height", number(f.Height)},
		{"weight", number(f.Weight)},
		{"reach", number(f.Reach)},
		{"slpm", number(f.SLpM)},
		{"str_acc", number(f.StrAcc)},
		{"sapm", number(f.SApM)},
		{"str_def", number(f.StrDef)},
		{"td_avg", number(f.TDAvg)},
		{"td_acc", number(f.TDAcc)},
		{"td_def", number(f.TDDef)},
		{"sub_avg", number(f.SubAvg)},
	}
	for _, r := range rows {
		table.Append(r.name, r.value)
	}
	table.Render()
}

func printSearch(w io.Writer, s types.SearchResponse) {
	table := newTable(w)
	table.Header("#", "FIGHTER")
	for i, name := range s.Fighters {
		table.Append(strconv.Itoa(i+1), name)
	}
	table.Render()
}

func printOfficials(w io.Writer, o types.OfficialsResponse) {
	table := newTable(w)
	table.Header("#", "REFEREE", "BOUTS")
	for i, r := range o.Referees {
		table.Append(strconv.Itoa(i+1), r.Name, strconv.Itoa(r.Count))
	}
	table.Render()
}

func printModels(w io.Writer, models []model.Status) {
	table := newTable(w)
	table.Header("MODEL", "OBJECTIVE", "CLASSES", "TREES", "FEATURES", "PATH")
	for _, m := range models {
		table.Append(
			m.Name,
			orMissing(m.Objective),
			strconv.Itoa(m.Classes),
			strconv.Itoa(m.Trees),
			strconv.Itoa(m.Features),
			orMissing(m.Path),
		)
	}
	table.Render()
}

func number(v *float64) string {
	if v == nil {
		return missing
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func orMissing(s string) string {
	if s == "" {
		return missing
	}
	return s
}
