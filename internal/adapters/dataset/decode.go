package dataset

import (
	"time"

	"github.com/okian/octagon/internal/domain/bout"
	"github.com/okian/octagon/internal/domain/fighter"
)

// Column keys after NormalizeHeader.
const (
	colName    = "name"
	colDOB     = "dob"
	colStance  = "stance"
	colSideA   = "p1_fighter"
	colSideB   = "p2_fighter"
	colDate    = "event_date"
	colWinner  = "winner"
	colMethod  = "method"
	colReferee = "referee"
)

func requireFighterColumns(h header) error {
	return h.require("fighters", colName)
}

func requireBoutColumns(h header) error {
	return h.require("bouts", colSideA, colSideB, colDate, colWinner)
}

func decodeFighter(r row) fighter.Fighter {
	f := fighter.Fighter{
		Name:   r.str(colName),
		Height: r.num("height"),
		Weight: r.num("weight"),
		Reach:  r.num("reach"),
		SLpM:   r.num("slpm"),
		StrAcc: r.num("str_acc"),
		SApM:   r.num("sapm"),
		StrDef: r.num("str_def"),
		TDAvg:  r.num("td_avg"),
		TDAcc:  r.num("td_acc"),
		TDDef:  r.num("td_def"),
		SubAvg: r.num("sub_avg"),
		Stance: fighter.ParseStance(r.str(colStance)),
	}
	// An unknown birth date leaves the age missing rather than failing the load.
	if dob, err := parseDate(r.str(colDOB)); err == nil {
		f.DOB = dob
	}
	return f
}

func decodeBout(r row) (bout.Record, error) {
	date, err := r.date(colDate)
	if err != nil {
		return bout.Record{}, err
	}
	rec := bout.Record{
		SideA:    r.str(colSideA),
		SideB:    r.str(colSideB),
		Date:     date,
		Outcome:  parseOutcome(r.num(colWinner)),
		Method:   bout.ParseMethod(r.str(colMethod)),
		Official: r.str(colReferee),
		A:        bout.EmptyPerformance(),
		B:        bout.EmptyPerformance(),
	}
	for _, s := range bout.Stats() {
		rec.A[s] = r.num("p1_" + s.Lower())
		rec.B[s] = r.num("p2_" + s.Lower())
	}
	return rec, nil
}

func parseOutcome(v float64) bout.Outcome {
	switch v {
	case 1:
		return bout.SideAWon
	case 0:
		return bout.SideBWon
	}
	return bout.NoWinner
}

// keep reports whether a decoded fighter is usable.
func keepFighter(f fighter.Fighter) bool { return f.Name != "" }

func keepBout(r bout.Record) bool {
	return r.SideA != "" && r.SideB != "" && r.Date != (time.Time{})
}
