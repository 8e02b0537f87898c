// Package types contains the JSON shapes exchanged over the HTTP API and
// their conversions from the domain model.
package types

import (
	"math"
	"strings"
	"time"

	"github.com/okian/octagon/internal/domain/bout"
	"github.com/okian/octagon/internal/domain/errs"
	"github.com/okian/octagon/internal/domain/explain"
	"github.com/okian/octagon/internal/domain/features"
	"github.com/okian/octagon/internal/domain/fighter"
	"github.com/okian/octagon/internal/domain/predict"
)

// DateLayout is the wire format of event dates.
const DateLayout = time.DateOnly

// PredictRequest is the body of POST /predict and POST /explain.
type PredictRequest struct {
	Fighter1       string `json:"fighter_1"`
	Fighter2       string `json:"fighter_2"`
	EventDate      string `json:"event_date"`
	Referee        string `json:"referee"`
	PredictionType string `json:"prediction_type,omitempty"`
}

// Parse validates the request and converts it for the engine. An empty
// prediction type means winner.
func (r PredictRequest) Parse() (features.Request, predict.Type, error) {
	const op = "types.parse_request"
	date, err := time.Parse(DateLayout, strings.TrimSpace(r.EventDate))
	if err != nil {
		return features.Request{}, 0, errs.WrapKind(op, errs.ErrInvalidInput, err)
	}
	typ := predict.TypeWinner
	if strings.TrimSpace(r.PredictionType) != "" {
		if typ, err = predict.ParseType(r.PredictionType); err != nil {
			return features.Request{}, 0, err
		}
	}
	req := features.Request{
		SideA:         strings.TrimSpace(r.Fighter1),
		SideB:         strings.TrimSpace(r.Fighter2),
		Cutoff:        date,
		Official:      strings.TrimSpace(r.Referee),
		IncludeMethod: typ == predict.TypeMethod,
	}
	if err := req.Validate(); err != nil {
		return features.Request{}, 0, err
	}
	return req, typ, nil
}

// PredictionResponse reports a combined prediction with preformatted
// percentages.
type PredictionResponse struct {
	FightType              string   `json:"fight_type"`
	Fighter1Name           string   `json:"fighter_1_name"`
	Fighter1WinPercentage  string   `json:"fighter_1_win_percentage"`
	Fighter2Name           string   `json:"fighter_2_name"`
	Fighter2WinPercentage  string   `json:"fighter_2_win_percentage"`
	PredictedWinner        string   `json:"predicted_winner"`
	EventDate              string   `json:"event_date"`
	Referee                string   `json:"referee"`
	Fighter1Methods        []string `json:"fighter_1_method_percentages,omitempty"`
	Fighter2Methods        []string `json:"fighter_2_method_percentages,omitempty"`
	Fighter1WinProbability float64  `json:"fighter_1_win_probability"`
	Fighter2WinProbability float64  `json:"fighter_2_win_probability"`
}

// FromPrediction renders p for the wire.
func FromPrediction(p predict.Prediction) PredictionResponse {
	return PredictionResponse{
		FightType:              p.Type.Label(),
		Fighter1Name:           p.Odds.SideA,
		Fighter1WinPercentage:  predict.Percent(p.Odds.PSideA),
		Fighter2Name:           p.Odds.SideB,
		Fighter2WinPercentage:  predict.Percent(p.Odds.PSideB),
		PredictedWinner:        p.Odds.Winner,
		EventDate:              p.Date.Format(DateLayout),
		Referee:                p.Official,
		Fighter1Methods:        shares(p.SideAMethods),
		Fighter2Methods:        shares(p.SideBMethods),
		Fighter1WinProbability: p.Odds.PSideA,
		Fighter2WinProbability: p.Odds.PSideB,
	}
}

func shares(in []predict.MethodShare) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = s.String()
	}
	return out
}

// ExplanationItem is one aggregated factor.
type ExplanationItem struct {
	Name          string   `json:"name"`
	ShapValue     float64  `json:"shap_value"`
	Category      string   `json:"category"`
	Type          string   `json:"type"`
	Fighter1Value *float64 `json:"fighter_1_value"`
	Fighter2Value *float64 `json:"fighter_2_value"`
}

// ExplainResponse lists factors in display order.
type ExplainResponse struct {
	Fighter1  string            `json:"fighter_1"`
	Fighter2  string            `json:"fighter_2"`
	EventDate string            `json:"event_date"`
	Factors   []ExplanationItem `json:"factors"`
}

// FromFactors renders aggregated factors for the wire.
func FromFactors(req features.Request, factors []explain.Factor) ExplainResponse {
	items := make([]ExplanationItem, len(factors))
	for i, f := range factors {
		items[i] = ExplanationItem{
			Name:          f.Name,
			ShapValue:     f.Value,
			Category:      string(f.Category),
			Type:          string(f.Kind),
			Fighter1Value: f.SideA,
			Fighter2Value: f.SideB,
		}
	}
	return ExplainResponse{
		Fighter1:  req.SideA,
		Fighter2:  req.SideB,
		EventDate: req.Cutoff.Format(DateLayout),
		Factors:   items,
	}
}

// FighterResponse is the reference record of one fighter. Missing numbers
// are null.
type FighterResponse struct {
	Name   string   `json:"name"`
	Height *float64 `json:"height"`
	Weight *float64 `json:"weight"`
	Reach  *float64 `json:"reach"`
	SLpM   *float64 `json:"slpm"`
	StrAcc *float64 `json:"str_acc"`
	SApM   *float64 `json:"sapm"`
	StrDef *float64 `json:"str_def"`
	TDAvg  *float64 `json:"td_avg"`
	TDAcc  *float64 `json:"td_acc"`
	TDDef  *float64 `json:"td_def"`
	SubAvg *float64 `json:"sub_avg"`
	DOB    string   `json:"dob,omitempty"`
	Stance string   `json:"stance,omitempty"`
}

// FromFighter renders f for the wire.
func FromFighter(f fighter.Fighter) FighterResponse {
	out := FighterResponse{
		Name:   f.Name,
		Height: finite(f.Height),
		Weight: finite(f.Weight),
		Reach:  finite(f.Reach),
		SLpM:   finite(f.SLpM),
		StrAcc: finite(f.StrAcc),
		SApM:   finite(f.SApM),
		StrDef: finite(f.StrDef),
		TDAvg:  finite(f.TDAvg),
		TDAcc:  finite(f.TDAcc),
		TDDef:  finite(f.TDDef),
		SubAvg: finite(f.SubAvg),
		Stance: f.Stance.String(),
	}
	if !f.DOB.IsZero() {
		out.DOB = f.DOB.Format(DateLayout)
	}
	return out
}

// SearchResponse answers GET /fighters.
type SearchResponse struct {
	Query    string   `json:"query"`
	Fighters []string `json:"fighters"`
}

// OfficialCount is one official and the bouts they worked.
type OfficialCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// OfficialsResponse answers GET /referees.
type OfficialsResponse struct {
	Referees []OfficialCount `json:"referees"`
}

// FromOfficials renders official counts for the wire.
func FromOfficials(in []bout.OfficialCount) OfficialsResponse {
	out := OfficialsResponse{Referees: make([]OfficialCount, len(in))}
	for i, c := range in {
		out.Referees[i] = OfficialCount{Name: c.Name, Count: c.Count}
	}
	return out
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
