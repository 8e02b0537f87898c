// Package predict applies the winner and method classifiers to assembled
// feature vectors.
package predict

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/okian/octagon/internal/domain/bout"
	"github.com/okian/octagon/internal/domain/errs"
	"github.com/okian/octagon/internal/domain/features"
)

// sumTolerance bounds how far a probability distribution may drift from 1.
const sumTolerance = 1e-3

// Classifier is a loaded, read-only model.
type Classifier interface {
	// PredictProba returns class probabilities for one reconciled vector.
	PredictProba(ctx context.Context, x []float64) ([]float64, error)
	// Schema returns the ordered feature names the classifier expects.
	Schema() features.Schema
}

// Type selects what CombinedPredict reports.
type Type int

const (
	TypeWinner Type = iota
	TypeMethod
)

func (t Type) String() string {
	if t == TypeMethod {
		return "method"
	}
	return "winner"
}

// Label is the human-readable name of the prediction kind.
func (t Type) Label() string {
	if t == TypeMethod {
		return "Method Prediction"
	}
	return "Winner Prediction"
}

// ParseType accepts "winner" or "method", case-insensitively.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "winner":
		return TypeWinner, nil
	case "method":
		return TypeMethod, nil
	}
	return 0, errs.WrapKind("predict.parse_type", errs.ErrInvalidInput, errUnknownType)
}

// WinnerOdds is the outcome of the binary winner classifier.
type WinnerOdds struct {
	SideA  string
	SideB  string
	PSideA float64
	PSideB float64
	Winner string
}

// MethodShare is one method class and its probability.
type MethodShare struct {
	Method bout.Method
	P      float64
}

// String renders the share as "<label>: <pct>%".
func (m MethodShare) String() string {
	return m.Method.String() + ": " + Percent(m.P)
}

// Prediction is the combined result for one request.
type Prediction struct {
	Type     Type
	Date     time.Time
	Official string
	Odds     WinnerOdds

	// Populated for TypeMethod only, sorted by descending probability.
	SideAMethods []MethodShare
	SideBMethods []MethodShare
}

// Percent formats a probability as a percentage with one decimal.
func Percent(p float64) string {
	return fmt.Sprintf("%.1f%%", p*100)
}

// Engine runs the prediction pipeline against an immutable snapshot.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	snap    features.Snapshot
	winner  Classifier
	methodA Classifier
	methodB Classifier
}

// NewEngine validates every classifier schema against the assembler
// catalog so version skew fails here instead of on the first request.
func NewEngine(snap features.Snapshot, winner, methodA, methodB Classifier) (*Engine, error) {
	const op = "predict.new_engine"
	if snap.Fighters == nil || snap.Bouts == nil {
		return nil, errs.WrapKind(op, errs.ErrUpstream, errMissingSnapshot)
	}
	if winner == nil || methodA == nil || methodB == nil {
		return nil, errs.WrapKind(op, errs.ErrUpstream, errMissingClassifier)
	}
	if err := winner.Schema().Validate(false); err != nil {
		return nil, err
	}
	for _, c := range []Classifier{methodA, methodB} {
		if err := c.Schema().Validate(true); err != nil {
			return nil, err
		}
	}
	return &Engine{snap: snap, winner: winner, methodA: methodA, methodB: methodB}, nil
}

// Snapshot returns the reference data the engine reads.
func (e *Engine) Snapshot() features.Snapshot { return e.snap }

// WinnerVector returns the winner classifier's schema names and the
// reconciled vector it would score for req.
func (e *Engine) WinnerVector(_ context.Context, req features.Request) ([]string, []float64, error) {
	req.IncludeMethod = false
	v, err := features.Assemble(e.snap, req)
	if err != nil {
		return nil, nil, err
	}
	schema := e.winner.Schema()
	x, err := features.Reconcile(v, schema)
	if err != nil {
		return nil, nil, err
	}
	return append([]string(nil), schema.Names...), x, nil
}

// Winner predicts which side wins. An exact tie goes to side B.
func (e *Engine) Winner(ctx context.Context, req features.Request) (WinnerOdds, error) {
	const op = "predict.winner"
	_, x, err := e.WinnerVector(ctx, req)
	if err != nil {
		return WinnerOdds{}, err
	}
	probs, err := e.winner.PredictProba(ctx, x)
	if err != nil {
		return WinnerOdds{}, errs.WrapKind(op, errs.ErrUpstream, err)
	}

	var pA, pB float64
	switch len(probs) {
	case 1:
		pA, pB = probs[0], 1-probs[0]
	case 2:
		pA, pB = probs[1], probs[0]
		if math.Abs(pA+pB-1) > sumTolerance {
			return WinnerOdds{}, errs.WrapKind(op, errs.ErrUpstream, fmt.Errorf("%w: %s sums to %.4f", errWinnerSum, e.winner.Schema().Model, pA+pB))
		}
	default:
		return WinnerOdds{}, errs.WrapKind(op, errs.ErrUpstream, fmt.Errorf("%w: %d classes", errOutputShape, len(probs)))
	}
	if !validProb(pA) || !validProb(pB) {
		return WinnerOdds{}, errs.WrapKind(op, errs.ErrUpstream, errProbability)
	}

	odds := WinnerOdds{SideA: req.SideA, SideB: req.SideB, PSideA: pA, PSideB: pB, Winner: req.SideB}
	if pA > pB {
		odds.Winner = req.SideA
	}
	return odds, nil
}

// Methods predicts how each side would win, one classifier per side.
func (e *Engine) Methods(ctx context.Context, req features.Request) (sideA, sideB []MethodShare, err error) {
	req.IncludeMethod = true
	v, err := features.Assemble(e.snap, req)
	if err != nil {
		return nil, nil, err
	}
	if sideA, err = methodShares(ctx, e.methodA, v); err != nil {
		return nil, nil, err
	}
	if sideB, err = methodShares(ctx, e.methodB, v); err != nil {
		return nil, nil, err
	}
	return sideA, sideB, nil
}

func methodShares(ctx context.Context, c Classifier, v *features.Vector) ([]MethodShare, error) {
	const op = "predict.methods"
	schema := c.Schema()
	x, err := features.Reconcile(v, schema)
	if err != nil {
		return nil, err
	}
	probs, err := c.PredictProba(ctx, x)
	if err != nil {
		return nil, errs.WrapKind(op, errs.ErrUpstream, err)
	}
	if len(probs) != len(bout.Methods) {
		return nil, errs.WrapKind(op, errs.ErrUpstream, fmt.Errorf("%w: %s returned %d classes", errOutputShape, schema.Model, len(probs)))
	}
	for _, p := range probs {
		if !validProb(p) {
			return nil, errs.WrapKind(op, errs.ErrUpstream, errProbability)
		}
	}
	if sum := floats.Sum(probs); math.Abs(sum-1) > sumTolerance {
		return nil, errs.WrapKind(op, errs.ErrUpstream, fmt.Errorf("%w: %s sums to %.4f", errMethodSum, schema.Model, sum))
	}

	out := make([]MethodShare, len(probs))
	for i, p := range probs {
		out[i] = MethodShare{Method: bout.Methods[i], P: p}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].P > out[j].P })
	return out, nil
}

// CombinedPredict always predicts the winner and adds method shares when
// typ is TypeMethod. Any failure fails the whole prediction.
func (e *Engine) CombinedPredict(ctx context.Context, req features.Request, typ Type) (Prediction, error) {
	odds, err := e.Winner(ctx, req)
	if err != nil {
		return Prediction{}, err
	}
	p := Prediction{Type: typ, Date: req.Cutoff, Official: req.Official, Odds: odds}
	if typ == TypeMethod {
		if p.SideAMethods, p.SideBMethods, err = e.Methods(ctx, req); err != nil {
			return Prediction{}, err
		}
	}
	return p, nil
}

func validProb(p float64) bool {
	return !math.IsNaN(p) && p >= 0 && p <= 1
}
