package predict_test

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/okian/octagon/internal/domain/bout"
	"github.com/okian/octagon/internal/domain/errs"
	"github.com/okian/octagon/internal/domain/features"
	"github.com/okian/octagon/internal/domain/fighter"
	"github.com/okian/octagon/internal/domain/predict"
	. "github.com/smartystreets/goconvey/convey"
)

// stubClassifier returns fixed probabilities and remembers its last input.
type stubClassifier struct {
	schema features.Schema
	out    []float64
	err    error
	seen   []float64
}

func (s *stubClassifier) PredictProba(_ context.Context, x []float64) ([]float64, error) {
	s.seen = x
	return s.out, s.err
}

func (s *stubClassifier) Schema() features.Schema { return s.schema }

func date(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

// fixture: A is 30 and Orthodox with no bouts; B is 28 with three wins, the
// last 20 days before the contest; the official has worked five bouts.
func fixture() (features.Snapshot, features.Request) {
	fighters := fighter.NewRegistry([]fighter.Fighter{
		{Name: "A", Reach: 74, DOB: date("1994-06-21"), Stance: fighter.StanceOrthodox},
		{Name: "B", Reach: 71, DOB: date("1996-06-21"), Stance: fighter.StanceSouthpaw},
		{Name: "C", DOB: date("1990-01-01")},
	})
	var records []bout.Record
	for i, d := range []string{"2023-01-01", "2023-09-01", "2024-06-01"} {
		records = append(records, bout.Record{
			SideA: "B", SideB: "C", Date: date(d), Outcome: bout.SideAWon,
			Method: bout.Methods[i], Official: "Herb",
			A: bout.EmptyPerformance(), B: bout.EmptyPerformance(),
		})
	}
	for _, d := range []string{"2021-01-01", "2021-02-01"} {
		records = append(records, bout.Record{
			SideA: "C", SideB: "D", Date: date(d), Outcome: bout.SideAWon, Official: "Herb",
			A: bout.EmptyPerformance(), B: bout.EmptyPerformance(),
		})
	}
	snap := features.Snapshot{Fighters: fighters, Bouts: bout.NewIndex(records)}
	return snap, features.Request{SideA: "A", SideB: "B", Cutoff: date("2024-06-21"), Official: "Herb"}
}

func winnerSchema() features.Schema {
	return features.Schema{Model: "winner", Names: []string{"reach_diff", "p2_wins", "referee_freq", "win_streak_diff"}}
}

func methodSchema(prefix string) features.Schema {
	names := []string{"reach_diff"}
	for _, m := range bout.Methods {
		names = append(names, features.MethodWinsName(prefix, m))
	}
	return features.Schema{Model: prefix + "_method", Names: names}
}

func newEngine(winner, methodA, methodB *stubClassifier) (*predict.Engine, features.Request) {
	snap, req := fixture()
	e, err := predict.NewEngine(snap, winner, methodA, methodB)
	So(err, ShouldBeNil)
	return e, req
}

func pct(s string) float64 {
	_, value, _ := strings.Cut(s, ": ")
	f, err := strconv.ParseFloat(strings.TrimSuffix(value, "%"), 64)
	So(err, ShouldBeNil)
	return f
}

func TestParseType(t *testing.T) {
	Convey("ParseType accepts the two prediction kinds", t, func() {
		typ, err := predict.ParseType("winner")
		So(err, ShouldBeNil)
		So(typ, ShouldEqual, predict.TypeWinner)

		typ, err = predict.ParseType(" Method ")
		So(err, ShouldBeNil)
		So(typ, ShouldEqual, predict.TypeMethod)
		So(typ.Label(), ShouldEqual, "Method Prediction")

		_, err = predict.ParseType("round")
		So(errors.Is(err, errs.ErrInvalidInput), ShouldBeTrue)
	})
}

func TestWinner(t *testing.T) {
	Convey("Given a two-class winner classifier", t, func() {
		winner := &stubClassifier{schema: winnerSchema(), out: []float64{0.35, 0.65}}
		e, req := newEngine(winner,
			&stubClassifier{schema: methodSchema("p1")},
			&stubClassifier{schema: methodSchema("p2")})

		odds, err := e.Winner(context.Background(), req)
		So(err, ShouldBeNil)

		Convey("Then the classifier sees the reconciled vector in schema order", func() {
			So(winner.seen, ShouldResemble, []float64{3, 3, 5, -3})
		})

		Convey("Then class 1 is side A and the probabilities sum to 100%", func() {
			So(odds.PSideA, ShouldEqual, 0.65)
			So(odds.PSideB, ShouldEqual, 0.35)
			So(odds.PSideA+odds.PSideB, ShouldAlmostEqual, 1)
			So(predict.Percent(odds.PSideA), ShouldEqual, "65.0%")
		})

		Convey("Then the predicted winner is the side above 50%", func() {
			So(odds.Winner, ShouldEqual, "A")
		})
	})

	Convey("Given a single-output classifier", t, func() {
		e, req := newEngine(&stubClassifier{schema: winnerSchema(), out: []float64{0.2}},
			&stubClassifier{schema: methodSchema("p1")},
			&stubClassifier{schema: methodSchema("p2")})

		odds, err := e.Winner(context.Background(), req)
		So(err, ShouldBeNil)
		So(odds.PSideB, ShouldAlmostEqual, 0.8)
		So(odds.Winner, ShouldEqual, "B")
	})

	Convey("Given an exact tie", t, func() {
		e, req := newEngine(&stubClassifier{schema: winnerSchema(), out: []float64{0.5, 0.5}},
			&stubClassifier{schema: methodSchema("p1")},
			&stubClassifier{schema: methodSchema("p2")})

		Convey("Then side B is predicted, matching the strict comparison", func() {
			odds, err := e.Winner(context.Background(), req)
			So(err, ShouldBeNil)
			So(odds.Winner, ShouldEqual, "B")
		})
	})

	Convey("Given a failing classifier", t, func() {
		e, req := newEngine(&stubClassifier{schema: winnerSchema(), err: errors.New("boom")},
			&stubClassifier{schema: methodSchema("p1")},
			&stubClassifier{schema: methodSchema("p2")})

		_, err := e.Winner(context.Background(), req)
		So(errors.Is(err, errs.ErrUpstream), ShouldBeTrue)
		So(err.Error(), ShouldContainSubstring, "boom")
	})

	Convey("Given a classifier returning NaN", t, func() {
		e, req := newEngine(&stubClassifier{schema: winnerSchema(), out: []float64{math.NaN(), math.NaN()}},
			&stubClassifier{schema: methodSchema("p1")},
			&stubClassifier{schema: methodSchema("p2")})

		_, err := e.Winner(context.Background(), req)
		So(errors.Is(err, errs.ErrUpstream), ShouldBeTrue)
	})

	Convey("Given a two-class output that does not sum to one", t, func() {
		e, req := newEngine(&stubClassifier{schema: winnerSchema(), out: []float64{0.3, 0.9}},
			&stubClassifier{schema: methodSchema("p1")},
			&stubClassifier{schema: methodSchema("p2")})

		_, err := e.Winner(context.Background(), req)
		So(errors.Is(err, errs.ErrUpstream), ShouldBeTrue)
		So(err.Error(), ShouldContainSubstring, "do not sum to 1")
	})

	Convey("Given an unknown fighter", t, func() {
		e, req := newEngine(&stubClassifier{schema: winnerSchema(), out: []float64{0.5, 0.5}},
			&stubClassifier{schema: methodSchema("p1")},
			&stubClassifier{schema: methodSchema("p2")})
		req.SideA = "Nobody"

		_, err := e.Winner(context.Background(), req)
		So(errors.Is(err, errs.ErrNotFound), ShouldBeTrue)
	})
}

func TestMethods(t *testing.T) {
	Convey("Given per-side method classifiers", t, func() {
		methodA := &stubClassifier{schema: methodSchema("p1"), out: []float64{0.2, 0.5, 0.3}}
		methodB := &stubClassifier{schema: methodSchema("p2"), out: []float64{0.6, 0.1, 0.3}}
		e, req := newEngine(&stubClassifier{schema: winnerSchema(), out: []float64{0.4, 0.6}}, methodA, methodB)

		Convey("When a method prediction is requested", func() {
			p, err := e.CombinedPredict(context.Background(), req, predict.TypeMethod)
			So(err, ShouldBeNil)

			Convey("Then each side is sorted by descending probability", func() {
				So(p.SideAMethods[0].String(), ShouldEqual, "KO/TKO: 50.0%")
				So(p.SideAMethods[1].String(), ShouldEqual, "Submission: 30.0%")
				So(p.SideAMethods[2].String(), ShouldEqual, "Decision: 20.0%")
				So(p.SideBMethods[0].Method, ShouldEqual, bout.Decision)
			})

			Convey("Then each side sums to 100.0 within 0.1", func() {
				for _, side := range [][]predict.MethodShare{p.SideAMethods, p.SideBMethods} {
					total := 0.0
					for i, m := range side {
						total += pct(m.String())
						if i > 0 {
							So(m.P, ShouldBeLessThanOrEqualTo, side[i-1].P)
						}
					}
					So(total, ShouldAlmostEqual, 100, 0.1)
				}
			})

			Convey("Then the method classifiers saw method-win counts", func() {
				So(methodB.seen, ShouldResemble, []float64{3, 1, 1, 1})
				So(methodA.seen, ShouldResemble, []float64{3, 0, 0, 0})
			})
		})

		Convey("When only the winner is requested", func() {
			p, err := e.CombinedPredict(context.Background(), req, predict.TypeWinner)
			So(err, ShouldBeNil)
			So(p.SideAMethods, ShouldBeNil)
			So(p.SideBMethods, ShouldBeNil)
			So(p.Odds.Winner, ShouldEqual, "A")
			So(p.Official, ShouldEqual, "Herb")
		})
	})

	Convey("Given a method classifier whose output does not sum to one", t, func() {
		e, req := newEngine(&stubClassifier{schema: winnerSchema(), out: []float64{0.4, 0.6}},
			&stubClassifier{schema: methodSchema("p1"), out: []float64{0.2, 0.2, 0.2}},
			&stubClassifier{schema: methodSchema("p2"), out: []float64{0.6, 0.1, 0.3}})

		Convey("Then the whole prediction fails", func() {
			p, err := e.CombinedPredict(context.Background(), req, predict.TypeMethod)
			So(errors.Is(err, errs.ErrUpstream), ShouldBeTrue)
			So(p, ShouldResemble, predict.Prediction{})
		})
	})

	Convey("Given a method classifier with the wrong class count", t, func() {
		e, req := newEngine(&stubClassifier{schema: winnerSchema(), out: []float64{0.4, 0.6}},
			&stubClassifier{schema: methodSchema("p1"), out: []float64{0.5, 0.5}},
			&stubClassifier{schema: methodSchema("p2"), out: []float64{0.6, 0.1, 0.3}})

		_, _, err := e.Methods(context.Background(), req)
		So(errors.Is(err, errs.ErrUpstream), ShouldBeTrue)
	})
}

func TestNewEngine(t *testing.T) {
	snap, _ := fixture()

	Convey("A winner schema naming unknown features is rejected at construction", t, func() {
		_, err := predict.NewEngine(snap,
			&stubClassifier{schema: features.Schema{Model: "winner", Names: []string{"p1_chin"}}},
			&stubClassifier{schema: methodSchema("p1")},
			&stubClassifier{schema: methodSchema("p2")})
		So(errors.Is(err, errs.ErrSchemaMismatch), ShouldBeTrue)
	})

	Convey("A winner schema needing method features is rejected", t, func() {
		_, err := predict.NewEngine(snap,
			&stubClassifier{schema: methodSchema("p1")},
			&stubClassifier{schema: methodSchema("p1")},
			&stubClassifier{schema: methodSchema("p2")})
		So(errors.Is(err, errs.ErrSchemaMismatch), ShouldBeTrue)
	})

	Convey("Missing classifiers are rejected", t, func() {
		_, err := predict.NewEngine(snap, &stubClassifier{schema: winnerSchema()}, nil, nil)
		So(err, ShouldNotBeNil)
	})

	Convey("WinnerVector returns schema names with the reconciled values", t, func() {
		snap, req := fixture()
		e, err := predict.NewEngine(snap,
			&stubClassifier{schema: winnerSchema()},
			&stubClassifier{schema: methodSchema("p1")},
			&stubClassifier{schema: methodSchema("p2")})
		So(err, ShouldBeNil)

		names, x, err := e.WinnerVector(context.Background(), req)
		So(err, ShouldBeNil)
		So(names, ShouldResemble, winnerSchema().Names)
		So(x, ShouldResemble, []float64{3, 3, 5, -3})
	})
}
