package model

import (
	"context"
	"time"

	"github.com/okian/octagon/pkg/logger"
)

// Spec locates one model artifact and its optional schema contract.
type Spec struct {
	Path       string
	SchemaPath string
}

// Status describes a loaded model.
type Status struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Objective string    `json:"objective"`
	Classes   int       `json:"classes"`
	Trees     int       `json:"trees"`
	Features  int       `json:"features"`
	LoadedAt  time.Time `json:"loaded_at"`
}

// Model names as reported by Status.
const (
	WinnerModel      = "winner"
	SideAMethodModel = "fighter_1_method"
	SideBMethodModel = "fighter_2_method"
)

// Store holds the three classifiers the prediction engine needs.
type Store struct {
	Winner      *Booster
	SideAMethod *Booster
	SideBMethod *Booster

	status []Status
}

// Open loads every model. Any failure aborts startup.
func Open(ctx context.Context, winner, sideA, sideB Spec) (*Store, error) {
	log := logger.Get().Named("model")
	s := &Store{}
	for _, m := range []struct {
		name string
		spec Spec
		dst  **Booster
	}{
		{WinnerModel, winner, &s.Winner},
		{SideAMethodModel, sideA, &s.SideAMethod},
		{SideBMethodModel, sideB, &s.SideBMethod},
	} {
		b, err := LoadFile(m.name, m.spec.Path, m.spec.SchemaPath)
		if err != nil {
			return nil, err
		}
		*m.dst = b
		s.status = append(s.status, Status{
			Name:      m.name,
			Path:      m.spec.Path,
			Objective: b.objective,
			Classes:   b.Classes(),
			Trees:     len(b.trees),
			Features:  b.numFeature,
			LoadedAt:  time.Now().UTC(),
		})
		log.Info(ctx, "model loaded",
			logger.String("model", m.name),
			logger.String("objective", b.objective),
			logger.Int("trees", len(b.trees)),
			logger.Int("features", b.numFeature),
		)
	}
	return s, nil
}

// Status reports what is loaded.
func (s *Store) Status() []Status {
	return append([]Status(nil), s.status...)
}
