// Package dataset loads the fighter reference table and the historical bout
// log from CSV files or a SQL database into an immutable snapshot.
package dataset

import (
	"context"
	"time"

	"github.com/okian/octagon/internal/domain/bout"
	"github.com/okian/octagon/internal/domain/features"
	"github.com/okian/octagon/internal/domain/fighter"
	"github.com/okian/octagon/pkg/logger"
)

// Source yields the raw reference data.
type Source interface {
	Fighters(ctx context.Context) ([]fighter.Fighter, error)
	Bouts(ctx context.Context) ([]bout.Record, error)
}

// Load reads src once and builds the snapshot every request shares.
func Load(ctx context.Context, src Source) (features.Snapshot, error) {
	if src == nil {
		return features.Snapshot{}, ErrNoSource
	}
	log := logger.Get().Named("dataset")
	start := time.Now()

	fighters, err := src.Fighters(ctx)
	if err != nil {
		return features.Snapshot{}, err
	}
	records, err := src.Bouts(ctx)
	if err != nil {
		return features.Snapshot{}, err
	}

	snap := features.Snapshot{
		Fighters: fighter.NewRegistry(fighters),
		Bouts:    bout.NewIndex(records),
	}
	log.Info(ctx, "dataset loaded",
		logger.Int("fighters", snap.Fighters.Len()),
		logger.Int("bouts", snap.Bouts.Len()),
		logger.Int("officials", snap.Bouts.Officials()),
		logger.Any("elapsed", time.Since(start)),
	)
	return snap, nil
}
