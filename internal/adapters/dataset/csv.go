package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/okian/octagon/internal/domain/bout"
	"github.com/okian/octagon/internal/domain/fighter"
)

// CSVSource reads the two tables from CSV files with a header row.
type CSVSource struct {
	FightersPath string
	BoutsPath    string
}

// Fighters implements Source.
func (s CSVSource) Fighters(ctx context.Context) ([]fighter.Fighter, error) {
	var out []fighter.Fighter
	err := readFile(ctx, s.FightersPath, requireFighterColumns, func(r row) error {
		if f := decodeFighter(r); keepFighter(f) {
			out = append(out, f)
		}
		return nil
	})
	return out, err
}

// Bouts implements Source.
func (s CSVSource) Bouts(ctx context.Context) ([]bout.Record, error) {
	var out []bout.Record
	err := readFile(ctx, s.BoutsPath, requireBoutColumns, func(r row) error {
		rec, err := decodeBout(r)
		if err != nil {
			return err
		}
		if keepBout(rec) {
			out = append(out, rec)
		}
		return nil
	})
	return out, err
}

func readFile(ctx context.Context, path string, check func(header) error, fn func(row) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	if err := readCSV(ctx, f, check, fn); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// readCSV streams rows from r to fn after validating the header with check.
func readCSV(ctx context.Context, r io.Reader, check func(header) error, fn func(row) error) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	cols, err := cr.Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	h := newHeader(cols)
	if err := check(h); err != nil {
		return err
	}

	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(row{h: h, values: rec, line: line}); err != nil {
			return err
		}
	}
}
