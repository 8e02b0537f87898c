package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/okian/octagon/internal/domain/bout"
	"github.com/okian/octagon/internal/domain/fighter"
)

// Default table names.
const (
	DefaultFightersTable = "fighters"
	DefaultBoutsTable    = "bouts"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLSource reads the tables from a database. Driver is "sqlite" or
// "postgres"; column names follow the CSV conventions.
type SQLSource struct {
	Driver        string
	DSN           string
	FightersTable string
	BoutsTable    string
}

func (s SQLSource) table(name, fallback string) (string, error) {
	if name == "" {
		name = fallback
	}
	if !identifier.MatchString(name) {
		return "", fmt.Errorf("%w: %q", ErrBadTable, name)
	}
	return name, nil
}

// Fighters implements Source.
func (s SQLSource) Fighters(ctx context.Context) ([]fighter.Fighter, error) {
	table, err := s.table(s.FightersTable, DefaultFightersTable)
	if err != nil {
		return nil, err
	}
	var out []fighter.Fighter
	err = s.scan(ctx, table, requireFighterColumns, func(r row) error {
		if f := decodeFighter(r); keepFighter(f) {
			out = append(out, f)
		}
		return nil
	})
	return out, err
}

// Bouts implements Source.
func (s SQLSource) Bouts(ctx context.Context) ([]bout.Record, error) {
	table, err := s.table(s.BoutsTable, DefaultBoutsTable)
	if err != nil {
		return nil, err
	}
	var out []bout.Record
	err = s.scan(ctx, table, requireBoutColumns, func(r row) error {
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

func (s SQLSource) scan(ctx context.Context, table string, check func(header) error, fn func(row) error) error {
	db, err := sql.Open(s.Driver, s.DSN)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, "SELECT * FROM "+table)
	if err != nil {
		return fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	h := newHeader(cols)
	if err := check(h); err != nil {
		return err
	}

	cells := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range cells {
		ptrs[i] = &cells[i]
	}
	for line := 1; rows.Next(); line++ {
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("scan %s row %d: %w", table, line, err)
		}
		values := make([]string, len(cells))
		for i, c := range cells {
			values[i] = cellString(c)
		}
		if err := fn(row{h: h, values: values, line: line}); err != nil {
			return fmt.Errorf("%s: %w", table, err)
		}
	}
	return rows.Err()
}

func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		if x {
			return "1"
		}
		return "0"
	case time.Time:
		return x.UTC().Format(time.DateOnly)
	}
	return fmt.Sprint(v)
}
