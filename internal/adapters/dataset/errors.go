package dataset

import "errors"

// Sentinel errors for dataset loading.
var (
	ErrMissingColumn = errors.New("missing required column")
	ErrBadValue      = errors.New("bad value")
	ErrBadTable      = errors.New("invalid table name")
	ErrNoSource      = errors.New("no dataset source configured")
)
