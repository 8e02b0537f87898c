package features

import "errors"

var (
	errMissingFighter = errors.New("both fighters are required")
	errSameFighter    = errors.New("a fighter cannot face themselves")
	errMissingDate    = errors.New("contest date is required")
)
