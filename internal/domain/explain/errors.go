package explain

import "errors"

var (
	errLengthMismatch = errors.New("attribution length does not match the feature vector")
	errNonFinite      = errors.New("attribution score is not finite")
)
