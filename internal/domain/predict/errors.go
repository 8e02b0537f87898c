package predict

import "errors"

var (
	errUnknownType       = errors.New("prediction_type must be \"winner\" or \"method\"")
	errMissingClassifier = errors.New("classifier not loaded")
	errMissingSnapshot   = errors.New("reference data not loaded")
	errOutputShape       = errors.New("unexpected classifier output shape")
	errProbability       = errors.New("classifier returned an invalid probability")
	errMethodSum         = errors.New("method probabilities do not sum to 1")
	errWinnerSum         = errors.New("winner probabilities do not sum to 1")
)
