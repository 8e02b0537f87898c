package model

import "errors"

// Sentinel errors for model loading and evaluation.
var (
	ErrUnsupported    = errors.New("unsupported model")
	ErrMalformed      = errors.New("malformed model")
	ErrInputLength    = errors.New("input length does not match model features")
	ErrSchemaContract = errors.New("schema contract disagrees with model")
)
