package service

import "errors"

var (
	errNotStarted   = errors.New("service not started")
	errNoAttributor = errors.New("winner classifier cannot attribute")
	errLimit        = errors.New("limit out of range")
)
