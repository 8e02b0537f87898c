package cli

import "errors"

var (
	ErrBenchSize = errors.New("requests and workers must be positive")
	ErrUnhealthy = errors.New("server health check failed")
)
