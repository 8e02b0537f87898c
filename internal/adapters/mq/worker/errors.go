package worker

import "errors"

var (
	errQueueFull  = errors.New("inference queue is full")
	errPanic      = errors.New("job panicked")
	errResultType = errors.New("unexpected job result type")
)
