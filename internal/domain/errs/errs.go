// Package errs defines the error kinds shared by the prediction pipeline.
//
// Every error leaving the core carries exactly one kind so the transport
// layer can map it without inspecting messages.
package errs

import (
	"errors"
	"strings"
)

// Sentinel error kinds. These allow errors.Is from callers.
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrSchemaMismatch = errors.New("schema mismatch")
	ErrUpstream       = errors.New("upstream failure")
	ErrBusy           = errors.New("busy")
)

// Error binds an operation name and a kind to an underlying cause.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.Error())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// WrapKind tags err with kind for operation op.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// NewKind returns a bare error of the given kind for operation op.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// KindOf returns the first known kind found in err's chain, or nil.
func KindOf(err error) error {
	for _, k := range []error{ErrInvalidInput, ErrNotFound, ErrBusy, ErrSchemaMismatch, ErrUpstream} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// SchemaMismatchError lists every feature a classifier requires that the
// assembled vector did not provide.
type SchemaMismatchError struct {
	Model   string
	Missing []string
}

func (e *SchemaMismatchError) Error() string {
	return "schema mismatch for " + e.Model + ": missing features [" + strings.Join(e.Missing, ", ") + "]"
}

// Is reports kind equality so errors.Is(err, ErrSchemaMismatch) holds.
func (e *SchemaMismatchError) Is(target error) bool { return target == ErrSchemaMismatch }
