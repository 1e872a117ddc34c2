// Package mcmn holds shared error types and small utilities used across the
// kernel, mirroring the teacher's cmn package: typed error constructors
// instead of ad hoc fmt.Errorf, wrapped with github.com/pkg/errors so a
// stack trace survives the boundary where it's first logged.
package mcmn

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrNotSupported is returned by dispatch when no method is registered for
// an operation's concrete type (spec §7).
type ErrNotSupported struct {
	Algorithm string
	OpType    string
}

func (e *ErrNotSupported) Error() string {
	return fmt.Sprintf("%s: operation %s not supported", e.Algorithm, e.OpType)
}

func NewErrNotSupported(algo, opType string) error {
	return errors.WithStack(&ErrNotSupported{Algorithm: algo, OpType: opType})
}

// ErrInvalidArgument covers malformed keys, mismatched meta-object shape,
// and nil-where-required arguments.
type ErrInvalidArgument struct{ Msg string }

func (e *ErrInvalidArgument) Error() string { return "invalid argument: " + e.Msg }

func NewErrInvalidArgument(format string, args ...any) error {
	return errors.WithStack(&ErrInvalidArgument{Msg: fmt.Sprintf(format, args...)})
}

// ErrInterrupted marks cooperative cancellation observed between
// processing steps.
type ErrInterrupted struct{ OpID string }

func (e *ErrInterrupted) Error() string { return "operation " + e.OpID + " interrupted" }

func NewErrInterrupted(opID string) error {
	return errors.WithStack(&ErrInterrupted{OpID: opID})
}

// ErrIOFailure wraps a failure reading the object source stream or an RMI
// socket.
type ErrIOFailure struct{ Cause error }

func (e *ErrIOFailure) Error() string { return "I/O failure: " + e.Cause.Error() }
func (e *ErrIOFailure) Unwrap() error { return e.Cause }

func NewErrIOFailure(cause error) error {
	return errors.WithStack(&ErrIOFailure{Cause: cause})
}

// ErrClassMismatch is raised (and usually swallowed into a "cannot decide"
// false) when two filters or two keys of different concrete types are
// compared.
type ErrClassMismatch struct{ A, B string }

func (e *ErrClassMismatch) Error() string {
	return fmt.Sprintf("class mismatch: %s vs %s", e.A, e.B)
}

func NewErrClassMismatch(a, b string) error {
	return errors.WithStack(&ErrClassMismatch{A: a, B: b})
}

// ErrCloneUnsupported is returned by filter variants that forbid cloning
// (e.g. the pivot-map filter, whose referenced pivots have no stable
// textual form either).
type ErrCloneUnsupported struct{ Type string }

func (e *ErrCloneUnsupported) Error() string { return e.Type + ": clone not supported" }

func NewErrCloneUnsupported(typ string) error {
	return errors.WithStack(&ErrCloneUnsupported{Type: typ})
}

// ErrUnexpectedEnd signals EOF mid-object while parsing the text format.
var ErrUnexpectedEnd = errors.New("unexpected end of stream inside object")

// Wrap attaches context to err while preserving its stack (or adding one,
// if err didn't carry one yet).
func Wrap(err error, context string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, context)
}
