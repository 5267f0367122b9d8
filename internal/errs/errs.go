// Package errs defines the error taxonomy shared by the channel, store and views.
package errs

import (
	"errors"
	"fmt"
)

// Kind categorizes an error
type Kind string

const (
	// KindValidation is a local input problem that never reaches the network.
	KindValidation Kind = "validation"

	// KindTransport is a failed submission or a failed event stream.
	KindTransport Kind = "transport"

	// KindTimeout is a stream that exceeded its deadline.
	KindTimeout Kind = "timeout"

	// KindParse is a malformed payload. Parse errors are absorbed, never returned to views.
	KindParse Kind = "parse"

	// KindStorage is a failed read or write against the report collection.
	KindStorage Kind = "storage"

	// KindNotFound is an unknown report id or package index.
	KindNotFound Kind = "not_found"

	// KindBusy is a submission attempted while another run is active.
	KindBusy Kind = "busy"
)

// Sentinel errors
var (
	ErrRunInProgress  = errors.New("a submission is already in progress")
	ErrReportNotFound = errors.New("report not found")
)

// Error wraps an underlying error with the operation that failed and its kind.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by Kind (and Op, when the target sets one),
// then falls back to the wrapped error.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok && t.Kind != "" && t.Kind == e.Kind {
		if t.Op == "" || t.Op == e.Op {
			return true
		}
	}
	return errors.Is(e.Err, target)
}

// New builds an *Error
func New(op string, kind Kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

func Validation(op string, err error) *Error { return New(op, KindValidation, err) }
func Transport(op string, err error) *Error  { return New(op, KindTransport, err) }
func Timeout(op string, err error) *Error    { return New(op, KindTimeout, err) }
func Parse(op string, err error) *Error      { return New(op, KindParse, err) }
func Storage(op string, err error) *Error    { return New(op, KindStorage, err) }
func NotFound(op string, err error) *Error   { return New(op, KindNotFound, err) }
func Busy(op string, err error) *Error       { return New(op, KindBusy, err) }

// KindOf returns the kind of the first *Error in the chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind Kind) bool {
	return errors.Is(err, &Error{Kind: kind})
}
