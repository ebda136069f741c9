package types

import (
	"errors"
	"strings"

	"github.com/samber/lo"
)

type ErrorTag string

const (
	SystemErrorTag       ErrorTag = "SystemError"
	ValueErrorTag        ErrorTag = "ValueError"
	OverflowErrorTag     ErrorTag = "OverflowError"
	ZeroDivisionErrorTag ErrorTag = "ZeroDivisionError"
)

// Exception is an error that can be rendered as structured data for JSON
// output.
type Exception interface {
	error
	Exception() any
}

// Error is an evaluation fault. Faults are distinct from diagnostics: they
// are only raised while evaluating a well-formed tree.
type Error struct {
	Tag   ErrorTag
	Err   error
	Extra map[string]any
}

var _ Exception = (*Error)(nil)

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Tag)
	}

	var b strings.Builder
	b.WriteString(string(e.Tag))
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Exception lists the tags of every *Error in the chain, outermost first.
func (e *Error) Exception() any {
	var tags []ErrorTag
	for err := error(e); err != nil; err = errors.Unwrap(err) {
		if e, ok := err.(*Error); ok {
			tags = append(tags, e.Tag)
		}
	}

	o := map[string]any{
		"tags":    lo.Uniq(tags),
		"message": e.Error(),
	}
	if len(e.Extra) != 0 {
		o = lo.Assign(o, e.Extra)
	}
	return o
}

// HasTag reports whether any *Error in err's chain carries tag.
func HasTag(err error, tag ErrorTag) bool {
	for ; err != nil; err = errors.Unwrap(err) {
		if e, ok := err.(*Error); ok && e.Tag == tag {
			return true
		}
	}
	return false
}

// AsException returns err itself when it is an Exception somewhere in its
// chain, or wraps it as a SystemError.
func AsException(err error) Exception {
	var exception Exception
	if errors.As(err, &exception) {
		return exception
	}
	return &Error{Tag: SystemErrorTag, Err: err}
}
