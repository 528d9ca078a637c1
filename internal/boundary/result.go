// Package boundary is the stable surface of the scheduling engine: a
// session-scoped, panic-free API over opaque handles with numeric error
// kinds that never change between releases. Callers create entities
// (contexts, block collections, possible periods, schedules) through
// stage operations, inspect them through pure JSON exports, and release
// them explicitly; nothing in this package lets an internal failure
// escape as a panic.
package boundary

import (
	"fmt"
	"runtime/debug"

	"github.com/rs/zerolog/log"
)

// Code is the numeric error kind of a boundary operation. The values are
// a frozen external contract.
type Code int32

const (
	CodeOk                 Code = 0
	CodeNullPointer        Code = 1
	CodeInvalidJSON        Code = 2
	CodeSerialization      Code = 3
	CodeDeserialization    Code = 4
	CodeInvalidHandle      Code = 5
	CodeSchedulingFailed   Code = 6
	CodePreschedulerFailed Code = 7
	CodeIO                 Code = 8
	CodeUnknown            Code = 99
)

func (c Code) String() string {
	switch c {
	case CodeOk:
		return "ok"
	case CodeNullPointer:
		return "null_pointer"
	case CodeInvalidJSON:
		return "invalid_json"
	case CodeSerialization:
		return "serialization"
	case CodeDeserialization:
		return "deserialization"
	case CodeInvalidHandle:
		return "invalid_handle"
	case CodeSchedulingFailed:
		return "scheduling_failed"
	case CodePreschedulerFailed:
		return "prescheduler_failed"
	case CodeIO:
		return "io"
	case CodeUnknown:
		return "unknown"
	}
	return fmt.Sprintf("code(%d)", int32(c))
}

// Error is the single error type crossing the boundary: a discriminated
// kind plus an advisory message. The taxonomy is flat; there are no
// wrapped causes.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the boundary code from an error returned by this
// package. Unrecognized errors report CodeUnknown; nil reports CodeOk.
func CodeOf(err error) Code {
	if err == nil {
		return CodeOk
	}
	if be, ok := err.(*Error); ok {
		return be.Code
	}
	return CodeUnknown
}

// guard runs fn with total panic containment: any panic is logged and
// converted into a CodeUnknown error. Every exposed operation funnels
// through here so a new operation cannot accidentally let a failure
// escape.
func guard(fn func() *Error) (err *Error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("Panic contained at boundary")
			err = errorf(CodeUnknown, "internal panic: %v", r)
		}
	}()
	return fn()
}
