package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode categorizes data model errors.
type ErrorCode string

const (
	// ErrCodeUnknownAttribute indicates an attribute not present in a heading.
	ErrCodeUnknownAttribute ErrorCode = "UNKNOWN_ATTRIBUTE"

	// ErrCodeDuplicateAttribute indicates an attribute that already exists.
	ErrCodeDuplicateAttribute ErrorCode = "DUPLICATE_ATTRIBUTE"

	// ErrCodeHeadingMismatch indicates two headings that must match do not.
	ErrCodeHeadingMismatch ErrorCode = "HEADING_MISMATCH"

	// ErrCodeTypeMismatch indicates values of incompatible kinds.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"

	// ErrCodeInvalidArgument indicates a malformed operator argument.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
)

// Error is returned by relation operators and value comparisons.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func unknownAttributes(names []string, heading Heading) *Error {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	return newError(ErrCodeUnknownAttribute, "unknown attribute %s (heading is %s)",
		strings.Join(quoted, ", "), heading)
}

// IsModelError reports whether err is a model Error with the given code.
// Uses errors.As to handle wrapped errors.
func IsModelError(err error, code ErrorCode) bool {
	var me *Error
	if errors.As(err, &me) {
		return me.Code == code
	}
	return false
}
