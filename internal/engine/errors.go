package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/codd/internal/model"
)

// ErrorCode categorizes execution errors.
type ErrorCode string

const (
	// ErrCodeUnknownRelation indicates a name bound neither in scope nor
	// in the Environment.
	ErrCodeUnknownRelation ErrorCode = "UNKNOWN_RELATION"

	// ErrCodeUnknownAttribute indicates an attribute missing from a heading
	// or tuple.
	ErrCodeUnknownAttribute ErrorCode = "UNKNOWN_ATTRIBUTE"

	// ErrCodeTypeMismatch indicates values that cannot be compared or
	// combined.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"

	// ErrCodeAggregate indicates aggregate misuse: a missing attribute or
	// source, or an empty group where a value is required.
	ErrCodeAggregate ErrorCode = "AGGREGATE"

	// ErrCodeHeadingMismatch indicates set operators on different headings.
	ErrCodeHeadingMismatch ErrorCode = "HEADING_MISMATCH"

	// ErrCodeUnknownFunction indicates a call to an unregistered function.
	ErrCodeUnknownFunction ErrorCode = "UNKNOWN_FUNCTION"

	// ErrCodeNotARelation indicates a sequence or scalar where a relation
	// is required.
	ErrCodeNotARelation ErrorCode = "NOT_A_RELATION"

	// ErrCodeDivisionByZero indicates a zero divisor.
	ErrCodeDivisionByZero ErrorCode = "DIVISION_BY_ZERO"

	// ErrCodeOverflow indicates an integer result outside the int64 range.
	ErrCodeOverflow ErrorCode = "OVERFLOW"

	// ErrCodeQuotaExceeded indicates an intermediate result larger than
	// the configured tuple limit.
	ErrCodeQuotaExceeded ErrorCode = "QUOTA_EXCEEDED"

	// ErrCodeInvalid indicates any other malformed operation.
	ErrCodeInvalid ErrorCode = "INVALID"
)

// Error is an execution failure.
//
// Message is written for the person who typed the query; Code is for
// programs. Err holds the underlying model error when there is one.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

func errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// IsExecutionError returns true if err is (or wraps) an execution Error.
func IsExecutionError(err error) bool {
	var ee *Error
	return errors.As(err, &ee)
}

// HasCode returns true if err is an execution Error with the given code.
// Uses errors.As to handle wrapped errors.
func HasCode(err error, code ErrorCode) bool {
	var ee *Error
	if errors.As(err, &ee) {
		return ee.Code == code
	}
	return false
}

var modelCodes = map[model.ErrorCode]ErrorCode{
	model.ErrCodeUnknownAttribute:   ErrCodeUnknownAttribute,
	model.ErrCodeDuplicateAttribute: ErrCodeInvalid,
	model.ErrCodeHeadingMismatch:    ErrCodeHeadingMismatch,
	model.ErrCodeTypeMismatch:       ErrCodeTypeMismatch,
	model.ErrCodeInvalidArgument:    ErrCodeInvalid,
}

// wrap converts data model failures into execution errors. Execution
// errors and nil pass through unchanged.
func wrap(err error) error {
	if err == nil {
		return nil
	}
	var ee *Error
	if errors.As(err, &ee) {
		return err
	}
	var me *model.Error
	if errors.As(err, &me) {
		code, ok := modelCodes[me.Code]
		if !ok {
			code = ErrCodeInvalid
		}
		return &Error{Code: code, Message: me.Message, Err: err}
	}
	return &Error{Code: ErrCodeInvalid, Message: err.Error(), Err: err}
}
