// Package eval implements the tree-walking evaluator that runs a parsed
// FHIRPath AST against a focus collection.
package eval

import "fmt"

// ErrorType classifies why an evaluation failed, so callers can branch on
// the failure kind (e.g. retry on ErrTimeout) without string-matching
// Error().
type ErrorType int

const (
	ErrParse ErrorType = iota
	ErrType
	ErrSingletonExpected
	ErrFunctionNotFound
	ErrInvalidArguments
	ErrDivisionByZero
	ErrInvalidPath
	ErrTimeout
	ErrInvalidOperation
	ErrInvalidExpression
)

var errorTypeNames = map[ErrorType]string{
	ErrParse:              "ParseError",
	ErrType:                "TypeError",
	ErrSingletonExpected:   "SingletonExpectedError",
	ErrFunctionNotFound:    "FunctionNotFoundError",
	ErrInvalidArguments:    "InvalidArgumentsError",
	ErrDivisionByZero:      "DivisionByZeroError",
	ErrInvalidPath:         "InvalidPathError",
	ErrTimeout:             "TimeoutError",
	ErrInvalidOperation:    "InvalidOperationError",
	ErrInvalidExpression:   "InvalidExpressionError",
}

// String implements fmt.Stringer.
func (t ErrorType) String() string {
	if name, ok := errorTypeNames[t]; ok {
		return name
	}
	return "UnknownError"
}

// Position locates an error within the source expression text.
type Position struct {
	Line   int
	Column int
}

// EvalError is the error type every evaluation failure is reported as. Path
// and Position are optional context attached via WithPath/WithPosition as
// the error propagates up through nested evaluation.
//
//nolint:revive // Keeping EvalError name for API compatibility
type EvalError struct {
	Type       ErrorType
	Message    string
	Path       string
	Position   Position
	Underlying error
}

// Error implements the error interface, preferring Position over Path when
// both have been attached.
func (e *EvalError) Error() string {
	switch {
	case e.Position.Line > 0:
		return fmt.Sprintf("%s at %d:%d: %s", e.Type, e.Position.Line, e.Position.Column, e.Message)
	case e.Path != "":
		return fmt.Sprintf("%s in '%s': %s", e.Type, e.Path, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Type, e.Message)
	}
}

// Unwrap exposes the underlying error for errors.Is/As.
func (e *EvalError) Unwrap() error {
	return e.Underlying
}

// NewEvalError builds an EvalError, applying fmt.Sprintf to format/args
// when args are given.
func NewEvalError(errType ErrorType, format string, args ...interface{}) *EvalError {
	message := format
	if len(args) > 0 {
		message = fmt.Sprintf(format, args...)
	}
	return &EvalError{Type: errType, Message: message}
}

// WithPath attaches the expression path an error occurred at, returning the
// same error for chaining at the call site.
func (e *EvalError) WithPath(path string) *EvalError {
	e.Path = path
	return e
}

// WithPosition attaches a source line/column, returning the same error for
// chaining.
func (e *EvalError) WithPosition(line, column int) *EvalError {
	e.Position = Position{Line: line, Column: column}
	return e
}

// WithUnderlying attaches a wrapped cause, returning the same error for
// chaining.
func (e *EvalError) WithUnderlying(err error) *EvalError {
	e.Underlying = err
	return e
}

// Constructors for the error shapes raised throughout eval/ and funcs/.

func ParseError(message string) *EvalError {
	return NewEvalError(ErrParse, message)
}

func TypeError(expected, actual, operation string) *EvalError {
	return NewEvalError(ErrType, "expected %s, got %s in %s", expected, actual, operation)
}

func SingletonError(count int) *EvalError {
	return NewEvalError(ErrSingletonExpected, "expected single value, got %d elements", count)
}

func FunctionNotFoundError(name string) *EvalError {
	return NewEvalError(ErrFunctionNotFound, "unknown function '%s'", name)
}

func InvalidArgumentsError(funcName string, expected, actual int) *EvalError {
	return NewEvalError(ErrInvalidArguments, "function '%s' expects %d arguments, got %d", funcName, expected, actual)
}

func DivisionByZeroError() *EvalError {
	return NewEvalError(ErrDivisionByZero, "division by zero")
}

func InvalidPathError(path string) *EvalError {
	return NewEvalError(ErrInvalidPath, "invalid path '%s'", path)
}

func InvalidOperationError(op, leftType, rightType string) *EvalError {
	return NewEvalError(ErrInvalidOperation, "cannot apply '%s' to %s and %s", op, leftType, rightType)
}
