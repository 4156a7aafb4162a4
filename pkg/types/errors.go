package types

import (
	"fmt"
	"strings"
)

// ErrorCode represents a compiler error code.
//
// The first letter selects the error class: S (syntax), D (declaration),
// R (resolution) and X (structural defect).
type ErrorCode string

// Error codes.
const (
	// S0xxx: Syntax errors reported by the parser
	ErrStringNotClosed   ErrorCode = "S0101"
	ErrNumberOutOfRange  ErrorCode = "S0102"
	ErrUnsupportedEscape ErrorCode = "S0103"
	ErrUnexpectedEnd     ErrorCode = "S0104"
	ErrInvalidEnvLookup  ErrorCode = "S0105"
	ErrCommentNotClosed  ErrorCode = "S0106"
	ErrSyntaxError       ErrorCode = "S0201"
	ErrExpectedToken     ErrorCode = "S0202"
	ErrExpectedKeyword   ErrorCode = "S0203"
	ErrNestingTooDeep    ErrorCode = "S0204"

	// D1xxx: Declaration errors
	ErrDuplicateBinding   ErrorCode = "D1001"
	ErrReservedNamespace  ErrorCode = "D1002"
	ErrNamespaceImported  ErrorCode = "D1003"
	ErrMockAndAssert      ErrorCode = "D1004"
	ErrDuplicateFunction  ErrorCode = "D1005"
	ErrDuplicateParameter ErrorCode = "D1006"
	ErrMissingSelect      ErrorCode = "D1007"

	// R2xxx: Resolution errors
	ErrModuleLoad         ErrorCode = "R2001"
	ErrUnsupportedScheme  ErrorCode = "R2002"
	ErrEnvMissing         ErrorCode = "R2003"
	ErrEnvNotJSON         ErrorCode = "R2004"
	ErrUndefinedFunction  ErrorCode = "R2005"
	ErrUndefinedVariable  ErrorCode = "R2006"
	ErrImportCycle        ErrorCode = "R2007"
	ErrUnknownNamespace   ErrorCode = "R2008"
	ErrTestContextCompile ErrorCode = "R2009"

	// X3xxx: Structural errors (defects in the rule/stack contract)
	ErrUnexpectedValue  ErrorCode = "X3001"
	ErrMalformedRule    ErrorCode = "X3002"
	ErrInvalidAggregate ErrorCode = "X3003"
	ErrLambdaParameters ErrorCode = "X3004"
	ErrStackImbalance   ErrorCode = "X3005"
)

// ErrorClass is the failure category an ErrorCode belongs to.
type ErrorClass string

const (
	ClassSyntax      ErrorClass = "syntax"
	ClassDeclaration ErrorClass = "declaration"
	ClassResolution  ErrorClass = "resolution"
	ClassStructural  ErrorClass = "structural"
)

// Class returns the error class encoded in the code prefix.
func (c ErrorCode) Class() ErrorClass {
	switch {
	case strings.HasPrefix(string(c), "S"):
		return ClassSyntax
	case strings.HasPrefix(string(c), "D"):
		return ClassDeclaration
	case strings.HasPrefix(string(c), "R"):
		return ClassResolution
	default:
		return ClassStructural
	}
}

// Error represents a structured compilation error.
//
// Compilation is all-or-nothing: the first Error aborts the unit being
// compiled and is returned to the caller unchanged (or wrapped with the
// module it came from).
type Error struct {
	Code    ErrorCode
	Message string
	Line    int // 1-based, 0 when unknown
	Column  int // 1-based, 0 when unknown
	File    string
	Token   string
	Hint    string
	Err     error
}

// NewError creates a new compilation error.
func NewError(code ErrorCode, message string, line int) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Line:    line,
	}
}

// Errorf creates a new compilation error with a formatted message.
func Errorf(code ErrorCode, line int, format string, args ...any) *Error {
	return NewError(code, fmt.Sprintf(format, args...), line)
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder
	if e.File != "" {
		sb.WriteString(e.File)
		sb.WriteString(": ")
	}
	sb.WriteString(string(e.Code))
	if e.Line > 0 {
		if e.Column > 0 {
			fmt.Fprintf(&sb, " at line %d, column %d", e.Line, e.Column)
		} else {
			fmt.Fprintf(&sb, " at line %d", e.Line)
		}
	}
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Hint != "" {
		sb.WriteString(" (")
		sb.WriteString(e.Hint)
		sb.WriteString(")")
	}
	return sb.String()
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Class returns the error class.
func (e *Error) Class() ErrorClass {
	return e.Code.Class()
}

// WithToken adds token information to the error.
func (e *Error) WithToken(token string) *Error {
	e.Token = token
	return e
}

// WithCause wraps another error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

// WithFile records the source unit the error belongs to.
func (e *Error) WithFile(file string) *Error {
	if e.File == "" {
		e.File = file
	}
	return e
}

// WithHint attaches a fix suggestion.
func (e *Error) WithHint(hint string) *Error {
	e.Hint = hint
	return e
}
