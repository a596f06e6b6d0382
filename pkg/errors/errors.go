package errors

import (
	"errors"
	"fmt"
)

// Domain enumerates the possible error domains
type Domain string

const (
	DomainArgument  Domain = "argument"
	DomainGateway   Domain = "gateway"
	DomainProcessor Domain = "processor"
	DomainRegistry  Domain = "registry"
)

// Code enumerates possible error codes for each domain
type Code string

// Argument error codes
const (
	CodeInvalidArgument Code = "invalid_argument"
)

// Gateway error codes
const (
	CodeLoadFailure       Code = "load_failure"
	CodeResolutionFailure Code = "resolution_failure"
	CodeInvocationFailure Code = "invocation_failure"
	CodeMarshalFailure    Code = "marshal_failure"
	CodeCircuitOpen       Code = "circuit_open"
	CodeTimeout           Code = "timeout"
)

// Processor error codes
const (
	CodeForeignCallFailure Code = "foreign_call_failure"
)

// DomainError represents a domain-specific error.
type DomainError struct {
	// The error domain (argument, gateway, processor, ...)
	ErrDomain Domain

	// Error code unique within the domain
	ErrCode Code

	// Human-readable error message
	Message string

	// Foreign function the error relates to, if any
	Function string

	// Optional fields for context
	Details map[string]interface{}

	// Original error that caused this one, if any
	Cause error
}

// Error returns the error message.
func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s:%s] %s", e.ErrDomain, e.ErrCode, e.Message)

	if e.Function != "" {
		msg = fmt.Sprintf("%s (function: %s)", msg, e.Function)
	}

	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}

	return msg
}

// Unwrap returns the cause of this error
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// New creates a new DomainError.
func New(domain Domain, code Code, message string) *DomainError {
	return &DomainError{
		ErrDomain: domain,
		ErrCode:   code,
		Message:   message,
	}
}

// Wrap wraps an error with domain context.
func Wrap(domain Domain, code Code, message string, err error) *DomainError {
	return &DomainError{
		ErrDomain: domain,
		ErrCode:   code,
		Message:   message,
		Cause:     err,
	}
}

// WithFunction adds foreign function context to the error
func (e *DomainError) WithFunction(function string) *DomainError {
	e.Function = function
	return e
}

// WithCause adds the causing error
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// WithDetails adds additional context details
func (e *DomainError) WithDetails(details map[string]interface{}) *DomainError {
	e.Details = details
	return e
}

// Is checks if an error is a DomainError with the specified code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

// CodeOf returns the code of the outermost DomainError in the chain, or ""
// when there is none.
func CodeOf(err error) Code {
	var de *DomainError
	if errors.As(err, &de) {
		return de.ErrCode
	}
	return ""
}

// IsForeignCallFailure reports whether err came from a failed foreign
// invocation, whatever the stage it failed at.
func IsForeignCallFailure(err error) bool {
	switch CodeOf(err) {
	case CodeResolutionFailure, CodeInvocationFailure, CodeMarshalFailure,
		CodeForeignCallFailure, CodeCircuitOpen, CodeTimeout:
		return true
	}
	return false
}

// InvalidArgument builds an argument error.
func InvalidArgument(format string, args ...interface{}) *DomainError {
	return New(DomainArgument, CodeInvalidArgument, fmt.Sprintf(format, args...))
}

// LoadFailure builds a gateway load error for a language/source pair.
func LoadFailure(language, source string, cause error) *DomainError {
	return Wrap(DomainGateway, CodeLoadFailure,
		fmt.Sprintf("failed to load %s source %q", language, source), cause)
}

// ResolutionFailure builds a gateway error for an unknown function name.
func ResolutionFailure(function string) *DomainError {
	return New(DomainGateway, CodeResolutionFailure, "function not found").WithFunction(function)
}

// InvocationFailure builds a gateway error for a foreign routine that failed.
func InvocationFailure(function string, cause error) *DomainError {
	return Wrap(DomainGateway, CodeInvocationFailure, "foreign routine failed", cause).WithFunction(function)
}

// MarshalFailure builds a gateway error for values that could not cross the
// language boundary.
func MarshalFailure(function string, cause error) *DomainError {
	return Wrap(DomainGateway, CodeMarshalFailure, "failed to marshal value", cause).WithFunction(function)
}

// Common gateway errors
var (
	ErrNothingLoaded = New(DomainGateway, CodeResolutionFailure, "no source has been loaded")
	ErrGatewayClosed = New(DomainGateway, CodeInvocationFailure, "gateway is closed")
)
