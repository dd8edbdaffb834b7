package errors

import (
	stdErrors "errors"
	"fmt"
)

type Code string

const (
	CodeMissingInput    Code = "MISSING_INPUT"
	CodeSchemaMismatch  Code = "SCHEMA_MISMATCH"
	CodeUnknownUnit     Code = "UNKNOWN_UNIT"
	CodeDependencyCycle Code = "DEPENDENCY_CYCLE"
	CodeValidation      Code = "VALIDATION_FAILED"
	CodeLockHeld        Code = "BUILD_LOCK_HELD"
	CodeDependency      Code = "DEPENDENCY_ERROR"
	CodeInternal        Code = "INTERNAL_ERROR"
)

// Metadata describes how a coded failure surfaces at the process boundary.
type Metadata struct {
	ExitCode  int
	Retryable bool
	Summary   string
}

var metadataByCode = map[Code]Metadata{
	CodeMissingInput: {
		ExitCode: ExitBuildFailure,
		Summary:  "required upstream relation is absent",
	},
	CodeSchemaMismatch: {
		ExitCode: ExitBuildFailure,
		Summary:  "referenced column is absent or of the wrong type",
	},
	CodeUnknownUnit: {
		ExitCode: ExitBuildFailure,
		Summary:  "no unit registered under that name",
	},
	CodeDependencyCycle: {
		ExitCode: ExitBuildFailure,
		Summary:  "unit references form a cycle",
	},
	CodeValidation: {
		ExitCode:  ExitValidationFailure,
		Retryable: false,
		Summary:   "data-quality checks reported violations",
	},
	CodeLockHeld: {
		ExitCode:  ExitBuildFailure,
		Retryable: true,
		Summary:   "another run holds the build lock",
	},
	CodeDependency: {
		ExitCode:  ExitBuildFailure,
		Retryable: true,
		Summary:   "backing store unavailable",
	},
	CodeInternal: {
		ExitCode:  ExitBuildFailure,
		Retryable: true,
		Summary:   "internal error",
	},
}

// Process exit codes: build failures and validation failures must be
// distinguishable to callers.
const (
	ExitOK                = 0
	ExitBuildFailure      = 1
	ExitValidationFailure = 2
)

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// ExitCodeFor picks the process exit code for an arbitrary error.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitOK
	}
	if typed := As(err); typed != nil {
		return MetadataFor(typed.Code()).ExitCode
	}
	return ExitBuildFailure
}
