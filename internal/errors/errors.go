package errors

import (
	stderrors "errors"
	"fmt"
)

// SymdexError is the structured error type for symdex.
// It carries enough context for logging, CLI presentation and for callers
// that need to branch on the kind of failure.
type SymdexError struct {
	// Code is the unique error code (e.g., "ERR_406_INVALID_PATH").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Validation, Internal).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *SymdexError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *SymdexError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() against the sentinel values below.
func (e *SymdexError) Is(target error) bool {
	if t, ok := target.(*SymdexError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *SymdexError) WithDetail(key, value string) *SymdexError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *SymdexError) WithSuggestion(suggestion string) *SymdexError {
	e.Suggestion = suggestion
	return e
}

// New creates a new SymdexError with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *SymdexError {
	return &SymdexError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates a SymdexError from an existing error.
// The error's message becomes the SymdexError message.
func Wrap(code string, err error) *SymdexError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// Sentinels for errors.Is comparisons. Matching is by code only.
var (
	ErrInvalidInput   = &SymdexError{Code: ErrCodeInvalidInput}
	ErrInvalidPath    = &SymdexError{Code: ErrCodeInvalidPath}
	ErrIndexingFailed = &SymdexError{Code: ErrCodeIndexFailed}
)

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *SymdexError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// InvalidInputError reports a missing or malformed argument. The operation
// never starts.
func InvalidInputError(message string) *SymdexError {
	return New(ErrCodeInvalidInput, message, nil)
}

// InvalidPathError reports a path that is neither a directory nor a file
// while stream mode was not requested.
func InvalidPathError(path string) *SymdexError {
	return New(ErrCodeInvalidPath, fmt.Sprintf("path is not a directory or file: %s", path), nil).
		WithDetail("path", path).
		WithSuggestion("Pass an existing file or directory, or use --stream to index piped content")
}

// IndexingFailedError reports that a single file could not be indexed.
// This is the one recoverable failure of a reindex call.
func IndexingFailedError(path string, cause error) *SymdexError {
	msg := fmt.Sprintf("indexing failed: %s", path)
	if cause != nil {
		msg = fmt.Sprintf("indexing failed: %s: %v", path, cause)
	}
	return New(ErrCodeIndexFailed, msg, cause).WithDetail("path", path)
}

// BuiltinError reports a failure of the builtin seed that is not the
// indexer's own error.
func BuiltinError(message string, cause error) *SymdexError {
	return New(ErrCodeBuiltinFailed, message, cause)
}

// LockError reports a failure to acquire or release the index lock.
func LockError(message string, cause error) *SymdexError {
	return New(ErrCodeLockFailed, message, cause)
}

// IsIndexingFailed reports whether err is, or wraps, an indexing failure.
func IsIndexingFailed(err error) bool {
	return err != nil && stderrors.Is(err, ErrIndexingFailed)
}
