package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymdexError_Unwrap_PreservesOriginalError(t *testing.T) {
	// Given: an original error
	originalErr := stderrors.New("original error")

	// When: wrapping it
	se := New(ErrCodeFileNotFound, "file not found: test.go", originalErr)

	// Then: unwrapping returns the original error
	require.NotNil(t, se)
	assert.Equal(t, originalErr, stderrors.Unwrap(se))
	assert.True(t, stderrors.Is(se, originalErr))
}

func TestSymdexError_Error_ReturnsFormattedMessage(t *testing.T) {
	err := New(ErrCodeInvalidPath, "path is not a directory or file: /missing", nil)
	assert.Equal(t, "[ERR_406_INVALID_PATH] path is not a directory or file: /missing", err.Error())
}

func TestSymdexError_Is_MatchesSentinelsByCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		want     bool
	}{
		{"invalid path", InvalidPathError("/missing"), ErrInvalidPath, true},
		{"invalid input", InvalidInputError("path is required"), ErrInvalidInput, true},
		{"indexing failed", IndexingFailedError("a.php", nil), ErrIndexingFailed, true},
		{"different codes", InvalidPathError("/missing"), ErrIndexingFailed, false},
		{"wrapped", fmt.Errorf("reindex: %w", IndexingFailedError("a.php", nil)), ErrIndexingFailed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stderrors.Is(tt.err, tt.sentinel))
		})
	}
}

func TestIsIndexingFailed(t *testing.T) {
	assert.True(t, IsIndexingFailed(IndexingFailedError("a.go", stderrors.New("parse error"))))
	assert.True(t, IsIndexingFailed(fmt.Errorf("wrapped: %w", IndexingFailedError("a.go", nil))))
	assert.False(t, IsIndexingFailed(stderrors.New("disk full")))
	assert.False(t, IsIndexingFailed(LockError("lock failed", nil)))
	assert.False(t, IsIndexingFailed(nil))
}

func TestCategoryAndSeverityFromCode(t *testing.T) {
	tests := []struct {
		code         string
		wantCategory Category
		wantSeverity Severity
	}{
		{ErrCodeConfigInvalid, CategoryConfig, SeverityError},
		{ErrCodeFileNotFound, CategoryIO, SeverityError},
		{ErrCodeLockFailed, CategoryIO, SeverityFatal},
		{ErrCodeInvalidPath, CategoryValidation, SeverityError},
		{ErrCodeIndexFailed, CategoryInternal, SeverityWarning},
		{ErrCodeBuiltinFailed, CategoryInternal, SeverityFatal},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "test message", nil)
			assert.Equal(t, tt.wantCategory, err.Category)
			assert.Equal(t, tt.wantSeverity, err.Severity)
		})
	}
}

func TestInvalidPathError_CarriesPathAndSuggestion(t *testing.T) {
	err := InvalidPathError("/nope")

	assert.Equal(t, "/nope", err.Details["path"])
	assert.NotEmpty(t, err.Suggestion)
	assert.Equal(t, CategoryValidation, err.Category)
	assert.ErrorIs(t, fmt.Errorf("wrap: %w", err), ErrInvalidPath)
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestFormatForCLI(t *testing.T) {
	out := FormatForCLI(InvalidPathError("/nope"))
	assert.Contains(t, out, "Error: path is not a directory or file: /nope")
	assert.Contains(t, out, "Hint: ")
	assert.Contains(t, out, "Code: ERR_406_INVALID_PATH")

	plain := FormatForCLI(stderrors.New("boom"))
	assert.Contains(t, plain, "Error: boom")
	assert.Contains(t, plain, ErrCodeInternal)

	assert.Empty(t, FormatForCLI(nil))
}

func TestFormatJSON(t *testing.T) {
	data, err := FormatJSON(IndexingFailedError("a.php", stderrors.New("syntax")))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, ErrCodeIndexFailed, decoded["code"])
	assert.Equal(t, "syntax", decoded["cause"])
	assert.Equal(t, string(SeverityWarning), decoded["severity"])
}

func TestLogAttrs(t *testing.T) {
	assert.Nil(t, LogAttrs(nil))
	assert.Len(t, LogAttrs(stderrors.New("plain")), 1)

	attrs := LogAttrs(IndexingFailedError("a.php", stderrors.New("syntax")))
	// code, message, severity, cause, detail_path
	assert.Len(t, attrs, 5)
}
