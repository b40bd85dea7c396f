package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name        string
		appError    *AppError
		wantMessage string
	}{
		{
			name:        "error without cause",
			appError:    NewAppValidationError("bad threshold"),
			wantMessage: "[VALIDATION] bad threshold",
		},
		{
			name:        "error with cause",
			appError:    NewFetchError("download cameliaBalAG.csv.gz", fmt.Errorf("connection refused")),
			wantMessage: "[FETCH] download cameliaBalAG.csv.gz: connection refused",
		},
		{
			name:        "not found",
			appError:    NewNotFoundError("analysis run"),
			wantMessage: "[NOT_FOUND] analysis run not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMessage, tt.appError.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	err := NewParsingError("read table", ErrMissingColumn)
	wrapped := fmt.Errorf("load invoices: %w", err)

	assert.True(t, errors.Is(wrapped, ErrMissingColumn))

	var appErr *AppError
	require.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, ErrTypeParsing, appErr.Type)
}

func TestIsType(t *testing.T) {
	err := fmt.Errorf("clean: %w", NewEmptyResultError("clean dates"))

	assert.True(t, IsType(err, ErrTypeEmptyResult))
	assert.False(t, IsType(err, ErrTypeFetch))
	assert.False(t, IsType(errors.New("plain"), ErrTypeEmptyResult))
	assert.True(t, errors.Is(err, ErrEmptyTable))
}

func TestWithContext(t *testing.T) {
	err := NewStorageError("write", nil).WithContext("file", "out.csv")
	assert.Equal(t, "out.csv", err.Context["file"])

	var zero AppError
	zero.WithContext("k", 1)
	assert.Equal(t, 1, zero.Context["k"])
}
