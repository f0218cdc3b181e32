package store_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/galleryapp/gallery-server/internal/store"
)

func TestError_ErrorWithCause(t *testing.T) {
	cause := errors.New("disk I/O error")
	err := store.ErrNotFound.WithCause(cause)

	assert.Contains(t, err.Error(), "resource not found")
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.Equal(t, cause, err.Unwrap())
}

func TestError_HTTPCode(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, store.ErrImageNotFound.HTTPCode())
	assert.Equal(t, http.StatusConflict, store.ErrUsernameTaken.HTTPCode())
	assert.Equal(t, http.StatusBadRequest, store.ErrInvalidInput.HTTPCode())
}

func TestError_VariantsMatchSentinels(t *testing.T) {
	assert.ErrorIs(t, store.ErrImageNotFound, store.ErrNotFound)
	assert.ErrorIs(t, fmt.Errorf("get: %w", store.ErrTagNotFound), store.ErrNotFound)
	assert.ErrorIs(t, store.ErrTagNameTaken, store.ErrAlreadyExists)
	assert.NotErrorIs(t, store.ErrUsernameTaken, store.ErrNotFound)
}

func TestError_WithMessageKeepsCode(t *testing.T) {
	modified := store.ErrNotFound.WithMessage("custom message")

	assert.Equal(t, "custom message", modified.Message)
	assert.Equal(t, http.StatusNotFound, modified.Code)
	assert.Equal(t, "resource not found", store.ErrNotFound.Message, "sentinel must not change")
}
