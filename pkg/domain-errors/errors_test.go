package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeStorage, "commit failed")

	require.ErrorIs(t, err, cause)
	assert.True(t, Is(err, CodeStorage))
	assert.False(t, Is(err, CodeNotFound))
}

func TestIsSeesThroughFmtWrapping(t *testing.T) {
	err := fmt.Errorf("void distribution: %w", New(CodeNotFound, "distribution not found"))

	assert.True(t, Is(err, CodeNotFound))
	assert.Equal(t, CodeNotFound, CodeOf(err))
}

func TestCodeOfDefaultsToInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
}

func TestToHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, ToHTTPStatus(CodeNotFound))
	assert.Equal(t, http.StatusBadRequest, ToHTTPStatus(CodeBadRequest))
	assert.Equal(t, http.StatusConflict, ToHTTPStatus(CodeConflict))
	assert.Equal(t, http.StatusInternalServerError, ToHTTPStatus(CodeStorage))
	assert.Equal(t, http.StatusInternalServerError, ToHTTPStatus(Code("unknown")))
}
