package cerr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	assert.Equal(t, OK, CodeOf(nil))
	assert.Equal(t, NotFound, CodeOf(NewError(NotFound, "mission not found", nil)))
	assert.Equal(t, Unknown, CodeOf(errors.New("plain")))

	wrapped := fmt.Errorf("outer: %w", NewError(FailedPrecondition, "invalid transition", nil))
	assert.Equal(t, FailedPrecondition, CodeOf(wrapped))
}

func TestIsCode(t *testing.T) {
	err := NewError(NotFound, "mission not found", nil)
	assert.True(t, IsCode(err, NotFound))
	assert.False(t, IsCode(err, Internal))
	assert.False(t, IsCode(nil, NotFound))
}

func TestHTTPCode(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, NotFound.HTTPCode())
	assert.Equal(t, http.StatusPreconditionFailed, FailedPrecondition.HTTPCode())
	assert.Equal(t, http.StatusBadRequest, InvalidArgument.HTTPCode())
	assert.Equal(t, http.StatusInternalServerError, Internal.HTTPCode())
}

func TestErrorMessage(t *testing.T) {
	err := NewError(Internal, "persistence failure", errors.New("disk full"))
	assert.Contains(t, err.Error(), "persistence failure")
	assert.Contains(t, err.Error(), "disk full")
}
