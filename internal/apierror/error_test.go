package apierror_test

import (
	"net/http"
	"testing"

	"github.com/mindmirror/mindmirror/internal/apierror"
	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	err := apierror.New("some message")

	assert.Equal(t, "some message", err.Error())
	assert.Equal(t, http.StatusInternalServerError, apierror.StatusCode(err))
}

func TestErrorWithTagCode(t *testing.T) {
	err := apierror.NewWithTagCode(http.StatusNotFound, "not-found", "Entry not found.")

	assert.Equal(t, "Entry not found.", err.Error())
	assert.Equal(t, http.StatusNotFound, apierror.StatusCode(err))
}
