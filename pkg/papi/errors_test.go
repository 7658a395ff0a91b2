package papi_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/preservio/papi/pkg/papi"
	"github.com/stretchr/testify/assert"
)

func TestAPIErrorFormatting(t *testing.T) {
	t.Parallel()

	t.Run("http error", func(t *testing.T) {
		t.Parallel()

		err := papi.NewHTTPError(http.MethodGet, "https://api.example.com/api/entity/structural-objects/x", http.StatusNotFound, "entity not found")
		assert.Equal(t, "GET https://api.example.com/api/entity/structural-objects/x: 404: entity not found", err.Error())
	})

	t.Run("transport error without status", func(t *testing.T) {
		t.Parallel()

		err := &papi.APIError{Method: http.MethodGet, URL: "https://api.example.com", Message: "connection refused"}
		assert.Equal(t, "GET https://api.example.com: connection refused", err.Error())
	})

	t.Run("decode error", func(t *testing.T) {
		t.Parallel()

		err := papi.NewDecodeError("parsing XML document: %v", errors.New("unexpected EOF"))
		assert.Equal(t, "parsing XML document: unexpected EOF", err.Error())
	})
}

func TestStatusHelpers(t *testing.T) {
	t.Parallel()

	unauthorized := papi.NewHTTPError(http.MethodGet, "u", http.StatusUnauthorized, "")
	forbidden := papi.NewHTTPError(http.MethodGet, "u", http.StatusForbidden, "")
	notFound := papi.NewHTTPError(http.MethodGet, "u", http.StatusNotFound, "")

	assert.True(t, papi.IsUnauthorized(unauthorized))
	assert.False(t, papi.IsUnauthorized(forbidden))

	assert.True(t, papi.IsForbidden(forbidden))
	assert.False(t, papi.IsForbidden(notFound))

	assert.True(t, papi.IsNotFound(notFound))
	assert.False(t, papi.IsNotFound(unauthorized))

	// Wrapped errors unwrap through errors.As.
	wrapped := fmt.Errorf("fetching entity: %w", notFound)
	assert.True(t, papi.IsNotFound(wrapped))

	assert.False(t, papi.IsNotFound(errors.New("plain")))
}
