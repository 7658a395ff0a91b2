package psclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/preservio/papi/pkg/papi"
	"github.com/preservio/papi/pkg/psclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	_, err := psclient.New(ctx, nil)
	assert.ErrorIs(t, err, papi.ErrConfigRequired)

	_, err = psclient.New(ctx, &papi.Config{})
	assert.ErrorIs(t, err, papi.ErrAPIEndpointRequired)

	_, err = psclient.New(ctx, &papi.Config{APIEndpoint: "https://repo.example.com"})
	assert.ErrorIs(t, err, papi.ErrCredentialsRequired)
}

func TestNewAuthenticatesEagerly(t *testing.T) {
	t.Parallel()

	var logins int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/accesstoken/login":
			atomic.AddInt32(&logins, 1)
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "alice", r.PostFormValue("username"))

			_, _ = w.Write([]byte(`{"token":"tok-1"}`))
		case "/api/entity/structural-objects/so1":
			assert.Equal(t, "tok-1", r.Header.Get("Preservica-Access-Token"))

			_, _ = w.Write([]byte(`<EntityResponse><SO><Ref>so1</Ref><Title>Top</Title></SO></EntityResponse>`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client, err := psclient.NewWithPassword(context.Background(), server.URL, "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&logins))

	// The eagerly exchanged token is reused for API calls.
	entity, err := client.Entities().GetStructuralObject(context.Background(), "so1")
	require.NoError(t, err)
	assert.Equal(t, "Top", entity.Title)
	assert.Equal(t, int32(1), atomic.LoadInt32(&logins))
}

func TestNewBadCredentials(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := psclient.NewWithPassword(context.Background(), server.URL, "alice", "wrong")
	require.Error(t, err)
	assert.True(t, papi.IsUnauthorized(err))
}

func TestNewNormalizesEndpoint(t *testing.T) {
	t.Parallel()

	config := &papi.Config{
		APIEndpoint: "repo.example.com/",
		Username:    "alice",
		Password:    "s3cret",
	}

	// The connection fails (no such host in tests), but normalization has
	// already been applied to the config.
	_, _ = psclient.New(context.Background(), config)
	assert.Equal(t, "https://repo.example.com", config.APIEndpoint)
}
