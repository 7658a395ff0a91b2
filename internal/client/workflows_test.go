package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/preservio/papi/pkg/papi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkflowsStart(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/sdb/rest/workflow/instances", r.URL.Path)
		assert.Equal(t, "application/json;charset=UTF-8", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ctx-7", body["workflowContextId"])
		assert.Equal(t, "batch-42", body["correlationId"])
		assert.NotContains(t, body, "workflowContextName")

		_, _ = w.Write([]byte(`{"id":"wf-1","state":"ACTIVE","correlationId":"batch-42"}`))
	}))
	defer server.Close()

	instance, err := newTestClient(server).Workflows().Start(context.Background(), &papi.StartWorkflowRequest{
		ContextID:     "ctx-7",
		CorrelationID: "batch-42",
	})
	require.NoError(t, err)
	assert.Equal(t, "wf-1", instance.ID)
	assert.Equal(t, "ACTIVE", instance.State)
	assert.Equal(t, "batch-42", instance.CorrelationID)
}

func TestWorkflowsStartContextValidation(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected when validation fails")
	}))
	defer server.Close()

	workflows := newTestClient(server).Workflows()

	// Neither supplied.
	_, err := workflows.Start(context.Background(), &papi.StartWorkflowRequest{})
	assert.ErrorIs(t, err, papi.ErrWorkflowContextRequired)

	// Both supplied.
	_, err = workflows.Start(context.Background(), &papi.StartWorkflowRequest{
		ContextID:   "ctx-7",
		ContextName: "Ingest",
	})
	assert.ErrorIs(t, err, papi.ErrWorkflowContextRequired)
}

func TestWorkflowsStartByName(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Ingest", body["workflowContextName"])

		_, _ = w.Write([]byte(`{"id":"wf-2","state":"PENDING","correlationId":""}`))
	}))
	defer server.Close()

	instance, err := newTestClient(server).Workflows().Start(context.Background(), &papi.StartWorkflowRequest{
		ContextName: "Ingest",
	})
	require.NoError(t, err)
	assert.Equal(t, "wf-2", instance.ID)
}
