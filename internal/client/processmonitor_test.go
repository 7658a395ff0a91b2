package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/preservio/papi/pkg/papi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessMonitorGet(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/processmonitor/processes/proc-1", r.URL.Path)

		_, _ = w.Write([]byte(`{"success":true,"value":{"id":"proc-1","category":"ingest","status":"ACTIVE","progress":40}}`))
	}))
	defer server.Close()

	process, err := newTestClient(server).ProcessMonitor().Get(context.Background(), "proc-1")
	require.NoError(t, err)
	assert.Equal(t, &papi.Process{
		ID:       "proc-1",
		Category: "ingest",
		Status:   "ACTIVE",
		Progress: 40,
	}, process)
}

func TestProcessMonitorMessagesPagination(t *testing.T) {
	t.Parallel()

	var server *httptest.Server

	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "proc-1", r.URL.Query().Get("processId"))

		if r.URL.Query().Get("start") == "" {
			next := server.URL + "/api/processmonitor/messages?processId=proc-1&start=2"
			_, _ = w.Write([]byte(`{"success":true,"value":{"paging":{"next":"` + next + `"},"messages":[` +
				`{"sequence":1,"level":"INFO","message":"started"},` +
				`{"sequence":2,"level":"INFO","message":"working"}]}}`))

			return
		}

		_, _ = w.Write([]byte(`{"success":true,"value":{"paging":{},"messages":[` +
			`{"sequence":3,"level":"WARN","message":"slow storage"}]}}`))
	}))
	defer server.Close()

	messages, err := newTestClient(server).ProcessMonitor().Messages(context.Background(), "proc-1")
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, 1, messages[0].Sequence)
	assert.Equal(t, "WARN", messages[2].Level)
	assert.Equal(t, "slow storage", messages[2].Message)
}
