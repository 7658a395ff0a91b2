package client

import (
	"context"
	"encoding/json"
	"fmt"

	internalhttp "github.com/preservio/papi/internal/http"
	"github.com/preservio/papi/pkg/papi"
)

const workflowInstancesPath = "/sdb/rest/workflow/instances"

// WorkflowsClient implements papi.WorkflowsClient.
type WorkflowsClient struct {
	http *internalhttp.Client
}

// startWorkflowBody is the JSON request for starting a workflow instance.
type startWorkflowBody struct {
	WorkflowContextID   string `json:"workflowContextId,omitempty"`
	WorkflowContextName string `json:"workflowContextName,omitempty"`
	CorrelationID       string `json:"correlationId,omitempty"`
}

// workflowInstanceBody is the JSON response for a workflow instance.
type workflowInstanceBody struct {
	ID            string `json:"id"`
	State         string `json:"state"`
	CorrelationID string `json:"correlationId"`
}

// Start launches a workflow. Exactly one of ContextID and ContextName must
// identify the workflow context; anything else fails before any network call.
func (c *WorkflowsClient) Start(ctx context.Context, request *papi.StartWorkflowRequest) (*papi.WorkflowInstance, error) {
	if (request.ContextID == "") == (request.ContextName == "") {
		return nil, fmt.Errorf("%w", papi.ErrWorkflowContextRequired)
	}

	resp, err := c.http.Post(ctx, workflowInstancesPath, startWorkflowBody{
		WorkflowContextID:   request.ContextID,
		WorkflowContextName: request.ContextName,
		CorrelationID:       request.CorrelationID,
	})
	if err != nil {
		return nil, err
	}

	var instance workflowInstanceBody

	err = json.Unmarshal(resp.Body, &instance)
	if err != nil {
		return nil, papi.NewDecodeError("parsing workflow instance: %v", err)
	}

	return &papi.WorkflowInstance{
		ID:            instance.ID,
		State:         instance.State,
		CorrelationID: instance.CorrelationID,
	}, nil
}
