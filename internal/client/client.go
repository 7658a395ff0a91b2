// Package client implements the typed API façades on top of the retrying
// HTTP dispatcher and the XML/JSON codecs.
package client

import (
	"context"

	"github.com/preservio/papi/internal/auth"
	internalhttp "github.com/preservio/papi/internal/http"
	"github.com/preservio/papi/pkg/papi"
)

// Client bundles the service façades behind the papi.Client interface.
type Client struct {
	http   *internalhttp.Client
	tokens auth.TokenManager
	logger papi.Logger

	entities       *EntitiesClient
	content        *ContentClient
	workflows      *WorkflowsClient
	processMonitor *ProcessMonitorClient
	admin          *AdminClient
}

// New assembles the façades over a shared dispatcher and token manager.
func New(httpClient *internalhttp.Client, tokens auth.TokenManager, logger papi.Logger) *Client {
	client := &Client{
		http:   httpClient,
		tokens: tokens,
		logger: logger,
	}

	client.entities = &EntitiesClient{http: httpClient}
	client.content = &ContentClient{http: httpClient, entities: client.entities}
	client.workflows = &WorkflowsClient{http: httpClient}
	client.processMonitor = &ProcessMonitorClient{http: httpClient}
	client.admin = &AdminClient{http: httpClient}

	return client
}

// Entities returns the entity hierarchy façade.
func (c *Client) Entities() papi.EntitiesClient {
	return c.entities
}

// Content returns the generations and bitstream façade.
func (c *Client) Content() papi.ContentClient {
	return c.content
}

// Workflows returns the workflow façade.
func (c *Client) Workflows() papi.WorkflowsClient {
	return c.workflows
}

// ProcessMonitor returns the process-monitor façade.
func (c *Client) ProcessMonitor() papi.ProcessMonitorClient {
	return c.processMonitor
}

// Admin returns the administrative façade.
func (c *Client) Admin() papi.AdminClient {
	return c.admin
}

// GetToken returns the current access token, refreshing it if needed.
func (c *Client) GetToken(ctx context.Context) (string, error) {
	return c.tokens.GetToken(ctx)
}
