package client

import (
	"context"
	"encoding/json"
	"net/url"

	internalhttp "github.com/preservio/papi/internal/http"
	"github.com/preservio/papi/pkg/papi"
)

const processMonitorBasePath = "/api/processmonitor"

// ProcessMonitorClient implements papi.ProcessMonitorClient. The process
// monitor speaks JSON with a {success, value} envelope, unlike the XML
// entity API.
type ProcessMonitorClient struct {
	http *internalhttp.Client
}

type processEnvelope struct {
	Success bool        `json:"success"`
	Value   processBody `json:"value"`
}

type processBody struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
}

type messagesEnvelope struct {
	Success bool         `json:"success"`
	Value   messagesBody `json:"value"`
}

type messagesBody struct {
	Paging   pagingBody    `json:"paging"`
	Messages []messageBody `json:"messages"`
}

type pagingBody struct {
	Next string `json:"next"`
}

type messageBody struct {
	Sequence int    `json:"sequence"`
	Level    string `json:"level"`
	Message  string `json:"message"`
}

// Get fetches one monitored process by ID.
func (c *ProcessMonitorClient) Get(ctx context.Context, processID string) (*papi.Process, error) {
	path := processMonitorBasePath + "/processes/" + url.PathEscape(processID)

	resp, err := c.http.Get(ctx, path, nil)
	if err != nil {
		return nil, err
	}

	var envelope processEnvelope

	err = json.Unmarshal(resp.Body, &envelope)
	if err != nil {
		return nil, papi.NewDecodeError("parsing process: %v", err)
	}

	return &papi.Process{
		ID:       envelope.Value.ID,
		Category: envelope.Value.Category,
		Status:   envelope.Value.Status,
		Progress: envelope.Value.Progress,
	}, nil
}

// Messages lists every message emitted by the process, walking all pages in
// emission order.
func (c *ProcessMonitorClient) Messages(ctx context.Context, processID string) ([]papi.ProcessMessage, error) {
	query := url.Values{}
	query.Set("processId", processID)

	start := processMonitorBasePath + "/messages?" + query.Encode()

	return papi.FetchAllPages(ctx, start, func(ctx context.Context, pageURL string) (*papi.Page[papi.ProcessMessage], error) {
		resp, err := c.http.Get(ctx, pageURL, nil)
		if err != nil {
			return nil, err
		}

		var envelope messagesEnvelope

		err = json.Unmarshal(resp.Body, &envelope)
		if err != nil {
			return nil, papi.NewDecodeError("parsing process messages: %v", err)
		}

		page := &papi.Page[papi.ProcessMessage]{
			Items: []papi.ProcessMessage{},
			Next:  envelope.Value.Paging.Next,
		}

		for _, message := range envelope.Value.Messages {
			page.Items = append(page.Items, papi.ProcessMessage{
				Sequence: message.Sequence,
				Level:    message.Level,
				Message:  message.Message,
			})
		}

		return page, nil
	})
}
