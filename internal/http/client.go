package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/preservio/papi/internal/auth"
	"github.com/preservio/papi/internal/constants"
	"github.com/preservio/papi/pkg/papi"
)

const errorBodyLimit = 4096

// contextKey is a private context key type.
type contextKey int

// requestStartKey carries the wall-clock start of a logical call so retry
// logs can report the cumulative delay.
const requestStartKey contextKey = iota

// Logger is the structured logging interface used by the HTTP layer.
type Logger = papi.Logger

// Request represents one logical API call.
type Request struct {
	Method string

	// Path is resolved against the client base URL, unless it is already
	// an absolute URL (pagination cursors are absolute).
	Path string

	Query   url.Values
	Headers map[string]string

	// Body is sent raw when it is a []byte or string (Content-Type
	// defaults to application/xml), otherwise it is JSON-marshalled.
	Body interface{}

	// ContentType overrides the Content-Type derived from Body.
	ContentType string
}

// Response is the decoded-free result of a dispatched request.
type Response struct {
	StatusCode int
	Headers    nethttp.Header
	Body       []byte
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the structured logger.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request/response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent overrides the default User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithRetryConfig tunes the retry budget and backoff window.
func WithRetryConfig(retryMax int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.retryMax = retryMax
		c.retryWaitMin = waitMin
		c.retryWaitMax = waitMax
	}
}

// WithHTTPTimeout bounds metadata calls. Streaming downloads stay unbounded.
func WithHTTPTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpTimeout = timeout
	}
}

// Client dispatches requests with bounded retries and exponential backoff.
// Every request carries the access token header; a 401 or 403 response
// invalidates both auth caches before the next attempt, which then uses a
// freshly exchanged token.
type Client struct {
	baseURL      string
	tokens       auth.TokenManager
	logger       Logger
	debug        bool
	userAgent    string
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
	httpTimeout  time.Duration

	retry  *retryablehttp.Client
	stream *retryablehttp.Client
}

// NewClient creates a dispatcher for the given base URL. The token manager
// may be nil for unauthenticated use (tests).
func NewClient(baseURL string, tokens auth.TokenManager, opts ...Option) *Client {
	client := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		tokens:       tokens,
		userAgent:    "papi-go",
		retryMax:     constants.DefaultRetryMax,
		retryWaitMin: constants.DefaultRetryWaitMin,
		retryWaitMax: constants.DefaultRetryWaitMax,
		httpTimeout:  constants.DefaultHTTPTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	client.retry = client.newRetryClient(client.httpTimeout)
	// Content downloads stay unbounded: large payloads may stream for
	// longer than any metadata timeout.
	client.stream = client.newRetryClient(0)

	return client
}

func (c *Client) newRetryClient(timeout time.Duration) *retryablehttp.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = &nethttp.Client{Timeout: timeout}
	retryClient.RetryMax = c.retryMax
	retryClient.RetryWaitMin = c.retryWaitMin
	retryClient.RetryWaitMax = c.retryWaitMax
	retryClient.Logger = nil
	retryClient.CheckRetry = c.checkRetry
	retryClient.RequestLogHook = c.requestLogHook
	// Surface the last response after the attempt budget is exhausted so
	// the terminal error carries the last observed status code.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return retryClient
}

// checkRetry classifies one response into a continue/stop decision.
// Transport errors and every non-2xx status are retryable; 401 and 403
// additionally invalidate both auth caches so the next attempt re-fetches
// a token. Decode failures never reach this path: decoding happens after a
// successful response.
func (c *Client) checkRetry(ctx context.Context, resp *nethttp.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	if err != nil || resp == nil {
		return true, nil
	}

	code := resp.StatusCode

	switch {
	case code >= nethttp.StatusOK && code < nethttp.StatusMultipleChoices:
		return false, nil
	case code == nethttp.StatusUnauthorized || code == nethttp.StatusForbidden:
		c.invalidateAuth(ctx)

		return true, nil
	case code >= nethttp.StatusBadRequest:
		return true, nil
	default:
		return false, nil
	}
}

func (c *Client) invalidateAuth(ctx context.Context) {
	if c.tokens == nil {
		return
	}

	err := c.tokens.InvalidateAll(ctx)
	if err != nil && c.logger != nil {
		c.logger.Warn("failed to invalidate auth caches", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// requestLogHook refreshes the token header before each retry attempt and
// emits the structured retry log.
func (c *Client) requestLogHook(_ retryablehttp.Logger, req *nethttp.Request, attempt int) {
	if attempt == 0 {
		return
	}

	if c.tokens != nil {
		token, err := c.tokens.GetToken(req.Context())
		if err == nil {
			req.Header.Set(constants.AccessTokenHeader, token)
		} else if c.logger != nil {
			c.logger.Warn("failed to refresh token for retry", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	if c.logger != nil {
		fields := map[string]interface{}{
			"method":      req.Method,
			"url":         req.URL.String(),
			"attempt":     attempt,
			"max_retries": c.retryMax,
		}

		if start, ok := req.Context().Value(requestStartKey).(time.Time); ok {
			fields["cumulative_delay"] = time.Since(start).String()
		}

		c.logger.Info("retrying request", fields)
	}
}

// Do dispatches one logical call, retrying per the configured budget, and
// returns the raw response. Non-2xx terminal responses are returned together
// with a typed *papi.APIError carrying the last observed status.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	targetURL := c.resolveURL(req.Path, req.Query)

	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}

	if req.ContentType != "" {
		contentType = req.ContentType
	}

	ctx = context.WithValue(ctx, requestStartKey, time.Now())

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, targetURL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	if c.tokens != nil {
		token, tokenErr := c.tokens.GetToken(ctx)
		if tokenErr != nil {
			return nil, fmt.Errorf("getting access token: %w", tokenErr)
		}

		httpReq.Header.Set(constants.AccessTokenHeader, token)
	}

	if body != nil && contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	httpReq.Header.Set("User-Agent", c.userAgent)

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": req.Method,
			"url":    targetURL,
		})
	}

	httpResp, err := c.retry.Do(httpReq)
	if err != nil {
		return nil, &papi.APIError{
			Method:  req.Method,
			URL:     targetURL,
			Message: err.Error(),
		}
	}

	defer func() {
		_ = httpResp.Body.Close()
	}()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	response := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       respBody,
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"method":      req.Method,
			"url":         targetURL,
			"status_code": httpResp.StatusCode,
		})
	}

	if httpResp.StatusCode >= nethttp.StatusBadRequest {
		return response, papi.NewHTTPError(req.Method, targetURL, httpResp.StatusCode, errorMessage(respBody))
	}

	return response, nil
}

// Get dispatches a GET. The path may be an absolute pagination cursor.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: nethttp.MethodGet, Path: path, Query: query})
}

// Post dispatches a POST with the given body.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: nethttp.MethodPost, Path: path, Body: body})
}

// Put dispatches a PUT with the given body.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: nethttp.MethodPut, Path: path, Body: body})
}

// Delete dispatches a DELETE.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{Method: nethttp.MethodDelete, Path: path})
}

// Stream dispatches a GET on the unbounded-timeout client and returns the
// response body as a stream. The caller must close the returned reader.
func (c *Client) Stream(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	targetURL := c.resolveURL(rawURL, nil)

	ctx = context.WithValue(ctx, requestStartKey, time.Now())

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, nethttp.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	if c.tokens != nil {
		token, tokenErr := c.tokens.GetToken(ctx)
		if tokenErr != nil {
			return nil, fmt.Errorf("getting access token: %w", tokenErr)
		}

		httpReq.Header.Set(constants.AccessTokenHeader, token)
	}

	httpReq.Header.Set("User-Agent", c.userAgent)

	httpResp, err := c.stream.Do(httpReq)
	if err != nil {
		return nil, &papi.APIError{
			Method:  nethttp.MethodGet,
			URL:     targetURL,
			Message: err.Error(),
		}
	}

	if httpResp.StatusCode >= nethttp.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, errorBodyLimit))
		_ = httpResp.Body.Close()

		return nil, papi.NewHTTPError(nethttp.MethodGet, targetURL, httpResp.StatusCode, errorMessage(body))
	}

	return httpResp.Body, nil
}

// resolveURL builds the absolute request URL from a path or cursor.
func (c *Client) resolveURL(path string, query url.Values) string {
	target := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}

		target = c.baseURL + path
	}

	if len(query) > 0 {
		separator := "?"
		if strings.Contains(target, "?") {
			separator = "&"
		}

		target += separator + query.Encode()
	}

	return target
}

// encodeBody renders the request body bytes and the implied content type.
func encodeBody(body interface{}) ([]byte, string, error) {
	switch value := body.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return value, constants.ContentTypeXML, nil
	case string:
		return []byte(value), constants.ContentTypeXML, nil
	default:
		data, err := json.Marshal(value)
		if err != nil {
			return nil, "", fmt.Errorf("marshalling JSON body: %w", err)
		}

		return data, constants.ContentTypeJSON, nil
	}
}

// errorMessage extracts a short message from an error response body.
func errorMessage(body []byte) string {
	message := strings.TrimSpace(string(body))
	if len(message) > errorBodyLimit {
		message = message[:errorBodyLimit]
	}

	if message == "" {
		message = "request failed"
	}

	return message
}
