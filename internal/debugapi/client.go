// Package debugapi is the client of the identity server's connection debug API.
package debugapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	debugerrors "github.com/lukaszraczylo/idptest/internal/errors"
)

// DefaultAPIPath is the console API prefix of the identity server.
const DefaultAPIPath = "/api/server/v1"

// maxBodySize bounds the size of a response body the client reads.
const maxBodySize = 4 << 20

// Logger interface for API client operations
type Logger interface {
	Debugf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Client calls the debug endpoints. Every request goes through the provided
// http.Client, whose cookie jar carries the operator's console session.
type Client struct {
	http    *http.Client
	baseURL string
	logger  Logger
}

// NewClient creates a client for the API rooted at baseURL + apiPath.
func NewClient(httpClient *http.Client, baseURL, apiPath string, logger Logger) (*Client, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("http client is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if apiPath == "" {
		apiPath = DefaultAPIPath
	}
	if logger == nil {
		logger = noOpLogger{}
	}
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/") + "/" + strings.Trim(apiPath, "/"),
		logger:  logger,
	}, nil
}

// Endpoint returns the absolute URL of an API path.
func (c *Client) Endpoint(path string) string {
	return c.baseURL + path
}

// InitiateTest starts a test run for the connection. The request body is empty.
func (c *Client) InitiateTest(ctx context.Context, idpID string) (*InitiateResponse, error) {
	if idpID == "" {
		return nil, fmt.Errorf("idp id is required")
	}

	var out InitiateResponse
	if _, err := c.do(ctx, http.MethodPost, "/debug/connection/"+url.PathEscape(idpID), &out); err != nil {
		return nil, err
	}
	if out.SessionID == "" {
		return nil, fmt.Errorf("initiation response carries no session id")
	}
	return &out, nil
}

// FetchResult retrieves the result of a debug session. A 404 is returned as a
// RESULT_NOT_READY DebugError; every other failure as REQUEST_FAILED.
func (c *Client) FetchResult(ctx context.Context, sessionID string) (*TestResult, error) {
	var out TestResult
	raw, err := c.do(ctx, http.MethodGet, "/debug/result/"+url.PathEscape(sessionID), &out)
	if err != nil {
		return nil, err
	}
	out.Raw = raw
	return &out, nil
}

// GetConnector returns the connection metadata of an identity provider.
func (c *Client) GetConnector(ctx context.Context, idpID string) (*Connector, error) {
	var out Connector
	if _, err := c.do(ctx, http.MethodGet, "/identity-providers/"+url.PathEscape(idpID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, out any) (json.RawMessage, error) {
	endpoint := c.Endpoint(path)

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Errorf("%s %s failed: %v", method, endpoint, err)
		return nil, debugerrors.NewRequestError("", 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, debugerrors.NewRequestError("", resp.StatusCode, fmt.Errorf("failed to read response: %w", err))
	}

	c.logger.Debugf("%s %s -> %d", method, endpoint, resp.StatusCode)

	if resp.StatusCode == http.StatusNotFound && strings.HasPrefix(path, "/debug/result/") {
		return nil, debugerrors.NewNotReadyError(fmt.Errorf("%s %s: %s", method, path, resp.Status))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, debugerrors.NewRequestError(backendMessage(body), resp.StatusCode,
			fmt.Errorf("%s %s: %s", method, path, resp.Status))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return nil, debugerrors.NewRequestError("", resp.StatusCode, fmt.Errorf("failed to decode response: %w", err))
	}
	return body, nil
}

// backendMessage extracts the message of an API error body, if any.
func backendMessage(body []byte) string {
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err != nil {
		return ""
	}
	return strings.TrimSpace(apiErr.Message)
}

type noOpLogger struct{}

func (noOpLogger) Debugf(format string, args ...interface{}) {}
func (noOpLogger) Errorf(format string, args ...interface{}) {}
