package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// CredentialProvider supplies auth headers for each request.
type CredentialProvider interface {
	AuthHeaders() map[string]string
	HasAuthentication() bool
}

// RequestOptions carries the method and optional JSON body of a request.
type RequestOptions struct {
	Method string
	Body   []byte
}

// Executor issues authenticated requests against a fixed base URL.
type Executor struct {
	baseURL     string
	credentials CredentialProvider
	httpClient  *http.Client
}

// DefaultHTTPTimeout is used when NewExecutor is given a nil client.
const DefaultHTTPTimeout = 30 * time.Second

// maxErrorBody bounds how much of a failed response body is kept.
const maxErrorBody = 4096

// NewExecutor creates an executor. A nil httpClient gets a client with
// DefaultHTTPTimeout.
func NewExecutor(baseURL string, credentials CredentialProvider, httpClient *http.Client) *Executor {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &Executor{
		baseURL:     strings.TrimRight(baseURL, "/"),
		credentials: credentials,
		httpClient:  httpClient,
	}
}

// BaseURL returns the API root requests are sent to.
func (e *Executor) BaseURL() string { return e.baseURL }

// Execute sends one request and returns the raw JSON body of a 2xx response.
func (e *Executor) Execute(ctx context.Context, endpoint string, opts RequestOptions) (json.RawMessage, error) {
	method := strings.ToUpper(opts.Method)
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if len(opts.Body) > 0 {
		body = bytes.NewReader(opts.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, e.baseURL+endpoint, body)
	if err != nil {
		return nil, &ValidationError{Field: "endpoint", Reason: err.Error()}
	}

	req.Header.Set("Content-Type", "application/json")
	if e.credentials != nil {
		for k, v := range e.credentials.AuthHeaders() {
			if v != "" {
				req.Header.Set(k, v)
			}
		}
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &HTTPError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Status:     statusText(resp),
			Body:       strings.TrimSpace(string(data)),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Endpoint: endpoint, Err: fmt.Errorf("read response body: %w", err)}
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid(data) {
		return nil, &DecodeError{Endpoint: endpoint, Body: string(data)}
	}
	return json.RawMessage(data), nil
}

func statusText(resp *http.Response) string {
	if resp.Status != "" {
		return resp.Status
	}
	return fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}
