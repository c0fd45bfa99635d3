// Package client talks to the QA service over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sozercan/qa-mole/apimodels"
)

const (
	ExamplePath = "/api/load_example"
	PredictPath = "/predict"
	HealthPath  = "/health"
	HistoryPath = "/api/history"
)

// ErrInvalidResponse is returned when the server answers 2xx but the body
// does not report success.
var ErrInvalidResponse = errors.New("Invalid response from server")

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// LoadExample fetches one example payload. A non-2xx answer is reported as
// "HTTP <code>: <status text>" whatever the body says.
func (c *Client) LoadExample(ctx context.Context) (*apimodels.ExampleResponse, error) {
	var out apimodels.ExampleResponse
	if err := c.do(ctx, http.MethodGet, ExamplePath, nil, nil, &out); err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			return nil, &StatusError{Code: statusErr.Code}
		}
		return nil, err
	}
	if out.Status != apimodels.StatusSuccess {
		return nil, ErrInvalidResponse
	}
	return &out, nil
}

func (c *Client) Predict(ctx context.Context, passage, question string) (*apimodels.PredictResponse, error) {
	body, err := json.Marshal(apimodels.PredictRequest{Context: passage, Question: question})
	if err != nil {
		return nil, err
	}

	var out apimodels.PredictResponse
	if err := c.do(ctx, http.MethodPost, PredictPath, nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Health(ctx context.Context) (*apimodels.HealthResponse, error) {
	var out apimodels.HealthResponse
	if err := c.do(ctx, http.MethodGet, HealthPath, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// History lists the most recent answers, newest first. A limit below one
// leaves the server default.
func (c *Client) History(ctx context.Context, limit int) ([]apimodels.HistoryEntry, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var out []apimodels.HistoryEntry
	if err := c.do(ctx, http.MethodGet, HistoryPath, query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// StatusError is a non-2xx answer. Message carries the server's error text
// when the body had one.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("HTTP %d: %s", e.Code, http.StatusText(e.Code))
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte, out any) error {
	endpoint, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return fmt.Errorf("build url: %w", err)
	}
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	slog.Debug("Sending request", "method", method, "url", endpoint)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apimodels.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return &StatusError{Code: resp.StatusCode, Message: apiErr.Error}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
