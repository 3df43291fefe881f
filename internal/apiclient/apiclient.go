package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	internal_errors "github.com/carebridge-dev/carebridge/shared/errors"
)

// TokenSource supplies the bearer credentials attached to every request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource for a token that never changes.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) { return string(t), nil }

// maximum error body kept in ServerError
const maxErrorBody = 4 << 10

// APIClient talks to the directory/transport service.
type APIClient struct {
	BaseURL    string
	HttpClient *http.Client
	tokens     TokenSource
}

// New creates a client. A zero timeout leaves requests bounded only by their context.
func New(baseURL string, timeout time.Duration, tokens TokenSource) *APIClient {
	return &APIClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HttpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
	}
}

// WithTokens returns a client sharing the connection pool that authenticates
// with tokens.
func (c *APIClient) WithTokens(tokens TokenSource) *APIClient {
	return &APIClient{BaseURL: c.BaseURL, HttpClient: c.HttpClient, tokens: tokens}
}

// do is the single, unified helper for making API requests.
func (c *APIClient) do(ctx context.Context, op, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create API request: %w", op, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to get credentials: %w", op, err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.HttpClient.Do(req)
	if err != nil {
		return nil, &internal_errors.NetworkError{Op: op, Err: err}
	}
	return resp, nil
}

// doJSON sends in as a JSON body (when non-nil) and decodes a 2xx response into
// out (when non-nil). Other statuses become a ServerError.
func (c *APIClient) doJSON(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: failed to encode request: %w", op, err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	resp, err := c.do(ctx, op, method, path, body, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeResponse(op, resp, out)
}

func decodeResponse(op string, resp *http.Response, out any) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &internal_errors.ServerError{Op: op, StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: cannot decode response: %w", op, err)
	}
	return nil
}
