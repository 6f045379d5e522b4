// Package utils holds small shared plumbing: typed HTTP JSON helpers and
// string truncation used across the provider clients.
package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// DoPostSync performs a synchronous HTTP POST with a JSON body and decodes
// the JSON response into OutputStruct.
//
// Error handling strategy:
//   - Context errors (timeout, cancellation) are propagated immediately
//   - HTTP errors (connection failures, non-2xx status) return the error
//   - Response body close errors are logged but never override the primary error
//   - JSON parsing errors include a response preview for debugging
//
// When apiKey is non-empty it is sent as a Bearer token.
func DoPostSync[OutputStruct any](ctx context.Context, client *http.Client, requestURL, apiKey string, body any) (*OutputStruct, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("error marshaling body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	return doJSON[OutputStruct](client, req)
}

// DoGetSync performs a synchronous HTTP GET with query parameters and
// optional headers, decoding the JSON response into OutputStruct. Search
// APIs authenticate via query parameter or custom header rather than a
// Bearer token, so headers are passed through verbatim.
func DoGetSync[OutputStruct any](ctx context.Context, client *http.Client, requestURL string, params url.Values, headers map[string]string) (*OutputStruct, error) {
	fullURL := requestURL
	if len(params) > 0 {
		fullURL = requestURL + "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return doJSON[OutputStruct](client, req)
}

// doJSON executes the request and decodes a JSON response body, applying
// the shared status-code and cleanup discipline.
func doJSON[OutputStruct any](client *http.Client, req *http.Request) (*OutputStruct, error) {
	httpClient := client
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	requestStart := time.Now()
	res, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer func(body io.ReadCloser) {
		if closeErr := body.Close(); closeErr != nil {
			// The primary error takes precedence; closing failures are only logged.
			slog.Warn("failed to close response body", "error", closeErr.Error(), "url", req.URL.String())
		}
	}(res.Body)

	respBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	slog.Debug("http request completed",
		"method", req.Method,
		"url", req.URL.Redacted(),
		"status", res.StatusCode,
		"duration", time.Since(requestStart),
		"body_size", len(respBody),
	)

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, fmt.Errorf("non-2xx status %d: %s", res.StatusCode, TruncateString(string(respBody), 500))
	}

	var resStruct OutputStruct
	if err = json.Unmarshal(respBody, &resStruct); err != nil {
		return nil, fmt.Errorf("error unmarshaling response body (status %d): %w\nResponse preview: %s", res.StatusCode, err, TruncateString(string(respBody), 500))
	}

	return &resStruct, nil
}
