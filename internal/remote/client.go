package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// RemoteError is returned whenever the data service answers with a non-2xx
// status. It carries the status code and the raw body text so callers can log
// diagnostics without showing them to end users.
type RemoteError struct {
	Status int
	Body   string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("data service returned status %d: %s", e.Status, e.Body)
}

// Client is a thin JSON-over-HTTP client for the REST data service. One
// attempt per call: no retries, no timeout; cancellation comes from the
// request context.
type Client struct {
	rc     *resty.Client
	logger zerolog.Logger
}

func New(baseURL string, logger zerolog.Logger) *Client {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json")
	return &Client{
		rc:     rc,
		logger: logger.With().Str("component", "remote").Logger(),
	}
}

// Do issues a single request and returns the raw JSON body. A "no content"
// response (204 or empty body) yields nil rather than a decode attempt.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body interface{}) (json.RawMessage, error) {
	req := c.rc.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParamsFromValues(query)
	}
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("calling data service: %w", err)
	}
	if !resp.IsSuccess() {
		c.logger.Error().
			Int("status", resp.StatusCode()).
			Str("method", method).
			Str("path", path).
			Msg("Data service returned an error")
		return nil, &RemoteError{Status: resp.StatusCode(), Body: resp.String()}
	}
	if resp.StatusCode() == http.StatusNoContent || len(resp.Body()) == 0 {
		return nil, nil
	}
	return json.RawMessage(resp.Body()), nil
}

// Get decodes a GET response into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	raw, err := c.Do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	return decode(raw, out)
}

// Post creates a resource and decodes the echoed document into out.
func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	raw, err := c.Do(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		return err
	}
	return decode(raw, out)
}

// Put replaces a resource and decodes the echoed document into out.
func (c *Client) Put(ctx context.Context, path string, body, out interface{}) error {
	raw, err := c.Do(ctx, http.MethodPut, path, nil, body)
	if err != nil {
		return err
	}
	return decode(raw, out)
}

// Delete removes a resource. The data service answers 204 with no body.
func (c *Client) Delete(ctx context.Context, path string) error {
	_, err := c.Do(ctx, http.MethodDelete, path, nil, nil)
	return err
}

func decode(raw json.RawMessage, out interface{}) error {
	if out == nil || raw == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding data service response: %w", err)
	}
	return nil
}
