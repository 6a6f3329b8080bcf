// Package client talks to a running readings server over its JSON API.
package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	server "github.com/joeecarter/heart-readings-server"
	"github.com/joeecarter/heart-readings-server/reading"
	"github.com/joeecarter/heart-readings-server/request"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int                  `json:"-"`
	Message    string               `json:"error"`
	Fields     []reading.FieldError `json:"fields,omitempty"`
}

func (err *APIError) Error() string {
	if len(err.Fields) == 0 {
		return fmt.Sprintf("server returned %d: %s", err.StatusCode, err.Message)
	}
	parts := make([]string, len(err.Fields))
	for i, f := range err.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return fmt.Sprintf("server returned %d: %s [ %s ]", err.StatusCode, err.Message, strings.Join(parts, ", "))
}

// Unwrap maps 404 to reading.ErrNotFound, 409 to reading.ErrAlreadyExists and 400 to
// reading.ErrInvalidArgument.
func (err *APIError) Unwrap() error {
	switch err.StatusCode {
	case http.StatusNotFound:
		return reading.ErrNotFound
	case http.StatusConflict:
		return reading.ErrAlreadyExists
	case http.StatusBadRequest:
		return reading.ErrInvalidArgument
	}
	return nil
}

// ListOptions are the list query parameters. Empty values are left to the server defaults.
type ListOptions struct {
	Search    string
	Filter    string
	Field     string
	Direction string
}

type Client struct {
	rest   *resty.Client
	logger *zap.Logger
}

func New(baseURL string, logger *zap.Logger) *Client {
	rest := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(30*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetHeader("Accept", "application/json")

	return &Client{rest: rest, logger: logger}
}

func (c *Client) List(ctx context.Context, opts ListOptions) (*server.ListResponse, error) {
	req := c.rest.R().SetContext(ctx)
	for name, value := range map[string]string{
		"q":      opts.Search,
		"filter": opts.Filter,
		"sort":   opts.Field,
		"dir":    opts.Direction,
	} {
		if value != "" {
			req.SetQueryParam(name, value)
		}
	}

	var result server.ListResponse
	if err := c.send(req.SetResult(&result), http.MethodGet, "/api/readings"); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Get(ctx context.Context, id string) (*server.ReadingView, error) {
	var result server.ReadingView
	req := c.rest.R().SetContext(ctx).SetPathParam("id", id).SetResult(&result)
	if err := c.send(req, http.MethodGet, "/api/readings/{id}"); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Create(ctx context.Context, r *reading.Reading) (*server.ReadingView, error) {
	var result server.ReadingView
	req := c.rest.R().SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(request.FromReading(r)).
		SetResult(&result)
	if err := c.send(req, http.MethodPost, "/api/readings"); err != nil {
		return nil, err
	}
	return &result, nil
}

// Upload posts an export to the import endpoint and returns the server's acknowledgement.
func (c *Client) Upload(ctx context.Context, export *request.Export) (string, error) {
	resp, err := c.rest.R().SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(export).
		Post("/upload")
	if err != nil {
		return "", fmt.Errorf("failed to upload export: %w", err)
	}
	body := strings.TrimSpace(resp.String())
	if resp.IsError() {
		return "", &APIError{StatusCode: resp.StatusCode(), Message: strings.TrimPrefix(body, "ERROR: ")}
	}

	c.logger.Debug("Uploaded export", zap.Int("readings", export.TotalReadings()))
	return body, nil
}

func (c *Client) send(req *resty.Request, method, path string) error {
	apiErr := &APIError{}
	resp, err := req.SetError(apiErr).Execute(method, path)
	if err != nil {
		c.logger.Error("Readings API call failed", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}
	if resp.IsError() {
		apiErr.StatusCode = resp.StatusCode()
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode())
		}
		return apiErr
	}
	return nil
}
