// Package client provides a Go client for a remote invoiceflow server.
//
// Usage:
//
//	c := client.New("http://localhost:8080")
//
//	// Start a run and inspect the outcome.
//	r, err := c.Start(ctx, "invoice_good.png")
//
//	// Deliver a reviewer decision to a suspended run.
//	r, err = c.Decide(ctx, r.RunID, invoice.Decision{
//	    Action: invoice.ActionApprove,
//	    Note:   "numbers check out",
//	})
//
// Server-side failures surface as [*Error] values carrying the HTTP
// status code; 400 responses match [invoiceflow.ErrValidation] and 404
// responses match [invoiceflow.ErrRunNotFound] under errors.Is.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/xraph/invoiceflow"
	"github.com/xraph/invoiceflow/invoice"
)

// Client talks to a remote invoiceflow HTTP API.
type Client struct {
	baseURL string
	httpc   *http.Client
	logger  *slog.Logger
}

// New creates a Client for the server at baseURL (scheme and host,
// without the /v1 prefix).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   http.DefaultClient,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ── Operations ───────────────────────────────────────

// Start submits a document and runs the pipeline. The returned Run is
// either terminal or suspended awaiting review.
func (c *Client) Start(ctx context.Context, documentRef string) (*Run, error) {
	return c.do(ctx, http.MethodPost, "/v1/runs", startRequest{DocumentRef: documentRef})
}

// Get fetches the current state of a run.
func (c *Client) Get(ctx context.Context, runID string) (*Run, error) {
	return c.do(ctx, http.MethodGet, "/v1/runs/"+url.PathEscape(runID), nil)
}

// List returns runs matching opts, most recently updated first.
func (c *Client) List(ctx context.Context, opts ListOpts) ([]*Run, error) {
	q := url.Values{}
	if opts.Suspended != nil {
		q.Set("suspended", strconv.FormatBool(*opts.Suspended))
	}
	if opts.Status != "" {
		q.Set("status", opts.Status)
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}

	path := "/v1/runs"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	resp, err := c.roundTrip(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var runs []*Run
	if err := json.NewDecoder(resp.Body).Decode(&runs); err != nil {
		return nil, fmt.Errorf("invoiceflow/client: decode response: %w", err)
	}
	return runs, nil
}

// Decide delivers a reviewer decision to a suspended run and returns
// the run after it has resumed to completion.
func (c *Client) Decide(ctx context.Context, runID string, dec invoice.Decision) (*Run, error) {
	return c.do(ctx, http.MethodPost, "/v1/runs/"+url.PathEscape(runID)+"/decision",
		decisionRequest{Action: string(dec.Action), Note: dec.Note})
}

// Cancel cancels a suspended run.
func (c *Client) Cancel(ctx context.Context, runID string) (*Run, error) {
	return c.do(ctx, http.MethodPost, "/v1/runs/"+url.PathEscape(runID)+"/cancel", nil)
}

// ── Internals ────────────────────────────────────────

type startRequest struct {
	DocumentRef string `json:"document_ref"`
}

type decisionRequest struct {
	Action string `json:"action"`
	Note   string `json:"note,omitempty"`
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*Run, error) {
	resp, err := c.roundTrip(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var r Run
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("invoiceflow/client: decode response: %w", err)
	}
	return &r, nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var buf io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("invoiceflow/client: marshal request: %w", err)
		}
		buf = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, buf)
	if err != nil {
		return nil, fmt.Errorf("invoiceflow/client: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("invoiceflow/client: %s %s: %w", method, path, err)
	}
	c.logger.Debug("request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
	)
	return resp, nil
}

// checkStatus converts non-2xx responses into *Error values. The
// response body is consumed for its error message.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	apiErr := &Error{StatusCode: resp.StatusCode}

	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		apiErr.Message = body.Error
	} else {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}

	return apiErr
}

// Error is a non-2xx response from the server.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invoiceflow/client: server returned %d: %s", e.StatusCode, e.Message)
}

// Is maps well-known status codes onto the package sentinel errors so
// callers can use errors.Is without inspecting status codes. Conflict
// responses (409) cover several states and are matched by errors.As on
// *Error instead.
func (e *Error) Is(target error) bool {
	switch target {
	case invoiceflow.ErrValidation:
		return e.StatusCode == http.StatusBadRequest
	case invoiceflow.ErrRunNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}
