// Package webapi implements dispatch.Backend against a remote record
// service speaking JSON over HTTP.
package webapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/gyaneshwarpardhi/gridcmd/internal/command"
)

// Client is an HTTP implementation of dispatch.Backend. One attempt per
// call; retries are the caller's problem, per the dispatch contract.
type Client struct {
	base string
	http *http.Client
}

// New creates a Client for the record service at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		base: baseURL,
		http: &http.Client{Timeout: timeout},
	}
}

func (c *Client) CallProcedure(ctx context.Context, target string, params map[string]any) error {
	return c.post(ctx, "/api/procedures/"+url.PathEscape(target), params)
}

func (c *Client) ExecuteBound(ctx context.Context, operation string, record command.RecordRef, params map[string]any) error {
	path := fmt.Sprintf("/api/records/%s/%s/%s",
		url.PathEscape(record.TypeName), url.PathEscape(record.ID), url.PathEscape(operation))
	return c.post(ctx, path, params)
}

func (c *Client) RunQuery(ctx context.Context, query string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/data/"+query, nil)
	if err != nil {
		return err
	}
	return c.do(req)
}

func (c *Client) TriggerWorkflow(ctx context.Context, workflowID string, params map[string]any) error {
	return c.post(ctx, "/api/workflows/"+url.PathEscape(workflowID)+"/runs", params)
}

func (c *Client) post(ctx context.Context, path string, params map[string]any) error {
	if params == nil {
		params = map[string]any{}
	}
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encode params: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) error {
	req.Header.Set("X-Correlation-Id", uuid.New().String())
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, bytes.TrimSpace(msg))
	}
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
