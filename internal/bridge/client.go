package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"petbridge/internal/protocol"
)

// #region client
// Client is the agent-side view of the bridge. Every call is bounded by the
// HTTP client timeout; callers treat any returned error as "bridge absent,
// retry next tick".
type Client struct {
	base string
	http *http.Client
}

// NewClient targets the bridge at addr (host:port on loopback).
func NewClient(addr string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 400 * time.Millisecond
	}
	return &Client{
		base: "http://" + addr,
		http: &http.Client{Timeout: timeout},
	}
}

// Health reports whether the bridge answers its liveness probe.
func (c *Client) Health(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// FetchCommands drains the bridge queue.
func (c *Client) FetchCommands(ctx context.Context) ([]protocol.Command, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/commands", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch commands: status %d", resp.StatusCode)
	}
	var cmds []protocol.Command
	if err := json.NewDecoder(resp.Body).Decode(&cmds); err != nil {
		return nil, fmt.Errorf("decode commands: %w", err)
	}
	return cmds, nil
}

// PostResults reports the batch outcome, in dispatch order.
func (c *Client) PostResults(ctx context.Context, results []protocol.Result) error {
	return c.post(ctx, "/results", results)
}

// PostContext pushes one snapshot.
func (c *Client) PostContext(ctx context.Context, snap protocol.ContextSnapshot) error {
	return c.post(ctx, "/context", snap)
}

// PostChat forwards an in-world chat line.
func (c *Client) PostChat(ctx context.Context, ev protocol.ChatEvent) error {
	return c.post(ctx, "/chat", ev)
}

func (c *Client) post(ctx context.Context, path string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s: status %d: %s", path, resp.StatusCode, msg)
	}
	return nil
}

// #endregion client
