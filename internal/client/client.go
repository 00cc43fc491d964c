package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	constants "smanager/config"
	"smanager/internal/metrics"
)

var (
	ErrUnauthorized = errors.New("unauthorized: check auth.token")
	ErrNotReady     = errors.New("metrics not ready")
)

// Client talks to a running gateway
type Client struct {
	base  url.URL
	token string
	http  *http.Client
}

// New creates a client for addr (host:port). A bind-all host such as
// ":25566" is dialled on the loopback interface.
func New(addr, token string) *Client {
	if strings.HasPrefix(addr, ":") {
		addr = "127.0.0.1" + addr
	}
	return &Client{
		base:  url.URL{Scheme: "http", Host: addr},
		token: token,
		http:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	u := c.base
	u.Path = path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach %s: %w", c.base.Host, err)
	}
	return resp, nil
}

func statusError(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusServiceUnavailable:
		return ErrNotReady
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
	return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}

// Snapshot pulls the latest snapshot
func (c *Client) Snapshot(ctx context.Context) (*metrics.Snapshot, error) {
	resp, err := c.get(ctx, constants.ROUTE_METRICS)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := statusError(resp); err != nil {
		return nil, err
	}

	var snap metrics.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snap, nil
}

// WaitSnapshot polls until the gateway has a snapshot or ctx ends
func (c *Client) WaitSnapshot(ctx context.Context, every time.Duration) (*metrics.Snapshot, error) {
	for {
		snap, err := c.Snapshot(ctx)
		if !errors.Is(err, ErrNotReady) {
			return snap, err
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("gave up waiting: %w", ErrNotReady)
		case <-time.After(every):
		}
	}
}

// Health checks the liveness endpoint
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.get(ctx, constants.ROUTE_HEALTH)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return statusError(resp)
}

// Subscription is one open push stream
type Subscription struct {
	conn *websocket.Conn
}

// Subscribe opens the push stream. The token travels as a query parameter
// because that is the only credential the handshake accepts.
func (c *Client) Subscribe(ctx context.Context) (*Subscription, error) {
	u := c.base
	u.Scheme = "ws"
	u.Path = constants.ROUTE_PUSH
	if c.token != "" {
		u.RawQuery = url.Values{"token": {c.token}}.Encode()
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to subscribe to %s: %w", c.base.Host, err)
	}
	return &Subscription{conn: conn}, nil
}

// Next blocks for the next pushed snapshot
func (s *Subscription) Next() (*metrics.Snapshot, error) {
	_, data, err := s.conn.ReadMessage()
	if err != nil {
		return nil, err
	}

	var snap metrics.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}
	return &snap, nil
}

// Close sends a close frame and drops the connection
func (s *Subscription) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return s.conn.Close()
}
