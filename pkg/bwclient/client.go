// Package bwclient is the JSON-RPC client for the bandwidth daemon, used by
// the CLI and by UI frontends. It speaks plain JSON-RPC 2.0 over HTTP POST;
// consumers that want push notifications use the daemon's WebSocket endpoint
// instead.
package bwclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// DefaultAddr is the daemon's default loopback listen address.
const DefaultAddr = "127.0.0.1:9049"

// Client invokes methods on a running bandwidth daemon.
type Client struct {
	httpc  *http.Client
	url    string
	secret string
	nextID atomic.Int64
}

// NewClient creates a client for the daemon at addr (host:port). The secret
// may be empty when the daemon runs without auth.
func NewClient(addr, secret string) *Client {
	if addr == "" {
		addr = DefaultAddr
	}
	return &Client{
		httpc:  &http.Client{Timeout: 10 * time.Second},
		url:    "http://" + addr + "/rpc",
		secret: secret,
	}
}

type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type response struct {
	Result json.RawMessage `json:"result"`
	Error  *Error          `json:"error"`
}

// Error is a JSON-RPC error returned by the daemon.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

func (c *Client) call(method string, params any) (json.RawMessage, error) {
	body, err := json.Marshal(&request{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to invoke %s: %w", method, err)
	}
	req, err := http.NewRequest(http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to invoke %s: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.secret != "" {
		req.Header.Set("Authorization", "Bearer "+c.secret)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error connecting to daemon: %w", err)
	}
	defer resp.Body.Close()

	var res response
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", method, err)
	}
	if res.Error != nil {
		return nil, res.Error
	}
	if res.Result == nil {
		return nil, errors.New("empty response from daemon")
	}
	return res.Result, nil
}

// invoke calls method and decodes the result into T.
func invoke[T any](c *Client, method string, params any) (*T, error) {
	raw, err := c.call(method, params)
	if err != nil {
		return nil, err
	}
	var d T
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return &d, nil
}
