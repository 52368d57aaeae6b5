package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/stitchline/stitchline-erp/internal/realtime"
)

// WatchMappings follows the governance mapping feed and calls onEvent for every event until ctx
// ends or the connection drops.
func (c *Client) WatchMappings(ctx context.Context, onEvent func(realtime.Event)) error {
	return c.watchAt(ctx, c.baseURL+"/hr/mappings/ws", onEvent)
}

func (c *Client) watchAt(ctx context.Context, endpoint string, onEvent func(realtime.Event)) error {
	target, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("client: feed url: %w", err)
	}
	switch strings.ToLower(target.Scheme) {
	case "https":
		target.Scheme = "wss"
	default:
		target.Scheme = "ws"
	}
	target.RawQuery = url.Values{"token": {c.Token()}}.Encode()

	dialer := websocket.Dialer{HandshakeTimeout: c.http.Timeout}
	conn, resp, err := dialer.DialContext(ctx, target.String(), nil)
	if err != nil {
		if resp != nil && resp.StatusCode == 401 {
			return &APIError{Status: resp.StatusCode, Message: "mapping feed rejected the session"}
		}
		return fmt.Errorf("%w: dial mapping feed: %v", ErrTransport, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: read mapping feed: %v", ErrTransport, err)
		}
		var event realtime.Event
		if err := json.Unmarshal(data, &event); err != nil {
			continue
		}
		onEvent(event)
	}
}
