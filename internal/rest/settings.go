package rest

import (
	"context"
	"encoding/json"
	"net/http"
)

// FetchSettings pulls the app settings blob the backend publishes. The
// daemon caches it in the profile store so screens keep their last known
// settings across restarts.
func (c *Client) FetchSettings(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/settings", nil, "", &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
