package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// MarkRead records an item as read upstream
func (c *Client) MarkRead(ctx context.Context, id string) error {
	body, err := json.Marshal(map[string]any{"read": true})
	if err != nil {
		return fmt.Errorf("failed to marshal update: %w", err)
	}

	reqURL := fmt.Sprintf("%s/items/%s/", c.baseURL, url.PathEscape(id))
	resp, err := c.doRequest(ctx, http.MethodPatch, reqURL, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("update failed with status %d", resp.StatusCode)
	}

	return nil
}
