package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/mcao2/careops-triage/internal/triage"
)

// Fetch pulls every item updated within the lookback window, following page
// cursors until the service reports no more pages
func (c *Client) Fetch(ctx context.Context) ([]triage.Item, error) {
	updatedAfter := c.now().Add(-c.lookback).UTC().Format(time.RFC3339)

	var all []triage.Item
	var cursor *string
	pages := 0

	for {
		page, next, err := c.fetchPage(ctx, updatedAfter, cursor)
		if err != nil {
			return nil, err
		}
		pages++

		for _, w := range page {
			all = append(all, w.toItem())
		}
		cursor = next

		if cursor == nil || *cursor == "" {
			break
		}
	}

	c.log.WithField("items", len(all)).WithField("pages", pages).Debug("fetched items")
	return all, nil
}

// fetchPage fetches a single page of results
func (c *Client) fetchPage(ctx context.Context, updatedAfter string, cursor *string) ([]wireItem, *string, error) {
	params := url.Values{}
	params.Set("updatedAfter", updatedAfter)
	if cursor != nil {
		params.Set("pageCursor", *cursor)
	}

	reqURL := fmt.Sprintf("%s/items/?%s", c.baseURL, params.Encode())
	resp, err := c.doRequest(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("API request failed: %d", resp.StatusCode)
	}

	var result listResponse
	if err := decodeJSON(resp.Body, &result); err != nil {
		return nil, nil, fmt.Errorf("failed to decode items: %w", err)
	}

	return result.Results, result.NextPageCursor, nil
}
