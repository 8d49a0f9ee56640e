// Package scrape is the client side of the external scraper service. The
// scraper itself (browser automation) runs elsewhere; this client only asks
// it for the content behind a locator.
package scrape

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"tweetvault/internal/model"
	"tweetvault/internal/retry"
)

// Client fetches tweet payloads from the scraper service.
type Client struct {
	http    *resty.Client
	baseURL string
	policy  retry.Policy
}

func NewClient(httpClient *resty.Client, baseURL string, policy retry.Policy) *Client {
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		policy:  policy,
	}
}

// Fetch returns the content behind the locator, or nil when the scraper
// reports the content gone. A nil result is not an error to this client;
// the pipeline decides what a missing payload means.
func (c *Client) Fetch(ctx context.Context, locator string) (*model.TweetData, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("scraper url not configured")
	}

	var payload model.TweetData
	notFound := false

	err := c.policy.Do(ctx, func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParam("url", locator).
			SetHeader("Accept", "application/json").
			SetResult(&payload).
			Get(c.baseURL + "/scrape")
		if err != nil {
			return err
		}
		if resp.StatusCode() == 404 || resp.StatusCode() == 410 {
			notFound = true
			return nil
		}
		if !resp.IsSuccess() {
			return fmt.Errorf("scraper status %d", resp.StatusCode())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if notFound || payload.Content == "" {
		return nil, nil
	}

	if payload.URL == "" {
		payload.URL = locator
	}
	if payload.TweetID == "" {
		if idx := strings.LastIndex(locator, "/"); idx >= 0 {
			payload.TweetID = locator[idx+1:]
		}
	}
	return &payload, nil
}
