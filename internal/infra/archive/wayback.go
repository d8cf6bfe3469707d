package archive

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"
)

const defaultEndpoint = "https://archive.org/wayback/available"

// Client queries the Wayback Machine availability API for an archived copy of
// a URL. Lookup never returns an error: a dead archive service must not take
// a scan down with it, so every failure mode is just "no snapshot".
type Client struct {
	http     *http.Client
	endpoint string
}

func New(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http:     &http.Client{Timeout: timeout},
		endpoint: defaultEndpoint,
	}
}

// NewWithEndpoint is for tests pointing at a local server.
func NewWithEndpoint(endpoint string, timeout time.Duration) *Client {
	c := New(timeout)
	c.endpoint = endpoint
	return c
}

type availabilityResponse struct {
	ArchivedSnapshots struct {
		Closest struct {
			Available bool   `json:"available"`
			URL       string `json:"url"`
		} `json:"closest"`
	} `json:"archived_snapshots"`
}

// Lookup returns the closest available snapshot URL, or ("", false).
func (c *Client) Lookup(ctx context.Context, target string) (string, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.endpoint+"?url="+url.QueryEscape(target), nil)
	if err != nil {
		return "", false
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", false
	}

	var body availabilityResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", false
	}
	closest := body.ArchivedSnapshots.Closest
	if !closest.Available || closest.URL == "" {
		return "", false
	}
	return closest.URL, true
}
