// Package netx holds the HTTP plumbing used by the remote client.
package netx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"golang.org/x/net/publicsuffix"
)

// maxBodySize caps how much of a response is read (8MB).
const maxBodySize = 8 << 20

// NewClient returns an HTTP client with a cookie jar. The search servlet keeps
// the query in a session, so the cookie from the begin call must be replayed
// on page requests.
func NewClient(timeout time.Duration) (*http.Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	return &http.Client{Jar: jar, Timeout: timeout}, nil
}

// GetJSON issues a GET to url and decodes the JSON body into out.
func GetJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if len(body) > maxBodySize {
		return fmt.Errorf("response exceeds maximum size of %d bytes", maxBodySize)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request failed: %s; body: %s", resp.Status, truncate(body, 256))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
