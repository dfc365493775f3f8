// Package authcode talks to the out-of-band authentication service that
// issues per-join codes. The session relays the code into the room right
// after joining; without it the game server drops the client.
package authcode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrEmptyCode is returned when the service answers 200 with no code.
var ErrEmptyCode = errors.New("authcode: empty code in response")

// Client fetches auth codes over HTTP.
type Client struct {
	http *http.Client
	base string
}

// New creates a client for the service at base, e.g.
// "https://auth.example.com".
func New(base string) *Client {
	return &Client{
		http: &http.Client{Timeout: 10 * time.Second},
		base: strings.TrimRight(base, "/"),
	}
}

// Fetch requests a code for the account. hashedSecret is the derived
// secret, never the plain password. The response body is the code itself.
func (c *Client) Fetch(ctx context.Context, username, hashedSecret string) (string, error) {
	q := url.Values{}
	q.Set("username", username)
	q.Set("password", hashedSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.base+"/auth/requestcode?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("authcode: %w", err)
	}
	req.Header.Set("Accept", "text/plain")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("authcode: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		return "", fmt.Errorf("authcode: read response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("authcode: service returned %s", resp.Status)
	}
	code := strings.TrimSpace(string(body))
	if code == "" {
		return "", ErrEmptyCode
	}
	return code, nil
}
