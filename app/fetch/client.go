package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
	DefaultTimeout   = 30 * time.Second
	DefaultDelay     = time.Second

	maxBodySize = 10 << 20
)

// Error describes a failed fetch. StatusCode is zero for transport errors.
type Error struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Client issues throttled GET requests. Every request waits on the shared
// limiter before it is sent.
type Client struct {
	httpClient *http.Client
	limiter    Limiter
	userAgent  string
	timeout    time.Duration
}

func NewClient(httpClient *http.Client, limiter Limiter, userAgent string, timeout time.Duration) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if limiter == nil {
		limiter = NewIntervalLimiter(0)
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		httpClient: httpClient,
		limiter:    limiter,
		userAgent:  userAgent,
		timeout:    timeout,
	}
}

// Get fetches rawURL, following redirects, and returns the response body.
// Non-2xx responses are returned as *Error.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	target, err := normalizeURL(rawURL)
	if err != nil {
		return nil, &Error{URL: rawURL, Err: err}
	}

	if err := c.limiter.Wait(ctx, target); err != nil {
		return nil, &Error{URL: rawURL, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &Error{URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)

	slog.Debug("Fetching URL", "url", target)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &Error{URL: rawURL, Err: fmt.Errorf("failed to read body: %w", err)}
	}

	return body, nil
}

// normalizeURL escapes characters a substituted query may have left raw.
func normalizeURL(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}
	u.RawQuery = strings.ReplaceAll(u.RawQuery, " ", "+")
	return u.String(), nil
}
