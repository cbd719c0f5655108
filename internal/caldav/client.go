// Package caldav is the protocol client for the Radicale server: collection
// discovery and provisioning, raw calendar retrieval, and event upload.
package caldav

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/towncal/internal/metrics"
)

// requestTimeout bounds every CalDAV call; a hung server must not hang the
// publish or read path.
const requestTimeout = 10 * time.Second

// StatusError reports an unexpected HTTP status from the CalDAV server,
// keeping the response body for diagnostics.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// Client talks to one CalDAV server with fixed basic-auth credentials.
type Client struct {
	httpClient *http.Client
	serverURL  string
	username   string
	logger     *slog.Logger
}

// NewClient builds a client for the server at serverURL. Credentials are
// attached to every request by the underlying transport.
func NewClient(serverURL, username, password string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		httpClient: &http.Client{
			Timeout:   requestTimeout,
			Transport: newBasicAuthTransport(username, password, nil),
		},
		serverURL: strings.TrimRight(serverURL, "/"),
		username:  username,
		logger:    logger,
	}
}

// ServerURL returns the configured server base URL without trailing slash.
func (c *Client) ServerURL() string { return c.serverURL }

// CollectionURL returns the URL of a named collection under the configured
// user, with the trailing slash Radicale expects.
func (c *Client) CollectionURL(name string) string {
	return fmt.Sprintf("%s/%s/%s/", c.serverURL, c.username, name)
}

// EventResourceName builds the .ics resource name for one publish attempt.
// The timestamp makes each attempt a distinct resource; re-publishing a
// submission adds a new resource rather than overwriting.
func EventResourceName(submissionID int64, t time.Time) string {
	return fmt.Sprintf("event-%d-%s.ics", submissionID, t.Format("20060102150405"))
}

// do executes the request and records its latency under the request method.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.ObserveCalDAVRequest(req.Method, time.Since(start))
	return resp, err
}

// drainCalendar reads a full calendar body.
func drainCalendar(resp *http.Response) string {
	if resp.Body == nil {
		return ""
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return ""
	}
	return string(b)
}

// drainBody reads a bounded prefix of an error response for diagnostics.
func drainBody(resp *http.Response) string {
	if resp.Body == nil {
		return ""
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
	if err != nil {
		return ""
	}
	return string(b)
}
