package caldav

import (
	"context"
	"net/http"
	"strings"
)

// FetchCollection retrieves a collection's aggregate iCalendar text. Any
// status other than 200, and any transport failure, yields an empty string;
// the read path treats such collections as contributing zero events.
func (c *Client) FetchCollection(ctx context.Context, collectionURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, collectionURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("collection fetch returned non-200", "url", collectionURL, "status", resp.StatusCode)
		return "", nil
	}

	return drainCalendar(resp), nil
}

// PutEvent uploads one iCalendar document to eventURL. 200 and 201 are both
// success (Radicale answers 201 for new resources); anything else fails with
// the status and body attached for diagnostics.
func (c *Client) PutEvent(ctx context.Context, eventURL, icalText string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, eventURL, strings.NewReader(icalText))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/calendar; charset=utf-8")
	req.Header.Set("User-Agent", "TownCal Calendar Submissions")

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return &StatusError{Method: http.MethodPut, URL: eventURL, StatusCode: resp.StatusCode, Body: drainBody(resp)}
	}

	c.logger.Info("uploaded calendar event", "url", eventURL, "status", resp.StatusCode)
	return nil
}
