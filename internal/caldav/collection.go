package caldav

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

const mkcolBody = `<?xml version="1.0" encoding="utf-8" ?>` +
	`<D:mkcol xmlns:D="DAV:" xmlns:C="urn:ietf:params:xml:ns:caldav">` +
	`<D:set><D:prop>` +
	`<D:resourcetype><D:collection/><C:calendar/></D:resourcetype>` +
	`<D:displayname>TownCal Submissions</D:displayname>` +
	`<C:supported-calendar-component-set>` +
	`<C:comp name="VEVENT"/>` +
	`</C:supported-calendar-component-set>` +
	`</D:prop></D:set>` +
	`</D:mkcol>`

// EnsureCollection checks that the collection exists (PROPFIND Depth 0) and
// creates it with MKCOL when the server answers 404. Safe to call
// repeatedly; any MKCOL outcome other than 201 is a hard failure since the
// collection is a precondition for publishing.
func (c *Client) EnsureCollection(ctx context.Context, collectionURL string) error {
	req, err := http.NewRequestWithContext(ctx, "PROPFIND", collectionURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Depth", "0")
	req.Header.Set("Content-Type", "application/xml; charset=utf-8")

	resp, err := c.do(req)
	if err != nil {
		return fmt.Errorf("collection check: %w", err)
	}
	drainBody(resp)
	resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		// Exists (207/200) or something we cannot fix with MKCOL; PUT will
		// surface the latter.
		return nil
	}

	c.logger.Info("calendar collection missing, creating it", "url", collectionURL)

	mkcol, err := http.NewRequestWithContext(ctx, "MKCOL", collectionURL, strings.NewReader(mkcolBody))
	if err != nil {
		return err
	}
	mkcol.Header.Set("Content-Type", "application/xml; charset=utf-8")

	created, err := c.do(mkcol)
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	defer created.Body.Close()

	if created.StatusCode != http.StatusCreated {
		return &StatusError{Method: "MKCOL", URL: collectionURL, StatusCode: created.StatusCode, Body: drainBody(created)}
	}

	c.logger.Info("created calendar collection", "url", collectionURL)
	return nil
}
