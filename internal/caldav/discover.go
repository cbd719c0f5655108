package caldav

import (
	"context"
	"net/http"
	"strings"

	"github.com/beevik/etree"
)

const (
	nsDAV    = "DAV:"
	nsCalDAV = "urn:ietf:params:xml:ns:caldav"
)

const discoverBody = `<?xml version="1.0" encoding="utf-8" ?>
<D:propfind xmlns:D="DAV:" xmlns:C="urn:ietf:params:xml:ns:caldav">
  <D:prop>
    <D:resourcetype/>
    <D:displayname/>
    <C:supported-calendar-component-set/>
  </D:prop>
</D:propfind>`

// DiscoverCollections lists the calendar collections under the configured
// user's home via PROPFIND Depth 1. Only multistatus responses whose
// resourcetype carries the CalDAV calendar marker are kept; the home
// container itself is skipped. Returned URLs are absolute.
func (c *Client) DiscoverCollections(ctx context.Context) ([]string, error) {
	homeURL := c.serverURL + "/" + c.username + "/"

	req, err := http.NewRequestWithContext(ctx, "PROPFIND", homeURL, strings.NewReader(discoverBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/xml")
	req.Header.Set("Depth", "1")

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusMultiStatus {
		return nil, &StatusError{Method: "PROPFIND", URL: homeURL, StatusCode: resp.StatusCode, Body: drainBody(resp)}
	}

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(resp.Body); err != nil {
		return nil, err
	}

	collections := c.parseMultistatus(doc)
	c.logger.Info("discovered calendar collections", "count", len(collections))
	return collections, nil
}

// parseMultistatus walks the PROPFIND response tree, namespace-aware, and
// collects hrefs whose resourcetype contains a calendar element.
func (c *Client) parseMultistatus(doc *etree.Document) []string {
	root := doc.Root()
	if root == nil || !isElem(root, nsDAV, "multistatus") {
		return nil
	}

	homePath := "/" + c.username + "/"
	var collections []string

	for _, response := range childElems(root, nsDAV, "response") {
		href := ""
		if el := firstChild(response, nsDAV, "href"); el != nil {
			href = strings.TrimSpace(el.Text())
		}
		if href == "" {
			continue
		}
		// Skip the home container entry; it is not a calendar itself.
		if href == homePath {
			continue
		}

		if responseIsCalendar(response) {
			collections = append(collections, c.serverURL+href)
		} else {
			c.logger.Debug("skipping non-calendar resource", "href", href)
		}
	}

	return collections
}

func responseIsCalendar(response *etree.Element) bool {
	for _, propstat := range childElems(response, nsDAV, "propstat") {
		for _, prop := range childElems(propstat, nsDAV, "prop") {
			for _, rtype := range childElems(prop, nsDAV, "resourcetype") {
				if firstChild(rtype, nsCalDAV, "calendar") != nil {
					return true
				}
			}
		}
	}
	return false
}

func isElem(el *etree.Element, space, local string) bool {
	return el.Tag == local && el.NamespaceURI() == space
}

func childElems(parent *etree.Element, space, local string) []*etree.Element {
	var out []*etree.Element
	for _, child := range parent.ChildElements() {
		if isElem(child, space, local) {
			out = append(out, child)
		}
	}
	return out
}

func firstChild(parent *etree.Element, space, local string) *etree.Element {
	for _, child := range parent.ChildElements() {
		if isElem(child, space, local) {
			return child
		}
	}
	return nil
}
