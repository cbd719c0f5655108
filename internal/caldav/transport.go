package caldav

import "net/http"

// basicAuthTransport adds basic-auth credentials to every outgoing request
// before delegating to the underlying transport.
type basicAuthTransport struct {
	username  string
	password  string
	transport http.RoundTripper
}

func newBasicAuthTransport(username, password string, transport http.RoundTripper) *basicAuthTransport {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &basicAuthTransport{username: username, password: password, transport: transport}
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.username, t.password)
	return t.transport.RoundTrip(req)
}
