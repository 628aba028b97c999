// internal/remote/client.go
package remote

import (
	"net/http"
)

// Doer is the only HTTP contract the poller and the dispatcher need.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewHTTPClient returns the shared client used for every remote call.
// Deadlines are carried by request contexts, not by the client.
// Redirects are reported as-is: a 3xx from the service is an unexpected status.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Transport: http.DefaultTransport.(*http.Transport).Clone(),
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
