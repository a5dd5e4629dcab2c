package apiclient

import (
	"net/http"
)

// AuthPath is where unauthorized clients are sent.
const AuthPath = "/auth"

// Navigator moves the client to another view.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a plain function to a Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

type errorInterceptor struct {
	next http.RoundTripper
	nav  Navigator
}

// NewErrorInterceptor returns a RoundTripper that navigates to AuthPath whenever a response comes back
// with 401 Unauthorized. The response itself is returned untouched so callers still see the failure.
func NewErrorInterceptor(next http.RoundTripper, nav Navigator) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &errorInterceptor{next: next, nav: nav}
}

func (i *errorInterceptor) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := i.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized && i.nav != nil {
		i.nav.Navigate(AuthPath)
	}
	return resp, nil
}
