// Package fetch issues the GET and form POST requests the scraper needs.
// Every request carries a browser-like User-Agent, and every failure,
// transport or status, is reported as a *NetworkError.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Request describes one call. Form, when set, is sent form-encoded.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Form    url.Values
}

// Fetcher returns the body of a successful response.
type Fetcher interface {
	Do(ctx context.Context, req Request) ([]byte, error)
}

// Get is shorthand for a bodiless GET.
func Get(ctx context.Context, f Fetcher, link string) ([]byte, error) {
	return f.Do(ctx, Request{Method: http.MethodGet, URL: link})
}

// PostForm is shorthand for a form-encoded POST.
func PostForm(ctx context.Context, f Fetcher, link string, form url.Values) ([]byte, error) {
	return f.Do(ctx, Request{Method: http.MethodPost, URL: link, Form: form})
}

// Options is the immutable client configuration shared by all fetchers.
type Options struct {
	UserAgent string
	Headers   map[string]string
	// Timeout in seconds for a single request.
	Timeout int
	// Logf, when set, receives one debug line per completed request.
	Logf func(format string, args ...interface{})
}

// NetworkError is returned for transport failures and non-2xx responses.
// StatusCode is zero when no response was received.
type NetworkError struct {
	Method     string
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Method, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func success(status int) bool {
	return status >= 200 && status < 300
}
