// Package fetcher provides the rate-limited, retrying HTTP requester used by
// source adapters, plus readers for XML feeds and ZIP code list files.
package fetcher

import (
	"context"
	"net/http"
	"net/url"
)

// Fetcher performs a single logical network call, including its retries.
type Fetcher interface {
	// Fetch sends req and returns the decoded response. Non-2xx/3xx statuses
	// are returned as errors classified by the resilience package.
	Fetch(ctx context.Context, req Request) (*Response, error)
}

// Request describes an outbound call.
type Request struct {
	Method string
	URL    string
	// Form, when non-nil, is sent as an application/x-www-form-urlencoded body.
	Form   url.Values
	Header http.Header
}

// Response is a fully read response. Body is UTF-8 regardless of the
// charset the server declared.
type Response struct {
	StatusCode  int
	URL         string // final URL after redirects
	ContentType string
	Body        []byte
	Attempts    int
}

// Get builds a GET request for rawURL.
func Get(rawURL string) Request {
	return Request{Method: http.MethodGet, URL: rawURL}
}

// PostForm builds a form POST request for rawURL.
func PostForm(rawURL string, form url.Values) Request {
	return Request{Method: http.MethodPost, URL: rawURL, Form: form}
}
