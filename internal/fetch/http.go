package fetch

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultUserAgent is sent when Options.UserAgent is empty; the exchange
// rejects clients it does not recognise as a browser.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/85.0.4183.121 Safari/537.36"

// HTTPClient is the plain HTTP Fetcher. It is safe for concurrent use.
type HTTPClient struct {
	http *resty.Client
}

// NewHTTPClient returns a client that sends the configured User-Agent and
// headers on every request and gives up after opts.Timeout seconds.
func NewHTTPClient(opts Options) *HTTPClient {
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	client := resty.New()
	client.SetHeaders(opts.Headers)
	client.SetHeader("User-Agent", userAgent)
	if opts.Timeout > 0 {
		client.SetTimeout(time.Duration(opts.Timeout) * time.Second)
	}

	if opts.Logf != nil {
		client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
			opts.Logf("%s %s -> %d (%v)", res.Request.Method, res.Request.URL, res.StatusCode(), res.Time().Round(time.Millisecond))
			return nil
		})
	}

	return &HTTPClient{http: client}
}

// Do executes req and returns the response body. Transport failures and
// statuses outside 2xx are returned as *NetworkError.
func (c *HTTPClient) Do(ctx context.Context, req Request) ([]byte, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	r := c.http.R().
		SetContext(ctx).
		SetHeaders(req.Headers)
	if req.Form != nil {
		r.SetFormDataFromValues(req.Form)
	}

	res, err := r.Execute(method, req.URL)
	if err != nil {
		return nil, &NetworkError{Method: method, URL: req.URL, Err: err}
	}
	if !success(res.StatusCode()) {
		return nil, &NetworkError{
			Method:     method,
			URL:        req.URL,
			StatusCode: res.StatusCode(),
			Err:        errors.New(res.Status()),
		}
	}

	return res.Body(), nil
}
