package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

type BrowserOptions struct {
	Headless bool
	Debug    bool
}

// BrowserClient is a Fetcher backed by a headless Chrome. Each request runs
// in its own tab, so the client is safe for concurrent use.
type BrowserClient struct {
	ctx       context.Context
	cancel    context.CancelFunc
	userAgent string
	headers   map[string]string
	timeout   time.Duration
}

func NewBrowserClient(parent context.Context, opts Options, browser BrowserOptions) (*BrowserClient, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.NoSandbox,
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("headless", browser.Headless),
		chromedp.Flag("enable-logging", browser.Debug),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, allocOpts...)

	var ctxOpts []chromedp.ContextOption
	if opts.Logf != nil {
		ctxOpts = append(ctxOpts, chromedp.WithLogf(opts.Logf))
	}
	ctx, cancel := chromedp.NewContext(allocCtx, ctxOpts...)

	b := &BrowserClient{
		ctx: ctx,
		cancel: func() {
			cancel()
			allocCancel()
		},
		userAgent: opts.UserAgent,
		headers:   opts.Headers,
		timeout:   time.Duration(opts.Timeout) * time.Second,
	}
	if b.userAgent == "" {
		b.userAgent = DefaultUserAgent
	}

	if err := b.Ping(); err != nil {
		b.cancel()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	return b, nil
}

// Ping checks that the browser is alive.
func (b *BrowserClient) Ping() error {
	ctx, cancel := context.WithTimeout(b.ctx, 10*time.Second)
	defer cancel()

	return chromedp.Run(ctx, chromedp.Navigate("about:blank"))
}

func (b *BrowserClient) Do(ctx context.Context, req Request) ([]byte, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	tabCtx, cancelTab := chromedp.NewContext(b.ctx)
	defer cancelTab()
	if b.timeout > 0 {
		var cancelTimeout context.CancelFunc
		tabCtx, cancelTimeout = context.WithTimeout(tabCtx, b.timeout)
		defer cancelTimeout()
	}
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	var (
		body []byte
		err  error
	)
	err = chromedp.Run(tabCtx, b.setupTab(req.Headers))
	if err == nil {
		switch method {
		case http.MethodGet:
			body, err = b.navigate(tabCtx, req.URL)
		case http.MethodPost:
			body, err = b.submit(tabCtx, req.URL, req.Form)
		default:
			err = fmt.Errorf("unsupported method %s", method)
		}
	}
	if err != nil {
		var netErr *NetworkError
		if errors.As(err, &netErr) {
			netErr.Method = method
			return nil, netErr
		}
		return nil, &NetworkError{Method: method, URL: req.URL, Err: err}
	}
	return body, nil
}

func (b *BrowserClient) setupTab(extra map[string]string) chromedp.Tasks {
	headers := network.Headers{}
	for k, v := range b.headers {
		headers[k] = v
	}
	for k, v := range extra {
		headers[k] = v
	}

	tasks := chromedp.Tasks{
		network.Enable(),
		network.SetCacheDisabled(true),
		emulation.SetUserAgentOverride(b.userAgent),
	}
	if len(headers) > 0 {
		tasks = append(tasks, network.SetExtraHTTPHeaders(headers))
	}
	return tasks
}

func (b *BrowserClient) navigate(ctx context.Context, link string) ([]byte, error) {
	res, err := chromedp.RunResponse(ctx, chromedp.Navigate(link))
	if err != nil {
		return nil, err
	}
	if res != nil && !success(int(res.Status)) {
		return nil, &NetworkError{URL: link, StatusCode: int(res.Status), Err: errors.New(res.StatusText)}
	}

	var html string
	err = chromedp.Run(ctx,
		chromedp.WaitReady("body"),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, err
	}
	return []byte(html), nil
}

type fetchResult struct {
	Status int    `json:"status"`
	Body   string `json:"body"`
}

// submit loads the target's origin so the POST is same-origin, then sends the
// form with fetch() from inside the page.
func (b *BrowserClient) submit(ctx context.Context, link string, form url.Values) ([]byte, error) {
	target, err := url.Parse(link)
	if err != nil {
		return nil, err
	}
	origin := (&url.URL{Scheme: target.Scheme, Host: target.Host, Path: "/"}).String()

	script, err := fetchScript(link, form)
	if err != nil {
		return nil, err
	}

	var result fetchResult
	err = chromedp.Run(ctx,
		chromedp.Navigate(origin),
		chromedp.Evaluate(script, &result, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}),
	)
	if err != nil {
		return nil, err
	}
	if !success(result.Status) {
		return nil, &NetworkError{URL: link, StatusCode: result.Status, Err: errors.New(http.StatusText(result.Status))}
	}
	return []byte(result.Body), nil
}

func fetchScript(link string, form url.Values) (string, error) {
	target, err := json.Marshal(link)
	if err != nil {
		return "", err
	}
	body, err := json.Marshal(form.Encode())
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`
		fetch(%s, {
			method: "POST",
			credentials: "include",
			headers: {"Content-Type": "application/x-www-form-urlencoded"},
			body: %s
		}).then(async (r) => ({status: r.status, body: await r.text()}))
	`, target, body), nil
}

// Close shuts the browser down, giving it a few seconds to exit cleanly.
func (b *BrowserClient) Close() {
	if b.cancel == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		chromedp.Cancel(b.ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
	b.cancel()
	b.cancel = nil
}
