package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/rep-ingest/internal/resilience"
)

// Options configures a Requester.
type Options struct {
	// Source names the adapter in logs.
	Source string
	// Timeout bounds each attempt. Default: 30s.
	Timeout time.Duration
	// Delay is slept after every logical call, successful or not.
	Delay time.Duration
	// Retry is the per-call retry policy. Default: 3 attempts, 2s fixed wait.
	Retry resilience.RetryConfig
	// UserAgents is the rotation pool; a fresh one is picked per attempt.
	UserAgents []string
	// HostLimiters seeds the per-host limiters. Unknown hosts get HostRPS.
	HostLimiters map[string]*AdaptiveLimiter
	HostRPS      float64
	// Client overrides the HTTP client. Its Timeout is replaced by Timeout.
	Client *http.Client
}

// Requester is the HTTP Fetcher shared by source adapters. Each Fetch is one
// logical network call: every attempt waits on the host limiter and carries a
// freshly picked user agent, transient failures are retried per the retry
// policy, and the configured delay is paid once the call finishes.
type Requester struct {
	client   *http.Client
	source   string
	delay    time.Duration
	retry    resilience.RetryConfig
	agents   userAgentPool
	limiters *hostLimiters
}

var _ Fetcher = (*Requester)(nil)

// NewRequester creates a Requester with the given options.
func NewRequester(opts Options) *Requester {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = resilience.DefaultRetryConfig()
	}
	if opts.Retry.OnRetry == nil {
		opts.Retry.OnRetry = resilience.RetryLogger(opts.Source, "fetch")
	}
	if opts.HostRPS <= 0 {
		opts.HostRPS = 5
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	client.Timeout = opts.Timeout

	return &Requester{
		client:   client,
		source:   opts.Source,
		delay:    opts.Delay,
		retry:    opts.Retry,
		agents:   newUserAgentPool(opts.UserAgents),
		limiters: newHostLimiters(opts.HostLimiters, rate.Limit(opts.HostRPS)),
	}
}

// Delay returns the pause applied after each call.
func (r *Requester) Delay() time.Duration {
	return r.delay
}

// Fetch implements Fetcher.
func (r *Requester) Fetch(ctx context.Context, req Request) (*Response, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	u, err := url.Parse(req.URL)
	if err != nil || u.Host == "" {
		return nil, eris.Errorf("fetcher: invalid url %q", req.URL)
	}
	lim := r.limiters.forHost(u.Host)

	attempts := 0
	resp, err := resilience.DoVal(ctx, r.retry, func(ctx context.Context) (*Response, error) {
		attempts++
		return r.attempt(ctx, req, u.Host, lim)
	})

	// The courtesy delay is owed even when the call failed.
	if sleepErr := resilience.Sleep(ctx, r.delay); sleepErr != nil && err == nil {
		err = eris.Wrap(sleepErr, "fetcher: post-call delay")
	}
	if err != nil {
		zap.L().Debug("fetch failed",
			zap.String("source", r.source),
			zap.String("url", req.URL),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		return nil, err
	}
	resp.Attempts = attempts
	return resp, nil
}

func (r *Requester) attempt(ctx context.Context, req Request, host string, lim *AdaptiveLimiter) (*Response, error) {
	if err := lim.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "fetcher: rate limiter wait")
	}

	var body io.Reader
	if req.Form != nil {
		body = strings.NewReader(req.Form.Encode())
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: build request")
	}
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	httpReq.Header.Set("Accept-Language", "en-US,en;q=0.5")
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if req.Form != nil {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	httpReq.Header.Set("User-Agent", r.agents.pick())

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrapf(err, "fetcher: %s %s", req.Method, req.URL), 0)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusTooManyRequests {
		lim.OnRateLimit(host)
	}
	if err := resilience.CheckStatus(resp.StatusCode, req.URL); err != nil {
		return nil, err
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "fetcher: read body"), 0)
	}
	contentType := resp.Header.Get("Content-Type")
	decoded, err := decodeBody(raw, contentType)
	if err != nil {
		return nil, err
	}
	lim.OnSuccess()

	return &Response{
		StatusCode:  resp.StatusCode,
		URL:         resp.Request.URL.String(),
		ContentType: contentType,
		Body:        decoded,
	}, nil
}
