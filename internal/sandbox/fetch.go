package sandbox

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/bibharvest/bibharvest/internal/config"
	"github.com/bibharvest/bibharvest/internal/document"
	"github.com/bibharvest/bibharvest/internal/logging"
	"github.com/bibharvest/bibharvest/internal/monitoring"
)

// Fetcher performs the outbound HTTP access granted to sandboxed translator
// code. Every helper resolves possibly-relative URLs against the page URL
// before any network access.
type Fetcher struct {
	client  *resty.Client
	limiter *rate.Limiter
	metrics *monitoring.Metrics
	log     *logging.Logger
}

// NewFetcher creates a fetcher with retrying transport and rate limiting.
// metrics may be nil.
func NewFetcher(cfg config.FetchConfig, metrics *monitoring.Metrics, log *logging.Logger) *Fetcher {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 15 * time.Second
	retryClient.Logger = nil

	// Retries happen inside retryablehttp.Client.Do, so the client must be
	// wrapped as a RoundTripper; grabbing its inner transport would bypass
	// the retry loop entirely.
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetTransport(&retryablehttp.RoundTripper{Client: retryClient})

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), int(cfg.RequestsPerSecond)+1)
	}

	return &Fetcher{
		client:  client,
		limiter: limiter,
		metrics: metrics,
		log:     log,
	}
}

// Page fetches and parses the page a run starts from, honoring caller
// headers. This is the only fetch governed by the caller's timeout.
func (f *Fetcher) Page(ctx context.Context, url string, headers map[string]string) (*document.Document, error) {
	resp, err := checked(f.get(ctx, url, headers))
	if err != nil {
		return nil, err
	}
	return document.Parse(resp.String(), url)
}

// ResolveURL resolves a possibly-relative reference against base. A nil base
// requires ref to be absolute.
func (f *Fetcher) ResolveURL(base *url.URL, ref string) (string, error) {
	parsed, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", ref, err)
	}
	if base != nil {
		parsed = base.ResolveReference(parsed)
	}
	if !parsed.IsAbs() {
		return "", fmt.Errorf("unresolvable relative url %q", ref)
	}
	return parsed.String(), nil
}

// Raw fetches a URL and returns the response, treating error statuses as
// failures.
func (f *Fetcher) Raw(ctx context.Context, url string) (*resty.Response, error) {
	return checked(f.get(ctx, url, nil))
}

// Do fetches a URL and returns the response as-is. Error statuses are not
// failures here; callers branch on the status code themselves.
func (f *Fetcher) Do(ctx context.Context, url string) (*resty.Response, error) {
	return f.get(ctx, url, nil)
}

func (f *Fetcher) get(ctx context.Context, url string, headers map[string]string) (*resty.Response, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	start := time.Now()
	req := f.client.R().SetContext(ctx)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	resp, err := req.Get(url)
	f.observe("raw", start)
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}
	return resp, nil
}

// checked rejects error statuses on an otherwise successful response.
func checked(resp *resty.Response, err error) (*resty.Response, error) {
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch failed: status %d for %s", resp.StatusCode(), resp.Request.URL)
	}
	return resp, nil
}

// Text fetches a URL and returns the response body as text.
func (f *Fetcher) Text(ctx context.Context, url string) (string, error) {
	resp, err := f.Raw(ctx, url)
	if err != nil {
		return "", err
	}
	return resp.String(), nil
}

// JSON fetches a URL and decodes the response body as JSON.
func (f *Fetcher) JSON(ctx context.Context, url string) (interface{}, error) {
	resp, err := f.Raw(ctx, url)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := sonic.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("json decode failed: %w", err)
	}
	return out, nil
}

// Document fetches a URL and parses the response into a dual-tree document.
func (f *Fetcher) Document(ctx context.Context, url string) (*document.Document, error) {
	resp, err := f.Raw(ctx, url)
	if err != nil {
		return nil, err
	}
	return document.Parse(resp.String(), url)
}

func (f *Fetcher) observe(kind string, start time.Time) {
	if f.metrics != nil {
		f.metrics.FetchDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	}
}
