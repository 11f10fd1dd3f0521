package version

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// maxDescriptorBytes bounds how much of a response body is read.
const maxDescriptorBytes = 1 << 20

// FetchError reports a descriptor fetch that failed at the network or HTTP
// level, or returned a body that is not a valid descriptor.
type FetchError struct {
	URL        string
	StatusCode int // non-zero when the server answered with a non-2xx status
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s: server returned status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetcher retrieves the deployed build descriptor.
type Fetcher struct {
	endpoint    string
	httpClient  *http.Client
	userAgent   string
	cacheBuster func() string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.httpClient = c
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithCacheBuster replaces the generator for the "t" query parameter.
func WithCacheBuster(fn func() string) Option {
	return func(f *Fetcher) {
		f.cacheBuster = fn
	}
}

// NewFetcher creates a Fetcher for the descriptor at endpoint.
func NewFetcher(endpoint string, opts ...Option) *Fetcher {
	f := &Fetcher{
		endpoint:    endpoint,
		httpClient:  http.DefaultClient,
		userAgent:   "updatewatch-checker",
		cacheBuster: DefaultCacheBuster,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Endpoint returns the descriptor URL without the cache-busting parameter.
func (f *Fetcher) Endpoint() string {
	return f.endpoint
}

// DefaultCacheBuster returns a token that is unique per call: the current
// time in milliseconds followed by a random UUID.
func DefaultCacheBuster() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + uuid.NewString()
}

// Fetch downloads and validates the current descriptor. Every request carries
// a fresh cache-busting parameter and no-cache headers so intermediaries
// never serve a stale answer. Latency is bounded only by ctx.
func (f *Fetcher) Fetch(ctx context.Context) (Descriptor, error) {
	target, err := f.requestURL()
	if err != nil {
		return Descriptor{}, &FetchError{URL: f.endpoint, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Descriptor{}, &FetchError{URL: f.endpoint, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return Descriptor{}, &FetchError{URL: f.endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDescriptorBytes))
		return Descriptor{}, &FetchError{URL: f.endpoint, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDescriptorBytes))
	if err != nil {
		return Descriptor{}, &FetchError{URL: f.endpoint, Err: fmt.Errorf("reading response body: %w", err)}
	}

	if err := ValidateDescriptor(body); err != nil {
		return Descriptor{}, &FetchError{URL: f.endpoint, Err: err}
	}

	var d Descriptor
	if err := json.Unmarshal(body, &d); err != nil {
		return Descriptor{}, &FetchError{URL: f.endpoint, Err: fmt.Errorf("parsing descriptor: %w", err)}
	}
	return d, nil
}

func (f *Fetcher) requestURL() (string, error) {
	u, err := url.Parse(f.endpoint)
	if err != nil {
		return "", fmt.Errorf("parsing endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported endpoint scheme %q", u.Scheme)
	}
	q := u.Query()
	q.Set("t", f.cacheBuster())
	u.RawQuery = q.Encode()
	return u.String(), nil
}
