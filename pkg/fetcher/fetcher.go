// Package fetcher provides the single outbound HTTP client shared by every
// page and image request of a run. It sends browser-like headers, follows
// redirects, applies a per-call deadline and maps failures onto serrors kinds
// so callers can treat them as per-domain absences.
package fetcher

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"logocluster/pkg/serrors"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

const (
	// DefaultUserAgent mimics a desktop Chrome to reduce anti-bot rejections.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"
	// DefaultAccept is sent with page requests.
	DefaultAccept = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8"
	// ImageAccept is sent with image requests.
	ImageAccept = "image/avif,image/webp,image/apng,image/*,*/*;q=0.8"
	// DefaultAcceptLanguage is sent with every request.
	DefaultAcceptLanguage = "en-US,en;q=0.5"
)

// errTooManyRedirects is returned by the redirect policy once the chain is too long.
var errTooManyRedirects = errors.New("too many redirects")

// Options configures a Client. Zero values fall back to the defaults noted on each field.
type Options struct {
	// Timeout bounds each call, including reading the body. Default 10s.
	Timeout time.Duration
	// UserAgent header value. Default DefaultUserAgent.
	UserAgent string
	// Accept header value for page requests. Default DefaultAccept.
	Accept string
	// AcceptLanguage header value. Default DefaultAcceptLanguage.
	AcceptLanguage string
	// InsecureSkipVerify disables TLS certificate verification. Many logo
	// hosts serve broken chains; enabling this trades authenticity of the
	// fetched bytes for coverage.
	InsecureSkipVerify bool
	// MaxBodyBytes caps the response body size. Default 8 MiB.
	MaxBodyBytes int64
	// MaxRedirects caps the redirect chain. Default 10.
	MaxRedirects int
	// RequestsPerSecond limits the request start rate across the client. Zero disables.
	RequestsPerSecond float64
	// MaxIdleConnsPerHost sizes the idle pool per host. Default 4.
	MaxIdleConnsPerHost int
	// Transport overrides the round tripper, mostly for tests.
	Transport http.RoundTripper
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.Accept == "" {
		o.Accept = DefaultAccept
	}
	if o.AcceptLanguage == "" {
		o.AcceptLanguage = DefaultAcceptLanguage
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = 8 << 20
	}
	if o.MaxRedirects <= 0 {
		o.MaxRedirects = 10
	}
	if o.MaxIdleConnsPerHost <= 0 {
		o.MaxIdleConnsPerHost = 4
	}

	return o
}

// Response is a fully read, successful (2xx) response.
type Response struct {
	// URL is the final URL after redirects.
	URL *url.URL
	// StatusCode is the HTTP status code.
	StatusCode int
	// ContentType is the Content-Type header value.
	ContentType string
	// Body holds at most Options.MaxBodyBytes bytes.
	Body []byte
}

// Client performs GET requests. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	opts       Options
}

// New builds a Client with its own transport and cookie jar.
func New(opts Options) (*Client, error) {
	opts = opts.withDefaults()

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("could not create cookie jar: %w", err)
	}

	transport := opts.Transport
	if transport == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.MaxIdleConnsPerHost = opts.MaxIdleConnsPerHost
		t.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: opts.InsecureSkipVerify, //nolint: gosec
			MinVersion:         tls.VersionTLS12,
		}
		transport = t
	}

	maxRedirects := opts.MaxRedirects
	c := &Client{
		httpClient: &http.Client{
			Transport: transport,
			Jar:       jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects: %w", maxRedirects, errTooManyRedirects)
				}

				return nil
			},
		},
		opts: opts,
	}
	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	return c, nil
}

// Timeout returns the per-call deadline.
func (c *Client) Timeout() time.Duration { return c.opts.Timeout }

// Get fetches rawURL. accept overrides the Accept header; empty means the page
// default. Failures are returned as serrors kinds: ErrBadRequest for an
// unusable URL, ErrTimeout when the deadline expires, ErrUnavailable for
// transport errors, ErrBadStatus for non-2xx answers and ErrMalformed for an
// oversized or truncated body.
func (c *Client) Get(ctx context.Context, rawURL string, accept string) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrBadRequest, err, "invalid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, serrors.With(serrors.ErrBadRequest, "unsupported scheme %q", u.Scheme)
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, serrors.Wrap(serrors.ErrTimeout, err, "waiting for request slot")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrBadRequest, err, "could not create request")
	}
	if accept == "" {
		accept = c.opts.Accept
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", c.opts.AcceptLanguage)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classify(err, "could not send request")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	final := req.URL
	if resp.Request != nil {
		final = resp.Request.URL
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, serrors.With(serrors.ErrBadStatus, "unexpected status %d from %s", resp.StatusCode, final)
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, c.opts.MaxBodyBytes+1))
	if err != nil {
		return nil, classify(err, "could not read response body")
	}
	if int64(len(b)) > c.opts.MaxBodyBytes {
		return nil, serrors.With(serrors.ErrMalformed, "response body exceeds %d bytes", c.opts.MaxBodyBytes)
	}

	return &Response{
		URL:         final,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        b,
	}, nil
}

// classify maps a transport error to a semantic kind.
func classify(err error, msg string) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return serrors.Wrap(serrors.ErrTimeout, err, "%s", msg)
	case errors.As(err, &netErr) && netErr.Timeout():
		return serrors.Wrap(serrors.ErrTimeout, err, "%s", msg)
	case errors.Is(err, io.ErrUnexpectedEOF):
		return serrors.Wrap(serrors.ErrMalformed, err, "%s", msg)
	case errors.Is(err, errTooManyRedirects):
		return serrors.Wrap(serrors.ErrBadStatus, err, "%s", msg)
	default:
		return serrors.Wrap(serrors.ErrUnavailable, err, "%s", msg)
	}
}
