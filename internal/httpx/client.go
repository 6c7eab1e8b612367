package httpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"golang.org/x/time/rate"

	"github.com/baxromumarov/job-board/internal/urlutil"
)

const (
	DefaultUserAgent = "job-board-bot/1.0"
	DefaultTimeout   = 10 * time.Second

	maxBodyBytes = 10 << 20
)

// Options configures both the JSON client and the page fetcher.
type Options struct {
	UserAgent     string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
	RespectRobots bool
}

func (o Options) withDefaults() Options {
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.RatePerSecond <= 0 {
		o.RatePerSecond = 2
	}
	if o.Burst <= 0 {
		o.Burst = 4
	}
	return o
}

// Client issues single-attempt GETs with a fixed timeout, per-host rate
// limits and, optionally, robots.txt rules.
type Client struct {
	client      *http.Client
	opts        Options
	limiters    map[string]*rate.Limiter
	robotsCache map[string]*robotstxt.RobotsData
	mu          sync.Mutex
}

func NewClient(opts Options) *Client {
	opts = opts.withDefaults()
	return &Client{
		client:      &http.Client{Timeout: opts.Timeout},
		opts:        opts,
		limiters:    map[string]*rate.Limiter{},
		robotsCache: map[string]*robotstxt.RobotsData{},
	}
}

func (c *Client) Timeout() time.Duration {
	return c.opts.Timeout
}

func (c *Client) limiterFor(host string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	if l, ok := c.limiters[host]; ok {
		return l
	}
	l := rate.NewLimiter(rate.Limit(c.opts.RatePerSecond), c.opts.Burst)
	c.limiters[host] = l
	return l
}

// NewRequest builds an HTTP GET request with context and a safe URL defaulting to https.
func NewRequest(ctx context.Context, rawURL string) (*http.Request, error) {
	if rawURL == "" {
		return nil, errors.New("empty url")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	return http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
}

// Get fetches rawURL once and returns its body. Non-2xx responses are
// reported as *FetchError.
func (c *Client) Get(ctx context.Context, rawURL string, accept string) ([]byte, error) {
	req, err := NewRequest(ctx, rawURL)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	if c.opts.RespectRobots && !c.allowed(ctx, req.URL) {
		return nil, &FetchError{Err: fmt.Errorf("%w: %s", ErrRobotsDisallowed, req.URL)}
	}

	if err := c.limiterFor(urlutil.NormalizeHost(req.URL.Hostname())).Wait(ctx); err != nil {
		return nil, &FetchError{Err: err}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &FetchError{Status: resp.StatusCode, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &FetchError{Status: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	return body, nil
}

func (c *Client) robotsFor(ctx context.Context, u *url.URL) (*robotstxt.RobotsData, error) {
	host := u.Hostname()
	c.mu.Lock()
	if data, ok := c.robotsCache[host]; ok {
		c.mu.Unlock()
		return data, nil
	}
	c.mu.Unlock()

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", u.Scheme, u.Host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)

	if err := c.limiterFor(urlutil.NormalizeHost(host)).Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.robotsCache[host] = data
	c.mu.Unlock()
	return data, nil
}

func (c *Client) allowed(ctx context.Context, u *url.URL) bool {
	data, err := c.robotsFor(ctx, u)
	if err != nil {
		return true // fail open
	}
	group := data.FindGroup(c.opts.UserAgent)
	if group == nil {
		return true
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return group.Test(strings.TrimSpace(path))
}
