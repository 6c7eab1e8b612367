package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/gocolly/colly/v2"
	"golang.org/x/time/rate"

	"github.com/baxromumarov/job-board/internal/urlutil"
)

// CollyFetcher retrieves career pages through Colly, one attempt per call.
type CollyFetcher struct {
	opts  Options
	mu    sync.Mutex
	hosts map[string]*rate.Limiter
}

func NewCollyFetcher(opts Options) *CollyFetcher {
	return &CollyFetcher{
		opts:  opts.withDefaults(),
		hosts: make(map[string]*rate.Limiter),
	}
}

// FetchBytes returns the raw page body and the final response URL, which
// differs from rawURL when the server redirected.
func (f *CollyFetcher) FetchBytes(ctx context.Context, rawURL string) ([]byte, *url.URL, error) {
	target, err := normalizeURL(rawURL)
	if err != nil {
		return nil, nil, &FetchError{Err: err}
	}

	if err := f.limiter(urlutil.HostKey(target)).Wait(ctx); err != nil {
		return nil, nil, &FetchError{Err: err}
	}

	var (
		body     []byte
		finalURL *url.URL
	)
	status, err := f.fetchOnce(ctx, target, func(c *colly.Collector) {
		c.OnResponse(func(r *colly.Response) {
			body = append([]byte(nil), r.Body...)
			finalURL = r.Request.URL
		})
	})
	if err != nil {
		var fe *FetchError
		if errors.As(err, &fe) {
			return nil, nil, fe
		}
		return nil, nil, &FetchError{Status: status, Err: err}
	}
	return body, finalURL, nil
}

func (f *CollyFetcher) fetchOnce(ctx context.Context, target string, register func(*colly.Collector)) (int, error) {
	c := f.newCollector()
	if register != nil {
		register(c)
	}

	status := 0
	var reqErr error
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		reqErr = err
	})

	collyCtx := colly.NewContext()
	collyCtx.Put("ctx", ctx)

	if err := c.Request(http.MethodGet, target, nil, collyCtx, nil); err != nil {
		if errors.Is(err, colly.ErrRobotsTxtBlocked) {
			return status, &FetchError{Err: fmt.Errorf("%w: %s", ErrRobotsDisallowed, target)}
		}
		return status, err
	}
	if reqErr != nil {
		return status, reqErr
	}
	if ctx.Err() != nil {
		return status, ctx.Err()
	}
	if status >= 300 {
		return status, &FetchError{Status: status, Err: fmt.Errorf("status %d", status)}
	}
	if status == 0 {
		status = http.StatusOK
	}
	return status, nil
}

func (f *CollyFetcher) newCollector() *colly.Collector {
	c := colly.NewCollector(colly.UserAgent(f.opts.UserAgent))
	c.IgnoreRobotsTxt = !f.opts.RespectRobots
	c.SetRequestTimeout(f.opts.Timeout)

	c.OnRequest(func(r *colly.Request) {
		ctx := context.Background()
		if v := r.Ctx.GetAny("ctx"); v != nil {
			if reqCtx, ok := v.(context.Context); ok {
				ctx = reqCtx
			}
		}
		if ctx.Err() != nil {
			r.Abort()
		}
	})

	return c
}

func (f *CollyFetcher) limiter(host string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()
	if l, ok := f.hosts[host]; ok {
		return l
	}
	l := rate.NewLimiter(rate.Limit(f.opts.RatePerSecond), f.opts.Burst)
	f.hosts[host] = l
	return l
}

func normalizeURL(rawURL string) (string, error) {
	if rawURL == "" {
		return "", errors.New("empty url")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	return u.String(), nil
}
