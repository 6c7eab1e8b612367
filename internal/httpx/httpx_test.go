package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
			assert.Equal(t, "application/json", r.Header.Get("Accept"))
			_, _ = w.Write([]byte(`[]`))
		default:
			http.Error(w, "nope", http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	c := NewClient(Options{UserAgent: "test-agent", Timeout: time.Second})

	body, err := c.Get(context.Background(), srv.URL+"/ok", "application/json")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(body))

	_, err = c.Get(context.Background(), srv.URL+"/down", "")
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusServiceUnavailable, fe.Status)
}

func TestClientGetTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	c := NewClient(Options{Timeout: 50 * time.Millisecond})

	start := time.Now()
	_, err := c.Get(context.Background(), srv.URL, "")
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Zero(t, fe.Status)
}

func TestClientRespectsRobots(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /private\n"))
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewClient(Options{RespectRobots: true, Timeout: time.Second})

	_, err := c.Get(context.Background(), srv.URL+"/private/jobs", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRobotsDisallowed))

	body, err := c.Get(context.Background(), srv.URL+"/careers", "")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
}

func TestCollyFetcherFetchBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><a href="/j/1">Role</a></body></html>`))
	}))
	defer srv.Close()

	f := NewCollyFetcher(Options{Timeout: time.Second})

	body, final, err := f.FetchBytes(context.Background(), srv.URL+"/careers")
	require.NoError(t, err)
	assert.Contains(t, string(body), `href="/j/1"`)
	require.NotNil(t, final)
	assert.Equal(t, "/careers", final.Path)

	_, _, err = f.FetchBytes(context.Background(), srv.URL+"/missing")
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusNotFound, fe.Status)
}

func TestCollyFetcherCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewCollyFetcher(Options{})
	_, _, err := f.FetchBytes(ctx, "https://careers.example.com/")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
