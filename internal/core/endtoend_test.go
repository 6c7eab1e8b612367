package core

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baxromumarov/job-board/internal/httpx"
	"github.com/baxromumarov/job-board/internal/scraper"
	"github.com/baxromumarov/job-board/internal/source"
)

func newFakeUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v0/postings/northwind", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"text":"Platform Engineer","categories":{"location":"Toronto, Canada","team":"Infra"},"applyUrl":"https://jobs.example.com/nw/1"},
			{"text":"Account Executive","categories":{"location":"Paris, France","team":"Sales"},"applyUrl":"https://jobs.example.com/nw/2"},
			{"text":"Support Lead","categories":{"location":"Remote - USA","team":"Support"},"applyUrl":"https://jobs.example.com/nw/3"}
		]`))
	})
	mux.HandleFunc("/v0/postings/offline", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
	})
	mux.HandleFunc("/v1/boards/contoso/jobs", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jobs":[
			{"title":"ML Engineer","absolute_url":"https://jobs.example.com/co/7","location":{"name":"Montreal, Canada"},"departments":[{"name":"Research"}]}
		]}`))
	})
	mux.HandleFunc("/careers", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><body>
			<ul>
				<li><a href="/careers/42">Product Designer – Vancouver, Canada</a></li>
				<li><a href="/careers/43">Product Designer – Berlin, Germany</a></li>
				<li><a href="/about">About us</a></li>
			</ul>
		</body></html>`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRunEndToEnd(t *testing.T) {
	upstream := newFakeUpstream(t)

	reg := mustRegistry(t,
		source.Descriptor{Name: "Northwind", Kind: source.KindLever, Locator: "northwind"},
		source.Descriptor{Name: "Contoso", Kind: source.KindGreenhouse, Locator: "contoso"},
		source.Descriptor{Name: "Fabrikam", Kind: source.KindPage, Locator: upstream.URL + "/careers"},
		source.Descriptor{Name: "Offline", Kind: source.KindLever, Locator: "offline"},
	)

	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	opts := httpx.Options{Timeout: 2 * time.Second, RatePerSecond: 100, Burst: 100}

	adapters := scraper.NewAdapters(scraper.Deps{
		Client:            httpx.NewClient(opts),
		Pages:             httpx.NewCollyFetcher(opts),
		Normalizer:        scraper.NewNormalizer([]string{"canada", "usa"}),
		Logger:            logger,
		LeverBaseURL:      upstream.URL,
		GreenhouseBaseURL: upstream.URL,
	})
	agg := NewAggregator(Config{Registry: reg, Adapters: AdaptersFrom(adapters), Logger: logger})

	res := agg.Run(context.Background())

	require.Len(t, res.Postings, 4)
	assert.Equal(t, []scraper.JobPosting{
		{Company: "Northwind", Title: "Platform Engineer", Location: "Toronto, Canada", Category: "Infra", ApplyURL: "https://jobs.example.com/nw/1"},
		{Company: "Northwind", Title: "Support Lead", Location: "Remote - USA", Category: "Support", ApplyURL: "https://jobs.example.com/nw/3"},
		{Company: "Contoso", Title: "ML Engineer", Location: "Montreal, Canada", Category: "Research", ApplyURL: "https://jobs.example.com/co/7"},
		{Company: "Fabrikam", Title: "Product Designer", Location: "Vancouver, Canada", Category: scraper.CategoryOther, ApplyURL: upstream.URL + "/careers/42"},
	}, res.Postings)

	require.Len(t, res.Sources, 4)
	assert.Equal(t, []int{2, 1, 1, 0}, []int{res.Sources[0].Postings, res.Sources[1].Postings, res.Sources[2].Postings, res.Sources[3].Postings})
	assert.NotEmpty(t, res.Sources[3].Error)

	var sawWarning bool
	for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		if entry["level"] == "WARN" && entry["source"] == "Offline" {
			sawWarning = true
		}
	}
	assert.True(t, sawWarning, "expected a warning for the failing source")

	for _, p := range res.Postings {
		assert.True(t, strings.Contains(strings.ToLower(p.Location), "canada") || strings.Contains(strings.ToLower(p.Location), "usa"))
	}
}

func TestRunEveryoneFails(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	reg := mustRegistry(t,
		source.Descriptor{Name: "A", Kind: source.KindLever, Locator: "a"},
		source.Descriptor{Name: "B", Kind: source.KindGreenhouse, Locator: "b"},
		source.Descriptor{Name: "C", Kind: source.KindPage, Locator: deadURL + "/careers"},
	)
	opts := httpx.Options{Timeout: time.Second}
	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	adapters := scraper.NewAdapters(scraper.Deps{
		Client:            httpx.NewClient(opts),
		Pages:             httpx.NewCollyFetcher(opts),
		Logger:            logger,
		LeverBaseURL:      deadURL,
		GreenhouseBaseURL: deadURL,
	})

	res := NewAggregator(Config{Registry: reg, Adapters: AdaptersFrom(adapters), Logger: logger}).Run(context.Background())

	assert.NotNil(t, res.Postings)
	assert.Empty(t, res.Postings)
	for _, s := range res.Sources {
		assert.NotEmpty(t, s.Error, s.Name)
	}
}
