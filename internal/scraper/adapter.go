package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/baxromumarov/job-board/internal/httpx"
	"github.com/baxromumarov/job-board/internal/observability"
	"github.com/baxromumarov/job-board/internal/source"
)

// Contribution is what one source added to a run. Failure and ErrorType are
// informational; a failed source simply contributes no postings.
type Contribution struct {
	Postings  []JobPosting
	Failure   string
	ErrorType string
	Duration  time.Duration
}

// Adapter wraps a JobScraper so that no transport, schema or unexpected
// failure escapes a single source.
type Adapter struct {
	kind    source.Kind
	scraper JobScraper
	logger  *slog.Logger
}

func NewAdapter(kind source.Kind, scraper JobScraper, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{kind: kind, scraper: scraper, logger: logger}
}

func (a *Adapter) Kind() source.Kind { return a.kind }

// Fetch never fails: errors are logged as warnings and turned into an empty
// contribution.
func (a *Adapter) Fetch(ctx context.Context, src source.Descriptor) (c Contribution) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			c = a.absorb(src, fmt.Errorf("%w: adapter panic: %v", observability.ErrSchema, r), start)
		}
	}()

	jobs, err := a.scraper.FetchJobs(ctx, src)
	if err != nil {
		return a.absorb(src, err, start)
	}
	if jobs == nil {
		jobs = []JobPosting{}
	}
	return Contribution{Postings: jobs, Duration: time.Since(start)}
}

func (a *Adapter) absorb(src source.Descriptor, err error, start time.Time) Contribution {
	errType := observability.ClassifyScrapeError(err)
	observability.IncError(errType, string(a.kind))
	a.logger.Warn("source failed",
		"source", src.Name,
		"kind", string(a.kind),
		"error_type", errType,
		"error", err,
	)
	return Contribution{
		Postings:  []JobPosting{},
		Failure:   err.Error(),
		ErrorType: errType,
		Duration:  time.Since(start),
	}
}

// Adapters maps each source kind to its adapter.
type Adapters map[source.Kind]*Adapter

// Deps carries everything the built-in adapters need.
type Deps struct {
	Client            *httpx.Client
	Pages             PageFetcher
	Normalizer        *Normalizer
	Logger            *slog.Logger
	LeverBaseURL      string
	GreenhouseBaseURL string
}

// NewAdapters builds one adapter per supported source kind.
func NewAdapters(d Deps) Adapters {
	norm := d.Normalizer
	if norm == nil {
		norm = NewNormalizer(nil)
	}
	return Adapters{
		source.KindLever:      NewAdapter(source.KindLever, NewLeverScraper(d.Client, d.LeverBaseURL, norm), d.Logger),
		source.KindGreenhouse: NewAdapter(source.KindGreenhouse, NewGreenhouseScraper(d.Client, d.GreenhouseBaseURL, norm), d.Logger),
		source.KindPage:       NewAdapter(source.KindPage, NewGenericScraper(d.Pages, norm), d.Logger),
	}
}
