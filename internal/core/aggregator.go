package core

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/baxromumarov/job-board/internal/observability"
	"github.com/baxromumarov/job-board/internal/scraper"
	"github.com/baxromumarov/job-board/internal/source"
)

const (
	DefaultConcurrency = 8

	recordTimeout = 5 * time.Second
)

// SourceFetcher is satisfied by *scraper.Adapter.
type SourceFetcher interface {
	Fetch(ctx context.Context, src source.Descriptor) scraper.Contribution
}

// Recorder persists a summary of each run. It never influences the result.
type Recorder interface {
	RecordRun(ctx context.Context, res Result) error
}

// SourceReport summarizes one source's part in a run.
type SourceReport struct {
	Name      string        `json:"name"`
	Kind      source.Kind   `json:"kind"`
	Postings  int           `json:"postings"`
	ErrorType string        `json:"error_type,omitempty"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Result is one aggregate run. Postings is in registry order with
// duplicates by apply URL removed.
type Result struct {
	Postings   []scraper.JobPosting `json:"postings"`
	Sources    []SourceReport       `json:"sources"`
	Duplicates int                  `json:"duplicates"`
	StartedAt  time.Time            `json:"started_at"`
	FinishedAt time.Time            `json:"finished_at"`
}

type Config struct {
	Registry    *source.Registry
	Adapters    map[source.Kind]SourceFetcher
	Logger      *slog.Logger
	Concurrency int
	Recorder    Recorder
}

type Aggregator struct {
	registry    *source.Registry
	adapters    map[source.Kind]SourceFetcher
	logger      *slog.Logger
	concurrency int
	recorder    Recorder
}

func NewAggregator(cfg Config) *Aggregator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Aggregator{
		registry:    cfg.Registry,
		adapters:    cfg.Adapters,
		logger:      logger,
		concurrency: concurrency,
		recorder:    cfg.Recorder,
	}
}

// AdaptersFrom exposes the scraper adapters as fetchers.
func AdaptersFrom(adapters scraper.Adapters) map[source.Kind]SourceFetcher {
	out := make(map[source.Kind]SourceFetcher, len(adapters))
	for kind, a := range adapters {
		out[kind] = a
	}
	return out
}

// Run fetches every source afresh and returns the merged, de-duplicated
// postings. Source failures only shrink the result.
func (a *Aggregator) Run(ctx context.Context) Result {
	started := time.Now()
	observability.IncRun()

	entries := a.registry.Entries()
	slots := make([]scraper.Contribution, len(entries))

	var g errgroup.Group
	g.SetLimit(a.concurrency)
	for i, src := range entries {
		i, src := i, src
		g.Go(func() error {
			slots[i] = a.fetch(ctx, src)
			return nil
		})
	}
	_ = g.Wait()

	var all []scraper.JobPosting
	reports := make([]SourceReport, 0, len(entries))
	for i, src := range entries {
		c := slots[i]
		a.logger.Info("source processed",
			"source", src.Name,
			"kind", string(src.Kind),
			"postings", len(c.Postings),
		)
		observability.AddSourcePostings(src.Name, len(c.Postings))

		all = append(all, c.Postings...)
		reports = append(reports, SourceReport{
			Name:      src.Name,
			Kind:      src.Kind,
			Postings:  len(c.Postings),
			ErrorType: c.ErrorType,
			Error:     c.Failure,
			Duration:  c.Duration,
		})
	}

	postings, dropped := Dedup(all)
	observability.AddDuplicatesDropped(dropped)

	res := Result{
		Postings:   postings,
		Sources:    reports,
		Duplicates: dropped,
		StartedAt:  started.UTC(),
		FinishedAt: time.Now().UTC(),
	}
	observability.ObserveRunDuration(res.FinishedAt.Sub(res.StartedAt))

	a.logger.Info("aggregate run finished",
		"sources", len(entries),
		"postings", len(postings),
		"duplicates", dropped,
		"duration", res.FinishedAt.Sub(res.StartedAt).String(),
	)

	a.record(ctx, res)
	return res
}

func (a *Aggregator) fetch(ctx context.Context, src source.Descriptor) scraper.Contribution {
	adapter, ok := a.adapters[src.Kind]
	if !ok || adapter == nil {
		a.logger.Warn("no adapter for source kind", "source", src.Name, "kind", string(src.Kind))
		observability.IncError(observability.ErrorUnknown, string(src.Kind))
		return scraper.Contribution{Postings: []scraper.JobPosting{}, Failure: "no adapter for kind " + string(src.Kind)}
	}
	return adapter.Fetch(ctx, src)
}

func (a *Aggregator) record(ctx context.Context, res Result) {
	if a.recorder == nil {
		return
	}
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	if err := a.recorder.RecordRun(rctx, res); err != nil {
		observability.IncError(observability.ErrorStore, "runlog")
		a.logger.Warn("failed to record run", "error", err)
	}
}
