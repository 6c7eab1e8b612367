package observability

import (
	"sync"
	"sync/atomic"
	"time"
)

type StatsSnapshot struct {
	Runs              uint64            `json:"runs"`
	SourcesProcessed  uint64            `json:"sources_processed"`
	PostingsProduced  uint64            `json:"postings_produced"`
	DuplicatesDropped uint64            `json:"duplicates_dropped"`
	ErrorsTotal       uint64            `json:"errors_total"`
	RunSecondsAvg     float64           `json:"run_seconds_avg"`
	LastRunAt         *time.Time        `json:"last_run_at,omitempty"`
	PostingsBySource  map[string]uint64 `json:"postings_by_source,omitempty"`
	ErrorsByType      map[string]uint64 `json:"errors_by_type,omitempty"`
	ErrorsByComponent map[string]uint64 `json:"errors_by_component,omitempty"`
}

var (
	runs              uint64
	sourcesProcessed  uint64
	postingsProduced  uint64
	duplicatesDropped uint64
	errorsTotal       uint64

	runCount uint64
	runNanos uint64

	statsMu           sync.Mutex
	lastRunAt         time.Time
	postingsBySource  = map[string]uint64{}
	errorsByType      = map[string]uint64{}
	errorsByComponent = map[string]uint64{}
)

func IncRun() {
	atomic.AddUint64(&runs, 1)
	statsMu.Lock()
	lastRunAt = time.Now().UTC()
	statsMu.Unlock()
}

// AddSourcePostings records one processed source and how many postings it yielded.
func AddSourcePostings(source string, n int) {
	atomic.AddUint64(&sourcesProcessed, 1)
	if n <= 0 {
		return
	}
	atomic.AddUint64(&postingsProduced, uint64(n))
	if source == "" {
		source = "unknown"
	}
	statsMu.Lock()
	postingsBySource[source] += uint64(n)
	statsMu.Unlock()
}

func AddDuplicatesDropped(n int) {
	if n <= 0 {
		return
	}
	atomic.AddUint64(&duplicatesDropped, uint64(n))
}

func ObserveRunDuration(d time.Duration) {
	if d <= 0 {
		return
	}
	atomic.AddUint64(&runCount, 1)
	atomic.AddUint64(&runNanos, uint64(d.Nanoseconds()))
}

func IncError(errType, component string) {
	if errType == "" {
		errType = "unknown"
	}
	if component == "" {
		component = "unknown"
	}
	atomic.AddUint64(&errorsTotal, 1)
	statsMu.Lock()
	errorsByType[errType]++
	errorsByComponent[component]++
	statsMu.Unlock()
}

func Snapshot() StatsSnapshot {
	statsMu.Lock()
	bySourceCopy := copyMap(postingsBySource)
	errorsTypeCopy := copyMap(errorsByType)
	errorsComponentCopy := copyMap(errorsByComponent)
	var last *time.Time
	if !lastRunAt.IsZero() {
		t := lastRunAt
		last = &t
	}
	statsMu.Unlock()

	count := atomic.LoadUint64(&runCount)
	avg := 0.0
	if count > 0 {
		avg = float64(atomic.LoadUint64(&runNanos)) / float64(count) / 1e9
	}

	return StatsSnapshot{
		Runs:              atomic.LoadUint64(&runs),
		SourcesProcessed:  atomic.LoadUint64(&sourcesProcessed),
		PostingsProduced:  atomic.LoadUint64(&postingsProduced),
		DuplicatesDropped: atomic.LoadUint64(&duplicatesDropped),
		ErrorsTotal:       atomic.LoadUint64(&errorsTotal),
		RunSecondsAvg:     avg,
		LastRunAt:         last,
		PostingsBySource:  bySourceCopy,
		ErrorsByType:      errorsTypeCopy,
		ErrorsByComponent: errorsComponentCopy,
	}
}

func copyMap(src map[string]uint64) map[string]uint64 {
	if len(src) == 0 {
		return map[string]uint64{}
	}
	out := make(map[string]uint64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
