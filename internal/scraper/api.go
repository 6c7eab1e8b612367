package scraper

import (
	"context"

	"github.com/baxromumarov/job-board/internal/source"
)

// JobPosting is the normalized record every adapter produces.
type JobPosting struct {
	Company  string `json:"company"`
	Title    string `json:"title"`
	Location string `json:"location"`
	Category string `json:"category"`
	ApplyURL string `json:"apply_url"`
}

// JobScraper fetches and normalizes the postings of one source. Errors are
// returned to the Adapter wrapping it, which absorbs them.
type JobScraper interface {
	FetchJobs(ctx context.Context, src source.Descriptor) ([]JobPosting, error)
}
