package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/baxromumarov/job-board/internal/httpx"
	"github.com/baxromumarov/job-board/internal/observability"
	"github.com/baxromumarov/job-board/internal/source"
)

const DefaultLeverBaseURL = "https://api.lever.co"

type leverPosting struct {
	Text       string   `json:"text"`
	ApplyURL   string   `json:"applyUrl"`
	Categories category `json:"categories"`
}

type category struct {
	Team     string `json:"team"`
	Location string `json:"location"`
}

type LeverScraper struct {
	client *httpx.Client
	base   string
	norm   *Normalizer
}

func NewLeverScraper(client *httpx.Client, baseURL string, norm *Normalizer) *LeverScraper {
	if baseURL == "" {
		baseURL = DefaultLeverBaseURL
	}
	return &LeverScraper{
		client: client,
		base:   strings.TrimSuffix(baseURL, "/"),
		norm:   norm,
	}
}

func (l *LeverScraper) FetchJobs(ctx context.Context, src source.Descriptor) ([]JobPosting, error) {
	apiURL := fmt.Sprintf("%s/v0/postings/%s?limit=200", l.base, url.PathEscape(src.Locator))

	body, err := l.client.Get(ctx, apiURL, "application/json")
	if err != nil {
		return nil, fmt.Errorf("lever fetch failed: %w", err)
	}

	var postings []leverPosting
	if err := json.Unmarshal(body, &postings); err != nil {
		return nil, fmt.Errorf("lever decode failed: %w: %w", observability.ErrSchema, err)
	}

	return l.mapPostings(src.Name, postings), nil
}

func (l *LeverScraper) mapPostings(company string, postings []leverPosting) []JobPosting {
	jobs := make([]JobPosting, 0, len(postings))
	for _, p := range postings {
		if !l.norm.InRegion(p.Categories.Location) {
			continue
		}
		job := l.norm.Posting(company, p.Text, p.Categories.Location, p.Categories.Team, p.ApplyURL)
		if job.Title == "" || job.ApplyURL == "" {
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs
}
