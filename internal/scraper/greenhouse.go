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

const DefaultGreenhouseBaseURL = "https://boards-api.greenhouse.io"

type greenhouseBoard struct {
	Jobs *[]greenhouseJob `json:"jobs"`
}

type greenhouseJob struct {
	Title       string `json:"title"`
	AbsoluteURL string `json:"absolute_url"`
	Location    struct {
		Name string `json:"name"`
	} `json:"location"`
	Departments []struct {
		Name string `json:"name"`
	} `json:"departments"`
}

type GreenhouseScraper struct {
	client *httpx.Client
	base   string
	norm   *Normalizer
}

func NewGreenhouseScraper(client *httpx.Client, baseURL string, norm *Normalizer) *GreenhouseScraper {
	if baseURL == "" {
		baseURL = DefaultGreenhouseBaseURL
	}
	return &GreenhouseScraper{
		client: client,
		base:   strings.TrimSuffix(baseURL, "/"),
		norm:   norm,
	}
}

func (g *GreenhouseScraper) FetchJobs(ctx context.Context, src source.Descriptor) ([]JobPosting, error) {
	apiURL := fmt.Sprintf("%s/v1/boards/%s/jobs", g.base, url.PathEscape(src.Locator))

	body, err := g.client.Get(ctx, apiURL, "application/json")
	if err != nil {
		return nil, fmt.Errorf("greenhouse fetch failed: %w", err)
	}

	var board greenhouseBoard
	if err := json.Unmarshal(body, &board); err != nil {
		return nil, fmt.Errorf("greenhouse decode failed: %w: %w", observability.ErrSchema, err)
	}
	if board.Jobs == nil {
		return nil, fmt.Errorf("greenhouse decode failed: %w: response has no jobs array", observability.ErrSchema)
	}

	jobs := make([]JobPosting, 0, len(*board.Jobs))
	for _, j := range *board.Jobs {
		if !g.norm.InRegion(j.Location.Name) {
			continue
		}
		dept := ""
		if len(j.Departments) > 0 {
			dept = j.Departments[0].Name
		}
		job := g.norm.Posting(src.Name, j.Title, j.Location.Name, dept, j.AbsoluteURL)
		if job.Title == "" || job.ApplyURL == "" {
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}
