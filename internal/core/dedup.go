package core

import "github.com/baxromumarov/job-board/internal/scraper"

// Dedup keeps the first posting seen for each apply URL, preserving order.
// It returns the survivors and how many postings were dropped.
func Dedup(jobs []scraper.JobPosting) ([]scraper.JobPosting, int) {
	seen := make(map[string]struct{}, len(jobs))
	out := make([]scraper.JobPosting, 0, len(jobs))
	for _, j := range jobs {
		if _, ok := seen[j.ApplyURL]; ok {
			continue
		}
		seen[j.ApplyURL] = struct{}{}
		out = append(out, j)
	}
	return out, len(jobs) - len(out)
}
