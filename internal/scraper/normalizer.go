package scraper

import (
	"strings"
)

// CategoryOther is used when a source carries no category.
const CategoryOther = "Other"

// DefaultRegions are the target-region tokens used when none are configured.
var DefaultRegions = []string{"canada", "usa"}

// Normalizer holds the shaping rules shared by every adapter.
type Normalizer struct {
	regions []string
}

// NewNormalizer lowercases and de-duplicates the region tokens. An empty
// list falls back to DefaultRegions.
func NewNormalizer(regions []string) *Normalizer {
	seen := make(map[string]struct{}, len(regions))
	var tokens []string
	for _, r := range regions {
		r = strings.ToLower(strings.TrimSpace(r))
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		tokens = append(tokens, r)
	}
	if len(tokens) == 0 {
		tokens = append(tokens, DefaultRegions...)
	}
	return &Normalizer{regions: tokens}
}

func (n *Normalizer) Regions() []string {
	out := make([]string, len(n.regions))
	copy(out, n.regions)
	return out
}

// Clean trims surrounding whitespace. Clean(Clean(s)) == Clean(s).
func (n *Normalizer) Clean(s string) string {
	return strings.TrimSpace(s)
}

// Category returns the trimmed category or CategoryOther.
func (n *Normalizer) Category(s string) string {
	if c := n.Clean(s); c != "" {
		return c
	}
	return CategoryOther
}

// InRegion reports whether text mentions any target region, ignoring case.
func (n *Normalizer) InRegion(text string) bool {
	lower := strings.ToLower(text)
	for _, r := range n.regions {
		if strings.Contains(lower, r) {
			return true
		}
	}
	return false
}

// Posting assembles a JobPosting with every free-text field cleaned.
func (n *Normalizer) Posting(company, title, location, category, applyURL string) JobPosting {
	return JobPosting{
		Company:  company,
		Title:    n.Clean(title),
		Location: n.Clean(location),
		Category: n.Category(category),
		ApplyURL: n.Clean(applyURL),
	}
}
