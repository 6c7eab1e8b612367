package urlutil

import (
	"net/url"
	"strings"
)

var atsHosts = []string{
	"boards.greenhouse.io",
	"greenhouse.io",
	"jobs.lever.co",
	"lever.co",
	"jobs.ashbyhq.com",
	"ashbyhq.com",
	"workdayjobs.com",
	"myworkdayjobs.com",
	"smartrecruiters.com",
	"bamboohr.com",
	"workable.com",
}

var skippedSchemes = []string{"mailto:", "tel:", "javascript:", "data:"}

// Resolve turns href into an absolute http(s) URL relative to base.
// It reports false for links that cannot lead to a posting.
func Resolve(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}
	lower := strings.ToLower(href)
	for _, scheme := range skippedSchemes {
		if strings.HasPrefix(lower, scheme) {
			return "", false
		}
	}

	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	if u.Host == "" {
		return "", false
	}
	return u.String(), true
}

// IsATSHost reports whether host belongs to a hosted applicant tracking system.
func IsATSHost(host string) bool {
	h := NormalizeHost(host)
	for _, ats := range atsHosts {
		if strings.Contains(h, ats) {
			return true
		}
	}
	return false
}

// ATSKind names the structured adapter that serves host, if any.
func ATSKind(host string) string {
	h := NormalizeHost(host)
	switch {
	case strings.Contains(h, "lever.co"):
		return "lever"
	case strings.Contains(h, "greenhouse.io"):
		return "greenhouse"
	}
	return ""
}

func NormalizeHost(host string) string {
	host = strings.ToLower(host)
	host = strings.TrimPrefix(host, "www.")
	return host
}

// HostKey is the per-host bucket used by rate limiters.
func HostKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "default"
	}
	return NormalizeHost(u.Hostname())
}
