package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/baxromumarov/job-board/internal/observability"
	"github.com/baxromumarov/job-board/internal/source"
	"github.com/baxromumarov/job-board/internal/urlutil"
)

// titleSeparator splits "Title – Location" anchor text.
const titleSeparator = "–"

// PageFetcher retrieves a raw career page. The returned URL is the page's
// final location and serves as the base for relative links.
type PageFetcher interface {
	FetchBytes(ctx context.Context, rawURL string) ([]byte, *url.URL, error)
}

// GenericScraper extracts postings from arbitrary career pages by looking
// at anchors and the text of their nearest list item, block or table row.
type GenericScraper struct {
	fetcher PageFetcher
	norm    *Normalizer
}

func NewGenericScraper(fetcher PageFetcher, norm *Normalizer) *GenericScraper {
	return &GenericScraper{
		fetcher: fetcher,
		norm:    norm,
	}
}

func (s *GenericScraper) FetchJobs(ctx context.Context, src source.Descriptor) ([]JobPosting, error) {
	body, final, err := s.fetcher.FetchBytes(ctx, src.Locator)
	if err != nil {
		return nil, fmt.Errorf("page fetch failed: %w", err)
	}

	base := final
	if base == nil {
		base, err = url.Parse(src.Locator)
		if err != nil {
			return nil, fmt.Errorf("page parse url failed: %w", err)
		}
	}
	return s.Parse(body, base, src.Name)
}

// Parse runs the anchor heuristic over an already fetched document.
func (s *GenericScraper) Parse(body []byte, base *url.URL, company string) ([]JobPosting, error) {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("page parse failed: %w: %w", observability.ErrSchema, err)
	}
	doc := goquery.NewDocumentFromNode(root)

	seen := make(map[string]struct{})
	jobs := make([]JobPosting, 0)

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		snippet := s.norm.Clean(visibleText(a.Get(0)))
		if snippet == "" {
			return
		}

		surrounding := ""
		if block := a.Closest("li,div,tr"); block.Length() > 0 {
			surrounding = visibleText(block.Get(0))
		}
		if !s.norm.InRegion(snippet + " " + surrounding) {
			return
		}

		href, _ := a.Attr("href")
		link, ok := urlutil.Resolve(base, href)
		if !ok {
			return
		}
		if _, dup := seen[link]; dup {
			return
		}

		title, location, _ := strings.Cut(snippet, titleSeparator)
		job := s.norm.Posting(company, title, location, "", link)
		if job.Title == "" {
			return
		}

		seen[link] = struct{}{}
		jobs = append(jobs, job)
	})

	return jobs, nil
}

// visibleText concatenates the text nodes under n, skipping script-like elements.
func visibleText(n *html.Node) string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
			return
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Template, atom.Noscript:
				return
			}
		case html.CommentNode:
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
