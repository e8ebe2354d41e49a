package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/scouthq/paperscout/internal/domain"
)

const (
	SourceID = "arxiv"

	defaultBaseURL = "http://export.arxiv.org/api/query"
)

// Adapter fetches recent papers from the arXiv Atom query API.
type Adapter struct {
	http     *resty.Client
	baseURL  string
	category string
}

// NewAdapter creates a new arXiv adapter for the given category, e.g. "cs.AI".
func NewAdapter(category string, timeout time.Duration) *Adapter {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/atom+xml")
	return &Adapter{
		http:     client,
		baseURL:  defaultBaseURL,
		category: category,
	}
}

// Name returns the stable source identifier.
func (a *Adapter) Name() string {
	return SourceID
}

// feed mirrors the subset of the Atom response we consume.
type feed struct {
	Entries []entry `xml:"entry"`
}

type entry struct {
	ID        string   `xml:"id"`
	Title     string   `xml:"title"`
	Summary   string   `xml:"summary"`
	Published string   `xml:"published"`
	Authors   []author `xml:"author"`
	Links     []link   `xml:"link"`
}

type author struct {
	Name string `xml:"name"`
}

type link struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

// Fetch queries the API for the newest submissions in the configured category.
func (a *Adapter) Fetch(ctx context.Context, limit int) ([]domain.Article, error) {
	resp, err := a.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"search_query": "cat:" + a.category,
			"sortBy":       "submittedDate",
			"sortOrder":    "descending",
			"start":        "0",
			"max_results":  fmt.Sprintf("%d", limit),
		}).
		Get(a.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to query arxiv: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("arxiv returned status %d", resp.StatusCode())
	}

	var f feed
	if err := xml.Unmarshal(resp.Body(), &f); err != nil {
		return nil, fmt.Errorf("failed to parse arxiv feed: %w", err)
	}

	articles := make([]domain.Article, 0, len(f.Entries))
	for _, e := range f.Entries {
		articles = append(articles, a.toArticle(e))
	}
	return articles, nil
}

func (a *Adapter) toArticle(e entry) domain.Article {
	article := domain.Article{
		Source:   SourceID,
		SourceID: sourceIDFromEntry(e.ID),
		Title:    collapseWhitespace(e.Title),
		Abstract: collapseWhitespace(e.Summary),
		URL:      e.ID,
	}

	names := make([]string, 0, len(e.Authors))
	for _, au := range e.Authors {
		if name := strings.TrimSpace(au.Name); name != "" {
			names = append(names, name)
		}
	}
	article.Authors = strings.Join(names, ", ")
	for _, l := range e.Links {
		if l.Rel == "alternate" && l.Href != "" {
			article.URL = l.Href
			break
		}
	}
	if ts, err := time.Parse(time.RFC3339, e.Published); err == nil {
		article.PublishedAt = &ts
	}
	return article
}

// sourceIDFromEntry extracts the bare paper identifier from an Atom entry ID
// like "http://arxiv.org/abs/2401.12345v2".
func sourceIDFromEntry(id string) string {
	if i := strings.LastIndex(id, "/abs/"); i >= 0 {
		return id[i+len("/abs/"):]
	}
	return id
}

// collapseWhitespace squashes the feed's hard-wrapped text into single-spaced
// prose.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
