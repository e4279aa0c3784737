package wiki

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
)

// Thumbnail is an image reference as returned by the API.
type Thumbnail struct {
	Source string `json:"source"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Summary is the raw page summary payload. Fields are validated by callers;
// nothing here is guaranteed to be set.
type Summary struct {
	Type        string     `json:"type"`
	Title       string     `json:"title"`
	Extract     string     `json:"extract"`
	Description string     `json:"description"`
	Lang        string     `json:"lang"`
	Thumbnail   *Thumbnail `json:"thumbnail"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

// PageURL returns the desktop link of the summary, if any.
func (s *Summary) PageURL() string {
	return s.ContentURLs.Desktop.Page
}

// RandomSummary fetches the summary of a random article.
func (c *Client) RandomSummary(ctx context.Context, locale string) (*Summary, error) {
	var s Summary
	if err := c.getJSON(ctx, "random", c.endpoint(locale)+"/api/rest_v1/page/random/summary", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Page is one result of an Action API page query.
type Page struct {
	PageID      int        `json:"pageid"`
	Title       string     `json:"title"`
	Extract     string     `json:"extract"`
	Description string     `json:"description"`
	Thumbnail   *Thumbnail `json:"thumbnail"`
	Index       int        `json:"index"`
	Missing     bool       `json:"missing"`
}

type queryResponse struct {
	Query struct {
		Pages []Page `json:"pages"`
	} `json:"query"`
}

// PlainText fetches the full plain-text body of title.
func (c *Client) PlainText(ctx context.Context, locale, title string) (string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("prop", "extracts")
	params.Set("explaintext", "1")
	params.Set("titles", title)

	var resp queryResponse
	if err := c.getJSON(ctx, "extract", c.actionURL(locale, params), &resp); err != nil {
		return "", err
	}
	for _, p := range resp.Query.Pages {
		if !p.Missing {
			return p.Extract, nil
		}
	}
	return "", fmt.Errorf("page %q not found", title)
}

// Search runs a full-text search and returns up to limit pages in rank order,
// each with intro extract, description and a 200px thumbnail.
func (c *Client) Search(ctx context.Context, locale, query string, limit, offset int) ([]Page, error) {
	if limit <= 0 {
		limit = 10
	}
	params := url.Values{}
	params.Set("action", "query")
	params.Set("generator", "search")
	params.Set("gsrsearch", query)
	params.Set("gsrlimit", strconv.Itoa(limit))
	if offset > 0 {
		params.Set("gsroffset", strconv.Itoa(offset))
	}
	params.Set("prop", "pageimages|description|extracts")
	params.Set("piprop", "thumbnail")
	params.Set("pithumbsize", "200")
	params.Set("pilimit", strconv.Itoa(limit))
	params.Set("exintro", "1")
	params.Set("explaintext", "1")
	params.Set("exlimit", strconv.Itoa(limit))

	var resp queryResponse
	if err := c.getJSON(ctx, "search", c.actionURL(locale, params), &resp); err != nil {
		return nil, err
	}

	pages := resp.Query.Pages
	sort.SliceStable(pages, func(i, j int) bool {
		return pages[i].Index < pages[j].Index
	})
	return pages, nil
}
