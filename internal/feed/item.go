// Package feed implements the prefetching article feed: the remote item
// fetcher, the prefetch buffer that keeps a pool of ready items ahead of the
// reader, and the per-item expansion state the presentation layer reads.
package feed

import (
	"errors"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"wikifeed/internal/wiki"
)

// Thumbnail is the lead image of an item.
type Thumbnail struct {
	URL    string `json:"source"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Item is one article in the feed. Title identifies the item for saving and
// deduplication. Items are not modified after they are fetched.
type Item struct {
	Title       string     `json:"title"`
	Summary     string     `json:"extract"`
	FullText    string     `json:"content,omitempty"`
	Description string     `json:"description,omitempty"`
	Lang        string     `json:"lang,omitempty"`
	PageURL     string     `json:"url,omitempty"`
	Thumbnail   *Thumbnail `json:"thumbnail,omitempty"`
}

var errMalformed = errors.New("malformed payload")

// itemFromSummary maps a raw summary onto an Item, failing on missing
// required fields.
func itemFromSummary(s *wiki.Summary, locale string) (*Item, error) {
	if s == nil {
		return nil, errMalformed
	}
	item := &Item{
		Title:       strings.TrimSpace(s.Title),
		Summary:     strings.TrimSpace(s.Extract),
		Description: s.Description,
		Lang:        s.Lang,
		PageURL:     s.PageURL(),
	}
	if item.Lang == "" {
		item.Lang = locale
	}
	if s.Thumbnail != nil && s.Thumbnail.Source != "" {
		item.Thumbnail = &Thumbnail{URL: s.Thumbnail.Source, Width: s.Thumbnail.Width, Height: s.Thumbnail.Height}
	}
	if !validItem(item) {
		return nil, errMalformed
	}
	return item, nil
}

func itemFromPage(p wiki.Page, locale, pageURL string) (*Item, error) {
	item := &Item{
		Title:       strings.TrimSpace(p.Title),
		Summary:     strings.TrimSpace(p.Extract),
		Description: p.Description,
		Lang:        locale,
		PageURL:     pageURL,
	}
	if p.Thumbnail != nil && p.Thumbnail.Source != "" {
		item.Thumbnail = &Thumbnail{URL: p.Thumbnail.Source, Width: p.Thumbnail.Width, Height: p.Thumbnail.Height}
	}
	if !validItem(item) {
		return nil, errMalformed
	}
	return item, nil
}

func validItem(item *Item) bool {
	return item != nil && item.Title != "" && item.Summary != ""
}

// IsShort reports whether the summary fits within threshold characters and
// so never needs a truncation affordance.
func IsShort(item Item, threshold int) bool {
	return utf8.RuneCountInString(item.Summary) <= threshold
}

// Truncate returns the summary cut to threshold characters with an ellipsis.
func Truncate(item Item, threshold int) string {
	if IsShort(item, threshold) {
		return item.Summary
	}
	r := []rune(item.Summary)
	return string(r[:threshold]) + "..."
}

const wordsPerMinute = 200

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

// ReadingTime estimates minutes to read the item, using the full text when
// it was fetched. Anything under half a minute reports 0.5; longer texts
// round up to whole minutes.
func ReadingTime(item Item) float64 {
	text := item.FullText
	if text == "" {
		text = item.Summary
	}
	words := len(strings.Fields(htmlTagRe.ReplaceAllString(text, "")))
	minutes := float64(words) / wordsPerMinute
	if minutes < 0.5 {
		return 0.5
	}
	return math.Ceil(minutes)
}
