package wiki

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// Featured is one entry of the daily featured-article feed.
type Featured struct {
	Title     string
	Extract   string
	Thumbnail string
	Link      string
	Published time.Time
}

// Featured fetches the featured-article feed of locale, newest entry first.
func (c *Client) Featured(ctx context.Context, locale string) ([]Featured, error) {
	params := url.Values{}
	params.Set("action", "featuredfeed")
	params.Set("feed", "featured")
	params.Set("feedformat", "atom")

	body, err := c.get(ctx, "featured", c.endpoint(locale)+"/w/api.php?"+params.Encode())
	if err != nil {
		return nil, err
	}
	defer body.Close()

	feed, err := gofeed.NewParser().Parse(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse featured feed: %w", err)
	}

	out := make([]Featured, 0, len(feed.Items))
	for i := len(feed.Items) - 1; i >= 0; i-- {
		item := feed.Items[i]
		html := item.Description
		if html == "" {
			html = item.Content
		}
		f, err := parseFeaturedHTML(html)
		if err != nil {
			continue
		}
		if f.Title == "" {
			f.Title = item.Title
		}
		f.Link = item.Link
		if item.PublishedParsed != nil {
			f.Published = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			f.Published = *item.UpdatedParsed
		}
		out = append(out, f)
	}
	return out, nil
}

// parseFeaturedHTML pulls the article title, the first paragraph and the lead
// image out of a featured-article blurb.
func parseFeaturedHTML(html string) (Featured, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Featured{}, err
	}
	stripNoise(doc.Selection)

	var f Featured
	f.Title = strings.TrimSpace(doc.Find("p b a").First().Text())
	if src, ok := doc.Find("img").First().Attr("src"); ok {
		if strings.HasPrefix(src, "//") {
			src = "https:" + src
		}
		f.Thumbnail = src
	}

	para := doc.Find("p").First()
	if para.Length() == 0 {
		f.Extract = CleanText(doc.Text())
	} else {
		f.Extract = CleanText(para.Text())
	}
	return f, nil
}

// stripNoise removes edit links, reference markers and citations below sel.
func stripNoise(sel *goquery.Selection) {
	sel.Find(".mw-editsection, .reference, .citation").Remove()
}

// CleanText collapses runs of whitespace and trims the result.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
