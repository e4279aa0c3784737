package wiki

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// MainPage is the page that carries the "In the news" box. Only the English
// edition marks it with #mp-itn.
const MainPage = "Main_Page"

// NewsItem is one entry of the main page's "In the news" box.
type NewsItem struct {
	Title   string
	Extract string
}

type parseResponse struct {
	Parse struct {
		Title string `json:"title"`
		Text  string `json:"text"`
	} `json:"parse"`
}

// InTheNews fetches the rendered main page of locale and returns its
// "In the news" entries in page order. A page without the box yields an
// empty list.
func (c *Client) InTheNews(ctx context.Context, locale string) ([]NewsItem, error) {
	params := url.Values{}
	params.Set("action", "parse")
	params.Set("page", MainPage)
	params.Set("prop", "text")

	var resp parseResponse
	if err := c.getJSON(ctx, "news", c.actionURL(locale, params), &resp); err != nil {
		return nil, err
	}
	return parseNewsHTML(resp.Parse.Text)
}

func parseNewsHTML(html string) ([]NewsItem, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse main page: %w", err)
	}

	var out []NewsItem
	doc.Find("#mp-itn ul li").Each(func(_ int, li *goquery.Selection) {
		stripNoise(li)
		n := NewsItem{
			Title:   CleanText(li.Find("b").First().Text()),
			Extract: CleanText(li.Text()),
		}
		if n.Extract != "" {
			out = append(out, n)
		}
	})
	return out, nil
}
