// Package wiki talks to the Wikipedia REST and Action APIs of a given locale.
package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is expanded per request with the locale as subdomain.
const DefaultBaseURL = "https://{lang}.wikipedia.org"

const defaultUserAgent = "wikifeed/1.0 (https://github.com/wikifeed/wikifeed)"

var metricRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "wikifeed_api_requests_total",
	Help: "The total number of requests sent to the content API",
}, []string{"endpoint", "status"})

// Options configures a Client. Zero values select defaults.
type Options struct {
	BaseURL           string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	HTTPClient        *http.Client
}

type Client struct {
	client    *http.Client
	baseURL   string
	userAgent string
	limiter   *rate.Limiter
}

func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}

	limit := rate.Inf
	burst := 1
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
		// a batch fans out at once; let it through in one burst
		burst = max(1, int(opts.RequestsPerSecond))
	}

	return &Client{
		client:    hc,
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		userAgent: opts.UserAgent,
		limiter:   rate.NewLimiter(limit, burst),
	}
}

// endpoint returns the API root for locale.
func (c *Client) endpoint(locale string) string {
	return strings.ReplaceAll(c.baseURL, "{lang}", locale)
}

// ArticleURL returns the reader link for title in locale.
func (c *Client) ArticleURL(locale, title string) string {
	return c.endpoint(locale) + "/wiki/" + url.PathEscape(strings.ReplaceAll(title, " ", "_"))
}

// get performs a rate limited GET and returns the response body. The caller
// owns closing it.
func (c *Client) get(ctx context.Context, name, rawURL string) (io.ReadCloser, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		metricRequests.WithLabelValues(name, "error").Inc()
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	if resp.StatusCode >= 400 {
		resp.Body.Close()
		metricRequests.WithLabelValues(name, "error").Inc()
		return nil, &StatusError{Code: resp.StatusCode, URL: rawURL}
	}
	metricRequests.WithLabelValues(name, "success").Inc()
	return resp.Body, nil
}

func (c *Client) getJSON(ctx context.Context, name, rawURL string, out any) error {
	body, err := c.get(ctx, name, rawURL)
	if err != nil {
		return err
	}
	defer body.Close()

	if err := json.NewDecoder(body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", name, err)
	}
	return nil
}

// actionURL builds an Action API query URL.
func (c *Client) actionURL(locale string, params url.Values) string {
	params.Set("format", "json")
	params.Set("formatversion", "2")
	return c.endpoint(locale) + "/w/api.php?" + params.Encode()
}

// StatusError reports an HTTP error response from the API.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api responded with status: %d", e.Code)
}
