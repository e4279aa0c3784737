package feed

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"wikifeed/internal/lang"
	"wikifeed/internal/wiki"
)

var (
	metricItemFetch = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wikifeed_item_fetch_total",
		Help: "The total number of item fetches by outcome",
	}, []string{"locale", "status"})

	metricFetchAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wikifeed_item_fetch_attempts_total",
		Help: "The total number of item fetch attempts, retries included",
	})
)

const (
	DefaultFetchTimeout  = 3 * time.Second
	DefaultFetchAttempts = 3

	// topic results are sampled from the first topicSpread search hits
	topicSpread = 50
)

// Source is the content API the fetcher reads from. *wiki.Client implements it.
type Source interface {
	RandomSummary(ctx context.Context, locale string) (*wiki.Summary, error)
	Search(ctx context.Context, locale, query string, limit, offset int) ([]wiki.Page, error)
	PlainText(ctx context.Context, locale, title string) (string, error)
	ArticleURL(locale, title string) string
}

type FetcherOptions struct {
	Timeout  time.Duration
	Attempts int
	// FullText fetches the article body after the summary, for reading time.
	FullText bool
	// Topics returns the followed topics; nil or empty means random only.
	Topics func() []string
}

// Fetcher fetches single items. It never fails a caller on ordinary network
// errors: exhausted retries yield a nil item.
type Fetcher struct {
	source   Source
	timeout  time.Duration
	attempts int
	fullText bool
	topics   func() []string
}

func NewFetcher(source Source, opts FetcherOptions) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultFetchTimeout
	}
	if opts.Attempts <= 0 {
		opts.Attempts = DefaultFetchAttempts
	}
	return &Fetcher{
		source:   source,
		timeout:  opts.Timeout,
		attempts: opts.Attempts,
		fullText: opts.FullText,
		topics:   opts.Topics,
	}
}

// FetchOne returns a validated item in locale, or in the base locale when
// locale yields nothing usable. It returns nil once the retry budget is spent
// or ctx is done.
func (f *Fetcher) FetchOne(ctx context.Context, locale string) *Item {
	logger := slog.With("locale", locale)

	for attempt := 1; attempt <= f.attempts; attempt++ {
		if ctx.Err() != nil {
			return nil
		}
		metricFetchAttempts.Inc()

		item, usedFallback, err := f.attempt(ctx, locale)
		if err != nil {
			logger.Debug("Item fetch failed", "attempt", attempt, "error", err)
			continue
		}

		status := "success"
		if usedFallback {
			status = "fallback"
		}
		metricItemFetch.WithLabelValues(locale, status).Inc()

		if f.fullText {
			f.enrich(ctx, item)
		}
		return item
	}

	metricItemFetch.WithLabelValues(locale, "failed").Inc()
	logger.Warn("Giving up on item", "attempts", f.attempts)
	return nil
}

func (f *Fetcher) attempt(ctx context.Context, locale string) (*Item, bool, error) {
	fetch := f.fetchRandom
	if topic := f.pickTopic(); topic != "" {
		fetch = func(ctx context.Context, locale string) (*Item, error) {
			return f.fetchTopic(ctx, locale, topic)
		}
	}

	// each locale hop gets its own deadline
	hop := func(ctx context.Context, locale string) (*Item, error) {
		ctx, cancel := context.WithTimeout(ctx, f.timeout)
		defer cancel()
		return fetch(ctx, locale)
	}

	res, err := lang.Fetch(ctx, hop, locale, validItem)
	if err != nil {
		return nil, res.UsedFallback, err
	}
	if !validItem(res.Value) {
		return nil, res.UsedFallback, errMalformed
	}
	return res.Value, res.UsedFallback, nil
}

func (f *Fetcher) fetchRandom(ctx context.Context, locale string) (*Item, error) {
	s, err := f.source.RandomSummary(ctx, locale)
	if err != nil {
		return nil, err
	}
	return itemFromSummary(s, locale)
}

func (f *Fetcher) fetchTopic(ctx context.Context, locale, topic string) (*Item, error) {
	pages, err := f.source.Search(ctx, locale, topic, 1, rand.IntN(topicSpread))
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, errMalformed
	}
	return itemFromPage(pages[0], locale, f.source.ArticleURL(locale, pages[0].Title))
}

// pickTopic chooses uniformly between random content ("") and each followed
// topic.
func (f *Fetcher) pickTopic() string {
	if f.topics == nil {
		return ""
	}
	topics := f.topics()
	if len(topics) == 0 {
		return ""
	}
	n := rand.IntN(len(topics) + 1)
	if n == 0 {
		return ""
	}
	return topics[n-1]
}

// enrich adds the article body. A failure leaves the item as it was.
func (f *Fetcher) enrich(ctx context.Context, item *Item) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	text, err := f.source.PlainText(ctx, item.Lang, item.Title)
	if err != nil {
		slog.Debug("Full text unavailable", "title", item.Title, "error", err)
		return
	}
	item.FullText = text
}
