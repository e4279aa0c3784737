package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"
)

var (
	metricBatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wikifeed_batch_total",
		Help: "The total number of batch fetches by outcome",
	}, []string{"status"})

	metricPoolSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wikifeed_pool_size",
		Help: "Items fetched and waiting to be shown",
	})

	metricVisible = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wikifeed_visible_items",
		Help: "Items currently shown in the feed",
	})
)

const (
	DefaultBatchSize        = 10
	DefaultThreshold        = 5.0
	DefaultExtractThreshold = 150
	DefaultBackoffMin       = time.Second
	DefaultBackoffMax       = 30 * time.Second
)

// ItemFetcher fetches one item; nil means the item could not be fetched.
type ItemFetcher interface {
	FetchOne(ctx context.Context, locale string) *Item
}

type BufferOptions struct {
	Locale string
	// BatchSize is both the number of items requested per batch and the
	// pool low-water mark.
	BatchSize int
	// Concurrency caps parallel item fetches within a batch; 0 means BatchSize.
	Concurrency int
	// Threshold is the remaining distance, in viewport heights, below which
	// a scroll drains the pool.
	Threshold        float64
	ExtractThreshold int
	// BackoffMin delays the automatic refill after a batch that produced no
	// items, doubling per consecutive empty batch up to BackoffMax. Zero
	// refills immediately.
	BackoffMin time.Duration
	BackoffMax time.Duration
	// OnChange is called without locks held after a background batch changed
	// the buffer.
	OnChange func()
}

// ScrollEvent describes the reader's position in the rendered feed. Units are
// arbitrary but must agree across the three fields.
type ScrollEvent struct {
	Offset   float64
	Viewport float64
	Content  float64
}

// NearEnd reports whether less than threshold viewports of content remain
// below the viewport.
func (e ScrollEvent) NearEnd(threshold float64) bool {
	remaining := e.Content - (e.Offset + e.Viewport)
	if e.Viewport <= 0 {
		return remaining <= 0
	}
	return remaining < threshold*e.Viewport
}

// Buffer keeps a pool of prefetched items ahead of the visible list. At most
// one batch is in flight per generation; Reset starts a new generation and
// results of older batches are dropped when they land.
type Buffer struct {
	fetcher ItemFetcher
	opts    BufferOptions
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	locale     string
	visible    []Item
	pool       []Item
	expansion  Expansion
	inFlight   bool
	generation uint64
	issued     int
	failures   int
	retry      *time.Timer
	started    bool
	closed     bool
}

var _ View = (*Buffer)(nil)

// NewBuffer creates an idle buffer. Batches run until ctx is cancelled or
// Close is called.
func NewBuffer(ctx context.Context, fetcher ItemFetcher, opts BufferOptions) *Buffer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = opts.BatchSize
	}
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.ExtractThreshold <= 0 {
		opts.ExtractThreshold = DefaultExtractThreshold
	}
	if opts.BackoffMax < opts.BackoffMin {
		opts.BackoffMax = opts.BackoffMin
	}
	if opts.Locale == "" {
		opts.Locale = "en"
	}

	ctx, cancel := context.WithCancel(ctx)
	return &Buffer{
		fetcher: fetcher,
		opts:    opts,
		logger:  slog.With("component", "buffer"),
		ctx:     ctx,
		cancel:  cancel,
		locale:  opts.Locale,
	}
}

// Start issues the initial batch. The first batch to land while the visible
// list is empty is shown in full. Calling Start again before Reset is a no-op.
func (b *Buffer) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started || b.closed {
		return
	}
	b.started = true
	b.startBatchLocked("init")
}

// OnScroll drains the pool into the visible list and requests a refill once
// the reader nears the end of the content.
func (b *Buffer) OnScroll(ev ScrollEvent) {
	if !ev.NearEnd(b.opts.Threshold) {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	if len(b.pool) > 0 {
		b.drainLocked()
		b.updateGaugesLocked()
	}
	b.startBatchLocked("scroll")
}

// Reset clears the visible list, the pool and the expansion state. Batches
// already in flight are not aborted; their results are discarded. Start
// must be called again to repopulate.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.generation++
	b.visible = nil
	b.pool = nil
	b.expansion.Clear()
	b.inFlight = false
	b.failures = 0
	b.started = false
	b.stopRetryLocked()
	b.updateGaugesLocked()
	b.logger.Info("Feed reset", "generation", b.generation)
}

// SetLocale switches the content locale. The feed is reset when it changes.
func (b *Buffer) SetLocale(locale string) {
	b.mu.Lock()
	same := locale == b.locale
	b.locale = locale
	b.mu.Unlock()

	if !same {
		b.Reset()
		b.Start()
	}
}

func (b *Buffer) Locale() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.locale
}

// Close stops background work and waits for running batches to return.
func (b *Buffer) Close() {
	b.mu.Lock()
	b.closed = true
	b.stopRetryLocked()
	b.mu.Unlock()

	b.cancel()
	b.wg.Wait()
}

func (b *Buffer) Items() []Item {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Item, len(b.visible))
	copy(out, b.visible)
	return out
}

// IsLoading is true while nothing is visible and a batch is in flight.
func (b *Buffer) IsLoading() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.visible) == 0 && b.inFlight
}

func (b *Buffer) ToggleExpand(index int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if index < 0 || index >= len(b.visible) {
		return
	}
	b.expansion.Toggle(index)
}

func (b *Buffer) IsExpanded(index int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if index < 0 || index >= len(b.visible) {
		return false
	}
	return b.expansion.IsExpanded(index, b.visible[index], b.opts.ExtractThreshold)
}

func (b *Buffer) ExtractThreshold() int {
	return b.opts.ExtractThreshold
}

// startBatchLocked marks a batch in flight and launches it. It reports false
// when a batch of the current generation is already running.
func (b *Buffer) startBatchLocked(reason string) bool {
	if b.inFlight || b.closed {
		return false
	}
	b.inFlight = true
	b.issued++
	b.stopRetryLocked()

	gen, locale, n := b.generation, b.locale, b.issued
	b.logger.Debug("Issuing batch", "batch", n, "reason", reason, "generation", gen, "pool", len(b.pool))

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		items := b.fetchBatch(locale)
		b.finishBatch(gen, n, items)
	}()
	return true
}

// fetchBatch runs one batch of concurrent item fetches. Results are kept in
// completion order and failed fetches are dropped.
func (b *Buffer) fetchBatch(locale string) []Item {
	var (
		mu    sync.Mutex
		items = make([]Item, 0, b.opts.BatchSize)
	)

	var g errgroup.Group
	g.SetLimit(b.opts.Concurrency)
	for range b.opts.BatchSize {
		g.Go(func() error {
			item := b.fetcher.FetchOne(b.ctx, locale)
			if item == nil || item.Title == "" {
				return nil
			}
			mu.Lock()
			items = append(items, *item)
			mu.Unlock()
			return nil // one bad item never fails the batch
		})
	}
	_ = g.Wait()
	return items
}

func (b *Buffer) finishBatch(gen uint64, n int, items []Item) {
	b.mu.Lock()

	if b.closed {
		b.mu.Unlock()
		return
	}
	if gen != b.generation {
		b.mu.Unlock()
		metricBatches.WithLabelValues("stale").Inc()
		b.logger.Debug("Discarding stale batch", "batch", n, "generation", gen)
		return
	}

	b.inFlight = false
	if len(items) == 0 {
		b.failures++
		metricBatches.WithLabelValues("empty").Inc()
		b.logger.Warn("Batch produced no items", "batch", n, "consecutive", b.failures)
	} else {
		b.failures = 0
		metricBatches.WithLabelValues("complete").Inc()
		b.logger.Debug("Batch complete", "batch", n, "items", len(items))
	}

	b.pool = append(b.pool, items...)
	if len(b.visible) == 0 {
		b.drainLocked()
	}
	b.watchdogLocked()
	b.updateGaugesLocked()
	b.mu.Unlock()

	if b.opts.OnChange != nil {
		b.opts.OnChange()
	}
}

// watchdogLocked refills the pool whenever it is below the batch size.
func (b *Buffer) watchdogLocked() {
	if len(b.pool) >= b.opts.BatchSize || b.inFlight {
		return
	}
	if b.failures == 0 || b.opts.BackoffMin <= 0 {
		b.startBatchLocked("refill")
		return
	}
	if b.retry != nil {
		return
	}

	delay := b.backoffLocked()
	gen := b.generation
	b.logger.Info("Backing off before refill", "delay", delay, "consecutive", b.failures)
	b.retry = time.AfterFunc(delay, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if gen != b.generation {
			return
		}
		b.retry = nil
		b.startBatchLocked("retry")
	})
}

func (b *Buffer) backoffLocked() time.Duration {
	d := b.opts.BackoffMin
	for i := 1; i < b.failures && d < b.opts.BackoffMax; i++ {
		d *= 2
	}
	return min(d, b.opts.BackoffMax)
}

func (b *Buffer) stopRetryLocked() {
	if b.retry != nil {
		b.retry.Stop()
		b.retry = nil
	}
}

// drainLocked moves the whole pool to the end of the visible list.
func (b *Buffer) drainLocked() {
	b.visible = append(b.visible, b.pool...)
	b.pool = nil
}

func (b *Buffer) updateGaugesLocked() {
	metricPoolSize.Set(float64(len(b.pool)))
	metricVisible.Set(float64(len(b.visible)))
}
