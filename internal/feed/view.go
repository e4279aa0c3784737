package feed

// View is the surface the presentation layer drives. It exposes the visible
// items and the operations that change them, and nothing of the pool or the
// fetch bookkeeping behind them.
type View interface {
	// Items returns a copy of the visible list.
	Items() []Item
	// IsLoading is true exactly when nothing is visible and a fetch is running.
	IsLoading() bool
	OnScroll(ev ScrollEvent)
	ToggleExpand(index int)
	IsExpanded(index int) bool
	ExtractThreshold() int
	Start()
	Reset()
}
