package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"wikifeed/internal/feed"
	"wikifeed/internal/state"
	"wikifeed/internal/wiki"
)

type fakeView struct {
	items    []feed.Item
	loading  bool
	scrolls  []feed.ScrollEvent
	toggled  []int
	expanded map[int]bool
	starts   int
	resets   int
}

func (v *fakeView) Items() []feed.Item { return append([]feed.Item(nil), v.items...) }
func (v *fakeView) IsLoading() bool    { return v.loading }
func (v *fakeView) OnScroll(ev feed.ScrollEvent) {
	v.scrolls = append(v.scrolls, ev)
}
func (v *fakeView) ToggleExpand(index int) {
	v.toggled = append(v.toggled, index)
	if v.expanded == nil {
		v.expanded = make(map[int]bool)
	}
	v.expanded[index] = !v.expanded[index]
}
func (v *fakeView) IsExpanded(index int) bool { return v.expanded[index] }
func (v *fakeView) ExtractThreshold() int     { return feed.DefaultExtractThreshold }
func (v *fakeView) Start()                    { v.starts++ }
func (v *fakeView) Reset() {
	v.resets++
	v.items = nil
}

type fakeWiki struct {
	pages       []wiki.Page
	featured    []wiki.Featured
	news        []wiki.NewsItem
	err         error
	queries     []string
	newsLocales []string
}

func (w *fakeWiki) Search(_ context.Context, _, query string, _, _ int) ([]wiki.Page, error) {
	w.queries = append(w.queries, query)
	return w.pages, w.err
}

func (w *fakeWiki) Featured(context.Context, string) ([]wiki.Featured, error) {
	return w.featured, w.err
}

func (w *fakeWiki) InTheNews(_ context.Context, locale string) ([]wiki.NewsItem, error) {
	w.newsLocales = append(w.newsLocales, locale)
	return w.news, w.err
}

func (w *fakeWiki) ArticleURL(locale, title string) string {
	return "https://" + locale + ".example.org/wiki/" + title
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestApp(t *testing.T, view *fakeView, w *fakeWiki) App {
	t.Helper()
	store := state.NewMemoryStore()
	bookmarks, err := state.LoadBookmarks(context.Background(), store)
	if err != nil {
		t.Fatalf("LoadBookmarks: %v", err)
	}
	topics, err := state.LoadTopics(context.Background(), store)
	if err != nil {
		t.Fatalf("LoadTopics: %v", err)
	}
	return NewApp(Config{
		Feed:      view,
		Bookmarks: bookmarks,
		Topics:    topics,
		Wiki:      w,
		Locale:    "en",
		Languages: []string{"en", "es"},
	})
}

func update(t *testing.T, a App, msg tea.Msg) (App, tea.Cmd) {
	t.Helper()
	m, cmd := a.Update(msg)
	app, ok := m.(App)
	if !ok {
		t.Fatalf("Update returned %T", m)
	}
	return app, cmd
}

// runCmd executes cmd and feeds the resulting messages back, unpacking batches.
func runCmd(t *testing.T, a App, cmd tea.Cmd) App {
	t.Helper()
	if cmd == nil {
		return a
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			a = runCmd(t, a, c)
		}
		return a
	}
	a, _ = update(t, a, msg)
	return a
}

func feedItems(n int) []feed.Item {
	items := make([]feed.Item, n)
	for i := range items {
		items[i] = feed.Item{Title: string(rune('A' + i)), Summary: "summary"}
	}
	return items
}

func TestFeedChangedReadsItems(t *testing.T) {
	view := &fakeView{items: feedItems(3)}
	a := newTestApp(t, view, &fakeWiki{})

	a, _ = update(t, a, FeedChanged{})
	if len(a.items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(a.items))
	}
	if len(view.scrolls) != 0 {
		t.Errorf("feed change must not report a scroll, got %d", len(view.scrolls))
	}
}

func TestMovingReportsScroll(t *testing.T) {
	view := &fakeView{items: feedItems(2)}
	a := newTestApp(t, view, &fakeWiki{})
	a, _ = update(t, a, FeedChanged{})

	a, _ = update(t, a, runes("j"))
	a, _ = update(t, a, runes("j"))
	if a.Cursor() != 1 {
		t.Errorf("cursor should stop at the last item, got %d", a.Cursor())
	}
	if len(view.scrolls) != 2 {
		t.Fatalf("expected 2 scroll events, got %d", len(view.scrolls))
	}
	want := feed.ScrollEvent{Offset: 1, Viewport: 1, Content: 2}
	if got := view.scrolls[1]; got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestScrollPicksUpDrainedItems(t *testing.T) {
	view := &fakeView{items: feedItems(1)}
	a := newTestApp(t, view, &fakeWiki{})
	a, _ = update(t, a, FeedChanged{})

	// the buffer drains synchronously inside OnScroll
	view.items = feedItems(5)
	a, _ = update(t, a, runes("j"))
	if len(a.items) != 5 {
		t.Errorf("expected 5 items after scroll, got %d", len(a.items))
	}
}

func TestExpandTogglesCurrentCard(t *testing.T) {
	view := &fakeView{items: feedItems(3)}
	a := newTestApp(t, view, &fakeWiki{})
	a, _ = update(t, a, FeedChanged{})
	a, _ = update(t, a, runes("j"))

	a, _ = update(t, a, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if len(view.toggled) != 1 || view.toggled[0] != 1 {
		t.Errorf("expected toggle of index 1, got %v", view.toggled)
	}
}

func TestResetRestartsFeed(t *testing.T) {
	view := &fakeView{items: feedItems(3)}
	a := newTestApp(t, view, &fakeWiki{})
	a, _ = update(t, a, FeedChanged{})
	a, _ = update(t, a, runes("j"))

	a, _ = update(t, a, runes("R"))
	if view.resets != 1 || view.starts != 1 {
		t.Errorf("expected one reset and one start, got %d and %d", view.resets, view.starts)
	}
	if len(a.items) != 0 || a.Cursor() != 0 {
		t.Errorf("expected cleared feed, got %d items at %d", len(a.items), a.Cursor())
	}
}

func TestLanguageCycles(t *testing.T) {
	view := &fakeView{items: feedItems(1)}
	a := newTestApp(t, view, &fakeWiki{})
	var got []string
	a.cfg.SetLocale = func(l string) { got = append(got, l) }

	a, _ = update(t, a, runes("L"))
	a, _ = update(t, a, runes("L"))
	if strings.Join(got, ",") != "es,en" {
		t.Errorf("expected es,en, got %v", got)
	}
}

func TestSaveCurrentItem(t *testing.T) {
	view := &fakeView{items: feedItems(2)}
	a := newTestApp(t, view, &fakeWiki{})
	a, _ = update(t, a, FeedChanged{})

	a, cmd := update(t, a, runes("s"))
	if cmd == nil {
		t.Fatal("expected a save command")
	}
	a, _ = update(t, a, cmd())
	if !a.cfg.Bookmarks.IsSaved("A") {
		t.Error("expected A to be saved")
	}
	if !strings.Contains(a.View(), "★") {
		t.Error("expected the saved marker on the card")
	}
}

func TestSavedTabFilterAndRead(t *testing.T) {
	view := &fakeView{}
	a := newTestApp(t, view, &fakeWiki{})
	ctx := context.Background()
	for _, it := range feedItems(2) {
		if _, err := a.cfg.Bookmarks.Toggle(ctx, it); err != nil {
			t.Fatalf("Toggle: %v", err)
		}
	}

	a, _ = update(t, a, tea.KeyMsg{Type: tea.KeyTab})
	if a.Tab() != TabSaved {
		t.Fatalf("expected saved tab, got %v", a.Tab())
	}

	a, cmd := update(t, a, runes("m"))
	if cmd == nil {
		t.Fatal("expected a read command")
	}
	a, _ = update(t, a, cmd())

	a, _ = update(t, a, runes("f"))
	if a.savedFilter != state.FilterUnread {
		t.Fatalf("expected unread filter, got %v", a.savedFilter)
	}
	out := a.View()
	if strings.Contains(out, "○ A") || !strings.Contains(out, "○ B") {
		t.Errorf("unread view should list only B:\n%s", out)
	}
}

func TestSearchDebounce(t *testing.T) {
	w := &fakeWiki{pages: []wiki.Page{{Title: "Go", Extract: "A language", Index: 1}}}
	a := newTestApp(t, &fakeView{}, w)

	a, _ = update(t, a, tea.KeyMsg{Type: tea.KeyShiftTab})
	a, _ = update(t, a, tea.KeyMsg{Type: tea.KeyShiftTab})
	if a.Tab() != TabSearch {
		t.Fatalf("expected search tab, got %v", a.Tab())
	}

	a, _ = update(t, a, runes("g"))
	a, _ = update(t, a, runes("o"))
	if a.searchSeq != 2 {
		t.Fatalf("expected seq 2, got %d", a.searchSeq)
	}

	// typing in the search box must not quit
	if a.search.Value() != "go" {
		t.Fatalf("expected query go, got %q", a.search.Value())
	}

	a, cmd := update(t, a, searchDebounced{seq: 1})
	if cmd != nil {
		t.Error("stale debounce should not search")
	}

	a, cmd = update(t, a, searchDebounced{seq: 2})
	if cmd == nil {
		t.Fatal("expected a search command")
	}
	a, _ = update(t, a, cmd())
	if len(w.queries) != 1 || w.queries[0] != "go" {
		t.Errorf("expected one query for go, got %v", w.queries)
	}
	if len(a.searchItems) != 1 || a.searchItems[0].PageURL != "https://en.example.org/wiki/Go" {
		t.Errorf("unexpected results: %+v", a.searchItems)
	}

	a, _ = update(t, a, searchResults{seq: 1, err: errors.New("late")})
	if a.searchErr != nil {
		t.Error("stale results should be ignored")
	}
}

func TestDiscoverLoadsFeaturedAndFollows(t *testing.T) {
	w := &fakeWiki{
		featured: []wiki.Featured{{Title: "Featured One", Extract: "Text"}},
		news:     []wiki.NewsItem{{Title: "comet", Extract: "The comet passes Earth."}},
	}
	a := newTestApp(t, &fakeView{}, w)
	a.locale = "es"

	a, cmd := update(t, a, tea.KeyMsg{Type: tea.KeyShiftTab})
	if a.Tab() != TabDiscover || cmd == nil {
		t.Fatalf("expected discover tab with a load command, got %v", a.Tab())
	}
	a = runCmd(t, a, cmd)
	out := a.View()
	if !strings.Contains(out, "Featured One") {
		t.Error("expected the featured title in the view")
	}
	if !strings.Contains(out, "The comet passes Earth.") {
		t.Error("expected the news entry in the view")
	}
	if len(w.newsLocales) != 1 || w.newsLocales[0] != "en" {
		t.Errorf("expected news from the en main page, got %v", w.newsLocales)
	}

	a, cmd = update(t, a, runes("t"))
	if cmd == nil {
		t.Fatal("expected a follow command")
	}
	a, _ = update(t, a, cmd())
	if !a.cfg.Topics.IsFollowed(DiscoverTopics[0]) {
		t.Errorf("expected %s to be followed", DiscoverTopics[0])
	}
}

func TestDiscoverEmptyFeedsStopLoading(t *testing.T) {
	a := newTestApp(t, &fakeView{}, &fakeWiki{})

	a, cmd := update(t, a, tea.KeyMsg{Type: tea.KeyShiftTab})
	if !strings.Contains(a.View(), "Loading") {
		t.Error("expected a loading indicator before the results land")
	}
	a = runCmd(t, a, cmd)

	out := a.View()
	if strings.Contains(out, "Loading") {
		t.Errorf("empty results must not keep the view loading:\n%s", out)
	}
	if !strings.Contains(out, "No featured article today") || !strings.Contains(out, "No news right now") {
		t.Errorf("expected empty-state messages:\n%s", out)
	}
}

func TestQuit(t *testing.T) {
	a := newTestApp(t, &fakeView{}, &fakeWiki{})
	_, cmd := update(t, a, runes("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestLoadingView(t *testing.T) {
	a := newTestApp(t, &fakeView{loading: true}, &fakeWiki{})
	if !strings.Contains(a.View(), "Loading") {
		t.Error("expected a loading indicator")
	}
}

func TestReadingTimeLabel(t *testing.T) {
	if got := readingTimeLabel(0.5); got != "30 sec read" {
		t.Errorf("got %q", got)
	}
	if got := readingTimeLabel(3); got != "3 min read" {
		t.Errorf("got %q", got)
	}
}
