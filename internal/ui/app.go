package ui

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"wikifeed/internal/feed"
	"wikifeed/internal/lang"
	"wikifeed/internal/state"
	"wikifeed/internal/wiki"
)

const (
	searchDebounce = 500 * time.Millisecond
	searchLimit    = 10
)

// DiscoverTopics are the topics offered for following.
var DiscoverTopics = []string{"Geography", "Psychology", "Science", "Art", "History", "Physics"}

type Tab int

const (
	TabHome Tab = iota
	TabSaved
	TabSearch
	TabDiscover
)

var tabNames = []string{"Home", "Saved", "Search", "Discover"}

// Wiki is the part of the content API the UI calls directly.
type Wiki interface {
	Search(ctx context.Context, locale, query string, limit, offset int) ([]wiki.Page, error)
	Featured(ctx context.Context, locale string) ([]wiki.Featured, error)
	InTheNews(ctx context.Context, locale string) ([]wiki.NewsItem, error)
	ArticleURL(locale, title string) string
}

type Config struct {
	Context   context.Context
	Feed      feed.View
	Bookmarks *state.Bookmarks
	Topics    *state.Topics
	Wiki      Wiki
	Locale    string
	Languages []string
	// SetLocale switches the feed locale; nil disables switching.
	SetLocale func(locale string)
}

// App is the root Bubble Tea model. It reads the feed only through
// feed.View and never touches the prefetch pool.
type App struct {
	cfg  Config
	ctx  context.Context
	keys keyMap

	tab    Tab
	width  int
	height int
	locale string

	items  []feed.Item
	cursor int

	savedFilter state.Filter
	savedCursor int

	search        textinput.Model
	searchSeq     int
	searchItems   []feed.Item
	searchCursor  int
	searchLoading bool
	searchErr     error

	featured       []wiki.Featured
	featuredErr    error
	featuredReady  bool
	news           []wiki.NewsItem
	newsErr        error
	newsReady      bool
	discoverTried  bool
	discoverCursor int

	spinner spinner.Model
	status  string
}

func NewApp(cfg Config) App {
	if cfg.Context == nil {
		cfg.Context = context.Background()
	}
	if cfg.Locale == "" {
		cfg.Locale = "en"
	}

	ti := textinput.New()
	ti.Placeholder = "Search Wikipedia..."
	ti.CharLimit = 200

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return App{
		cfg:     cfg,
		ctx:     cfg.Context,
		keys:    defaultKeyMap(),
		locale:  cfg.Locale,
		search:  ti,
		spinner: sp,
	}
}

func (a App) Init() tea.Cmd {
	view := a.cfg.Feed
	return tea.Batch(
		func() tea.Msg {
			view.Start()
			return FeedChanged{}
		},
		a.spinner.Tick,
	)
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case FeedChanged:
		a.items = a.cfg.Feed.Items()
		return a, nil

	case searchDebounced:
		if msg.seq != a.searchSeq {
			return a, nil
		}
		query := strings.TrimSpace(a.search.Value())
		if query == "" {
			return a, nil
		}
		a.searchLoading = true
		return a, a.runSearch(msg.seq, query)

	case searchResults:
		if msg.seq != a.searchSeq {
			return a, nil
		}
		a.searchLoading = false
		a.searchErr = msg.err
		a.searchItems = msg.items
		a.searchCursor = 0
		return a, nil

	case featuredLoaded:
		a.featured = msg.items
		a.featuredErr = msg.err
		a.featuredReady = true
		return a, nil

	case newsLoaded:
		a.news = msg.items
		a.newsErr = msg.err
		a.newsReady = true
		return a, nil

	case savedToggled:
		switch {
		case msg.err != nil:
			a.status = "Save failed: " + msg.err.Error()
		case msg.saved:
			a.status = "Saved " + msg.title
		default:
			a.status = "Removed " + msg.title
		}
		a.clampSavedCursor()
		return a, nil

	case readToggled:
		if msg.err != nil {
			a.status = "Update failed: " + msg.err.Error()
		}
		a.clampSavedCursor()
		return a, nil

	case topicToggled:
		switch {
		case msg.err != nil:
			a.status = "Update failed: " + msg.err.Error()
		case msg.followed:
			a.status = "Following " + msg.topic
		default:
			a.status = "Unfollowed " + msg.topic
		}
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	return a, nil
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}
	switch {
	case key.Matches(msg, a.keys.NextTab):
		return a.switchTab((a.tab + 1) % Tab(len(tabNames)))
	case key.Matches(msg, a.keys.PrevTab):
		return a.switchTab((a.tab + Tab(len(tabNames)) - 1) % Tab(len(tabNames)))
	}

	if a.tab == TabSearch {
		return a.handleSearchKey(msg)
	}

	a.status = ""
	if key.Matches(msg, a.keys.Quit) {
		return a, tea.Quit
	}
	switch a.tab {
	case TabSaved:
		return a.handleSavedKey(msg)
	case TabDiscover:
		return a.handleDiscoverKey(msg)
	default:
		return a.handleHomeKey(msg)
	}
}

func (a App) switchTab(tab Tab) (tea.Model, tea.Cmd) {
	a.tab = tab
	a.status = ""
	a.search.Blur()

	switch tab {
	case TabSearch:
		return a, a.search.Focus()
	case TabDiscover:
		if !a.discoverTried {
			a.discoverTried = true
			return a, a.loadDiscover()
		}
	}
	return a, nil
}

func (a App) handleHomeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Next):
		if a.cursor < len(a.items)-1 {
			a.cursor++
		}
		// reported even at the last item so a refilled pool drains
		a.reportScroll()
	case key.Matches(msg, a.keys.Prev):
		if a.cursor > 0 {
			a.cursor--
		}
		a.reportScroll()
	case key.Matches(msg, a.keys.Expand):
		a.cfg.Feed.ToggleExpand(a.cursor)
	case key.Matches(msg, a.keys.Save):
		if item, ok := a.current(); ok {
			return a, a.toggleSaved(item)
		}
	case key.Matches(msg, a.keys.Open):
		if item, ok := a.current(); ok {
			a.status = LinkStyle.Render(a.articleURL(item))
		}
	case key.Matches(msg, a.keys.Reset):
		a.cfg.Feed.Reset()
		a.cfg.Feed.Start()
		a.items = nil
		a.cursor = 0
	case key.Matches(msg, a.keys.Language):
		if a.cfg.SetLocale != nil && len(a.cfg.Languages) > 1 {
			i := slices.Index(a.cfg.Languages, a.locale)
			a.locale = a.cfg.Languages[(i+1)%len(a.cfg.Languages)]
			a.cfg.SetLocale(a.locale)
			a.items = a.cfg.Feed.Items()
			a.cursor = 0
			a.status = "Language: " + a.locale
		}
	}
	return a, nil
}

// reportScroll tells the feed where the reader is, one card per viewport.
func (a *App) reportScroll() {
	a.cfg.Feed.OnScroll(feed.ScrollEvent{
		Offset:   float64(a.cursor),
		Viewport: 1,
		Content:  float64(len(a.items)),
	})
	a.items = a.cfg.Feed.Items()
}

func (a App) current() (feed.Item, bool) {
	if a.cursor < 0 || a.cursor >= len(a.items) {
		return feed.Item{}, false
	}
	return a.items[a.cursor], true
}

func (a App) handleSavedKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.cfg.Bookmarks == nil {
		return a, nil
	}
	saved := a.cfg.Bookmarks.List(a.savedFilter)

	switch {
	case key.Matches(msg, a.keys.Next):
		if a.savedCursor < len(saved)-1 {
			a.savedCursor++
		}
	case key.Matches(msg, a.keys.Prev):
		if a.savedCursor > 0 {
			a.savedCursor--
		}
	case key.Matches(msg, a.keys.Filter):
		a.savedFilter = (a.savedFilter + 1) % 3
		a.savedCursor = 0
	case key.Matches(msg, a.keys.MarkRead):
		if a.savedCursor < len(saved) {
			return a, a.toggleRead(saved[a.savedCursor].Title)
		}
	case key.Matches(msg, a.keys.Save):
		if a.savedCursor < len(saved) {
			return a, a.toggleSaved(saved[a.savedCursor].Item)
		}
	case key.Matches(msg, a.keys.Open), key.Matches(msg, a.keys.Expand):
		if a.savedCursor < len(saved) {
			a.status = LinkStyle.Render(a.articleURL(saved[a.savedCursor].Item))
		}
	}
	return a, nil
}

func (a App) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "down":
		if a.searchCursor < len(a.searchItems)-1 {
			a.searchCursor++
		}
		return a, nil
	case "up":
		if a.searchCursor > 0 {
			a.searchCursor--
		}
		return a, nil
	case "ctrl+s":
		if a.searchCursor < len(a.searchItems) {
			return a, a.toggleSaved(a.searchItems[a.searchCursor])
		}
		return a, nil
	case "enter":
		if a.searchCursor < len(a.searchItems) {
			a.status = LinkStyle.Render(a.articleURL(a.searchItems[a.searchCursor]))
		}
		return a, nil
	case "esc":
		a.search.SetValue("")
	}

	before := a.search.Value()
	var cmd tea.Cmd
	a.search, cmd = a.search.Update(msg)
	if a.search.Value() == before && msg.String() != "esc" {
		return a, cmd
	}

	a.searchSeq++
	if strings.TrimSpace(a.search.Value()) == "" {
		a.searchItems = nil
		a.searchErr = nil
		a.searchLoading = false
		return a, cmd
	}
	seq := a.searchSeq
	return a, tea.Batch(cmd, tea.Tick(searchDebounce, func(time.Time) tea.Msg {
		return searchDebounced{seq: seq}
	}))
}

func (a App) handleDiscoverKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Next):
		if a.discoverCursor < len(DiscoverTopics)-1 {
			a.discoverCursor++
		}
	case key.Matches(msg, a.keys.Prev):
		if a.discoverCursor > 0 {
			a.discoverCursor--
		}
	case key.Matches(msg, a.keys.Follow):
		if a.cfg.Topics != nil {
			return a, a.toggleTopic(DiscoverTopics[a.discoverCursor])
		}
	case key.Matches(msg, a.keys.Reload):
		a.featuredReady, a.newsReady = false, false
		return a, a.loadDiscover()
	}
	return a, nil
}

func (a *App) clampSavedCursor() {
	if a.cfg.Bookmarks == nil {
		return
	}
	n := len(a.cfg.Bookmarks.List(a.savedFilter))
	if a.savedCursor >= n {
		a.savedCursor = max(0, n-1)
	}
}

func (a App) articleURL(item feed.Item) string {
	if item.PageURL != "" {
		return item.PageURL
	}
	locale := item.Lang
	if locale == "" {
		locale = a.locale
	}
	return a.cfg.Wiki.ArticleURL(locale, item.Title)
}

func (a App) toggleSaved(item feed.Item) tea.Cmd {
	ctx, bookmarks := a.ctx, a.cfg.Bookmarks
	if bookmarks == nil {
		return nil
	}
	return func() tea.Msg {
		saved, err := bookmarks.Toggle(ctx, item)
		return savedToggled{title: item.Title, saved: saved, err: err}
	}
}

func (a App) toggleRead(title string) tea.Cmd {
	ctx, bookmarks := a.ctx, a.cfg.Bookmarks
	return func() tea.Msg {
		return readToggled{title: title, err: bookmarks.ToggleRead(ctx, title)}
	}
}

func (a App) toggleTopic(topic string) tea.Cmd {
	ctx, topics := a.ctx, a.cfg.Topics
	return func() tea.Msg {
		followed, err := topics.Toggle(ctx, topic)
		return topicToggled{topic: topic, followed: followed, err: err}
	}
}

func (a App) runSearch(seq int, query string) tea.Cmd {
	ctx, client, locale := a.ctx, a.cfg.Wiki, a.locale
	return func() tea.Msg {
		pages, err := client.Search(ctx, locale, query, searchLimit, 0)
		if err != nil {
			return searchResults{seq: seq, err: err}
		}
		items := make([]feed.Item, 0, len(pages))
		for _, p := range pages {
			item := feed.Item{
				Title:       p.Title,
				Summary:     p.Extract,
				Description: p.Description,
				Lang:        locale,
				PageURL:     client.ArticleURL(locale, p.Title),
			}
			if p.Thumbnail != nil {
				item.Thumbnail = &feed.Thumbnail{URL: p.Thumbnail.Source, Width: p.Thumbnail.Width, Height: p.Thumbnail.Height}
			}
			items = append(items, item)
		}
		return searchResults{seq: seq, items: items}
	}
}

func (a App) loadDiscover() tea.Cmd {
	ctx, client, locale := a.ctx, a.cfg.Wiki, a.locale
	return tea.Batch(
		func() tea.Msg {
			items, err := client.Featured(ctx, locale)
			return featuredLoaded{items: items, err: err}
		},
		func() tea.Msg {
			// only the base edition's main page has the news box
			items, err := client.InTheNews(ctx, lang.Base)
			return newsLoaded{items: items, err: err}
		},
	)
}

func (a App) View() string {
	var b strings.Builder
	b.WriteString(a.renderTabs())
	b.WriteString("\n\n")

	switch a.tab {
	case TabSaved:
		b.WriteString(a.renderSaved())
	case TabSearch:
		b.WriteString(a.renderSearch())
	case TabDiscover:
		b.WriteString(a.renderDiscover())
	default:
		b.WriteString(a.renderHome())
	}

	b.WriteString("\n")
	b.WriteString(a.renderStatus())
	return b.String()
}

func (a App) renderTabs() string {
	tabs := make([]string, len(tabNames))
	for i, name := range tabNames {
		if Tab(i) == a.tab {
			tabs[i] = ActiveTabStyle.Render(name)
		} else {
			tabs[i] = TabStyle.Render(name)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (a App) renderHome() string {
	if len(a.items) == 0 {
		if a.cfg.Feed.IsLoading() {
			return a.spinner.View() + " Loading..."
		}
		return MetaStyle.Render("No articles yet. Press R to retry.")
	}

	item, _ := a.current()
	expanded := a.cfg.Feed.IsExpanded(a.cursor)
	threshold := a.cfg.Feed.ExtractThreshold()

	var b strings.Builder
	title := TitleStyle.Render(item.Title)
	if a.cfg.Bookmarks != nil && a.cfg.Bookmarks.IsSaved(item.Title) {
		title += " " + SavedStyle.Render("★")
	}
	b.WriteString(title + "\n")
	if item.Description != "" {
		b.WriteString(DescriptionStyle.Render(item.Description) + "\n")
	}
	b.WriteString("\n")
	if expanded {
		b.WriteString(item.Summary)
	} else {
		b.WriteString(feed.Truncate(item, threshold))
	}
	b.WriteString("\n\n")

	meta := []string{readingTimeLabel(feed.ReadingTime(item)), fmt.Sprintf("%d/%d", a.cursor+1, len(a.items))}
	if !feed.IsShort(item, threshold) {
		if expanded {
			meta = append(meta, "space: see less")
		} else {
			meta = append(meta, "space: see more")
		}
	}
	b.WriteString(MetaStyle.Render(strings.Join(meta, " · ")))

	style := CardStyle
	if a.width > 4 {
		style = style.Width(a.width - 2)
	}
	return style.Render(b.String())
}

func (a App) renderSaved() string {
	if a.cfg.Bookmarks == nil {
		return MetaStyle.Render("Saving is disabled.")
	}
	saved := a.cfg.Bookmarks.List(a.savedFilter)

	var b strings.Builder
	b.WriteString(MetaStyle.Render("Filter: "+a.savedFilter.String()+" (f)") + "\n\n")
	if len(saved) == 0 {
		if a.savedFilter == state.FilterAll {
			b.WriteString("No saved articles yet\n")
			b.WriteString(MetaStyle.Render("Articles you save will appear here"))
		} else {
			b.WriteString(fmt.Sprintf("No %s articles to show", a.savedFilter))
		}
		return b.String()
	}

	for i, it := range saved {
		mark := "○"
		if it.Read {
			mark = "●"
		}
		line := fmt.Sprintf("%s %s", mark, it.Title)
		if i == a.savedCursor {
			line = SelectedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	if a.savedCursor < len(saved) {
		cur := saved[a.savedCursor]
		b.WriteString("\n" + MetaStyle.Render(feed.Truncate(cur.Item, a.cfg.Feed.ExtractThreshold())))
	}
	return b.String()
}

func (a App) renderSearch() string {
	var b strings.Builder
	b.WriteString(a.search.View() + "\n\n")

	switch {
	case a.searchLoading:
		b.WriteString(a.spinner.View() + " Searching...")
	case a.searchErr != nil:
		b.WriteString(ErrorStyle.Render("Search failed: " + a.searchErr.Error()))
	case strings.TrimSpace(a.search.Value()) != "" && len(a.searchItems) == 0:
		b.WriteString(MetaStyle.Render("No results found"))
	default:
		for i, it := range a.searchItems {
			line := it.Title
			if it.Description != "" {
				line += " " + DescriptionStyle.Render("- "+it.Description)
			}
			if i == a.searchCursor {
				line = SelectedStyle.Render(it.Title)
			}
			b.WriteString(line + "\n")
		}
	}
	return b.String()
}

func (a App) renderDiscover() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Featured Article") + "\n")
	switch {
	case !a.featuredReady:
		b.WriteString(a.spinner.View() + " Loading...\n")
	case a.featuredErr != nil:
		b.WriteString(ErrorStyle.Render("Failed to fetch featured articles") + "\n")
	case len(a.featured) == 0:
		b.WriteString(MetaStyle.Render("No featured article today") + "\n")
	default:
		f := a.featured[0]
		b.WriteString(f.Title + "\n")
		b.WriteString(MetaStyle.Render(f.Extract) + "\n")
	}

	b.WriteString("\n" + TitleStyle.Render("In The News") + "\n")
	switch {
	case !a.newsReady:
		b.WriteString(a.spinner.View() + " Loading...\n")
	case a.newsErr != nil:
		b.WriteString(ErrorStyle.Render("Failed to fetch the news") + "\n")
	case len(a.news) == 0:
		b.WriteString(MetaStyle.Render("No news right now") + "\n")
	default:
		for _, n := range a.news {
			b.WriteString("• " + n.Extract + "\n")
		}
	}

	b.WriteString("\n" + TitleStyle.Render("Browse Topics") + "\n")
	for i, topic := range DiscoverTopics {
		mark := "  "
		if a.cfg.Topics != nil && a.cfg.Topics.IsFollowed(topic) {
			mark = SavedStyle.Render("✓ ")
		}
		line := topic
		if i == a.discoverCursor {
			line = SelectedStyle.Render(topic)
		}
		b.WriteString(mark + line + "\n")
	}
	return b.String()
}

func (a App) renderStatus() string {
	text := a.status
	if text == "" {
		text = fmt.Sprintf("[%s] tab: switch · j/k: move · s: save · q: quit", a.locale)
	}
	style := StatusBarStyle
	if a.width > 0 {
		style = style.Width(a.width)
	}
	return style.Render(text)
}

func readingTimeLabel(minutes float64) string {
	if minutes < 1 {
		return "30 sec read"
	}
	return fmt.Sprintf("%d min read", int(minutes))
}

// Tab returns the active tab.
func (a App) Tab() Tab {
	return a.tab
}

// Cursor returns the feed cursor position.
func (a App) Cursor() int {
	return a.cursor
}
