package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"wikifeed/internal/feed"
)

// Keys the reader state is stored under.
const (
	BookmarksKey = "savedArticles"
	TopicsKey    = "followedTopics"
)

// SavedItem is a bookmarked item with its read mark.
type SavedItem struct {
	feed.Item
	Read bool `json:"read,omitempty"`
}

type Filter int

const (
	FilterAll Filter = iota
	FilterUnread
	FilterRead
)

func (f Filter) String() string {
	switch f {
	case FilterUnread:
		return "unread"
	case FilterRead:
		return "read"
	default:
		return "all"
	}
}

// Bookmarks is the list of saved items, written through to the store on
// every change. Items are identified by title.
type Bookmarks struct {
	store Store
	mu    sync.RWMutex
	items []SavedItem
}

func LoadBookmarks(ctx context.Context, store Store) (*Bookmarks, error) {
	b := &Bookmarks{store: store}
	if err := loadJSON(ctx, store, BookmarksKey, &b.items); err != nil {
		return nil, err
	}
	return b, nil
}

// Toggle saves item, or removes it if an item with the same title is saved.
// It reports whether the item is saved afterwards.
func (b *Bookmarks) Toggle(ctx context.Context, item feed.Item) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.indexLocked(item.Title)
	var next []SavedItem
	if i >= 0 {
		next = slices.Delete(slices.Clone(b.items), i, i+1)
	} else {
		next = append(slices.Clone(b.items), SavedItem{Item: item})
	}

	if err := saveJSON(ctx, b.store, BookmarksKey, next); err != nil {
		return i >= 0, err
	}
	b.items = next
	return i < 0, nil
}

// ToggleRead flips the read mark of the saved item with title.
func (b *Bookmarks) ToggleRead(ctx context.Context, title string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.indexLocked(title)
	if i < 0 {
		return fmt.Errorf("%q is not saved", title)
	}
	next := slices.Clone(b.items)
	next[i].Read = !next[i].Read

	if err := saveJSON(ctx, b.store, BookmarksKey, next); err != nil {
		return err
	}
	b.items = next
	return nil
}

func (b *Bookmarks) IsSaved(title string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.indexLocked(title) >= 0
}

// List returns saved items matching filter in the order they were saved.
func (b *Bookmarks) List(filter Filter) []SavedItem {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]SavedItem, 0, len(b.items))
	for _, it := range b.items {
		switch {
		case filter == FilterUnread && it.Read:
		case filter == FilterRead && !it.Read:
		default:
			out = append(out, it)
		}
	}
	return out
}

func (b *Bookmarks) indexLocked(title string) int {
	return slices.IndexFunc(b.items, func(it SavedItem) bool { return it.Title == title })
}

// Topics is the set of followed topic names.
type Topics struct {
	store  Store
	mu     sync.RWMutex
	topics []string
}

func LoadTopics(ctx context.Context, store Store) (*Topics, error) {
	t := &Topics{store: store}
	if err := loadJSON(ctx, store, TopicsKey, &t.topics); err != nil {
		return nil, err
	}
	return t, nil
}

// Toggle follows or unfollows topic and reports whether it is followed
// afterwards.
func (t *Topics) Toggle(ctx context.Context, topic string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := slices.Index(t.topics, topic)
	var next []string
	if i >= 0 {
		next = slices.Delete(slices.Clone(t.topics), i, i+1)
	} else {
		next = append(slices.Clone(t.topics), topic)
	}

	if err := saveJSON(ctx, t.store, TopicsKey, next); err != nil {
		return i >= 0, err
	}
	t.topics = next
	return i < 0, nil
}

func (t *Topics) List() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.topics)
}

func (t *Topics) IsFollowed(topic string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Contains(t.topics, topic)
}

func loadJSON(ctx context.Context, store Store, key string, out any) error {
	data, err := store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

func saveJSON(ctx context.Context, store Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}
