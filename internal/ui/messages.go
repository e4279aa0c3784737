// Package ui provides the Bubble Tea front end for the feed.
package ui

import (
	"wikifeed/internal/feed"
	"wikifeed/internal/wiki"
)

// FeedChanged is sent when a background batch changed the feed.
type FeedChanged struct{}

// searchDebounced fires once typing paused; stale sequence numbers are ignored.
type searchDebounced struct {
	seq int
}

type searchResults struct {
	seq   int
	items []feed.Item
	err   error
}

type featuredLoaded struct {
	items []wiki.Featured
	err   error
}

type newsLoaded struct {
	items []wiki.NewsItem
	err   error
}

type savedToggled struct {
	title string
	saved bool
	err   error
}

type readToggled struct {
	title string
	err   error
}

type topicToggled struct {
	topic    string
	followed bool
	err      error
}
