package domain

import "time"

// Entry is a single normalized feed item produced by a fetch. Entries are
// transient: they are rebuilt on every ingestion pass and never persisted.
// A missing or unparseable publish date leaves Published at the zero value,
// which keeps such entries from ever being classified as new.
type Entry struct {
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Published time.Time `json:"published"`
	Summary   string    `json:"summary,omitempty"`
	FeedTitle string    `json:"feed_title,omitempty"`
	IsNew     bool      `json:"is_new"`
}

// Card is a display-ready article: an entry plus best-effort page metadata
// and its read flag.
type Card struct {
	Entry
	Key         string `json:"key"`
	ImageURL    string `json:"image_url,omitempty"`
	Description string `json:"description,omitempty"`
	Read        bool   `json:"read"`
}

// Column holds the outcome of processing a single feed in a pass. A feed that
// failed to fetch produces a column with Err set and no cards, so one bad feed
// never hides the rest of the deck.
type Column struct {
	FeedURL   string `json:"feed_url"`
	FeedTitle string `json:"feed_title"`
	Cards     []Card `json:"cards,omitempty"`
	NewCount  int    `json:"new_count"`
	Err       string `json:"error,omitempty"`
}

// PassResult is the aggregate outcome of one ingestion pass.
type PassResult struct {
	Columns  []Column `json:"columns"`
	NewCount int      `json:"new_count"`
}
