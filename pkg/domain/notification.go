package domain

import "time"

// Notification is an ephemeral record of a raised notification. The deck keeps
// a bounded in-memory history of these; they do not survive a restart.
type Notification struct {
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Link      string    `json:"link,omitempty"`
	ImageURL  string    `json:"image_url,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadRecord is the audit entry written alongside a read flag.
type ReadRecord struct {
	Project string `json:"project"`
	FeedURL string `json:"feed_url"`
	Title   string `json:"title"`
	Link    string `json:"link"`
	ReadAt  string `json:"read_at"`
}
