package deck

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/markusbegerow/feeddeck/pkg/domain"
)

// maxNotifications caps the in-memory notification history.
const maxNotifications = 20

var (
	// ErrRefreshInFlight is returned when a pass is requested while one runs.
	ErrRefreshInFlight = errors.New("refresh already in progress")
	// ErrProjectExists is returned when creating a project that already exists.
	ErrProjectExists = errors.New("project already exists")
	// ErrProjectNotFound is returned for operations on an unknown project.
	ErrProjectNotFound = errors.New("project not found")
	// ErrFeedExists is returned when adding a duplicate feed to a project.
	ErrFeedExists = errors.New("feed already in project")
	// ErrFeedNotFound is returned when removing a feed a project doesn't have.
	ErrFeedNotFound = errors.New("feed not in project")
)

// Storage persists the deck's documents as single-owner whole-document units.
type Storage interface {
	Projects() map[string][]string
	SaveProjects(projects map[string][]string) error
	ReadState() map[string]bool
	SaveReadState(read map[string]bool) error
	ReadLog() map[string]domain.ReadRecord
	SaveReadLog(records map[string]domain.ReadRecord) error
	SeenState() map[string]string
	SaveSeenState(seen map[string]string) error
}

// Fetcher retrieves and parses a feed into normalized entries.
type Fetcher interface {
	Fetch(ctx context.Context, feedURL string) ([]domain.Entry, error)
}

// Enricher provides best-effort page metadata for article links.
type Enricher interface {
	PreviewImage(ctx context.Context, link string) string
	Description(ctx context.Context, link string) string
}

// Notifier delivers a desktop notification. Delivery is fire-and-forget;
// implementations swallow their own errors.
type Notifier interface {
	Send(n domain.Notification)
}

// Deck owns all application state and drives ingestion passes. There are no
// ambient globals: everything the orchestrator touches is injected here.
type Deck struct {
	store    Storage
	fetcher  Fetcher
	enricher Enricher
	notifier Notifier

	limit         int
	workers       int
	notifications bool
	now           func() time.Time

	runMu   sync.Mutex // serializes ingestion passes
	histMu  sync.Mutex
	history []domain.Notification
}

// Params holds Deck dependencies and settings.
type Params struct {
	Store         Storage
	Fetcher       Fetcher
	Enricher      Enricher
	Notifier      Notifier
	DisplayLimit  int
	MaxWorkers    int
	Notifications bool
	Now           func() time.Time // defaults to time.Now
}

// New creates a Deck.
func New(p Params) *Deck {
	if p.DisplayLimit == 0 {
		p.DisplayLimit = 5
	}
	if p.MaxWorkers == 0 {
		p.MaxWorkers = 5
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	return &Deck{
		store:         p.Store,
		fetcher:       p.Fetcher,
		enricher:      p.Enricher,
		notifier:      p.Notifier,
		limit:         p.DisplayLimit,
		workers:       p.MaxWorkers,
		notifications: p.Notifications,
		now:           p.Now,
	}
}

// Projects returns the project-name to feed-URL-list mapping.
func (d *Deck) Projects() map[string][]string {
	return d.store.Projects()
}

// CreateProject adds an empty project.
func (d *Deck) CreateProject(name string) error {
	if name == "" {
		return fmt.Errorf("project name is required")
	}
	projects := d.store.Projects()
	if _, ok := projects[name]; ok {
		return ErrProjectExists
	}
	projects[name] = []string{}
	if err := d.store.SaveProjects(projects); err != nil {
		return fmt.Errorf("save projects: %w", err)
	}
	log.Printf("[INFO] created project %q", name)
	return nil
}

// DeleteProject removes a project wholesale.
func (d *Deck) DeleteProject(name string) error {
	projects := d.store.Projects()
	if _, ok := projects[name]; !ok {
		return ErrProjectNotFound
	}
	delete(projects, name)
	if err := d.store.SaveProjects(projects); err != nil {
		return fmt.Errorf("save projects: %w", err)
	}
	log.Printf("[INFO] deleted project %q", name)
	return nil
}

// AddFeed appends a feed URL to a project. Duplicates within a project are
// rejected; feed order is user-significant.
func (d *Deck) AddFeed(project, feedURL string) error {
	if feedURL == "" {
		return fmt.Errorf("feed URL is required")
	}
	projects := d.store.Projects()
	feeds, ok := projects[project]
	if !ok {
		return ErrProjectNotFound
	}
	for _, u := range feeds {
		if u == feedURL {
			return ErrFeedExists
		}
	}
	projects[project] = append(feeds, feedURL)
	if err := d.store.SaveProjects(projects); err != nil {
		return fmt.Errorf("save projects: %w", err)
	}
	return nil
}

// RemoveFeed deletes a feed URL from a project.
func (d *Deck) RemoveFeed(project, feedURL string) error {
	projects := d.store.Projects()
	feeds, ok := projects[project]
	if !ok {
		return ErrProjectNotFound
	}
	for i, u := range feeds {
		if u == feedURL {
			projects[project] = append(feeds[:i], feeds[i+1:]...)
			if err := d.store.SaveProjects(projects); err != nil {
				return fmt.Errorf("save projects: %w", err)
			}
			return nil
		}
	}
	return ErrFeedNotFound
}

// MoveFeed swaps the feed at index with its neighbor, moving it up (towards
// the front) or down.
func (d *Deck) MoveFeed(project string, index int, up bool) error {
	projects := d.store.Projects()
	feeds, ok := projects[project]
	if !ok {
		return ErrProjectNotFound
	}
	target := index + 1
	if up {
		target = index - 1
	}
	if index < 0 || index >= len(feeds) || target < 0 || target >= len(feeds) {
		return fmt.Errorf("feed index %d out of range", index)
	}
	feeds[index], feeds[target] = feeds[target], feeds[index]
	if err := d.store.SaveProjects(projects); err != nil {
		return fmt.Errorf("save projects: %w", err)
	}
	return nil
}

// MarkRead sets the read flag for an article and appends an audit record to
// the read log. Read flags are never unset.
func (d *Deck) MarkRead(project, feedURL, link, title string) error {
	key := articleKey(feedURL, link, title)

	read := d.store.ReadState()
	read[key] = true
	if err := d.store.SaveReadState(read); err != nil {
		return fmt.Errorf("save read state: %w", err)
	}

	// the log is auxiliary, a failed write doesn't fail the operation
	records := d.store.ReadLog()
	records[key] = domain.ReadRecord{
		Project: project,
		FeedURL: feedURL,
		Title:   title,
		Link:    link,
		ReadAt:  d.now().UTC().Format(time.RFC3339),
	}
	if err := d.store.SaveReadLog(records); err != nil {
		log.Printf("[WARN] failed to save read log: %v", err)
	}
	return nil
}

// Notifications returns the bounded history, most recent first.
func (d *Deck) Notifications() []domain.Notification {
	d.histMu.Lock()
	defer d.histMu.Unlock()
	out := make([]domain.Notification, len(d.history))
	copy(out, d.history)
	return out
}

// ClearNotifications empties the history.
func (d *Deck) ClearNotifications() {
	d.histMu.Lock()
	defer d.histMu.Unlock()
	d.history = nil
}

// addHistory prepends a notification, keeping the most recent entries only.
func (d *Deck) addHistory(n domain.Notification) {
	d.histMu.Lock()
	defer d.histMu.Unlock()
	d.history = append([]domain.Notification{n}, d.history...)
	if len(d.history) > maxNotifications {
		d.history = d.history[:maxNotifications]
	}
}
