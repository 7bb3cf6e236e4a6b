package deck

import (
	"context"
	"log"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/markusbegerow/feeddeck/pkg/domain"
	"github.com/markusbegerow/feeddeck/pkg/enrich"
)

// descriptionLimit is the display length for descriptions and summaries.
const descriptionLimit = 150

// Scope selects which feeds an ingestion pass covers.
type Scope struct {
	Project     string // ignored when AllProjects is set
	AllProjects bool   // union of every project's feeds
	Filter      string // optional case-insensitive title filter
}

// Refresh runs one ingestion pass over the scoped feeds: fetch, classify
// novelty, enrich, notify, and write back seen state. Feeds are processed in
// order and one failing feed never aborts the batch; it yields an error
// column instead. A pass requested while another is running is dropped with
// ErrRefreshInFlight rather than interleaving writes.
func (d *Deck) Refresh(ctx context.Context, scope Scope) (*domain.PassResult, error) {
	if !d.runMu.TryLock() {
		return nil, ErrRefreshInFlight
	}
	defer d.runMu.Unlock()

	feedURLs, err := d.scopedFeeds(scope)
	if err != nil {
		return nil, err
	}

	seen := d.store.SeenState()
	read := d.store.ReadState()

	res := &domain.PassResult{Columns: make([]domain.Column, 0, len(feedURLs))}
	for _, feedURL := range feedURLs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		col := d.processFeed(ctx, feedURL, parseSeen(seen[feedURL]), read, scope.Filter)
		if col.Err == "" {
			// wall clock at processing time, deliberately not the max entry
			// timestamp; failed feeds keep their old watermark
			seen[feedURL] = d.now().UTC().Format(time.RFC3339)
		}
		res.NewCount += col.NewCount
		res.Columns = append(res.Columns, col)
	}

	if err := d.store.SaveSeenState(seen); err != nil {
		log.Printf("[WARN] failed to save seen state: %v", err)
	}

	log.Printf("[INFO] pass complete: %d feeds, %d new articles", len(feedURLs), res.NewCount)
	return res, nil
}

// scopedFeeds resolves the pass scope to an ordered feed URL list.
func (d *Deck) scopedFeeds(scope Scope) ([]string, error) {
	projects := d.store.Projects()

	if !scope.AllProjects {
		feeds, ok := projects[scope.Project]
		if !ok {
			return nil, ErrProjectNotFound
		}
		return feeds, nil
	}

	names := make([]string, 0, len(projects))
	for name := range projects {
		names = append(names, name)
	}
	sort.Strings(names)

	var feedURLs []string
	for _, name := range names {
		feedURLs = append(feedURLs, projects[name]...)
	}
	return feedURLs, nil
}

// processFeed handles a single feed within a pass.
func (d *Deck) processFeed(ctx context.Context, feedURL string, lastSeen time.Time, read map[string]bool, filter string) domain.Column {
	col := domain.Column{FeedURL: feedURL}

	entries, err := d.fetcher.Fetch(ctx, feedURL)
	if err != nil {
		log.Printf("[WARN] feed %s failed: %v", feedURL, err)
		col.FeedTitle = "Error Loading Feed"
		col.Err = err.Error()
		return col
	}

	entries = classify(entries, lastSeen)
	col.FeedTitle = feedTitle(entries)

	display := entries
	if len(display) > d.limit {
		display = display[:d.limit]
	}
	// novelty is counted over the display window before the title filter, so
	// filtering the view doesn't hide the new-article badge
	for _, e := range display {
		if e.IsNew {
			col.NewCount++
		}
	}

	selected := make([]domain.Entry, 0, len(display))
	for _, e := range display {
		if filter != "" && !strings.Contains(strings.ToLower(e.Title), strings.ToLower(filter)) {
			continue
		}
		selected = append(selected, e)
	}

	col.Cards = d.buildCards(ctx, feedURL, selected, read)

	// notifications follow entry order for determinism even though
	// enrichment ran concurrently
	if d.notifications {
		for _, card := range col.Cards {
			if card.IsNew {
				d.raiseNotification(col.FeedTitle, card)
			}
		}
	}

	return col
}

// buildCards enriches the selected entries concurrently. Enrichment is
// best-effort per article; one article's failure never cancels the others.
func (d *Deck) buildCards(ctx context.Context, feedURL string, selected []domain.Entry, read map[string]bool) []domain.Card {
	cards := make([]domain.Card, len(selected))

	g := &errgroup.Group{}
	g.SetLimit(d.workers)
	for i, e := range selected {
		g.Go(func() error {
			card := domain.Card{
				Entry: e,
				Key:   articleKey(feedURL, e.Link, e.Title),
			}
			card.Read = read[card.Key]
			card.ImageURL = d.enricher.PreviewImage(ctx, e.Link)

			desc := d.enricher.Description(ctx, e.Link)
			if desc == "" {
				desc = e.Summary
			}
			card.Description = enrich.Truncate(desc, descriptionLimit)

			cards[i] = card
			return nil
		})
	}
	_ = g.Wait() // enrichment never errors

	return cards
}

// raiseNotification emits the side effect and records it in the history.
func (d *Deck) raiseNotification(feedTitle string, card domain.Card) {
	n := domain.Notification{
		Title:     "New Article: " + feedTitle,
		Message:   enrich.Truncate(card.Title, 100),
		Link:      card.Link,
		ImageURL:  card.ImageURL,
		Timestamp: d.now(),
	}
	d.notifier.Send(n)
	d.addHistory(n)
}

// feedTitle picks the display title for a feed column.
func feedTitle(entries []domain.Entry) string {
	if len(entries) == 0 {
		return "Empty Feed"
	}
	for _, e := range entries {
		if e.FeedTitle != "" {
			return e.FeedTitle
		}
	}
	return "Unknown Feed"
}
