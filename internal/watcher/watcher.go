// Package watcher polls title feeds on a schedule and triggers catch-up
// checks for the titles that show new entries.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/xKaaZz/Waeleaks/internal/domain"
	"github.com/xKaaZz/Waeleaks/internal/logger"
	"github.com/xKaaZz/Waeleaks/internal/metrics"
	"github.com/xKaaZz/Waeleaks/internal/storage"
	"github.com/xKaaZz/Waeleaks/pkg/httpclient"
)

// Checker is the synchronization entry point the watcher drives.
type Checker interface {
	RunCheck(ctx context.Context, titles ...string) ([]domain.SyncResult, error)
}

// TitleLister returns the titles currently tracked.
type TitleLister interface {
	ListTitles(ctx context.Context) ([]domain.Title, error)
}

// Feed ties a title to the RSS/Atom feed announcing its releases.
type Feed struct {
	Title string
	URL   string
}

// Watcher runs one poll-and-check cycle per interval.
type Watcher struct {
	checker  Checker
	titles   TitleLister
	client   httpclient.Client
	seen     storage.Store
	feeds    map[string]string
	interval time.Duration
	log      logger.Logger
	metrics  metrics.Recorder
}

// Options configure a Watcher. Seen defaults to a store that remembers nothing.
type Options struct {
	Feeds    []Feed
	Interval time.Duration
	Seen     storage.Store
	Logger   logger.Logger
	Metrics  metrics.Recorder
}

// New builds a Watcher.
func New(checker Checker, titles TitleLister, client httpclient.Client, opts Options) (*Watcher, error) {
	if checker == nil || titles == nil || client == nil {
		return nil, errors.New("watcher requires a checker, a title lister and an http client")
	}
	if opts.Interval <= 0 {
		return nil, fmt.Errorf("invalid watch interval %s", opts.Interval)
	}
	seen := opts.Seen
	if seen == nil {
		var err error
		if seen, err = storage.NewStore("none", "", storage.Options{}); err != nil {
			return nil, err
		}
	}

	feeds := make(map[string]string, len(opts.Feeds))
	for _, f := range opts.Feeds {
		if url := strings.TrimSpace(f.URL); url != "" {
			feeds[titleKey(f.Title)] = url
		}
	}

	return &Watcher{
		checker:  checker,
		titles:   titles,
		client:   client,
		seen:     seen,
		feeds:    feeds,
		interval: opts.Interval,
		log:      logger.Ensure(opts.Logger),
		metrics:  metrics.Ensure(opts.Metrics),
	}, nil
}

// Run performs an initial cycle, then one per interval until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	w.log.InfoObj("watcher loop starting", "watcher_state", map[string]any{
		"feeds":    len(w.feeds),
		"interval": w.interval.String(),
	})

	if _, err := w.RunOnce(ctx); err != nil {
		w.log.ErrorObj("initial check failed", "error", err.Error())
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.InfoObj("watcher loop exiting", "reason", ctx.Err().Error())
			return nil
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil {
				w.log.ErrorObj("scheduled check failed", "error", err.Error())
			}
		}
	}
}

// RunOnce polls every feed and checks the titles that are due. A title's
// feed entries are remembered only once a check added chapters to it, so a
// title whose source lags behind its feed stays due on the next cycle.
func (w *Watcher) RunOnce(ctx context.Context) ([]domain.SyncResult, error) {
	start := time.Now()

	tracked, err := w.titles.ListTitles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tracked titles: %w", err)
	}

	var (
		due     []string
		pending = make(map[string][]string)
	)
	for _, t := range tracked {
		fresh, isDue := w.poll(ctx, t.Name)
		if isDue {
			due = append(due, t.Name)
			if len(fresh) > 0 {
				pending[titleKey(t.Name)] = fresh
			}
		}
	}

	if len(due) == 0 {
		w.log.DebugObj("no title due", "cycle", map[string]any{"tracked": len(tracked)})
		return nil, nil
	}

	results, err := w.checker.RunCheck(ctx, due...)
	w.remember(results, pending)
	if err != nil {
		return results, err
	}

	w.log.InfoObj("check cycle completed", "cycle", map[string]any{
		"due":        len(due),
		"updated":    len(results),
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return results, nil
}

// remember marks the pending entries of every title that gained chapters.
func (w *Watcher) remember(results []domain.SyncResult, pending map[string][]string) {
	for _, res := range results {
		if len(res.Added) == 0 {
			continue
		}
		ids := pending[titleKey(res.Title)]
		if len(ids) == 0 {
			continue
		}
		if err := w.seen.MarkSeen(res.Title, ids); err != nil {
			w.log.WarnObj("failed to record feed entries", "entry", map[string]any{
				"title":   res.Title,
				"entries": len(ids),
				"error":   err.Error(),
			})
		}
	}
}

// poll reports the unseen entry ids of the title's feed and whether the
// title should be checked this cycle.
func (w *Watcher) poll(ctx context.Context, title string) ([]string, bool) {
	url, ok := w.feeds[titleKey(title)]
	if !ok {
		return nil, true
	}

	feed, err := w.fetchFeed(ctx, url)
	w.metrics.RecordFeedPoll(err == nil)
	if err != nil {
		w.log.WarnObj("feed poll failed", "feed_error", map[string]any{
			"title": title,
			"url":   url,
			"error": err.Error(),
		})
		return nil, true
	}

	var ids []string
	for _, item := range feed.Items {
		if id := entryID(item); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, false
	}

	fresh, err := w.seen.Unseen(title, ids)
	if err != nil {
		w.log.WarnObj("seen store lookup failed", "entry", map[string]any{"title": title, "error": err.Error()})
		return ids, true
	}
	return fresh, len(fresh) > 0
}

func (w *Watcher) fetchFeed(ctx context.Context, url string) (*gofeed.Feed, error) {
	resp, err := w.client.Get(ctx, url, map[string]string{
		"Accept": "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8",
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode())
	}
	return gofeed.NewParser().ParseString(string(resp.Body()))
}

// entryID identifies a feed item: GUID, falling back to the link.
func entryID(item *gofeed.Item) string {
	if item == nil {
		return ""
	}
	if id := strings.TrimSpace(item.GUID); id != "" {
		return id
	}
	return strings.TrimSpace(item.Link)
}

func titleKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}
