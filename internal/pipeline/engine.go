// Package pipeline runs synchronization passes: it pulls chapters from a
// title's source, writes them to the catalog and announces what was added.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xKaaZz/Waeleaks/internal/domain"
	"github.com/xKaaZz/Waeleaks/internal/logger"
	"github.com/xKaaZz/Waeleaks/internal/metrics"
	"github.com/xKaaZz/Waeleaks/pkg/publishers"
	"github.com/xKaaZz/Waeleaks/pkg/sources"
)

const defaultLookaheadWindow = 5

// Options tunes a synchronization engine.
type Options struct {
	LookaheadWindow int
	ScraperTimeout  time.Duration
	LockDir         string
	LockTimeout     time.Duration
}

// Deps are the collaborators of an Engine. Notifier and Events are optional.
type Deps struct {
	Catalog  Catalog
	Registry SourceRegistry
	Notifier Notifier
	Events   EventPublisher
	Logger   logger.Logger
	Metrics  metrics.Recorder
}

// Engine executes one synchronization pass per call. It holds no state
// between passes.
type Engine struct {
	catalog  Catalog
	registry SourceRegistry
	notifier Notifier
	events   EventPublisher
	locks    *TitleLocks
	opts     Options
	log      logger.Logger
	metrics  metrics.Recorder
}

// New builds an Engine.
func New(deps Deps, opts Options) (*Engine, error) {
	if deps.Catalog == nil || deps.Registry == nil {
		return nil, errors.New("pipeline requires a catalog and a source registry")
	}
	if opts.LookaheadWindow <= 0 {
		opts.LookaheadWindow = defaultLookaheadWindow
	}
	return &Engine{
		catalog:  deps.Catalog,
		registry: deps.Registry,
		notifier: deps.Notifier,
		events:   deps.Events,
		locks:    NewTitleLocks(opts.LockDir, opts.LockTimeout),
		opts:     opts,
		log:      logger.Ensure(deps.Logger),
		metrics:  metrics.Ensure(deps.Metrics),
	}, nil
}

// begin resolves the binding for name and takes the title lock.
func (e *Engine) begin(ctx context.Context, name string) (sources.Binding, func(), error) {
	b, err := e.registry.Lookup(name)
	if err != nil {
		return sources.Binding{}, nil, err
	}
	unlock, err := e.locks.Acquire(ctx, b.Entry.Title)
	if err != nil {
		return sources.Binding{}, nil, err
	}
	return b, unlock, nil
}

// scraperContext bounds a single scraper call.
func (e *Engine) scraperContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.opts.ScraperTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.opts.ScraperTimeout)
}

func (e *Engine) resolve(ctx context.Context, b sources.Binding) (sources.Metadata, error) {
	callCtx, cancel := e.scraperContext(ctx)
	defer cancel()

	meta, err := b.Scraper.Resolve(callCtx, b.Entry.SourceTitle)
	if err != nil {
		return sources.Metadata{}, asFetchError(b, "", err)
	}
	return meta, nil
}

func (e *Engine) fetchPages(ctx context.Context, b sources.Binding, locator string) ([]string, error) {
	callCtx, cancel := e.scraperContext(ctx)
	defer cancel()

	pages, err := b.Scraper.FetchPages(callCtx, locator)
	if err != nil {
		return nil, asFetchError(b, locator, err)
	}
	return pages, nil
}

// fetchAll enumerates every chapter at the source and fetches its pages.
// Nothing is written. Listed chapters without pages are skipped.
func (e *Engine) fetchAll(ctx context.Context, b sources.Binding) ([]domain.Chapter, error) {
	listCtx := ctx
	if b.Scraper.Family() == sources.FamilyCatalog {
		var cancel context.CancelFunc
		listCtx, cancel = e.scraperContext(ctx)
		defer cancel()
	}

	var (
		chapters []domain.Chapter
		seen     = make(map[int]struct{})
	)
	for link, err := range b.Scraper.ListChapterLinks(listCtx) {
		if err != nil {
			return nil, asFetchError(b, "", err)
		}

		number := CanonicalNumber(link.SourceIndex, b.Entry.Offset)
		if _, dup := seen[number]; dup {
			continue
		}

		pages, err := e.fetchPages(ctx, b, link.Locator)
		if err != nil {
			return nil, err
		}
		if len(pages) == 0 {
			e.log.DebugObj("listed chapter has no pages", "chapter", map[string]any{
				"title":   b.Entry.Title,
				"number":  number,
				"locator": link.Locator,
			})
			continue
		}

		seen[number] = struct{}{}
		chapters = append(chapters, domain.Chapter{Number: number, Pages: pages})
	}
	return chapters, nil
}

// announce flags the title and fans the result out. Only the flag update can
// fail the pass.
func (e *Engine) announce(ctx context.Context, title domain.Title, res domain.SyncResult) error {
	if len(res.Added) == 0 {
		return nil
	}
	if err := e.catalog.SetUnseen(ctx, title.ID, true); err != nil {
		return fmt.Errorf("flag new chapters: %w", err)
	}

	if e.notifier != nil {
		if _, err := e.notifier.Notify(ctx, title.Name, res.Added); err != nil {
			e.log.WarnObj("notification fan-out failed", "notify_error", map[string]any{
				"title": title.Name,
				"error": err.Error(),
			})
		}
	}

	if e.events != nil {
		evt := publishers.NewEvent(res)
		delivered, err := e.events.Publish(ctx, evt)
		if delivered > 0 || err != nil {
			e.metrics.RecordPublish(err == nil)
		}
		if err != nil {
			e.log.WarnObj("chapter event publish failed", "publish_error", map[string]any{
				"title":     title.Name,
				"event_id":  evt.ID,
				"delivered": delivered,
				"error":     err.Error(),
			})
		}
	}
	return nil
}

// observe records the outcome of a pass.
func (e *Engine) observe(strategy domain.Strategy, started time.Time, res *domain.SyncResult, err *error) {
	outcome := metrics.OutcomeSuccess
	if *err != nil {
		outcome = metrics.OutcomeFailure
	}
	e.metrics.RecordPass(string(strategy), outcome, time.Since(started))
	e.metrics.RecordChaptersAdded(string(strategy), len(res.Added))

	fields := map[string]any{
		"title":       res.Title,
		"strategy":    strategy,
		"added":       len(res.Added),
		"duration_ms": time.Since(started).Milliseconds(),
	}
	if *err != nil {
		fields["error"] = (*err).Error()
		e.log.WarnObj("synchronization pass failed", "sync", fields)
		return
	}
	e.log.InfoObj("synchronization pass complete", "sync", fields)
}

// asFetchError keeps typed source errors and turns bare failures, such as a
// per-call timeout, into a FetchError.
func asFetchError(b sources.Binding, locator string, err error) error {
	var (
		fe *domain.FetchError
		nf *domain.NotFoundError
	)
	if errors.As(err, &fe) || errors.As(err, &nf) {
		return err
	}
	return &domain.FetchError{Source: b.Entry.Scraper, Locator: locator, Err: err}
}

func numbersOf(chapters []domain.Chapter) []int {
	out := make([]int, 0, len(chapters))
	for _, ch := range chapters {
		out = append(out, ch.Number)
	}
	return out
}
