package pipeline

import (
	"context"
	"time"

	"github.com/xKaaZz/Waeleaks/internal/domain"
)

// CheckIncremental probes the chapters after the highest stored one, up to
// the lookahead window, and stops at the first number the source does not
// have. Each chapter found is stored right away, so a fetch failure keeps
// what was found before it and still counts as success.
func (e *Engine) CheckIncremental(ctx context.Context, name string) (res domain.SyncResult, err error) {
	res = domain.SyncResult{Title: name, Strategy: domain.StrategyCatchUp}
	defer e.observe(domain.StrategyCatchUp, time.Now(), &res, &err)

	b, unlock, err := e.begin(ctx, name)
	if err != nil {
		return res, err
	}
	defer unlock()
	res.Title = b.Entry.Title

	title, err := e.catalog.TitleByName(ctx, b.Entry.Title)
	if err != nil {
		return res, err
	}

	last, err := e.catalog.MaxChapterNumber(ctx, title.ID)
	if err != nil {
		return res, err
	}
	// Never probe below the source's first chapter.
	if floor := CanonicalNumber(0, b.Entry.Offset); last < floor {
		last = floor
	}

	for candidate := last + 1; candidate <= last+e.opts.LookaheadWindow; candidate++ {
		locator := b.Scraper.ChapterLocator(SourceIndex(candidate, b.Entry.Offset))

		pages, err := e.fetchPages(ctx, b, locator)
		if err != nil {
			e.log.WarnObj("catch-up probe failed", "probe", map[string]any{
				"title":   title.Name,
				"number":  candidate,
				"locator": locator,
				"error":   err.Error(),
			})
			break
		}
		if len(pages) == 0 {
			break
		}

		if _, err := e.catalog.AddChapter(ctx, title.ID, domain.Chapter{Number: candidate, Pages: pages}); err != nil {
			return res, err
		}
		res.Added = append(res.Added, candidate)
	}

	return res, e.announce(ctx, title, res)
}
