package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/xKaaZz/Waeleaks/internal/domain"
)

// BackfillRange re-probes every canonical number in [start, end] with an
// explicit offset and appends what it finds without removing anything, so
// misuse can store a number twice. Numbers the source lacks are skipped. A
// fetch failure aborts before any write.
func (e *Engine) BackfillRange(ctx context.Context, name string, start, end, offset int) (res domain.SyncResult, err error) {
	res = domain.SyncResult{Title: name, Strategy: domain.StrategyBackfill}
	defer e.observe(domain.StrategyBackfill, time.Now(), &res, &err)

	if start > end {
		return res, fmt.Errorf("%w: start %d is after end %d", domain.ErrInvalidRange, start, end)
	}

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

	var chapters []domain.Chapter
	for number := start; number <= end; number++ {
		index := SourceIndex(number, offset)
		if index < 1 {
			continue
		}

		pages, err := e.fetchPages(ctx, b, b.Scraper.ChapterLocator(index))
		if err != nil {
			return res, err
		}
		if len(pages) == 0 {
			continue
		}
		chapters = append(chapters, domain.Chapter{Number: number, Pages: pages})
	}

	if len(chapters) == 0 {
		return res, nil
	}
	if err := e.catalog.AddChapters(ctx, title.ID, chapters); err != nil {
		return res, err
	}

	res.Added = numbersOf(chapters)
	return res, e.announce(ctx, title, res)
}
