package pipeline

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/xKaaZz/Waeleaks/internal/domain"
)

// CreateTitle starts tracking name: it resolves the source description, pulls
// every chapter and stores title and chapters together. No notification is
// sent for the initial import.
func (e *Engine) CreateTitle(ctx context.Context, name string) (res domain.SyncResult, err error) {
	res = domain.SyncResult{Title: name, Strategy: domain.StrategyCreate}
	defer e.observe(domain.StrategyCreate, time.Now(), &res, &err)

	b, unlock, err := e.begin(ctx, name)
	if err != nil {
		return res, err
	}
	defer unlock()
	res.Title = b.Entry.Title

	if _, err := e.catalog.TitleByName(ctx, b.Entry.Title); err == nil {
		return res, domain.ErrTitleExists
	} else if !errors.Is(err, domain.ErrTitleNotTracked) {
		return res, err
	}

	meta, err := e.resolve(ctx, b)
	if err != nil {
		return res, err
	}

	chapters, err := e.fetchAll(ctx, b)
	if err != nil {
		return res, err
	}
	if len(chapters) == 0 {
		return res, &domain.EmptyResultError{Title: b.Entry.Title}
	}

	title := domain.Title{Name: b.Entry.Title, Description: meta.Description, CoverURL: meta.CoverURL}
	if _, err := e.catalog.CreateTitle(ctx, title, chapters); err != nil {
		return res, err
	}

	res.Added = numbersOf(chapters)
	slices.Sort(res.Added)
	return res, nil
}

// RefreshTitle replaces every chapter of a tracked title with a fresh pull
// from its source. The old chapters, and their read marks, go away only once
// the new set is known to be non-empty. The result lists numbers that were not
// stored before.
func (e *Engine) RefreshTitle(ctx context.Context, name string) (res domain.SyncResult, err error) {
	res = domain.SyncResult{Title: name, Strategy: domain.StrategyRefresh}
	defer e.observe(domain.StrategyRefresh, time.Now(), &res, &err)

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

	before, err := e.catalog.ChapterNumbers(ctx, title.ID)
	if err != nil {
		return res, err
	}

	chapters, err := e.fetchAll(ctx, b)
	if err != nil {
		return res, err
	}
	if len(chapters) == 0 {
		return res, &domain.EmptyResultError{Title: title.Name}
	}

	if err := e.catalog.ReplaceChapters(ctx, title.ID, chapters); err != nil {
		return res, err
	}

	known := make(map[int]struct{}, len(before))
	for _, n := range before {
		known[n] = struct{}{}
	}
	for _, n := range numbersOf(chapters) {
		if _, ok := known[n]; !ok {
			res.Added = append(res.Added, n)
		}
	}
	slices.Sort(res.Added)

	return res, e.announce(ctx, title, res)
}
