package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/xKaaZz/Waeleaks/internal/domain"
)

// RunCheck runs an incremental catch-up for each named title, or for every
// tracked title when none are named. A failing title does not stop the
// others; failures are joined into the returned error. Only titles that
// gained chapters appear in the result.
func (e *Engine) RunCheck(ctx context.Context, titles ...string) ([]domain.SyncResult, error) {
	if len(titles) == 0 {
		tracked, err := e.catalog.ListTitles(ctx)
		if err != nil {
			return nil, fmt.Errorf("list tracked titles: %w", err)
		}
		for _, t := range tracked {
			titles = append(titles, t.Name)
		}
	}

	var (
		results []domain.SyncResult
		errs    []error
	)
	for _, name := range titles {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		res, err := e.CheckIncremental(ctx, name)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
		if len(res.Added) > 0 {
			results = append(results, res)
		}
	}
	return results, errors.Join(errs...)
}

// ClearUnseen acknowledges the title's new chapters.
func (e *Engine) ClearUnseen(ctx context.Context, name string) error {
	title, err := e.catalog.TitleByName(ctx, name)
	if err != nil {
		return err
	}
	return e.catalog.SetUnseen(ctx, title.ID, false)
}
