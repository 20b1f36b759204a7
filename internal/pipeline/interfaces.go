package pipeline

import (
	"context"

	"github.com/xKaaZz/Waeleaks/internal/domain"
	"github.com/xKaaZz/Waeleaks/internal/notify"
	"github.com/xKaaZz/Waeleaks/pkg/publishers"
	"github.com/xKaaZz/Waeleaks/pkg/sources"
)

// Catalog is the storage surface the engine writes through.
type Catalog interface {
	CreateTitle(ctx context.Context, t domain.Title, chapters []domain.Chapter) (domain.Title, error)
	TitleByName(ctx context.Context, name string) (domain.Title, error)
	ListTitles(ctx context.Context) ([]domain.Title, error)
	SetUnseen(ctx context.Context, titleID int64, unseen bool) error
	ReplaceChapters(ctx context.Context, titleID int64, chapters []domain.Chapter) error
	AddChapters(ctx context.Context, titleID int64, chapters []domain.Chapter) error
	AddChapter(ctx context.Context, titleID int64, ch domain.Chapter) (domain.Chapter, error)
	MaxChapterNumber(ctx context.Context, titleID int64) (int, error)
	ChapterNumbers(ctx context.Context, titleID int64) ([]int, error)
}

// SourceRegistry resolves a title to its scraper binding.
type SourceRegistry interface {
	Lookup(title string) (sources.Binding, error)
}

// Notifier announces new chapters to subscribers.
type Notifier interface {
	Notify(ctx context.Context, title string, added []int) (notify.Report, error)
}

// EventPublisher forwards chapter events downstream.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}
