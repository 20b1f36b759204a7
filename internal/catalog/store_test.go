package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/xKaaZz/Waeleaks/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "catalog.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func chaptersFor(numbers ...int) []domain.Chapter {
	out := make([]domain.Chapter, 0, len(numbers))
	for _, n := range numbers {
		out = append(out, domain.Chapter{Number: n, Pages: []string{"https://cdn.test/p1.jpg"}})
	}
	return out
}

func seedTitle(t *testing.T, s *Store, name string, numbers ...int) domain.Title {
	t.Helper()
	title, err := s.CreateTitle(context.Background(), domain.Title{Name: name}, chaptersFor(numbers...))
	if err != nil {
		t.Fatalf("CreateTitle(%s): %v", name, err)
	}
	return title
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	first, err := Open(path)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	first.Close()

	second, err := Open(path)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	second.Close()
}

func TestCreateTitleAndLookup(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	created, err := s.CreateTitle(ctx, domain.Title{Name: "One Piece", Description: "Pirates", CoverURL: "c.jpg"}, chaptersFor(1, 2, 3))
	if err != nil {
		t.Fatalf("CreateTitle: %v", err)
	}
	if created.ID == 0 || created.CreatedAt.IsZero() {
		t.Fatalf("unexpected created title %+v", created)
	}

	got, err := s.TitleByName(ctx, "one piece")
	if err != nil {
		t.Fatalf("TitleByName: %v", err)
	}
	if got.ID != created.ID || got.Description != "Pirates" || got.HasNewChapter {
		t.Fatalf("unexpected title %+v", got)
	}

	if _, err := s.CreateTitle(ctx, domain.Title{Name: "ONE PIECE"}, nil); !errors.Is(err, domain.ErrTitleExists) {
		t.Fatalf("expected ErrTitleExists, got %v", err)
	}
	if _, err := s.TitleByName(ctx, "Bleach"); !errors.Is(err, domain.ErrTitleNotTracked) {
		t.Fatalf("expected ErrTitleNotTracked, got %v", err)
	}

	highest, err := s.MaxChapterNumber(ctx, created.ID)
	if err != nil || highest != 3 {
		t.Fatalf("MaxChapterNumber = %d err=%v", highest, err)
	}
}

func TestMaxChapterNumberEmptyTitle(t *testing.T) {
	s := openTestStore(t)
	title := seedTitle(t, s, "Empty")

	highest, err := s.MaxChapterNumber(context.Background(), title.ID)
	if err != nil || highest != 0 {
		t.Fatalf("MaxChapterNumber = %d err=%v", highest, err)
	}
}

func TestSetUnseen(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	title := seedTitle(t, s, "Kingdom", 1)

	if err := s.SetUnseen(ctx, title.ID, true); err != nil {
		t.Fatalf("SetUnseen: %v", err)
	}
	got, _ := s.TitleByID(ctx, title.ID)
	if !got.HasNewChapter {
		t.Fatalf("expected unseen flag set")
	}
	if err := s.SetUnseen(ctx, title.ID, false); err != nil {
		t.Fatalf("clear: %v", err)
	}
	got, _ = s.TitleByID(ctx, title.ID)
	if got.HasNewChapter {
		t.Fatalf("expected unseen flag cleared")
	}
	if err := s.SetUnseen(ctx, 9999, true); !errors.Is(err, domain.ErrTitleNotTracked) {
		t.Fatalf("expected ErrTitleNotTracked, got %v", err)
	}
}

func TestReplaceChaptersCascadesReadMarks(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	title := seedTitle(t, s, "One Piece", 1, 2, 3)
	user, err := s.CreateUser(ctx, "ana")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := s.MarkAllRead(ctx, user.ID, title.ID); err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}

	if err := s.ReplaceChapters(ctx, title.ID, chaptersFor(1, 2, 3, 4, 5)); err != nil {
		t.Fatalf("ReplaceChapters: %v", err)
	}

	chapters, err := s.ChaptersByTitle(ctx, title.ID)
	if err != nil {
		t.Fatalf("ChaptersByTitle: %v", err)
	}
	if len(chapters) != 5 {
		t.Fatalf("expected 5 chapters, got %d", len(chapters))
	}
	if n, _ := s.CountReadMarks(ctx, title.ID); n != 0 {
		t.Fatalf("expected read marks to cascade, %d left", n)
	}
	if chapters[0].Pages[0] != "https://cdn.test/p1.jpg" {
		t.Fatalf("pages not round-tripped: %v", chapters[0].Pages)
	}
}

func TestAddChaptersKeepsExistingAndAllowsDuplicates(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	title := seedTitle(t, s, "Kingdom", 1, 2)

	if err := s.AddChapters(ctx, title.ID, chaptersFor(2, 3)); err != nil {
		t.Fatalf("AddChapters: %v", err)
	}
	chapters, _ := s.ChaptersByTitle(ctx, title.ID)
	if len(chapters) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(chapters))
	}
	numbers, _ := s.ChapterNumbers(ctx, title.ID)
	if len(numbers) != 3 || numbers[2] != 3 {
		t.Fatalf("ChapterNumbers = %v", numbers)
	}
}

func TestChapterNeighbours(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	title := seedTitle(t, s, "One Piece", 10, 12, 15)
	seedTitle(t, s, "Kingdom", 11, 13)

	chapters, _ := s.ChaptersByTitle(ctx, title.ID)
	first, middle, last := chapters[0], chapters[1], chapters[2]

	view, err := s.Chapter(ctx, middle.ID)
	if err != nil {
		t.Fatalf("Chapter: %v", err)
	}
	if view.PreviousChapterID == nil || *view.PreviousChapterID != first.ID {
		t.Fatalf("previous = %v want %d", view.PreviousChapterID, first.ID)
	}
	if view.NextChapterID == nil || *view.NextChapterID != last.ID {
		t.Fatalf("next = %v want %d", view.NextChapterID, last.ID)
	}

	view, _ = s.Chapter(ctx, first.ID)
	if view.PreviousChapterID != nil {
		t.Fatalf("first chapter must have no previous")
	}
	view, _ = s.Chapter(ctx, last.ID)
	if view.NextChapterID != nil {
		t.Fatalf("last chapter must have no next")
	}

	if _, err := s.Chapter(ctx, 424242); !errors.Is(err, domain.ErrChapterNotFound) {
		t.Fatalf("expected ErrChapterNotFound, got %v", err)
	}
}

func TestReadMarksRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	title := seedTitle(t, s, "One Piece", 1, 2, 3)
	user, _ := s.CreateUser(ctx, "ana")
	chapters, _ := s.ChaptersByTitle(ctx, title.ID)

	if err := s.MarkRead(ctx, user.ID, chapters[0].ID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if err := s.MarkRead(ctx, user.ID, chapters[0].ID); err != nil {
		t.Fatalf("MarkRead twice: %v", err)
	}
	ids, _ := s.ReadChapterIDs(ctx, user.ID, title.ID)
	if len(ids) != 1 {
		t.Fatalf("expected one read mark, got %v", ids)
	}

	if _, err := s.MarkAllRead(ctx, user.ID, title.ID); err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	ids, _ = s.ReadChapterIDs(ctx, user.ID, title.ID)
	if len(ids) != 3 {
		t.Fatalf("expected 3 read marks, got %v", ids)
	}

	if _, err := s.UnmarkAllRead(ctx, user.ID, title.ID); err != nil {
		t.Fatalf("UnmarkAllRead: %v", err)
	}
	if n, _ := s.CountReadMarks(ctx, title.ID); n != 0 {
		t.Fatalf("expected zero read marks, got %d", n)
	}

	if err := s.UnmarkRead(ctx, user.ID, chapters[1].ID); err != nil {
		t.Fatalf("UnmarkRead on unread chapter: %v", err)
	}
}

func TestMarkReadUnknownRows(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	title := seedTitle(t, s, "One Piece", 1)
	user, _ := s.CreateUser(ctx, "ana")
	chapters, _ := s.ChaptersByTitle(ctx, title.ID)

	if err := s.MarkRead(ctx, user.ID, 777); !errors.Is(err, domain.ErrChapterNotFound) {
		t.Fatalf("expected ErrChapterNotFound, got %v", err)
	}
	if err := s.MarkRead(ctx, 777, chapters[0].ID); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUsersAndSubscribers(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"ana", "bob", "cid"} {
		if _, err := s.CreateUser(ctx, name); err != nil {
			t.Fatalf("CreateUser(%s): %v", name, err)
		}
	}
	if _, err := s.CreateUser(ctx, "ana"); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}

	if err := s.SetEndpoint(ctx, "ana", "1001", "tok-a"); err != nil {
		t.Fatalf("SetEndpoint: %v", err)
	}
	if err := s.SetEndpoint(ctx, "bob", "1002", ""); err != nil {
		t.Fatalf("SetEndpoint partial: %v", err)
	}
	if err := s.SetEndpoint(ctx, "zoe", "1", "x"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	subs, err := s.Subscribers(ctx)
	if err != nil {
		t.Fatalf("Subscribers: %v", err)
	}
	if len(subs) != 1 || subs[0].Username != "ana" || subs[0].RecipientID != "1001" {
		t.Fatalf("unexpected subscribers %+v", subs)
	}

	u, err := s.UserByName(ctx, "bob")
	if err != nil {
		t.Fatalf("UserByName: %v", err)
	}
	if u.Subscribed() {
		t.Fatalf("bob has no credential and must not be subscribed")
	}
}
