package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/xKaaZz/Waeleaks/internal/domain"
)

// ReplaceChapters deletes every chapter of the title and inserts chapters in
// the same transaction. Read marks of the old chapters cascade.
func (s *Store) ReplaceChapters(ctx context.Context, titleID int64, chapters []domain.Chapter) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM chapters WHERE title_id = ?`, titleID); err != nil {
			return fmt.Errorf("delete chapters: %w", err)
		}
		return insertChapters(ctx, tx, titleID, chapters)
	})
}

// AddChapters appends chapters in one transaction without touching existing rows.
func (s *Store) AddChapters(ctx context.Context, titleID int64, chapters []domain.Chapter) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return insertChapters(ctx, tx, titleID, chapters)
	})
}

// AddChapter inserts a single chapter and returns it with its id.
func (s *Store) AddChapter(ctx context.Context, titleID int64, ch domain.Chapter) (domain.Chapter, error) {
	pages, err := encodePages(ch.Pages)
	if err != nil {
		return domain.Chapter{}, err
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO chapters (title_id, number, pages) VALUES (?, ?, ?)`, titleID, ch.Number, pages)
	if err != nil {
		return domain.Chapter{}, fmt.Errorf("insert chapter %d: %w", ch.Number, err)
	}
	ch.TitleID = titleID
	if ch.ID, err = res.LastInsertId(); err != nil {
		return domain.Chapter{}, fmt.Errorf("chapter id: %w", err)
	}
	return ch, nil
}

func insertChapters(ctx context.Context, tx *sql.Tx, titleID int64, chapters []domain.Chapter) error {
	if len(chapters) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO chapters (title_id, number, pages) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare chapter insert: %w", err)
	}
	defer stmt.Close()

	for _, ch := range chapters {
		pages, err := encodePages(ch.Pages)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, titleID, ch.Number, pages); err != nil {
			return fmt.Errorf("insert chapter %d: %w", ch.Number, err)
		}
	}
	return nil
}

// MaxChapterNumber returns the highest stored number for the title, 0 when empty.
func (s *Store) MaxChapterNumber(ctx context.Context, titleID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(number), 0) FROM chapters WHERE title_id = ?`, titleID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("max chapter number: %w", err)
	}
	return n, nil
}

// ChapterNumbers returns the distinct stored numbers for the title in ascending order.
func (s *Store) ChapterNumbers(ctx context.Context, titleID int64) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT number FROM chapters WHERE title_id = ? ORDER BY number`, titleID)
	if err != nil {
		return nil, fmt.Errorf("chapter numbers: %w", err)
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan chapter number: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// ChaptersByTitle lists the title's chapters ordered by number.
func (s *Store) ChaptersByTitle(ctx context.Context, titleID int64) ([]domain.Chapter, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title_id, number, pages FROM chapters WHERE title_id = ? ORDER BY number, id`, titleID)
	if err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	defer rows.Close()

	var out []domain.Chapter
	for rows.Next() {
		ch, err := scanChapter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

// Chapter returns one chapter with the ids of its nearest neighbours by number
// within the same title.
func (s *Store) Chapter(ctx context.Context, id int64) (domain.ChapterView, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, title_id, number, pages FROM chapters WHERE id = ?`, id)
	ch, err := scanChapter(row)
	if err != nil {
		return domain.ChapterView{}, err
	}

	view := domain.ChapterView{Chapter: ch}
	if view.NextChapterID, err = s.neighbour(ctx,
		`SELECT id FROM chapters WHERE title_id = ? AND number > ? ORDER BY number ASC, id ASC LIMIT 1`, ch); err != nil {
		return domain.ChapterView{}, err
	}
	if view.PreviousChapterID, err = s.neighbour(ctx,
		`SELECT id FROM chapters WHERE title_id = ? AND number < ? ORDER BY number DESC, id DESC LIMIT 1`, ch); err != nil {
		return domain.ChapterView{}, err
	}
	return view, nil
}

func (s *Store) neighbour(ctx context.Context, query string, ch domain.Chapter) (*int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, query, ch.TitleID, ch.Number).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("chapter neighbour: %w", err)
	}
	return &id, nil
}

func scanChapter(row rowScanner) (domain.Chapter, error) {
	var (
		ch    domain.Chapter
		pages string
	)
	err := row.Scan(&ch.ID, &ch.TitleID, &ch.Number, &pages)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Chapter{}, domain.ErrChapterNotFound
	}
	if err != nil {
		return domain.Chapter{}, fmt.Errorf("scan chapter: %w", err)
	}
	if err := json.Unmarshal([]byte(pages), &ch.Pages); err != nil {
		return domain.Chapter{}, fmt.Errorf("decode pages of chapter %d: %w", ch.ID, err)
	}
	return ch, nil
}

func encodePages(pages []string) (string, error) {
	if pages == nil {
		pages = []string{}
	}
	raw, err := json.Marshal(pages)
	if err != nil {
		return "", fmt.Errorf("encode pages: %w", err)
	}
	return string(raw), nil
}
