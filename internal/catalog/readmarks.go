package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/xKaaZz/Waeleaks/internal/domain"
)

// MarkRead records that the user read the chapter. Marking twice is a no-op.
func (s *Store) MarkRead(ctx context.Context, userID, chapterID int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requireRow(ctx, tx, `SELECT 1 FROM users WHERE id = ?`, userID, domain.ErrUserNotFound); err != nil {
			return err
		}
		if err := requireRow(ctx, tx, `SELECT 1 FROM chapters WHERE id = ?`, chapterID, domain.ErrChapterNotFound); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO read_marks (user_id, chapter_id) VALUES (?, ?)`, userID, chapterID); err != nil {
			return fmt.Errorf("insert read mark: %w", err)
		}
		return nil
	})
}

// UnmarkRead removes the read mark if present.
func (s *Store) UnmarkRead(ctx context.Context, userID, chapterID int64) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM read_marks WHERE user_id = ? AND chapter_id = ?`, userID, chapterID); err != nil {
		return fmt.Errorf("delete read mark: %w", err)
	}
	return nil
}

// MarkAllRead marks every chapter of the title read for the user.
func (s *Store) MarkAllRead(ctx context.Context, userID, titleID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO read_marks (user_id, chapter_id) SELECT ?, id FROM chapters WHERE title_id = ?`,
		userID, titleID)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// UnmarkAllRead removes the user's read marks on every chapter of the title.
func (s *Store) UnmarkAllRead(ctx context.Context, userID, titleID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM read_marks WHERE user_id = ? AND chapter_id IN (SELECT id FROM chapters WHERE title_id = ?)`,
		userID, titleID)
	if err != nil {
		return 0, fmt.Errorf("unmark all read: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// ReadChapterIDs lists the chapters of the title the user has read.
func (s *Store) ReadChapterIDs(ctx context.Context, userID, titleID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT rm.chapter_id FROM read_marks rm
		 JOIN chapters c ON c.id = rm.chapter_id
		 WHERE rm.user_id = ? AND c.title_id = ?
		 ORDER BY c.number, c.id`, userID, titleID)
	if err != nil {
		return nil, fmt.Errorf("list read marks: %w", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan read mark: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// CountReadMarks counts read marks of any user on the title's chapters.
func (s *Store) CountReadMarks(ctx context.Context, titleID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM read_marks rm JOIN chapters c ON c.id = rm.chapter_id WHERE c.title_id = ?`,
		titleID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count read marks: %w", err)
	}
	return n, nil
}

func requireRow(ctx context.Context, tx *sql.Tx, query string, id int64, missing error) error {
	var one int
	err := tx.QueryRowContext(ctx, query, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return missing
	}
	if err != nil {
		return fmt.Errorf("lookup %d: %w", id, err)
	}
	return nil
}
