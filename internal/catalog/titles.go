package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xKaaZz/Waeleaks/internal/domain"
)

const titleColumns = `id, name, description, cover_url, has_new_chapter, created_at`

// CreateTitle inserts a title together with its initial chapters in one transaction.
func (s *Store) CreateTitle(ctx context.Context, t domain.Title, chapters []domain.Chapter) (domain.Title, error) {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return domain.Title{}, errors.New("title name is empty")
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO titles (name, description, cover_url, has_new_chapter, created_at) VALUES (?, ?, ?, ?, ?)`,
			t.Name, t.Description, t.CoverURL, t.HasNewChapter, t.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrTitleExists
			}
			return fmt.Errorf("insert title: %w", err)
		}
		if t.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("title id: %w", err)
		}
		return insertChapters(ctx, tx, t.ID, chapters)
	})
	if err != nil {
		return domain.Title{}, err
	}
	return t, nil
}

// TitleByName looks a title up case-insensitively.
func (s *Store) TitleByName(ctx context.Context, name string) (domain.Title, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+titleColumns+` FROM titles WHERE name = ?`, strings.TrimSpace(name))
	return scanTitle(row)
}

// TitleByID returns the title with id.
func (s *Store) TitleByID(ctx context.Context, id int64) (domain.Title, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+titleColumns+` FROM titles WHERE id = ?`, id)
	return scanTitle(row)
}

// ListTitles returns every tracked title ordered by name.
func (s *Store) ListTitles(ctx context.Context) ([]domain.Title, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+titleColumns+` FROM titles ORDER BY name COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("list titles: %w", err)
	}
	defer rows.Close()

	var out []domain.Title
	for rows.Next() {
		t, err := scanTitle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// SetUnseen sets or clears the title's has-new-chapter flag.
func (s *Store) SetUnseen(ctx context.Context, titleID int64, unseen bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE titles SET has_new_chapter = ? WHERE id = ?`, unseen, titleID)
	if err != nil {
		return fmt.Errorf("update unseen flag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrTitleNotTracked
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTitle(row rowScanner) (domain.Title, error) {
	var t domain.Title
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.CoverURL, &t.HasNewChapter, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Title{}, domain.ErrTitleNotTracked
	}
	if err != nil {
		return domain.Title{}, fmt.Errorf("scan title: %w", err)
	}
	return t, nil
}
