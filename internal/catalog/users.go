package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/xKaaZz/Waeleaks/internal/domain"
)

// CreateUser registers a reader without a messaging endpoint.
func (s *Store) CreateUser(ctx context.Context, username string) (domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.User{}, errors.New("username is empty")
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO users (username) VALUES (?)`, username)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, domain.ErrUserExists
		}
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.User{}, fmt.Errorf("user id: %w", err)
	}
	return domain.User{ID: id, Username: username}, nil
}

// UserByName returns the user or ErrUserNotFound.
func (s *Store) UserByName(ctx context.Context, username string) (domain.User, error) {
	var u domain.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, recipient_id, credential FROM users WHERE username = ?`, strings.TrimSpace(username)).
		Scan(&u.ID, &u.Username, &u.RecipientID, &u.Credential)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// SetEndpoint stores the user's messaging recipient and credential. Empty
// values unsubscribe the user.
func (s *Store) SetEndpoint(ctx context.Context, username, recipientID, credential string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET recipient_id = ?, credential = ? WHERE username = ?`,
		strings.TrimSpace(recipientID), strings.TrimSpace(credential), strings.TrimSpace(username))
	if err != nil {
		return fmt.Errorf("update endpoint: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// Subscribers lists users whose recipient and credential are both set.
func (s *Store) Subscribers(ctx context.Context) ([]domain.Subscriber, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, recipient_id, credential FROM users
		 WHERE recipient_id <> '' AND credential <> '' ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	defer rows.Close()

	var out []domain.Subscriber
	for rows.Next() {
		var sub domain.Subscriber
		if err := rows.Scan(&sub.UserID, &sub.Username, &sub.RecipientID, &sub.Credential); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}
