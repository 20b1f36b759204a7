package domain

import (
	"errors"
	"fmt"
)

var (
	ErrTitleExists     = errors.New("title already tracked")
	ErrTitleNotTracked = errors.New("title not tracked")
	ErrChapterNotFound = errors.New("chapter not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("user already exists")
	ErrInvalidRange    = errors.New("invalid chapter range")
	ErrTitleBusy       = errors.New("another synchronization pass holds the title")
)

// UnsupportedTitleError is returned when no scraper is registered for a title.
type UnsupportedTitleError struct {
	Title string
}

func (e *UnsupportedTitleError) Error() string {
	return fmt.Sprintf("no scraper registered for title %q", e.Title)
}

// NotFoundError is returned when a source has no content matching a title.
type NotFoundError struct {
	Source string
	Title  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s has no content for %q", e.Source, e.Title)
}

// FetchError wraps a transport or parse failure while talking to a source.
type FetchError struct {
	Source  string
	Locator string
	Err     error
}

func (e *FetchError) Error() string {
	if e.Locator == "" {
		return fmt.Sprintf("%s fetch failed: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("%s fetch %s failed: %v", e.Source, e.Locator, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// EmptyResultError is returned when a full reseed fetched zero chapters.
type EmptyResultError struct {
	Title string
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("reseed of %q fetched no chapters", e.Title)
}

// IsFetchError reports whether err carries a FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}
