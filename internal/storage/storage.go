// Package storage keeps the watcher's record of feed entries already acted on.
package storage

import (
	"fmt"
	"strings"
	"time"
)

// Store remembers which feed entries announcing a title were already acted
// on. Entries are scoped per title, so two titles sharing one feed keep
// separate state.
type Store interface {
	Close() error
	// Unseen returns the ids among ids that were never marked for title or
	// whose mark expired, in input order.
	Unseen(title string, ids []string) ([]string, error)
	// MarkSeen records ids for title for the configured TTL.
	MarkSeen(title string, ids []string) error
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	EntryTTL        time.Duration
	CleanupInterval time.Duration
}

const (
	defaultEntryTTL        = 30 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.EntryTTL <= 0 {
		opts.EntryTTL = defaultEntryTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

// noopStore never remembers anything, so every feed entry looks new.
type noopStore struct{}

func (noopStore) Close() error { return nil }

func (noopStore) Unseen(_ string, ids []string) ([]string, error) {
	return append([]string(nil), ids...), nil
}

func (noopStore) MarkSeen(string, []string) error { return nil }
