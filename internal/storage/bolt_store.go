package storage

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	rootBucket       = "feed_entries"
	expiryValueBytes = 8
)

var errBucketMissing = fmt.Errorf("%s bucket missing", rootBucket)

// boltStore keeps one nested bucket per title under rootBucket. Each key is
// a feed entry id and each value its expiry as big-endian unix seconds.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	entryTTL        time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
}

func openBolt(path string, opts Options) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(rootBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	store := &boltStore{
		db:              db,
		entryTTL:        opts.EntryTTL,
		cleanupInterval: opts.CleanupInterval,
		now:             time.Now,
	}
	store.lastCleanup.Store(store.now().Unix())
	return store, nil
}

func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// titleBucketKey folds case and surrounding space so "One Piece" and
// "one piece " share state.
func titleBucketKey(title string) []byte {
	return []byte(strings.ToLower(strings.TrimSpace(title)))
}

func (b *boltStore) Unseen(title string, ids []string) ([]string, error) {
	if b == nil || b.db == nil {
		return append([]string(nil), ids...), nil
	}
	if len(ids) == 0 {
		return nil, nil
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return nil, err
	}

	var unseen []string
	err := b.db.View(func(tx *bolt.Tx) error {
		root := tx.Bucket([]byte(rootBucket))
		if root == nil {
			return errBucketMissing
		}
		entries := root.Bucket(titleBucketKey(title))
		for _, id := range ids {
			if entries == nil {
				unseen = append(unseen, id)
				continue
			}
			expiry, ok := decodeExpiry(entries.Get([]byte(id)))
			if !ok || !expiry.After(now) {
				unseen = append(unseen, id)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return unseen, nil
}

func (b *boltStore) MarkSeen(title string, ids []string) error {
	if b == nil || b.db == nil || len(ids) == 0 {
		return nil
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}

	buf := make([]byte, expiryValueBytes)
	binary.BigEndian.PutUint64(buf, uint64(now.Add(b.entryTTL).Unix()))

	return b.db.Update(func(tx *bolt.Tx) error {
		root := tx.Bucket([]byte(rootBucket))
		if root == nil {
			return errBucketMissing
		}
		entries, err := root.CreateBucketIfNotExists(titleBucketKey(title))
		if err != nil {
			return fmt.Errorf("title bucket: %w", err)
		}
		for _, id := range ids {
			if err := entries.Put([]byte(id), buf); err != nil {
				return err
			}
		}
		return nil
	})
}

// maybeCleanupExpired sweeps expired entries at most once per cleanup
// interval and drops title buckets left empty.
func (b *boltStore) maybeCleanupExpired(now time.Time) error {
	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		root := tx.Bucket([]byte(rootBucket))
		if root == nil {
			return errBucketMissing
		}

		var emptied [][]byte
		err := root.ForEachBucket(func(name []byte) error {
			entries := root.Bucket(name)
			var expired [][]byte
			err := entries.ForEach(func(k, v []byte) error {
				if expiry, ok := decodeExpiry(v); !ok || !expiry.After(now) {
					expired = append(expired, append([]byte(nil), k...))
				}
				return nil
			})
			if err != nil {
				return err
			}
			for _, k := range expired {
				if err := entries.Delete(k); err != nil {
					return err
				}
			}
			if k, _ := entries.Cursor().First(); k == nil {
				emptied = append(emptied, append([]byte(nil), name...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, name := range emptied {
			if err := root.DeleteBucket(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

// stats returns the number of title buckets and the entries they hold.
func (b *boltStore) stats() (titles, entries int, err error) {
	err = b.db.View(func(tx *bolt.Tx) error {
		root := tx.Bucket([]byte(rootBucket))
		if root == nil {
			return errBucketMissing
		}
		return root.ForEachBucket(func(name []byte) error {
			titles++
			entries += root.Bucket(name).Stats().KeyN
			return nil
		})
	})
	return titles, entries, err
}

func decodeExpiry(value []byte) (time.Time, bool) {
	if len(value) != expiryValueBytes {
		return time.Time{}, false
	}
	unix := int64(binary.BigEndian.Uint64(value))
	if unix <= 0 {
		return time.Time{}, false
	}
	return time.Unix(unix, 0), true
}
