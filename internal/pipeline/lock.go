package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/xKaaZz/Waeleaks/internal/domain"
)

const lockRetryDelay = 100 * time.Millisecond

var lockNameRe = regexp.MustCompile(`[^a-z0-9]+`)

// TitleLocks hands out one advisory file lock per title so overlapping passes
// on the same title run one after the other, across processes too.
type TitleLocks struct {
	dir     string
	timeout time.Duration
}

// NewTitleLocks stores lock files under dir. An empty dir disables locking.
func NewTitleLocks(dir string, timeout time.Duration) *TitleLocks {
	return &TitleLocks{dir: strings.TrimSpace(dir), timeout: timeout}
}

// Acquire blocks until the title lock is held or the timeout elapses. The
// returned func releases the lock.
func (l *TitleLocks) Acquire(ctx context.Context, title string) (func(), error) {
	if l == nil || l.dir == "" {
		return func() {}, nil
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}

	fl := flock.New(filepath.Join(l.dir, lockFileName(title)))

	lockCtx := ctx
	if l.timeout > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	ok, err := fl.TryLockContext(lockCtx, lockRetryDelay)
	switch {
	case err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		return nil, fmt.Errorf("%w: %s", domain.ErrTitleBusy, title)
	case err != nil:
		return nil, fmt.Errorf("acquire title lock: %w", err)
	case !ok:
		return nil, fmt.Errorf("%w: %s", domain.ErrTitleBusy, title)
	}

	return func() { _ = fl.Unlock() }, nil
}

func lockFileName(title string) string {
	name := strings.Trim(lockNameRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(title)), "-"), "-")
	if name == "" {
		name = "untitled"
	}
	return name + ".lock"
}
