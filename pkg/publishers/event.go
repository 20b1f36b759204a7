package publishers

import (
	"time"

	"github.com/google/uuid"

	"github.com/xKaaZz/Waeleaks/internal/domain"
)

// Event announces chapters newly added to the catalog.
type Event struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Strategy      string    `json:"strategy"`
	Chapters      []int     `json:"chapters"`
	LatestChapter int       `json:"latest_chapter"`
	ReleasedAt    time.Time `json:"released_at"`
}

// NewEvent builds an event for a synchronization result.
func NewEvent(res domain.SyncResult) Event {
	chapters := make([]int, len(res.Added))
	copy(chapters, res.Added)
	return Event{
		ID:            uuid.NewString(),
		Title:         res.Title,
		Strategy:      string(res.Strategy),
		Chapters:      chapters,
		LatestChapter: res.Latest(),
		ReleasedAt:    time.Now().UTC(),
	}
}
