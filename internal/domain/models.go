package domain

// Domain contains core models shared by the catalog, the pipeline and the CLI.

import "time"

// Title is a tracked serialized work.
type Title struct {
	ID            int64
	Name          string
	Description   string
	CoverURL      string
	HasNewChapter bool
	CreatedAt     time.Time
}

// Chapter belongs to exactly one Title. Number is the canonical chapter number.
type Chapter struct {
	ID      int64
	TitleID int64
	Number  int
	Pages   []string
}

// ChapterView is a chapter with its navigation neighbours inside the same title.
type ChapterView struct {
	Chapter
	NextChapterID     *int64
	PreviousChapterID *int64
}

// User is a reader of the catalog. RecipientID and Credential form the
// optional external messaging endpoint.
type User struct {
	ID          int64
	Username    string
	RecipientID string
	Credential  string
}

// Subscriber is a user whose messaging endpoint is fully populated.
type Subscriber struct {
	UserID      int64
	Username    string
	RecipientID string
	Credential  string
}

// Subscribed reports whether both endpoint fields are set.
func (u User) Subscribed() bool {
	return u.RecipientID != "" && u.Credential != ""
}

// Strategy names a synchronization strategy.
type Strategy string

const (
	StrategyCreate   Strategy = "create"
	StrategyRefresh  Strategy = "refresh"
	StrategyCatchUp  Strategy = "catch_up"
	StrategyBackfill Strategy = "backfill"
)

// SyncResult is the outcome of one synchronization pass: the canonical chapter
// numbers actually added, in ascending order.
type SyncResult struct {
	Title    string   `json:"title"`
	Strategy Strategy `json:"strategy"`
	Added    []int    `json:"new_chapters"`
}

// Latest returns the highest added chapter number, or 0 when nothing was added.
func (r SyncResult) Latest() int {
	latest := 0
	for _, n := range r.Added {
		if n > latest {
			latest = n
		}
	}
	return latest
}
