package sources

import (
	"context"
	"iter"

	"github.com/xKaaZz/Waeleaks/pkg/httpclient"
)

// Family tags how a scraper discovers chapters.
type Family int

const (
	// FamilyCatalog scrapers enumerate every chapter from one listing page.
	FamilyCatalog Family = iota + 1
	// FamilyProbe scrapers can only test one candidate chapter number at a time.
	FamilyProbe
)

func (f Family) String() string {
	switch f {
	case FamilyCatalog:
		return "catalog"
	case FamilyProbe:
		return "probe"
	default:
		return "unknown"
	}
}

// Metadata describes a title as found at a source.
type Metadata struct {
	Title       string
	Description string
	CoverURL    string
}

// ChapterLink is one chapter known at a source. SourceIndex is the source's
// own numbering, before offset correction.
type ChapterLink struct {
	SourceIndex int
	Locator     string
}

// Scraper is implemented by one adapter per source family.
// Concrete implementations live in family-specific files (e.g., madara.go).
type Scraper interface {
	Name() string
	Family() Family
	// Resolve returns the source description for title, or a NotFoundError.
	Resolve(ctx context.Context, title string) (Metadata, error)
	// ListChapterLinks yields chapters in ascending source order. A non-nil
	// error ends the sequence.
	ListChapterLinks(ctx context.Context) iter.Seq2[ChapterLink, error]
	// FetchPages returns page image URLs in reading order. An empty slice means
	// the chapter is not available at the source.
	FetchPages(ctx context.Context, locator string) ([]string, error)
	// ChapterLocator builds the locator for a single source index.
	ChapterLocator(sourceIndex int) string
}

// Builder creates a Scraper bound to a registry entry.
type Builder func(entry Entry, client HTTPClient) (Scraper, error)

// HTTPClient aliases the shared httpclient.Client interface for clarity within sources.
type HTTPClient = httpclient.Client
