package sources

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"sync"

	"github.com/xKaaZz/Waeleaks/internal/domain"
)

const (
	defaultTitleURL     = "{base}/manga/{title}"
	defaultChapterURL   = "{base}/{title}/chapitre-{number}"
	defaultPageSelector = "img"
	defaultMaxProbe     = 2000
)

// probeScraper serves sources without a chapter index: each chapter number is
// tested by requesting its page directly.
type probeScraper struct {
	client       HTTPClient
	entry        Entry
	slug         string
	titleURL     string
	chapterURL   string
	pageSelector string
	startIndex   int
	maxProbe     int
	headers      map[string]string

	// pages fetched during listing, consumed by the next FetchPages call for
	// the same locator.
	mu     sync.Mutex
	primed map[string][]string
}

// NewProbeScraper builds a probe-family scraper for entry.
func NewProbeScraper(entry Entry, client HTTPClient) (Scraper, error) {
	if client == nil {
		return nil, errors.New("http client is nil")
	}
	slug := slugify(entry.SourceTitle)
	if slug == "" {
		return nil, fmt.Errorf("source title %q yields an empty slug", entry.SourceTitle)
	}

	chapterURL := ConfigString(entry, ConfigChapterURLKey, defaultChapterURL)
	if !strings.Contains(chapterURL, "{number}") {
		return nil, fmt.Errorf("%s must contain {number}", ConfigChapterURLKey)
	}

	p := &probeScraper{
		client:       client,
		entry:        entry,
		slug:         slug,
		titleURL:     ConfigString(entry, ConfigTitleURLKey, defaultTitleURL),
		chapterURL:   chapterURL,
		pageSelector: ConfigString(entry, ConfigPageSelectorKey, defaultPageSelector),
		startIndex:   ConfigInt(entry, ConfigStartIndexKey, 1),
		maxProbe:     ConfigInt(entry, ConfigMaxProbeKey, defaultMaxProbe),
		headers:      Headers(entry),
		primed:       make(map[string][]string),
	}
	if p.maxProbe < p.startIndex {
		return nil, fmt.Errorf("%s %d is below %s %d", ConfigMaxProbeKey, p.maxProbe, ConfigStartIndexKey, p.startIndex)
	}
	return p, nil
}

func (p *probeScraper) Name() string   { return ScraperProbe }
func (p *probeScraper) Family() Family { return FamilyProbe }

func (p *probeScraper) ChapterLocator(sourceIndex int) string {
	return expandTemplate(p.chapterURL, p.entry.BaseURL, p.slug, sourceIndex)
}

func (p *probeScraper) Resolve(ctx context.Context, title string) (Metadata, error) {
	slug := slugify(title)
	if slug == "" {
		slug = p.slug
	}
	doc, err := fetchDocument(ctx, p.client, p.Name(), expandTemplate(p.titleURL, p.entry.BaseURL, slug, 0), p.headers)
	if errors.Is(err, errNotFound) {
		return Metadata{}, &domain.NotFoundError{Source: p.Name(), Title: title}
	}
	if err != nil {
		return Metadata{}, err
	}

	og := parseMeta(doc)
	return Metadata{
		Title:       cleanText(firstNonEmpty(og.Title, title)),
		Description: cleanText(og.Description),
		CoverURL:    resolveURL(og.ImageURL, p.entry.BaseURL),
	}, nil
}

// ListChapterLinks probes indices upward from the start index and stops at the
// first chapter with no pages.
func (p *probeScraper) ListChapterLinks(ctx context.Context) iter.Seq2[ChapterLink, error] {
	return func(yield func(ChapterLink, error) bool) {
		for n := p.startIndex; n <= p.maxProbe; n++ {
			if err := ctx.Err(); err != nil {
				yield(ChapterLink{}, &domain.FetchError{Source: p.Name(), Err: err})
				return
			}

			locator := p.ChapterLocator(n)
			pages, err := p.fetch(ctx, locator)
			if err != nil {
				yield(ChapterLink{}, err)
				return
			}
			if len(pages) == 0 {
				return
			}

			p.mu.Lock()
			p.primed[locator] = pages
			p.mu.Unlock()

			if !yield(ChapterLink{SourceIndex: n, Locator: locator}, nil) {
				p.mu.Lock()
				delete(p.primed, locator)
				p.mu.Unlock()
				return
			}
		}
	}
}

func (p *probeScraper) FetchPages(ctx context.Context, locator string) ([]string, error) {
	p.mu.Lock()
	pages, ok := p.primed[locator]
	delete(p.primed, locator)
	p.mu.Unlock()
	if ok {
		return pages, nil
	}
	return p.fetch(ctx, locator)
}

func (p *probeScraper) fetch(ctx context.Context, locator string) ([]string, error) {
	doc, err := fetchDocument(ctx, p.client, p.Name(), locator, p.headers)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return imageURLs(doc.Find(p.pageSelector), locator), nil
}
