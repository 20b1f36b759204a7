package sources

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/xKaaZz/Waeleaks/internal/domain"
)

const defaultChapterPrefix = "chapitre"

// madaraScraper reads sites built on the Madara WordPress theme, which list
// every chapter on the title page.
type madaraScraper struct {
	client  HTTPClient
	entry   Entry
	slug    string
	prefix  string
	headers map[string]string
}

// NewMadaraScraper builds a catalog-family scraper for entry.
func NewMadaraScraper(entry Entry, client HTTPClient) (Scraper, error) {
	if client == nil {
		return nil, errors.New("http client is nil")
	}
	slug := slugify(entry.SourceTitle)
	if slug == "" {
		return nil, fmt.Errorf("source title %q yields an empty slug", entry.SourceTitle)
	}
	return &madaraScraper{
		client:  client,
		entry:   entry,
		slug:    slug,
		prefix:  strings.Trim(ConfigString(entry, ConfigChapterPrefixKey, defaultChapterPrefix), "/"),
		headers: Headers(entry),
	}, nil
}

func (m *madaraScraper) Name() string   { return ScraperMadara }
func (m *madaraScraper) Family() Family { return FamilyCatalog }

func (m *madaraScraper) titleURL(slug string) string {
	return m.entry.BaseURL + "/manga/" + slug + "/"
}

func (m *madaraScraper) ChapterLocator(sourceIndex int) string {
	return m.titleURL(m.slug) + m.prefix + "-" + strconv.Itoa(sourceIndex) + "/"
}

func (m *madaraScraper) Resolve(ctx context.Context, title string) (Metadata, error) {
	slug := slugify(title)
	if slug == "" {
		slug = m.slug
	}
	doc, err := fetchDocument(ctx, m.client, m.Name(), m.titleURL(slug), m.headers)
	if errors.Is(err, errNotFound) {
		return Metadata{}, &domain.NotFoundError{Source: m.Name(), Title: title}
	}
	if err != nil {
		return Metadata{}, err
	}

	heading := doc.Find(".post-title h1, .post-title h3").First().Clone()
	heading.Children().Remove()
	og := parseMeta(doc)

	meta := Metadata{
		Title:       cleanText(firstNonEmpty(heading.Text(), og.Title)),
		Description: cleanText(firstNonEmpty(doc.Find(".summary__content, .description-summary").First().Text(), og.Description)),
	}
	if covers := imageURLs(doc.Find(".summary_image img").First(), m.entry.BaseURL); len(covers) > 0 {
		meta.CoverURL = covers[0]
	} else {
		meta.CoverURL = og.ImageURL
	}

	if meta.Title == "" {
		return Metadata{}, &domain.NotFoundError{Source: m.Name(), Title: title}
	}
	return meta, nil
}

func (m *madaraScraper) ListChapterLinks(ctx context.Context) iter.Seq2[ChapterLink, error] {
	return func(yield func(ChapterLink, error) bool) {
		target := m.titleURL(m.slug)
		doc, err := fetchDocument(ctx, m.client, m.Name(), target, m.headers)
		if errors.Is(err, errNotFound) {
			err = &domain.FetchError{Source: m.Name(), Locator: target, Err: err}
		}
		if err != nil {
			yield(ChapterLink{}, err)
			return
		}

		for _, link := range m.collectLinks(doc) {
			if !yield(link, nil) {
				return
			}
		}
	}
}

// collectLinks returns unique chapter links sorted by source index. Madara
// lists newest first.
func (m *madaraScraper) collectLinks(doc *goquery.Document) []ChapterLink {
	byIndex := make(map[int]ChapterLink)
	doc.Find("li.wp-manga-chapter a").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		href = resolveURL(href, m.entry.BaseURL)

		n, err := chapterNumber(href)
		if errors.Is(err, errNoChapterNumber) {
			n, err = chapterNumber(a.Text())
		}
		if err != nil {
			// unnumbered and fractional releases have no integer slot
			return
		}
		if _, dup := byIndex[n]; !dup {
			byIndex[n] = ChapterLink{SourceIndex: n, Locator: href}
		}
	})

	links := make([]ChapterLink, 0, len(byIndex))
	for _, l := range byIndex {
		links = append(links, l)
	}
	sort.Slice(links, func(i, j int) bool { return links[i].SourceIndex < links[j].SourceIndex })
	return links
}

func (m *madaraScraper) FetchPages(ctx context.Context, locator string) ([]string, error) {
	doc, err := fetchDocument(ctx, m.client, m.Name(), locator, m.headers)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return imageURLs(doc.Find(".reading-content img, .page-break img"), locator), nil
}
