package sources

import (
	"context"
	"errors"
	"testing"

	"github.com/xKaaZz/Waeleaks/internal/domain"
)

const madaraTitlePage = `<html><head>
<meta property="og:title" content="One Piece - Scan">
<meta property="og:image" content="https://scan.test/og.jpg">
</head><body>
<div class="post-title"><h1><span class="manga-title-badges hot">HOT</span> One Piece </h1></div>
<div class="summary_image"><a><img data-src="/covers/op.jpg" src="data:image/gif;base64,AAAA"></a></div>
<div class="summary__content"><p>Luffy <em>wants</em> the One Piece.</p></div>
<ul class="main version-chap">
  <li class="wp-manga-chapter"><a href="https://scan.test/manga/one-piece/chapitre-3/">Chapitre 3</a></li>
  <li class="wp-manga-chapter"><a href="/manga/one-piece/chapitre-2/">Chapitre 2</a></li>
  <li class="wp-manga-chapter"><a href="https://scan.test/manga/one-piece/chapitre-2/">Chapitre 2 (dup)</a></li>
  <li class="wp-manga-chapter"><a href="https://scan.test/manga/one-piece/chapitre-1/">Chapitre 1</a></li>
  <li class="wp-manga-chapter"><a href="">broken</a></li>
</ul>
</body></html>`

const madaraChapterPage = `<html><body><div class="reading-content">
<div class="page-break"><img data-src=" https://cdn.test/op/1.jpg "></div>
<div class="page-break"><img src="/op/2.jpg"></div>
<div class="page-break"><img src="https://cdn.test/op/1.jpg"></div>
</div></body></html>`

func newMadara(t *testing.T, client HTTPClient) Scraper {
	t.Helper()
	s, err := NewMadaraScraper(Entry{
		Title:       "One Piece",
		Scraper:     ScraperMadara,
		SourceTitle: "one-piece",
		BaseURL:     "https://scan.test",
		Config:      map[string]any{},
	}, client)
	if err != nil {
		t.Fatalf("NewMadaraScraper: %v", err)
	}
	return s
}

func TestMadaraResolve(t *testing.T) {
	client := newMockClient(map[string]route{
		"https://scan.test/manga/one-piece/": {body: madaraTitlePage},
	})
	s := newMadara(t, client)

	meta, err := s.Resolve(context.Background(), "One Piece")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if meta.Title != "One Piece" {
		t.Fatalf("title = %q", meta.Title)
	}
	if meta.Description != "Luffy wants the One Piece." {
		t.Fatalf("description = %q", meta.Description)
	}
	if meta.CoverURL != "https://scan.test/covers/op.jpg" {
		t.Fatalf("cover = %q", meta.CoverURL)
	}
}

func TestMadaraResolveNotFound(t *testing.T) {
	s := newMadara(t, newMockClient(nil))

	_, err := s.Resolve(context.Background(), "Unknown Title")
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestMadaraListChapterLinksAscendingAndUnique(t *testing.T) {
	client := newMockClient(map[string]route{
		"https://scan.test/manga/one-piece/": {body: madaraTitlePage},
	})
	s := newMadara(t, client)

	links, err := collect(t, s)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(links) != 3 {
		t.Fatalf("expected 3 links, got %+v", links)
	}
	for i, link := range links {
		if link.SourceIndex != i+1 {
			t.Fatalf("link %d has index %d", i, link.SourceIndex)
		}
	}
	if links[1].Locator != "https://scan.test/manga/one-piece/chapitre-2/" {
		t.Fatalf("relative href not resolved: %q", links[1].Locator)
	}
}

func TestMadaraListIgnoresSlugDigitsAndFractionalChapters(t *testing.T) {
	page := `<html><body><ul class="main version-chap">
  <li class="wp-manga-chapter"><a href="https://scan.test/manga/chapter-zero-2/chapitre-11/">Chapitre 11</a></li>
  <li class="wp-manga-chapter"><a href="https://scan.test/manga/chapter-zero-2/chapitre-10-5/">Chapitre 10.5</a></li>
  <li class="wp-manga-chapter"><a href="https://scan.test/manga/chapter-zero-2/chapitre-10/">Chapitre 10</a></li>
</ul></body></html>`
	client := newMockClient(map[string]route{
		"https://scan.test/manga/chapter-zero-2/": {body: page},
	})
	s, err := NewMadaraScraper(Entry{
		Title:       "Chapter Zero",
		Scraper:     ScraperMadara,
		SourceTitle: "chapter-zero-2",
		BaseURL:     "https://scan.test",
	}, client)
	if err != nil {
		t.Fatalf("NewMadaraScraper: %v", err)
	}

	links, err := collect(t, s)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(links) != 2 || links[0].SourceIndex != 10 || links[1].SourceIndex != 11 {
		t.Fatalf("links = %+v", links)
	}
	if links[0].Locator != "https://scan.test/manga/chapter-zero-2/chapitre-10/" {
		t.Fatalf("fractional release took the integer slot: %q", links[0].Locator)
	}
}

func TestMadaraListFailsWithFetchError(t *testing.T) {
	client := newMockClient(map[string]route{
		"https://scan.test/manga/one-piece/": {status: 503, body: "down"},
	})
	s := newMadara(t, client)

	_, err := collect(t, s)
	if !domain.IsFetchError(err) {
		t.Fatalf("expected FetchError, got %v", err)
	}
}

func TestMadaraFetchPages(t *testing.T) {
	client := newMockClient(map[string]route{
		"https://scan.test/manga/one-piece/chapitre-1/": {body: madaraChapterPage},
	})
	s := newMadara(t, client)

	pages, err := s.FetchPages(context.Background(), s.ChapterLocator(1))
	if err != nil {
		t.Fatalf("FetchPages: %v", err)
	}
	want := []string{"https://cdn.test/op/1.jpg", "https://scan.test/op/2.jpg"}
	if len(pages) != len(want) {
		t.Fatalf("pages = %v", pages)
	}
	for i := range want {
		if pages[i] != want[i] {
			t.Fatalf("page %d = %q want %q", i, pages[i], want[i])
		}
	}
}

func TestMadaraFetchPagesMissingChapterIsEmpty(t *testing.T) {
	s := newMadara(t, newMockClient(nil))

	pages, err := s.FetchPages(context.Background(), s.ChapterLocator(99))
	if err != nil || len(pages) != 0 {
		t.Fatalf("expected empty pages, got %v err=%v", pages, err)
	}
}

func TestMadaraTransportErrorIsFetchError(t *testing.T) {
	client := newMockClient(map[string]route{
		"https://scan.test/manga/one-piece/chapitre-5/": {err: errors.New("connection reset")},
	})
	s := newMadara(t, client)

	_, err := s.FetchPages(context.Background(), s.ChapterLocator(5))
	if !domain.IsFetchError(err) {
		t.Fatalf("expected FetchError, got %v", err)
	}
}

func TestMadaraChapterLocatorHonoursPrefix(t *testing.T) {
	s, err := NewMadaraScraper(Entry{
		SourceTitle: "Kingdom",
		BaseURL:     "https://k.test",
		Config:      map[string]any{ConfigChapterPrefixKey: "chapter"},
	}, newMockClient(nil))
	if err != nil {
		t.Fatalf("NewMadaraScraper: %v", err)
	}
	if got := s.ChapterLocator(7); got != "https://k.test/manga/kingdom/chapter-7/" {
		t.Fatalf("locator = %q", got)
	}
}
