package sources

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/xKaaZz/Waeleaks/pkg/httpclient"
)

type mockResponse struct {
	body       []byte
	statusCode int
}

func (r mockResponse) Body() []byte    { return r.body }
func (r mockResponse) StatusCode() int { return r.statusCode }

type route struct {
	status int
	body   string
	err    error
}

// mockHTTPClient serves canned routes and 404s everything else.
type mockHTTPClient struct {
	mu     sync.Mutex
	routes map[string]route
	calls  map[string]int
	seen   map[string]string
}

func newMockClient(routes map[string]route) *mockHTTPClient {
	return &mockHTTPClient{routes: routes, calls: map[string]int{}}
}

func (m *mockHTTPClient) Get(_ context.Context, url string, headers map[string]string) (httpclient.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[url]++
	m.seen = headers

	r, ok := m.routes[url]
	if !ok {
		return mockResponse{statusCode: 404}, nil
	}
	if r.err != nil {
		return nil, r.err
	}
	status := r.status
	if status == 0 {
		status = 200
	}
	return mockResponse{body: []byte(r.body), statusCode: status}, nil
}

func (m *mockHTTPClient) PostForm(context.Context, string, map[string]string) (httpclient.Response, error) {
	return nil, errors.New("not implemented")
}

func (m *mockHTTPClient) callCount(url string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[url]
}

func collect(t *testing.T, s Scraper) ([]ChapterLink, error) {
	t.Helper()
	var links []ChapterLink
	for link, err := range s.ListChapterLinks(context.Background()) {
		if err != nil {
			return links, err
		}
		links = append(links, link)
	}
	return links, nil
}

func TestChapterNumber(t *testing.T) {
	cases := map[string]int{
		"https://x.test/manga/one-piece/chapitre-1120/":   1120,
		"https://x.test/manga/kingdom/chapter_78":         78,
		"Chapitre 12 - Le retour":                         12,
		"https://x.test/read/solo/42/":                    42,
		"https://x.test/manga/chapter-zero-2/chapitre-5/": 5,
		"https://x.test/manga/chapter-zero-2/15/":         15,
		"/manga/mob-psycho-100/chapitre-7/?style=list":    7,
	}
	for in, want := range cases {
		got, err := chapterNumber(in)
		if err != nil || got != want {
			t.Errorf("chapterNumber(%q) = %d,%v want %d", in, got, err, want)
		}
	}
	if _, err := chapterNumber("no digits here"); !errors.Is(err, errNoChapterNumber) {
		t.Errorf("expected errNoChapterNumber, got %v", err)
	}
}

func TestChapterNumberRejectsFractionalChapters(t *testing.T) {
	for _, in := range []string{
		"https://x.test/manga/one-piece/chapitre-1046-5/",
		"https://x.test/manga/one-piece/chapter-1046.5",
		"Chapitre 1046.5",
		"https://x.test/read/solo/42.5/",
	} {
		if n, err := chapterNumber(in); !errors.Is(err, errFractionalChapter) {
			t.Errorf("chapterNumber(%q) = %d,%v want errFractionalChapter", in, n, err)
		}
	}
}

func TestSlugify(t *testing.T) {
	if got := slugify("  One Piece: Red  "); got != "one-piece-red" {
		t.Fatalf("slugify = %q", got)
	}
	if got := slugify("already-a-slug"); got != "already-a-slug" {
		t.Fatalf("slugify = %q", got)
	}
}

func TestResolveURL(t *testing.T) {
	if got := resolveURL("/wp-content/1.jpg", "https://scan.test/manga/x/"); got != "https://scan.test/wp-content/1.jpg" {
		t.Fatalf("resolveURL relative = %q", got)
	}
	if got := resolveURL("https://cdn.test/a.png", "https://scan.test/"); got != "https://cdn.test/a.png" {
		t.Fatalf("resolveURL absolute = %q", got)
	}
}

func TestCleanTextStripsMarkup(t *testing.T) {
	if got := cleanText("  <p>Pirates\n and <b>treasure</b></p> "); got != "Pirates and treasure" {
		t.Fatalf("cleanText = %q", got)
	}
}

func TestHeadersFromConfig(t *testing.T) {
	entry := Entry{Config: map[string]any{
		ConfigUserAgentKey:      "bot/1",
		ConfigAcceptLanguageKey: "fr-FR",
		ConfigAcceptKey:         "  ",
	}}
	h := Headers(entry)
	if h["User-Agent"] != "bot/1" || h["Accept-Language"] != "fr-FR" {
		t.Fatalf("unexpected headers %v", h)
	}
	if _, ok := h["Accept"]; ok {
		t.Fatalf("blank values must be skipped")
	}
}

func TestConfigIntAcceptsNumericShapes(t *testing.T) {
	entry := Entry{Config: map[string]any{"a": 3, "b": float64(4), "c": "5", "d": "x"}}
	if ConfigInt(entry, "a", 0) != 3 || ConfigInt(entry, "b", 0) != 4 || ConfigInt(entry, "c", 0) != 5 {
		t.Fatalf("numeric shapes not decoded")
	}
	if ConfigInt(entry, "d", 9) != 9 || ConfigInt(entry, "missing", 7) != 7 {
		t.Fatalf("fallback not used")
	}
}

func TestCleanTextKeepsApostrophes(t *testing.T) {
	if got := cleanText("L'attaque des Titans &amp; co"); got != "L'attaque des Titans & co" {
		t.Fatalf("cleanText = %q", got)
	}
}
