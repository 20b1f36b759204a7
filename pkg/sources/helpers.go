package sources

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/xKaaZz/Waeleaks/internal/domain"
	"github.com/xKaaZz/Waeleaks/pkg/httpclient"
)

const maxHTMLBodyBytes = 4 << 20 // 4 MiB

var (
	errNotFound = errors.New("page not found")

	errNoChapterNumber   = errors.New("no chapter number")
	errFractionalChapter = errors.New("fractional chapter number")

	chapterLabelRe      = regexp.MustCompile(`(?i)chap(?:itre|ter)?[-_ ]*(\d+)`)
	fractionalLabelRe   = regexp.MustCompile(`(?i)chap(?:itre|ter)?[-_ ]*\d+[-_.,]\d+`)
	trailingNumRe       = regexp.MustCompile(`(\d+)\D*$`)
	fractionalTrailerRe = regexp.MustCompile(`\d+[.,]\d+\D*$`)

	textPolicy = bluemonday.StrictPolicy()
)

// DefaultHTTPClient returns the resty-backed client used by scrapers.
func DefaultHTTPClient() HTTPClient { return httpclient.NewRestyClient(15 * time.Second) }

func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}

// fetchDocument GETs target and parses it as HTML. A 404 returns errNotFound
// unwrapped so callers can decide whether absence is an error.
func fetchDocument(ctx context.Context, client HTTPClient, source, target string, headers map[string]string) (*goquery.Document, error) {
	resp, err := client.Get(ctx, target, headers)
	if err != nil {
		return nil, &domain.FetchError{Source: source, Locator: target, Err: err}
	}

	body := resp.Body()
	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil, errNotFound
	case resp.StatusCode() != http.StatusOK:
		return nil, &domain.FetchError{
			Source:  source,
			Locator: target,
			Err:     fmt.Errorf("status %d body: %s", resp.StatusCode(), responseSnippet(body)),
		}
	}

	if len(body) > maxHTMLBodyBytes {
		body = body[:maxHTMLBodyBytes]
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &domain.FetchError{Source: source, Locator: target, Err: fmt.Errorf("parse html: %w", err)}
	}
	return doc, nil
}

type pageMeta struct {
	Title       string
	Description string
	ImageURL    string
}

func parseMeta(doc *goquery.Document) pageMeta {
	extract := func(sel string) string {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			if val, ok := node.Attr("content"); ok {
				return strings.TrimSpace(val)
			}
		}
		return ""
	}

	return pageMeta{
		Title: firstNonEmpty(
			extract(`meta[property="og:title"]`),
			strings.TrimSpace(doc.Find("title").First().Text()),
		),
		Description: firstNonEmpty(
			extract(`meta[property="og:description"]`),
			extract(`meta[name="description"]`),
		),
		ImageURL: extract(`meta[property="og:image"]`),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// cleanText strips markup from scraped text and collapses whitespace. The
// policy escapes entities, so the result is unescaped again for storage.
func cleanText(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(textPolicy.Sanitize(s))), " ")
}

// imageURLs collects image sources from sel in document order, resolving
// lazy-load attributes and relative references against base.
func imageURLs(sel *goquery.Selection, base string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, sel.Length())

	sel.Each(func(_ int, img *goquery.Selection) {
		var src string
		for _, attr := range []string{"data-src", "data-lazy-src", "src"} {
			if v, ok := img.Attr(attr); ok && strings.TrimSpace(v) != "" {
				src = strings.TrimSpace(v)
				break
			}
		}
		if src == "" || strings.HasPrefix(src, "data:") {
			return
		}
		src = resolveURL(src, base)
		if _, dup := seen[src]; dup {
			return
		}
		seen[src] = struct{}{}
		out = append(out, src)
	})
	return out
}

func resolveURL(ref, base string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	if parsed.IsAbs() {
		return parsed.String()
	}
	baseURL, err := url.Parse(base)
	if err != nil || !baseURL.IsAbs() {
		return ref
	}
	return baseURL.ResolveReference(parsed).String()
}

// chapterNumber extracts a source index from a chapter URL or label. Only
// the last path segment of a URL is read, so digits in the title slug never
// count. Fractional chapters such as "chapitre-1046-5" or "Chapitre 1046.5"
// return errFractionalChapter: indices are integers and truncating would
// collide with the whole chapter.
func chapterNumber(s string) (int, error) {
	seg := lastPathSegment(s)

	if fractionalLabelRe.MatchString(seg) {
		return 0, errFractionalChapter
	}
	if m := chapterLabelRe.FindStringSubmatch(seg); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n, nil
		}
	}
	if fractionalTrailerRe.MatchString(seg) {
		return 0, errFractionalChapter
	}
	if m := trailingNumRe.FindStringSubmatch(seg); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n, nil
		}
	}
	return 0, errNoChapterNumber
}

// lastPathSegment returns the final non-empty path segment of s with any
// query or fragment dropped. Plain labels come back unchanged.
func lastPathSegment(s string) string {
	s = strings.TrimSpace(s)
	if u, err := url.Parse(s); err == nil && u.Path != "" {
		s = u.Path
	}
	s = strings.TrimRight(s, "/")
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	return s
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// slugify turns a display title into the path segment most sources use.
func slugify(title string) string {
	return strings.Trim(slugRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(title)), "-"), "-")
}
