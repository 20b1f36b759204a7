package sources

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/xKaaZz/Waeleaks/internal/domain"
	"gopkg.in/yaml.v3"
)

// Entry binds a tracked title to the scraper variant that serves it.
type Entry struct {
	Title       string         `json:"title" yaml:"title"`
	Scraper     string         `json:"scraper" yaml:"scraper"`
	SourceTitle string         `json:"source_title" yaml:"source_title"`
	BaseURL     string         `json:"base_url" yaml:"base_url"`
	Offset      int            `json:"offset" yaml:"offset"`
	FeedURL     string         `json:"feed_url" yaml:"feed_url"`
	Config      map[string]any `json:"config" yaml:"config"`
}

// Binding is the result of a registry lookup.
type Binding struct {
	Entry   Entry
	Scraper Scraper
}

type registryFile struct {
	Sources []Entry `json:"sources" yaml:"sources"`
}

// Registry maps title names to scraper bindings. Keys are case-insensitive.
type Registry struct {
	mu       sync.RWMutex
	entries  []Entry
	bindings map[string]Binding
}

const (
	ScraperMadara = "madara"
	ScraperProbe  = "probe"
)

// DefaultBuilders returns the scraper variants shipped with the module.
func DefaultBuilders() map[string]Builder {
	return map[string]Builder{
		ScraperMadara: NewMadaraScraper,
		ScraperProbe:  NewProbeScraper,
	}
}

// LoadRegistry reads a YAML or JSON sources file and builds a scraper for every entry.
func LoadRegistry(path string, client HTTPClient, builders map[string]Builder) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sources file path is empty")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	file, err := parseRegistry(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(file.Sources) == 0 {
		return nil, errors.New("sources file contains no entries")
	}

	return NewRegistry(file.Sources, client, builders)
}

// NewRegistry validates entries and binds each one to a scraper instance.
func NewRegistry(entries []Entry, client HTTPClient, builders map[string]Builder) (*Registry, error) {
	if builders == nil {
		builders = DefaultBuilders()
	}
	if client == nil {
		client = DefaultHTTPClient()
	}

	reg := &Registry{
		entries:  make([]Entry, 0, len(entries)),
		bindings: make(map[string]Binding, len(entries)),
	}

	for i, raw := range entries {
		entry := sanitizeEntry(raw)
		if err := validateEntry(entry); err != nil {
			return nil, fmt.Errorf("source[%d]: %w", i, err)
		}

		key := normalizeKey(entry.Title)
		if _, exists := reg.bindings[key]; exists {
			return nil, fmt.Errorf("duplicate source title %q", entry.Title)
		}

		build, ok := builders[strings.ToLower(entry.Scraper)]
		if !ok {
			return nil, fmt.Errorf("source %q: unknown scraper %q", entry.Title, entry.Scraper)
		}
		scraper, err := build(entry, client)
		if err != nil {
			return nil, fmt.Errorf("source %q: build %s scraper: %w", entry.Title, entry.Scraper, err)
		}

		reg.entries = append(reg.entries, entry)
		reg.bindings[key] = Binding{Entry: entry, Scraper: scraper}
	}

	return reg, nil
}

// Lookup returns the binding for title or an UnsupportedTitleError.
func (r *Registry) Lookup(title string) (Binding, error) {
	if r == nil {
		return Binding{}, &domain.UnsupportedTitleError{Title: title}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bindings[normalizeKey(title)]
	if !ok {
		return Binding{}, &domain.UnsupportedTitleError{Title: title}
	}
	return b, nil
}

// Entries returns a copy of the loaded entries in file order.
func (r *Registry) Entries() []Entry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Titles returns the registered titles sorted by name.
func (r *Registry) Titles() []string {
	entries := r.Entries()
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Title)
	}
	sort.Strings(out)
	return out
}

func normalizeKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

func parseRegistry(data []byte, ext string) (registryFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		if file, err := unmarshalRegistry(d.name, data, d.fn); err == nil {
			return file, nil
		}
	}

	return registryFile{}, errors.New("sources file format not recognized (expected YAML or JSON)")
}

type unmarshalFn func([]byte, any) error

func unmarshalRegistry(name string, data []byte, fn unmarshalFn) (registryFile, error) {
	var file registryFile
	if err := fn(data, &file); err != nil {
		return registryFile{}, fmt.Errorf("decode %s sources: %w", name, err)
	}
	return file, nil
}

func sanitizeEntry(e Entry) Entry {
	e.Title = strings.TrimSpace(e.Title)
	e.Scraper = strings.ToLower(strings.TrimSpace(e.Scraper))
	e.SourceTitle = strings.TrimSpace(e.SourceTitle)
	e.BaseURL = strings.TrimRight(strings.TrimSpace(e.BaseURL), "/")
	e.FeedURL = strings.TrimSpace(e.FeedURL)

	if e.SourceTitle == "" {
		e.SourceTitle = e.Title
	}
	if e.Config == nil {
		e.Config = map[string]any{}
	}
	return e
}

func validateEntry(e Entry) error {
	if e.Title == "" {
		return errors.New("title is required")
	}
	if e.Scraper == "" {
		return fmt.Errorf("scraper is required for source %q", e.Title)
	}
	if e.BaseURL == "" {
		return fmt.Errorf("base_url is required for source %q", e.Title)
	}
	return nil
}
