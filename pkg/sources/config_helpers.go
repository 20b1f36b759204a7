package sources

import (
	"fmt"
	"strconv"
	"strings"
)

// ConfigString returns the trimmed string value for key from entry.Config or a fallback.
func ConfigString(entry Entry, key, fallback string) string {
	if entry.Config != nil {
		if raw, ok := entry.Config[key]; ok {
			if val, ok := raw.(string); ok {
				if trimmed := strings.TrimSpace(val); trimmed != "" {
					return trimmed
				}
			}
		}
	}
	return fallback
}

// ConfigInt returns the integer value for key from entry.Config or a fallback.
// YAML decodes numbers as int, JSON as float64; both are accepted.
func ConfigInt(entry Entry, key string, fallback int) int {
	if entry.Config == nil {
		return fallback
	}
	switch v := entry.Config[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return fallback
}

const (
	ConfigUserAgentKey      = "user_agent"
	ConfigAcceptKey         = "accept"
	ConfigAcceptLanguageKey = "accept_language"
	ConfigCacheControlKey   = "cache_control"

	ConfigChapterPrefixKey = "chapter_prefix"
	ConfigTitleURLKey      = "title_url"
	ConfigChapterURLKey    = "chapter_url"
	ConfigPageSelectorKey  = "page_selector"
	ConfigMaxProbeKey      = "max_probe"
	ConfigStartIndexKey    = "start_index"
)

// Headers builds the common request headers from an entry config (skips empty values).
func Headers(entry Entry) map[string]string {
	headers := make(map[string]string, 4)

	if v := ConfigString(entry, ConfigUserAgentKey, ""); v != "" {
		headers["User-Agent"] = v
	}
	if v := ConfigString(entry, ConfigAcceptKey, ""); v != "" {
		headers["Accept"] = v
	}
	if v := ConfigString(entry, ConfigAcceptLanguageKey, ""); v != "" {
		headers["Accept-Language"] = v
	}
	if v := ConfigString(entry, ConfigCacheControlKey, ""); v != "" {
		headers["Cache-Control"] = v
	}

	return headers
}

// expandTemplate substitutes {base}, {title} and {number} placeholders.
func expandTemplate(tmpl, base, slug string, number int) string {
	r := strings.NewReplacer(
		"{base}", base,
		"{title}", slug,
		"{number}", fmt.Sprintf("%d", number),
	)
	return r.Replace(tmpl)
}
