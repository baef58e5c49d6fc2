package problem

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

const maxTitleLength = 512

var knownPlatforms = map[string]struct{}{
	PlatformLeetCode:   {},
	PlatformCodeforces: {},
	PlatformHackerRank: {},
	PlatformCodeChef:   {},
}

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		keys = append(keys, field)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, field := range keys {
		parts = append(parts, fmt.Sprintf("%s:%s", field, e.Fields[field]))
	}
	return strings.Join(parts, "; ")
}

// Validate checks a freshly scraped record before it enters a snapshot.
// The loader does not call it: snapshots are trusted once written.
func Validate(r Record) error {
	errs := make(map[string]string)

	title := strings.TrimSpace(r.Title)
	if title == "" {
		errs["title"] = "title is required"
	} else if len(title) > maxTitleLength {
		errs["title"] = fmt.Sprintf("title must be at most %d characters", maxTitleLength)
	}
	if u, err := url.Parse(r.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs["url"] = "url must be an absolute http(s) URL"
	}
	if _, ok := knownPlatforms[r.Platform]; !ok {
		errs["platform"] = fmt.Sprintf("unknown platform %q", r.Platform)
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
