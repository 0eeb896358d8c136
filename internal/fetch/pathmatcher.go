package fetch

import (
	"net/url"
	"path"
	"strings"
)

var defaultExcludePatterns = []string{
	"/blog/*",
	"/news/*",
	"/press/*",
	"/careers/*",
}

// PathMatcher excludes URLs whose path matches one of a set of globs.
// A pattern ending in "/*" also matches every deeper path under it.
type PathMatcher struct {
	patterns []string
}

// NewPathMatcher creates a PathMatcher. Nil patterns select the defaults;
// an empty non-nil slice excludes nothing.
func NewPathMatcher(patterns []string) *PathMatcher {
	if patterns == nil {
		patterns = defaultExcludePatterns
	}
	lowered := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p = strings.TrimSpace(p); p != "" {
			lowered = append(lowered, strings.ToLower(p))
		}
	}
	return &PathMatcher{patterns: lowered}
}

// Patterns returns the configured patterns.
func (m *PathMatcher) Patterns() []string {
	return m.patterns
}

// IsExcluded reports whether rawURL matches an exclude pattern. Unparseable
// URLs are excluded.
func (m *PathMatcher) IsExcluded(rawURL string) bool {
	if m == nil {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	p := strings.ToLower(u.Path)
	for _, pattern := range m.patterns {
		if matchSegmented(pattern, p) {
			return true
		}
	}
	return false
}

func matchSegmented(pattern, urlPath string) bool {
	if ok, _ := path.Match(pattern, urlPath); ok {
		return true
	}
	if strings.HasSuffix(pattern, "/*") {
		prefix := strings.TrimSuffix(pattern, "/*")
		return urlPath == prefix || strings.HasPrefix(urlPath, prefix+"/")
	}
	return false
}
