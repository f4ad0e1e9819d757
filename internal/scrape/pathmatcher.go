package scrape

import (
	"net/url"
	"path"
	"strings"
)

// PathMatcher excludes URLs whose path matches a glob pattern. A pattern
// ending in "/*" also matches deeper paths, so "/blog/*" excludes
// "/blog/2024/post". An empty matcher excludes nothing.
type PathMatcher struct {
	patterns []string
}

// NewPathMatcher lowercases and stores patterns.
func NewPathMatcher(patterns []string) *PathMatcher {
	m := &PathMatcher{}
	for _, p := range patterns {
		if p = strings.TrimSpace(p); p != "" {
			m.patterns = append(m.patterns, strings.ToLower(p))
		}
	}
	return m
}

// Empty reports whether the matcher has no patterns.
func (m *PathMatcher) Empty() bool {
	return m == nil || len(m.patterns) == 0
}

// IsExcluded reports whether rawURL matches any pattern. Unparseable URLs
// are excluded only when patterns are configured.
func (m *PathMatcher) IsExcluded(rawURL string) bool {
	if m.Empty() {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	p := strings.ToLower(u.Path)
	for _, pattern := range m.patterns {
		if ok, _ := path.Match(pattern, p); ok {
			return true
		}
		if prefix, found := strings.CutSuffix(pattern, "/*"); found {
			if p == prefix || strings.HasPrefix(p, prefix+"/") {
				return true
			}
		}
	}
	return false
}
