package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPathMatcher_IsExcluded(t *testing.T) {
	t.Parallel()
	m := NewPathMatcher([]string{"/blog/*", "/news/*", "/*.pdf", "/Careers/*"})

	tests := []struct {
		name     string
		url      string
		excluded bool
	}{
		{"blog post", "https://acme.com/blog/post1", true},
		{"blog root", "https://acme.com/blog", true},
		{"blog deep path", "https://acme.com/blog/2024/01/post", true},
		{"careers mixed case", "https://acme.com/CAREERS/engineer", true},
		{"root pdf", "https://acme.com/brochure.pdf", true},
		{"nested pdf", "https://acme.com/docs/brochure.pdf", false},
		{"about", "https://acme.com/about", false},
		{"blogger is not blog", "https://acme.com/blogger", false},
		{"homepage", "https://acme.com/", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.excluded, m.IsExcluded(tt.url))
		})
	}
}

func TestPathMatcher_Defaults(t *testing.T) {
	t.Parallel()
	m := NewPathMatcher(nil)
	assert.Equal(t, defaultExcludePatterns, m.Patterns())
	assert.True(t, m.IsExcluded("https://acme.com/press/release"))
}

func TestPathMatcher_EmptyExcludesNothing(t *testing.T) {
	t.Parallel()
	m := NewPathMatcher([]string{})
	assert.False(t, m.IsExcluded("https://acme.com/blog/post"))
}

func TestPathMatcher_Nil(t *testing.T) {
	t.Parallel()
	var m *PathMatcher
	assert.False(t, m.IsExcluded("https://acme.com/blog/post"))
}

func TestPathMatcher_BadURL(t *testing.T) {
	t.Parallel()
	assert.True(t, NewPathMatcher(nil).IsExcluded("://bad"))
}
