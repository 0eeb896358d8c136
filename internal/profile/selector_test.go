package profile

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/profile-cli/internal/llm"
	llmmocks "github.com/sells-group/profile-cli/internal/llm/mocks"
	"github.com/sells-group/profile-cli/internal/model"
)

func candidates(urls ...string) []model.LinkCandidate {
	out := make([]model.LinkCandidate, 0, len(urls))
	for _, u := range urls {
		out = append(out, model.LinkCandidate{URL: u, Text: "anchor text for " + u})
	}
	return out
}

func TestSelector_NoCandidates(t *testing.T) {
	c := llmmocks.NewMockCompleter(t)
	links, _, err := NewSelector(c, 7).Select(context.Background(), "https://acme.com", nil)
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestSelector_RestrictsToCandidates(t *testing.T) {
	c := llmmocks.NewMockCompleter(t)
	c.On("Complete", mock.Anything, mock.MatchedBy(func(req llm.Request) bool {
		prompt := req.Messages[0].Content
		return req.Stage == "link_select" &&
			strings.Contains(prompt, "https://acme.com/about\n") &&
			!strings.Contains(prompt, "anchor text")
	})).Return(structured(map[string]any{"links": []string{
		"https://acme.com/about/",
		"https://acme.com/about",
		"https://evil.com/phish",
		"https://acme.com/invented",
		"https://www.acme.com/contact",
	}}), nil).Once()

	links, usage, err := NewSelector(c, 7).Select(context.Background(), "https://acme.com",
		candidates("https://acme.com/about", "https://acme.com/contact", "https://acme.com/products"))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://acme.com/about", "https://acme.com/contact"}, links)
	assert.Equal(t, int64(20), usage.OutputTokens)
}

func TestSelector_CapsAtMaxLinks(t *testing.T) {
	urls := []string{
		"https://acme.com/a", "https://acme.com/b", "https://acme.com/c",
		"https://acme.com/d", "https://acme.com/e",
	}
	c := llmmocks.NewMockCompleter(t)
	c.On("Complete", mock.Anything, mock.Anything).Return(structured(map[string]any{"links": urls}), nil).Once()

	links, _, err := NewSelector(c, 3).Select(context.Background(), "https://acme.com", candidates(urls...))
	require.NoError(t, err)
	assert.Len(t, links, 3)
}

func TestSelector_Error(t *testing.T) {
	c := llmmocks.NewMockCompleter(t)
	c.On("Complete", mock.Anything, mock.Anything).Return(nil, errors.New("rate limited")).Once()

	_, _, err := NewSelector(c, 7).Select(context.Background(), "https://acme.com", candidates("https://acme.com/a"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "profile: select links")
}
