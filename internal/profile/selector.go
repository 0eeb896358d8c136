package profile

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/profile-cli/internal/fetch"
	"github.com/sells-group/profile-cli/internal/llm"
	"github.com/sells-group/profile-cli/internal/model"
)

// DefaultMaxLinks bounds how many links a run follows.
const DefaultMaxLinks = 7

// Selector picks the candidate links worth reading.
type Selector struct {
	llm      llm.Completer
	maxLinks int
}

// NewSelector creates a Selector.
func NewSelector(c llm.Completer, maxLinks int) *Selector {
	if maxLinks <= 0 {
		maxLinks = DefaultMaxLinks
	}
	return &Selector{llm: c, maxLinks: maxLinks}
}

// Select returns at most maxLinks URLs, each one drawn from candidates.
// Model answers outside the candidate set are dropped.
func (s *Selector) Select(ctx context.Context, seedURL string, candidates []model.LinkCandidate) ([]string, llm.Usage, error) {
	if len(candidates) == 0 {
		return nil, llm.Usage{}, nil
	}

	resp, err := s.llm.Complete(ctx, llm.Request{
		Stage:       "link_select",
		System:      SelectInstruction,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: selectPrompt(seedURL, candidates, s.maxLinks)}},
		Schema:      LinkSchema(s.maxLinks),
		MaxTokens:   1024,
		CacheSystem: true,
	})
	if err != nil {
		return nil, llm.Usage{}, eris.Wrap(err, "profile: select links")
	}
	sel, err := llm.Decode[linkSelection](resp)
	if err != nil {
		return nil, resp.Usage, eris.Wrap(err, "profile: select links")
	}

	allowed := make(map[string]string, len(candidates))
	for _, c := range candidates {
		allowed[fetch.CanonicalURL(c.URL)] = c.URL
	}

	picked := make(map[string]struct{}, s.maxLinks)
	var out []string
	for _, raw := range sel.Links {
		key := fetch.CanonicalURL(raw)
		u, ok := allowed[key]
		if !ok {
			continue
		}
		if _, dup := picked[key]; dup {
			continue
		}
		picked[key] = struct{}{}
		out = append(out, u)
		if len(out) >= s.maxLinks {
			break
		}
	}
	return out, resp.Usage, nil
}
