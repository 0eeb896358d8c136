package profile

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"

	"github.com/sells-group/profile-cli/internal/llm"
	"github.com/sells-group/profile-cli/internal/model"
)

// DefaultMinTextChars is the page text size below which extraction is skipped.
const DefaultMinTextChars = 50

// Extractor turns one page's text into a partial profile.
type Extractor struct {
	llm      llm.Completer
	minChars int
	listCap  int
}

// NewExtractor creates an Extractor.
func NewExtractor(c llm.Completer, minChars, listCap int) *Extractor {
	if minChars <= 0 {
		minChars = DefaultMinTextChars
	}
	return &Extractor{llm: c, minChars: minChars, listCap: listCap}
}

// Informative reports whether text is long enough to extract from.
func (e *Extractor) Informative(text string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) >= e.minChars
}

// Extract returns the facts on one page. It returns a nil profile without
// calling the model when the text is not informative.
func (e *Extractor) Extract(ctx context.Context, pageURL, text string) (*model.CompanyProfile, llm.Usage, error) {
	if !e.Informative(text) {
		return nil, llm.Usage{}, nil
	}

	resp, err := e.llm.Complete(ctx, llm.Request{
		Stage:       "extract",
		System:      ExtractInstruction,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: extractPrompt(pageURL, strings.TrimSpace(text))}},
		Schema:      ProfileSchema(e.listCap),
		CacheSystem: true,
	})
	if err != nil {
		return nil, llm.Usage{}, eris.Wrapf(err, "profile: extract %s", pageURL)
	}

	partial, err := llm.Decode[model.CompanyProfile](resp)
	if err != nil {
		return nil, resp.Usage, eris.Wrapf(err, "profile: extract %s", pageURL)
	}
	return partial, resp.Usage, nil
}
