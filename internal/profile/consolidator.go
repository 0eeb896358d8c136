package profile

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/profile-cli/internal/llm"
	"github.com/sells-group/profile-cli/internal/model"
)

// Consolidator merges a run's partial extractions into one profile.
type Consolidator struct {
	llm     llm.Completer
	listCap int
}

// NewConsolidator creates a Consolidator.
func NewConsolidator(c llm.Completer, listCap int) *Consolidator {
	return &Consolidator{llm: c, listCap: listCap}
}

// Consolidate performs the single merge call over the conversation. The
// result conforms to the profile schema but any field may be empty.
func (c *Consolidator) Consolidate(ctx context.Context, conv *model.Conversation) (*model.CompanyProfile, llm.Usage, error) {
	entries := conv.Entries()
	if len(entries) == 0 {
		return nil, llm.Usage{}, eris.New("profile: consolidate empty conversation")
	}

	resp, err := c.llm.Complete(ctx, llm.Request{
		Stage:       "consolidate",
		System:      conv.System(),
		Messages:    conversationMessages(entries),
		Schema:      ProfileSchema(c.listCap),
		CacheSystem: true,
	})
	if err != nil {
		return nil, llm.Usage{}, eris.Wrap(err, "profile: consolidate")
	}
	merged, err := llm.Decode[model.CompanyProfile](resp)
	if err != nil {
		return nil, resp.Usage, eris.Wrap(err, "profile: consolidate")
	}
	return merged, resp.Usage, nil
}

// conversationMessages turns entries into alternating model turns. Adjacent
// entries with the same role are joined, and the merge request is appended
// to the final user turn.
func conversationMessages(entries []model.Entry) []llm.Message {
	var msgs []llm.Message
	for _, e := range entries {
		role := llm.RoleUser
		if e.Role == model.RoleAssistant {
			role = llm.RoleAssistant
		}
		content := e.Content
		if e.Source != "" {
			content = "Extracted from " + e.Source + ":\n" + content
		}
		if n := len(msgs); n > 0 && msgs[n-1].Role == role {
			msgs[n-1].Content += "\n\n" + content
			continue
		}
		msgs = append(msgs, llm.Message{Role: role, Content: content})
	}
	if n := len(msgs); n > 0 && msgs[n-1].Role == llm.RoleUser {
		msgs[n-1].Content = strings.TrimSpace(msgs[n-1].Content) + "\n\n" + consolidatePrompt
	} else {
		msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: consolidatePrompt})
	}
	return msgs
}
