package profile

import (
	"encoding/json"
	"strings"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/profile-cli/internal/llm"
)

func structured(v any) *llm.Response {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return &llm.Response{Raw: raw, Usage: llm.Usage{InputTokens: 100, OutputTokens: 20, CostUSD: 0.001}, Model: "test-model"}
}

// stageReq matches a request for stage whose messages mention every needle.
func stageReq(stage string, needles ...string) any {
	return mock.MatchedBy(func(req llm.Request) bool {
		if req.Stage != stage {
			return false
		}
		var b strings.Builder
		for _, m := range req.Messages {
			b.WriteString(m.Content)
		}
		all := b.String()
		for _, n := range needles {
			if !strings.Contains(all, n) {
				return false
			}
		}
		return true
	})
}
