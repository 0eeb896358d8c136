// Package llm defines the schema-constrained completion contract used by the
// profile pipeline and its Anthropic and OpenAI providers.
package llm

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/profile-cli/internal/model"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn sent to the model.
type Message struct {
	Role    Role
	Content string
}

// Schema describes the JSON object the model must return. Every property is
// required; optional values are expressed as nullable types.
type Schema struct {
	Name        string
	Description string
	Properties  map[string]any
	Required    []string
}

// JSONSchema returns the schema as a closed JSON schema object.
func (s Schema) JSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"properties":           s.Properties,
		"required":             s.Required,
		"additionalProperties": false,
	}
}

// Request is a single structured completion.
type Request struct {
	// Stage labels the call in logs and usage records.
	Stage       string
	System      string
	Messages    []Message
	Schema      Schema
	MaxTokens   int64
	CacheSystem bool
}

// Usage records token consumption and estimated cost of one or more calls.
type Usage struct {
	InputTokens      int64
	OutputTokens     int64
	CacheWriteTokens int64
	CacheReadTokens  int64
	CostUSD          float64
}

// Add accumulates other into u.
func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.CacheWriteTokens += other.CacheWriteTokens
	u.CacheReadTokens += other.CacheReadTokens
	u.CostUSD += other.CostUSD
}

// TokenUsage converts u to the persisted form.
func (u Usage) TokenUsage() model.TokenUsage {
	return model.TokenUsage{
		InputTokens:         int(u.InputTokens),
		OutputTokens:        int(u.OutputTokens),
		CacheCreationTokens: int(u.CacheWriteTokens),
		CacheReadTokens:     int(u.CacheReadTokens),
		Cost:                u.CostUSD,
	}
}

// Response carries the schema-conforming JSON returned by the model.
type Response struct {
	Raw   json.RawMessage
	Usage Usage
	Model string
}

// Completer performs schema-constrained completions.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// ErrNoStructuredOutput is returned when the model answered without the
// requested structured payload.
var ErrNoStructuredOutput = eris.New("llm: model returned no structured output")

// Decode unmarshals the structured payload of resp into a new T.
func Decode[T any](resp *Response) (*T, error) {
	if resp == nil || len(resp.Raw) == 0 {
		return nil, ErrNoStructuredOutput
	}
	var out T
	if err := json.Unmarshal(resp.Raw, &out); err != nil {
		return nil, eris.Wrap(err, "llm: decode structured output")
	}
	return &out, nil
}

func logUsage(provider, modelName, stage string, u Usage) {
	zap.L().Info("llm: usage",
		zap.String("provider", provider),
		zap.String("model", modelName),
		zap.String("stage", stage),
		zap.Int64("input_tokens", u.InputTokens),
		zap.Int64("output_tokens", u.OutputTokens),
		zap.Int64("cache_write_tokens", u.CacheWriteTokens),
		zap.Int64("cache_read_tokens", u.CacheReadTokens),
		zap.Float64("estimated_cost_usd", u.CostUSD),
	)
}
