package llm

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/profile-cli/internal/cost"
	"github.com/sells-group/profile-cli/pkg/anthropic"
)

// AnthropicProvider implements Completer with forced tool use: the schema is
// offered as the only tool and the model must call it.
type AnthropicProvider struct {
	client anthropic.Client
	model  string
	opts   options
}

// NewAnthropicProvider creates a provider for the given model.
func NewAnthropicProvider(client anthropic.Client, modelName string, opts ...Option) *AnthropicProvider {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &AnthropicProvider{client: client, model: modelName, opts: o}
}

// Complete implements Completer.
func (p *AnthropicProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	if req.Schema.Name == "" {
		return nil, eris.New("llm: schema name is required")
	}

	msgReq := anthropic.MessageRequest{
		Model:     p.model,
		MaxTokens: req.MaxTokens,
		Messages:  make([]anthropic.Message, len(req.Messages)),
		Tools: []anthropic.Tool{{
			Name:        req.Schema.Name,
			Description: req.Schema.Description,
			Properties:  req.Schema.Properties,
			Required:    req.Schema.Required,
		}},
		ToolChoice: req.Schema.Name,
	}
	if msgReq.MaxTokens <= 0 {
		msgReq.MaxTokens = p.opts.maxTokens
	}
	for i, m := range req.Messages {
		msgReq.Messages[i] = anthropic.Message{Role: string(m.Role), Content: m.Content}
	}
	if req.System != "" {
		if req.CacheSystem {
			msgReq.System = anthropic.BuildCachedSystemBlocks(req.System)
		} else {
			msgReq.System = []anthropic.SystemBlock{{Text: req.System}}
		}
	}

	shouldRetry := func(err error) bool {
		return retryableStatus(anthropic.StatusCode(err), err)
	}
	resp, err := guarded(ctx, p.opts, "anthropic", shouldRetry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return p.client.CreateMessage(ctx, msgReq)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "llm: anthropic %s", req.Stage)
	}

	usage := anthropicUsage(p.opts.calc, p.model, resp.Usage)
	logUsage("anthropic", p.model, req.Stage, usage)

	raw, ok := resp.ToolInput(req.Schema.Name)
	if !ok || len(raw) == 0 {
		return nil, eris.Wrapf(ErrNoStructuredOutput, "llm: anthropic %s (stop_reason=%s)", req.Stage, resp.StopReason)
	}
	return &Response{Raw: raw, Usage: usage, Model: p.model}, nil
}

func anthropicUsage(calc *cost.Calculator, modelName string, u anthropic.TokenUsage) Usage {
	return Usage{
		InputTokens:      u.InputTokens,
		OutputTokens:     u.OutputTokens,
		CacheWriteTokens: u.CacheCreationInputTokens,
		CacheReadTokens:  u.CacheReadInputTokens,
		CostUSD:          calc.Tokens(modelName, u.InputTokens, u.OutputTokens, u.CacheCreationInputTokens, u.CacheReadInputTokens),
	}
}
