package llm

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/openai/openai-go"
	oaioption "github.com/openai/openai-go/option"
	"github.com/rotisserie/eris"
)

// OpenAIProvider implements Completer with a strict json_schema response
// format on the Chat Completions API.
type OpenAIProvider struct {
	client openai.Client
	model  string
	opts   options
}

// NewOpenAIProvider creates a provider for the given model. Client options
// such as a base URL are passed through to the SDK.
func NewOpenAIProvider(apiKey, modelName string, clientOpts []oaioption.RequestOption, opts ...Option) *OpenAIProvider {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	base := []oaioption.RequestOption{
		oaioption.WithAPIKey(apiKey),
		oaioption.WithMaxRetries(0),
	}
	return &OpenAIProvider{
		client: openai.NewClient(append(base, clientOpts...)...),
		model:  modelName,
		opts:   o,
	}
}

// Complete implements Completer.
func (p *OpenAIProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	if req.Schema.Name == "" {
		return nil, eris.New("llm: schema name is required")
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = p.opts.maxTokens
	}

	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, openai.SystemMessage(req.System))
	}
	for _, m := range req.Messages {
		if m.Role == RoleAssistant {
			msgs = append(msgs, openai.AssistantMessage(m.Content))
			continue
		}
		msgs = append(msgs, openai.UserMessage(m.Content))
	}

	params := openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(p.model),
		Messages:            msgs,
		MaxCompletionTokens: openai.Int(maxTokens),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        req.Schema.Name,
					Description: openai.String(req.Schema.Description),
					Schema:      req.Schema.JSONSchema(),
					Strict:      openai.Bool(true),
				},
			},
		},
	}

	shouldRetry := func(err error) bool {
		var apiErr *openai.Error
		status := 0
		if errors.As(err, &apiErr) {
			status = apiErr.StatusCode
		}
		return retryableStatus(status, err)
	}
	resp, err := guarded(ctx, p.opts, "openai", shouldRetry, func(ctx context.Context) (*openai.ChatCompletion, error) {
		return p.client.Chat.Completions.New(ctx, params)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "llm: openai %s", req.Stage)
	}

	cached := resp.Usage.PromptTokensDetails.CachedTokens
	usage := Usage{
		InputTokens:     resp.Usage.PromptTokens - cached,
		OutputTokens:    resp.Usage.CompletionTokens,
		CacheReadTokens: cached,
	}
	usage.CostUSD = p.opts.calc.Tokens(p.model, usage.InputTokens, usage.OutputTokens, 0, usage.CacheReadTokens)
	logUsage("openai", p.model, req.Stage, usage)

	if len(resp.Choices) == 0 {
		return nil, eris.Wrapf(ErrNoStructuredOutput, "llm: openai %s (no choices)", req.Stage)
	}
	msg := resp.Choices[0].Message
	if msg.Refusal != "" {
		return nil, eris.Wrapf(ErrNoStructuredOutput, "llm: openai %s refused", req.Stage)
	}
	if msg.Content == "" || !json.Valid([]byte(msg.Content)) {
		return nil, eris.Wrapf(ErrNoStructuredOutput, "llm: openai %s (finish_reason=%s)", req.Stage, resp.Choices[0].FinishReason)
	}
	return &Response{Raw: json.RawMessage(msg.Content), Usage: usage, Model: p.model}, nil
}
