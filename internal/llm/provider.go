package llm

import (
	"github.com/anthropics/anthropic-sdk-go/option"
	oaioption "github.com/openai/openai-go/option"
	"github.com/rotisserie/eris"

	"github.com/sells-group/profile-cli/internal/config"
	"github.com/sells-group/profile-cli/internal/cost"
	"github.com/sells-group/profile-cli/internal/resilience"
	"github.com/sells-group/profile-cli/pkg/anthropic"
)

// New builds the Completer selected by cfg.LLM.Provider.
func New(cfg *config.Config, calc *cost.Calculator) (Completer, error) {
	opts := []Option{
		WithMaxTokens(cfg.LLM.MaxTokens),
		WithRetry(resilience.FromConfig(cfg.Retry)),
		WithBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			FailureThreshold: 5,
			ShouldTrip:       resilience.IsTransient,
		})),
		WithCalculator(calc),
	}

	switch cfg.LLM.Provider {
	case "anthropic":
		var clientOpts []option.RequestOption
		if cfg.Anthropic.BaseURL != "" {
			clientOpts = append(clientOpts, option.WithBaseURL(cfg.Anthropic.BaseURL))
		}
		client := anthropic.NewClient(cfg.Anthropic.Key, clientOpts...)
		return NewAnthropicProvider(client, cfg.Anthropic.Model, opts...), nil
	case "openai":
		var clientOpts []oaioption.RequestOption
		if cfg.OpenAI.BaseURL != "" {
			clientOpts = append(clientOpts, oaioption.WithBaseURL(cfg.OpenAI.BaseURL))
		}
		return NewOpenAIProvider(cfg.OpenAI.Key, cfg.OpenAI.Model, clientOpts, opts...), nil
	default:
		return nil, eris.Errorf("llm: unsupported provider %q", cfg.LLM.Provider)
	}
}
