package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/profile-cli/internal/config"
	"github.com/sells-group/profile-cli/internal/cost"
)

func TestNew(t *testing.T) {
	calc := cost.NewCalculator(cost.DefaultRates())

	cfg := &config.Config{}
	cfg.LLM.Provider = "anthropic"
	cfg.Anthropic.Key = "sk-ant"
	cfg.Anthropic.Model = "claude-haiku-4-5-20251001"
	c, err := New(cfg, calc)
	require.NoError(t, err)
	assert.IsType(t, &AnthropicProvider{}, c)

	cfg.LLM.Provider = "openai"
	cfg.OpenAI.Key = "sk-oai"
	cfg.OpenAI.Model = "gpt-4o-mini"
	c, err = New(cfg, calc)
	require.NoError(t, err)
	assert.IsType(t, &OpenAIProvider{}, c)

	cfg.LLM.Provider = "gemini"
	_, err = New(cfg, calc)
	assert.Error(t, err)
}
