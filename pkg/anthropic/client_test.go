package anthropic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) Client {
	return NewClient("test-key", option.WithBaseURL(baseURL))
}

func writeMessage(w http.ResponseWriter, content []map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":          "msg_test_001",
		"type":        "message",
		"role":        "assistant",
		"content":     content,
		"model":       "claude-haiku-4-5-20251001",
		"stop_reason": "tool_use",
		"usage": map[string]any{
			"input_tokens":                120,
			"output_tokens":               40,
			"cache_creation_input_tokens": 0,
			"cache_read_input_tokens":     90,
		},
	})
}

func TestSDKClient_CreateMessage_ForcedTool(t *testing.T) {
	var body map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "/messages")
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))

		writeMessage(w, []map[string]any{
			{"type": "tool_use", "id": "toolu_1", "name": "record_links", "input": map[string]any{"links": []string{"https://acme.test/about"}}},
		})
	}))
	defer ts.Close()

	client := newTestClient(ts.URL)
	resp, err := client.CreateMessage(context.Background(), MessageRequest{
		Model:     "claude-haiku-4-5-20251001",
		MaxTokens: 512,
		System:    BuildCachedSystemBlocks("pick links"),
		Messages:  []Message{{Role: "user", Content: "candidates"}},
		Tools: []Tool{{
			Name:        "record_links",
			Description: "Record selected links",
			Properties:  map[string]any{"links": map[string]any{"type": "array", "items": map[string]any{"type": "string"}}},
			Required:    []string{"links"},
		}},
		ToolChoice: "record_links",
	})
	require.NoError(t, err)

	input, ok := resp.ToolInput("record_links")
	require.True(t, ok)
	assert.JSONEq(t, `{"links":["https://acme.test/about"]}`, string(input))
	assert.Equal(t, "tool_use", resp.StopReason)
	assert.Equal(t, int64(120), resp.Usage.InputTokens)
	assert.Equal(t, int64(90), resp.Usage.CacheReadInputTokens)

	// Request shape.
	choice, _ := body["tool_choice"].(map[string]any)
	assert.Equal(t, "tool", choice["type"])
	assert.Equal(t, "record_links", choice["name"])
	tools, _ := body["tools"].([]any)
	require.Len(t, tools, 1)
	tool := tools[0].(map[string]any)
	assert.Equal(t, "record_links", tool["name"])
	schema := tool["input_schema"].(map[string]any)
	assert.Equal(t, "object", schema["type"])
	system := body["system"].([]any)
	assert.NotNil(t, system[0].(map[string]any)["cache_control"])
}

func TestSDKClient_CreateMessage_TextOnly(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, []map[string]any{{"type": "text", "text": "no tool"}})
	}))
	defer ts.Close()

	resp, err := newTestClient(ts.URL).CreateMessage(context.Background(), MessageRequest{
		Model:     "claude-haiku-4-5-20251001",
		MaxTokens: 64,
		Messages:  []Message{{Role: "user", Content: "hi"}, {Role: "assistant", Content: "hello"}, {Role: "user", Content: "again"}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Content, 1)
	assert.Equal(t, "no tool", resp.Content[0].Text)

	_, ok := resp.ToolInput("record_links")
	assert.False(t, ok)
}

func TestSDKClient_CreateMessage_Error(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"type":  "error",
			"error": map[string]any{"type": "rate_limit_error", "message": "slow down"},
		})
	}))
	defer ts.Close()

	_, err := newTestClient(ts.URL).CreateMessage(context.Background(), MessageRequest{
		Model:     "claude-haiku-4-5-20251001",
		MaxTokens: 64,
		Messages:  []Message{{Role: "user", Content: "hi"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic: create message")
	assert.Equal(t, http.StatusTooManyRequests, StatusCode(err))
}

func TestStatusCode_NonAPIError(t *testing.T) {
	assert.Equal(t, 0, StatusCode(io.EOF))
}
