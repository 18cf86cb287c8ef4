package openrouter_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abrachat/abrachat/llms"
	"github.com/abrachat/abrachat/llms/openrouter"
)

func Test_New_Validation(t *testing.T) {
	_, err := openrouter.New(openrouter.WithModel("m"))
	assert.EqualError(t, err, "openrouter: missing API token")

	_, err = openrouter.New(openrouter.WithToken("t"))
	assert.EqualError(t, err, "openrouter: missing model name")

	m, err := openrouter.New(openrouter.WithToken("t"), openrouter.WithModel("meta/llama-3"))
	require.NoError(t, err)
	assert.Equal(t, "meta/llama-3", m.GetName())
	assert.Equal(t, llms.ProviderOpenRouter, m.GetProviderType())
	assert.True(t, m.GetProviderType().Supports(llms.CapabilityFunctionCalling))
}

func Test_GenerateContent(t *testing.T) {
	var gotReq map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "gen-1",
			"choices": [{
				"index": 0,
				"finish_reason": "tool_calls",
				"message": {
					"role": "assistant",
					"content": "",
					"tool_calls": [{
						"id": "call_1",
						"type": "function",
						"function": {"name": "abra_list_firms", "arguments": "{\"search\":\"Acme\"}"}
					}]
				}
			}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 7, "total_tokens": 19}
		}`))
	}))
	defer srv.Close()

	m, err := openrouter.New(
		openrouter.WithToken("test-token"),
		openrouter.WithModel("anthropic/claude-3.5-sonnet"),
		openrouter.WithBaseURL(srv.URL),
	)
	require.NoError(t, err)

	messages := []llms.Message{
		llms.SystemMessage("You are a helpful assistant."),
		llms.HumanMessage("list firms named Acme"),
	}
	resp, err := m.GenerateContent(context.Background(), messages,
		llms.WithTemperature(0.7),
		llms.WithTools([]llms.Tool{{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        "abra_list_firms",
				Description: "List firms",
				Parameters:  map[string]any{"type": "object"},
			},
		}}),
	)
	require.NoError(t, err)

	require.Len(t, resp.Choices, 1)
	require.Len(t, resp.Choices[0].ToolCalls, 1)
	tc := resp.Choices[0].ToolCalls[0]
	assert.Equal(t, "call_1", tc.ID)
	assert.Equal(t, "abra_list_firms", tc.Name)
	assert.JSONEq(t, `{"search":"Acme"}`, tc.Arguments)
	assert.Equal(t, 19, resp.Usage.TotalTokens)

	assert.Equal(t, "anthropic/claude-3.5-sonnet", gotReq["model"])
	assert.InDelta(t, 0.7, gotReq["temperature"], 0.0001)
	tools, ok := gotReq["tools"].([]any)
	require.True(t, ok)
	require.Len(t, tools, 1)
}

func Test_GenerateContent_ToolRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		msgs := req["messages"].([]any)
		// system, human, assistant tool_calls echo, tool result
		require.Len(t, msgs, 4)
		last := msgs[3].(map[string]any)
		require.Equal(t, "tool", last["role"])
		require.Equal(t, "call_1", last["tool_call_id"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "gen-2",
			"choices": [{"index": 0, "finish_reason": "stop",
				"message": {"role": "assistant", "content": "Found 1 firm: Acme Corp."}}],
			"usage": {"prompt_tokens": 30, "completion_tokens": 9, "total_tokens": 39}
		}`))
	}))
	defer srv.Close()

	m, err := openrouter.New(
		openrouter.WithToken("test-token"),
		openrouter.WithModel("openai/gpt-4o"),
		openrouter.WithBaseURL(srv.URL),
	)
	require.NoError(t, err)

	messages := []llms.Message{
		llms.SystemMessage("sys"),
		llms.HumanMessage("list firms"),
		{Role: llms.RoleAI, ToolCalls: []llms.ToolCall{{ID: "call_1", Name: "abra_list_firms", Arguments: `{"search":"Acme"}`}}},
		llms.ToolResultMessage("call_1", `{"collection":"firms","count":1}`),
	}
	resp, err := m.GenerateContent(context.Background(), messages)
	require.NoError(t, err)
	require.Len(t, resp.Choices, 1)
	assert.Equal(t, "Found 1 firm: Acme Corp.", resp.Choices[0].Content)
	assert.Empty(t, resp.Choices[0].ToolCalls)
}
