package assistants_test

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abrachat/abrachat/assistants"
	"github.com/abrachat/abrachat/chatmodel"
	"github.com/abrachat/abrachat/llms"
	"github.com/abrachat/abrachat/store"
)

// fakeModel replays scripted responses and records every transcript it
// was called with.
type fakeModel struct {
	responses []*llms.ContentResponse
	calls     [][]llms.Message
}

func (m *fakeModel) GetName() string                    { return "fake-model" }
func (m *fakeModel) GetProviderType() llms.ProviderType { return llms.ProviderOpenRouter }
func (m *fakeModel) GenerateContent(_ context.Context, messages []llms.Message, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	m.calls = append(m.calls, messages)
	if len(m.calls) > len(m.responses) {
		return nil, errors.New("no scripted response")
	}
	return m.responses[len(m.calls)-1], nil
}

func textResponse(content string) *llms.ContentResponse {
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: content}},
		Usage:   llms.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}
}

func toolCallResponse(calls ...llms.ToolCall) *llms.ContentResponse {
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{ToolCalls: calls}},
		Usage:   llms.TokenUsage{PromptTokens: 20, CompletionTokens: 10, TotalTokens: 30},
	}
}

type scriptedTool struct {
	name string
	out  string
	err  error
}

func (t *scriptedTool) Name() string        { return t.name }
func (t *scriptedTool) Description() string { return "A scripted tool." }
func (t *scriptedTool) Parameters() any     { return map[string]any{"type": "object"} }
func (t *scriptedTool) Call(context.Context, string) (string, error) {
	return t.out, t.err
}

func chatCtx() context.Context {
	return chatmodel.WithChatContext(context.Background(), chatmodel.NewChatContext(""))
}

func Test_Run_RequiresChatContext(t *testing.T) {
	a := assistants.NewAssistant(&fakeModel{}, "You are helpful.")
	_, err := a.Run(context.Background(), "hi")
	assert.ErrorIs(t, err, chatmodel.ErrInvalidChatContext)
}

func Test_Run_RequiresInput(t *testing.T) {
	a := assistants.NewAssistant(&fakeModel{}, "You are helpful.")
	_, err := a.Run(chatCtx(), "")
	assert.ErrorContains(t, err, "input is required")
}

func Test_Run_PlainAnswer(t *testing.T) {
	model := &fakeModel{responses: []*llms.ContentResponse{
		textResponse("Hello!"),
	}}
	st := store.NewMemoryStore()
	a := assistants.NewAssistant(model, "You are helpful.",
		assistants.WithStore(st),
	)

	ctx := chatCtx()
	resp, err := a.Run(ctx, "hi")
	require.NoError(t, err)
	assert.Equal(t, "Hello!", resp.Content)
	assert.Equal(t, 0, resp.ToolCalls)
	assert.Equal(t, 15, resp.Usage.TotalTokens)

	// the model saw system prompt and user input
	require.Len(t, model.calls, 1)
	transcript := model.calls[0]
	require.Len(t, transcript, 2)
	assert.Equal(t, llms.RoleSystem, transcript[0].Role)
	assert.Equal(t, "You are helpful.", transcript[0].Content)
	assert.Equal(t, llms.RoleHuman, transcript[1].Role)

	// the turn was persisted
	saved := st.Messages(ctx)
	require.Len(t, saved, 2)
	assert.Equal(t, "hi", saved[0].Content)
	assert.Equal(t, "Hello!", saved[1].Content)
}

func Test_Run_HistoryCarriesOver(t *testing.T) {
	model := &fakeModel{responses: []*llms.ContentResponse{
		textResponse("First answer."),
		textResponse("Second answer."),
	}}
	st := store.NewMemoryStore()
	a := assistants.NewAssistant(model, "You are helpful.",
		assistants.WithStore(st),
	)

	ctx := chatCtx()
	_, err := a.Run(ctx, "first")
	require.NoError(t, err)
	_, err = a.Run(ctx, "second")
	require.NoError(t, err)

	// second call includes the first turn
	transcript := model.calls[1]
	require.Len(t, transcript, 4)
	assert.Equal(t, "first", transcript[1].Content)
	assert.Equal(t, "First answer.", transcript[2].Content)
	assert.Equal(t, "second", transcript[3].Content)
}

func Test_Run_ToolCalls(t *testing.T) {
	model := &fakeModel{responses: []*llms.ContentResponse{
		toolCallResponse(llms.ToolCall{
			ID:        "call_1",
			Name:      "lookup",
			Arguments: `{"search":"Acme"}`,
		}),
		textResponse("Found Acme Corp."),
	}}
	a := assistants.NewAssistant(model, "You are helpful.").
		WithTools(&scriptedTool{name: "lookup", out: `{"count":1}`})

	resp, err := a.Run(chatCtx(), "find acme")
	require.NoError(t, err)
	assert.Equal(t, "Found Acme Corp.", resp.Content)
	assert.Equal(t, 1, resp.ToolCalls)
	// usage is aggregated across both model calls
	assert.Equal(t, 45, resp.Usage.TotalTokens)

	// second transcript carries the assistant tool call and its result
	require.Len(t, model.calls, 2)
	transcript := model.calls[1]
	require.Len(t, transcript, 4)
	assert.Equal(t, llms.RoleAI, transcript[2].Role)
	require.Len(t, transcript[2].ToolCalls, 1)
	assert.Equal(t, "lookup", transcript[2].ToolCalls[0].Name)
	assert.Equal(t, llms.RoleTool, transcript[3].Role)
	assert.Equal(t, "call_1", transcript[3].ToolCallID)
	assert.Equal(t, `{"count":1}`, transcript[3].Content)
}

func Test_Run_ToolFailureContinues(t *testing.T) {
	model := &fakeModel{responses: []*llms.ContentResponse{
		toolCallResponse(llms.ToolCall{ID: "call_1", Name: "lookup", Arguments: `{}`}),
		textResponse("The lookup failed."),
	}}
	a := assistants.NewAssistant(model, "You are helpful.").
		WithTools(&scriptedTool{name: "lookup", err: errors.New("boom")})

	resp, err := a.Run(chatCtx(), "find acme")
	require.NoError(t, err)
	assert.Equal(t, "The lookup failed.", resp.Content)

	// the model received the failure as an error payload
	transcript := model.calls[1]
	assert.Contains(t, transcript[3].Content, `"error":true`)
	assert.Contains(t, transcript[3].Content, "boom")
}

func Test_Run_ToolCallLimit(t *testing.T) {
	model := &fakeModel{responses: []*llms.ContentResponse{
		toolCallResponse(
			llms.ToolCall{ID: "call_1", Name: "lookup", Arguments: `{}`},
			llms.ToolCall{ID: "call_2", Name: "lookup", Arguments: `{}`},
		),
	}}
	a := assistants.NewAssistant(model, "You are helpful.",
		assistants.WithMaxToolCalls(1),
	).WithTools(&scriptedTool{name: "lookup", out: "ok"})

	_, err := a.Run(chatCtx(), "go")
	assert.ErrorContains(t, err, "tool calls limit is exceeded")
}

func Test_Run_NotFoundGuard(t *testing.T) {
	missing := llms.ToolCall{ID: "call_1", Name: "no_such_tool", Arguments: `{}`}
	model := &fakeModel{responses: []*llms.ContentResponse{
		toolCallResponse(missing),
		toolCallResponse(missing),
		toolCallResponse(missing),
		toolCallResponse(missing),
		toolCallResponse(missing),
	}}
	a := assistants.NewAssistant(model, "You are helpful.").
		WithTools(&scriptedTool{name: "lookup", out: "ok"})

	_, err := a.Run(chatCtx(), "go")
	assert.ErrorContains(t, err, "not found tools is exceeded")
}

func Test_Run_MessageLimit(t *testing.T) {
	model := &fakeModel{responses: []*llms.ContentResponse{
		textResponse("never reached"),
	}}
	a := assistants.NewAssistant(model, "You are helpful.",
		assistants.WithMaxMessages(2),
	)

	_, err := a.Run(chatCtx(), "hi")
	assert.ErrorContains(t, err, "messages count exceeded limit")
	assert.Empty(t, model.calls)
}

func Test_Run_ContentSizeLimit(t *testing.T) {
	model := &fakeModel{responses: []*llms.ContentResponse{
		textResponse("never reached"),
	}}
	a := assistants.NewAssistant(model, "You are helpful.",
		assistants.WithMaxContentSize(8),
	)

	_, err := a.Run(chatCtx(), "a rather long question")
	assert.ErrorContains(t, err, "content size exceeded limit")
}

func Test_Run_EmptyResponse(t *testing.T) {
	model := &fakeModel{responses: []*llms.ContentResponse{
		{Choices: nil},
	}}
	a := assistants.NewAssistant(model, "You are helpful.")

	_, err := a.Run(chatCtx(), "hi")
	assert.ErrorContains(t, err, "empty response")
}

type recordingCallback struct {
	assistants.NoopCallback
	started int
	ended   int
	failed  int
}

func (c *recordingCallback) OnAssistantStart(context.Context, *assistants.Assistant, string) {
	c.started++
}

func (c *recordingCallback) OnAssistantEnd(context.Context, *assistants.Assistant, string, *assistants.Response) {
	c.ended++
}

func (c *recordingCallback) OnAssistantError(context.Context, *assistants.Assistant, string, error) {
	c.failed++
}

func Test_Run_Callback(t *testing.T) {
	cb := &recordingCallback{}
	model := &fakeModel{responses: []*llms.ContentResponse{
		textResponse("Hello!"),
	}}
	a := assistants.NewAssistant(model, "You are helpful.",
		assistants.WithCallback(cb),
	)

	_, err := a.Run(chatCtx(), "hi")
	require.NoError(t, err)

	_, err = a.Run(context.Background(), "hi")
	require.Error(t, err)

	assert.Equal(t, 2, cb.started)
	assert.Equal(t, 1, cb.ended)
	assert.Equal(t, 1, cb.failed)
}
