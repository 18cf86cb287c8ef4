// Package llms defines the provider-neutral model contract: chat
// messages, tool definitions, call options and the Model interface
// implemented by provider backends.
package llms

import (
	"context"
)

// ProviderType is the type of provider.
type ProviderType string

const (
	// ProviderOpenAI is an OpenAI endpoint.
	ProviderOpenAI ProviderType = "OPENAI"
	// ProviderOpenRouter is the OpenRouter aggregator, which exposes the
	// OpenAI-compatible API for every routed model family.
	ProviderOpenRouter ProviderType = "OPENROUTER"
)

// Model is the interface chat models implement.
type Model interface {
	// GetName returns the configured model name.
	GetName() string
	// GetProviderType returns the type of provider.
	GetProviderType() ProviderType
	// GenerateContent asks the model to generate content from a sequence
	// of messages.
	GenerateContent(ctx context.Context, messages []Message, options ...CallOption) (*ContentResponse, error)
}

// Capability is a bitmask indicating supported features of an LLM provider.
type Capability uint64

const (
	// CapabilityText is basic text or chat generation.
	CapabilityText Capability = 1 << iota
	// CapabilityJSONResponse is a structured JSON response format.
	CapabilityJSONResponse
	// CapabilityFunctionCalling is function/tool calling.
	CapabilityFunctionCalling
	// CapabilityMultiToolCalling is parallel tool calling in one response.
	CapabilityMultiToolCalling
	// CapabilitySystemPrompt is system prompt support.
	CapabilitySystemPrompt
)

var providerCapabilities = map[ProviderType]Capability{
	ProviderOpenAI: CapabilityText |
		CapabilityJSONResponse |
		CapabilityFunctionCalling |
		CapabilityMultiToolCalling |
		CapabilitySystemPrompt,

	ProviderOpenRouter: CapabilityText |
		CapabilityJSONResponse |
		CapabilityFunctionCalling |
		CapabilityMultiToolCalling |
		CapabilitySystemPrompt,
}

func ProviderCapabilities(pt ProviderType) Capability {
	return providerCapabilities[pt]
}

func (p ProviderType) Supports(cap Capability) bool {
	return ProviderCapabilities(p)&cap != 0
}

// Role is the originator of a chat message.
type Role string

const (
	RoleSystem Role = "system"
	RoleHuman  Role = "human"
	RoleAI     Role = "ai"
	RoleTool   Role = "tool"
)

// ToolCall is a single tool invocation requested by the model.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message is one entry of a conversation transcript.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	// ToolCalls is set on AI messages that request tool executions.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	// ToolCallID links a tool result back to the call that produced it.
	ToolCallID string `json:"tool_call_id,omitempty"`
}

func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

func HumanMessage(content string) Message {
	return Message{Role: RoleHuman, Content: content}
}

func AIMessage(content string) Message {
	return Message{Role: RoleAI, Content: content}
}

// ToolResultMessage carries one tool execution result back to the model.
func ToolResultMessage(toolCallID, content string) Message {
	return Message{Role: RoleTool, ToolCallID: toolCallID, Content: content}
}

// FunctionDefinition declares one callable function to the model.
type FunctionDefinition struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  any    `json:"parameters,omitempty"`
}

// Tool is a tool definition in a model call.
type Tool struct {
	Type     string              `json:"type"`
	Function *FunctionDefinition `json:"function,omitempty"`
}

// TokenUsage is the token accounting of one model call.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ContentChoice is one alternative the model generated.
type ContentChoice struct {
	Content    string     `json:"content"`
	StopReason string     `json:"stop_reason,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
}

// ContentResponse is the full response of one model call.
type ContentResponse struct {
	Choices []*ContentChoice `json:"choices"`
	Usage   TokenUsage       `json:"usage"`
}

// CountMessagesContentSize returns the total content bytes of messages,
// used by the assistant loop limits.
func CountMessagesContentSize(messages []Message) uint64 {
	var total uint64
	for _, m := range messages {
		total += uint64(len(m.Content))
		for _, tc := range m.ToolCalls {
			total += uint64(len(tc.Arguments))
		}
	}
	return total
}
