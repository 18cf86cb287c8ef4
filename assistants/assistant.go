// Package assistants runs the tool-calling conversation loop: send the
// transcript to the model, execute requested tools, feed results back,
// and repeat until the model answers in plain text or a limit trips.
package assistants

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"

	"github.com/abrachat/abrachat/chatmodel"
	"github.com/abrachat/abrachat/llms"
	"github.com/abrachat/abrachat/metricskey"
	"github.com/abrachat/abrachat/tools"
)

var logger = xlog.NewPackageLogger("github.com/abrachat/abrachat", "assistants")

// Response is the outcome of one conversation turn.
type Response struct {
	// Content is the model's final plain-text answer.
	Content string
	// ToolCalls is the number of tool executions this turn.
	ToolCalls int
	// Usage aggregates token accounting across all model calls of the turn.
	Usage llms.TokenUsage
}

// Assistant drives a conversation over one model and a tool registry.
// It is safe for concurrent use once configured.
type Assistant struct {
	llm       llms.Model
	sysPrompt string
	registry  *tools.Registry

	cfg         *Config
	name        string
	description string
}

// NewAssistant creates an assistant with the given model and system prompt.
func NewAssistant(llmModel llms.Model, systemPrompt string, options ...Option) *Assistant {
	return &Assistant{
		llm:         llmModel,
		sysPrompt:   systemPrompt,
		registry:    tools.NewRegistry(),
		cfg:         NewConfig(options...),
		name:        "Abra Assistant",
		description: "An AI assistant for querying the ABRA Gen ERP system.",
	}
}

// WithName sets the name of the assistant, used in logs and metrics.
func (a *Assistant) WithName(name string) *Assistant {
	a.name = name
	return a
}

// WithDescription sets the description of the assistant.
func (a *Assistant) WithDescription(description string) *Assistant {
	a.description = description
	return a
}

// WithTools adds new tools to the assistant, existing names are not replaced.
func (a *Assistant) WithTools(list ...tools.ITool) *Assistant {
	a.registry.Add(list...)
	return a
}

func (a *Assistant) Name() string {
	return a.name
}

func (a *Assistant) Description() string {
	return a.description
}

func (a *Assistant) GetTools() []tools.ITool {
	return a.registry.Tools()
}

func (a *Assistant) GetCallConfig(opts ...Option) *Config {
	return a.cfg.Apply(opts...)
}

// Run executes one conversation turn. The chat ID must be present in
// the context; history is loaded from and persisted to the configured
// store.
func (a *Assistant) Run(ctx context.Context, input string, options ...Option) (*Response, error) {
	started := time.Now()
	defer metricskey.PerfChatTurn.MeasureSince(started, a.name)

	cfg := a.GetCallConfig(options...)

	callback := cfg.CallbackHandler
	if callback != nil {
		callback.OnAssistantStart(ctx, a, input)
	}

	resp, err := a.run(ctx, cfg, input)
	if err != nil {
		metricskey.StatsAssistantCallsFailed.IncrCounter(1, a.name)
		if callback != nil {
			callback.OnAssistantError(ctx, a, input, err)
		}
		return nil, err
	}
	metricskey.StatsAssistantCallsSucceeded.IncrCounter(1, a.name)
	if callback != nil {
		callback.OnAssistantEnd(ctx, a, input, resp)
	}
	return resp, nil
}

func (a *Assistant) run(ctx context.Context, cfg *Config, input string) (*Response, error) {
	chatID, err := chatmodel.GetChatID(ctx)
	if err != nil {
		return nil, errors.WithStack(chatmodel.ErrInvalidChatContext)
	}
	if input == "" {
		return nil, errors.New("input is required")
	}

	history := []llms.Message{
		llms.SystemMessage(a.sysPrompt),
	}
	if cfg.Store != nil {
		prevMessages := cfg.Store.Messages(ctx)
		logger.ContextKV(ctx, xlog.DEBUG,
			"assistant", a.name,
			"chat_id", chatID,
			"message_history", len(prevMessages))
		history = append(history, prevMessages...)
	}

	userMessage := llms.HumanMessage(input)
	history = append(history, userMessage)
	// runMessages are the messages created this turn, persisted at the end
	runMessages := []llms.Message{userMessage}

	callOpts := cfg.GetCallOptions()
	if defs := a.registry.Definitions(); len(defs) > 0 {
		if !a.llm.GetProviderType().Supports(llms.CapabilityFunctionCalling) {
			return nil, errors.Newf("assistant %s: the LLM does not support function calling", a.name)
		}
		callOpts = append(callOpts, llms.WithTools(defs))
	}

	modelName := a.llm.GetName()

	var usage llms.TokenUsage
	var totalToolCalls int
	var consecutiveNotFound int
	for {
		if len(history) >= cfg.MaxMessages {
			return nil, errors.Newf("assistant %s: the messages count exceeded limit", a.name)
		}
		if size := llms.CountMessagesContentSize(history); size > cfg.MaxContentSize {
			return nil, errors.Newf("assistant %s: the content size exceeded limit", a.name)
		}

		metricskey.StatsLLMMessagesSent.IncrCounter(float64(len(history)), a.name, modelName)

		resp, err := a.llm.GenerateContent(ctx, history, callOpts...)
		if err != nil {
			return nil, errors.Wrap(err, "failed to generate content from LLM")
		}

		metricskey.StatsLLMInputTokens.IncrCounter(float64(resp.Usage.PromptTokens), a.name, modelName)
		metricskey.StatsLLMOutputTokens.IncrCounter(float64(resp.Usage.CompletionTokens), a.name, modelName)
		usage.PromptTokens += resp.Usage.PromptTokens
		usage.CompletionTokens += resp.Usage.CompletionTokens
		usage.TotalTokens += resp.Usage.TotalTokens

		if len(resp.Choices) == 0 {
			return nil, errors.Newf("assistant %s: LLM returned empty response", a.name)
		}
		choice := resp.Choices[0]

		if len(choice.ToolCalls) == 0 {
			aiMessage := llms.AIMessage(choice.Content)
			runMessages = append(runMessages, aiMessage)

			if cfg.Store != nil && !cfg.SkipMessageHistory {
				for _, msg := range runMessages {
					if err := cfg.Store.Add(ctx, msg); err != nil {
						logger.ContextKV(ctx, xlog.ERROR,
							"assistant", a.name,
							"chat_id", chatID,
							"reason", "store_add",
							"err", err.Error(),
						)
						break
					}
				}
			}

			return &Response{
				Content:   choice.Content,
				ToolCalls: totalToolCalls,
				Usage:     usage,
			}, nil
		}

		assistantMessage := llms.Message{
			Role:      llms.RoleAI,
			Content:   choice.Content,
			ToolCalls: normalizeToolCallIDs(choice.ToolCalls),
		}
		history = append(history, assistantMessage)
		runMessages = append(runMessages, assistantMessage)

		results, notFound := a.executeToolCalls(ctx, assistantMessage.ToolCalls)
		history = append(history, results...)
		runMessages = append(runMessages, results...)

		totalToolCalls += len(assistantMessage.ToolCalls)
		if totalToolCalls > cfg.MaxToolCalls {
			return nil, errors.Newf("assistant %s: the tool calls limit is exceeded", a.name)
		}
		if notFound > 0 {
			consecutiveNotFound += notFound
			if consecutiveNotFound > 3 {
				return nil, errors.Newf("assistant %s: the number of not found tools is exceeded", a.name)
			}
		} else {
			consecutiveNotFound = 0
		}
	}
}

// executeToolCalls runs the requested tools concurrently and returns
// one tool result message per call, in request order. Failures come
// back as error payloads for the model, never as loop errors.
func (a *Assistant) executeToolCalls(ctx context.Context, toolCalls []llms.ToolCall) ([]llms.Message, int) {
	type result struct {
		response string
		found    bool
	}
	results := make([]result, len(toolCalls))

	var wg sync.WaitGroup
	wg.Add(len(toolCalls))
	for i, tc := range toolCalls {
		go func(index int, tc llms.ToolCall) {
			defer wg.Done()

			started := time.Now()
			out, found := a.registry.Execute(ctx, tc.Name, tc.Arguments)
			metricskey.PerfToolCall.MeasureSince(started, tc.Name)

			switch {
			case !found:
				metricskey.StatsToolCallsNotFound.IncrCounter(1, tc.Name)
			case tools.IsErrorResult(out):
				metricskey.StatsToolCallsFailed.IncrCounter(1, tc.Name)
			default:
				metricskey.StatsToolCallsSucceeded.IncrCounter(1, tc.Name)
			}

			results[index] = result{response: out, found: found}
		}(i, tc)
	}
	wg.Wait()

	var notFound int
	messages := make([]llms.Message, 0, len(toolCalls))
	for i, tc := range toolCalls {
		if !results[i].found {
			notFound++
		}
		messages = append(messages, llms.ToolResultMessage(tc.ID, results[i].response))
	}
	return messages, notFound
}

// normalizeToolCallIDs ensures every call carries an ID, since the tool
// result message must reference one.
func normalizeToolCallIDs(toolCalls []llms.ToolCall) []llms.ToolCall {
	out := make([]llms.ToolCall, len(toolCalls))
	for i, tc := range toolCalls {
		if tc.ID == "" {
			tc.ID = fmt.Sprintf("%s_%d", tc.Name, i)
		}
		out[i] = tc
	}
	return out
}
