// Package openrouter implements llms.Model on top of the OpenAI
// chat-completions API as served by the OpenRouter aggregator. Any
// OpenAI-compatible endpoint works by overriding the base URL.
package openrouter

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/abrachat/abrachat/llms"
)

// DefaultBaseURL is the OpenRouter API endpoint.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

var ErrEmptyResponse = errors.New("openrouter: empty response")

type LLM struct {
	client openai.Client
	model  string
}

var _ llms.Model = (*LLM)(nil)

// New returns a new OpenRouter-backed LLM.
func New(opts ...Option) (*LLM, error) {
	o := applyOptions(opts...)
	if o.token == "" {
		return nil, errors.New("openrouter: missing API token")
	}
	if o.model == "" {
		return nil, errors.New("openrouter: missing model name")
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(o.token),
		option.WithBaseURL(o.baseURL),
	}
	if o.httpClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(o.httpClient))
	}
	return &LLM{
		client: openai.NewClient(reqOpts...),
		model:  o.model,
	}, nil
}

// GetName implements the Model interface.
func (o *LLM) GetName() string {
	return o.model
}

// GetProviderType implements the Model interface.
func (o *LLM) GetProviderType() llms.ProviderType {
	return llms.ProviderOpenRouter
}

// GenerateContent implements the Model interface.
func (o *LLM) GenerateContent(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.CallOptions{}
	for _, opt := range options {
		opt(&opts)
	}

	chatMsgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		msg, err := toOpenAIMessage(m)
		if err != nil {
			return nil, err
		}
		chatMsgs = append(chatMsgs, msg)
	}

	model := o.model
	if opts.Model != "" {
		model = opts.Model
	}

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(model),
		Messages: chatMsgs,
	}
	if opts.TemperatureSet {
		params.Temperature = openai.Float(opts.Temperature)
	}
	if opts.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(opts.MaxTokens))
	}
	if len(opts.StopWords) > 0 {
		params.Stop = openai.ChatCompletionNewParamsStopUnion{OfStringArray: opts.StopWords}
	}
	for _, t := range opts.Tools {
		if t.Function == nil {
			continue
		}
		fn := shared.FunctionDefinitionParam{
			Name:        t.Function.Name,
			Description: openai.String(t.Function.Description),
		}
		if p, ok := t.Function.Parameters.(map[string]any); ok {
			fn.Parameters = shared.FunctionParameters(p)
		} else if t.Function.Parameters != nil {
			fn.Parameters = toFunctionParameters(t.Function.Parameters)
		}
		params.Tools = append(params.Tools, openai.ChatCompletionToolParam{Function: fn})
	}

	result, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, errors.Wrap(err, "openrouter: chat completion failed")
	}
	if len(result.Choices) == 0 {
		return nil, errors.WithStack(ErrEmptyResponse)
	}

	resp := &llms.ContentResponse{
		Usage: llms.TokenUsage{
			PromptTokens:     int(result.Usage.PromptTokens),
			CompletionTokens: int(result.Usage.CompletionTokens),
			TotalTokens:      int(result.Usage.TotalTokens),
		},
	}
	for _, c := range result.Choices {
		choice := &llms.ContentChoice{
			Content:    c.Message.Content,
			StopReason: string(c.FinishReason),
		}
		for _, tc := range c.Message.ToolCalls {
			choice.ToolCalls = append(choice.ToolCalls, llms.ToolCall{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			})
		}
		resp.Choices = append(resp.Choices, choice)
	}
	return resp, nil
}

func toOpenAIMessage(m llms.Message) (openai.ChatCompletionMessageParamUnion, error) {
	switch m.Role {
	case llms.RoleSystem:
		return openai.SystemMessage(m.Content), nil
	case llms.RoleHuman:
		return openai.UserMessage(m.Content), nil
	case llms.RoleTool:
		return openai.ToolMessage(m.Content, m.ToolCallID), nil
	case llms.RoleAI:
		asst := openai.ChatCompletionAssistantMessageParam{}
		if m.Content != "" {
			asst.Content.OfString = openai.String(m.Content)
		}
		for _, tc := range m.ToolCalls {
			asst.ToolCalls = append(asst.ToolCalls, openai.ChatCompletionMessageToolCallParam{
				ID: tc.ID,
				Function: openai.ChatCompletionMessageToolCallFunctionParam{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		return openai.ChatCompletionMessageParamUnion{OfAssistant: &asst}, nil
	default:
		return openai.ChatCompletionMessageParamUnion{}, errors.Newf("openrouter: role %q not supported", m.Role)
	}
}
