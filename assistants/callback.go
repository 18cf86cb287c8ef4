package assistants

import (
	"context"

	"github.com/effective-security/xlog"
)

// Callback receives assistant lifecycle notifications. Tool-level
// notifications are delivered through the tool registry callback.
type Callback interface {
	OnAssistantStart(ctx context.Context, assistant *Assistant, input string)
	OnAssistantEnd(ctx context.Context, assistant *Assistant, input string, resp *Response)
	OnAssistantError(ctx context.Context, assistant *Assistant, input string, err error)
}

// NoopCallback does nothing.
type NoopCallback struct{}

func NewNoopCallback() *NoopCallback {
	return &NoopCallback{}
}

var _ Callback = (*NoopCallback)(nil)

func (l *NoopCallback) OnAssistantStart(ctx context.Context, assistant *Assistant, input string) {}
func (l *NoopCallback) OnAssistantEnd(ctx context.Context, assistant *Assistant, input string, resp *Response) {
}
func (l *NoopCallback) OnAssistantError(ctx context.Context, assistant *Assistant, input string, err error) {
}

// LoggerCallback prints lifecycle events to a package logger.
type LoggerCallback struct {
	logger *xlog.PackageLogger
}

func NewLoggerCallback(logger *xlog.PackageLogger) *LoggerCallback {
	return &LoggerCallback{logger: logger}
}

var _ Callback = (*LoggerCallback)(nil)

func (l *LoggerCallback) OnAssistantStart(ctx context.Context, assistant *Assistant, input string) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "assistant_start",
		"assistant", assistant.Name(),
		"input_length", len(input),
	)
}

func (l *LoggerCallback) OnAssistantEnd(ctx context.Context, assistant *Assistant, input string, resp *Response) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "assistant_end",
		"assistant", assistant.Name(),
		"tool_calls", resp.ToolCalls,
		"total_tokens", resp.Usage.TotalTokens,
	)
}

func (l *LoggerCallback) OnAssistantError(ctx context.Context, assistant *Assistant, input string, err error) {
	l.logger.ContextKV(ctx, xlog.ERROR,
		"event", "assistant_error",
		"assistant", assistant.Name(),
		"err", err.Error(),
	)
}
