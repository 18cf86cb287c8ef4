package tools

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"

	"github.com/abrachat/abrachat/llms"
	"github.com/abrachat/abrachat/llmutils"
)

var logger = xlog.NewPackageLogger("github.com/abrachat/abrachat", "tools")

// ErrorResult is the structured payload a failed tool invocation
// produces. It is returned to the model as the tool result so the model
// can correct its arguments and retry, instead of aborting the turn.
type ErrorResult struct {
	Error   bool   `json:"error"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (r *ErrorResult) String() string {
	return llmutils.ToJSON(r)
}

// IsErrorResult reports whether a tool result string is an ErrorResult
// payload.
func IsErrorResult(out string) bool {
	var res ErrorResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		return false
	}
	return res.Error
}

// NewErrorResult classifies err into an ErrorResult.
func NewErrorResult(err error) *ErrorResult {
	kind := "internal"
	var k Kinder
	if errors.As(err, &k) {
		kind = k.ErrorKind()
	} else if errors.Is(err, ErrToolNotFound) {
		kind = "not_found"
	}
	return &ErrorResult{
		Error:   true,
		Kind:    kind,
		Message: err.Error(),
	}
}

// Registry dispatches named tool invocations. Names are matched
// case-insensitively, the way models tend to emit them.
type Registry struct {
	byName map[string]ITool
	names  []string
	list   []ITool

	callback Callback
}

// NewRegistry creates a registry over the given tools.
func NewRegistry(list ...ITool) *Registry {
	r := &Registry{
		byName: make(map[string]ITool),
	}
	r.Add(list...)
	return r
}

// WithCallback sets the tool lifecycle callback.
func (r *Registry) WithCallback(cb Callback) *Registry {
	r.callback = cb
	return r
}

// Add registers new tools; existing names are not replaced.
func (r *Registry) Add(list ...ITool) *Registry {
	for _, tool := range list {
		key := strings.ToLower(tool.Name())
		if r.byName[key] == nil {
			r.byName[key] = tool
			r.names = append(r.names, tool.Name())
			r.list = append(r.list, tool)
		}
	}
	return r
}

// Tools returns the registered tools in registration order.
func (r *Registry) Tools() []ITool {
	return r.list
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	return r.names
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (ITool, bool) {
	t, ok := r.byName[strings.ToLower(name)]
	return t, ok
}

// Definitions returns the function definitions of all tools for a model call.
func (r *Registry) Definitions() []llms.Tool {
	defs := make([]llms.Tool, 0, len(r.list))
	for _, t := range r.list {
		defs = append(defs, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return defs
}

// Execute runs the named tool with the given JSON arguments. The
// returned string is always a valid tool result: failures come back as
// an ErrorResult payload, never as a process error, so the conversation
// can continue. The second return reports whether the tool was found.
func (r *Registry) Execute(ctx context.Context, name, input string) (string, bool) {
	tool, ok := r.Get(name)
	if !ok {
		logger.ContextKV(ctx, xlog.WARNING, "tool", name, "status", "not_found")
		return NewErrorResult(errors.WithMessagef(ErrToolNotFound, "%q", name)).String(), false
	}

	if input != "" && !json.Valid(llmutils.CleanJSON([]byte(input))) {
		err := errors.Newf("tool %q: arguments are not valid JSON", name)
		if r.callback != nil {
			r.callback.OnToolError(ctx, tool, input, err)
		}
		return NewErrorResult(err).String(), true
	}

	if r.callback != nil {
		r.callback.OnToolStart(ctx, tool, input)
	}
	out, err := tool.Call(ctx, input)
	if err != nil {
		logger.ContextKV(ctx, xlog.WARNING,
			"tool", name,
			"status", "failed",
			"err", err.Error(),
		)
		if r.callback != nil {
			r.callback.OnToolError(ctx, tool, input, err)
		}
		return NewErrorResult(err).String(), true
	}
	if r.callback != nil {
		r.callback.OnToolEnd(ctx, tool, input, out)
	}
	return out, true
}

// GetDescriptions renders tool names and descriptions for a prompt.
func GetDescriptions(list ...ITool) string {
	var d toolsDescription
	for _, tool := range list {
		d.Tools = append(d.Tools, toolDescription{
			Name:        tool.Name(),
			Description: tool.Description(),
		})
	}
	return llmutils.BackticksJSON(llmutils.ToJSONIndent(d))
}
