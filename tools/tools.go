// Package tools defines the Tool interface for LLM agents, including
// registration, parameter schema and MCP integration. Tools let the
// assistant interact with external systems in a structured way.
package tools

import (
	"context"

	"github.com/cockroachdb/errors"
)

var ErrToolNotFound = errors.New("tool not found")

// ITool is a tool for the llm agent to interact with different applications.
type ITool interface {
	// Name returns the name of the Tool.
	Name() string
	// Description returns the description of the tool, to be used in the prompt.
	// Should not exceed LLM model limit.
	Description() string
	// Parameters returns the parameters definition of the function, to be used in the prompt.
	Parameters() any

	// Call executes the tool with the given JSON input and returns the result.
	// If the tool fails to parse the input, it should return
	// chatmodel.ErrFailedUnmarshalInput.
	Call(context.Context, string) (string, error)
}

// Callback receives tool lifecycle notifications.
type Callback interface {
	OnToolStart(context.Context, ITool, string)
	OnToolEnd(context.Context, ITool, string, string)
	OnToolError(context.Context, ITool, string, error)
}

// Tool is a typed tool with a declared input and output.
type Tool[I any, O any] interface {
	ITool
	Run(context.Context, *I) (*O, error)
}

// Kinder is implemented by typed errors that classify themselves,
// so tool failures can be reported with a stable kind string.
type Kinder interface {
	ErrorKind() string
}

type toolDescription struct {
	Name        string `json:"Name" yaml:"Name"`
	Description string `json:"Description" yaml:"Description"`
}

type toolsDescription struct {
	Tools []toolDescription `json:"Tools" yaml:"Tools"`
}
