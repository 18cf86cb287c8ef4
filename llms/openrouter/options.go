package openrouter

import (
	"encoding/json"
	"net/http"

	"github.com/openai/openai-go/shared"
)

type options struct {
	token      string
	model      string
	baseURL    string
	httpClient *http.Client
}

// Option configures the client.
type Option func(*options)

func applyOptions(opts ...Option) *options {
	o := &options{
		baseURL: DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithToken sets the API token.
func WithToken(token string) Option {
	return func(o *options) {
		o.token = token
	}
}

// WithModel sets the default model name, e.g. "anthropic/claude-3.5-sonnet".
func WithModel(model string) Option {
	return func(o *options) {
		o.model = model
	}
}

// WithBaseURL overrides the API endpoint, which allows pointing at any
// OpenAI-compatible server.
func WithBaseURL(baseURL string) Option {
	return func(o *options) {
		if baseURL != "" {
			o.baseURL = baseURL
		}
	}
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// toFunctionParameters converts an arbitrary schema value into the SDK's
// parameters map via a JSON round trip.
func toFunctionParameters(v any) shared.FunctionParameters {
	bs, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(bs, &m); err != nil {
		return nil
	}
	return shared.FunctionParameters(m)
}
