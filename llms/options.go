package llms

// CallOptions holds per-call model parameters.
type CallOptions struct {
	// Model overrides the provider's configured model for this call.
	Model string
	// MaxTokens caps the generated completion length.
	MaxTokens int
	// Temperature is the sampling temperature, between 0 and 2.
	Temperature float64
	// TemperatureSet distinguishes an explicit 0 from the default.
	TemperatureSet bool
	// StopWords stop the generation when produced.
	StopWords []string
	// Tools the model may call.
	Tools []Tool
	// ToolChoice is "none", "auto" (default) or a specific tool.
	ToolChoice any
	// JSONMode requests a JSON object response format.
	JSONMode bool
}

// CallOption modifies CallOptions.
type CallOption func(*CallOptions)

func WithModel(model string) CallOption {
	return func(o *CallOptions) {
		o.Model = model
	}
}

func WithMaxTokens(maxTokens int) CallOption {
	return func(o *CallOptions) {
		o.MaxTokens = maxTokens
	}
}

func WithTemperature(temperature float64) CallOption {
	return func(o *CallOptions) {
		o.Temperature = temperature
		o.TemperatureSet = true
	}
}

func WithStopWords(stopWords []string) CallOption {
	return func(o *CallOptions) {
		o.StopWords = stopWords
	}
}

func WithTools(tools []Tool) CallOption {
	return func(o *CallOptions) {
		o.Tools = tools
	}
}

func WithToolChoice(choice any) CallOption {
	return func(o *CallOptions) {
		o.ToolChoice = choice
	}
}

func WithJSONMode(jsonMode bool) CallOption {
	return func(o *CallOptions) {
		o.JSONMode = jsonMode
	}
}
