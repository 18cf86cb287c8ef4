package assistants

import (
	"github.com/abrachat/abrachat/llms"
	"github.com/abrachat/abrachat/store"
)

// Loop limits. A conversation turn that hits any of them fails rather
// than looping forever on a misbehaving model.
const (
	DefaultMaxToolCalls   = 24
	DefaultMaxMessages    = 100
	DefaultMaxContentSize = 1 << 20
)

// Option is a function that can be used to modify the behavior of the Config.
type Option func(*Config)

type Config struct {
	// Model overrides the model name in an LLM call.
	Model    string
	modelSet bool

	// MaxTokens is the maximum number of tokens to generate in an LLM call.
	MaxTokens    int
	maxTokensSet bool

	// Temperature is the sampling temperature in an LLM call, between 0 and 1.
	Temperature    float64
	temperatureSet bool

	// StopWords is a list of words to stop on in an LLM call.
	StopWords    []string
	stopWordsSet bool

	// MaxToolCalls caps the total tool executions in one turn.
	MaxToolCalls int

	// MaxMessages caps the transcript length sent to the model.
	MaxMessages int

	// MaxContentSize caps the total content bytes sent to the model.
	MaxContentSize uint64

	// Store persists the conversation history; nil keeps the turn stateless.
	Store store.MessageStore

	// CallbackHandler receives assistant lifecycle notifications.
	CallbackHandler Callback

	// SkipMessageHistory skips persisting this turn to the Store.
	SkipMessageHistory bool
}

func NewConfig(opts ...Option) *Config {
	cfg := &Config{
		MaxToolCalls:   DefaultMaxToolCalls,
		MaxMessages:    DefaultMaxMessages,
		MaxContentSize: DefaultMaxContentSize,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Apply returns a copy of the config with the given options applied.
func (c *Config) Apply(opts ...Option) *Config {
	cfg := *c
	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithModel is an option for LLM.Call.
func WithModel(model string) Option {
	return func(o *Config) {
		o.Model = model
		o.modelSet = true
	}
}

// WithMaxTokens is an option for LLM.Call.
func WithMaxTokens(maxTokens int) Option {
	return func(o *Config) {
		o.MaxTokens = maxTokens
		o.maxTokensSet = true
	}
}

// WithTemperature is an option for LLM.Call.
func WithTemperature(temperature float64) Option {
	return func(o *Config) {
		o.Temperature = temperature
		o.temperatureSet = true
	}
}

// WithStopWords is an option for setting the stop words for LLM.Call.
func WithStopWords(stopWords []string) Option {
	return func(o *Config) {
		o.StopWords = stopWords
		o.stopWordsSet = true
	}
}

// WithMaxToolCalls caps the tool executions in one turn.
func WithMaxToolCalls(n int) Option {
	return func(o *Config) {
		o.MaxToolCalls = n
	}
}

// WithMaxMessages caps the transcript length.
func WithMaxMessages(n int) Option {
	return func(o *Config) {
		o.MaxMessages = n
	}
}

// WithMaxContentSize caps the content bytes sent to the model.
func WithMaxContentSize(n uint64) Option {
	return func(o *Config) {
		o.MaxContentSize = n
	}
}

// WithStore sets the message store for the conversation history.
func WithStore(st store.MessageStore) Option {
	return func(o *Config) {
		o.Store = st
	}
}

// WithCallback allows setting a custom Callback Handler.
func WithCallback(callbackHandler Callback) Option {
	return func(o *Config) {
		o.CallbackHandler = callbackHandler
	}
}

// WithSkipMessageHistory skips persisting this turn to the store.
func WithSkipMessageHistory(skip bool) Option {
	return func(o *Config) {
		o.SkipMessageHistory = skip
	}
}

func (c *Config) GetCallOptions(extra ...llms.CallOption) []llms.CallOption {
	var callOpts []llms.CallOption
	if c.modelSet {
		callOpts = append(callOpts, llms.WithModel(c.Model))
	}
	if c.maxTokensSet {
		callOpts = append(callOpts, llms.WithMaxTokens(c.MaxTokens))
	}
	if c.temperatureSet {
		callOpts = append(callOpts, llms.WithTemperature(c.Temperature))
	}
	if c.stopWordsSet {
		callOpts = append(callOpts, llms.WithStopWords(c.StopWords))
	}
	return append(callOpts, extra...)
}
