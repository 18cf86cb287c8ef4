// Package llmfactory creates and caches chat model instances from a
// provider configuration.
package llmfactory

import (
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"

	"github.com/abrachat/abrachat/llms"
	"github.com/abrachat/abrachat/llms/openrouter"
)

var logger = xlog.NewPackageLogger("github.com/abrachat/abrachat", "llmfactory")

type Factory interface {
	DefaultModel() (llms.Model, error)
	ModelByName(name string) (llms.Model, error)
}

// Load returns a factory from a config file location.
func Load(location string) (Factory, error) {
	cfg, err := LoadConfig(location)
	if err != nil {
		return nil, err
	}
	return New(cfg), nil
}

type factory struct {
	cfg *Config

	byName map[string]llms.Model
	lock   sync.Mutex
}

// New creates a new LLM factory
func New(cfg *Config) Factory {
	return &factory{
		cfg:    cfg,
		byName: make(map[string]llms.Model),
	}
}

func NewLLM(cfg *ProviderConfig) (llms.Model, error) {
	opts := []openrouter.Option{
		openrouter.WithToken(cfg.Token),
		openrouter.WithModel(cfg.DefaultModel),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openrouter.WithBaseURL(cfg.BaseURL))
	}
	return openrouter.New(opts...)
}

// DefaultModel returns the model of the first configured provider.
func (f *factory) DefaultModel() (llms.Model, error) {
	if len(f.cfg.Providers) == 0 {
		return nil, errors.New("no providers configured")
	}
	return f.ModelByName(f.cfg.Providers[0].Name)
}

func (f *factory) ModelByName(name string) (llms.Model, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	if model, ok := f.byName[name]; ok {
		return model, nil
	}

	for _, cfg := range f.cfg.Providers {
		if cfg.Name == name {
			model, err := NewLLM(cfg)
			if err != nil {
				return nil, err
			}

			logger.KV(xlog.DEBUG,
				"status", "created_llm",
				"model", cfg.DefaultModel,
				"name", cfg.Name)

			f.byName[name] = model
			return model, nil
		}
	}
	return nil, errors.Newf("provider not found for name: %s", name)
}
