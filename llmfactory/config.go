package llmfactory

import (
	"github.com/effective-security/x/configloader"
)

type Config struct {
	Providers []*ProviderConfig `json:"providers" yaml:"providers"`
}

// ProviderConfig describes one chat completion provider.
type ProviderConfig struct {
	Name            string   `json:"name" yaml:"name"`
	Token           string   `json:"token,omitempty" yaml:"token,omitempty"`
	BaseURL         string   `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	DefaultModel    string   `json:"default_model,omitempty" yaml:"default_model,omitempty"`
	AvailableModels []string `json:"available_models,omitempty" yaml:"available_models,omitempty"`
}

// LoadConfig from file, expanding environment variables, so tokens can
// be referenced as ${OPENROUTER_API_KEY} instead of inlined.
func LoadConfig(file string) (*Config, error) {
	cfg := new(Config)
	if file == "" {
		return cfg, nil
	}

	err := configloader.UnmarshalAndExpand(file, cfg)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfig builds a single-provider OpenRouter config, used when no
// config file is given.
func DefaultConfig(token, model string) *Config {
	return &Config{
		Providers: []*ProviderConfig{
			{
				Name:         "openrouter",
				Token:        token,
				DefaultModel: model,
			},
		},
	}
}
