// Package config loads application settings from environment variables,
// with an optional .env file for development. Settings are validated
// eagerly so a misconfigured process fails at startup, not mid-chat.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/abrachat/abrachat/tools/mcptools"
)

var logger = xlog.NewPackageLogger("github.com/abrachat/abrachat", "config")

// Defaults for optional settings.
const (
	DefaultModelName   = "anthropic/claude-3.5-sonnet"
	DefaultTemperature = 0.7
	DefaultAbraHost    = "http://localhost:699"
	DefaultAbraDB      = "Demo"
	DefaultAbraTimeout = 30 * time.Second
	DefaultListenAddr  = ":8080"
)

// Settings are the application settings. Immutable after Load.
type Settings struct {
	// OpenRouterAPIKey authenticates chat completion calls.
	OpenRouterAPIKey string `validate:"required"`
	// ModelName is the default routed model.
	ModelName string `validate:"required"`
	// Temperature is the sampling temperature, between 0 and 2.
	Temperature float64 `validate:"gte=0,lte=2"`
	// ModelsConfigFile optionally points at a provider config file,
	// overriding the single-provider setup above.
	ModelsConfigFile string

	// Abra holds the ABRA Gen API connection settings.
	Abra AbraSettings

	// MCPServers configures external MCP tool servers, keyed by name.
	MCPServers map[string]mcptools.ServerSpec

	// AuthUsers maps user names to bcrypt password hashes for the chat
	// API basic auth. Empty disables authentication.
	AuthUsers map[string]string

	// ListenAddr is the chat API listen address.
	ListenAddr string `validate:"required"`

	// RedisAddr enables the Redis-backed history store when set.
	RedisAddr string
}

// Load reads settings from the environment. A .env file in the working
// directory is applied first when present; real environment variables
// win over it.
func Load() (*Settings, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "failed to load .env file")
	}

	abra, err := abraFromEnv()
	if err != nil {
		return nil, err
	}
	s := &Settings{
		OpenRouterAPIKey: os.Getenv("OPENROUTER_API_KEY"),
		ModelName:        getEnv("MODEL_NAME", DefaultModelName),
		Temperature:      DefaultTemperature,
		ModelsConfigFile: os.Getenv("LLM_CONFIG_FILE"),
		Abra:             *abra,
		ListenAddr:       getEnv("CHAT_LISTEN_ADDR", DefaultListenAddr),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
	}

	if v := os.Getenv("TEMPERATURE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid TEMPERATURE value %q", v)
		}
		s.Temperature = f
	}
	if v := os.Getenv("MCP_SERVERS"); v != "" {
		if err := json.Unmarshal([]byte(v), &s.MCPServers); err != nil {
			return nil, errors.Wrap(err, "invalid MCP_SERVERS value")
		}
	}
	if v := os.Getenv("AUTH_USERS"); v != "" {
		if err := json.Unmarshal([]byte(v), &s.AuthUsers); err != nil {
			return nil, errors.Wrap(err, "invalid AUTH_USERS value")
		}
	}

	if err := validator.New().Struct(s); err != nil {
		return nil, errors.WithMessage(err, "invalid settings")
	}

	logger.KV(xlog.INFO, "status", "loaded", "settings", s.String())
	return s, nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// String renders the settings with credentials masked.
func (s *Settings) String() string {
	return fmt.Sprintf(
		"model=%s temperature=%.2f abra_host=%s abra_database=%s abra_username=%s abra_password=%s api_key=%s mcp_servers=%d auth_users=%d listen=%s redis=%s",
		s.ModelName,
		s.Temperature,
		s.Abra.Host,
		s.Abra.Database,
		s.Abra.Username,
		maskSecret(s.Abra.Password),
		maskSecret(s.OpenRouterAPIKey),
		len(s.MCPServers),
		len(s.AuthUsers),
		s.ListenAddr,
		s.RedisAddr,
	)
}

func maskSecret(v string) string {
	if v == "" {
		return ""
	}
	if len(v) <= 8 {
		return "****"
	}
	return v[:4] + "****"
}
