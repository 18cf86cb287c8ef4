package config

import (
	"os"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// AbraSettings are the ABRA Gen API connection settings, used standalone
// by the MCP server binary which needs no chat configuration.
type AbraSettings struct {
	Host     string `validate:"required,url"`
	Database string `validate:"required"`
	Username string
	Password string
	Timeout  time.Duration `validate:"gt=0"`
}

// LoadAbra reads ABRA settings from the environment.
func LoadAbra() (*AbraSettings, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "failed to load .env file")
	}

	s, err := abraFromEnv()
	if err != nil {
		return nil, err
	}
	if err := validator.New().Struct(s); err != nil {
		return nil, errors.WithMessage(err, "invalid settings")
	}
	return s, nil
}

func abraFromEnv() (*AbraSettings, error) {
	s := &AbraSettings{
		Host:     getEnv("ABRA_HOST", DefaultAbraHost),
		Database: getEnv("ABRA_DATABASE", DefaultAbraDB),
		Username: os.Getenv("ABRA_USERNAME"),
		Password: os.Getenv("ABRA_PASSWORD"),
		Timeout:  DefaultAbraTimeout,
	}
	if v := os.Getenv("ABRA_TIMEOUT"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid ABRA_TIMEOUT value %q", v)
		}
		s.Timeout = time.Duration(secs) * time.Second
	}
	return s, nil
}
