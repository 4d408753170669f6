// Package config loads the server configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/tourlingo/relay/domain/repositories"
)

// Config is everything the server reads from its environment. Adapter
// specific settings (API keys, voice tables) are loaded by the adapters
// themselves; this struct covers the server and the tunables of the
// messaging layer.
type Config struct {
	Env  string `env:"ENV" envDefault:"production"`
	Port int    `env:"PORT" envDefault:"8080"`

	MongoURI      string `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGODB_DATABASE" envDefault:"tourlingo"`

	TokenSecret string        `env:"ROOM_TOKEN_SECRET,required"`
	TokenTTL    time.Duration `env:"ROOM_TOKEN_TTL" envDefault:"4h"`

	// STTProvider selects the transcription backend: "elevenlabs" or
	// "google".
	STTProvider string `env:"STT_PROVIDER" envDefault:"elevenlabs"`

	// NoiseArbiter enables the LLM second opinion on borderline segments.
	NoiseArbiter bool `env:"NOISE_ARBITER" envDefault:"false"`

	MaxChunkBytes   int           `env:"MAX_CHUNK_BYTES" envDefault:"50000"`
	InterChunkDelay time.Duration `env:"INTER_CHUNK_DELAY" envDefault:"10ms"`
	BufferStaleness time.Duration `env:"BUFFER_STALENESS" envDefault:"30s"`
}

const (
	STTProviderElevenLabs = "elevenlabs"
	STTProviderGoogle     = "google"
)

// Load parses the environment into a validated Config.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks constraints env tags cannot express.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT %d out of range", c.Port)
	}
	if c.TokenSecret == "" {
		return &repositories.ConfigurationError{Setting: "ROOM_TOKEN_SECRET"}
	}
	if c.STTProvider != STTProviderElevenLabs && c.STTProvider != STTProviderGoogle {
		return fmt.Errorf("STT_PROVIDER %q is not supported", c.STTProvider)
	}
	if c.MaxChunkBytes <= 0 {
		return fmt.Errorf("MAX_CHUNK_BYTES must be positive")
	}
	if c.BufferStaleness <= 0 {
		return fmt.Errorf("BUFFER_STALENESS must be positive")
	}
	return nil
}

// IsDevelopment reports whether the server runs in development mode, which
// switches the logger to its human-readable output.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
