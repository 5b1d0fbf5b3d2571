package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// ErrMissingCredential is returned when ARK_API_KEY is not set.
var ErrMissingCredential = errors.New("ARK_API_KEY is not set")

// Policy selects whether a blueprint section is served from platform
// constants or requested from the model.
type Policy string

const (
	PolicyStatic    Policy = "static"
	PolicyGenerated Policy = "generated"
)

// Backend selects the chat model implementation.
type Backend string

const (
	// BackendHTTP talks to the Ark chat completions endpoint directly.
	BackendHTTP Backend = "http"
	// BackendArkSDK uses the eino-ext ark chat model.
	BackendArkSDK Backend = "ark-sdk"
)

// Config holds process configuration. It is parsed once at startup.
type Config struct {
	APIKey    string  `env:"ARK_API_KEY"`
	BaseURL   string  `env:"ARK_BASE_URL" envDefault:"https://ark.cn-beijing.volces.com"`
	Region    string  `env:"ARK_REGION" envDefault:"cn-beijing"`
	ChatModel string  `env:"ARK_CHAT_MODEL" envDefault:"doubao-seed-1-6-250615"`
	Backend   Backend `env:"AUTEUR_BACKEND" envDefault:"http"`

	RequestTimeout time.Duration `env:"AUTEUR_REQUEST_TIMEOUT" envDefault:"90s"`
	MaxRetries     int           `env:"AUTEUR_MAX_RETRIES" envDefault:"3"`
	RetryBaseDelay time.Duration `env:"AUTEUR_RETRY_BASE_DELAY" envDefault:"1s"`
	RetryMaxDelay  time.Duration `env:"AUTEUR_RETRY_MAX_DELAY" envDefault:"30s"`

	OrchestratorPolicy Policy `env:"AUTEUR_ORCHESTRATOR_POLICY" envDefault:"static"`
	CostPolicy         Policy `env:"AUTEUR_COST_POLICY" envDefault:"static"`
	Fallbacks          bool   `env:"AUTEUR_FALLBACKS" envDefault:"false"`
	DefaultsFile       string `env:"AUTEUR_DEFAULTS_FILE"`

	RuntimeMinutes int `env:"AUTEUR_RUNTIME_MINUTES" envDefault:"90"`
	SceneCount     int `env:"AUTEUR_SCENE_COUNT" envDefault:"60"`

	Addr         string `env:"AUTEUR_ADDR" envDefault:":8080"`
	LogLevel     string `env:"AUTEUR_LOG_LEVEL" envDefault:"info"`
	LogFile      string `env:"AUTEUR_LOG_FILE"`
	OTelEndpoint string `env:"AUTEUR_OTEL_ENDPOINT"`
}

// Load parses the environment and requires the credential. Commands that
// call the model use Load; offline commands use Parse.
func Load() (Config, error) {
	cfg, err := Parse()
	if err != nil {
		return Config{}, err
	}
	if cfg.APIKey == "" {
		return Config{}, ErrMissingCredential
	}
	return cfg, nil
}

// Parse loads configuration from environment variables without requiring
// the credential.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting. The credential is checked by
// Load.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendHTTP, BackendArkSDK:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if err := c.OrchestratorPolicy.validate("orchestrator"); err != nil {
		return err
	}
	if err := c.CostPolicy.validate("cost"); err != nil {
		return err
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must be >= 0, got %d", c.MaxRetries)
	}
	if c.RetryBaseDelay <= 0 {
		return fmt.Errorf("retry base delay must be positive, got %s", c.RetryBaseDelay)
	}
	if c.RuntimeMinutes <= 0 || c.SceneCount <= 0 {
		return fmt.Errorf("runtime and scene count must be positive, got %d/%d", c.RuntimeMinutes, c.SceneCount)
	}
	return nil
}

func (p Policy) validate(name string) error {
	switch p {
	case PolicyStatic, PolicyGenerated:
		return nil
	default:
		return fmt.Errorf("unknown %s policy %q", name, p)
	}
}
