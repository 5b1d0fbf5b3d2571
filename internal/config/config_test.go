package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestLoadMissingCredential(t *testing.T) {
	t.Setenv("ARK_API_KEY", "  ")

	_, err := Load()
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("Load error = %v, want %v", err, ErrMissingCredential)
	}
}

func TestParseDoesNotRequireCredential(t *testing.T) {
	t.Setenv("ARK_API_KEY", "")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse error = %v", err)
	}
	if cfg.APIKey != "" {
		t.Fatalf("api key = %q, want empty", cfg.APIKey)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ARK_API_KEY", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}
	if cfg.Backend != BackendHTTP {
		t.Fatalf("backend = %q, want %q", cfg.Backend, BackendHTTP)
	}
	if cfg.MaxRetries != 3 {
		t.Fatalf("max retries = %d, want 3", cfg.MaxRetries)
	}
	if cfg.RetryBaseDelay != time.Second {
		t.Fatalf("retry base delay = %s, want 1s", cfg.RetryBaseDelay)
	}
	if cfg.OrchestratorPolicy != PolicyStatic || cfg.CostPolicy != PolicyStatic {
		t.Fatalf("policies = %q/%q, want static/static", cfg.OrchestratorPolicy, cfg.CostPolicy)
	}
	if cfg.RuntimeMinutes != 90 || cfg.SceneCount != 60 {
		t.Fatalf("runtime/scenes = %d/%d, want 90/60", cfg.RuntimeMinutes, cfg.SceneCount)
	}
	if cfg.Fallbacks {
		t.Fatal("fallbacks should default to false")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ARK_API_KEY", "secret")
	t.Setenv("AUTEUR_BACKEND", "ark-sdk")
	t.Setenv("AUTEUR_COST_POLICY", "generated")
	t.Setenv("AUTEUR_RETRY_BASE_DELAY", "250ms")
	t.Setenv("AUTEUR_FALLBACKS", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}
	if cfg.Backend != BackendArkSDK {
		t.Fatalf("backend = %q", cfg.Backend)
	}
	if cfg.CostPolicy != PolicyGenerated {
		t.Fatalf("cost policy = %q", cfg.CostPolicy)
	}
	if cfg.RetryBaseDelay != 250*time.Millisecond {
		t.Fatalf("retry base delay = %s", cfg.RetryBaseDelay)
	}
	if !cfg.Fallbacks {
		t.Fatal("fallbacks = false, want true")
	}
}

func TestValidate(t *testing.T) {
	base := Config{
		Backend:            BackendHTTP,
		OrchestratorPolicy: PolicyStatic,
		CostPolicy:         PolicyStatic,
		MaxRetries:         3,
		RetryBaseDelay:     time.Second,
		RuntimeMinutes:     90,
		SceneCount:         60,
	}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown backend", mutate: func(c *Config) { c.Backend = "grpc" }, wantErr: true},
		{name: "unknown orchestrator policy", mutate: func(c *Config) { c.OrchestratorPolicy = "dynamic" }, wantErr: true},
		{name: "unknown cost policy", mutate: func(c *Config) { c.CostPolicy = "" }, wantErr: true},
		{name: "negative retries", mutate: func(c *Config) { c.MaxRetries = -1 }, wantErr: true},
		{name: "zero retries allowed", mutate: func(c *Config) { c.MaxRetries = 0 }},
		{name: "zero base delay", mutate: func(c *Config) { c.RetryBaseDelay = 0 }, wantErr: true},
		{name: "zero runtime", mutate: func(c *Config) { c.RuntimeMinutes = 0 }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("Validate error = %v", err)
			}
		})
	}
}

func TestInitLoggingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auteur.log")
	closer, err := InitLogging(Config{LogLevel: "debug", LogFile: path})
	if err != nil {
		t.Fatalf("InitLogging error = %v", err)
	}
	t.Cleanup(func() {
		logrus.SetLevel(logrus.InfoLevel)
		logrus.SetOutput(os.Stderr)
	})
	if logrus.GetLevel() != logrus.DebugLevel {
		t.Fatalf("level = %s, want debug", logrus.GetLevel())
	}
	if err := closer.Close(); err != nil {
		t.Fatalf("close error = %v", err)
	}
}

func TestInitLoggingBadLevel(t *testing.T) {
	if _, err := InitLogging(Config{LogLevel: "loud"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
