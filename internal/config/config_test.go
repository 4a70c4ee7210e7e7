package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.ModelName != "gemini-2.5-flash" {
		t.Fatalf("model=%q", cfg.ModelName)
	}
	if cfg.LLMMaxRetries != 3 {
		t.Fatalf("retries=%d want=3", cfg.LLMMaxRetries)
	}
	if got, want := cfg.RateLimitDelay(), 2*time.Second; got != want {
		t.Fatalf("delay=%v want=%v", got, want)
	}
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "greenwise.yaml")
	body := "model_name: gemini-2.0-pro\nmax_recommendations: 5\ntemperature: 0.2\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.ModelName != "gemini-2.0-pro" {
		t.Fatalf("model=%q", cfg.ModelName)
	}
	if cfg.MaxRecommendations != 5 {
		t.Fatalf("max_recommendations=%d", cfg.MaxRecommendations)
	}
	// Untouched keys keep their defaults.
	if cfg.ContextTokens != 8000 {
		t.Fatalf("context_tokens=%d", cfg.ContextTokens)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.MemoryPath != "./data/memory.db" {
		t.Fatalf("memory_path=%q", cfg.MemoryPath)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "sk-test")
	t.Setenv("GEMINI_MAX_RETRIES", "5")
	t.Setenv("GREENWISE_LOG_LEVEL", "debug")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.GeminiAPIKey != "sk-test" {
		t.Fatalf("api key=%q", cfg.GeminiAPIKey)
	}
	if cfg.LLMMaxRetries != 5 {
		t.Fatalf("retries=%d", cfg.LLMMaxRetries)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("log level=%q", cfg.LogLevel)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "broker-2:9092" {
		t.Fatalf("brokers=%v", cfg.KafkaBrokers)
	}
}

func TestEnvFlagTruthiness(t *testing.T) {
	cases := []struct {
		value string
		want  bool
	}{
		{"1", true},
		{"true", true},
		{"YES", true},
		{"on", true},
		{"0", false},
		{"false", false},
		{"anything", false},
	}
	for _, tc := range cases {
		t.Setenv("GREENWISE_TEST_FLAG", tc.value)
		if got := envFlag("GREENWISE_TEST_FLAG", !tc.want); got != tc.want {
			t.Fatalf("envFlag(%q)=%v want=%v", tc.value, got, tc.want)
		}
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.LLMMaxRetries = 0
	cfg.Temperature = 3
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
}
