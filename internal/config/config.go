// Package config centralizes runtime configuration for GreenWise.
//
// Configuration is resolved in three layers: built-in defaults, an optional
// greenwise.yaml file, and environment variables (secrets always come from
// the environment). A .env file in the working directory is loaded first so
// local setups behave like deployed ones.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultConfigFile = "greenwise.yaml"

type Config struct {
	// Secrets, environment-only.
	GeminiAPIKey  string `yaml:"-"`
	WeatherAPIKey string `yaml:"-"`

	// LLM settings.
	ModelName             string  `yaml:"model_name"`
	Temperature           float64 `yaml:"temperature"`
	MaxOutputTokens       int     `yaml:"max_output_tokens"`
	ContextTokens         int     `yaml:"context_tokens"`
	LLMMaxRetries         int     `yaml:"llm_max_retries"`
	RateLimitDelaySeconds float64 `yaml:"rate_limit_delay_seconds"`

	// Memory settings.
	MemoryPath string `yaml:"memory_path"`

	// Operational parameters.
	EmissionFactorElectricity float64 `yaml:"emission_factor_electricity"` // kg CO2/kWh
	EmissionFactorDiesel      float64 `yaml:"emission_factor_diesel"`      // kg CO2/L
	EmissionFactorGasoline    float64 `yaml:"emission_factor_gasoline"`    // kg CO2/L
	MaxRecommendations        int     `yaml:"max_recommendations"`
	RefreshIntervalSeconds    int     `yaml:"refresh_interval_seconds"`
	SimulatorSeed             int64   `yaml:"simulator_seed"`

	// Feature flags.
	EnableWeatherAPI        bool   `yaml:"enable_weather_api"`
	WeatherURL              string `yaml:"weather_url"`
	EnableRouteOptimization bool   `yaml:"enable_route_optimization"`
	EnableAutoActions       bool   `yaml:"enable_auto_actions"`

	// Event streaming (optional; empty brokers disables the mirror).
	KafkaBrokers []string `yaml:"kafka_brokers"`
	EventsTopic  string   `yaml:"events_topic"`

	LogLevel string `yaml:"log_level"`
}

func Default() Config {
	return Config{
		ModelName:                 "gemini-2.5-flash",
		Temperature:               0.7,
		MaxOutputTokens:           2048,
		ContextTokens:             8000,
		LLMMaxRetries:             3,
		RateLimitDelaySeconds:     2.0,
		MemoryPath:                "./data/memory.db",
		EmissionFactorElectricity: 0.475,
		EmissionFactorDiesel:      2.68,
		EmissionFactorGasoline:    2.31,
		MaxRecommendations:        10,
		RefreshIntervalSeconds:    300,
		EnableRouteOptimization:   true,
		EventsTopic:               "greenwise.events",
		LogLevel:                  "info",
	}
}

// Load resolves configuration from defaults, an optional yaml file at path
// (empty means DefaultConfigFile, which may be absent) and the environment.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path == "" {
		path = DefaultConfigFile
	}
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// yaml file is optional
	default:
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.WeatherAPIKey = os.Getenv("WEATHER_API_KEY")

	if v := os.Getenv("GEMINI_MODEL_NAME"); v != "" {
		cfg.ModelName = v
	}
	if v, ok := envInt("GEMINI_MAX_RETRIES"); ok {
		cfg.LLMMaxRetries = v
	}
	if v, ok := envFloat("GEMINI_RATE_LIMIT_DELAY"); ok {
		cfg.RateLimitDelaySeconds = v
	}
	if v := os.Getenv("GREENWISE_MEMORY_PATH"); v != "" {
		cfg.MemoryPath = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = splitBrokers(v)
	}
	if v := os.Getenv("GREENWISE_EVENTS_TOPIC"); v != "" {
		cfg.EventsTopic = v
	}
	if v := os.Getenv("GREENWISE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	cfg.EnableWeatherAPI = envFlag("ENABLE_WEATHER_API", cfg.EnableWeatherAPI)
	cfg.EnableRouteOptimization = envFlag("ENABLE_ROUTE_OPTIMIZATION", cfg.EnableRouteOptimization)
	cfg.EnableAutoActions = envFlag("ENABLE_AUTO_ACTIONS", cfg.EnableAutoActions)
}

func (c Config) Validate() error {
	var problems []string
	if c.LLMMaxRetries < 1 {
		problems = append(problems, "llm_max_retries must be >= 1")
	}
	if c.RateLimitDelaySeconds < 0 {
		problems = append(problems, "rate_limit_delay_seconds must be >= 0")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		problems = append(problems, "temperature must be in [0, 2]")
	}
	if c.EmissionFactorElectricity <= 0 {
		problems = append(problems, "emission_factor_electricity must be positive")
	}
	if c.MaxRecommendations < 1 {
		problems = append(problems, "max_recommendations must be >= 1")
	}
	if c.ContextTokens < 1 {
		problems = append(problems, "context_tokens must be >= 1")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// RateLimitDelay returns the pause between retryable LLM attempts.
func (c Config) RateLimitDelay() time.Duration {
	return time.Duration(c.RateLimitDelaySeconds * float64(time.Second))
}

func envFlag(name string, def bool) bool {
	v, ok := os.LookupEnv(name)
	if !ok {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func envInt(name string) (int, bool) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envFloat(name string) (float64, bool) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func splitBrokers(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
