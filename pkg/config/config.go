// Package config loads application configuration from defaults, an optional
// config file, and environment variables. Environment always wins.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Sanitizer SanitizerConfig `mapstructure:"sanitizer"`
	Session   SessionConfig   `mapstructure:"session"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	RAG       RAGConfig       `mapstructure:"rag"`
	Rules     RulesConfig     `mapstructure:"rules"`
	Graph     GraphConfig     `mapstructure:"graph"`
}

// GraphConfig locates an optional JSON knowledge-graph snapshot. When the
// neo4j URI is also set the database wins.
type GraphConfig struct {
	JSONPath string `mapstructure:"json_path"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

// DatabaseConfig holds the optional neo4j source for the knowledge graph.
type DatabaseConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// RedisConfig holds the shared redis connection used by the session cache
// and the rate limiter. Empty URL means in-process fallbacks.
type RedisConfig struct {
	URL string `mapstructure:"url"`
}

// LLMConfig holds LLM configuration
type LLMConfig struct {
	Model       string  `mapstructure:"model"`
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Temperature float32 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	UseNER      bool    `mapstructure:"use_ner"`
}

// SanitizerConfig holds per-field input length limits in runes.
type SanitizerConfig struct {
	MaxInput int `mapstructure:"max_input"`
	MaxDream int `mapstructure:"max_dream"`
	MaxName  int `mapstructure:"max_name"`
}

// SessionConfig holds session cache sizing.
type SessionConfig struct {
	MaxSize    int    `mapstructure:"max_size"`
	TTLMinutes int    `mapstructure:"ttl_minutes"`
	BadgerPath string `mapstructure:"badger_path"`
}

// RateLimitConfig holds the sliding window parameters.
type RateLimitConfig struct {
	Requests      int `mapstructure:"requests"`
	WindowSeconds int `mapstructure:"window_seconds"`
}

// RAGConfig holds streaming and A/B experiment settings.
type RAGConfig struct {
	StreamChunkSize int     `mapstructure:"stream_chunk_size"`
	ABMode          bool    `mapstructure:"ab_mode"`
	ModelA          string  `mapstructure:"model_a"`
	ModelB          string  `mapstructure:"model_b"`
	TempA           float32 `mapstructure:"temp_a"`
	TempB           float32 `mapstructure:"temp_b"`
}

// RulesConfig locates the curated rule files.
type RulesConfig struct {
	Dir string `mapstructure:"dir"`
}

// TTL returns the session TTL as a duration.
func (s SessionConfig) TTL() time.Duration {
	return time.Duration(s.TTLMinutes) * time.Minute
}

// Window returns the rate-limit window as a duration.
func (r RateLimitConfig) Window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	setDefaults()

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	overrideWithEnv(config)

	return config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")

	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")

	viper.SetDefault("database.uri", "")
	viper.SetDefault("database.username", "neo4j")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.database", "neo4j")

	viper.SetDefault("redis.url", "")

	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.temperature", 0.7)
	viper.SetDefault("llm.max_tokens", 2048)
	viper.SetDefault("llm.use_ner", false)

	viper.SetDefault("sanitizer.max_input", 1200)
	viper.SetDefault("sanitizer.max_dream", 2000)
	viper.SetDefault("sanitizer.max_name", 100)

	viper.SetDefault("session.max_size", 200)
	viper.SetDefault("session.ttl_minutes", 60)
	viper.SetDefault("session.badger_path", "")

	viper.SetDefault("rate_limit.requests", 30)
	viper.SetDefault("rate_limit.window_seconds", 60)

	viper.SetDefault("rag.stream_chunk_size", 200)
	viper.SetDefault("rag.ab_mode", false)
	viper.SetDefault("rag.model_a", "gpt-4o-mini")
	viper.SetDefault("rag.model_b", "gpt-4o")
	viper.SetDefault("rag.temp_a", 0.7)
	viper.SetDefault("rag.temp_b", 0.7)

	viper.SetDefault("rules.dir", "rules")
	viper.SetDefault("graph.json_path", "")
}

// overrideWithEnv overrides config with environment variables
func overrideWithEnv(config *Config) {
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.LLM.APIKey = apiKey
	}
	if base := os.Getenv("OPENAI_BASE_URL"); base != "" {
		config.LLM.BaseURL = base
	}
	if model := os.Getenv("LLM_MODEL"); model != "" {
		config.LLM.Model = model
	}
	envBool("USE_LLM_NER", &config.LLM.UseNER)

	if uri := os.Getenv("NEO4J_URI"); uri != "" {
		config.Database.URI = uri
	}
	if user := os.Getenv("NEO4J_USER"); user != "" {
		config.Database.Username = user
	}
	if pass := os.Getenv("NEO4J_PASSWORD"); pass != "" {
		config.Database.Password = pass
	}

	if url := os.Getenv("REDIS_URL"); url != "" {
		config.Redis.URL = url
	}

	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	envInt("SERVER_PORT", &config.Server.Port)

	envInt("SANITIZER_MAX_INPUT", &config.Sanitizer.MaxInput)
	envInt("SANITIZER_MAX_DREAM", &config.Sanitizer.MaxDream)
	envInt("SANITIZER_MAX_NAME", &config.Sanitizer.MaxName)

	envInt("SESSION_CACHE_MAX_SIZE", &config.Session.MaxSize)
	envInt("SESSION_CACHE_TTL_MINUTES", &config.Session.TTLMinutes)
	if path := os.Getenv("SESSION_CACHE_BADGER_PATH"); path != "" {
		config.Session.BadgerPath = path
	}

	// Legacy names are honored when the current ones are absent.
	envInt("API_RATE_PER_MIN", &config.RateLimit.Requests)
	envInt("API_RATE_WINDOW", &config.RateLimit.WindowSeconds)
	envInt("RATE_LIMIT_REQUESTS", &config.RateLimit.Requests)
	envInt("RATE_LIMIT_WINDOW", &config.RateLimit.WindowSeconds)

	envInt("ASK_STREAM_CHUNK_SIZE", &config.RAG.StreamChunkSize)
	envBool("RAG_AB_MODE", &config.RAG.ABMode)
	if model := os.Getenv("RAG_AB_MODEL_A"); model != "" {
		config.RAG.ModelA = model
	}
	if model := os.Getenv("RAG_AB_MODEL_B"); model != "" {
		config.RAG.ModelB = model
	}
	envFloat32("RAG_AB_TEMP_A", &config.RAG.TempA)
	envFloat32("RAG_AB_TEMP_B", &config.RAG.TempB)

	if dir := os.Getenv("RULES_DIR"); dir != "" {
		config.Rules.Dir = dir
	}
	if path := os.Getenv("GRAPH_JSON_PATH"); path != "" {
		config.Graph.JSONPath = path
	}
}

func envInt(name string, dst *int) {
	if raw := os.Getenv(name); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			*dst = n
		}
	}
}

func envBool(name string, dst *bool) {
	if raw := os.Getenv(name); raw != "" {
		if b, err := strconv.ParseBool(raw); err == nil {
			*dst = b
		}
	}
}

func envFloat32(name string, dst *float32) {
	if raw := os.Getenv(name); raw != "" {
		if f, err := strconv.ParseFloat(raw, 32); err == nil {
			*dst = float32(f)
		}
	}
}
