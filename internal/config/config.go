package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Quiz struct {
		Mode             string `yaml:"mode"` // campaign or topic
		Topic            string `yaml:"topic"`
		CacheTTL         string `yaml:"cache_ttl"`
		LeaderboardLimit int    `yaml:"leaderboard_limit"`
	} `yaml:"quiz"`
	Generation struct {
		Provider    string  `yaml:"provider"` // openai, anthropic or mock
		Model       string  `yaml:"model"`
		APIKey      string  `yaml:"api_key"`
		Temperature float64 `yaml:"temperature"`
		MaxTokens   int     `yaml:"max_tokens"`
	} `yaml:"generation"`
	Setup struct {
		Password string `yaml:"password"`
	} `yaml:"setup"`
	Sweep struct {
		Interval      string `yaml:"interval"`
		EligibleAfter string `yaml:"eligible_after"`
	} `yaml:"sweep"`
}

// Load reads YAML config from path, then layers environment variables
// on top. A missing file is fine: env-only deployments carry every
// setting through the environment.
func Load(path string) (Config, error) {
	// Local development keeps secrets in .env.
	_ = godotenv.Load()

	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return cfg, err
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("QUIZ_MODE"); v != "" {
		cfg.Quiz.Mode = v
	}
	if v := os.Getenv("QUIZ_TOPIC"); v != "" {
		cfg.Quiz.Topic = v
	}
	// A bare API key selects its provider; OpenAI wins when both keys
	// are present and no provider was chosen.
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && (cfg.Generation.Provider == "" || cfg.Generation.Provider == "openai") {
		cfg.Generation.APIKey = v
		cfg.Generation.Provider = "openai"
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" && (cfg.Generation.Provider == "" || cfg.Generation.Provider == "anthropic") {
		cfg.Generation.APIKey = v
		cfg.Generation.Provider = "anthropic"
	}
	if v := os.Getenv("SETUP_PASSWORD"); v != "" {
		cfg.Setup.Password = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Quiz.Mode == "" {
		cfg.Quiz.Mode = "campaign"
	}
	if cfg.Quiz.LeaderboardLimit <= 0 {
		cfg.Quiz.LeaderboardLimit = 10
	}
	if cfg.Setup.Password == "" {
		cfg.Setup.Password = "campaign2024"
	}
}

// Duration parses a duration string or returns the fallback if empty
// or unparsable.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
