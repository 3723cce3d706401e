package config

import (
	"fmt"
	"log"
	"os"
	"time"
)

type Config struct {
	Port        string
	DBPath      string
	ProfilePath string
	OllamaURL   string
	OllamaModel string
	Token       string
	Timezone    string
	CacheTTL    time.Duration
	Cooldown    time.Duration
	RepeatBlock time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PULSE_PORT", "8080"),
		DBPath:      getEnv("PULSE_DB_PATH", ""),
		ProfilePath: getEnv("PULSE_PROFILE_PATH", ""),
		OllamaURL:   getEnv("PULSE_OLLAMA_URL", "http://localhost:11434"),
		OllamaModel: getEnv("PULSE_OLLAMA_MODEL", "qwen2.5:7b"),
		Token:       getEnv("PULSE_TOKEN", ""),
		Timezone:    getEnv("PULSE_TIMEZONE", "Europe/London"),
		CacheTTL:    getDuration("PULSE_CACHE_TTL", 2*time.Hour),
		Cooldown:    getDuration("PULSE_QUESTION_COOLDOWN", 6*time.Hour),
		RepeatBlock: getDuration("PULSE_QUESTION_REPEAT_BLOCK", 24*time.Hour),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("PULSE_DB_PATH is required")
	}
	if c.Token == "" {
		return fmt.Errorf("PULSE_TOKEN is required")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getDuration falls back to the default on a malformed value rather
// than refusing to start; a bad TTL should not take the coach down.
func getDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		log.Printf("config: invalid %s=%q, using %s", key, val, defaultVal)
		return defaultVal
	}
	return d
}
