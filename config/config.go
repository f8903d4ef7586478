package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Local store drivers understood by LocalStoreDriver.
const (
	StoreDriverFile   = "file"
	StoreDriverSQLite = "sqlite"
	StoreDriverRedis  = "redis"
	StoreDriverMemory = "memory"
)

type Config struct {
	Port              string        `yaml:"port"`
	LogLevel          string        `yaml:"log_level"`
	DBUrl             string        `yaml:"database_url"`
	SupabaseUrl       string        `yaml:"supabase_url"`
	SupabaseKey       string        `yaml:"supabase_key"`
	SupabaseJWTSecret string        `yaml:"supabase_jwt_secret"`
	SupabaseTimeout   time.Duration `yaml:"supabase_timeout"`
	SupabaseRetries   int           `yaml:"supabase_read_retries"`
	FrontendURL       string        `yaml:"frontend_url"`
	// Device-local persistence
	LocalStoreDriver string `yaml:"local_store_driver"`
	LocalStorePath   string `yaml:"local_store_path"`
	// Redis/Upstash Configuration (redis local store driver)
	UpstashRedisURL      string `yaml:"upstash_redis_url"`
	UpstashRedisPassword string `yaml:"upstash_redis_password"`
	// StrictReads makes read failures visible instead of reporting empty results.
	StrictReads bool `yaml:"strict_reads"`
}

// RemoteConfigured reports whether both the Supabase URL and key are present.
// It is the single switch between the remote and the local adapters.
func (c *Config) RemoteConfigured() bool {
	return c.SupabaseUrl != "" && c.SupabaseKey != ""
}

func LoadConfig() (*Config, error) {
	// .env is optional, only present during local development
	_ = godotenv.Load()

	cfg := &Config{
		Port:             "8080",
		LogLevel:         "debug",
		SupabaseTimeout:  10 * time.Second,
		FrontendURL:      "http://localhost:8081",
		LocalStoreDriver: StoreDriverFile,
		LocalStorePath:   "network20-data",
	}

	if path := getEnv("CONFIG_FILE", ""); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.DBUrl = getEnv("DATABASE_URL", cfg.DBUrl)
	// Trailing slashes would produce //rest/v1 paths
	cfg.SupabaseUrl = strings.TrimRight(getEnv("SUPABASE_URL", cfg.SupabaseUrl), "/")
	cfg.SupabaseKey = getEnv("SUPABASE_KEY", getEnv("SUPABASE_ANON_KEY", cfg.SupabaseKey))
	cfg.SupabaseJWTSecret = getEnv("SUPABASE_JWT_SECRET", getEnv("SUPABASE_JWT_KEY", cfg.SupabaseJWTSecret))
	cfg.SupabaseTimeout = time.Duration(getEnvInt("SUPABASE_TIMEOUT_SECONDS", int(cfg.SupabaseTimeout/time.Second))) * time.Second
	cfg.SupabaseRetries = max(getEnvInt("SUPABASE_READ_RETRIES", cfg.SupabaseRetries), 0)
	cfg.FrontendURL = strings.TrimRight(getEnv("FRONTEND_URL", cfg.FrontendURL), "/")
	cfg.LocalStoreDriver = strings.ToLower(getEnv("LOCAL_STORE_DRIVER", cfg.LocalStoreDriver))
	cfg.LocalStorePath = getEnv("LOCAL_STORE_PATH", cfg.LocalStorePath)
	cfg.UpstashRedisURL = getEnv("UPSTASH_REDIS_URL", cfg.UpstashRedisURL)
	cfg.UpstashRedisPassword = getEnv("UPSTASH_REDIS_PASSWORD", cfg.UpstashRedisPassword)
	cfg.StrictReads = getEnvBool("STRICT_READS", cfg.StrictReads)

	switch cfg.LocalStoreDriver {
	case StoreDriverFile, StoreDriverSQLite, StoreDriverRedis, StoreDriverMemory:
	default:
		return nil, fmt.Errorf("config: unknown LOCAL_STORE_DRIVER %q", cfg.LocalStoreDriver)
	}

	if !cfg.RemoteConfigured() {
		log.Println("WARNING: SUPABASE_URL/SUPABASE_KEY not configured. Profiles will be stored locally.")
	}
	if cfg.LocalStoreDriver == StoreDriverRedis && cfg.UpstashRedisURL == "" {
		return nil, fmt.Errorf("config: LOCAL_STORE_DRIVER=redis requires UPSTASH_REDIS_URL")
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return fmt.Errorf("config: decode %s: %w", path, err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt returns an integer environment variable or fallback if not set/invalid
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool returns a boolean environment variable or fallback if not set/invalid
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}
