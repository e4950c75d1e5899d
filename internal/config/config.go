package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage backends for users and results.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Storage struct {
		Backend string `yaml:"backend"`
	} `yaml:"storage"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Mongo struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
	} `yaml:"mongo"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	Auth struct {
		Secret      string `yaml:"secret"`
		RegisterTTL string `yaml:"register_ttl"`
		LoginTTL    string `yaml:"login_ttl"`
		BcryptCost  int    `yaml:"bcrypt_cost"`
	} `yaml:"auth"`
	Questionnaire struct {
		PoolID    string `yaml:"pool_id"`
		PoolFile  string `yaml:"pool_file"`
		CacheTTL  string `yaml:"cache_ttl"`
		Countdown string `yaml:"countdown"`
		Tick      string `yaml:"tick"`
		Debounce  string `yaml:"debounce"`
	} `yaml:"questionnaire"`
}

// Load reads a .env file if present, then YAML config from path, then
// applies environment overrides. A missing YAML file is not an error.
func Load(path string) (Config, error) {
	// Try to load .env file (ignore error if not exists)
	_ = godotenv.Load()

	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	cfg.applyDefaults()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	overrides := map[string]*string{
		"PORT":            &c.Server.Port,
		"LOG_LEVEL":       &c.Log.Level,
		"STORAGE_BACKEND": &c.Storage.Backend,
		"REDIS_ADDR":      &c.Redis.Addr,
		"REDIS_PASSWORD":  &c.Redis.Password,
		"DATABASE_URL":    &c.Postgres.URL,
		"MONGODB_URI":     &c.Mongo.URI,
		"MONGODB_DB":      &c.Mongo.Database,
		"SQLITE_PATH":     &c.SQLite.Path,
		"JWT_SECRET":      &c.Auth.Secret,
		"QUESTIONS_FILE":  &c.Questionnaire.PoolFile,
	}
	for key, dst := range overrides {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REDIS_DB: %w", err)
		}
		c.Redis.DB = db
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Storage.Backend == "" {
		c.Storage.Backend = BackendMemory
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = "strengths"
	}
	if c.SQLite.Path == "" {
		c.SQLite.Path = "./strengths.db"
	}
	if c.Questionnaire.PoolID == "" {
		c.Questionnaire.PoolID = "default"
	}
}

// Validate checks the selected backend has what it needs.
func (c Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory, BackendSQLite:
	case BackendPostgres:
		if c.Postgres.URL == "" {
			return errors.New("storage backend postgres requires postgres.url or DATABASE_URL")
		}
	case BackendMongo:
		if c.Mongo.URI == "" {
			return errors.New("storage backend mongo requires mongo.uri or MONGODB_URI")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	return nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
