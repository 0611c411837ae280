package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var ErrUnsupportedBackend = errors.New("unsupported storage backend")

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env      string         `mapstructure:"env"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Lessons  LessonsConfig  `mapstructure:"lessons"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Mastery  MasteryConfig  `mapstructure:"mastery"`
	Drill    DrillConfig    `mapstructure:"drill"`
}

// StorageConfig selects the key-value backend the snapshot is written to.
type StorageConfig struct {
	Backend string `mapstructure:"backend"` // memory, file, sql or redis
	Key     string `mapstructure:"key"`     // well-known key holding the snapshot
	Dir     string `mapstructure:"dir"`     // directory for the file backend
}

// DatabaseConfig holds settings for the sql backend
type DatabaseConfig struct {
	Type           string `mapstructure:"type"` // sqlite, postgres or mysql
	Path           string `mapstructure:"path"` // sqlite file path
	URL            string `mapstructure:"url"`  // postgres/mysql connection string
	MigrationsPath string `mapstructure:"migrations_path"`
}

// RedisConfig holds settings for the redis backend
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type LessonsConfig struct {
	Path string `mapstructure:"path"`
}

type CatalogConfig struct {
	IDStrategy string `mapstructure:"id_strategy"` // random or stable
}

// Thresholds are mistake counts that move an item down the mastery lattice.
type Thresholds struct {
	ToYellow int `mapstructure:"to_yellow"`
	ToRed    int `mapstructure:"to_red"`
}

type MasteryConfig struct {
	Character Thresholds `mapstructure:"character"`
	Pinyin    Thresholds `mapstructure:"pinyin"`
}

type DrillConfig struct {
	Mode string `mapstructure:"mode"` // character or pinyin
}

// Load reads configuration from an optional .env file, config/config.yaml and
// environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	// A missing .env file is the normal case outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("env", "APP_ENV")
	_ = v.BindEnv("storage.backend", "STORAGE_BACKEND")
	_ = v.BindEnv("storage.dir", "STORAGE_DIR")
	_ = v.BindEnv("database.type", "DATABASE_TYPE")
	_ = v.BindEnv("database.path", "DB_PATH")
	_ = v.BindEnv("database.url", "DATABASE_URL")
	_ = v.BindEnv("database.migrations_path", "MIGRATIONS_PATH")
	_ = v.BindEnv("redis.addr", "REDIS_ADDR")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("lessons.path", "LESSONS_PATH")

	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "local")
	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.key", "hanzidrill")
	v.SetDefault("storage.dir", "./data")
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.path", "./hanzidrill.db")
	v.SetDefault("database.migrations_path", "./migrations")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "hanzidrill:")
	v.SetDefault("lessons.path", "./assets/lessons")
	v.SetDefault("catalog.id_strategy", "random")
	v.SetDefault("mastery.character.to_yellow", 5)
	v.SetDefault("mastery.character.to_red", 4)
	v.SetDefault("mastery.pinyin.to_yellow", 2)
	v.SetDefault("mastery.pinyin.to_red", 7)
	v.SetDefault("drill.mode", "pinyin")
}

// Validate checks values that cannot be defaulted sensibly.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Storage.Backend) {
	case "memory", "file", "sql", "redis":
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedBackend, c.Storage.Backend)
	}

	if c.Storage.Key == "" {
		return errors.New("storage.key must not be empty")
	}

	switch c.Catalog.IDStrategy {
	case "random", "stable":
	default:
		return fmt.Errorf("unknown catalog.id_strategy %q", c.Catalog.IDStrategy)
	}

	switch c.Drill.Mode {
	case "character", "pinyin":
	default:
		return fmt.Errorf("unknown drill.mode %q", c.Drill.Mode)
	}

	for name, th := range map[string]Thresholds{"character": c.Mastery.Character, "pinyin": c.Mastery.Pinyin} {
		if th.ToYellow < 1 || th.ToRed < 1 {
			return fmt.Errorf("mastery.%s thresholds must be positive", name)
		}
	}

	return nil
}
