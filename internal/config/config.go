package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Places   PlacesConfig   `yaml:"places" mapstructure:"places"`
	Search   SearchConfig   `yaml:"search" mapstructure:"search"`
	Classify ClassifyConfig `yaml:"classify" mapstructure:"classify"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// PlacesConfig holds the Places API credentials and client tuning.
type PlacesConfig struct {
	Key              string  `yaml:"key" mapstructure:"key"`
	BaseURL          string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs      int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimit        float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	RetryAttempts    int     `yaml:"retry_attempts" mapstructure:"retry_attempts"` // 1 or less disables retries
	RetryBackoffMS   int     `yaml:"retry_backoff_ms" mapstructure:"retry_backoff_ms"`
	BreakerThreshold int     `yaml:"breaker_threshold" mapstructure:"breaker_threshold"` // 0 disables the breaker
	BreakerResetSecs int     `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// SearchConfig bounds the paginated nearby search.
type SearchConfig struct {
	Category             string `yaml:"category" mapstructure:"category"`
	DefaultRadiusM       int    `yaml:"default_radius_m" mapstructure:"default_radius_m"`
	MinRadiusM           int    `yaml:"min_radius_m" mapstructure:"min_radius_m"`
	MaxRadiusM           int    `yaml:"max_radius_m" mapstructure:"max_radius_m"`
	RadiusStepM          int    `yaml:"radius_step_m" mapstructure:"radius_step_m"`
	MaxResults           int    `yaml:"max_results" mapstructure:"max_results"`
	MaxPages             int    `yaml:"max_pages" mapstructure:"max_pages"`
	TokenDelayMS         int    `yaml:"token_delay_ms" mapstructure:"token_delay_ms"`
	AutoReloadDebounceMS int    `yaml:"auto_reload_debounce_ms" mapstructure:"auto_reload_debounce_ms"`
}

// ClassifyConfig points at optional keyword tables overriding the built-ins.
type ClassifyConfig struct {
	KeywordsFile string `yaml:"keywords_file" mapstructure:"keywords_file"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// CacheConfig configures the Redis search cache. An empty address disables it.
type CacheConfig struct {
	RedisAddr     string `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisPassword string `yaml:"redis_password" mapstructure:"redis_password"`
	RedisDB       int    `yaml:"redis_db" mapstructure:"redis_db"`
	TTLSecs       int    `yaml:"ttl_secs" mapstructure:"ttl_secs"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ConfigError reports configuration that is missing or out of range. Fields
// holds one message per offending key.
type ConfigError struct {
	Fields []string
}

func (e *ConfigError) Error() string {
	return "config: " + strings.Join(e.Fields, "; ")
}

// Missing returns a ConfigError for a single required key.
func Missing(key string) *ConfigError {
	return &ConfigError{Fields: []string{key + " is required"}}
}

// IsConfigError reports whether err is or wraps a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// Validate checks the fields a command needs. Mode is one of "search",
// "store", "serve" or "classify".
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "classify":
	case "search":
		problems = append(problems, c.validateSearch()...)
	case "store":
		problems = append(problems, c.validateStore()...)
	case "serve":
		problems = append(problems, c.validateSearch()...)
		problems = append(problems, c.validateStore()...)
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return &ConfigError{Fields: problems}
	}
	return nil
}

func (c *Config) validateSearch() []string {
	var problems []string
	if c.Places.Key == "" {
		problems = append(problems, "places.key is required")
	}
	s := c.Search
	if s.MinRadiusM <= 0 || s.MaxRadiusM < s.MinRadiusM {
		problems = append(problems, fmt.Sprintf("search radius bounds invalid: min %d max %d", s.MinRadiusM, s.MaxRadiusM))
	}
	if s.MaxPages < 1 {
		problems = append(problems, "search.max_pages must be >= 1")
	}
	if s.MaxResults < 1 {
		problems = append(problems, "search.max_results must be >= 1")
	}
	return problems
}

func (c *Config) validateStore() []string {
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		return []string{fmt.Sprintf("store.driver must be sqlite or postgres, got %q", c.Store.Driver)}
	}
	if c.Store.DatabaseURL == "" {
		return []string{"store.database_url is required"}
	}
	return nil
}

// Load reads configuration from .env, config file and environment.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("IWASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("places.key", "IWASH_PLACES_KEY", "GOOGLE_MAPS_API_KEY", "EXPO_PUBLIC_GOOGLE_MAPS_API_KEY"); err != nil {
		return nil, eris.Wrap(err, "config: bind env")
	}

	// Defaults
	v.SetDefault("places.base_url", "https://maps.googleapis.com/maps/api/place")
	v.SetDefault("places.timeout_secs", 10)
	v.SetDefault("places.rate_limit", 10)
	v.SetDefault("places.retry_attempts", 1)
	v.SetDefault("places.retry_backoff_ms", 500)
	v.SetDefault("places.breaker_threshold", 5)
	v.SetDefault("places.breaker_reset_secs", 30)
	v.SetDefault("search.category", "car_wash")
	v.SetDefault("search.default_radius_m", 3000)
	v.SetDefault("search.min_radius_m", 500)
	v.SetDefault("search.max_radius_m", 5000)
	v.SetDefault("search.radius_step_m", 100)
	v.SetDefault("search.max_results", 60)
	v.SetDefault("search.max_pages", 5)
	v.SetDefault("search.token_delay_ms", 2000)
	v.SetDefault("search.auto_reload_debounce_ms", 600)
	v.SetDefault("classify.keywords_file", "")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "iwash.db")
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.ttl_secs", 300)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
