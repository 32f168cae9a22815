package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"football-data-cache/internal/store"
)

// Config is the top-level application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Store     store.Config    `mapstructure:"store"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Database  DatabaseConfig  `mapstructure:"database"`
}

// ServerConfig configures the HTTP server
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	RateLimit    float64       `mapstructure:"rate_limit"` // requests per second per client
	RateBurst    int           `mapstructure:"rate_burst"`
}

// LoggerConfig configures the logger
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// ProvidersConfig carries credentials and tuning for the upstream APIs.
// A provider without an API key is treated as not configured and skipped.
type ProvidersConfig struct {
	APIFootball  ProviderConfig `mapstructure:"api_football"`
	FootballData ProviderConfig `mapstructure:"football_data"`
	Season       int            `mapstructure:"season"`
	MainLeagues  []int          `mapstructure:"main_leagues"`
}

// ProviderConfig is one upstream API's credentials
type ProviderConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// SchedulerConfig configures the twice-daily refresh schedule
type SchedulerConfig struct {
	Times         []string      `mapstructure:"times"`
	CheckInterval time.Duration `mapstructure:"check_interval"`
	AutoStart     bool          `mapstructure:"auto_start"`
}

// DatabaseConfig points at the optional analysis database. An empty DSN
// disables game-analysis persistence.
type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

// LoadConfig loads configuration from config files and environment variables
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/football-data-cache")

	viper.AutomaticEnv()
	viper.SetEnvPrefix("FDC")

	viper.BindEnv("store.backend", "FDC_STORE_BACKEND")
	viper.BindEnv("store.path", "FDC_STORE_PATH")
	viper.BindEnv("store.redis.addresses", "FDC_STORE_REDIS_ADDRESSES")
	viper.BindEnv("store.redis.password", "FDC_STORE_REDIS_PASSWORD")
	viper.BindEnv("store.redis.database", "FDC_STORE_REDIS_DATABASE")
	viper.BindEnv("providers.api_football.api_key", "FDC_APIFOOTBALL_KEY")
	viper.BindEnv("providers.api_football.base_url", "FDC_APIFOOTBALL_BASE_URL")
	viper.BindEnv("providers.football_data.api_key", "FDC_FOOTBALLDATA_KEY")
	viper.BindEnv("providers.football_data.base_url", "FDC_FOOTBALLDATA_BASE_URL")
	viper.BindEnv("database.dsn", "FDC_DATABASE_DSN")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file, run on defaults and environment
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// Env vars deliver slices as comma-separated strings
	if addressesStr := viper.GetString("store.redis.addresses"); addressesStr != "" && !strings.HasPrefix(addressesStr, "[") {
		addresses := strings.Split(addressesStr, ",")
		for i, addr := range addresses {
			addresses[i] = strings.TrimSpace(addr)
		}
		config.Store.Redis.Addresses = addresses
	}

	return &config, nil
}

func setDefaults() {
	defaults := store.DefaultConfig()

	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")
	viper.SetDefault("server.rate_limit", 50.0)
	viper.SetDefault("server.rate_burst", 100)

	// Store defaults
	viper.SetDefault("store.backend", defaults.Backend)
	viper.SetDefault("store.path", defaults.Path)
	viper.SetDefault("store.ttl", defaults.TTL.String())
	viper.SetDefault("store.retention", defaults.Retention.String())
	viper.SetDefault("store.redis.addresses", defaults.Redis.Addresses)
	viper.SetDefault("store.redis.password", "")
	viper.SetDefault("store.redis.database", 0)
	viper.SetDefault("store.redis.max_retries", defaults.Redis.MaxRetries)
	viper.SetDefault("store.redis.pool_size", defaults.Redis.PoolSize)
	viper.SetDefault("store.redis.dial_timeout", defaults.Redis.DialTimeout.String())
	viper.SetDefault("store.redis.read_timeout", defaults.Redis.ReadTimeout.String())
	viper.SetDefault("store.redis.write_timeout", defaults.Redis.WriteTimeout.String())

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "json")
	viper.SetDefault("logger.output_path", "stdout")

	// Provider defaults; keys come from the environment
	viper.SetDefault("providers.season", 2025)
	viper.SetDefault("providers.main_leagues", []int{39, 140, 135, 78, 61})
	viper.SetDefault("providers.api_football.base_url", "")
	viper.SetDefault("providers.football_data.base_url", "")

	// Scheduler defaults
	viper.SetDefault("scheduler.times", []string{"00:00", "12:00"})
	viper.SetDefault("scheduler.check_interval", "60s")
	viper.SetDefault("scheduler.auto_start", true)

	// Analysis database off unless pointed at one
	viper.SetDefault("database.dsn", "")
}

// GetAddress returns the full server listen address
func (sc *ServerConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", sc.Host, sc.Port)
}
