package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/irfndi/kpi-projection/internal/models"
)

// History sources.
const (
	HistorySourceFile     = "file"
	HistorySourcePostgres = "postgres"
)

type Config struct {
	Environment   string               `mapstructure:"environment"`
	LogLevel      string               `mapstructure:"log_level"`
	Server        ServerConfig         `mapstructure:"server"`
	Database      DatabaseConfig       `mapstructure:"database"`
	Redis         RedisConfig          `mapstructure:"redis"`
	History       HistoryConfig        `mapstructure:"history"`
	Cache         CacheConfig          `mapstructure:"cache"`
	Telemetry     TelemetryConfig      `mapstructure:"telemetry"`
	Admin         AdminConfig          `mapstructure:"admin"`
	BasicSettings models.BasicSettings `mapstructure:"basic_settings"`
	Adjustments   models.Adjustments   `mapstructure:"adjustments"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	DatabaseURL     string `mapstructure:"database_url"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime string `mapstructure:"conn_max_idle_time"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// HistoryConfig selects where reference game series are read from.
type HistoryConfig struct {
	Source   string `mapstructure:"source"`
	DataPath string `mapstructure:"data_path"`
}

type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	TTL     string `mapstructure:"ttl"`
}

// TelemetryConfig configures trace and log export. Exporter is "otlp" or
// "stdout".
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	ServiceName    string `mapstructure:"service_name"`
	ServiceVersion string `mapstructure:"service_version"`
	Exporter       string `mapstructure:"exporter"`
}

type AdminConfig struct {
	APIKey string `mapstructure:"api_key" json:"-" yaml:"-"`
}

// CacheTTL returns the parsed cache TTL. Load validates it, so a parse
// failure here only happens for hand-built configs and yields the default.
func (c CacheConfig) CacheTTL() time.Duration {
	d, err := time.ParseDuration(c.TTL)
	if err != nil || d <= 0 {
		return 10 * time.Minute
	}
	return d
}

// EngineSettings returns the cost settings and scenario adjustments the
// projection engine runs with.
func (c *Config) EngineSettings() models.EngineSettings {
	return models.EngineSettings{Basic: c.BasicSettings, Adjustments: c.Adjustments}
}

func Load() (*Config, error) {
	// A missing .env is fine; real environments set variables directly.
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	// Set default values
	setDefaults()

	// Enable environment variable support
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.BindEnv("admin.api_key", "ADMIN_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind ADMIN_API_KEY environment variable: %w", err)
	}

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Environment = strings.ToLower(config.Environment)
	config.History.Source = strings.ToLower(config.History.Source)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the values Load cannot coerce.
func (c *Config) Validate() error {
	if c.Environment != "development" && c.Environment != "test" && c.Admin.APIKey == "" {
		return errors.New("ADMIN_API_KEY environment variable is required in non-development environments")
	}

	switch c.History.Source {
	case HistorySourceFile, HistorySourcePostgres:
	default:
		return fmt.Errorf("unknown history source %q", c.History.Source)
	}

	if c.Cache.TTL != "" {
		d, err := time.ParseDuration(c.Cache.TTL)
		if err != nil {
			return fmt.Errorf("invalid cache ttl: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("cache ttl must be positive, got %s", d)
		}
	}

	switch strings.ToLower(c.Telemetry.Exporter) {
	case "", "otlp", "stdout":
	default:
		return fmt.Errorf("unknown telemetry exporter %q", c.Telemetry.Exporter)
	}

	if c.BasicSettings.HRCostMonthly < 0 {
		return fmt.Errorf("basic_settings.hr_cost_monthly must not be negative, got %v", c.BasicSettings.HRCostMonthly)
	}
	return nil
}

func setDefaults() {
	defaults := models.DefaultEngineSettings()

	// Environment
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Set database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.dbname", "kpi_projection")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.database_url", "")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", "300s")
	viper.SetDefault("database.conn_max_idle_time", "60s")

	// Redis
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// History
	viper.SetDefault("history.source", HistorySourceFile)
	viper.SetDefault("history.data_path", "data/raw_game_data.json")

	// Cache
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.ttl", "10m")

	// Telemetry
	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.otlp_endpoint", "http://localhost:4318")
	viper.SetDefault("telemetry.service_name", "kpi-projection")
	viper.SetDefault("telemetry.service_version", models.EngineVersion)
	viper.SetDefault("telemetry.exporter", "otlp")

	// Admin
	viper.SetDefault("admin.api_key", "")

	// Projection cost settings
	viper.SetDefault("basic_settings.hr_cost_monthly", defaults.Basic.HRCostMonthly)
	viper.SetDefault("basic_settings.server_cost_ratio", defaults.Basic.ServerCostRatio)
	viper.SetDefault("basic_settings.market_fee_ratio", defaults.Basic.MarketFeeRatio)
	viper.SetDefault("basic_settings.vat_ratio", defaults.Basic.VATRatio)
	viper.SetDefault("basic_settings.infrastructure_cost_ratio", defaults.Basic.InfrastructureCostRatio)
	viper.SetDefault("adjustments.best_vs_normal", defaults.Adjustments.BestVsNormal)
	viper.SetDefault("adjustments.worst_vs_normal", defaults.Adjustments.WorstVsNormal)
}
