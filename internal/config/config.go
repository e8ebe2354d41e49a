package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Provider  ProviderConfig  `mapstructure:"provider"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Sources   SourcesConfig   `mapstructure:"sources"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type SourcesConfig struct {
	ArxivCategories []string      `mapstructure:"arxiv_categories"`
	ArxivTimeout    time.Duration `mapstructure:"arxiv_timeout"`
	// StaticFeed points at a local JSON file of articles, for development.
	StaticFeed string `mapstructure:"static_feed"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN builds the driver-specific connection string.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
	}
	return c.Path
}

type ProviderConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	Version           string        `mapstructure:"version"`
	Model             string        `mapstructure:"model"`
	MaxTokens         int           `mapstructure:"max_tokens"`
	MaxTopics         int           `mapstructure:"max_topics"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
}

type SchedulerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	IngestHour       int           `mapstructure:"ingest_hour"`
	IngestMinute     int           `mapstructure:"ingest_minute"`
	PollInterval     time.Duration `mapstructure:"poll_interval"`
	BatchLimit       int           `mapstructure:"batch_limit"`
	MaxJobAge        time.Duration `mapstructure:"max_job_age"`
	ManualRunTimeout time.Duration `mapstructure:"manual_run_timeout"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/paperscout.db")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("provider.base_url", "https://api.anthropic.com")
	v.SetDefault("provider.version", "2023-06-01")
	v.SetDefault("provider.model", "claude-3-5-haiku-20241022")
	v.SetDefault("provider.max_tokens", 200)
	v.SetDefault("provider.max_topics", 5)
	v.SetDefault("provider.timeout", 60*time.Second)
	v.SetDefault("provider.requests_per_second", 2.0)
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.ingest_hour", 6)
	v.SetDefault("scheduler.ingest_minute", 0)
	v.SetDefault("scheduler.poll_interval", 15*time.Minute)
	v.SetDefault("scheduler.batch_limit", 100)
	// Twice the provider's stated ~24h batch turnaround.
	v.SetDefault("scheduler.max_job_age", 48*time.Hour)
	v.SetDefault("scheduler.manual_run_timeout", 5*time.Minute)
	v.SetDefault("sources.arxiv_categories", []string{"cs.AI"})
	v.SetDefault("sources.arxiv_timeout", 30*time.Second)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.max_size_mb", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 14)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for sensitive data
	v.BindEnv("provider.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("provider.base_url", "ANTHROPIC_BASE_URL")
	v.BindEnv("provider.model", "ANTHROPIC_MODEL")
	v.BindEnv("database.password", "DATABASE_PASSWORD")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
