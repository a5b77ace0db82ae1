package config

import (
	"errors"
	"fmt"
	"os"

	"campusbook/internal/models"

	"gopkg.in/yaml.v3"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Booking    BookingConfig    `yaml:"booking"`
	Notify     NotifyConfig     `yaml:"notify"`
	Reference  ReferenceConfig  `yaml:"reference"`
	Exports    ExportConfig     `yaml:"exports"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool   `yaml:"prometheus_enabled"`
	PrometheusPort    int    `yaml:"prometheus_port"`
	LogLevel          string `yaml:"log_level"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	Port      int                `yaml:"port"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key  string `yaml:"key"`
	Name string `yaml:"name"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// BookingConfig ограничивает окно планирования и задаёт период
// фонового перевода статусов по времени.
type BookingConfig struct {
	MaxAdvanceDays       int `yaml:"max_advance_days"`
	SweepIntervalSeconds int `yaml:"sweep_interval_seconds"`
}

type NotifyConfig struct {
	WebhookURL          string `yaml:"webhook_url"`
	TimeoutSeconds      int    `yaml:"timeout_seconds"`
	PollIntervalSeconds int    `yaml:"poll_interval_seconds"`
	BatchSize           int    `yaml:"batch_size"`
	MaxRetries          int    `yaml:"max_retries"`
	BaseDelaySeconds    int    `yaml:"base_delay_seconds"`
	MaxDelaySeconds     int    `yaml:"max_delay_seconds"`
}

type ReferenceConfig struct {
	Path            string `yaml:"path"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// Загружаем .env файл если существует
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if c.Reference.Path == "" {
		return errors.New("reference data path is required")
	}

	if c.API.Auth.Enabled && len(c.API.Auth.APIKeys) == 0 {
		return errors.New("api auth enabled but no api keys configured")
	}

	if c.Booking.MaxAdvanceDays < 0 {
		return fmt.Errorf("booking.max_advance_days must be non-negative, got %d", c.Booking.MaxAdvanceDays)
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.RateLimit.RPS == 0 {
		c.API.RateLimit.RPS = 20
	}
	if c.API.RateLimit.Burst == 0 {
		c.API.RateLimit.Burst = 40
	}

	if c.Booking.MaxAdvanceDays == 0 {
		c.Booking.MaxAdvanceDays = 90
	}
	if c.Booking.SweepIntervalSeconds == 0 {
		c.Booking.SweepIntervalSeconds = models.DefaultSweepInterval
	}

	if c.Notify.TimeoutSeconds == 0 {
		c.Notify.TimeoutSeconds = 10
	}
	if c.Notify.PollIntervalSeconds == 0 {
		c.Notify.PollIntervalSeconds = 2
	}
	if c.Notify.BatchSize == 0 {
		c.Notify.BatchSize = 20
	}
	if c.Notify.MaxRetries == 0 {
		c.Notify.MaxRetries = 5
	}
	if c.Notify.BaseDelaySeconds == 0 {
		c.Notify.BaseDelaySeconds = 2
	}
	if c.Notify.MaxDelaySeconds == 0 {
		c.Notify.MaxDelaySeconds = 300
	}

	if c.Reference.CacheTTLSeconds == 0 {
		c.Reference.CacheTTLSeconds = models.ReferenceCacheTTL
	}
}
