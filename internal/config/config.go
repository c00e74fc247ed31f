package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type AppConfig struct {
	API       *APIConfig       `mapstructure:"api"`
	Gin       *GinConfig       `mapstructure:"gin"`
	Postgres  *PostgresConfig  `mapstructure:"postgres"`
	Lifecycle *LifecycleConfig `mapstructure:"lifecycle"`
	RabbitMQ  *RabbitMQConfig  `mapstructure:"rabbitmq"`
}

type APIConfig struct {
	Environment        string   `mapstructure:"environment"`
	LogLevel           string   `mapstructure:"log_level"`
	Port               string   `mapstructure:"port"`
	BaseURL            string   `mapstructure:"base_url"`
	AllowedCORSDomains []string `mapstructure:"allowed_cors_domains"`
	JWTSigningKey      string   `mapstructure:"jwt_signing_key"`
}

type GinConfig struct {
	Mode string `mapstructure:"mode"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DB       string `mapstructure:"db"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

type LifecycleConfig struct {
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	CleanupAfter  time.Duration `mapstructure:"cleanup_after"`
	CodeAttempts  int           `mapstructure:"code_attempts"`
}

type RabbitMQConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	URL              string `mapstructure:"url"`
	Exchange         string `mapstructure:"exchange"`
	SweepQueue       string `mapstructure:"sweep_queue"`
	SweepRoutingKey  string `mapstructure:"sweep_routing_key"`
	NotifyRoutingKey string `mapstructure:"notify_routing_key"`
}

func (c *PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DB, c.SSLMode,
	)
}

func (c *AppConfig) Validate() error {
	return validation.Errors{
		"api.port":                validation.Validate(c.API.Port, validation.Required),
		"api.jwt_signing_key":     validation.Validate(c.API.JWTSigningKey, validation.Required),
		"lifecycle.code_attempts": validation.Validate(c.Lifecycle.CodeAttempts, validation.Required, validation.Min(1)),
		"lifecycle.cleanup_after": validation.Validate(c.Lifecycle.CleanupAfter, validation.Required),
		"rabbitmq.url":            validation.Validate(c.RabbitMQ.URL, validation.When(c.RabbitMQ.Enabled, validation.Required)),
	}.Filter()
}

// Load reads the YAML file at path. Every key can be overridden through the
// environment, e.g. POSTGRES_HOST or API_JWT_SIGNING_KEY.
func Load(path string) (*AppConfig, error) {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("v.ReadInConfig -> %w", err)
	}

	return decode(v)
}

// Watch calls onChange with the reloaded config every time the file at path
// is written. Invalid revisions are logged and skipped.
func Watch(path string, onChange func(*AppConfig)) error {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("v.ReadInConfig -> %w", err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		conf, err := decode(v)
		if err != nil {
			zap.L().Warn("ignoring invalid config change", zap.String("file", e.Name), zap.Error(err))
			return
		}
		zap.L().Info("config reloaded", zap.String("file", e.Name))
		onChange(conf)
	})
	v.WatchConfig()

	return nil
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("api.environment", "development")
	v.SetDefault("api.log_level", "info")
	v.SetDefault("api.port", "8080")
	v.SetDefault("gin.mode", "release")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("lifecycle.sweep_interval", 5*time.Minute)
	v.SetDefault("lifecycle.cleanup_after", 24*time.Hour)
	v.SetDefault("lifecycle.code_attempts", 10)
	v.SetDefault("rabbitmq.enabled", false)
	v.SetDefault("rabbitmq.exchange", "attendance")
	v.SetDefault("rabbitmq.sweep_queue", "lifecycle.sweep")
	v.SetDefault("rabbitmq.sweep_routing_key", "lifecycle.sweep")
	v.SetDefault("rabbitmq.notify_routing_key", "notifications")

	return v
}

func decode(v *viper.Viper) (*AppConfig, error) {
	conf := &AppConfig{}
	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("v.Unmarshal -> %w", err)
	}
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config -> %w", err)
	}

	return conf, nil
}
