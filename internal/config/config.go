package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Approval  ApprovalConfig  `mapstructure:"approval"`
	Email     EmailConfig     `mapstructure:"email"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	Mode          string        `mapstructure:"mode"` // gin mode: debug, release, test
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	PublicBaseURL string        `mapstructure:"public_base_url"`
	CORSOrigins   []string      `mapstructure:"cors_origins"`
}

// Addr returns host:port for http.Server
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // postgres or sqlite
	DSN             string        `mapstructure:"dsn"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// ConnectionString returns the configured DSN, or builds a postgres URL from the parts.
func (d DatabaseConfig) ConnectionString() string {
	if d.DSN != "" {
		return d.DSN
	}
	if d.Driver == "sqlite" {
		return d.Name
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

// AuthConfig holds session JWT verification settings
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// ApprovalConfig holds action-link settings
type ApprovalConfig struct {
	ActionTokenSecret string `mapstructure:"action_token_secret"`
	LinkPath          string `mapstructure:"link_path"`
}

// EmailConfig holds outbound email configuration
type EmailConfig struct {
	Provider     string `mapstructure:"provider"` // resend, log, noop, fail
	ResendAPIKey string `mapstructure:"resend_api_key"`
	FromAddress  string `mapstructure:"from_address"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// RateLimitConfig holds per-IP limits for public endpoints
type RateLimitConfig struct {
	PerMinute int `mapstructure:"per_minute"`
	Burst     int `mapstructure:"burst"`
}

// TelemetryConfig holds OpenTelemetry exporter settings
type TelemetryConfig struct {
	ServiceName  string `mapstructure:"service_name"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	Insecure     bool   `mapstructure:"insecure"`
}

// Load loads configuration from file and environment variables.
// An optional configs/.env style file is loaded first; a missing one is not an error.
func Load(configPath, envPath string) (*Config, error) {
	if envPath != "" {
		// missing .env is fine outside local development
		_ = godotenv.Load(envPath)
	}

	v := viper.New()
	setDefaults(v)
	bindEnvVars(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.public_base_url", "http://localhost:8080")
	v.SetDefault("server.cors_origins", []string{"http://localhost:5173", "http://127.0.0.1:5173"})

	// Database defaults
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "postgres")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.auto_migrate", true)

	// Approval defaults
	v.SetDefault("approval.link_path", "/approvals/resolve")

	// Email defaults
	v.SetDefault("email.provider", "log")
	v.SetDefault("email.from_address", "Staff Scheduling <noreply@staffsched.local>")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_minute", 30)
	v.SetDefault("ratelimit.burst", 10)

	// Telemetry defaults
	v.SetDefault("telemetry.service_name", "approvals-api")
	v.SetDefault("telemetry.insecure", true)
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) {
	// Sensitive credentials from environment
	_ = v.BindEnv("database.dsn", "DATABASE_DSN")
	_ = v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	_ = v.BindEnv("approval.action_token_secret", "ACTION_TOKEN_SECRET")
	_ = v.BindEnv("email.resend_api_key", "RESEND_API_KEY")
	_ = v.BindEnv("telemetry.otlp_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
	_ = v.BindEnv("server.mode", "GIN_MODE")
	_ = v.BindEnv("server.port", "PORT")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Mode == "release" {
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("auth.jwt_secret is required in release mode")
		}
		if c.Approval.ActionTokenSecret == "" {
			return fmt.Errorf("approval.action_token_secret is required in release mode")
		}
	}

	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}

	switch c.Email.Provider {
	case "resend":
		if c.Email.ResendAPIKey == "" {
			return fmt.Errorf("email.resend_api_key is required for the resend provider")
		}
	case "log", "noop", "fail":
	default:
		return fmt.Errorf("email.provider must be one of resend, log, noop, fail, got %q", c.Email.Provider)
	}

	if !strings.HasPrefix(c.Approval.LinkPath, "/") {
		return fmt.Errorf("approval.link_path must start with /")
	}

	return nil
}

// JWTSecret returns the session secret, with a development fallback outside release mode.
func (c *Config) JWTSecret() []byte {
	if c.Auth.JWTSecret == "" {
		return []byte("default_super_secret_key")
	}
	return []byte(c.Auth.JWTSecret)
}

// ActionTokenSecret returns the link-signing secret, with a development fallback outside release mode.
func (c *Config) ActionTokenSecret() string {
	if c.Approval.ActionTokenSecret == "" {
		return "default_action_token_secret"
	}
	return c.Approval.ActionTokenSecret
}
