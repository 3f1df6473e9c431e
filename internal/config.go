package internal

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Environment   string              `mapstructure:"environment" validate:"omitempty,oneof=development staging production test"`
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Security      SecurityConfig      `mapstructure:"security" validate:"required"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Mail          MailConfig          `mapstructure:"mail"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	RateLimit     RateLimitConfig     `mapstructure:"rate_limit"`
	Worker        WorkerConfig        `mapstructure:"worker"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port" validate:"min=0,max=65535"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	TrustedProxies    string        `mapstructure:"trusted_proxies"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Source          string        `mapstructure:"source" validate:"required"`
}

type SecurityConfig struct {
	JWTSecret           string `mapstructure:"jwt_secret" validate:"required"`
	AccessTokenMinutes  int    `mapstructure:"access_token_minutes" validate:"min=1"`
	RefreshTokenMinutes int    `mapstructure:"refresh_token_minutes" validate:"min=1"`
	BCryptCost          int    `mapstructure:"bcrypt_cost" validate:"min=4,max=15"`
	EncryptionKey       string `mapstructure:"encryption_key" validate:"required,hexadecimal"`
	EnvelopeCookie      string `mapstructure:"envelope_cookie"`
	AccessCookie        string `mapstructure:"access_cookie"`
	RefreshCookie       string `mapstructure:"refresh_cookie"`
	SecureCookies       bool   `mapstructure:"secure_cookies"`
	LoginMaxAttempts    int    `mapstructure:"login_max_attempts" validate:"min=0"`
	LoginLockoutMinutes int    `mapstructure:"login_lockout_minutes" validate:"min=0"`
	ResetTokenMinutes   int    `mapstructure:"reset_token_minutes" validate:"min=1"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	URL      string `mapstructure:"url"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"min=0"`
}

type MailConfig struct {
	Provider       string `mapstructure:"provider" validate:"omitempty,oneof=log mailgun"`
	Sender         string `mapstructure:"sender"`
	MailgunDomain  string `mapstructure:"mailgun_domain" validate:"required_if=Provider mailgun"`
	MailgunAPIKey  string `mapstructure:"mailgun_api_key" validate:"required_if=Provider mailgun"`
	MailgunBaseURL string `mapstructure:"mailgun_base_url" validate:"omitempty,url"`
}

type ObservabilityConfig struct {
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required_if=Enabled true"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format     string `mapstructure:"format" validate:"required,oneof=json text"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"min=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"min=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"min=0"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"min=0"`
	Burst             int     `mapstructure:"burst" validate:"min=0"`
}

type WorkerConfig struct {
	PurgeSchedule string `mapstructure:"purge_schedule"`
}

// ApplyDefaults fills zero values with the service defaults.
func (c *Config) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadHeaderTimeout == 0 {
		c.Server.ReadHeaderTimeout = 5 * time.Second
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 30 * time.Second
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 30 * time.Minute
	}
	if c.Database.ConnMaxIdleTime == 0 {
		c.Database.ConnMaxIdleTime = 5 * time.Minute
	}
	if c.Security.AccessTokenMinutes == 0 {
		c.Security.AccessTokenMinutes = 10
	}
	if c.Security.RefreshTokenMinutes == 0 {
		c.Security.RefreshTokenMinutes = 10080
	}
	if c.Security.BCryptCost == 0 {
		c.Security.BCryptCost = 10
	}
	if c.Security.EnvelopeCookie == "" {
		c.Security.EnvelopeCookie = "remix"
	}
	if c.Security.AccessCookie == "" {
		c.Security.AccessCookie = "accessToken"
	}
	if c.Security.RefreshCookie == "" {
		c.Security.RefreshCookie = "refreshToken"
	}
	if c.Security.ResetTokenMinutes == 0 {
		c.Security.ResetTokenMinutes = 60
	}
	if c.Mail.Provider == "" {
		c.Mail.Provider = "log"
	}
	if c.Mail.MailgunBaseURL == "" {
		c.Mail.MailgunBaseURL = "https://api.mailgun.net/v3"
	}
	if c.Observability.Metrics.Path == "" {
		c.Observability.Metrics.Path = "/metrics"
	}
	if c.Observability.Logging.Level == "" {
		c.Observability.Logging.Level = "info"
	}
	if c.Observability.Logging.Format == "" {
		c.Observability.Logging.Format = "text"
	}
	if c.RateLimit.RequestsPerSecond == 0 {
		c.RateLimit.RequestsPerSecond = 5
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 10
	}
	if c.Worker.PurgeSchedule == "" {
		c.Worker.PurgeSchedule = "@every 15m"
	}
}

// LoadConfigFromEnv builds the configuration purely from environment variables.
func LoadConfigFromEnv() *Config {
	cfg := &Config{
		Environment: getEnv("APP_ENV", "production"),
		Server: ServerConfig{
			Port:           getEnvAsInt("PORT", 8080),
			BaseURL:        getEnv("BASE_URL", ""),
			AllowedOrigins: getEnv("ALLOWED_ORIGINS", "*"),
			TrustedProxies: getEnv("TRUSTED_PROXIES", ""),
		},
		Database: DatabaseConfig{
			Source:       getEnv("DATABASE_URL", ""),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		},
		Security: SecurityConfig{
			JWTSecret:           getEnv("JWT_SECRET", ""),
			AccessTokenMinutes:  getEnvAsInt("ACCESS_TOKEN_EXPIRE_MINUTES", 10),
			RefreshTokenMinutes: getEnvAsInt("REFRESH_TOKEN_EXPIRE_MINUTES", 10080),
			BCryptCost:          getEnvAsInt("BCRYPT_COST", 10),
			EncryptionKey:       getEnv("AES_SECRET_KEY", ""),
			SecureCookies:       getEnvAsBool("SECURE_COOKIES", true),
			LoginMaxAttempts:    getEnvAsInt("LOGIN_MAX_ATTEMPTS", 5),
			LoginLockoutMinutes: getEnvAsInt("LOGIN_LOCKOUT_MINUTES", 15),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			URL:      getEnv("REDIS_URL", ""),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Mail: MailConfig{
			Provider:      getEnv("MAIL_PROVIDER", "log"),
			Sender:        getEnv("MAIL_SENDER", ""),
			MailgunDomain: getEnv("MAILGUN_DOMAIN", ""),
			MailgunAPIKey: getEnv("MAILGUN_API_KEY", ""),
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: getEnvAsBool("METRICS_ENABLED", true),
				Path:    getEnv("METRICS_PATH", "/metrics"),
			},
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "json"),
				File:   getEnv("LOG_FILE", ""),
			},
		},
		RateLimit: RateLimitConfig{
			Enabled: getEnvAsBool("RATE_LIMIT_ENABLED", true),
		},
		Worker: WorkerConfig{
			PurgeSchedule: getEnv("PURGE_SCHEDULE", ""),
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultVal
}

// ----------------- VALIDATION -----------------

var configValidator = validator.New()

func (c *Config) Validate() error {
	var errs []string

	if err := configValidator.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = append(errs, fmt.Sprintf("%s failed on %q", fe.Namespace(), fe.Tag()))
			}
		} else {
			errs = append(errs, err.Error())
		}
	}

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if err := c.Redis.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("redis config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

// Origins returns the trimmed list of allowed CORS origins.
func (c *ServerConfig) Origins() []string {
	return splitList(c.AllowedOrigins)
}

// Proxies lists the addresses or CIDR ranges allowed to set X-Forwarded-For.
func (c *ServerConfig) Proxies() []string {
	return splitList(c.TrustedProxies)
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (c *DatabaseConfig) Validate() error {
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *SecurityConfig) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("jwt_secret must not be empty")
	}
	if _, err := c.EncryptionKeyBytes(); err != nil {
		return err
	}
	if c.RefreshTokenMinutes < c.AccessTokenMinutes {
		return errors.New("refresh_token_minutes must be >= access_token_minutes")
	}
	return nil
}

// EncryptionKeyBytes decodes the hex AES key and checks it is 16, 24 or 32 bytes long.
func (c *SecurityConfig) EncryptionKeyBytes() ([]byte, error) {
	key, err := hex.DecodeString(c.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption_key: %w", err)
	}
	switch len(key) {
	case 16, 24, 32:
		return key, nil
	default:
		return nil, fmt.Errorf("encryption_key must decode to 16, 24 or 32 bytes, got %d", len(key))
	}
}

func (c *SecurityConfig) AccessTTL() time.Duration {
	return time.Duration(c.AccessTokenMinutes) * time.Minute
}

func (c *SecurityConfig) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTokenMinutes) * time.Minute
}

func (c *SecurityConfig) ResetTTL() time.Duration {
	return time.Duration(c.ResetTokenMinutes) * time.Minute
}

func (c *SecurityConfig) LockoutWindow() time.Duration {
	return time.Duration(c.LoginLockoutMinutes) * time.Minute
}

func (c *RedisConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.URL == "" && c.Addr == "" {
		return errors.New("either url or addr is required when redis is enabled")
	}
	return nil
}
