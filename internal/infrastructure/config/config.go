package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Log        LogConfig
	HTTP       HTTPConfig
	Poller     PollerConfig
	Storefront StorefrontConfig
	MLService  MLServiceConfig
	Facebook   FacebookConfig
	Storage    StorageConfig
	Swagger    SwaggerConfig
	Telemetry  TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds JWT settings
type JWTConfig struct {
	Secret string
	Issuer string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxBodyBytes     int64
	RateLimit        int
	RateLimitWindow  time.Duration
	CORSAllowOrigins []string
	TrustedProxies   []string
}

// PollerConfig holds campaign publish poller configuration
type PollerConfig struct {
	Enabled bool
	// Interval is the fixed tick interval for publishing due campaigns
	Interval time.Duration
	// MaxPublishRetries bounds publish attempts before a campaign is
	// forced back to draft
	MaxPublishRetries int
	// TickTimeout bounds the work done in one poller tick
	TickTimeout time.Duration
}

// StorefrontConfig holds remote storefront client settings
type StorefrontConfig struct {
	ShopeeBaseURL string
	LazadaBaseURL string
	Timeout       time.Duration
	RetryCount    int
}

// MLServiceConfig holds the external restock strategy service settings
type MLServiceConfig struct {
	BaseURL string
	Timeout time.Duration
	// CacheTTL is how long computed restock strategies are cached
	CacheTTL time.Duration
}

// FacebookConfig holds Meta Graph API settings
type FacebookConfig struct {
	GraphURL    string
	PageID      string
	AccessToken string
	Timeout     time.Duration
	// NativeScheduleHorizon is the minimum lead time required before the
	// platform's native scheduling API is attempted
	NativeScheduleHorizon time.Duration
}

// StorageConfig holds S3-compatible object storage settings for ad images
type StorageConfig struct {
	Enabled         bool
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
	UsePathStyle    bool
}

// SwaggerConfig holds Swagger documentation endpoint configuration
type SwaggerConfig struct {
	Enabled bool
}

// TelemetryConfig holds OpenTelemetry tracing configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
	DBTraceEnabled    bool
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with BVA_ prefix (e.g., BVA_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("BVA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("jwt.secret"),
			Issuer: v.GetString("jwt.issuer"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodyBytes:     v.GetInt64("http.max_body_bytes"),
			RateLimit:        v.GetInt("http.rate_limit"),
			RateLimitWindow:  v.GetDuration("http.rate_limit_window"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		Poller: PollerConfig{
			Enabled:           v.GetBool("poller.enabled"),
			Interval:          v.GetDuration("poller.interval"),
			MaxPublishRetries: v.GetInt("poller.max_publish_retries"),
			TickTimeout:       v.GetDuration("poller.tick_timeout"),
		},
		Storefront: StorefrontConfig{
			ShopeeBaseURL: v.GetString("storefront.shopee_base_url"),
			LazadaBaseURL: v.GetString("storefront.lazada_base_url"),
			Timeout:       v.GetDuration("storefront.timeout"),
			RetryCount:    v.GetInt("storefront.retry_count"),
		},
		MLService: MLServiceConfig{
			BaseURL:  v.GetString("ml_service.base_url"),
			Timeout:  v.GetDuration("ml_service.timeout"),
			CacheTTL: v.GetDuration("ml_service.cache_ttl"),
		},
		Facebook: FacebookConfig{
			GraphURL:              v.GetString("facebook.graph_url"),
			PageID:                v.GetString("facebook.page_id"),
			AccessToken:           v.GetString("facebook.access_token"),
			Timeout:               v.GetDuration("facebook.timeout"),
			NativeScheduleHorizon: v.GetDuration("facebook.native_schedule_horizon"),
		},
		Storage: StorageConfig{
			Enabled:         v.GetBool("storage.enabled"),
			Endpoint:        v.GetString("storage.endpoint"),
			Region:          v.GetString("storage.region"),
			Bucket:          v.GetString("storage.bucket"),
			AccessKeyID:     v.GetString("storage.access_key_id"),
			SecretAccessKey: v.GetString("storage.secret_access_key"),
			PublicBaseURL:   v.GetString("storage.public_base_url"),
			UsePathStyle:    v.GetBool("storage.use_path_style"),
		},
		Swagger: SwaggerConfig{
			Enabled: v.GetBool("swagger.enabled"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "bva-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "bva"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		if cfg.App.Env == "production" {
			cfg.Log.Format = "json"
		} else {
			cfg.Log.Format = "console"
		}
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20
	}
	if cfg.HTTP.MaxBodyBytes == 0 {
		cfg.HTTP.MaxBodyBytes = 4 << 20
	}
	if cfg.HTTP.RateLimit == 0 {
		cfg.HTTP.RateLimit = 120
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	if cfg.Poller.Interval == 0 {
		cfg.Poller.Interval = 30 * time.Second
	}
	if cfg.Poller.MaxPublishRetries == 0 {
		cfg.Poller.MaxPublishRetries = 3
	}
	if cfg.Poller.TickTimeout == 0 {
		cfg.Poller.TickTimeout = 25 * time.Second
	}
	if cfg.Storefront.ShopeeBaseURL == "" {
		cfg.Storefront.ShopeeBaseURL = "http://localhost:3001"
	}
	if cfg.Storefront.LazadaBaseURL == "" {
		cfg.Storefront.LazadaBaseURL = "http://localhost:3002"
	}
	if cfg.Storefront.Timeout == 0 {
		cfg.Storefront.Timeout = 10 * time.Second
	}
	if cfg.MLService.BaseURL == "" {
		cfg.MLService.BaseURL = "http://localhost:8000"
	}
	if cfg.MLService.Timeout == 0 {
		cfg.MLService.Timeout = 30 * time.Second
	}
	if cfg.MLService.CacheTTL == 0 {
		cfg.MLService.CacheTTL = 5 * time.Minute
	}
	if cfg.Facebook.GraphURL == "" {
		cfg.Facebook.GraphURL = "https://graph.facebook.com/v18.0"
	}
	if cfg.Facebook.Timeout == 0 {
		cfg.Facebook.Timeout = 15 * time.Second
	}
	if cfg.Facebook.NativeScheduleHorizon == 0 {
		cfg.Facebook.NativeScheduleHorizon = 10 * time.Minute
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.Bucket == "" {
		cfg.Storage.Bucket = "bva-ad-images"
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
}

// validate checks the configuration for invalid combinations
func (c *Config) validate() error {
	if c.App.Env == "production" && c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required in production")
	}
	if c.Poller.Interval < time.Second {
		return fmt.Errorf("poller.interval must be at least 1s")
	}
	if c.Poller.MaxPublishRetries < 1 {
		return fmt.Errorf("poller.max_publish_retries must be positive")
	}
	if c.Telemetry.SamplingRatio < 0 || c.Telemetry.SamplingRatio > 1 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0")
	}
	if c.Storage.Enabled && c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required when storage is enabled")
	}
	return nil
}

// BaseURLFor returns the configured storefront base URL for a platform
// code string; empty for unknown platforms.
func (s *StorefrontConfig) BaseURLFor(platform string) string {
	switch platform {
	case "SHOPEE":
		return s.ShopeeBaseURL
	case "LAZADA":
		return s.LazadaBaseURL
	default:
		return ""
	}
}

// DSN returns the PostgreSQL connection string
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}
