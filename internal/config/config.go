package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	NATS      NATSConfig      `mapstructure:"nats"`
	OAuth     OAuthConfig     `mapstructure:"oauth"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Feed      FeedConfig      `mapstructure:"feed"`
	Realtime  RealtimeConfig  `mapstructure:"realtime"`
	Gateway   GatewayConfig   `mapstructure:"gateway"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Coaching  CoachingConfig  `mapstructure:"coaching"`
}

type AppConfig struct {
	Name       string `mapstructure:"name"`
	Port       int    `mapstructure:"port"`
	HealthPort int    `mapstructure:"health_port"`
	Mode       string `mapstructure:"mode"`
	LogLevel   string `mapstructure:"log_level"`
	NodeID     int64  `mapstructure:"node_id"`
}

type JWTConfig struct {
	SecretKey     string        `mapstructure:"secret_key"`
	AccessExpire  time.Duration `mapstructure:"access_expire"`
	RefreshExpire time.Duration `mapstructure:"refresh_expire"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the pgx connection string.
func (c DatabaseConfig) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, sslMode)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// Addr returns host:port.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type NATSConfig struct {
	URL           string        `mapstructure:"url"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
	SubjectPrefix string        `mapstructure:"subject_prefix"`
}

type OAuthConfig struct {
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	RedirectURL  string        `mapstructure:"redirect_url"`
	StateTTL     time.Duration `mapstructure:"state_ttl"`
}

// StorageConfig points at an S3-compatible bucket. An empty bucket leaves
// uploads unconfigured.
type StorageConfig struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	Prefix          string `mapstructure:"prefix"`
	PublicBaseURL   string `mapstructure:"public_base_url"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
	MaxImageBytes   int64  `mapstructure:"max_image_bytes"`
}

type FeedConfig struct {
	RecentLimit int `mapstructure:"recent_limit"`
}

type RealtimeConfig struct {
	Workers   int `mapstructure:"workers"`
	QueueSize int `mapstructure:"queue_size"`
}

type GatewayConfig struct {
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	HeartbeatTimeout  time.Duration `mapstructure:"heartbeat_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	SendBuffer        int           `mapstructure:"send_buffer"`
	MaxMessageBytes   int64         `mapstructure:"max_message_bytes"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
	Burst             int  `mapstructure:"burst"`
}

type CoachingConfig struct {
	CatalogPath string `mapstructure:"catalog_path"`
}

// Load reads the YAML file at path, then applies environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "athletecho")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.health_port", 8081)
	v.SetDefault("app.mode", "release")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.node_id", 1)
	v.SetDefault("jwt.access_expire", 2*time.Hour)
	v.SetDefault("jwt.refresh_expire", 7*24*time.Hour)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.pool_size", 20)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.max_reconnects", -1)
	v.SetDefault("nats.reconnect_wait", 2*time.Second)
	v.SetDefault("nats.subject_prefix", "athletecho.change")
	v.SetDefault("oauth.state_ttl", 10*time.Minute)
	v.SetDefault("storage.prefix", "uploads")
	v.SetDefault("storage.max_image_bytes", 10<<20)
	v.SetDefault("feed.recent_limit", 30)
	v.SetDefault("realtime.workers", 8)
	v.SetDefault("realtime.queue_size", 1024)
	v.SetDefault("gateway.heartbeat_interval", 30*time.Second)
	v.SetDefault("gateway.heartbeat_timeout", 90*time.Second)
	v.SetDefault("gateway.write_timeout", 10*time.Second)
	v.SetDefault("gateway.send_buffer", 64)
	v.SetDefault("gateway.max_message_bytes", 64<<10)
	v.SetDefault("rate_limit.requests_per_minute", 120)
	v.SetDefault("rate_limit.burst", 20)
	v.SetDefault("coaching.catalog_path", "configs/coaching.yaml")
}

// applyEnv overrides file values with environment variables.
func (c *Config) applyEnv() {
	// App
	c.App.Port = GetEnvInt("ATHLETECHO_PORT", c.App.Port)
	c.App.Mode = GetEnv("GIN_MODE", c.App.Mode)
	c.App.LogLevel = GetEnv("LOG_LEVEL", c.App.LogLevel)
	c.App.NodeID = int64(GetEnvInt("ATHLETECHO_NODE_ID", int(c.App.NodeID)))

	// JWT
	c.JWT.SecretKey = GetEnv("JWT_SECRET", c.JWT.SecretKey)
	c.JWT.AccessExpire = GetEnvDuration("JWT_ACCESS_EXPIRE", c.JWT.AccessExpire)
	c.JWT.RefreshExpire = GetEnvDuration("JWT_REFRESH_EXPIRE", c.JWT.RefreshExpire)

	// Database
	c.Database.Host = GetEnv("POSTGRES_HOST", c.Database.Host)
	c.Database.Port = GetEnvInt("POSTGRES_PORT", c.Database.Port)
	c.Database.User = GetEnv("POSTGRES_USER", c.Database.User)
	c.Database.Password = GetEnv("POSTGRES_PASSWORD", c.Database.Password)
	c.Database.Name = GetEnv("POSTGRES_DB", c.Database.Name)
	c.Database.MaxOpenConns = GetEnvInt("POSTGRES_MAX_OPEN_CONNS", c.Database.MaxOpenConns)

	// Redis
	c.Redis.Host = GetEnv("REDIS_HOST", c.Redis.Host)
	c.Redis.Port = GetEnvInt("REDIS_PORT", c.Redis.Port)
	c.Redis.Password = GetEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = GetEnvInt("REDIS_DB", c.Redis.DB)

	// NATS
	c.NATS.URL = GetEnv("NATS_URL", c.NATS.URL)

	// OAuth
	c.OAuth.ClientID = GetEnv("GOOGLE_CLIENT_ID", c.OAuth.ClientID)
	c.OAuth.ClientSecret = GetEnv("GOOGLE_CLIENT_SECRET", c.OAuth.ClientSecret)
	c.OAuth.RedirectURL = GetEnv("GOOGLE_REDIRECT_URL", c.OAuth.RedirectURL)

	// Storage
	c.Storage.Bucket = GetEnv("STORAGE_BUCKET", c.Storage.Bucket)
	c.Storage.Region = GetEnv("STORAGE_REGION", c.Storage.Region)
	c.Storage.Endpoint = GetEnv("STORAGE_ENDPOINT", c.Storage.Endpoint)
	c.Storage.PublicBaseURL = GetEnv("STORAGE_PUBLIC_BASE_URL", c.Storage.PublicBaseURL)
	c.Storage.AccessKeyID = GetEnv("STORAGE_ACCESS_KEY_ID", c.Storage.AccessKeyID)
	c.Storage.SecretAccessKey = GetEnv("STORAGE_SECRET_ACCESS_KEY", c.Storage.SecretAccessKey)
}

func (c *Config) validate() error {
	if c.JWT.SecretKey == "" {
		return fmt.Errorf("config: jwt.secret_key is required")
	}
	if c.Feed.RecentLimit <= 0 {
		return fmt.Errorf("config: feed.recent_limit must be positive, got %d", c.Feed.RecentLimit)
	}
	if c.Realtime.Workers <= 0 || c.Realtime.QueueSize <= 0 {
		return fmt.Errorf("config: realtime.workers and realtime.queue_size must be positive")
	}
	return nil
}
