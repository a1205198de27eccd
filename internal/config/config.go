package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	ErrMissingJWTSecret = errors.New("JWT_SECRET is required outside development")
	ErrInvalidTokenTTL  = errors.New("ACCESS_TOKEN_EXPIRE and REFRESH_TOKEN_EXPIRE must be positive")
)

// Config holds environment-based settings
type Config struct {
	Environment   string `mapstructure:"APP_ENV"`
	ServerAddress string `mapstructure:"SERVER_ADDRESS"`
	LogLevel      string `mapstructure:"LOG_LEVEL"`

	DatabaseURL    string `mapstructure:"DATABASE_URL"`
	MigrationsPath string `mapstructure:"MIGRATIONS_PATH"`

	JWTSecret          string `mapstructure:"JWT_SECRET"`
	JWTRefreshSecret   string `mapstructure:"JWT_REFRESH_SECRET"`
	JWTIssuer          string `mapstructure:"JWT_ISSUER"`
	AccessTokenMinutes int    `mapstructure:"ACCESS_TOKEN_EXPIRE"`
	RefreshTokenDays   int    `mapstructure:"REFRESH_TOKEN_EXPIRE"`
	AuthRatePerMinute  int    `mapstructure:"AUTH_RATE_PER_MIN"`

	RedisAddress  string `mapstructure:"REDIS_ADDRESS"`
	RedisUsername string `mapstructure:"REDIS_USERNAME"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	MQTTBrokerURL string `mapstructure:"MQTT_BROKER_URL"`

	UploadDir       string `mapstructure:"UPLOAD_DIR"`
	UseSpaces       bool   `mapstructure:"USE_SPACES"`
	SpacesEndpoint  string `mapstructure:"SPACES_ENDPOINT"`
	SpacesRegion    string `mapstructure:"SPACES_REGION"`
	SpacesBucket    string `mapstructure:"SPACES_BUCKET"`
	SpacesCDNURL    string `mapstructure:"SPACES_CDN_URL"`
	SpacesAccessKey string `mapstructure:"SPACES_ACCESS_KEY"`
	SpacesSecretKey string `mapstructure:"SPACES_SECRET_KEY"`
}

// development-only signing key, rejected by Load in any other environment
const devJWTSecret = "dev-only-insecure-secret"

var defaults = map[string]any{
	"APP_ENV":              "development",
	"SERVER_ADDRESS":       ":8080",
	"LOG_LEVEL":            "info",
	"DATABASE_URL":         "",
	"MIGRATIONS_PATH":      "./migrations",
	"JWT_SECRET":           "",
	"JWT_REFRESH_SECRET":   "",
	"JWT_ISSUER":           "bus-tracking-api",
	"ACCESS_TOKEN_EXPIRE":  30,
	"REFRESH_TOKEN_EXPIRE": 7,
	"AUTH_RATE_PER_MIN":    20,
	"REDIS_ADDRESS":        "",
	"REDIS_USERNAME":       "",
	"REDIS_PASSWORD":       "",
	"MQTT_BROKER_URL":      "",
	"UPLOAD_DIR":           "./uploads",
	"USE_SPACES":           false,
	"SPACES_ENDPOINT":      "",
	"SPACES_REGION":        "",
	"SPACES_BUCKET":        "",
	"SPACES_CDN_URL":       "",
	"SPACES_ACCESS_KEY":    "",
	"SPACES_SECRET_KEY":    "",
}

// Load reads .env (if present), config.yaml (if present) and the environment, in that
// order of increasing precedence.
func Load() (*Config, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}
	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDatabase reads the same sources as Load without the token checks,
// for tools that only need DATABASE_URL and MIGRATIONS_PATH.
func LoadDatabase() (*Config, error) {
	return read()
}

func read() (*Config, error) {
	// a missing .env is normal in containers
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) finalize() error {
	if c.JWTSecret == "" {
		if !c.IsDevelopment() {
			return ErrMissingJWTSecret
		}
		c.JWTSecret = devJWTSecret
	}
	if c.JWTRefreshSecret == "" {
		c.JWTRefreshSecret = c.JWTSecret + "-refresh"
	}
	if c.AccessTokenMinutes <= 0 || c.RefreshTokenDays <= 0 {
		return ErrInvalidTokenTTL
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenMinutes) * time.Minute
}

func (c *Config) RefreshTokenTTL() time.Duration {
	return time.Duration(c.RefreshTokenDays) * 24 * time.Hour
}
