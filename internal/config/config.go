package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// Values come from config.yaml, an optional .env file and the environment,
// in increasing order of precedence.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	S3        S3Config        `mapstructure:"s3"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Jobs      JobsConfig      `mapstructure:"jobs"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Calendar  CalendarConfig  `mapstructure:"calendar"`
}

type ServerConfig struct {
	Address string `mapstructure:"address" validate:"required"`
	Env     string `mapstructure:"env" validate:"required"`
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri" validate:"required"`
	Name string `mapstructure:"name" validate:"required"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// JWTConfig defines JWT specific configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret" validate:"required"`
	Expiration time.Duration `mapstructure:"expiration" validate:"gt=0"`
}

// RateLimitConfig sizes the per-user token buckets.
type RateLimitConfig struct {
	RequestsPerSecond float64       `mapstructure:"requests_per_second" validate:"gt=0"`
	Burst             int           `mapstructure:"burst" validate:"min=1"`
	IdleTTL           time.Duration `mapstructure:"idle_ttl" validate:"gt=0"`
}

// JobsConfig holds cron specs for background jobs.
type JobsConfig struct {
	EnrollmentSweep string `mapstructure:"enrollment_sweep" validate:"required"`
	RateLimitSweep  string `mapstructure:"ratelimit_sweep" validate:"required"`
}

// NotifyConfig configures outbound email. An empty API key disables sending.
type NotifyConfig struct {
	ResendAPIKey string `mapstructure:"resend_api_key"`
	From         string `mapstructure:"from" validate:"required_with=ResendAPIKey"`
}

// CalendarConfig names the single timezone all calendar dates live in.
type CalendarConfig struct {
	Location string `mapstructure:"location"`
}

// LoadLocation resolves the configured calendar location. Empty or "Local"
// means the process local zone.
func (c CalendarConfig) LoadLocation() (*time.Location, error) {
	if c.Location == "" || strings.EqualFold(c.Location, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Location)
	if err != nil {
		return nil, fmt.Errorf("invalid calendar location %q: %w", c.Location, err)
	}
	return loc, nil
}

var validate = validator.New()

// LoadConfig reads configuration from path/config.yaml, path/.env and the environment.
func LoadConfig(path string) (Config, error) {
	var cfg Config

	// .env is optional; real environment variables win over it.
	if err := godotenv.Load(filepath.Join(path, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// server.address -> SERVER_ADDRESS, jwt.expiration -> JWT_EXPIRATION
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		// No file: defaults and env vars only.
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	if _, err := cfg.Calendar.LoadLocation(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.env", "dev")
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "strength_academy")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.bucket_name", "checkin-media")
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiration", "1h")
	v.SetDefault("ratelimit.requests_per_second", 10)
	v.SetDefault("ratelimit.burst", 20)
	v.SetDefault("ratelimit.idle_ttl", "10m")
	v.SetDefault("jobs.enrollment_sweep", "@every 1h")
	v.SetDefault("jobs.ratelimit_sweep", "@every 1m")
	v.SetDefault("notify.resend_api_key", "")
	v.SetDefault("notify.from", "")
	v.SetDefault("calendar.location", "Local")
}
