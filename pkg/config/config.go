// Package config loads irrigation-engine configuration from config.yaml
// with environment variable overrides. Secrets come from the environment
// only.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for irrigation-engine.
type Config struct {
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"0.0.0.0"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // set at load time from the build

	Auth     AuthConfig     `yaml:"auth"`
	Database DatabaseConfig `yaml:"database"`
	Model    ModelConfig    `yaml:"model"`
	Engine   EngineConfig   `yaml:"engine"`
	Weather  WeatherConfig  `yaml:"weather"`
}

// AuthConfig holds JWT verification settings. The engine trusts an external
// auth service to issue tokens; it only verifies and extracts the user id.
type AuthConfig struct {
	// EnableVerification controls whether bearer tokens are validated.
	// Disable only for local development.
	EnableVerification bool `yaml:"enable_verification" env:"AUTH_ENABLE_VERIFICATION" env-default:"true"`

	// JWTSecret is the HMAC key shared with the auth service. Secret, env only.
	JWTSecret string `yaml:"-" env:"JWT_SECRET"`
}

// DatabaseConfig holds PostgreSQL settings.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"irrigation"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"irrigation_engine"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`
}

// ModelConfig locates the trained regressor artifact. A missing artifact is
// fatal at startup: the service refuses to serve predictions rather than
// degrade silently.
type ModelConfig struct {
	ArtifactPath string `yaml:"artifact_path" env:"MODEL_ARTIFACT_PATH" env-default:"rf_irrigation_model.json"`
}

// EngineConfig tunes the decision engine.
type EngineConfig struct {
	// PredictConcurrency bounds how many fields are scored in parallel
	// during batch prediction.
	PredictConcurrency int `yaml:"predict_concurrency" env:"ENGINE_PREDICT_CONCURRENCY" env-default:"8"`

	// PlanningLeadDays is how far ahead a generated schedule is recommended.
	PlanningLeadDays int `yaml:"planning_lead_days" env:"ENGINE_PLANNING_LEAD_DAYS" env-default:"1"`

	// DefaultWindowDays is the analytics window when the caller omits one.
	DefaultWindowDays int `yaml:"default_window_days" env:"ENGINE_DEFAULT_WINDOW_DAYS" env-default:"30"`
}

// WeatherConfig holds the fallback reading used when the weather
// collaborator has no data for a field.
type WeatherConfig struct {
	DefaultTemperatureC float64 `yaml:"default_temperature_c" env:"WEATHER_DEFAULT_TEMPERATURE_C" env-default:"25"`
	DefaultHumidityPct  float64 `yaml:"default_humidity_pct" env:"WEATHER_DEFAULT_HUMIDITY_PCT" env-default:"60"`
	DefaultRainfallMM   float64 `yaml:"default_rainfall_mm" env:"WEATHER_DEFAULT_RAINFALL_MM" env-default:"0"`
	DefaultWindSpeedKMH float64 `yaml:"default_wind_speed_kmh" env:"WEATHER_DEFAULT_WIND_SPEED_KMH" env-default:"5"`
}

// Load reads configuration from config.yaml with environment variable
// overrides. The file is optional; env-only deployments are supported.
func Load(version string) (*Config, error) {
	cfg := &Config{Version: version}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.EnableVerification && c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set when auth verification is enabled")
	}
	if c.Engine.PredictConcurrency < 1 {
		return fmt.Errorf("engine.predict_concurrency must be at least 1")
	}
	return nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
