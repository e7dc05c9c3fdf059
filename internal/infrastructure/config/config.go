package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix         = "ZTE_"
	envConfigFile     = "ZTE_CONFIG_FILE"
	defaultConfigFile = "configs/config.yaml"
)

type Config struct {
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
	LogLevel    string `koanf:"log_level"`

	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Auth      AuthConfig      `koanf:"auth"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	GeoIP     GeoIPConfig     `koanf:"geoip"`
	Audit     AuditConfig     `koanf:"audit"`
	ZeroTrust ZeroTrustConfig `koanf:"zero_trust"`
}

type ServerConfig struct {
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

type RedisConfig struct {
	URL          string        `koanf:"url"`
	Password     string        `koanf:"password"`
	DB           int           `koanf:"db"`
	PoolSize     int           `koanf:"pool_size"`
	MinIdleConns int           `koanf:"min_idle_conns"`
	MaxRetries   int           `koanf:"max_retries"`
	DialTimeout  time.Duration `koanf:"dial_timeout"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

type TelemetryConfig struct {
	Enabled      bool    `koanf:"enabled"`
	OTLPEndpoint string  `koanf:"otlp_endpoint"`
	ServiceName  string  `koanf:"service_name"`
	SampleRate   float64 `koanf:"sample_rate"`
}

type AuthConfig struct {
	Enabled   bool   `koanf:"enabled"`
	JWTSecret string `koanf:"jwt_secret"`
	Issuer    string `koanf:"issuer"`
}

type RateLimitConfig struct {
	RequestsPerSecond int `koanf:"requests_per_second"`
	BurstSize         int `koanf:"burst_size"`
}

type GeoIPConfig struct {
	DatabasePath string `koanf:"database_path"`
}

// AuditConfig selects the security event sink: "postgres" or "file".
type AuditConfig struct {
	Sink     string `koanf:"sink"`
	FilePath string `koanf:"file_path"`
}

// ZeroTrustConfig tunes the trust evaluation engine.
type ZeroTrustConfig struct {
	BusinessHoursStart  int           `koanf:"business_hours_start"`
	BusinessHoursEnd    int           `koanf:"business_hours_end"`
	Timezone            string        `koanf:"timezone"`
	CollaboratorTimeout time.Duration `koanf:"collaborator_timeout"`
	BehaviorWindow      time.Duration `koanf:"behavior_window"`
	RiskWindow          time.Duration `koanf:"risk_window"`
	BaselineMaxAge      time.Duration `koanf:"baseline_max_age"`
	AnomalyThreshold    float64       `koanf:"anomaly_threshold"`
	HighRiskKeywords    []string      `koanf:"high_risk_keywords"`
	// StoreBackend is "memory" or "redis".
	StoreBackend string `koanf:"store_backend"`
}

// Defaults returns the configuration used before any file or environment
// overrides are applied.
func Defaults() *Config {
	return &Config{
		Version:     "dev",
		Environment: "development",
		LogLevel:    "info",
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			URL:          "localhost:6379",
			PoolSize:     10,
			MinIdleConns: 2,
			MaxRetries:   3,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "zero-trust-access-engine",
			SampleRate:  1.0,
		},
		Auth: AuthConfig{
			Issuer: "zero-trust-access-engine",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			BurstSize:         200,
		},
		Audit: AuditConfig{
			Sink:     "postgres",
			FilePath: "var/audit/security-events.jsonl",
		},
		ZeroTrust: ZeroTrustConfig{
			BusinessHoursStart:  9,
			BusinessHoursEnd:    17,
			Timezone:            "Local",
			CollaboratorTimeout: 2 * time.Second,
			BehaviorWindow:      time.Hour,
			RiskWindow:          24 * time.Hour,
			BaselineMaxAge:      7 * 24 * time.Hour,
			AnomalyThreshold:    0.5,
			HighRiskKeywords:    []string{"admin", "settings", "users", "financial", "sensitive"},
			StoreBackend:        "memory",
		},
	}
}

// Load reads configuration from defaults, the YAML file named by
// ZTE_CONFIG_FILE (configs/config.yaml when unset) and ZTE_ environment
// variables, in that order of precedence.
func Load() (*Config, error) {
	path := os.Getenv(envConfigFile)
	if path == "" {
		path = defaultConfigFile
	}
	return LoadFrom(path)
}

// LoadFrom is Load with an explicit config file path. A missing file is not an error.
func LoadFrom(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	// ZTE_ZERO_TRUST__BUSINESS_HOURS_START -> zero_trust.business_hours_start
	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func envKey(s string) string {
	if s == envConfigFile {
		return ""
	}
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	zt := c.ZeroTrust

	if zt.BusinessHoursStart < 0 || zt.BusinessHoursStart > 23 || zt.BusinessHoursEnd < 0 || zt.BusinessHoursEnd > 23 {
		return fmt.Errorf("zero_trust business hours must be within 0-23, got %d-%d", zt.BusinessHoursStart, zt.BusinessHoursEnd)
	}
	if zt.BusinessHoursStart > zt.BusinessHoursEnd {
		return fmt.Errorf("zero_trust business_hours_start %d is after business_hours_end %d", zt.BusinessHoursStart, zt.BusinessHoursEnd)
	}
	if zt.CollaboratorTimeout <= 0 {
		return fmt.Errorf("zero_trust collaborator_timeout must be positive")
	}
	if zt.BehaviorWindow <= 0 || zt.RiskWindow <= 0 {
		return fmt.Errorf("zero_trust behavior_window and risk_window must be positive")
	}
	if zt.AnomalyThreshold <= 0 {
		return fmt.Errorf("zero_trust anomaly_threshold must be positive")
	}
	if _, err := zt.Location(); err != nil {
		return fmt.Errorf("zero_trust timezone: %w", err)
	}

	switch zt.StoreBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("zero_trust store_backend must be memory or redis, got %q", zt.StoreBackend)
	}

	switch c.Audit.Sink {
	case "postgres":
	case "file":
		if c.Audit.FilePath == "" {
			return fmt.Errorf("audit file_path is required for the file sink")
		}
	default:
		return fmt.Errorf("audit sink must be postgres or file, got %q", c.Audit.Sink)
	}

	if c.Auth.Enabled && c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth jwt_secret is required when auth is enabled")
	}
	if c.RateLimit.RequestsPerSecond < 0 || c.RateLimit.BurstSize < 0 {
		return fmt.Errorf("rate_limit values must not be negative")
	}

	return nil
}

// Location resolves the business-hours timezone.
func (z ZeroTrustConfig) Location() (*time.Location, error) {
	if z.Timezone == "" || z.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(z.Timezone)
}
