package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix         = "AIVERSE"
	placeholderSecret = "CHANGE_ME"
)

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Database DatabaseConfig `mapstructure:"database"`
	Logs     LogsConfig     `mapstructure:"logs"`
	Seed     SeedConfig     `mapstructure:"seed"`
}

type ServerConfig struct {
	Listen       string          `mapstructure:"listen"`      // :8080
	GRPCListen   string          `mapstructure:"grpc_listen"` // пусто: gRPC health выключен
	CORSOrigins  []string        `mapstructure:"cors_origins"`
	MaxBodyBytes int64           `mapstructure:"max_body_bytes"`
	ReadTimeout  time.Duration   `mapstructure:"read_timeout"`
	WriteTimeout time.Duration   `mapstructure:"write_timeout"`
	RateLimit    RateLimitConfig `mapstructure:"rate_limit"`
	TrustProxy   bool            `mapstructure:"trust_proxy"` // X-Forwarded-For / X-Real-IP задаёт прокси
}

// RateLimitConfig holds per-IP request budgets.
type RateLimitConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	LoginPerMinute int  `mapstructure:"login_per_minute"`
	APIPerMinute   int  `mapstructure:"api_per_minute"`
}

type AuthConfig struct {
	Secret     string        `mapstructure:"secret"`
	Issuer     string        `mapstructure:"issuer"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
	BcryptCost int           `mapstructure:"bcrypt_cost"`
}

type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type LogsConfig struct {
	Level  string `mapstructure:"level"`  // trace|debug|info|warn|error
	Format string `mapstructure:"format"` // text|json
}

// SeedConfig describes the super admin ensured at startup.
type SeedConfig struct {
	SuperAdmin struct {
		Username string `mapstructure:"username"`
		Email    string `mapstructure:"email"`
		Password string `mapstructure:"password"`
	} `mapstructure:"super_admin"`
}

// Enabled reports whether a super admin seed is configured.
func (s SeedConfig) Enabled() bool {
	return strings.TrimSpace(s.SuperAdmin.Username) != "" && s.SuperAdmin.Password != ""
}

// Load reads configuration from defaults, an optional YAML file and AIVERSE_* env variables.
// An empty path falls back to AIVERSE_CONFIG, then to ./config.yaml if present.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path == "" {
		path = os.Getenv(envPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/aiverse")
	}
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return nil, fmt.Errorf("config read error: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal error: %w", err)
	}
	// AutomaticEnv does not split lists.
	if raw := os.Getenv(envPrefix + "_SERVER_CORS_ORIGINS"); raw != "" {
		cfg.Server.CORSOrigins = splitList(raw)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.grpc_listen", "")
	v.SetDefault("server.cors_origins", []string{"http://localhost:5173"})
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.trust_proxy", false)
	v.SetDefault("server.rate_limit.enabled", true)
	v.SetDefault("server.rate_limit.login_per_minute", 10)
	v.SetDefault("server.rate_limit.api_per_minute", 300)

	v.SetDefault("auth.secret", placeholderSecret)
	v.SetDefault("auth.issuer", "aiverse")
	v.SetDefault("auth.token_ttl", 7*24*time.Hour)
	v.SetDefault("auth.bcrypt_cost", 10)

	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)

	v.SetDefault("logs.level", "info")
	v.SetDefault("logs.format", "text")

	v.SetDefault("seed.super_admin.username", "")
	v.SetDefault("seed.super_admin.email", "")
	v.SetDefault("seed.super_admin.password", "")
}

func validate(c *Config) error {
	if strings.TrimSpace(c.Auth.Secret) == "" || c.Auth.Secret == placeholderSecret {
		return errors.New("auth.secret must be set (not empty and not CHANGE_ME)")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.token_ttl must be positive")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("auth.bcrypt_cost must be within [4,31], got %d", c.Auth.BcryptCost)
	}
	if strings.TrimSpace(c.Server.Listen) == "" {
		return errors.New("server.listen must not be empty")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return errors.New("server.max_body_bytes must be positive")
	}
	if c.Server.RateLimit.Enabled && (c.Server.RateLimit.LoginPerMinute <= 0 || c.Server.RateLimit.APIPerMinute <= 0) {
		return errors.New("server.rate_limit budgets must be positive when enabled")
	}
	if c.Seed.Enabled() && strings.TrimSpace(c.Seed.SuperAdmin.Email) == "" {
		return errors.New("seed.super_admin.email is required when a seed username is set")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
