package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "BRIDGE"

// AppConfig is everything the process needs, assembled once at startup and
// passed down explicitly.
type AppConfig struct {
	Service   ServiceConfig
	Agent     AgentConfig
	Registry  RegistryConfig
	Bridge    BridgeConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

type ServiceConfig struct {
	HTTPPort          int
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
	HealthTimeout     time.Duration
}

type AgentConfig struct {
	Timeout time.Duration
	DryRun  bool
}

// RegistryConfig selects where the chain table comes from: "default",
// "file" or "postgres".
type RegistryConfig struct {
	Source string
	Path   string
	DSN    string
}

type BridgeConfig struct {
	// DeadLetterDir receives unreconciled transfers. Empty disables it.
	DeadLetterDir string
}

type AuthConfig struct {
	HMACSecret string
	ClockSkew  time.Duration
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

type LogConfig struct {
	Level  string
	Pretty bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.port", 9762)
	v.SetDefault("http.read_header_timeout", 15*time.Second)
	v.SetDefault("http.shutdown_timeout", 10*time.Second)
	v.SetDefault("http.health_timeout", 2*time.Second)
	v.SetDefault("agent.timeout", 20*time.Second)
	v.SetDefault("agent.dry_run", false)
	v.SetDefault("registry.source", "default")
	v.SetDefault("registry.path", "")
	v.SetDefault("registry.dsn", "")
	v.SetDefault("bridge.dead_letter_dir", "")
	v.SetDefault("auth.hmac_secret", "")
	v.SetDefault("auth.clock_skew", 60*time.Second)
	v.SetDefault("ratelimit.rps", 0)
	v.SetDefault("ratelimit.burst", 5)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

// Load reads .env (if present), BRIDGE_* environment variables and the
// optional config file. Environment wins over the file.
func Load(configFile string) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*AppConfig, error) {
	cfg := &AppConfig{
		Service: ServiceConfig{
			HTTPPort:          v.GetInt("http.port"),
			ReadHeaderTimeout: v.GetDuration("http.read_header_timeout"),
			ShutdownTimeout:   v.GetDuration("http.shutdown_timeout"),
			HealthTimeout:     v.GetDuration("http.health_timeout"),
		},
		Agent: AgentConfig{
			Timeout: v.GetDuration("agent.timeout"),
			DryRun:  v.GetBool("agent.dry_run"),
		},
		Registry: RegistryConfig{
			Source: strings.ToLower(strings.TrimSpace(v.GetString("registry.source"))),
			Path:   v.GetString("registry.path"),
			DSN:    v.GetString("registry.dsn"),
		},
		Bridge: BridgeConfig{
			DeadLetterDir: v.GetString("bridge.dead_letter_dir"),
		},
		Auth: AuthConfig{
			HMACSecret: v.GetString("auth.hmac_secret"),
			ClockSkew:  v.GetDuration("auth.clock_skew"),
		},
		RateLimit: RateLimitConfig{
			RPS:   v.GetFloat64("ratelimit.rps"),
			Burst: v.GetInt("ratelimit.burst"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Pretty: v.GetBool("log.pretty"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations that would fail later at startup.
func (c *AppConfig) Validate() error {
	if c.Service.HTTPPort < 0 || c.Service.HTTPPort > 65535 {
		return fmt.Errorf("http.port %d out of range", c.Service.HTTPPort)
	}
	if c.Agent.Timeout <= 0 {
		return errors.New("agent.timeout must be positive")
	}
	switch c.Registry.Source {
	case "", "default":
	case "file":
		if c.Registry.Path == "" {
			return errors.New("registry.path is required when registry.source=file")
		}
	case "postgres":
		if c.Registry.DSN == "" {
			return errors.New("registry.dsn is required when registry.source=postgres")
		}
	default:
		return fmt.Errorf("unknown registry.source %q", c.Registry.Source)
	}
	if c.RateLimit.RPS < 0 {
		return errors.New("ratelimit.rps must not be negative")
	}
	return nil
}
