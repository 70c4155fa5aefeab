package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	App       AppSettings       `mapstructure:"app"`
	Upstream  UpstreamSettings  `mapstructure:"upstream"`
	Session   SessionSettings   `mapstructure:"session"`
	Redis     RedisSettings     `mapstructure:"redis"`
	RateLimit RateLimitSettings `mapstructure:"rate_limit"`
	CORS      CORSSettings      `mapstructure:"cors"`
}

type AppSettings struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// UpstreamSettings configures the judging platform endpoints. Base URLs are
// overridable so tests and mirrors can redirect traffic.
type UpstreamSettings struct {
	PrimaryBaseURL   string        `mapstructure:"primary_base_url"`
	SecondaryBaseURL string        `mapstructure:"secondary_base_url"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
}

// SessionSettings configures server-side session storage and the browser cookie.
type SessionSettings struct {
	CookieName   string        `mapstructure:"cookie_name"`
	CookieSecure bool          `mapstructure:"cookie_secure"`
	Backend      string        `mapstructure:"backend"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
	TTL          time.Duration `mapstructure:"ttl"`
}

// RedisSettings configures the optional Redis backend.
type RedisSettings struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	DB         int    `mapstructure:"db"`
	Password   string `mapstructure:"password"`
	TLSEnabled bool   `mapstructure:"tls_enabled"`
}

// RateLimitSettings configures the sign-in attempt window.
type RateLimitSettings struct {
	WindowDuration    time.Duration `mapstructure:"window_duration"`
	SignInMaxAttempts int           `mapstructure:"sign_in_max_attempts"`
}

// CORSSettings configures allowed browser origins.
type CORSSettings struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("AAA")

	setDefaults(v)

	if err := bindEnvs(v, []string{
		"app.name",
		"app.env",
		"app.host",
		"app.port",
		"upstream.primary_base_url",
		"upstream.secondary_base_url",
		"upstream.request_timeout",
		"session.cookie_name",
		"session.cookie_secure",
		"session.backend",
		"session.key_prefix",
		"session.ttl",
		"redis.host",
		"redis.port",
		"redis.db",
		"redis.password",
		"redis.tls_enabled",
		"rate_limit.window_duration",
		"rate_limit.sign_in_max_attempts",
		"cors.allowed_origins",
	}); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "aaa-code-proxy")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 8080)

	v.SetDefault("upstream.primary_base_url", "https://leetcode.com")
	v.SetDefault("upstream.secondary_base_url", "https://leetcode.cn")
	v.SetDefault("upstream.request_timeout", "30s")

	v.SetDefault("session.cookie_name", "aaa_session")
	v.SetDefault("session.cookie_secure", false)
	v.SetDefault("session.backend", "memory")
	v.SetDefault("session.key_prefix", "aaa:session")
	// Zero keeps sessions alive until logout or process restart.
	v.SetDefault("session.ttl", "0")

	v.SetDefault("redis.host", "")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.tls_enabled", false)

	v.SetDefault("rate_limit.window_duration", "1m")
	v.SetDefault("rate_limit.sign_in_max_attempts", 10)

	v.SetDefault("cors.allowed_origins", []string{"*"})
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, "AAA_"+envKey, envKey); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}
