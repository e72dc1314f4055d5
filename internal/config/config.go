package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the service configuration, loaded from config/config.yaml and the environment.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	MySQL     MySQLConfig     `mapstructure:"mysql"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Razorpay  RazorpayConfig  `mapstructure:"razorpay"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Business  BusinessConfig  `mapstructure:"business"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

type MySQLConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

// DSN builds the go-sql-driver/mysql connection string.
func (c MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// RedisConfig. When Enabled is false the service runs in single-instance mode:
// in-memory rate limiting and process-local escrow locks.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Enabled bool             `mapstructure:"enabled"`
	Brokers []string         `mapstructure:"brokers"`
	Topic   KafkaTopicConfig `mapstructure:"topic"`
}

type KafkaTopicConfig struct {
	LedgerEvents string `mapstructure:"ledger_events"`
}

type RazorpayConfig struct {
	KeyID         string `mapstructure:"key_id"`
	KeySecret     string `mapstructure:"key_secret"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	Currency      string `mapstructure:"currency"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type RateLimitConfig struct {
	Order          LimitRule `mapstructure:"order"`
	Webhook        LimitRule `mapstructure:"webhook"`
	SweepThreshold int       `mapstructure:"sweep_threshold"`
}

type LimitRule struct {
	Limit         int `mapstructure:"limit"`
	WindowSeconds int `mapstructure:"window_seconds"`
}

type BusinessConfig struct {
	MaxRetryCount        int `mapstructure:"max_retry_count"`
	RetryIntervalSeconds int `mapstructure:"retry_interval_seconds"`
	OutboxIntervalMillis int `mapstructure:"outbox_interval_millis"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

var (
	ErrMissingGatewayKey    = errors.New("razorpay key id/secret not configured")
	ErrMissingWebhookSecret = errors.New("razorpay webhook secret not configured")
	ErrMissingJWTSecret     = errors.New("auth jwt secret not configured")
	ErrMissingDatabase      = errors.New("mysql host/user/database not configured")
	ErrMissingBrokers       = errors.New("kafka enabled without brokers")
)

// envAliases maps config keys to the environment names the deployment already uses.
var envAliases = map[string][]string{
	"razorpay.key_id":         {"RAZORPAY_KEY_ID", "NEXT_PUBLIC_RAZORPAY_KEY_ID"},
	"razorpay.key_secret":     {"RAZORPAY_KEY_SECRET"},
	"razorpay.webhook_secret": {"RAZORPAY_WEBHOOK_SECRET"},
	"auth.jwt_secret":         {"SUPABASE_JWT_SECRET"},
}

func setDefaults(v *viper.Viper) {
	// Every key needs a default so Unmarshal sees environment-only values.
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.trusted_proxies", []string{})
	v.SetDefault("mysql.host", "")
	v.SetDefault("mysql.user", "")
	v.SetDefault("mysql.password", "")
	v.SetDefault("mysql.database", "")
	v.SetDefault("mysql.port", 3306)
	v.SetDefault("mysql.max_open_conns", 50)
	v.SetDefault("mysql.max_idle_conns", 10)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic.ledger_events", "skillswap.ledger-events")
	v.SetDefault("razorpay.currency", "INR")
	v.SetDefault("rate_limit.order.limit", 5)
	v.SetDefault("rate_limit.order.window_seconds", 60)
	v.SetDefault("rate_limit.webhook.limit", 20)
	v.SetDefault("rate_limit.webhook.window_seconds", 60)
	v.SetDefault("rate_limit.sweep_threshold", 1000)
	v.SetDefault("business.max_retry_count", 5)
	v.SetDefault("business.retry_interval_seconds", 30)
	v.SetDefault("business.outbox_interval_millis", 500)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// LoadConfig reads the YAML file at configPath and applies environment
// overrides. A missing file is not an error: every key can come from the
// environment. The result is validated, so dummy credentials never load.
func LoadConfig(configPath string) (*Config, error) {
	// .env.local wins over .env; godotenv never overrides variables already set.
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SKILLSWAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envAliases {
		if err := v.BindEnv(append([]string{key, "SKILLSWAP_" + envName(key)}, names...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var pathErr *fs.PathError
			if !errors.As(err, &pathErr) {
				return nil, fmt.Errorf("read config %s: %w", configPath, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fails closed on every secret the payment flow depends on.
func (c *Config) Validate() error {
	var errs []error
	if c.Razorpay.KeyID == "" || c.Razorpay.KeySecret == "" {
		errs = append(errs, ErrMissingGatewayKey)
	}
	if c.Razorpay.WebhookSecret == "" {
		errs = append(errs, ErrMissingWebhookSecret)
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, ErrMissingJWTSecret)
	}
	if c.MySQL.Host == "" || c.MySQL.User == "" || c.MySQL.Database == "" {
		errs = append(errs, ErrMissingDatabase)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, ErrMissingBrokers)
	}
	return errors.Join(errs...)
}

func envName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
