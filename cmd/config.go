package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	apihttp "waterdist/internal/adapters/in/http"
	"waterdist/internal/adapters/out/geo"
	"waterdist/internal/adapters/out/invoice"
	"waterdist/internal/adapters/out/mail"
	"waterdist/internal/adapters/out/postgres"
	"waterdist/internal/adapters/out/queue"
	"waterdist/internal/core/application/access"
	"waterdist/internal/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the complete service configuration.
type Config struct {
	HTTP       apihttp.Config   `mapstructure:"http"`
	Log        logger.Options   `mapstructure:"log"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Geo        geo.Config       `mapstructure:"geo"`
	Queue      queue.Config     `mapstructure:"queue"`
	Mail       mail.Config      `mapstructure:"mail"`
	Invoice    invoice.Config   `mapstructure:"invoice"`
	Access     AccessConfig     `mapstructure:"access"`
	Assignment AssignmentConfig `mapstructure:"assignment"`
	Outbox     OutboxConfig     `mapstructure:"outbox"`
}

type DatabaseConfig struct {
	Driver   string              `mapstructure:"driver"`
	DSN      string              `mapstructure:"dsn"`
	LogLevel string              `mapstructure:"log_level"`
	Pool     postgres.PoolConfig `mapstructure:"pool"`
}

// RedisConfig enables the geo cache.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AccessConfig struct {
	Policy string `mapstructure:"policy"`
}

type AssignmentConfig struct {
	GeoTimeout        time.Duration `mapstructure:"geo_timeout"`
	MaxParallel       int           `mapstructure:"max_parallel"`
	MaxCommitAttempts int           `mapstructure:"max_commit_attempts"`
}

type OutboxConfig struct {
	Schedule    string        `mapstructure:"schedule"`
	BatchSize   int           `mapstructure:"batch_size"`
	Lease       time.Duration `mapstructure:"lease"`
	RetryBase   time.Duration `mapstructure:"retry_base"`
	RetryMax    time.Duration `mapstructure:"retry_max"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	RunTimeout  time.Duration `mapstructure:"run_timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.jwt_secret", "")
	v.SetDefault("http.webhook_secret", "")

	v.SetDefault("log.mode", logger.ModeRelease)
	v.SetDefault("log.level", "")
	v.SetDefault("log.dir", "")
	v.SetDefault("log.filename", "waterdist.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "file:waterdist.db?_pragma=busy_timeout(5000)")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.pool.max_open_conns", 1)
	v.SetDefault("database.pool.max_idle_conns", 1)
	v.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	v.SetDefault("database.pool.conn_max_idle_time_seconds", 0)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("geo.api_key", "")
	v.SetDefault("geo.base_url", "")
	v.SetDefault("geo.region", "za")
	v.SetDefault("geo.requests_per_second", 10)
	v.SetDefault("geo.cache_ttl", "24h")

	v.SetDefault("queue.enabled", false)
	v.SetDefault("queue.host", "127.0.0.1")
	v.SetDefault("queue.port", 6379)
	v.SetDefault("queue.password", "")
	v.SetDefault("queue.db", 1)
	v.SetDefault("queue.concurrency", 10)
	v.SetDefault("queue.queue", queue.DefaultQueue)
	v.SetDefault("queue.max_retry", 5)

	v.SetDefault("mail.enabled", false)
	v.SetDefault("mail.host", "")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.from", "")
	v.SetDefault("mail.from_name", "Water Distribution")
	v.SetDefault("mail.use_ssl", false)
	v.SetDefault("mail.use_tls", true)

	v.SetDefault("invoice.dir", "./invoices")

	v.SetDefault("access.policy", access.PolicyRoleBased)

	v.SetDefault("assignment.geo_timeout", "5s")
	v.SetDefault("assignment.max_parallel", 8)
	v.SetDefault("assignment.max_commit_attempts", 3)

	v.SetDefault("outbox.schedule", "* * * * * *")
	v.SetDefault("outbox.batch_size", 50)
	v.SetDefault("outbox.lease", "1m")
	v.SetDefault("outbox.retry_base", "5s")
	v.SetDefault("outbox.retry_max", "10m")
	v.SetDefault("outbox.max_attempts", 8)
	v.SetDefault("outbox.run_timeout", "1m")
}

// LoadConfig resolves the configuration from defaults, an optional YAML
// file, the environment (after loading .env when present) and command line
// flags, each overriding the previous.
func LoadConfig(args []string) (Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	fs := pflag.NewFlagSet("waterdist", pflag.ContinueOnError)
	configFile := fs.StringP("config", "c", "", "path to a YAML config file")
	fs.IntP("http-port", "p", 0, "port to listen on")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if *configFile != "" {
		v.SetConfigFile(*configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", *configFile, err)
		}
	}
	if fs.Changed("http-port") {
		if err := v.BindPFlag("http.port", fs.Lookup("http-port")); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c Config) Validate() error {
	var problems []error
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		problems = append(problems, fmt.Errorf("invalid http.port: %d", c.HTTP.Port))
	}
	if strings.TrimSpace(c.HTTP.JWTSecret) == "" {
		problems = append(problems, errors.New("http.jwt_secret is required"))
	}
	if c.Outbox.BatchSize <= 0 {
		problems = append(problems, fmt.Errorf("invalid outbox.batch_size: %d", c.Outbox.BatchSize))
	}
	if _, err := access.NewPolicy(c.Access.Policy); err != nil {
		problems = append(problems, err)
	}
	return errors.Join(problems...)
}
