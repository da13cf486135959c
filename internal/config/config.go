package config

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"strings"
	"time"

	"github.com/juju/errors"
	"github.com/spf13/viper"
)

// Config holds all runtime settings. Values come from the environment and,
// when SALONHUB_CONFIG names a file, from that file first.
type Config struct {
	Port        int    `mapstructure:"PORT"`
	Environment string `mapstructure:"ENVIRONMENT"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	DatabaseURL      string `mapstructure:"DATABASE_URL"`
	DatabaseMaxConns int32  `mapstructure:"DATABASE_MAX_CONNS"`
	AutoMigrate      bool   `mapstructure:"AUTO_MIGRATE"`

	JWTSecret     string        `mapstructure:"JWT_SECRET"`
	JWTAccessTTL  time.Duration `mapstructure:"JWT_ACCESS_TTL"`
	JWTRefreshTTL time.Duration `mapstructure:"JWT_REFRESH_TTL"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	MinioEndpoint  string `mapstructure:"MINIO_ENDPOINT"`
	MinioAccessKey string `mapstructure:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `mapstructure:"MINIO_SECRET_KEY"`
	MinioUseSSL    bool   `mapstructure:"MINIO_USE_SSL"`
	MinioBucket    string `mapstructure:"MINIO_BUCKET"`

	RateLimitLogin  int           `mapstructure:"RATE_LIMIT_LOGIN"`
	RateLimitWindow time.Duration `mapstructure:"RATE_LIMIT_WINDOW"`

	ReportCacheTTL       time.Duration `mapstructure:"REPORT_CACHE_TTL"`
	DepositSweepInterval time.Duration `mapstructure:"DEPOSIT_SWEEP_INTERVAL"`
	ReminderLeadTime     time.Duration `mapstructure:"REMINDER_LEAD_TIME"`
}

var keys = []string{
	"PORT", "ENVIRONMENT", "LOG_LEVEL",
	"DATABASE_URL", "DATABASE_MAX_CONNS", "AUTO_MIGRATE",
	"JWT_SECRET", "JWT_ACCESS_TTL", "JWT_REFRESH_TTL",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"MINIO_ENDPOINT", "MINIO_ACCESS_KEY", "MINIO_SECRET_KEY", "MINIO_USE_SSL", "MINIO_BUCKET",
	"RATE_LIMIT_LOGIN", "RATE_LIMIT_WINDOW",
	"REPORT_CACHE_TTL", "DEPOSIT_SWEEP_INTERVAL", "REMINDER_LEAD_TIME",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", 8080)
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATABASE_MAX_CONNS", 10)
	v.SetDefault("AUTO_MIGRATE", true)
	v.SetDefault("JWT_ACCESS_TTL", 15*time.Minute)
	v.SetDefault("JWT_REFRESH_TTL", 7*24*time.Hour)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("MINIO_ENDPOINT", "localhost:9000")
	v.SetDefault("MINIO_ACCESS_KEY", "minioadmin")
	v.SetDefault("MINIO_SECRET_KEY", "minioadmin")
	v.SetDefault("MINIO_USE_SSL", false)
	v.SetDefault("MINIO_BUCKET", "salonhub")
	v.SetDefault("RATE_LIMIT_LOGIN", 10)
	v.SetDefault("RATE_LIMIT_WINDOW", 15*time.Minute)
	v.SetDefault("REPORT_CACHE_TTL", 5*time.Minute)
	v.SetDefault("DEPOSIT_SWEEP_INTERVAL", 5*time.Minute)
	v.SetDefault("REMINDER_LEAD_TIME", 24*time.Hour)
}

// Load reads configuration into a Config and validates it.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path := os.Getenv("SALONHUB_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Annotatef(err, "read config file %s", path)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// AutomaticEnv only covers keys viper already knows about when unmarshalling.
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, errors.Annotatef(err, "bind env %s", k)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Annotate(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		// development only: tokens stop verifying after a restart
		secret, err := randomSecret()
		if err != nil {
			return nil, err
		}
		cfg.JWTSecret = secret
	}
	return cfg, nil
}

// IsDevelopment reports whether the service runs in a local/dev environment.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Environment)
	return env == "" || env == "development" || env == "dev" || env == "local"
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.NotValidf("missing DATABASE_URL")
	}
	if c.JWTSecret == "" && !c.IsDevelopment() {
		return errors.NotValidf("missing JWT_SECRET outside development")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return errors.NotValidf("PORT %d", c.Port)
	}
	if c.JWTAccessTTL <= 0 || c.JWTRefreshTTL <= 0 {
		return errors.NotValidf("non-positive token TTL")
	}
	if c.RateLimitLogin <= 0 {
		return errors.NotValidf("non-positive RATE_LIMIT_LOGIN")
	}
	if c.DepositSweepInterval < time.Minute {
		return errors.NotValidf("DEPOSIT_SWEEP_INTERVAL below 1m")
	}
	return nil
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Annotate(err, "generate jwt secret")
	}
	return hex.EncodeToString(b), nil
}
