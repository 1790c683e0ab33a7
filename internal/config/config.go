package config

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v9"
)

const (
	StoreDriverMySQL  = "mysql"
	StoreDriverMemory = "memory"
)

type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	AppEnv   string `env:"APP_ENV" envDefault:"production"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	StoreDriver            string `env:"STORE_DRIVER" envDefault:"mysql"`
	DBUser                 string `env:"DB_USER"`
	DBPassword             string `env:"DB_PASSWORD"`
	DBHost                 string `env:"DB_HOST"` // e.g. tcp(host:3306) or unix(/cloudsql/instance)
	DBName                 string `env:"DB_NAME"`
	DBPort                 string `env:"DB_PORT" envDefault:"3306"`
	InstanceConnectionName string `env:"INSTANCE_CONNECTION_NAME"`

	FirebaseProjectID string   `env:"FIREBASE_PROJECT_ID"`
	EscrowUID         string   `env:"ESCROW_UID" envDefault:"escrow"`
	AdminUIDs         []string `env:"ADMIN_UIDS" envSeparator:","`

	ReaperSchedule string        `env:"REAPER_SCHEDULE" envDefault:"59 59 23 * * *"`
	ReaperTimezone string        `env:"REAPER_TIMEZONE" envDefault:"Asia/Seoul"`
	UnpaidTTL      time.Duration `env:"UNPAID_TTL" envDefault:"48h"`
	RedisURL       string        `env:"REDIS_URL"`

	StorageBucket string `env:"STORAGE_BUCKET"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.UnpaidTTL <= 0 {
		return errors.New("UNPAID_TTL must be positive")
	}
	switch c.StoreDriver {
	case StoreDriverMemory:
		return nil
	case StoreDriverMySQL:
	default:
		return errors.New("STORE_DRIVER must be mysql or memory")
	}
	if c.DBUser == "" || c.DBName == "" || (c.DBHost == "" && c.InstanceConnectionName == "") {
		return errors.New("DB_USER, DB_NAME and DB_HOST (or INSTANCE_CONNECTION_NAME) are required for the mysql store")
	}
	return nil
}

// IsAdmin reports whether uid may confirm payments.
func (c *Config) IsAdmin(uid string) bool {
	for _, a := range c.AdminUIDs {
		if a != "" && a == uid {
			return true
		}
	}
	return false
}

func (c *Config) Development() bool {
	return c.AppEnv == "development"
}
