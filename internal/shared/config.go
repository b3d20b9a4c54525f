package shared

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	StorageFile   = "file"
	StorageDB     = "db"
	StorageSQLite = "sqlite"
)

type Config struct {
	AppEnv         string
	LogLevel       string
	HTTPAddr       string
	MetricsAddr    string
	StorageType    string
	FilePath       string
	MySQLDSN       string
	SQLitePath     string
	RedisAddr      string
	RedisDB        int
	RedisPass      string
	CacheTTL       time.Duration
	RateLimitRPS   int
	RequestTimeout time.Duration
}

// Load reads the process environment, after merging an optional .env file
// from the working directory. Variables already set win over .env.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg(".env ignored")
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
		}
		return def
	}
	c := Config{
		AppEnv:         env("APP_ENV", env("HBNB_ENV", "prod")),
		LogLevel:       env("LOG_LEVEL", "info"),
		HTTPAddr:       net.JoinHostPort(env("HBNB_API_HOST", "0.0.0.0"), env("HBNB_API_PORT", "5000")),
		MetricsAddr:    env("METRICS_ADDR", ""),
		StorageType:    env("HBNB_TYPE_STORAGE", StorageFile),
		FilePath:       env("HBNB_FILE_PATH", "file.json"),
		MySQLDSN:       env("MYSQL_DSN", ""),
		SQLitePath:     env("SQLITE_PATH", "hbnb.db"),
		RedisAddr:      env("REDIS_ADDR", ""),
		RedisPass:      env("REDIS_PASSWORD", ""),
		RedisDB:        atoi("REDIS_DB", 0),
		CacheTTL:       time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		RateLimitRPS:   atoi("RATE_LIMIT_RPS", 0),
		RequestTimeout: time.Duration(atoi("REQUEST_TIMEOUT_SECONDS", 15)) * time.Second,
	}
	if c.MySQLDSN == "" {
		c.MySQLDSN = fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			env("HBNB_MYSQL_USER", "hbnb_dev"),
			env("HBNB_MYSQL_PWD", ""),
			env("HBNB_MYSQL_HOST", "localhost"),
			env("HBNB_MYSQL_DB", "hbnb_dev_db"),
		)
	}
	if c.RedisAddr == "" {
		log.Info().Msg("REDIS_ADDR is empty, entity cache disabled")
	}
	return c
}

func (c Config) Validate() error {
	switch c.StorageType {
	case StorageFile, StorageDB, StorageSQLite:
	default:
		return fmt.Errorf("HBNB_TYPE_STORAGE must be %q, %q or %q, got %q",
			StorageFile, StorageDB, StorageSQLite, c.StorageType)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0")
	}
	return nil
}

// IsTest reports the HBNB test environment, where the db schema is reset on start.
func (c Config) IsTest() bool { return c.AppEnv == "test" }

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
