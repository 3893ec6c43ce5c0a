// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config is the environment-derived configuration shared by the binaries.
type Config struct {
	Env            string
	Port           string
	AllowedOrigins []string
	LogLevel       logrus.Level

	RedisAddr string
	RedisDB   int
	QueueName string

	PostgresUser     string
	PostgresPassword string
	PGHost           string
	PGPort           string
	PGDatabase       string

	TokenExpire time.Duration

	RoundDelay    time.Duration
	ComDelay      time.Duration
	PointsToWin   float64
	ChomboPenalty float64

	HistorianBatchSize int
	HistorianFlush     time.Duration
	MatchInactivity    time.Duration
}

// Load reads a .env file when present and then the process environment.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv, applying defaults for unset keys.
func FromEnv(getenv func(string) string) (Config, error) {
	e := env{getenv: getenv}
	cfg := Config{
		Env:            e.str("MEITRA_ENV", "development"),
		Port:           e.str("PORT", "8080"),
		AllowedOrigins: e.list("ALLOWED_ORIGINS"),

		RedisAddr: e.str("REDIS_ADDR", "localhost:6379"),
		RedisDB:   e.int("REDIS_DB", 0),
		QueueName: e.str("HISTORIAN_QUEUE_NAME", "meitra_actions"),

		PostgresUser:     e.str("POSTGRES_USER", "postgres"),
		PostgresPassword: e.str("POSTGRES_PASSWORD", ""),
		PGHost:           e.str("PG_HOST", "localhost"),
		PGPort:           e.str("PG_PORT", "5432"),
		PGDatabase:       e.str("PG_DATABASE", "meitra"),

		TokenExpire: e.duration("TOKEN_EXPIRE_TIME", 0),

		RoundDelay:    e.duration("MEITRA_ROUND_DELAY", 3*time.Second),
		ComDelay:      e.duration("MEITRA_COM_DELAY", 800*time.Millisecond),
		PointsToWin:   e.float("MEITRA_POINTS_TO_WIN", 10),
		ChomboPenalty: e.float("MEITRA_CHOMBO_PENALTY", 5),

		HistorianBatchSize: e.int("HISTORIAN_BATCH_SIZE", 20),
		HistorianFlush:     e.duration("HISTORIAN_FLUSH", 500*time.Millisecond),
		MatchInactivity:    e.duration("MATCH_INACTIVITY_TIMEOUT", 10*time.Minute),
	}

	level, err := logrus.ParseLevel(e.str("LOG_LEVEL", "info"))
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	cfg.LogLevel = level

	if cfg.PointsToWin <= 0 {
		e.errs = append(e.errs, fmt.Errorf("MEITRA_POINTS_TO_WIN must be positive"))
	}
	if cfg.HistorianBatchSize <= 0 {
		e.errs = append(e.errs, fmt.Errorf("HISTORIAN_BATCH_SIZE must be positive"))
	}
	if err := errors.Join(e.errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Production reports whether the server runs with production settings.
func (c Config) Production() bool {
	return c.Env == "production"
}

// DSN is the Postgres connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		c.PostgresUser, c.PostgresPassword, c.PGHost, c.PGPort, c.PGDatabase)
}

// Addr is the listen address; development binds to localhost only.
func (c Config) Addr() string {
	if c.Production() {
		return ":" + c.Port
	}
	return "localhost:" + c.Port
}

type env struct {
	getenv func(string) string
	errs   []error
}

func (e *env) str(key, def string) string {
	if v := strings.TrimSpace(e.getenv(key)); v != "" {
		return v
	}
	return def
}

func (e *env) list(key string) []string {
	v := e.str(key, "")
	if v == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (e *env) int(key string, def int) int {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return i
}

func (e *env) float(key string, def float64) float64 {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return f
}

// duration accepts Go durations; "never" and "0" mean zero.
func (e *env) duration(key string, def time.Duration) time.Duration {
	v := e.str(key, "")
	switch v {
	case "":
		return def
	case "never", "0":
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}
