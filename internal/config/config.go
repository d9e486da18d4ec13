package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env  string
	Port string

	KVBackend     string // memory | redis | mysql
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	MySQLDSN      string // required when KV_BACKEND=mysql

	// Optional: run migrations at startup (mysql backend, dev convenience)
	RunMigrations bool

	DedupeTTL      time.Duration
	CooldownWindow time.Duration // <= 0 disables the cooldown gate

	RetryAttempts  int
	RetryBaseDelay time.Duration

	ReplyBaseURL string
	ReplyToken   string
	ReplyText    string

	SelfAppID string // events sent by this app id are ignored (loop guard)

	WorkerConcurrency int
	QueueSize         int
}

func Load() Config {
	_ = godotenv.Load()
	return Config{
		Env:  getenv("ENV", "dev"),
		Port: getenv("PORT", "8080"),

		KVBackend:     getenv("KV_BACKEND", "memory"),
		RedisAddr:     getenv("REDIS_ADDR", ""),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		RedisDB:       getenvInt("REDIS_DB", 0),
		MySQLDSN:      getenv("DB_DSN", ""),
		RunMigrations: getenv("RUN_MIGRATIONS", "false") == "true",

		DedupeTTL:      getenvMillis("DEDUPE_TTL_MS", 24*time.Hour),
		CooldownWindow: getenvMillis("COOLDOWN_MS", 2*time.Minute),

		RetryAttempts:  getenvInt("RETRY_ATTEMPTS", 3),
		RetryBaseDelay: getenvMillis("RETRY_BASE_DELAY_MS", 250*time.Millisecond),

		ReplyBaseURL: getenv("REPLY_BASE_URL", ""),
		ReplyToken:   getenv("REPLY_TOKEN", ""),
		ReplyText:    getenv("REPLY_TEXT", "Thanks for reaching out - we'll get back to you shortly."),

		SelfAppID: getenv("SELF_APP_ID", ""),

		WorkerConcurrency: getenvInt("WORKER_CONCURRENCY", 4),
		QueueSize:         getenvInt("QUEUE_SIZE", 256),
	}
}

func getenv(key string, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvMillis(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}
