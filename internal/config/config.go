package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
)

// Store backends accepted by DAYLOG_STORE
const (
	StoreRedis  = "redis"
	StoreDisk   = "disk"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

const defaultEnvFile = ".env"

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	Store          string // redis | disk | sqlite | memory
	DiskPath       string // base directory of the disk store
	DiskCacheBytes uint64 // diskv read cache, 0 disables it
	SQLitePath     string // database file of the sqlite store

	// Redis
	RedisAddr           string        // ex: "localhost:6379"
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisDT             time.Duration // dial timeout
	RedisRT             time.Duration // read timeout
	RedisWT             time.Duration // write timeout
	RedisMaxWait        time.Duration // max wait between retries
	RedisPingTimeout    time.Duration // timeout for each ping attempt
	RedisPoolSize       int
	RedisConnectTimeout time.Duration // total time to retry connecting
	RedisRetryInterval  time.Duration // initial wait between retries, doubled each time
	RedisWarnThreshold  int

	// Editing sessions
	AutosaveCooldown     time.Duration // debounce window before an edit is saved
	SessionIdleTTL       time.Duration // idle workspaces older than this are flushed and evicted
	SessionSweepInterval time.Duration
	CatalogSyncInterval  time.Duration // 0 disables the periodic resync

	ArchiveFile     string        // optional YAML archive imported at start
	ArchiveInterval time.Duration // 0 = import once plus manual trigger

	APIToken     string   // optional shared token checked against X-Daylog-Token
	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict admin routes to specific IPs/CIDRs
	TrustProxy   bool     // true => trust X-Forwarded-For headers

	RateBurst  int
	RatePerMin int
}

// Load reads the optional dotenv file then the environment.
// Real environment variables win over the file.
func Load() *Config {
	loadEnvFile(getenv("DAYLOG_ENV_FILE", ""))

	cfg := &Config{
		ListenPort:      getenv("DAYLOG_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("DAYLOG_SHUTDOWN_TIMEOUT", 5*time.Second),

		LogLevel:  getenv("DAYLOG_LOG_LEVEL", "info"),
		PrettyLog: mustBool("DAYLOG_PRETTY_LOG", true),

		Store:          strings.ToLower(getenv("DAYLOG_STORE", StoreRedis)),
		DiskPath:       getenvPath("DAYLOG_DISK_PATH", "./data/entries"),
		DiskCacheBytes: uint64(max(getenvInt("DAYLOG_DISK_CACHE_BYTES", 4<<20), 0)),
		SQLitePath:     getenvPath("DAYLOG_SQLITE_PATH", "./data/daylog.db"),

		RedisUser:           getenv("DAYLOG_REDIS_USERNAME", ""),
		RedisPassword:       getenv("DAYLOG_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("DAYLOG_REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),

		AutosaveCooldown:     mustDuration("DAYLOG_AUTOSAVE_COOLDOWN", time.Second),
		SessionIdleTTL:       mustDuration("DAYLOG_SESSION_IDLE_TTL", 30*time.Minute),
		SessionSweepInterval: mustDuration("DAYLOG_SESSION_SWEEP_INTERVAL", 5*time.Minute),
		CatalogSyncInterval:  mustDuration("DAYLOG_CATALOG_SYNC_INTERVAL", 15*time.Minute),

		ArchiveFile:     getenvPath("DAYLOG_ARCHIVE_FILE", ""),
		ArchiveInterval: mustDuration("DAYLOG_ARCHIVE_INTERVAL", 0),

		APIToken:     getenv("DAYLOG_API_TOKEN", ""),
		AllowedHosts: splitAndTrim(getenv("DAYLOG_ALLOWED_HOSTS", "")),
		AllowedCIDRS: splitAndTrim(getenv("DAYLOG_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("DAYLOG_TRUST_PROXY", false),

		RateBurst:  getenvInt("DAYLOG_RATE_BURST", 60),
		RatePerMin: getenvInt("DAYLOG_RATE_PER_MIN", 600),
	}

	switch cfg.Store {
	case StoreRedis:
		cfg.RedisAddr = requireEnv("DAYLOG_REDIS_ADDR")
	case StoreDisk, StoreSQLite, StoreMemory:
		cfg.RedisAddr = getenv("DAYLOG_REDIS_ADDR", "")
	default:
		panic(fmt.Sprintf("❌ FATAL: DAYLOG_STORE must be one of redis, disk, sqlite, memory (got %q)", cfg.Store))
	}

	if cfg.AutosaveCooldown <= 0 {
		panic("❌ FATAL: DAYLOG_AUTOSAVE_COOLDOWN must be > 0")
	}

	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

// Redacted returns a copy safe to print
func (c Config) Redacted() Config {
	if c.RedisPassword != "" {
		c.RedisPassword = "***REDACTED***"
	}
	if c.RedisUser != "" {
		c.RedisUser = "***REDACTED***"
	}
	if c.APIToken != "" {
		c.APIToken = "***REDACTED***"
	}
	return c
}

// loadEnvFile overlays a dotenv file onto the environment. The default
// file may be missing; an explicitly named one may not.
func loadEnvFile(path string) {
	explicit := path != ""
	if !explicit {
		path = defaultEnvFile
	}

	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return
		}
		panic(fmt.Sprintf("❌ FATAL: cannot load env file %s: %v", path, err))
	}
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getenvPath is getenv with a leading "~" expanded to the home directory
func getenvPath(key, def string) string {
	p, err := homedir.Expand(getenv(key, def))
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: %s: %v", key, err))
	}
	return p
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
