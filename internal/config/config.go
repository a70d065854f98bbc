package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port            string
	Environment     string
	DatabaseURL     string // empty runs on in-memory stores
	DatabaseMaxConn int32
	SupabaseURL     string
	SupabaseJWKSURL string // Constructed from SupabaseURL + /auth/v1/.well-known/jwks.json
	DevUserID       string // dev only: requests without a token act as this user
	CORSOrigins     []string
	TablePrefix     string

	// Folder sessions
	NotifyChannel         string
	NotificationQueueSize int
	CoalesceWindow        time.Duration
	EventBuffer           int
	SSEKeepAliveInterval  time.Duration
	ImportRoot            string // directory path imports are confined to; empty disables them

	// Logging
	LogDir      string
	LogMaxFiles int
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")
	supabaseURL := strings.TrimRight(getEnv("SUPABASE_URL", ""), "/")

	jwksURL := ""
	if supabaseURL != "" {
		jwksURL = supabaseURL + "/auth/v1/.well-known/jwks.json"
	}

	devUserID := getEnv("DEV_USER_ID", "")
	if env == "prod" {
		devUserID = ""
	}

	return &Config{
		Port:            getEnv("PORT", "8080"),
		Environment:     env,
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		DatabaseMaxConn: int32(getInt("DATABASE_MAX_CONNS", 10)),
		SupabaseURL:     supabaseURL,
		SupabaseJWKSURL: jwksURL,
		DevUserID:       devUserID,
		CORSOrigins:     splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		TablePrefix:     getTablePrefix(env),

		NotifyChannel:         getEnv("FOLDER_NOTIFY_CHANNEL", getTablePrefix(env)+"folder_snapshots"),
		NotificationQueueSize: getInt("NOTIFICATION_QUEUE_SIZE", 64),
		CoalesceWindow:        getDuration("NOTIFY_COALESCE_WINDOW", 50*time.Millisecond),
		EventBuffer:           getInt("FOLDER_EVENT_BUFFER", 100),
		SSEKeepAliveInterval:  getDuration("SSE_KEEPALIVE_INTERVAL", 15*time.Second),
		ImportRoot:            getEnv("IMPORT_ROOT", ""),

		LogDir:      getEnv("LOG_DIR", ""),
		LogMaxFiles: getInt("LOG_MAX_FILES", 10),
	}
}

// IsDev reports whether debug logging and dev auth are allowed
func (c *Config) IsDev() bool {
	return c.Environment == "dev"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

// getDuration accepts Go durations ("250ms"); "0" is allowed and disables the feature it sets
func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return defaultValue
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
