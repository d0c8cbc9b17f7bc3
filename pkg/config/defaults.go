// Package config provides centralized default values for LeadPulse
package config

import (
	"bufio"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

var envLoaded sync.Once

func loadEnvFile() {
	envLoaded.Do(func() {
		file, err := os.Open(".env")
		if err != nil {
			return
		}
		defer file.Close()

		log.Println("Loading configuration overrides from .env file...")
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())

			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}

			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}

			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])

			if os.Getenv(key) == "" {
				os.Setenv(key, value)
			}
		}
	})
}

func getEnvInt(key string, defaultValue int) int {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.Atoi(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		if val != defaultValue {
			log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
		}
		return val
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := time.ParseDuration(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

var (
	// Server Configuration
	Port               string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration

	// Profile Storage
	StorageDriver string // "sqlite3" for local files, "libsql" for a remote Turso database
	StorageDSN    string

	// Page Session Tracking
	TimeTickInterval    time.Duration // repeating tick that applies elapsed-time deltas
	FrameInterval       time.Duration // scroll evaluation coalescing window
	MaxTimeDeltaSeconds int           // deltas above this are discarded, not clamped
	MaxSessionSnapshots int           // per-page session history ring buffer size

	// Notifications
	ToastStagger     time.Duration // gap between simultaneously unlocked achievement toasts
	QualifiedDelay   time.Duration // delay before the qualified-lead widget is surfaced
	LeadAlertEnabled bool

	// SSE Configuration
	MaxNotificationConnections  int
	SSEHeartbeatIntervalSeconds int

	// SysOp Dashboard
	JWTSecret         string
	SysOpPasswordHash string
	SessionMapTick    time.Duration

	// Observability
	SlowOperationThreshold time.Duration
)

func init() {
	loadEnvFile()

	// Server Configuration
	Port = getEnvString("PORT", "8080")
	ServerReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second)
	ServerIdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)

	// Profile Storage
	StorageDriver = getEnvString("STORAGE_DRIVER", "sqlite3")
	StorageDSN = getEnvString("STORAGE_DSN", "leadpulse.db")

	// Page Session Tracking
	TimeTickInterval = getEnvDuration("TIME_TICK_INTERVAL", 10*time.Second)
	FrameInterval = getEnvDuration("FRAME_INTERVAL", 16*time.Millisecond)
	MaxTimeDeltaSeconds = getEnvInt("MAX_TIME_DELTA_SECONDS", 300)
	MaxSessionSnapshots = getEnvInt("MAX_SESSION_SNAPSHOTS", 10)

	// Notifications
	ToastStagger = getEnvDuration("TOAST_STAGGER", 1500*time.Millisecond)
	QualifiedDelay = getEnvDuration("QUALIFIED_WIDGET_DELAY", 2*time.Second)
	LeadAlertEnabled = getEnvString("LEAD_ALERT_ENABLED", "false") == "true"

	// SSE Configuration
	MaxNotificationConnections = getEnvInt("MAX_NOTIFICATION_CONNECTIONS", 3)
	SSEHeartbeatIntervalSeconds = getEnvInt("SSE_HEARTBEAT_INTERVAL_SECONDS", 30)

	// SysOp Dashboard
	JWTSecret = getEnvString("JWT_SECRET", "")
	SysOpPasswordHash = getEnvString("SYSOP_PASSWORD_HASH", "")
	SessionMapTick = getEnvDuration("SESSION_MAP_TICK", 20*time.Second)

	// Observability
	SlowOperationThreshold = getEnvDuration("SLOW_OPERATION_THRESHOLD", 100*time.Millisecond)
}
