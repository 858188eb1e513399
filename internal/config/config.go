// Package config reads the panel's environment-based settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds environment-based settings. Every variable has a default
// suitable for a single panel keeping its state under ./data; redis and
// MQTT stay off until an address is supplied.
type Config struct {
	DataDir       string
	SchedulePath  string
	ArchiveDir    string
	HistoryDriver string
	HistoryDSN    string
	Retention     int
	Screens       string
	TickInterval  time.Duration

	RedisAddress       string
	RedisUsername      string
	RedisPassword      string
	AvailabilityPrefix string

	MQTTBroker      string
	MQTTTopicPrefix string

	LogLevel string
}

// Load reads configuration from ROTOR_* environment variables.
func Load() (*Config, error) {
	dataDir := getenv("ROTOR_DATA_DIR", "./data")
	cfg := &Config{
		DataDir:       dataDir,
		SchedulePath:  getenv("ROTOR_SCHEDULE_PATH", filepath.Join(dataDir, "schedule.json")),
		ArchiveDir:    getenv("ROTOR_ARCHIVE_DIR", filepath.Join(dataDir, "versions")),
		HistoryDriver: getenv("ROTOR_HISTORY_DRIVER", "sqlite"),
		HistoryDSN:    os.Getenv("ROTOR_HISTORY_DSN"),
		Screens:       os.Getenv("ROTOR_SCREENS"),

		RedisAddress:       os.Getenv("ROTOR_REDIS_ADDRESS"),
		RedisUsername:      os.Getenv("ROTOR_REDIS_USERNAME"),
		RedisPassword:      os.Getenv("ROTOR_REDIS_PASSWORD"),
		AvailabilityPrefix: getenv("ROTOR_AVAILABILITY_PREFIX", "rotor:avail:"),

		MQTTBroker:      os.Getenv("ROTOR_MQTT_BROKER"),
		MQTTTopicPrefix: getenv("ROTOR_MQTT_TOPIC_PREFIX", "rotor"),

		LogLevel: getenv("ROTOR_LOG_LEVEL", "info"),
	}

	var err error
	// 0 keeps the store's own retention default
	if cfg.Retention, err = intVar("ROTOR_RETENTION", 0); err != nil {
		return nil, err
	}
	if cfg.TickInterval, err = durationVar("ROTOR_TICK_INTERVAL", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.HistoryDriver == "postgres" && cfg.HistoryDSN == "" {
		return nil, fmt.Errorf("ROTOR_HISTORY_DSN is required with the postgres driver")
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func intVar(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func durationVar(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
