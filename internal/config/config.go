package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	ListenAddr string
	BaseURL    string

	DB struct {
		DSN string
	}

	CalDAV struct {
		ServerURL  string
		Username   string
		Password   string
		Collection string
	}

	Publish struct {
		UIDHost       string
		BatchSize     int
		RetryAttempts int
		CronSchedule  string
	}

	PrometheusEnabled bool
	TrustedProxies    []string
}

func Load() (*Config, error) {
	cfg := &Config{}

	cfg.ListenAddr = getenvDefault("APP_LISTEN_ADDR", ":8080")
	cfg.BaseURL = getenvDefault("APP_BASE_URL", "http://localhost:8080")
	cfg.DB.DSN = os.Getenv("APP_DB_DSN")

	if cfg.DB.DSN == "" {
		host := os.Getenv("APP_DB_HOST")
		name := os.Getenv("APP_DB_NAME")
		user := os.Getenv("APP_DB_USER")
		password := os.Getenv("APP_DB_PASSWORD")
		port := getenvDefault("APP_DB_PORT", "5432")
		sslmode := getenvDefault("APP_DB_SSLMODE", "disable")

		var missing []string
		if host == "" {
			missing = append(missing, "APP_DB_HOST")
		}
		if name == "" {
			missing = append(missing, "APP_DB_NAME")
		}
		if user == "" {
			missing = append(missing, "APP_DB_USER")
		}
		if password == "" {
			missing = append(missing, "APP_DB_PASSWORD")
		}

		if len(missing) == 0 {
			cfg.DB.DSN = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, password, host, port, name, sslmode)
		}
	}

	cfg.CalDAV.ServerURL = getenvDefault("APP_CALDAV_SERVER_URL", "http://127.0.0.1:5232")
	cfg.CalDAV.Username = getenvDefault("APP_CALDAV_USERNAME", "admin")
	cfg.CalDAV.Password = os.Getenv("APP_CALDAV_PASSWORD")
	cfg.CalDAV.Collection = getenvDefault("APP_CALDAV_COLLECTION", "calendar")

	cfg.Publish.UIDHost = getenvDefault("APP_PUBLISH_UID_HOST", "localhost")
	cfg.Publish.BatchSize = getenvInt("APP_PUBLISH_BATCH_SIZE", 5)
	cfg.Publish.RetryAttempts = getenvInt("APP_PUBLISH_RETRY_ATTEMPTS", 3)
	cfg.Publish.CronSchedule = getenvDefault("APP_PUBLISH_CRON_SCHEDULE", "*/1 * * * *")

	cfg.PrometheusEnabled = getenvBool("APP_PROMETHEUS_ENDPOINT_ENABLED", false)
	cfg.TrustedProxies = getenvList("APP_TRUSTED_PROXIES")

	if cfg.DB.DSN == "" {
		return nil, errors.New("APP_DB_DSN is required (or set APP_DB_HOST, APP_DB_NAME, APP_DB_USER, and APP_DB_PASSWORD)")
	}
	if cfg.CalDAV.Password == "" {
		return nil, errors.New("APP_CALDAV_PASSWORD is required")
	}
	if cfg.Publish.BatchSize < 1 {
		return nil, fmt.Errorf("APP_PUBLISH_BATCH_SIZE must be at least 1 (got %d)", cfg.Publish.BatchSize)
	}
	if cfg.Publish.RetryAttempts < 1 {
		return nil, fmt.Errorf("APP_PUBLISH_RETRY_ATTEMPTS must be at least 1 (got %d)", cfg.Publish.RetryAttempts)
	}

	if len(cfg.TrustedProxies) == 0 {
		fmt.Println("WARNING: No APP_TRUSTED_PROXIES configured. TownCal will trust all proxies - Not recommended for public environments.")
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return def
}

func getenvList(key string) []string {
	if v := os.Getenv(key); v != "" {
		var result []string
		for _, item := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return nil
}
