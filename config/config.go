package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Analytics  AnalyticsConfig  `yaml:"analytics"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port int `yaml:"port"`
	// WebhookToken is the bearer secret the sensor vendor must present on POST /update.
	WebhookToken string `yaml:"webhook_token"`
	// IngestEventsPerMinute caps how many events may be persisted in any trailing
	// 60-second window before further webhooks are rejected with 429.
	IngestEventsPerMinute int64   `yaml:"ingest_events_per_minute"`
	RateLimitPerSec       float64 `yaml:"rate_limit_per_sec"`
	CacheTTLSeconds       int     `yaml:"cache_ttl_seconds"`
}

// AnalyticsConfig holds the tunable constants of the analytics engine.
type AnalyticsConfig struct {
	// UTCOffsetHours is a fixed local-time correction applied before any
	// hour-of-day or day-of-week bucketing. It is deliberately a static
	// offset, not a timezone database lookup, and does not follow DST.
	// Unset defaults to -7, the offset of the original deployment site.
	UTCOffsetHours *int          `yaml:"utc_offset_hours"`
	UTCOffset      time.Duration `yaml:"-"` // Ignored by YAML parser
	// OccupiedHoursPerEvent is the heuristic duration credited to each
	// OCCUPIED event when estimating total occupied hours.
	OccupiedHoursPerEvent float64 `yaml:"occupied_hours_per_event"`
	// ColdStartMinEvents is the total-event threshold below which the
	// heatmap and best-times endpoints serve the synthetic schedule.
	ColdStartMinEvents int64 `yaml:"cold_start_min_events"`
}

// MQTTConfig holds the optional ChirpStack uplink subscription settings.
type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Server.IngestEventsPerMinute <= 0 {
		cfg.Server.IngestEventsPerMinute = 120
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 30
	}

	if cfg.Analytics.OccupiedHoursPerEvent <= 0 {
		cfg.Analytics.OccupiedHoursPerEvent = 0.5
	}
	if cfg.Analytics.ColdStartMinEvents <= 0 {
		cfg.Analytics.ColdStartMinEvents = 10
	}
	offsetHours := -7
	if cfg.Analytics.UTCOffsetHours != nil {
		offsetHours = *cfg.Analytics.UTCOffsetHours
	}
	cfg.Analytics.UTCOffset = time.Duration(offsetHours) * time.Hour

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	return &cfg, nil
}
