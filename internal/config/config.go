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
)

// ServerConfig captures all tunable parameters for the dispatch process.
// Values come from the environment, optionally seeded from a .env file, with
// defaults that let the binary run locally on in-memory stores.
type ServerConfig struct {
	HTTPAddr        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	RedisAddr     string
	RedisPassword string
	RedisGeoKey   string

	KafkaBrokers       []string
	KafkaLocationTopic string
	KafkaGroup         string
	KafkaEventsTopic   string

	PGDSN         string
	RunMigrations bool

	StripeAPIKey string

	OSRMURL     string
	ETASpeedMps float64
	ETACacheTTL time.Duration

	LogLevel     string
	AdminAPIKeys []string

	AssignmentEnabled   bool
	StaleAfter          time.Duration
	OfferTimeout        time.Duration
	MaxDistanceM        float64
	PrioritizeProximity bool
	PrioritizeRating    bool
	MaxAttempts         int
	RequeueInterval     time.Duration
	OrderRetention      time.Duration
	ZoneRefreshInterval time.Duration
	DefaultDeliveryFee  float64
	EventQueueSize      int
}

func defaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPAddr:            ":8080",
		ReadTimeout:         5 * time.Second,
		WriteTimeout:        10 * time.Second,
		IdleTimeout:         120 * time.Second,
		ShutdownTimeout:     15 * time.Second,
		RedisGeoKey:         "riders_geo",
		KafkaLocationTopic:  "rider-locations",
		KafkaGroup:          "delivery-dispatch",
		KafkaEventsTopic:    "order-events",
		ETASpeedMps:         8,
		ETACacheTTL:         5 * time.Minute,
		LogLevel:            "info",
		AssignmentEnabled:   true,
		StaleAfter:          90 * time.Second,
		OfferTimeout:        15 * time.Second,
		MaxDistanceM:        5000,
		PrioritizeProximity: true,
		PrioritizeRating:    true,
		RequeueInterval:     10 * time.Second,
		OrderRetention:      time.Hour,
		ZoneRefreshInterval: 30 * time.Second,
		EventQueueSize:      1024,
	}
}

// LoadServerConfig reads .env if present, then the environment. Parse and
// validation errors are collected and returned together.
func LoadServerConfig() (ServerConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return ServerConfig{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := defaultServerConfig()
	var errs []error

	setStringFromEnv(&cfg.HTTPAddr, "HTTP_ADDR")
	setDurationFromEnv(&cfg.ReadTimeout, "HTTP_READ_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.WriteTimeout, "HTTP_WRITE_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.IdleTimeout, "HTTP_IDLE_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.ShutdownTimeout, "HTTP_SHUTDOWN_TIMEOUT", &errs)

	cfg.RedisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	setStringFromEnv(&cfg.RedisGeoKey, "REDIS_GEO_KEY")

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	}
	setStringFromEnv(&cfg.KafkaLocationTopic, "KAFKA_LOCATION_TOPIC")
	setStringFromEnv(&cfg.KafkaGroup, "KAFKA_GROUP")
	setStringFromEnv(&cfg.KafkaEventsTopic, "KAFKA_EVENTS_TOPIC")

	cfg.PGDSN = os.Getenv("PG_DSN")
	cfg.RunMigrations = strings.EqualFold(os.Getenv("MIGRATE"), "true")
	cfg.StripeAPIKey = os.Getenv("STRIPE_API_KEY")

	setStringFromEnv(&cfg.OSRMURL, "OSRM_URL")
	setFloatFromEnv(&cfg.ETASpeedMps, "ETA_SPEED_MPS", &errs)
	setDurationFromEnv(&cfg.ETACacheTTL, "ETA_CACHE_TTL", &errs)

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if keys := os.Getenv("ADMIN_API_KEYS"); keys != "" {
		cfg.AdminAPIKeys = splitAndTrim(keys)
	}

	setBoolFromEnv(&cfg.AssignmentEnabled, "ASSIGNMENT_ENABLED", &errs)
	setDurationFromEnv(&cfg.StaleAfter, "DISPATCH_STALE_AFTER", &errs)
	setDurationFromEnv(&cfg.OfferTimeout, "DISPATCH_OFFER_TIMEOUT", &errs)
	setFloatFromEnv(&cfg.MaxDistanceM, "DISPATCH_MAX_DISTANCE_M", &errs)
	setBoolFromEnv(&cfg.PrioritizeProximity, "DISPATCH_PRIORITIZE_PROXIMITY", &errs)
	setBoolFromEnv(&cfg.PrioritizeRating, "DISPATCH_PRIORITIZE_RATING", &errs)
	setIntFromEnv(&cfg.MaxAttempts, "DISPATCH_MAX_ATTEMPTS", &errs)
	setDurationFromEnv(&cfg.RequeueInterval, "DISPATCH_REQUEUE_INTERVAL", &errs)
	setDurationFromEnv(&cfg.OrderRetention, "DISPATCH_ORDER_RETENTION", &errs)
	setDurationFromEnv(&cfg.ZoneRefreshInterval, "ZONE_REFRESH_INTERVAL", &errs)
	setFloatFromEnv(&cfg.DefaultDeliveryFee, "DEFAULT_DELIVERY_FEE", &errs)
	setIntFromEnv(&cfg.EventQueueSize, "EVENT_QUEUE_SIZE", &errs)

	errs = append(errs, cfg.validate()...)
	return cfg, errors.Join(errs...)
}

func (c ServerConfig) validate() []error {
	var errs []error
	if c.StaleAfter <= 0 {
		errs = append(errs, fmt.Errorf("DISPATCH_STALE_AFTER must be > 0"))
	}
	if c.OfferTimeout <= 0 {
		errs = append(errs, fmt.Errorf("DISPATCH_OFFER_TIMEOUT must be > 0"))
	}
	if c.MaxDistanceM <= 0 {
		errs = append(errs, fmt.Errorf("DISPATCH_MAX_DISTANCE_M must be > 0"))
	}
	if c.MaxAttempts < 0 {
		errs = append(errs, fmt.Errorf("DISPATCH_MAX_ATTEMPTS must be >= 0"))
	}
	if c.RequeueInterval <= 0 {
		errs = append(errs, fmt.Errorf("DISPATCH_REQUEUE_INTERVAL must be > 0"))
	}
	if c.ZoneRefreshInterval <= 0 {
		errs = append(errs, fmt.Errorf("ZONE_REFRESH_INTERVAL must be > 0"))
	}
	if c.ETASpeedMps <= 0 {
		errs = append(errs, fmt.Errorf("ETA_SPEED_MPS must be > 0"))
	}
	if c.DefaultDeliveryFee < 0 {
		errs = append(errs, fmt.Errorf("DEFAULT_DELIVERY_FEE must be >= 0"))
	}
	return errs
}

func setDurationFromEnv(target *time.Duration, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = d
	}
}

func setFloatFromEnv(target *float64, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = f
	}
}

func setIntFromEnv(target *int, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = i
	}
}

func setBoolFromEnv(target *bool, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = b
	}
}

func setStringFromEnv(target *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*target = v
	}
}

func splitAndTrim(v string) []string {
	raw := strings.Split(v, ",")
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}
