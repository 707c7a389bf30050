// Package config loads squadlink settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full process configuration. Empty backing-service URLs fall
// back to in-process implementations so the server runs without
// infrastructure in development.
type Config struct {
	Server      Server
	Postgres    Postgres
	Redis       Redis
	Kafka       Kafka
	Linking     Linking
	RoleArchive RoleArchive
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"SQUADLINK_ADDR" envDefault:":8080"`
	JWTSigningKey   string        `env:"JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	JWTIssuer       string        `env:"JWT_ISSUER" envDefault:"squadlink"`
	JWTAudience     string        `env:"JWT_AUDIENCE" envDefault:"squadlink-api"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

type Postgres struct {
	URL             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DATABASE_MAX_OPEN_CONNS" envDefault:"20"`
	MaxIdleConns    int           `env:"DATABASE_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DATABASE_CONN_MAX_LIFETIME" envDefault:"30m"`
}

// Redis backs the identity lock, the privilege guard and role archives.
type Redis struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
	LockTTL      time.Duration `env:"IDENTITY_LOCK_TTL" envDefault:"10s"`
}

// Kafka configures the audit outbox relay. No brokers disables the relay.
type Kafka struct {
	Brokers           []string      `env:"KAFKA_BROKERS" envSeparator:","`
	AuditTopic        string        `env:"AUDIT_TOPIC" envDefault:"squadlink.audit"`
	TopicPartitions   int32         `env:"AUDIT_TOPIC_PARTITIONS" envDefault:"6"`
	ReplicationFactor int16         `env:"AUDIT_TOPIC_REPLICATION" envDefault:"1"`
	PollInterval      time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"1s"`
	BatchSize         int           `env:"OUTBOX_BATCH_SIZE" envDefault:"100"`
}

type Linking struct {
	GuardTimeout           time.Duration `env:"PRIVILEGE_GUARD_TIMEOUT" envDefault:"2s"`
	PrivilegedSetKey       string        `env:"PRIVILEGED_SET_KEY" envDefault:"squadlink:privileged"`
	PrivilegedUsers        []string      `env:"PRIVILEGED_USERS" envSeparator:","`
	ConfidenceFloor        float64       `env:"CONFIDENCE_FLOOR" envDefault:"1.0"`
	ResolveMaxRetries      int           `env:"RESOLVE_MAX_RETRIES" envDefault:"5"`
	ResolveRetryBackoff    time.Duration `env:"RESOLVE_RETRY_BACKOFF" envDefault:"25ms"`
	RemediationConcurrency int           `env:"REMEDIATION_CONCURRENCY" envDefault:"8"`
}

type RoleArchive struct {
	Retention time.Duration `env:"ROLE_ARCHIVE_RETENTION" envDefault:"720h"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the environment into a Config and checks cross-field rules.
func Load() (*Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the engine cannot honour.
func (c *Config) Validate() error {
	if c.Linking.ConfidenceFloor != 1.0 {
		return fmt.Errorf("CONFIDENCE_FLOOR is fixed at 1.0, got %v", c.Linking.ConfidenceFloor)
	}
	if c.Linking.GuardTimeout <= 0 {
		return fmt.Errorf("PRIVILEGE_GUARD_TIMEOUT must be positive")
	}
	if c.Linking.ResolveMaxRetries < 1 {
		return fmt.Errorf("RESOLVE_MAX_RETRIES must be at least 1")
	}
	if c.RoleArchive.Retention <= 0 {
		return fmt.Errorf("ROLE_ARCHIVE_RETENTION must be positive")
	}
	if len(c.Kafka.Brokers) > 0 && c.Postgres.URL == "" {
		return fmt.Errorf("KAFKA_BROKERS requires DATABASE_URL: the relay drains the postgres outbox")
	}
	return nil
}
