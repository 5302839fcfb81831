package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	pstrings "batchledger/pkg/platform/strings"
)

// Height sources.
const (
	HeightManual = "manual"
	HeightTicker = "ticker"
	HeightRedis  = "redis"
)

// Authority gateway backends.
const (
	AuthorityStatic   = "static"
	AuthorityRedis    = "redis"
	AuthorityPostgres = "postgres"
)

// Fee ledger backends.
const (
	FeeMemory   = "memory"
	FeePostgres = "postgres"
)

// Audit sinks.
const (
	AuditMemory   = "memory"
	AuditKafka    = "kafka"
	AuditPostgres = "postgres"
)

// Server captures process level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
	LogLevel        string
	LogFormat       string

	JWTSigningKey  string
	JWTIssuer      string
	JWTAudience    string
	AdminTokenHash string

	Registry  RegistryConfig
	Height    HeightConfig
	Authority AuthorityConfig
	Fees      FeeConfig
	Audit     AuditConfig

	Redis    RedisConfig
	Postgres PostgresConfig
	Kafka    KafkaConfig
}

// RegistryConfig seeds a fresh registry.
type RegistryConfig struct {
	Capacity         uint64
	MintFee          decimal.Decimal
	AuthorityAddress string
}

type HeightConfig struct {
	Source        string
	BlockInterval time.Duration
	RedisKey      string
}

type AuthorityConfig struct {
	Backend    string
	Principals []string
	RedisKey   string
	// Breaker thresholds around a remote backend.
	FailureThreshold int
	SuccessThreshold int
}

type FeeConfig struct {
	Backend string
	// Opening balance credited to unknown payers in the memory ledger.
	OpeningBalance decimal.Decimal
}

type AuditConfig struct {
	Sink        string
	AsyncBuffer int
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type PostgresConfig struct {
	DSN      string
	MaxConns int32
}

type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
	GroupID    string
}

// FromEnv builds the Server config from environment variables so main stays
// lean. Only malformed values are errors; unset values take defaults.
func FromEnv() (Server, error) {
	var errs []string
	p := envParser{errs: &errs}

	cfg := Server{
		Addr:            envOr("BATCHLEDGER_ADDR", ":8080"),
		ShutdownTimeout: p.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
		LogLevel:        envOr("LOG_LEVEL", "info"),
		LogFormat:       envOr("LOG_FORMAT", "json"),

		// Use a default for development; override in production.
		JWTSigningKey:  envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:      envOr("JWT_ISSUER", "batchledger"),
		JWTAudience:    envOr("JWT_AUDIENCE", "batchledger-api"),
		AdminTokenHash: os.Getenv("ADMIN_TOKEN_HASH"),

		Registry: RegistryConfig{
			Capacity:         p.uint64("REGISTRY_CAPACITY", 100000),
			MintFee:          p.decimal("REGISTRY_MINT_FEE", decimal.NewFromInt(500)),
			AuthorityAddress: os.Getenv("REGISTRY_AUTHORITY_ADDRESS"),
		},
		Height: HeightConfig{
			Source:        envOr("HEIGHT_SOURCE", HeightTicker),
			BlockInterval: p.duration("HEIGHT_BLOCK_INTERVAL", 10*time.Second),
			RedisKey:      envOr("HEIGHT_REDIS_KEY", "batchledger:height"),
		},
		Authority: AuthorityConfig{
			Backend:          envOr("AUTHORITY_BACKEND", AuthorityStatic),
			Principals:       pstrings.SplitList(os.Getenv("AUTHORITY_PRINCIPALS")),
			RedisKey:         envOr("AUTHORITY_REDIS_KEY", "batchledger:authorized"),
			FailureThreshold: p.int("AUTHORITY_BREAKER_FAILURES", 5),
			SuccessThreshold: p.int("AUTHORITY_BREAKER_SUCCESSES", 2),
		},
		Fees: FeeConfig{
			Backend:        envOr("FEE_BACKEND", FeeMemory),
			OpeningBalance: p.decimal("FEE_OPENING_BALANCE", decimal.NewFromInt(1_000_000)),
		},
		Audit: AuditConfig{
			Sink:        envOr("AUDIT_SINK", AuditMemory),
			AsyncBuffer: p.int("AUDIT_ASYNC_BUFFER", 1024),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     p.int("REDIS_POOL_SIZE", 10),
			MinIdleConns: p.int("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  p.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  p.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: p.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{
			DSN:      os.Getenv("DATABASE_URL"),
			MaxConns: int32(p.int("DATABASE_MAX_CONNS", 10)),
		},
		Kafka: KafkaConfig{
			Brokers:    pstrings.SplitList(os.Getenv("KAFKA_BROKERS")),
			AuditTopic: envOr("KAFKA_AUDIT_TOPIC", "batchledger.audit"),
			GroupID:    envOr("KAFKA_AUDIT_GROUP", "batchledger-audit-materializer"),
		},
	}

	if len(errs) > 0 {
		return Server{}, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	if err := cfg.validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// validate checks that every selected backend has what it needs.
func (c Server) validate() error {
	needsRedis := c.Height.Source == HeightRedis || c.Authority.Backend == AuthorityRedis
	needsPostgres := c.Authority.Backend == AuthorityPostgres || c.Fees.Backend == FeePostgres ||
		c.Audit.Sink == AuditPostgres
	switch {
	case !oneOf(c.Height.Source, HeightManual, HeightTicker, HeightRedis):
		return fmt.Errorf("unknown HEIGHT_SOURCE %q", c.Height.Source)
	case !oneOf(c.Authority.Backend, AuthorityStatic, AuthorityRedis, AuthorityPostgres):
		return fmt.Errorf("unknown AUTHORITY_BACKEND %q", c.Authority.Backend)
	case !oneOf(c.Fees.Backend, FeeMemory, FeePostgres):
		return fmt.Errorf("unknown FEE_BACKEND %q", c.Fees.Backend)
	case !oneOf(c.Audit.Sink, AuditMemory, AuditKafka, AuditPostgres):
		return fmt.Errorf("unknown AUDIT_SINK %q", c.Audit.Sink)
	case needsRedis && c.Redis.URL == "":
		return fmt.Errorf("REDIS_URL is required by the selected backends")
	case needsPostgres && c.Postgres.DSN == "":
		return fmt.Errorf("DATABASE_URL is required by the selected backends")
	case c.Audit.Sink == AuditKafka && len(c.Kafka.Brokers) == 0:
		return fmt.Errorf("KAFKA_BROKERS is required when AUDIT_SINK=kafka")
	case c.Height.Source == HeightTicker && c.Height.BlockInterval <= 0:
		return fmt.Errorf("HEIGHT_BLOCK_INTERVAL must be positive")
	}
	return nil
}

func oneOf(v string, options ...string) bool {
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// envParser collects parse errors so FromEnv can report all of them at once.
type envParser struct {
	errs *[]string
}

func (p envParser) fail(key, raw string) {
	*p.errs = append(*p.errs, fmt.Sprintf("%s=%q", key, raw))
}

func (p envParser) int(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(key, raw)
		return fallback
	}
	return v
}

func (p envParser) uint64(key string, fallback uint64) uint64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		p.fail(key, raw)
		return fallback
	}
	return v
}

func (p envParser) duration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(key, raw)
		return fallback
	}
	return v
}

func (p envParser) decimal(key string, fallback decimal.Decimal) decimal.Decimal {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		p.fail(key, raw)
		return fallback
	}
	return v
}
