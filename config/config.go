package config

import (
	"fmt"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	AppName                       string   `env:"APP_NAME" env-default:"fern-api"`
	Port                          int      `env:"PORT" env-default:"3005" validate:"min=1,max=65535"`
	LogLevel                      string   `env:"LOG_LEVEL" env-default:"info" validate:"oneof=debug info warn error"`
	PrettyLogs                    bool     `env:"PRETTY_LOGS" env-default:"false"`
	HttpServerWriteTimeoutSeconds int      `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"120"`
	HttpServerReadTimeoutSeconds  int      `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"30"`
	HttpServerIdleTimeoutSeconds  int      `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" env-default:"10"`
	MaxHeaderBytes                int      `env:"HTTP_SERVER_MAX_HEADER_BYTES" env-default:"64000"` // 64KB
	ReadHeaderTimeoutSeconds      int      `env:"HTTP_SERVER_READ_HEADER_TIMEOUT_SECONDS" env-default:"10"`
	MaxUploadBytes                int      `env:"HTTP_SERVER_MAX_UPLOAD_BYTES" env-default:"52428800"` // 50MB
	AllowOrigins                  []string `env:"HTTP_SERVER_ALLOW_ORIGINS" env-default:"*"`
	AllowMethods                  []string `env:"HTTP_SERVER_ALLOW_METHODS" env-default:"GET,POST"`
	StartupMaxAttempts            int      `env:"STARTUP_MAX_ATTEMPTS" env-default:"5"`

	// Registry
	RegistrySource           string        `env:"REGISTRY_SOURCE" env-default:"directory" validate:"oneof=directory postgres"`
	RegistryDir              string        `env:"REGISTRY_DIR" env-default:"IRS_EO_BMF"`
	RegistryIdentifierColumn string        `env:"REGISTRY_IDENTIFIER_COLUMN" env-default:"ein"`
	RegistryCategoryColumn   string        `env:"REGISTRY_CATEGORY_COLUMN" env-default:"ntee_cd"`
	RegistryRevenueColumn    string        `env:"REGISTRY_REVENUE_COLUMN" env-default:"revenue_amt"`
	RegistryIncomeColumn     string        `env:"REGISTRY_INCOME_COLUMN" env-default:"income_amt"`
	RegistryAssetsColumn     string        `env:"REGISTRY_ASSETS_COLUMN" env-default:"asset_amt"`
	RegistryRefreshInterval  time.Duration `env:"REGISTRY_REFRESH_INTERVAL" env-default:"0s"`
	RegistryImportBatchSize  int           `env:"REGISTRY_IMPORT_BATCH_SIZE" env-default:"1000" validate:"min=1"`

	// PostgreSQL (registry store)
	DatabaseDriver                string        `env:"DB_DRIVER" env-default:"postgres"`
	DatabaseHost                  string        `env:"DB_HOST" env-default:""`
	DatabasePort                  string        `env:"DB_PORT" env-default:"5432"`
	DatabaseUserName              string        `env:"DB_USER_NAME" env-default:""`
	DatabasePassword              string        `env:"DB_PASSWORD" env-default:""`
	DatabaseName                  string        `env:"DB_NAME" env-default:"fern"`
	DatabaseSSLMode               string        `env:"DB_SQL_MODE" env-default:"disable"`
	DatabaseMaxOpenConns          int           `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	DatabaseMaxIdleConns          int           `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	DatabaseConnMaxLifetime       time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"10s"`
	DatabaseMigrationFolderPath   string        `env:"DB_MIGRATION_FOLDER_PATH" env-default:"db/pg"`
	DatabaseMigrationVersion      int           `env:"DB_MIGRATION_VERSION" env-default:"0"`
	DatabaseMigrationForce        int           `env:"DB_MIGRATION_FORCE" env-default:"0"`
	DatabaseMigrationAutoRollback bool          `env:"DB_MIGRATION_AUTO_ROLLBACK" env-default:"true"`

	// Matching
	MatchColumnThreshold int  `env:"MATCH_COLUMN_THRESHOLD" env-default:"60" validate:"min=0,max=100"`
	MatchFuzzyThreshold  int  `env:"MATCH_FUZZY_THRESHOLD" env-default:"85" validate:"min=0,max=100"`
	MatchFuzzyEnabled    bool `env:"MATCH_FUZZY_ENABLED" env-default:"true"`

	// Enrichment (remote lookup service)
	EnrichmentEnabled         bool          `env:"ENRICHMENT_ENABLED" env-default:"true"`
	EnrichmentBaseURL         string        `env:"ENRICHMENT_BASE_URL" env-default:"https://projects.propublica.org/nonprofits/api/v2/organizations" validate:"required,url"`
	EnrichmentFilingBaseURL   string        `env:"ENRICHMENT_FILING_BASE_URL" env-default:"https://projects.propublica.org/nonprofits/organizations" validate:"required,url"`
	EnrichmentMaxConcurrency  int           `env:"ENRICHMENT_MAX_CONCURRENCY" env-default:"20" validate:"min=1"`
	EnrichmentRequestTimeout  time.Duration `env:"ENRICHMENT_REQUEST_TIMEOUT" env-default:"15s"`
	EnrichmentRateLimitRPS    float64       `env:"ENRICHMENT_RATE_LIMIT_RPS" env-default:"0"`
	EnrichmentRateLimitBurst  int           `env:"ENRICHMENT_RATE_LIMIT_BURST" env-default:"10"`
	EnrichmentMaxResponseSize int           `env:"ENRICHMENT_MAX_RESPONSE_SIZE" env-default:"5242880"` // 5MB
	EnrichmentCache           string        `env:"ENRICHMENT_CACHE" env-default:"memory" validate:"oneof=none memory redis"`
	EnrichmentCacheTTL        time.Duration `env:"ENRICHMENT_CACHE_TTL" env-default:"24h"`
	EnrichmentCacheMaxSize    int           `env:"ENRICHMENT_CACHE_MAX_SIZE" env-default:"10000"`

	// Output
	OutputIdentifierColumn string `env:"OUTPUT_IDENTIFIER_COLUMN" env-default:"EIN" validate:"required"`

	// Redis (enrichment cache)
	RedisAddr     string `env:"REDIS_ADDR" env-default:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" env-default:""`
	RedisDB       int    `env:"REDIS_DB" env-default:"0"`

	// Auth
	AuthEnabled   bool   `env:"AUTH_ENABLED" env-default:"false"`
	AuthIssuerURL string `env:"AUTH_ISSUER_URL" env-default:""`
	AuthClientID  string `env:"AUTH_CLIENT_ID" env-default:""`

	// Kafka Producer (run events)
	KafkaEventsEnabled bool     `env:"KAFKA_EVENTS_ENABLED" env-default:"false"`
	KafkaBrokers       []string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaOutputTopic   string   `env:"KAFKA_OUTPUT_TOPIC" env-default:"enrichment-events"`
	KafkaBatchSize     int      `env:"KAFKA_BATCH_SIZE" env-default:"100"`
	KafkaBatchTimeout  int      `env:"KAFKA_BATCH_TIMEOUT_MS" env-default:"100"`
	KafkaRequiredAcks  int      `env:"KAFKA_REQUIRED_ACKS" env-default:"1"`
	KafkaCompression   string   `env:"KAFKA_COMPRESSION" env-default:"snappy"`

	// Tracing
	OtelExporterEndpoint string  `env:"OTEL_EXPORTER_ENDPOINT" env-default:""`
	OtelExporterProtocol string  `env:"OTEL_EXPORTER_PROTOCOL" env-default:"grpc" validate:"oneof=grpc http"`
	OtelExporterInsecure bool    `env:"OTEL_EXPORTER_INSECURE" env-default:"true"`
	OtelSampleRatio      float64 `env:"OTEL_SAMPLE_RATIO" env-default:"1" validate:"min=0,max=1"`
}

// Load reads an optional .env file, binds the environment and validates the result.
func Load() (*Config, error) {
	// a missing .env is fine; the environment wins either way
	_ = godotenv.Load()

	var cfg Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to bind config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks field constraints plus the cross-field rules the tags can't express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.AuthEnabled && (c.AuthIssuerURL == "" || c.AuthClientID == "") {
		return fmt.Errorf("invalid config: AUTH_ISSUER_URL and AUTH_CLIENT_ID are required when AUTH_ENABLED is set")
	}
	if c.RegistrySource == "postgres" && c.DatabaseHost == "" {
		return fmt.Errorf("invalid config: DB_HOST is required when REGISTRY_SOURCE=postgres")
	}
	return nil
}

// DatabaseDSN builds the lib/pq connection string.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DatabaseHost, c.DatabasePort, c.DatabaseUserName, c.DatabasePassword, c.DatabaseName, c.DatabaseSSLMode)
}

// DatabaseURL builds the URL form golang-migrate expects.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DatabaseUserName, c.DatabasePassword, c.DatabaseHost, c.DatabasePort, c.DatabaseName, c.DatabaseSSLMode)
}
