package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Auth     AuthConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Elastic  ElasticsearchConfig
}

type ServerConfig struct {
	AppEnv          string
	HTTPPort        string
	GRPCPort        string
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type DatabaseConfig struct {
	Driver     string // "postgres" or "sqlite"
	Postgres   PostgresConfig
	SQLitePath string
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	ConnMaxIdleTime int
}

type JWTConfig struct {
	SecretKey      string
	AccessTokenTTL time.Duration
}

type AuthConfig struct {
	BcryptCost int
}

type RedisConfig struct {
	Addr         string // empty disables the inventory cache
	Password     string
	DB           int
	InventoryTTL time.Duration
}

type KafkaConfig struct {
	Enabled       bool
	Brokers       []string
	DonationTopic string
	GroupID       string
	LedgerTopic   string
}

type ElasticsearchConfig struct {
	Addresses  []string // empty disables donor search indexing
	Username   string
	Password   string
	DonorIndex string
}

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv:          getEnv("APP_ENV", "dev"),
			HTTPPort:        getEnv("HTTP_PORT", ":8080"),
			GRPCPort:        getEnv("GRPC_PORT", ":8082"),
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "debug"),
			Encoding:          getEnv("LOGGER_ENCODING", "console"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		Database: DatabaseConfig{
			Driver: getEnv("DB_DRIVER", "postgres"),
			Postgres: PostgresConfig{
				Host:            getEnv("POSTGRES_HOST", "localhost"),
				Port:            getEnv("POSTGRES_PORT", "5433"),
				User:            getEnv("POSTGRES_USER", "omnipos"),
				Password:        getEnv("POSTGRES_PASSWORD", "omnipos"),
				DBName:          getEnv("POSTGRES_DB", "omnipos_bloodbank"),
				SSLMode:         getEnv("POSTGRES_SSLMODE", "disable"),
				MaxOpenConns:    getEnvInt("POSTGRES_MAX_OPEN_CONNS", 10),
				MaxIdleConns:    getEnvInt("POSTGRES_MAX_IDLE_CONNS", 5),
				ConnMaxLifetime: getEnvInt("POSTGRES_CONN_MAX_LIFETIME", 300),
				ConnMaxIdleTime: getEnvInt("POSTGRES_CONN_MAX_IDLE_TIME", 60),
			},
			SQLitePath: getEnv("SQLITE_PATH", "bloodbank.db"),
		},
		JWT: JWTConfig{
			SecretKey:      getEnv("JWT_SECRET_KEY", "your-secret-key-change-this-in-prod"),
			AccessTokenTTL: getEnvDuration("JWT_ACCESS_TOKEN_TTL", 15*time.Minute),
		},
		Auth: AuthConfig{
			BcryptCost: getEnvInt("AUTH_BCRYPT_COST", 12),
		},
		Redis: RedisConfig{
			Addr:         getEnv("REDIS_ADDR", "localhost:6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvInt("REDIS_DB", 0),
			InventoryTTL: getEnvDuration("REDIS_INVENTORY_TTL", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Enabled:       getEnvBool("KAFKA_ENABLED", false),
			Brokers:       getEnvSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			DonationTopic: getEnv("KAFKA_TOPIC_DONATIONS", "blooddrive.donations"),
			GroupID:       getEnv("KAFKA_GROUP_LEDGER", "bloodbank-ledger"),
			LedgerTopic:   getEnv("KAFKA_TOPIC_LEDGER", "bloodbank.ledger.events"),
		},
		Elastic: ElasticsearchConfig{
			Addresses:  getEnvSlice("ELASTICSEARCH_ADDRESSES", []string{"http://localhost:9200"}),
			Username:   getEnv("ELASTICSEARCH_USERNAME", ""),
			Password:   getEnv("ELASTICSEARCH_PASSWORD", ""),
			DonorIndex: getEnv("ELASTICSEARCH_DONOR_INDEX", "donors"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration accepts Go duration strings ("90s") or plain seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if i, err := strconv.Atoi(value); err == nil {
		return time.Duration(i) * time.Second
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok {
		if value == "" {
			return nil
		}
		return strings.Split(value, ",")
	}
	return fallback
}
