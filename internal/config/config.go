package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	OIDC      OIDCConfig
	Payment   PaymentConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Kafka     KafkaConfig
	MinIO     MinIOConfig
	LogLevel  string
}

type ServerConfig struct {
	Port            string
	Host            string
	Environment     string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// Addr is the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Enabled reports whether a Redis host was configured.
func (r RedisConfig) Enabled() bool { return r.Host != "" }

func (r RedisConfig) Addr() string { return r.Host + ":" + r.Port }

type JWTConfig struct {
	Secret         string
	AccessTokenTTL time.Duration
}

// OIDCConfig points at the identity provider whose ID tokens back POST /jwt.
// Both fields empty disables the check.
type OIDCConfig struct {
	Issuer   string
	ClientID string
}

func (o OIDCConfig) Enabled() bool { return o.Issuer != "" && o.ClientID != "" }

type PaymentConfig struct {
	SecretKey string
	Currency  string
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	URLExpiry time.Duration
}

func (m MinIOConfig) Enabled() bool { return m.Endpoint != "" }

// ErrMissingSecret is returned when ACCESS_TOKEN_SECRET is not set.
var ErrMissingSecret = errors.New("ACCESS_TOKEN_SECRET is required")

// LoadConfig loads configuration from environment variables and an optional .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "5000")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_ENVIRONMENT", "development")
	v.SetDefault("SERVER_READ_TIMEOUT", 30*time.Second)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 30*time.Second)
	v.SetDefault("SERVER_REQUEST_TIMEOUT", 15*time.Second)
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second)
	v.SetDefault("MONGODB_DATABASE", "aircncDB")
	v.SetDefault("MONGODB_TIMEOUT", 10*time.Second)
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("JWT_ACCESS_TOKEN_TTL", time.Hour)
	v.SetDefault("PAYMENT_CURRENCY", "usd")
	v.SetDefault("RATE_LIMIT_ENABLED", false)
	v.SetDefault("RATE_LIMIT_USE_REDIS", false)
	v.SetDefault("RATE_LIMIT_RPS", 10.0)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("KAFKA_TOPIC", "aircnc.events")
	v.SetDefault("MINIO_BUCKET", "aircnc-rooms")
	v.SetDefault("MINIO_URL_EXPIRY", 24*time.Hour)
	v.SetDefault("LOG_LEVEL", "info")

	// older deployments spell the key PAYMENT_PRIVET_KEY
	_ = v.BindEnv("PAYMENT_PRIVATE_KEY", "PAYMENT_PRIVATE_KEY", "PAYMENT_PRIVET_KEY")

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetString("PORT"),
			Host:            v.GetString("SERVER_HOST"),
			Environment:     v.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:     v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("SERVER_WRITE_TIMEOUT"),
			RequestTimeout:  v.GetDuration("SERVER_REQUEST_TIMEOUT"),
			ShutdownTimeout: v.GetDuration("SERVER_SHUTDOWN_TIMEOUT"),
		},
		MongoDB: MongoDBConfig{
			URI:      mongoURI(v),
			Database: v.GetString("MONGODB_DATABASE"),
			Timeout:  v.GetDuration("MONGODB_TIMEOUT"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:         v.GetString("ACCESS_TOKEN_SECRET"),
			AccessTokenTTL: v.GetDuration("JWT_ACCESS_TOKEN_TTL"),
		},
		OIDC: OIDCConfig{
			Issuer:   v.GetString("OIDC_ISSUER"),
			ClientID: v.GetString("OIDC_CLIENT_ID"),
		},
		Payment: PaymentConfig{
			SecretKey: v.GetString("PAYMENT_PRIVATE_KEY"),
			Currency:  strings.ToLower(v.GetString("PAYMENT_CURRENCY")),
		},
		RateLimit: RateLimitConfig{
			Enabled:       v.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      v.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         v.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(v.GetString("KAFKA_BROKERS")),
			Topic:   v.GetString("KAFKA_TOPIC"),
		},
		MinIO: MinIOConfig{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: v.GetString("MINIO_SECRET_KEY"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
			Bucket:    v.GetString("MINIO_BUCKET"),
			URLExpiry: v.GetDuration("MINIO_URL_EXPIRY"),
		},
		LogLevel: v.GetString("LOG_LEVEL"),
	}

	if cfg.JWT.Secret == "" {
		return nil, ErrMissingSecret
	}
	if cfg.JWT.AccessTokenTTL <= 0 {
		return nil, fmt.Errorf("JWT_ACCESS_TOKEN_TTL must be positive, got %s", cfg.JWT.AccessTokenTTL)
	}
	return cfg, nil
}

// mongoURI prefers MONGODB_URI and otherwise builds an Atlas SRV URI from
// USER_DB, USER_PASS and MONGODB_HOST. Empty means "no MongoDB configured".
func mongoURI(v *viper.Viper) string {
	if uri := v.GetString("MONGODB_URI"); uri != "" {
		return uri
	}
	user, pass, host := v.GetString("USER_DB"), v.GetString("USER_PASS"), v.GetString("MONGODB_HOST")
	if user == "" || host == "" {
		return ""
	}
	u := url.URL{
		Scheme:   "mongodb+srv",
		User:     url.UserPassword(user, pass),
		Host:     host,
		Path:     "/",
		RawQuery: "retryWrites=true&w=majority",
	}
	return u.String()
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
