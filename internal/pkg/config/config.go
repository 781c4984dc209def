package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port        string `env:"PORT,         default=8080"`
	Env         string `env:"ENV,          default=development"`
	LogLevel    string `env:"LOG_LEVEL,    default=info"`
	FrontendURL string `env:"FRONTEND_URL, default=http://localhost:3000"`

	Mongo    MongoConfig
	Redis    RedisConfig
	Keycloak KeycloakConfig
	SMTP     SMTPConfig
	Reset    ResetConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=account_service"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// KeycloakConfig holds the identity-provider endpoints plus the fixed
// administrative credentials used for remote provisioning.
type KeycloakConfig struct {
	BaseURL       string        `env:"KEYCLOAK_URL,            default=http://localhost:8180"`
	Realm         string        `env:"KEYCLOAK_REALM,          default=accounts"`
	ClientID      string        `env:"KEYCLOAK_CLIENT_ID,      default=account-service"`
	ClientSecret  string        `env:"KEYCLOAK_CLIENT_SECRET"`
	AdminUsername string        `env:"KEYCLOAK_ADMIN_USERNAME"`
	AdminPassword string        `env:"KEYCLOAK_ADMIN_PASSWORD"`
	Timeout       time.Duration `env:"KEYCLOAK_TIMEOUT,        default=10s"`
}

type SMTPConfig struct {
	Host     string `env:"SMTP_HOST, default=localhost"`
	Port     int    `env:"SMTP_PORT, default=25"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM, default=no-reply@localhost"`
}

type ResetConfig struct {
	TokenTTL time.Duration `env:"RESET_TOKEN_TTL, default=30m"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
