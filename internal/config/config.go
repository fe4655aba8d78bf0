package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	LNBits   LNBitsConfig
	Platform PlatformConfig
	Invoice  InvoiceConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds record-store configuration. The default driver is a
// sqlite file so pending invoices survive process restart without external
// infrastructure; postgres is available for multi-node deployments.
type DatabaseConfig struct {
	Driver   string // "sqlite" or "postgres"
	Path     string // sqlite file path
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// PostgresURL returns the postgres connection URL
func (c DatabaseConfig) PostgresURL() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + strconv.Itoa(c.Port) + "/" + c.DBName + "?sslmode=" + c.SSLMode
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL      string
	Password string
}

// AuthConfig holds operator API authentication settings
type AuthConfig struct {
	JWTSecret         string
	TokenExpiry       time.Duration
	AdminPasswordHash string // bcrypt, provisioned with cmd/hashpw
}

// LNBitsConfig holds payment provider settings
type LNBitsConfig struct {
	URL            string
	APIKey         string
	RequestTimeout time.Duration
}

// WebsocketURL derives the payment event feed URL from the provider URL.
// https becomes wss and http becomes ws; any other scheme is a configuration
// error.
func (c LNBitsConfig) WebsocketURL() (string, error) {
	base := strings.TrimRight(c.URL, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	default:
		return "", fmt.Errorf("invalid LNBits URL scheme: %q", c.URL)
	}
	return base + "/api/v1/ws/" + c.APIKey, nil
}

// PlatformConfig identifies where the entitlement lives: the guild, the role
// granted on payment, and the channel where acknowledgments are posted.
type PlatformConfig struct {
	APIBaseURL     string
	BotToken       string
	GuildID        string
	RoleID         string
	ChannelID      string
	ResolveTimeout time.Duration // bounded wait for a just-joined identity
}

// InvoiceConfig holds the invoice lifecycle knobs
type InvoiceConfig struct {
	PriceSats        int64
	Memo             string
	ExpiryAge        time.Duration // records older than this are reclaimed
	SweepInterval    time.Duration
	ReconnectBackoff time.Duration // fixed wait between feed reconnect attempts
	GrantWorkers     int
	QueueSize        int
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("SERVER_ENV", "development"),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "sqlite"),
			Path:     getEnv("DB_PATH", "data/rolegate.db"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "rolegate"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		Auth: AuthConfig{
			JWTSecret:         getEnv("JWT_SECRET", "change-this-in-production"),
			TokenExpiry:       getEnvAsDuration("JWT_EXPIRY", 12*time.Hour),
			AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		},
		LNBits: LNBitsConfig{
			URL:            getEnv("LNBITS_URL", ""),
			APIKey:         getEnv("LNBITS_API_KEY", ""),
			RequestTimeout: getEnvAsDuration("LNBITS_TIMEOUT", 15*time.Second),
		},
		Platform: PlatformConfig{
			APIBaseURL:     getEnv("PLATFORM_API_URL", "https://discord.com/api/v10"),
			BotToken:       getEnv("PLATFORM_BOT_TOKEN", ""),
			GuildID:        getEnv("PLATFORM_GUILD_ID", ""),
			RoleID:         getEnv("PLATFORM_ROLE_ID", ""),
			ChannelID:      getEnv("PLATFORM_CHANNEL_ID", ""),
			ResolveTimeout: getEnvAsDuration("PLATFORM_RESOLVE_TIMEOUT", 10*time.Second),
		},
		Invoice: InvoiceConfig{
			PriceSats:        getEnvAsInt64("INVOICE_PRICE_SATS", 0),
			Memo:             getEnv("INVOICE_MEMO", "Role purchase"),
			ExpiryAge:        getEnvAsDuration("INVOICE_EXPIRY", time.Hour),
			SweepInterval:    getEnvAsDuration("INVOICE_SWEEP_INTERVAL", 5*time.Minute),
			ReconnectBackoff: getEnvAsDuration("FEED_RECONNECT_BACKOFF", 15*time.Second),
			GrantWorkers:     getEnvAsInt("GRANT_WORKERS", 4),
			QueueSize:        getEnvAsInt("GRANT_QUEUE_SIZE", 64),
		},
	}
}

// Validate checks the settings without which the service cannot operate.
// Validation failures are fatal at boot.
func (c *Config) Validate() error {
	var problems []string

	if c.LNBits.URL == "" || c.LNBits.APIKey == "" {
		problems = append(problems, "LNBITS_URL and LNBITS_API_KEY are required")
	} else if _, err := c.LNBits.WebsocketURL(); err != nil {
		problems = append(problems, err.Error())
	}
	if c.Platform.BotToken == "" {
		problems = append(problems, "PLATFORM_BOT_TOKEN is required")
	}
	if c.Platform.GuildID == "" || c.Platform.RoleID == "" || c.Platform.ChannelID == "" {
		problems = append(problems, "PLATFORM_GUILD_ID, PLATFORM_ROLE_ID and PLATFORM_CHANNEL_ID are required")
	}
	if c.Invoice.PriceSats <= 0 {
		problems = append(problems, "INVOICE_PRICE_SATS must be positive")
	}
	if c.Auth.AdminPasswordHash == "" {
		problems = append(problems, "ADMIN_PASSWORD_HASH is required (generate with cmd/hashpw)")
	}
	if c.Database.Driver != "sqlite" && c.Database.Driver != "postgres" {
		problems = append(problems, "DB_DRIVER must be sqlite or postgres")
	}
	if c.Invoice.GrantWorkers < 1 || c.Invoice.QueueSize < 1 {
		problems = append(problems, "GRANT_WORKERS and GRANT_QUEUE_SIZE must be positive")
	}
	// A zero backoff would turn the feed retry loop into a hot spin against
	// the provider.
	if c.Invoice.ReconnectBackoff <= 0 {
		problems = append(problems, "FEED_RECONNECT_BACKOFF must be positive")
	}
	if c.Platform.ResolveTimeout <= 0 {
		problems = append(problems, "PLATFORM_RESOLVE_TIMEOUT must be positive")
	}
	if c.Invoice.SweepInterval <= 0 || c.Invoice.ExpiryAge <= 0 {
		problems = append(problems, "INVOICE_SWEEP_INTERVAL and INVOICE_EXPIRY must be positive")
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
