package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the provisioning server.
type Config struct {
	Server       ServerConfig
	MetaDatabase MetaDatabaseConfig
	TenantHost   TenantHostConfig
	Redis        RedisConfig
	ControlPanel ControlPanelConfig
	Provisioning ProvisioningConfig
	Auth         AuthConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type MetaDatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// TenantHostConfig describes the database host where tenant databases are
// provisioned. The database name itself is determined at runtime per tenant.
type TenantHostConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	SSLMode           string
	ConnectAttempts   int
	ConnectRetryDelay time.Duration
}

type RedisConfig struct {
	URL string
}

type ControlPanelConfig struct {
	BaseURL          string
	Username         string
	Password         string
	RemoteAccessHost string
	PrivilegedUser   string
	SettleDelay      time.Duration
	Timeout          time.Duration
}

type ProvisioningConfig struct {
	TemplateSchema string
	LogoUploadDir  string
	LogoStoreDir   string
}

type AuthConfig struct {
	// AdminTokenHash is the bcrypt hash of the administrative API token.
	AdminTokenHash  string
	SignupPerMinute int
	OTPTTL          time.Duration
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("PROVISIONING_PORT", 8080),
			Env:  envString("PROVISIONING_ENV", "development"),
		},
		MetaDatabase: MetaDatabaseConfig{
			URL:             os.Getenv("META_DATABASE_URL"),
			MaxOpenConns:    envInt("META_DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("META_DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("META_DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		TenantHost: TenantHostConfig{
			Host:              envString("TENANT_DB_HOST", "localhost"),
			Port:              envInt("TENANT_DB_PORT", 5432),
			User:              os.Getenv("TENANT_DB_USER"),
			Password:          os.Getenv("TENANT_DB_PASSWORD"),
			SSLMode:           envString("TENANT_DB_SSLMODE", "disable"),
			ConnectAttempts:   envInt("TENANT_DB_CONNECT_ATTEMPTS", 5),
			ConnectRetryDelay: envDuration("TENANT_DB_CONNECT_RETRY_DELAY", 3*time.Second),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		ControlPanel: ControlPanelConfig{
			BaseURL:          os.Getenv("CPANEL_BASE_URL"),
			Username:         os.Getenv("CPANEL_USERNAME"),
			Password:         os.Getenv("CPANEL_PASSWORD"),
			RemoteAccessHost: envString("CPANEL_REMOTE_ACCESS_HOST", "%"),
			PrivilegedUser:   os.Getenv("CPANEL_PRIVILEGED_USER"),
			SettleDelay:      envDuration("CPANEL_SETTLE_DELAY", 5*time.Second),
			Timeout:          envDuration("CPANEL_TIMEOUT", 30*time.Second),
		},
		Provisioning: ProvisioningConfig{
			TemplateSchema: envString("TEMPLATE_SCHEMA", "tenant_template"),
			LogoUploadDir:  envString("LOGO_UPLOAD_DIR", "uploads/tmp"),
			LogoStoreDir:   envString("LOGO_STORE_DIR", "uploads/logos"),
		},
		Auth: AuthConfig{
			AdminTokenHash:  os.Getenv("ADMIN_TOKEN_HASH"),
			SignupPerMinute: envInt("SIGNUP_RATE_PER_MINUTE", 10),
			OTPTTL:          envDuration("SIGNUP_OTP_TTL", 10*time.Minute),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.MetaDatabase.URL == "" {
		return fmt.Errorf("META_DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.TenantHost.User == "" {
		return fmt.Errorf("TENANT_DB_USER is required")
	}
	if c.TenantHost.ConnectAttempts < 1 {
		return fmt.Errorf("TENANT_DB_CONNECT_ATTEMPTS must be at least 1, got %d", c.TenantHost.ConnectAttempts)
	}

	if c.ControlPanel.BaseURL == "" {
		return fmt.Errorf("CPANEL_BASE_URL is required")
	}
	if !strings.HasPrefix(c.ControlPanel.BaseURL, "http://") && !strings.HasPrefix(c.ControlPanel.BaseURL, "https://") {
		return fmt.Errorf("CPANEL_BASE_URL must start with http:// or https://, got %q", c.ControlPanel.BaseURL)
	}
	if c.ControlPanel.PrivilegedUser == "" {
		return fmt.Errorf("CPANEL_PRIVILEGED_USER is required")
	}

	if c.Auth.AdminTokenHash == "" {
		return fmt.Errorf("ADMIN_TOKEN_HASH is required")
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
