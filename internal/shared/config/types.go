// Package config defines the typed configuration structures shared across layers.
package config

import "fmt"

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

// GetAddr returns the listen address in host:port form
func (c *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"` // mysql or sqlite
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // minutes
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // text or json
	OutputPath string `mapstructure:"output_path"`
	ShowSource bool   `mapstructure:"show_source"` // show source for all levels, not just warn/error
}

// AuthConfig holds JWT authentication configuration
type AuthConfig struct {
	JWTSecret         string `mapstructure:"jwt_secret"`
	AccessTokenExpiry int    `mapstructure:"access_token_expiry"` // minutes
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Enabled  bool   `mapstructure:"enabled"`
}

// GetAddr returns the Redis address in host:port form
func (c *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// EmailConfig holds SMTP configuration for outbound notifications
type EmailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	Enabled  bool   `mapstructure:"enabled"`
}

// BillingConfig holds billing-provider and metering configuration
type BillingConfig struct {
	// WebhookSecret is the shared secret expected in the provider's
	// webhook header. The provider's full signature scheme is handled
	// upstream; the adapter only checks this secret.
	WebhookSecret string `mapstructure:"webhook_secret"`
	// Timezone is the business timezone used for calendar-month billing
	// cycles of users without a paid subscription period.
	Timezone string `mapstructure:"timezone"`
	// PlanCatalogPath optionally points to a YAML plan catalog that
	// overrides the compiled-in default.
	PlanCatalogPath string `mapstructure:"plan_catalog_path"`
}
