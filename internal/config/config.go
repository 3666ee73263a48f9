package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config reúne la configuración de runtime; cada campo mapea 1:1 a una env var.
type Config struct {
	// Server
	Port int    `mapstructure:"PORT"`
	Env  string `mapstructure:"APP_ENV"` // development | production

	// API remoto de Ganado360. Vacío => modo dev con repos in-memory.
	UpstreamURL            string `mapstructure:"GANADO_API_URL"`
	UpstreamTimeoutSeconds int    `mapstructure:"UPSTREAM_TIMEOUT_SECONDS"`

	// Firma de los tokens que emite el modo dev (cuentas in-memory).
	DevJWTSecret  string `mapstructure:"DEV_JWT_SECRET"`
	DevTokenHours int    `mapstructure:"DEV_TOKEN_HOURS"`

	// Journal de sagas de nacimiento. Vacío => in-memory.
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// Logging
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
	AppName   string `mapstructure:"APP_NAME"`

	// Rate limiting por IP
	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST"`

	// CLI
	SessionFile string `mapstructure:"SESSION_FILE"`

	// Recordatorios de partos próximos
	ReminderWindowDays int `mapstructure:"REMINDER_WINDOW_DAYS"`
}

// Load lee la configuración desde variables de entorno (y .env opcional).
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	setDefaults(v)

	// .env opcional para desarrollo local; no falla si no existe
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	cfg.UpstreamURL = strings.TrimRight(strings.TrimSpace(cfg.UpstreamURL), "/")
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", 8080)
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("GANADO_API_URL", "")
	v.SetDefault("UPSTREAM_TIMEOUT_SECONDS", 10)
	v.SetDefault("DEV_JWT_SECRET", "ganado360-dev-secret-change-me")
	v.SetDefault("DEV_TOKEN_HOURS", 12)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("APP_NAME", "ganado360")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("SESSION_FILE", "~/.ganado360/session")
	v.SetDefault("REMINDER_WINDOW_DAYS", 30)
}

func (c *Config) UpstreamTimeout() time.Duration {
	if c.UpstreamTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.UpstreamTimeoutSeconds) * time.Second
}

// SagaTimeout acota una saga de nacimiento completa: dos lecturas de
// preparación más cinco escrituras, cada una con UpstreamTimeout, y margen
// para el journal.
func (c *Config) SagaTimeout() time.Duration {
	return 8 * c.UpstreamTimeout()
}

// HTTPWriteTimeout tiene que cubrir la saga más lenta; si no, el servidor
// corta la respuesta mientras la saga sigue y el cliente nunca ve saga_id.
func (c *Config) HTTPWriteTimeout() time.Duration {
	return c.SagaTimeout() + 10*time.Second
}

func (c *Config) ReminderWindow() time.Duration {
	days := c.ReminderWindowDays
	if days <= 0 {
		days = 30
	}
	return time.Duration(days) * 24 * time.Hour
}

func (c *Config) DevTokenTTL() time.Duration {
	if c.DevTokenHours <= 0 {
		return 12 * time.Hour
	}
	return time.Duration(c.DevTokenHours) * time.Hour
}

// DevMode indica que no hay API remoto configurado.
func (c *Config) DevMode() bool {
	return c.UpstreamURL == ""
}
