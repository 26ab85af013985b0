package config

import (
	"fmt"
	"time"

	"hostwatch/pkg/wferrors"
)

type Config struct {
	Level         string  `mapstructure:"level"`
	LogFile       string  `mapstructure:"log-file"`
	Tick          float64 `mapstructure:"tick"`
	Delay         float64 `mapstructure:"delay"`
	Cooldown      float64 `mapstructure:"cooldown"`
	DiskPath      string  `mapstructure:"disk-path"`
	MetricsListen string  `mapstructure:"metrics-listen"`

	Notifier   string           `mapstructure:"notifier"`
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	Email      EmailConfig      `mapstructure:"email"`
	Thresholds ThresholdsConfig `mapstructure:"thresholds"`
	Transfer   TransferConfig   `mapstructure:"transfer"`
	Store      StoreConfig      `mapstructure:"store"`
}

type TelegramConfig struct {
	APIURL string `mapstructure:"api-url"`
	Token  string `mapstructure:"token"`
	ChatID string `mapstructure:"chat-id"`
}

type EmailConfig struct {
	Server   string   `mapstructure:"server"`
	Port     int      `mapstructure:"port"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to"`
	TLS      bool     `mapstructure:"tls"`
}

// ThresholdsConfig holds percentages, except Transfer which is in TB.
type ThresholdsConfig struct {
	CPU      float64 `mapstructure:"cpu"`
	RAM      float64 `mapstructure:"ram"`
	Disk     float64 `mapstructure:"disk"`
	Transfer float64 `mapstructure:"transfer"`
}

// TransferConfig intervals are in seconds.
type TransferConfig struct {
	CheckInterval float64 `mapstructure:"check-interval"`
	SaveInterval  float64 `mapstructure:"save-interval"`
	Window        float64 `mapstructure:"window"`
}

type StoreConfig struct {
	Driver        string `mapstructure:"driver"`
	Dir           string `mapstructure:"dir"`
	RedisAddr     string `mapstructure:"redis-addr"`
	RedisPassword string `mapstructure:"redis-password"`
	RedisDB       int    `mapstructure:"redis-db"`
	RedisPrefix   string `mapstructure:"redis-prefix"`
	SQLitePath    string `mapstructure:"sqlite-path"`
}

// Seconds converts a configured number of seconds to a duration.
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Validate checks what must hold before the loop starts.
func (c *Config) Validate() error {
	switch c.Notifier {
	case "", "telegram":
		if c.Telegram.Token == "" || c.Telegram.ChatID == "" {
			return fmt.Errorf("%w: TELEGRAM_TOKEN and CHAT_ID must be set", wferrors.ErrNotifierCredentials)
		}
	case "email":
		if c.Email.Server == "" || c.Email.From == "" || len(c.Email.To) == 0 {
			return fmt.Errorf("%w: SMTP_SERVER, SMTP_FROM and SMTP_TO must be set", wferrors.ErrNotifierCredentials)
		}
	default:
		return fmt.Errorf("%w: %q", wferrors.ErrUnknownNotifier, c.Notifier)
	}

	positive := map[string]float64{
		"tick":                    c.Tick,
		"delay":                   c.Delay,
		"transfer.check-interval": c.Transfer.CheckInterval,
		"transfer.save-interval":  c.Transfer.SaveInterval,
	}
	for key, v := range positive {
		if v <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %v", wferrors.ErrInvalidConfig, key, v)
		}
	}

	nonNegative := map[string]float64{
		"cooldown":            c.Cooldown,
		"thresholds.cpu":      c.Thresholds.CPU,
		"thresholds.ram":      c.Thresholds.RAM,
		"thresholds.disk":     c.Thresholds.Disk,
		"thresholds.transfer": c.Thresholds.Transfer,
		"transfer.window":     c.Transfer.Window,
	}
	for key, v := range nonNegative {
		if v < 0 {
			return fmt.Errorf("%w: %s must not be negative, got %v", wferrors.ErrInvalidConfig, key, v)
		}
	}

	return nil
}
