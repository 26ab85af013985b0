package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"hostwatch/pkg/wferrors"
)

func newTestCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "hostwatch"}
	cmd.Flags().String("config", "", "")
	cmd.Flags().String("level", "info", "")
	return cmd
}

func TestLoadConf(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("HOSTWATCH_CONFIG", "")
		conf, err := NewConfigManager().LoadConf(newTestCommand())
		require.NoError(t, err)

		require.Equal(t, "telegram", conf.Notifier)
		require.Equal(t, 70.0, conf.Thresholds.CPU)
		require.Equal(t, 70.0, conf.Thresholds.RAM)
		require.Equal(t, 70.0, conf.Thresholds.Disk)
		require.Equal(t, 5.0, conf.Thresholds.Transfer)
		require.Equal(t, 5*time.Second, Seconds(conf.Delay))
		require.Equal(t, 300*time.Second, Seconds(conf.Cooldown))
		require.Equal(t, time.Second, Seconds(conf.Transfer.CheckInterval))
		require.Equal(t, time.Minute, Seconds(conf.Transfer.SaveInterval))
		require.Equal(t, "/app/data", conf.Store.Dir)
		require.Equal(t, "file", conf.Store.Driver)
		require.Equal(t, ":9586", conf.MetricsListen)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("HOSTWATCH_CONFIG", "")
		t.Setenv("TELEGRAM_TOKEN", "123:abc")
		t.Setenv("CHAT_ID", "-100")
		t.Setenv("CPU_THRESHOLD", "85.5")
		t.Setenv("TRANSFER_THRESHOLD", "0.5")
		t.Setenv("COOLDOWN_SECONDS", "60")
		t.Setenv("DATA_DIR", "/var/lib/hostwatch")
		t.Setenv("SMTP_TO", "a@example.org,b@example.org")

		conf, err := NewConfigManager().LoadConf(newTestCommand())
		require.NoError(t, err)
		require.Equal(t, "123:abc", conf.Telegram.Token)
		require.Equal(t, "-100", conf.Telegram.ChatID)
		require.Equal(t, 85.5, conf.Thresholds.CPU)
		require.Equal(t, 0.5, conf.Thresholds.Transfer)
		require.Equal(t, time.Minute, Seconds(conf.Cooldown))
		require.Equal(t, "/var/lib/hostwatch", conf.Store.Dir)
		require.Equal(t, []string{"a@example.org", "b@example.org"}, conf.Email.To)
		require.NoError(t, conf.Validate())
	})

	t.Run("config file then env then flag", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "hostwatch.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
level: debug
delay: 10
thresholds:
  ram: 90
store:
  driver: sqlite
  sqlite-path: /tmp/hw.db
`), 0o600))
		t.Setenv("HOSTWATCH_CONFIG", path)
		t.Setenv("DELAY_SECONDS", "3")

		cmd := newTestCommand()
		require.NoError(t, cmd.Flags().Set("level", "warn"))

		conf, err := NewConfigManager().LoadConf(cmd)
		require.NoError(t, err)
		require.Equal(t, "warn", conf.Level)
		require.Equal(t, 3.0, conf.Delay)
		require.Equal(t, 90.0, conf.Thresholds.RAM)
		require.Equal(t, "sqlite", conf.Store.Driver)
		require.Equal(t, "/tmp/hw.db", conf.Store.SQLitePath)
	})

	t.Run("explicit missing file fails", func(t *testing.T) {
		t.Setenv("HOSTWATCH_CONFIG", "")
		cmd := newTestCommand()
		require.NoError(t, cmd.Flags().Set("config", filepath.Join(t.TempDir(), "nope.yaml")))
		_, err := NewConfigManager().LoadConf(cmd)
		require.Error(t, err)
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Notifier: "telegram",
			Telegram: TelegramConfig{Token: "t", ChatID: "c"},
			Tick:     1,
			Delay:    5,
			Cooldown: 300,
			Thresholds: ThresholdsConfig{
				CPU: 70, RAM: 70, Disk: 70, Transfer: 5,
			},
			Transfer: TransferConfig{CheckInterval: 1, SaveInterval: 60},
		}
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   error
	}{
		{"missing token", func(c *Config) { c.Telegram.Token = "" }, wferrors.ErrNotifierCredentials},
		{"missing chat", func(c *Config) { c.Telegram.ChatID = "" }, wferrors.ErrNotifierCredentials},
		{"email without recipients", func(c *Config) {
			c.Notifier = "email"
			c.Email = EmailConfig{Server: "smtp", From: "f"}
		}, wferrors.ErrNotifierCredentials},
		{"unknown notifier", func(c *Config) { c.Notifier = "pager" }, wferrors.ErrUnknownNotifier},
		{"zero delay", func(c *Config) { c.Delay = 0 }, wferrors.ErrInvalidConfig},
		{"zero tick", func(c *Config) { c.Tick = 0 }, wferrors.ErrInvalidConfig},
		{"negative cooldown", func(c *Config) { c.Cooldown = -1 }, wferrors.ErrInvalidConfig},
		{"negative threshold", func(c *Config) { c.Thresholds.Disk = -5 }, wferrors.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			require.ErrorIs(t, c.Validate(), tt.want)
		})
	}

	t.Run("zero cooldown allowed", func(t *testing.T) {
		c := valid()
		c.Cooldown = 0
		require.NoError(t, c.Validate())
	})
}
