// Copyright 2025 The Hostwatch Authors, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type ConfigManager struct {
	v *viper.Viper
}

// NewConfigManager return ConfigManager instance.
func NewConfigManager() *ConfigManager {
	return &ConfigManager{v: viper.New()}
}

// Viper return viper instance.
func (cm *ConfigManager) Viper() *viper.Viper {
	return cm.v
}

var defaults = map[string]any{
	"level":          "info",
	"log-file":       "",
	"tick":           1,
	"delay":          5,
	"cooldown":       300,
	"disk-path":      "/",
	"metrics-listen": ":9586",

	"notifier":            "telegram",
	"telegram.api-url":    "https://api.telegram.org",
	"telegram.token":      "",
	"telegram.chat-id":    "",
	"email.server":        "",
	"email.port":          25,
	"email.username":      "",
	"email.password":      "",
	"email.from":          "",
	"email.to":            []string{},
	"email.tls":           false,
	"thresholds.cpu":      70,
	"thresholds.ram":      70,
	"thresholds.disk":     70,
	"thresholds.transfer": 5,

	"transfer.check-interval": 1,
	"transfer.save-interval":  60,
	"transfer.window":         1,

	"store.driver":         "file",
	"store.dir":            "/app/data",
	"store.redis-addr":     "127.0.0.1:6379",
	"store.redis-password": "",
	"store.redis-db":       0,
	"store.redis-prefix":   "hostwatch:",
	"store.sqlite-path":    "",
}

// envNames keeps the plain variable names existing deployments already set.
var envNames = map[string]string{
	"level":          "LOG_LEVEL",
	"log-file":       "LOG_FILE",
	"tick":           "TICK_SECONDS",
	"delay":          "DELAY_SECONDS",
	"cooldown":       "COOLDOWN_SECONDS",
	"disk-path":      "DISK_PATH",
	"metrics-listen": "METRICS_LISTEN",

	"notifier":            "NOTIFIER",
	"telegram.api-url":    "TELEGRAM_API_URL",
	"telegram.token":      "TELEGRAM_TOKEN",
	"telegram.chat-id":    "CHAT_ID",
	"email.server":        "SMTP_SERVER",
	"email.port":          "SMTP_PORT",
	"email.username":      "SMTP_USERNAME",
	"email.password":      "SMTP_PASSWORD",
	"email.from":          "SMTP_FROM",
	"email.to":            "SMTP_TO",
	"email.tls":           "SMTP_TLS",
	"thresholds.cpu":      "CPU_THRESHOLD",
	"thresholds.ram":      "RAM_THRESHOLD",
	"thresholds.disk":     "HDD_THRESHOLD",
	"thresholds.transfer": "TRANSFER_THRESHOLD",

	"transfer.check-interval": "TRANSFER_CHECK_INTERVAL",
	"transfer.save-interval":  "TRANSFER_SAVE_INTERVAL",
	"transfer.window":         "TRANSFER_WINDOW",

	"store.driver":         "STORE_DRIVER",
	"store.dir":            "DATA_DIR",
	"store.redis-addr":     "REDIS_ADDR",
	"store.redis-password": "REDIS_PASSWORD",
	"store.redis-db":       "REDIS_DB",
	"store.redis-prefix":   "REDIS_PREFIX",
	"store.sqlite-path":    "SQLITE_PATH",
}

// LoadConf resolves defaults, the optional YAML file, the environment and the
// command flags, in that order of increasing priority.
func (cm *ConfigManager) LoadConf(cmd *cobra.Command) (*Config, error) {
	v := cm.v
	v.SetConfigType("yaml")

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	configName, explicit := GetConfigFilePath(cmd)
	if configName != "" {
		v.SetConfigFile(configName)
		if err := v.ReadInConfig(); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read config %s: %w", configName, err)
			}
		}
	}

	v.SetEnvPrefix("HOSTWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for key, env := range envNames {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	if cmd != nil {
		if f := cmd.Flags().Lookup("level"); f != nil {
			if err := v.BindPFlag("level", f); err != nil {
				return nil, err
			}
		}
	}

	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, err
	}
	return &conf, nil
}

// GetConfigFilePath get config filepath. The second result is true when the
// path was asked for explicitly and therefore must exist.
func GetConfigFilePath(cmd *cobra.Command) (string, bool) {
	// 1. flag
	if cmd != nil {
		if path, _ := cmd.Flags().GetString("config"); path != "" {
			return path, true
		}
	}
	// 2. env
	if path := os.Getenv("HOSTWATCH_CONFIG"); path != "" {
		return path, true
	}
	// 3. system default, optional
	return "/etc/hostwatch/hostwatch.yaml", false
}
