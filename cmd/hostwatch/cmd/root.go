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

package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"hostwatch/internal/config"
	"hostwatch/pkg/log"
)

var (
	cfgManager = config.NewConfigManager()
	conf       *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "hostwatch",
	Short:         "hostwatch: watch CPU, RAM, disk and monthly network transfer and alert when they stay high",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := cfgManager.LoadConf(cmd)
		if err != nil {
			return err
		}
		conf = c

		log.SetLogLevel(conf.Level)
		if conf.LogFile != "" {
			w, err := logOutput(os.Stdout, conf.LogFile)
			if err != nil {
				return err
			}
			log.SetOutput(w)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// missing credentials stop us before the loop starts
		if err := conf.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return run(ctx, conf)
	},
}

// logOutput keeps logging to stdout and appends a copy to path.
func logOutput(stdout io.Writer, path string) (io.Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return io.MultiWriter(stdout, f), nil
}

// Execute executes the root command.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func init() {
	fs := rootCmd.PersistentFlags()
	fs.StringP("config", "c", "", "config file (default /etc/hostwatch/hostwatch.yaml)")
	fs.StringP("level", "", "info", "log level (silent, verbose, info, warning, error)")

	rootCmd.AddCommand(versionCmd())
}
