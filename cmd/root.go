// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// Flag and config file values shared by all commands
	cfg = defaultSettings()

	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "unifylink",
	Short: "Unify Link Protocol Tool",
	Long: `unifylink - A CLI tool for monitoring and exercising Unify Link framed links.

Provides commands for frame logging, link statistics, sending frames, read-back
polling, capture replay and an MQTT bridge.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 115200]
  WebSocket: --url ws://host/path [--username user]

Settings may also come from a TOML file given with --config. Flags given on the
command line take precedence over the file.

For WebSocket authentication, the password is read from the UNIFYLINK_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configPath != "" {
			if err := loadConfigFile(configPath, &cfg, cmd.Flags().Changed); err != nil {
				return err
			}
		}
		if env := os.Getenv(logLevelEnv); env != "" && !cmd.Flags().Changed("log-level") {
			cfg.LogLevel = env
		}
		return initLogger(cfg.LogLevel)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "TOML config file")
	rootCmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (trace, debug, info, warn, error)")

	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&cfg.Port, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&cfg.Baud, "baud", "b", cfg.Baud, "Baud rate (serial only)")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&cfg.URL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&cfg.Username, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&cfg.NoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")
}

// Execute runs the root command
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		logger.Error().Err(err).Msg("command failed")
	}
	return err
}
