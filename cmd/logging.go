// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// logLevelEnv overrides the configured log level unless --log-level is given.
const logLevelEnv = "UNIFYLINK_LOG_LEVEL"

// logger is used for diagnostics; command output goes to stdout.
var logger = newLogger(zerolog.InfoLevel)

func newLogger(level zerolog.Level) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05.000",
	}
	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

func initLogger(level string) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	logger = newLogger(lvl)
	log.Logger = logger
	return nil
}
