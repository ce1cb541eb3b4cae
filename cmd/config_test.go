// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "unifylink.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func noFlags(string) bool { return false }

const fullConfig = `
[serial]
port = "/dev/ttyACM0"
baud = 921600

[websocket]
url = "wss://device.local/link"
username = "admin"
no_ssl_verify = true

[link]
rx_buffer = 4096
tx_buffer = 1024

[mqtt]
broker = "mqtt://broker:1883"
topic_prefix = "/lab/bench/"
client_id = "bench-1"

[metrics]
addr = ":9100"

[log]
level = "debug"
`

func TestLoadConfigFile(t *testing.T) {
	s := defaultSettings()
	require.NoError(t, loadConfigFile(writeConfig(t, fullConfig), &s, noFlags))

	require.Equal(t, "/dev/ttyACM0", s.Port)
	require.Equal(t, 921600, s.Baud)
	require.Equal(t, "wss://device.local/link", s.URL)
	require.Equal(t, "admin", s.Username)
	require.True(t, s.NoSSLVerify)
	require.Equal(t, 4096, s.RxBuffer)
	require.Equal(t, 1024, s.TxBuffer)
	require.Equal(t, "mqtt://broker:1883", s.MQTTBroker)
	require.Equal(t, "lab/bench", s.MQTTTopicPrefix)
	require.Equal(t, "bench-1", s.MQTTClientID)
	require.Equal(t, ":9100", s.MetricsAddr)
	require.Equal(t, "debug", s.LogLevel)
}

func TestLoadConfigFileKeepsDefaults(t *testing.T) {
	s := defaultSettings()
	require.NoError(t, loadConfigFile(writeConfig(t, "[serial]\nport = \"COM3\"\n"), &s, noFlags))

	want := defaultSettings()
	want.Port = "COM3"
	require.Equal(t, want, s)
}

func TestLoadConfigFileFlagsTakePrecedence(t *testing.T) {
	s := defaultSettings()
	s.Port = "/dev/ttyUSB1"
	s.LogLevel = "warn"

	changed := func(name string) bool {
		return name == "port" || name == "log-level"
	}
	require.NoError(t, loadConfigFile(writeConfig(t, fullConfig), &s, changed))

	require.Equal(t, "/dev/ttyUSB1", s.Port)
	require.Equal(t, "warn", s.LogLevel)
	require.Equal(t, 921600, s.Baud, "keys without a changed flag still apply")
}

func TestLoadConfigFileErrors(t *testing.T) {
	s := defaultSettings()

	err := loadConfigFile(filepath.Join(t.TempDir(), "missing.toml"), &s, noFlags)
	require.ErrorContains(t, err, "load config")

	err = loadConfigFile(writeConfig(t, "[serial\nport = 1"), &s, noFlags)
	require.ErrorContains(t, err, "load config")

	err = loadConfigFile(writeConfig(t, "[serial]\nbaud = 0\n"), &s, noFlags)
	require.ErrorContains(t, err, "serial.baud")
}

func TestLoadConfigFileUnknownKey(t *testing.T) {
	s := defaultSettings()
	require.NoError(t, loadConfigFile(writeConfig(t, "[serial]\nparity = \"none\"\n"), &s, noFlags))
	require.Equal(t, defaultSettings(), s)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, initLogger("DEBUG"))
	require.NoError(t, initLogger(""))
	require.Error(t, initLogger("loud"))
	require.NoError(t, initLogger("info"))
}
