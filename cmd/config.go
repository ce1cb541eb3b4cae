// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/Thermoquad/unifylink/pkg/unifylink"
)

// settings holds everything that can be set by flag or config file.
type settings struct {
	Port        string
	Baud        int
	URL         string
	Username    string
	NoSSLVerify bool

	RxBuffer int
	TxBuffer int

	MQTTBroker      string
	MQTTTopicPrefix string
	MQTTClientID    string

	MetricsAddr string
	LogLevel    string
}

func defaultSettings() settings {
	return settings{
		Baud:            115200,
		RxBuffer:        unifylink.DefaultBufferSize,
		TxBuffer:        unifylink.DefaultBufferSize,
		MQTTBroker:      "tcp://localhost:1883",
		MQTTTopicPrefix: "unifylink",
		LogLevel:        "info",
	}
}

type fileConfig struct {
	Serial struct {
		Port string `toml:"port"`
		Baud int    `toml:"baud"`
	} `toml:"serial"`

	WebSocket struct {
		URL         string `toml:"url"`
		Username    string `toml:"username"`
		NoSSLVerify bool   `toml:"no_ssl_verify"`
	} `toml:"websocket"`

	Link struct {
		RxBuffer int `toml:"rx_buffer"`
		TxBuffer int `toml:"tx_buffer"`
	} `toml:"link"`

	MQTT struct {
		Broker      string `toml:"broker"`
		TopicPrefix string `toml:"topic_prefix"`
		ClientID    string `toml:"client_id"`
	} `toml:"mqtt"`

	Metrics struct {
		Addr string `toml:"addr"`
	} `toml:"metrics"`

	Log struct {
		Level string `toml:"level"`
	} `toml:"log"`
}

// loadConfigFile applies the keys defined in the TOML file at path to dst,
// skipping those whose flag was given on the command line.
func loadConfigFile(path string, dst *settings, flagChanged func(name string) bool) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		logger.Warn().Str("file", path).Stringer("key", undecoded[0]).Msg("unknown config key")
	}

	use := func(flag string, key ...string) bool {
		return meta.IsDefined(key...) && (flag == "" || !flagChanged(flag))
	}

	if use("port", "serial", "port") {
		dst.Port = strings.TrimSpace(raw.Serial.Port)
	}
	if use("baud", "serial", "baud") {
		if raw.Serial.Baud <= 0 {
			return fmt.Errorf("parse serial.baud: invalid baud rate %d", raw.Serial.Baud)
		}
		dst.Baud = raw.Serial.Baud
	}

	if use("url", "websocket", "url") {
		dst.URL = strings.TrimSpace(raw.WebSocket.URL)
	}
	if use("username", "websocket", "username") {
		dst.Username = strings.TrimSpace(raw.WebSocket.Username)
	}
	if use("no-ssl-verify", "websocket", "no_ssl_verify") {
		dst.NoSSLVerify = raw.WebSocket.NoSSLVerify
	}

	if use("", "link", "rx_buffer") {
		dst.RxBuffer = raw.Link.RxBuffer
	}
	if use("", "link", "tx_buffer") {
		dst.TxBuffer = raw.Link.TxBuffer
	}

	if use("broker", "mqtt", "broker") {
		dst.MQTTBroker = strings.TrimSpace(raw.MQTT.Broker)
	}
	if use("topic-prefix", "mqtt", "topic_prefix") {
		dst.MQTTTopicPrefix = strings.Trim(strings.TrimSpace(raw.MQTT.TopicPrefix), "/")
	}
	if use("client-id", "mqtt", "client_id") {
		dst.MQTTClientID = strings.TrimSpace(raw.MQTT.ClientID)
	}

	if use("metrics-addr", "metrics", "addr") {
		dst.MetricsAddr = strings.TrimSpace(raw.Metrics.Addr)
	}
	if use("log-level", "log", "level") {
		dst.LogLevel = strings.TrimSpace(raw.Log.Level)
	}

	return nil
}
