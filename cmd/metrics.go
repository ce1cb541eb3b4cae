// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Thermoquad/unifylink/pkg/unifylink"
)

// linkCounter maps a Counters field to a metric.
type linkCounter struct {
	name  string
	help  string
	value func(unifylink.Counters) uint64
}

var linkCounters = []linkCounter{
	{"success_total", "Frames dispatched to a handler.", func(c unifylink.Counters) uint64 { return c.Success }},
	{"com_errors_total", "Frames lost according to sequence id gaps.", func(c unifylink.Counters) uint64 { return c.ComErrors }},
	{"decode_errors_total", "CRC-valid frames without a handler or rejected by it.", func(c unifylink.Counters) uint64 { return c.DecodeErrors }},
	{"rx_bytes_total", "Bytes accepted into the inbound buffer.", func(c unifylink.Counters) uint64 { return c.RxBytes }},
	{"rx_dropped_bytes_total", "Bytes dropped because the inbound buffer was full.", func(c unifylink.Counters) uint64 { return c.RxDropped }},
	{"tx_frames_total", "Frames queued for sending.", func(c unifylink.Counters) uint64 { return c.TxFrames }},
	{"tx_rejected_total", "Frames refused for size or buffer space.", func(c unifylink.Counters) uint64 { return c.TxRejected }},
}

// newMetricsRegistry exposes the counters of link.
func newMetricsRegistry(link *unifylink.Link) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	for _, lc := range linkCounters {
		value := lc.value
		c := prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "unifylink",
			Subsystem: "link",
			Name:      lc.name,
			Help:      lc.help,
		}, func() float64 {
			return float64(value(link.Counters()))
		})
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register %s: %w", lc.name, err)
		}
	}
	return reg, nil
}

// serveMetrics starts an HTTP server for /metrics on addr.
func serveMetrics(addr string, link *unifylink.Link) (*http.Server, error) {
	reg, err := newMetricsRegistry(link)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics server failed")
		}
	}()
	logger.Info().Str("addr", ln.Addr().String()).Msg("serving metrics")
	return srv, nil
}
