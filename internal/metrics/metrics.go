// Package metrics holds the process-wide Prometheus collectors shared by the
// transport, session, and management layers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "blfbot"

var (
	// PacketsDecoded counts inbound packets that decoded successfully,
	// labeled by channel role (lobby, game).
	PacketsDecoded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "packets_decoded_total",
		Help:      "Inbound packets decoded successfully.",
	}, []string{"role"})

	// DecodeErrors counts inbound messages dropped because they failed to
	// decode. The channel survives these.
	DecodeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "decode_errors_total",
		Help:      "Inbound messages discarded due to decode errors.",
	}, []string{"role"})

	// PacketsSent counts outbound packets, labeled by channel role.
	PacketsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "packets_sent_total",
		Help:      "Outbound packets written to the wire.",
	}, []string{"role"})

	// SessionsActive tracks sessions currently registered with the manager.
	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions_active",
		Help:      "Bot sessions currently registered.",
	})

	// JoinsTotal counts completed room joins, labeled by outcome
	// (ok, timeout, error).
	JoinsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "joins_total",
		Help:      "Room join attempts by outcome.",
	}, []string{"outcome"})
)
