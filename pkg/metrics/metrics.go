// Package metrics exposes prometheus instrumentation for the connection
// layer. Collectors register on the default registry; exposition is the
// embedding process's concern.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	ConnectionsAccepted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ipclink_connections_accepted_total",
			Help: "Connections accepted and fully handshaken",
		},
	)
	ConnectionsDialed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ipclink_connections_dialed_total",
			Help: "Outbound connections established and fully handshaken",
		},
	)
	HandshakeFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ipclink_handshake_failures_total",
			Help: "Authentication handshakes that failed",
		},
		[]string{"role"},
	)
	FramesSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ipclink_frames_sent_total",
			Help: "Frames written to connections",
		},
	)
	FramesReceived = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ipclink_frames_received_total",
			Help: "Frames read from connections",
		},
	)
	BytesSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ipclink_bytes_sent_total",
			Help: "Payload bytes written to connections",
		},
	)
	BytesReceived = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ipclink_bytes_received_total",
			Help: "Payload bytes read from connections",
		},
	)
)

func init() {
	prometheus.MustRegister(
		ConnectionsAccepted,
		ConnectionsDialed,
		HandshakeFailures,
		FramesSent,
		FramesReceived,
		BytesSent,
		BytesReceived,
	)
}
