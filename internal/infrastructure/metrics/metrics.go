package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the coordinator's Prometheus instruments.
type Metrics struct {
	ActiveConnections prometheus.Gauge
	ActiveRooms       prometheus.Gauge
	FramesRelayed     *prometheus.CounterVec
	MalformedFrames   prometheus.Counter
	UnauthorizedCmds  prometheus.Counter
	AuthFailures      prometheus.Counter
	DroppedSends      prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ActiveConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "auditorium_connections_active",
			Help: "Currently open signaling connections.",
		}),
		ActiveRooms: factory.NewGauge(prometheus.GaugeOpts{
			Name: "auditorium_rooms_active",
			Help: "Rooms currently held by the registry.",
		}),
		FramesRelayed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "auditorium_frames_relayed_total",
			Help: "Frames relayed or fanned out, by frame type.",
		}, []string{"type"}),
		MalformedFrames: factory.NewCounter(prometheus.CounterOpts{
			Name: "auditorium_malformed_frames_total",
			Help: "Inbound frames discarded as unparseable.",
		}),
		UnauthorizedCmds: factory.NewCounter(prometheus.CounterOpts{
			Name: "auditorium_unauthorized_commands_total",
			Help: "Privileged commands dropped for lack of role.",
		}),
		AuthFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "auditorium_auth_failures_total",
			Help: "Connections rejected with an invalid credential.",
		}),
		DroppedSends: factory.NewCounter(prometheus.CounterOpts{
			Name: "auditorium_dropped_sends_total",
			Help: "Outbound frames dropped on a full or closed peer outbox.",
		}),
	}
}
