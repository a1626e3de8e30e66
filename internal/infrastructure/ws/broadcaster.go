package ws

import (
	"go.uber.org/zap"

	"github.com/korlin/auditorium/internal/domain"
	"github.com/korlin/auditorium/internal/infrastructure/metrics"
)

// Broadcaster fans frames out to room audiences. Delivery is
// best-effort per peer: a slow or dead peer loses its copy without
// holding up anyone else.
type Broadcaster struct {
	logger  *zap.SugaredLogger
	metrics *metrics.Metrics
}

func NewBroadcaster(logger *zap.SugaredLogger, m *metrics.Metrics) *Broadcaster {
	return &Broadcaster{logger: logger, metrics: m}
}

// NotifyAdmins delivers a notice to every admitted admin peer.
func (b *Broadcaster) NotifyAdmins(room *domain.Room, frame *Frame) {
	for _, admin := range room.Admins() {
		b.deliver(room, admin, frame)
	}
}

// BroadcastToAdmitted delivers an event to every admitted peer,
// admins and users alike. Peers still waiting never receive it.
func (b *Broadcaster) BroadcastToAdmitted(room *domain.Room, frame *Frame) {
	for _, p := range room.AdmittedPeers() {
		b.deliver(room, p, frame)
	}
}

// Relay delivers to exactly one peer; a nil target means the peer is
// already gone and the frame is silently dropped.
func (b *Broadcaster) Relay(room *domain.Room, to *domain.Peer, frame *Frame) {
	if to == nil {
		return
	}
	b.deliver(room, to, frame)
}

func (b *Broadcaster) deliver(room *domain.Room, to *domain.Peer, frame *Frame) {
	if !to.TrySend(frame) {
		b.metrics.DroppedSends.Inc()
		b.logger.Warnw("outbox full, dropping frame",
			"room", room.ID, "peer", to.ID, "type", frame.Type)
		return
	}
	b.metrics.FramesRelayed.WithLabelValues(frame.Type).Inc()
}
