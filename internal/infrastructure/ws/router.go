package ws

import (
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/korlin/auditorium/internal/domain"
	"github.com/korlin/auditorium/internal/infrastructure/metrics"
)

// Router validates inbound frames against room and peer state and
// invokes the matching room operation or relay. It never blocks on the
// network; every delivery is a non-blocking enqueue on a peer outbox.
//
// Failure handling is local to the offending frame: malformed payloads
// are logged and discarded, unauthorized commands are dropped silently
// (a stale admin UI racing an admit is expected, not a protocol
// violation), and relays to absent peers are no-ops.
type Router struct {
	logger      *zap.SugaredLogger
	metrics     *metrics.Metrics
	broadcaster *Broadcaster
}

func NewRouter(logger *zap.SugaredLogger, m *metrics.Metrics, b *Broadcaster) *Router {
	return &Router{
		logger:      logger,
		metrics:     m,
		broadcaster: b,
	}
}

// Dispatch routes one raw frame from sender.
func (rt *Router) Dispatch(room *domain.Room, sender *domain.Peer, raw []byte) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		rt.metrics.MalformedFrames.Inc()
		rt.logger.Warnw("discarding malformed frame",
			"room", room.ID, "peer", sender.ID, "error", err)
		return
	}

	switch frame.Type {
	case KindAdmit:
		rt.handleAdmit(room, sender, &frame)
	case KindOffer:
		rt.handleOffer(room, sender, &frame)
	case KindAnswer:
		rt.handleAnswer(room, sender, &frame)
	case KindICE:
		rt.handleICE(room, sender, &frame)
	case KindChat:
		rt.handleChat(room, sender, &frame)
	case KindMaterialEvent:
		rt.handleMaterial(room, sender, &frame)
	default:
		rt.metrics.MalformedFrames.Inc()
		rt.logger.Warnw("unknown frame type",
			"room", room.ID, "peer", sender.ID, "type", frame.Type)
	}
}

func (rt *Router) handleAdmit(room *domain.Room, sender *domain.Peer, frame *Frame) {
	// Role is derived from the verified token server-side; nothing the
	// client claims in the payload matters here.
	if sender.Role != domain.RoleAdmin || !sender.Admitted() {
		rt.metrics.UnauthorizedCmds.Inc()
		return
	}

	target, err := room.Admit(frame.PeerID)
	if err != nil {
		// Lost a concurrent admit, target already in, or target gone.
		// All of these are no-ops for the sender.
		if !errors.Is(err, domain.ErrAlreadyAdmitted) && !errors.Is(err, domain.ErrNotWaiting) {
			rt.logger.Warnw("admit failed", "room", room.ID, "target", frame.PeerID, "error", err)
		}
		return
	}

	rt.broadcaster.Relay(room, target, NewAdmitted())
	rt.broadcaster.Relay(room, target, NewReadyForOffer())
	rt.logger.Infow("peer admitted", "room", room.ID, "peer", target.ID, "by", sender.ID)
}

func (rt *Router) handleOffer(room *domain.Room, sender *domain.Peer, frame *Frame) {
	if frame.SDP == "" {
		rt.metrics.MalformedFrames.Inc()
		rt.logger.Warnw("discarding offer without sdp", "room", room.ID, "peer", sender.ID)
		return
	}
	if !sender.Admitted() {
		return
	}

	partner := room.Partner(sender, frame.PeerID)
	if partner == nil {
		// No buffering of offers: the sender re-offers when it next
		// sees ready_for_offer.
		rt.logger.Debugw("dropping offer without partner", "room", room.ID, "peer", sender.ID)
		return
	}

	room.NoteOfferRelayed(sender, partner)
	rt.broadcaster.Relay(room, partner, NewOffer(sender.ID, frame.SDP))
}

func (rt *Router) handleAnswer(room *domain.Room, sender *domain.Peer, frame *Frame) {
	if frame.SDP == "" {
		rt.metrics.MalformedFrames.Inc()
		rt.logger.Warnw("discarding answer without sdp", "room", room.ID, "peer", sender.ID)
		return
	}
	if !sender.Admitted() {
		return
	}

	partner := room.Partner(sender, frame.PeerID)
	if partner == nil {
		return
	}

	if !room.TryAnswerRelay(sender, partner) {
		// Answer with no outstanding offer on this link.
		rt.logger.Debugw("dropping unsolicited answer", "room", room.ID, "peer", sender.ID)
		return
	}

	rt.broadcaster.Relay(room, partner, NewAnswer(sender.ID, frame.SDP))
}

func (rt *Router) handleICE(room *domain.Room, sender *domain.Peer, frame *Frame) {
	if len(frame.Candidate) == 0 {
		rt.metrics.MalformedFrames.Inc()
		rt.logger.Warnw("discarding ice without candidate", "room", room.ID, "peer", sender.ID)
		return
	}
	if !sender.Admitted() {
		return
	}

	partner := room.Partner(sender, frame.PeerID)
	if partner == nil {
		// An admin addressing an absent user has nobody to ever deliver
		// to; that link is gone for good.
		if sender.Role == domain.RoleAdmin {
			rt.logger.Debugw("dropping ice for absent target",
				"room", room.ID, "peer", sender.ID, "target", frame.PeerID)
			return
		}

		// Park the candidate on the sender until an admin shows up.
		// Candidates that arrive before the remote description is set
		// are the receiving client's problem, not ours.
		sender.BufferICE(frame.Candidate)
		return
	}

	rt.broadcaster.Relay(room, partner, NewICE(sender.ID, frame.Candidate))
}

func (rt *Router) handleChat(room *domain.Room, sender *domain.Peer, frame *Frame) {
	if !sender.Admitted() {
		return
	}

	rt.broadcaster.BroadcastToAdmitted(room, NewChat(frame.From, frame.Text))
}

func (rt *Router) handleMaterial(room *domain.Room, sender *domain.Peer, frame *Frame) {
	if sender.Role != domain.RoleAdmin || !sender.Admitted() {
		rt.metrics.UnauthorizedCmds.Inc()
		return
	}

	room.SetMaterial(frame.Event, frame.Payload)
	rt.broadcaster.BroadcastToAdmitted(room, NewMaterialEvent(frame.Event, frame.Payload))
}

// OnConnect emits the admission notices owed to a freshly joined peer
// and, for admins, replays the current waiting queue and re-arms every
// admitted user's negotiation.
func (rt *Router) OnConnect(room *domain.Room, peer *domain.Peer) {
	if peer.Role != domain.RoleAdmin {
		rt.broadcaster.Relay(room, peer, NewWaiting())
		rt.broadcaster.NotifyAdmins(room, NewNewWaiting(peer.ID))
		return
	}

	rt.broadcaster.Relay(room, peer, NewAdmitted())
	rt.broadcaster.Relay(room, peer, NewReadyForOffer())

	for _, id := range room.WaitingIDs() {
		rt.broadcaster.Relay(room, peer, NewNewWaiting(id))
	}

	// Users admitted before this admin arrived need to renegotiate;
	// hand the admin whatever candidates they parked in the meantime.
	for _, user := range room.AdmittedUsers() {
		rt.broadcaster.Relay(room, user, NewReadyForOffer())
		for _, candidate := range user.DrainICE() {
			rt.broadcaster.Relay(room, peer, NewICE(user.ID, candidate))
		}
	}
}

// OnDisconnect removes the peer from the room and notifies its
// negotiation partner(s) so they can tear down their side.
func (rt *Router) OnDisconnect(room *domain.Room, peer *domain.Peer) {
	wasAdmitted := room.Leave(peer)
	peer.Close()

	if !wasAdmitted {
		return
	}

	notice := NewPeerLeft(peer.ID)
	if peer.Role == domain.RoleAdmin {
		for _, user := range room.AdmittedUsers() {
			rt.broadcaster.Relay(room, user, notice)
		}
		return
	}

	rt.broadcaster.Relay(room, room.Admin(), notice)
}
