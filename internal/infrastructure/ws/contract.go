package ws

import "encoding/json"

// Frame is the wire envelope for every signaling message. Kind-specific
// fields are optional; the relay frames (offer/answer/ice) carry PeerID
// only on the admin's multiplexed links: the server sets it to the
// originating user when relaying to the admin, the admin must set it to
// address a user, and users omit it (their partner is always the admin).
type Frame struct {
	Type      string          `json:"type"`
	PeerID    string          `json:"peer_id,omitempty"`
	SDP       string          `json:"sdp,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
	From      string          `json:"from,omitempty"`
	Text      string          `json:"text,omitempty"`
	Event     string          `json:"event,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

func NewWaiting() *Frame {
	return &Frame{Type: KindWaiting}
}

func NewNewWaiting(peerID string) *Frame {
	return &Frame{Type: KindNewWaiting, PeerID: peerID}
}

func NewAdmitted() *Frame {
	return &Frame{Type: KindAdmitted}
}

func NewReadyForOffer() *Frame {
	return &Frame{Type: KindReadyForOffer}
}

func NewPeerLeft(peerID string) *Frame {
	return &Frame{Type: KindPeerLeft, PeerID: peerID}
}

func NewOffer(fromPeerID, sdp string) *Frame {
	return &Frame{Type: KindOffer, PeerID: fromPeerID, SDP: sdp}
}

func NewAnswer(fromPeerID, sdp string) *Frame {
	return &Frame{Type: KindAnswer, PeerID: fromPeerID, SDP: sdp}
}

func NewICE(fromPeerID string, candidate json.RawMessage) *Frame {
	return &Frame{Type: KindICE, PeerID: fromPeerID, Candidate: candidate}
}

func NewChat(from, text string) *Frame {
	return &Frame{Type: KindChat, From: from, Text: text}
}

func NewMaterialEvent(event string, payload json.RawMessage) *Frame {
	return &Frame{Type: KindMaterialEvent, Event: event, Payload: payload}
}
