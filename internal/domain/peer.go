package domain

import (
	"encoding/json"
	"sync"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// PeerState tracks a peer's admission/negotiation lifecycle. Admin peers
// skip StateWaiting and enter at StateAdmitted.
type PeerState int

const (
	StateWaiting PeerState = iota
	StateAdmitted
	StateOfferExchanged
	StateConnected
	StateClosed
)

func (s PeerState) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StateAdmitted:
		return "admitted"
	case StateOfferExchanged:
		return "offer_exchanged"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// pendingICELimit bounds the per-peer candidate buffer. Candidates a peer
// sends while its negotiation partner is absent are parked here; the
// oldest is dropped on overflow.
const pendingICELimit = 16

// Peer is one connected participant. The outbound channel is owned
// exclusively by the peer and drained by its connection's write pump;
// nothing else may read from or close it.
type Peer struct {
	ID   string
	Role Role

	mu         sync.Mutex
	state      PeerState
	closed     bool
	out        chan any
	pendingICE []json.RawMessage

	// offerPending is set while an offer has been relayed on this
	// peer's negotiation link and the answer is still outstanding.
	// Only meaningful for user peers (one link per user).
	offerPending bool
}

func NewPeer(id string, role Role, outboxSize int) *Peer {
	if outboxSize <= 0 {
		outboxSize = 64
	}

	state := StateWaiting
	if role == RoleAdmin {
		state = StateAdmitted
	}

	return &Peer{
		ID:    id,
		Role:  role,
		state: state,
		out:   make(chan any, outboxSize),
	}
}

func (p *Peer) State() PeerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Peer) setState(s PeerState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = s
}

// Admitted reports whether the peer has passed admission control.
func (p *Peer) Admitted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state >= StateAdmitted && p.state != StateClosed
}

// TrySend enqueues a message without blocking. It returns false when the
// peer is closed or its outbox is full; the caller treats either as a
// best-effort drop.
func (p *Peer) TrySend(v any) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return false
	}

	select {
	case p.out <- v:
		return true
	default:
		return false
	}
}

// Outbox returns the peer's outbound channel for the write pump.
func (p *Peer) Outbox() <-chan any {
	return p.out
}

// Close marks the peer terminal and closes the outbound channel so the
// write pump drains and exits. Safe to call more than once.
func (p *Peer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	p.state = StateClosed
	close(p.out)
}

func (p *Peer) BufferICE(candidate json.RawMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.pendingICE) >= pendingICELimit {
		p.pendingICE = p.pendingICE[1:]
	}
	p.pendingICE = append(p.pendingICE, candidate)
}

func (p *Peer) DrainICE() []json.RawMessage {
	p.mu.Lock()
	defer p.mu.Unlock()

	buffered := p.pendingICE
	p.pendingICE = nil
	return buffered
}
