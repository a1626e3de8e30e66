package domain

import (
	"encoding/json"
	"sync"
	"time"
)

// MaterialState is the last presentation event seen by the room. It is
// retained for inspection only; late joiners never get a replay.
type MaterialState struct {
	Event     string
	Payload   json.RawMessage
	UpdatedAt time.Time
}

// Room owns the waiting queue, the admitted peer set and the shared
// material state for one room id. All mutation is linearized under the
// room mutex; rooms never share state, so unrelated rooms never contend.
type Room struct {
	ID string

	mu       sync.Mutex
	waiting  []*Peer          // arrival order, doubles as admit/display order
	peers    map[string]*Peer // admitted peers by id
	admin    *Peer            // the single active admin, nil when absent
	material *MaterialState
}

func NewRoom(id string) *Room {
	return &Room{
		ID:    id,
		peers: make(map[string]*Peer),
	}
}

// Join places a connecting peer into the room. Users enter the waiting
// queue; admins enter the admitted set directly. A second admin joining
// while one is active fails with ErrAdminConflict and leaves the room
// unchanged.
func (r *Room) Join(p *Peer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.Role == RoleAdmin {
		if r.admin != nil {
			return ErrAdminConflict
		}
		r.admin = p
		r.peers[p.ID] = p
		return nil
	}

	r.waiting = append(r.waiting, p)
	return nil
}

// Admit moves a waiting peer into the admitted set. Exactly one of two
// concurrent admits of the same peer succeeds; the loser observes
// ErrNotWaiting. Admitting an already-admitted peer is ErrAlreadyAdmitted
// so callers can treat the repeat as a no-op without duplicate notices.
func (r *Room) Admit(targetID string) (*Peer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.peers[targetID]; ok {
		return nil, ErrAlreadyAdmitted
	}

	for i, p := range r.waiting {
		if p.ID == targetID {
			r.waiting = append(r.waiting[:i], r.waiting[i+1:]...)
			r.peers[p.ID] = p
			p.setState(StateAdmitted)
			return p, nil
		}
	}

	return nil, ErrNotWaiting
}

// Leave removes the peer from whichever set holds it and reports whether
// it had been admitted, so the caller knows to notify the negotiation
// partner(s).
func (r *Room) Leave(p *Peer) (wasAdmitted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.peers[p.ID]; ok {
		delete(r.peers, p.ID)
		if r.admin == p {
			r.admin = nil
		}
		return true
	}

	for i, w := range r.waiting {
		if w == p {
			r.waiting = append(r.waiting[:i], r.waiting[i+1:]...)
			break
		}
	}
	return false
}

// Admin returns the room's active admin, or nil.
func (r *Room) Admin() *Peer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.admin
}

// Admins returns the admitted admin peers.
func (r *Room) Admins() []*Peer {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.admin == nil {
		return nil
	}
	return []*Peer{r.admin}
}

// AdmittedPeers returns a snapshot of every admitted peer, admins
// included.
func (r *Room) AdmittedPeers() []*Peer {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Peer, 0, len(r.peers))
	for _, p := range r.peers {
		out = append(out, p)
	}
	return out
}

// AdmittedUsers returns the admitted non-admin peers.
func (r *Room) AdmittedUsers() []*Peer {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Peer, 0, len(r.peers))
	for _, p := range r.peers {
		if p.Role != RoleAdmin {
			out = append(out, p)
		}
	}
	return out
}

// WaitingIDs returns the waiting peer ids in arrival order.
func (r *Room) WaitingIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, len(r.waiting))
	for i, p := range r.waiting {
		ids[i] = p.ID
	}
	return ids
}

// Partner resolves the negotiation partner for an admitted sender. A
// user's partner is the room's admin. The admin multiplexes one link per
// admitted user and must address the target by id; an empty or unknown
// target, or a target that is itself an admin, resolves to nil.
func (r *Room) Partner(sender *Peer, targetID string) *Peer {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sender.Role != RoleAdmin {
		return r.admin
	}

	target, ok := r.peers[targetID]
	if !ok || target.Role == RoleAdmin {
		return nil
	}
	return target
}

// NoteOfferRelayed records that an offer was forwarded on the link
// between from and to, leaving the answer outstanding. The user side of
// the link carries the state.
func (r *Room) NoteOfferRelayed(from, to *Peer) {
	user := from
	if from.Role == RoleAdmin {
		user = to
	}

	user.mu.Lock()
	defer user.mu.Unlock()
	user.offerPending = true
	if user.state == StateAdmitted {
		user.state = StateOfferExchanged
	}
}

// TryAnswerRelay checks that the link between from and to has an
// outstanding offer. If so it consumes it, marks the user side
// connected, and returns true; otherwise the answer must be dropped.
func (r *Room) TryAnswerRelay(from, to *Peer) bool {
	user := from
	if from.Role == RoleAdmin {
		user = to
	}

	user.mu.Lock()
	defer user.mu.Unlock()
	if !user.offerPending {
		return false
	}
	user.offerPending = false
	if user.state == StateOfferExchanged {
		user.state = StateConnected
	}
	return true
}

// SetMaterial stores the room's last presentation event.
func (r *Room) SetMaterial(event string, payload json.RawMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.material = &MaterialState{Event: event, Payload: payload, UpdatedAt: time.Now()}
}

// Material returns the last presentation event, or nil when none was
// broadcast yet.
func (r *Room) Material() *MaterialState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.material
}

// Empty reports whether both the waiting queue and the admitted set are
// empty; the registry releases the room at that point.
func (r *Room) Empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.waiting) == 0 && len(r.peers) == 0
}
