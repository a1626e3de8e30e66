package ws

import (
	"sync"

	"github.com/korlin/auditorium/internal/domain"
	"github.com/korlin/auditorium/internal/infrastructure/metrics"
)

// Registry is the process-wide map from room id to Room. Rooms are
// created lazily on first resolution and dropped once empty.
type Registry struct {
	rooms   map[string]*domain.Room
	mu      sync.RWMutex
	metrics *metrics.Metrics
}

func NewRegistry(m *metrics.Metrics) *Registry {
	return &Registry{
		rooms:   make(map[string]*domain.Room),
		metrics: m,
	}
}

// JoinRoom places a peer into the room for id, creating the room on
// first reference. Create and join happen under the registry lock so a
// concurrent Release can never slip between them: a joined peer always
// lives in the one registered instance for its id.
func (r *Registry) JoinRoom(id string, p *domain.Peer) (*domain.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[id]
	if !ok {
		room = domain.NewRoom(id)
		r.rooms[id] = room
		r.metrics.ActiveRooms.Set(float64(len(r.rooms)))
	}

	if err := room.Join(p); err != nil {
		return nil, err
	}
	return room, nil
}

// Release drops the room if it exists and is empty. Releasing a
// non-empty or absent room is a no-op.
func (r *Registry) Release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[id]
	if !ok || !room.Empty() {
		return
	}

	delete(r.rooms, id)
	r.metrics.ActiveRooms.Set(float64(len(r.rooms)))
}

// Len reports the number of live rooms.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
