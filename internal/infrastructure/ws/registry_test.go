package ws

import (
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/korlin/auditorium/internal/domain"
	"github.com/korlin/auditorium/internal/infrastructure/metrics"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewRegistry(metrics.New(prometheus.NewRegistry()))
}

func TestJoinRoomCreatesOnce(t *testing.T) {
	reg := newTestRegistry(t)

	room, err := reg.JoinRoom("r1", domain.NewPeer("u1", domain.RoleUser, 4))
	require.NoError(t, err)
	assert.Equal(t, "r1", room.ID)

	again, err := reg.JoinRoom("r1", domain.NewPeer("u2", domain.RoleUser, 4))
	require.NoError(t, err)
	assert.Same(t, room, again)
	assert.Equal(t, 1, reg.Len())

	other, err := reg.JoinRoom("r2", domain.NewPeer("u3", domain.RoleUser, 4))
	require.NoError(t, err)
	assert.NotSame(t, room, other)
	assert.Equal(t, 2, reg.Len())
}

func TestJoinRoomConcurrentSameID(t *testing.T) {
	reg := newTestRegistry(t)

	const n = 64
	rooms := make([]*domain.Room, n)

	var wg sync.WaitGroup
	for i := range rooms {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			room, err := reg.JoinRoom("shared", domain.NewPeer(fmt.Sprintf("u%d", i), domain.RoleUser, 4))
			assert.NoError(t, err)
			rooms[i] = room
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		require.Same(t, rooms[0], rooms[i], "goroutine %d got a different room", i)
	}
	assert.Equal(t, 1, reg.Len())
	assert.Len(t, rooms[0].WaitingIDs(), n)
}

func TestJoinRoomPropagatesAdminConflict(t *testing.T) {
	reg := newTestRegistry(t)

	_, err := reg.JoinRoom("r1", domain.NewPeer("adm1", domain.RoleAdmin, 4))
	require.NoError(t, err)

	_, err = reg.JoinRoom("r1", domain.NewPeer("adm2", domain.RoleAdmin, 4))
	assert.ErrorIs(t, err, domain.ErrAdminConflict)
	assert.Equal(t, 1, reg.Len())
}

func TestReleaseDropsOnlyEmptyRooms(t *testing.T) {
	reg := newTestRegistry(t)

	peer := domain.NewPeer("u1", domain.RoleUser, 4)
	room, err := reg.JoinRoom("r1", peer)
	require.NoError(t, err)

	reg.Release("r1")
	assert.Equal(t, 1, reg.Len(), "occupied room must survive release")

	room.Leave(peer)
	reg.Release("r1")
	assert.Equal(t, 0, reg.Len())

	// A new join after release lands in a fresh room.
	fresh, err := reg.JoinRoom("r1", domain.NewPeer("u2", domain.RoleUser, 4))
	require.NoError(t, err)
	assert.NotSame(t, room, fresh)
	assert.Equal(t, []string{"u2"}, fresh.WaitingIDs())
}

func TestReleaseUnknownRoomIsNoop(t *testing.T) {
	reg := newTestRegistry(t)
	reg.Release("never-seen")
	assert.Equal(t, 0, reg.Len())
}

// Join and release racing on one id must never strand a peer outside
// the registered room: whatever instance the registry holds after the
// churn is the one every joined peer lives in.
func TestJoinReleaseChurnNeverOrphans(t *testing.T) {
	reg := newTestRegistry(t)

	const n = 64
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := domain.NewPeer(fmt.Sprintf("u%d", i), domain.RoleUser, 4)
			room, err := reg.JoinRoom("shared", p)
			if !assert.NoError(t, err) {
				return
			}
			assert.Contains(t, room.WaitingIDs(), p.ID,
				"joined peer must be visible in its room")
			room.Leave(p)
			reg.Release("shared")
		}(i)
	}
	wg.Wait()

	p := domain.NewPeer("last", domain.RoleUser, 4)
	room, err := reg.JoinRoom("shared", p)
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Len())
	assert.Equal(t, []string{"last"}, room.WaitingIDs())
}
