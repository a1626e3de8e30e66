package domain

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinUserEntersWaitingQueue(t *testing.T) {
	room := NewRoom("r1")

	a := NewPeer("a", RoleUser, 8)
	b := NewPeer("b", RoleUser, 8)
	require.NoError(t, room.Join(a))
	require.NoError(t, room.Join(b))

	assert.Equal(t, StateWaiting, a.State())
	assert.Equal(t, []string{"a", "b"}, room.WaitingIDs())
	assert.Empty(t, room.AdmittedPeers(), "waiting peers must not appear in the admitted set")
}

func TestJoinAdminSkipsWaiting(t *testing.T) {
	room := NewRoom("r1")

	admin := NewPeer("adm", RoleAdmin, 8)
	require.NoError(t, room.Join(admin))

	assert.Equal(t, StateAdmitted, admin.State())
	assert.True(t, admin.Admitted())
	assert.Same(t, admin, room.Admin())
	assert.Empty(t, room.WaitingIDs())
}

func TestJoinSecondAdminConflicts(t *testing.T) {
	room := NewRoom("r1")

	require.NoError(t, room.Join(NewPeer("adm1", RoleAdmin, 8)))

	err := room.Join(NewPeer("adm2", RoleAdmin, 8))
	require.ErrorIs(t, err, ErrAdminConflict)
	assert.Len(t, room.AdmittedPeers(), 1)
}

func TestAdminCanRejoinAfterLeaving(t *testing.T) {
	room := NewRoom("r1")

	first := NewPeer("adm1", RoleAdmin, 8)
	require.NoError(t, room.Join(first))
	assert.True(t, room.Leave(first))

	require.NoError(t, room.Join(NewPeer("adm2", RoleAdmin, 8)))
}

func TestAdmitMovesPeerOutOfQueue(t *testing.T) {
	room := NewRoom("r1")

	user := NewPeer("u1", RoleUser, 8)
	require.NoError(t, room.Join(user))

	admitted, err := room.Admit("u1")
	require.NoError(t, err)
	assert.Same(t, user, admitted)
	assert.Equal(t, StateAdmitted, user.State())
	assert.Empty(t, room.WaitingIDs())
	assert.Len(t, room.AdmittedUsers(), 1)
}

func TestAdmitUnknownPeer(t *testing.T) {
	room := NewRoom("r1")

	_, err := room.Admit("nobody")
	assert.ErrorIs(t, err, ErrNotWaiting)
}

func TestAdmitTwiceIsNoOp(t *testing.T) {
	room := NewRoom("r1")

	user := NewPeer("u1", RoleUser, 8)
	require.NoError(t, room.Join(user))

	_, err := room.Admit("u1")
	require.NoError(t, err)

	_, err = room.Admit("u1")
	assert.ErrorIs(t, err, ErrAlreadyAdmitted)
	assert.Equal(t, StateAdmitted, user.State())
}

func TestConcurrentAdmitsExactlyOneWins(t *testing.T) {
	room := NewRoom("r1")
	require.NoError(t, room.Join(NewPeer("u1", RoleUser, 8)))

	const attempts = 32

	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := room.Admit("u1")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins int
	for err := range results {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, ErrAlreadyAdmitted)
		}
	}
	assert.Equal(t, 1, wins)
}

func TestLeaveReportsAdmission(t *testing.T) {
	room := NewRoom("r1")

	waiting := NewPeer("w", RoleUser, 8)
	admitted := NewPeer("a", RoleUser, 8)
	require.NoError(t, room.Join(waiting))
	require.NoError(t, room.Join(admitted))
	_, err := room.Admit("a")
	require.NoError(t, err)

	assert.False(t, room.Leave(waiting), "waiting peer was never admitted")
	assert.True(t, room.Leave(admitted))
	assert.True(t, room.Empty())
}

func TestPartnerResolution(t *testing.T) {
	room := NewRoom("r1")

	admin := NewPeer("adm", RoleAdmin, 8)
	user := NewPeer("u1", RoleUser, 8)
	require.NoError(t, room.Join(admin))
	require.NoError(t, room.Join(user))
	_, err := room.Admit("u1")
	require.NoError(t, err)

	assert.Same(t, admin, room.Partner(user, ""), "a user's partner is the admin, no addressing needed")
	assert.Same(t, user, room.Partner(admin, "u1"))
	assert.Nil(t, room.Partner(admin, "missing"))
	assert.Nil(t, room.Partner(admin, "adm"), "the admin is not its own partner")
	assert.Nil(t, room.Partner(admin, ""))
}

func TestOfferAnswerLinkState(t *testing.T) {
	room := NewRoom("r1")

	admin := NewPeer("adm", RoleAdmin, 8)
	user := NewPeer("u1", RoleUser, 8)
	require.NoError(t, room.Join(admin))
	require.NoError(t, room.Join(user))
	_, err := room.Admit("u1")
	require.NoError(t, err)

	assert.False(t, room.TryAnswerRelay(admin, user), "no offer outstanding yet")

	room.NoteOfferRelayed(user, admin)
	assert.Equal(t, StateOfferExchanged, user.State())

	assert.True(t, room.TryAnswerRelay(admin, user))
	assert.Equal(t, StateConnected, user.State())

	assert.False(t, room.TryAnswerRelay(admin, user), "offer was consumed by the first answer")
}

func TestMaterialStateIsRetained(t *testing.T) {
	room := NewRoom("r1")

	assert.Nil(t, room.Material())

	room.SetMaterial("slide", json.RawMessage(`{"page":3}`))

	m := room.Material()
	require.NotNil(t, m)
	assert.Equal(t, "slide", m.Event)
	assert.JSONEq(t, `{"page":3}`, string(m.Payload))
}

func TestPeerTrySend(t *testing.T) {
	p := NewPeer("p", RoleUser, 2)

	assert.True(t, p.TrySend("one"))
	assert.True(t, p.TrySend("two"))
	assert.False(t, p.TrySend("three"), "full outbox drops without blocking")

	assert.Equal(t, "one", <-p.Outbox())
	assert.Equal(t, "two", <-p.Outbox())
}

func TestPeerCloseIsIdempotent(t *testing.T) {
	p := NewPeer("p", RoleUser, 2)

	p.Close()
	p.Close()

	assert.Equal(t, StateClosed, p.State())
	assert.False(t, p.TrySend("late"))

	_, open := <-p.Outbox()
	assert.False(t, open)
}

func TestICEBufferIsBounded(t *testing.T) {
	p := NewPeer("p", RoleUser, 2)

	for i := 0; i < pendingICELimit+4; i++ {
		p.BufferICE(json.RawMessage(`{"n":` + string(rune('0'+i%10)) + `}`))
	}

	drained := p.DrainICE()
	assert.Len(t, drained, pendingICELimit)
	assert.Empty(t, p.DrainICE(), "drain clears the buffer")
}
