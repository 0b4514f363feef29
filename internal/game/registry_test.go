package game

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrasedash/go-socket-phrasedash/internal/constants"
)

func TestFindJoinableIDStartsAtOne(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, "1", r.FindJoinableID(KindRegular))
	assert.Equal(t, "W1", r.FindJoinableID(KindWinner))
}

func TestFindJoinableIDSkipsFullAndBusyRooms(t *testing.T) {
	r := NewRegistry()

	full := r.Create("1", KindRegular, "phrase")
	for i := 0; i < full.MaxPlayers; i++ {
		r.Join(full, NewPlayer(fmt.Sprintf("conn-%d", i), "player"))
	}

	busy := r.Create("2", KindRegular, "phrase")
	busy.Status = constants.StatusActive

	assert.Equal(t, "3", r.FindJoinableID(KindRegular))

	open := r.Create("3", KindRegular, "phrase")
	r.Join(open, NewPlayer("x", "x"))
	assert.Equal(t, "3", r.FindJoinableID(KindRegular))
}

func TestFindJoinableIDIgnoresOtherKinds(t *testing.T) {
	r := NewRegistry()
	r.Create("1", KindRegular, "phrase")

	// A regular room "1" does not occupy the winner sequence.
	assert.Equal(t, "W1", r.FindJoinableID(KindWinner))
}

func TestIndexFollowsMembership(t *testing.T) {
	r := NewRegistry()
	room := r.Create("1", KindRegular, "phrase")

	r.Join(room, NewPlayer("a", "alice"))
	r.Join(room, NewPlayer("b", "bob"))

	got, ok := r.RoomOf("a")
	require.True(t, ok)
	assert.Equal(t, room, got)

	left, ok := r.Leave("a")
	require.True(t, ok)
	assert.Equal(t, room, left)
	_, ok = r.RoomOf("a")
	assert.False(t, ok)

	_, found := room.Player("a")
	assert.False(t, found)
	assert.Equal(t, 1, room.Size())
}

func TestLeaveUnknownPlayer(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Leave("ghost")
	assert.False(t, ok)
}

func TestRekeyPreservesRecordAndOrder(t *testing.T) {
	r := NewRegistry()
	room := r.Create("1", KindRegular, "phrase")
	r.Join(room, NewPlayer("a", "alice"))
	r.Join(room, NewPlayer("b", "bob"))

	alice, _ := room.Player("a")
	alice.Position = 42.5
	alice.WPM = 60

	got, p := r.Rekey("a", "a2")
	require.NotNil(t, p)
	assert.Equal(t, room, got)
	assert.Equal(t, "a2", p.ID)
	assert.Equal(t, 42.5, p.Position)
	assert.Equal(t, float64(60), p.WPM)

	// Join order keeps alice first under her new id.
	assert.Equal(t, []string{"a2", "b"}, room.PlayerIDs())

	_, ok := r.RoomOf("a")
	assert.False(t, ok)
	back, ok := r.RoomOf("a2")
	require.True(t, ok)
	assert.Equal(t, room, back)
}

func TestRekeyUnknownID(t *testing.T) {
	r := NewRegistry()
	room, p := r.Rekey("ghost", "new")
	assert.Nil(t, room)
	assert.Nil(t, p)
}

func TestRemoveUnbindsAllMembers(t *testing.T) {
	r := NewRegistry()
	room := r.Create("1", KindRegular, "phrase")
	r.Join(room, NewPlayer("a", "alice"))
	r.Join(room, NewPlayer("b", "bob"))

	r.Remove("1")

	_, ok := r.Get("1")
	assert.False(t, ok)
	_, ok = r.RoomOf("a")
	assert.False(t, ok)
	_, ok = r.RoomOf("b")
	assert.False(t, ok)

	// Removing again is a no-op.
	r.Remove("1")
	assert.Equal(t, 0, r.Size())
}
