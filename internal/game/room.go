package game

import (
	"time"

	"github.com/phrasedash/go-socket-phrasedash/internal/constants"
	"github.com/phrasedash/go-socket-phrasedash/internal/models"
)

// RoomKind separates the regular matchmaking pool from winner rooms, which
// are populated only by promoted race winners.
type RoomKind string

const (
	KindRegular RoomKind = "regular"
	KindWinner  RoomKind = "winner"
)

// Prefix returns the id prefix for the kind. Regular rooms are plain
// numbers ("1", "2", ...), winner rooms carry the winner prefix ("W1").
func (k RoomKind) Prefix() string {
	if k == KindWinner {
		return constants.WinnerRoomPrefix
	}
	return ""
}

// Room is one race instance: a fixed phrase, up to MaxPlayers racers and a
// waiting -> active -> finished lifecycle. Rooms hold no locks; all access
// is serialized by the Coordinator.
type Room struct {
	ID         string
	Kind       RoomKind
	Phrase     string
	Status     string
	StartTime  *time.Time
	MaxPlayers int

	players map[string]*Player
	order   []string // player ids in join order
}

// NewRoom creates a waiting room with a fixed phrase.
func NewRoom(id string, kind RoomKind, phrase string) *Room {
	return &Room{
		ID:         id,
		Kind:       kind,
		Phrase:     phrase,
		Status:     constants.StatusWaiting,
		MaxPlayers: constants.MaxPlayersPerRoom,
		players:    make(map[string]*Player),
	}
}

// Player looks up a member by connection id.
func (r *Room) Player(id string) (*Player, bool) {
	p, ok := r.players[id]
	return p, ok
}

// Players returns the members in join order.
func (r *Room) Players() []*Player {
	out := make([]*Player, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.players[id])
	}
	return out
}

// PlayerIDs returns the member ids in join order.
func (r *Room) PlayerIDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Size is the current member count.
func (r *Room) Size() int {
	return len(r.players)
}

// IsJoinable reports whether matchmaking may place a new player here.
func (r *Room) IsJoinable() bool {
	return r.Status == constants.StatusWaiting && len(r.players) < r.MaxPlayers
}

func (r *Room) addPlayer(p *Player) {
	r.players[p.ID] = p
	r.order = append(r.order, p.ID)
}

func (r *Room) removePlayer(id string) {
	if _, ok := r.players[id]; !ok {
		return
	}
	delete(r.players, id)
	for i, pid := range r.order {
		if pid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// rekeyPlayer moves the record stored under oldID to newID, keeping its
// position in the join order. The record itself is untouched apart from
// its id, which is what preserves race progress across a reconnect.
func (r *Room) rekeyPlayer(oldID, newID string) *Player {
	p, ok := r.players[oldID]
	if !ok {
		return nil
	}
	delete(r.players, oldID)
	p.ID = newID
	r.players[newID] = p
	for i, pid := range r.order {
		if pid == oldID {
			r.order[i] = newID
			break
		}
	}
	return p
}

// AllFinished reports whether every member has completed the phrase.
func (r *Room) AllFinished() bool {
	if len(r.players) == 0 {
		return false
	}
	for _, p := range r.players {
		if !p.Finished {
			return false
		}
	}
	return true
}

// Snapshot builds the aggregate wire state for the room. TimeRemaining is
// only present once the race has started and is clamped at zero.
func (r *Room) Snapshot(now time.Time) models.GameState {
	state := models.GameState{
		RoomID:       r.ID,
		Players:      make([]models.PlayerState, 0, len(r.order)),
		Phrase:       r.Phrase,
		Status:       r.Status,
		IsWinnerRoom: r.Kind == KindWinner,
	}

	for _, p := range r.Players() {
		state.Players = append(state.Players, p.State())
	}

	if r.StartTime != nil {
		remaining := (constants.RaceDuration - now.Sub(*r.StartTime)).Milliseconds()
		if remaining < 0 {
			remaining = 0
		}
		state.TimeRemaining = &remaining
	}

	return state
}
