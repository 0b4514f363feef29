package game

import (
	"strconv"
)

// Registry owns the set of active rooms and the player-to-room index. It is
// a plain data structure: no operation blocks and no locking happens here,
// the Coordinator serializes every call.
//
// Invariant: a player id appears in playerRooms exactly when it appears in
// exactly one room's membership, which is why all membership changes go
// through Join/Leave/Rekey/Remove below.
type Registry struct {
	rooms       map[string]*Room
	playerRooms map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms:       make(map[string]*Room),
		playerRooms: make(map[string]string),
	}
}

// FindJoinableID scans rooms of the kind in a dense numeric sequence
// starting at 1 and returns the id of the first waiting room with spare
// capacity, or the first unused id if none qualifies. Ids are dense per
// kind, so the scan terminates.
func (r *Registry) FindJoinableID(kind RoomKind) string {
	for n := 1; ; n++ {
		id := kind.Prefix() + strconv.Itoa(n)
		room, ok := r.rooms[id]
		if !ok || room.IsJoinable() {
			return id
		}
	}
}

// Create makes a new room under the id. At most one room per id exists at
// a time; creating over a live id is a programming error.
func (r *Registry) Create(id string, kind RoomKind, phrase string) *Room {
	room := NewRoom(id, kind, phrase)
	r.rooms[id] = room
	return room
}

// Get looks up a room by id.
func (r *Registry) Get(id string) (*Room, bool) {
	room, ok := r.rooms[id]
	return room, ok
}

// RoomOf resolves the room currently containing the player id.
func (r *Registry) RoomOf(playerID string) (*Room, bool) {
	roomID, ok := r.playerRooms[playerID]
	if !ok {
		return nil, false
	}
	room, ok := r.rooms[roomID]
	return room, ok
}

// Join inserts the player into the room and indexes it.
func (r *Registry) Join(room *Room, p *Player) {
	room.addPlayer(p)
	r.playerRooms[p.ID] = room.ID
}

// Leave removes the player from its room, if any, and unbinds the index.
// Returns the room the player was in.
func (r *Registry) Leave(playerID string) (*Room, bool) {
	roomID, ok := r.playerRooms[playerID]
	delete(r.playerRooms, playerID)
	if !ok {
		return nil, false
	}
	room, ok := r.rooms[roomID]
	if !ok {
		return nil, false
	}
	room.removePlayer(playerID)
	return room, true
}

// Rekey moves a player record to a new connection id in place, preserving
// all accumulated state. Returns the record, or nil if oldID is unknown.
func (r *Registry) Rekey(oldID, newID string) (*Room, *Player) {
	room, ok := r.RoomOf(oldID)
	if !ok {
		return nil, nil
	}
	p := room.rekeyPlayer(oldID, newID)
	if p == nil {
		return nil, nil
	}
	delete(r.playerRooms, oldID)
	r.playerRooms[newID] = room.ID
	return room, p
}

// Remove destroys the room and unbinds every remaining member from the
// index. Safe to call on an already-removed id.
func (r *Registry) Remove(id string) {
	room, ok := r.rooms[id]
	if !ok {
		return
	}
	for _, playerID := range room.PlayerIDs() {
		delete(r.playerRooms, playerID)
	}
	delete(r.rooms, id)
}

// Size is the number of live rooms.
func (r *Registry) Size() int {
	return len(r.rooms)
}
