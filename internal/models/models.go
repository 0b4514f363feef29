package models

import (
	"encoding/json"
	"time"
)

// Inbound event names. The websocket handler decodes each event's payload
// into one of the typed structs below before the game package ever sees it,
// so the coordinator never dispatches on raw strings.
const (
	EventJoinRoom     = "join-room"
	EventRejoinRoom   = "rejoin-room"
	EventStartGame    = "start-game"
	EventGetGameState = "get-game-state"
	EventStartTyping  = "start-typing"
	EventPing         = "ping"
)

// Outbound event names.
const (
	EventRoomJoined     = "room-joined"
	EventGameState      = "game-state"
	EventGameStarted    = "game-started"
	EventRaceFinished   = "race-finished"
	EventGameEnded      = "game-ended"
	EventWinnerPromoted = "winner-promoted"
	EventRejoinSuccess  = "rejoin-success"
	EventRejoinFailed   = "rejoin-failed"
	EventError          = "error"
	EventPong           = "pong"
	EventConnected      = "connected"
)

// Inbound is the wire envelope read from a client connection. Data stays
// raw until the handler knows the event type.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Message is the wire envelope sent to clients.
type Message struct {
	Type   string      `json:"type"`
	RoomID string      `json:"roomId,omitempty"`
	Data   interface{} `json:"data,omitempty"`
	Time   time.Time   `json:"timestamp"`
}

// Inbound payloads.

type JoinPayload struct {
	Username string `json:"username"`
}

type RejoinPayload struct {
	Username   string `json:"username"`
	PreviousID string `json:"previousId,omitempty"`
}

type RoomPayload struct {
	RoomID string `json:"roomId"`
}

type ProgressPayload struct {
	CurrentText string `json:"currentText"`
}

// Outbound payloads.

// PlayerState is one player's live race record as serialized to clients.
type PlayerState struct {
	ID         string     `json:"id"`
	Username   string     `json:"username"`
	Position   float64    `json:"position"`
	WPM        float64    `json:"wpm"`
	Accuracy   float64    `json:"accuracy"`
	CharIndex  int        `json:"currentCharIndex"`
	Finished   bool       `json:"finished"`
	FinishTime *time.Time `json:"finishTime,omitempty"`
	Rank       int        `json:"rank,omitempty"`
}

// GameState is the aggregate room snapshot broadcast after every mutation.
type GameState struct {
	RoomID        string        `json:"roomId"`
	Players       []PlayerState `json:"players"`
	Phrase        string        `json:"phrase"`
	Status        string        `json:"status"`
	TimeRemaining *int64        `json:"timeRemaining,omitempty"` // milliseconds
	IsWinnerRoom  bool          `json:"isWinnerRoom,omitempty"`
}

type RoomJoined struct {
	RoomID       string `json:"roomId"`
	Phrase       string `json:"phrase"`
	IsWinnerRoom bool   `json:"isWinnerRoom,omitempty"`
}

type GameStarted struct {
	StartTime time.Time `json:"startTime"`
}

type RaceFinished struct {
	Rank int `json:"rank"`
}

type GameEnded struct {
	Results []PlayerState `json:"results"`
}

type WinnerPromoted struct {
	Message string `json:"message"`
	RoomID  string `json:"roomId"`
}

type RejoinSuccess struct {
	GameState GameState `json:"gameState"`
}

// Connected tells a fresh connection its id, needed later for rejoin.
type Connected struct {
	ID string `json:"id"`
}
