package game

import (
	"time"

	"github.com/phrasedash/go-socket-phrasedash/internal/models"
)

// Player is one connected racer's live record inside a room. The ID is
// connection-scoped: a reconnect re-keys the same record under the new id.
type Player struct {
	ID         string
	Username   string
	Position   float64
	WPM        float64
	Accuracy   float64
	CharIndex  int
	Finished   bool
	FinishTime *time.Time
	Rank       int
}

// NewPlayer creates a fresh player record with initial metrics.
func NewPlayer(id, username string) *Player {
	return &Player{
		ID:       id,
		Username: username,
		Accuracy: 100,
	}
}

// Reset clears accumulated race state, keeping identity and name. Used when
// a race winner is moved into a winner room.
func (p *Player) Reset() {
	p.Position = 0
	p.WPM = 0
	p.Accuracy = 100
	p.CharIndex = 0
	p.Finished = false
	p.FinishTime = nil
	p.Rank = 0
}

// State copies the record into its wire form.
func (p *Player) State() models.PlayerState {
	state := models.PlayerState{
		ID:        p.ID,
		Username:  p.Username,
		Position:  p.Position,
		WPM:       p.WPM,
		Accuracy:  p.Accuracy,
		CharIndex: p.CharIndex,
		Finished:  p.Finished,
		Rank:      p.Rank,
	}
	if p.FinishTime != nil {
		t := *p.FinishTime
		state.FinishTime = &t
	}
	return state
}
