package constants

import "time"

// Game state and configuration constants
const (
	StatusWaiting  = "waiting"
	StatusActive   = "active"
	StatusFinished = "finished"

	MaxPlayersPerRoom = 8
	RaceDuration      = 120 * time.Second

	// Grace periods before deferred cleanup fires. Every timer re-checks
	// room state at fire time, so a repopulated room survives the delay.
	FinishedRoomCleanupDelay = 30 * time.Second
	EmptyRoomCleanupDelay    = 10 * time.Second
	WinnerPromotionDelay     = 5 * time.Second

	WinnerRoomPrefix = "W"
)
