package game

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/phrasedash/go-socket-phrasedash/internal/constants"
	"github.com/phrasedash/go-socket-phrasedash/internal/models"
)

// Error taxonomy surfaced to the originating connection. Late or duplicate
// progress updates are not errors; they are silently ignored.
var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomBusy     = errors.New("game already started or finished")
	ErrRoomEmpty    = errors.New("need at least 1 player to start")
	ErrRoomFull     = errors.New("room has reached maximum capacity")
)

// Sender is the outbound half of the transport. Send delivers a message to
// one connection and reports whether the connection was reachable; an
// unreachable target is never an error for the coordinator.
type Sender interface {
	Send(connID string, msg models.Message) bool
	Reachable(connID string) bool
}

// AdvisoryStore persists room snapshots on a best-effort basis. Its absence
// or failure must not change coordinator behavior, so every call is made
// fire-and-forget off the event path.
type AdvisoryStore interface {
	PutRoom(ctx context.Context, roomID string, state models.GameState) error
	DeleteRoom(ctx context.Context, roomID string) error
}

// Config carries the coordinator's collaborators. Zero-valued delays fall
// back to the production constants; tests shorten them.
type Config struct {
	Phrase PhraseFunc
	Store  AdvisoryStore

	FinishedRoomDelay time.Duration
	EmptyRoomDelay    time.Duration
	PromotionDelay    time.Duration
}

// Coordinator is the session state machine: matchmaking, join and rejoin,
// race start, progress application, race-end detection, ranking, winner
// promotion, disconnect handling and deferred cleanup.
//
// A single mutex serializes every operation, including deferred timer
// callbacks, so two events can never interleave partially on the same
// room. Outbound messages are built under the lock from committed state
// and delivered after it is released.
type Coordinator struct {
	mu       sync.Mutex
	registry *Registry
	sender   Sender
	phrase   PhraseFunc
	store    AdvisoryStore

	finishedRoomDelay time.Duration
	emptyRoomDelay    time.Duration
	promotionDelay    time.Duration
}

// NewCoordinator wires the coordinator to its transport and collaborators.
func NewCoordinator(sender Sender, cfg Config) *Coordinator {
	c := &Coordinator{
		registry:          NewRegistry(),
		sender:            sender,
		phrase:            cfg.Phrase,
		store:             cfg.Store,
		finishedRoomDelay: cfg.FinishedRoomDelay,
		emptyRoomDelay:    cfg.EmptyRoomDelay,
		promotionDelay:    cfg.PromotionDelay,
	}

	if c.phrase == nil {
		c.phrase = RandomPhrase
	}
	if c.finishedRoomDelay == 0 {
		c.finishedRoomDelay = constants.FinishedRoomCleanupDelay
	}
	if c.emptyRoomDelay == 0 {
		c.emptyRoomDelay = constants.EmptyRoomCleanupDelay
	}
	if c.promotionDelay == 0 {
		c.promotionDelay = constants.WinnerPromotionDelay
	}

	return c
}

// outbound is a message addressed to one connection, built under the lock
// and delivered after the mutation commits.
type outbound struct {
	to  string
	msg models.Message
}

func (c *Coordinator) deliver(queue []outbound) {
	for _, out := range queue {
		c.sender.Send(out.to, out.msg)
	}
}

func message(msgType, roomID string, data interface{}) models.Message {
	return models.Message{
		Type:   msgType,
		RoomID: roomID,
		Data:   data,
		Time:   time.Now(),
	}
}

// broadcast queues a message for every member of the room.
func broadcast(queue []outbound, room *Room, msg models.Message) []outbound {
	for _, id := range room.PlayerIDs() {
		queue = append(queue, outbound{to: id, msg: msg})
	}
	return queue
}

// Join assigns the connection to a joinable regular room, creating one with
// a fresh phrase if none qualifies, and announces the updated room state.
func (c *Coordinator) Join(connID, username string) {
	c.mu.Lock()
	room, err := c.placePlayer(connID, username, KindRegular)
	if err != nil {
		c.mu.Unlock()
		c.sender.Send(connID, message(models.EventError, "", err.Error()))
		return
	}

	var queue []outbound
	queue = append(queue, outbound{to: connID, msg: message(models.EventRoomJoined, room.ID, models.RoomJoined{
		RoomID:       room.ID,
		Phrase:       room.Phrase,
		IsWinnerRoom: room.Kind == KindWinner,
	})})
	snapshot := room.Snapshot(time.Now())
	queue = broadcast(queue, room, message(models.EventGameState, room.ID, snapshot))
	c.mu.Unlock()

	log.Info().Str("room", room.ID).Str("user", username).Str("conn", connID).Msg("player joined room")
	c.deliver(queue)
	c.persist(room.ID, snapshot)
}

// Rejoin re-keys the previous connection's record under the new connection
// id when the previous id is still known, preserving accumulated progress.
// Otherwise it falls back to the regular join path with a brand-new record.
func (c *Coordinator) Rejoin(connID, username, previousID string) {
	c.mu.Lock()

	var room *Room
	if previousID != "" {
		room, _ = c.registry.Rekey(previousID, connID)
	}

	if room == nil {
		placed, err := c.placePlayer(connID, username, KindRegular)
		if err != nil {
			c.mu.Unlock()
			c.sender.Send(connID, message(models.EventRejoinFailed, "", err.Error()))
			return
		}
		room = placed
	}

	snapshot := room.Snapshot(time.Now())
	var queue []outbound
	queue = append(queue, outbound{to: connID, msg: message(models.EventRejoinSuccess, room.ID, models.RejoinSuccess{
		GameState: snapshot,
	})})
	queue = broadcast(queue, room, message(models.EventGameState, room.ID, snapshot))
	c.mu.Unlock()

	log.Info().Str("room", room.ID).Str("user", username).Str("prev", previousID).Msg("player rejoined room")
	c.deliver(queue)
	c.persist(room.ID, snapshot)
}

// placePlayer runs matchmaking for the kind and inserts a fresh player.
// Caller holds the lock.
func (c *Coordinator) placePlayer(connID, username string, kind RoomKind) (*Room, error) {
	id := c.registry.FindJoinableID(kind)
	room, ok := c.registry.Get(id)
	if !ok {
		room = c.registry.Create(id, kind, c.phrase())
		log.Info().Str("room", id).Str("kind", string(kind)).Msg("created room")
	}

	if room.Size() >= room.MaxPlayers {
		return nil, ErrRoomFull
	}

	c.registry.Join(room, NewPlayer(connID, username))
	return room, nil
}

// SendState replies with the room's aggregate snapshot.
func (c *Coordinator) SendState(connID, roomID string) {
	c.mu.Lock()
	room, ok := c.registry.Get(roomID)
	if !ok {
		c.mu.Unlock()
		c.sender.Send(connID, message(models.EventError, roomID, ErrRoomNotFound.Error()))
		return
	}
	snapshot := room.Snapshot(time.Now())
	c.mu.Unlock()

	c.sender.Send(connID, message(models.EventGameState, roomID, snapshot))
}

// StartGame transitions a waiting, non-empty room to active and notifies
// the whole room. Failures go back to the requester only.
func (c *Coordinator) StartGame(connID, roomID string) {
	c.mu.Lock()
	room, ok := c.registry.Get(roomID)
	if !ok {
		c.mu.Unlock()
		c.sender.Send(connID, message(models.EventError, roomID, ErrRoomNotFound.Error()))
		return
	}
	if room.Status != constants.StatusWaiting {
		c.mu.Unlock()
		c.sender.Send(connID, message(models.EventError, roomID, ErrRoomBusy.Error()))
		return
	}
	if room.Size() < 1 {
		c.mu.Unlock()
		c.sender.Send(connID, message(models.EventError, roomID, ErrRoomEmpty.Error()))
		return
	}

	now := time.Now()
	room.Status = constants.StatusActive
	room.StartTime = &now

	var queue []outbound
	queue = broadcast(queue, room, message(models.EventGameStarted, roomID, models.GameStarted{StartTime: now}))
	snapshot := room.Snapshot(now)
	queue = broadcast(queue, room, message(models.EventGameState, roomID, snapshot))
	c.mu.Unlock()

	log.Info().Str("room", roomID).Time("start", now).Msg("race started")
	c.deliver(queue)
	c.persist(roomID, snapshot)
}

// ApplyProgress recomputes the caller's metrics from the typed prefix and
// broadcasts the updated room state. Updates for unknown connections,
// inactive rooms or already-finished players are benign late deliveries
// and are dropped without an error.
func (c *Coordinator) ApplyProgress(connID, currentText string) {
	c.mu.Lock()
	room, ok := c.registry.RoomOf(connID)
	if !ok || room.Status != constants.StatusActive {
		c.mu.Unlock()
		return
	}
	player, ok := room.Player(connID)
	if !ok || player.Finished {
		c.mu.Unlock()
		return
	}

	now := time.Now()
	player.CharIndex = len(currentText)
	player.Position = ProgressPercent(currentText, room.Phrase)
	player.WPM = CalculateWPM(currentText, *room.StartTime, now)
	player.Accuracy = CalculateAccuracy(currentText, room.Phrase[:min(len(currentText), len(room.Phrase))])

	var queue []outbound
	if currentText == room.Phrase {
		player.Finished = true
		finish := now
		player.FinishTime = &finish
		rank := room.finishRank(connID)
		queue = append(queue, outbound{to: connID, msg: message(models.EventRaceFinished, room.ID, models.RaceFinished{
			Rank: rank,
		})})
		log.Info().Str("room", room.ID).Str("user", player.Username).Int("rank", rank).Msg("player finished race")
	}

	snapshot := room.Snapshot(now)
	queue = broadcast(queue, room, message(models.EventGameState, room.ID, snapshot))

	if room.AllFinished() {
		room.Status = constants.StatusFinished
		queue = c.endRace(room, queue)
		snapshot = room.Snapshot(now)
	}
	c.mu.Unlock()

	c.deliver(queue)
	c.persist(room.ID, snapshot)
}

// finishRank is the 1-based position among currently-finished members,
// ordered by finish time. Ties keep join order.
func (r *Room) finishRank(connID string) int {
	finished := make([]*Player, 0, len(r.order))
	for _, p := range r.Players() {
		if p.Finished {
			finished = append(finished, p)
		}
	}
	sort.SliceStable(finished, func(i, j int) bool {
		return finished[i].FinishTime.Before(*finished[j].FinishTime)
	})
	for i, p := range finished {
		if p.ID == connID {
			return i + 1
		}
	}
	return 0
}

// endRace ranks all members, broadcasts the results, schedules the winner
// promotion and the room's removal. Caller holds the lock; the room has
// already transitioned to finished.
func (c *Coordinator) endRace(room *Room, queue []outbound) []outbound {
	ranked := room.Players()
	// Unfinished members sort last; ties at the same finish time keep
	// join order.
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i].FinishTime, ranked[j].FinishTime
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.Before(*b)
	})

	results := make([]models.PlayerState, 0, len(ranked))
	for i, p := range ranked {
		p.Rank = i + 1
		results = append(results, p.State())
	}

	queue = broadcast(queue, room, message(models.EventGameEnded, room.ID, models.GameEnded{Results: results}))

	log.Info().Str("room", room.ID).Int("players", len(results)).Msg("race ended")

	if len(ranked) > 0 {
		winnerID, winnerName := ranked[0].ID, ranked[0].Username
		time.AfterFunc(c.promotionDelay, func() {
			c.promoteWinner(winnerID, winnerName)
		})
	}

	roomID := room.ID
	time.AfterFunc(c.finishedRoomDelay, func() {
		c.removeFinishedRoom(roomID)
	})

	return queue
}

// promoteWinner relocates the race winner into a winner room with a reset
// record. Delivery of the promotion depends on the winner still being
// reachable; the state mutation happens either way.
func (c *Coordinator) promoteWinner(winnerID, winnerName string) {
	c.mu.Lock()

	// The winner usually still sits in the finished room awaiting cleanup;
	// lift the record out so identity and name carry over. If the member is
	// already gone a fresh record takes its place.
	var winner *Player
	if old, ok := c.registry.RoomOf(winnerID); ok {
		winner, _ = old.Player(winnerID)
		c.registry.Leave(winnerID)
	}
	if winner == nil {
		winner = NewPlayer(winnerID, winnerName)
	}
	winner.Reset()

	id := c.registry.FindJoinableID(KindWinner)
	room, ok := c.registry.Get(id)
	if !ok {
		room = c.registry.Create(id, KindWinner, c.phrase())
		log.Info().Str("room", id).Msg("created winner room")
	}
	c.registry.Join(room, winner)

	snapshot := room.Snapshot(time.Now())
	roomID, phrase := room.ID, room.Phrase
	c.mu.Unlock()

	log.Info().Str("room", roomID).Str("user", winnerName).Msg("winner promoted")

	if c.sender.Reachable(winnerID) {
		c.sender.Send(winnerID, message(models.EventWinnerPromoted, roomID, models.WinnerPromoted{
			Message: "You won! Moving you to the winners' room.",
			RoomID:  roomID,
		}))
		c.sender.Send(winnerID, message(models.EventRoomJoined, roomID, models.RoomJoined{
			RoomID:       roomID,
			Phrase:       phrase,
			IsWinnerRoom: true,
		}))
		c.sender.Send(winnerID, message(models.EventGameState, roomID, snapshot))
	}
	c.persist(roomID, snapshot)
}

// Disconnect removes the connection's player, notifies the remaining
// members and schedules removal of a room left empty. Disconnect is an
// expected transition, never an error.
func (c *Coordinator) Disconnect(connID string) {
	c.mu.Lock()
	room, ok := c.registry.Leave(connID)
	if !ok {
		c.mu.Unlock()
		return
	}

	var queue []outbound
	var snapshot models.GameState
	remaining := room.Size()
	if remaining > 0 {
		snapshot = room.Snapshot(time.Now())
		queue = broadcast(queue, room, message(models.EventGameState, room.ID, snapshot))
	} else {
		// Leave a reconnection window before tearing the room down.
		roomID := room.ID
		time.AfterFunc(c.emptyRoomDelay, func() {
			c.removeEmptyRoom(roomID)
		})
	}
	c.mu.Unlock()

	log.Info().Str("room", room.ID).Str("conn", connID).Msg("player disconnected")
	c.deliver(queue)
	if remaining > 0 {
		c.persist(room.ID, snapshot)
	}
}

// removeFinishedRoom is the deferred cleanup for a completed race. The
// room state is re-checked at fire time; that re-check is the cancellation
// contract for all deferred work here.
func (c *Coordinator) removeFinishedRoom(roomID string) {
	c.mu.Lock()
	room, ok := c.registry.Get(roomID)
	if !ok || room.Status != constants.StatusFinished {
		c.mu.Unlock()
		return
	}
	c.registry.Remove(roomID)
	c.mu.Unlock()

	log.Info().Str("room", roomID).Msg("removed finished room")
	c.discard(roomID)
}

// removeEmptyRoom tears down a room that stayed empty through the grace
// period. A room repopulated in the meantime survives.
func (c *Coordinator) removeEmptyRoom(roomID string) {
	c.mu.Lock()
	room, ok := c.registry.Get(roomID)
	if !ok || room.Size() > 0 {
		c.mu.Unlock()
		return
	}
	c.registry.Remove(roomID)
	c.mu.Unlock()

	log.Info().Str("room", roomID).Msg("removed empty room")
	c.discard(roomID)
}

// RoomExists reports whether the room id is currently live.
func (c *Coordinator) RoomExists(roomID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.registry.Get(roomID)
	return ok
}

// persist writes the snapshot to the advisory store off the event path.
func (c *Coordinator) persist(roomID string, state models.GameState) {
	if c.store == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := c.store.PutRoom(ctx, roomID, state); err != nil {
			log.Debug().Err(err).Str("room", roomID).Msg("advisory persist failed")
		}
	}()
}

func (c *Coordinator) discard(roomID string) {
	if c.store == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := c.store.DeleteRoom(ctx, roomID); err != nil {
			log.Debug().Err(err).Str("room", roomID).Msg("advisory delete failed")
		}
	}()
}
