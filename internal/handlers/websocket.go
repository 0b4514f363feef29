package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/phrasedash/go-socket-phrasedash/internal/game"
	"github.com/phrasedash/go-socket-phrasedash/internal/models"
)

// Configure WebSocket upgrader
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict origins once the client origin list is settled
		return true
	},
}

const writeTimeout = 5 * time.Second

// conn wraps a websocket connection with a write lock so concurrent
// broadcasts never interleave frames.
type conn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
}

// Server is the transport adapter: it owns the connection table, decodes
// inbound events into typed coordinator calls and delivers coordinator
// output back over the wire. It implements game.Sender.
type Server struct {
	mu          sync.RWMutex
	conns       map[string]*conn
	Coordinator *game.Coordinator
}

// NewServer builds the adapter and its coordinator.
func NewServer(cfg game.Config) *Server {
	s := &Server{
		conns: make(map[string]*conn),
	}
	s.Coordinator = game.NewCoordinator(s, cfg)
	return s
}

// Routes builds the HTTP mux: the websocket endpoint plus the api probes.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/room", s.HandleWebSocket)
	mux.HandleFunc("/health", s.HandleHealth)
	mux.HandleFunc("/api/check-room", s.HandleCheckRoom)
	return mux
}

// Send delivers one message to a connection. Returns false when the
// connection is gone or the write fails; the caller treats that as an
// unreachable peer, not an error.
func (s *Server) Send(connID string, msg models.Message) bool {
	s.mu.RLock()
	c, ok := s.conns[connID]
	s.mu.RUnlock()
	if !ok {
		return false
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.ws.WriteJSON(msg); err != nil {
		log.Debug().Err(err).Str("conn", connID).Str("type", msg.Type).Msg("write failed")
		return false
	}
	return true
}

// Reachable reports whether the connection is still in the table.
func (s *Server) Reachable(connID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.conns[connID]
	return ok
}

// HandleWebSocket upgrades the request and runs the read loop for the new
// connection.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	connID := uuid.New().String()
	c := &conn{ws: ws}

	s.mu.Lock()
	s.conns[connID] = c
	s.mu.Unlock()

	log.Info().Str("conn", connID).Msg("client connected")

	// The client needs its connection id to rejoin after a drop.
	s.Send(connID, models.Message{
		Type: models.EventConnected,
		Data: models.Connected{ID: connID},
		Time: time.Now(),
	})

	go s.readLoop(connID, c)
}

// readLoop decodes each inbound envelope exactly once into its typed
// payload and dispatches the matching coordinator call. Unknown events are
// dropped.
func (s *Server) readLoop(connID string, c *conn) {
	defer s.drop(connID, c)

	for {
		var msg models.Inbound
		if err := c.ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Str("conn", connID).Msg("websocket read error")
			}
			return
		}

		switch msg.Type {
		case models.EventJoinRoom:
			var data models.JoinPayload
			if decode(connID, msg, &data) {
				s.Coordinator.Join(connID, data.Username)
			}
		case models.EventRejoinRoom:
			var data models.RejoinPayload
			if decode(connID, msg, &data) {
				s.Coordinator.Rejoin(connID, data.Username, data.PreviousID)
			}
		case models.EventStartGame:
			var data models.RoomPayload
			if decode(connID, msg, &data) {
				s.Coordinator.StartGame(connID, data.RoomID)
			}
		case models.EventGetGameState:
			var data models.RoomPayload
			if decode(connID, msg, &data) {
				s.Coordinator.SendState(connID, data.RoomID)
			}
		case models.EventStartTyping:
			var data models.ProgressPayload
			if decode(connID, msg, &data) {
				s.Coordinator.ApplyProgress(connID, data.CurrentText)
			}
		case models.EventPing:
			s.Send(connID, models.Message{Type: models.EventPong, Time: time.Now()})
		default:
			log.Debug().Str("conn", connID).Str("type", msg.Type).Msg("unknown event")
		}
	}
}

func decode(connID string, msg models.Inbound, out interface{}) bool {
	if err := json.Unmarshal(msg.Data, out); err != nil {
		log.Debug().Err(err).Str("conn", connID).Str("type", msg.Type).Msg("bad payload")
		return false
	}
	return true
}

// drop closes and forgets the connection, then lets the coordinator handle
// the disconnect.
func (s *Server) drop(connID string, c *conn) {
	s.mu.Lock()
	delete(s.conns, connID)
	s.mu.Unlock()

	c.ws.Close()
	log.Info().Str("conn", connID).Msg("client disconnected")

	s.Coordinator.Disconnect(connID)
}
