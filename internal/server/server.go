package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/holdem-tables/internal/accounts"
	"github.com/lox/holdem-tables/internal/game"
)

// AccountStore is the slice of the accounts layer the transport
// needs: provisioning on first auth and the stats lookup.
type AccountStore interface {
	CreatePlayer(playerID string, chips int) error
	GetStats(playerID string) (accounts.Stats, error)
}

// Server accepts WebSocket clients and routes their intents to the
// game engine. It also implements game.Broadcaster so engine events
// flow back out over the same connections.
type Server struct {
	addr        string
	upgrader    websocket.Upgrader
	connections map[*Connection]bool
	register    chan *Connection
	unregister  chan *Connection
	logger      *log.Logger
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	engine      *game.Engine
	accounts    AccountStore
	httpServer  *http.Server

	// startingChips is granted when a player id is first seen.
	startingChips int
}

// NewServer creates a WebSocket server. Attach the engine with
// SetEngine before starting.
func NewServer(addr string, logger *log.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// For development, allow all origins
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*Connection]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		logger:      logger.WithPrefix("server"),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// SetEngine attaches the game engine.
func (s *Server) SetEngine(engine *game.Engine) {
	s.engine = engine
}

// SetAccounts attaches the accounts layer used for auth provisioning
// and stats lookups.
func (s *Server) SetAccounts(acct AccountStore, startingChips int) {
	s.accounts = acct
	s.startingChips = startingChips
}

// Start runs the server until the listener fails or Stop is called.
func (s *Server) Start() error {
	go s.run()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	s.mu.Lock()
	s.httpServer = &http.Server{Addr: s.addr, Handler: mux}
	srv := s.httpServer
	s.mu.Unlock()

	s.logger.Info("Starting WebSocket server", "addr", s.addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop closes every connection and shuts the listener down.
func (s *Server) Stop() error {
	s.cancel()

	s.mu.Lock()
	for conn := range s.connections {
		_ = conn.Close()
	}
	srv := s.httpServer
	s.mu.Unlock()

	if srv != nil {
		return srv.Shutdown(context.Background())
	}
	return nil
}

// run handles connection lifecycle.
func (s *Server) run() {
	for {
		select {
		case conn := <-s.register:
			s.mu.Lock()
			s.connections[conn] = true
			total := len(s.connections)
			s.mu.Unlock()
			s.logger.Info("Client connected", "total", total)

		case conn := <-s.unregister:
			s.mu.Lock()
			_, ok := s.connections[conn]
			if ok {
				delete(s.connections, conn)
			}
			total := len(s.connections)
			s.mu.Unlock()

			if ok {
				s.cleanupConnection(conn)
				_ = conn.Close()
			}
			s.logger.Info("Client disconnected", "total", total)

		case <-s.ctx.Done():
			return
		}
	}
}

// cleanupConnection treats a dropped socket as leaving the table: the
// seat folds out mid-hand and cashes out between hands.
func (s *Server) cleanupConnection(conn *Connection) {
	playerID := conn.GetPlayer()
	gameID := conn.GetGame()
	if playerID == "" || gameID == "" || s.engine == nil {
		return
	}

	s.logger.Info("Cleaning up disconnected player", "player", playerID, "game", gameID)
	err := s.engine.Leave(gameID, playerID)
	if errors.Is(err, game.ErrPlayerNotFound) {
		err = s.engine.LeaveQueue(gameID, playerID)
	}
	if err != nil && !errors.Is(err, game.ErrPlayerNotFound) && !errors.Is(err, game.ErrTableNotFound) {
		s.logger.Error("Failed to remove disconnected player", "player", playerID, "game", gameID, "error", err)
	}
}

// handleWebSocket handles WebSocket upgrade requests.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(conn, s.logger, s)
	s.register <- client
	client.Start()

	go func() {
		<-client.ctx.Done()
		s.unregister <- client
	}()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

// EmitToPlayer implements game.Broadcaster. Events for players with
// no live connection (CPU seats, disconnected humans) are dropped.
func (s *Server) EmitToPlayer(playerID, event string, payload any) {
	msg, err := NewMessage(MessageType(event), payload)
	if err != nil {
		s.logger.Error("Failed to encode event", "event", event, "error", err)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for conn := range s.connections {
		if conn.GetPlayer() == playerID {
			if err := conn.SendMessage(msg); err != nil {
				s.logger.Error("Failed to send event", "event", event, "player", playerID, "error", err)
			}
			return
		}
	}
}

// EmitToTable implements game.Broadcaster.
func (s *Server) EmitToTable(gameID, event string, payload any) {
	msg, err := NewMessage(MessageType(event), payload)
	if err != nil {
		s.logger.Error("Failed to encode event", "event", event, "error", err)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for conn := range s.connections {
		if conn.GetGame() == gameID {
			if err := conn.SendMessage(msg); err != nil {
				s.logger.Error("Failed to send event", "event", event, "player", conn.GetPlayer(), "error", err)
			} else {
				count++
			}
		}
	}
	s.logger.Debug("Broadcast event to table", "game", gameID, "event", event, "recipients", count)
}

// GetConnectedPlayers returns the ids of authenticated connections.
func (s *Server) GetConnectedPlayers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var players []string
	for conn := range s.connections {
		if playerID := conn.GetPlayer(); playerID != "" {
			players = append(players, playerID)
		}
	}
	return players
}
