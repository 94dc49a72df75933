package server

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/holdem-tables/internal/game"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var ErrConnectionClosed = websocket.ErrCloseSent

// Connection wraps one WebSocket client.
type Connection struct {
	conn      *websocket.Conn
	send      chan *Message
	playerID  string
	gameID    string
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	closeOnce sync.Once
	server    *Server
}

// NewConnection creates a connection wrapper.
func NewConnection(conn *websocket.Conn, logger *log.Logger, server *Server) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:   conn,
		send:   make(chan *Message, 256),
		logger: logger.WithPrefix("conn"),
		ctx:    ctx,
		cancel: cancel,
		server: server,
	}
}

// Start begins handling the connection.
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// SendMessage queues a message for delivery. Never blocks: a client
// that stops draining its buffer is disconnected.
func (c *Connection) SendMessage(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			// Channel was closed during shutdown.
			c.logger.Debug("Attempted to send message on closed connection", "error", r)
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// SetPlayer associates this connection with a player.
func (c *Connection) SetPlayer(playerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playerID = playerID
}

// GetPlayer returns the associated player ID.
func (c *Connection) GetPlayer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

// SetGame associates this connection with a table.
func (c *Connection) SetGame(gameID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gameID = gameID
}

// GetGame returns the associated table ID.
func (c *Connection) GetGame() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gameID
}

// readPump handles incoming messages from the client.
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			break
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client.
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage dispatches an incoming client intent.
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type, "player", c.GetPlayer())

	switch msg.Type {
	case MessageTypeAuth:
		var data AuthData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse auth data")
			return
		}
		c.handleAuth(data)

	case MessageTypeCreateGame:
		var data CreateGameData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse create game data")
			return
		}
		c.handleCreateGame(data)

	case MessageTypeJoinGame:
		var data JoinGameData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse join game data")
			return
		}
		c.handleJoinGame(data)

	case MessageTypeStartGame:
		c.withGame(msg, func(gameID string) error {
			return c.server.engine.StartHand(gameID)
		})

	case MessageTypePlayerAction:
		var data PlayerActionData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse player action data")
			return
		}
		c.handlePlayerAction(data)

	case MessageTypeAddCPU:
		c.withGame(msg, func(gameID string) error {
			return c.server.engine.AddCPU(gameID)
		})

	case MessageTypeRemoveCPU:
		c.withGame(msg, func(gameID string) error {
			return c.server.engine.RemoveCPU(gameID)
		})

	case MessageTypeLeaveGame:
		c.handleLeaveGame(msg)

	case MessageTypeLeaveQueue:
		c.handleLeaveQueue(msg)

	case MessageTypeListGames:
		c.handleListGames()

	case MessageTypeGetStats:
		c.handleGetStats()

	default:
		c.sendError("unknown_message_type", "Unknown message type: "+string(msg.Type))
	}
}

// sendError sends an error message to the client.
func (c *Connection) sendError(code, message string) {
	errorMsg, err := NewMessage(MessageTypeError, ErrorData{
		Code:    code,
		Message: message,
	})
	if err != nil {
		c.logger.Error("Failed to create error message", "error", err)
		return
	}
	_ = c.SendMessage(errorMsg)
}

// requirePlayer returns the authenticated player id, or sends an
// error and returns "".
func (c *Connection) requirePlayer() string {
	playerID := c.GetPlayer()
	if playerID == "" {
		c.sendError("not_authenticated", "Must authenticate first")
	}
	return playerID
}

// withGame decodes a game reference payload, requires auth, and runs
// fn against the engine.
func (c *Connection) withGame(msg *Message, fn func(gameID string) error) {
	if c.requirePlayer() == "" {
		return
	}
	var data GameRefData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		c.sendError("invalid_message", "Failed to parse game reference")
		return
	}
	if data.GameID == "" {
		data.GameID = c.GetGame()
	}
	if data.GameID == "" {
		c.sendError("no_game", "Not at a table")
		return
	}
	if err := fn(data.GameID); err != nil {
		c.sendError(errorCode(err), err.Error())
	}
}

func (c *Connection) handleAuth(data AuthData) {
	c.logger.Info("Auth request", "player", data.PlayerID)

	if data.PlayerID == "" {
		c.sendError("invalid_auth", "Player id required")
		return
	}
	if strings.HasPrefix(data.PlayerID, "cpu_") {
		c.sendError("invalid_auth", "Reserved player id")
		return
	}

	// First-time players get a starting bankroll; existing rows are
	// untouched.
	if c.server.accounts != nil {
		if err := c.server.accounts.CreatePlayer(data.PlayerID, c.server.startingChips); err != nil {
			c.sendError("auth_failed", "Failed to provision player")
			return
		}
	}

	c.SetPlayer(data.PlayerID)

	response, _ := NewMessage(MessageTypeAuthResponse, AuthResponseData{
		Success:  true,
		PlayerID: data.PlayerID,
	})
	_ = c.SendMessage(response)
}

func (c *Connection) handleGetStats() {
	playerID := c.requirePlayer()
	if playerID == "" {
		return
	}
	if c.server.accounts == nil {
		c.sendError("service_unavailable", "Stats not available")
		return
	}

	stats, err := c.server.accounts.GetStats(playerID)
	if err != nil {
		c.sendError("stats_failed", err.Error())
		return
	}
	response, _ := NewMessage(MessageTypeStats, StatsData{
		PlayerID:      stats.PlayerID,
		Chips:         stats.Chips,
		GamesPlayed:   stats.GamesPlayed,
		GamesWon:      stats.GamesWon,
		TotalChipsWon: stats.TotalChipsWon,
		HandsPlayed:   stats.HandsPlayed,
		HandsWon:      stats.HandsWon,
		AllIns:        stats.AllIns,
		Folds:         stats.Folds,
	})
	_ = c.SendMessage(response)
}

func (c *Connection) handleCreateGame(data CreateGameData) {
	if c.requirePlayer() == "" {
		return
	}

	table, err := c.server.engine.CreateTable(data.GameID, data.TableName, data.Password, data.BuyIn)
	if err != nil {
		c.sendError(errorCode(err), err.Error())
		return
	}

	response, _ := NewMessage(MessageTypeGameCreated, GameCreatedData{GameID: table.GameID})
	_ = c.SendMessage(response)
}

func (c *Connection) handleJoinGame(data JoinGameData) {
	playerID := c.requirePlayer()
	if playerID == "" {
		return
	}

	queued, err := c.server.engine.Join(data.GameID, playerID, data.Password)
	if err != nil {
		c.sendError(errorCode(err), err.Error())
		return
	}
	c.SetGame(data.GameID)

	response, _ := NewMessage(MessageTypeGameJoined, GameJoinedData{
		GameID: data.GameID,
		Queued: queued,
	})
	_ = c.SendMessage(response)
}

func (c *Connection) handlePlayerAction(data PlayerActionData) {
	playerID := c.requirePlayer()
	if playerID == "" {
		return
	}
	if data.GameID == "" {
		data.GameID = c.GetGame()
	}

	action, err := game.ParseAction(data.Action)
	if err != nil {
		c.sendError("invalid_action", err.Error())
		return
	}
	if err := c.server.engine.Action(data.GameID, playerID, action, data.Amount); err != nil {
		c.sendError(errorCode(err), err.Error())
	}
}

func (c *Connection) handleLeaveGame(msg *Message) {
	playerID := c.requirePlayer()
	if playerID == "" {
		return
	}
	var data GameRefData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		c.sendError("invalid_message", "Failed to parse game reference")
		return
	}
	if data.GameID == "" {
		data.GameID = c.GetGame()
	}

	if err := c.server.engine.Leave(data.GameID, playerID); err != nil {
		c.sendError(errorCode(err), err.Error())
		return
	}
	c.SetGame("")

	response, _ := NewMessage(MessageTypeGameLeft, GameRefData{GameID: data.GameID})
	_ = c.SendMessage(response)
}

func (c *Connection) handleLeaveQueue(msg *Message) {
	playerID := c.requirePlayer()
	if playerID == "" {
		return
	}
	var data GameRefData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		c.sendError("invalid_message", "Failed to parse game reference")
		return
	}
	if data.GameID == "" {
		data.GameID = c.GetGame()
	}

	if err := c.server.engine.LeaveQueue(data.GameID, playerID); err != nil {
		c.sendError(errorCode(err), err.Error())
		return
	}
	c.SetGame("")

	response, _ := NewMessage(MessageTypeGameLeft, GameRefData{GameID: data.GameID})
	_ = c.SendMessage(response)
}

func (c *Connection) handleListGames() {
	summaries, err := c.server.engine.ListTables()
	if err != nil {
		c.sendError("list_failed", err.Error())
		return
	}
	response, _ := NewMessage(MessageTypeGameList, summaries)
	_ = c.SendMessage(response)
}

// errorCode maps engine errors onto stable wire codes so clients can
// branch without parsing messages.
func errorCode(err error) string {
	switch {
	case errors.Is(err, game.ErrTableNotFound):
		return "table_not_found"
	case errors.Is(err, game.ErrPlayerNotFound):
		return "player_not_found"
	case errors.Is(err, game.ErrNotYourTurn):
		return "not_your_turn"
	case errors.Is(err, game.ErrInsufficientChips):
		return "insufficient_chips"
	case errors.Is(err, game.ErrInsufficientBuyIn):
		return "insufficient_buy_in"
	case errors.Is(err, game.ErrGameEnding):
		return "hand_ending"
	case errors.Is(err, game.ErrNotEnoughPlayers):
		return "not_enough_players"
	case errors.Is(err, game.ErrTableFull):
		return "table_full"
	case errors.Is(err, game.ErrWrongPassword):
		return "wrong_password"
	case errors.Is(err, game.ErrAlreadyJoined):
		return "already_joined"
	case errors.Is(err, game.ErrDuplicateTable):
		return "duplicate_table"
	case errors.Is(err, game.ErrHandInProgress):
		return "hand_in_progress"
	case errors.Is(err, game.ErrNoCPUPlayers):
		return "no_cpu_players"
	case errors.Is(err, game.ErrServerFull):
		return "server_full"
	case errors.Is(err, game.ErrInvalidAction):
		return "invalid_action"
	default:
		return "internal_error"
	}
}
