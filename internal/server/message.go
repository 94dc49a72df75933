package server

import (
	"encoding/json"
	"time"
)

// MessageType identifies a WebSocket message.
type MessageType string

// Client → server.
const (
	MessageTypeAuth         MessageType = "auth"
	MessageTypeCreateGame   MessageType = "createGame"
	MessageTypeJoinGame     MessageType = "joinGame"
	MessageTypeStartGame    MessageType = "startGame"
	MessageTypePlayerAction MessageType = "playerAction"
	MessageTypeAddCPU       MessageType = "addCpu"
	MessageTypeRemoveCPU    MessageType = "removeCpu"
	MessageTypeLeaveGame    MessageType = "leaveGame"
	MessageTypeLeaveQueue   MessageType = "leaveQueue"
	MessageTypeListGames    MessageType = "listGames"
	MessageTypeGetStats     MessageType = "getStats"
)

// Server → client.
const (
	MessageTypeAuthResponse MessageType = "authResponse"
	MessageTypeGameCreated  MessageType = "gameCreated"
	MessageTypeGameJoined   MessageType = "gameJoined"
	MessageTypeGameLeft     MessageType = "gameLeft"
	MessageTypeGameList     MessageType = "gameList"
	MessageTypeGameUpdate   MessageType = "gameUpdate"
	MessageTypeHandEnded    MessageType = "handEnded"
	MessageTypeQueued       MessageType = "queued"
	MessageTypeJoinedFromQ  MessageType = "joinedFromQueue"
	MessageTypeStats        MessageType = "stats"
	MessageTypeError        MessageType = "error"
)

// Message is the WebSocket envelope.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage wraps a payload in an envelope with the current
// timestamp.
func NewMessage(messageType MessageType, data any) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → server payloads.

type AuthData struct {
	PlayerID string `json:"playerId"`
}

type CreateGameData struct {
	GameID    string `json:"gameId,omitempty"`
	TableName string `json:"tableName,omitempty"`
	Password  string `json:"password,omitempty"`
	BuyIn     int    `json:"buyIn"`
}

type JoinGameData struct {
	GameID   string `json:"gameId"`
	Password string `json:"password,omitempty"`
}

type GameRefData struct {
	GameID string `json:"gameId"`
}

type PlayerActionData struct {
	GameID string `json:"gameId"`
	Action string `json:"action"`
	Amount int    `json:"amount,omitempty"`
}

// Server → client payloads.

type AuthResponseData struct {
	Success  bool   `json:"success"`
	PlayerID string `json:"playerId,omitempty"`
	Error    string `json:"error,omitempty"`
}

type GameCreatedData struct {
	GameID string `json:"gameId"`
}

type GameJoinedData struct {
	GameID string `json:"gameId"`
	Queued bool   `json:"queued"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type StatsData struct {
	PlayerID      string `json:"playerId"`
	Chips         int    `json:"chips"`
	GamesPlayed   int    `json:"gamesPlayed"`
	GamesWon      int    `json:"gamesWon"`
	TotalChipsWon int    `json:"totalChipsWon"`
	HandsPlayed   int    `json:"handsPlayed"`
	HandsWon      int    `json:"handsWon"`
	AllIns        int    `json:"allIns"`
	Folds         int    `json:"folds"`
}
