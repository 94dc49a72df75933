package game

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/lox/holdem-tables/internal/accounts"
	"github.com/lox/holdem-tables/internal/deck"
)

// Round is a betting round in the fixed hand cycle. It only advances
// forward, or resets to RoundWaiting after the hand resolves.
type Round string

const (
	RoundWaiting  Round = "waiting"
	RoundPreflop  Round = "preflop"
	RoundFlop     Round = "flop"
	RoundTurn     Round = "turn"
	RoundRiver    Round = "river"
	RoundShowdown Round = "showdown"
)

// Action is a player betting action.
type Action string

const (
	ActionFold  Action = "fold"
	ActionCall  Action = "call"
	ActionRaise Action = "raise"
)

// ParseAction validates an inbound action string.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionFold, ActionCall, ActionRaise:
		return Action(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAction, s)
	}
}

// Player is a seated player. Hole cards are not part of this record;
// they live under a separate store key so the broadcastable table
// state can never leak them.
type Player struct {
	ID                  string              `json:"id"`
	Chips               int                 `json:"chips"`
	Folded              bool                `json:"folded"`
	BetThisRound        int                 `json:"betThisRound"`
	ActedThisRound      bool                `json:"actedThisRound"`
	HandPlayedThisRound bool                `json:"handPlayedThisRound"`
	IsCPU               bool                `json:"isCPU"`
	LeftGame            bool                `json:"leftGame"`
	Stats               accounts.StatDeltas `json:"stats"`
}

// Meta holds table-level metadata that survives across hands.
type Meta struct {
	Status      string    `json:"status"`
	MaxPlayers  int       `json:"maxPlayers"`
	TableName   string    `json:"tableName"`
	Password    string    `json:"password,omitempty"`
	BuyIn       int       `json:"buyIn"`
	CreatedAt   time.Time `json:"createdAt"`
	GameEnding  bool      `json:"gameEnding,omitempty"`
	PlayerCount int       `json:"players"`
}

// Table is the authoritative aggregate for one game. It is persisted
// as a single store record and only ever mutated under the per-game
// lock.
type Table struct {
	GameID         string          `json:"gameId"`
	HandID         string          `json:"handId,omitempty"`
	Players        []*Player       `json:"players"`
	QueuedPlayers  []*Player       `json:"queuedPlayers"`
	Deck           *deck.Deck      `json:"deck"`
	CommunityCards []deck.Card     `json:"communityCards"`
	Pot            int             `json:"pot"`
	CurrentTurn    int             `json:"currentTurn"` // seat index, -1 between hands
	DealerPosition int             `json:"dealerPosition"`
	SmallBlind     int             `json:"smallBlind"`
	BigBlind       int             `json:"bigBlind"`
	Round          Round           `json:"round"`
	ActivePlayers  map[string]bool `json:"activePlayers"`
	LastBet        int             `json:"lastBet"`
	Meta           Meta            `json:"meta"`
}

// seatIndex returns the seat of a player id, or -1.
func (t *Table) seatIndex(playerID string) int {
	for i, p := range t.Players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

// unfolded returns all players still contesting the hand.
func (t *Table) unfolded() []*Player {
	var out []*Player
	for _, p := range t.Players {
		if !p.Folded {
			out = append(out, p)
		}
	}
	return out
}

// seatedCount counts players who have not left.
func (t *Table) seatedCount() int {
	n := 0
	for _, p := range t.Players {
		if !p.LeftGame {
			n++
		}
	}
	return n
}

// humanCount counts non-CPU occupants, seated or queued.
func (t *Table) humanCount() int {
	n := 0
	for _, p := range t.Players {
		if !p.IsCPU {
			n++
		}
	}
	for _, p := range t.QueuedPlayers {
		if !p.IsCPU {
			n++
		}
	}
	return n
}

// cpuCount counts seated CPU players.
func (t *Table) cpuCount() int {
	n := 0
	for _, p := range t.Players {
		if p.IsCPU {
			n++
		}
	}
	return n
}

// removeActive drops a player id from the active set.
func (t *Table) removeActive(playerID string) {
	delete(t.ActivePlayers, playerID)
}

// marshal serializes the table for the store.
func (t *Table) marshal() ([]byte, error) {
	return json.Marshal(t)
}

func unmarshalTable(data []byte) (*Table, error) {
	var t Table
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode table record: %w", err)
	}
	if t.ActivePlayers == nil {
		t.ActivePlayers = make(map[string]bool)
	}
	return &t, nil
}

// tableKey is the store key for a table record.
func tableKey(gameID string) string {
	return "game:" + gameID
}

// playerCardsKey is the store key for one player's hole cards.
func playerCardsKey(gameID, playerID string) string {
	return "game:" + gameID + ":player:" + playerID
}
