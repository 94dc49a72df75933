package game

import (
	"strings"
	"time"

	"github.com/lox/holdem-tables/internal/deck"
)

// SeatView is the public slice of a seat included in every player's
// game update.
type SeatView struct {
	ID           string `json:"id"`
	Chips        int    `json:"chips"`
	BetThisRound int    `json:"betThisRound"`
	Folded       bool   `json:"folded"`
}

// PlayerView is the per-player table snapshot. Only the recipient's
// own hole cards appear.
type PlayerView struct {
	Pot            int         `json:"pot"`
	CommunityCards []deck.Card `json:"communityCards"`
	CurrentTurn    *int        `json:"currentTurn"`
	Round          Round       `json:"round"`
	LastBet        int         `json:"lastBet"`
	Players        []SeatView  `json:"players"`
	YourCards      []deck.Card `json:"yourCards"`
	YourChips      int         `json:"yourChips"`
}

func buildPlayerView(t *Table, p *Player, cards []deck.Card) PlayerView {
	seats := make([]SeatView, 0, len(t.Players))
	for _, seat := range t.Players {
		seats = append(seats, SeatView{
			ID:           seat.ID,
			Chips:        seat.Chips,
			BetThisRound: seat.BetThisRound,
			Folded:       seat.Folded,
		})
	}
	var turn *int
	if t.CurrentTurn >= 0 {
		n := t.CurrentTurn
		turn = &n
	}
	if cards == nil {
		cards = []deck.Card{}
	}
	community := t.CommunityCards
	if community == nil {
		community = []deck.Card{}
	}
	return PlayerView{
		Pot:            t.Pot,
		CommunityCards: community,
		CurrentTurn:    turn,
		Round:          t.Round,
		LastBet:        t.LastBet,
		Players:        seats,
		YourCards:      cards,
		YourChips:      p.Chips,
	}
}

// TableSummary is one row of the lobby listing.
type TableSummary struct {
	GameID            string    `json:"gameId"`
	Players           int       `json:"players"`
	MaxPlayers        int       `json:"maxPlayers"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"createdAt"`
	TableName         string    `json:"tableName"`
	BuyIn             int       `json:"buyIn"`
	PasswordProtected bool      `json:"passwordProtected"`
}

// ListTables enumerates every live table. Hole-card keys share the
// table prefix and are skipped.
func (e *Engine) ListTables() ([]TableSummary, error) {
	keys, err := e.store.ListKeys("game:")
	if err != nil {
		return nil, err
	}

	summaries := make([]TableSummary, 0, len(keys))
	for _, key := range keys {
		if strings.Contains(key, ":player:") {
			continue
		}
		data, err := e.store.Get(key)
		if err != nil {
			continue
		}
		t, err := unmarshalTable(data)
		if err != nil {
			e.logger.Warn("Skipping undecodable table record", "key", key, "error", err)
			continue
		}
		summaries = append(summaries, TableSummary{
			GameID:            t.GameID,
			Players:           len(t.Players),
			MaxPlayers:        t.Meta.MaxPlayers,
			Status:            t.Meta.Status,
			CreatedAt:         t.Meta.CreatedAt,
			TableName:         t.Meta.TableName,
			BuyIn:             t.Meta.BuyIn,
			PasswordProtected: t.Meta.Password != "",
		})
	}
	return summaries, nil
}

// GetTable returns a point-in-time copy of the table record.
func (e *Engine) GetTable(gameID string) (*Table, error) {
	unlock := e.locks.Lock(gameID)
	defer unlock()
	return e.loadTable(gameID)
}
