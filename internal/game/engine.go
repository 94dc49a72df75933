// Package game implements the Texas Hold'em betting state machine,
// table lifecycle, and CPU policy. All authoritative state is the
// per-table record in the state store; every operation loads it,
// validates, mutates, and persists it under the table's exclusive
// lock.
package game

import (
	"encoding/json"
	"errors"
	"fmt"
	rand "math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"

	"github.com/lox/holdem-tables/internal/accounts"
	"github.com/lox/holdem-tables/internal/deck"
	"github.com/lox/holdem-tables/internal/evaluator"
	"github.com/lox/holdem-tables/internal/gameid"
	"github.com/lox/holdem-tables/internal/randutil"
	"github.com/lox/holdem-tables/internal/store"
)

// Broadcaster delivers events to clients. The engine is
// transport-agnostic: it only needs single-recipient and whole-table
// delivery.
type Broadcaster interface {
	EmitToPlayer(playerID, event string, payload any)
	EmitToTable(gameID, event string, payload any)
}

// Config carries the engine's tunables.
type Config struct {
	// MaxStoreBytes refuses new-table creation once store usage
	// reaches it. Zero disables the ceiling.
	MaxStoreBytes int64

	// MaxPlayers is the seat count per table (seated plus queued).
	MaxPlayers int

	// TableSmallBlind/TableBigBlind are recorded on a fresh table;
	// HandSmallBlind/HandBigBlind are posted when a hand starts.
	TableSmallBlind int
	TableBigBlind   int
	HandSmallBlind  int
	HandBigBlind    int

	// CPUThinkDelay paces automated seats. Never held under the
	// table lock.
	CPUThinkDelay time.Duration

	// ShowdownDisplayDelay is the window after a hand ends during
	// which the result stays on screen and actions are rejected.
	ShowdownDisplayDelay time.Duration

	// GCGraceWindow is how long an all-CPU or empty table survives
	// before deletion.
	GCGraceWindow time.Duration

	// Seed makes shuffles and the CPU policy reproducible. Zero
	// seeds from the wall clock.
	Seed int64
}

// DefaultConfig mirrors the production defaults.
func DefaultConfig() Config {
	return Config{
		MaxPlayers:           8,
		TableSmallBlind:      10,
		TableBigBlind:        20,
		HandSmallBlind:       5,
		HandBigBlind:         10,
		CPUThinkDelay:        time.Second,
		ShowdownDisplayDelay: 5 * time.Second,
		GCGraceWindow:        3 * time.Second,
	}
}

// Engine drives every table. Safe for concurrent use; mutations to a
// single table are serialized by its keyed lock.
type Engine struct {
	store     store.Store
	accounts  accounts.Store
	broadcast Broadcaster
	logger    *log.Logger
	clock     quartz.Clock
	cfg       Config
	locks     *keyedMutex
	idgen     *gameid.Generator

	rngMu sync.Mutex
	seeds *rand.Rand
}

// NewEngine creates an engine on top of the given collaborators.
func NewEngine(st store.Store, acct accounts.Store, b Broadcaster, logger *log.Logger, clock quartz.Clock, cfg Config) *Engine {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Engine{
		store:     st,
		accounts:  acct,
		broadcast: b,
		logger:    logger.WithPrefix("game"),
		clock:     clock,
		cfg:       cfg,
		locks:     newKeyedMutex(),
		idgen:     gameid.NewGenerator(nil),
		seeds:     randutil.New(seed),
	}
}

// newRand derives an independent random source. The shared seed
// source is the only engine-level mutable state and has its own lock.
func (e *Engine) newRand() *rand.Rand {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return randutil.New(e.seeds.Int64())
}

// sleep blocks on the engine clock, so tests with a zero delay (or a
// mock clock) never wait on the wall clock.
func (e *Engine) sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	timer := e.clock.NewTimer(d)
	defer timer.Stop()
	<-timer.C
}

// CreateTable initializes a fresh table in the waiting state. An
// empty gameID gets a generated code.
func (e *Engine) CreateTable(gameID, tableName, password string, buyIn int) (*Table, error) {
	if e.cfg.MaxStoreBytes > 0 {
		usage, err := e.store.MemoryUsage()
		if err != nil {
			return nil, fmt.Errorf("query store usage: %w", err)
		}
		if usage >= e.cfg.MaxStoreBytes {
			e.logger.Warn("Refusing table creation, store over ceiling",
				"usage", usage, "ceiling", e.cfg.MaxStoreBytes)
			return nil, ErrServerFull
		}
	}

	if gameID == "" {
		gameID = e.idgen.Generate()
	} else if err := gameid.Validate(gameID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAction, err)
	}
	if tableName == "" {
		tableName = "Unnamed Table"
	}

	unlock := e.locks.Lock(gameID)
	defer unlock()

	if _, err := e.store.Get(tableKey(gameID)); err == nil {
		return nil, ErrDuplicateTable
	}

	t := &Table{
		GameID:         gameID,
		Players:        []*Player{},
		QueuedPlayers:  []*Player{},
		Deck:           deck.NewShuffled(e.newRand()),
		CommunityCards: nil,
		Pot:            0,
		CurrentTurn:    -1,
		DealerPosition: 0,
		SmallBlind:     e.cfg.TableSmallBlind,
		BigBlind:       e.cfg.TableBigBlind,
		Round:          RoundWaiting,
		ActivePlayers:  make(map[string]bool),
		Meta: Meta{
			Status:     "waiting",
			MaxPlayers: e.cfg.MaxPlayers,
			TableName:  tableName,
			Password:   password,
			BuyIn:      buyIn,
			CreatedAt:  e.clock.Now(),
		},
	}

	if err := e.saveTable(t); err != nil {
		return nil, err
	}
	e.logger.Info("Table created", "table", gameID, "name", tableName, "buyIn", buyIn)
	return t, nil
}

// StartHand deals a new hand: fresh deck, hole cards, blinds, first
// turn. CPU seats act immediately after.
func (e *Engine) StartHand(gameID string) error {
	unlock := e.locks.Lock(gameID)
	ended, err := e.startHandLocked(gameID)
	unlock()
	if err != nil {
		return err
	}
	if ended {
		e.finishHand(gameID)
		return nil
	}
	e.runCPUTurns(gameID)
	return nil
}

func (e *Engine) startHandLocked(gameID string) (bool, error) {
	t, err := e.loadTable(gameID)
	if err != nil {
		return false, err
	}
	if t.Round != RoundWaiting {
		return false, ErrHandInProgress
	}

	var players []*Player
	for _, p := range t.Players {
		if p.LeftGame {
			continue
		}
		p.Folded = false
		p.BetThisRound = 0
		p.ActedThisRound = false
		p.HandPlayedThisRound = false
		players = append(players, p)
	}
	if len(players) < 2 {
		return false, ErrNotEnoughPlayers
	}

	t.HandID = uuid.NewString()
	t.Players = players
	t.Deck = deck.NewShuffled(e.newRand())
	t.CommunityCards = nil
	t.Pot = 0
	t.CurrentTurn = -1
	t.DealerPosition = 0
	t.SmallBlind = e.cfg.HandSmallBlind
	t.BigBlind = e.cfg.HandBigBlind
	t.Round = RoundPreflop
	t.LastBet = 0
	t.ActivePlayers = make(map[string]bool)
	for _, p := range t.Players {
		t.ActivePlayers[p.ID] = true
	}
	t.Meta.Status = "playing"

	// Hole cards live under per-player keys, never in the table
	// record.
	for _, p := range t.Players {
		cards := t.Deck.Deal(2)
		data, err := json.Marshal(cards)
		if err != nil {
			return false, fmt.Errorf("encode hole cards: %w", err)
		}
		if err := e.store.Set(playerCardsKey(gameID, p.ID), data); err != nil {
			return false, fmt.Errorf("store hole cards: %w", err)
		}
	}

	// Post blinds. Heads-up the dealer posts the small blind.
	sb := t.DealerPosition
	bb := (t.DealerPosition + 1) % len(t.Players)
	t.Players[sb].Chips -= t.SmallBlind
	t.Players[sb].BetThisRound = t.SmallBlind
	t.Players[bb].Chips -= t.BigBlind
	t.Players[bb].BetThisRound = t.BigBlind
	t.Pot = t.SmallBlind + t.BigBlind
	t.LastBet = t.BigBlind

	if err := e.saveTable(t); err != nil {
		return false, err
	}
	e.logger.Info("Hand started", "table", gameID, "hand", t.HandID, "players", len(t.Players))
	e.updateAllPlayersLocked(t)

	return e.nextTurnLocked(t)
}

// Action applies a player's fold/call/raise and advances the game,
// running any CPU turns that follow.
func (e *Engine) Action(gameID, playerID string, action Action, amount int) error {
	unlock := e.locks.Lock(gameID)
	t, err := e.loadTable(gameID)
	if err != nil {
		unlock()
		return err
	}
	ended, err := e.playerActionLocked(t, playerID, action, amount)
	unlock()
	if err != nil {
		return err
	}
	if ended {
		e.finishHand(gameID)
		return nil
	}
	e.runCPUTurns(gameID)
	return nil
}

// playerActionLocked validates and applies one action. Validation
// happens before any mutation so a rejected action leaves the table
// untouched. Returns whether the hand ended.
func (e *Engine) playerActionLocked(t *Table, playerID string, action Action, amount int) (bool, error) {
	if t.Meta.GameEnding {
		return false, ErrGameEnding
	}
	idx := t.seatIndex(playerID)
	if idx == -1 {
		return false, ErrPlayerNotFound
	}
	if idx != t.CurrentTurn || t.Players[idx].Folded {
		return false, ErrNotYourTurn
	}
	p := t.Players[idx]

	switch action {
	case ActionFold:
	case ActionCall:
		if toCall := t.LastBet - p.BetThisRound; p.Chips < toCall {
			return false, ErrInsufficientChips
		}
	case ActionRaise:
		if amount <= 0 {
			return false, fmt.Errorf("%w: raise amount must be positive", ErrInvalidAction)
		}
		if delta := t.LastBet + amount - p.BetThisRound; p.Chips < delta {
			return false, ErrInsufficientChips
		}
	default:
		return false, ErrInvalidAction
	}

	// First voluntary preflop action counts toward a human's
	// lifetime hands-played.
	if t.Round == RoundPreflop && !p.HandPlayedThisRound && !p.IsCPU {
		p.Stats.HandsPlayed++
		p.HandPlayedThisRound = true
	}

	switch action {
	case ActionFold:
		p.Folded = true
		t.removeActive(p.ID)
		if !p.IsCPU {
			p.Stats.Folds++
		}
	case ActionCall:
		toCall := t.LastBet - p.BetThisRound
		p.Chips -= toCall
		p.BetThisRound += toCall
		t.Pot += toCall
	case ActionRaise:
		target := t.LastBet + amount
		delta := target - p.BetThisRound
		p.Chips -= delta
		p.BetThisRound = target
		t.Pot += delta
		t.LastBet = target
		// Everyone still in must respond to the new bet level.
		for _, other := range t.Players {
			if other.LeftGame || other.ID == p.ID || other.Folded {
				continue
			}
			other.ActedThisRound = false
		}
	}
	p.ActedThisRound = true

	e.logger.Debug("Action applied",
		"table", t.GameID, "player", playerID, "action", action, "amount", amount, "pot", t.Pot)

	if err := e.saveTable(t); err != nil {
		return false, err
	}
	return e.nextTurnLocked(t)
}

// isRoundComplete reports whether the betting round is closed: at most
// one player left, or every unfolded player has acted and matched the
// highest bet.
func isRoundComplete(t *Table) bool {
	active := t.unfolded()
	if len(active) <= 1 {
		return true
	}
	highest := 0
	for _, p := range active {
		if !p.ActedThisRound {
			return false
		}
		if p.BetThisRound > highest {
			highest = p.BetThisRound
		}
	}
	for _, p := range active {
		if p.BetThisRound != highest {
			return false
		}
	}
	return true
}

// nextTurnLocked resolves what happens after an action: early-fold
// payout, round advance, or moving the turn pointer. Returns whether
// the hand ended.
func (e *Engine) nextTurnLocked(t *Table) (bool, error) {
	if t.Meta.GameEnding {
		return false, nil
	}
	if len(t.ActivePlayers) == 0 {
		for _, p := range t.unfolded() {
			t.ActivePlayers[p.ID] = true
		}
	}
	if len(t.ActivePlayers) <= 1 {
		return true, e.earlyFoldLocked(t)
	}
	if isRoundComplete(t) {
		return e.advanceRoundLocked(t)
	}

	n := len(t.Players)
	if t.CurrentTurn < 0 {
		// First turn of the round: after the big blind preflop
		// (heads-up the dealer posts small blind), after the
		// dealer on every later street.
		var start int
		if t.Round == RoundPreflop {
			var bb int
			if n == 2 {
				bb = (t.DealerPosition + 1) % 2
			} else {
				bb = (t.DealerPosition + 2) % n
			}
			start = (bb + 1) % n
		} else {
			start = (t.DealerPosition + 1) % n
		}
		t.CurrentTurn = start
		for t.Players[t.CurrentTurn].Folded {
			t.CurrentTurn = (t.CurrentTurn + 1) % n
		}
	} else {
		next := (t.CurrentTurn + 1) % n
		for t.Players[next].Folded {
			next = (next + 1) % n
		}
		t.CurrentTurn = next
	}

	if err := e.saveTable(t); err != nil {
		return false, err
	}
	e.updateAllPlayersLocked(t)
	return false, nil
}

// advanceRoundLocked deals the next street, or resolves the showdown
// after the river. Per-round bet state is reset and the first turn of
// the new round recomputed.
func (e *Engine) advanceRoundLocked(t *Table) (bool, error) {
	switch t.Round {
	case RoundPreflop:
		t.CommunityCards = append(t.CommunityCards, t.Deck.Deal(3)...)
		t.Round = RoundFlop
	case RoundFlop:
		t.CommunityCards = append(t.CommunityCards, t.Deck.Deal(1)...)
		t.Round = RoundTurn
	case RoundTurn:
		t.CommunityCards = append(t.CommunityCards, t.Deck.Deal(1)...)
		t.Round = RoundRiver
	case RoundRiver:
		t.Round = RoundShowdown
		if err := e.saveTable(t); err != nil {
			return false, err
		}
		return true, e.showdownLocked(t)
	default:
		return false, fmt.Errorf("cannot advance from round %q", t.Round)
	}

	t.LastBet = 0
	t.CurrentTurn = -1
	for _, p := range t.Players {
		if p.LeftGame {
			continue
		}
		p.BetThisRound = 0
		p.ActedThisRound = false
	}

	if err := e.saveTable(t); err != nil {
		return false, err
	}
	e.logger.Debug("Round advanced", "table", t.GameID, "round", t.Round, "board", t.CommunityCards)
	e.updateAllPlayersLocked(t)
	return e.nextTurnLocked(t)
}

// showdownLocked evaluates every unfolded hand, pays the winner, and
// starts the hand-end sequence.
func (e *Engine) showdownLocked(t *Table) error {
	var winner *Player
	var best evaluator.HandValue

	for _, p := range t.Players {
		if p.Folded {
			continue
		}
		hole, err := e.holeCards(t.GameID, p.ID)
		if err != nil {
			e.logger.Error("Missing hole cards at showdown", "table", t.GameID, "player", p.ID, "error", err)
			continue
		}
		hv := evaluator.Evaluate(hole, t.CommunityCards)
		if winner == nil || evaluator.CompareScores(hv.Score, best.Score) > 0 {
			winner = p
			best = hv
		}
	}

	if winner == nil {
		e.logger.Error("No winner found at showdown", "table", t.GameID)
		return e.beginHandEndLocked(t, nil, 0, nil, "")
	}

	pot := t.Pot
	winner.Chips += pot
	if !winner.IsCPU {
		winner.Stats.HandsWon++
		winner.Stats.TotalChipsWon += pot
	}
	e.logger.Info("Showdown resolved",
		"table", t.GameID, "winner", winner.ID, "rank", best.Category.String(), "pot", pot)
	return e.beginHandEndLocked(t, winner, pot, best.Cards, best.Category.String())
}

// earlyFoldLocked awards the pot when only one unfolded player
// remains; no further community cards are revealed.
func (e *Engine) earlyFoldLocked(t *Table) error {
	var winner *Player
	for _, p := range t.Players {
		if !p.Folded {
			winner = p
			break
		}
	}

	pot := t.Pot
	if winner != nil {
		winner.Chips += pot
		if !winner.IsCPU {
			winner.Stats.HandsWon++
			winner.Stats.TotalChipsWon += pot
		}
		e.logger.Info("Hand won by fold", "table", t.GameID, "winner", winner.ID, "pot", pot)
	}
	return e.beginHandEndLocked(t, winner, pot, nil, "")
}

// HandEndedEvent is broadcast to the table when a hand resolves.
type HandEndedEvent struct {
	HandID       string      `json:"handId"`
	Winner       string      `json:"winner"`
	ChipsWon     int         `json:"chipsWon"`
	WinningCards []deck.Card `json:"winningCards,omitempty"`
	WinningRank  string      `json:"winningRank,omitempty"`
}

// beginHandEndLocked is phase one of the hand-end sequence: flag the
// table so further actions are rejected and announce the result. The
// caller runs finishHand once the lock is released, so other tables
// (and this table's rejection path) stay responsive during the
// display window.
func (e *Engine) beginHandEndLocked(t *Table, winner *Player, pot int, winningCards []deck.Card, winningRank string) error {
	t.Meta.GameEnding = true
	if err := e.saveTable(t); err != nil {
		return err
	}
	if winner != nil {
		e.broadcast.EmitToTable(t.GameID, "handEnded", HandEndedEvent{
			HandID:       t.HandID,
			Winner:       winner.ID,
			ChipsWon:     pot,
			WinningCards: winningCards,
			WinningRank:  winningRank,
		})
	}
	return nil
}

// finishHand is phase two: wait out the display window, then purge
// hole cards, drop leavers, promote the queue, and reset for the next
// hand.
func (e *Engine) finishHand(gameID string) {
	e.sleep(e.cfg.ShowdownDisplayDelay)

	unlock := e.locks.Lock(gameID)
	defer unlock()

	t, err := e.loadTable(gameID)
	if err != nil {
		e.logger.Error("Failed to load table for hand end", "table", gameID, "error", err)
		return
	}

	for _, p := range t.Players {
		if err := e.store.Delete(playerCardsKey(gameID, p.ID)); err != nil {
			e.logger.Error("Failed to purge hole cards", "table", gameID, "player", p.ID, "error", err)
		}
	}

	var kept []*Player
	for _, p := range t.Players {
		if p.LeftGame {
			e.flushPlayer(p)
			continue
		}
		kept = append(kept, p)
	}
	t.Players = kept

	joined := t.QueuedPlayers
	t.Players = append(t.Players, joined...)
	t.QueuedPlayers = []*Player{}
	for _, p := range joined {
		e.broadcast.EmitToPlayer(p.ID, "joinedFromQueue", nil)
	}

	t.HandID = ""
	t.Deck = deck.New()
	t.CommunityCards = nil
	t.Pot = 0
	t.CurrentTurn = -1
	t.Round = RoundWaiting
	t.ActivePlayers = make(map[string]bool)
	t.LastBet = 0
	for _, p := range t.Players {
		p.Folded = false
		p.BetThisRound = 0
		p.ActedThisRound = false
		p.HandPlayedThisRound = false
	}
	t.Meta.Status = "waiting"
	t.Meta.GameEnding = false

	if err := e.saveTable(t); err != nil {
		e.logger.Error("Failed to save table after hand end", "table", gameID, "error", err)
		return
	}
	e.logger.Info("Hand finished", "table", gameID, "seated", len(t.Players))
	e.updateAllPlayersLocked(t)
	e.maybeScheduleGCLocked(t)
}

// runCPUTurns advances the table while the current seat is automated:
// an explicit loop, not recursion, so a table of CPU seats cannot grow
// the stack. The think delay runs without the table lock.
func (e *Engine) runCPUTurns(gameID string) {
	for {
		unlock := e.locks.Lock(gameID)
		t, err := e.loadTable(gameID)
		if err != nil {
			unlock()
			return
		}
		if t.Meta.GameEnding || t.Round == RoundWaiting ||
			t.CurrentTurn < 0 || t.CurrentTurn >= len(t.Players) {
			unlock()
			return
		}
		cur := t.Players[t.CurrentTurn]
		if !cur.IsCPU || cur.Folded {
			unlock()
			return
		}
		cpuID := cur.ID
		hole, err := e.holeCards(gameID, cpuID)
		if err != nil {
			e.logger.Error("CPU missing hole cards", "table", gameID, "player", cpuID, "error", err)
			unlock()
			return
		}
		input := cpuInput{
			HoleCards:      hole,
			CommunityCards: t.CommunityCards,
			Pot:            t.Pot,
			LastBet:        t.LastBet,
			BetThisRound:   cur.BetThisRound,
			Chips:          cur.Chips,
			Round:          t.Round,
		}
		unlock()

		e.sleep(e.cfg.CPUThinkDelay)
		decision := decideCPU(e.newRand(), input)

		unlock = e.locks.Lock(gameID)
		t, err = e.loadTable(gameID)
		if err != nil {
			unlock()
			return
		}
		if t.Meta.GameEnding || t.CurrentTurn < 0 || t.CurrentTurn >= len(t.Players) ||
			t.Players[t.CurrentTurn].ID != cpuID {
			// The table moved on while the CPU was thinking
			// (e.g. a leave folded it out). Re-evaluate.
			unlock()
			continue
		}

		ended, err := e.playerActionLocked(t, cpuID, decision.Action, decision.Amount)
		if err != nil {
			// An oversized raise can be unaffordable; degrade to
			// call, then fold, so the table never stalls.
			e.logger.Warn("CPU decision rejected, falling back",
				"table", gameID, "player", cpuID, "action", decision.Action, "error", err)
			ended, err = e.playerActionLocked(t, cpuID, ActionCall, 0)
			if err != nil {
				ended, err = e.playerActionLocked(t, cpuID, ActionFold, 0)
			}
			if err != nil {
				e.logger.Error("CPU fallback failed", "table", gameID, "player", cpuID, "error", err)
				unlock()
				return
			}
		}
		unlock()

		if ended {
			e.finishHand(gameID)
			return
		}
	}
}

// flushPlayer pushes a human player's chips and session stats back to
// the account store. Fire-and-forget: failures are logged, never
// surfaced, and never block table progress — the writes are monotonic
// increments and can be reconciled out of band.
func (e *Engine) flushPlayer(p *Player) {
	if p.IsCPU {
		return
	}
	playerID := p.ID
	chips := p.Chips
	stats := p.Stats
	go func() {
		if chips != 0 {
			if err := e.accounts.AdjustBalance(playerID, chips); err != nil {
				e.logger.Error("Failed to flush chips", "player", playerID, "chips", chips, "error", err)
			}
		}
		if err := e.accounts.IncrementStats(playerID, stats); err != nil {
			e.logger.Error("Failed to flush stats", "player", playerID, "error", err)
		}
	}()
}

// holeCards loads a player's private cards from the store.
func (e *Engine) holeCards(gameID, playerID string) ([]deck.Card, error) {
	data, err := e.store.Get(playerCardsKey(gameID, playerID))
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var cards []deck.Card
	if err := json.Unmarshal(data, &cards); err != nil {
		return nil, fmt.Errorf("decode hole cards: %w", err)
	}
	return cards, nil
}

func (e *Engine) loadTable(gameID string) (*Table, error) {
	data, err := e.store.Get(tableKey(gameID))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrTableNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load table: %w", err)
	}
	return unmarshalTable(data)
}

func (e *Engine) saveTable(t *Table) error {
	data, err := t.marshal()
	if err != nil {
		return fmt.Errorf("encode table: %w", err)
	}
	if err := e.store.Set(tableKey(t.GameID), data); err != nil {
		return fmt.Errorf("save table: %w", err)
	}
	return nil
}

// updateAllPlayersLocked fans the per-player view out to every seat.
// Other players' hole cards are never included.
func (e *Engine) updateAllPlayersLocked(t *Table) {
	seated := 0
	for _, p := range t.Players {
		if !p.LeftGame {
			seated++
		}
	}
	t.Meta.PlayerCount = seated + len(t.QueuedPlayers)
	if err := e.saveTable(t); err != nil {
		e.logger.Error("Failed to persist player count", "table", t.GameID, "error", err)
	}

	for _, p := range t.Players {
		cards, err := e.holeCards(t.GameID, p.ID)
		if err != nil {
			e.logger.Error("Failed to load hole cards for view", "table", t.GameID, "player", p.ID, "error", err)
			cards = nil
		}
		e.broadcast.EmitToPlayer(p.ID, "gameUpdate", buildPlayerView(t, p, cards))
	}
}
