package game

import (
	"fmt"
)

// Join seats a player with the table's buy-in, or queues them when a
// hand is in progress. The buy-in is escrowed from the player's
// account balance before any table state changes. Returns whether the
// player was queued rather than seated.
func (e *Engine) Join(gameID, playerID, password string) (queued bool, err error) {
	unlock := e.locks.Lock(gameID)
	defer unlock()

	t, err := e.loadTable(gameID)
	if err != nil {
		return false, err
	}

	if t.Meta.Password != "" && t.Meta.Password != password {
		return false, ErrWrongPassword
	}
	for _, p := range t.Players {
		if p.ID == playerID {
			return false, ErrAlreadyJoined
		}
	}
	for _, p := range t.QueuedPlayers {
		if p.ID == playerID {
			return false, ErrAlreadyJoined
		}
	}
	if t.seatedCount()+len(t.QueuedPlayers) >= t.Meta.MaxPlayers {
		return false, ErrTableFull
	}

	buyIn := t.Meta.BuyIn
	if buyIn > 0 {
		balance, err := e.accounts.GetBalance(playerID)
		if err != nil {
			return false, fmt.Errorf("check balance: %w", err)
		}
		if balance < buyIn {
			return false, ErrInsufficientBuyIn
		}
		if err := e.accounts.AdjustBalance(playerID, -buyIn); err != nil {
			return false, fmt.Errorf("escrow buy-in: %w", err)
		}
	}

	player := &Player{ID: playerID, Chips: buyIn}
	if t.Round == RoundWaiting {
		t.Players = append(t.Players, player)
	} else {
		t.QueuedPlayers = append(t.QueuedPlayers, player)
		queued = true
	}

	if err := e.saveTable(t); err != nil {
		return false, err
	}
	e.logger.Info("Player joined", "table", gameID, "player", playerID, "queued", queued)
	if queued {
		e.broadcast.EmitToPlayer(playerID, "queued", map[string]any{"gameId": gameID})
	}
	e.updateAllPlayersLocked(t)
	return queued, nil
}

// Leave removes a player. During a hand the seat folds immediately
// and the removal (with chip and stat flush) is deferred to hand end;
// in the waiting state the player is removed outright.
func (e *Engine) Leave(gameID, playerID string) error {
	unlock := e.locks.Lock(gameID)
	t, err := e.loadTable(gameID)
	if err != nil {
		unlock()
		return err
	}

	idx := t.seatIndex(playerID)
	if idx == -1 {
		unlock()
		return ErrPlayerNotFound
	}
	p := t.Players[idx]

	if t.Round == RoundWaiting {
		t.Players = append(t.Players[:idx], t.Players[idx+1:]...)
		if err := e.saveTable(t); err != nil {
			unlock()
			return err
		}
		e.logger.Info("Player left", "table", gameID, "player", playerID)
		e.flushPlayer(p)
		e.updateAllPlayersLocked(t)
		e.maybeScheduleGCLocked(t)
		unlock()
		return nil
	}

	// Mid-hand: inject a fold and keep the seat as a placeholder so
	// positions stay stable until the hand ends.
	wasTurn := t.CurrentTurn == idx
	p.LeftGame = true
	ended := false
	if !p.Folded {
		p.Folded = true
		t.removeActive(playerID)
	}
	if err := e.saveTable(t); err != nil {
		unlock()
		return err
	}
	e.logger.Info("Player left mid-hand", "table", gameID, "player", playerID, "wasTurn", wasTurn)

	// Advance only when the leaver held the open turn, or their fold
	// decided the hand. Advancing otherwise would skip a live turn.
	if wasTurn || len(t.ActivePlayers) <= 1 {
		ended, err = e.nextTurnLocked(t)
		if err != nil {
			unlock()
			return err
		}
	} else {
		e.updateAllPlayersLocked(t)
	}
	e.maybeScheduleGCLocked(t)
	unlock()

	if ended {
		e.finishHand(gameID)
		return nil
	}
	e.runCPUTurns(gameID)
	return nil
}

// LeaveQueue withdraws a queued player and refunds their escrowed
// buy-in.
func (e *Engine) LeaveQueue(gameID, playerID string) error {
	unlock := e.locks.Lock(gameID)
	defer unlock()

	t, err := e.loadTable(gameID)
	if err != nil {
		return err
	}
	for i, p := range t.QueuedPlayers {
		if p.ID != playerID {
			continue
		}
		t.QueuedPlayers = append(t.QueuedPlayers[:i], t.QueuedPlayers[i+1:]...)
		if err := e.saveTable(t); err != nil {
			return err
		}
		e.logger.Info("Player left queue", "table", gameID, "player", playerID)
		e.flushPlayer(p)
		e.updateAllPlayersLocked(t)
		e.maybeScheduleGCLocked(t)
		return nil
	}
	return ErrPlayerNotFound
}

// AddCPU seats an automated player. Only allowed between hands so
// seat arithmetic never shifts mid-hand.
func (e *Engine) AddCPU(gameID string) error {
	unlock := e.locks.Lock(gameID)
	defer unlock()

	t, err := e.loadTable(gameID)
	if err != nil {
		return err
	}
	if t.Round != RoundWaiting {
		return ErrHandInProgress
	}
	if t.seatedCount()+len(t.QueuedPlayers) >= t.Meta.MaxPlayers {
		return ErrTableFull
	}

	id := fmt.Sprintf("cpu_%d", t.cpuCount()+1)
	t.Players = append(t.Players, &Player{
		ID:    id,
		Chips: t.Meta.BuyIn,
		IsCPU: true,
	})

	if err := e.saveTable(t); err != nil {
		return err
	}
	e.logger.Info("CPU added", "table", gameID, "cpu", id)
	e.updateAllPlayersLocked(t)
	return nil
}

// RemoveCPU removes the most recently added automated player.
func (e *Engine) RemoveCPU(gameID string) error {
	unlock := e.locks.Lock(gameID)
	defer unlock()

	t, err := e.loadTable(gameID)
	if err != nil {
		return err
	}
	if t.Round != RoundWaiting {
		return ErrHandInProgress
	}
	count := t.cpuCount()
	if count == 0 {
		return ErrNoCPUPlayers
	}

	id := fmt.Sprintf("cpu_%d", count)
	for i, p := range t.Players {
		if p.ID == id {
			t.Players = append(t.Players[:i], t.Players[i+1:]...)
			break
		}
	}

	if err := e.saveTable(t); err != nil {
		return err
	}
	e.logger.Info("CPU removed", "table", gameID, "cpu", id)
	e.updateAllPlayersLocked(t)
	return nil
}

// maybeScheduleGCLocked arms a deferred collection when no humans
// remain at or around the table. The grace window lets a reconnecting
// or page-refreshing player return before the table disappears.
func (e *Engine) maybeScheduleGCLocked(t *Table) {
	if t.humanCount() > 0 {
		return
	}
	gameID := t.GameID
	e.logger.Info("No humans remain, scheduling table collection",
		"table", gameID, "grace", e.cfg.GCGraceWindow)
	e.clock.AfterFunc(e.cfg.GCGraceWindow, func() {
		e.collectTable(gameID)
	})
}

// collectTable re-checks occupancy after the grace window and deletes
// the table and its card keys if still humanless.
func (e *Engine) collectTable(gameID string) {
	unlock := e.locks.Lock(gameID)

	t, err := e.loadTable(gameID)
	if err != nil {
		unlock()
		return
	}
	if t.humanCount() > 0 {
		unlock()
		return
	}

	for _, p := range t.Players {
		_ = e.store.Delete(playerCardsKey(gameID, p.ID))
	}
	if err := e.store.Delete(tableKey(gameID)); err != nil {
		e.logger.Error("Failed to delete table", "table", gameID, "error", err)
		unlock()
		return
	}
	e.logger.Info("Table collected", "table", gameID)
	unlock()
	e.locks.Forget(gameID)
}
