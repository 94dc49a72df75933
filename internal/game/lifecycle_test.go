package game

import (
	"context"
	"testing"
	"time"

	"github.com/coder/quartz"
)

// waitFor polls until the condition holds; the chip flush to the
// account store is asynchronous.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestJoinEscrowsBuyIn(t *testing.T) {
	h := newTestEngine(t, 1)
	table, err := h.engine.CreateTable("", "", "", 500)
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}

	h.accounts.balances["alice"] = 800
	queued, err := h.engine.Join(table.GameID, "alice", "")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if queued {
		t.Error("joined a waiting table but was queued")
	}
	if got := h.accounts.balance("alice"); got != 300 {
		t.Errorf("balance after buy-in = %d, want 300", got)
	}

	got := h.table(t, table.GameID)
	if len(got.Players) != 1 || got.Players[0].Chips != 500 {
		t.Fatalf("expected one seated player with 500 chips, got %+v", got.Players)
	}

	h.accounts.balances["poor"] = 100
	if _, err := h.engine.Join(table.GameID, "poor", ""); err != ErrInsufficientBuyIn {
		t.Errorf("underfunded join err = %v, want ErrInsufficientBuyIn", err)
	}
}

func TestJoinPasswordAndDuplicates(t *testing.T) {
	h := newTestEngine(t, 1)
	table, err := h.engine.CreateTable("", "", "sekrit", 0)
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}

	if _, err := h.engine.Join(table.GameID, "alice", "wrong"); err != ErrWrongPassword {
		t.Errorf("wrong password err = %v, want ErrWrongPassword", err)
	}
	if _, err := h.engine.Join(table.GameID, "alice", "sekrit"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if _, err := h.engine.Join(table.GameID, "alice", "sekrit"); err != ErrAlreadyJoined {
		t.Errorf("duplicate join err = %v, want ErrAlreadyJoined", err)
	}
}

func TestJoinFullTable(t *testing.T) {
	h := newTestEngineWithConfig(t, 1, func(cfg *Config) {
		cfg.MaxPlayers = 2
	}, quartz.NewReal())
	gameID := h.seatHumans(t, 0, "alice", "bob")

	if _, err := h.engine.Join(gameID, "carol", ""); err != ErrTableFull {
		t.Errorf("join full table err = %v, want ErrTableFull", err)
	}
}

func TestJoinDuringHandQueuesAndPromotes(t *testing.T) {
	h := newTestEngine(t, 31)
	gameID := h.seatHumans(t, 500, "alice", "bob")
	if err := h.engine.StartHand(gameID); err != nil {
		t.Fatalf("StartHand: %v", err)
	}

	h.accounts.balances["carol"] = 1000
	queued, err := h.engine.Join(gameID, "carol", "")
	if err != nil {
		t.Fatalf("Join mid-hand: %v", err)
	}
	if !queued {
		t.Fatal("expected mid-hand join to queue")
	}
	if len(h.broadcast.byEvent("queued")) != 1 {
		t.Error("expected a queued event")
	}
	table := h.table(t, gameID)
	if len(table.QueuedPlayers) != 1 || len(table.Players) != 2 {
		t.Fatalf("seats=%d queue=%d, want 2/1", len(table.Players), len(table.QueuedPlayers))
	}

	// End the hand; carol takes a seat.
	if err := h.engine.Action(gameID, "alice", ActionFold, 0); err != nil {
		t.Fatalf("fold: %v", err)
	}
	table = h.table(t, gameID)
	if len(table.Players) != 3 || len(table.QueuedPlayers) != 0 {
		t.Fatalf("after hand: seats=%d queue=%d, want 3/0", len(table.Players), len(table.QueuedPlayers))
	}
	if len(h.broadcast.byEvent("joinedFromQueue")) != 1 {
		t.Error("expected a joinedFromQueue event")
	}
}

func TestLeaveQueueRefunds(t *testing.T) {
	h := newTestEngine(t, 31)
	gameID := h.seatHumans(t, 500, "alice", "bob")
	if err := h.engine.StartHand(gameID); err != nil {
		t.Fatalf("StartHand: %v", err)
	}

	h.accounts.balances["carol"] = 1000
	if _, err := h.engine.Join(gameID, "carol", ""); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if err := h.engine.LeaveQueue(gameID, "carol"); err != nil {
		t.Fatalf("LeaveQueue: %v", err)
	}
	waitFor(t, "queue refund", func() bool { return h.accounts.balance("carol") == 1000 })

	if err := h.engine.LeaveQueue(gameID, "carol"); err != ErrPlayerNotFound {
		t.Errorf("second LeaveQueue err = %v, want ErrPlayerNotFound", err)
	}
}

func TestLeaveWhileWaitingCashesOut(t *testing.T) {
	h := newTestEngine(t, 1)
	gameID := h.seatHumans(t, 500, "alice", "bob")

	if err := h.engine.Leave(gameID, "alice"); err != nil {
		t.Fatalf("Leave: %v", err)
	}
	table := h.table(t, gameID)
	if len(table.Players) != 1 || table.Players[0].ID != "bob" {
		t.Fatalf("players after leave = %+v", table.Players)
	}
	waitFor(t, "cash out", func() bool { return h.accounts.balance("alice") == 1000 })
}

func TestLeaveMidHandFoldsAndDefersRemoval(t *testing.T) {
	h := newTestEngine(t, 37)
	gameID := h.seatHumans(t, 500, "alice", "bob", "carol")
	if err := h.engine.StartHand(gameID); err != nil {
		t.Fatalf("StartHand: %v", err)
	}

	// Bob leaves out of turn: his seat folds but stays put so the
	// other positions do not shift.
	if err := h.engine.Leave(gameID, "bob"); err != nil {
		t.Fatalf("Leave: %v", err)
	}
	table := h.table(t, gameID)
	if len(table.Players) != 3 {
		t.Fatalf("seat count changed mid-hand: %d", len(table.Players))
	}
	bob := table.Players[1]
	if !bob.Folded || !bob.LeftGame {
		t.Errorf("leaver folded=%v leftGame=%v, want both true", bob.Folded, bob.LeftGame)
	}
	// It was alice's turn and still is.
	if table.CurrentTurn != 0 {
		t.Errorf("currentTurn = %d after out-of-turn leave, want 0", table.CurrentTurn)
	}

	// Alice folds; carol wins and the hand resets without bob.
	if err := h.engine.Action(gameID, "alice", ActionFold, 0); err != nil {
		t.Fatalf("fold: %v", err)
	}
	table = h.table(t, gameID)
	if len(table.Players) != 2 {
		t.Fatalf("players after hand = %d, want 2", len(table.Players))
	}
	for _, p := range table.Players {
		if p.ID == "bob" {
			t.Error("leaver still seated after hand end")
		}
	}
	// Bob's remaining chips went back to his account (490 at the
	// table plus the 500 he kept back).
	waitFor(t, "leaver cash out", func() bool { return h.accounts.balance("bob") == 990 })
}

func TestLeaveOnYourTurnAdvances(t *testing.T) {
	h := newTestEngine(t, 37)
	gameID := h.seatHumans(t, 500, "alice", "bob", "carol")
	if err := h.engine.StartHand(gameID); err != nil {
		t.Fatalf("StartHand: %v", err)
	}

	// Alice holds the open turn; leaving folds her and passes it on.
	if err := h.engine.Leave(gameID, "alice"); err != nil {
		t.Fatalf("Leave: %v", err)
	}
	table := h.table(t, gameID)
	if table.CurrentTurn != 1 {
		t.Errorf("currentTurn = %d after leave on turn, want 1", table.CurrentTurn)
	}
}

func TestAddAndRemoveCPUs(t *testing.T) {
	h := newTestEngine(t, 1)
	gameID := h.seatHumans(t, 500, "alice")

	if err := h.engine.AddCPU(gameID); err != nil {
		t.Fatalf("AddCPU: %v", err)
	}
	if err := h.engine.AddCPU(gameID); err != nil {
		t.Fatalf("AddCPU: %v", err)
	}
	table := h.table(t, gameID)
	if len(table.Players) != 3 {
		t.Fatalf("players = %d, want 3", len(table.Players))
	}
	if table.Players[1].ID != "cpu_1" || table.Players[2].ID != "cpu_2" {
		t.Errorf("cpu ids = %s, %s, want cpu_1, cpu_2", table.Players[1].ID, table.Players[2].ID)
	}
	if !table.Players[1].IsCPU || table.Players[1].Chips != 500 {
		t.Errorf("cpu seat = %+v, want isCPU with table buy-in", table.Players[1])
	}

	// Most recent CPU goes first.
	if err := h.engine.RemoveCPU(gameID); err != nil {
		t.Fatalf("RemoveCPU: %v", err)
	}
	table = h.table(t, gameID)
	if len(table.Players) != 2 || table.Players[1].ID != "cpu_1" {
		t.Fatalf("after remove: %+v", table.Players)
	}
	if err := h.engine.RemoveCPU(gameID); err != nil {
		t.Fatalf("RemoveCPU: %v", err)
	}
	if err := h.engine.RemoveCPU(gameID); err != ErrNoCPUPlayers {
		t.Errorf("RemoveCPU on empty err = %v, want ErrNoCPUPlayers", err)
	}
}

func TestCPUChangesRejectedMidHand(t *testing.T) {
	h := newTestEngine(t, 1)
	gameID := h.seatHumans(t, 500, "alice", "bob")
	if err := h.engine.StartHand(gameID); err != nil {
		t.Fatalf("StartHand: %v", err)
	}

	if err := h.engine.AddCPU(gameID); err != ErrHandInProgress {
		t.Errorf("AddCPU mid-hand err = %v, want ErrHandInProgress", err)
	}
	if err := h.engine.RemoveCPU(gameID); err != ErrHandInProgress {
		t.Errorf("RemoveCPU mid-hand err = %v, want ErrHandInProgress", err)
	}
}

func TestAbandonedTableIsCollected(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	mock := quartz.NewMock(t)
	h := newTestEngineWithConfig(t, 1, func(cfg *Config) {
		cfg.GCGraceWindow = 3 * time.Second
	}, mock)
	gameID := h.seatHumans(t, 0, "alice")
	if err := h.engine.AddCPU(gameID); err != nil {
		t.Fatalf("AddCPU: %v", err)
	}

	if err := h.engine.Leave(gameID, "alice"); err != nil {
		t.Fatalf("Leave: %v", err)
	}
	// The CPU-only table survives until the grace window elapses.
	if _, err := h.engine.GetTable(gameID); err != nil {
		t.Fatalf("table gone before grace window: %v", err)
	}

	mock.Advance(3 * time.Second).MustWait(ctx)

	if _, err := h.engine.GetTable(gameID); err != ErrTableNotFound {
		t.Errorf("GetTable after collection err = %v, want ErrTableNotFound", err)
	}
}

func TestReturningPlayerCancelsCollection(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	mock := quartz.NewMock(t)
	h := newTestEngineWithConfig(t, 1, func(cfg *Config) {
		cfg.GCGraceWindow = 3 * time.Second
	}, mock)
	gameID := h.seatHumans(t, 0, "alice")

	if err := h.engine.Leave(gameID, "alice"); err != nil {
		t.Fatalf("Leave: %v", err)
	}
	// Alice comes back inside the grace window.
	if _, err := h.engine.Join(gameID, "alice", ""); err != nil {
		t.Fatalf("rejoin: %v", err)
	}

	mock.Advance(3 * time.Second).MustWait(ctx)

	if _, err := h.engine.GetTable(gameID); err != nil {
		t.Errorf("occupied table was collected: %v", err)
	}
}

func TestListTablesSkipsCardKeys(t *testing.T) {
	h := newTestEngine(t, 41)
	gameID := h.seatHumans(t, 500, "alice", "bob")
	if err := h.engine.StartHand(gameID); err != nil {
		t.Fatalf("StartHand: %v", err)
	}
	if _, err := h.engine.CreateTable("", "second", "pw", 100); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}

	summaries, err := h.engine.ListTables()
	if err != nil {
		t.Fatalf("ListTables: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("got %d tables, want 2", len(summaries))
	}
	for _, s := range summaries {
		if s.GameID == gameID {
			if s.Status != "playing" || s.Players != 2 {
				t.Errorf("live table summary = %+v", s)
			}
		} else {
			if !s.PasswordProtected || s.BuyIn != 100 || s.TableName != "second" {
				t.Errorf("second table summary = %+v", s)
			}
		}
	}
}
