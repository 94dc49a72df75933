// Package accounts is the persistent store for player balances and
// cumulative statistics. All writes are monotonic increments so that
// concurrent flushes from multiple tables commute.
package accounts

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// ErrUnknownPlayer is returned when no account row exists for an id.
var ErrUnknownPlayer = errors.New("accounts: unknown player")

// StatDeltas carries the per-session increments flushed when a player
// leaves a table. Zero fields are harmless.
type StatDeltas struct {
	GamesPlayed   int `json:"gamesPlayed"`
	GamesWon      int `json:"gamesWon"`
	TotalChipsWon int `json:"totalChipsWon"`
	HandsPlayed   int `json:"handsPlayed"`
	HandsWon      int `json:"handsWon"`
	AllIns        int `json:"allIns"`
	Folds         int `json:"folds"`
}

// Store is the engine's view of the persistent account store.
type Store interface {
	GetBalance(playerID string) (int, error)
	AdjustBalance(playerID string, delta int) error
	IncrementStats(playerID string, deltas StatDeltas) error
}

// SQLStore implements Store on SQLite.
type SQLStore struct {
	db *sql.DB
}

// Open opens (or creates) the account database at path.
func Open(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open account database: %w", err)
	}

	s := &SQLStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate account database: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS player_stats (
		id TEXT PRIMARY KEY,
		chips INTEGER NOT NULL DEFAULT 0,
		games_played INTEGER NOT NULL DEFAULT 0,
		games_won INTEGER NOT NULL DEFAULT 0,
		total_chips_won INTEGER NOT NULL DEFAULT 0,
		hands_played INTEGER NOT NULL DEFAULT 0,
		hands_won INTEGER NOT NULL DEFAULT 0,
		all_ins INTEGER NOT NULL DEFAULT 0,
		folds INTEGER NOT NULL DEFAULT 0
	);`
	_, err := s.db.Exec(schema)
	return err
}

// CreatePlayer creates an account row with a starting balance. It is a
// no-op when the row already exists.
func (s *SQLStore) CreatePlayer(playerID string, chips int) error {
	_, err := s.db.Exec(
		`INSERT INTO player_stats (id, chips) VALUES (?, ?) ON CONFLICT(id) DO NOTHING`,
		playerID, chips,
	)
	return err
}

// GetBalance returns the player's persistent chip balance.
func (s *SQLStore) GetBalance(playerID string) (int, error) {
	var chips int
	err := s.db.QueryRow(`SELECT chips FROM player_stats WHERE id = ?`, playerID).Scan(&chips)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrUnknownPlayer
	}
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return chips, nil
}

// AdjustBalance adds delta (possibly negative) to the player's chip
// balance.
func (s *SQLStore) AdjustBalance(playerID string, delta int) error {
	res, err := s.db.Exec(`UPDATE player_stats SET chips = chips + ? WHERE id = ?`, delta, playerID)
	if err != nil {
		return fmt.Errorf("adjust balance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUnknownPlayer
	}
	return nil
}

// IncrementStats adds the deltas to the player's cumulative counters.
func (s *SQLStore) IncrementStats(playerID string, d StatDeltas) error {
	res, err := s.db.Exec(
		`UPDATE player_stats SET
			games_played = games_played + ?,
			games_won = games_won + ?,
			total_chips_won = total_chips_won + ?,
			hands_played = hands_played + ?,
			hands_won = hands_won + ?,
			all_ins = all_ins + ?,
			folds = folds + ?
		WHERE id = ?`,
		d.GamesPlayed, d.GamesWon, d.TotalChipsWon, d.HandsPlayed, d.HandsWon, d.AllIns, d.Folds,
		playerID,
	)
	if err != nil {
		return fmt.Errorf("increment stats: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUnknownPlayer
	}
	return nil
}

// Stats is the full cumulative record for one player.
type Stats struct {
	PlayerID      string
	Chips         int
	GamesPlayed   int
	GamesWon      int
	TotalChipsWon int
	HandsPlayed   int
	HandsWon      int
	AllIns        int
	Folds         int
}

// GetStats returns the full cumulative record for a player.
func (s *SQLStore) GetStats(playerID string) (Stats, error) {
	var st Stats
	err := s.db.QueryRow(
		`SELECT id, chips, games_played, games_won, total_chips_won,
			hands_played, hands_won, all_ins, folds
		FROM player_stats WHERE id = ?`, playerID,
	).Scan(&st.PlayerID, &st.Chips, &st.GamesPlayed, &st.GamesWon, &st.TotalChipsWon,
		&st.HandsPlayed, &st.HandsWon, &st.AllIns, &st.Folds)
	if errors.Is(err, sql.ErrNoRows) {
		return Stats{}, ErrUnknownPlayer
	}
	if err != nil {
		return Stats{}, fmt.Errorf("get stats: %w", err)
	}
	return st, nil
}
