package game

import "errors"

// Validation errors: reported to the offending actor only, table state
// unchanged.
var (
	ErrNotYourTurn       = errors.New("invalid action or not your turn")
	ErrInvalidAction     = errors.New("invalid action")
	ErrInsufficientChips = errors.New("not enough chips")
	ErrGameEnding        = errors.New("hand is ending, action rejected")
	ErrNotEnoughPlayers  = errors.New("at least 2 players are required to start the hand")
	ErrTableFull         = errors.New("table is full")
	ErrWrongPassword     = errors.New("incorrect table password")
	ErrAlreadyJoined     = errors.New("already joined this table")
	ErrDuplicateTable    = errors.New("table already exists")
	ErrHandInProgress    = errors.New("a hand is already in progress")
	ErrNoCPUPlayers      = errors.New("no CPU players at this table")
)

// Not-found errors: reported to the caller, no mutation attempted.
var (
	ErrTableNotFound  = errors.New("table not found")
	ErrPlayerNotFound = errors.New("player not found")
)

// Resource errors.
var (
	// ErrServerFull refuses table creation above the store memory
	// ceiling.
	ErrServerFull = errors.New("server is too full right now")

	// ErrInsufficientBuyIn refuses a join before any seat or escrow
	// mutation occurs.
	ErrInsufficientBuyIn = errors.New("not enough chips for buy-in")
)
