// internal/game/types.go
//
// Core type definitions for a Mastermind game session.
// Defines:
//   - State: coarse lifecycle of a session (playing/won/lost).
//   - Mode: who is guessing (a player or the solver).
//   - Session: one hidden secret plus the guess history scored against it.

package game

import (
	"sync"
	"time"

	"github.com/robalobadob/mastermind/internal/codes"
)

// State is the coarse lifecycle of a session.
type State string

const (
	StatePlaying State = "playing"
	StateWon     State = "won"
	StateLost    State = "lost"
)

// Mode records who submitted the guesses of a session.
type Mode string

const (
	ModePlayer Mode = "player"
	ModeSolver Mode = "solver"
)

// Session holds the state of a single game. The secret is only reachable
// through Score/ApplyGuess until the game has finished.
type Session struct {
	ID        string    // Unique session identifier (random hex string).
	Alphabet  int       // Number of symbols.
	Length    int       // Pegs per code.
	MaxRounds int       // Guesses allowed before the game is lost.
	StartedAt time.Time // Creation time (UTC).

	mu       sync.Mutex
	secret   codes.Code
	space    *codes.Space
	history  []codes.GuessRecord
	finished bool
	won      bool
	mode     Mode
}
