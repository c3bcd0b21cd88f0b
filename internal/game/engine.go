// internal/game/engine.go
//
// Game engine for a single Mastermind session.
// Responsibilities:
//   - Create sessions with a secret drawn uniformly from the Code Space.
//   - Validate and score guesses; the session is the only place feedback
//     comes from.
//   - Track state transitions: playing → won/lost.
//   - Reveal the secret once, and only once, the game is over.
//
// randomID() is a compact hex identifier for correlating server state.
package game

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	mrand "math/rand/v2"
	"time"

	"github.com/robalobadob/mastermind/internal/codes"
)

const defaultMaxRounds = 10

var (
	ErrGameFinished = errors.New("game finished")
	ErrInvalidGuess = errors.New("invalid guess")
	ErrNotFinished  = errors.New("game still in progress")
	ErrStaleRound   = errors.New("guess computed for an earlier round")
)

// New constructs a session with a random secret from space.
// maxRounds <= 0 selects the default of 10.
func New(space *codes.Space, maxRounds int, rng *mrand.Rand) *Session {
	s, _ := NewWithSecret(space, maxRounds, space.Random(rng))
	return s
}

// NewWithSecret constructs a session with a fixed secret (testing, replays).
func NewWithSecret(space *codes.Space, maxRounds int, secret codes.Code) (*Session, error) {
	if err := space.Validate(secret); err != nil {
		return nil, err
	}
	if maxRounds <= 0 {
		maxRounds = defaultMaxRounds
	}
	return &Session{
		ID:        randomID(),
		Alphabet:  space.Alphabet(),
		Length:    space.Length(),
		MaxRounds: maxRounds,
		StartedAt: time.Now().UTC(),
		secret:    secret.Clone(),
		space:     space,
		mode:      ModePlayer,
	}, nil
}

// ApplyGuess validates and scores a guess, mutating the session state.
// Returns the feedback, the resulting state, or an error.
//
// State transitions:
//   - Exact count equal to the code length → won.
//   - Else if the number of guesses reaches MaxRounds → lost.
func (s *Session) ApplyGuess(guess codes.Code) (codes.Feedback, State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(guess)
}

// ApplyGuessAt is ApplyGuess for a guess derived from the first round
// entries of the history. It fails with ErrStaleRound, leaving the session
// untouched, if another guess was applied in the meantime.
func (s *Session) ApplyGuessAt(round int, guess codes.Code) (codes.Feedback, State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.finished && len(s.history) != round {
		return codes.Feedback{}, s.state(), ErrStaleRound
	}
	return s.apply(guess)
}

func (s *Session) apply(guess codes.Code) (codes.Feedback, State, error) {
	if s.finished {
		return codes.Feedback{}, s.state(), ErrGameFinished
	}
	if err := s.space.Validate(guess); err != nil {
		return codes.Feedback{}, s.state(), fmt.Errorf("%w: %v", ErrInvalidGuess, err)
	}

	fb := codes.Score(guess, s.secret)
	s.history = append(s.history, codes.GuessRecord{Guess: guess.Clone(), Feedback: fb})

	if fb.Won(s.Length) {
		s.finished, s.won = true, true
	} else if len(s.history) >= s.MaxRounds {
		s.finished = true
	}
	return fb, s.state(), nil
}

// Score is ApplyGuess without the state; it lets a Session act as the
// solver's oracle.
func (s *Session) Score(guess codes.Code) (codes.Feedback, error) {
	fb, _, err := s.ApplyGuess(guess)
	return fb, err
}

// Forfeit ends a running game as lost. It reports whether the state changed.
func (s *Session) Forfeit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return false
	}
	s.finished = true
	return true
}

// State reports the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state()
}

func (s *Session) state() State {
	if s.finished {
		if s.won {
			return StateWon
		}
		return StateLost
	}
	return StatePlaying
}

// History returns a copy of the guesses made so far.
func (s *Session) History() []codes.GuessRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]codes.GuessRecord, len(s.history))
	copy(out, s.history)
	return out
}

// Round returns the number of guesses made so far.
func (s *Session) Round() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// Reveal returns the secret once the game is over.
func (s *Session) Reveal() (codes.Code, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.finished {
		return nil, ErrNotFinished
	}
	return s.secret.Clone(), nil
}

// Mode reports who has been guessing.
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetMode marks the session as player- or solver-driven.
func (s *Session) SetMode(m Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = m
}

// randomID returns a compact 16‑hex‑char identifier.
// Collisions are extremely unlikely given crypto/rand entropy.
func randomID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
