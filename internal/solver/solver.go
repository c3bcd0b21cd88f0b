// internal/solver/solver.go
//
// Solver ties the Population Engine and the Guess Selector together.
// StartRound turns a guess history into the next guess; Play drives whole
// games against anything that can score a guess.
//
// A Solver owns its random source and is not safe for concurrent use; create
// one per goroutine. The Code Space it uses is shared and read-only.

package solver

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/robalobadob/mastermind/internal/codes"
	"github.com/robalobadob/mastermind/internal/metrics"
)

// Solver produces guesses for one game configuration.
type Solver struct {
	cfg   Config
	space *codes.Space
	rng   *rand.Rand
}

// New validates cfg and prepares the Code Space.
func New(cfg Config, rng *rand.Rand) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	space, err := codes.NewSpace(cfg.AlphabetSize, cfg.CodeLength)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	return &Solver{cfg: cfg, space: space, rng: rng}, nil
}

// Space returns the Code Space the solver searches.
func (s *Solver) Space() *codes.Space { return s.space }

// Config returns the solver configuration.
func (s *Solver) Config() Config { return s.cfg }

// StartRound runs one evolutionary search over history and returns the most
// informative eligible code. ErrNoEligibleCode means the search gave up.
func (s *Solver) StartRound(ctx context.Context, history []codes.GuessRecord) (codes.Code, error) {
	start := time.Now()
	if err := s.checkHistory(history); err != nil {
		metrics.RoundsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, err
	}

	eng, err := NewEngine(s.cfg, s.space, s.rng, history)
	if err != nil {
		metrics.RoundsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, err
	}
	res, err := eng.Run(ctx)
	metrics.RoundGenerations.Observe(float64(res.Generations))
	if err != nil {
		outcome := metrics.OutcomeError
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			outcome = metrics.OutcomeCanceled
		}
		metrics.RoundsTotal.WithLabelValues(outcome).Inc()
		return nil, err
	}

	metrics.EligibleSetSize.Observe(float64(len(res.Eligible)))
	logger := s.cfg.Logger.With().
		Int("history", len(history)).
		Int("generations", res.Generations).
		Int("eligible", len(res.Eligible)).
		Str("outcome", res.Outcome.String()).
		Logger()

	if len(res.Eligible) == 0 {
		if res.Outcome == OutcomeCeiling {
			logger.Warn().Msg("hard generation ceiling reached with no eligible code")
		}
		metrics.RoundsTotal.WithLabelValues(metrics.OutcomeNoEligible).Inc()
		return nil, ErrNoEligibleCode
	}

	guess, err := SelectGuess(res.Eligible, codes.Score)
	if err != nil {
		metrics.RoundsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, err
	}
	metrics.RoundsTotal.WithLabelValues(metrics.OutcomeGuess).Inc()
	metrics.RoundDuration.Observe(time.Since(start).Seconds())
	logger.Debug().Str("guess", guess.String()).Dur("took", time.Since(start)).Msg("round done")
	return guess, nil
}

func (s *Solver) checkHistory(history []codes.GuessRecord) error {
	for i, rec := range history {
		if err := s.space.Validate(rec.Guess); err != nil {
			return fmt.Errorf("%w: entry %d: %v", ErrInvalidHistory, i, err)
		}
		if !rec.Feedback.Valid(s.cfg.CodeLength) {
			return fmt.Errorf("%w: entry %d: impossible feedback %s", ErrInvalidHistory, i, rec.Feedback)
		}
	}
	return nil
}

// Oracle answers "score my guess" queries; a game session is one.
type Oracle interface {
	Score(guess codes.Code) (codes.Feedback, error)
}

// PlayResult summarises a self-played game.
type PlayResult struct {
	History []codes.GuessRecord
	Won     bool
}

// Rounds returns the number of guesses made.
func (r PlayResult) Rounds() int { return len(r.History) }

// Play guesses against oracle until the code is found, maxRounds guesses were
// made, or the search gives up (ErrNoEligibleCode, returned with the partial
// result).
func (s *Solver) Play(ctx context.Context, oracle Oracle, maxRounds int) (PlayResult, error) {
	var res PlayResult
	for len(res.History) < maxRounds {
		guess, err := s.StartRound(ctx, res.History)
		if err != nil {
			return res, err
		}
		fb, err := oracle.Score(guess)
		if err != nil {
			return res, fmt.Errorf("score %s: %w", guess, err)
		}
		res.History = append(res.History, codes.GuessRecord{Guess: guess, Feedback: fb})
		if fb.Won(s.cfg.CodeLength) {
			res.Won = true
			break
		}
	}
	return res, nil
}
