// internal/solver/config.go
//
// Tunables for the evolutionary solver and their validation.
// Every option has a default; DefaultConfig returns them all.

package solver

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/robalobadob/mastermind/internal/codes"
)

var (
	// ErrInvalidConfiguration is returned by Validate and New.
	ErrInvalidConfiguration = errors.New("invalid solver configuration")

	// ErrExhaustedCodeSpace means a fill asked for more unused codes than the
	// Code Space has left.
	ErrExhaustedCodeSpace = errors.New("code space exhausted")

	// ErrNoEligibleCode is returned by StartRound when the search ended
	// without a single code consistent with the history. Callers treat it as
	// a lost game.
	ErrNoEligibleCode = errors.New("no eligible code found")

	// ErrInvalidHistory is returned when a history entry cannot belong to the
	// configured game (bad code or impossible feedback).
	ErrInvalidHistory = errors.New("invalid guess history")
)

const (
	defaultAlphabetSize    = 6
	defaultCodeLength      = 4
	defaultPopulationSize  = 150
	defaultMaxGenerations  = 100
	defaultEligibleCap     = 110
	defaultMutationProb    = 0.2
	defaultPermutationProb = 0.05
	defaultInversionProb   = 0.05
	defaultWeightA         = 1
	defaultWeightB         = 2
	defaultHardCeiling     = 5000
)

// Config holds the solver options.
type Config struct {
	AlphabetSize   int
	CodeLength     int
	PopulationSize int
	// MaxGenerations is the nominal generation budget of one round.
	MaxGenerations int
	EligibleCap    int

	MutationProb    float64
	PermutationProb float64
	InversionProb   float64

	FitnessWeightA int
	FitnessWeightB int

	// HardGenerationCeiling stops a round even while the empty-set override
	// would keep searching.
	HardGenerationCeiling int

	Logger zerolog.Logger

	// OnGeneration, if set, is called by Engine.Run after every generation.
	OnGeneration func(GenerationStats)
}

// DefaultConfig returns the classic 6-colour, 4-peg setup.
func DefaultConfig() Config {
	return Config{
		AlphabetSize:          defaultAlphabetSize,
		CodeLength:            defaultCodeLength,
		PopulationSize:        defaultPopulationSize,
		MaxGenerations:        defaultMaxGenerations,
		EligibleCap:           defaultEligibleCap,
		MutationProb:          defaultMutationProb,
		PermutationProb:       defaultPermutationProb,
		InversionProb:         defaultInversionProb,
		FitnessWeightA:        defaultWeightA,
		FitnessWeightB:        defaultWeightB,
		HardGenerationCeiling: defaultHardCeiling,
		Logger:                zerolog.Nop(),
	}
}

// Validate fails fast on options the engine cannot run with.
func (c Config) Validate() error {
	switch {
	case c.AlphabetSize <= 0 || c.AlphabetSize > codes.MaxAlphabet:
		return invalid("alphabet size %d outside 1..%d", c.AlphabetSize, codes.MaxAlphabet)
	case c.CodeLength <= 0 || c.CodeLength > codes.MaxLength:
		return invalid("code length %d outside 1..%d", c.CodeLength, codes.MaxLength)
	case codes.SpaceSize(c.AlphabetSize, c.CodeLength) < 0:
		return invalid("code space %d^%d too large", c.AlphabetSize, c.CodeLength)
	case c.PopulationSize < 2:
		return invalid("population size %d, need at least 2", c.PopulationSize)
	case c.MaxGenerations <= 0:
		return invalid("max generations %d must be positive", c.MaxGenerations)
	case c.EligibleCap <= 0:
		return invalid("eligible cap %d must be positive", c.EligibleCap)
	case c.HardGenerationCeiling < c.MaxGenerations:
		return invalid("hard generation ceiling %d below max generations %d", c.HardGenerationCeiling, c.MaxGenerations)
	case c.FitnessWeightA <= 0 || c.FitnessWeightB <= 0:
		return invalid("fitness weights must be positive (a=%d, b=%d)", c.FitnessWeightA, c.FitnessWeightB)
	}
	for name, p := range map[string]float64{
		"mutation":    c.MutationProb,
		"permutation": c.PermutationProb,
		"inversion":   c.InversionProb,
	} {
		if p < 0 || p > 1 {
			return invalid("%s probability %v outside [0,1]", name, p)
		}
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}
