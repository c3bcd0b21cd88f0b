// internal/solver/population.go
//
// Population Engine: the generational loop of one solving round.
//
// Per generation (Step):
//   1. Evaluate every candidate against the history; collect eligible codes.
//   2. Termination check (budget spent or eligible set full), overridden
//      while more than one guess is known and nothing eligible was found,
//      bounded by the hard generation ceiling.
//   3. Sort ascending by fitness; the two highest-fitness members are parents.
//   4. Single-point crossover, then independent mutation / permutation /
//      inversion trials on each child.
//   5. The children replace the first two slots.
//   6. Deduplicate and refill from unused codes of the Code Space.
//
// An Engine is single-use and not safe for concurrent use. Run yields between
// generations and honours context cancellation at generation boundaries.

package solver

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"slices"
	"sort"

	"github.com/robalobadob/mastermind/internal/codes"
	"github.com/robalobadob/mastermind/internal/metrics"
)

// Outcome describes why a round's search stopped.
type Outcome int

const (
	OutcomeRunning Outcome = iota // search not finished yet
	OutcomeCapFull                // eligible set reached its cap
	OutcomeBudget                 // nominal generation budget spent
	OutcomeCeiling                // hard generation ceiling reached
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCapFull:
		return "cap_full"
	case OutcomeBudget:
		return "budget"
	case OutcomeCeiling:
		return "ceiling"
	}
	return "running"
}

// GenerationStats is reported to Config.OnGeneration after every generation.
type GenerationStats struct {
	Generation  int
	Eligible    int
	BestFitness int
}

// Result is what a finished round hands to the caller.
type Result struct {
	Eligible    []codes.Code
	Generations int
	Outcome     Outcome
}

// Engine owns the population and eligible set of one round.
type Engine struct {
	cfg     Config
	space   *codes.Space
	rng     *rand.Rand
	history []codes.GuessRecord
	weights Weights

	pop      []Candidate
	present  map[int]struct{} // space indices currently in pop
	eligible *EligibleSet

	remaining   int
	generations int
	bestFitness int
	outcome     Outcome
}

// NewEngine builds an engine with a random population of distinct codes.
// history is not copied and must not change while the engine runs.
func NewEngine(cfg Config, space *codes.Space, rng *rand.Rand, history []codes.GuessRecord) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if space.Alphabet() != cfg.AlphabetSize || space.Length() != cfg.CodeLength {
		return nil, invalid("space %d^%d does not match config %d^%d",
			space.Alphabet(), space.Length(), cfg.AlphabetSize, cfg.CodeLength)
	}
	e := &Engine{
		cfg:       cfg,
		space:     space,
		rng:       rng,
		history:   history,
		weights:   Weights{A: cfg.FitnessWeightA, B: cfg.FitnessWeightB},
		pop:       make([]Candidate, 0, cfg.PopulationSize),
		present:   make(map[int]struct{}, cfg.PopulationSize),
		eligible:  NewEligibleSet(cfg.EligibleCap),
		remaining: cfg.MaxGenerations,
	}
	if err := e.refill(); err != nil {
		return nil, err
	}
	return e, nil
}

// Step runs one generation. It returns done=true once the round has
// terminated; further calls are no-ops.
func (e *Engine) Step() (bool, error) {
	if e.outcome != OutcomeRunning {
		return true, nil
	}

	// Evaluate.
	for i := range e.pop {
		e.pop[i].Evaluate(e.history, e.weights)
		if e.pop[i].Eligible {
			e.eligible.Add(e.pop[i].Code)
		}
		if i == 0 || e.pop[i].Fitness < e.bestFitness {
			e.bestFitness = e.pop[i].Fitness
		}
	}
	e.generations++
	e.remaining--
	metrics.GenerationsTotal.Inc()

	// Termination.
	switch {
	case e.generations >= e.cfg.HardGenerationCeiling:
		e.outcome = OutcomeCeiling
	case len(e.history) > 1 && e.eligible.Len() == 0:
		// keep searching past the budget until something eligible shows up
	case e.eligible.Full():
		e.outcome = OutcomeCapFull
	case e.remaining <= 0:
		e.outcome = OutcomeBudget
	}
	if e.outcome != OutcomeRunning {
		return true, nil
	}

	// Select: ascending fitness, the two worst members recombine.
	sort.SliceStable(e.pop, func(i, j int) bool { return e.pop[i].Fitness < e.pop[j].Fitness })
	n := len(e.pop)
	p1, p2 := e.pop[n-1].Code, e.pop[n-2].Code

	// Recombine and replace the first two slots.
	c1, c2 := e.crossover(p1, p2)
	e.pop[0] = Candidate{Code: e.vary(c1)}
	e.pop[1] = Candidate{Code: e.vary(c2)}

	if err := e.dedupe(); err != nil {
		return true, err
	}
	if err := e.refill(); err != nil {
		return true, err
	}

	return false, nil
}

// Run steps until termination or cancellation, yielding between generations.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	for {
		if err := ctx.Err(); err != nil {
			return e.Result(), err
		}
		done, err := e.Step()
		if err != nil {
			return e.Result(), err
		}
		if e.cfg.OnGeneration != nil {
			e.cfg.OnGeneration(e.stats())
		}
		e.cfg.Logger.Trace().
			Int("generation", e.generations).
			Int("eligible", e.eligible.Len()).
			Msg("generation done")
		if done {
			return e.Result(), nil
		}
		runtime.Gosched()
	}
}

// Result snapshots the eligible set and progress counters.
func (e *Engine) Result() Result {
	return Result{Eligible: e.eligible.Codes(), Generations: e.generations, Outcome: e.outcome}
}

// Population returns a copy of the current population in slot order.
func (e *Engine) Population() []Candidate {
	out := make([]Candidate, len(e.pop))
	copy(out, e.pop)
	return out
}

// Eligible exposes the round's eligible set.
func (e *Engine) Eligible() *EligibleSet { return e.eligible }

func (e *Engine) stats() GenerationStats {
	return GenerationStats{Generation: e.generations, Eligible: e.eligible.Len(), BestFitness: e.bestFitness}
}

// crossover cuts both parents at a point drawn from 1..length-2 and swaps
// the tails.
func (e *Engine) crossover(a, b codes.Code) (codes.Code, codes.Code) {
	n := len(a)
	cut := 1
	if n > 2 {
		cut = 1 + e.rng.IntN(n-2)
	}
	c1 := make(codes.Code, 0, n)
	c1 = append(append(c1, a[:cut]...), b[cut:]...)
	c2 := make(codes.Code, 0, n)
	c2 = append(append(c2, b[:cut]...), a[cut:]...)
	return c1, c2
}

// vary applies the three independent operators to c in place.
func (e *Engine) vary(c codes.Code) codes.Code {
	n := len(c)
	if e.rng.Float64() < e.cfg.MutationProb && e.cfg.AlphabetSize > 1 {
		pos := e.rng.IntN(n)
		sym := codes.Symbol(e.rng.IntN(e.cfg.AlphabetSize - 1))
		if sym >= c[pos] {
			sym++
		}
		c[pos] = sym
	}
	if e.rng.Float64() < e.cfg.PermutationProb && n > 1 {
		i := e.rng.IntN(n)
		j := e.rng.IntN(n - 1)
		if j >= i {
			j++
		}
		c[i], c[j] = c[j], c[i]
	}
	if e.rng.Float64() < e.cfg.InversionProb {
		slices.Reverse(c)
	}
	return c
}

// dedupe drops repeated codes, keeping the first occurrence, and rebuilds the
// membership index.
func (e *Engine) dedupe() error {
	clear(e.present)
	kept := e.pop[:0]
	for _, c := range e.pop {
		idx := e.space.Index(c.Code)
		if idx < 0 {
			return fmt.Errorf("candidate %s outside code space", c.Code)
		}
		if _, dup := e.present[idx]; dup {
			continue
		}
		e.present[idx] = struct{}{}
		kept = append(kept, c)
	}
	e.pop = kept
	return nil
}

// refill tops the population up to its configured size with codes not
// currently present.
func (e *Engine) refill() error {
	need := e.cfg.PopulationSize - len(e.pop)
	if need <= 0 {
		return nil
	}
	total := e.space.Len()
	free := total - len(e.present)
	if free < need {
		return fmt.Errorf("%w: need %d unused codes, %d left of %d", ErrExhaustedCodeSpace, need, free, total)
	}

	if free*2 >= total {
		for need > 0 {
			idx := e.rng.IntN(total)
			if _, used := e.present[idx]; used {
				continue
			}
			e.add(idx)
			need--
		}
		return nil
	}

	// Dense population: draw from the explicit list of unused indices.
	unused := make([]int, 0, free)
	for idx := 0; idx < total; idx++ {
		if _, used := e.present[idx]; !used {
			unused = append(unused, idx)
		}
	}
	for i := 0; i < need; i++ {
		j := i + e.rng.IntN(len(unused)-i)
		unused[i], unused[j] = unused[j], unused[i]
		e.add(unused[i])
	}
	return nil
}

func (e *Engine) add(idx int) {
	e.present[idx] = struct{}{}
	e.pop = append(e.pop, Candidate{Code: e.space.At(idx).Clone()})
}
