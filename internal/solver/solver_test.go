package solver

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/mastermind/internal/codes"
)

func testRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func mustSpace(t *testing.T, alphabet, length int) *codes.Space {
	t.Helper()
	s, err := codes.NewSpace(alphabet, length)
	require.NoError(t, err)
	return s
}

// secretOracle scores against a fixed code.
type secretOracle struct {
	secret codes.Code
	calls  int
}

func (o *secretOracle) Score(g codes.Code) (codes.Feedback, error) {
	o.calls++
	return codes.Score(g, o.secret), nil
}

func historyFor(secret codes.Code, guesses ...string) []codes.GuessRecord {
	var h []codes.GuessRecord
	for _, g := range guesses {
		c := codes.MustParse(g, 6, len(secret))
		h = append(h, codes.GuessRecord{Guess: c, Feedback: codes.Score(c, secret)})
	}
	return h
}

// ---------------------------------------------------------------- config

func TestConfig_DefaultsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 6, cfg.AlphabetSize)
	assert.Equal(t, 4, cfg.CodeLength)
	assert.Equal(t, 150, cfg.PopulationSize)
	assert.Equal(t, 110, cfg.EligibleCap)
	assert.Equal(t, 0.2, cfg.MutationProb)
	assert.Equal(t, 1, cfg.FitnessWeightA)
	assert.Equal(t, 2, cfg.FitnessWeightB)
}

func TestConfig_Invalid(t *testing.T) {
	tests := map[string]func(*Config){
		"zero alphabet":     func(c *Config) { c.AlphabetSize = 0 },
		"negative length":   func(c *Config) { c.CodeLength = -1 },
		"mutation above 1":  func(c *Config) { c.MutationProb = 1.5 },
		"negative inverse":  func(c *Config) { c.InversionProb = -0.1 },
		"tiny population":   func(c *Config) { c.PopulationSize = 1 },
		"no generations":    func(c *Config) { c.MaxGenerations = 0 },
		"ceiling too low":   func(c *Config) { c.HardGenerationCeiling = 10 },
		"zero eligible cap": func(c *Config) { c.EligibleCap = 0 },
		"space too large":   func(c *Config) { c.AlphabetSize, c.CodeLength = 26, 10 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfiguration)
			_, err := New(cfg, testRand(1))
			assert.ErrorIs(t, err, ErrInvalidConfiguration)
		})
	}
}

// ------------------------------------------------------------- candidate

func TestEvaluate_SecretIsEligible(t *testing.T) {
	secret := codes.MustParse("ABCD", 6, 4)
	hist := historyFor(secret, "AABB", "CCDD", "FEDC")

	c := Candidate{Code: secret}
	c.Evaluate(hist, Weights{A: 1, B: 2})
	assert.True(t, c.Eligible)
	// only the constant index term remains: 2 * 4 * (0+1+2)
	assert.Equal(t, 24, c.Fitness)
}

func TestEvaluate_Inconsistent(t *testing.T) {
	secret := codes.MustParse("ABCD", 6, 4)
	hist := historyFor(secret, "AABB")

	// score(AABB, FFFF) = (0,0); recorded (1,1)
	c := Candidate{Code: codes.MustParse("FFFF", 6, 4)}
	c.Evaluate(hist, Weights{A: 3, B: 2})
	assert.False(t, c.Eligible)
	assert.Equal(t, 3*1+1, c.Fitness)
}

func TestEvaluate_EmptyHistory(t *testing.T) {
	c := Candidate{Code: codes.MustParse("ABCD", 6, 4), Fitness: 99}
	c.Evaluate(nil, Weights{A: 1, B: 2})
	assert.True(t, c.Eligible)
	assert.Zero(t, c.Fitness)
}

// ------------------------------------------------------------ eligible

func TestEligibleSet_DedupAndCap(t *testing.T) {
	e := NewEligibleSet(2)
	a := codes.MustParse("AAAA", 6, 4)
	assert.True(t, e.Add(a))
	assert.False(t, e.Add(a.Clone()))
	assert.True(t, e.Add(codes.MustParse("BBBB", 6, 4)))
	assert.True(t, e.Full())
	assert.False(t, e.Add(codes.MustParse("CCCC", 6, 4)))
	assert.Equal(t, 2, e.Len())
	assert.True(t, e.Contains(a))
	assert.Equal(t, "AAAA", e.Codes()[0].String())
}

// -------------------------------------------------------------- engine

func TestEngine_PopulationInvariant(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MutationProb, cfg.PermutationProb, cfg.InversionProb = 1, 1, 1
	space := mustSpace(t, 6, 4)
	secret := codes.MustParse("ABCD", 6, 4)
	hist := historyFor(secret, "AABB", "CDEF")

	eng, err := NewEngine(cfg, space, testRand(7), hist)
	require.NoError(t, err)

	for i := 0; i < 300; i++ {
		pop := eng.Population()
		require.Len(t, pop, cfg.PopulationSize)
		seen := make(map[string]struct{}, len(pop))
		for _, c := range pop {
			require.NoError(t, space.Validate(c.Code))
			seen[c.Code.Key()] = struct{}{}
		}
		require.Len(t, seen, cfg.PopulationSize, "duplicate codes after generation %d", i)

		done, err := eng.Step()
		require.NoError(t, err)
		if done {
			break
		}
	}
}

func TestEngine_EligibleCodesAreConsistent(t *testing.T) {
	cfg := DefaultConfig()
	space := mustSpace(t, 6, 4)
	secret := codes.MustParse("BCAF", 6, 4)
	hist := historyFor(secret, "AABB", "CCDD")

	eng, err := NewEngine(cfg, space, testRand(3), hist)
	require.NoError(t, err)
	res, err := eng.Run(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, res.Eligible)
	assert.LessOrEqual(t, len(res.Eligible), cfg.EligibleCap)
	for _, c := range res.Eligible {
		cand := Candidate{Code: c}
		cand.Evaluate(hist, Weights{A: 1, B: 2})
		assert.True(t, cand.Eligible, "%s should be consistent", c)
	}
}

func TestEngine_EmptyHistoryFillsCap(t *testing.T) {
	cfg := DefaultConfig()
	eng, err := NewEngine(cfg, mustSpace(t, 6, 4), testRand(1), nil)
	require.NoError(t, err)

	done, err := eng.Step()
	require.NoError(t, err)
	assert.True(t, done)
	res := eng.Result()
	assert.Equal(t, OutcomeCapFull, res.Outcome)
	assert.Len(t, res.Eligible, cfg.EligibleCap)
	assert.Equal(t, 1, res.Generations)

	// further steps are no-ops
	done, err = eng.Step()
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, 1, eng.Result().Generations)
}

func TestEngine_BudgetStopsSingleGuessHistory(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxGenerations = 3
	cfg.EligibleCap = 1000
	hist := historyFor(codes.MustParse("ABCD", 6, 4), "AABB")

	eng, err := NewEngine(cfg, mustSpace(t, 6, 4), testRand(5), hist)
	require.NoError(t, err)
	res, err := eng.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeBudget, res.Outcome)
	assert.Equal(t, cfg.MaxGenerations, res.Generations)
}

func TestEngine_SingleGenerationBudget(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxGenerations = 1
	cfg.EligibleCap = 1000
	hist := historyFor(codes.MustParse("ABCD", 6, 4), "AABB")

	eng, err := NewEngine(cfg, mustSpace(t, 6, 4), testRand(5), hist)
	require.NoError(t, err)
	done, err := eng.Step()
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, OutcomeBudget, eng.Result().Outcome)
	assert.Equal(t, 1, eng.Result().Generations)
}

func TestEngine_OverrideRunsToCeiling(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxGenerations = 5
	cfg.HardGenerationCeiling = 40
	// Contradictory history: nothing can ever be eligible.
	g := codes.MustParse("AAAA", 6, 4)
	hist := []codes.GuessRecord{
		{Guess: g, Feedback: codes.Feedback{Exact: 4}},
		{Guess: g, Feedback: codes.Feedback{Exact: 0}},
	}

	var gens int
	cfg.OnGeneration = func(GenerationStats) { gens++ }
	eng, err := NewEngine(cfg, mustSpace(t, 6, 4), testRand(9), hist)
	require.NoError(t, err)
	res, err := eng.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeCeiling, res.Outcome)
	assert.Empty(t, res.Eligible)
	assert.Equal(t, 40, res.Generations)
	assert.Equal(t, 40, gens)
}

func TestEngine_ExhaustedCodeSpace(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AlphabetSize, cfg.CodeLength = 2, 2
	cfg.PopulationSize = 5
	_, err := NewEngine(cfg, mustSpace(t, 2, 2), testRand(1), nil)
	assert.ErrorIs(t, err, ErrExhaustedCodeSpace)
}

func TestEngine_FullSpacePopulation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AlphabetSize, cfg.CodeLength = 2, 3
	cfg.PopulationSize = 8
	cfg.EligibleCap = 100
	cfg.MaxGenerations = 20
	hist := historyFor(codes.Code{0, 1, 1}, "AAB", "BBA")

	eng, err := NewEngine(cfg, mustSpace(t, 2, 3), testRand(2), hist)
	require.NoError(t, err)
	for {
		done, err := eng.Step()
		require.NoError(t, err)
		assert.Len(t, eng.Population(), 8)
		if done {
			break
		}
	}
	assert.True(t, eng.Eligible().Contains(codes.Code{0, 1, 1}))
}

func TestEngine_Cancellation(t *testing.T) {
	cfg := DefaultConfig()
	hist := historyFor(codes.MustParse("ABCD", 6, 4), "AABB")
	eng, err := NewEngine(cfg, mustSpace(t, 6, 4), testRand(1), hist)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := eng.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, res.Generations)
}

func TestEngine_Deterministic(t *testing.T) {
	cfg := DefaultConfig()
	space := mustSpace(t, 6, 4)
	hist := historyFor(codes.MustParse("ABCD", 6, 4), "AABB", "BCDE")

	run := func() Result {
		eng, err := NewEngine(cfg, space, testRand(42), hist)
		require.NoError(t, err)
		res, err := eng.Run(context.Background())
		require.NoError(t, err)
		return res
	}
	assert.Equal(t, run(), run())
}

func TestEngine_SpaceMismatch(t *testing.T) {
	_, err := NewEngine(DefaultConfig(), mustSpace(t, 5, 4), testRand(1), nil)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

// ------------------------------------------------------------ operators

func operatorEngine(t *testing.T, cfg Config, seed uint64) *Engine {
	t.Helper()
	eng, err := NewEngine(cfg, mustSpace(t, cfg.AlphabetSize, cfg.CodeLength), testRand(seed), nil)
	require.NoError(t, err)
	return eng
}

func TestCrossover_CutRangeAndTails(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AlphabetSize, cfg.CodeLength = 6, 6
	eng := operatorEngine(t, cfg, 11)

	a := codes.MustParse("AAAAAA", 6, 6)
	b := codes.MustParse("BBBBBB", 6, 6)
	cuts := map[int]int{}
	for i := 0; i < 500; i++ {
		c1, c2 := eng.crossover(a, b)
		require.Len(t, c1, 6)
		require.Len(t, c2, 6)

		cut := 0
		for cut < 6 && c1[cut] == a[cut] {
			cut++
		}
		require.GreaterOrEqual(t, cut, 1, "c1=%s", c1)
		require.LessOrEqual(t, cut, 4, "c1=%s", c1)
		cuts[cut]++

		assert.Equal(t, a[:cut], c1[:cut])
		assert.Equal(t, b[cut:], c1[cut:])
		assert.Equal(t, b[:cut], c2[:cut])
		assert.Equal(t, a[cut:], c2[cut:])
	}
	assert.Len(t, cuts, 4, "every cut in 1..4 should occur: %v", cuts)

	// parents are untouched
	assert.Equal(t, "AAAAAA", a.String())
	assert.Equal(t, "BBBBBB", b.String())
}

func TestCrossover_ShortCodes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AlphabetSize, cfg.CodeLength = 6, 2
	cfg.PopulationSize = 20
	eng := operatorEngine(t, cfg, 3)

	c1, c2 := eng.crossover(codes.MustParse("AB", 6, 2), codes.MustParse("CD", 6, 2))
	assert.Equal(t, "AD", c1.String())
	assert.Equal(t, "CB", c2.String())
}

func TestVary_MutationChangesExactlyOneSymbol(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MutationProb, cfg.PermutationProb, cfg.InversionProb = 1, 0, 0
	eng := operatorEngine(t, cfg, 5)

	space := mustSpace(t, 6, 4)
	for i := 0; i < 1000; i++ {
		orig := space.Random(eng.rng)
		got := eng.vary(orig.Clone())
		require.NoError(t, space.Validate(got))

		changed := 0
		for p := range orig {
			if orig[p] != got[p] {
				changed++
			}
		}
		require.Equal(t, 1, changed, "%s -> %s", orig, got)
	}
}

func TestVary_PermutationAndInversion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MutationProb, cfg.PermutationProb, cfg.InversionProb = 0, 1, 0
	eng := operatorEngine(t, cfg, 8)
	for i := 0; i < 200; i++ {
		got := eng.vary(codes.MustParse("ABCD", 6, 4))
		diff := 0
		for p, sym := range codes.MustParse("ABCD", 6, 4) {
			if got[p] != sym {
				diff++
			}
		}
		require.Equal(t, 2, diff, "permutation must swap two distinct positions, got %s", got)
	}

	cfg.PermutationProb, cfg.InversionProb = 0, 1
	eng = operatorEngine(t, cfg, 8)
	assert.Equal(t, "DCBA", eng.vary(codes.MustParse("ABCD", 6, 4)).String())

	cfg.InversionProb = 0
	eng = operatorEngine(t, cfg, 8)
	assert.Equal(t, "ABCD", eng.vary(codes.MustParse("ABCD", 6, 4)).String())
}

func TestStep_WorstTwoBreedIntoFirstSlots(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PopulationSize = 4
	cfg.MutationProb, cfg.PermutationProb, cfg.InversionProb = 0, 0, 0
	space := mustSpace(t, 6, 4)
	hist := historyFor(codes.MustParse("ABCD", 6, 4), "ABCD")

	eng, err := NewEngine(cfg, space, testRand(4), hist)
	require.NoError(t, err)

	// Fitness against the history: ABCD 0, ABCE 1, EEEE 4, FFFF 4.
	eng.pop = eng.pop[:0]
	clear(eng.present)
	for _, s := range []string{"EEEE", "ABCD", "FFFF", "ABCE"} {
		c := codes.MustParse(s, 6, 4)
		eng.pop = append(eng.pop, Candidate{Code: c})
		eng.present[space.Index(c)] = struct{}{}
	}

	done, err := eng.Step()
	require.NoError(t, err)
	require.False(t, done)

	pop := eng.Population()
	require.Len(t, pop, 4)
	c1, c2 := pop[0].Code, pop[1].Code
	for p := range c1 {
		pair := []string{c1[p:p+1].String(), c2[p:p+1].String()}
		assert.ElementsMatch(t, []string{"E", "F"}, pair, "children %s/%s at %d", c1, c2, p)
	}
	assert.ElementsMatch(t, []string{"EEEE", "FFFF"}, []string{pop[2].Code.String(), pop[3].Code.String()})
	for _, c := range pop {
		assert.NotEqual(t, "ABCD", c.Code.String(), "fittest members are replaced")
	}
	assert.True(t, eng.Eligible().Contains(codes.MustParse("ABCD", 6, 4)))
}

// ------------------------------------------------------------ selector

func TestSelectGuess_SingleMember(t *testing.T) {
	calls := 0
	counting := func(g, r codes.Code) codes.Feedback {
		calls++
		return codes.Score(g, r)
	}
	only := codes.MustParse("ABCD", 6, 4)
	got, err := SelectGuess([]codes.Code{only}, counting)
	require.NoError(t, err)
	assert.Equal(t, only, got)
	assert.Zero(t, calls)
}

func TestSelectGuess_Empty(t *testing.T) {
	_, err := SelectGuess(nil, codes.Score)
	assert.ErrorIs(t, err, ErrEmptyEligibleSet)
}

func TestSelectGuess_TieKeepsFirst(t *testing.T) {
	set := []codes.Code{codes.MustParse("AAAA", 6, 4), codes.MustParse("BBBB", 6, 4)}
	got, err := SelectGuess(set, codes.Score)
	require.NoError(t, err)
	assert.Equal(t, "AAAA", got.String())
}

func TestSelectGuess_PicksMostSplits(t *testing.T) {
	// The uniform codes all score (0,0) against each other and (1,0) against
	// ABCD, so only ABCD tells every pair of the others apart.
	set := []codes.Code{
		codes.MustParse("BBBB", 6, 4),
		codes.MustParse("CCCC", 6, 4),
		codes.MustParse("AAAA", 6, 4),
		codes.MustParse("ABCD", 6, 4),
	}
	got, err := SelectGuess(set, codes.Score)
	require.NoError(t, err)
	assert.Equal(t, "ABCD", got.String())
}

// -------------------------------------------------------------- solver

func TestStartRound_ReturnsConsistentGuess(t *testing.T) {
	cfg := DefaultConfig()
	s, err := New(cfg, testRand(11))
	require.NoError(t, err)

	secret := codes.MustParse("ABCD", 6, 4)
	hist := historyFor(secret, "AABB")
	require.Equal(t, codes.Feedback{Exact: 1, Partial: 1}, hist[0].Feedback)

	guess, err := s.StartRound(context.Background(), hist)
	require.NoError(t, err)
	cand := Candidate{Code: guess}
	cand.Evaluate(hist, Weights{A: 1, B: 2})
	assert.True(t, cand.Eligible)
}

func TestStartRound_InvalidHistory(t *testing.T) {
	s, err := New(DefaultConfig(), testRand(1))
	require.NoError(t, err)

	_, err = s.StartRound(context.Background(), []codes.GuessRecord{{Guess: codes.Code{0, 1}}})
	assert.ErrorIs(t, err, ErrInvalidHistory)

	_, err = s.StartRound(context.Background(), []codes.GuessRecord{{
		Guess:    codes.MustParse("ABCD", 6, 4),
		Feedback: codes.Feedback{Exact: 3, Partial: 2},
	}})
	assert.ErrorIs(t, err, ErrInvalidHistory)
}

func TestStartRound_NoEligible(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxGenerations = 5
	cfg.HardGenerationCeiling = 20
	s, err := New(cfg, testRand(1))
	require.NoError(t, err)

	g := codes.MustParse("ABCD", 6, 4)
	hist := []codes.GuessRecord{
		{Guess: g, Feedback: codes.Feedback{Exact: 4}},
		{Guess: g, Feedback: codes.Feedback{Partial: 4}},
	}
	_, err = s.StartRound(context.Background(), hist)
	assert.True(t, errors.Is(err, ErrNoEligibleCode))
}

func TestPlay_SolvesWithinTenRounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HardGenerationCeiling = 50000
	secrets := []string{"ABCD", "AABB", "FFFA", "CEDB", "DDDD"}

	for i, sec := range secrets {
		t.Run(sec, func(t *testing.T) {
			s, err := New(cfg, testRand(uint64(100+i)))
			require.NoError(t, err)
			oracle := &secretOracle{secret: codes.MustParse(sec, 6, 4)}

			res, err := s.Play(context.Background(), oracle, 10)
			require.NoError(t, err)
			assert.True(t, res.Won, "not solved: %v", res.History)
			assert.LessOrEqual(t, res.Rounds(), 10)
			assert.Equal(t, res.Rounds(), oracle.calls)
			assert.Equal(t, sec, res.History[len(res.History)-1].Guess.String())
		})
	}
}

func TestPlay_StopsAtMaxRounds(t *testing.T) {
	s, err := New(DefaultConfig(), testRand(3))
	require.NoError(t, err)
	oracle := &secretOracle{secret: codes.MustParse("ABCD", 6, 4)}

	res, err := s.Play(context.Background(), oracle, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Rounds())
}
