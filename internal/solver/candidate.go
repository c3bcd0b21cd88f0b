package solver

import "github.com/robalobadob/mastermind/internal/codes"

// Candidate is a code plus the fitness state derived from the history.
// Fitness is lower for codes closer to consistency; Eligible is true iff the
// code reproduces every recorded feedback exactly.
type Candidate struct {
	Code     codes.Code
	Fitness  int
	Eligible bool
}

// Weights are the fitness coefficients.
type Weights struct {
	A int // exact-peg difference weight
	B int // history index term weight
}

// Evaluate recomputes Fitness and Eligible against history.
//
// For every entry i the recorded guess is scored as if c were the secret;
// the absolute exact and partial differences are summed. The
// B*length*(0+1+...+(len(history)-1)) term is the same for every candidate
// of a round and never reorders a generation.
func (c *Candidate) Evaluate(history []codes.GuessRecord, w Weights) {
	exactDiff, partialDiff, indexSum := 0, 0, 0
	for i, rec := range history {
		got := codes.Score(rec.Guess, c.Code)
		exactDiff += abs(got.Exact - rec.Feedback.Exact)
		partialDiff += abs(got.Partial - rec.Feedback.Partial)
		indexSum += i
	}
	c.Eligible = exactDiff == 0 && partialDiff == 0
	c.Fitness = w.A*exactDiff + partialDiff + w.B*len(c.Code)*indexSum
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
