package solver

import (
	"errors"

	"github.com/robalobadob/mastermind/internal/codes"
)

// ErrEmptyEligibleSet is returned by SelectGuess when there is nothing to
// choose from.
var ErrEmptyEligibleSet = errors.New("eligible set is empty")

// ScoreFunc scores a guess against a reference code.
type ScoreFunc func(guess, reference codes.Code) codes.Feedback

// SelectGuess picks the member of set that best splits the others.
//
// For a guess g, every other member r is scored as the reference against g
// and against every third member k; each k whose feedback differs from
// score(g, r) counts as a split. The member with the most splits wins; ties
// keep the earliest member. A single-member set is returned as is.
func SelectGuess(set []codes.Code, score ScoreFunc) (codes.Code, error) {
	switch len(set) {
	case 0:
		return nil, ErrEmptyEligibleSet
	case 1:
		return set[0], nil
	}

	// score(k, r) does not depend on g, so compute the pair table once.
	n := len(set)
	table := make([][]codes.Feedback, n)
	for k := range set {
		table[k] = make([]codes.Feedback, n)
		for r := range set {
			if k != r {
				table[k][r] = score(set[k], set[r])
			}
		}
	}

	best, bestSplits := 0, -1
	for g := 0; g < n; g++ {
		splits := 0
		for r := 0; r < n; r++ {
			if r == g {
				continue
			}
			base := table[g][r]
			for k := 0; k < n; k++ {
				if k == g || k == r {
					continue
				}
				if table[k][r] != base {
					splits++
				}
			}
		}
		if splits > bestSplits {
			best, bestSplits = g, splits
		}
	}
	return set[best], nil
}
