// internal/codes/score.go
//
// Scoring oracle: compares a guess with a reference code and counts pegs.
//
// Pass 1:
//   - Every positional match is an exact peg; the position is consumed on
//     both sides.
//
// Pass 2:
//   - Each unconsumed guess position scans the reference left to right and
//     takes the first unconsumed position holding the same symbol (partial).
//
// The pass order fixes the behaviour for repeated symbols and must not change:
// fitness, eligibility and guess selection are all derived from it.

package codes

// Score compares guess with reference. Codes of different lengths (or longer
// than MaxLength) score as zero feedback.
func Score(guess, reference Code) Feedback {
	n := len(guess)
	var f Feedback
	if n != len(reference) || n > MaxLength {
		return f
	}

	var usedGuess, usedRef [MaxLength]bool

	// First pass: exact matches.
	for i := 0; i < n; i++ {
		if guess[i] == reference[i] {
			f.Exact++
			usedGuess[i], usedRef[i] = true, true
		}
	}

	// Second pass: first unconsumed reference match wins.
	for i := 0; i < n; i++ {
		if usedGuess[i] {
			continue
		}
		for j := 0; j < n; j++ {
			if !usedRef[j] && guess[i] == reference[j] {
				f.Partial++
				usedRef[j] = true
				break
			}
		}
	}
	return f
}
