// internal/codes/code.go
//
// Core value types for the Mastermind code domain.
// Defines:
//   - Symbol: one peg colour, an index into a small ordered alphabet.
//   - Code: a fixed-length sequence of symbols.
//   - Feedback: the (exact, partial) peg counts produced by Score.
//   - GuessRecord: one round of history (guess + observed feedback).
//
// Codes render as upper-case letters ("ABCD"), symbol 0 being 'A'.

package codes

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// MaxAlphabet is the largest alphabet a Code can be rendered with (A..Z).
	MaxAlphabet = 26
	// MaxLength bounds the code length so Score can work on stack arrays.
	MaxLength = 16
)

// ErrInvalidCode is returned when a code has the wrong length or a symbol
// outside the alphabet.
var ErrInvalidCode = errors.New("invalid code")

// Symbol is one value from the ordered alphabet (0-based).
type Symbol uint8

// Code is an ordered sequence of symbols. Two codes are equal iff their
// symbols match positionally.
type Code []Symbol

// Feedback is the result of scoring a guess against a reference code.
type Feedback struct {
	Exact   int `json:"exact"`   // right symbol, right position
	Partial int `json:"partial"` // right symbol, wrong position
}

// GuessRecord is one immutable entry of the guess history.
type GuessRecord struct {
	Guess    Code     `json:"guess"`
	Feedback Feedback `json:"feedback"`
}

// Equal reports whether c and o hold the same symbols in the same order.
func (c Code) Equal(o Code) bool {
	if len(c) != len(o) {
		return false
	}
	for i := range c {
		if c[i] != o[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of c.
func (c Code) Clone() Code {
	out := make(Code, len(c))
	copy(out, c)
	return out
}

// Key returns a compact string usable as a map key.
func (c Code) Key() string {
	b := make([]byte, len(c))
	for i, s := range c {
		b[i] = byte(s)
	}
	return string(b)
}

// String renders the code as letters, e.g. "ABCD".
func (c Code) String() string {
	var sb strings.Builder
	sb.Grow(len(c))
	for _, s := range c {
		sb.WriteByte('A' + byte(s))
	}
	return sb.String()
}

// MarshalText renders the code as letters so JSON payloads stay readable.
func (c Code) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText accepts letters A..Z (case-insensitive). Alphabet and length
// are not known here; callers validate with Validate.
func (c *Code) UnmarshalText(b []byte) error {
	out := make(Code, 0, len(b))
	for _, r := range strings.ToUpper(strings.TrimSpace(string(b))) {
		if r < 'A' || r > 'Z' {
			return fmt.Errorf("%w: %q is not a letter", ErrInvalidCode, r)
		}
		out = append(out, Symbol(r-'A'))
	}
	*c = out
	return nil
}

// Validate checks that c has exactly length symbols, all below alphabet.
func (c Code) Validate(alphabet, length int) error {
	if len(c) != length {
		return fmt.Errorf("%w: length %d, want %d", ErrInvalidCode, len(c), length)
	}
	for i, s := range c {
		if int(s) >= alphabet {
			return fmt.Errorf("%w: symbol %c at position %d outside alphabet of %d", ErrInvalidCode, 'A'+byte(s), i, alphabet)
		}
	}
	return nil
}

// Parse reads a letter code ("abcd" or "ABCD") and validates it.
func Parse(s string, alphabet, length int) (Code, error) {
	var c Code
	if err := c.UnmarshalText([]byte(s)); err != nil {
		return nil, err
	}
	if err := c.Validate(alphabet, length); err != nil {
		return nil, err
	}
	return c, nil
}

// MustParse is Parse for literals in tests and fixtures; it panics on error.
func MustParse(s string, alphabet, length int) Code {
	c, err := Parse(s, alphabet, length)
	if err != nil {
		panic(err)
	}
	return c
}

// Won reports whether f is a full set of exact matches for codes of length n.
func (f Feedback) Won(n int) bool { return f.Exact == n }

// Valid reports whether f is a possible feedback for codes of length n.
func (f Feedback) Valid(n int) bool {
	return f.Exact >= 0 && f.Partial >= 0 && f.Exact+f.Partial <= n
}

func (f Feedback) String() string {
	return fmt.Sprintf("(%d,%d)", f.Exact, f.Partial)
}
