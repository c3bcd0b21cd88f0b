// internal/codes/space.go
//
// The Code Space: every alphabet^length code in lexicographic order.
// A Space is built once per (alphabet, length) and is read-only afterwards,
// so it can be shared by any number of goroutines without locking.

package codes

import (
	"fmt"
	"math/rand/v2"
	"sync"
)

// MaxSpaceSize bounds how many codes a Space may enumerate.
const MaxSpaceSize = 1 << 20

// Space is the enumerated universe of codes for one alphabet and length.
type Space struct {
	alphabet int
	length   int
	codes    []Code
}

var (
	cacheMu sync.Mutex
	cache   = make(map[[2]int]*Space)
)

// Enumerate lists every code over alphabet symbols of the given length in
// lexicographic order. It is pure and performs no caching.
func Enumerate(alphabet, length int) []Code {
	total := 1
	for i := 0; i < length; i++ {
		total *= alphabet
	}
	out := make([]Code, total)
	for idx := 0; idx < total; idx++ {
		c := make(Code, length)
		rem := idx
		for pos := length - 1; pos >= 0; pos-- {
			c[pos] = Symbol(rem % alphabet)
			rem /= alphabet
		}
		out[idx] = c
	}
	return out
}

// SpaceSize returns alphabet^length, or -1 if it exceeds MaxSpaceSize.
func SpaceSize(alphabet, length int) int {
	total := 1
	for i := 0; i < length; i++ {
		total *= alphabet
		if total > MaxSpaceSize {
			return -1
		}
	}
	return total
}

// NewSpace returns the cached Space for (alphabet, length), building it on
// first use.
func NewSpace(alphabet, length int) (*Space, error) {
	if alphabet <= 0 || alphabet > MaxAlphabet {
		return nil, fmt.Errorf("alphabet size %d outside 1..%d", alphabet, MaxAlphabet)
	}
	if length <= 0 || length > MaxLength {
		return nil, fmt.Errorf("code length %d outside 1..%d", length, MaxLength)
	}
	if SpaceSize(alphabet, length) < 0 {
		return nil, fmt.Errorf("code space %d^%d exceeds %d codes", alphabet, length, MaxSpaceSize)
	}

	key := [2]int{alphabet, length}
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if s, ok := cache[key]; ok {
		return s, nil
	}
	s := &Space{alphabet: alphabet, length: length, codes: Enumerate(alphabet, length)}
	cache[key] = s
	return s, nil
}

// Alphabet returns the number of symbols.
func (s *Space) Alphabet() int { return s.alphabet }

// Length returns the code length.
func (s *Space) Length() int { return s.length }

// Len returns the number of codes in the space.
func (s *Space) Len() int { return len(s.codes) }

// At returns the code at index i. The returned slice is shared; do not modify.
func (s *Space) At(i int) Code { return s.codes[i] }

// Index returns the lexicographic index of c, or -1 if c does not belong to
// this space.
func (s *Space) Index(c Code) int {
	if len(c) != s.length {
		return -1
	}
	idx := 0
	for _, sym := range c {
		if int(sym) >= s.alphabet {
			return -1
		}
		idx = idx*s.alphabet + int(sym)
	}
	return idx
}

// Validate checks that c belongs to this space.
func (s *Space) Validate(c Code) error { return c.Validate(s.alphabet, s.length) }

// Parse reads a letter code for this space.
func (s *Space) Parse(str string) (Code, error) { return Parse(str, s.alphabet, s.length) }

// Random returns a uniformly chosen code (a fresh copy).
func (s *Space) Random(r *rand.Rand) Code {
	return s.codes[r.IntN(len(s.codes))].Clone()
}
