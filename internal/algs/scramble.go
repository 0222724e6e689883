// Package algs generates WCA-style scrambles and looks up named OLL/PLL
// algorithms. Grounded
// on stdlib math/rand (SPEC_FULL.md §4.9: no example repo in the pack ships
// a cube-move-notation library, so this is a case where the teacher's
// corpus has nothing domain-specific to reuse and the standard library is
// the right tool).
package algs

import (
	"math/rand"
	"strings"
)

// Face is one of the six cube faces in standard WCA notation.
type Face int

const (
	U Face = iota
	D
	L
	R
	F
	B
)

func (f Face) String() string {
	return [...]string{"U", "D", "L", "R", "F", "B"}[f]
}

// opposite reports the face on the opposite side, moves on which do not
// need to avoid adjacency per WCA scrambling conventions (e.g. U then D is
// fine, but U then U' or U2 is redundant).
func opposite(f Face) Face {
	return [...]Face{D, U, R, L, B, F}[f]
}

var suffixes = []string{"", "'", "2"}

// Generator produces WCA-length random-state-ish scrambles. It is not a
// true random-state scrambler (that needs a full cube solver); it instead
// follows the common simplified algorithm of picking random faces while
// forbidding immediate repeats and a face that returns right after its
// opposite (U D U); a plain opposite pair such as U D is allowed. This is
// sufficient for practice scrambles.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator seeds a Generator. Pass a seed derived from real entropy
// (e.g. time.Now().UnixNano(), stamped by the caller since this package's
// functions must stay deterministic-by-injection) for production use, or a
// fixed seed in tests.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Scramble returns a space-separated move sequence of length moveCount
// (20 is the common default for 3x3).
func (g *Generator) Scramble(moveCount int) string {
	moves := make([]string, 0, moveCount)
	var last, secondLast Face
	haveLast, haveSecondLast := false, false

	for len(moves) < moveCount {
		f := Face(g.rng.Intn(6))
		if haveLast && f == last {
			continue
		}
		if haveSecondLast && f == opposite(last) && last == secondLast {
			continue
		}
		if haveLast && haveSecondLast && f == secondLast && opposite(f) == last {
			continue
		}
		suffix := suffixes[g.rng.Intn(len(suffixes))]
		moves = append(moves, f.String()+suffix)
		secondLast, haveSecondLast = last, haveLast
		last, haveLast = f, true
	}
	return strings.Join(moves, " ")
}

// MoveCount returns the conventional scramble length for a named event, or
// 20 for unrecognized events.
func MoveCount(event string) int {
	switch event {
	case "2x2":
		return 9
	case "3x3", "OH", "3x3OH":
		return 20
	case "4x4":
		return 40
	default:
		return 20
	}
}
