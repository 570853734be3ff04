// Package scramble defines the contract with the external scramble
// generator and provides a local pseudo-random fallback for environments
// where no real generator is wired in.
package scramble

import (
	"fmt"
	"math/rand"
	"strings"
)

// Generator produces scrambles and preview images for an event's
// scramble-type code. Implementations are treated as pure and side-effect
// free, but possibly slow.
type Generator interface {
	// Generate returns one scramble for the given scramble-type code.
	// A length of 0 requests the generator's default for the type.
	Generate(scrambleType string, length int) string

	// PreviewImage returns display markup previewing the scrambled state.
	PreviewImage(scramble, scrambleType string) string
}

// SeedLength is the length of the random seed string handed to
// variable-shape events instead of a move scramble.
const SeedLength = 16

// Seed returns a random seed string for events that derive their own
// scrambles client-side (multi-style rounds).
func Seed() string {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	var b strings.Builder
	b.Grow(SeedLength)
	for i := 0; i < SeedLength; i++ {
		b.WriteByte(alphabet[rand.Intn(len(alphabet))])
	}
	return b.String()
}

// localGenerator is a stand-in producing plausible WCA-style move sequences.
// It exists so the service runs without the external generator; scrambles it
// emits are random-move, not random-state.
type localGenerator struct{}

// NewLocalGenerator returns the built-in fallback generator.
func NewLocalGenerator() Generator {
	return localGenerator{}
}

var moveSets = map[string][]string{
	"222so":  {"R", "U", "F"},
	"pyrso":  {"R", "U", "L", "B"},
	"skbso":  {"R", "U", "L", "B"},
	"clkwca": {"UR", "DR", "DL", "UL", "U", "R", "D", "L", "ALL"},
}

var defaultMoves = []string{"R", "L", "U", "D", "F", "B"}

var defaultLengths = map[string]int{
	"222so":  11,
	"333":    20,
	"333ni":  20,
	"333fm":  25,
	"444wca": 45,
	"444bld": 45,
	"555bld": 60,
	"pyrso":  11,
	"skbso":  11,
	"clkwca": 19,
}

func (localGenerator) Generate(scrambleType string, length int) string {
	moves, ok := moveSets[scrambleType]
	if !ok {
		moves = defaultMoves
	}
	if length <= 0 {
		length = defaultLengths[scrambleType]
		if length <= 0 {
			length = 20
		}
	}

	suffixes := []string{"", "'", "2"}
	parts := make([]string, 0, length)
	prev := -1
	for i := 0; i < length; i++ {
		m := rand.Intn(len(moves))
		for m == prev {
			m = rand.Intn(len(moves))
		}
		prev = m
		parts = append(parts, moves[m]+suffixes[rand.Intn(len(suffixes))])
	}
	return strings.Join(parts, " ")
}

func (localGenerator) PreviewImage(scramble, scrambleType string) string {
	// No local renderer; emit a marker the page layer can detect.
	return fmt.Sprintf("<!-- no preview: %s -->", scrambleType)
}
