// Package slug generates and validates the short identifiers of links and
// checks the destination URLs they point to.
package slug

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Alphabet is the set of symbols generated slugs are drawn from.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// DefaultLength is the length of generated slugs.
const DefaultLength = 6

// Generator produces random fixed-length slugs. It is safe for concurrent use.
//
// Generated slugs are not guaranteed to be unique; callers must handle collisions
// reported by the store.
type Generator struct {
	length int
}

// NewGenerator returns a Generator producing slugs of the given length.
// Non-positive lengths fall back to DefaultLength.
func NewGenerator(length int) *Generator {
	if length <= 0 {
		length = DefaultLength
	}

	return &Generator{length: length}
}

// Generate returns a new slug drawn uniformly from Alphabet.
func (g *Generator) Generate() (string, error) {
	const op = "slug.Generator.Generate"

	s, err := gonanoid.Generate(Alphabet, g.length)
	if err != nil {
		return "", fmt.Errorf("%s: failed to generate slug: %w", op, err)
	}

	return s, nil
}
