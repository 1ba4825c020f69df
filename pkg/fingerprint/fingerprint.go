package fingerprint

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// ErrInvalidDimension is returned by New for non-positive dimensions.
var ErrInvalidDimension = errors.New("fingerprint: dimension must be positive")

// Generator produces deterministic fixed-length unit vectors from text.
//
// This is an explicit stand-in for a learned embedding model: the only
// guarantees are reproducibility (identical text yields a bit-identical
// vector on any platform, in any process) and fixed dimensionality. It makes
// no claim of semantic similarity.
type Generator struct {
	dimension int
}

// New creates a Generator emitting vectors of the given dimension.
func New(dimension int) (*Generator, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidDimension, dimension)
	}
	return &Generator{dimension: dimension}, nil
}

// Dimension returns the length of generated vectors.
func (g *Generator) Dimension() int {
	return g.dimension
}

// Fingerprint derives a unit-length vector from text. The seed comes from a
// cryptographic digest of the text, reduced modulo 2^31 so it stays inside
// the smallest seed domain any platform offers.
func (g *Generator) Fingerprint(text string) []float32 {
	digest := sha256.Sum256([]byte(text))
	seed := int64(binary.BigEndian.Uint32(digest[:4]) % (1 << 31))

	rng := rand.New(rand.NewSource(seed))
	raw := make([]float64, g.dimension)
	var sumSquares float64
	for i := range raw {
		raw[i] = rng.NormFloat64()
		sumSquares += raw[i] * raw[i]
	}

	norm := math.Sqrt(sumSquares)
	vector := make([]float32, g.dimension)
	if norm == 0 {
		// degenerate draw: fall back to a fixed basis vector so callers
		// never divide by zero downstream
		vector[0] = 1
		return vector
	}
	for i, v := range raw {
		vector[i] = float32(v / norm)
	}
	return vector
}
