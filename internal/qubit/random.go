package qubit

import (
	"math/rand"
	"time"
)

// Source yields uniform draws in [0, 1). Measurement code takes it as a
// parameter so tests can pin the sequence with a fixed seed.
type Source interface {
	Float64() float64
}

// NewSeededSource returns a deterministic source for a given seed.
func NewSeededSource(seed int64) Source {
	return rand.New(rand.NewSource(seed))
}

// NewSource returns a time-seeded source for interactive use.
func NewSource() Source {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
