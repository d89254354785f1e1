package qubit

import (
	"fmt"
	"math"
	"math/cmplx"
)

// State is a single-qubit pure state. The two complex amplitudes are kept
// internally so that gates act on the full state vector; externally the state
// is described by the probability of measuring |0⟩ and the relative phase of
// the |1⟩ amplitude, which is all the UI layer ever sees.
type State struct {
	alpha complex128 // amplitude of |0⟩
	beta  complex128 // amplitude of |1⟩
}

// New returns a qubit in the |0⟩ basis state.
func New() *State {
	return &State{alpha: 1, beta: 0}
}

// normalize removes the global phase (alpha is kept real and non-negative)
// and renormalizes against accumulated floating-point drift.
func (s *State) normalize() {
	norm := math.Sqrt(real(s.alpha)*real(s.alpha) + imag(s.alpha)*imag(s.alpha) +
		real(s.beta)*real(s.beta) + imag(s.beta)*imag(s.beta))
	if norm == 0 {
		s.alpha, s.beta = 1, 0
		return
	}
	s.alpha /= complex(norm, 0)
	s.beta /= complex(norm, 0)

	if cmplx.Abs(s.alpha) > 1e-12 {
		phase := cmplx.Exp(complex(0, -cmplx.Phase(s.alpha)))
		s.alpha *= phase
		s.beta *= phase
	} else if cmplx.Abs(s.beta) > 1e-12 {
		phase := cmplx.Exp(complex(0, -cmplx.Phase(s.beta)))
		s.alpha = 0
		s.beta *= phase
	}
}

// Probability0 is |α|², the chance of measuring outcome 0.
func (s *State) Probability0() float64 {
	p := real(s.alpha)*real(s.alpha) + imag(s.alpha)*imag(s.alpha)
	return clamp01(p)
}

// Phase is the relative phase of the |1⟩ amplitude in (−π, π]. When either
// amplitude vanishes the relative phase is unobservable and reported as 0.
func (s *State) Phase() float64 {
	if cmplx.Abs(s.alpha) < 1e-12 || cmplx.Abs(s.beta) < 1e-12 {
		return 0
	}
	return normalizePhase(cmplx.Phase(s.beta * cmplx.Conj(s.alpha)))
}

// Update sets the state from slider-style inputs. Out-of-range probability is
// clamped rather than rejected; phase is folded into (−π, π].
func (s *State) Update(probability0, phase float64) {
	p := clamp01(probability0)
	phase = normalizePhase(phase)
	s.alpha = complex(math.Sqrt(p), 0)
	s.beta = cmplx.Exp(complex(0, phase)) * complex(math.Sqrt(1-p), 0)
}

// Reset returns the qubit to |0⟩.
func (s *State) Reset() {
	s.alpha, s.beta = 1, 0
}

// Collapse forces the qubit into the basis state matching a measurement
// outcome.
func (s *State) Collapse(outcome int) {
	if outcome == 0 {
		s.alpha, s.beta = 1, 0
	} else {
		s.alpha, s.beta = 0, 1
	}
}

// ApplyHadamard maps |0⟩→(|0⟩+|1⟩)/√2 and |1⟩→(|0⟩−|1⟩)/√2. The transform
// runs on the complex amplitudes: the relative phase feeds into the resulting
// probabilities, so this cannot be computed from Probability0 alone.
func (s *State) ApplyHadamard() {
	f := complex(1/math.Sqrt2, 0)
	a, b := s.alpha, s.beta
	s.alpha = f * (a + b)
	s.beta = f * (a - b)
	s.normalize()
}

// ApplyPauliX swaps the two amplitudes (bit flip).
func (s *State) ApplyPauliX() {
	s.alpha, s.beta = s.beta, s.alpha
	s.normalize()
}

// ApplyPauliY applies Y|0⟩=i|1⟩, Y|1⟩=−i|0⟩: a bit flip plus a ±π/2 phase.
func (s *State) ApplyPauliY() {
	a, b := s.alpha, s.beta
	s.alpha = -1i * b
	s.beta = 1i * a
	s.normalize()
}

// ApplyPauliZ leaves probabilities untouched and shifts the relative phase
// by π.
func (s *State) ApplyPauliZ() {
	s.beta = -s.beta
	s.normalize()
}

// Measure draws one Bernoulli(Probability0) sample. Collapse is left to the
// caller: a single projective shot collapses the state, a batch sample does
// not.
func (s *State) Measure(src Source) int {
	if src.Float64() < s.Probability0() {
		return 0
	}
	return 1
}

// Counts holds classical outcome tallies from a batch measurement.
type Counts struct {
	Zero int `json:"zero"`
	One  int `json:"one"`
}

// Total is the number of shots the counts represent.
func (c Counts) Total() int { return c.Zero + c.One }

// MeasureMany draws n independent samples from the current distribution
// without disturbing the live state. n <= 0 yields zero counts.
func (s *State) MeasureMany(src Source, n int) Counts {
	var c Counts
	if n <= 0 {
		return c
	}
	p := s.Probability0()
	for i := 0; i < n; i++ {
		if src.Float64() < p {
			c.Zero++
		} else {
			c.One++
		}
	}
	return c
}

// Bloch returns the Bloch-sphere coordinates of the state. For a pure state
// the vector has unit length.
func (s *State) Bloch() (x, y, z float64) {
	p := s.Probability0()
	phase := s.Phase()
	r := 2 * math.Sqrt(p) * math.Sqrt(1-p)
	return r * math.Cos(phase), r * math.Sin(phase), 2*p - 1
}

// Entropy is the binary entropy of the measurement distribution in bits:
// 0 at p ∈ {0, 1}, 1 at p = 0.5.
func (s *State) Entropy() float64 {
	p := s.Probability0()
	if p <= 0 || p >= 1 {
		return 0
	}
	return -p*math.Log2(p) - (1-p)*math.Log2(1-p)
}

// Ket renders the state in Dirac notation for display.
func (s *State) Ket() string {
	p := s.Probability0()
	a := math.Sqrt(p)
	b := math.Sqrt(1 - p)
	phase := s.Phase()

	switch {
	case b < 1e-6:
		return "|0⟩"
	case a < 1e-6:
		return "|1⟩"
	case math.Abs(phase) < 1e-6:
		return fmt.Sprintf("%.3f|0⟩ + %.3f|1⟩", a, b)
	default:
		return fmt.Sprintf("%.3f|0⟩ + %.3fe^(i%.3f)|1⟩", a, b, phase)
	}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// normalizePhase folds an angle into (−π, π].
func normalizePhase(phase float64) float64 {
	phase = math.Mod(phase, 2*math.Pi)
	if phase > math.Pi {
		phase -= 2 * math.Pi
	} else if phase <= -math.Pi {
		phase += 2 * math.Pi
	}
	return phase
}
