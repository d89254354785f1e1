package demo

import (
	"strings"

	"github.com/swiftquantum/qubitlab/internal/qubit"
)

// Qubit-count bounds for the demo sampler; large registers would only blow up
// the frequency map for a marketing widget.
const (
	minQubits = 1
	maxQubits = 8
)

// SampleCircuit produces `shots` uniformly random n-bit strings aggregated
// into a frequency map. This is deliberately not a quantum simulation: the
// hub's circuit cards only need plausible-looking histograms, so every
// bitstring is equally likely regardless of the chosen template.
func SampleCircuit(src qubit.Source, qubits, shots int) map[string]int {
	if qubits < minQubits {
		qubits = minQubits
	} else if qubits > maxQubits {
		qubits = maxQubits
	}

	counts := make(map[string]int)
	if shots <= 0 {
		return counts
	}

	states := 1 << qubits
	for i := 0; i < shots; i++ {
		idx := int(src.Float64() * float64(states))
		if idx >= states {
			idx = states - 1
		}
		counts[bitstring(idx, qubits)]++
	}
	return counts
}

func bitstring(value, width int) string {
	var b strings.Builder
	for i := width - 1; i >= 0; i-- {
		if value&(1<<i) != 0 {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}
