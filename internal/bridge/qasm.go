package bridge

import (
	"fmt"
	"math"
	"strings"
)

// BellStateQASM emits an OpenQASM 3 Bell-state circuit transpiled for Heron
// native gates (cz, sx, rz): H decomposes to Rz(π/2)·SX·Rz(π/2), and CX to
// H(target)·CZ·H(target).
func BellStateQASM(registerSize int) string {
	if registerSize < 2 {
		registerSize = 2
	}
	halfPi := math.Pi / 2

	var b strings.Builder
	fmt.Fprintf(&b, "OPENQASM 3.0;\n")
	fmt.Fprintf(&b, "include \"stdgates.inc\";\n")
	fmt.Fprintf(&b, "qubit[%d] q;\n", registerSize)
	fmt.Fprintf(&b, "bit[2] c;\n\n")

	writeH := func(q int) {
		fmt.Fprintf(&b, "rz(%g) q[%d];\n", halfPi, q)
		fmt.Fprintf(&b, "sx q[%d];\n", q)
		fmt.Fprintf(&b, "rz(%g) q[%d];\n", halfPi, q)
	}

	writeH(0)
	writeH(1)
	fmt.Fprintf(&b, "cz q[0], q[1];\n")
	writeH(1)

	fmt.Fprintf(&b, "\nc[0] = measure q[0];\n")
	fmt.Fprintf(&b, "c[1] = measure q[1];\n")
	return b.String()
}
