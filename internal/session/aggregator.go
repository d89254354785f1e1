package session

import "github.com/swiftquantum/qubitlab/internal/qubit"

// MeasurementAggregator accumulates classical outcomes across single-shot and
// batch measurements. Counts only ever grow until an explicit Clear.
type MeasurementAggregator struct {
	zero int
	one  int
}

// Record tallies one outcome.
func (a *MeasurementAggregator) Record(outcome int) {
	if outcome == 0 {
		a.zero++
	} else {
		a.one++
	}
}

// RecordCounts folds a batch result into the running totals.
func (a *MeasurementAggregator) RecordCounts(c qubit.Counts) {
	a.zero += c.Zero
	a.one += c.One
}

// Counts returns the running totals.
func (a *MeasurementAggregator) Counts() qubit.Counts {
	return qubit.Counts{Zero: a.zero, One: a.one}
}

// Total is the number of shots recorded since the last Clear.
func (a *MeasurementAggregator) Total() int { return a.zero + a.one }

// Frequency returns count/total for an outcome, or 0 when nothing has been
// recorded yet.
func (a *MeasurementAggregator) Frequency(outcome int) float64 {
	total := a.Total()
	if total == 0 {
		return 0
	}
	if outcome == 0 {
		return float64(a.zero) / float64(total)
	}
	return float64(a.one) / float64(total)
}

// Clear drops all recorded outcomes.
func (a *MeasurementAggregator) Clear() {
	a.zero, a.one = 0, 0
}
