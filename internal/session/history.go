package session

import (
	"time"

	"github.com/google/uuid"
)

// HistoryCapacity is how many demo runs the hub screen keeps around.
const HistoryCapacity = 5

// CircuitRunRecord is one demo circuit execution kept for the recent-runs list.
type CircuitRunRecord struct {
	ID        string         `json:"id"`
	Template  string         `json:"template"`
	Timestamp time.Time      `json:"timestamp"`
	Shots     int            `json:"shots"`
	Counts    map[string]int `json:"counts"`
}

// NewCircuitRunRecord stamps a run with an ID and the current time.
func NewCircuitRunRecord(template string, shots int, counts map[string]int) CircuitRunRecord {
	return CircuitRunRecord{
		ID:        uuid.NewString(),
		Template:  template,
		Timestamp: time.Now().UTC(),
		Shots:     shots,
		Counts:    counts,
	}
}

// RunHistory is a fixed-capacity FIFO of recent circuit runs; the oldest entry
// is evicted when a sixth run arrives.
type RunHistory struct {
	capacity int
	runs     []CircuitRunRecord
}

// NewRunHistory returns an empty history with the given capacity; capacity
// values below 1 fall back to HistoryCapacity.
func NewRunHistory(capacity int) *RunHistory {
	if capacity < 1 {
		capacity = HistoryCapacity
	}
	return &RunHistory{capacity: capacity}
}

// Add appends a run, evicting the oldest when over capacity.
func (h *RunHistory) Add(rec CircuitRunRecord) {
	h.runs = append(h.runs, rec)
	if len(h.runs) > h.capacity {
		h.runs = h.runs[len(h.runs)-h.capacity:]
	}
}

// Recent returns runs newest first.
func (h *RunHistory) Recent() []CircuitRunRecord {
	out := make([]CircuitRunRecord, len(h.runs))
	for i, r := range h.runs {
		out[len(h.runs)-1-i] = r
	}
	return out
}

// Len is the number of retained runs.
func (h *RunHistory) Len() int { return len(h.runs) }

// Latest returns the most recent run, if any.
func (h *RunHistory) Latest() (CircuitRunRecord, bool) {
	if len(h.runs) == 0 {
		return CircuitRunRecord{}, false
	}
	return h.runs[len(h.runs)-1], true
}
