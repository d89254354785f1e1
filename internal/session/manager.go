package session

import (
	"sync"

	"go.uber.org/zap"

	"github.com/swiftquantum/qubitlab/internal/qubit"
)

// Gate names the single-qubit operations the hub controls expose.
type Gate string

const (
	GateHadamard Gate = "H"
	GatePauliX   Gate = "X"
	GatePauliY   Gate = "Y"
	GatePauliZ   Gate = "Z"
)

// Snapshot is the derived view of the live state republished after every
// mutation. All fields are closed-form functions of (probability0, phase).
type Snapshot struct {
	Probability0 float64      `json:"probability0"`
	Probability1 float64      `json:"probability1"`
	Phase        float64      `json:"phase"`
	BlochX       float64      `json:"blochX"`
	BlochY       float64      `json:"blochY"`
	BlochZ       float64      `json:"blochZ"`
	Entropy      float64      `json:"entropy"`
	Ket          string       `json:"ket"`
	Counts       qubit.Counts `json:"counts"`
	Frequency0   float64      `json:"frequency0"`
	Frequency1   float64      `json:"frequency1"`
}

// StateManager is the single owner of a live qubit. Every mutation funnels
// through it under one mutex, so no partial update is ever observable and
// concurrent gate presses cannot race. Subscribers get a fresh snapshot after
// each change.
type StateManager struct {
	mu    sync.Mutex
	state *qubit.State
	stats MeasurementAggregator
	src   qubit.Source
	log   *zap.Logger

	nextSubID int
	subs      map[int]func(Snapshot)
}

// NewStateManager starts a session in |0⟩ with the given random source.
func NewStateManager(src qubit.Source, log *zap.Logger) *StateManager {
	if src == nil {
		src = qubit.NewSource()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &StateManager{
		state: qubit.New(),
		src:   src,
		log:   log,
		subs:  make(map[int]func(Snapshot)),
	}
}

// Subscribe registers a snapshot callback and returns its unsubscribe func.
// Callbacks run synchronously inside the mutating call, after the state has
// settled.
func (m *StateManager) Subscribe(fn func(Snapshot)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSubID
	m.nextSubID++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// ApplyGate applies a named gate to the live state.
func (m *StateManager) ApplyGate(g Gate) Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch g {
	case GateHadamard:
		m.state.ApplyHadamard()
	case GatePauliX:
		m.state.ApplyPauliX()
	case GatePauliY:
		m.state.ApplyPauliY()
	case GatePauliZ:
		m.state.ApplyPauliZ()
	default:
		m.log.Warn("Unknown gate ignored", zap.String("gate", string(g)))
	}
	return m.publishLocked()
}

// UpdateState sets probability and phase directly (slider input). Values are
// clamped/normalized, never rejected.
func (m *StateManager) UpdateState(probability0, phase float64) Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Update(probability0, phase)
	return m.publishLocked()
}

// Measure performs one projective shot: the outcome is recorded and the live
// state collapses to the matching basis state.
func (m *StateManager) Measure() (int, Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	outcome := m.state.Measure(m.src)
	m.stats.Record(outcome)
	m.state.Collapse(outcome)
	return outcome, m.publishLocked()
}

// MeasureBatch samples n shots from the current distribution. Unlike Measure
// it leaves the live state untouched; it only feeds the statistics.
func (m *StateManager) MeasureBatch(n int) (qubit.Counts, Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := m.state.MeasureMany(m.src, n)
	m.stats.RecordCounts(counts)
	return counts, m.publishLocked()
}

// Reset returns the qubit to |0⟩. Accumulated statistics are kept.
func (m *StateManager) Reset() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Reset()
	return m.publishLocked()
}

// ClearStats drops the accumulated measurement counts.
func (m *StateManager) ClearStats() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.Clear()
	return m.publishLocked()
}

// Snapshot returns the current derived view without mutating anything.
func (m *StateManager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *StateManager) snapshotLocked() Snapshot {
	p := m.state.Probability0()
	x, y, z := m.state.Bloch()
	return Snapshot{
		Probability0: p,
		Probability1: 1 - p,
		Phase:        m.state.Phase(),
		BlochX:       x,
		BlochY:       y,
		BlochZ:       z,
		Entropy:      m.state.Entropy(),
		Ket:          m.state.Ket(),
		Counts:       m.stats.Counts(),
		Frequency0:   m.stats.Frequency(0),
		Frequency1:   m.stats.Frequency(1),
	}
}

func (m *StateManager) publishLocked() Snapshot {
	snap := m.snapshotLocked()
	for _, fn := range m.subs {
		fn(snap)
	}
	return snap
}
