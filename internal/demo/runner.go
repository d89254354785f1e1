package demo

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/swiftquantum/qubitlab/internal/qubit"
	"github.com/swiftquantum/qubitlab/internal/session"
)

// DefaultInterval matches the hub's continuous-mode rerun cadence.
const DefaultInterval = 30 * time.Second

// Runner re-executes the most recently configured demo circuit on a fixed
// interval while continuous mode is on. Each iteration is trivial and
// independent, so there is no overlap protection beyond the ticker itself.
type Runner struct {
	log      *zap.Logger
	src      qubit.Source
	interval time.Duration

	mu       sync.Mutex
	template string
	qubits   int
	shots    int
	history  *session.RunHistory
	stop     chan struct{}
}

// NewRunner creates a stopped runner recording into a fresh history.
func NewRunner(log *zap.Logger, src qubit.Source, interval time.Duration) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	if src == nil {
		src = qubit.NewSource()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Runner{
		log:      log,
		src:      src,
		interval: interval,
		history:  session.NewRunHistory(session.HistoryCapacity),
	}
}

// Run executes the named template once and records it in the history.
func (r *Runner) Run(template string, qubits, shots int) session.CircuitRunRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.template, r.qubits, r.shots = template, qubits, shots
	return r.runLocked()
}

func (r *Runner) runLocked() session.CircuitRunRecord {
	counts := SampleCircuit(r.src, r.qubits, r.shots)
	rec := session.NewCircuitRunRecord(r.template, r.shots, counts)
	r.history.Add(rec)
	r.log.Debug("Demo circuit executed",
		zap.String("template", r.template),
		zap.Int("qubits", r.qubits),
		zap.Int("shots", r.shots),
	)
	return rec
}

// Start begins continuous mode: the last configured template is re-run every
// interval until Stop. Starting an already running runner is a no-op.
func (r *Runner) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stop != nil {
		return
	}
	stop := make(chan struct{})
	r.stop = stop
	r.log.Info("Starting continuous demo mode", zap.Duration("interval", r.interval))

	go func() {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.tick()
			case <-stop:
				return
			}
		}
	}()
}

func (r *Runner) tick() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.template == "" {
		return
	}
	r.runLocked()
}

// Stop ends continuous mode. Safe to call when not running.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stop == nil {
		return
	}
	close(r.stop)
	r.stop = nil
	r.log.Info("Continuous demo mode stopped")
}

// Running reports whether continuous mode is active.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stop != nil
}

// Recent lists retained runs, newest first.
func (r *Runner) Recent() []session.CircuitRunRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.history.Recent()
}
