package dispatcher

import (
	"sync"
	"time"

	"github.com/technocoreai/extcmd/internal/dispatcher/handler"
)

// Metrics collects dispatch statistics.
type Metrics struct {
	mu sync.RWMutex

	actionMetrics map[string]*ActionMetrics

	totalDispatches uint64
	totalErrors     uint64
	totalPanics     uint64
	totalDuration   time.Duration
}

// ActionMetrics holds metrics for a specific action.
type ActionMetrics struct {
	Name          string
	DispatchCount uint64
	ErrorCount    uint64
	// StatusCounts counts results by status.
	StatusCounts  map[handler.ResultStatus]uint64
	TotalDuration time.Duration
	MaxDuration   time.Duration
	LastStatus    handler.ResultStatus
	LastDispatch  time.Time
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		actionMetrics: make(map[string]*ActionMetrics),
	}
}

// RecordDispatch records a dispatch event.
func (m *Metrics) RecordDispatch(actionName string, duration time.Duration, status handler.ResultStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalDispatches++
	m.totalDuration += duration
	if status == handler.StatusError {
		m.totalErrors++
	}

	am := m.action(actionName)
	am.DispatchCount++
	am.StatusCounts[status]++
	am.TotalDuration += duration
	am.MaxDuration = max(am.MaxDuration, duration)
	am.LastStatus = status
	am.LastDispatch = time.Now()
	if status == handler.StatusError {
		am.ErrorCount++
	}
}

// RecordPanic records a panic recovery.
func (m *Metrics) RecordPanic(actionName string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalPanics++
	m.action(actionName).ErrorCount++
}

func (m *Metrics) action(name string) *ActionMetrics {
	am := m.actionMetrics[name]
	if am == nil {
		am = &ActionMetrics{Name: name, StatusCounts: make(map[handler.ResultStatus]uint64)}
		m.actionMetrics[name] = am
	}
	return am
}

// ActionStats returns a copy of the metrics of one action, or nil.
func (m *Metrics) ActionStats(actionName string) *ActionMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	am := m.actionMetrics[actionName]
	if am == nil {
		return nil
	}
	cp := *am
	cp.StatusCounts = make(map[handler.ResultStatus]uint64, len(am.StatusCounts))
	for k, v := range am.StatusCounts {
		cp.StatusCounts[k] = v
	}
	return &cp
}

// MetricsSnapshot is a point-in-time copy of the global counters.
type MetricsSnapshot struct {
	TotalDispatches uint64
	TotalErrors     uint64
	TotalPanics     uint64
	TotalDuration   time.Duration
	AverageDuration time.Duration
	ActionCount     int
	Timestamp       time.Time
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := MetricsSnapshot{
		TotalDispatches: m.totalDispatches,
		TotalErrors:     m.totalErrors,
		TotalPanics:     m.totalPanics,
		TotalDuration:   m.totalDuration,
		ActionCount:     len(m.actionMetrics),
		Timestamp:       time.Now(),
	}
	if m.totalDispatches > 0 {
		snapshot.AverageDuration = m.totalDuration / time.Duration(m.totalDispatches)
	}
	return snapshot
}
