package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu           sync.Mutex
	requestCount map[string]int64
	errorCount   map[string]int64
	latencyTotal map[string]time.Duration

	autoAssignRuns      int64
	assignmentsCreated  int64
	ticketsSkipped      int64
	predictionsServed   int64
	workSessionsStarted int64
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Requests            map[string]int64 `json:"requests"`
	Errors              map[string]int64 `json:"errors"`
	AvgLatencyMillis    map[string]int64 `json:"avg_latency_ms"`
	AutoAssignRuns      int64            `json:"auto_assign_runs"`
	AssignmentsCreated  int64            `json:"assignments_created"`
	TicketsSkipped      int64            `json:"tickets_skipped"`
	PredictionsServed   int64            `json:"predictions_served"`
	WorkSessionsStarted int64            `json:"work_sessions_started"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
		latencyTotal: make(map[string]time.Duration),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.latencyTotal[key] += duration
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordAutoAssign counts one scheduler run and its outcome.
func (m *Metrics) RecordAutoAssign(created, skipped int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.autoAssignRuns++
	m.assignmentsCreated += int64(created)
	m.ticketsSkipped += int64(skipped)
}

// RecordManualAssignment counts an assignment made by hand.
func (m *Metrics) RecordManualAssignment() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assignmentsCreated++
}

// RecordPrediction counts a served prediction.
func (m *Metrics) RecordPrediction() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictionsServed++
}

// RecordWorkStarted counts a started work session.
func (m *Metrics) RecordWorkStarted() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workSessionsStarted++
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := Snapshot{
		Requests:            make(map[string]int64, len(m.requestCount)),
		Errors:              make(map[string]int64, len(m.errorCount)),
		AvgLatencyMillis:    make(map[string]int64, len(m.latencyTotal)),
		AutoAssignRuns:      m.autoAssignRuns,
		AssignmentsCreated:  m.assignmentsCreated,
		TicketsSkipped:      m.ticketsSkipped,
		PredictionsServed:   m.predictionsServed,
		WorkSessionsStarted: m.workSessionsStarted,
	}
	for k, v := range m.requestCount {
		snap.Requests[k] = v
		if v > 0 {
			snap.AvgLatencyMillis[k] = (m.latencyTotal[k] / time.Duration(v)).Milliseconds()
		}
	}
	for k, v := range m.errorCount {
		snap.Errors[k] = v
	}
	return snap
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
