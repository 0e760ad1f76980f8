package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/banshee-data/jetreco/internal/jets/pipeline"
	"github.com/banshee-data/jetreco/internal/monitoring"
	"github.com/banshee-data/jetreco/internal/timeutil"
)

// StatsSnapshot represents a snapshot of current statistics
type StatsSnapshot struct {
	EventsPerSec    float64   `json:"events_per_sec"`
	JetsPerSec      float64   `json:"jets_per_sec"`
	InputsPerSec    float64   `json:"inputs_per_sec"`
	CorrectedEvents int64     `json:"corrected_events"`
	DroppedInputs   int64     `json:"dropped_inputs"`
	Timestamp       time.Time `json:"timestamp"`
}

// ProductionStats tracks producer throughput with thread-safe operations.
// It is a pipeline.Sink.
type ProductionStats struct {
	mu             sync.Mutex
	clock          timeutil.Clock
	eventCount     int64
	jetCount       int64
	inputCount     int64
	correctedCount int64
	droppedCount   int64
	lastReset      time.Time
	startTime      time.Time
	latestSnapshot *StatsSnapshot
}

var _ pipeline.Sink = (*ProductionStats)(nil)

// NewProductionStats creates a new ProductionStats instance
func NewProductionStats() *ProductionStats {
	return NewProductionStatsWithClock(timeutil.RealClock{})
}

// NewProductionStatsWithClock creates a ProductionStats driven by clock.
func NewProductionStatsWithClock(clock timeutil.Clock) *ProductionStats {
	now := clock.Now()
	return &ProductionStats{
		clock:     clock,
		lastReset: now,
		startTime: now,
	}
}

// Run calls LogStats every interval until ctx is done.
func (ps *ProductionStats) Run(ctx context.Context, interval time.Duration) {
	ticker := ps.clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C():
			ps.LogStats()
		case <-ctx.Done():
			return
		}
	}
}

// Put counts one event's products.
func (ps *ProductionStats) Put(_ string, p *pipeline.Products) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.eventCount++
	ps.jetCount += int64(len(p.Jets))
	ps.inputCount += int64(p.Stage.Staged)
	ps.droppedCount += int64(p.DroppedBySubtraction)
	if p.Trace.Corrected() {
		ps.correctedCount++
	}
	return nil
}

// GetAndReset returns current counts and resets them.
func (ps *ProductionStats) GetAndReset() (events, jets, inputs, corrected, dropped int64, duration time.Duration) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	now := ps.clock.Now()
	duration = now.Sub(ps.lastReset)
	events, jets, inputs = ps.eventCount, ps.jetCount, ps.inputCount
	corrected, dropped = ps.correctedCount, ps.droppedCount

	ps.eventCount = 0
	ps.jetCount = 0
	ps.inputCount = 0
	ps.correctedCount = 0
	ps.droppedCount = 0
	ps.lastReset = now

	return
}

// LogStats logs the rates since the last call and stores a snapshot for
// the web interface.
func (ps *ProductionStats) LogStats() {
	events, jets, inputs, corrected, dropped, duration := ps.GetAndReset()
	if events == 0 || duration <= 0 {
		return
	}
	secs := duration.Seconds()
	snap := &StatsSnapshot{
		EventsPerSec:    float64(events) / secs,
		JetsPerSec:      float64(jets) / secs,
		InputsPerSec:    float64(inputs) / secs,
		CorrectedEvents: corrected,
		DroppedInputs:   dropped,
		Timestamp:       ps.clock.Now(),
	}

	ps.mu.Lock()
	ps.latestSnapshot = snap
	ps.mu.Unlock()

	msg := fmt.Sprintf("Producer stats (/sec): %.1f events, %.1f jets, %s inputs",
		snap.EventsPerSec, snap.JetsPerSec, FormatWithCommas(int64(snap.InputsPerSec)))
	if dropped > 0 {
		msg += fmt.Sprintf(", %d inputs dropped by subtraction", dropped)
	}
	monitoring.Opsf("%s", msg)
}

// GetUptime returns the time since the stats were created
func (ps *ProductionStats) GetUptime() time.Duration {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.clock.Since(ps.startTime)
}

// GetLatestSnapshot returns the most recent snapshot, or nil before the
// first LogStats with traffic.
func (ps *ProductionStats) GetLatestSnapshot() *StatsSnapshot {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.latestSnapshot == nil {
		return nil
	}
	snapshot := *ps.latestSnapshot
	return &snapshot
}

// FormatWithCommas formats a number with thousands separators
func FormatWithCommas(n int64) string {
	str := fmt.Sprintf("%d", n)
	neg := false
	if n < 0 {
		neg = true
		str = str[1:]
	}
	if len(str) <= 3 {
		if neg {
			return "-" + str
		}
		return str
	}

	result := ""
	for i, char := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result += ","
		}
		result += string(char)
	}
	if neg {
		return "-" + result
	}
	return result
}
