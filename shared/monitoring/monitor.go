package monitoring

import (
	"fmt"
	"sync"
	"time"

	"video-summarizer/shared/logger"
)

// Monitor tracks the outcome of the most recent background check.
type Monitor struct {
	mu             sync.RWMutex
	name           string
	log            logger.Logger
	lastRunSuccess bool
	lastRunTime    time.Time
	lastError      string
}

func NewMonitor(name string, log logger.Logger) *Monitor {
	if log == nil {
		log = logger.NewNop()
	}
	return &Monitor{name: name, log: log}
}

func (m *Monitor) RecordSuccess(summary string, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = true
	m.lastRunTime = time.Now()
	m.lastError = ""
	m.mu.Unlock()

	m.log.Info("Check completed successfully",
		logger.String("check", m.name),
		logger.String("summary", summary),
		logger.Duration("duration", duration),
	)
}

func (m *Monitor) RecordFailure(err error, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = false
	m.lastRunTime = time.Now()
	m.lastError = err.Error()
	m.mu.Unlock()

	m.log.Error("Check failed",
		logger.String("check", m.name),
		logger.Error(err),
		logger.Duration("duration", duration),
	)
}

// IsHealthy is true until the first check fails and again after the next success.
func (m *Monitor) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastRunTime.IsZero() {
		return true // No runs yet, assume healthy
	}
	return m.lastRunSuccess
}

func (m *Monitor) GetStatusSummary() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastRunTime.IsZero() {
		return fmt.Sprintf("%s: no runs yet", m.name)
	}

	if m.lastRunSuccess {
		return fmt.Sprintf("✅ %s last run: %s", m.name, m.lastRunTime.Format("Jan 2 15:04"))
	}
	return fmt.Sprintf("❌ %s last run failed: %s (%s)", m.name, m.lastRunTime.Format("Jan 2 15:04"), m.lastError)
}
