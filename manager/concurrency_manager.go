package manager

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrQueueFull is returned when no compile slot frees up within the queue timeout.
var ErrQueueFull = errors.New("compilation queue is full")

// Metrics holds the queue counters reported by the monitor.
type Metrics struct {
	QueueSize       int
	ProcessingCount int
	LastLogTime     time.Time
	changed         bool
	mu              sync.Mutex
}

// ConcurrencyManager bounds how many compilations run at once.
type ConcurrencyManager struct {
	sem          chan struct{}
	metrics      *Metrics
	queueTimeout time.Duration
	logInterval  time.Duration
	closed       chan struct{}
	closeOnce    sync.Once
}

// NewConcurrencyManager initializes a manager with size slots and starts its metrics monitor.
func NewConcurrencyManager(size int, queueTimeout time.Duration) *ConcurrencyManager {
	if size <= 0 {
		log.Warnf("Invalid compile concurrency %d. Setting to 1.", size)
		size = 1
	}
	cm := &ConcurrencyManager{
		sem:          make(chan struct{}, size),
		metrics:      &Metrics{},
		queueTimeout: queueTimeout,
		logInterval:  time.Second,
		closed:       make(chan struct{}),
	}
	go cm.monitorMetrics()
	return cm
}

// Acquire waits for a compile slot. The returned func releases it and must be
// called exactly once. ErrQueueFull is returned after the queue timeout, or the
// context error if ctx ends first.
func (cm *ConcurrencyManager) Acquire(ctx context.Context) (func(), error) {
	cm.metrics.incrementQueue()

	timer := time.NewTimer(cm.queueTimeout)
	defer timer.Stop()

	select {
	case cm.sem <- struct{}{}:
		cm.metrics.incrementProcessing()
		cm.metrics.decrementQueue()

		var once sync.Once
		return func() {
			once.Do(func() {
				cm.metrics.decrementProcessing()
				<-cm.sem
			})
		}, nil
	case <-timer.C:
		cm.metrics.decrementQueue()
		return nil, ErrQueueFull
	case <-ctx.Done():
		cm.metrics.decrementQueue()
		return nil, ctx.Err()
	}
}

// Snapshot returns the current queued and processing counts.
func (cm *ConcurrencyManager) Snapshot() (queued, processing int) {
	cm.metrics.mu.Lock()
	defer cm.metrics.mu.Unlock()
	return cm.metrics.QueueSize, cm.metrics.ProcessingCount
}

// monitorMetrics logs the counters at most once per logInterval, and only after a change.
func (cm *ConcurrencyManager) monitorMetrics() {
	ticker := time.NewTicker(cm.logInterval / 2)
	defer ticker.Stop()

	for {
		select {
		case <-cm.closed:
			return
		case now := <-ticker.C:
			m := cm.metrics
			m.mu.Lock()
			if m.changed && now.Sub(m.LastLogTime) >= cm.logInterval {
				log.Infof("Compiler | Queued: %d | Processing: %d", m.QueueSize, m.ProcessingCount)
				m.LastLogTime = now
				m.changed = false
			}
			m.mu.Unlock()
		}
	}
}

// Shutdown stops the metrics monitor. Slots already handed out stay valid.
func (cm *ConcurrencyManager) Shutdown() {
	cm.closeOnce.Do(func() {
		close(cm.closed)
	})
}

func (m *Metrics) incrementQueue() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.QueueSize++
	m.changed = true
}

func (m *Metrics) decrementQueue() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.QueueSize > 0 {
		m.QueueSize--
		m.changed = true
	}
}

func (m *Metrics) incrementProcessing() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ProcessingCount++
	m.changed = true
}

func (m *Metrics) decrementProcessing() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ProcessingCount > 0 {
		m.ProcessingCount--
		m.changed = true
	}
}
