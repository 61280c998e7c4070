package monitor

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Probe checks one backend and returns an error when it is unreachable.
type Probe func(ctx context.Context) error

// Status is the last observed health of every registered backend.
type Status struct {
	Services  map[string]bool `json:"services"`
	LastCheck time.Time       `json:"last_check"`
}

// Healthy reports whether every probe passed on the last check.
func (s Status) Healthy() bool {
	if s.LastCheck.IsZero() {
		return false
	}
	for _, ok := range s.Services {
		if !ok {
			return false
		}
	}
	return true
}

// Monitor runs the registered probes on a cron schedule and keeps the latest
// results for the health endpoint.
type Monitor struct {
	probes   map[string]Probe
	timeout  time.Duration
	interval time.Duration
	cron     *cron.Cron

	mu     sync.RWMutex
	status Status
	logger *zap.Logger
}

func New(interval time.Duration, logger *zap.Logger) *Monitor {
	if interval < time.Second {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		probes:   make(map[string]Probe),
		timeout:  3 * time.Second,
		interval: interval,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger,
	}
}

// Register adds a named probe. It must be called before Start.
func (m *Monitor) Register(name string, probe Probe) {
	if probe == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.probes[name] = probe
}

// Start runs an initial check and schedules the following ones.
func (m *Monitor) Start() error {
	m.Refresh(context.Background())
	schedule := fmt.Sprintf("@every %ds", int(m.interval.Seconds()))
	if _, err := m.cron.AddFunc(schedule, func() { m.Refresh(context.Background()) }); err != nil {
		return err
	}
	m.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running check to finish.
func (m *Monitor) Stop(ctx context.Context) {
	stopCtx := m.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
}

func (m *Monitor) IsOnline() bool {
	return m.GetStatus().Healthy()
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	services := make(map[string]bool, len(m.status.Services))
	for name, ok := range m.status.Services {
		services[name] = ok
	}
	return Status{Services: services, LastCheck: m.status.LastCheck}
}

// Refresh runs every probe once and records the results.
func (m *Monitor) Refresh(ctx context.Context) {
	m.mu.RLock()
	names := make([]string, 0, len(m.probes))
	for name := range m.probes {
		names = append(names, name)
	}
	m.mu.RUnlock()
	sort.Strings(names)

	services := make(map[string]bool, len(names))
	for _, name := range names {
		m.mu.RLock()
		probe := m.probes[name]
		m.mu.RUnlock()

		probeCtx, cancel := context.WithTimeout(ctx, m.timeout)
		err := probe(probeCtx)
		cancel()

		services[name] = err == nil
		if err != nil {
			m.logger.Warn("health probe failed", zap.String("service", name), zap.Error(err))
		}
	}

	m.mu.Lock()
	m.status = Status{Services: services, LastCheck: time.Now()}
	m.mu.Unlock()
}
