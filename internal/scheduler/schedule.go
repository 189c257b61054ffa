package scheduler

import (
	"context"
	"time"
)

// Schedule runs one job key on an interval. lastRun is guarded by the
// Manager's mutex and moves only after a successful execution, so a failed
// run is retried on the next tick.
type Schedule struct {
	Key      Key
	Interval time.Duration

	lastRun time.Time
}

// AddSchedule registers an interval schedule for a job key. A zero lastRun
// makes the job eligible on the first tick.
func (m *Manager) AddSchedule(key Key, interval time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedules = append(m.schedules, &Schedule{Key: key, Interval: interval})
}

// RunScheduled launches every schedule that is due and not already in
// flight. Launches are fire-and-forget: failures are reported through the
// status notifier and retried on a later tick.
func (m *Manager) RunScheduled(ctx context.Context) {
	now := time.Now()

	m.mu.Lock()
	var due []*Schedule
	for _, s := range m.schedules {
		if now.Sub(s.lastRun) < s.Interval {
			continue
		}
		if _, running := m.inflight[s.Key]; running {
			continue
		}
		due = append(due, s)
	}
	m.mu.Unlock()

	for _, s := range due {
		m.wg.Add(1)
		go func(s *Schedule) {
			defer m.wg.Done()

			if _, err := m.Run(ctx, s.Key); err != nil {
				// Logged and broadcast by execute; lastRun stays put so the
				// next tick retries.
				return
			}

			m.mu.Lock()
			s.lastRun = time.Now()
			m.mu.Unlock()
		}(s)
	}
}

// Start begins the scheduler tick loop.
func (m *Manager) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(ctx)

	m.wg.Add(1)
	go m.run()

	m.logger.Info("scheduler started",
		"tick_interval", m.cfg.TickInterval,
		"schedules", len(m.schedules),
	)
	return nil
}

// Stop cancels the tick loop and waits for in-flight executions, including
// ones started by direct Run calls.
func (m *Manager) Stop(ctx context.Context) error {
	if m.cancel != nil {
		m.cancel()
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) run() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.TickInterval)
	defer ticker.Stop()

	// Evaluate immediately on start.
	m.RunScheduled(m.ctx)

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.RunScheduled(m.ctx)
		}
	}
}
