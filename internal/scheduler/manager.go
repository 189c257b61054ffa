package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Key identifies one runnable unit: a job type plus its input. Two Run calls
// with equal keys share a single execution.
type Key struct {
	Type  string
	Input string
}

func (k Key) String() string {
	if k.Input == "" {
		return k.Type
	}
	return k.Type + "/" + k.Input
}

// JobFunc is a job body. It receives the key's input and must honor ctx.
type JobFunc func(ctx context.Context, input string) (any, error)

// Config holds scheduler settings.
type Config struct {
	TickInterval time.Duration // How often schedules are evaluated (default: 30s)
	JobTimeout   time.Duration // Upper bound per execution, 0 = none (default: 10m)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		TickInterval: 30 * time.Second,
		JobTimeout:   10 * time.Minute,
	}
}

// execution is one in-flight job run. Waiters block on done; result and err
// are set before done is closed.
type execution struct {
	done   chan struct{}
	result any
	err    error
}

// Manager owns the in-flight registry and the schedule table.
type Manager struct {
	cfg      Config
	logger   *slog.Logger
	notifier Notifier

	mu        sync.Mutex
	jobs      map[string]JobFunc
	schedules []*Schedule
	inflight  map[Key]*execution

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Manager. notifier may be nil.
func New(cfg Config, notifier Notifier, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TickInterval == 0 {
		cfg.TickInterval = DefaultConfig().TickInterval
	}
	return &Manager{
		cfg:      cfg,
		logger:   logger,
		notifier: notifier,
		jobs:     make(map[string]JobFunc),
		inflight: make(map[Key]*execution),
	}
}

// Register adds a job type. Must be called before Run or Start.
func (m *Manager) Register(jobType string, fn JobFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[jobType] = fn
}

// InFlight returns the keys currently executing.
func (m *Manager) InFlight() []Key {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]Key, 0, len(m.inflight))
	for k := range m.inflight {
		keys = append(keys, k)
	}
	return keys
}

// Run executes the job identified by key, or joins an execution already in
// flight for that key. All callers of the same key receive the identical
// result or error. The key is freed when the execution completes, success or
// failure, so a later call can retry.
func (m *Manager) Run(ctx context.Context, key Key) (any, error) {
	m.mu.Lock()
	fn, ok := m.jobs[key.Type]
	if !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("run %s: unknown job type", key)
	}

	// Insert-if-absent under one lock: exactly one caller becomes the owner.
	if ex, running := m.inflight[key]; running {
		m.mu.Unlock()
		return m.wait(ctx, ex)
	}
	ex := &execution{done: make(chan struct{})}
	m.inflight[key] = ex
	m.mu.Unlock()

	m.notify(Status{JobName: key.String(), State: StateStart})

	m.wg.Add(1)
	go m.execute(ctx, key, fn, ex)

	return m.wait(ctx, ex)
}

// wait blocks until the execution completes or the waiter's own context is
// cancelled. Cancelling a waiter does not cancel the execution.
func (m *Manager) wait(ctx context.Context, ex *execution) (any, error) {
	select {
	case <-ex.done:
		return ex.result, ex.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// execute runs the job body and completes the execution. The registry key is
// always released through this path, including on timeout, cancellation and
// panic, so waiters are never left hanging.
func (m *Manager) execute(ctx context.Context, key Key, fn JobFunc, ex *execution) {
	defer m.wg.Done()

	if m.cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.JobTimeout)
		defer cancel()
	}

	m.notify(Status{JobName: key.String(), State: StateInProgress})
	start := time.Now()

	result, err := m.runBody(ctx, key, fn)

	ex.result = result
	ex.err = err

	m.mu.Lock()
	delete(m.inflight, key)
	m.mu.Unlock()
	close(ex.done)

	if err != nil {
		m.logger.Warn("job failed",
			"job", key.String(),
			"duration", time.Since(start),
			"err", err,
		)
		m.notify(Status{JobName: key.String(), State: StateError, Message: err.Error()})
		return
	}

	m.logger.Info("job completed",
		"job", key.String(),
		"duration", time.Since(start),
	)
	m.notify(Status{JobName: key.String(), State: StateDone, Data: result})
}

// runBody invokes fn, converting a panic into an error.
func (m *Manager) runBody(ctx context.Context, key Key, fn JobFunc) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", key, r)
		}
	}()
	return fn(ctx, key.Input)
}

func (m *Manager) notify(s Status) {
	if m.notifier != nil {
		m.notifier.Notify(s)
	}
}
