package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestRunScheduled_LaunchesDueJobs(t *testing.T) {
	var runs atomic.Int64
	m := New(DefaultConfig(), nil, nil)
	m.Register("import", func(ctx context.Context, input string) (any, error) {
		runs.Add(1)
		return nil, nil
	})
	m.AddSchedule(Key{Type: "import", Input: "25"}, 50*time.Millisecond)

	// Zero lastRun: due immediately.
	m.RunScheduled(context.Background())
	waitFor(t, func() bool { return runs.Load() == 1 })
}

// A schedule whose last run is fresh must not launch; once the interval
// elapses, it must.
func TestRunScheduled_RespectsInterval(t *testing.T) {
	var runs atomic.Int64
	m := New(DefaultConfig(), nil, nil)
	m.Register("import", func(ctx context.Context, input string) (any, error) {
		runs.Add(1)
		return nil, nil
	})
	m.AddSchedule(Key{Type: "import"}, 60*time.Millisecond)

	ctx := context.Background()
	m.RunScheduled(ctx)
	waitFor(t, func() bool { return runs.Load() == 1 })
	// Let the launcher record lastRun before ticking again.
	time.Sleep(10 * time.Millisecond)

	// Immediately after a successful run the schedule is not due.
	m.RunScheduled(ctx)
	time.Sleep(20 * time.Millisecond)
	if n := runs.Load(); n != 1 {
		t.Fatalf("runs = %d after early tick, want 1", n)
	}

	time.Sleep(60 * time.Millisecond)
	m.RunScheduled(ctx)
	waitFor(t, func() bool { return runs.Load() == 2 })
}

// lastRun only advances on success, so a failing job is retried every tick.
func TestRunScheduled_FailureRetriedNextTick(t *testing.T) {
	var runs atomic.Int64
	m := New(DefaultConfig(), nil, nil)
	m.Register("flaky", func(ctx context.Context, input string) (any, error) {
		if runs.Add(1) == 1 {
			return nil, errors.New("transient")
		}
		return nil, nil
	})
	m.AddSchedule(Key{Type: "flaky"}, time.Hour)

	ctx := context.Background()
	m.RunScheduled(ctx)
	waitFor(t, func() bool { return runs.Load() == 1 })
	waitFor(t, func() bool { return len(m.InFlight()) == 0 })

	// Interval is an hour, but the failed run left lastRun untouched.
	m.RunScheduled(ctx)
	waitFor(t, func() bool { return runs.Load() == 2 })
	waitFor(t, func() bool { return len(m.InFlight()) == 0 })
	time.Sleep(10 * time.Millisecond)

	// After the success, the hour interval holds.
	m.RunScheduled(ctx)
	time.Sleep(20 * time.Millisecond)
	if n := runs.Load(); n != 2 {
		t.Errorf("runs = %d after success, want 2", n)
	}
}

func TestRunScheduled_SkipsInFlightKey(t *testing.T) {
	var runs atomic.Int64
	release := make(chan struct{})
	m := New(DefaultConfig(), nil, nil)
	m.Register("slow", func(ctx context.Context, input string) (any, error) {
		runs.Add(1)
		<-release
		return nil, nil
	})
	m.AddSchedule(Key{Type: "slow"}, time.Millisecond)

	ctx := context.Background()
	m.RunScheduled(ctx)
	waitFor(t, func() bool { return runs.Load() == 1 })

	// Still running: further ticks must not start a second execution.
	m.RunScheduled(ctx)
	m.RunScheduled(ctx)
	time.Sleep(20 * time.Millisecond)
	if n := runs.Load(); n != 1 {
		t.Errorf("runs = %d while in flight, want 1", n)
	}

	close(release)
}

func TestManager_StartStop(t *testing.T) {
	var runs atomic.Int64
	cfg := Config{TickInterval: 10 * time.Millisecond}
	m := New(cfg, nil, nil)
	m.Register("tick", func(ctx context.Context, input string) (any, error) {
		runs.Add(1)
		return nil, nil
	})
	m.AddSchedule(Key{Type: "tick"}, 15*time.Millisecond)

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	waitFor(t, func() bool { return runs.Load() >= 2 })

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := m.Stop(stopCtx); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}
