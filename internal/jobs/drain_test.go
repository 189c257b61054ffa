package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/tomvargas/cardmarket-data/internal/model"
)

type fakeDrain struct {
	season   model.Season
	maxCount int
	drained  int
	err      error
}

func (d *fakeDrain) Drain(ctx context.Context, season model.Season, maxCount int) (int, error) {
	d.season = season
	d.maxCount = maxCount
	return d.drained, d.err
}

func (d *fakeDrain) Write(ctx context.Context, season model.Season, maxCount int) (int, error) {
	return d.Drain(ctx, season, maxCount)
}

func TestRelationalDrainJob(t *testing.T) {
	drain := &fakeDrain{drained: 42}
	job := NewRelationalDrainJob(drain, 500, nil)

	result, err := job.Func()(context.Background(), "25")
	if err != nil {
		t.Fatalf("drain error = %v", err)
	}

	if drain.season != 25 || drain.maxCount != 500 {
		t.Errorf("drain called with season=%d maxCount=%d, want 25/500", drain.season, drain.maxCount)
	}
	if res := result.(DrainResult); res.Drained != 42 {
		t.Errorf("Drained = %d, want 42", res.Drained)
	}
}

func TestRelationalDrainJob_Error(t *testing.T) {
	drain := &fakeDrain{err: errors.New("pool exhausted")}
	job := NewRelationalDrainJob(drain, 500, nil)

	if _, err := job.Func()(context.Background(), "25"); err == nil {
		t.Fatal("drain error = nil, want pool error")
	}
}

func TestColdStoreDrainJob(t *testing.T) {
	drain := &fakeDrain{drained: 7}
	job := NewColdStoreDrainJob(drain, 1000, nil)

	result, err := job.Func()(context.Background(), "25")
	if err != nil {
		t.Fatalf("cold store drain error = %v", err)
	}

	if drain.season != 25 || drain.maxCount != 1000 {
		t.Errorf("write called with season=%d maxCount=%d, want 25/1000", drain.season, drain.maxCount)
	}
	if res := result.(DrainResult); res.Drained != 7 {
		t.Errorf("Drained = %d, want 7", res.Drained)
	}
}

func TestDrainJobs_BadSeasonInput(t *testing.T) {
	if _, err := NewRelationalDrainJob(&fakeDrain{}, 1, nil).Func()(context.Background(), ""); err == nil {
		t.Error("relational drain: error = nil, want season parse error")
	}
	if _, err := NewColdStoreDrainJob(&fakeDrain{}, 1, nil).Func()(context.Background(), "x"); err == nil {
		t.Error("cold store drain: error = nil, want season parse error")
	}
}
