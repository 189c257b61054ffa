package jobs

import (
	"context"
	"log/slog"

	"github.com/tomvargas/cardmarket-data/internal/model"
	"github.com/tomvargas/cardmarket-data/internal/scheduler"
)

// RelationalDrain moves pending facts from the event log into the
// relational sink. Satisfied by sink.Drainer.
type RelationalDrain interface {
	Drain(ctx context.Context, season model.Season, maxCount int) (int, error)
}

// ColumnarWrite moves pending order facts from the event log into cold
// storage. Satisfied by coldstore.Writer.
type ColumnarWrite interface {
	Write(ctx context.Context, season model.Season, maxCount int) (int, error)
}

// DrainResult is the status payload for both drain jobs.
type DrainResult struct {
	Drained int `json:"drained"`
}

// RelationalDrainJob wraps the relational sink drainer as a scheduled job.
type RelationalDrainJob struct {
	drainer   RelationalDrain
	batchSize int
	logger    *slog.Logger
}

// NewRelationalDrainJob creates a drain job with the given per-run batch size.
func NewRelationalDrainJob(drainer RelationalDrain, batchSize int, logger *slog.Logger) *RelationalDrainJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &RelationalDrainJob{drainer: drainer, batchSize: batchSize, logger: logger}
}

// Func adapts the job to the scheduler. The key input is the season number.
func (j *RelationalDrainJob) Func() scheduler.JobFunc {
	return func(ctx context.Context, input string) (any, error) {
		season, err := parseSeason(input)
		if err != nil {
			return nil, err
		}

		drained, err := j.drainer.Drain(ctx, season, j.batchSize)
		if err != nil {
			return nil, err
		}
		if drained > 0 {
			j.logger.Info("relational drain finished", "season", season, "drained", drained)
		}
		return DrainResult{Drained: drained}, nil
	}
}

// ColdStoreDrainJob wraps the cold storage writer as a scheduled job.
type ColdStoreDrainJob struct {
	writer    ColumnarWrite
	batchSize int
	logger    *slog.Logger
}

// NewColdStoreDrainJob creates a cold storage job with the given per-run
// batch size.
func NewColdStoreDrainJob(writer ColumnarWrite, batchSize int, logger *slog.Logger) *ColdStoreDrainJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &ColdStoreDrainJob{writer: writer, batchSize: batchSize, logger: logger}
}

// Func adapts the job to the scheduler. The key input is the season number.
func (j *ColdStoreDrainJob) Func() scheduler.JobFunc {
	return func(ctx context.Context, input string) (any, error) {
		season, err := parseSeason(input)
		if err != nil {
			return nil, err
		}

		written, err := j.writer.Write(ctx, season, j.batchSize)
		if err != nil {
			return nil, err
		}
		if written > 0 {
			j.logger.Info("cold storage drain finished", "season", season, "written", written)
		}
		return DrainResult{Drained: written}, nil
	}
}
