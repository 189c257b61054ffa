package coldstore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"

	"github.com/tomvargas/cardmarket-data/internal/eventlog"
	"github.com/tomvargas/cardmarket-data/internal/model"
)

// FactLog is the poll/acknowledge surface the writer consumes.
type FactLog interface {
	Poll(ctx context.Context, season model.Season, kind model.FactKind, maxCount int) ([]eventlog.Entry, eventlog.Position, error)
	Acknowledge(ctx context.Context, season model.Season, kind model.FactKind, pos eventlog.Position) error
}

// Config holds cold-storage settings.
type Config struct {
	Dir            string // Root directory for partition files
	MaxRowsPerFile int    // Rotation threshold per file (default: 50000)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{MaxRowsPerFile: 50000}
}

// OrderRow is the parquet row schema for one completed order.
type OrderRow struct {
	Season   int32 `parquet:"season"`
	CardID   int64 `parquet:"card_id"`
	OrderTS  int64 `parquet:"order_ts"` // Unix seconds, UTC
	Price    int64 `parquet:"price"`
	Quantity int64 `parquet:"quantity"`
}

// Writer drains order facts to parquet partition files.
type Writer struct {
	cfg    Config
	log    FactLog
	logger *slog.Logger
}

// NewWriter creates a cold-storage writer.
func NewWriter(cfg Config, log FactLog, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxRowsPerFile <= 0 {
		cfg.MaxRowsPerFile = DefaultConfig().MaxRowsPerFile
	}
	return &Writer{cfg: cfg, log: log, logger: logger}
}

// Write polls up to maxCount order facts, writes them into day partitions
// and acknowledges the batch. Returns the number of orders written.
func (w *Writer) Write(ctx context.Context, season model.Season, maxCount int) (int, error) {
	entries, next, err := w.log.Poll(ctx, season, model.KindOrder, maxCount)
	if err != nil {
		return 0, fmt.Errorf("cold store poll season %d: %w", season, err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	byDay := make(map[time.Time][]OrderRow)
	for _, e := range entries {
		o, ok := e.Fact.(model.OrderFact)
		if !ok {
			return 0, fmt.Errorf("order stream carried %T", e.Fact)
		}
		day := model.Day(o.Timestamp)
		byDay[day] = append(byDay[day], OrderRow{
			Season:   int32(season),
			CardID:   int64(o.CardID),
			OrderTS:  o.Timestamp.UTC().Unix(),
			Price:    o.Price,
			Quantity: o.Quantity,
		})
	}

	// Stable partition order keeps logs and failures reproducible.
	days := make([]time.Time, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	files := 0
	for _, day := range days {
		n, err := w.writePartition(ctx, day, byDay[day])
		if err != nil {
			return 0, err
		}
		files += n
	}

	if err := w.log.Acknowledge(ctx, season, model.KindOrder, next); err != nil {
		return 0, fmt.Errorf("cold store ack season %d: %w", season, err)
	}

	w.logger.Info("cold store drain complete",
		"season", int(season),
		"orders", len(entries),
		"partitions", len(days),
		"files", files,
	)
	return len(entries), nil
}

// writePartition writes one day's rows, rotating to a new file whenever the
// row threshold is reached. Returns the number of files written.
func (w *Writer) writePartition(ctx context.Context, day time.Time, rows []OrderRow) (int, error) {
	dir := filepath.Join(w.cfg.Dir, PartitionPath(day))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create partition dir %s: %w", dir, err)
	}

	files := 0
	for len(rows) > 0 {
		if err := ctx.Err(); err != nil {
			return files, err
		}

		chunk := rows
		if len(chunk) > w.cfg.MaxRowsPerFile {
			chunk = chunk[:w.cfg.MaxRowsPerFile]
		}
		rows = rows[len(chunk):]

		name := fmt.Sprintf("orders-%s.parquet", uuid.NewString())
		if err := writeFile(filepath.Join(dir, name), chunk); err != nil {
			return files, err
		}
		files++
	}
	return files, nil
}

func writeFile(path string, rows []OrderRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	pw := parquet.NewGenericWriter[OrderRow](f)
	if _, err := pw.Write(rows); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := pw.Close(); err != nil {
		f.Close()
		return fmt.Errorf("close parquet %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// PartitionPath returns the hive-style partition path for a day, e.g.
// "year=2025/month=03/day=25".
func PartitionPath(day time.Time) string {
	day = day.UTC()
	return filepath.Join(
		fmt.Sprintf("year=%04d", day.Year()),
		fmt.Sprintf("month=%02d", int(day.Month())),
		fmt.Sprintf("day=%02d", day.Day()),
	)
}
