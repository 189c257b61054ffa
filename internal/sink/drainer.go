package sink

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tomvargas/cardmarket-data/internal/eventlog"
	"github.com/tomvargas/cardmarket-data/internal/model"
)

// FactLog is the poll/acknowledge surface the drainer consumes.
type FactLog interface {
	Poll(ctx context.Context, season model.Season, kind model.FactKind, maxCount int) ([]eventlog.Entry, eventlog.Position, error)
	Acknowledge(ctx context.Context, season model.Season, kind model.FactKind, pos eventlog.Position) error
}

// ListingSink is the relational write surface the drainer feeds.
type ListingSink interface {
	Upsert(ctx context.Context, listing model.Listing) error
	BulkInsertPrices(ctx context.Context, season model.Season, prices []model.PriceFact) error
	BulkInsertOrders(ctx context.Context, season model.Season, orders []model.OrderFact) error
}

// Drainer moves fact batches from the event log into the relational store.
// It is driven by the scheduler; each Drain call is one poll/persist/ack
// cycle per fact kind.
type Drainer struct {
	log    FactLog
	sink   ListingSink
	logger *slog.Logger
}

// NewDrainer creates a Drainer.
func NewDrainer(log FactLog, sink ListingSink, logger *slog.Logger) *Drainer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Drainer{log: log, sink: sink, logger: logger}
}

// Drain polls up to maxCount entries per fact kind, bulk-writes them to the
// relational store and acknowledges only after the write committed. On any
// failure the checkpoint stays put and the batch is replayed on the next
// tick; the sink's conflict handling makes the replay idempotent.
func (d *Drainer) Drain(ctx context.Context, season model.Season, maxCount int) (drained int, err error) {
	for _, kind := range model.Kinds {
		n, err := d.drainKind(ctx, season, kind, maxCount)
		if err != nil {
			return drained, err
		}
		drained += n
	}
	return drained, nil
}

func (d *Drainer) drainKind(ctx context.Context, season model.Season, kind model.FactKind, maxCount int) (int, error) {
	entries, next, err := d.log.Poll(ctx, season, kind, maxCount)
	if err != nil {
		return 0, fmt.Errorf("drain %d/%s: %w", season, kind, err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	switch kind {
	case model.KindPrice:
		err = d.persistPrices(ctx, season, entries)
	case model.KindOrder:
		err = d.persistOrders(ctx, season, entries)
	default:
		err = fmt.Errorf("unknown kind %q", kind)
	}
	if err != nil {
		return 0, fmt.Errorf("drain %d/%s: %w", season, kind, err)
	}

	if err := d.log.Acknowledge(ctx, season, kind, next); err != nil {
		// The batch is persisted; the missed ack only means a redundant
		// replay next tick.
		return 0, fmt.Errorf("drain %d/%s: %w", season, kind, err)
	}

	d.logger.Info("drained batch",
		"season", int(season),
		"kind", string(kind),
		"entries", len(entries),
		"checkpoint", int64(next),
	)
	return len(entries), nil
}

func (d *Drainer) persistPrices(ctx context.Context, season model.Season, entries []eventlog.Entry) error {
	prices := make([]model.PriceFact, 0, len(entries))
	latest := make(map[model.CardID]model.PriceFact)

	for _, e := range entries {
		p, ok := e.Fact.(model.PriceFact)
		if !ok {
			return fmt.Errorf("price stream carried %T", e.Fact)
		}
		prices = append(prices, p)
		if cur, seen := latest[p.CardID]; !seen || p.Date.After(cur.Date) {
			latest[p.CardID] = p
		}
	}

	if err := d.sink.BulkInsertPrices(ctx, season, prices); err != nil {
		return err
	}

	// Refresh each card's current snapshot from the newest fact in the batch.
	for card, p := range latest {
		err := d.sink.Upsert(ctx, model.Listing{
			Season:    season,
			CardID:    card,
			BuyPrice:  p.BuyPrice,
			SellPrice: p.SellPrice,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (d *Drainer) persistOrders(ctx context.Context, season model.Season, entries []eventlog.Entry) error {
	orders := make([]model.OrderFact, 0, len(entries))
	for _, e := range entries {
		o, ok := e.Fact.(model.OrderFact)
		if !ok {
			return fmt.Errorf("order stream carried %T", e.Fact)
		}
		orders = append(orders, o)
	}
	return d.sink.BulkInsertOrders(ctx, season, orders)
}
