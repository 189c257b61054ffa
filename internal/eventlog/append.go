package eventlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomvargas/cardmarket-data/internal/model"
)

// Append writes one fact to its (season, kind) stream. If the fact's natural
// key has been seen before, nothing is written and appended is false.
// Each append is a single statement, so it is all-or-nothing.
func (s *Store) Append(ctx context.Context, season model.Season, fact model.Fact) (pos Position, appended bool, err error) {
	var (
		factDate   sql.NullInt64
		buyPrice   sql.NullInt64
		sellPrice  sql.NullInt64
		orderTS    sql.NullInt64
		orderPrice sql.NullInt64
		orderQty   sql.NullInt64
	)

	switch f := fact.(type) {
	case model.PriceFact:
		factDate = sql.NullInt64{Int64: model.Day(f.Date).Unix(), Valid: true}
		buyPrice = sql.NullInt64{Int64: f.BuyPrice, Valid: true}
		sellPrice = sql.NullInt64{Int64: f.SellPrice, Valid: true}
	case model.OrderFact:
		orderTS = sql.NullInt64{Int64: f.Timestamp.UTC().Unix(), Valid: true}
		orderPrice = sql.NullInt64{Int64: f.Price, Valid: true}
		orderQty = sql.NullInt64{Int64: f.Quantity, Valid: true}
	default:
		return 0, false, fmt.Errorf("append: unknown fact type %T", fact)
	}

	// The unique (season, kind, card, natural_key) index is the dedup index;
	// a duplicate resolves to DO NOTHING and RETURNING yields no row.
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO facts (
			season, kind, card_id, natural_key,
			fact_date, buy_price, sell_price,
			order_ts, order_price, order_qty,
			appended_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (season, kind, card_id, natural_key) DO NOTHING
		RETURNING position
	`,
		int(season), string(fact.Kind()), int64(fact.Card()), fact.NaturalKey(),
		factDate, buyPrice, sellPrice,
		orderTS, orderPrice, orderQty,
		time.Now().UTC().Unix(),
	).Scan(&pos)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("append %s fact for card %d: %w", fact.Kind(), fact.Card(), err)
	}

	return pos, true, nil
}

// AppendBatch appends facts one by one. Facts are independent: duplicates are
// skipped silently and an I/O failure stops the batch, leaving earlier facts
// appended. Replaying the same batch later is safe.
func (s *Store) AppendBatch(ctx context.Context, season model.Season, facts []model.Fact) (appended int, err error) {
	for _, fact := range facts {
		if err := ctx.Err(); err != nil {
			return appended, err
		}

		_, ok, err := s.Append(ctx, season, fact)
		if err != nil {
			return appended, err
		}
		if ok {
			appended++
		}
	}
	return appended, nil
}

// RecordCard remembers a card's display name so Peek can label snapshots.
func (s *Store) RecordCard(ctx context.Context, season model.Season, cardID model.CardID, name string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cards (season, card_id, name)
		VALUES (?, ?, ?)
		ON CONFLICT (season, card_id) DO UPDATE SET name = excluded.name
	`, int(season), int64(cardID), name)
	if err != nil {
		return fmt.Errorf("record card %d: %w", cardID, err)
	}
	return nil
}

// Seen reports whether a fact's natural key is already in the log, and the
// position it was appended at.
func (s *Store) Seen(ctx context.Context, season model.Season, fact model.Fact) (Position, bool, error) {
	var pos Position
	err := s.db.QueryRowContext(ctx, `
		SELECT position FROM facts
		WHERE season = ? AND kind = ? AND card_id = ? AND natural_key = ?
	`, int(season), string(fact.Kind()), int64(fact.Card()), fact.NaturalKey()).Scan(&pos)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("dedup lookup: %w", err)
	}
	return pos, true, nil
}
