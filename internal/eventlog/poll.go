package eventlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomvargas/cardmarket-data/internal/model"
)

// Checkpoint returns the last acknowledged position for one (season, kind)
// stream, or zero if the consumer has never acknowledged anything.
func (s *Store) Checkpoint(ctx context.Context, season model.Season, kind model.FactKind) (Position, error) {
	var pos Position
	err := s.db.QueryRowContext(ctx, `
		SELECT position FROM checkpoints WHERE season = ? AND kind = ?
	`, int(season), string(kind)).Scan(&pos)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read checkpoint %d/%s: %w", season, kind, err)
	}
	return pos, nil
}

// Poll reads up to maxCount entries strictly after the stored checkpoint, in
// position order. The checkpoint itself is not moved; next is the position
// the caller should acknowledge once the batch is durably processed (equal to
// the current checkpoint when the log is exhausted).
func (s *Store) Poll(ctx context.Context, season model.Season, kind model.FactKind, maxCount int) (entries []Entry, next Position, err error) {
	cp, err := s.Checkpoint(ctx, season, kind)
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT position, card_id,
		       fact_date, buy_price, sell_price,
		       order_ts, order_price, order_qty,
		       appended_at
		FROM facts
		WHERE season = ? AND kind = ? AND position > ?
		ORDER BY position
		LIMIT ?
	`, int(season), string(kind), int64(cp), maxCount)
	if err != nil {
		return nil, 0, fmt.Errorf("poll %d/%s: %w", season, kind, err)
	}
	defer rows.Close()

	next = cp
	for rows.Next() {
		entry, err := scanEntry(rows, season, kind)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, entry)
		next = entry.Position
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("poll %d/%s: %w", season, kind, err)
	}

	return entries, next, nil
}

// Acknowledge advances the checkpoint to pos. Idempotent; the checkpoint
// never moves backward, so a stale or repeated acknowledgement is a no-op.
func (s *Store) Acknowledge(ctx context.Context, season model.Season, kind model.FactKind, pos Position) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (season, kind, position, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (season, kind) DO UPDATE SET
			position   = excluded.position,
			updated_at = excluded.updated_at
		WHERE excluded.position > checkpoints.position
	`, int(season), string(kind), int64(pos), time.Now().UTC().Unix())
	if err != nil {
		return fmt.Errorf("acknowledge %d/%s at %d: %w", season, kind, pos, err)
	}
	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(r rowScanner, season model.Season, kind model.FactKind) (Entry, error) {
	var (
		pos        int64
		cardID     int64
		factDate   sql.NullInt64
		buyPrice   sql.NullInt64
		sellPrice  sql.NullInt64
		orderTS    sql.NullInt64
		orderPrice sql.NullInt64
		orderQty   sql.NullInt64
		appendedAt int64
	)

	if err := r.Scan(&pos, &cardID,
		&factDate, &buyPrice, &sellPrice,
		&orderTS, &orderPrice, &orderQty,
		&appendedAt); err != nil {
		return Entry{}, fmt.Errorf("scan log entry: %w", err)
	}

	entry := Entry{
		Position:   Position(pos),
		Season:     season,
		Kind:       kind,
		AppendedAt: time.Unix(appendedAt, 0).UTC(),
	}

	switch kind {
	case model.KindPrice:
		entry.Fact = model.PriceFact{
			CardID:    model.CardID(cardID),
			Date:      time.Unix(factDate.Int64, 0).UTC(),
			BuyPrice:  buyPrice.Int64,
			SellPrice: sellPrice.Int64,
		}
	case model.KindOrder:
		entry.Fact = model.OrderFact{
			CardID:    model.CardID(cardID),
			Timestamp: time.Unix(orderTS.Int64, 0).UTC(),
			Price:     orderPrice.Int64,
			Quantity:  orderQty.Int64,
		}
	default:
		return Entry{}, fmt.Errorf("scan log entry: unknown kind %q", kind)
	}

	return entry, nil
}
