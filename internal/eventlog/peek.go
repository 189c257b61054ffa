package eventlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tomvargas/cardmarket-data/internal/model"
)

// Peek reconstructs the current listing state of one card from the log. It
// reflects every fact appended so far, including facts not yet drained to the
// relational sink, and is independent of checkpoint state. The facts_by_card
// index keeps this a per-card read rather than a log scan.
func (s *Store) Peek(ctx context.Context, season model.Season, cardID model.CardID) (model.Snapshot, error) {
	snap := model.Snapshot{Season: season, CardID: cardID}

	err := s.db.QueryRowContext(ctx, `
		SELECT name FROM cards WHERE season = ? AND card_id = ?
	`, int(season), int64(cardID)).Scan(&snap.Name)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return model.Snapshot{}, fmt.Errorf("peek card %d: %w", cardID, err)
	}

	for _, kind := range model.Kinds {
		if err := s.peekKind(ctx, &snap, kind); err != nil {
			return model.Snapshot{}, err
		}
	}

	// Current best prices come from the newest price fact by calendar date.
	var latest model.PriceFact
	for _, p := range snap.Prices {
		if p.Date.After(latest.Date) || latest.Date.IsZero() {
			latest = p
		}
	}
	snap.BuyPrice = latest.BuyPrice
	snap.SellPrice = latest.SellPrice

	return snap, nil
}

func (s *Store) peekKind(ctx context.Context, snap *model.Snapshot, kind model.FactKind) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT position, card_id,
		       fact_date, buy_price, sell_price,
		       order_ts, order_price, order_qty,
		       appended_at
		FROM facts
		WHERE season = ? AND card_id = ? AND kind = ?
		ORDER BY position
	`, int(snap.Season), int64(snap.CardID), string(kind))
	if err != nil {
		return fmt.Errorf("peek card %d/%s: %w", snap.CardID, kind, err)
	}
	defer rows.Close()

	for rows.Next() {
		entry, err := scanEntry(rows, snap.Season, kind)
		if err != nil {
			return err
		}
		switch f := entry.Fact.(type) {
		case model.PriceFact:
			snap.Prices = append(snap.Prices, f)
		case model.OrderFact:
			snap.Orders = append(snap.Orders, f)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("peek card %d/%s: %w", snap.CardID, kind, err)
	}
	return nil
}
