package sink

import (
	"context"
	"fmt"
)

// schema is the listing store DDL. Bulk inserts rely on the uniqueness
// constraints for idempotent replays.
const schema = `
CREATE TABLE IF NOT EXISTS listings (
    id         BIGSERIAL PRIMARY KEY,
    season     INTEGER NOT NULL,
    card_id    BIGINT  NOT NULL,
    name       TEXT    NOT NULL DEFAULT '',
    buy_price  BIGINT  NOT NULL DEFAULT 0,
    sell_price BIGINT  NOT NULL DEFAULT 0,
    UNIQUE (season, card_id)
);

CREATE TABLE IF NOT EXISTS listing_historical_prices (
    listing_id BIGINT NOT NULL REFERENCES listings (id),
    date       DATE   NOT NULL,
    buy_price  BIGINT NOT NULL,
    sell_price BIGINT NOT NULL,
    PRIMARY KEY (listing_id, date)
);

CREATE TABLE IF NOT EXISTS listing_orders (
    listing_id BIGINT      NOT NULL REFERENCES listings (id),
    order_ts   TIMESTAMPTZ NOT NULL,
    price      BIGINT      NOT NULL,
    quantity   BIGINT      NOT NULL,
    PRIMARY KEY (listing_id, order_ts, price, quantity)
);
`

// EnsureSchema creates the listing tables if they do not exist.
func (s *ListingStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure listing schema: %w", err)
	}
	return nil
}
