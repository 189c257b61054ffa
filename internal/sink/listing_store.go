package sink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tomvargas/cardmarket-data/internal/model"
)

// ErrNotFound is returned by GetByExternalID for unknown listings.
var ErrNotFound = errors.New("listing not found")

// ListingStore reads and writes the relational listing snapshot.
//
// Schema:
//
//	listings(id, season, card_id, name, buy_price, sell_price)
//	listing_historical_prices(listing_id, date, buy_price, sell_price)
//	listing_orders(listing_id, order_ts, price, quantity)
type ListingStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewListingStore creates a ListingStore on an existing pool.
func NewListingStore(pool *pgxpool.Pool, logger *slog.Logger) *ListingStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &ListingStore{pool: pool, logger: logger}
}

// Upsert writes a listing's current price pair, creating the listing on
// first discovery. An empty name keeps the stored one.
func (s *ListingStore) Upsert(ctx context.Context, listing model.Listing) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO listings (season, card_id, name, buy_price, sell_price)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (season, card_id) DO UPDATE SET
			name       = COALESCE(NULLIF(excluded.name, ''), listings.name),
			buy_price  = excluded.buy_price,
			sell_price = excluded.sell_price
	`, int(listing.Season), int64(listing.CardID), listing.Name, listing.BuyPrice, listing.SellPrice)
	if err != nil {
		return fmt.Errorf("upsert listing %d/%d: %w", listing.Season, listing.CardID, err)
	}
	return nil
}

// BulkInsertPrices drains a batch of historical price facts in one
// transaction via COPY. All rows commit together or none do; already-present
// rows are skipped.
func (s *ListingStore) BulkInsertPrices(ctx context.Context, season model.Season, prices []model.PriceFact) error {
	if len(prices) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(prices))
	for _, p := range prices {
		rows = append(rows, []any{int64(p.CardID), model.Day(p.Date), p.BuyPrice, p.SellPrice})
	}

	return s.bulkInsert(ctx, season, priceBulkSpec, rows)
}

// BulkInsertOrders drains a batch of completed-order facts in one
// transaction via COPY, with the same atomicity as BulkInsertPrices.
func (s *ListingStore) BulkInsertOrders(ctx context.Context, season model.Season, orders []model.OrderFact) error {
	if len(orders) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, []any{int64(o.CardID), o.Timestamp.UTC(), o.Price, o.Quantity})
	}

	return s.bulkInsert(ctx, season, orderBulkSpec, rows)
}

type bulkSpec struct {
	tempTable   string
	tempColumns string
	columns     []string
	insertSQL   string
}

var priceBulkSpec = bulkSpec{
	tempTable:   "_tmp_listing_prices",
	tempColumns: "card_id BIGINT, date DATE, buy_price BIGINT, sell_price BIGINT",
	columns:     []string{"card_id", "date", "buy_price", "sell_price"},
	insertSQL: `
		INSERT INTO listing_historical_prices (listing_id, date, buy_price, sell_price)
		SELECT l.id, t.date, t.buy_price, t.sell_price
		FROM _tmp_listing_prices t
		JOIN listings l ON l.season = $1 AND l.card_id = t.card_id
		ON CONFLICT (listing_id, date) DO NOTHING
	`,
}

var orderBulkSpec = bulkSpec{
	tempTable:   "_tmp_listing_orders",
	tempColumns: "card_id BIGINT, order_ts TIMESTAMPTZ, price BIGINT, quantity BIGINT",
	columns:     []string{"card_id", "order_ts", "price", "quantity"},
	insertSQL: `
		INSERT INTO listing_orders (listing_id, order_ts, price, quantity)
		SELECT l.id, t.order_ts, t.price, t.quantity
		FROM _tmp_listing_orders t
		JOIN listings l ON l.season = $1 AND l.card_id = t.card_id
		ON CONFLICT (listing_id, order_ts, price, quantity) DO NOTHING
	`,
}

// bulkInsert runs the COPY-into-temp-table bulk load: one transaction, COPY
// protocol for the rows, then a set-based insert that resolves listing ids
// and skips duplicates. Listings referenced by the batch are created first
// so history rows never dangle.
func (s *ListingStore) bulkInsert(ctx context.Context, season model.Season, spec bulkSpec, rows [][]any) error {
	start := time.Now()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("bulk insert %s: begin: %w", spec.tempTable, err)
	}
	defer tx.Rollback(ctx)

	createSQL := fmt.Sprintf(
		"CREATE TEMP TABLE %s (%s) ON COMMIT DROP",
		spec.tempTable, spec.tempColumns,
	)
	if _, err := tx.Exec(ctx, createSQL); err != nil {
		return fmt.Errorf("bulk insert %s: create temp table: %w", spec.tempTable, err)
	}

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{spec.tempTable}, spec.columns, pgx.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("bulk insert %s: copy: %w", spec.tempTable, err)
	}

	ensureSQL := fmt.Sprintf(`
		INSERT INTO listings (season, card_id, name, buy_price, sell_price)
		SELECT DISTINCT $1, t.card_id, '', 0, 0 FROM %s t
		ON CONFLICT (season, card_id) DO NOTHING
	`, spec.tempTable)
	if _, err := tx.Exec(ctx, ensureSQL, int(season)); err != nil {
		return fmt.Errorf("bulk insert %s: ensure listings: %w", spec.tempTable, err)
	}

	if _, err := tx.Exec(ctx, spec.insertSQL, int(season)); err != nil {
		return fmt.Errorf("bulk insert %s: insert: %w", spec.tempTable, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("bulk insert %s: commit: %w", spec.tempTable, err)
	}

	s.logger.Debug("bulk insert committed",
		"table", spec.tempTable,
		"rows", len(rows),
		"duration", time.Since(start),
	)
	return nil
}

// GetByExternalID reads a listing's current snapshot by its marketplace card
// id, optionally with full price/order history.
func (s *ListingStore) GetByExternalID(ctx context.Context, season model.Season, cardID model.CardID, includeHistory bool) (model.ListingDetail, error) {
	var (
		detail model.ListingDetail
		id     int64
	)

	err := s.pool.QueryRow(ctx, `
		SELECT id, name, buy_price, sell_price
		FROM listings
		WHERE season = $1 AND card_id = $2
	`, int(season), int64(cardID)).Scan(&id, &detail.Name, &detail.BuyPrice, &detail.SellPrice)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ListingDetail{}, ErrNotFound
	}
	if err != nil {
		return model.ListingDetail{}, fmt.Errorf("get listing %d/%d: %w", season, cardID, err)
	}

	detail.Season = season
	detail.CardID = cardID

	if !includeHistory {
		return detail, nil
	}

	prices, err := s.pool.Query(ctx, `
		SELECT date, buy_price, sell_price
		FROM listing_historical_prices
		WHERE listing_id = $1
		ORDER BY date
	`, id)
	if err != nil {
		return model.ListingDetail{}, fmt.Errorf("get listing %d/%d prices: %w", season, cardID, err)
	}
	defer prices.Close()

	for prices.Next() {
		p := model.PriceFact{CardID: cardID}
		if err := prices.Scan(&p.Date, &p.BuyPrice, &p.SellPrice); err != nil {
			return model.ListingDetail{}, fmt.Errorf("scan price row: %w", err)
		}
		detail.Prices = append(detail.Prices, p)
	}
	if err := prices.Err(); err != nil {
		return model.ListingDetail{}, fmt.Errorf("get listing %d/%d prices: %w", season, cardID, err)
	}

	orders, err := s.pool.Query(ctx, `
		SELECT order_ts, price, quantity
		FROM listing_orders
		WHERE listing_id = $1
		ORDER BY order_ts
	`, id)
	if err != nil {
		return model.ListingDetail{}, fmt.Errorf("get listing %d/%d orders: %w", season, cardID, err)
	}
	defer orders.Close()

	for orders.Next() {
		o := model.OrderFact{CardID: cardID}
		if err := orders.Scan(&o.Timestamp, &o.Price, &o.Quantity); err != nil {
			return model.ListingDetail{}, fmt.Errorf("scan order row: %w", err)
		}
		detail.Orders = append(detail.Orders, o)
	}
	if err := orders.Err(); err != nil {
		return model.ListingDetail{}, fmt.Errorf("get listing %d/%d orders: %w", season, cardID, err)
	}

	return detail, nil
}
