package model

import (
	"fmt"
	"time"
)

// Season identifies one marketplace season (e.g., 25 for the 2025 season).
type Season int

// CardID is the external marketplace identifier for a card.
type CardID int64

// FactKind discriminates the two fact streams kept per season.
type FactKind string

const (
	// KindPrice is the daily best-price stream.
	KindPrice FactKind = "price"

	// KindOrder is the completed-order stream.
	KindOrder FactKind = "order"
)

// Kinds lists all fact kinds, in drain order.
var Kinds = []FactKind{KindPrice, KindOrder}

// Fact is an immutable, timestamped observation about a card's listing.
// A fact's identity is (card, kind, natural key); re-submitting an
// already-seen fact must not create a second log entry.
type Fact interface {
	Card() CardID
	Kind() FactKind

	// NaturalKey returns the deterministic dedup key for this fact.
	// Two facts with equal (card, kind, natural key) are the same observation.
	NaturalKey() string
}

// -----------------------------------------------------------------------------
// Facts
// -----------------------------------------------------------------------------

// PriceFact records the best buy/sell price observed for a card on one
// calendar day.
type PriceFact struct {
	CardID    CardID    // External card ID
	Date      time.Time // Calendar day (UTC midnight)
	BuyPrice  int64     // Best buy price (coins)
	SellPrice int64     // Best sell price (coins)
}

func (f PriceFact) Card() CardID   { return f.CardID }
func (f PriceFact) Kind() FactKind { return KindPrice }

// NaturalKey is the fact's calendar date, e.g. "2025-03-25".
func (f PriceFact) NaturalKey() string {
	return f.Date.UTC().Format("2006-01-02")
}

// OrderFact records one completed order for a card.
type OrderFact struct {
	CardID    CardID    // External card ID
	Timestamp time.Time // Execution time (second granularity, UTC)
	Price     int64     // Execution price (coins)
	Quantity  int64     // Number of cards
}

func (f OrderFact) Card() CardID   { return f.CardID }
func (f OrderFact) Kind() FactKind { return KindOrder }

// NaturalKey is "{unix}-{price}-{quantity}". Two orders executed in the same
// second at the same price and quantity are indistinguishable in the
// marketplace feed and are treated as one observation.
func (f OrderFact) NaturalKey() string {
	return fmt.Sprintf("%d-%d-%d", f.Timestamp.UTC().Unix(), f.Price, f.Quantity)
}

// -----------------------------------------------------------------------------
// Relational Types
// -----------------------------------------------------------------------------

// Listing is the current relational snapshot of one card in one season.
type Listing struct {
	Season    Season // Season number
	CardID    CardID // External card ID
	Name      string // Card display name
	BuyPrice  int64  // Current best buy price (coins)
	SellPrice int64  // Current best sell price (coins)
}

// ListingDetail is a listing plus its full historical detail, as stored by
// the relational sink.
type ListingDetail struct {
	Listing
	Prices []PriceFact // Historical daily prices, oldest first
	Orders []OrderFact // Completed orders, oldest first
}

// -----------------------------------------------------------------------------
// Derived Types
// -----------------------------------------------------------------------------

// Snapshot is the log-derived view of one card's listing. It reflects every
// fact appended so far, including facts not yet drained to the relational
// sink. Not authoritative; always reconstructable from the log.
type Snapshot struct {
	Season    Season
	CardID    CardID
	Name      string      // Last name recorded for the card, "" if unknown
	BuyPrice  int64       // Best buy price from the newest price fact
	SellPrice int64       // Best sell price from the newest price fact
	Prices    []PriceFact // All price facts, date order
	Orders    []OrderFact // All order facts, timestamp order
}

// Day truncates t to UTC midnight. Price facts and cold-storage partitions
// both key on this.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
