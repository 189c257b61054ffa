package marketapi

import (
	"context"
	"fmt"
	"time"

	"github.com/tomvargas/cardmarket-data/internal/model"
)

// ListingResponse is the marketplace payload for one card's listing.
type ListingResponse struct {
	CardID    int64           `json:"cardId"`
	Name      string          `json:"name"`
	BuyPrice  int64           `json:"buyPrice"`
	SellPrice int64           `json:"sellPrice"`
	Prices    []APIPricePoint `json:"prices"`
	Orders    []APIOrder      `json:"completedOrders"`
}

// APIPricePoint is one day of best prices.
type APIPricePoint struct {
	Date      string `json:"date"` // "2006-01-02"
	BuyPrice  int64  `json:"buyPrice"`
	SellPrice int64  `json:"sellPrice"`
}

// APIOrder is one completed order.
type APIOrder struct {
	Timestamp int64 `json:"timestamp"` // Unix seconds
	Price     int64 `json:"price"`
	Quantity  int64 `json:"quantity"`
}

// GetListing fetches the current listing for one card in one season.
func (c *Client) GetListing(ctx context.Context, season model.Season, cardID model.CardID) (*ListingResponse, error) {
	path := fmt.Sprintf("/seasons/%d/cards/%d", season, cardID)

	var resp ListingResponse
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("get listing %d/%d: %w", season, cardID, err)
	}

	return &resp, nil
}

// Facts converts a listing response to appendable log facts. Malformed
// price-point dates are skipped; the marketplace occasionally emits them for
// freshly listed cards.
func (r *ListingResponse) Facts() []model.Fact {
	facts := make([]model.Fact, 0, len(r.Prices)+len(r.Orders))

	for _, p := range r.Prices {
		date, err := time.Parse("2006-01-02", p.Date)
		if err != nil {
			continue
		}
		facts = append(facts, model.PriceFact{
			CardID:    model.CardID(r.CardID),
			Date:      date,
			BuyPrice:  p.BuyPrice,
			SellPrice: p.SellPrice,
		})
	}

	for _, o := range r.Orders {
		facts = append(facts, model.OrderFact{
			CardID:    model.CardID(r.CardID),
			Timestamp: time.Unix(o.Timestamp, 0).UTC(),
			Price:     o.Price,
			Quantity:  o.Quantity,
		})
	}

	return facts
}
