package eventlog

import (
	"context"
	"testing"
	"time"

	"github.com/tomvargas/cardmarket-data/internal/model"
)

func TestPeek_UnknownCard(t *testing.T) {
	s := openTestStore(t)

	snap, err := s.Peek(context.Background(), 25, 999)
	if err != nil {
		t.Fatalf("Peek() error = %v", err)
	}
	if snap.Name != "" || len(snap.Prices) != 0 || len(snap.Orders) != 0 {
		t.Errorf("Peek() for unknown card = %+v, want empty snapshot", snap)
	}
	if snap.Season != 25 || snap.CardID != 999 {
		t.Errorf("Peek() identity = %d/%d, want 25/999", snap.Season, snap.CardID)
	}
}

func TestPeek_CombinesBothStreams(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	s.RecordCard(ctx, 25, 7, "Left Winger")
	s.Append(ctx, 25, priceFact(7, "2025-03-25", 100, 120))
	s.Append(ctx, 25, priceFact(7, "2025-03-26", 110, 130))
	s.Append(ctx, 25, model.OrderFact{
		CardID:    7,
		Timestamp: time.Date(2025, 3, 26, 9, 0, 0, 0, time.UTC),
		Price:     115,
		Quantity:  2,
	})

	snap, err := s.Peek(ctx, 25, 7)
	if err != nil {
		t.Fatalf("Peek() error = %v", err)
	}

	if snap.Name != "Left Winger" {
		t.Errorf("Name = %q, want %q", snap.Name, "Left Winger")
	}
	if len(snap.Prices) != 2 {
		t.Errorf("len(Prices) = %d, want 2", len(snap.Prices))
	}
	if len(snap.Orders) != 1 {
		t.Errorf("len(Orders) = %d, want 1", len(snap.Orders))
	}
	if snap.BuyPrice != 110 || snap.SellPrice != 130 {
		t.Errorf("current = %d/%d, want 110/130", snap.BuyPrice, snap.SellPrice)
	}
}

func TestPeek_IgnoresOtherCardsAndSeasons(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	s.Append(ctx, 25, priceFact(7, "2025-03-25", 100, 120))
	s.Append(ctx, 25, priceFact(8, "2025-03-25", 500, 520))
	s.Append(ctx, 24, priceFact(7, "2025-03-25", 900, 920))

	snap, err := s.Peek(ctx, 25, 7)
	if err != nil {
		t.Fatalf("Peek() error = %v", err)
	}
	if len(snap.Prices) != 1 {
		t.Fatalf("len(Prices) = %d, want 1", len(snap.Prices))
	}
	if snap.BuyPrice != 100 {
		t.Errorf("BuyPrice = %d, want 100", snap.BuyPrice)
	}
}

func TestPeek_SeesUndrainedFacts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	s.Append(ctx, 25, priceFact(7, "2025-03-25", 1, 2))

	// Drain and acknowledge everything, then append a newer fact. Peek must
	// reflect it even though no consumer has drained it yet.
	_, next, err := s.Poll(ctx, 25, model.KindPrice, 100)
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if err := s.Acknowledge(ctx, 25, model.KindPrice, next); err != nil {
		t.Fatalf("Acknowledge() error = %v", err)
	}

	s.Append(ctx, 25, priceFact(7, "2025-03-26", 10, 20))

	snap, err := s.Peek(ctx, 25, 7)
	if err != nil {
		t.Fatalf("Peek() error = %v", err)
	}
	if snap.BuyPrice != 10 || snap.SellPrice != 20 {
		t.Errorf("current = %d/%d, want 10/20 (undrained fact missing)",
			snap.BuyPrice, snap.SellPrice)
	}
}
