package model

import (
	"testing"
	"time"
)

func TestPriceFact_NaturalKey(t *testing.T) {
	f := PriceFact{
		CardID:    158023,
		Date:      time.Date(2025, 3, 25, 0, 0, 0, 0, time.UTC),
		BuyPrice:  1200,
		SellPrice: 1350,
	}

	if got := f.NaturalKey(); got != "2025-03-25" {
		t.Errorf("NaturalKey() = %q, want %q", got, "2025-03-25")
	}
	if f.Kind() != KindPrice {
		t.Errorf("Kind() = %q, want %q", f.Kind(), KindPrice)
	}
	if f.Card() != 158023 {
		t.Errorf("Card() = %d, want 158023", f.Card())
	}
}

func TestPriceFact_NaturalKey_NormalizesTimezone(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)

	// 23:00 EST on the 25th is 04:00 UTC on the 26th.
	f := PriceFact{Date: time.Date(2025, 3, 25, 23, 0, 0, 0, est)}

	if got := f.NaturalKey(); got != "2025-03-26" {
		t.Errorf("NaturalKey() = %q, want %q", got, "2025-03-26")
	}
}

func TestOrderFact_NaturalKey(t *testing.T) {
	ts := time.Date(2025, 3, 25, 14, 30, 45, 0, time.UTC)
	f := OrderFact{
		CardID:    158023,
		Timestamp: ts,
		Price:     1250,
		Quantity:  3,
	}

	want := "1742913045-1250-3"
	if got := f.NaturalKey(); got != want {
		t.Errorf("NaturalKey() = %q, want %q", got, want)
	}
	if f.Kind() != KindOrder {
		t.Errorf("Kind() = %q, want %q", f.Kind(), KindOrder)
	}
}

func TestOrderFact_NaturalKey_DistinguishesContent(t *testing.T) {
	ts := time.Date(2025, 3, 25, 14, 30, 45, 0, time.UTC)
	a := OrderFact{Timestamp: ts, Price: 1250, Quantity: 3}
	b := OrderFact{Timestamp: ts, Price: 1250, Quantity: 4}
	c := OrderFact{Timestamp: ts, Price: 1300, Quantity: 3}

	if a.NaturalKey() == b.NaturalKey() {
		t.Error("orders with different quantities share a natural key")
	}
	if a.NaturalKey() == c.NaturalKey() {
		t.Error("orders with different prices share a natural key")
	}
}

func TestDay(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)

	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			name: "already midnight UTC",
			in:   time.Date(2025, 3, 25, 0, 0, 0, 0, time.UTC),
			want: time.Date(2025, 3, 25, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "mid-day truncated",
			in:   time.Date(2025, 3, 25, 14, 30, 45, 123, time.UTC),
			want: time.Date(2025, 3, 25, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "crosses date line when converted to UTC",
			in:   time.Date(2025, 3, 25, 23, 0, 0, 0, est),
			want: time.Date(2025, 3, 26, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Day(tt.in); !got.Equal(tt.want) {
				t.Errorf("Day(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
