// Package model defines shared data types used across the card market tracker.
//
// Conventions:
//   - Prices: int64 marketplace coins (the marketplace has no sub-coin precision)
//   - Price facts: day granularity, dates normalized to UTC midnight
//   - Order facts: second granularity, timestamps normalized to UTC
//   - IDs: int64 external marketplace card IDs, int season numbers
package model
