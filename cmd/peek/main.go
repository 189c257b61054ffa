// peek reconstructs a card's current state from the event log and prints it
// as JSON. It reads the same log file the tracker appends to, so it works
// while the tracker is running and before any drain has landed the facts in
// the relational sink.
//
// Usage: go run ./cmd/peek --log data/eventlog.db --season 25 --card 158023
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/tomvargas/cardmarket-data/internal/eventlog"
	"github.com/tomvargas/cardmarket-data/internal/model"
)

func main() {
	logPath := flag.String("log", "data/eventlog.db", "path to the event log")
	season := flag.Int("season", 0, "season number")
	card := flag.Int64("card", 0, "card id")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	if *season < 1 || *card < 1 {
		logger.Error("both --season and --card are required")
		os.Exit(2)
	}

	store, err := eventlog.Open(*logPath, logger)
	if err != nil {
		logger.Error("failed to open event log", "path", *logPath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	snapshot, err := store.Peek(ctx, model.Season(*season), model.CardID(*card))
	if err != nil {
		logger.Error("peek failed", "season", *season, "card", *card, "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snapshot); err != nil {
		logger.Error("encode snapshot", "error", err)
		os.Exit(1)
	}
}
