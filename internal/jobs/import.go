package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tomvargas/cardmarket-data/internal/marketapi"
	"github.com/tomvargas/cardmarket-data/internal/model"
	"github.com/tomvargas/cardmarket-data/internal/scheduler"
)

// Job type names used as scheduler keys.
const (
	TypeImport    = "import"
	TypeDrain     = "drain"
	TypeColdStore = "coldstore"
)

// ListingFetcher fetches one card's current listing from the marketplace.
type ListingFetcher interface {
	GetListing(ctx context.Context, season model.Season, cardID model.CardID) (*marketapi.ListingResponse, error)
}

// FactLog is the append side of the event log.
type FactLog interface {
	AppendBatch(ctx context.Context, season model.Season, facts []model.Fact) (int, error)
	RecordCard(ctx context.Context, season model.Season, cardID model.CardID, name string) error
}

// ImportResult summarizes one import run. It is broadcast as the job's
// status payload.
type ImportResult struct {
	Cards    int `json:"cards"`
	Appended int `json:"appended"`
	Failed   int `json:"failed"`
}

// ImportJob fetches the listing for every tracked card and appends the
// resulting facts to the event log. Fetches run concurrently up to a bound;
// a card that fails to fetch is counted and skipped so one flaky card does
// not block the rest of the import.
type ImportJob struct {
	fetcher     ListingFetcher
	log         FactLog
	cards       []model.CardID
	concurrency int
	logger      *slog.Logger
}

// NewImportJob creates an import job over the given tracked cards.
func NewImportJob(fetcher ListingFetcher, log FactLog, cards []model.CardID, concurrency int, logger *slog.Logger) *ImportJob {
	if logger == nil {
		logger = slog.Default()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &ImportJob{
		fetcher:     fetcher,
		log:         log,
		cards:       cards,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Func adapts the job to the scheduler. The key input is the season number.
func (j *ImportJob) Func() scheduler.JobFunc {
	return func(ctx context.Context, input string) (any, error) {
		season, err := parseSeason(input)
		if err != nil {
			return nil, err
		}
		return j.run(ctx, season)
	}
}

func (j *ImportJob) run(ctx context.Context, season model.Season) (ImportResult, error) {
	var (
		mu  sync.Mutex
		res ImportResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.concurrency)

	for _, cardID := range j.cards {
		cardID := cardID
		g.Go(func() error {
			listing, err := j.fetcher.GetListing(gctx, season, cardID)
			if err != nil {
				j.logger.Warn("fetch listing failed",
					"season", season,
					"card_id", cardID,
					"err", err,
				)
				mu.Lock()
				res.Failed++
				mu.Unlock()
				return nil
			}

			if err := j.log.RecordCard(gctx, season, cardID, listing.Name); err != nil {
				return fmt.Errorf("record card %d: %w", cardID, err)
			}

			appended, err := j.log.AppendBatch(gctx, season, listing.Facts())
			if err != nil {
				return fmt.Errorf("append facts for card %d: %w", cardID, err)
			}

			mu.Lock()
			res.Cards++
			res.Appended += appended
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return res, err
	}

	j.logger.Info("import run finished",
		"season", season,
		"cards", res.Cards,
		"appended", res.Appended,
		"failed", res.Failed,
	)

	// A partial import is still an error so the schedule retries on the next
	// tick; already appended facts are absorbed by dedup on the retry.
	if res.Failed > 0 {
		return res, fmt.Errorf("import season %d: %d of %d cards failed", season, res.Failed, len(j.cards))
	}
	return res, nil
}

func parseSeason(input string) (model.Season, error) {
	n, err := strconv.Atoi(input)
	if err != nil {
		return 0, fmt.Errorf("parse season %q: %w", input, err)
	}
	return model.Season(n), nil
}
