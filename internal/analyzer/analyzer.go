// Package analyzer wires the full pipeline together: fetch market data,
// strip dividends, project expiry prices, simulate payoffs and rank the
// surviving combos. One Run covers one symbol on one data date.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jacktan1/Options-Project/internal/config"
	"github.com/jacktan1/Options-Project/internal/csvstore"
	"github.com/jacktan1/Options-Project/internal/dividend"
	"github.com/jacktan1/Options-Project/internal/marketdata"
	"github.com/jacktan1/Options-Project/internal/models"
	"github.com/jacktan1/Options-Project/internal/projection"
	"github.com/jacktan1/Options-Project/internal/ranking"
	"github.com/jacktan1/Options-Project/internal/simulation"
	"github.com/jacktan1/Options-Project/internal/util"
)

// maxConcurrentExpiries caps the per-expiry worker pool. Chains are fetched
// and simulated independently, but the upstream feed rate-limits aggressively.
const maxConcurrentExpiries = 4

// Skip records one expiry that produced no candidates and why.
type Skip struct {
	Expiry time.Time
	Reason string
}

// Result is the outcome of one analysis run.
type Result struct {
	RunID      string
	Symbol     string
	DataDate   time.Time
	Candidates []models.TradeCandidate
	Skipped    []Skip
}

// Analyzer drives the per-expiry pipeline.
type Analyzer struct {
	cfg      *config.Config
	provider marketdata.Provider
	store    *csvstore.Store
	adjuster *dividend.Adjuster
	sim      *simulation.Simulator
	ranker   *ranking.Ranker
	log      zerolog.Logger
}

// New validates the analysis settings and builds an Analyzer.
func New(cfg *config.Config, provider marketdata.Provider, store *csvstore.Store, logger zerolog.Logger) (*Analyzer, error) {
	sim, err := simulation.New(simulation.Config{
		FixedCommission:    cfg.Analysis.FixedCommission,
		ContractCommission: cfg.Analysis.ContractCommission,
		CallSellMax:        cfg.Analysis.CallSellMax,
		PutSellMax:         cfg.Analysis.PutSellMax,
	})
	if err != nil {
		return nil, fmt.Errorf("building simulator: %w", err)
	}

	ranker, err := ranking.New(ranking.Config{
		InMoneyThreshold: cfg.Analysis.InMoneyThreshold,
		SegmentWidth:     cfg.Analysis.SegmentWidth,
		MaxPerSegment:    cfg.Analysis.MaxPerSegment,
	})
	if err != nil {
		return nil, fmt.Errorf("building ranker: %w", err)
	}

	return &Analyzer{
		cfg:      cfg,
		provider: provider,
		store:    store,
		adjuster: dividend.NewAdjuster(cfg.Analysis.NumDaysYear),
		sim:      sim,
		ranker:   ranker,
		log:      logger,
	}, nil
}

// Run analyzes every listed expiry for the configured symbol as of dataDate
// and returns the ranked candidates across all of them. Individual expiries
// that cannot be analyzed are skipped with a reason; Run fails only when the
// shared inputs (price, history, dividend anchors) cannot be assembled.
func (a *Analyzer) Run(ctx context.Context, dataDate time.Time) (*Result, error) {
	symbol := a.cfg.Analysis.Symbol
	result := &Result{
		RunID:    uuid.NewString(),
		Symbol:   symbol,
		DataDate: dataDate,
	}
	log := a.log.With().Str("run_id", result.RunID).Str("symbol", symbol).Logger()

	price, err := a.provider.GetCurrentPrice(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("fetching current price: %w", err)
	}

	history, err := a.provider.GetPriceHistory(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("fetching price history: %w", err)
	}

	naked, err := a.adjuster.Strip(history, price)
	if err != nil {
		return nil, fmt.Errorf("stripping dividends: %w", err)
	}
	log.Info().
		Int("history_days", naked.Len()).
		Float64("current_price", price).
		Float64("naked_current_price", naked.CurrentPrice).
		Msg("dividend adjustment complete")

	allExpiries, err := a.provider.GetExpirations(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("fetching expirations: %w", err)
	}
	expiries := make([]time.Time, 0, len(allExpiries))
	for _, e := range allExpiries {
		if e.After(dataDate) {
			expiries = append(expiries, e)
		}
	}
	if len(expiries) == 0 {
		return nil, fmt.Errorf("no expirations after %s", dataDate.Format("2006-01-02"))
	}

	// The next-dividend feed failing is not fatal: the adjuster falls back
	// to inferring the schedule from the history.
	next, err := a.provider.GetNextDividend(ctx, symbol)
	if err != nil {
		log.Warn().Err(err).Msg("next dividend unavailable, inferring from history")
		next = nil
	}

	anchors, err := dividend.AdjustForExpiries(naked, expiries, next)
	if err != nil {
		return nil, fmt.Errorf("computing expiry anchors: %w", err)
	}

	type expiryOutcome struct {
		candidates []models.TradeCandidate
		skip       *Skip
	}
	outcomes := make([]expiryOutcome, len(expiries))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentExpiries)
	for i, expiry := range expiries {
		g.Go(func() error {
			candidates, skipReason, err := a.analyzeExpiry(gctx, dataDate, expiry, naked, anchors[expiry])
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			if skipReason != "" {
				outcomes[i] = expiryOutcome{skip: &Skip{Expiry: expiry, Reason: skipReason}}
				return nil
			}
			outcomes[i] = expiryOutcome{candidates: candidates}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, o := range outcomes {
		if o.skip != nil {
			result.Skipped = append(result.Skipped, *o.skip)
			log.Warn().
				Str("expiry", o.skip.Expiry.Format("2006-01-02")).
				Str("reason", o.skip.Reason).
				Msg("expiry skipped")
			continue
		}
		result.Candidates = append(result.Candidates, o.candidates...)
	}

	sortCandidates(result.Candidates)

	log.Info().
		Int("expiries", len(expiries)).
		Int("skipped", len(result.Skipped)).
		Int("candidates", len(result.Candidates)).
		Msg("analysis complete")
	return result, nil
}

// analyzeExpiry runs the chain fetch, projection, simulation and ranking for
// one expiry. A non-empty skip reason means the expiry cannot be analyzed
// but the run should continue.
func (a *Analyzer) analyzeExpiry(ctx context.Context, dataDate, expiry time.Time, naked *models.NakedHistory, anchor float64) ([]models.TradeCandidate, string, error) {
	symbol := a.cfg.Analysis.Symbol

	table, err := a.fetchChain(ctx, symbol, dataDate, expiry)
	if err != nil {
		if errors.Is(err, csvstore.ErrNotFound) {
			return nil, "chain unavailable and no cached snapshot", nil
		}
		return nil, "", err
	}

	// The expiry day itself still counts as a trading day.
	horizon := util.CountBusinessDays(dataDate, expiry) + 1

	finalPrices, err := projection.Bootstrap(naked, anchor, horizon)
	if err != nil {
		if errors.Is(err, projection.ErrInvalidHorizon) {
			return nil, fmt.Sprintf("horizon %d not projectable from %d history days", horizon, naked.Len()), nil
		}
		return nil, "", fmt.Errorf("projecting %s: %w", expiry.Format("2006-01-02"), err)
	}

	var weights []float64
	if w := a.cfg.Analysis.Weighting; w.Enabled {
		weights = projection.CosineWeights(len(finalPrices), w.WeightGain, w.BaseWeight, w.Period)
	} else {
		weights = projection.UniformWeights(len(finalPrices))
	}

	cube, err := a.sim.Run(table, finalPrices, weights)
	if err != nil {
		if errors.Is(err, simulation.ErrEmptyQuoteTable) {
			return nil, "empty quote table", nil
		}
		return nil, "", fmt.Errorf("simulating %s: %w", expiry.Format("2006-01-02"), err)
	}

	candidates, err := a.ranker.Rank(cube, table, horizon)
	if err != nil {
		return nil, "", fmt.Errorf("ranking %s: %w", expiry.Format("2006-01-02"), err)
	}
	if len(candidates) == 0 {
		return nil, "no combo cleared the confidence threshold", nil
	}
	return candidates, "", nil
}

// fetchChain pulls the live chain and snapshots it, or substitutes the most
// recent cached snapshot when the feed is down or returns a dead chain.
func (a *Analyzer) fetchChain(ctx context.Context, symbol string, dataDate, expiry time.Time) (*models.QuoteTable, error) {
	table, err := a.provider.GetOptionChain(ctx, symbol, expiry)
	if err == nil && table != nil && len(table.Rows) > 0 && !table.AllBidsEmpty() {
		if saveErr := a.store.SaveQuotes(table); saveErr != nil {
			a.log.Warn().Err(saveErr).
				Str("expiry", expiry.Format("2006-01-02")).
				Msg("failed to snapshot chain")
		}
		return table, nil
	}
	if err != nil {
		a.log.Warn().Err(err).
			Str("expiry", expiry.Format("2006-01-02")).
			Msg("chain fetch failed, trying cached snapshot")
	} else {
		a.log.Warn().
			Str("expiry", expiry.Format("2006-01-02")).
			Msg("chain has no live bids, trying cached snapshot")
	}
	return a.store.LoadQuotes(symbol, dataDate, expiry)
}

// sortCandidates orders the merged cross-expiry list deterministically:
// score descending, then expiry, then strikes and contract counts.
func sortCandidates(candidates []models.TradeCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.Expiry.Equal(b.Expiry) {
			return a.Expiry.Before(b.Expiry)
		}
		if a.CallStrike != b.CallStrike {
			return a.CallStrike < b.CallStrike
		}
		if a.PutStrike != b.PutStrike {
			return a.PutStrike < b.PutStrike
		}
		if a.NumCalls != b.NumCalls {
			return a.NumCalls < b.NumCalls
		}
		return a.NumPuts < b.NumPuts
	})
}
