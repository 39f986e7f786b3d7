// Package ranking turns a payoff cube into the final table of trade
// candidates, bucketed by confidence band.
package ranking

import (
	"fmt"
	"sort"

	"github.com/jacktan1/Options-Project/internal/models"
)

// Config carries the filtering and segmentation policy.
type Config struct {
	InMoneyThreshold float64 // percent; cells at or below it are dropped
	SegmentWidth     float64 // percent width of each confidence band
	MaxPerSegment    int     // top-K kept per band
}

// Ranker scans payoff cubes and emits ranked candidates.
type Ranker struct {
	cfg Config
}

// New validates the policy and returns a Ranker.
func New(cfg Config) (*Ranker, error) {
	if cfg.InMoneyThreshold < 0 || cfg.InMoneyThreshold >= 100 {
		return nil, fmt.Errorf("in-money threshold %.2f must be in [0,100)", cfg.InMoneyThreshold)
	}
	if cfg.SegmentWidth <= 0 {
		return nil, fmt.Errorf("segment width must be positive, got %.2f", cfg.SegmentWidth)
	}
	if cfg.MaxPerSegment <= 0 {
		return nil, fmt.Errorf("max per segment must be positive, got %d", cfg.MaxPerSegment)
	}
	return &Ranker{cfg: cfg}, nil
}

// Rank filters the cube down to cells with positive per-day return and an
// in-money percentage above the threshold, partitions the survivors into
// confidence bands of SegmentWidth starting at the threshold (the topmost
// band closed at 100), and keeps the best MaxPerSegment per band by per-day
// return. Bands are independent top-K pools: output is grouped band by band,
// best first within each, with no global ordering across bands. Ties keep
// enumeration order (stable sort).
func (r *Ranker) Rank(cube *models.PayoffCube, table *models.QuoteTable, daysTillExpiry int) ([]models.TradeCandidate, error) {
	if daysTillExpiry <= 0 {
		return nil, fmt.Errorf("days till expiry must be positive, got %d", daysTillExpiry)
	}
	if len(table.Rows) != cube.Strikes {
		return nil, fmt.Errorf("quote table has %d strikes, cube has %d", len(table.Rows), cube.Strikes)
	}

	var survivors []models.TradeCandidate
	for page, combo := range cube.Combos {
		// With zero contracts on a leg that leg's strike is irrelevant;
		// scanning a single row/column avoids emitting S duplicates.
		iMax, jMax := cube.Strikes, cube.Strikes
		if combo.Calls == 0 {
			iMax = 1
		}
		if combo.Puts == 0 {
			jMax = 1
		}
		for i := 0; i < iMax; i++ {
			for j := 0; j < jMax; j++ {
				cell := cube.At(page, i, j)
				score := cell.AvgReturn / float64(daysTillExpiry)
				if score <= 0 || cell.PercentInMoney <= r.cfg.InMoneyThreshold {
					continue
				}
				survivors = append(survivors, models.TradeCandidate{
					Score:          score,
					Expiry:         table.Expiry,
					CallStrike:     table.Rows[i].Strike,
					CallPremium:    table.Rows[i].CallBid,
					NumCalls:       combo.Calls,
					PutStrike:      table.Rows[j].Strike,
					PutPremium:     table.Rows[j].PutBid,
					NumPuts:        combo.Puts,
					PercentInMoney: cell.PercentInMoney,
				})
			}
		}
	}

	numBands := int((100 - r.cfg.InMoneyThreshold) / r.cfg.SegmentWidth)
	if numBands < 1 {
		numBands = 1
	}

	out := make([]models.TradeCandidate, 0, numBands*r.cfg.MaxPerSegment)
	for band := 0; band < numBands; band++ {
		lo := r.cfg.InMoneyThreshold + float64(band)*r.cfg.SegmentWidth
		hi := lo + r.cfg.SegmentWidth
		last := band == numBands-1

		var pool []models.TradeCandidate
		for _, c := range survivors {
			if c.PercentInMoney < lo {
				continue
			}
			if !last && c.PercentInMoney >= hi {
				continue
			}
			pool = append(pool, c)
		}
		sort.SliceStable(pool, func(a, b int) bool { return pool[a].Score > pool[b].Score })
		if len(pool) > r.cfg.MaxPerSegment {
			pool = pool[:r.cfg.MaxPerSegment]
		}
		out = append(out, pool...)
	}
	return out, nil
}
