// Package simulation computes the payoff distribution of selling call/put
// combinations against the historical-bootstrap price samples.
package simulation

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/jacktan1/Options-Project/internal/models"
)

// ErrEmptyQuoteTable marks a chain snapshot with no strikes. The
// (data date, expiry) pair is skipped, logged and the batch continues.
var ErrEmptyQuoteTable = errors.New("empty quote table")

// Config carries the commission and sizing constants of a simulation run.
type Config struct {
	FixedCommission    float64
	ContractCommission float64
	CallSellMax        int
	PutSellMax         int
}

// Simulator evaluates every (call strike, put strike, contract combo) cell of
// a chain snapshot against a final-price sample array.
type Simulator struct {
	cfg Config
}

// New returns a Simulator for the given constants.
func New(cfg Config) (*Simulator, error) {
	if cfg.CallSellMax < 0 || cfg.PutSellMax < 0 {
		return nil, fmt.Errorf("contract maxima must be non-negative (calls %d, puts %d)",
			cfg.CallSellMax, cfg.PutSellMax)
	}
	if cfg.FixedCommission < 0 || cfg.ContractCommission < 0 {
		return nil, fmt.Errorf("commissions must be non-negative")
	}
	return &Simulator{cfg: cfg}, nil
}

// Combos enumerates the L-shaped combo boundary actually evaluated: every
// call count with puts pinned at putMax, then every put count below putMax
// with calls pinned at callMax. One leg is always fully sized while the other
// varies; the interior of the rectangle is deliberately not simulated, it
// multiplies runtime without changing which boundary trades rank well.
func Combos(callMax, putMax int) []models.ContractCombo {
	combos := make([]models.ContractCombo, 0, callMax+putMax+1)
	for a := 0; a <= callMax; a++ {
		combos = append(combos, models.ContractCombo{Calls: a, Puts: putMax})
	}
	for b := putMax - 1; b >= 0; b-- {
		combos = append(combos, models.ContractCombo{Calls: callMax, Puts: b})
	}
	return combos
}

// Run builds the payoff cube for one (data date, expiry) pair.
//
// finalPrices is the bootstrap sample array; weights, when non-nil, must
// match its length and turns every reduction into its weighted form. A nil
// weights slice means uniform weighting. Missing premiums arrive as 0 and
// are priced as zero credit rather than excluded.
func (s *Simulator) Run(table *models.QuoteTable, finalPrices, weights []float64) (*models.PayoffCube, error) {
	numStrikes := len(table.Rows)
	if numStrikes == 0 {
		return nil, fmt.Errorf("%w: %s %s", ErrEmptyQuoteTable,
			table.Symbol, table.Expiry.Format("2006-01-02"))
	}
	numSamples := len(finalPrices)
	if numSamples == 0 {
		return nil, fmt.Errorf("no final-price samples for %s %s",
			table.Symbol, table.Expiry.Format("2006-01-02"))
	}
	if weights != nil && len(weights) != numSamples {
		return nil, fmt.Errorf("weights length %d does not match %d samples", len(weights), numSamples)
	}

	sumWeights := float64(numSamples)
	if weights != nil {
		sumWeights = floats.Sum(weights)
		if sumWeights <= 0 {
			return nil, fmt.Errorf("non-positive weight sum %.6f", sumWeights)
		}
	}

	// Per-sample short-leg values, one row per strike. callLeg is what one
	// sold call returns (before sizing) if the underlying lands on the
	// sample price; likewise putLeg for one sold put.
	callLegs := make([][]float64, numStrikes)
	putLegs := make([][]float64, numStrikes)
	for i, row := range table.Rows {
		callLegs[i] = make([]float64, numSamples)
		putLegs[i] = make([]float64, numSamples)
		for k, price := range finalPrices {
			callLegs[i][k] = min(row.Strike-price, 0) + row.CallBid
			putLegs[i][k] = min(price-row.Strike, 0) + row.PutBid
		}
	}

	combos := Combos(s.cfg.CallSellMax, s.cfg.PutSellMax)
	cube := models.NewPayoffCube(combos, numStrikes)

	callPart := make([]float64, numSamples)
	payoffs := make([]float64, numSamples)
	for page, combo := range combos {
		a, b := combo.Calls, combo.Puts
		if a == 0 && b == 0 {
			// Return per contract is undefined with zero contracts; the
			// page stays exactly zero by convention.
			continue
		}
		denom := float64(a + b)
		commTotal := s.commission(a) + s.commission(b)
		for i := 0; i < numStrikes; i++ {
			for k := 0; k < numSamples; k++ {
				callPart[k] = callLegs[i][k] * float64(a) * 100
			}
			for j := 0; j < numStrikes; j++ {
				putLeg := putLegs[j]
				for k := 0; k < numSamples; k++ {
					payoffs[k] = (callPart[k] + putLeg[k]*float64(b)*100 - commTotal) / denom
				}
				cube.Set(page, i, j, reduce(payoffs, weights, sumWeights))
			}
		}
	}
	return cube, nil
}

// reduce collapses the per-sample payoffs of one cell into its three
// statistics. Divide-by-zero cases resolve to 0 by convention so NaN can
// never leak into the ranker.
func reduce(payoffs, weights []float64, sumWeights float64) models.CellStats {
	inMoney := 0.0
	riskSum := 0.0
	riskWeight := 0.0
	for k, p := range payoffs {
		w := 1.0
		if weights != nil {
			w = weights[k]
		}
		if p > 0 {
			inMoney += w
		} else {
			riskSum += p * w
			riskWeight += w
		}
	}
	risk := 0.0
	if riskWeight > 0 {
		risk = riskSum / riskWeight
	}
	return models.CellStats{
		PercentInMoney: inMoney / sumWeights * 100,
		AvgReturn:      stat.Mean(payoffs, weights),
		RiskMoney:      risk,
	}
}

func (s *Simulator) commission(contracts int) float64 {
	if contracts <= 0 {
		return 0
	}
	return s.cfg.FixedCommission + float64(contracts)*s.cfg.ContractCommission
}
