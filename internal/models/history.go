// Package models defines the shared data shapes passed between the market
// data layer, the dividend/projection/simulation pipeline and the ranker.
package models

import (
	"fmt"
	"time"
)

// PricePoint is one trading day of history: the closing price and the
// dividend that went ex on that day (0 on non-ex-dividend days).
type PricePoint struct {
	Date     time.Time `json:"date"`
	Close    float64   `json:"close"`
	Dividend float64   `json:"dividend"`
}

// PriceHistory is an ascending, one-point-per-trading-day series.
type PriceHistory []PricePoint

// Validate checks the ordering and dividend invariants. It does not attempt
// to repair anything; a malformed series aborts the whole ticker.
func (h PriceHistory) Validate() error {
	for i := range h {
		if h[i].Dividend < 0 {
			return fmt.Errorf("negative dividend %.4f at index %d", h[i].Dividend, i)
		}
		if i > 0 && !h[i].Date.After(h[i-1].Date) {
			return fmt.Errorf("dates not strictly ascending at index %d (%s -> %s)",
				i, h[i-1].Date.Format("2006-01-02"), h[i].Date.Format("2006-01-02"))
		}
	}
	return nil
}

// Closes returns the closing prices as a bare slice.
func (h PriceHistory) Closes() []float64 {
	out := make([]float64, len(h))
	for i := range h {
		out[i] = h[i].Close
	}
	return out
}

// DividendPeriod is one closed accrual window: Start is the previous
// ex-dividend date (exclusive), End is this period's ex-dividend date
// (inclusive). Amount is priced in linearly across the period.
type DividendPeriod struct {
	Start  time.Time
	End    time.Time
	Amount float64
}

// NakedHistory is the dividend-stripped view of a PriceHistory.
//
// Closes[i] = raw close[i] + Adjustments[i], where each adjustment is 0 right
// after a payout and grows more negative approaching the next ex-div date.
type NakedHistory struct {
	Dates       []time.Time
	Closes      []float64
	Adjustments []float64

	// CurrentPrice is the naked value of today's price, extrapolated past
	// the last recorded ex-dividend date.
	CurrentPrice float64

	// LastExDivIndex is the index of the day before the most recent
	// ex-dividend date (the last day with the full payout priced in), or
	// -1 when the ticker has never paid a dividend.
	LastExDivIndex int

	// LastPeriodDays is the length in business days of the most recent
	// closed dividend period, or 0 when fewer than two dividends exist.
	LastPeriodDays int

	// LastDividend is the most recent payout amount, 0 if none.
	LastDividend float64

	Periods []DividendPeriod
}

// Len returns the number of days in the series.
func (n *NakedHistory) Len() int { return len(n.Closes) }
