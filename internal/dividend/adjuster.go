// Package dividend strips the priced-in dividend expectation out of a raw
// price history and projects the naked price forward to option expiries.
package dividend

import (
	"errors"
	"fmt"
	"time"

	"github.com/jacktan1/Options-Project/internal/models"
)

// ErrInvalidHistory marks a malformed price series: empty, non-ascending
// dates or a negative dividend. Fatal for the ticker.
var ErrInvalidHistory = errors.New("invalid price history")

const defaultDaysPerYear = 252

// Adjuster converts raw price histories into naked (dividend-stripped) ones.
type Adjuster struct {
	daysPerYear int
}

// NewAdjuster returns an Adjuster using the given business-days-per-year
// constant. Non-positive values fall back to 252.
func NewAdjuster(daysPerYear int) *Adjuster {
	if daysPerYear <= 0 {
		daysPerYear = defaultDaysPerYear
	}
	return &Adjuster{daysPerYear: daysPerYear}
}

// Strip removes the linearly accrued dividend expectation from every day of
// the history and extrapolates a naked value for today's raw price.
//
// Each recorded dividend closes an accrual period ending on the day before
// its ex-dividend date: that day carries the full payout, and each earlier
// day of the period carries a linear fraction of it. The first dividend ever
// seen has no earlier marker, so its period is assumed to be one standard
// quarter (daysPerYear/4); the open tail after the last recorded dividend
// uses the same quarter assumption. A history with no dividends at all comes
// back unchanged.
func (a *Adjuster) Strip(history models.PriceHistory, currentPrice float64) (*models.NakedHistory, error) {
	if len(history) == 0 {
		return nil, fmt.Errorf("%w: empty series", ErrInvalidHistory)
	}
	if err := history.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHistory, err)
	}

	n := len(history)
	adj := make([]float64, n)
	quarter := float64(a.daysPerYear) / 4

	lastDivIndex := -1 // index of the day before the most recent ex-div date
	lastDiv := 0.0
	lastPeriodDays := 0
	seenDividend := false
	var periods []models.DividendPeriod

	for i := 0; i < n; i++ {
		amount := history[i].Dividend
		if amount == 0 {
			continue
		}
		lastDiv = amount
		if !seenDividend {
			// No earlier marker: retro-distribute across an assumed
			// quarter so the day before this ex-div carries the full
			// payout.
			for m := 0; m < i; m++ {
				adj[m] = -((quarter - float64(i-1) + float64(m)) / quarter) * amount
			}
			periods = append(periods, models.DividendPeriod{
				Start:  history[0].Date,
				End:    history[i].Date,
				Amount: amount,
			})
			lastDivIndex = i - 1
			seenDividend = true
			continue
		}
		// Closed period: business days from the day after the previous
		// ex-div through the day before this one, inclusive.
		length := (i - 1) - lastDivIndex
		if length > 0 {
			for m := 0; m < length; m++ {
				adj[lastDivIndex+1+m] = -(float64(m+1) / float64(length)) * amount
			}
			lastPeriodDays = length
		}
		periods = append(periods, models.DividendPeriod{
			Start:  history[lastDivIndex+1].Date,
			End:    history[i].Date,
			Amount: amount,
		})
		lastDivIndex = i - 1
	}

	naked := &models.NakedHistory{
		Dates:          make([]time.Time, n),
		Closes:         make([]float64, n),
		Adjustments:    adj,
		LastExDivIndex: lastDivIndex,
		LastPeriodDays: lastPeriodDays,
		LastDividend:   lastDiv,
		Periods:        periods,
	}
	for i := 0; i < n; i++ {
		naked.Dates[i] = history[i].Date
		naked.Closes[i] = history[i].Close + adj[i]
	}

	if !seenDividend {
		naked.CurrentPrice = currentPrice
		return naked, nil
	}

	// Open tail: the next ex-div date is unknown, so accrue against the
	// quarter assumption. Only day-over-day ratios matter downstream, so
	// the approximation is acceptable.
	tail := (n - 1) - lastDivIndex
	for k := 0; k < tail; k++ {
		adj[lastDivIndex+1+k] = -(float64(k+1) / quarter) * lastDiv
		naked.Closes[lastDivIndex+1+k] = history[lastDivIndex+1+k].Close + adj[lastDivIndex+1+k]
	}
	// Today is one business day past the last recorded close.
	naked.CurrentPrice = currentPrice - (float64(tail+1)/quarter)*lastDiv

	return naked, nil
}
