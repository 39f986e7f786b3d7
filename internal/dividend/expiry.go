package dividend

import (
	"errors"
	"time"

	"github.com/jacktan1/Options-Project/internal/models"
	"github.com/jacktan1/Options-Project/internal/util"
)

// ErrInferenceUnavailable means the next ex-dividend date could not be
// projected: no live feed value and fewer than two historical dividend
// events. Downstream simulation for the ticker should be skipped, never run
// against an undefined dividend assumption.
var ErrInferenceUnavailable = errors.New("cannot infer next dividend period")

// NextDividend is a live dividends feed's view of the upcoming payout.
// Fetching it is a collaborator concern; the adjuster only consumes the
// result.
type NextDividend struct {
	ExDate time.Time
	Amount float64
}

// AdjustForExpiries re-inflates the naked current price for each expiry date
// by the fraction of the next dividend period elapsed at that date.
//
// The next period comes from the live feed value when one is supplied and
// usable; otherwise it is inferred to repeat the last closed period (same
// length, same amount). An expiry landing exactly on the day before the next
// ex-dividend date has the full payout priced back in. Tickers with no
// dividend history fall back explicitly to the naked price unchanged.
func AdjustForExpiries(naked *models.NakedHistory, expiries []time.Time, next *NextDividend) (map[time.Time]float64, error) {
	out := make(map[time.Time]float64, len(expiries))

	if naked.LastExDivIndex < 0 {
		// Never paid a dividend: nothing is being priced in.
		for _, e := range expiries {
			out[e] = naked.CurrentPrice
		}
		return out, nil
	}

	lastDivDate := naked.Dates[naked.LastExDivIndex]

	periodDays := 0
	amount := 0.0
	if next != nil {
		// The accrual window tops out one day before the next ex-div date.
		periodDays = util.CountBusinessDays(lastDivDate, next.ExDate) - 1
		amount = next.Amount
	}
	if periodDays <= 0 || amount <= 0 {
		// Feed missing or stale: assume the last period repeats.
		if naked.LastPeriodDays <= 0 || naked.LastDividend <= 0 {
			return nil, ErrInferenceUnavailable
		}
		periodDays = naked.LastPeriodDays
		amount = naked.LastDividend
	}

	for _, expiry := range expiries {
		days := util.CountBusinessDays(lastDivDate, expiry) % periodDays
		if days < 0 {
			days += periodDays
		}
		if days == 0 {
			// Expiry sits on the day before an ex-div date: full payout
			// priced in.
			out[expiry] = naked.CurrentPrice + amount
		} else {
			out[expiry] = naked.CurrentPrice + (float64(days)/float64(periodDays))*amount
		}
	}
	return out, nil
}
