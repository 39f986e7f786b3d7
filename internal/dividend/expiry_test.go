package dividend

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacktan1/Options-Project/internal/models"
	"github.com/jacktan1/Options-Project/internal/util"
)

func nakedFixture(lastDivDate time.Time, lastPeriodDays int, lastDividend float64) *models.NakedHistory {
	return &models.NakedHistory{
		Dates:          []time.Time{lastDivDate},
		Closes:         []float64{100},
		Adjustments:    []float64{0},
		CurrentPrice:   100,
		LastExDivIndex: 0,
		LastPeriodDays: lastPeriodDays,
		LastDividend:   lastDividend,
	}
}

func TestAdjustForExpiriesWithLiveFeed(t *testing.T) {
	lastDiv := time.Date(2023, time.June, 5, 0, 0, 0, 0, time.UTC) // Monday
	naked := nakedFixture(lastDiv, 0, 0)

	// Next ex-div 5 business days out gives a 4-day accrual window.
	next := &NextDividend{ExDate: util.AddBusinessDays(lastDiv, 5), Amount: 2.0}

	halfway := util.AddBusinessDays(lastDiv, 2)
	preEx := util.AddBusinessDays(lastDiv, 4)
	scaled, err := AdjustForExpiries(naked, []time.Time{halfway, preEx}, next)
	require.NoError(t, err)

	// Two of four days elapsed: half the payout priced in.
	assert.InDelta(t, 101.0, scaled[halfway], 1e-12)
	// Day before the ex-div date: the whole payout priced in.
	assert.InDelta(t, 102.0, scaled[preEx], 1e-12)
}

func TestAdjustForExpiriesInfersFromLastPeriod(t *testing.T) {
	lastDiv := time.Date(2023, time.June, 5, 0, 0, 0, 0, time.UTC)
	naked := nakedFixture(lastDiv, 4, 2.0)

	halfway := util.AddBusinessDays(lastDiv, 2)
	scaled, err := AdjustForExpiries(naked, []time.Time{halfway}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 101.0, scaled[halfway], 1e-12)
}

func TestAdjustForExpiriesStaleFeedFallsBackToInference(t *testing.T) {
	lastDiv := time.Date(2023, time.June, 5, 0, 0, 0, 0, time.UTC)
	naked := nakedFixture(lastDiv, 4, 2.0)

	// Feed claims an ex-div date in the past: unusable window.
	next := &NextDividend{ExDate: lastDiv, Amount: 9.0}

	halfway := util.AddBusinessDays(lastDiv, 2)
	scaled, err := AdjustForExpiries(naked, []time.Time{halfway}, next)
	require.NoError(t, err)
	// Inference used the historical 2.0 amount, not the feed's 9.0.
	assert.InDelta(t, 101.0, scaled[halfway], 1e-12)
}

func TestAdjustForExpiriesInferenceUnavailable(t *testing.T) {
	lastDiv := time.Date(2023, time.June, 5, 0, 0, 0, 0, time.UTC)
	// One historical dividend: no closed period to extrapolate from.
	naked := nakedFixture(lastDiv, 0, 1.0)

	_, err := AdjustForExpiries(naked, []time.Time{util.AddBusinessDays(lastDiv, 3)}, nil)
	require.ErrorIs(t, err, ErrInferenceUnavailable)
}

func TestAdjustForExpiriesZeroDividendTicker(t *testing.T) {
	naked := &models.NakedHistory{
		Dates:          []time.Time{time.Date(2023, time.June, 5, 0, 0, 0, 0, time.UTC)},
		Closes:         []float64{85},
		Adjustments:    []float64{0},
		CurrentPrice:   85.5,
		LastExDivIndex: -1,
	}
	expiry := time.Date(2023, time.July, 21, 0, 0, 0, 0, time.UTC)

	scaled, err := AdjustForExpiries(naked, []time.Time{expiry}, nil)
	require.NoError(t, err)
	assert.Equal(t, 85.5, scaled[expiry])
}

func TestAdjustForExpiriesSpansMultiplePeriods(t *testing.T) {
	lastDiv := time.Date(2023, time.June, 5, 0, 0, 0, 0, time.UTC)
	naked := nakedFixture(lastDiv, 4, 2.0)

	// 6 business days out wraps past one full period: 6 mod 4 = 2 days in.
	farOut := util.AddBusinessDays(lastDiv, 6)
	scaled, err := AdjustForExpiries(naked, []time.Time{farOut}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 101.0, scaled[farOut], 1e-12)
}
