// Package mock provides a deterministic offline market data provider. It is
// used in tests and for dry runs when no API key is configured: the same
// inputs always produce the same history, chain and dividend schedule.
package mock

import (
	"context"
	"math"
	"time"

	"github.com/jacktan1/Options-Project/internal/dividend"
	"github.com/jacktan1/Options-Project/internal/marketdata"
	"github.com/jacktan1/Options-Project/internal/models"
	"github.com/jacktan1/Options-Project/internal/util"
)

// Provider serves synthetic market data for one symbol.
type Provider struct {
	symbol       string
	dataDate     time.Time
	currentPrice float64
	historyDays  int
	divAmount    float64
	divEvery     int // business days between ex-dividend dates
}

var _ marketdata.Provider = (*Provider)(nil)

// NewProvider builds a provider anchored at dataDate. The synthetic series
// pays a fixed dividend on a fixed business-day cycle so the adjustment and
// inference paths both get exercised.
func NewProvider(symbol string, dataDate time.Time) *Provider {
	return &Provider{
		symbol:       symbol,
		dataDate:     dataDate,
		currentPrice: 150.0,
		historyDays:  504,
		divAmount:    1.25,
		divEvery:     63,
	}
}

// GetCurrentPrice returns the fixed synthetic spot price.
func (p *Provider) GetCurrentPrice(_ context.Context, _ string) (float64, error) {
	return p.currentPrice, nil
}

// GetPriceHistory returns an ascending daily series ending the business day
// before dataDate. Closes follow a slow sine drift around the spot price and
// a dividend of divAmount lands every divEvery business days.
func (p *Provider) GetPriceHistory(_ context.Context, _ string) (models.PriceHistory, error) {
	history := make(models.PriceHistory, 0, p.historyDays)

	date := p.dataDate
	for i := 0; i < p.historyDays; i++ {
		date = previousBusinessDay(date)
	}

	for i := 0; i < p.historyDays; i++ {
		date = util.NextBusinessDay(date)
		point := models.PricePoint{
			Date:  date,
			Close: p.currentPrice + 10*math.Sin(2*math.Pi*float64(i)/252),
		}
		if (i+1)%p.divEvery == 0 {
			point.Dividend = p.divAmount
		}
		history = append(history, point)
	}
	return history, nil
}

// GetExpirations returns four synthetic monthly expiries after dataDate.
func (p *Provider) GetExpirations(_ context.Context, _ string) ([]time.Time, error) {
	out := make([]time.Time, 0, 4)
	d := p.dataDate
	for i := 0; i < 4; i++ {
		for j := 0; j < 21; j++ {
			d = util.NextBusinessDay(d)
		}
		out = append(out, d)
	}
	return out, nil
}

// GetOptionChain generates quotes for strikes in $5 steps around the spot.
// Premiums decay exponentially with distance from the money, so deep wings
// quote near zero the way a real chain does.
func (p *Provider) GetOptionChain(_ context.Context, _ string, expiry time.Time) (*models.QuoteTable, error) {
	days := util.CountBusinessDays(p.dataDate, expiry)
	if days < 1 {
		days = 1
	}
	timeValue := 3.0 * math.Sqrt(float64(days)/252.0) * p.currentPrice / 100

	table := &models.QuoteTable{
		Symbol:   p.symbol,
		DataDate: p.dataDate,
		Expiry:   expiry,
		Rows:     make([]models.QuoteRow, 0, 21),
	}

	start := math.Floor(p.currentPrice/5)*5 - 50
	for strike := start; strike <= start+100; strike += 5 {
		callIntrinsic := math.Max(p.currentPrice-strike, 0)
		putIntrinsic := math.Max(strike-p.currentPrice, 0)
		decay := math.Exp(-math.Abs(strike-p.currentPrice) * 0.03)

		callMid := callIntrinsic + timeValue*decay
		putMid := putIntrinsic + timeValue*decay

		table.Rows = append(table.Rows, models.QuoteRow{
			Strike:      strike,
			CallBid:     util.RoundToTick(math.Max(callMid-0.05, 0), 0.01),
			CallAsk:     util.RoundToTick(callMid+0.05, 0.01),
			CallBidSize: 10,
			CallAskSize: 10,
			PutBid:      util.RoundToTick(math.Max(putMid-0.05, 0), 0.01),
			PutAsk:      util.RoundToTick(putMid+0.05, 0.01),
			PutBidSize:  10,
			PutAskSize:  10,
		})
	}
	return table, nil
}

// GetNextDividend schedules the next ex-dividend date divEvery business days
// after the last one in the synthetic history.
func (p *Provider) GetNextDividend(ctx context.Context, symbol string) (*dividend.NextDividend, error) {
	history, err := p.GetPriceHistory(ctx, symbol)
	if err != nil {
		return nil, err
	}
	var lastExDate time.Time
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Dividend > 0 {
			lastExDate = history[i].Date
			break
		}
	}
	if lastExDate.IsZero() {
		return nil, nil
	}
	return &dividend.NextDividend{
		ExDate: util.AddBusinessDays(lastExDate, p.divEvery),
		Amount: p.divAmount,
	}, nil
}

func previousBusinessDay(t time.Time) time.Time {
	d := t.AddDate(0, 0, -1)
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, -1)
	}
	return d
}
