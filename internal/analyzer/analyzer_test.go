package analyzer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacktan1/Options-Project/internal/config"
	"github.com/jacktan1/Options-Project/internal/csvstore"
	"github.com/jacktan1/Options-Project/internal/dividend"
	"github.com/jacktan1/Options-Project/internal/marketdata"
	"github.com/jacktan1/Options-Project/internal/mock"
	"github.com/jacktan1/Options-Project/internal/models"
	"github.com/jacktan1/Options-Project/internal/util"
)

func testConfig(dir string) *config.Config {
	return &config.Config{
		Environment: config.EnvironmentConfig{Mode: "offline", LogLevel: "error"},
		Analysis: config.AnalysisConfig{
			Symbol:             "CVX",
			NumDaysYear:        252,
			FixedCommission:    9.95,
			ContractCommission: 1.0,
			CallSellMax:        2,
			PutSellMax:         2,
			InMoneyThreshold:   10,
			SegmentWidth:       30,
			MaxPerSegment:      10,
		},
		Storage: config.StorageConfig{Path: dir},
	}
}

// fakeProvider hands back canned data and lets tests fail specific calls.
type fakeProvider struct {
	price    float64
	history  models.PriceHistory
	expiries []time.Time
	chains   map[time.Time]*models.QuoteTable
	chainErr error
}

var _ marketdata.Provider = (*fakeProvider)(nil)

func (f *fakeProvider) GetCurrentPrice(context.Context, string) (float64, error) {
	return f.price, nil
}

func (f *fakeProvider) GetPriceHistory(context.Context, string) (models.PriceHistory, error) {
	return f.history, nil
}

func (f *fakeProvider) GetExpirations(context.Context, string) ([]time.Time, error) {
	return f.expiries, nil
}

func (f *fakeProvider) GetOptionChain(_ context.Context, _ string, expiry time.Time) (*models.QuoteTable, error) {
	if f.chainErr != nil {
		return nil, f.chainErr
	}
	return f.chains[expiry], nil
}

func (f *fakeProvider) GetNextDividend(context.Context, string) (*dividend.NextDividend, error) {
	return nil, nil
}

// flatFake builds a provider with a flat dividend-free history so every
// projected price equals the spot and payoffs are exact.
func flatFake(dataDate time.Time, expiry time.Time) *fakeProvider {
	history := make(models.PriceHistory, 0, 30)
	date := dataDate
	for i := 0; i < 30; i++ {
		date = previousBusinessDay(date)
	}
	for i := 0; i < 30; i++ {
		date = util.NextBusinessDay(date)
		history = append(history, models.PricePoint{Date: date, Close: 100})
	}

	table := &models.QuoteTable{
		Symbol:   "CVX",
		DataDate: dataDate,
		Expiry:   expiry,
		Rows: []models.QuoteRow{
			{Strike: 95, CallBid: 5.6, CallBidSize: 4, PutBid: 0.4, PutBidSize: 4},
			{Strike: 100, CallBid: 2.1, CallBidSize: 4, PutBid: 2.0, PutBidSize: 4},
			{Strike: 105, CallBid: 0.5, CallBidSize: 4, PutBid: 5.4, PutBidSize: 4},
		},
	}
	return &fakeProvider{
		price:    100,
		history:  history,
		expiries: []time.Time{expiry},
		chains:   map[time.Time]*models.QuoteTable{expiry: table},
	}
}

func previousBusinessDay(t time.Time) time.Time {
	d := t.AddDate(0, 0, -1)
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

func newTestAnalyzer(t *testing.T, provider marketdata.Provider) (*Analyzer, *csvstore.Store) {
	t.Helper()
	dir := t.TempDir()
	store, err := csvstore.New(dir)
	require.NoError(t, err)
	a, err := New(testConfig(dir), provider, store, zerolog.Nop())
	require.NoError(t, err)
	return a, store
}

func TestRunProducesSortedCandidates(t *testing.T) {
	dataDate := time.Date(2023, time.June, 5, 0, 0, 0, 0, time.UTC)
	expiry := util.AddBusinessDays(dataDate, 10)
	provider := flatFake(dataDate, expiry)

	a, store := newTestAnalyzer(t, provider)
	result, err := a.Run(context.Background(), dataDate)
	require.NoError(t, err)

	require.NotEmpty(t, result.Candidates)
	assert.Empty(t, result.Skipped)
	assert.NotEmpty(t, result.RunID)

	for i := 1; i < len(result.Candidates); i++ {
		assert.GreaterOrEqual(t, result.Candidates[i-1].Score, result.Candidates[i].Score)
	}
	for _, c := range result.Candidates {
		assert.True(t, c.Expiry.Equal(expiry))
		assert.Greater(t, c.Score, 0.0)
	}

	// The live chain got snapshotted for later offline runs.
	cached, err := store.LoadQuotes("CVX", dataDate, expiry)
	require.NoError(t, err)
	assert.Len(t, cached.Rows, 3)
}

func TestRunSkipsWhenChainAndCacheMissing(t *testing.T) {
	dataDate := time.Date(2023, time.June, 5, 0, 0, 0, 0, time.UTC)
	expiry := util.AddBusinessDays(dataDate, 10)
	provider := flatFake(dataDate, expiry)
	provider.chainErr = errors.New("upstream down")

	a, _ := newTestAnalyzer(t, provider)
	result, err := a.Run(context.Background(), dataDate)
	require.NoError(t, err)

	assert.Empty(t, result.Candidates)
	require.Len(t, result.Skipped, 1)
	assert.Contains(t, result.Skipped[0].Reason, "no cached snapshot")
}

func TestRunFallsBackToCachedSnapshot(t *testing.T) {
	dataDate := time.Date(2023, time.June, 5, 0, 0, 0, 0, time.UTC)
	expiry := util.AddBusinessDays(dataDate, 10)
	provider := flatFake(dataDate, expiry)

	a, store := newTestAnalyzer(t, provider)
	require.NoError(t, store.SaveQuotes(provider.chains[expiry]))
	provider.chainErr = errors.New("upstream down")

	result, err := a.Run(context.Background(), dataDate)
	require.NoError(t, err)

	assert.Empty(t, result.Skipped)
	assert.NotEmpty(t, result.Candidates)
}

func TestRunSkipsUnprojectableHorizon(t *testing.T) {
	dataDate := time.Date(2023, time.June, 5, 0, 0, 0, 0, time.UTC)
	near := util.AddBusinessDays(dataDate, 10)
	far := util.AddBusinessDays(dataDate, 60) // beyond the 30-day history
	provider := flatFake(dataDate, near)
	provider.expiries = []time.Time{near, far}
	provider.chains[far] = provider.chains[near]

	a, _ := newTestAnalyzer(t, provider)
	result, err := a.Run(context.Background(), dataDate)
	require.NoError(t, err)

	require.Len(t, result.Skipped, 1)
	assert.True(t, result.Skipped[0].Expiry.Equal(far))
	assert.NotEmpty(t, result.Candidates)
}

func TestRunIgnoresPastExpiries(t *testing.T) {
	dataDate := time.Date(2023, time.June, 5, 0, 0, 0, 0, time.UTC)
	expiry := util.AddBusinessDays(dataDate, 10)
	provider := flatFake(dataDate, expiry)
	provider.expiries = []time.Time{dataDate.AddDate(0, 0, -7), expiry}

	a, _ := newTestAnalyzer(t, provider)
	result, err := a.Run(context.Background(), dataDate)
	require.NoError(t, err)

	assert.Empty(t, result.Skipped)
	for _, c := range result.Candidates {
		assert.True(t, c.Expiry.Equal(expiry))
	}
}

func TestRunEndToEndWithSyntheticProvider(t *testing.T) {
	dataDate := time.Date(2023, time.June, 5, 0, 0, 0, 0, time.UTC)
	provider := mock.NewProvider("CVX", dataDate)

	dir := t.TempDir()
	store, err := csvstore.New(dir)
	require.NoError(t, err)

	cfg := testConfig(dir)
	cfg.Analysis.Weighting = config.WeightingConfig{Enabled: true, BaseWeight: 1, WeightGain: 2, Period: 252}

	a, err := New(cfg, provider, store, zerolog.Nop())
	require.NoError(t, err)

	result, err := a.Run(context.Background(), dataDate)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Candidates)
	assert.Empty(t, result.Skipped)
}
