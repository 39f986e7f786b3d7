package csvstore

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacktan1/Options-Project/internal/models"
)

func testTable() *models.QuoteTable {
	return &models.QuoteTable{
		Symbol:   "CVX",
		DataDate: time.Date(2023, time.June, 5, 0, 0, 0, 0, time.UTC),
		Expiry:   time.Date(2023, time.July, 21, 0, 0, 0, 0, time.UTC),
		Rows: []models.QuoteRow{
			{Strike: 100, CallBid: 4.2, CallBidSize: 12, CallAsk: 4.4, CallAskSize: 9, PutBid: 2.3, PutBidSize: 7, PutAsk: 2.5, PutAskSize: 4},
			{Strike: 105, CallBid: 1.4, CallBidSize: 3, CallAsk: 1.6, CallAskSize: 5, PutBid: 5.6, PutBidSize: 2, PutAsk: 5.9, PutAskSize: 8},
		},
	}
}

func TestSaveLoadQuotesRoundTrip(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	table := testTable()
	require.NoError(t, store.SaveQuotes(table))

	loaded, err := store.LoadQuotes("CVX", table.DataDate, table.Expiry)
	require.NoError(t, err)
	assert.Equal(t, table.Rows, loaded.Rows)
	assert.Equal(t, "CVX", loaded.Symbol)
	assert.True(t, table.Expiry.Equal(loaded.Expiry))
}

func TestLoadQuotesNotFound(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = store.LoadQuotes("CVX", time.Now(), time.Now())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLoadQuotesCorruptFile(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	require.NoError(t, err)

	dataDate := time.Date(2023, time.June, 5, 0, 0, 0, 0, time.UTC)
	expiry := time.Date(2023, time.July, 21, 0, 0, 0, 0, time.UTC)
	path := store.quotePath("CVX", dataDate, expiry)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte("strike,call_bid\nnot-a-number,1\n"), 0o600))

	_, err = store.LoadQuotes("CVX", dataDate, expiry)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestSaveQuotesOverwrites(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	table := testTable()
	require.NoError(t, store.SaveQuotes(table))

	table.Rows = table.Rows[:1]
	require.NoError(t, store.SaveQuotes(table))

	loaded, err := store.LoadQuotes("CVX", table.DataDate, table.Expiry)
	require.NoError(t, err)
	assert.Len(t, loaded.Rows, 1)
}

func TestSaveCandidates(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	runDate := time.Date(2023, time.June, 5, 0, 0, 0, 0, time.UTC)
	candidates := []models.TradeCandidate{
		{
			Score:          12.5,
			Expiry:         time.Date(2023, time.July, 21, 0, 0, 0, 0, time.UTC),
			CallStrike:     105,
			CallPremium:    1.400000001,
			NumCalls:       2,
			PutStrike:      95,
			PutPremium:     0.9,
			NumPuts:        1,
			PercentInMoney: 82.5,
		},
	}

	path, err := store.SaveCandidates("CVX", runDate, "run-1", candidates)
	require.NoError(t, err)
	assert.Contains(t, path, "2023-06-05_run-1.csv")

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, candidateHeader, records[0])

	row := records[1]
	assert.Equal(t, "2023-07-21", row[1])
	assert.Equal(t, "105", row[2])
	// Premiums are snapped to the penny on the way out.
	assert.Equal(t, "1.4", row[3])
	assert.Equal(t, "2", row[4])
	assert.Equal(t, "82.5000", row[8])
}

func TestNewRequiresDir(t *testing.T) {
	_, err := New("")
	require.Error(t, err)
}
