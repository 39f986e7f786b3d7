// Package csvstore persists chain snapshots and ranked trade tables as flat
// CSV files. Snapshots double as the fallback data source when the live feed
// is down.
package csvstore

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jacktan1/Options-Project/internal/models"
	"github.com/jacktan1/Options-Project/internal/util"
)

// ErrNotFound is returned when no cached snapshot exists for the requested
// (symbol, data date, expiry).
var ErrNotFound = errors.New("no cached snapshot")

const dateLayout = "2006-01-02"

var quoteHeader = []string{
	"strike",
	"call_bid", "call_bid_size", "call_ask", "call_ask_size",
	"put_bid", "put_bid_size", "put_ask", "put_ask_size",
}

var candidateHeader = []string{
	"score", "strike_date",
	"call_strike", "call_price", "call_qty",
	"put_strike", "put_price", "put_qty",
	"percent_in_money",
}

// Store reads and writes the toolkit's flat files under one root directory.
type Store struct {
	dir string
}

// New creates the root directory if needed and returns a Store.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating storage dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) quotePath(symbol string, dataDate, expiry time.Time) string {
	name := fmt.Sprintf("%s_%s.csv", dataDate.Format(dateLayout), expiry.Format(dateLayout))
	return filepath.Join(s.dir, "quotes", symbol, name)
}

// SaveQuotes writes a chain snapshot, replacing any existing file for the
// same (symbol, data date, expiry).
func (s *Store) SaveQuotes(table *models.QuoteTable) error {
	records := make([][]string, 0, len(table.Rows)+1)
	records = append(records, quoteHeader)
	for _, r := range table.Rows {
		records = append(records, []string{
			ftoa(r.Strike),
			ftoa(r.CallBid), itoa(r.CallBidSize), ftoa(r.CallAsk), itoa(r.CallAskSize),
			ftoa(r.PutBid), itoa(r.PutBidSize), ftoa(r.PutAsk), itoa(r.PutAskSize),
		})
	}
	return s.writeAtomic(s.quotePath(table.Symbol, table.DataDate, table.Expiry), records)
}

// LoadQuotes reads a previously saved snapshot back. Returns ErrNotFound
// when no file exists, so callers can distinguish "never cached" from a
// corrupt file.
func (s *Store) LoadQuotes(symbol string, dataDate, expiry time.Time) (*models.QuoteTable, error) {
	path := s.quotePath(symbol, dataDate, expiry)
	f, err := os.Open(path) // #nosec G304 -- path is derived from our own layout
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close() //nolint:errcheck

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", path, err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("snapshot %s is empty", path)
	}

	table := &models.QuoteTable{
		Symbol:   symbol,
		DataDate: dataDate,
		Expiry:   expiry,
		Rows:     make([]models.QuoteRow, 0, len(records)-1),
	}
	for i, rec := range records[1:] {
		if len(rec) != len(quoteHeader) {
			return nil, fmt.Errorf("snapshot %s row %d has %d fields, want %d", path, i+1, len(rec), len(quoteHeader))
		}
		row := models.QuoteRow{}
		fields := []*float64{&row.Strike, &row.CallBid, &row.CallAsk, &row.PutBid, &row.PutAsk}
		cols := []int{0, 1, 3, 5, 7}
		for n, col := range cols {
			v, err := strconv.ParseFloat(rec[col], 64)
			if err != nil {
				return nil, fmt.Errorf("snapshot %s row %d col %d: %w", path, i+1, col, err)
			}
			*fields[n] = v
		}
		sizes := []*int{&row.CallBidSize, &row.CallAskSize, &row.PutBidSize, &row.PutAskSize}
		for n, col := range []int{2, 4, 6, 8} {
			v, err := strconv.Atoi(rec[col])
			if err != nil {
				return nil, fmt.Errorf("snapshot %s row %d col %d: %w", path, i+1, col, err)
			}
			*sizes[n] = v
		}
		table.Rows = append(table.Rows, row)
	}
	table.SortRows()
	return table, nil
}

// SaveCandidates writes the ranked trade table for one run and returns the
// file path.
func (s *Store) SaveCandidates(symbol string, runDate time.Time, runID string, candidates []models.TradeCandidate) (string, error) {
	records := make([][]string, 0, len(candidates)+1)
	records = append(records, candidateHeader)
	for _, c := range candidates {
		records = append(records, []string{
			strconv.FormatFloat(c.Score, 'f', 6, 64),
			c.Expiry.Format(dateLayout),
			ftoa(c.CallStrike),
			ftoa(util.RoundToTick(c.CallPremium, 0.01)),
			itoa(c.NumCalls),
			ftoa(c.PutStrike),
			ftoa(util.RoundToTick(c.PutPremium, 0.01)),
			itoa(c.NumPuts),
			strconv.FormatFloat(c.PercentInMoney, 'f', 4, 64),
		})
	}

	name := fmt.Sprintf("%s_%s.csv", runDate.Format(dateLayout), runID)
	path := filepath.Join(s.dir, "results", symbol, name)
	if err := s.writeAtomic(path, records); err != nil {
		return "", err
	}
	return path, nil
}

// writeAtomic writes records to a temp file and renames it into place so a
// crash mid-write never leaves a truncated file behind.
func (s *Store) writeAtomic(path string, records [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating dir: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp) // #nosec G304 -- path is derived from our own layout
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("writing csv: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("closing temp file: %w", err)
	}
	return os.Rename(tmp, path)
}

func ftoa(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
func itoa(v int) string     { return strconv.Itoa(v) }
