package models

import (
	"fmt"
	"sort"
	"time"
)

// QuoteRow is one strike of an option chain snapshot. Bid/ask fields that the
// upstream feed reported as null arrive here as 0; the simulator treats a 0
// premium as "no credit", never as missing data.
type QuoteRow struct {
	Strike      float64 `json:"strike"`
	CallBid     float64 `json:"call_bid"`
	CallBidSize int     `json:"call_bid_size"`
	CallAsk     float64 `json:"call_ask"`
	CallAskSize int     `json:"call_ask_size"`
	PutBid      float64 `json:"put_bid"`
	PutBidSize  int     `json:"put_bid_size"`
	PutAsk      float64 `json:"put_ask"`
	PutAskSize  int     `json:"put_ask_size"`
}

// QuoteTable is the full chain snapshot for one (data date, expiry) pair.
type QuoteTable struct {
	Symbol   string
	DataDate time.Time
	Expiry   time.Time
	Rows     []QuoteRow
}

// Validate checks that strikes are unique and ascending.
func (t *QuoteTable) Validate() error {
	for i := 1; i < len(t.Rows); i++ {
		if t.Rows[i].Strike <= t.Rows[i-1].Strike {
			return fmt.Errorf("strikes not strictly ascending at row %d (%.2f -> %.2f)",
				i, t.Rows[i-1].Strike, t.Rows[i].Strike)
		}
	}
	return nil
}

// SortRows orders rows ascending by strike in place.
func (t *QuoteTable) SortRows() {
	sort.Slice(t.Rows, func(i, j int) bool { return t.Rows[i].Strike < t.Rows[j].Strike })
}

// AllBidsEmpty reports whether every call bid size in the table is zero,
// the signature of a dead upstream feed. Callers use it to decide whether
// to substitute a cached snapshot.
func (t *QuoteTable) AllBidsEmpty() bool {
	for i := range t.Rows {
		if t.Rows[i].CallBidSize != 0 {
			return false
		}
	}
	return len(t.Rows) > 0
}
