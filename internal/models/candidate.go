package models

import "time"

// TradeCandidate is one ranked sell-combination. Immutable once emitted by
// the ranker; persisted as a row of the results table.
type TradeCandidate struct {
	Score          float64   // avg return per contract per day
	Expiry         time.Time // option expiry ("strike date" in the output table)
	CallStrike     float64
	CallPremium    float64
	NumCalls       int
	PutStrike      float64
	PutPremium     float64
	NumPuts        int
	PercentInMoney float64
}
