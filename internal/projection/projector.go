// Package projection builds the empirical distribution of hypothetical
// expiry prices from a naked price history (the historical bootstrap).
package projection

import (
	"errors"
	"fmt"

	"github.com/jacktan1/Options-Project/internal/models"
)

// ErrInvalidHorizon marks a non-positive or out-of-range business-day
// horizon. The corresponding expiry is skipped, not fatal to the batch.
var ErrInvalidHorizon = errors.New("invalid projection horizon")

// Bootstrap applies every realized daysTillExpiry-day price ratio in the
// naked history to the anchor price, producing one hypothetical final price
// per historical start day. The result has length len(history) -
// daysTillExpiry and is deterministic: the same inputs always reproduce the
// same array.
func Bootstrap(naked *models.NakedHistory, anchor float64, daysTillExpiry int) ([]float64, error) {
	n := naked.Len()
	if daysTillExpiry <= 0 {
		return nil, fmt.Errorf("%w: %d business days", ErrInvalidHorizon, daysTillExpiry)
	}
	if daysTillExpiry >= n {
		return nil, fmt.Errorf("%w: %d business days exceeds %d-day history", ErrInvalidHorizon, daysTillExpiry, n)
	}

	out := make([]float64, n-daysTillExpiry)
	for i := range out {
		base := naked.Closes[i]
		if base == 0 {
			// Degenerate start price; a ratio is undefined, so carry the
			// anchor through unchanged.
			out[i] = anchor
			continue
		}
		out[i] = anchor * naked.Closes[i+daysTillExpiry] / base
	}
	return out, nil
}
