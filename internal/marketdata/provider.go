// Package marketdata provides the quote, price-history and dividend clients
// feeding the analysis pipeline. The core algorithms never talk to the
// network themselves; they consume whatever a Provider hands them.
package marketdata

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"github.com/jacktan1/Options-Project/internal/dividend"
	"github.com/jacktan1/Options-Project/internal/models"
)

// Provider defines the market data surface the analyzer needs. Every call is
// one-shot: there is no retry layer, a failed fetch is reported and the
// caller decides whether a cached snapshot can stand in.
type Provider interface {
	// GetCurrentPrice returns the latest trade price for the symbol.
	GetCurrentPrice(ctx context.Context, symbol string) (float64, error)

	// GetPriceHistory returns the full ascending daily close + dividend
	// series for the symbol.
	GetPriceHistory(ctx context.Context, symbol string) (models.PriceHistory, error)

	// GetExpirations lists the option expiry dates currently trading.
	GetExpirations(ctx context.Context, symbol string) ([]time.Time, error)

	// GetOptionChain returns the chain snapshot for one expiry.
	GetOptionChain(ctx context.Context, symbol string, expiry time.Time) (*models.QuoteTable, error)

	// GetNextDividend returns the announced upcoming dividend, or nil when
	// the feed has nothing scheduled.
	GetNextDividend(ctx context.Context, symbol string) (*dividend.NextDividend, error)
}

// Ensure the concrete implementations satisfy Provider at compile time.
var (
	_ Provider = (*Client)(nil)
	_ Provider = (*CircuitBreakerProvider)(nil)
)

// CircuitBreakerProvider wraps a Provider with circuit breaker protection so
// a flapping upstream fails fast instead of stalling a batch run.
type CircuitBreakerProvider struct {
	provider Provider
	breaker  *gobreaker.CircuitBreaker
}

// CircuitBreakerSettings configures breaker behavior.
type CircuitBreakerSettings struct {
	MaxRequests  uint32        // max requests allowed when half-open
	Interval     time.Duration // counter reset interval
	Timeout      time.Duration // how long the circuit stays open
	MinRequests  uint32        // minimum requests before tripping
	FailureRatio float64       // failure ratio threshold
}

// NewCircuitBreakerProvider wraps provider with sensible defaults.
func NewCircuitBreakerProvider(provider Provider) *CircuitBreakerProvider {
	return NewCircuitBreakerProviderWithSettings(provider, CircuitBreakerSettings{
		MaxRequests:  3,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		MinRequests:  5,
		FailureRatio: 0.6,
	})
}

// NewCircuitBreakerProviderWithSettings wraps provider with custom settings.
func NewCircuitBreakerProviderWithSettings(provider Provider, settings CircuitBreakerSettings) *CircuitBreakerProvider {
	gbSettings := gobreaker.Settings{
		Name:        "MarketDataCircuitBreaker",
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests == 0 || counts.Requests < settings.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= settings.FailureRatio
		},
	}
	return &CircuitBreakerProvider{
		provider: provider,
		breaker:  gobreaker.NewCircuitBreaker(gbSettings),
	}
}

// execBreaker is a generic helper for the wrapper methods.
func execBreaker[T any](breaker *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	var zero T
	res, err := breaker.Execute(func() (interface{}, error) { return fn() })
	if err != nil {
		return zero, err
	}
	if res == nil {
		return zero, nil
	}
	v, ok := res.(T)
	if !ok {
		return zero, errors.New("circuit breaker: type assertion failed")
	}
	return v, nil
}

// GetCurrentPrice wraps the underlying call with the circuit breaker.
func (c *CircuitBreakerProvider) GetCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	return execBreaker(c.breaker, func() (float64, error) { return c.provider.GetCurrentPrice(ctx, symbol) })
}

// GetPriceHistory wraps the underlying call with the circuit breaker.
func (c *CircuitBreakerProvider) GetPriceHistory(ctx context.Context, symbol string) (models.PriceHistory, error) {
	return execBreaker(c.breaker, func() (models.PriceHistory, error) { return c.provider.GetPriceHistory(ctx, symbol) })
}

// GetExpirations wraps the underlying call with the circuit breaker.
func (c *CircuitBreakerProvider) GetExpirations(ctx context.Context, symbol string) ([]time.Time, error) {
	return execBreaker(c.breaker, func() ([]time.Time, error) { return c.provider.GetExpirations(ctx, symbol) })
}

// GetOptionChain wraps the underlying call with the circuit breaker.
func (c *CircuitBreakerProvider) GetOptionChain(ctx context.Context, symbol string, expiry time.Time) (*models.QuoteTable, error) {
	return execBreaker(c.breaker, func() (*models.QuoteTable, error) { return c.provider.GetOptionChain(ctx, symbol, expiry) })
}

// GetNextDividend wraps the underlying call with the circuit breaker.
func (c *CircuitBreakerProvider) GetNextDividend(ctx context.Context, symbol string) (*dividend.NextDividend, error) {
	return execBreaker(c.breaker, func() (*dividend.NextDividend, error) { return c.provider.GetNextDividend(ctx, symbol) })
}
