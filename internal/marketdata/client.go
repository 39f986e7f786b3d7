package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/jacktan1/Options-Project/internal/dividend"
	"github.com/jacktan1/Options-Project/internal/models"
)

const (
	defaultBaseURL = "https://api.marketfeed.io/v1"
	defaultTimeout = 30 * time.Second

	dateLayout = "2006-01-02"
)

// APIError represents an upstream API error with status code and body.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Status, e.Body)
}

// Client is a REST market data client. It is an explicit handle: construct
// one and pass it where needed, never a package-level singleton.
type Client struct {
	client  *http.Client
	apiKey  string
	baseURL string
}

// NewClient builds a Client for the given API key. An empty baseURL selects
// the production endpoint.
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		client:  &http.Client{Timeout: defaultTimeout},
		apiKey:  apiKey,
		baseURL: baseURL,
	}
}

// WithHTTPClient swaps the underlying HTTP client (tests, custom transports).
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.client = hc
	}
	return c
}

// ============ Wire structures ============

// Premium fields are pointers because the upstream feed reports missing
// bids/asks as null. The conversion to 0 happens exactly once, in
// GetOptionChain, so "no bid" never silently masquerades as a real zero
// anywhere else.
type chainResponse struct {
	Options struct {
		Option []struct {
			Strike     float64  `json:"strike"`
			OptionType string   `json:"option_type"`
			Bid        *float64 `json:"bid"`
			Ask        *float64 `json:"ask"`
			BidSize    int      `json:"bid_size"`
			AskSize    int      `json:"ask_size"`
		} `json:"option"`
	} `json:"options"`
}

type quoteResponse struct {
	Quote struct {
		Symbol string  `json:"symbol"`
		Last   float64 `json:"last"`
	} `json:"quote"`
}

type historyResponse struct {
	History struct {
		Day []struct {
			Date     string  `json:"date"`
			Close    float64 `json:"close"`
			Dividend float64 `json:"dividend"`
		} `json:"day"`
	} `json:"history"`
}

type expirationsResponse struct {
	Expirations struct {
		Date []string `json:"date"`
	} `json:"expirations"`
}

type nextDividendResponse struct {
	Dividend *struct {
		ExDate string  `json:"ex_date"`
		Amount float64 `json:"amount"`
	} `json:"dividend"`
}

// ============ API methods ============

// GetCurrentPrice returns the latest trade price for the symbol.
func (c *Client) GetCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	var resp quoteResponse
	if err := c.get(ctx, "/markets/quotes", params, &resp); err != nil {
		return 0, fmt.Errorf("fetching quote for %s: %w", symbol, err)
	}
	return resp.Quote.Last, nil
}

// GetPriceHistory returns the daily close + dividend series, oldest first.
func (c *Client) GetPriceHistory(ctx context.Context, symbol string) (models.PriceHistory, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", "daily")

	var resp historyResponse
	if err := c.get(ctx, "/markets/history", params, &resp); err != nil {
		return nil, fmt.Errorf("fetching price history for %s: %w", symbol, err)
	}

	history := make(models.PriceHistory, 0, len(resp.History.Day))
	for _, day := range resp.History.Day {
		date, err := time.Parse(dateLayout, day.Date)
		if err != nil {
			return nil, fmt.Errorf("parsing history date %q for %s: %w", day.Date, symbol, err)
		}
		history = append(history, models.PricePoint{
			Date:     date,
			Close:    day.Close,
			Dividend: day.Dividend,
		})
	}
	sort.Slice(history, func(i, j int) bool { return history[i].Date.Before(history[j].Date) })
	return history, nil
}

// GetExpirations lists the option expiry dates currently trading, ascending.
func (c *Client) GetExpirations(ctx context.Context, symbol string) ([]time.Time, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	var resp expirationsResponse
	if err := c.get(ctx, "/markets/options/expirations", params, &resp); err != nil {
		return nil, fmt.Errorf("fetching expirations for %s: %w", symbol, err)
	}

	out := make([]time.Time, 0, len(resp.Expirations.Date))
	for _, d := range resp.Expirations.Date {
		date, err := time.Parse(dateLayout, d)
		if err != nil {
			return nil, fmt.Errorf("parsing expiration %q for %s: %w", d, symbol, err)
		}
		out = append(out, date)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

// GetOptionChain returns the chain snapshot for one expiry, call and put
// quotes merged into one row per strike, strikes ascending.
func (c *Client) GetOptionChain(ctx context.Context, symbol string, expiry time.Time) (*models.QuoteTable, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("expiration", expiry.Format(dateLayout))

	var resp chainResponse
	if err := c.get(ctx, "/markets/options/chains", params, &resp); err != nil {
		return nil, fmt.Errorf("fetching chain for %s %s: %w", symbol, expiry.Format(dateLayout), err)
	}

	byStrike := make(map[float64]*models.QuoteRow)
	for _, opt := range resp.Options.Option {
		row, ok := byStrike[opt.Strike]
		if !ok {
			row = &models.QuoteRow{Strike: opt.Strike}
			byStrike[opt.Strike] = row
		}
		switch opt.OptionType {
		case "call":
			row.CallBid = deref(opt.Bid)
			row.CallAsk = deref(opt.Ask)
			row.CallBidSize = opt.BidSize
			row.CallAskSize = opt.AskSize
		case "put":
			row.PutBid = deref(opt.Bid)
			row.PutAsk = deref(opt.Ask)
			row.PutBidSize = opt.BidSize
			row.PutAskSize = opt.AskSize
		}
	}

	table := &models.QuoteTable{
		Symbol:   symbol,
		DataDate: time.Now().UTC().Truncate(24 * time.Hour),
		Expiry:   expiry,
		Rows:     make([]models.QuoteRow, 0, len(byStrike)),
	}
	for _, row := range byStrike {
		table.Rows = append(table.Rows, *row)
	}
	table.SortRows()
	return table, nil
}

// GetNextDividend returns the announced upcoming dividend, or nil when the
// feed has nothing scheduled.
func (c *Client) GetNextDividend(ctx context.Context, symbol string) (*dividend.NextDividend, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	var resp nextDividendResponse
	if err := c.get(ctx, "/markets/dividends/next", params, &resp); err != nil {
		return nil, fmt.Errorf("fetching next dividend for %s: %w", symbol, err)
	}
	if resp.Dividend == nil {
		return nil, nil
	}
	exDate, err := time.Parse(dateLayout, resp.Dividend.ExDate)
	if err != nil {
		return nil, fmt.Errorf("parsing ex-div date %q for %s: %w", resp.Dividend.ExDate, symbol, err)
	}
	return &dividend.NextDividend{ExDate: exDate, Amount: resp.Dividend.Amount}, nil
}

// get performs an authenticated GET and decodes the JSON response.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, response interface{}) error {
	u := c.baseURL + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return err
	}
	req.Header.Add("Authorization", "Bearer "+c.apiKey)
	req.Header.Add("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if readErr != nil {
			return &APIError{Status: resp.StatusCode, Body: "failed to read error body"}
		}
		return &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(response); err != nil && err != io.EOF {
		return err
	}
	return nil
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
