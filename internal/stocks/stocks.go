// Package stocks fetches quotes from the Polygon snapshot API. Results are
// partial by design: a ticker whose fetch fails is absent from the map, and
// templates render a placeholder for it.
package stocks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	appLog "epddash/internal/log"
	"epddash/internal/model"
)

const defaultBaseURL = "https://api.polygon.io"

// Client talks to the Polygon REST API.
type Client struct {
	apiKey string

	baseURL    string
	httpClient *http.Client
}

// New builds a Client. A missing API key is allowed; Quotes then returns an
// empty map.
func New(apiKey string) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type snapshotResponse struct {
	Status  string `json:"status"`
	Results []struct {
		LastTrade struct {
			P float64 `json:"p"`
		} `json:"lastTrade"`
		LastQuote struct {
			Ask float64 `json:"ask"`
		} `json:"lastQuote"`
		PrevDay struct {
			C float64 `json:"c"`
		} `json:"prevDay"`
	} `json:"results"`
}

// Quotes fetches each ticker's snapshot. Individual failures are logged and
// skipped; the returned map holds whatever succeeded.
func (c *Client) Quotes(ctx context.Context, tickers []string) map[string]model.Quote {
	out := make(map[string]model.Quote, len(tickers))
	if c.apiKey == "" {
		if len(tickers) > 0 {
			appLog.Warn("no Polygon API key configured", "tickers", len(tickers))
		}
		return out
	}

	for _, ticker := range tickers {
		ticker = strings.ToUpper(strings.TrimSpace(ticker))
		if ticker == "" {
			continue
		}
		quote, err := c.quote(ctx, ticker)
		if err != nil {
			appLog.Warn("stock fetch failed", "ticker", ticker, "err", err)
			continue
		}
		out[ticker] = quote
	}
	return out
}

func (c *Client) quote(ctx context.Context, ticker string) (model.Quote, error) {
	endpoint := fmt.Sprintf("%s/v2/snapshot/locale/us/markets/stocks/tickers/%s",
		c.baseURL, url.PathEscape(ticker))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?apiKey="+url.QueryEscape(c.apiKey), nil)
	if err != nil {
		return model.Quote{}, fmt.Errorf("stocks: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.Quote{}, fmt.Errorf("stocks: fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.Quote{}, fmt.Errorf("stocks: API returned %s", resp.Status)
	}

	var parsed snapshotResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return model.Quote{}, fmt.Errorf("stocks: decode: %w", err)
	}
	if parsed.Status != "OK" || len(parsed.Results) == 0 {
		return model.Quote{}, fmt.Errorf("stocks: no results (status %q)", parsed.Status)
	}

	result := parsed.Results[0]
	last := result.LastQuote.Ask
	if last == 0 {
		last = result.LastTrade.P
	}
	prev := result.PrevDay.C
	if last == 0 || prev == 0 {
		return model.Quote{}, fmt.Errorf("stocks: incomplete snapshot for %s", ticker)
	}

	change := last - prev
	return model.Quote{
		Price:     last,
		Change:    change,
		ChangePct: change / prev * 100,
	}, nil
}
