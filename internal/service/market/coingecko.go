package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const defaultCoingeckoBaseURL = "https://api.coingecko.com/api/v3"

// coingeckoIDs maps tickers onto CoinGecko coin ids.
var coingeckoIDs = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"SOL":   "solana",
	"ADA":   "cardano",
	"DOT":   "polkadot",
	"LINK":  "chainlink",
	"UNI":   "uniswap",
	"AAVE":  "aave",
	"MATIC": "matic-network",
	"AVAX":  "avalanche-2",
	"ATOM":  "cosmos",
	"NEAR":  "near",
	"FTM":   "fantom",
	"ALGO":  "algorand",
	"XRP":   "ripple",
	"LTC":   "litecoin",
	"DOGE":  "dogecoin",
}

// coingeckoClient reads the public CoinGecko REST API. The free tier is
// strict about request rates, so every call passes through a limiter.
type coingeckoClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func newCoingeckoClient(baseURL string, rps float64) *coingeckoClient {
	if baseURL == "" {
		baseURL = defaultCoingeckoBaseURL
	}
	if rps <= 0 {
		rps = 0.5
	}
	return &coingeckoClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
	}
}

type geckoPrice struct {
	USD          float64 `json:"usd"`
	USD24hChange float64 `json:"usd_24h_change"`
	USD24hVol    float64 `json:"usd_24h_vol"`
	USDMarketCap float64 `json:"usd_market_cap"`
}

// SimplePrice returns the USD snapshot for a ticker, or (nil, nil) when the
// ticker has no known CoinGecko id.
func (c *coingeckoClient) SimplePrice(ctx context.Context, symbol string) (*geckoPrice, error) {
	coinID, ok := coingeckoIDs[symbol]
	if !ok {
		return nil, nil
	}
	params := url.Values{}
	params.Set("ids", coinID)
	params.Set("vs_currencies", "usd")
	params.Set("include_24hr_change", "true")
	params.Set("include_24hr_vol", "true")
	params.Set("include_market_cap", "true")

	var out map[string]geckoPrice
	if err := c.get(ctx, "/simple/price", params, &out); err != nil {
		return nil, err
	}
	price, ok := out[coinID]
	if !ok {
		return nil, nil
	}
	return &price, nil
}

type geckoGlobal struct {
	Data struct {
		TotalMarketCap      map[string]float64 `json:"total_market_cap"`
		TotalVolume         map[string]float64 `json:"total_volume"`
		MarketCapPercentage map[string]float64 `json:"market_cap_percentage"`
	} `json:"data"`
}

// Global returns the market-wide aggregates.
func (c *coingeckoClient) Global(ctx context.Context) (*Overview, error) {
	var out geckoGlobal
	if err := c.get(ctx, "/global", nil, &out); err != nil {
		return nil, err
	}
	return &Overview{
		TotalMarketCap: out.Data.TotalMarketCap["usd"],
		TotalVolume:    out.Data.TotalVolume["usd"],
		BTCDominance:   out.Data.MarketCapPercentage["btc"],
		ETHDominance:   out.Data.MarketCapPercentage["eth"],
	}, nil
}

func (c *coingeckoClient) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("coingecko %s: %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
