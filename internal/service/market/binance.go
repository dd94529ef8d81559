package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultBinanceBaseURL = "https://api.binance.com/api/v3"

// binanceClient reads public Binance spot endpoints. No auth required.
type binanceClient struct {
	baseURL    string
	httpClient *http.Client
}

func newBinanceClient(baseURL string) *binanceClient {
	if baseURL == "" {
		baseURL = defaultBinanceBaseURL
	}
	return &binanceClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

type binanceTicker struct {
	LastPrice          string `json:"lastPrice"`
	PriceChangePercent string `json:"priceChangePercent"`
	Volume             string `json:"volume"`
	HighPrice          string `json:"highPrice"`
	LowPrice           string `json:"lowPrice"`
}

type tickerSnapshot struct {
	Price     float64
	Change24h float64
	Volume    float64
	High24h   float64
	Low24h    float64
}

// Ticker24h fetches the rolling 24h ticker for SYMBOL quoted in USDT.
func (b *binanceClient) Ticker24h(ctx context.Context, symbol string) (*tickerSnapshot, error) {
	var raw binanceTicker
	params := url.Values{}
	params.Set("symbol", symbol+"USDT")
	if err := b.get(ctx, "/ticker/24hr", params, &raw); err != nil {
		return nil, err
	}
	snap := &tickerSnapshot{}
	var err error
	if snap.Price, err = strconv.ParseFloat(raw.LastPrice, 64); err != nil {
		return nil, fmt.Errorf("parse last price: %w", err)
	}
	snap.Change24h, _ = strconv.ParseFloat(raw.PriceChangePercent, 64)
	snap.Volume, _ = strconv.ParseFloat(raw.Volume, 64)
	snap.High24h, _ = strconv.ParseFloat(raw.HighPrice, 64)
	snap.Low24h, _ = strconv.ParseFloat(raw.LowPrice, 64)
	return snap, nil
}

// Klines fetches up to limit hourly candles for SYMBOLUSDT. Each kline is a
// mixed-type JSON array; only the numeric OHLC strings are used.
func (b *binanceClient) Klines(ctx context.Context, symbol string, limit int) ([]kline, error) {
	params := url.Values{}
	params.Set("symbol", symbol+"USDT")
	params.Set("interval", "1h")
	params.Set("limit", strconv.Itoa(limit))

	var raw [][]json.RawMessage
	if err := b.get(ctx, "/klines", params, &raw); err != nil {
		return nil, err
	}
	bars := make([]kline, 0, len(raw))
	for _, entry := range raw {
		if len(entry) < 5 {
			continue
		}
		var bar kline
		var err error
		if bar.High, err = parseKlineField(entry[2]); err != nil {
			return nil, err
		}
		if bar.Low, err = parseKlineField(entry[3]); err != nil {
			return nil, err
		}
		if bar.Close, err = parseKlineField(entry[4]); err != nil {
			return nil, err
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

type kline struct {
	High  float64
	Low   float64
	Close float64
}

func parseKlineField(raw json.RawMessage) (float64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("decode kline field: %w", err)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse kline field: %w", err)
	}
	return v, nil
}

func (b *binanceClient) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	endpoint := b.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		// 451 means the API is geo-restricted; callers fall back to CoinGecko.
		return fmt.Errorf("binance %s: %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
