package market

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"perpology/internal/config"
	"perpology/internal/extract"
	"perpology/internal/redis"
)

const (
	defaultCacheTTL = 30 * time.Second
	// Upstream feeds are rate limited; cap per-message symbol lookups.
	maxSymbolsPerMessage = 3
	klineLimit           = 100
)

// Gateway normalizes and caches access to the external price/indicator
// feeds. Every lookup degrades to nil data on upstream failure rather than
// failing the chat request that triggered it.
type Gateway struct {
	binance    *binanceClient
	gecko      *coingeckoClient
	cache      *snapshotCache
	httpClient *http.Client
}

// NewGateway builds the gateway. shared may be nil when redis is disabled.
func NewGateway(cfg config.MarketConfig, shared *redis.Client) (*Gateway, error) {
	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	cache, err := newSnapshotCache(shared, ttl)
	if err != nil {
		return nil, fmt.Errorf("init market cache: %w", err)
	}
	return &Gateway{
		binance:    newBinanceClient(cfg.BinanceBaseURL),
		gecko:      newCoingeckoClient(cfg.CoingeckoBaseURL, cfg.CoingeckoRPS),
		cache:      cache,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}, nil
}

// SymbolSnapshot returns the cached or freshly fetched snapshot for one
// ticker. Binance is the primary price source; CoinGecko fills the gaps and
// serves as the fallback when Binance is unreachable or geo-blocked.
func (g *Gateway) SymbolSnapshot(ctx context.Context, symbol string) (*SymbolData, error) {
	key := "market:symbol:" + symbol
	var cached SymbolData
	if g.cache.get(ctx, key, &cached) {
		return &cached, nil
	}

	data := &SymbolData{Symbol: symbol, Timestamp: time.Now().UnixMilli()}

	ticker, err := g.binance.Ticker24h(ctx, symbol)
	if err != nil {
		log.Printf("market: binance ticker %s: %v", symbol, err)
	} else {
		data.Price = ticker.Price
		data.Change24h = ticker.Change24h
		data.Volume24h = ticker.Volume
		data.High24h = ticker.High24h
		data.Low24h = ticker.Low24h
	}

	gecko, err := g.gecko.SimplePrice(ctx, symbol)
	if err != nil {
		log.Printf("market: coingecko price %s: %v", symbol, err)
	} else if gecko != nil {
		data.MarketCap = gecko.USDMarketCap
		if ticker == nil {
			data.Price = gecko.USD
			data.Change24h = gecko.USD24hChange
			data.Volume24h = gecko.USD24hVol
		}
	}

	if data.Price == 0 {
		return nil, fmt.Errorf("no price source available for %s", symbol)
	}

	if bars, err := g.binance.Klines(ctx, symbol, klineLimit); err != nil {
		log.Printf("market: klines %s: %v", symbol, err)
	} else {
		data.TechnicalIndicators = computeIndicators(bars)
	}

	g.cache.put(ctx, key, data)
	return data, nil
}

// Overview returns market-wide aggregates plus the fear & greed reading.
func (g *Gateway) Overview(ctx context.Context) (*Overview, error) {
	const key = "market:overview"
	var cached Overview
	if g.cache.get(ctx, key, &cached) {
		return &cached, nil
	}

	overview, err := g.gecko.Global(ctx)
	if err != nil {
		return nil, fmt.Errorf("market overview: %w", err)
	}
	if fng, err := fetchFearGreed(ctx, g.httpClient); err != nil {
		log.Printf("market: fear & greed: %v", err)
	} else {
		overview.FearGreed = fng
	}

	g.cache.put(ctx, key, overview)
	return overview, nil
}

// RelevantData assembles the market context for one user message: snapshots
// for the tickers it mentions (capped) plus the overview. Best effort only;
// a dry result is a valid result.
func (g *Gateway) RelevantData(ctx context.Context, message string) *Context {
	mc := &Context{Timestamp: time.Now().UTC().Format(time.RFC3339)}

	symbols := extract.Symbols(message)
	if len(symbols) > maxSymbolsPerMessage {
		symbols = symbols[:maxSymbolsPerMessage]
	}
	if len(symbols) > 0 {
		mc.CryptoData = make(map[string]*SymbolData, len(symbols))
		for _, sym := range symbols {
			data, err := g.SymbolSnapshot(ctx, sym)
			if err != nil {
				log.Printf("market: snapshot %s: %v", sym, err)
				continue
			}
			mc.CryptoData[sym] = data
		}
	}

	if overview, err := g.Overview(ctx); err != nil {
		log.Printf("market: %v", err)
	} else {
		mc.MarketOverview = overview
	}
	return mc
}

// ChartEmbed builds the TradingView widget descriptor for a ticker.
func ChartEmbed(symbol string) *ChartData {
	pair := fmt.Sprintf("BINANCE:%sUSDT", symbol)
	params := url.Values{}
	params.Set("frameElementId", "tradingview_chart")
	params.Set("symbol", pair)
	params.Set("interval", "1H")
	params.Set("hidesidetoolbar", "1")
	params.Set("hidetoptoolbar", "1")
	params.Set("theme", "dark")
	params.Set("style", "1")
	params.Set("timezone", "Etc/UTC")
	params.Set("locale", "en")
	return &ChartData{
		EmbedURL: "https://www.tradingview.com/widgetembed/?" + params.Encode(),
		Symbol:   symbol,
		Exchange: "BINANCE",
		Interval: "1H",
	}
}
