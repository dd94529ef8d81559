package market

// SymbolData is the per-symbol price/indicator snapshot served to the API
// and injected into completion requests as market context.
type SymbolData struct {
	Symbol              string      `json:"symbol"`
	Price               float64     `json:"price"`
	Change24h           float64     `json:"change24h"`
	Volume24h           float64     `json:"volume24h"`
	MarketCap           float64     `json:"marketCap,omitempty"`
	High24h             float64     `json:"high24h"`
	Low24h              float64     `json:"low24h"`
	Timestamp           int64       `json:"timestamp"`
	TechnicalIndicators *Indicators `json:"technicalIndicators,omitempty"`
}

// Indicators carries simple technicals derived from hourly klines.
type Indicators struct {
	SMA20      float64 `json:"sma20"`
	SMA50      float64 `json:"sma50,omitempty"`
	RSI        float64 `json:"rsi"`
	Support    float64 `json:"support"`
	Resistance float64 `json:"resistance"`
	Trend      string  `json:"trend"`
}

// Overview summarizes the whole market.
type Overview struct {
	TotalMarketCap float64    `json:"totalMarketCap"`
	TotalVolume    float64    `json:"totalVolume"`
	BTCDominance   float64    `json:"btcDominance"`
	ETHDominance   float64    `json:"ethDominance"`
	FearGreed      *FearGreed `json:"fearGreedIndex,omitempty"`
}

// FearGreed is the alternative.me fear & greed index reading.
type FearGreed struct {
	Value          int    `json:"value"`
	Classification string `json:"classification"`
}

// ChartData describes a TradingView chart embed.
type ChartData struct {
	EmbedURL string `json:"embedUrl"`
	Symbol   string `json:"symbol"`
	Exchange string `json:"exchange"`
	Interval string `json:"interval"`
}

// Context bundles the transient real-time data attached to one completion
// request. Not persisted.
type Context struct {
	CryptoData     map[string]*SymbolData `json:"cryptoData,omitempty"`
	MarketOverview *Overview              `json:"marketOverview,omitempty"`
	Timestamp      string                 `json:"timestamp"`
}

// Empty reports whether the context carries no data worth sending.
func (c *Context) Empty() bool {
	return c == nil || (len(c.CryptoData) == 0 && c.MarketOverview == nil)
}
