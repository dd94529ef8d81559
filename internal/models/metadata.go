package models

// ResponseMetadata is derived from one assistant reply plus the user text
// that triggered it. It drives the enrichment widgets on the client and is
// persisted alongside the assistant message.
type ResponseMetadata struct {
	HasChart         bool         `json:"hasChart"`
	HasTradingSignal bool         `json:"hasTradingSignal"`
	CryptoSymbols    []string     `json:"cryptoSymbols"`
	Links            []string     `json:"links"`
	TradingData      *TradingData `json:"tradingData"`
}

// TradingData holds the numeric trading parameters found in assistant text.
// Fields are nil when the text carried no matching label.
type TradingData struct {
	Entry      *float64 `json:"entry"`
	StopLoss   *float64 `json:"stopLoss"`
	TakeProfit *float64 `json:"takeProfit"`
	Direction  string   `json:"direction,omitempty"`
}
