package client

import (
	"strings"
	"time"
)

// ThinkingInterval is how often the status line advances to the next phrase.
const ThinkingInterval = 1500 * time.Millisecond

var (
	newsThinking = []string{
		"Searching latest crypto news...",
		"Analyzing market sentiment...",
		"Gathering recent developments...",
		"Processing news sources...",
		"Compiling market updates...",
	}
	priceThinking = []string{
		"Fetching live price data...",
		"Analyzing price movements...",
		"Processing market data...",
		"Calculating price metrics...",
		"Generating price analysis...",
	}
	tradeThinking = []string{
		"Analyzing trading opportunities...",
		"Calculating risk metrics...",
		"Evaluating market conditions...",
		"Processing technical indicators...",
		"Generating trading insights...",
	}
	technicalThinking = []string{
		"Calculating technical indicators...",
		"Analyzing chart patterns...",
		"Processing price action...",
		"Evaluating support/resistance...",
		"Generating technical analysis...",
	}
	defaultThinking = []string{
		"Processing your request...",
		"Analyzing market context...",
		"Gathering relevant data...",
		"Generating insights...",
		"Preparing response...",
	}
)

// ThinkingMessages picks the status-line rotation that matches the user's
// last message. The UI cycles through the returned slice in order, wrapping.
func ThinkingMessages(userText string) []string {
	text := strings.ToLower(userText)
	switch {
	case strings.Contains(text, "news") || strings.Contains(text, "update"):
		return newsThinking
	case strings.Contains(text, "price") || strings.Contains(text, "chart"):
		return priceThinking
	case strings.Contains(text, "trade") || strings.Contains(text, "strategy"):
		return tradeThinking
	case strings.Contains(text, "technical") || strings.Contains(text, "analysis"):
		return technicalThinking
	default:
		return defaultThinking
	}
}
