package extract

import (
	"regexp"
	"strconv"
	"strings"

	"perpology/internal/models"
)

// Extract derives structured response metadata from one assistant reply and
// the user text that triggered it. It is deterministic and performs no I/O;
// the keyword vocabularies live in vocab.go so they can be tuned without
// touching the control flow.

var (
	tickerPattern  = regexp.MustCompile(`(?i)\b(` + strings.Join(tickerVocabulary, "|") + `)\b`)
	tradingPattern = regexp.MustCompile(`(?i)\b(entry|stop loss|take profit|long|short|buy|sell|target|resistance|support)\b`)
	chartPattern   = regexp.MustCompile(`(?i)\b(chart|graph|technical analysis|candlestick|price action|trading view|tradingview|price|trading|crypto|bitcoin|ethereum|solana|analysis)\b`)
	urlPattern     = regexp.MustCompile(`https?://[^\s]+`)

	entryPattern      = regexp.MustCompile(`(?i)entry[:\s]*\$?([0-9,]+\.?[0-9]*)`)
	stopLossPattern   = regexp.MustCompile(`(?i)stop\s*loss[:\s]*\$?([0-9,]+\.?[0-9]*)`)
	takeProfitPattern = regexp.MustCompile(`(?i)take\s*profit[:\s]*\$?([0-9,]+\.?[0-9]*)`)
	longPattern       = regexp.MustCompile(`(?i)\b(long|buy)\b`)
	shortPattern      = regexp.MustCompile(`(?i)\b(short|sell)\b`)
)

func Extract(assistantText, userText string) models.ResponseMetadata {
	md := models.ResponseMetadata{
		CryptoSymbols: []string{},
		Links:         []string{},
	}

	md.CryptoSymbols = Symbols(assistantText + " " + userText)
	md.HasTradingSignal = tradingPattern.MatchString(assistantText)
	md.HasChart = len(md.CryptoSymbols) > 0

	if chartPattern.MatchString(assistantText) || chartPattern.MatchString(userText) {
		md.HasChart = true
		// Crypto-flavored text with no explicit ticker defaults to BTC.
		if len(md.CryptoSymbols) == 0 {
			md.CryptoSymbols = []string{DefaultSymbol}
		}
	}

	md.Links = urlPattern.FindAllString(assistantText, -1)
	if md.Links == nil {
		md.Links = []string{}
	}

	if md.HasTradingSignal {
		md.TradingData = tradingData(assistantText)
	}

	return md
}

// Symbols returns the recognized tickers in text, uppercased, de-duplicated,
// first-seen order preserved. Full asset names normalize to their ticker.
func Symbols(text string) []string {
	matches := tickerPattern.FindAllString(text, -1)
	seen := make(map[string]struct{}, len(matches))
	symbols := make([]string, 0, len(matches))
	for _, m := range matches {
		sym := strings.ToUpper(m)
		if alias, ok := symbolAliases[sym]; ok {
			sym = alias
		}
		if _, ok := seen[sym]; ok {
			continue
		}
		seen[sym] = struct{}{}
		symbols = append(symbols, sym)
	}
	return symbols
}

func tradingData(text string) *models.TradingData {
	td := &models.TradingData{}
	td.Entry = firstNumber(entryPattern, text)
	td.StopLoss = firstNumber(stopLossPattern, text)
	td.TakeProfit = firstNumber(takeProfitPattern, text)

	// Long wins when both directions appear.
	if longPattern.MatchString(text) {
		td.Direction = "long"
	} else if shortPattern.MatchString(text) {
		td.Direction = "short"
	}
	return td
}

func firstNumber(re *regexp.Regexp, text string) *float64 {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	raw := strings.ReplaceAll(m[1], ",", "")
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}
