package market

// Simple technicals over hourly klines. The window sizes match the values
// the assistant quotes in its analysis (SMA20/50, RSI14, 20-bar extremes).

func computeIndicators(bars []kline) *Indicators {
	if len(bars) < 20 {
		return nil
	}
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	ind := &Indicators{
		SMA20:      sma(closes, 20),
		RSI:        rsi(closes, 14),
		Trend:      classifyTrend(closes),
		Support:    bars[len(bars)-1].Low,
		Resistance: bars[len(bars)-1].High,
	}
	if len(closes) >= 50 {
		ind.SMA50 = sma(closes, 50)
	}
	for _, b := range bars[len(bars)-20:] {
		if b.Low < ind.Support {
			ind.Support = b.Low
		}
		if b.High > ind.Resistance {
			ind.Resistance = b.High
		}
	}
	return ind
}

func sma(prices []float64, period int) float64 {
	if len(prices) < period {
		return 0
	}
	var sum float64
	for _, p := range prices[len(prices)-period:] {
		sum += p
	}
	return sum / float64(period)
}

func rsi(prices []float64, period int) float64 {
	if len(prices) < period+1 {
		return 0
	}
	var gains, losses float64
	for i := len(prices) - period; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}
	if losses == 0 {
		return 100
	}
	rs := (gains / float64(period)) / (losses / float64(period))
	return 100 - (100 / (1 + rs))
}

// classifyTrend compares the mean of the last 10 closes against the prior
// 10; a ±2% swing separates bullish/bearish from neutral.
func classifyTrend(prices []float64) string {
	if len(prices) < 20 {
		return "neutral"
	}
	recent := mean(prices[len(prices)-10:])
	older := mean(prices[len(prices)-20 : len(prices)-10])
	if older == 0 {
		return "neutral"
	}
	change := (recent - older) / older * 100
	switch {
	case change > 2:
		return "bullish"
	case change < -2:
		return "bearish"
	default:
		return "neutral"
	}
}

func mean(prices []float64) float64 {
	if len(prices) == 0 {
		return 0
	}
	var sum float64
	for _, p := range prices {
		sum += p
	}
	return sum / float64(len(prices))
}
