package market

import (
	"math"
	"strings"
	"testing"
)

func flatBars(n int, price float64) []kline {
	bars := make([]kline, n)
	for i := range bars {
		bars[i] = kline{High: price + 1, Low: price - 1, Close: price}
	}
	return bars
}

func TestComputeIndicatorsNeedsTwentyBars(t *testing.T) {
	if ind := computeIndicators(flatBars(19, 100)); ind != nil {
		t.Fatalf("expected nil for short history, got %+v", ind)
	}
	if ind := computeIndicators(flatBars(20, 100)); ind == nil {
		t.Fatalf("expected indicators for 20 bars")
	}
}

func TestComputeIndicatorsFlatSeries(t *testing.T) {
	ind := computeIndicators(flatBars(60, 100))
	if ind == nil {
		t.Fatalf("expected indicators")
	}
	if ind.SMA20 != 100 || ind.SMA50 != 100 {
		t.Fatalf("sma mismatch: %+v", ind)
	}
	if ind.Trend != "neutral" {
		t.Fatalf("flat series must be neutral, got %s", ind.Trend)
	}
	if ind.Support != 99 || ind.Resistance != 101 {
		t.Fatalf("support/resistance mismatch: %+v", ind)
	}
	// No losses at all pins RSI to 100.
	if ind.RSI != 100 {
		t.Fatalf("expected RSI 100 for a series with no down moves, got %v", ind.RSI)
	}
}

func TestComputeIndicatorsTrend(t *testing.T) {
	up := make([]kline, 40)
	for i := range up {
		price := 100 + float64(i)*2
		up[i] = kline{High: price + 1, Low: price - 1, Close: price}
	}
	if ind := computeIndicators(up); ind.Trend != "bullish" {
		t.Fatalf("rising series should be bullish, got %s", ind.Trend)
	}

	down := make([]kline, 40)
	for i := range down {
		price := 200 - float64(i)*2
		down[i] = kline{High: price + 1, Low: price - 1, Close: price}
	}
	if ind := computeIndicators(down); ind.Trend != "bearish" {
		t.Fatalf("falling series should be bearish, got %s", ind.Trend)
	}
}

func TestRSIBalancedSeries(t *testing.T) {
	// Alternating equal up and down moves should land near 50.
	prices := make([]float64, 30)
	for i := range prices {
		if i%2 == 0 {
			prices[i] = 100
		} else {
			prices[i] = 102
		}
	}
	got := rsi(prices, 14)
	if math.Abs(got-50) > 1e-9 {
		t.Fatalf("expected RSI 50, got %v", got)
	}
}

func TestSupportResistanceUseTwentyBarExtremes(t *testing.T) {
	bars := flatBars(40, 100)
	bars[35].Low = 80   // inside the last 20 bars
	bars[10].High = 500 // outside the window, must be ignored
	bars[30].High = 120

	ind := computeIndicators(bars)
	if ind.Support != 80 {
		t.Fatalf("support mismatch: %v", ind.Support)
	}
	if ind.Resistance != 120 {
		t.Fatalf("resistance mismatch: %v", ind.Resistance)
	}
}

func TestChartEmbed(t *testing.T) {
	chart := ChartEmbed("SOL")
	if chart.Symbol != "SOL" || chart.Exchange != "BINANCE" || chart.Interval != "1H" {
		t.Fatalf("chart descriptor wrong: %+v", chart)
	}
	if want := "BINANCE%3ASOLUSDT"; !strings.Contains(chart.EmbedURL, want) {
		t.Fatalf("embed URL missing pair: %s", chart.EmbedURL)
	}
	if !strings.Contains(chart.EmbedURL, "tradingview.com/widgetembed") {
		t.Fatalf("embed URL wrong host: %s", chart.EmbedURL)
	}
}
