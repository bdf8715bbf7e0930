package indicators

import (
	"math"
	"testing"
	"time"

	"IntraCast/internal/domain/models"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEMAIncompleteWindowIsNaN(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	out := EMA(values, 3)
	for i := 0; i < 2; i++ {
		if !math.IsNaN(out[i]) {
			t.Fatalf("index %d: expected NaN, got %v", i, out[i])
		}
	}
	for i := 2; i < len(out); i++ {
		if math.IsNaN(out[i]) {
			t.Fatalf("index %d: expected defined value", i)
		}
	}
}

func TestEMASeededAtFirstValue(t *testing.T) {
	values := []float64{10, 10, 10, 10}
	out := EMA(values, 3)
	// constant input keeps the recursion at the seed
	if !almostEqual(out[3], 10) {
		t.Fatalf("expected 10, got %v", out[3])
	}
}

func TestEMARecursion(t *testing.T) {
	values := []float64{1, 2, 3}
	out := EMA(values, 2)
	// alpha = 2/3: seed 1, then 1.6667, then 2.5556
	if !almostEqual(out[1], 2.0/3*2+1.0/3*1) {
		t.Fatalf("unexpected ema[1] %v", out[1])
	}
}

func TestRSIAllGains(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	out := RSI(closes, 14)
	for i := 0; i < 14; i++ {
		if !math.IsNaN(out[i]) {
			t.Fatalf("index %d: expected NaN before window", i)
		}
	}
	if !almostEqual(out[20], 100) {
		t.Fatalf("monotonic gains should give RSI 100, got %v", out[20])
	}
}

func TestRSIAllLosses(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 200 - float64(i)
	}
	out := RSI(closes, 14)
	if !almostEqual(out[20], 0) {
		t.Fatalf("monotonic losses should give RSI 0, got %v", out[20])
	}
}

func TestMACDSignalDefinedLater(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + math.Sin(float64(i)/5)*3
	}
	line, signal := MACD(closes, 12, 26, 9)

	// line follows the slow EMA: defined from index 25
	if !math.IsNaN(line[24]) {
		t.Fatalf("expected NaN macd at 24")
	}
	if math.IsNaN(line[25]) {
		t.Fatalf("expected defined macd at 25")
	}
	// signal needs 9 defined macd values: defined from index 33
	if !math.IsNaN(signal[32]) {
		t.Fatalf("expected NaN signal at 32")
	}
	if math.IsNaN(signal[33]) {
		t.Fatalf("expected defined signal at 33")
	}
}

func TestATRSeedAndRecursion(t *testing.T) {
	n := 20
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		highs[i] = 102
		lows[i] = 98
		closes[i] = 100
	}
	out := ATR(highs, lows, closes, 14)
	for i := 0; i < 14; i++ {
		if !math.IsNaN(out[i]) {
			t.Fatalf("index %d: expected NaN before seed", i)
		}
	}
	// constant 4-point true range seeds and stays at 4
	if !almostEqual(out[14], 4) {
		t.Fatalf("expected seed 4, got %v", out[14])
	}
	if !almostEqual(out[19], 4) {
		t.Fatalf("expected steady atr 4, got %v", out[19])
	}
}

func TestRollingStdConstantSeries(t *testing.T) {
	values := make([]float64, 25)
	for i := range values {
		values[i] = 42
	}
	out := RollingStd(values, 20)
	if !math.IsNaN(out[18]) {
		t.Fatalf("expected NaN before full window")
	}
	if !almostEqual(out[19], 0) {
		t.Fatalf("constant series should have zero std, got %v", out[19])
	}
}

func TestRollingStdSample(t *testing.T) {
	values := []float64{1, 2, 3, 4}
	out := RollingStd(values, 4)
	// sample std of 1..4 is sqrt(5/3)
	want := math.Sqrt(5.0 / 3.0)
	if !almostEqual(out[3], want) {
		t.Fatalf("got %v want %v", out[3], want)
	}
}

func TestEnrichColumnsAlign(t *testing.T) {
	bars := make([]models.Bar, 40)
	ts := time.Date(2024, 6, 3, 9, 15, 0, 0, time.UTC)
	for i := range bars {
		c := 100 + math.Sin(float64(i)/4)*2
		bars[i] = models.Bar{
			Timestamp: ts.Add(time.Duration(i) * 15 * time.Minute),
			Open:      c - 0.5,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    1000,
		}
	}
	out := Enrich(bars)
	if len(out) != len(bars) {
		t.Fatalf("length mismatch: %d vs %d", len(out), len(bars))
	}
	// the longest lookback is the MACD signal chain; the tail must be complete
	last := out[len(out)-1]
	for name, v := range map[string]float64{
		"ema9":        last.EMA9,
		"ema21":       last.EMA21,
		"rsi":         last.RSI,
		"macd":        last.MACD,
		"macd_signal": last.MACDSignal,
		"atr":         last.ATR,
		"volatility":  last.Volatility,
	} {
		if math.IsNaN(v) {
			t.Fatalf("%s undefined on last bar of a 40-bar window", name)
		}
	}
	// early rows carry NaN until their windows fill
	if !math.IsNaN(out[0].EMA21) {
		t.Fatalf("expected NaN ema21 on first bar")
	}
}
