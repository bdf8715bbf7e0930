package indicators

import (
	"math"

	"IntraCast/internal/domain/models"
)

// Standard lookback windows. Feature parity with the fitted models depends
// on these staying in lockstep with the training pipeline.
const (
	EMAFastWindow    = 9
	EMASlowWindow    = 21
	RSIWindow        = 14
	MACDFastWindow   = 12
	MACDSlowWindow   = 26
	MACDSignalWindow = 9
	ATRWindow        = 14
	VolWindow        = 20
)

// MaxLookback is the longest single-indicator window.
const MaxLookback = EMASlowWindow

// EMA computes the exponential moving average with smoothing 2/(window+1).
// The recursion is seeded at the first value; the first window-1 outputs
// are NaN because the lookback is incomplete.
func EMA(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 || window <= 0 {
		return out
	}
	alpha := 2.0 / float64(window+1)
	ema := math.NaN()
	for i, v := range values {
		if math.IsNaN(v) {
			out[i] = math.NaN()
			continue
		}
		if math.IsNaN(ema) {
			ema = v
		} else {
			ema = alpha*v + (1-alpha)*ema
		}
		if i < window-1 {
			out[i] = math.NaN()
		} else {
			out[i] = ema
		}
	}
	return out
}

// RSI computes Wilder's relative strength index. Average gain/loss use
// alpha=1/window smoothing seeded at the first delta; outputs before index
// window are NaN.
func RSI(closes []float64, window int) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = math.NaN()
	}
	if len(closes) < 2 || window <= 0 {
		return out
	}
	alpha := 1.0 / float64(window)
	var avgGain, avgLoss float64
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		if i == 1 {
			avgGain, avgLoss = gain, loss
		} else {
			avgGain = (1-alpha)*avgGain + alpha*gain
			avgLoss = (1-alpha)*avgLoss + alpha*loss
		}
		if i < window {
			continue
		}
		if avgLoss == 0 {
			out[i] = 100
			continue
		}
		rs := avgGain / avgLoss
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// MACD computes the MACD line EMA(fast)-EMA(slow) and its signal line,
// an EMA(signalWindow) over the MACD series. The MACD line is defined once
// the slow EMA is, the signal line signalWindow-1 bars later.
func MACD(closes []float64, fast, slow, signalWindow int) (line, signal []float64) {
	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)
	line = make([]float64, len(closes))
	for i := range closes {
		line[i] = emaFast[i] - emaSlow[i] // NaN propagates
	}

	signal = make([]float64, len(closes))
	alpha := 2.0 / float64(signalWindow+1)
	sig := math.NaN()
	defined := 0
	for i, v := range line {
		if math.IsNaN(v) {
			signal[i] = math.NaN()
			continue
		}
		if math.IsNaN(sig) {
			sig = v
		} else {
			sig = alpha*v + (1-alpha)*sig
		}
		defined++
		if defined < signalWindow {
			signal[i] = math.NaN()
		} else {
			signal[i] = sig
		}
	}
	return line, signal
}

// ATR computes Wilder's average true range from high/low/close. True range
// needs the previous close, so the seed (a simple mean of the first window
// true ranges) lands at index window and outputs before that are NaN.
func ATR(highs, lows, closes []float64, window int) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = math.NaN()
	}
	if len(closes) <= window || window <= 0 {
		return out
	}
	tr := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		hl := highs[i] - lows[i]
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}
	sum := 0.0
	for i := 1; i <= window; i++ {
		sum += tr[i]
	}
	atr := sum / float64(window)
	out[window] = atr
	for i := window + 1; i < len(closes); i++ {
		atr = (atr*float64(window-1) + tr[i]) / float64(window)
		out[i] = atr
	}
	return out
}

// RollingStd computes the rolling sample standard deviation over window
// values. Outputs before index window-1 are NaN.
func RollingStd(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		out[i] = math.NaN()
	}
	if window <= 1 || len(values) < window {
		return out
	}
	for i := window - 1; i < len(values); i++ {
		sum, sum2 := 0.0, 0.0
		for j := i - window + 1; j <= i; j++ {
			sum += values[j]
			sum2 += values[j] * values[j]
		}
		n := float64(window)
		mean := sum / n
		variance := (sum2 - n*mean*mean) / (n - 1)
		if variance < 0 {
			variance = 0
		}
		out[i] = math.Sqrt(variance)
	}
	return out
}

// Enrich appends the full indicator set to an ordered bar sequence.
// Bars without a complete lookback carry NaN in the affected columns;
// downstream feature building drops those rows. No I/O.
func Enrich(bars []models.Bar) []models.IndicatorBar {
	closes := make([]float64, len(bars))
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
		highs[i] = b.High
		lows[i] = b.Low
	}

	ema9 := EMA(closes, EMAFastWindow)
	ema21 := EMA(closes, EMASlowWindow)
	rsi := RSI(closes, RSIWindow)
	macd, macdSignal := MACD(closes, MACDFastWindow, MACDSlowWindow, MACDSignalWindow)
	atr := ATR(highs, lows, closes, ATRWindow)
	vol := RollingStd(closes, VolWindow)

	out := make([]models.IndicatorBar, len(bars))
	for i, b := range bars {
		out[i] = models.IndicatorBar{
			Bar:        b,
			EMA9:       ema9[i],
			EMA21:      ema21[i],
			RSI:        rsi[i],
			MACD:       macd[i],
			MACDSignal: macdSignal[i],
			ATR:        atr[i],
			Volatility: vol[i],
		}
	}
	return out
}
