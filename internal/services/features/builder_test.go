package features

import (
	"errors"
	"math"
	"testing"
	"time"

	"IntraCast/internal/domain/models"
	"IntraCast/internal/services/indicators"
)

// completeBars builds n indicator bars with all columns defined and a
// deterministic close series.
func completeBars(n int) []models.IndicatorBar {
	ts := time.Date(2024, 6, 3, 9, 15, 0, 0, time.UTC)
	out := make([]models.IndicatorBar, n)
	for i := 0; i < n; i++ {
		c := 100 + float64(i)
		out[i] = models.IndicatorBar{
			Bar: models.Bar{
				Timestamp: ts.Add(time.Duration(i) * 15 * time.Minute),
				Open:      c, High: c + 1, Low: c - 1, Close: c, Volume: 1000,
			},
			EMA9: c, EMA21: c, RSI: 50, MACD: 0.1, MACDSignal: 0.1, ATR: 2, Volatility: 5,
		}
	}
	return out
}

func TestBuildInsufficientData(t *testing.T) {
	_, err := Build(completeBars(5))
	if !errors.Is(err, models.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestBuildShortRawWindow(t *testing.T) {
	// 20 raw bars cannot fill the 21-bar EMA window, so no complete row
	// survives the drop.
	bars := make([]models.Bar, 20)
	ts := time.Date(2024, 6, 3, 9, 15, 0, 0, time.UTC)
	for i := range bars {
		c := 100 + float64(i)
		bars[i] = models.Bar{Timestamp: ts.Add(time.Duration(i) * time.Minute), Open: c, High: c + 1, Low: c - 1, Close: c}
	}
	_, err := Build(indicators.Enrich(bars))
	if !errors.Is(err, models.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestBuildRowCountAndOrder(t *testing.T) {
	bars := completeBars(10)
	vs, err := Build(bars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// the first 5 rows lack full lag history and are dropped
	if len(vs) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(vs))
	}
	if !vs[0].Timestamp.Equal(bars[5].Timestamp) {
		t.Fatalf("first row should align with bar 5")
	}
}

func TestBuildDerivedFeatures(t *testing.T) {
	bars := completeBars(10)
	vs, err := Build(bars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last := vs[len(vs)-1] // close 109, prev closes 108/106/104
	checks := map[int]float64{
		8:  (109.0 - 108.0) / 108.0, // return_1
		9:  (109.0 - 106.0) / 106.0, // return_3
		10: (109.0 - 104.0) / 104.0, // return_5
		11: 109.0 - 104.0,           // momentum_5
	}
	for idx, want := range checks {
		if math.Abs(last.Values[idx]-want) > 1e-12 {
			t.Fatalf("feature %s: got %v want %v", models.FeatureNames[idx], last.Values[idx], want)
		}
	}
	if last.Close() != 109 {
		t.Fatalf("close feature mismatch: %v", last.Close())
	}
	if last.Volatility() != 5 {
		t.Fatalf("volatility feature mismatch: %v", last.Volatility())
	}
}

func TestBuildDeterministic(t *testing.T) {
	a, err := Build(completeBars(30))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Build(completeBars(30))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a) != len(b) {
		t.Fatalf("length mismatch")
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("row %d differs between identical inputs", i)
		}
	}
}

func TestDropIncompleteFiltersNaN(t *testing.T) {
	bars := completeBars(8)
	bars[3].RSI = math.NaN()
	out := DropIncomplete(bars)
	if len(out) != 7 {
		t.Fatalf("expected 7 complete rows, got %d", len(out))
	}
	for _, b := range out {
		if math.IsNaN(b.RSI) {
			t.Fatalf("NaN row survived the drop")
		}
	}
}

func TestLatestIsLastRow(t *testing.T) {
	bars := completeBars(12)
	v, err := Latest(bars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.Timestamp.Equal(bars[len(bars)-1].Timestamp) {
		t.Fatalf("latest vector should come from the newest bar")
	}
}

func TestBuildTrainingSetTargets(t *testing.T) {
	rows, err := BuildTrainingSet(completeBars(10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 5 feature rows, last has no next bar
	if len(rows) != 4 {
		t.Fatalf("expected 4 training rows, got %d", len(rows))
	}
	for i, r := range rows {
		if r.NextClose != r.Features.Close()+1 {
			t.Fatalf("row %d: next close mismatch", i)
		}
		if !r.Up {
			t.Fatalf("row %d: rising series should label Up", i)
		}
	}
}
