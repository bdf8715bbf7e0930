package usecase

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"IntraCast/internal/domain/models"
	"IntraCast/internal/services/decision"
	"IntraCast/internal/services/indicators"
	applogger "IntraCast/pkg/logger"
)

func enrichForTest(bars []models.Bar) []models.IndicatorBar {
	return indicators.Enrich(bars)
}

// --- fakes ---

type fakeSource struct {
	mu      sync.Mutex
	calls   int
	bars    []models.Bar
	err     error
	blockCh chan struct{} // when set, Fetch blocks until closed
}

func (f *fakeSource) Fetch(ctx context.Context, symbol string, interval, lookback time.Duration) ([]models.Bar, error) {
	f.mu.Lock()
	f.calls++
	block := f.blockCh
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.bars, nil
}

func (f *fakeSource) fetchCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeBarStore struct {
	mu       sync.Mutex
	replaced [][]models.IndicatorBar
	latest   []models.IndicatorBar
}

func (f *fakeBarStore) Init(ctx context.Context) error { return nil }
func (f *fakeBarStore) Replace(ctx context.Context, symbol string, bars []models.IndicatorBar) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replaced = append(f.replaced, bars)
	return nil
}
func (f *fakeBarStore) LatestN(ctx context.Context, symbol string, n int) ([]models.Bar, error) {
	return nil, nil
}
func (f *fakeBarStore) LatestIndicatorBars(ctx context.Context, symbol string, n int) ([]models.IndicatorBar, error) {
	return f.latest, nil
}
func (f *fakeBarStore) Health(ctx context.Context) error { return nil }

func (f *fakeBarStore) replaceCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.replaced)
}

type fakeSignalStore struct {
	mu       sync.Mutex
	appended []models.Signal
	err      error
}

func (f *fakeSignalStore) Init(ctx context.Context) error { return nil }
func (f *fakeSignalStore) Append(ctx context.Context, s models.Signal) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appended = append(f.appended, s)
	return nil
}
func (f *fakeSignalStore) List(ctx context.Context) ([]models.Signal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Signal(nil), f.appended...), nil
}

type fakePredictor struct {
	price   float64
	probUp  float64
	err     error
	dirErr  error
	called  int
	samples []models.FeatureVector
}

func (f *fakePredictor) PredictPrice(ctx context.Context, v models.FeatureVector) (float64, error) {
	f.called++
	f.samples = append(f.samples, v)
	if f.err != nil {
		return 0, f.err
	}
	return f.price, nil
}

func (f *fakePredictor) ProbabilityUp(ctx context.Context, v models.FeatureVector) (float64, error) {
	if f.dirErr != nil {
		return 0, f.dirErr
	}
	return f.probUp, nil
}

type fakeCalendar struct{ open bool }

func (f fakeCalendar) IsOpen(t time.Time) bool { return f.open }

type fakeMetrics struct {
	mu     sync.Mutex
	ticks  map[string]int
	stages map[string]int
}

func (f *fakeMetrics) RecordTick(symbol, outcome string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ticks == nil {
		f.ticks = map[string]int{}
	}
	f.ticks[outcome]++
}
func (f *fakeMetrics) RecordSignal(symbol, action string)           {}
func (f *fakeMetrics) RecordError(kind string)                      {}
func (f *fakeMetrics) RecordLastPrice(symbol string, price float64) {}
func (f *fakeMetrics) RecordStageLatency(stage string, secs float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stages == nil {
		f.stages = map[string]int{}
	}
	f.stages[stage]++
}

func (f *fakeMetrics) outcome(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ticks[name]
}

func (f *fakeMetrics) stageCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stages[name]
}

type fakePublisher struct {
	mu        sync.Mutex
	published []models.Signal
	err       error
}

func (f *fakePublisher) Publish(ctx context.Context, s models.Signal) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, s)
	return nil
}
func (f *fakePublisher) Close() error { return nil }

// --- helpers ---

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

// marketBars returns enough bars for a complete feature window.
func marketBars(n int) []models.Bar {
	ts := time.Date(2024, 6, 3, 9, 15, 0, 0, time.UTC)
	out := make([]models.Bar, n)
	for i := 0; i < n; i++ {
		c := 100 + math.Sin(float64(i)/4)*2
		out[i] = models.Bar{
			Timestamp: ts.Add(time.Duration(i) * 15 * time.Minute),
			Open:      c - 0.5, High: c + 1, Low: c - 1, Close: c, Volume: 1000,
		}
	}
	return out
}

type fixture struct {
	pipe    *Pipeline
	source  *fakeSource
	bars    *fakeBarStore
	signals *fakeSignalStore
	pred    *fakePredictor
	metrics *fakeMetrics
	pub     *fakePublisher
}

func newFixture(t *testing.T, open bool) *fixture {
	t.Helper()
	f := &fixture{
		source:  &fakeSource{bars: marketBars(60)},
		bars:    &fakeBarStore{},
		signals: &fakeSignalStore{},
		pred:    &fakePredictor{price: 101, probUp: 0.7},
		metrics: &fakeMetrics{},
		pub:     &fakePublisher{},
	}
	f.pipe = NewPipeline(PipelineParams{
		Source:    f.source,
		Bars:      f.bars,
		Signals:   f.signals,
		Price:     f.pred,
		Direction: f.pred,
		Engine:    decision.NewEngine(decision.DefaultThresholds()),
		Calendar:  fakeCalendar{open: open},
		Publisher: f.pub,
		Metrics:   f.metrics,
		Logger:    testLogger(t),
		Interval:  15 * time.Minute,
		Lookback:  30 * 24 * time.Hour,
	})
	return f
}

// --- tests ---

func TestRunTickClosedMarketWritesNothing(t *testing.T) {
	f := newFixture(t, false)
	skipped, err := f.pipe.RunTick(context.Background(), "^NSEI")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !skipped {
		t.Fatalf("expected skip")
	}
	if f.source.fetchCalls() != 0 {
		t.Fatalf("closed market must not fetch")
	}
	if f.bars.replaceCalls() != 0 || len(f.signals.appended) != 0 {
		t.Fatalf("closed market must not write")
	}
	if f.metrics.outcome(OutcomeSkipped) != 1 {
		t.Fatalf("skip outcome not recorded")
	}
}

func TestRunTickHappyPath(t *testing.T) {
	f := newFixture(t, true)
	skipped, err := f.pipe.RunTick(context.Background(), "^NSEI")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if skipped {
		t.Fatalf("unexpected skip")
	}
	if f.bars.replaceCalls() != 1 {
		t.Fatalf("expected one bar replace, got %d", f.bars.replaceCalls())
	}
	if len(f.signals.appended) != 1 {
		t.Fatalf("expected one signal, got %d", len(f.signals.appended))
	}
	if len(f.pub.published) != 1 {
		t.Fatalf("expected one publish")
	}
	sig := f.signals.appended[0]
	if sig.Symbol != "^NSEI" {
		t.Fatalf("symbol mismatch: %s", sig.Symbol)
	}
	if sig.ProbabilityUp != 0.7 {
		t.Fatalf("probability mismatch: %v", sig.ProbabilityUp)
	}
	if f.metrics.outcome(OutcomeCompleted) != 1 {
		t.Fatalf("completed outcome not recorded")
	}
	for _, stage := range []string{StageFetching, StageFeaturizing, StagePredicting, StageDeciding, StagePersisting} {
		if f.metrics.stageCount(stage) == 0 {
			t.Fatalf("no latency recorded for stage %s", stage)
		}
	}
}

func TestRunTickCancelledAfterFetchWritesNothing(t *testing.T) {
	f := newFixture(t, true)
	block := make(chan struct{})
	f.source.blockCh = block

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := f.pipe.RunTick(ctx, "^NSEI")
		done <- err
	}()

	deadline := time.After(2 * time.Second)
	for f.source.fetchCalls() == 0 {
		select {
		case <-deadline:
			t.Fatalf("tick never started")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	// the fetch itself succeeds; the tick must stop at the next stage
	// boundary once the context is gone
	cancel()
	close(block)

	err := <-done
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if f.bars.replaceCalls() != 0 {
		t.Fatalf("cancelled tick must not replace bars")
	}
	if len(f.signals.appended) != 0 {
		t.Fatalf("cancelled tick must not append signals")
	}
	if f.metrics.outcome(OutcomeFailed) != 1 {
		t.Fatalf("failed outcome not recorded")
	}
}

func TestRunTickNoDataAborts(t *testing.T) {
	f := newFixture(t, true)
	f.source.bars = nil
	f.source.err = models.ErrNoData

	_, err := f.pipe.RunTick(context.Background(), "^NSEI")
	if !errors.Is(err, models.ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	if f.bars.replaceCalls() != 0 {
		t.Fatalf("failed fetch must not write bars")
	}
	if f.metrics.outcome(OutcomeFailed) != 1 {
		t.Fatalf("failed outcome not recorded")
	}
}

func TestRunTickInsufficientBarsWritesNothing(t *testing.T) {
	f := newFixture(t, true)
	f.source.bars = marketBars(10)

	_, err := f.pipe.RunTick(context.Background(), "^NSEI")
	if !errors.Is(err, models.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
	// bars are only written after the feature vector is confirmed
	if f.bars.replaceCalls() != 0 {
		t.Fatalf("unusable window must not replace bars")
	}
}

func TestRunTickPredictorFailureLeavesBarsNoSignal(t *testing.T) {
	f := newFixture(t, true)
	f.pred.err = models.ErrModelUnavailable

	_, err := f.pipe.RunTick(context.Background(), "^NSEI")
	if !errors.Is(err, models.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
	if f.bars.replaceCalls() != 1 {
		t.Fatalf("bars should stay persisted after predictor failure")
	}
	if len(f.signals.appended) != 0 {
		t.Fatalf("no signal may be appended on predictor failure")
	}
}

func TestRunTickInFlightRejected(t *testing.T) {
	f := newFixture(t, true)
	block := make(chan struct{})
	f.source.blockCh = block

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = f.pipe.RunTick(context.Background(), "^NSEI")
	}()

	// wait for the first tick to take the lock
	deadline := time.After(2 * time.Second)
	for f.source.fetchCalls() == 0 {
		select {
		case <-deadline:
			t.Fatalf("first tick never started")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	_, err := f.pipe.RunTick(context.Background(), "^NSEI")
	if !errors.Is(err, models.ErrTickInFlight) {
		t.Fatalf("expected ErrTickInFlight, got %v", err)
	}

	close(block)
	<-done

	// lock released: next tick proceeds
	if _, err := f.pipe.RunTick(context.Background(), "^NSEI"); err != nil {
		t.Fatalf("tick after release failed: %v", err)
	}
}

func TestRunTickPublishFailureDoesNotFailTick(t *testing.T) {
	f := newFixture(t, true)
	f.pub.err = errors.New("broker down")

	skipped, err := f.pipe.RunTick(context.Background(), "^NSEI")
	if err != nil || skipped {
		t.Fatalf("advisory publish failure must not fail the tick: %v", err)
	}
	if len(f.signals.appended) != 1 {
		t.Fatalf("signal must still be persisted")
	}
}

func TestPredictNowWritesNothing(t *testing.T) {
	f := newFixture(t, true)
	// seed the store with enriched bars, as a prior tick would have
	f.bars.latest = enrichForTest(marketBars(60))

	sig, err := f.pipe.PredictNow(context.Background(), "^NSEI", 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig.TradeAction == "" {
		t.Fatalf("expected a decided signal")
	}
	if f.bars.replaceCalls() != 0 || len(f.signals.appended) != 0 {
		t.Fatalf("on-demand prediction must not write")
	}
}

func TestIsExpected(t *testing.T) {
	for _, err := range []error{
		models.ErrNoData,
		models.ErrInsufficientData,
		models.ErrModelUnavailable,
		models.ErrStoreUnavailable,
		models.ErrTickInFlight,
	} {
		if !IsExpected(err) {
			t.Fatalf("%v should be expected", err)
		}
	}
	if IsExpected(errors.New("boom")) {
		t.Fatalf("arbitrary errors are not expected")
	}
}
