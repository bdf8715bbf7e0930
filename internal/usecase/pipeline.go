package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"IntraCast/internal/domain/models"
	domrepo "IntraCast/internal/domain/repository"
	domsvc "IntraCast/internal/domain/service"
	"IntraCast/internal/services/decision"
	"IntraCast/internal/services/features"
	"IntraCast/internal/services/indicators"
	applogger "IntraCast/pkg/logger"
)

// Pipeline stages, in execution order. The market-hours gate precedes
// fetching; a closed market ends the tick before any stage runs.
const (
	StageFetching    = "fetching"
	StageFeaturizing = "featurizing"
	StagePredicting  = "predicting"
	StageDeciding    = "deciding"
	StagePersisting  = "persisting"
)

// Tick outcomes recorded per run.
const (
	OutcomeCompleted = "completed"
	OutcomeSkipped   = "skipped_market_closed"
	OutcomeFailed    = "failed"
)

// Pipeline runs one full fetch→featurize→predict→decide→persist cycle per
// tick. Stages are sequential and synchronous; a per-symbol run-lock keeps
// at most one tick in flight so two ticks never race on the bar swap.
//
// Bars are written only after the latest feature vector is confirmed
// extractable, so the store never holds bars that cannot produce a
// feature row. A predictor or signal-store failure after the bar write
// leaves the new bars persisted and no signal appended; that partial
// outcome is deliberate and the next tick reconverges.
type Pipeline struct {
	source    domsvc.BarSource
	bars      domrepo.BarStore
	signals   domrepo.SignalStore
	price     domsvc.PricePredictor
	direction domsvc.DirectionClassifier
	engine    *decision.Engine
	cal       domsvc.Calendar
	pub       domsvc.SignalPublisher
	metrics   domrepo.Metrics
	l         *applogger.Logger
	interval  time.Duration
	lookback  time.Duration
	now       func() time.Time
	mu        sync.Mutex
	inFlight  map[string]bool
}

// PipelineParams bundles the pipeline's collaborators.
type PipelineParams struct {
	Source    domsvc.BarSource
	Bars      domrepo.BarStore
	Signals   domrepo.SignalStore
	Price     domsvc.PricePredictor
	Direction domsvc.DirectionClassifier
	Engine    *decision.Engine
	Calendar  domsvc.Calendar
	Publisher domsvc.SignalPublisher
	Metrics   domrepo.Metrics
	Logger    *applogger.Logger
	Interval  time.Duration
	Lookback  time.Duration
}

func NewPipeline(p PipelineParams) *Pipeline {
	pub := p.Publisher
	if pub == nil {
		pub = noopPublisher{}
	}
	return &Pipeline{
		source:    p.Source,
		bars:      p.Bars,
		signals:   p.Signals,
		price:     p.Price,
		direction: p.Direction,
		engine:    p.Engine,
		cal:       p.Calendar,
		pub:       pub,
		metrics:   p.Metrics,
		l:         p.Logger,
		interval:  p.Interval,
		lookback:  p.Lookback,
		now:       time.Now,
		inFlight:  map[string]bool{},
	}
}

// SetClock overrides the time source.
func (p *Pipeline) SetClock(now func() time.Time) { p.now = now }

// RunTick executes one tick for symbol. A closed market returns (skipped
// true, nil): not an error, nothing fetched, nothing written. Any stage
// failure aborts the tick, is logged with full context, and leaves the
// process able to run the next tick.
func (p *Pipeline) RunTick(ctx context.Context, symbol string) (skipped bool, err error) {
	ts := p.now()
	if !p.cal.IsOpen(ts) {
		p.metrics.RecordTick(symbol, OutcomeSkipped)
		p.l.Debug("market closed, tick skipped", applogger.String("symbol", symbol))
		return true, nil
	}

	if !p.acquire(symbol) {
		return false, fmt.Errorf("%w: %s", models.ErrTickInFlight, symbol)
	}
	defer p.release(symbol)

	sig, err := p.run(ctx, symbol, ts)
	if err != nil {
		p.metrics.RecordTick(symbol, OutcomeFailed)
		return false, err
	}

	p.metrics.RecordTick(symbol, OutcomeCompleted)
	p.metrics.RecordSignal(symbol, sig.TradeAction)
	p.metrics.RecordLastPrice(symbol, sig.CurrentPrice)
	p.l.Info("tick completed",
		applogger.String("symbol", symbol),
		applogger.String("action", sig.TradeAction),
		applogger.String("direction", sig.Direction),
		applogger.Any("expected_return_percent", sig.ExpectedReturnPercent),
	)
	return false, nil
}

func (p *Pipeline) run(ctx context.Context, symbol string, ts time.Time) (models.Signal, error) {
	var zero models.Signal

	bars, err := p.stageFetch(ctx, symbol)
	if err != nil {
		return zero, p.fail(symbol, StageFetching, ts, err)
	}
	if err := ctx.Err(); err != nil {
		return zero, p.fail(symbol, StageFetching, ts, err)
	}

	start := p.now()
	enriched := indicators.Enrich(bars)
	vector, err := features.Latest(enriched)
	p.metrics.RecordStageLatency(StageFeaturizing, p.now().Sub(start).Seconds())
	if err != nil {
		return zero, p.fail(symbol, StageFeaturizing, ts, err)
	}
	if err := ctx.Err(); err != nil {
		return zero, p.fail(symbol, StageFeaturizing, ts, err)
	}

	// The feature vector exists, so the fetched window is usable; only now
	// is the bar table swapped.
	start = p.now()
	if err := p.bars.Replace(ctx, symbol, features.DropIncomplete(enriched)); err != nil {
		return zero, p.fail(symbol, StagePersisting, ts, err)
	}
	p.metrics.RecordStageLatency(StagePersisting, p.now().Sub(start).Seconds())

	predicted, probUp, err := p.stagePredict(ctx, vector)
	if err != nil {
		return zero, p.fail(symbol, StagePredicting, ts, err)
	}
	if err := ctx.Err(); err != nil {
		return zero, p.fail(symbol, StagePredicting, ts, err)
	}

	start = p.now()
	sig := p.engine.Decide(decision.Input{
		Timestamp:      ts,
		Symbol:         symbol,
		CurrentPrice:   vector.Close(),
		PredictedPrice: predicted,
		ProbabilityUp:  probUp,
		Volatility:     vector.Volatility(),
	})
	p.metrics.RecordStageLatency(StageDeciding, p.now().Sub(start).Seconds())

	if err := p.signals.Append(ctx, sig); err != nil {
		return zero, p.fail(symbol, StagePersisting, ts, err)
	}

	if err := p.pub.Publish(ctx, sig); err != nil {
		// fan-out is advisory; the signal is already committed
		p.l.Warn("signal publish failed", applogger.String("symbol", symbol), applogger.Error(err))
	}

	return sig, nil
}

// PredictNow recomputes a signal from the latest persisted bars without
// writing anything. Serves on-demand prediction requests.
func (p *Pipeline) PredictNow(ctx context.Context, symbol string, window int) (models.Signal, error) {
	var zero models.Signal

	enriched, err := p.bars.LatestIndicatorBars(ctx, symbol, window)
	if err != nil {
		return zero, err
	}
	vector, err := features.Latest(enriched)
	if err != nil {
		return zero, err
	}
	predicted, probUp, err := p.stagePredict(ctx, vector)
	if err != nil {
		return zero, err
	}
	return p.engine.Decide(decision.Input{
		Timestamp:      p.now(),
		Symbol:         symbol,
		CurrentPrice:   vector.Close(),
		PredictedPrice: predicted,
		ProbabilityUp:  probUp,
		Volatility:     vector.Volatility(),
	}), nil
}

func (p *Pipeline) stageFetch(ctx context.Context, symbol string) ([]models.Bar, error) {
	start := p.now()
	bars, err := p.source.Fetch(ctx, symbol, p.interval, p.lookback)
	p.metrics.RecordStageLatency(StageFetching, p.now().Sub(start).Seconds())
	if err != nil {
		return nil, err
	}
	return bars, nil
}

func (p *Pipeline) stagePredict(ctx context.Context, v models.FeatureVector) (price, probUp float64, err error) {
	start := p.now()
	defer func() {
		p.metrics.RecordStageLatency(StagePredicting, p.now().Sub(start).Seconds())
	}()

	price, err = p.price.PredictPrice(ctx, v)
	if err != nil {
		return 0, 0, err
	}
	probUp, err = p.direction.ProbabilityUp(ctx, v)
	if err != nil {
		return 0, 0, err
	}
	return price, probUp, nil
}

func (p *Pipeline) fail(symbol, stage string, ts time.Time, err error) error {
	p.metrics.RecordError(stage)
	p.l.Error("tick aborted",
		applogger.String("symbol", symbol),
		applogger.String("stage", stage),
		applogger.String("tick_ts", ts.Format(time.RFC3339)),
		applogger.Error(err),
	)
	return fmt.Errorf("%s: %w", stage, err)
}

func (p *Pipeline) acquire(symbol string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inFlight[symbol] {
		return false
	}
	p.inFlight[symbol] = true
	return true
}

func (p *Pipeline) release(symbol string) {
	p.mu.Lock()
	delete(p.inFlight, symbol)
	p.mu.Unlock()
}

// IsExpected reports whether err belongs to the per-tick taxonomy that the
// scheduler treats as non-fatal.
func IsExpected(err error) bool {
	return errors.Is(err, models.ErrNoData) ||
		errors.Is(err, models.ErrInsufficientData) ||
		errors.Is(err, models.ErrModelUnavailable) ||
		errors.Is(err, models.ErrStoreUnavailable) ||
		errors.Is(err, models.ErrTickInFlight)
}

type noopPublisher struct{}

func (noopPublisher) Publish(ctx context.Context, s models.Signal) error { return nil }
func (noopPublisher) Close() error                                       { return nil }
