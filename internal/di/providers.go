package di

import (
	"context"
	"fmt"
	"time"

	domrepo "IntraCast/internal/domain/repository"
	domsvc "IntraCast/internal/domain/service"
	"IntraCast/internal/handler/api"
	"IntraCast/internal/handler/ws"
	internalrepo "IntraCast/internal/repository"
	"IntraCast/internal/service/calendar"
	"IntraCast/internal/service/marketdata"
	"IntraCast/internal/services/decision"
	"IntraCast/internal/services/predictor"
	"IntraCast/internal/usecase"
	"IntraCast/pkg/cache"
	pkgch "IntraCast/pkg/clickhouse"
	"IntraCast/pkg/config"
	xhttp "IntraCast/pkg/http"
	pkgkafka "IntraCast/pkg/kafka"
	applogger "IntraCast/pkg/logger"
	"IntraCast/pkg/metrics"
	"IntraCast/pkg/server"
	"IntraCast/pkg/util"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the
// database exists.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database,
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideBarStore creates the ClickHouse bar store and its tables.
func ProvideBarStore(chClient *pkgch.Client, cfg *config.Config, l *applogger.Logger) (domrepo.BarStore, error) {
	store := internalrepo.NewCHBarStore(chClient, cfg.ClickHouse.Database)
	store.SetLogger(l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("bar store init: %w", err)
	}
	return store, nil
}

// ProvideSignalStore creates the ClickHouse signal store and its table.
func ProvideSignalStore(chClient *pkgch.Client, cfg *config.Config, l *applogger.Logger) (domrepo.SignalStore, error) {
	store := internalrepo.NewCHSignalStore(chClient, cfg.ClickHouse.Database)
	store.SetLogger(l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("signal store init: %w", err)
	}
	return store, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideCalendar creates the exchange trading calendar.
func ProvideCalendar(cfg *config.Config) (*calendar.Calendar, error) {
	cal, err := calendar.New(cfg.Calendar.Timezone, cfg.Calendar.Open, cfg.Calendar.Close, cfg.Calendar.Holidays)
	if err != nil {
		return nil, fmt.Errorf("calendar: %w", err)
	}
	return cal, nil
}

// ProvideBarSource creates the market data REST client.
func ProvideBarSource(cfg *config.Config, cal *calendar.Calendar) domsvc.BarSource {
	return marketdata.New(cfg.Market.BaseURL, cfg.Market.APIKey, cal.Location(), cfg.Market.Timeout)
}

// ProvidePredictor creates the HTTP model serving adapter and probes the
// model service once. Missing models stop the process here instead of
// surfacing on the first tick.
func ProvidePredictor(cfg *config.Config) (*predictor.HTTPPredictor, error) {
	pred := predictor.NewHTTPPredictor(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := pred.Health(ctx); err != nil {
		return nil, fmt.Errorf("model service: %w", err)
	}
	return pred, nil
}

// ProvideDecisionEngine builds the decision engine from configured
// thresholds.
func ProvideDecisionEngine(cfg *config.Config) *decision.Engine {
	return decision.NewEngine(decision.Thresholds{
		BuyProbability:  cfg.Decision.BuyProbability,
		SellProbability: cfg.Decision.SellProbability,
		BuyReturn:       cfg.Decision.BuyReturn,
		SellReturn:      cfg.Decision.SellReturn,
		VolLow:          cfg.Decision.VolLow,
		VolHigh:         cfg.Decision.VolHigh,
		BlendWeight:     cfg.Decision.BlendWeight,
		BlendPrior:      cfg.Decision.BlendPrior,
	})
}

// ProvideSignalPublisher creates the Kafka fan-out publisher, or a no-op
// when Kafka is disabled.
func ProvideSignalPublisher(cfg *config.Config) (domsvc.SignalPublisher, error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NoopSignalPublisher{}, nil
	}

	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.WriteTimeout),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaSignalPublisher(producer, cfg.Kafka.Topic), nil
}

// ProvideCache creates the query cache: layered over Redis when enabled,
// in-memory otherwise.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Cache.Redis.Enabled {
		return cache.NewMemoryCache(1024), nil
	}

	rc, err := cache.NewRedisCache(cache.RedisConfig{
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return cache.NewLayeredCache(rc, 1024), nil
}

// ProvidePipeline assembles the forecast pipeline.
func ProvidePipeline(
	source domsvc.BarSource,
	bars domrepo.BarStore,
	signals domrepo.SignalStore,
	pred *predictor.HTTPPredictor,
	engine *decision.Engine,
	cal *calendar.Calendar,
	pub domsvc.SignalPublisher,
	m domrepo.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.Pipeline {
	return usecase.NewPipeline(usecase.PipelineParams{
		Source:    source,
		Bars:      bars,
		Signals:   signals,
		Price:     pred,
		Direction: pred,
		Engine:    engine,
		Calendar:  cal,
		Publisher: pub,
		Metrics:   m,
		Logger:    l,
		Interval:  cfg.Market.Interval,
		Lookback:  cfg.Market.Lookback,
	})
}

// ProvideQueries assembles the read side with its cache.
func ProvideQueries(
	bars domrepo.BarStore,
	signals domrepo.SignalStore,
	c cache.Service,
	cfg *config.Config,
) *usecase.Queries {
	session, ok := util.SessionLength(cfg.Calendar.Open, cfg.Calendar.Close)
	if !ok {
		session = 24 * time.Hour
	}
	q := usecase.NewQueries(bars, signals, cfg.Market.Interval, session)
	return q.WithCache(c, cfg.Cache.TTL.Historical, cfg.Cache.TTL.Performance)
}

// ProvideHub creates the websocket heartbeat hub.
func ProvideHub(cfg *config.Config, l *applogger.Logger) *ws.Hub {
	return ws.NewHub(l, cfg.Heartbeat.Interval)
}

// ProvideHandler creates the Echo route handler.
func ProvideHandler(
	l *applogger.Logger,
	pipe *usecase.Pipeline,
	queries *usecase.Queries,
	hub *ws.Hub,
	bars domrepo.BarStore,
	pred *predictor.HTTPPredictor,
	cfg *config.Config,
) xhttp.Handler {
	return api.NewForecastEchoHandler(l, pipe, queries, hub, bars, pred, cfg.Market.Symbol, cfg.Pipeline.HistoryLimit)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	pipe *usecase.Pipeline,
	handler xhttp.Handler,
	hub *ws.Hub,
	chClient *pkgch.Client,
	pub domsvc.SignalPublisher,
) *server.App {
	return server.New(cfg, l, pipe, handler, hub, chClient, pub)
}
