package di

import (
	"fmt"
	"time"

	"FinAdvisor/internal/domain/models"
	"FinAdvisor/internal/domain/repository"
	domsvc "FinAdvisor/internal/domain/service"
	"FinAdvisor/internal/handler/api"
	internalrepo "FinAdvisor/internal/repository"
	"FinAdvisor/internal/service/cache"
	"FinAdvisor/internal/service/ratelimit"
	"FinAdvisor/internal/services/forecast"
	"FinAdvisor/internal/services/optimizer"
	"FinAdvisor/internal/services/recommend"
	"FinAdvisor/internal/services/registry"
	"FinAdvisor/internal/services/risk"
	"FinAdvisor/internal/usecase"
	pkgch "FinAdvisor/pkg/clickhouse"
	"FinAdvisor/pkg/config"
	xhttp "FinAdvisor/pkg/http"
	pkgkafka "FinAdvisor/pkg/kafka"
	"FinAdvisor/pkg/kv"
	applogger "FinAdvisor/pkg/logger"
	"FinAdvisor/pkg/metrics"
	pkgpg "FinAdvisor/pkg/postgres"
	"FinAdvisor/pkg/server"
)

// ProvideLogger creates the root application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
		Output: cfg.Logger.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates the ClickHouse client holding NAV history.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
		pkgch.WithSchemaInit(cfg.ClickHouse.InitSchema),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvidePostgresClient creates the pool for the fund catalog and holdings.
func ProvidePostgresClient(cfg *config.Config) (*pkgpg.Client, error) {
	client, err := pkgpg.NewClient(
		pkgpg.WithURL(cfg.Postgres.URL),
		pkgpg.WithPoolSize(cfg.Postgres.MaxConns, cfg.Postgres.MinConns),
		pkgpg.WithConnectTimeout(cfg.Postgres.ConnectTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("postgres client: %w", err)
	}
	return client, nil
}

// ProvideKVClient connects to Redis when the registry stores artifacts
// there. It returns nil otherwise.
func ProvideKVClient(cfg *config.Config) (*kv.Client, error) {
	if cfg.Registry.Store != "redis" {
		return nil, nil
	}
	client, err := kv.New(
		kv.WithAddr(cfg.Redis.Addr),
		kv.WithPassword(cfg.Redis.Password),
		kv.WithDB(cfg.Redis.DB),
		kv.WithPool(cfg.Redis.PoolSize, 2, 30*time.Second),
		kv.WithPrefix(cfg.Registry.KeyPrefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis client: %w", err)
	}
	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer when brokers are
// configured. It returns nil otherwise.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
		pkgkafka.WithBatchTimeout(cfg.Kafka.BatchTimeout),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideNavStore creates the ClickHouse NAV history repository.
func ProvideNavStore(ch *pkgch.Client, l *applogger.Logger) repository.NavStore {
	s := internalrepo.NewCHNavStore(ch)
	s.SetLogger(l.With("nav_store"))
	return s
}

// ProvideFundStore creates the Postgres catalog and holdings repository.
func ProvideFundStore(pg *pkgpg.Client, l *applogger.Logger) *internalrepo.PGFundStore {
	s := internalrepo.NewPGFundStore(pg)
	s.SetLogger(l.With("fund_store"))
	return s
}

// ProvideArtifactStore selects the file or Redis artifact store.
func ProvideArtifactStore(cfg *config.Config, client *kv.Client, l *applogger.Logger) repository.ArtifactStore {
	if cfg.Registry.Store == "redis" && client != nil {
		s := internalrepo.NewRedisArtifactStore(client)
		s.SetLogger(l.With("artifact_store"))
		return s
	}
	s := internalrepo.NewFileArtifactStore(cfg.Registry.Dir)
	s.SetLogger(l.With("artifact_store"))
	return s
}

// ProvideEventPublisher publishes model events to Kafka, or drops them
// when no producer is configured.
func ProvideEventPublisher(cfg *config.Config, producer *pkgkafka.Producer) repository.EventPublisher {
	if producer == nil {
		return internalrepo.NoopEventPublisher{}
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.Topic)
}

// ProvideForecastConfig maps the forecaster section of the config.
func ProvideForecastConfig(cfg *config.Config) forecast.Config {
	f := cfg.Analytics.Forecaster
	return forecast.Config{
		Model: models.ForecastModel(f.Model),
		Seasonal: forecast.SeasonalParams{
			WeeklyOrder: f.WeeklyOrder,
			YearlyOrder: f.YearlyOrder,
			Ridge:       f.Ridge,
		},
		GBT: forecast.GBTParams{
			Trees:        f.GBT.Trees,
			MaxDepth:     f.GBT.Depth,
			LearningRate: f.GBT.LearningRate,
			MinLeaf:      f.GBT.MinLeaf,
		},
	}
}

// ProvideForecaster creates the configured forecaster.
func ProvideForecaster(fc forecast.Config) domsvc.Forecaster {
	return forecast.New(fc)
}

// ProvideRiskScorer creates the default risk scorer.
func ProvideRiskScorer(cfg *config.Config) *risk.Scorer {
	p := risk.DefaultParams()
	p.RiskFreeRate = cfg.Analytics.Risk.RiskFreeRate
	return risk.NewScorer(p)
}

// ProvideOptimizer creates the default portfolio optimizer.
func ProvideOptimizer(cfg *config.Config) *optimizer.Optimizer {
	p := optimizer.DefaultParams()
	p.RiskFreeRate = cfg.Analytics.Optimizer.RiskFreeRate
	p.TradingDays = float64(cfg.Analytics.Optimizer.TradingDays)
	return optimizer.New(p)
}

// ProvideNavPredictorTrainer fits the forecaster on the reference fund.
func ProvideNavPredictorTrainer(navs repository.NavStore, fc forecast.Config, cfg *config.Config) *usecase.NavPredictorTrainer {
	return usecase.NewNavPredictorTrainer(navs, fc, cfg.Registry.ReferenceFund, cfg.Analytics.HistoryDays)
}

// ProvideRegistry creates the model registry with every trainer attached.
func ProvideRegistry(
	cfg *config.Config,
	store repository.ArtifactStore,
	pub repository.EventPublisher,
	m repository.Metrics,
	l *applogger.Logger,
	nav *usecase.NavPredictorTrainer,
	scorer *risk.Scorer,
	opt *optimizer.Optimizer,
) *registry.Registry {
	return registry.New(store, cfg.Registry.Models,
		registry.WithLogger(l.With("registry")),
		registry.WithPublisher(pub),
		registry.WithMetrics(m),
		registry.WithTrainers(usecase.Trainers(nav, scorer, opt)...),
	)
}

// ProvideActiveModels resolves scorer and optimizer from registry artifacts.
func ProvideActiveModels(reg usecase.ModelRegistry, scorer *risk.Scorer, opt *optimizer.Optimizer, l *applogger.Logger) *usecase.ActiveModels {
	return usecase.NewActiveModels(reg, scorer, opt, l.With("active_models"))
}

// ProvideForecastUseCase creates the NAV forecast use case.
func ProvideForecastUseCase(navs repository.NavStore, f domsvc.Forecaster, m repository.Metrics, cfg *config.Config) *usecase.ForecastUseCase {
	return usecase.NewForecastUseCase(navs, f, cfg.Analytics.HistoryDays, cfg.Analytics.MinHistory, m)
}

// ProvidePortfolioUseCase creates the allocation and risk use case.
func ProvidePortfolioUseCase(
	navs repository.NavStore,
	funds repository.FundStore,
	holdings repository.HoldingStore,
	active *usecase.ActiveModels,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.PortfolioUseCase {
	return usecase.NewPortfolioUseCase(navs, funds, holdings, active, cfg.Analytics.HistoryDays, m)
}

// ProvideRecommendEngine assembles the content, popularity and factor
// strategies.
func ProvideRecommendEngine(funds repository.FundStore, cfg *config.Config) *recommend.Engine {
	return recommend.NewEngine(
		recommend.NewContentStrategy(funds, cfg.Analytics.Recommend.CategoryPool),
		recommend.NewPopularityStrategy(funds, cfg.Analytics.Recommend.PopularLimit),
		recommend.NewFactorStrategy(),
	)
}

// ProvideRecommendUseCase creates the recommendation use case.
func ProvideRecommendUseCase(
	engine *recommend.Engine,
	navs repository.NavStore,
	funds repository.FundStore,
	holdings repository.HoldingStore,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.RecommendUseCase {
	a := cfg.Analytics
	uc := usecase.NewRecommendUseCase(engine, navs, funds, holdings, a.HistoryDays, a.Recommend.PopularLimit, a.Risk.RiskFreeRate, m, l.With("recommend"))
	uc.SetMarketCache(cache.NewTTLCache[models.MarketTable](a.Recommend.MarketTTL))
	return uc
}

// ProvideAdvisorUseCase creates the dashboard, health and model use case.
func ProvideAdvisorUseCase(
	portfolio *usecase.PortfolioUseCase,
	rec *usecase.RecommendUseCase,
	reg usecase.ModelRegistry,
	navs repository.NavStore,
	funds repository.FundStore,
	l *applogger.Logger,
) *usecase.AdvisorUseCase {
	return usecase.NewAdvisorUseCase(portfolio, rec, reg, navs, funds, l.With("advisor"))
}

// ProvideRateLimiter guards the CPU-heavy endpoints.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSec)
}

// ProvideHTTPHandler creates the advisory echo handler.
func ProvideHTTPHandler(
	l *applogger.Logger,
	fc *usecase.ForecastUseCase,
	pf *usecase.PortfolioUseCase,
	rc *usecase.RecommendUseCase,
	adv *usecase.AdvisorUseCase,
	lim *ratelimit.Limiter,
) xhttp.Handler {
	return api.NewAdvisorEchoHandler(l.With("http"), fc, pf, rc, adv, lim.Middleware())
}

// ProvideHTTPServer creates the echo server.
func ProvideHTTPServer(cfg *config.Config, h xhttp.Handler, l *applogger.Logger) *xhttp.Server {
	return xhttp.NewServer(h, l.With("http"),
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
		xhttp.WithMetrics(cfg.Metrics.Enabled, cfg.Metrics.Path),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	srv *xhttp.Server,
	reg *registry.Registry,
	pub repository.EventPublisher,
	ch *pkgch.Client,
	pg *pkgpg.Client,
	kvc *kv.Client,
	l *applogger.Logger,
) *server.App {
	closers := []server.Option{
		server.WithCloser("clickhouse", ch),
		server.WithCloser("postgres", pg),
	}
	if kvc != nil {
		closers = append(closers, server.WithCloser("redis", kvc))
	}
	return server.New(cfg, srv, reg, pub, l, closers...)
}
