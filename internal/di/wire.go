//go:build wireinject
// +build wireinject

package di

import (
	"FinAdvisor/internal/domain/repository"
	internalrepo "FinAdvisor/internal/repository"
	"FinAdvisor/internal/services/registry"
	"FinAdvisor/internal/usecase"
	"FinAdvisor/pkg/config"
	"FinAdvisor/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvidePostgresClient,
		ProvideKVClient,
		ProvideKafkaProducer,

		// Repositories
		ProvideNavStore,
		ProvideFundStore,
		wire.Bind(new(repository.FundStore), new(*internalrepo.PGFundStore)),
		wire.Bind(new(repository.HoldingStore), new(*internalrepo.PGFundStore)),
		ProvideArtifactStore,
		ProvideEventPublisher,

		// Analytics
		ProvideForecastConfig,
		ProvideForecaster,
		ProvideRiskScorer,
		ProvideOptimizer,
		ProvideNavPredictorTrainer,
		ProvideRegistry,
		wire.Bind(new(usecase.ModelRegistry), new(*registry.Registry)),
		ProvideActiveModels,

		// Use cases
		ProvideForecastUseCase,
		ProvidePortfolioUseCase,
		ProvideRecommendEngine,
		ProvideRecommendUseCase,
		ProvideAdvisorUseCase,

		// HTTP
		ProvideRateLimiter,
		ProvideHTTPHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
