//go:build wireinject
// +build wireinject

package di

import (
	"IntraCast/pkg/config"
	"IntraCast/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Logger and metrics
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideCache,

		// Repositories
		ProvideBarStore,
		ProvideSignalStore,
		ProvideSignalPublisher,

		// Domain services
		ProvideCalendar,
		ProvideBarSource,
		ProvidePredictor,
		ProvideDecisionEngine,

		// Use cases
		ProvidePipeline,
		ProvideQueries,

		// HTTP surface
		ProvideHub,
		ProvideHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
