//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"
	"ringsync/internal"
	"ringsync/internal/client"
	"ringsync/internal/providers"
	"ringsync/internal/schema"
	"ringsync/internal/services"
	"ringsync/internal/snapshot"
	"ringsync/internal/structures"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,
		providers.NewCredentialsProvider,
		providers.NewHttpClientProvider,
		providers.NewDatabaseProvider,

		snapshot.NewZstdCompressor,
		snapshot.NewFileManager,
		snapshot.NewRangeTracker,
		client.NewApiClient,
		schema.NewSchemaManager,
		services.NewFetchService,
		services.NewLoadService,
		internal.NewApp,
	)

	return nil, nil
}
