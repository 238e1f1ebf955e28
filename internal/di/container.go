// Package di provides dependency injection configuration for the icon server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/iconcommons/iconcommons-server/internal/auth"
	"github.com/iconcommons/iconcommons-server/internal/config"
	"github.com/iconcommons/iconcommons-server/internal/di/providers"
	"github.com/iconcommons/iconcommons-server/internal/ingest"
	"github.com/iconcommons/iconcommons-server/internal/logger"
	"github.com/iconcommons/iconcommons-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSearchIndex)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideCollectionService)
	do.Provide(injector, providers.ProvideIconService)
	do.Provide(injector, providers.ProvideTagService)
	do.Provide(injector, providers.ProvideIngestor)
	do.Provide(injector, providers.ProvideUploadLimiter)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns once the server is running.
// This triggers lazy initialization of every provider in dependency order.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)

	_ = do.MustInvoke[*service.CollectionService](injector)
	_ = do.MustInvoke[*service.IconService](injector)
	_ = do.MustInvoke[*service.TagService](injector)
	_ = do.MustInvoke[*ingest.Ingestor](injector)
	_ = do.MustInvoke[*providers.UploadLimiterHandle](injector)

	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	// Backfill the search index if it is empty but icons exist.
	providers.TriggerSearchReindexIfNeeded(injector)

	return nil
}
