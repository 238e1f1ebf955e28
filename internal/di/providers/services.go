package providers

import (
	"github.com/samber/do/v2"

	"github.com/iconcommons/iconcommons-server/internal/config"
	"github.com/iconcommons/iconcommons-server/internal/ingest"
	"github.com/iconcommons/iconcommons-server/internal/logger"
	"github.com/iconcommons/iconcommons-server/internal/ratelimit"
	"github.com/iconcommons/iconcommons-server/internal/service"
)

// ProvideCollectionService provides the collection service.
func ProvideCollectionService(i do.Injector) (*service.CollectionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCollectionService(storeHandle.Store, log.Logger), nil
}

// ProvideIconService provides the icon service with search indexing wired in.
func ProvideIconService(i do.Injector) (*service.IconService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewIconService(storeHandle.Store, indexHandle.Index, log.Logger), nil
}

// ProvideTagService provides the tag service.
func ProvideTagService(i do.Injector) (*service.TagService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTagService(storeHandle.Store, log.Logger), nil
}

// ProvideIngestor provides the ingestion pipeline.
func ProvideIngestor(i do.Injector) (*ingest.Ingestor, error) {
	cfg := do.MustInvoke[*config.Config](i)
	collections := do.MustInvoke[*service.CollectionService](i)
	icons := do.MustInvoke[*service.IconService](i)
	tags := do.MustInvoke[*service.TagService](i)
	log := do.MustInvoke[*logger.Logger](i)

	limits := ingest.Limits{
		MaxEntryBytes: cfg.Upload.MaxEntryBytes,
		MaxTotalBytes: cfg.Upload.MaxTotalBytes,
	}

	return ingest.NewIngestor(collections, icons, tags, limits, log.Logger), nil
}

// UploadLimiterHandle wraps the upload rate limiter with shutdown capability.
type UploadLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *UploadLimiterHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideUploadLimiter provides the per-client upload rate limiter.
func ProvideUploadLimiter(i do.Injector) (*UploadLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)

	limiter := ratelimit.New(cfg.Upload.RateRPS, cfg.Upload.RateBurst)
	return &UploadLimiterHandle{KeyedRateLimiter: limiter}, nil
}
