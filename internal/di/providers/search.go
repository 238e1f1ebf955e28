package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/iconcommons/iconcommons-server/internal/config"
	"github.com/iconcommons/iconcommons-server/internal/logger"
	"github.com/iconcommons/iconcommons-server/internal/search"
	"github.com/iconcommons/iconcommons-server/internal/service"
	"github.com/iconcommons/iconcommons-server/internal/store"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.Index
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve search index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.NewIndex(search.Options{
		DataPath: cfg.Data.BasePath,
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)

	return &SearchIndexHandle{Index: index}, nil
}

// TriggerSearchReindexIfNeeded backfills the index when it is empty but icons
// exist, e.g. after a mapping version bump forced a rebuild. Should be called
// after all services are wired.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	icons := do.MustInvoke[*service.IconService](i)
	log := do.MustInvoke[*logger.Logger](i)

	docCount, _ := indexHandle.DocumentCount()
	if docCount > 0 {
		return
	}

	ctx := context.Background()
	page, err := icons.List(ctx, store.IconFilter{}, store.PageParams{Size: 1})
	if err != nil || page.Count == 0 {
		return
	}

	log.Info("Search index is empty but icons exist, triggering initial reindex",
		"icon_count", page.Count,
	)

	go func() {
		indexed, err := icons.ReindexAll(context.Background())
		if err != nil {
			log.Error("Initial search reindex failed", "error", err)
			return
		}
		log.Info("Initial search reindex completed", "documents", indexed)
	}()
}
