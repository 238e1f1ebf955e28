package providers

import (
	"context"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/iconcommons/iconcommons-server/internal/api"
	"github.com/iconcommons/iconcommons-server/internal/auth"
	"github.com/iconcommons/iconcommons-server/internal/config"
	"github.com/iconcommons/iconcommons-server/internal/ingest"
	"github.com/iconcommons/iconcommons-server/internal/logger"
	"github.com/iconcommons/iconcommons-server/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server and starts it in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	icons := do.MustInvoke[*service.IconService](i)
	collections := do.MustInvoke[*service.CollectionService](i)
	tags := do.MustInvoke[*service.TagService](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	ingestor := do.MustInvoke[*ingest.Ingestor](i)
	tokens := do.MustInvoke[*auth.TokenService](i)
	limiterHandle := do.MustInvoke[*UploadLimiterHandle](i)

	handler := api.NewServer(icons, collections, tags, indexHandle.Index, ingestor, tokens, limiterHandle.KeyedRateLimiter, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr)

	return &HTTPServerHandle{Server: srv}, nil
}
