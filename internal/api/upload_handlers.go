package api

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/iconcommons/iconcommons-server/internal/errors"
	"github.com/iconcommons/iconcommons-server/internal/http/response"
	"github.com/iconcommons/iconcommons-server/internal/ingest"
)

type contextKey string

const uploaderContextKey contextKey = "uploader"

// getUploader returns the uploader name set by requireUploadToken.
func getUploader(ctx context.Context) string {
	uploader, _ := ctx.Value(uploaderContextKey).(string)
	return uploader
}

// requireUploadToken authenticates the request with a PASETO bearer token
// and stores the uploader name in the request context.
func (s *Server) requireUploadToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			response.HandleError(w, r, errors.Unauthorized("missing bearer token"), s.logger)
			return
		}

		claims, err := s.tokens.VerifyToken(token)
		if err != nil {
			response.HandleError(w, r, errors.Unauthorized("invalid or expired token"), s.logger)
			return
		}

		ctx := context.WithValue(r.Context(), uploaderContextKey, claims.Uploader)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// rateLimitUploads caps uploads per client IP. Reads are unaffected.
func (s *Server) rateLimitUploads(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(clientIP(r)) {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"code":"RATE_LIMITED","message":"too many uploads, slow down"}}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the client address. middleware.RealIP has already
// folded X-Forwarded-For into RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// uploadForm carries the multipart fields of an upload request.
type uploadForm struct {
	Tags       string `json:"tags" validate:"required"`
	Collection string `json:"collection"`
}

// handleUpload ingests a multipart upload: a single SVG or a zip archive of
// SVGs under the "svg" field, a required comma-separated "tags" field, and
// an optional "collection" field.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	file, header, err := r.FormFile("svg")
	if err != nil {
		response.HandleError(w, r, errors.MalformedInput("missing svg file field"), s.logger)
		return
	}
	defer file.Close()

	form := uploadForm{
		Tags:       strings.TrimSpace(r.FormValue("tags")),
		Collection: strings.TrimSpace(r.FormValue("collection")),
	}
	if err := s.validator.Validate(form); err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	result, err := s.ingestor.Ingest(ctx, file, ingest.Request{
		Filename:   header.Filename,
		Collection: form.Collection,
		Tags:       strings.Split(form.Tags, ","),
		Owner:      getUploader(ctx),
	})
	if err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	response.JSON(w, r, http.StatusOK, result, s.logger)
}
