package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iconcommons/iconcommons-server/internal/http/response"
	"github.com/iconcommons/iconcommons-server/internal/store"
)

// collectionEntry is one row of the collection listing.
type collectionEntry struct {
	Name  string `json:"name"`
	Icons int    `json:"icons"`
	Href  string `json:"href"`
}

// handleListCollections returns all collections with their icon counts.
func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.collections.List(r.Context())
	if err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	entries := make([]collectionEntry, 0, len(summaries))
	for _, summary := range summaries {
		entries = append(entries, collectionEntry{
			Name:  summary.Name,
			Icons: summary.IconCount,
			Href:  "/collections/" + summary.ID,
		})
	}

	response.JSON(w, r, http.StatusOK, map[string][]collectionEntry{
		"collections": entries,
	}, s.logger)
}

// handleCollectionIcons lists one collection's icons. The path segment may
// be a collection id, exact name, or slug.
func (s *Server) handleCollectionIcons(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	collection, err := s.collections.Get(ctx, chi.URLParam(r, "collection"))
	if err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	page, err := parsePage(r)
	if err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	result, err := s.icons.List(ctx, store.IconFilter{Collection: collection.ID}, page)
	if err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	response.JSON(w, r, http.StatusOK, iconListFrom(result), s.logger)
}
