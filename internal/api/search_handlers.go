package api

import (
	"net/http"

	"github.com/iconcommons/iconcommons-server/internal/http/response"
	"github.com/iconcommons/iconcommons-server/internal/search"
)

// handleSearchTags returns the names of in-use tags matching the query:
// prefix match for queries of three characters or fewer, substring match
// beyond that, both case-insensitive.
func (s *Server) handleSearchTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.tags.Search(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		names = append(names, tag.Name)
	}

	response.JSON(w, r, http.StatusOK, map[string][]string{"tags": names}, s.logger)
}

// handleSearchIcons runs a full-text icon search. Supports collection and
// tag filters alongside the free-text query.
func (s *Server) handleSearchIcons(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	params := search.DefaultParams()
	params.Query = query.Get("query")
	params.Collection = query.Get("collection")
	params.Tags = query["tag"]
	if sort := query.Get("sort"); sort != "" {
		params.SortBy = sort
	}

	result, err := s.index.Search(r.Context(), params)
	if err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	response.JSON(w, r, http.StatusOK, result, s.logger)
}
