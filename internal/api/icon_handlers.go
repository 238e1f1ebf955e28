package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iconcommons/iconcommons-server/internal/domain"
	"github.com/iconcommons/iconcommons-server/internal/errors"
	"github.com/iconcommons/iconcommons-server/internal/http/response"
	"github.com/iconcommons/iconcommons-server/internal/store"
	"github.com/iconcommons/iconcommons-server/internal/svg"
)

// iconEntry is one row of an icon listing.
type iconEntry struct {
	Name  string `json:"name"`
	Owner string `json:"owner,omitempty"`
	Href  string `json:"href"`
}

// iconList is the paginated icon listing body.
type iconList struct {
	Icons []iconEntry `json:"icons"`
	Page  int         `json:"page"`
	Pages int         `json:"pages"`
	Count int         `json:"count"`
}

func iconListFrom(page *store.Page[*domain.Icon]) iconList {
	list := iconList{
		Icons: make([]iconEntry, 0, len(page.Items)),
		Page:  page.Number,
		Pages: page.Pages,
		Count: page.Count,
	}
	for _, icon := range page.Items {
		list.Icons = append(list.Icons, iconEntry{
			Name:  icon.Name,
			Owner: icon.Owner,
			Href:  "/icon/" + icon.ID,
		})
	}
	return list
}

// parsePage reads the page query parameter. Absent means page one; a
// non-numeric value is malformed.
func parsePage(r *http.Request) (store.PageParams, error) {
	params := store.PageParams{}
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return params, nil
	}
	number, err := strconv.Atoi(raw)
	if err != nil {
		return params, errors.MalformedInputf("invalid page number %q", raw)
	}
	params.Number = number
	return params, nil
}

// handleListIcons returns a paginated icon listing, optionally filtered by
// collection (id, exact name, or slug) and tag.
func (s *Server) handleListIcons(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, err := parsePage(r)
	if err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	filter := store.IconFilter{
		Collection: r.URL.Query().Get("collection"),
	}
	if tag := r.URL.Query().Get("tag"); tag != "" {
		filter.Tags = []string{tag}
	}

	result, err := s.icons.List(ctx, filter, page)
	if err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	response.JSON(w, r, http.StatusOK, iconListFrom(result), s.logger)
}

// handleGetIcon serves an icon's SVG content by id.
func (s *Server) handleGetIcon(w http.ResponseWriter, r *http.Request) {
	s.serveIconSVG(w, r, chi.URLParam(r, "id"))
}

// handleGetIconBySlugs serves an icon's SVG content addressed by collection
// slug and icon slug. A trailing ".svg" on the icon slug is tolerated.
func (s *Server) handleGetIconBySlugs(w http.ResponseWriter, r *http.Request) {
	collectionSlug := chi.URLParam(r, "collection")
	iconSlug := strings.TrimSuffix(chi.URLParam(r, "icon"), ".svg")

	icon, err := s.icons.GetBySlugs(r.Context(), collectionSlug, iconSlug)
	if err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}
	s.serveIconSVG(w, r, icon.ID)
}

// serveIconSVG renders a version of the icon (latest unless ?version= is
// given), applies any requested fill/stroke restyle, and honors
// If-Modified-Since at second granularity.
func (s *Server) serveIconSVG(w http.ResponseWriter, r *http.Request, iconID string) {
	ctx := r.Context()
	query := r.URL.Query()

	versionNumber := 0
	if raw := query.Get("version"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.HandleError(w, r, errors.MalformedInputf("invalid version %q", raw), s.logger)
			return
		}
		versionNumber = n
	}

	version, err := s.icons.Version(ctx, iconID, versionNumber)
	if err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	if notModifiedSince(r, version.CreatedAt) {
		response.NotModified(w)
		return
	}

	body := version.SVG
	opts := svg.Options{
		Fill:   query.Get("fill"),
		Stroke: query.Get("stroke"),
	}
	if !opts.IsZero() {
		body, err = svg.ApplyStyle(body, opts)
		if err != nil {
			response.HandleError(w, r, err, s.logger)
			return
		}
	}

	response.SVG(w, body, version.CreatedAt)
}

// notModifiedSince reports whether the client's If-Modified-Since covers
// modified. HTTP dates carry whole seconds, so the comparison truncates.
func notModifiedSince(r *http.Request, modified time.Time) bool {
	raw := r.Header.Get("If-Modified-Since")
	if raw == "" {
		return false
	}
	since, err := http.ParseTime(raw)
	if err != nil {
		return false
	}
	return !modified.Truncate(time.Second).After(since)
}

// iconInfo is the icon metadata body.
type iconInfo struct {
	Collection iconInfoCollection `json:"collection"`
	Name       string             `json:"name"`
	Versions   []versionEntry     `json:"versions"`
	Tags       []iconInfoTag      `json:"tags"`
}

type versionEntry struct {
	Version   int       `json:"version"`
	Modified  time.Time `json:"modified"`
	ChangeLog string    `json:"changelog,omitempty"`
}

type iconInfoCollection struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type iconInfoTag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// handleIconInfo returns an icon's metadata: its collection, full version
// history (without content), and tags.
func (s *Server) handleIconInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	iconID := chi.URLParam(r, "id")

	icon, err := s.icons.Get(ctx, iconID)
	if err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	collection, err := s.collections.Get(ctx, icon.CollectionID)
	if err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	versions, err := s.icons.History(ctx, iconID)
	if err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	tags, err := s.tags.IconTags(ctx, iconID)
	if err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	info := iconInfo{
		Collection: iconInfoCollection{ID: collection.ID, Name: collection.Name},
		Name:       icon.Name,
		Versions:   make([]versionEntry, 0, len(versions)),
		Tags:       make([]iconInfoTag, 0, len(tags)),
	}
	for _, v := range versions {
		info.Versions = append(info.Versions, versionEntry{
			Version:   v.Version,
			Modified:  v.CreatedAt,
			ChangeLog: v.ChangeLog,
		})
	}
	for _, tag := range tags {
		info.Tags = append(info.Tags, iconInfoTag{ID: tag.ID, Name: tag.Name})
	}

	response.JSON(w, r, http.StatusOK, info, s.logger)
}
