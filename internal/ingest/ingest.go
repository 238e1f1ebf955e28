// Package ingest turns uploaded SVG files and zip archives of SVG files
// into icon versions. A run resolves one collection, applies one tag set,
// and produces a per-entry result list; archive runs are not atomic, so a
// bad entry is recorded and the rest proceed.
package ingest

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/iconcommons/iconcommons-server/internal/domain"
	"github.com/iconcommons/iconcommons-server/internal/errors"
	"github.com/iconcommons/iconcommons-server/internal/service"
)

// Change log messages recorded on committed versions.
const (
	ChangeLogInitial = "initial import"
	ChangeLogUpdate  = "automatic update"
)

// Limits bounds the uncompressed size of ingested content.
type Limits struct {
	// MaxEntryBytes caps a single SVG document.
	MaxEntryBytes int64
	// MaxTotalBytes caps the combined uncompressed size of an archive run.
	MaxTotalBytes int64
}

// DefaultLimits are generous for icon work; a hand-drawn SVG over 2 MiB is
// almost certainly not an icon.
func DefaultLimits() Limits {
	return Limits{
		MaxEntryBytes: 2 << 20,
		MaxTotalBytes: 64 << 20,
	}
}

// Request describes one ingestion run.
type Request struct {
	// Filename is the uploaded file's name; its extension selects single-SVG
	// or archive handling.
	Filename string
	// Collection optionally names the target collection. When empty the
	// file's base name (without extension) is used.
	Collection string
	// Tags are attached to every icon touched by the run.
	Tags []string
	// Owner is recorded on icons created by this run.
	Owner string
}

// EntryStatus classifies the outcome for one archive entry or file.
type EntryStatus string

const (
	StatusCreated EntryStatus = "created"
	StatusUpdated EntryStatus = "updated"
	StatusSkipped EntryStatus = "skipped"
	StatusFailed  EntryStatus = "failed"
)

// EntryResult is the outcome for one icon.
type EntryResult struct {
	Name    string      `json:"name"`
	IconID  string      `json:"icon_id,omitempty"`
	Version int         `json:"version,omitempty"`
	Status  EntryStatus `json:"status"`
	Error   string      `json:"error,omitempty"`
}

// Result summarizes an ingestion run.
type Result struct {
	JobID      string        `json:"job_id"`
	Collection string        `json:"collection"`
	Entries    []EntryResult `json:"entries"`
	Created    int           `json:"created"`
	Updated    int           `json:"updated"`
	Skipped    int           `json:"skipped"`
	Failed     int           `json:"failed"`
}

// Ingestor drives ingestion runs against the service layer.
type Ingestor struct {
	collections *service.CollectionService
	icons       *service.IconService
	tags        *service.TagService
	limits      Limits
	logger      *slog.Logger
}

// NewIngestor creates an ingestor. Zero-valued limits fall back to defaults.
func NewIngestor(collections *service.CollectionService, icons *service.IconService, tags *service.TagService, limits Limits, logger *slog.Logger) *Ingestor {
	if limits.MaxEntryBytes <= 0 {
		limits.MaxEntryBytes = DefaultLimits().MaxEntryBytes
	}
	if limits.MaxTotalBytes <= 0 {
		limits.MaxTotalBytes = DefaultLimits().MaxTotalBytes
	}
	return &Ingestor{
		collections: collections,
		icons:       icons,
		tags:        tags,
		limits:      limits,
		logger:      logger,
	}
}

// Ingest processes r according to req. The filename extension decides the
// handling: ".svg" ingests a single icon, ".zip" an archive of icons, and
// anything else is rejected before any store mutation.
func (g *Ingestor) Ingest(ctx context.Context, r io.Reader, req Request) (*Result, error) {
	switch strings.ToLower(filepath.Ext(req.Filename)) {
	case ".svg":
		return g.ingestSVG(ctx, r, req)
	case ".zip":
		return g.ingestArchive(ctx, r, req)
	default:
		return nil, errors.UnsupportedMedia(fmt.Sprintf("unsupported upload type %q: want .svg or .zip", filepath.Ext(req.Filename)))
	}
}

// run carries per-run state: the resolved collection and a tag memo so each
// tag is resolved against the store at most once per run.
type run struct {
	jobID      string
	collection *domain.Collection
	owner      string
	tagIDs     []string
	result     *Result
}

func (g *Ingestor) newRun(ctx context.Context, req Request) (*run, error) {
	collectionName := strings.TrimSpace(req.Collection)
	if collectionName == "" {
		collectionName = baseName(req.Filename)
	}

	collection, err := g.collections.Resolve(ctx, collectionName)
	if err != nil {
		return nil, fmt.Errorf("resolve collection: %w", err)
	}

	r := &run{
		jobID:      uuid.NewString(),
		collection: collection,
		owner:      req.Owner,
		result: &Result{
			Collection: collection.Name,
		},
	}
	r.result.JobID = r.jobID

	// Resolve the run's tag set once; every entry reuses the ids.
	seen := make(map[string]bool)
	for _, name := range req.Tags {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		tag, err := g.tags.Resolve(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("resolve tag %q: %w", name, err)
		}
		r.tagIDs = append(r.tagIDs, tag.ID)
	}

	return r, nil
}

func (g *Ingestor) ingestSVG(ctx context.Context, r io.Reader, req Request) (*Result, error) {
	svg, err := readLimited(r, g.limits.MaxEntryBytes)
	if err != nil {
		return nil, err
	}

	run, err := g.newRun(ctx, req)
	if err != nil {
		return nil, err
	}

	g.ingestEntry(ctx, run, baseName(req.Filename), svg)
	g.logRun(run)
	return run.result, nil
}

func (g *Ingestor) ingestArchive(ctx context.Context, r io.Reader, req Request) (*Result, error) {
	// Spool to disk: zip needs random access, and buffering the upload in
	// memory would let one request hold the archive twice over.
	spool, err := os.CreateTemp("", "ingest-*.zip")
	if err != nil {
		return nil, fmt.Errorf("create spool file: %w", err)
	}
	defer func() {
		spool.Close()
		os.Remove(spool.Name())
	}()

	size, err := io.Copy(spool, io.LimitReader(r, g.limits.MaxTotalBytes+1))
	if err != nil {
		return nil, fmt.Errorf("spool archive: %w", err)
	}
	if size > g.limits.MaxTotalBytes {
		return nil, errors.MalformedInputf("archive exceeds %d byte limit", g.limits.MaxTotalBytes)
	}

	zr, err := zip.NewReader(spool, size)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeMalformedInput, "read zip archive")
	}

	run, err := g.newRun(ctx, req)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, entry := range zr.File {
		if err := ctx.Err(); err != nil {
			return run.result, err
		}
		if entry.FileInfo().IsDir() {
			continue
		}
		// Non-SVG entries (licenses, previews, DS_Store debris) are expected
		// in the wild and skipped without comment.
		if !strings.EqualFold(filepath.Ext(entry.Name), ".svg") {
			continue
		}

		name := baseName(entry.Name)

		svg, err := readEntry(entry, g.limits.MaxEntryBytes)
		if err != nil {
			run.fail(name, err)
			continue
		}

		total += int64(len(svg))
		if total > g.limits.MaxTotalBytes {
			return run.result, errors.MalformedInputf("archive contents exceed %d byte limit", g.limits.MaxTotalBytes)
		}

		g.ingestEntry(ctx, run, name, svg)
	}

	g.logRun(run)
	return run.result, nil
}

// ingestEntry resolves one icon, attaches the run's tags, and commits a new
// version unless the content duplicates the latest one.
func (g *Ingestor) ingestEntry(ctx context.Context, run *run, name string, svg []byte) {
	if name == "" {
		run.fail(name, errors.MalformedInput("entry has no usable name"))
		return
	}

	icon, created, err := g.icons.Resolve(ctx, name, run.collection.ID, run.owner)
	if err != nil {
		run.fail(name, err)
		return
	}

	if err := g.tags.Attach(ctx, icon.ID, run.tagIDs); err != nil {
		run.fail(name, err)
		return
	}

	changeLog := ChangeLogUpdate
	if created {
		changeLog = ChangeLogInitial
	} else {
		need, err := g.icons.ShouldCommit(ctx, icon.ID, svg)
		if err != nil {
			run.fail(name, err)
			return
		}
		if !need {
			run.record(EntryResult{Name: name, IconID: icon.ID, Status: StatusSkipped})
			return
		}
	}

	version, err := g.icons.Commit(ctx, icon.ID, svg, changeLog)
	if err != nil {
		run.fail(name, err)
		return
	}

	status := StatusUpdated
	if created {
		status = StatusCreated
	}
	run.record(EntryResult{Name: name, IconID: icon.ID, Version: version.Version, Status: status})
}

func (r *run) record(entry EntryResult) {
	r.result.Entries = append(r.result.Entries, entry)
	switch entry.Status {
	case StatusCreated:
		r.result.Created++
	case StatusUpdated:
		r.result.Updated++
	case StatusSkipped:
		r.result.Skipped++
	case StatusFailed:
		r.result.Failed++
	}
}

func (r *run) fail(name string, err error) {
	r.record(EntryResult{Name: name, Status: StatusFailed, Error: err.Error()})
}

func (g *Ingestor) logRun(run *run) {
	g.logger.Info("ingestion run finished",
		"job_id", run.jobID,
		"collection", run.collection.Name,
		"created", run.result.Created,
		"updated", run.result.Updated,
		"skipped", run.result.Skipped,
		"failed", run.result.Failed,
	)
}

// baseName strips any directory path and extension from an archive entry or
// file name. Zip entries use forward slashes regardless of platform.
func baseName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	return strings.TrimSuffix(name, path.Ext(name))
}

// readLimited reads at most limit bytes, failing when the input is larger.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read svg: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, errors.MalformedInputf("svg exceeds %d byte limit", limit)
	}
	return data, nil
}

func readEntry(entry *zip.File, limit int64) ([]byte, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, fmt.Errorf("open entry: %w", err)
	}
	defer rc.Close()
	return readLimited(rc, limit)
}
