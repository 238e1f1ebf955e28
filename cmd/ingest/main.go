// Package main provides a bulk ingestion tool for icon source directories.
//
// It walks a directory tree, ingesting every SVG and zip archive it finds.
// The collection is taken from the file's directory relative to the source
// root, and tags are derived from the filename. With --watch the tool keeps
// running and ingests files as they appear or change.
//
// Usage:
//
//	go run ./cmd/ingest -data-path ~/iconcommons/data ./icons
//	go run ./cmd/ingest -data-path ~/iconcommons/data -watch ./icons
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"unicode"

	"github.com/iconcommons/iconcommons-server/internal/ingest"
	"github.com/iconcommons/iconcommons-server/internal/logger"
	"github.com/iconcommons/iconcommons-server/internal/search"
	"github.com/iconcommons/iconcommons-server/internal/service"
	"github.com/iconcommons/iconcommons-server/internal/store/sqlite"
	"github.com/iconcommons/iconcommons-server/internal/watch"
)

var (
	dataPath   = flag.String("data-path", "", "Base path for data storage (default: ~/iconcommons/data)")
	collection = flag.String("collection", "", "Force all icons into this collection instead of deriving it from directories")
	extraTags  = flag.String("tags", "", "Comma-separated tags added to every ingested icon")
	owner      = flag.String("owner", "importer", "Owner recorded on created icons")
	watchMode  = flag.Bool("watch", false, "Keep running and ingest files as they change")
	logLevel   = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
)

func main() {
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: ingest [flags] <source-dir>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	sourceDir, err := filepath.Abs(flag.Arg(0))
	if err != nil {
		log.Fatalf("Invalid source directory: %v", err)
	}

	base := *dataPath
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("Failed to resolve home directory: %v", err)
		}
		base = filepath.Join(home, "iconcommons", "data")
	}

	logg := logger.New(logger.Config{Level: logger.ParseLevel(*logLevel)})

	db, err := sqlite.Open(filepath.Join(base, "icons.db"), logg.Logger)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	index, err := search.NewIndex(search.Options{DataPath: base, Logger: logg.Logger})
	if err != nil {
		log.Fatalf("Failed to open search index: %v", err)
	}
	defer index.Close()

	collections := service.NewCollectionService(db, logg.Logger)
	icons := service.NewIconService(db, index, logg.Logger)
	tags := service.NewTagService(db, logg.Logger)
	ingestor := ingest.NewIngestor(collections, icons, tags, ingest.DefaultLimits(), logg.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	run := &runner{
		ingestor:  ingestor,
		sourceDir: sourceDir,
		extraTags: splitTags(*extraTags),
	}

	if err := run.walk(ctx); err != nil {
		log.Fatalf("Ingest failed: %v", err)
	}
	fmt.Printf("Ingested %s: %d created, %d updated, %d skipped, %d failed\n",
		sourceDir, run.created, run.updated, run.skipped, run.failed)

	if !*watchMode {
		if run.failed > 0 {
			os.Exit(1)
		}
		return
	}

	if err := run.watch(ctx, logg); err != nil {
		log.Fatalf("Watch failed: %v", err)
	}
}

// runner drives ingestion over a source tree and accumulates totals.
type runner struct {
	ingestor  *ingest.Ingestor
	sourceDir string
	extraTags []string

	created, updated, skipped, failed int
}

func (r *runner) walk(ctx context.Context) error {
	return filepath.WalkDir(r.sourceDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != r.sourceDir {
				return filepath.SkipDir
			}
			return nil
		}
		if !ingestable(path) {
			return nil
		}
		r.ingestFile(ctx, path)
		return nil
	})
}

func (r *runner) watch(ctx context.Context, logg *logger.Logger) error {
	w, err := watch.New(logg.Logger, watch.Options{
		Extensions: []string{".svg", ".zip"},
	})
	if err != nil {
		return err
	}
	defer w.Stop()

	if err := w.Watch(r.sourceDir); err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events():
				if !ok {
					return
				}
				r.ingestFile(ctx, event.Path)
			case err, ok := <-w.Errors():
				if !ok {
					return
				}
				logg.Warn("Watcher error", "error", err)
			}
		}
	}()

	fmt.Printf("Watching %s for changes, press Ctrl-C to stop\n", r.sourceDir)
	return w.Start(ctx)
}

func (r *runner) ingestFile(ctx context.Context, path string) {
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "  %s: %v\n", path, err)
		r.failed++
		return
	}
	defer f.Close()

	req := ingest.Request{
		Filename:   filepath.Base(path),
		Collection: r.collectionFor(path),
		Tags:       append(filenameTags(path), r.extraTags...),
		Owner:      *owner,
	}

	result, err := r.ingestor.Ingest(ctx, f, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "  %s: %v\n", path, err)
		r.failed++
		return
	}

	r.created += result.Created
	r.updated += result.Updated
	r.skipped += result.Skipped
	r.failed += result.Failed
}

// collectionFor derives the collection name from the file's directory
// relative to the source root. Files at the root fall back to the
// ingestor's default (the file's own base name).
func (r *runner) collectionFor(path string) string {
	if *collection != "" {
		return *collection
	}
	rel, err := filepath.Rel(r.sourceDir, filepath.Dir(path))
	if err != nil || rel == "." {
		return ""
	}
	return filepath.ToSlash(rel)
}

func ingestable(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".svg", ".zip":
		return true
	}
	return false
}

// filenameTags splits a file's base name into tags. Tokens that are purely
// numeric (sequence numbers, sizes) carry no meaning and are dropped.
func filenameTags(path string) []string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	tokens := strings.FieldsFunc(base, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})

	var out []string
	for _, tok := range tokens {
		if isNumeric(tok) {
			continue
		}
		out = append(out, strings.ToLower(tok))
	}
	return out
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(s) > 0
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, tag := range strings.Split(s, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
