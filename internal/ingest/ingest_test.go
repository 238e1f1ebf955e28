package ingest

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iconcommons/iconcommons-server/internal/errors"
	"github.com/iconcommons/iconcommons-server/internal/service"
	"github.com/iconcommons/iconcommons-server/internal/store"
	"github.com/iconcommons/iconcommons-server/internal/store/sqlite"
)

type testEnv struct {
	store    store.Store
	icons    *service.IconService
	tags     *service.TagService
	ingestor *Ingestor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := sqlite.Open(t.TempDir()+"/icons.db", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	collections := service.NewCollectionService(st, logger)
	icons := service.NewIconService(st, nil, logger)
	tags := service.NewTagService(st, logger)

	return &testEnv{
		store:    st,
		icons:    icons,
		tags:     tags,
		ingestor: NewIngestor(collections, icons, tags, Limits{}, logger),
	}
}

func buildZip(t *testing.T, entries map[string]string) *bytes.Reader {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return bytes.NewReader(buf.Bytes())
}

func TestIngest_RejectsUnsupportedExtension(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.ingestor.Ingest(context.Background(), strings.NewReader("nope"), Request{
		Filename: "icons.tar.gz",
		Tags:     []string{"x"},
	})
	assert.ErrorIs(t, err, errors.ErrUnsupportedMedia)

	// Nothing was created.
	collections, listErr := env.store.ListCollections(context.Background())
	require.NoError(t, listErr)
	assert.Empty(t, collections)
}

func TestIngest_SingleSVG(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.ingestor.Ingest(ctx, strings.NewReader("<svg>hi</svg>"), Request{
		Filename:   "baz.svg",
		Collection: "foobar",
		Tags:       []string{"road", "sign"},
		Owner:      "alice",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.JobID)
	assert.Equal(t, "foobar", result.Collection)
	assert.Equal(t, 1, result.Created)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, StatusCreated, result.Entries[0].Status)
	assert.Equal(t, 1, result.Entries[0].Version)

	icon, err := env.store.GetIconBySlugs(ctx, "foobar", "baz")
	require.NoError(t, err)
	assert.Equal(t, "alice", icon.Owner)

	latest, err := env.icons.Latest(ctx, icon.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("<svg>hi</svg>"), latest.SVG)
	assert.Equal(t, ChangeLogInitial, latest.ChangeLog)

	tags, err := env.tags.IconTags(ctx, icon.ID)
	require.NoError(t, err)
	require.Len(t, tags, 2)
}

func TestIngest_CollectionDefaultsToFilename(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.ingestor.Ingest(ctx, strings.NewReader("<svg/>"), Request{
		Filename: "road-signs.svg",
		Tags:     []string{"road"},
	})
	require.NoError(t, err)
	assert.Equal(t, "road-signs", result.Collection)

	_, err = env.store.GetIconBySlugs(ctx, "road-signs", "road-signs")
	require.NoError(t, err)
}

func TestIngest_DuplicateContentSkipped(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := Request{Filename: "baz.svg", Collection: "foobar", Tags: []string{"t"}}

	_, err := env.ingestor.Ingest(ctx, strings.NewReader("<svg>v1</svg>"), req)
	require.NoError(t, err)

	// Same bytes again: no new version.
	result, err := env.ingestor.Ingest(ctx, strings.NewReader("<svg>v1</svg>"), req)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Zero(t, result.Created)
	assert.Zero(t, result.Updated)

	// Changed bytes: version 2, automatic update.
	result, err = env.ingestor.Ingest(ctx, strings.NewReader("<svg>v2</svg>"), req)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, 2, result.Entries[0].Version)

	icon, err := env.store.GetIconBySlugs(ctx, "foobar", "baz")
	require.NoError(t, err)
	latest, err := env.icons.Latest(ctx, icon.ID)
	require.NoError(t, err)
	assert.Equal(t, ChangeLogUpdate, latest.ChangeLog)
}

func TestIngest_Archive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	zr := buildZip(t, map[string]string{
		"a.svg":          "<svg>a</svg>",
		"b.txt":          "not an icon",
		"nested/c.svg":   "<svg>c</svg>",
		"nested/deeper/": "",
	})

	result, err := env.ingestor.Ingest(ctx, zr, Request{
		Filename: "bundle.zip",
		Tags:     []string{"pack"},
	})
	require.NoError(t, err)

	// b.txt and the directory entry are skipped without a result row.
	assert.Equal(t, 2, result.Created)
	assert.Zero(t, result.Failed)
	require.Len(t, result.Entries, 2)
	assert.Equal(t, "bundle", result.Collection)

	// Nested entries are named by basename, not path.
	_, err = env.store.GetIconBySlugs(ctx, "bundle", "c")
	require.NoError(t, err)
}

func TestIngest_ArchiveGarbage(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.ingestor.Ingest(context.Background(), strings.NewReader("definitely not a zip"), Request{
		Filename: "bundle.zip",
		Tags:     []string{"x"},
	})
	assert.ErrorIs(t, err, errors.ErrMalformedInput)
}

func TestIngest_EntrySizeLimit(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := sqlite.Open(t.TempDir()+"/icons.db", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	ingestor := NewIngestor(
		service.NewCollectionService(st, logger),
		service.NewIconService(st, nil, logger),
		service.NewTagService(st, logger),
		Limits{MaxEntryBytes: 16, MaxTotalBytes: 1 << 20},
		logger,
	)

	_, err = ingestor.Ingest(context.Background(), strings.NewReader(strings.Repeat("x", 17)), Request{
		Filename: "big.svg",
	})
	assert.ErrorIs(t, err, errors.ErrMalformedInput)

	// Archive entries over the limit fail individually; the run continues.
	zr := buildZip(t, map[string]string{
		"small.svg": "<svg/>",
		"big.svg":   strings.Repeat("x", 64),
	})
	result, err := ingestor.Ingest(context.Background(), zr, Request{Filename: "bundle.zip"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Failed)
}

func TestIngest_ContextCancelledBetweenEntries(t *testing.T) {
	env := newTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	zr := buildZip(t, map[string]string{"a.svg": "<svg/>"})
	_, err := env.ingestor.Ingest(ctx, zr, Request{Filename: "bundle.zip"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"stop.svg", "stop"},
		{"dir/sub/stop.svg", "stop"},
		{`win\path\stop.svg`, "stop"},
		{"noext", "noext"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, baseName(tt.in), tt.in)
	}
}
