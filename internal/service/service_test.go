package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iconcommons/iconcommons-server/internal/errors"
	"github.com/iconcommons/iconcommons-server/internal/search"
	"github.com/iconcommons/iconcommons-server/internal/store"
	"github.com/iconcommons/iconcommons-server/internal/store/sqlite"
)

type testEnv struct {
	store       store.Store
	index       *search.Index
	icons       *IconService
	collections *CollectionService
	tags        *TagService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := sqlite.Open(t.TempDir()+"/icons.db", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	index, err := search.NewIndex(search.Options{DataPath: t.TempDir(), Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	return &testEnv{
		store:       st,
		index:       index,
		icons:       NewIconService(st, index, logger),
		collections: NewCollectionService(st, logger),
		tags:        NewTagService(st, logger),
	}
}

func TestCollectionService_ResolveDefault(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	c, err := env.collections.Resolve(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultCollectionName, c.Name)

	again, err := env.collections.Resolve(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, c.ID, again.ID)
}

func TestIconService_CommitAndShouldCommit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	col, err := env.collections.Resolve(ctx, "foobar")
	require.NoError(t, err)

	icon, created, err := env.icons.Resolve(ctx, "baz", col.ID, "alice")
	require.NoError(t, err)
	assert.True(t, created)

	// New icon always needs a commit.
	need, err := env.icons.ShouldCommit(ctx, icon.ID, []byte("<svg>hi</svg>"))
	require.NoError(t, err)
	assert.True(t, need)

	v1, err := env.icons.Commit(ctx, icon.ID, []byte("<svg>hi</svg>"), "initial import")
	require.NoError(t, err)
	assert.Equal(t, 1, v1.Version)

	// Identical bytes: duplicate of latest.
	need, err = env.icons.ShouldCommit(ctx, icon.ID, []byte("<svg>hi</svg>"))
	require.NoError(t, err)
	assert.False(t, need)

	// Different bytes: commit again.
	need, err = env.icons.ShouldCommit(ctx, icon.ID, []byte("<svg>bye</svg>"))
	require.NoError(t, err)
	assert.True(t, need)

	v2, err := env.icons.Commit(ctx, icon.ID, []byte("<svg>bye</svg>"), "automatic update")
	require.NoError(t, err)
	assert.Equal(t, 2, v2.Version)

	// Reverting to v1's bytes still commits: only the latest counts.
	need, err = env.icons.ShouldCommit(ctx, icon.ID, []byte("<svg>hi</svg>"))
	require.NoError(t, err)
	assert.True(t, need)
}

func TestIconService_CommitIndexesIcon(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	col, err := env.collections.Resolve(ctx, "road-signs")
	require.NoError(t, err)
	icon, _, err := env.icons.Resolve(ctx, "stop sign", col.ID, "")
	require.NoError(t, err)

	_, err = env.tags.TagIcon(ctx, icon.ID, []string{"road", "warning"})
	require.NoError(t, err)

	_, err = env.icons.Commit(ctx, icon.ID, []byte("<svg/>"), "initial import")
	require.NoError(t, err)

	params := search.DefaultParams()
	params.Query = "stop"
	result, err := env.index.Search(ctx, params)
	require.NoError(t, err)
	require.Equal(t, uint64(1), result.Total)
	assert.Equal(t, icon.ID, result.Hits[0].ID)
	assert.Equal(t, "road-signs", result.Hits[0].Collection)
	assert.ElementsMatch(t, []string{"road", "warning"}, result.Hits[0].Tags)
}

func TestIconService_ReindexAll(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	col, err := env.collections.Resolve(ctx, "transit")
	require.NoError(t, err)
	for _, name := range []string{"bus stop", "tram stop", "station"} {
		icon, _, err := env.icons.Resolve(ctx, name, col.ID, "")
		require.NoError(t, err)
		_, err = env.tags.TagIcon(ctx, icon.ID, []string{"transit"})
		require.NoError(t, err)
		_, err = env.icons.Commit(ctx, icon.ID, []byte("<svg>"+name+"</svg>"), "initial import")
		require.NoError(t, err)
	}

	// Poison the index with a document whose icon does not exist; a full
	// reindex must drop it along with everything else before rebuilding.
	require.NoError(t, env.index.IndexIcon(&search.IconDocument{
		ID:   "icon-ghost",
		Name: "ghost stop",
	}))

	indexed, err := env.icons.ReindexAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, indexed)

	count, err := env.index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)

	params := search.DefaultParams()
	params.Query = "stop"
	result, err := env.index.Search(ctx, params)
	require.NoError(t, err)
	require.Equal(t, uint64(2), result.Total)
	for _, hit := range result.Hits {
		assert.Equal(t, "transit", hit.Collection)
		assert.ElementsMatch(t, []string{"transit"}, hit.Tags)
	}
}

func TestIconService_VersionZeroMeansLatest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	col, err := env.collections.Resolve(ctx, "foobar")
	require.NoError(t, err)
	icon, _, err := env.icons.Resolve(ctx, "baz", col.ID, "")
	require.NoError(t, err)

	_, err = env.icons.Commit(ctx, icon.ID, []byte("one"), "initial import")
	require.NoError(t, err)
	_, err = env.icons.Commit(ctx, icon.ID, []byte("two"), "automatic update")
	require.NoError(t, err)

	latest, err := env.icons.Version(ctx, icon.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, latest.Version)
	assert.Equal(t, []byte("two"), latest.SVG)

	first, err := env.icons.Version(ctx, icon.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), first.SVG)

	_, err = env.icons.Version(ctx, icon.ID, 9)
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestTagService_TagIcon(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	col, err := env.collections.Resolve(ctx, "foobar")
	require.NoError(t, err)
	icon, _, err := env.icons.Resolve(ctx, "baz", col.ID, "")
	require.NoError(t, err)

	tags, err := env.tags.TagIcon(ctx, icon.ID, []string{" road ", "", "sign"})
	require.NoError(t, err)
	require.Len(t, tags, 2)

	// Repeat is idempotent.
	_, err = env.tags.TagIcon(ctx, icon.ID, []string{"road", "sign"})
	require.NoError(t, err)

	attached, err := env.tags.IconTags(ctx, icon.ID)
	require.NoError(t, err)
	require.Len(t, attached, 2)
	assert.Equal(t, "road", attached[0].Name)
	assert.Equal(t, "sign", attached[1].Name)
}
