package search

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iconcommons/iconcommons-server/internal/domain"
)

// setupTestIndex creates a temporary search index for testing.
func setupTestIndex(t *testing.T) (*Index, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "search-test-*")
	require.NoError(t, err)

	index, err := NewIndex(Options{
		DataPath: tmpDir,
		Logger:   nil,
	})
	require.NoError(t, err)

	cleanup := func() {
		_ = index.Close()
		_ = os.RemoveAll(tmpDir)
	}

	return index, cleanup
}

func TestNewIndex(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestIndex_IndexIcon(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	doc := &IconDocument{
		ID:         "icon-123",
		Name:       "stop sign",
		Slug:       "stop-sign",
		Collection: "road-signs",
		Tags:       []string{"road", "sign"},
	}
	require.NoError(t, index.IndexIcon(doc))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestIndex_IndexIcons_Batch(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	docs := []*IconDocument{
		{ID: "icon-1", Name: "one", Slug: "one", Collection: "numbers"},
		{ID: "icon-2", Name: "two", Slug: "two", Collection: "numbers"},
		{ID: "icon-3", Name: "three", Slug: "three", Collection: "numbers"},
	}
	require.NoError(t, index.IndexIcons(docs))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
}

func TestIndex_DeleteIcon(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	require.NoError(t, index.IndexIcon(&IconDocument{ID: "icon-123", Name: "doomed"}))
	require.NoError(t, index.DeleteIcon("icon-123"))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func seedIcons(t *testing.T, index *Index) {
	t.Helper()
	docs := []*IconDocument{
		{ID: "icon-1", Name: "stop sign", Slug: "stop-sign", Collection: "road-signs", Tags: []string{"road", "warning"}},
		{ID: "icon-2", Name: "yield sign", Slug: "yield-sign", Collection: "road-signs", Tags: []string{"road"}},
		{ID: "icon-3", Name: "bus stop", Slug: "bus-stop", Collection: "transit", Tags: []string{"bus"}},
	}
	require.NoError(t, index.IndexIcons(docs))
}

func TestIndex_Search_ByName(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()
	seedIcons(t, index)

	params := DefaultParams()
	params.Query = "stop"

	result, err := index.Search(context.Background(), params)
	require.NoError(t, err)
	require.Equal(t, uint64(2), result.Total)

	ids := []string{result.Hits[0].ID, result.Hits[1].ID}
	assert.ElementsMatch(t, []string{"icon-1", "icon-3"}, ids)
}

func TestIndex_Search_CollectionFilter(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()
	seedIcons(t, index)

	params := DefaultParams()
	params.Query = "stop"
	params.Collection = "road-signs"

	result, err := index.Search(context.Background(), params)
	require.NoError(t, err)
	require.Equal(t, uint64(1), result.Total)
	assert.Equal(t, "icon-1", result.Hits[0].ID)
	assert.Equal(t, "stop sign", result.Hits[0].Name)
	assert.Equal(t, "road-signs", result.Hits[0].Collection)
}

func TestIndex_Search_TagFilter(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()
	seedIcons(t, index)

	params := DefaultParams()
	params.Tags = []string{"road", "warning"}

	result, err := index.Search(context.Background(), params)
	require.NoError(t, err)
	require.Equal(t, uint64(1), result.Total)
	assert.Equal(t, "icon-1", result.Hits[0].ID)
}

func TestIndex_Search_MatchAll(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()
	seedIcons(t, index)

	result, err := index.Search(context.Background(), DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, uint64(3), result.Total)
}

func TestIndex_Search_Fuzzy(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()
	seedIcons(t, index)

	params := DefaultParams()
	params.Query = "stp" // one edit away from "stop"

	result, err := index.Search(context.Background(), params)
	require.NoError(t, err)
	assert.NotZero(t, result.Total)
}

func TestIconToDocument(t *testing.T) {
	now := time.Now()
	icon := &domain.Icon{
		ID:        "icon-9",
		Name:      "Stop Sign",
		Slug:      "stop-sign",
		CreatedAt: now,
		UpdatedAt: now,
	}

	doc := IconToDocument(icon, "road-signs", []string{"road"})
	assert.Equal(t, "icon-9", doc.ID)
	assert.Equal(t, "Stop Sign", doc.Name)
	assert.Equal(t, "road-signs", doc.Collection)
	assert.Equal(t, []string{"road"}, doc.Tags)
	assert.Equal(t, now.UnixMilli(), doc.CreatedAt)
}

func TestIndex_ReopenKeepsDocuments(t *testing.T) {
	tmpDir := t.TempDir()

	index, err := NewIndex(Options{DataPath: tmpDir})
	require.NoError(t, err)
	require.NoError(t, index.IndexIcon(&IconDocument{ID: "icon-1", Name: "persist"}))
	require.NoError(t, index.Close())

	reopened, err := NewIndex(Options{DataPath: tmpDir})
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}
