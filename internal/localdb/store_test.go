package localdb

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSidecar(t *testing.T, dir, name string, meta map[string]any) {
	t.Helper()
	data, err := json.Marshal(meta)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
}

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, dir
}

func TestSyncAndSearch(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()

	writeSidecar(t, dir, "2301.00001.json", map[string]any{
		"arxiv_id": "2301.00001",
		"title":    "Graph Neural Networks for Molecules",
		"authors":  []string{"Ada Lovelace"},
		"year":     2023,
		"url":      "https://arxiv.org/abs/2301.00001",
		"abstract": "We study graph neural networks for molecular property prediction.",
	})
	writeSidecar(t, dir, "2302.00002.json", map[string]any{
		"arxiv_id": "2302.00002",
		"title":    "Quantum Error Correction",
		"authors":  []string{"Grace Hopper"},
		"year":     2023,
		"abstract": "Surface codes for fault tolerant quantum computation.",
	})

	n, err := store.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	results, err := store.Search(ctx, []string{"graph", "molecular"}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "2301.00001", results[0].ArxivID)
	assert.Equal(t, []string{"Ada Lovelace"}, results[0].Authors)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSync_IsIdempotent(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()

	writeSidecar(t, dir, "p1.json", map[string]any{
		"arxiv_id": "p1",
		"title":    "Retrieval Augmented Generation",
		"abstract": "Retrieval augmented generation for open domain question answering.",
	})

	for i := 0; i < 2; i++ {
		_, err := store.Sync(ctx)
		require.NoError(t, err)
	}

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	results, err := store.Search(ctx, []string{"retrieval"}, 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSync_IDFallsBackToFilename(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()

	writeSidecar(t, dir, "mypaper.json", map[string]any{
		"title":    "Untagged Paper",
		"abstract": "An abstract without an explicit identifier.",
	})

	_, err := store.Sync(ctx)
	require.NoError(t, err)

	results, err := store.Search(ctx, []string{"identifier"}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "mypaper", results[0].ArxivID)
}

func TestSearch_NoKeywords(t *testing.T) {
	store, _ := newTestStore(t)

	results, err := store.Search(context.Background(), nil, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}
