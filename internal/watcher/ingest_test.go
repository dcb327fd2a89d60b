package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/hirogeru/internal/fileid"
	"github.com/hyperjump/hirogeru/internal/retrieval"
	"github.com/hyperjump/hirogeru/internal/storage"
)

func newTestIngestor(t *testing.T) (*Ingestor, storage.Storage, retrieval.Retriever, *int) {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "materials.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	retriever, err := retrieval.NewBleveRetriever("")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { retriever.Close() })
	rebuilds := 0
	rebuild := func(ctx context.Context) error {
		rebuilds++
		return nil
	}
	return NewIngestor(store, retriever, rebuild, nil), store, retriever, &rebuilds
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestIngestCreatesMaterial(t *testing.T) {
	ing, store, retriever, rebuilds := newTestIngestor(t)
	ctx := context.Background()

	path := writeTempFile(t, "sorting_algorithms.txt", "quicksort partitions the array around a pivot")
	if err := ing.Ingest(ctx, path); err != nil {
		t.Fatal(err)
	}

	abs, _ := filepath.Abs(path)
	material, err := store.GetMaterial(ctx, fileid.MaterialID(abs))
	if err != nil {
		t.Fatalf("material not stored: %v", err)
	}
	if material.Title != "sorting algorithms" {
		t.Errorf("Title = %q, want %q", material.Title, "sorting algorithms")
	}
	if material.Content != "quicksort partitions the array around a pivot" {
		t.Errorf("Content = %q", material.Content)
	}
	if material.Metadata["source_path"] != abs {
		t.Errorf("source_path = %v, want %q", material.Metadata["source_path"], abs)
	}
	if n, _ := retriever.Count(); n != 1 {
		t.Errorf("indexed count = %d, want 1", n)
	}
	if *rebuilds != 1 {
		t.Errorf("rebuilds = %d, want 1", *rebuilds)
	}
}

func TestIngestUpdatesInPlace(t *testing.T) {
	ing, store, _, _ := newTestIngestor(t)
	ctx := context.Background()

	path := writeTempFile(t, "notes.md", "first draft")
	if err := ing.Ingest(ctx, path); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("second draft with more detail"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := ing.Ingest(ctx, path); err != nil {
		t.Fatal(err)
	}

	count, err := store.CountMaterials(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("CountMaterials = %d, want 1 (re-ingest should update, not duplicate)", count)
	}
	abs, _ := filepath.Abs(path)
	material, err := store.GetMaterial(ctx, fileid.MaterialID(abs))
	if err != nil {
		t.Fatal(err)
	}
	if material.Content != "second draft with more detail" {
		t.Errorf("Content = %q, want updated content", material.Content)
	}
}

func TestIngestSkipsEmptyFile(t *testing.T) {
	ing, store, _, rebuilds := newTestIngestor(t)
	ctx := context.Background()

	path := writeTempFile(t, "empty.txt", "   \n\t")
	if err := ing.Ingest(ctx, path); err != nil {
		t.Fatal(err)
	}
	count, _ := store.CountMaterials(ctx)
	if count != 0 {
		t.Errorf("CountMaterials = %d, want 0", count)
	}
	if *rebuilds != 0 {
		t.Errorf("rebuilds = %d, want 0", *rebuilds)
	}
}

func TestIngestMissingFile(t *testing.T) {
	ing, _, _, _ := newTestIngestor(t)
	err := ing.Ingest(context.Background(), filepath.Join(t.TempDir(), "nope.txt"))
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDropRemovesMaterial(t *testing.T) {
	ing, store, retriever, rebuilds := newTestIngestor(t)
	ctx := context.Background()

	path := writeTempFile(t, "old.txt", "stale material")
	if err := ing.Ingest(ctx, path); err != nil {
		t.Fatal(err)
	}
	if err := ing.Drop(ctx, path); err != nil {
		t.Fatal(err)
	}

	count, _ := store.CountMaterials(ctx)
	if count != 0 {
		t.Errorf("CountMaterials = %d, want 0", count)
	}
	if n, _ := retriever.Count(); n != 0 {
		t.Errorf("indexed count = %d, want 0", n)
	}
	if *rebuilds != 2 {
		t.Errorf("rebuilds = %d, want 2 (ingest + drop)", *rebuilds)
	}
}

func TestDropUnknownPathIsNoop(t *testing.T) {
	ing, _, _, rebuilds := newTestIngestor(t)
	if err := ing.Drop(context.Background(), "/never/ingested.txt"); err != nil {
		t.Fatal(err)
	}
	if *rebuilds != 0 {
		t.Errorf("rebuilds = %d, want 0", *rebuilds)
	}
}

func TestMaterialTitle(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/course/sorting_algorithms.txt", "sorting algorithms"},
		{"/course/week-3-graphs.md", "week 3 graphs"},
		{"notes.txt", "notes"},
		{"/course/README", "README"},
	}
	for _, tt := range tests {
		if got := materialTitle(tt.path); got != tt.want {
			t.Errorf("materialTitle(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
