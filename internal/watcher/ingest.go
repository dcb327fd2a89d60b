package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/hirogeru/internal/fileid"
	"github.com/hyperjump/hirogeru/internal/models"
	"github.com/hyperjump/hirogeru/internal/retrieval"
	"github.com/hyperjump/hirogeru/internal/storage"
)

// Ingestor turns watched files into stored, indexed materials. After each
// mutation it triggers a corpus statistics rebuild via the rebuild callback
// so expansion always sees current document frequencies.
type Ingestor struct {
	store     storage.Storage
	retriever retrieval.Retriever
	rebuild   func(ctx context.Context) error
	logger    *zap.Logger
}

// NewIngestor creates an ingestor. rebuild may be nil when no corpus rebuild
// is needed (for example while batch-syncing, with one rebuild at the end).
func NewIngestor(store storage.Storage, retriever retrieval.Retriever, rebuild func(ctx context.Context) error, logger *zap.Logger) *Ingestor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingestor{store: store, retriever: retriever, rebuild: rebuild, logger: logger}
}

// Ingest reads the file at path and creates or updates the corresponding
// material. The material ID is derived from the path, so repeated ingests of
// the same file update in place.
func (in *Ingestor) Ingest(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving path %s: %w", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return fmt.Errorf("reading %s: %w", abs, err)
	}
	content := strings.TrimSpace(string(data))
	if content == "" {
		in.logger.Debug("skipping empty file", zap.String("path", abs))
		return nil
	}

	material := &models.Material{
		ID:      fileid.MaterialID(abs),
		Title:   materialTitle(abs),
		Content: content,
		Metadata: map[string]interface{}{
			"source_path": abs,
		},
	}

	existing, err := in.store.GetMaterial(ctx, material.ID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("looking up material for %s: %w", abs, err)
	}
	if existing != nil {
		material.CreatedAt = existing.CreatedAt
		err = in.store.UpdateMaterial(ctx, material)
	} else {
		err = in.store.CreateMaterial(ctx, material)
	}
	if err != nil {
		return fmt.Errorf("storing material for %s: %w", abs, err)
	}
	if err := in.retriever.Index(ctx, material); err != nil {
		return fmt.Errorf("indexing material for %s: %w", abs, err)
	}
	in.logger.Info("ingested material",
		zap.String("path", abs),
		zap.String("material_id", material.ID),
		zap.Bool("updated", existing != nil))
	if in.rebuild != nil {
		return in.rebuild(ctx)
	}
	return nil
}

// Drop removes the material derived from path from the store and the index.
// A path that was never ingested is a no-op.
func (in *Ingestor) Drop(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving path %s: %w", path, err)
	}
	id := fileid.MaterialID(abs)
	if _, err := in.store.GetMaterial(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("looking up material for %s: %w", abs, err)
	}
	if err := in.store.DeleteMaterial(ctx, id); err != nil {
		return fmt.Errorf("deleting material for %s: %w", abs, err)
	}
	if err := in.retriever.Delete(ctx, id); err != nil {
		return fmt.Errorf("deindexing material for %s: %w", abs, err)
	}
	in.logger.Info("dropped material", zap.String("path", abs), zap.String("material_id", id))
	if in.rebuild != nil {
		return in.rebuild(ctx)
	}
	return nil
}

// materialTitle derives a human-readable title from the file name.
func materialTitle(path string) string {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	return strings.TrimSpace(name)
}
