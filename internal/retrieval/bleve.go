package retrieval

import (
	"context"
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"

	"github.com/hyperjump/hirogeru/internal/models"
)

// BleveRetriever implements Retriever using a Bleve full-text index.
type BleveRetriever struct {
	index bleve.Index
}

// indexedMaterial is the subset of a material that gets indexed.
type indexedMaterial struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// NewBleveRetriever creates or opens a Bleve index at path. An empty path
// builds an in-memory index (used by tests and ephemeral setups).
// The standard analyzer (lowercase + tokenize, no stemming) keeps retrieval
// term matching consistent with the expansion tokenizer, which does not stem.
func NewBleveRetriever(path string) (*BleveRetriever, error) {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("content", textFieldMapping)
	docMapping.AddFieldMappingsAt("title", textFieldMapping)
	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("id", keywordFieldMapping)
	im.AddDocumentMapping("material", docMapping)
	im.DefaultType = "material"
	im.DefaultMapping = docMapping

	if path == "" {
		index, err := bleve.NewMemOnly(im)
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory index: %w", err)
		}
		return &BleveRetriever{index: index}, nil
	}

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open retrieval index: %w", openErr)
		}
		return &BleveRetriever{index: index}, nil
	}

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create retrieval index: %w", err)
	}
	return &BleveRetriever{index: index}, nil
}

// Index indexes a material by ID. Re-indexing an existing ID replaces it.
func (b *BleveRetriever) Index(ctx context.Context, material *models.Material) error {
	return b.index.Index(material.ID, indexedMaterial{
		ID:      material.ID,
		Title:   material.Title,
		Content: material.Content,
	})
}

// Delete removes a material from the index.
func (b *BleveRetriever) Delete(ctx context.Context, id string) error {
	return b.index.Delete(id)
}

// Search runs a match query over title and content and returns up to limit
// ranked results.
func (b *BleveRetriever) Search(ctx context.Context, query string, limit int) ([]*Result, error) {
	q := bleve.NewMatchQuery(query)
	request := bleve.NewSearchRequest(q)
	request.Size = limit
	results, err := b.index.SearchInContext(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("retrieval search failed: %w", err)
	}
	out := make([]*Result, len(results.Hits))
	for i, hit := range results.Hits {
		out[i] = &Result{MaterialID: hit.ID, Score: hit.Score}
	}
	return out, nil
}

// Count returns the number of indexed materials.
func (b *BleveRetriever) Count() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the underlying index.
func (b *BleveRetriever) Close() error {
	return b.index.Close()
}
