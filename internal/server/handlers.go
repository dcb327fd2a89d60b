package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/hirogeru/internal/expansion"
	"github.com/hyperjump/hirogeru/internal/models"
	"github.com/hyperjump/hirogeru/internal/retrieval"
	"github.com/hyperjump/hirogeru/internal/storage"
)

func (s *Server) handleExpand(w http.ResponseWriter, r *http.Request) {
	var req models.ExpansionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("expand request", zap.String("query", req.Query), zap.Int("top_k", req.TopK))

	response, err := s.Expand(r.Context(), &req)
	if err != nil {
		s.logger.Error("expansion failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

// Expand runs the full PRF loop: first-pass retrieval for the pseudo-relevant
// window, query expansion over it, and an optional second-round retrieval
// with the expanded query.
func (s *Server) Expand(ctx context.Context, req *models.ExpansionRequest) (*models.ExpansionResponse, error) {
	topK := req.TopK
	if topK == 0 {
		topK = s.expander.Config().TopK
	}

	window, err := s.retrieveWindow(ctx, req.Query, topK)
	if err != nil {
		return nil, err
	}
	result := s.expander.ExpandQueryTopK(req.Query, window, topK)

	response := &models.ExpansionResponse{Result: result}
	if req.Rerun && result.ExpandedQuery != result.OriginalQuery {
		rerun, err := s.retrieveWindow(ctx, result.ExpandedQuery, req.RerunLimit)
		if err != nil {
			return nil, err
		}
		response.RerunResults = rerun
	}
	return response, nil
}

// retrieveWindow runs first-pass retrieval and resolves hits to ranked
// materials with scores normalized to (0,1].
func (s *Server) retrieveWindow(ctx context.Context, query string, limit int) ([]*models.RankedMaterial, error) {
	if limit <= 0 {
		return nil, nil
	}
	hits, err := s.retriever.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	normalized := retrieval.NormalizeScores(hits)

	window := make([]*models.RankedMaterial, 0, len(hits))
	for i, hit := range hits {
		material, err := s.storage.GetMaterial(ctx, hit.MaterialID)
		if err != nil {
			// Index and store can briefly disagree after a delete.
			s.logger.Warn("indexed material missing from store", zap.String("id", hit.MaterialID))
			continue
		}
		window = append(window, &models.RankedMaterial{
			Material: material,
			Score:    normalized[hit.MaterialID],
			Rank:     i + 1,
		})
	}
	return window, nil
}

func (s *Server) handleCreateMaterial(w http.ResponseWriter, r *http.Request) {
	var input models.MaterialInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if input.Content == "" {
		s.respondError(w, http.StatusBadRequest, "content cannot be empty")
		return
	}
	if input.ID == "" {
		input.ID = uuid.New().String()
	}
	material := &models.Material{
		ID:       input.ID,
		Title:    input.Title,
		Content:  input.Content,
		Metadata: input.Metadata,
	}
	s.logger.Debug("create material request", zap.String("id", material.ID), zap.String("title", material.Title))

	ctx := r.Context()
	if err := s.storage.CreateMaterial(ctx, material); err != nil {
		s.logger.Error("material creation failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.retriever.Index(ctx, material); err != nil {
		s.logger.Error("material indexing failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.RebuildCorpus(ctx); err != nil {
		s.logger.Error("corpus rebuild failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{"id": material.ID, "status": "indexed"})
}

func (s *Server) handleGetMaterial(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	material, err := s.storage.GetMaterial(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "material not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, material)
}

func (s *Server) handleDeleteMaterial(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete material request", zap.String("id", id))

	ctx := r.Context()
	if err := s.storage.DeleteMaterial(ctx, id); err != nil {
		s.logger.Error("material deletion failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.retriever.Delete(ctx, id); err != nil {
		s.logger.Error("material deindexing failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.RebuildCorpus(ctx); err != nil {
		s.logger.Error("corpus rebuild failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleRebuildCorpus(w http.ResponseWriter, r *http.Request) {
	if err := s.RebuildCorpus(r.Context()); err != nil {
		s.logger.Error("corpus rebuild failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	stats := s.expander.GetCorpusStats()
	s.respondJSON(w, http.StatusOK, stats)
}

// RebuildCorpus recomputes corpus statistics from the material store and
// publishes them to the expander. Called after every material mutation.
func (s *Server) RebuildCorpus(ctx context.Context) error {
	materials, err := s.storage.ListAllMaterials(ctx)
	if err != nil {
		return err
	}
	s.expander.InitializeCorpus(materials)
	return nil
}

func (s *Server) handleCorpusStats(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.expander.GetCorpusStats())
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.expander.Config())
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var cfg expansion.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.expander.UpdateConfig(cfg); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, s.expander.Config())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	materialCount, err := s.storage.CountMaterials(ctx)
	if err != nil {
		s.logger.Error("status: count materials failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	indexCount, err := s.retriever.Count()
	if err != nil {
		s.logger.Error("status: index count failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	stats := s.expander.GetCorpusStats()
	cfg := s.expander.Config()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"materials":      materialCount,
		"indexed":        indexCount,
		"corpus_size":    stats.Size,
		"corpus_terms":   stats.UniqueTerms,
		"algorithm":      cfg.Algorithm,
		"term_weighting": cfg.TermWeighting,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("response encoding failed", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
