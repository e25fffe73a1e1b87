package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/fastcos/internal/codec"
	"github.com/hyperjump/fastcos/internal/engine"
	"github.com/hyperjump/fastcos/internal/models"
	"github.com/hyperjump/fastcos/internal/search"
	"github.com/hyperjump/fastcos/internal/storage"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("search request",
		zap.String("query", req.Query),
		zap.Int("limit", req.Limit),
		zap.String("lang", req.Script.Lang),
		zap.String("source", req.Script.Source),
	)
	response, err := s.engine.Search(r.Context(), &req)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			s.logger.Error("search failed", zap.Error(err))
		} else {
			s.logger.Debug("search rejected", zap.Error(err))
		}
		s.respondError(w, status, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

// statusFor maps request and data errors to 4xx and everything else to 500.
func statusFor(err error) int {
	var mismatch *codec.ShapeMismatchError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, search.ErrInvalidRequest),
		engine.IsScriptError(err),
		errors.As(err, &mismatch):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleCreateSegment(w http.ResponseWriter, r *http.Request) {
	var req models.IndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("index segment request", zap.Int("documents", len(req.Documents)))
	seg, err := s.engine.Index(r.Context(), req.Documents)
	if err != nil {
		s.logger.Error("indexing failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, seg)
}

func (s *Server) handleListSegments(w http.ResponseWriter, r *http.Request) {
	segs, err := s.storage.ListSegments(r.Context())
	if err != nil {
		s.logger.Error("list segments failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if segs == nil {
		segs = []*models.Segment{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"segments": segs})
}

func (s *Server) handleGetSegment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	seg, err := s.storage.GetSegment(r.Context(), id)
	if err != nil {
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	docs, err := s.storage.ListDocuments(r.Context(), id)
	if err != nil {
		s.logger.Error("list documents failed", zap.String("segment", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"segment": seg, "documents": docs})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	docID, err := strconv.Atoi(chi.URLParam(r, "doc"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "doc id must be an integer")
		return
	}
	doc, err := s.storage.GetDocument(r.Context(), id, docID)
	if err != nil {
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteSegment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete segment request", zap.String("segment", id))
	if err := s.engine.DeleteSegment(r.Context(), id); err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			s.logger.Error("deletion failed", zap.Error(err))
		}
		s.respondError(w, status, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docCount, err := s.storage.CountDocuments(ctx)
	if err != nil {
		s.logger.Error("status: count documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	segs, err := s.storage.ListSegments(ctx)
	if err != nil {
		s.logger.Error("status: list segments failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{
		"documents": docCount,
		"segments":  len(segs),
	}
	if s.settings != nil {
		resp["config"] = map[string]interface{}{
			"default_mode":     s.settings.Scoring.DefaultMode,
			"byte_order":       s.settings.Scoring.ByteOrder,
			"query_cache_size": s.settings.Scoring.QueryCacheSize,
			"max_dimensions":   s.settings.Scoring.MaxDimensions,
			"max_candidates":   s.settings.Search.MaxCandidates,
			"database_path":    s.settings.Storage.DatabasePath,
			"bleve_index_path": s.settings.Storage.BleveIndexPath,
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
