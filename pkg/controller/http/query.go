package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/pythia/pkg/domain/model"
	"github.com/secmon-lab/pythia/pkg/domain/types"
	"github.com/secmon-lab/pythia/pkg/utils/errutil"
	"github.com/secmon-lab/pythia/pkg/utils/logging"
)

const maxQueryBodySize = 1 << 20 // 1MiB

// QueryRequest is the POST /api/v1/query body
type QueryRequest struct {
	Query          string `json:"query"`
	UserID         string `json:"user_id,omitempty"`
	IncludeSources bool   `json:"include_sources,omitempty"`
}

// QueryResponse is the POST /api/v1/query response body
type QueryResponse struct {
	Answer           string          `json:"answer"`
	Sources          []model.Passage `json:"sources,omitempty"`
	Query            string          `json:"query"`
	Timestamp        time.Time       `json:"timestamp"`
	ProcessingTimeMS float64         `json:"processing_time_ms"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req QueryRequest
	body := http.MaxBytesReader(w, r.Body, maxQueryBodySize)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "invalid request body", goerr.T(types.TagValidation)), http.StatusBadRequest)
		return
	}

	result, err := s.uc.ProcessQuery(ctx, model.QueryInput{
		Query:          req.Query,
		UserID:         req.UserID,
		IncludeSources: req.IncludeSources,
	})
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, errutil.StatusFor(err))
		return
	}

	writeJSON(ctx, w, http.StatusOK, QueryResponse{
		Answer:           result.Answer,
		Sources:          result.Sources,
		Query:            result.Query,
		Timestamp:        result.Timestamp,
		ProcessingTimeMS: result.ElapsedMillis(),
	})
}

// HealthResponse is the GET /api/v1/health response body
type HealthResponse struct {
	Status     string    `json:"status"`
	Version    string    `json:"version"`
	Timestamp  time.Time `json:"timestamp"`
	IndexReady bool      `json:"index_ready"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:     "ok",
		Version:    s.version,
		Timestamp:  time.Now().UTC(),
		IndexReady: s.uc.Ready(),
	}
	writeJSON(r.Context(), w, http.StatusOK, resp)
}

// ConfigResponse is the active runtime configuration inside the stats body
type ConfigResponse struct {
	Provider  string `json:"provider"`
	TopK      int    `json:"top_k"`
	ChunkSize int    `json:"chunk_size"`
}

// StatsResponse is the GET /api/v1/stats response body
type StatsResponse struct {
	Index  model.IndexStats  `json:"index"`
	Memory model.MemoryStats `json:"memory"`
	Config ConfigResponse    `json:"config"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	indexStats := s.uc.IndexStats()
	writeJSON(r.Context(), w, http.StatusOK, StatsResponse{
		Index:  indexStats,
		Memory: s.uc.MemoryStats(),
		Config: ConfigResponse{
			Provider:  s.provider.String(),
			TopK:      indexStats.TopK,
			ChunkSize: indexStats.ChunkSize,
		},
	})
}

func (s *Server) handleClearMemory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := chi.URLParam(r, "user_id")
	if userID == "" {
		errutil.HandleHTTP(ctx, w, goerr.New("user_id is required", goerr.T(types.TagValidation)), http.StatusBadRequest)
		return
	}

	s.uc.ClearMemory(userID)
	writeJSON(ctx, w, http.StatusOK, map[string]string{
		"status":  "cleared",
		"user_id": userID,
	})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.From(ctx).Error("failed to write response", "error", err)
	}
}
