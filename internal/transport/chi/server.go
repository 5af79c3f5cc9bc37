package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/esmap"
	"github.com/kailas-cloud/esmap/internal/metrics"
	documentuc "github.com/kailas-cloud/esmap/internal/usecase/document"
	healthuc "github.com/kailas-cloud/esmap/internal/usecase/health"
	reindexuc "github.com/kailas-cloud/esmap/internal/usecase/reindex"
	searchuc "github.com/kailas-cloud/esmap/internal/usecase/search"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 8 << 20

// Admin is the index-wide control surface of the client.
type Admin interface {
	Refresh(ctx context.Context) error
	SetIndexingDisabled(disabled bool)
	IndexingDisabled() bool
}

// Server serves the esmapd HTTP API.
type Server struct {
	search    *searchuc.Service
	documents *documentuc.Service
	reindex   *reindexuc.Service
	health    *healthuc.Service
	admin     Admin
	logger    *zap.Logger
}

// NewServer creates an HTTP API server. reindex is nil when no record source is configured.
func NewServer(
	search *searchuc.Service,
	documents *documentuc.Service,
	reindex *reindexuc.Service,
	health *healthuc.Service,
	admin Admin,
	logger *zap.Logger,
) *Server {
	return &Server{
		search:    search,
		documents: documents,
		reindex:   reindex,
		health:    health,
		admin:     admin,
		logger:    logger,
	}
}

// Register mounts every route on r.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/types/{type}", func(r chi.Router) {
			r.Use(DocTypeLogger)
			r.Post("/search", s.Search)
			r.Post("/count", s.Count)
			r.Get("/docs/{id}", s.GetDocument)
			r.Put("/docs/{id}", s.PutDocument)
			r.Delete("/docs/{id}", s.DeleteDocument)
		})
		r.Post("/refresh", s.Refresh)
		r.Post("/reindex", s.Reindex)
		r.Get("/indexing", s.GetIndexing)
		r.Put("/indexing", s.SetIndexing)
	})
}

// Search handles POST /v1/types/{type}/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req searchuc.Request
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.search.Search(r.Context(), chi.URLParam(r, "type"), &req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// CountResponse is the body of a count call.
type CountResponse struct {
	Count int64 `json:"count"`
}

// Count handles POST /v1/types/{type}/count.
func (s *Server) Count(w http.ResponseWriter, r *http.Request) {
	var req searchuc.Request
	if !decodeBody(w, r, &req) {
		return
	}
	n, err := s.search.Count(r.Context(), chi.URLParam(r, "type"), &req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: n})
}

// DocumentResponse is the wire form of a stored document.
type DocumentResponse struct {
	ID       string       `json:"id"`
	DocType  string       `json:"doc_type"`
	ParentID string       `json:"parent_id,omitempty"`
	Fields   esmap.Fields `json:"fields"`
}

func documentToResponse(doc esmap.Document) DocumentResponse {
	fields := doc.Fields
	if fields == nil {
		fields = esmap.Fields{}
	}
	return DocumentResponse{ID: doc.ID, DocType: doc.DocType, ParentID: doc.ParentID, Fields: fields}
}

// GetDocument handles GET /v1/types/{type}/docs/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.documents.Get(r.Context(),
		chi.URLParam(r, "type"), chi.URLParam(r, "id"), r.URL.Query().Get("parent"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentToResponse(doc))
}

// PutDocument handles PUT /v1/types/{type}/docs/{id}. The body is the field object.
func (s *Server) PutDocument(w http.ResponseWriter, r *http.Request) {
	var fields esmap.Fields
	if !decodeBody(w, r, &fields) {
		return
	}
	doc := esmap.Document{
		DocType:  chi.URLParam(r, "type"),
		ID:       chi.URLParam(r, "id"),
		ParentID: r.URL.Query().Get("parent"),
		Fields:   fields,
	}
	if err := s.documents.Put(r.Context(), doc); err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentToResponse(doc))
}

// DeleteDocument handles DELETE /v1/types/{type}/docs/{id}.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	safe, err := parseBool(q.Get("safe"))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid safe parameter")
		return
	}
	err = s.documents.Delete(r.Context(), chi.URLParam(r, "type"), chi.URLParam(r, "id"), q.Get("parent"), safe)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Refresh handles POST /v1/refresh.
func (s *Server) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := s.admin.Refresh(r.Context()); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReindexRequest names the document types to reindex; empty means all.
type ReindexRequest struct {
	DocTypes []string `json:"doc_types,omitempty"`
}

// ReindexResult is the outcome for one document type.
type ReindexResult struct {
	DocType string `json:"doc_type"`
	Indexed int    `json:"indexed"`
	Error   string `json:"error,omitempty"`
}

// ReindexResponse is the body of a reindex call.
type ReindexResponse struct {
	Results []ReindexResult `json:"results"`
}

// Reindex handles POST /v1/reindex. It runs synchronously.
func (s *Server) Reindex(w http.ResponseWriter, r *http.Request) {
	if s.reindex == nil {
		writeError(w, http.StatusConflict, CodeNotConfigured, "no record source configured")
		return
	}
	var req ReindexRequest
	if !decodeBody(w, r, &req) {
		return
	}

	results := s.reindex.Run(r.Context(), req.DocTypes...)
	resp := ReindexResponse{Results: make([]ReindexResult, len(results))}
	for i, res := range results {
		resp.Results[i] = ReindexResult{DocType: res.DocType, Indexed: res.Indexed}
		if res.Err != nil {
			resp.Results[i].Error = res.Err.Error()
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// IndexingState is the body of the indexing switch routes.
type IndexingState struct {
	Disabled bool `json:"disabled"`
}

// GetIndexing handles GET /v1/indexing.
func (s *Server) GetIndexing(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, IndexingState{Disabled: s.admin.IndexingDisabled()})
}

// SetIndexing handles PUT /v1/indexing.
func (s *Server) SetIndexing(w http.ResponseWriter, r *http.Request) {
	var req *IndexingState
	if !decodeBody(w, r, &req) {
		return
	}
	if req == nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "request body required")
		return
	}
	s.admin.SetIndexingDisabled(req.Disabled)
	metrics.SetIndexingDisabled(req.Disabled)
	writeJSON(w, http.StatusOK, IndexingState{Disabled: s.admin.IndexingDisabled()})
}

// HealthResponse is the body of the health check.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

// decodeBody decodes a JSON body into v, keeping numbers as json.Number.
// An empty body leaves v untouched. On failure it writes a 400 and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "read request body: "+err.Error())
		return false
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return true
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
		return false
	}
	if dec.More() {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body: trailing data")
		return false
	}
	return true
}

func parseBool(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("parse bool %q: %w", s, err)
	}
	return b, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
