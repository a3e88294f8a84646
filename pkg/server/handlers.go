package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/entitygraph/pkg/errors"
	"github.com/matzehuels/entitygraph/pkg/graph"
	"github.com/matzehuels/entitygraph/pkg/interaction"
	"github.com/matzehuels/entitygraph/pkg/pipeline"
	"github.com/matzehuels/entitygraph/pkg/store"
)

const defaultMaxBody = 10 << 20

// =============================================================================
// Request and Response Types
// =============================================================================

// viewRequest is pipeline.Options plus an optional stored dataset and
// pointer events to replay.
type viewRequest struct {
	pipeline.Options
	// DatasetID loads data and configurations from the store.
	DatasetID string              `json:"datasetId,omitempty"`
	Events    []interaction.Event `json:"events,omitempty"`
}

type viewStats struct {
	Entities     int     `json:"entities"`
	Primary      int     `json:"primary"`
	Attributes   int     `json:"attributes"`
	Links        int     `json:"links"`
	Ticks        int     `json:"ticks"`
	LayoutMillis float64 `json:"layoutMs"`
}

type viewResponse struct {
	Layout    graph.Layout      `json:"layout"`
	View      *interaction.View `json:"view,omitempty"`
	Stats     viewStats         `json:"stats"`
	Demo      bool              `json:"demo"`
	Cached    bool              `json:"cached"`
	InputHash string            `json:"inputHash"`
}

// datasetRequest accepts data and configurations either as JSON strings or
// as inline JSON arrays.
type datasetRequest struct {
	Name           string          `json:"name"`
	Data           json.RawMessage `json:"data"`
	Configurations json.RawMessage `json:"configurations"`
}

type errorResponse struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code,omitempty"`
}

// =============================================================================
// Pipeline Handlers
// =============================================================================

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeViewRequest(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.runner.Layout(r.Context(), req.Options)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := viewResponse{
		Layout: result.Layout,
		Stats: viewStats{
			Entities:     result.Stats.Entities,
			Primary:      result.Stats.Primary,
			Attributes:   result.Stats.Attributes,
			Links:        result.Stats.Links,
			Ticks:        result.Stats.Ticks,
			LayoutMillis: float64(result.Stats.LayoutTime) / float64(time.Millisecond),
		},
		Demo:      result.Demo,
		Cached:    result.CacheInfo.LayoutHit,
		InputHash: result.InputHash,
	}

	if len(req.Events) > 0 {
		l, view, err := pipeline.Interact(r.Context(), result.Layout, req.Options, req.Events)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		resp.Layout = l
		resp.View = &view
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, r, err)
		return
	}
	req, err := s.decodeViewRequest(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeArtifact(w, r, req.Options, format)
}

func (s *Server) writeArtifact(w http.ResponseWriter, r *http.Request, opts pipeline.Options, format string) {
	result, err := s.runner.Execute(r.Context(), opts, format)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	cacheStatus := "miss"
	if result.CacheInfo.RenderHit {
		cacheStatus = "hit"
	}
	w.Header().Set("Content-Type", pipeline.ContentTypes[format])
	w.Header().Set("X-Cache", cacheStatus)
	w.WriteHeader(http.StatusOK)
	w.Write(result.Artifacts[format])
}

func (s *Server) decodeViewRequest(w http.ResponseWriter, r *http.Request) (viewRequest, error) {
	req := viewRequest{Options: pipeline.DefaultOptions()}
	if err := s.decodeBody(w, r, &req); err != nil {
		return viewRequest{}, err
	}
	if req.DatasetID != "" {
		ds, err := s.store.Get(r.Context(), req.DatasetID)
		if err != nil {
			return viewRequest{}, err
		}
		req.Data = ds.Data
		if req.Configurations == "" {
			req.Configurations = ds.Configurations
		}
	}
	req.Logger = s.logger
	return req, nil
}

// =============================================================================
// Dataset Handlers
// =============================================================================

func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"datasets": list})
}

func (s *Server) handleCreateDataset(w http.ResponseWriter, r *http.Request) {
	var req datasetRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	ds, err := store.NewDataset(req.Name, rawString(req.Data), rawString(req.Configurations))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.Save(r.Context(), ds); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("created dataset", "id", ds.ID, "name", ds.Name)
	w.Header().Set("Location", "/api/datasets/"+ds.ID)
	writeJSON(w, http.StatusCreated, ds)
}

func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	ds, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

func (s *Server) handleUpdateDataset(w http.ResponseWriter, r *http.Request) {
	ds, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req datasetRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Name != "" {
		ds.Name = req.Name
	}
	if req.Data != nil {
		ds.Data = rawString(req.Data)
	}
	if req.Configurations != nil {
		ds.Configurations = rawString(req.Configurations)
	}
	if err := s.store.Save(r.Context(), ds); err != nil {
		s.writeError(w, r, err)
		return
	}
	n := s.hub.Broadcast(ds.ID)
	s.logger.Info("updated dataset", "id", ds.ID, "clients", n)
	writeJSON(w, http.StatusOK, ds)
}

func (s *Server) handleDeleteDataset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.hub.Broadcast(id)
	w.WriteHeader(http.StatusNoContent)
}

// handlePage renders a stored dataset, HTML with live reload by default.
// Query parameters format, size, exclude and title override the defaults.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ds, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = pipeline.FormatHTML
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, r, err)
		return
	}

	opts := pipeline.DefaultOptions()
	opts.Data = ds.Data
	opts.Configurations = ds.Configurations
	opts.Logger = s.logger
	if ds.Name != "" {
		opts.Title = ds.Name
	}
	if v := q.Get("title"); v != "" {
		opts.Title = v
	}
	if v := q.Get("size"); v != "" {
		opts.Size = v
	}
	if v := q.Get("exclude"); v != "" {
		opts.ExcludeProperties = v
	}
	if v, err := strconv.ParseBool(q.Get("legend")); err == nil {
		opts.ShowLegend = v
	}
	if format == pipeline.FormatHTML {
		opts.LiveURL = "/ws?dataset=" + url.QueryEscape(id)
	}
	s.writeArtifact(w, r, opts, format)
}

// =============================================================================
// Helpers
// =============================================================================

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	limit := s.cfg.MaxBodyBytes
	if limit <= 0 {
		limit = defaultMaxBody
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	if err := dec.Decode(v); err != nil && !stderrors.Is(err, io.EOF) {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body")
	}
	return nil
}

// rawString unquotes a JSON string and returns any other JSON verbatim.
func rawString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if string(raw) == "null" {
		return ""
	}
	return string(raw)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func statusFor(err error) int {
	switch {
	case errors.IsValidation(err):
		return http.StatusBadRequest
	case errors.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, errors.ErrCodeRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, errors.ErrCodeUnsupported):
		return http.StatusNotImplemented
	case errors.Is(err, errors.ErrCodeTimeout), stderrors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	} else {
		s.logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, errorResponse{Error: errors.UserMessage(err), Code: errors.GetCode(err)})
}
