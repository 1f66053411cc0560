package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"mercator-hq/dsm/pkg/auth"
	"mercator-hq/dsm/pkg/docpath"
	"mercator-hq/dsm/pkg/engine"
	"mercator-hq/dsm/pkg/resolver"
	"mercator-hq/dsm/pkg/runlog"
	"mercator-hq/dsm/pkg/telemetry/logging"
	"mercator-hq/dsm/pkg/telemetry/tracing"
)

// EvaluateRequest is the body of POST /v1/models/{name}/{mode}.
type EvaluateRequest struct {
	// Roles are the active roles. Empty uses the server's default roles.
	Roles []string `json:"roles"`

	// Inputs are the named input documents.
	Inputs map[string]json.RawMessage `json:"inputs"`
}

// EvaluateResponse is the result of an evaluation.
type EvaluateResponse struct {
	RunID      string          `json:"run_id"`
	Model      string          `json:"model"`
	Mode       string          `json:"mode"`
	DurationMS float64         `json:"duration_ms"`
	Count      int             `json:"count"`
	Value      any             `json:"value,omitempty"`
	Records    []engine.Record `json:"records,omitempty"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	mode, err := engine.ParseMode(r.PathValue("mode"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "", err.Error())
		return
	}

	entry, err := s.models.Get(name)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	req, docs, err := s.decodeEvaluateRequest(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "bad_request", "", err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", "", err.Error())
		return
	}

	roles := req.Roles
	if info, ok := auth.KeyInfoFromContext(r.Context()); ok {
		if roles, err = info.Scope(roles); err != nil {
			writeError(w, http.StatusForbidden, "forbidden", "", err.Error())
			return
		}
	}
	if len(roles) == 0 {
		roles = s.defaultRoles
	}

	run := runlog.NewRun(name, string(mode), roles)
	ctx := logging.WithRunID(r.Context(), run.ID)
	ctx = logging.WithModel(ctx, name)
	ctx = logging.WithMode(ctx, string(mode))
	ctx = logging.WithRoles(ctx, roles)
	tracing.SetRunID(tracing.SpanFromContext(ctx), run.ID)
	w.Header().Set("X-Run-ID", run.ID)

	res, err := s.engine.Run(ctx, mode, entry.Root, engine.Input{
		Model:     name,
		Documents: docs,
		Roles:     roles,
	})

	count := 0
	if res != nil {
		count = res.Count()
	}
	run.Finish(count, err)
	if s.runs != nil {
		if rerr := s.runs.Record(ctx, run); rerr != nil {
			s.logger.ErrorContext(ctx, "failed to record run", "error", rerr)
			if s.metrics != nil {
				s.metrics.RecordRunLogError()
			}
		}
	}

	if err != nil {
		writeEvaluationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, EvaluateResponse{
		RunID:      run.ID,
		Model:      name,
		Mode:       string(mode),
		DurationMS: float64(res.Duration.Microseconds()) / 1000,
		Count:      count,
		Value:      res.Value,
		Records:    res.Records,
	})
}

// decodeEvaluateRequest reads the body and decodes each input document
// the same way input files are decoded, so key order and integer types
// match file inputs.
func (s *Server) decodeEvaluateRequest(w http.ResponseWriter, r *http.Request) (*EvaluateRequest, resolver.Documents, error) {
	body := io.Reader(r.Body)
	if s.config.MaxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	}

	var req EvaluateRequest
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("invalid request body: %w", err)
	}

	docs := make(resolver.Documents, len(req.Inputs))
	for name, raw := range req.Inputs {
		doc, err := docpath.Decode(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid input %q: %w", name, err)
		}
		docs[name] = doc
	}
	return &req, docs, nil
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"models": s.models.List()})
}

func (s *Server) handleGetModel(w http.ResponseWriter, r *http.Request) {
	entry, err := s.models.Get(r.PathValue("name"))
	if err != nil {
		writeStoreError(w, err)
		return
	}

	info := map[string]any{
		"name":      entry.Name,
		"path":      entry.Path,
		"loaded_at": entry.LoadedAt,
		"valid":     entry.Problems == nil,
	}
	if entry.Problems != nil {
		info["problems"] = entry.Problems.Error()
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := &runlog.Query{
		Model:  q.Get("model"),
		Mode:   q.Get("mode"),
		Status: q.Get("status"),
	}

	var err error
	if v := q.Get("limit"); v != "" {
		if query.Limit, err = docpath.ToIntE(v); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "", "invalid limit: "+v)
			return
		}
	}
	if v := q.Get("offset"); v != "" {
		if query.Offset, err = docpath.ToIntE(v); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "", "invalid offset: "+v)
			return
		}
	}
	if v := q.Get("since"); v != "" {
		if query.Since, err = time.Parse(time.RFC3339, v); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "", "invalid since: "+v)
			return
		}
	}

	runs, err := s.runs.List(r.Context(), query)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "failed to list runs", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "", "failed to list runs")
		return
	}
	total, err := s.runs.Count(r.Context(), query)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "failed to count runs", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "", "failed to count runs")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"runs": runs, "total": total})
}
