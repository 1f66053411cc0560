package server

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"

	"mercator-hq/dsm/pkg/engine"
	"mercator-hq/dsm/pkg/model"
	"mercator-hq/dsm/pkg/modelstore"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failure. DN is set for model errors.
type ErrorDetail struct {
	Kind    string `json:"kind"`
	DN      string `json:"dn,omitempty"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, kind, dn, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Kind: kind, DN: dn, Message: message}})
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, modelstore.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "", err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, "internal", "", err.Error())
}

// writeEvaluationError maps an engine failure to a status code. Model
// errors carry their kind and the dn of the failing node.
func writeEvaluationError(w http.ResponseWriter, err error) {
	var me *model.Error
	switch {
	case errors.As(err, &me):
		writeError(w, http.StatusUnprocessableEntity, string(me.Kind), me.DN.String(), me.Message)
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "timeout", "", "evaluation timed out")
	case errors.Is(err, context.Canceled):
		// 499 is what clients that went away would have seen.
		writeError(w, 499, "canceled", "", "evaluation canceled")
	default:
		writeError(w, http.StatusInternalServerError, "internal", "", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(sanitize(v))
}

// sanitize replaces NaN and infinite floats in evaluation results with
// nil, since JSON cannot represent them.
func sanitize(v any) any {
	switch t := v.(type) {
	case EvaluateResponse:
		t.Value = sanitizeValue(t.Value)
		for i, r := range t.Records {
			t.Records[i] = sanitizeValue(r).(engine.Record)
		}
		return t
	default:
		return v
	}
}

func sanitizeValue(v any) any {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil
		}
		return t
	case float32:
		if math.IsNaN(float64(t)) || math.IsInf(float64(t), 0) {
			return nil
		}
		return t
	case engine.Record:
		for k, e := range t {
			t[k] = sanitizeValue(e)
		}
		return t
	case map[string]any:
		for k, e := range t {
			t[k] = sanitizeValue(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = sanitizeValue(e)
		}
		return t
	default:
		return v
	}
}
