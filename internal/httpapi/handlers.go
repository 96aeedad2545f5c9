package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/caba911/dispatch/internal/errs"
	"github.com/rs/zerolog/log"
)

// NewMux wires the five endpoints of spec.md §6 onto a plain
// http.ServeMux; no framework, matching the Non-goal that HTTP rendering
// is out of core scope.
func NewMux(svc *Service) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /incidents/{id}/plan", svc.handlePlan)
	mux.HandleFunc("GET /incidents/{id}/routes", svc.handleRoutes)
	mux.HandleFunc("GET /tracking/live", svc.handleTrackingLive)
	mux.HandleFunc("POST /incidents/{id}/green-wave", svc.handleGreenWave)
	mux.HandleFunc("POST /incidents/{id}/resolve", svc.handleResolve)
	return mux
}

func (s *Service) handlePlan(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	result, err := s.Plan(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Service) handleRoutes(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	routes, err := s.Routes(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, routes)
}

func (s *Service) handleTrackingLive(w http.ResponseWriter, r *http.Request) {
	snapshots := s.LiveSnapshots(r.Context(), s.now())
	writeJSON(w, http.StatusOK, snapshots)
}

func (s *Service) handleGreenWave(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	waves, err := s.ActivateGreenWave(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, waves)
}

type resolveRequest struct {
	ResolutionNotes string `json:"resolution_notes"`
}

func (s *Service) handleResolve(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var body resolveRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, errs.Validation("malformed request body"))
			return
		}
	}

	inc, err := s.Resolve(r.Context(), id, body.ResolutionNotes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inc)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response body")
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// writeError maps an internal/errs.Error's Kind to an HTTP status; any
// other error is treated as an unexpected internal failure.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	kind := ""

	var taxErr *errs.Error
	if errors.As(err, &taxErr) {
		kind = string(taxErr.Kind)
		switch taxErr.Kind {
		case errs.KindValidation, errs.KindGeocodingFailed:
			status = http.StatusBadRequest
		case errs.KindConflict:
			status = http.StatusConflict
		case errs.KindServiceUnavailable:
			status = http.StatusServiceUnavailable
		case errs.KindMisconfiguredProvider:
			status = http.StatusInternalServerError
		}
	} else {
		log.Error().Err(err).Msg("unexpected error handling request")
	}

	writeJSON(w, status, errorResponse{Error: err.Error(), Kind: kind})
}
