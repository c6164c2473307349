// Package api provides the thin HTTP surface over the integration facade.
// It is glue for external collaborators; all engine behavior lives behind
// the service layer.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/petaltask/recur/internal/domain"
	"github.com/petaltask/recur/internal/platform/logger"
	"github.com/petaltask/recur/internal/service"
)

// RecurrenceHandler handles definition and instance HTTP requests.
type RecurrenceHandler struct {
	svc    *service.RecurrenceService
	logger *slog.Logger
}

// NewRecurrenceHandler creates a new RecurrenceHandler.
func NewRecurrenceHandler(svc *service.RecurrenceService, logger *slog.Logger) *RecurrenceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecurrenceHandler{
		svc:    svc,
		logger: logger.With(slog.String("component", "recurrence_handler")),
	}
}

// CreateDefinition handles POST /definitions.
func (h *RecurrenceHandler) CreateDefinition(w http.ResponseWriter, r *http.Request) {
	var req CreateDefinitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON payload"})
		return
	}

	id, err := uuid.Parse(req.ID)
	if err != nil {
		respondWithServiceError(w, h.log(r), domain.NewValidationError("id", "must be a valid UUID", err))
		return
	}

	spec, err := req.Spec.ToSpec()
	if err != nil {
		respondWithServiceError(w, h.log(r), err)
		return
	}

	def, err := domain.NewRecurringDefinition(id, req.Title, *spec)
	if err != nil {
		respondWithServiceError(w, h.log(r), err)
		return
	}

	if err := h.svc.Create(r.Context(), def); err != nil {
		respondWithServiceError(w, h.log(r), err)
		return
	}

	respondJSON(w, http.StatusCreated, def)
}

// UpdateDefinition handles PATCH /definitions/{id}.
func (h *RecurrenceHandler) UpdateDefinition(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req UpdateDefinitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON payload"})
		return
	}

	update := service.DefinitionUpdate{Title: req.Title}
	if req.Spec != nil {
		spec, err := req.Spec.ToSpec()
		if err != nil {
			respondWithServiceError(w, h.log(r), err)
			return
		}
		update.Spec = spec
	}

	if err := h.svc.Update(r.Context(), id, update); err != nil {
		respondWithServiceError(w, h.log(r), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteDefinition handles DELETE /definitions/{id}.
func (h *RecurrenceHandler) DeleteDefinition(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		respondWithServiceError(w, h.log(r), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// PauseDefinition handles POST /definitions/{id}/pause.
func (h *RecurrenceHandler) PauseDefinition(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Pause(r.Context(), id); err != nil {
		respondWithServiceError(w, h.log(r), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ResumeDefinition handles POST /definitions/{id}/resume.
func (h *RecurrenceHandler) ResumeDefinition(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Resume(r.Context(), id); err != nil {
		respondWithServiceError(w, h.log(r), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RegenerateDefinition handles POST /definitions/{id}/regenerate.
// Generation happens asynchronously; the response only acknowledges the
// request.
func (h *RecurrenceHandler) RegenerateDefinition(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	h.svc.RegenerateAll(id)
	w.WriteHeader(http.StatusAccepted)
}

// ListInstances handles GET /definitions/{id}/instances.
func (h *RecurrenceHandler) ListInstances(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	instances := h.svc.ListInstances(id)
	out := make([]InstanceResponse, 0, len(instances))
	for _, inst := range instances {
		out = append(out, newInstanceResponse(inst))
	}
	respondJSON(w, http.StatusOK, out)
}

// GetStats handles GET /definitions/{id}/stats.
func (h *RecurrenceHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, h.svc.GetStats(id))
}

// CompleteInstance handles POST /instances/{id}/complete.
func (h *RecurrenceHandler) CompleteInstance(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		respondWithServiceError(w, h.log(r), domain.NewValidationError("id", "must be a valid UUID", err))
		return
	}

	if err := h.svc.CompleteInstance(r.Context(), id); err != nil {
		respondWithServiceError(w, h.log(r), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Preview handles POST /preview. It computes occurrence dates synchronously
// and never touches the queue, so the UI can show a live preview while the
// user edits a spec.
func (h *RecurrenceHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON payload"})
		return
	}

	spec, err := req.Spec.ToSpec()
	if err != nil {
		respondWithServiceError(w, h.log(r), err)
		return
	}

	dates, err := h.svc.PreviewOccurrences(spec, req.Count)
	if err != nil {
		respondWithServiceError(w, h.log(r), err)
		return
	}

	resp := PreviewResponse{Dates: make([]string, 0, len(dates))}
	for _, d := range dates {
		resp.Dates = append(resp.Dates, d.Format("2006-01-02"))
	}
	respondJSON(w, http.StatusOK, resp)
}

// HealthReport handles GET /health/report.
func (h *RecurrenceHandler) HealthReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.HealthReport(r.Context())
	if err != nil {
		respondWithServiceError(w, h.log(r), err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// log returns the request-scoped logger installed by the router, falling
// back to the handler's own.
func (h *RecurrenceHandler) log(r *http.Request) *slog.Logger {
	return logger.FromContextOrDefault(r.Context(), h.logger)
}

func (h *RecurrenceHandler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		respondWithServiceError(w, h.log(r), domain.NewValidationError("id", "must be a valid UUID", err))
		return uuid.Nil, false
	}
	return id, true
}
