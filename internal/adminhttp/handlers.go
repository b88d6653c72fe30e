// Package adminhttp exposes the harness's control surface: start/stop a
// testing flow for a service and read back its live status. Grounded on
// serg2014-go-musthave-diploma/internal/app/handler.go's route-table and
// error-response shape, replacing its order/balance JSON bodies with
// models.StartParams/models.Status.
package adminhttp

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kstepanov/bombardier/internal/controller"
	"github.com/kstepanov/bombardier/internal/logger"
	"github.com/kstepanov/bombardier/internal/models"
)

// simpleError writes a plain-text error body at the given status, mirroring
// the teacher's simpleError helper in handler.go.
func simpleError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Error("adminhttp: failed to encode response", zap.Error(err))
	}
}

type Handler struct {
	Controller *controller.Controller
}

func NewHandler(c *controller.Controller) *Handler {
	return &Handler{Controller: c}
}

// StartTestingForService handles POST /services/{name}/start.
func (h *Handler) StartTestingForService(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var params models.StartParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		simpleError(w, http.StatusBadRequest, "malformed request body: "+err.Error())
		return
	}
	params.ServiceName = name

	err := h.Controller.StartTestingForService(r.Context(), params)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusAccepted)
	case errors.Is(err, controller.ErrAlreadyRunning):
		simpleError(w, http.StatusConflict, err.Error())
	case errors.Is(err, controller.ErrBadRequest):
		simpleError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Log.Error("adminhttp: start failed", zap.String("service", name), zap.Error(err))
		simpleError(w, http.StatusInternalServerError, "internal error")
	}
}

// StopTestByServiceName handles POST /services/{name}/stop.
func (h *Handler) StopTestByServiceName(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	err := h.Controller.StopTestByServiceName(name)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusAccepted)
	case errors.Is(err, controller.ErrNotFound):
		simpleError(w, http.StatusNotFound, err.Error())
	default:
		logger.Log.Error("adminhttp: stop failed", zap.String("service", name), zap.Error(err))
		simpleError(w, http.StatusInternalServerError, "internal error")
	}
}

// StopAllTests handles POST /services/stop-all.
func (h *Handler) StopAllTests(w http.ResponseWriter, r *http.Request) {
	h.Controller.StopAllTests()
	w.WriteHeader(http.StatusAccepted)
}

// GetTestingFlowForService handles GET /services/{name}.
func (h *Handler) GetTestingFlowForService(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	status, err := h.Controller.GetTestingFlowForService(name)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, status)
	case errors.Is(err, controller.ErrNotFound):
		simpleError(w, http.StatusNotFound, err.Error())
	default:
		logger.Log.Error("adminhttp: get status failed", zap.String("service", name), zap.Error(err))
		simpleError(w, http.StatusInternalServerError, "internal error")
	}
}
