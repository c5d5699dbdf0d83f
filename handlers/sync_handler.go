package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/synclinehq/syncline/middleware"
	"github.com/synclinehq/syncline/repositories"
	syncservice "github.com/synclinehq/syncline/services/sync"
	"github.com/synclinehq/syncline/utils"
	"go.uber.org/zap"
)

// SyncHandler serves the contact sync endpoints
type SyncHandler struct {
	service *syncservice.Service
	logger  *zap.Logger
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(service *syncservice.Service, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{
		service: service,
		logger:  logger,
	}
}

// HandleTriggerRun handles POST /api/v1/sync/runs. The run executes
// synchronously; the response carries the final counters.
func (h *SyncHandler) HandleTriggerRun(w http.ResponseWriter, r *http.Request) {
	var triggeredBy *uuid.UUID
	if userID := middleware.GetUserIDFromContext(r.Context()); userID != uuid.Nil {
		triggeredBy = &userID
	}

	run, err := h.service.Run(r.Context(), triggeredBy)
	if err != nil {
		h.logger.Error("sync run failed", zap.Error(err))
		if run != nil {
			// The run record carries the failure detail.
			respondJSON(w, http.StatusBadGateway, run)
			return
		}
		_ = utils.WriteInternalServerError(w, "Sync run could not be recorded")
		return
	}

	_ = utils.WriteCreated(w, run)
}

// HandleListRuns handles GET /api/v1/sync/runs
func (h *SyncHandler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	runs, err := h.service.ListRuns(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("failed to list sync runs", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "")
		return
	}

	_ = utils.WriteOK(w, runs)
}

// HandleGetRun handles GET /api/v1/sync/runs/{id}
func (h *SyncHandler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid run ID", nil)
		return
	}

	run, err := h.service.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			_ = utils.WriteNotFound(w, "Sync run not found")
			return
		}
		h.logger.Error("failed to get sync run", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "")
		return
	}

	_ = utils.WriteOK(w, run)
}

// HandleStatus handles GET /api/v1/sync/status
func (h *SyncHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.Status(r.Context())
	if err != nil {
		h.logger.Error("failed to compute sync status", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "")
		return
	}

	_ = utils.WriteOK(w, status)
}
