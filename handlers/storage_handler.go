package handlers

import (
	"net/http"

	"github.com/synclinehq/syncline/storage"
	"go.uber.org/zap"
)

// StorageHandler serves the storage connectivity diagnostic
type StorageHandler struct {
	diag   *storage.Diagnostician
	logger *zap.Logger
}

// NewStorageHandler creates a new StorageHandler
func NewStorageHandler(diag *storage.Diagnostician, logger *zap.Logger) *StorageHandler {
	return &StorageHandler{
		diag:   diag,
		logger: logger,
	}
}

// HandleStorageCheck handles GET /api/v1/diagnostics/storage. It probes
// storage with the privileged credentials and reports either the bucket
// inventory or the error, its details, and a remediation hint. A failed
// probe is a server-side problem, so it answers 500.
func (h *StorageHandler) HandleStorageCheck(w http.ResponseWriter, r *http.Request) {
	report := h.diag.Check(r.Context())

	status := http.StatusOK
	if !report.Healthy {
		status = http.StatusInternalServerError
	}

	respondJSON(w, status, report)
}
