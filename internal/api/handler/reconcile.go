package handler

import (
	"context"
	"net/http"

	"github.com/bcnelson/apikey-console/internal/service"
)

// ReconcileHandler handles the forced expiry sweep.
type ReconcileHandler struct {
	console *service.Console
}

// NewReconcileHandler creates a new ReconcileHandler.
func NewReconcileHandler(console *service.Console) *ReconcileHandler {
	return &ReconcileHandler{console: console}
}

// Run performs an expiry pass now and returns its report.
func (h *ReconcileHandler) Run(w http.ResponseWriter, r *http.Request) {
	// Writes already sent must finish even if the caller goes away.
	report, err := h.console.Reconcile(context.WithoutCancel(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}
