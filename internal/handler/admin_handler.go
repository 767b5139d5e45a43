// internal/handler/admin_handler.go
package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"deposit-service/pkg/middleware"
	"deposit-service/pkg/response"
)

type AdminHandler struct {
	review ReviewService
	logger *zap.Logger
}

func NewAdminHandler(review ReviewService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{review: review, logger: logger}
}

// ListPending returns the manual review queue
func (h *AdminHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeBadRequest(w, "Invalid limit")
		return
	}

	deposits, err := h.review.ListPending(r.Context(), limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"deposits": toViews(deposits),
	})
}

// Confirm credits a pending deposit
func (h *AdminHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	adminID, _ := middleware.GetUserID(ctx)
	depositID := chi.URLParam(r, "id")

	h.logger.Info("Admin confirming deposit",
		zap.String("deposit_id", depositID),
		zap.String("admin_id", adminID))

	deposit, err := h.review.ConfirmPending(ctx, depositID, adminID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.Write(w, http.StatusOK, transactionBody{Success: true, Transaction: toView(deposit)})
}

type rejectRequest struct {
	Note string `json:"note"`
}

// Reject closes a pending deposit without credit
func (h *AdminHandler) Reject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	adminID, _ := middleware.GetUserID(ctx)
	depositID := chi.URLParam(r, "id")

	var req rejectRequest
	if err := decodeBody(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeBadRequest(w, "Invalid request body")
		return
	}

	h.logger.Info("Admin rejecting deposit",
		zap.String("deposit_id", depositID),
		zap.String("admin_id", adminID))

	deposit, err := h.review.RejectPending(ctx, depositID, adminID, req.Note)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.Write(w, http.StatusOK, transactionBody{Success: true, Transaction: toView(deposit)})
}
