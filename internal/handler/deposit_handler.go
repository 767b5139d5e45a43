// internal/handler/deposit_handler.go
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"deposit-service/internal/domain"
	"deposit-service/internal/usecase"
	"deposit-service/internal/validator"
	"deposit-service/pkg/middleware"
	"deposit-service/pkg/response"
	"deposit-service/pkg/utils"
)

const maxBodyBytes = 1 << 16

type DepositHandler struct {
	deposits  DepositService
	review    ReviewService
	addresses AddressService
	logger    *zap.Logger
}

func NewDepositHandler(
	deposits DepositService,
	review ReviewService,
	addresses AddressService,
	logger *zap.Logger,
) *DepositHandler {
	return &DepositHandler{
		deposits:  deposits,
		review:    review,
		addresses: addresses,
		logger:    logger,
	}
}

type validateRequest struct {
	TransactionID string     `json:"transactionId"`
	Network       string     `json:"network"`
	UserID        flexString `json:"userId"`
	WalletID      flexString `json:"walletId"`
}

// Validate verifies a deposit on-chain and credits it
func (h *DepositHandler) Validate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req validateRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}

	var walletID int64
	if req.WalletID != "" {
		id, err := strconv.ParseInt(string(req.WalletID), 10, 64)
		if err != nil || id <= 0 {
			writeBadRequest(w, "Invalid wallet id")
			return
		}
		walletID = id
	}

	deposit, err := h.deposits.ValidateDeposit(ctx, usecase.VerifyRequest{
		TransactionID: req.TransactionID,
		Network:       req.Network,
		UserID:        string(req.UserID),
		WalletID:      walletID,
		SessionUserID: userID,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.Write(w, http.StatusOK, transactionBody{
		Success:     true,
		Transaction: toView(deposit),
	})
}

// History lists the caller's deposits
func (h *DepositHandler) History(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	limit, err := queryInt(r, "limit", usecase.DefaultHistoryLimit)
	if err != nil {
		writeBadRequest(w, "Invalid limit")
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeBadRequest(w, "Invalid offset")
		return
	}

	deposits, err := h.deposits.GetUserDeposits(ctx, userID, limit, offset)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"deposits": toViews(deposits),
		"limit":    limit,
		"offset":   offset,
	})
}

type manualRequest struct {
	TransactionID string     `json:"transactionId"`
	Network       string     `json:"network"`
	Amount        flexString `json:"amount"`
	Token         string     `json:"token"`
}

// SubmitManual queues a deposit for review
func (h *DepositHandler) SubmitManual(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req manualRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}
	if req.TransactionID == "" || req.Network == "" || req.Amount == "" {
		writeBadRequest(w, domain.MsgMissingFields)
		return
	}

	amount, err := utils.ParseAmount(string(req.Amount), domain.StablecoinDecimals)
	if err != nil {
		writeBadRequest(w, "Invalid amount")
		return
	}

	deposit, err := h.review.SubmitManual(ctx, domain.ManualDepositRequest{
		UserID:        userID,
		TransactionID: req.TransactionID,
		Network:       domain.Network(req.Network),
		ClaimedAmount: amount,
		Token:         domain.Token(strings.ToUpper(req.Token)),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.Write(w, http.StatusCreated, transactionBody{
		Success:     true,
		Transaction: toView(deposit),
	})
}

// TxPatterns serves the transaction id patterns used for validation
func (h *DepositHandler) TxPatterns(w http.ResponseWriter, r *http.Request) {
	patterns := make(map[string]string)
	for n, p := range validator.Patterns() {
		patterns[string(n)] = p
	}
	response.JSON(w, http.StatusOK, patterns)
}

// Addresses lists the caller's deposit addresses, or one network's
// address when ?network= is given
func (h *DepositHandler) Addresses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if network := r.URL.Query().Get("network"); network != "" {
		addr, err := h.addresses.GetDepositAddress(ctx, userID, network)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		response.JSON(w, http.StatusOK, toAddressView(addr))
		return
	}

	addrs, err := h.addresses.GetDepositAddresses(ctx, userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	views := make([]*AddressView, len(addrs))
	for i, a := range addrs {
		views[i] = toAddressView(a)
	}
	response.JSON(w, http.StatusOK, views)
}

// ============================================================================
// HELPERS
// ============================================================================

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after body")
	}
	return nil
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.New("invalid integer")
	}
	return n, nil
}
