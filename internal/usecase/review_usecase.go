// internal/usecase/review_usecase.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"deposit-service/internal/domain"
	"deposit-service/internal/metrics"
	"deposit-service/internal/repository"
	"deposit-service/internal/validator"
)

const (
	// SystemReviewer marks decisions taken by the re-verification worker
	SystemReviewer = "system"

	DefaultPendingBatch = 50
	defaultRejectNote   = "Rejected by administrator"
)

var (
	msgDepositNotFound = "Deposit not found"
	msgNotPending      = "Deposit is no longer pending"
	msgInvalidAmount   = "Invalid amount"
	msgInvalidToken    = "Token must be USDT or USDC"
)

// ReviewOutcome is what happened to one pending deposit during re-verification
type ReviewOutcome string

const (
	ReviewCompleted ReviewOutcome = "completed"
	ReviewRejected  ReviewOutcome = "rejected"
	ReviewDeferred  ReviewOutcome = "deferred"
	ReviewSkipped   ReviewOutcome = "skipped"
)

// ReviewSummary counts the outcomes of one re-verification pass
type ReviewSummary struct {
	Scanned   int
	Completed int
	Rejected  int
	Deferred  int
	Skipped   int
}

// ReviewUsecase handles manually submitted deposits: submission, admin
// decisions and on-chain re-verification of the pending queue.
type ReviewUsecase struct {
	deposits  DepositStore
	wallets   WalletStore
	engine    *DepositUsecase
	publisher EventPublisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func NewReviewUsecase(
	deposits DepositStore,
	wallets WalletStore,
	engine *DepositUsecase,
	publisher EventPublisher,
	m *metrics.Metrics,
	logger *zap.Logger,
) *ReviewUsecase {
	return &ReviewUsecase{
		deposits:  deposits,
		wallets:   wallets,
		engine:    engine,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

// ============================================================================
// MANUAL SUBMISSION
// ============================================================================

// SubmitManual records a pending deposit for later review when the transfer
// cannot be verified yet. The claimed amount is stored for the reviewer and
// never credited as-is by the worker.
func (uc *ReviewUsecase) SubmitManual(ctx context.Context, req domain.ManualDepositRequest) (*domain.Deposit, error) {
	if req.UserID == "" || strings.TrimSpace(req.TransactionID) == "" || req.Network == "" {
		return nil, domain.Reject(domain.ReasonInvalidRequest, domain.MsgMissingFields)
	}
	if _, ok := domain.ParseNetwork(string(req.Network)); !ok {
		return nil, domain.Reject(domain.ReasonInvalidRequest, domain.MsgInvalidNetwork)
	}
	if req.ClaimedAmount.IsNegative() {
		return nil, domain.Reject(domain.ReasonInvalidRequest, msgInvalidAmount)
	}
	if req.Token != "" && req.Token != domain.TokenUSDT && req.Token != domain.TokenUSDC {
		return nil, domain.Reject(domain.ReasonInvalidRequest, msgInvalidToken)
	}

	if !validator.Validate(req.Network, req.TransactionID) {
		return nil, domain.Reject(domain.ReasonInvalidFormat, invalidFormatMessage(req.Network))
	}
	txID := req.Network.NormalizeTxID(req.TransactionID)

	wallet, err := uc.engine.userWallet(ctx, req.UserID, req.Network)
	if err != nil {
		return nil, err
	}
	if err := uc.engine.ensureUnprocessed(ctx, txID); err != nil {
		return nil, err
	}

	// A transfer that is already verifiable is credited now. One that can
	// never match this wallet must not reserve the transaction id.
	res, err := uc.engine.VerifyOnChain(ctx, wallet, txID)
	if err == nil {
		uc.logger.Info("Manual deposit verified on submission",
			zap.String("tx_id", txID),
			zap.String("user_id", req.UserID))
		return uc.engine.commit(ctx, res)
	}
	if rej, ok := domain.AsRejection(err); ok && isPermanent(rej.Reason) {
		uc.logger.Info("Manual deposit rejected on submission",
			zap.String("tx_id", txID),
			zap.String("user_id", req.UserID),
			zap.String("reason", string(rej.Reason)))
		return nil, rej
	}

	deposit := &domain.Deposit{
		UserID:        req.UserID,
		WalletID:      wallet.ID,
		TransactionID: txID,
		Network:       req.Network,
		Amount:        req.ClaimedAmount,
		Token:         req.Token,
	}
	if err := uc.deposits.CreatePending(ctx, deposit); err != nil {
		if errors.Is(err, repository.ErrDuplicateTransaction) {
			return nil, domain.Reject(domain.ReasonAlreadyProcessed, domain.MsgAlreadyProcessed)
		}
		return nil, domain.RejectWrap(domain.ReasonPersistenceFailure, domain.MsgProcessingFailed, err)
	}

	uc.logger.Info("Manual deposit submitted",
		zap.String("deposit_id", deposit.ID),
		zap.String("tx_id", txID),
		zap.String("network", string(req.Network)),
		zap.String("user_id", req.UserID))
	return deposit, nil
}

// ============================================================================
// ADMIN DECISIONS
// ============================================================================

// ListPending returns the review queue, oldest first
func (uc *ReviewUsecase) ListPending(ctx context.Context, limit int) ([]*domain.Deposit, error) {
	if limit <= 0 || limit > MaxHistoryLimit {
		limit = DefaultPendingBatch
	}
	deposits, err := uc.deposits.GetPendingDeposits(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending deposits: %w", err)
	}
	return deposits, nil
}

// ConfirmPending credits a pending deposit with its recorded amount
func (uc *ReviewUsecase) ConfirmPending(ctx context.Context, depositID, reviewer string) (*domain.Deposit, error) {
	deposit, err := uc.deposits.ConfirmPending(ctx, depositID, reviewer)
	if err != nil {
		return nil, reviewError(err)
	}

	uc.metrics.PendingReviewed(deposit.Network, domain.DepositStatusCompleted)
	uc.logger.Info("Pending deposit confirmed",
		zap.String("deposit_id", deposit.ID),
		zap.String("reviewer", reviewer),
		zap.String("amount", deposit.Amount.String()))

	uc.engine.publishCompleted(ctx, deposit)
	return deposit, nil
}

// RejectPending closes a pending deposit without crediting it
func (uc *ReviewUsecase) RejectPending(ctx context.Context, depositID, reviewer, note string) (*domain.Deposit, error) {
	if strings.TrimSpace(note) == "" {
		note = defaultRejectNote
	}

	deposit, err := uc.deposits.RejectPending(ctx, depositID, reviewer, note)
	if err != nil {
		return nil, reviewError(err)
	}

	uc.metrics.PendingReviewed(deposit.Network, domain.DepositStatusRejected)
	uc.logger.Info("Pending deposit rejected",
		zap.String("deposit_id", deposit.ID),
		zap.String("reviewer", reviewer),
		zap.String("note", note))
	return deposit, nil
}

// ============================================================================
// RE-VERIFICATION
// ============================================================================

// ReverifyPending runs one batch of the pending queue through the on-chain
// checks
func (uc *ReviewUsecase) ReverifyPending(ctx context.Context, batch int) (*ReviewSummary, error) {
	if batch <= 0 {
		batch = DefaultPendingBatch
	}

	pending, err := uc.deposits.GetPendingDeposits(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending deposits: %w", err)
	}

	summary := &ReviewSummary{}
	for _, deposit := range pending {
		if ctx.Err() != nil {
			break
		}
		summary.Scanned++

		switch uc.ReverifyDeposit(ctx, deposit) {
		case ReviewCompleted:
			summary.Completed++
		case ReviewRejected:
			summary.Rejected++
		case ReviewDeferred:
			summary.Deferred++
		default:
			summary.Skipped++
		}
	}
	return summary, nil
}

// ReverifyDeposit verifies one pending deposit. A verified transfer is
// credited with the on-chain amount; a transfer that can never match is
// rejected; anything else stays pending for the next pass.
func (uc *ReviewUsecase) ReverifyDeposit(ctx context.Context, deposit *domain.Deposit) ReviewOutcome {
	log := uc.logger.With(
		zap.String("deposit_id", deposit.ID),
		zap.String("tx_id", deposit.TransactionID),
		zap.String("network", string(deposit.Network)))

	wallet, err := uc.wallets.GetByID(ctx, deposit.WalletID)
	if err != nil {
		log.Error("Failed to load deposit wallet", zap.Error(err))
		return ReviewSkipped
	}
	if wallet.UserID != deposit.UserID || wallet.Network != deposit.Network {
		log.Error("Deposit wallet does not match deposit owner or network",
			zap.Int64("wallet_id", wallet.ID))
		return ReviewSkipped
	}

	res, err := uc.engine.VerifyOnChain(ctx, wallet, deposit.TransactionID)
	if err != nil {
		rej, ok := domain.AsRejection(err)
		if !ok || !isPermanent(rej.Reason) {
			log.Debug("Pending deposit not yet verifiable", zap.Error(err))
			return ReviewDeferred
		}

		if _, err := uc.deposits.RejectPending(ctx, deposit.ID, SystemReviewer, rej.Message); err != nil {
			if errors.Is(err, repository.ErrNotPending) {
				return ReviewSkipped
			}
			log.Error("Failed to reject pending deposit", zap.Error(err))
			return ReviewSkipped
		}
		uc.metrics.PendingReviewed(deposit.Network, domain.DepositStatusRejected)
		log.Info("Pending deposit rejected on-chain", zap.String("reason", string(rej.Reason)))
		return ReviewRejected
	}

	completed, err := uc.deposits.CompletePending(ctx, deposit.ID, res)
	if err != nil {
		if errors.Is(err, repository.ErrNotPending) {
			return ReviewSkipped
		}
		log.Error("Failed to complete pending deposit", zap.Error(err))
		return ReviewSkipped
	}

	uc.metrics.PendingReviewed(deposit.Network, domain.DepositStatusCompleted)
	log.Info("Pending deposit verified and credited",
		zap.String("claimed", deposit.Amount.String()),
		zap.String("amount", completed.Amount.String()))
	uc.engine.publishCompleted(ctx, completed)
	return ReviewCompleted
}

// Reasons that no later retry can change
func isPermanent(reason domain.RejectionReason) bool {
	switch reason {
	case domain.ReasonRecipientMismatch, domain.ReasonTokenMismatch, domain.ReasonNotATokenTransfer:
		return true
	}
	return false
}

func reviewError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return domain.Reject(domain.ReasonNotFound, msgDepositNotFound)
	case errors.Is(err, repository.ErrNotPending):
		return domain.Reject(domain.ReasonAlreadyProcessed, msgNotPending)
	}
	return domain.RejectWrap(domain.ReasonPersistenceFailure, domain.MsgProcessingFailed, err)
}
