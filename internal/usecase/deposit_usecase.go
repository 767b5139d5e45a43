// internal/usecase/deposit_usecase.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"deposit-service/internal/chains"
	"deposit-service/internal/domain"
	"deposit-service/internal/metrics"
	"deposit-service/internal/repository"
	"deposit-service/internal/validator"
)

const (
	DefaultRPCTimeout   = 20 * time.Second
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100

	publishTimeout = 5 * time.Second
)

// VerifyRequest is one deposit submission. SessionUserID comes from the
// verified token; UserID is the optional value from the request body.
type VerifyRequest struct {
	TransactionID string
	Network       string
	UserID        string
	WalletID      int64
	SessionUserID string
}

type DepositUsecase struct {
	deposits   DepositStore
	wallets    WalletStore
	adapters   AdapterSource
	tokens     *domain.TokenRegistry
	publisher  EventPublisher
	metrics    *metrics.Metrics
	rpcTimeout time.Duration
	logger     *zap.Logger
}

func NewDepositUsecase(
	deposits DepositStore,
	wallets WalletStore,
	adapters AdapterSource,
	tokens *domain.TokenRegistry,
	publisher EventPublisher,
	m *metrics.Metrics,
	rpcTimeout time.Duration,
	logger *zap.Logger,
) *DepositUsecase {
	if rpcTimeout <= 0 {
		rpcTimeout = DefaultRPCTimeout
	}
	return &DepositUsecase{
		deposits:   deposits,
		wallets:    wallets,
		adapters:   adapters,
		tokens:     tokens,
		publisher:  publisher,
		metrics:    m,
		rpcTimeout: rpcTimeout,
		logger:     logger,
	}
}

// ============================================================================
// VERIFICATION
// ============================================================================

// Verify checks a submitted transaction against the chain without writing
// anything. Every failure is a *domain.Rejection.
func (uc *DepositUsecase) Verify(ctx context.Context, req VerifyRequest) (*domain.VerificationResult, error) {
	res, err := uc.verify(ctx, req)
	if err != nil {
		uc.metrics.Verification(domain.Network(req.Network), outcomeOf(err))
		return nil, err
	}
	uc.metrics.Verification(res.Network, metrics.OutcomeVerified)
	return res, nil
}

func (uc *DepositUsecase) verify(ctx context.Context, req VerifyRequest) (*domain.VerificationResult, error) {
	userID, err := resolveUser(req.UserID, req.SessionUserID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.TransactionID) == "" || req.Network == "" || userID == "" {
		return nil, domain.Reject(domain.ReasonInvalidRequest, domain.MsgMissingFields)
	}

	// 1. Network
	network, ok := domain.ParseNetwork(req.Network)
	if !ok {
		return nil, domain.Reject(domain.ReasonInvalidRequest, domain.MsgInvalidNetwork)
	}

	// 2. Format, before any network call
	if !validator.Validate(network, req.TransactionID) {
		return nil, domain.Reject(domain.ReasonInvalidFormat, invalidFormatMessage(network))
	}
	txID := network.NormalizeTxID(req.TransactionID)

	// 3. Wallet
	wallet, err := uc.userWallet(ctx, userID, network)
	if err != nil {
		return nil, err
	}
	if req.WalletID != 0 && req.WalletID != wallet.ID {
		return nil, domain.Reject(domain.ReasonInvalidRequest, domain.MsgWalletMismatch)
	}

	// 4. Idempotency pre-check; the unique constraint re-checks at commit
	if err := uc.ensureUnprocessed(ctx, txID); err != nil {
		return nil, err
	}

	// 5..7 On-chain
	return uc.VerifyOnChain(ctx, wallet, txID)
}

// VerifyOnChain fetches txID from the wallet's network and checks that it is
// a confirmed stablecoin transfer into the wallet.
func (uc *DepositUsecase) VerifyOnChain(ctx context.Context, wallet *domain.Wallet, txID string) (*domain.VerificationResult, error) {
	network := wallet.Network

	adapter, err := uc.adapters.Get(network)
	if err != nil {
		return nil, domain.RejectWrap(domain.ReasonAdapterFailure,
			fmt.Sprintf("%s network is currently unavailable", network.DisplayName()), err)
	}

	fact, err := uc.fetch(ctx, adapter, txID)
	if err != nil {
		return nil, err
	}

	if !fact.Confirmed {
		return nil, domain.Reject(domain.ReasonNotConfirmed, "Transaction failed or not confirmed")
	}

	// 6. Token identity
	token, ok := uc.tokens.Classify(network, fact.TokenContract)
	if !ok {
		return nil, domain.Reject(domain.ReasonTokenMismatch, domain.MsgNotStablecoin)
	}

	// 7. Ownership
	if !wallet.Owns(fact.Recipient) {
		uc.logger.Warn("Deposit recipient mismatch",
			zap.String("tx_id", txID),
			zap.String("network", string(network)),
			zap.String("user_id", wallet.UserID),
			zap.String("recipient", fact.Recipient))
		return nil, domain.Reject(domain.ReasonRecipientMismatch, domain.MsgRecipientMismatch)
	}

	amount := fact.Amount()
	if !amount.IsPositive() {
		return nil, domain.Reject(domain.ReasonNotATokenTransfer, "Transfer amount must be positive")
	}

	return &domain.VerificationResult{
		Success:       true,
		Status:        domain.DepositStatusCompleted,
		Amount:        amount,
		Token:         token,
		FromAddress:   fact.FromAddress,
		Network:       network,
		TransactionID: txID,
		UserID:        wallet.UserID,
		WalletID:      wallet.ID,
	}, nil
}

// fetch runs the adapter under the RPC timeout
func (uc *DepositUsecase) fetch(ctx context.Context, adapter chains.Adapter, txID string) (*domain.TransferFact, error) {
	rpcCtx, cancel := context.WithTimeout(ctx, uc.rpcTimeout)
	defer cancel()

	start := time.Now()
	fact, err := adapter.FetchTransfer(rpcCtx, txID)
	uc.metrics.AdapterCall(adapter.Network(), time.Since(start))

	if err != nil {
		if _, ok := domain.AsRejection(err); ok {
			return nil, err
		}
		return nil, domain.RejectWrap(domain.ReasonAdapterFailure, "Failed to verify transaction", err)
	}
	if fact == nil {
		return nil, domain.Reject(domain.ReasonNotFound, "Transaction not found")
	}
	return fact, nil
}

// ============================================================================
// VALIDATE AND CREDIT
// ============================================================================

// ValidateDeposit verifies a submission and, on success, credits it exactly
// once. A commit failure after verification is a retryable rejection.
func (uc *DepositUsecase) ValidateDeposit(ctx context.Context, req VerifyRequest) (*domain.Deposit, error) {
	res, err := uc.Verify(ctx, req)
	if err != nil {
		uc.logger.Info("Deposit rejected",
			zap.String("tx_id", req.TransactionID),
			zap.String("network", req.Network),
			zap.String("reason", string(domain.ReasonOf(err))))
		return nil, err
	}
	return uc.commit(ctx, res)
}

// commit credits a verified transfer and publishes the completed event
func (uc *DepositUsecase) commit(ctx context.Context, res *domain.VerificationResult) (*domain.Deposit, error) {
	deposit, err := uc.deposits.CommitVerified(ctx, res)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateTransaction) {
			uc.metrics.Verification(res.Network, string(domain.ReasonAlreadyProcessed))
			return nil, domain.Reject(domain.ReasonAlreadyProcessed, domain.MsgAlreadyProcessed)
		}

		uc.metrics.Verification(res.Network, string(domain.ReasonPersistenceFailure))
		uc.logger.Error("Verified deposit not credited",
			zap.String("tx_id", res.TransactionID),
			zap.String("network", string(res.Network)),
			zap.String("user_id", res.UserID),
			zap.String("amount", res.Amount.String()),
			zap.Error(err))
		return nil, domain.RejectWrap(domain.ReasonPersistenceFailure, domain.MsgProcessingFailed, err)
	}

	uc.metrics.Verification(res.Network, metrics.OutcomeCredited)
	uc.logger.Info("Deposit credited",
		zap.String("deposit_id", deposit.ID),
		zap.String("tx_id", deposit.TransactionID),
		zap.String("network", string(deposit.Network)),
		zap.String("user_id", deposit.UserID),
		zap.String("amount", deposit.Amount.String()),
		zap.String("token", string(deposit.Token)))

	uc.publishCompleted(ctx, deposit)
	return deposit, nil
}

// GetUserDeposits lists the user's deposits, newest first
func (uc *DepositUsecase) GetUserDeposits(ctx context.Context, userID string, limit, offset int) ([]*domain.Deposit, error) {
	if userID == "" {
		return nil, domain.Reject(domain.ReasonInvalidRequest, domain.MsgMissingFields)
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}

	deposits, err := uc.deposits.GetUserDeposits(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get deposits: %w", err)
	}
	return deposits, nil
}

// ============================================================================
// HELPERS
// ============================================================================

func (uc *DepositUsecase) userWallet(ctx context.Context, userID string, network domain.Network) (*domain.Wallet, error) {
	wallet, err := uc.wallets.GetUserWallet(ctx, userID, network)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.Reject(domain.ReasonNoWalletForNetwork, domain.MsgNoWallet)
		}
		return nil, domain.RejectWrap(domain.ReasonPersistenceFailure, domain.MsgProcessingFailed, err)
	}
	return wallet, nil
}

func (uc *DepositUsecase) ensureUnprocessed(ctx context.Context, txID string) error {
	exists, err := uc.deposits.ExistsByTransactionID(ctx, txID)
	if err != nil {
		return domain.RejectWrap(domain.ReasonPersistenceFailure, domain.MsgProcessingFailed, err)
	}
	if exists {
		return domain.Reject(domain.ReasonAlreadyProcessed, domain.MsgAlreadyProcessed)
	}
	return nil
}

// publishCompleted is best effort; the credit is already committed
func (uc *DepositUsecase) publishCompleted(ctx context.Context, deposit *domain.Deposit) {
	if uc.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := uc.publisher.PublishDepositCompleted(pubCtx, domain.NewDepositCompletedEvent(deposit)); err != nil {
		uc.logger.Warn("Failed to publish deposit event",
			zap.String("deposit_id", deposit.ID),
			zap.Error(err))
	}
}

// resolveUser returns the authoritative user id. The session wins; a body
// value may only repeat it.
func resolveUser(bodyUserID, sessionUserID string) (string, error) {
	if sessionUserID == "" {
		return bodyUserID, nil
	}
	if bodyUserID != "" && bodyUserID != sessionUserID {
		return "", domain.Reject(domain.ReasonInvalidRequest, domain.MsgSessionUserMismatch)
	}
	return sessionUserID, nil
}

func invalidFormatMessage(network domain.Network) string {
	return fmt.Sprintf("Invalid transaction ID format for %s", network.DisplayName())
}

func outcomeOf(err error) string {
	if reason := domain.ReasonOf(err); reason != "" {
		return string(reason)
	}
	return metrics.OutcomeError
}
