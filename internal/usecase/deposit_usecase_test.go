// internal/usecase/deposit_usecase_test.go
package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"deposit-service/internal/chains"
	"deposit-service/internal/domain"
	"deposit-service/internal/metrics"
)

type harness struct {
	wallets   *memWallets
	deposits  *memDeposits
	adapters  map[domain.Network]*fakeAdapter
	publisher *recordingPublisher
	uc        *DepositUsecase
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	wallets := newMemWallets()
	h := &harness{
		wallets:   wallets,
		deposits:  newMemDeposits(wallets),
		adapters:  make(map[domain.Network]*fakeAdapter),
		publisher: &recordingPublisher{},
	}

	registry := chains.NewRegistry()
	for _, n := range domain.SupportedNetworks {
		a := &fakeAdapter{network: n, err: domain.Reject(domain.ReasonNotFound, "Transaction not found")}
		h.adapters[n] = a
		registry.Register(a)
	}

	h.uc = NewDepositUsecase(
		h.deposits,
		h.wallets,
		registry,
		domain.NewTokenRegistry(nil),
		h.publisher,
		metrics.New(),
		time.Second,
		zap.NewNop(),
	)
	return h
}

func (h *harness) totalCalls() int32 {
	var total int32
	for _, a := range h.adapters {
		total += a.calls.Load()
	}
	return total
}

func requireReason(t *testing.T, err error, reason domain.RejectionReason) *domain.Rejection {
	t.Helper()
	require.Error(t, err)
	rej, ok := domain.AsRejection(err)
	require.True(t, ok, "expected rejection, got %v", err)
	assert.Equal(t, reason, rej.Reason)
	return rej
}

func TestValidateDeposit_InvalidFormatMakesNoNetworkCall(t *testing.T) {
	cases := []struct {
		network domain.Network
		txID    string
		message string
	}{
		{domain.NetworkBase, "0x1234", "Invalid transaction ID format for Base"},
		{domain.NetworkBase, strings.Repeat("ab", 32), "Invalid transaction ID format for Base"},
		{domain.NetworkSolana, strings.Repeat("0", 88), "Invalid transaction ID format for Solana"},
		{domain.NetworkSolana, "short", "Invalid transaction ID format for Solana"},
		{domain.NetworkTron, "0x" + strings.Repeat("cd", 32), "Invalid transaction ID format for Tron"},
		{domain.NetworkTron, strings.Repeat("zz", 32), "Invalid transaction ID format for Tron"},
		{domain.NetworkBase, " " + baseTxID, "Invalid transaction ID format for Base"},
		{domain.NetworkBase, "0X" + baseTxID[2:], "Invalid transaction ID format for Base"},
		{domain.NetworkTron, tronTxID + "\n", "Invalid transaction ID format for Tron"},
	}

	for _, tc := range cases {
		t.Run(string(tc.network)+"/"+tc.txID[:4], func(t *testing.T) {
			h := newHarness(t)
			h.wallets.add("u1", tc.network, "addr")

			_, err := h.uc.ValidateDeposit(context.Background(), VerifyRequest{
				TransactionID: tc.txID,
				Network:       string(tc.network),
				SessionUserID: "u1",
			})

			rej := requireReason(t, err, domain.ReasonInvalidFormat)
			assert.Equal(t, tc.message, rej.Message)
			assert.False(t, rej.Retryable())
			assert.Zero(t, h.totalCalls())
		})
	}
}

func TestValidateDeposit_RequestChecks(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.uc.ValidateDeposit(ctx, VerifyRequest{Network: "ETH-Base", SessionUserID: "u1"})
	rej := requireReason(t, err, domain.ReasonInvalidRequest)
	assert.Equal(t, domain.MsgMissingFields, rej.Message)

	_, err = h.uc.ValidateDeposit(ctx, VerifyRequest{TransactionID: baseTxID, Network: "BTC", SessionUserID: "u1"})
	rej = requireReason(t, err, domain.ReasonInvalidRequest)
	assert.Equal(t, domain.MsgInvalidNetwork, rej.Message)

	_, err = h.uc.ValidateDeposit(ctx, VerifyRequest{
		TransactionID: baseTxID, Network: "ETH-Base", UserID: "u2", SessionUserID: "u1",
	})
	rej = requireReason(t, err, domain.ReasonInvalidRequest)
	assert.Equal(t, domain.MsgSessionUserMismatch, rej.Message)

	_, err = h.uc.ValidateDeposit(ctx, VerifyRequest{TransactionID: baseTxID, Network: "ETH-Base", SessionUserID: "u1"})
	rej = requireReason(t, err, domain.ReasonNoWalletForNetwork)
	assert.Equal(t, domain.MsgNoWallet, rej.Message)

	w := h.wallets.add("u1", domain.NetworkBase, baseWalletAddr)
	_, err = h.uc.ValidateDeposit(ctx, VerifyRequest{
		TransactionID: baseTxID, Network: "ETH-Base", WalletID: w.ID + 100, SessionUserID: "u1",
	})
	rej = requireReason(t, err, domain.ReasonInvalidRequest)
	assert.Equal(t, domain.MsgWalletMismatch, rej.Message)

	assert.Zero(t, h.totalCalls())
}

func TestValidateDeposit_EVMCaseInsensitiveRecipient(t *testing.T) {
	h := newHarness(t)
	w := h.wallets.add("u1", domain.NetworkBase, baseWalletAddr)
	h.adapters[domain.NetworkBase].err = nil
	h.adapters[domain.NetworkBase].fact = baseFact("0x"+strings.ToUpper(baseWalletAddr[2:]), 100_000_000)

	deposit, err := h.uc.ValidateDeposit(context.Background(), VerifyRequest{
		TransactionID: baseTxID,
		Network:       "ETH-Base",
		WalletID:      w.ID,
		SessionUserID: "u1",
	})
	require.NoError(t, err)

	hundred := decimal.NewFromInt(100)
	assert.True(t, deposit.Amount.Equal(hundred), "amount %s", deposit.Amount)
	assert.Equal(t, domain.TokenUSDC, deposit.Token)
	assert.Equal(t, domain.DepositStatusCompleted, deposit.Status)
	assert.Equal(t, "0xsender", deposit.FromAddress)
	assert.True(t, h.deposits.userBalance("u1").Equal(hundred))
	assert.True(t, h.wallets.balance(w.ID).Equal(hundred))
	assert.Equal(t, 1, h.publisher.count())
}

func TestValidateDeposit_Idempotent(t *testing.T) {
	h := newHarness(t)
	h.wallets.add("u1", domain.NetworkBase, baseWalletAddr)
	h.adapters[domain.NetworkBase].err = nil
	h.adapters[domain.NetworkBase].fact = baseFact(baseWalletAddr, 5_500_000)

	req := VerifyRequest{TransactionID: baseTxID, Network: "ETH-Base", SessionUserID: "u1"}
	_, err := h.uc.ValidateDeposit(context.Background(), req)
	require.NoError(t, err)

	// Same hash in upper case is the same transaction
	req.TransactionID = "0x" + strings.ToUpper(baseTxID[2:])
	_, err = h.uc.ValidateDeposit(context.Background(), req)
	rej := requireReason(t, err, domain.ReasonAlreadyProcessed)
	assert.Equal(t, domain.MsgAlreadyProcessed, rej.Message)

	assert.Equal(t, int32(1), h.adapters[domain.NetworkBase].calls.Load())
	assert.Equal(t, 1, h.deposits.count())
	assert.True(t, h.deposits.userBalance("u1").Equal(decimal.RequireFromString("5.5")))
}

func TestValidateDeposit_ConcurrentSubmissionsCreditOnce(t *testing.T) {
	h := newHarness(t)
	h.wallets.add("u1", domain.NetworkTron, "TWalletAddr")
	h.adapters[domain.NetworkTron].err = nil
	h.adapters[domain.NetworkTron].fact = &domain.TransferFact{
		Recipient:     "TWalletAddr",
		TokenContract: domain.DefaultTokenContracts[domain.NetworkTron].USDT,
		RawAmount:     usdc(42_000_000),
		Decimals:      domain.StablecoinDecimals,
		FromAddress:   "TSender",
		Confirmed:     true,
	}

	const n = 20
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		credited int
		already  int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.uc.ValidateDeposit(context.Background(), VerifyRequest{
				TransactionID: tronTxID, Network: "TRC-20", SessionUserID: "u1",
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				credited++
				return
			}
			if domain.ReasonOf(err) == domain.ReasonAlreadyProcessed {
				already++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, credited)
	assert.Equal(t, n-1, already)
	assert.Equal(t, 1, h.deposits.count())
	assert.True(t, h.deposits.userBalance("u1").Equal(decimal.NewFromInt(42)))
}

func TestValidateDeposit_RecipientMismatch(t *testing.T) {
	h := newHarness(t)
	h.wallets.add("u1", domain.NetworkBase, baseWalletAddr)
	h.adapters[domain.NetworkBase].err = nil
	h.adapters[domain.NetworkBase].fact = baseFact("0x9999999999999999999999999999999999999999", 1_000_000_000_000)

	_, err := h.uc.ValidateDeposit(context.Background(), VerifyRequest{
		TransactionID: baseTxID, Network: "ETH-Base", SessionUserID: "u1",
	})
	rej := requireReason(t, err, domain.ReasonRecipientMismatch)
	assert.Equal(t, domain.MsgRecipientMismatch, rej.Message)
	assert.Zero(t, h.deposits.count())
	assert.True(t, h.deposits.userBalance("u1").IsZero())
}

func TestValidateDeposit_TokenMismatch(t *testing.T) {
	h := newHarness(t)
	h.wallets.add("u1", domain.NetworkBase, baseWalletAddr)
	fact := baseFact(baseWalletAddr, 1_000_000)
	fact.TokenContract = "0x1111111111111111111111111111111111111111"
	h.adapters[domain.NetworkBase].err = nil
	h.adapters[domain.NetworkBase].fact = fact

	_, err := h.uc.ValidateDeposit(context.Background(), VerifyRequest{
		TransactionID: baseTxID, Network: "ETH-Base", SessionUserID: "u1",
	})
	rej := requireReason(t, err, domain.ReasonTokenMismatch)
	assert.Equal(t, domain.MsgNotStablecoin, rej.Message)
	assert.Zero(t, h.deposits.count())
}

func TestValidateDeposit_SolanaOwnerIsCaseSensitive(t *testing.T) {
	h := newHarness(t)
	h.wallets.add("u1", domain.NetworkSolana, "SoLWalletOwner")
	h.adapters[domain.NetworkSolana].err = nil
	h.adapters[domain.NetworkSolana].fact = &domain.TransferFact{
		Recipient:     "solwalletowner",
		TokenContract: domain.DefaultTokenContracts[domain.NetworkSolana].USDC,
		RawAmount:     usdc(1_000_000),
		Decimals:      6,
		Confirmed:     true,
	}

	_, err := h.uc.ValidateDeposit(context.Background(), VerifyRequest{
		TransactionID: solanaTxID, Network: "SOL", SessionUserID: "u1",
	})
	requireReason(t, err, domain.ReasonRecipientMismatch)
}

func TestValidateDeposit_SolanaNoDestination(t *testing.T) {
	h := newHarness(t)
	h.wallets.add("u1", domain.NetworkSolana, "SoLWalletOwner")
	h.adapters[domain.NetworkSolana].err = domain.Reject(domain.ReasonNotATokenTransfer,
		"Could not determine transaction destination")

	_, err := h.uc.ValidateDeposit(context.Background(), VerifyRequest{
		TransactionID: solanaTxID, Network: "SOL", SessionUserID: "u1",
	})
	rej := requireReason(t, err, domain.ReasonNotATokenTransfer)
	assert.Equal(t, "Could not determine transaction destination", rej.Message)
	assert.Zero(t, h.deposits.count())
}

func TestValidateDeposit_AdapterErrorsStayTyped(t *testing.T) {
	h := newHarness(t)
	h.wallets.add("u1", domain.NetworkBase, baseWalletAddr)

	h.adapters[domain.NetworkBase].err = errors.New("connection reset")
	_, err := h.uc.ValidateDeposit(context.Background(), VerifyRequest{
		TransactionID: baseTxID, Network: "ETH-Base", SessionUserID: "u1",
	})
	rej := requireReason(t, err, domain.ReasonAdapterFailure)
	assert.False(t, rej.Retryable())

	h.adapters[domain.NetworkBase].err = domain.Reject(domain.ReasonNotFound, "Transaction not found on Base network")
	_, err = h.uc.ValidateDeposit(context.Background(), VerifyRequest{
		TransactionID: baseTxID, Network: "ETH-Base", SessionUserID: "u1",
	})
	rej = requireReason(t, err, domain.ReasonNotFound)
	assert.Equal(t, "Transaction not found on Base network", rej.Message)
}

func TestValidateDeposit_AdapterBoundedByTimeout(t *testing.T) {
	h := newHarness(t)
	h.uc.rpcTimeout = 20 * time.Millisecond
	h.wallets.add("u1", domain.NetworkBase, baseWalletAddr)
	h.adapters[domain.NetworkBase].block = true

	start := time.Now()
	_, err := h.uc.ValidateDeposit(context.Background(), VerifyRequest{
		TransactionID: baseTxID, Network: "ETH-Base", SessionUserID: "u1",
	})
	requireReason(t, err, domain.ReasonAdapterFailure)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestValidateDeposit_PersistenceFailureIsRetryable(t *testing.T) {
	h := newHarness(t)
	h.wallets.add("u1", domain.NetworkBase, baseWalletAddr)
	h.adapters[domain.NetworkBase].err = nil
	h.adapters[domain.NetworkBase].fact = baseFact(baseWalletAddr, 1_000_000)
	h.deposits.commitErr = errors.New("connection refused")

	_, err := h.uc.ValidateDeposit(context.Background(), VerifyRequest{
		TransactionID: baseTxID, Network: "ETH-Base", SessionUserID: "u1",
	})
	rej := requireReason(t, err, domain.ReasonPersistenceFailure)
	assert.True(t, rej.Retryable())
	assert.Equal(t, domain.MsgProcessingFailed, rej.Message)
	assert.Zero(t, h.publisher.count())

	// Retry after recovery succeeds
	h.deposits.commitErr = nil
	_, err = h.uc.ValidateDeposit(context.Background(), VerifyRequest{
		TransactionID: baseTxID, Network: "ETH-Base", SessionUserID: "u1",
	})
	require.NoError(t, err)
}

func TestValidateDeposit_PublishFailureDoesNotFailCredit(t *testing.T) {
	h := newHarness(t)
	h.wallets.add("u1", domain.NetworkBase, baseWalletAddr)
	h.adapters[domain.NetworkBase].err = nil
	h.adapters[domain.NetworkBase].fact = baseFact(baseWalletAddr, 1_000_000)
	h.publisher.err = errors.New("redis down")

	_, err := h.uc.ValidateDeposit(context.Background(), VerifyRequest{
		TransactionID: baseTxID, Network: "ETH-Base", SessionUserID: "u1",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, h.deposits.count())
}

func TestValidateDeposit_ZeroAmountRejected(t *testing.T) {
	h := newHarness(t)
	h.wallets.add("u1", domain.NetworkBase, baseWalletAddr)
	h.adapters[domain.NetworkBase].err = nil
	h.adapters[domain.NetworkBase].fact = baseFact(baseWalletAddr, 0)

	_, err := h.uc.ValidateDeposit(context.Background(), VerifyRequest{
		TransactionID: baseTxID, Network: "ETH-Base", SessionUserID: "u1",
	})
	requireReason(t, err, domain.ReasonNotATokenTransfer)
}

func TestGetUserDeposits_ClampsLimit(t *testing.T) {
	h := newHarness(t)
	h.wallets.add("u1", domain.NetworkBase, baseWalletAddr)
	h.adapters[domain.NetworkBase].err = nil
	h.adapters[domain.NetworkBase].fact = baseFact(baseWalletAddr, 1_000_000)

	for i := 0; i < 3; i++ {
		tx := "0x" + strings.Repeat(string("abc"[i]), 64)
		_, err := h.uc.ValidateDeposit(context.Background(), VerifyRequest{
			TransactionID: tx, Network: "ETH-Base", SessionUserID: "u1",
		})
		require.NoError(t, err)
	}

	all, err := h.uc.GetUserDeposits(context.Background(), "u1", 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	page, err := h.uc.GetUserDeposits(context.Background(), "u1", 2, 2)
	require.NoError(t, err)
	assert.Len(t, page, 1)

	none, err := h.uc.GetUserDeposits(context.Background(), "u2", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = h.uc.GetUserDeposits(context.Background(), "", 10, 0)
	requireReason(t, err, domain.ReasonInvalidRequest)
}
