// internal/chains/ethereum/ethereum.go
package ethereum

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"deposit-service/internal/domain"
)

const (
	msgNotFound     = "Transaction not found on Base network"
	msgNotConfirmed = "Transaction failed or not confirmed"
	msgNoTransfer   = "No valid token transfer found in transaction"
	msgRPCFailed    = "Failed to fetch transaction from Base network"
	msgRPCTimeout   = "Timed out fetching transaction from Base network"
)

// Client is the subset of ethclient used to verify deposits
type Client interface {
	TransactionByHash(ctx context.Context, hash common.Hash) (tx *types.Transaction, isPending bool, err error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

type Config struct {
	// MinConfirmations counts the inclusion block. 0 or 1 accepts any mined receipt.
	MinConfirmations uint64
	// ReceiptPollInterval is used while a transaction is still pending
	ReceiptPollInterval time.Duration
}

// Adapter verifies ERC-20 stablecoin transfers on an EVM chain (Base)
type Adapter struct {
	client    Client
	contracts domain.TokenContracts
	config    Config
	logger    *zap.Logger
}

// Dial connects to an EVM JSON-RPC endpoint
func Dial(ctx context.Context, rpcURL string, logger *zap.Logger) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Base: %w", err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}

	logger.Info("Base chain initialized",
		zap.String("rpc", rpcURL),
		zap.String("chain_id", chainID.String()))

	return client, nil
}

func NewAdapter(client Client, contracts domain.TokenContracts, config Config, logger *zap.Logger) *Adapter {
	if config.ReceiptPollInterval <= 0 {
		config.ReceiptPollInterval = 2 * time.Second
	}
	return &Adapter{
		client:    client,
		contracts: contracts,
		config:    config,
		logger:    logger,
	}
}

// Network returns the network this adapter serves
func (a *Adapter) Network() domain.Network {
	return domain.NetworkBase
}

// FetchTransfer loads the transaction, requires a successful receipt, and
// decodes the stablecoin Transfer event it emitted.
func (a *Adapter) FetchTransfer(ctx context.Context, txID string) (*domain.TransferFact, error) {
	hash := common.HexToHash(txID)

	tx, isPending, err := a.client.TransactionByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, domain.Reject(domain.ReasonNotFound, msgNotFound)
		}
		return nil, a.rpcFailure(ctx, txID, "failed to get transaction", err)
	}

	receipt, err := a.receipt(ctx, hash, isPending)
	if err != nil {
		return nil, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, domain.Reject(domain.ReasonNotConfirmed, msgNotConfirmed)
	}
	if err := a.checkConfirmations(ctx, txID, receipt); err != nil {
		return nil, err
	}

	to := tx.To()
	if to == nil || !a.isTokenContract(*to) {
		return nil, domain.Reject(domain.ReasonNotATokenTransfer, domain.MsgNotStablecoin)
	}

	ev, err := findTransferLog(receipt.Logs, *to)
	if err != nil {
		return nil, domain.RejectWrap(domain.ReasonNotATokenTransfer, msgNoTransfer, err)
	}

	return &domain.TransferFact{
		Network:       domain.NetworkBase,
		TransactionID: txID,
		Recipient:     ev.To.Hex(),
		TokenContract: to.Hex(),
		RawAmount:     ev.Value,
		Decimals:      domain.StablecoinDecimals,
		FromAddress:   ev.From.Hex(),
		Confirmed:     true,
	}, nil
}

// receipt reads the receipt, polling while the transaction is pending
// until ctx is done.
func (a *Adapter) receipt(ctx context.Context, hash common.Hash, isPending bool) (*types.Receipt, error) {
	if !isPending {
		receipt, err := a.client.TransactionReceipt(ctx, hash)
		if err != nil {
			if errors.Is(err, ethereum.NotFound) {
				return nil, domain.Reject(domain.ReasonNotConfirmed, msgNotConfirmed)
			}
			return nil, a.rpcFailure(ctx, hash.Hex(), "failed to get receipt", err)
		}
		return receipt, nil
	}

	a.logger.Debug("transaction pending, waiting for receipt",
		zap.String("tx_hash", hash.Hex()))

	ticker := time.NewTicker(a.config.ReceiptPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, domain.RejectWrap(domain.ReasonNotConfirmed, msgNotConfirmed, ctx.Err())

		case <-ticker.C:
			receipt, err := a.client.TransactionReceipt(ctx, hash)
			if err == nil {
				return receipt, nil
			}
			if !errors.Is(err, ethereum.NotFound) {
				a.logger.Warn("failed to get receipt",
					zap.String("tx_hash", hash.Hex()),
					zap.Error(err))
			}
		}
	}
}

func (a *Adapter) checkConfirmations(ctx context.Context, txID string, receipt *types.Receipt) error {
	if a.config.MinConfirmations <= 1 || receipt.BlockNumber == nil {
		return nil
	}

	head, err := a.client.BlockNumber(ctx)
	if err != nil {
		return a.rpcFailure(ctx, txID, "failed to get block number", err)
	}

	included := receipt.BlockNumber.Uint64()
	if head < included || head-included+1 < a.config.MinConfirmations {
		return domain.Reject(domain.ReasonNotConfirmed, msgNotConfirmed)
	}
	return nil
}

func (a *Adapter) isTokenContract(addr common.Address) bool {
	hex := addr.Hex()
	return domain.NetworkBase.AddressesEqual(hex, a.contracts.USDT) ||
		domain.NetworkBase.AddressesEqual(hex, a.contracts.USDC)
}

func (a *Adapter) rpcFailure(ctx context.Context, txID, op string, err error) error {
	a.logger.Warn("base rpc call failed",
		zap.String("tx_hash", txID),
		zap.String("op", op),
		zap.Error(err))

	if ctx.Err() != nil {
		return domain.RejectWrap(domain.ReasonAdapterFailure, msgRPCTimeout, err)
	}
	return domain.RejectWrap(domain.ReasonAdapterFailure, msgRPCFailed, fmt.Errorf("%s: %w", op, err))
}
