// internal/chains/solana/solana.go
package solana

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"deposit-service/internal/domain"
)

const (
	msgInvalidSignature = "Invalid transaction ID format for SOL"
	msgNotFound         = "Transaction not found on Solana network"
	msgFailed           = "Transaction failed on Solana network"
	msgNoDestination    = "Could not determine transaction destination"
	msgNoTokenType      = "Could not determine token type"
	msgNoAccountInfo    = "Could not fetch destination token account info"
	msgRPCFailed        = "Failed to fetch transaction from Solana network"
	msgRPCTimeout       = "Timed out fetching transaction from Solana network"
)

// Adapter verifies SPL stablecoin transfers on Solana
type Adapter struct {
	source source
	logger *zap.Logger
}

// NewAdapter wraps a JSON-RPC client, usually rpc.New(endpoint)
func NewAdapter(client RPCClient, logger *zap.Logger) *Adapter {
	return newAdapter(&rpcSource{client: client}, logger)
}

// NewRPCClient creates a JSON-RPC client for endpoint
func NewRPCClient(endpoint string, logger *zap.Logger) *rpc.Client {
	logger.Info("Solana RPC client initialized", zap.String("rpc", endpoint))
	return rpc.New(endpoint)
}

func newAdapter(src source, logger *zap.Logger) *Adapter {
	return &Adapter{
		source: src,
		logger: logger,
	}
}

// Network returns the network this adapter serves
func (a *Adapter) Network() domain.Network {
	return domain.NetworkSolana
}

// FetchTransfer loads a finalized transaction, finds the token account it
// credited and resolves that account's owning wallet.
func (a *Adapter) FetchTransfer(ctx context.Context, txID string) (*domain.TransferFact, error) {
	sig, err := solana.SignatureFromBase58(txID)
	if err != nil {
		return nil, domain.RejectWrap(domain.ReasonInvalidFormat, msgInvalidSignature, err)
	}

	tx, err := a.source.transaction(ctx, sig)
	if err != nil {
		if errors.Is(err, errTxNotFound) {
			return nil, domain.Reject(domain.ReasonNotFound, msgNotFound)
		}
		return nil, a.rpcFailure(ctx, txID, err)
	}
	if tx.Failed {
		return nil, domain.Reject(domain.ReasonNotConfirmed, msgFailed)
	}

	credit, err := findTokenCredit(tx)
	switch {
	case err == nil:
	case errors.Is(err, ErrNoDestination):
		return nil, domain.RejectWrap(domain.ReasonNotATokenTransfer, msgNoDestination, err)
	case errors.Is(err, ErrUndeterminedMint), errors.Is(err, ErrInconsistentMint):
		return nil, domain.RejectWrap(domain.ReasonNotATokenTransfer, msgNoTokenType, err)
	default:
		return nil, domain.RejectWrap(domain.ReasonAdapterFailure, msgNoDestination, err)
	}

	// The credited address is a token account; the deposit belongs to its owner
	account, err := a.source.account(ctx, credit.Account)
	if err != nil {
		a.logger.Warn("failed to fetch destination token account",
			zap.String("tx_id", txID),
			zap.String("account", credit.Account.String()),
			zap.Error(err))
		return nil, domain.RejectWrap(domain.ReasonAdapterFailure, msgNoAccountInfo, err)
	}
	owner, err := decodeTokenAccountOwner(account.Program, account.Data)
	if err != nil {
		return nil, domain.RejectWrap(domain.ReasonAdapterFailure, msgNoAccountInfo, err)
	}

	return &domain.TransferFact{
		Network:       domain.NetworkSolana,
		TransactionID: txID,
		Recipient:     owner.String(),
		TokenContract: credit.Mint.String(),
		RawAmount:     credit.Amount,
		Decimals:      int32(credit.Decimals),
		FromAddress:   credit.Sender.String(),
		Confirmed:     true,
	}, nil
}

func (a *Adapter) rpcFailure(ctx context.Context, txID string, err error) error {
	a.logger.Warn("solana rpc call failed",
		zap.String("tx_id", txID),
		zap.Error(err))

	if ctx.Err() != nil {
		return domain.RejectWrap(domain.ReasonAdapterFailure, msgRPCTimeout, err)
	}
	return domain.RejectWrap(domain.ReasonAdapterFailure, msgRPCFailed, err)
}
