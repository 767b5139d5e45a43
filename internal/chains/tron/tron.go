// internal/chains/tron/tron.go
package tron

import (
	"context"
	"fmt"

	"github.com/fbsobreira/gotron-sdk/pkg/proto/core"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"

	"deposit-service/internal/domain"
)

const (
	msgNotFound         = "Transaction not found on Tron network"
	msgInvalidStructure = "Invalid transaction structure"
	msgFailed           = "Transaction failed on Tron network"
	msgNotSmartContract = "Not a valid smart contract transaction"
	msgNotTransfer      = "Not a token transfer transaction"
	msgRPCFailed        = "Failed to fetch transaction from Tron network"
	msgRPCTimeout       = "Timed out fetching transaction from Tron network"
)

// Adapter verifies TRC-20 stablecoin transfers
type Adapter struct {
	source Source
	logger *zap.Logger
}

func NewAdapter(source Source, logger *zap.Logger) *Adapter {
	return &Adapter{
		source: source,
		logger: logger,
	}
}

// Network returns the network this adapter serves
func (a *Adapter) Network() domain.Network {
	return domain.NetworkTron
}

// FetchTransfer loads the transaction and decodes its single
// transfer(address,uint256) call.
func (a *Adapter) FetchTransfer(ctx context.Context, txID string) (*domain.TransferFact, error) {
	tx, err := a.source.GetTransactionByID(ctx, txID)
	if err != nil {
		if ctx.Err() == nil && isNotFound(err) {
			return nil, domain.Reject(domain.ReasonNotFound, msgNotFound)
		}
		return nil, a.rpcFailure(ctx, txID, err)
	}
	if tx == nil || proto.Size(tx) == 0 {
		return nil, domain.Reject(domain.ReasonNotFound, msgNotFound)
	}

	if tx.RawData == nil || len(tx.RawData.Contract) == 0 {
		return nil, domain.Reject(domain.ReasonAdapterFailure, msgInvalidStructure)
	}

	if len(tx.Ret) == 0 || tx.Ret[0].ContractRet != core.Transaction_Result_SUCCESS {
		return nil, domain.Reject(domain.ReasonNotConfirmed, msgFailed)
	}

	if len(tx.RawData.Contract) != 1 {
		return nil, domain.Reject(domain.ReasonNotATokenTransfer, msgNotSmartContract)
	}
	contract := tx.RawData.Contract[0]
	if contract.Type != core.Transaction_Contract_TriggerSmartContract || contract.Parameter == nil {
		return nil, domain.Reject(domain.ReasonNotATokenTransfer, msgNotSmartContract)
	}

	var trigger core.TriggerSmartContract
	if err := proto.Unmarshal(contract.Parameter.Value, &trigger); err != nil {
		return nil, domain.RejectWrap(domain.ReasonAdapterFailure, msgInvalidStructure,
			fmt.Errorf("failed to unmarshal trigger contract: %w", err))
	}

	call, err := decodeTransferCall(trigger.Data)
	if err != nil {
		return nil, domain.RejectWrap(domain.ReasonNotATokenTransfer, msgNotTransfer, err)
	}

	return &domain.TransferFact{
		Network:       domain.NetworkTron,
		TransactionID: txID,
		Recipient:     call.To.String(),
		TokenContract: encodeAddress(trigger.ContractAddress),
		RawAmount:     call.Amount,
		Decimals:      domain.StablecoinDecimals,
		FromAddress:   encodeAddress(trigger.OwnerAddress),
		Confirmed:     true,
	}, nil
}

func (a *Adapter) rpcFailure(ctx context.Context, txID string, err error) error {
	a.logger.Warn("tron rpc call failed",
		zap.String("tx_id", txID),
		zap.Error(err))

	if ctx.Err() != nil {
		return domain.RejectWrap(domain.ReasonAdapterFailure, msgRPCTimeout, err)
	}
	return domain.RejectWrap(domain.ReasonAdapterFailure, msgRPCFailed, err)
}
