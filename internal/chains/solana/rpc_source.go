// internal/chains/solana/rpc_source.go
package solana

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

var errTxNotFound = errors.New("transaction not found")

// RPCClient is the subset of the Solana JSON-RPC client used here
type RPCClient interface {
	GetTransaction(ctx context.Context, txSig solana.Signature, opts *rpc.GetTransactionOpts) (*rpc.GetTransactionResult, error)
	GetAccountInfoWithOpts(ctx context.Context, account solana.PublicKey, opts *rpc.GetAccountInfoOpts) (*rpc.GetAccountInfoResult, error)
}

// accountView is the owning program and raw data of an account
type accountView struct {
	Program solana.PublicKey
	Data    []byte
}

type source interface {
	transaction(ctx context.Context, sig solana.Signature) (*txView, error)
	account(ctx context.Context, key solana.PublicKey) (*accountView, error)
}

// rpcSource reads finalized state through JSON-RPC
type rpcSource struct {
	client RPCClient
}

func (s *rpcSource) transaction(ctx context.Context, sig solana.Signature) (*txView, error) {
	maxVersion := uint64(0)
	out, err := s.client.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     rpc.CommitmentFinalized,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, errTxNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	if out == nil || out.Transaction == nil {
		return nil, errTxNotFound
	}
	if out.Meta == nil {
		return nil, errors.New("transaction has no metadata")
	}

	tx, err := out.Transaction.GetTransaction()
	if err != nil {
		return nil, fmt.Errorf("failed to decode transaction: %w", err)
	}

	// Static keys first, then keys loaded from address lookup tables
	keys := make([]solana.PublicKey, 0, len(tx.Message.AccountKeys))
	keys = append(keys, tx.Message.AccountKeys...)
	keys = append(keys, out.Meta.LoadedAddresses.Writable...)
	keys = append(keys, out.Meta.LoadedAddresses.ReadOnly...)

	pre, err := convertBalances(out.Meta.PreTokenBalances)
	if err != nil {
		return nil, err
	}
	post, err := convertBalances(out.Meta.PostTokenBalances)
	if err != nil {
		return nil, err
	}

	return &txView{
		Failed:      out.Meta.Err != nil,
		AccountKeys: keys,
		Pre:         pre,
		Post:        post,
	}, nil
}

func (s *rpcSource) account(ctx context.Context, key solana.PublicKey) (*accountView, error) {
	out, err := s.client.GetAccountInfoWithOpts(ctx, key, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: rpc.CommitmentFinalized,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get account info: %w", err)
	}
	if out == nil || out.Value == nil || out.Value.Data == nil {
		return nil, fmt.Errorf("account %s not found", key)
	}

	return &accountView{
		Program: out.Value.Owner,
		Data:    out.Value.Data.GetBinary(),
	}, nil
}

func convertBalances(in []rpc.TokenBalance) ([]tokenBalance, error) {
	out := make([]tokenBalance, 0, len(in))
	for _, b := range in {
		if b.UiTokenAmount == nil {
			continue
		}
		amount, err := parseTokenAmount(b.UiTokenAmount.Amount)
		if err != nil {
			return nil, err
		}
		out = append(out, tokenBalance{
			AccountIndex: b.AccountIndex,
			Mint:         b.Mint,
			Amount:       amount,
			Decimals:     b.UiTokenAmount.Decimals,
		})
	}
	return out, nil
}
