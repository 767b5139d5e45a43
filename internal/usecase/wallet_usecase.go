// internal/usecase/wallet_usecase.go
package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"deposit-service/internal/domain"
	"deposit-service/internal/repository"
)

// DepositAddress is where a user sends funds on one network, together
// with the stablecoin contracts accepted there
type DepositAddress struct {
	WalletID  int64
	Network   domain.Network
	Address   string
	Contracts domain.TokenContracts
}

type WalletUsecase struct {
	wallets WalletStore
	tokens  *domain.TokenRegistry
	logger  *zap.Logger
}

func NewWalletUsecase(wallets WalletStore, tokens *domain.TokenRegistry, logger *zap.Logger) *WalletUsecase {
	return &WalletUsecase{
		wallets: wallets,
		tokens:  tokens,
		logger:  logger,
	}
}

// GetDepositAddresses lists the user's deposit addresses on every
// supported network that has a wallet
func (uc *WalletUsecase) GetDepositAddresses(ctx context.Context, userID string) ([]*DepositAddress, error) {
	if userID == "" {
		return nil, domain.Reject(domain.ReasonInvalidRequest, domain.MsgMissingFields)
	}

	wallets, err := uc.wallets.GetUserWallets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallets: %w", err)
	}

	addresses := make([]*DepositAddress, 0, len(wallets))
	for _, wallet := range wallets {
		contracts, err := uc.tokens.Contracts(wallet.Network)
		if err != nil {
			uc.logger.Warn("Skipping wallet on unsupported network",
				zap.Int64("wallet_id", wallet.ID),
				zap.String("network", string(wallet.Network)))
			continue
		}
		addresses = append(addresses, &DepositAddress{
			WalletID:  wallet.ID,
			Network:   wallet.Network,
			Address:   wallet.PublicKey,
			Contracts: contracts,
		})
	}
	return addresses, nil
}

// GetDepositAddress returns the user's deposit address on one network
func (uc *WalletUsecase) GetDepositAddress(ctx context.Context, userID, network string) (*DepositAddress, error) {
	n, ok := domain.ParseNetwork(network)
	if !ok {
		return nil, domain.Reject(domain.ReasonInvalidRequest, domain.MsgInvalidNetwork)
	}

	wallet, err := uc.wallets.GetUserWallet(ctx, userID, n)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.Reject(domain.ReasonNoWalletForNetwork, domain.MsgNoWallet)
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	contracts, err := uc.tokens.Contracts(n)
	if err != nil {
		return nil, err
	}
	return &DepositAddress{
		WalletID:  wallet.ID,
		Network:   n,
		Address:   wallet.PublicKey,
		Contracts: contracts,
	}, nil
}
