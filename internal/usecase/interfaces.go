// internal/usecase/interfaces.go
package usecase

import (
	"context"

	"deposit-service/internal/chains"
	"deposit-service/internal/domain"
)

// WalletStore reads custodial wallets
type WalletStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Wallet, error)
	GetUserWallet(ctx context.Context, userID string, network domain.Network) (*domain.Wallet, error)
	GetUserWallets(ctx context.Context, userID string) ([]*domain.Wallet, error)
}

// DepositStore is the ledger. CommitVerified, ConfirmPending and
// CompletePending credit balances atomically with the status change.
type DepositStore interface {
	ExistsByTransactionID(ctx context.Context, txID string) (bool, error)
	CommitVerified(ctx context.Context, res *domain.VerificationResult) (*domain.Deposit, error)

	CreatePending(ctx context.Context, deposit *domain.Deposit) error
	ConfirmPending(ctx context.Context, depositID, reviewer string) (*domain.Deposit, error)
	CompletePending(ctx context.Context, depositID string, res *domain.VerificationResult) (*domain.Deposit, error)
	RejectPending(ctx context.Context, depositID, reviewer, note string) (*domain.Deposit, error)

	GetByID(ctx context.Context, depositID string) (*domain.Deposit, error)
	GetUserDeposits(ctx context.Context, userID string, limit, offset int) ([]*domain.Deposit, error)
	GetPendingDeposits(ctx context.Context, limit int) ([]*domain.Deposit, error)
}

// AdapterSource resolves the adapter for a network
type AdapterSource interface {
	Get(network domain.Network) (chains.Adapter, error)
}

// EventPublisher delivers deposit events to downstream consumers
type EventPublisher interface {
	PublishDepositCompleted(ctx context.Context, event *domain.DepositCompletedEvent) error
}
