// internal/repository/wallet_repo.go
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"deposit-service/internal/domain"
)

type WalletRepository struct {
	pool *pgxpool.Pool
}

func NewWalletRepository(pool *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{pool: pool}
}

const walletColumns = `id, user_id, network, public_key, balance::text, created_at`

// GetByID gets a wallet by id
func (r *WalletRepository) GetByID(ctx context.Context, id int64) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1`

	wallet, err := scanWallet(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return wallet, nil
}

// GetUserWallet gets the user's wallet on network
func (r *WalletRepository) GetUserWallet(ctx context.Context, userID string, network domain.Network) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1 AND network = $2`

	wallet, err := scanWallet(r.pool.QueryRow(ctx, query, userID, string(network)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return wallet, nil
}

// GetUserWallets lists all wallets of a user
func (r *WalletRepository) GetUserWallets(ctx context.Context, userID string) ([]*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1 ORDER BY network`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query wallets: %w", err)
	}
	defer rows.Close()

	var wallets []*domain.Wallet
	for rows.Next() {
		wallet, err := scanWallet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wallet: %w", err)
		}
		wallets = append(wallets, wallet)
	}
	return wallets, rows.Err()
}

// Scanner interface for both Row and Rows
type Scanner interface {
	Scan(dest ...interface{}) error
}

func scanWallet(scanner Scanner) (*domain.Wallet, error) {
	wallet := &domain.Wallet{}
	var network, balanceStr string

	err := scanner.Scan(
		&wallet.ID,
		&wallet.UserID,
		&network,
		&wallet.PublicKey,
		&balanceStr,
		&wallet.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	wallet.Network = domain.Network(network)
	wallet.Balance, err = decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("invalid wallet balance %q: %w", balanceStr, err)
	}
	return wallet, nil
}
