// internal/repository/deposit_repo.go
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"deposit-service/internal/domain"
	"deposit-service/pkg/id"
)

type DepositRepository struct {
	pool *pgxpool.Pool
}

func NewDepositRepository(pool *pgxpool.Pool) *DepositRepository {
	return &DepositRepository{pool: pool}
}

const depositColumns = `
	id, user_id, wallet_id, transaction_id, network, amount::text,
	token, from_address, status, note, reviewed_by, created_at, updated_at
`

// ============================================================================
// LEDGER
// ============================================================================

// CommitVerified records a verified deposit as completed and credits the
// user and wallet balances in one transaction. A second commit for the same
// transaction id fails with ErrDuplicateTransaction and changes nothing.
func (r *DepositRepository) CommitVerified(ctx context.Context, res *domain.VerificationResult) (*domain.Deposit, error) {
	deposit := &domain.Deposit{
		ID:            id.GenerateUUID(id.PrefixDeposit),
		UserID:        res.UserID,
		WalletID:      res.WalletID,
		TransactionID: res.TransactionID,
		Network:       res.Network,
		Amount:        res.Amount,
		Token:         res.Token,
		FromAddress:   res.FromAddress,
		Status:        domain.DepositStatusCompleted,
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := insertDeposit(ctx, tx, deposit); err != nil {
		return nil, err
	}

	if err := creditBalances(ctx, tx, deposit); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateTransaction
		}
		return nil, fmt.Errorf("failed to commit deposit: %w", err)
	}

	return deposit, nil
}

// CreatePending records a manually submitted deposit awaiting review.
// No balance changes.
func (r *DepositRepository) CreatePending(ctx context.Context, deposit *domain.Deposit) error {
	if deposit.ID == "" {
		deposit.ID = id.GenerateUUID(id.PrefixDeposit)
	}
	deposit.Status = domain.DepositStatusPending

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := insertDeposit(ctx, tx, deposit); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit pending deposit: %w", err)
	}
	return nil
}

// ConfirmPending completes a pending deposit with its recorded amount and
// credits the balances
func (r *DepositRepository) ConfirmPending(ctx context.Context, depositID, reviewer string) (*domain.Deposit, error) {
	return r.completePending(ctx, depositID, reviewer, nil)
}

// CompletePending completes a pending deposit with verified on-chain values,
// replacing the claimed amount, and credits the balances
func (r *DepositRepository) CompletePending(ctx context.Context, depositID string, res *domain.VerificationResult) (*domain.Deposit, error) {
	return r.completePending(ctx, depositID, "system", res)
}

func (r *DepositRepository) completePending(
	ctx context.Context,
	depositID, reviewer string,
	verified *domain.VerificationResult,
) (*domain.Deposit, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// The status guard makes completion single-shot across admins,
	// workers and replicas
	var row pgx.Row
	if verified != nil {
		row = tx.QueryRow(ctx, `
			UPDATE deposits
			SET status = 'completed', amount = $2::numeric, token = $3,
			    from_address = $4, reviewed_by = $5, updated_at = NOW()
			WHERE id = $1 AND status = 'pending'
			RETURNING `+depositColumns,
			depositID, verified.Amount.String(), string(verified.Token), verified.FromAddress, reviewer)
	} else {
		row = tx.QueryRow(ctx, `
			UPDATE deposits
			SET status = 'completed', reviewed_by = $2, updated_at = NOW()
			WHERE id = $1 AND status = 'pending'
			RETURNING `+depositColumns,
			depositID, reviewer)
	}

	deposit, err := scanDeposit(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.notPendingOrMissing(ctx, tx, depositID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to complete deposit: %w", err)
	}

	if err := creditBalances(ctx, tx, deposit); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit deposit: %w", err)
	}
	return deposit, nil
}

// RejectPending marks a pending deposit as rejected
func (r *DepositRepository) RejectPending(ctx context.Context, depositID, reviewer, note string) (*domain.Deposit, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	deposit, err := scanDeposit(tx.QueryRow(ctx, `
		UPDATE deposits
		SET status = 'rejected', note = $2, reviewed_by = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING `+depositColumns,
		depositID, note, reviewer))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.notPendingOrMissing(ctx, tx, depositID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to reject deposit: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit rejection: %w", err)
	}
	return deposit, nil
}

// ============================================================================
// QUERIES
// ============================================================================

// ExistsByTransactionID reports whether a pending or completed deposit uses
// txID. Rejected deposits do not hold their transaction id.
func (r *DepositRepository) ExistsByTransactionID(ctx context.Context, txID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM deposits WHERE transaction_id = $1 AND status <> 'rejected')`, txID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check deposit: %w", err)
	}
	return exists, nil
}

// GetByID gets a deposit by id
func (r *DepositRepository) GetByID(ctx context.Context, depositID string) (*domain.Deposit, error) {
	deposit, err := scanDeposit(r.pool.QueryRow(ctx,
		`SELECT `+depositColumns+` FROM deposits WHERE id = $1`, depositID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deposit: %w", err)
	}
	return deposit, nil
}

// GetUserDeposits lists a user's deposits, newest first
func (r *DepositRepository) GetUserDeposits(ctx context.Context, userID string, limit, offset int) ([]*domain.Deposit, error) {
	return r.list(ctx, `
		SELECT `+depositColumns+`
		FROM deposits
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
}

// GetPendingDeposits lists pending deposits, oldest first
func (r *DepositRepository) GetPendingDeposits(ctx context.Context, limit int) ([]*domain.Deposit, error) {
	return r.list(ctx, `
		SELECT `+depositColumns+`
		FROM deposits
		WHERE status = 'pending'
		ORDER BY created_at ASC, id ASC
		LIMIT $1
	`, limit)
}

func (r *DepositRepository) list(ctx context.Context, query string, args ...interface{}) ([]*domain.Deposit, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query deposits: %w", err)
	}
	defer rows.Close()

	deposits := make([]*domain.Deposit, 0)
	for rows.Next() {
		deposit, err := scanDeposit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deposit: %w", err)
		}
		deposits = append(deposits, deposit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate deposits: %w", err)
	}
	return deposits, nil
}

// ============================================================================
// HELPER FUNCTIONS
// ============================================================================

func insertDeposit(ctx context.Context, tx pgx.Tx, deposit *domain.Deposit) error {
	query := `
		INSERT INTO deposits (
			id, user_id, wallet_id, transaction_id, network,
			amount, token, from_address, status
		) VALUES (
			$1, $2, $3, $4, $5,
			$6::numeric, $7, $8, $9
		)
		RETURNING created_at, updated_at
	`

	err := tx.QueryRow(ctx, query,
		deposit.ID,
		deposit.UserID,
		deposit.WalletID,
		deposit.TransactionID,
		string(deposit.Network),
		deposit.Amount.String(),
		string(deposit.Token),
		deposit.FromAddress,
		string(deposit.Status),
	).Scan(&deposit.CreatedAt, &deposit.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateTransaction
		}
		return fmt.Errorf("failed to insert deposit: %w", err)
	}
	return nil
}

// creditBalances adds the deposit amount to the user and wallet balances.
// Both rows must exist; the wallet must belong to the user on the
// deposit's network.
func creditBalances(ctx context.Context, tx pgx.Tx, deposit *domain.Deposit) error {
	amount := deposit.Amount.String()

	tag, err := tx.Exec(ctx,
		`UPDATE users SET balance = balance + $1::numeric WHERE id = $2`,
		amount, deposit.UserID)
	if err != nil {
		return fmt.Errorf("failed to credit user balance: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("failed to credit user balance: user %s not found", deposit.UserID)
	}

	tag, err = tx.Exec(ctx, `
		UPDATE wallets SET balance = balance + $1::numeric, updated_at = NOW()
		WHERE id = $2 AND user_id = $3 AND network = $4`,
		amount, deposit.WalletID, deposit.UserID, string(deposit.Network))
	if err != nil {
		return fmt.Errorf("failed to credit wallet balance: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("failed to credit wallet balance: wallet %d not found for user on %s",
			deposit.WalletID, deposit.Network)
	}
	return nil
}

func (r *DepositRepository) notPendingOrMissing(ctx context.Context, tx pgx.Tx, depositID string) error {
	var status string
	err := tx.QueryRow(ctx, `SELECT status FROM deposits WHERE id = $1`, depositID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get deposit status: %w", err)
	}
	return ErrNotPending
}

func scanDeposit(row Scanner) (*domain.Deposit, error) {
	deposit := &domain.Deposit{}
	var network, amountStr, token, status string

	err := row.Scan(
		&deposit.ID,
		&deposit.UserID,
		&deposit.WalletID,
		&deposit.TransactionID,
		&network,
		&amountStr,
		&token,
		&deposit.FromAddress,
		&status,
		&deposit.Note,
		&deposit.ReviewedBy,
		&deposit.CreatedAt,
		&deposit.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	deposit.Network = domain.Network(network)
	deposit.Token = domain.Token(token)
	deposit.Status = domain.DepositStatus(status)
	deposit.Amount, err = decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("invalid deposit amount %q: %w", amountStr, err)
	}
	return deposit, nil
}
